// Package slot holds the compiled instruction representation shared by
// every later compiler phase: the lexer/parser emits slots, the inliner
// and peephole optimizer rewrite them, the stack checker walks them, and
// the interpreter executes them.
//
// A Slot is discriminated by position, not by a runtime tag: each Op
// declares (via the owning builtin or pseudo-op) whether it is followed
// by an immediate Number or Offset slot. This mirrors
// KTStephano-GVM/vm/compile.go's fixed-shape Instruction cell, adapted
// from a register machine to this engine's pure stack machine.
package slot

import (
	"fmt"

	"shaderforth/engine/words"
)

// Kind discriminates what a Slot currently holds.
type Kind uint8

const (
	// KindOp holds a reference to a runtime builtin (an opcode).
	KindOp Kind = iota
	// KindNumber holds an immediate float64, always the operand of a
	// preceding push_number op.
	KindNumber
	// KindOffset holds a branch target, always the operand of a
	// preceding jump/jump_if op. Before inlining it is a block-relative
	// slot index; after inlining and optimization it remains a
	// block-relative slot index into the final block.
	KindOffset
	// KindBlockRef holds a reference to a user word's code block. Only
	// ever appears as the operand of a call_user_word op, and only
	// before inlining has run; the inliner's post-condition is that no
	// KindBlockRef slot remains in the main block.
	KindBlockRef
)

// PseudoOp names the small set of opcodes the compiler pipeline itself
// understands structurally, as opposed to ordinary builtins which are
// opaque callbacks to every phase except the interpreter.
type PseudoOp int

const (
	// NotPseudo marks a Slot whose Op is an ordinary builtin.
	NotPseudo PseudoOp = iota
	PushNumber
	JumpIf
	Jump
	Nop
	Halt
	CallUserWord
)

// OpRef names a runtime operation: either one of the fixed pseudo-ops
// the pipeline itself interprets structurally, or a builtin descriptor
// from engine/words.
type OpRef struct {
	Pseudo  PseudoOp
	Builtin *words.Builtin
	Name    string // for disassembly and error messages
}

func (op OpRef) String() string { return op.Name }

// Slot is one cell of a compiled instruction stream.
type Slot struct {
	Kind    Kind
	Op      OpRef   // valid when Kind == KindOp
	Number  float64 // valid when Kind == KindNumber
	Offset  int     // valid when Kind == KindOffset
	BlockID int     // valid when Kind == KindBlockRef
}

// Op builds an opcode slot.
func Op(op OpRef) Slot { return Slot{Kind: KindOp, Op: op} }

// Number builds an immediate-number slot.
func Number(v float64) Slot { return Slot{Kind: KindNumber, Number: v} }

// Offset builds a branch-offset slot.
func Offset(v int) Slot { return Slot{Kind: KindOffset, Offset: v} }

// BlockRef builds a transient call-user-word operand slot.
func BlockRef(id int) Slot { return Slot{Kind: KindBlockRef, BlockID: id} }

// Builtin builds an opcode slot for an ordinary runtime builtin.
func Builtin(b *words.Builtin) Slot {
	return Op(OpRef{Pseudo: NotPseudo, Builtin: b, Name: b.Name})
}

var (
	pushNumberOp   = OpRef{Pseudo: PushNumber, Name: "push_number"}
	jumpIfOp       = OpRef{Pseudo: JumpIf, Name: "jump_if"}
	jumpOp         = OpRef{Pseudo: Jump, Name: "jump"}
	nopOp          = OpRef{Pseudo: Nop, Name: "nop"}
	haltOp         = OpRef{Pseudo: Halt, Name: "halt"}
	callUserWordOp = OpRef{Pseudo: CallUserWord, Name: "call_user_word"}
)

// PushNumberOp, JumpIfOp, JumpOp, NopOp, HaltOp and CallUserWordOp
// return the OpRef for each fixed pseudo-op, for use by every pipeline
// phase that needs to emit or recognize one.
func PushNumberOp() OpRef   { return pushNumberOp }
func JumpIfOp() OpRef       { return jumpIfOp }
func JumpOp() OpRef         { return jumpOp }
func NopOp() OpRef          { return nopOp }
func HaltOp() OpRef         { return haltOp }
func CallUserWordOp() OpRef { return callUserWordOp }

// Width reports how many slots the instruction whose first slot is s
// occupies (1 for a bare opcode, 2 for one followed by an immediate).
func Width(s Slot) int {
	if s.Kind != KindOp {
		return 1
	}
	switch s.Op.Pseudo {
	case PushNumber, JumpIf, Jump, CallUserWord:
		return 2
	default:
		return 1
	}
}

// Block is an ordered, growable sequence of instruction slots, owned
// either by the main word or by a single user word.
type Block struct {
	slots []Slot
}

// Len returns the number of slots currently appended.
func (b *Block) Len() int { return len(b.slots) }

// At returns the slot at ordinal i.
func (b *Block) At(i int) Slot { return b.slots[i] }

// Set overwrites the slot at ordinal i, used by branch back-patching in
// the compiler, the inliner and the peephole optimizer.
func (b *Block) Set(i int, s Slot) { b.slots[i] = s }

// Append adds a slot and returns its ordinal index.
func (b *Block) Append(s Slot) int {
	i := len(b.slots)
	b.slots = append(b.slots, s)
	return i
}

// Reset frees the block's storage, returning it to empty.
func (b *Block) Reset() { b.slots = nil }

// Truncate discards every slot from ordinal n onward, used by the
// peephole optimizer to replace a run of trailing instructions with a
// single fused or folded one.
func (b *Block) Truncate(n int) { b.slots = b.slots[:n] }

// Slots exposes the underlying slice for read-only iteration by later
// phases (inliner, optimizer, checker, interpreter).
func (b *Block) Slots() []Slot { return b.slots }

// Disassemble renders block as one line per instruction, resolving
// branch offsets, in the spirit of the teacher's dumper.go.
func Disassemble(b *Block) string {
	var out []byte
	for i := 0; i < b.Len(); i++ {
		s := b.At(i)
		out = append(out, []byte(fmt.Sprintf("% 4d  ", i))...)
		switch s.Kind {
		case KindOp:
			switch s.Op.Pseudo {
			case PushNumber:
				i++
				out = append(out, []byte(fmt.Sprintf("push_number %v\n", b.At(i).Number))...)
			case JumpIf:
				i++
				out = append(out, []byte(fmt.Sprintf("jump_if -> %v\n", b.At(i).Offset))...)
			case Jump:
				i++
				out = append(out, []byte(fmt.Sprintf("jump -> %v\n", b.At(i).Offset))...)
			case Nop:
				out = append(out, []byte("nop\n")...)
			case Halt:
				out = append(out, []byte("halt\n")...)
			case CallUserWord:
				i++
				out = append(out, []byte(fmt.Sprintf("call_user_word #%v\n", b.At(i).BlockID))...)
			default:
				out = append(out, []byte(s.Op.Name+"\n")...)
			}
		default:
			out = append(out, []byte(fmt.Sprintf("<stray slot %+v>\n", s))...)
		}
	}
	return string(out)
}

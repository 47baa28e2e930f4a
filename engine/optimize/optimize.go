// Package optimize implements the two peephole recognizers spec.md
// §4.5 describes — a one-instruction look-back table (peephole_1) and a
// longer-look-back constant-folding table (peephole_n) — applied in a
// single left-to-right pass over a cloned block, then re-run once more
// if that pass rewrote anything. jump, jump_if and nop are barriers:
// recognizers never match across them.
package optimize

import "shaderforth/engine/slot"
import "shaderforth/engine/words"

// Run optimizes b and returns a new, equivalent block. Per spec.md
// §4.5's "idempotent-up-to-fixpoint" driver, it runs the combined
// recognizers once, and if that pass rewrote anything, once more.
func Run(b *slot.Block) *slot.Block {
	out, rewrote := pass(b)
	if rewrote {
		out, _ = pass(out)
	}
	return out
}

type fixup struct{ dstIdx, srcTarget int }

// pass clones src into a fresh block, applying fuseN and fuse1 after
// every non-barrier instruction is appended.
func pass(src *slot.Block) (*slot.Block, bool) {
	dst := &slot.Block{}
	bd := &builder{dst: dst}
	slots := src.Slots()
	srcToDst := make([]int, len(slots))
	var fixups []fixup
	rewrote := false

	for i := 0; i < len(slots); {
		s := slots[i]
		srcToDst[i] = dst.Len()

		switch s.Op.Pseudo {
		case slot.JumpIf, slot.Jump:
			dst.Append(s)
			idx := dst.Append(slot.Offset(0))
			fixups = append(fixups, fixup{idx, slots[i+1].Offset})
			bd.starts = nil // barrier: nothing before this is visible to a fold
			i += 2

		case slot.Nop, slot.Halt:
			dst.Append(s)
			bd.starts = nil
			i++

		case slot.PushNumber:
			bd.append2(s, slots[i+1])
			if bd.tryFuse() {
				rewrote = true
			}
			i += 2

		default:
			bd.append1(s)
			if bd.tryFuse() {
				rewrote = true
			}
			i++
		}
	}

	for _, fx := range fixups {
		dst.Set(fx.dstIdx, slot.Offset(srcToDst[fx.srcTarget]))
	}
	return dst, rewrote
}

// builder tracks, alongside the block under construction, the dst index
// at which each still-visible instruction begins, so fusions can find
// and replace a trailing run by instruction count rather than slot
// count. A barrier clears this history.
type builder struct {
	dst    *slot.Block
	starts []int
}

func (bd *builder) append1(s slot.Slot) {
	bd.starts = append(bd.starts, bd.dst.Len())
	bd.dst.Append(s)
}

func (bd *builder) append2(op, imm slot.Slot) {
	bd.starts = append(bd.starts, bd.dst.Len())
	bd.dst.Append(op)
	bd.dst.Append(imm)
}

func (bd *builder) appendNumber(v float64) {
	bd.append2(slot.Op(slot.PushNumberOp()), slot.Number(v))
}

func (bd *builder) nInstr() int { return len(bd.starts) }

// instrAt returns the k-th most recent visible instruction (k=0 is the
// last one appended).
func (bd *builder) instrAt(k int) (op slot.Slot, imm slot.Slot, hasImm bool) {
	idx := bd.starts[len(bd.starts)-1-k]
	op = bd.dst.At(idx)
	if slot.Width(op) == 2 {
		return op, bd.dst.At(idx + 1), true
	}
	return op, slot.Slot{}, false
}

// truncateLast discards the last k visible instructions from dst.
func (bd *builder) truncateLast(k int) {
	n := len(bd.starts)
	cut := bd.starts[n-k]
	bd.dst.Truncate(cut)
	bd.starts = bd.starts[:n-k]
}

func (bd *builder) tryFuse() bool {
	if bd.fuseN() {
		return true
	}
	return bd.fuse1()
}

// p1Rules is spec.md §4.5's one-instruction look-back table. Names
// without a leading space are ordinary runtime builtins; names with one
// are private fused builtins, themselves reachable here only because an
// earlier rewrite (in this pass or the previous one) produced them.
var p1Rules = []struct{ last, prev, fused string }{
	{"+", "*", " fma"},
	{"*", "pi", " multpi"},
	{"dup", "dup", " dupdup"},
	{"swap", "-rot", " -rotswap"},
	{"swap", ">=", " >=swap"},
	{" div2", " multpi", " multhalfpi"},
}

func (bd *builder) fuse1() bool {
	if bd.nInstr() < 2 {
		return false
	}
	lastOp, _, lastHasImm := bd.instrAt(0)
	prevOp, _, prevHasImm := bd.instrAt(1)
	if lastHasImm || prevHasImm {
		return false
	}
	if lastOp.Kind != slot.KindOp || prevOp.Kind != slot.KindOp {
		return false
	}
	for _, r := range p1Rules {
		if lastOp.Op.Name == r.last && prevOp.Op.Name == r.prev {
			bd.truncateLast(2)
			bd.append1(slot.Builtin(words.Lookup(r.fused)))
			return true
		}
	}
	return false
}

// fuseN implements spec.md §4.5's longer look-back table: constant
// folds across two push_numbers, and the div2/mult2/pow2 single-operand
// fusions for when only one operand is a compile-time constant.
func (bd *builder) fuseN() bool {
	if bd.nInstr() == 0 {
		return false
	}
	lastOp, _, lastHasImm := bd.instrAt(0)

	// A fused mult2 immediately after (push_number v) folds to (push_number 2v).
	if !lastHasImm && lastOp.Kind == slot.KindOp && lastOp.Op.Name == " mult2" && bd.nInstr() >= 2 {
		prevOp, prevImm, prevHasImm := bd.instrAt(1)
		if prevHasImm && prevOp.Op.Pseudo == slot.PushNumber {
			v := prevImm.Number
			bd.truncateLast(2)
			bd.appendNumber(2 * v)
			return true
		}
	}

	if lastHasImm || lastOp.Kind != slot.KindOp || lastOp.Op.Pseudo != slot.NotPseudo {
		return false
	}
	name := lastOp.Op.Name

	switch name {
	case "+", "-", "*", "/":
		if bd.nInstr() >= 3 {
			bOp, bImm, bHasImm := bd.instrAt(1)
			aOp, aImm, aHasImm := bd.instrAt(2)
			if bHasImm && bOp.Op.Pseudo == slot.PushNumber && aHasImm && aOp.Op.Pseudo == slot.PushNumber {
				a, b := aImm.Number, bImm.Number
				var r float64
				switch name {
				case "+":
					r = a + b
				case "-":
					r = a - b
				case "*":
					r = a * b
				case "/":
					r = words.Divide(a, b)
				}
				bd.truncateLast(3)
				bd.appendNumber(r)
				return true
			}
		}
		// Prefer the general fold above; fall back to the single-constant
		// fusion only when the other operand is not itself a constant
		// (SPEC_FULL.md §6's resolution of the reference's shadowed-rule
		// open question).
		if name == "/" && bd.nInstr() >= 2 {
			if bOp, bImm, bHasImm := bd.instrAt(1); bHasImm && bOp.Op.Pseudo == slot.PushNumber && bImm.Number == 2.0 {
				bd.truncateLast(2)
				bd.append1(slot.Builtin(words.Lookup(" div2")))
				return true
			}
		}
		if name == "*" && bd.nInstr() >= 2 {
			if bOp, bImm, bHasImm := bd.instrAt(1); bHasImm && bOp.Op.Pseudo == slot.PushNumber && bImm.Number == 2.0 {
				bd.truncateLast(2)
				bd.append1(slot.Builtin(words.Lookup(" mult2")))
				return true
			}
		}

	case "**", "pow":
		if bd.nInstr() >= 2 {
			if bOp, bImm, bHasImm := bd.instrAt(1); bHasImm && bOp.Op.Pseudo == slot.PushNumber && bImm.Number == 2.0 {
				bd.truncateLast(2)
				bd.append1(slot.Builtin(words.Lookup(" pow2")))
				return true
			}
		}
	}
	return false
}

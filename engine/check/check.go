// Package check implements the static stack-effect verifier: an
// abstract interpretation over a finished instruction block that
// rejects programs which would under- or overflow the fixed-size D/R
// stacks, per spec.md §4.6. It is deliberately straight-line (it does
// not join the two arms of an `if`); spec.md §4.6 and §9 call this out
// as a known, permissive limitation of the reference behavior that a
// conforming implementation preserves rather than tightens.
package check

import (
	"fmt"

	"shaderforth/engine/slot"
)

// Capacity is the fixed size of each stack, per spec.md §3 ("capacity ≥
// 32 each"); the reference uses exactly 32.
const Capacity = 32

// Error reports a stack-effect violation at a specific instruction.
type Error struct {
	At      int
	Message string
}

func (e Error) Error() string { return fmt.Sprintf("stack effect error at %d: %s", e.At, e.Message) }

// Check walks b and returns an error if any reachable state (under this
// checker's straight-line model) would drive either stack's depth
// negative or to Capacity or beyond.
func Check(b *slot.Block) error {
	d, r := 0, 0
	slots := b.Slots()
	for i := 0; i < len(slots); i++ {
		s := slots[i]
		if s.Kind != slot.KindOp {
			return Error{At: i, Message: fmt.Sprintf("stray operand slot %+v outside of an instruction", s)}
		}
		switch s.Op.Pseudo {
		case slot.PushNumber:
			d++
			i++ // skip the immediate
		case slot.JumpIf:
			if d < 1 {
				return Error{At: i, Message: "jump_if underflows D"}
			}
			d--
			i++ // skip the offset
		case slot.Jump:
			i++ // skip the offset
		case slot.Nop, slot.Halt:
		case slot.CallUserWord:
			return Error{At: i, Message: "call_user_word present after inlining should have completed"}
		default:
			bi := s.Op.Builtin
			if bi == nil {
				return Error{At: i, Message: fmt.Sprintf("unrecognized opcode %v", s.Op)}
			}
			if d < bi.DPops {
				return Error{At: i, Message: fmt.Sprintf("%s underflows D (needs %d, have %d)", bi.Name, bi.DPops, d)}
			}
			if r < bi.RPops {
				return Error{At: i, Message: fmt.Sprintf("%s underflows R (needs %d, have %d)", bi.Name, bi.RPops, r)}
			}
			d += bi.DPushes - bi.DPops
			r += bi.RPushes - bi.RPops
		}
		if d < 0 || r < 0 {
			return Error{At: i, Message: "negative stack depth"}
		}
		if d >= Capacity {
			return Error{At: i, Message: fmt.Sprintf("D stack overflow (depth %d >= %d)", d, Capacity)}
		}
		if r >= Capacity {
			return Error{At: i, Message: fmt.Sprintf("R stack overflow (depth %d >= %d)", r, Capacity)}
		}
	}
	if d < 0 || r < 0 {
		return Error{Message: "negative terminal stack depth"}
	}
	return nil
}

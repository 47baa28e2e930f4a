// Package inline expands every call_user_word instruction in the main
// code block into a copy of the callee's instructions, recursively,
// down to a bounded depth, per spec.md §4.4. There is no true recursion
// support in the source language (spec.md §1 Non-goals: "recursion in
// user words"); the depth bound exists only to keep a pathological or
// cyclic word table from looping forever.
package inline

import "shaderforth/engine/slot"

// MaxDepth is the inliner's recursion bound, per spec.md §4.4 ("limit
// 100").
const MaxDepth = 100

// DepthError reports that inlining a call chain exceeded MaxDepth.
type DepthError struct{}

func (DepthError) Error() string { return "Recursion limit reached" }

// Resolver maps a user word's block id (as stored in a call_user_word
// operand) to its code block.
type Resolver func(id int) *slot.Block

// Inline returns a new block equivalent to main with every
// call_user_word slot pair replaced by the referenced word's
// instructions, expanded recursively. The returned block contains no
// call_user_word opcode, satisfying spec.md §3's post-inlining
// invariant.
func Inline(main *slot.Block, resolve Resolver) (*slot.Block, error) {
	out := &slot.Block{}
	if err := copyInto(out, main, resolve, 0); err != nil {
		return nil, err
	}
	return out, nil
}

// copyInto appends a copy of src's instructions to dst, expanding any
// call_user_word it finds, and re-patches every jump/jump_if offset
// originating in src to point at its instruction's new position in dst.
// Offsets never cross into or out of src (spec.md §3: "every branch
// offset ... points to an opcode slot within the same block"), so a
// single local fixup pass after copying src is sufficient.
func copyInto(dst *slot.Block, src *slot.Block, resolve Resolver, depth int) error {
	slots := src.Slots()
	srcToDst := make([]int, len(slots))

	type fixup struct{ dstIdx, srcTarget int }
	var fixups []fixup

	for i := 0; i < len(slots); {
		s := slots[i]
		srcToDst[i] = dst.Len()

		switch s.Op.Pseudo {
		case slot.PushNumber:
			dst.Append(s)
			dst.Append(slots[i+1])
			i += 2

		case slot.JumpIf, slot.Jump:
			dst.Append(s)
			dstIdx := dst.Append(slot.Offset(0))
			fixups = append(fixups, fixup{dstIdx, slots[i+1].Offset})
			i += 2

		case slot.Nop, slot.Halt:
			dst.Append(s)
			i++

		case slot.CallUserWord:
			if depth+1 > MaxDepth {
				return DepthError{}
			}
			callee := resolve(slots[i+1].BlockID)
			if err := copyInto(dst, callee, resolve, depth+1); err != nil {
				return err
			}
			i += 2

		default:
			dst.Append(s)
			i++
		}
	}

	for _, fx := range fixups {
		dst.Set(fx.dstIdx, slot.Offset(srcToDst[fx.srcTarget]))
	}
	return nil
}

package inline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shaderforth/engine/slot"
	"shaderforth/engine/words"
)

func block(slots ...slot.Slot) *slot.Block {
	b := &slot.Block{}
	for _, s := range slots {
		b.Append(s)
	}
	return b
}

func builtinSlot(t *testing.T, name string) slot.Slot {
	t.Helper()
	b := words.Lookup(name)
	require.NotNil(t, b, name)
	return slot.Builtin(b)
}

func opsOnly(b *slot.Block) []string {
	var out []string
	slots := b.Slots()
	for i := 0; i < len(slots); {
		s := slots[i]
		out = append(out, s.Op.Name)
		i += slot.Width(s)
	}
	return out
}

func TestInline_ExpandsCallUserWord(t *testing.T) {
	callee := block(
		slot.Op(slot.PushNumberOp()), slot.Number(1),
		builtinSlot(t, "dup"),
	)
	main := block(
		slot.Op(slot.PushNumberOp()), slot.Number(3),
		slot.Op(slot.CallUserWordOp()), slot.BlockRef(0),
		builtinSlot(t, "+"),
		slot.Op(slot.HaltOp()),
	)

	resolve := func(id int) *slot.Block {
		require.Equal(t, 0, id)
		return callee
	}

	out, err := Inline(main, resolve)
	require.NoError(t, err)

	assert.Equal(t, []string{"push_number", "push_number", "dup", "+", "halt"}, opsOnly(out))

	slots := out.Slots()
	for _, s := range slots {
		assert.NotEqual(t, slot.CallUserWord, s.Op.Pseudo, "inlined output must contain no call_user_word")
	}
}

func TestInline_RemapsJumpTargetAcrossWidthChange(t *testing.T) {
	callee := block(slot.Op(slot.NopOp())) // width 1, narrower than the call it replaces

	main := block(
		slot.Op(slot.CallUserWordOp()), slot.BlockRef(0), // width 2
		slot.Op(slot.JumpOp()), slot.Offset(4),
		slot.Op(slot.NopOp()), // src index 4, the jump's target
		slot.Op(slot.HaltOp()),
	)

	out, err := Inline(main, func(id int) *slot.Block { return callee })
	require.NoError(t, err)

	slots := out.Slots()
	require.Len(t, slots, 5)
	assert.Equal(t, slot.Nop, slots[0].Op.Pseudo)
	assert.Equal(t, slot.Jump, slots[1].Op.Pseudo)
	assert.Equal(t, 3, slots[2].Offset, "jump target must be remapped to the target Nop's new position")
	assert.Equal(t, slot.Nop, slots[3].Op.Pseudo)
	assert.Equal(t, slot.Halt, slots[4].Op.Pseudo)
}

func TestInline_NestedCallsExpandTransitively(t *testing.T) {
	inner := block(slot.Op(slot.PushNumberOp()), slot.Number(9))
	outer := block(slot.Op(slot.CallUserWordOp()), slot.BlockRef(1))
	main := block(slot.Op(slot.CallUserWordOp()), slot.BlockRef(0), slot.Op(slot.HaltOp()))

	resolve := func(id int) *slot.Block {
		switch id {
		case 0:
			return outer
		case 1:
			return inner
		}
		t.Fatalf("unexpected block id %d", id)
		return nil
	}

	out, err := Inline(main, resolve)
	require.NoError(t, err)
	assert.Equal(t, []string{"push_number", "halt"}, opsOnly(out))
}

func TestInline_RecursionLimitTriggers(t *testing.T) {
	cyclic := block(slot.Op(slot.CallUserWordOp()), slot.BlockRef(0))
	resolve := func(id int) *slot.Block {
		require.Equal(t, 0, id)
		return cyclic
	}
	main := block(slot.Op(slot.CallUserWordOp()), slot.BlockRef(0))

	_, err := Inline(main, resolve)
	require.Error(t, err)
	assert.IsType(t, DepthError{}, err)
}

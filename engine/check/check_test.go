package check

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shaderforth/engine/slot"
	"shaderforth/engine/words"
)

func push(b *slot.Block, v float64) {
	b.Append(slot.Op(slot.PushNumberOp()))
	b.Append(slot.Number(v))
}

func call(b *slot.Block, name string) {
	w := words.Lookup(name)
	if w == nil {
		panic("no such builtin: " + name)
	}
	b.Append(slot.Builtin(w))
}

func TestCheck_ValidProgramPasses(t *testing.T) {
	b := &slot.Block{}
	push(b, 3)
	push(b, 4)
	call(b, "+")
	b.Append(slot.Op(slot.HaltOp()))
	assert.NoError(t, Check(b))
}

func TestCheck_UnderflowOnBareBuiltin(t *testing.T) {
	b := &slot.Block{}
	call(b, "+")
	err := Check(b)
	require.Error(t, err)
	var ce Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 0, ce.At)
}

func TestCheck_JumpIfUnderflow(t *testing.T) {
	b := &slot.Block{}
	b.Append(slot.Op(slot.JumpIfOp()))
	b.Append(slot.Offset(0))
	assert.Error(t, Check(b))
}

func TestCheck_JumpIfConsumesOneD(t *testing.T) {
	b := &slot.Block{}
	push(b, 1)
	b.Append(slot.Op(slot.JumpIfOp()))
	b.Append(slot.Offset(0))
	b.Append(slot.Op(slot.HaltOp()))
	assert.NoError(t, Check(b))
}

func TestCheck_CallUserWordIsAlwaysAnError(t *testing.T) {
	b := &slot.Block{}
	b.Append(slot.Op(slot.CallUserWordOp()))
	b.Append(slot.BlockRef(0))
	assert.Error(t, Check(b))
}

func TestCheck_StrayOperandSlot(t *testing.T) {
	b := &slot.Block{}
	b.Append(slot.Number(1))
	assert.Error(t, Check(b))
}

func TestCheck_DOverflow(t *testing.T) {
	b := &slot.Block{}
	for i := 0; i < Capacity; i++ {
		push(b, float64(i))
	}
	assert.Error(t, Check(b))
}

func TestCheck_DRightAtCapacityMinusOneIsFine(t *testing.T) {
	b := &slot.Block{}
	for i := 0; i < Capacity-1; i++ {
		push(b, float64(i))
	}
	b.Append(slot.Op(slot.HaltOp()))
	assert.NoError(t, Check(b))
}

func TestCheck_ReturnStackTracked(t *testing.T) {
	b := &slot.Block{}
	call(b, "pop") // r pop with no pushes yet
	assert.Error(t, Check(b))

	b2 := &slot.Block{}
	push(b2, 1)
	call(b2, "push") // d->r
	call(b2, "pop")  // r->d
	b2.Append(slot.Op(slot.HaltOp()))
	assert.NoError(t, Check(b2))
}

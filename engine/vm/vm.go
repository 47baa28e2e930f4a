// Package vm is the interpreter: a switch-in-a-loop dispatch over a
// finished instruction block that has already passed engine/check, per
// spec.md §4.7. Its Machine generalizes the teacher's step()/exec() loop
// (jcorbin/gothird's internals.go) — "read opcode, dispatch, advance
// pc" — from a single shared memory tape to two small fixed D/R stacks,
// the shape spec.md §3 requires.
package vm

import (
	"math/rand"

	"shaderforth/engine/check"
	"shaderforth/engine/slot"
	"shaderforth/engine/words"
)

// MemoryCapacity is the size of a Vars.Memory array: a fixed small
// power of two, per spec.md §4.8 ("CAP is a fixed small power of two").
const MemoryCapacity = 64

// Vars is the caller-supplied, per-invocation input/output record
// (spec.md §3 "Runtime variables", §6 "Runtime variable record").
type Vars struct {
	X, Y, T, Dt float64
	Memory      [MemoryCapacity]float64

	// FinalD and FinalR are the post-execution D/R stack lengths,
	// written by Run on success. They stand in for spec.md's
	// "final_d_stack_ptr"/"final_r_stack_ptr" pointers: in this Go
	// rendering a pointer into the engine's stacks is just a length,
	// since Machine's stacks are addressed from index 0.
	FinalD, FinalR int

	// Rand supplies the `random` builtin; nil uses the package-level
	// math/rand source. spec.md §5 allows "callers requiring
	// determinism supply a seeded PRNG".
	Rand *rand.Rand
}

// Machine holds the two fixed-capacity stacks spec.md §3 calls for. A
// Machine is reused across Run calls against the same compiled
// program; it is not safe for concurrent use (spec.md §5: "a compiler
// state is a single-writer object").
type Machine struct {
	d    [check.Capacity]float64
	r    [check.Capacity]float64
	dTop int
	rTop int

	vars *Vars
}

// frame adapts *Machine to words.Frame for the duration of one Run,
// without exposing stack internals to every builtin's closure.
type frame struct{ m *Machine }

func (f frame) PushD(v float64) { f.m.d[f.m.dTop] = v; f.m.dTop++ }
func (f frame) PopD() float64   { f.m.dTop--; return f.m.d[f.m.dTop] }
func (f frame) PushR(v float64) { f.m.r[f.m.rTop] = v; f.m.rTop++ }
func (f frame) PopR() float64   { f.m.rTop--; return f.m.r[f.m.rTop] }
func (f frame) PeekR() float64  { return f.m.r[f.m.rTop-1] }

func (f frame) X() float64  { return f.m.vars.X }
func (f frame) Y() float64  { return f.m.vars.Y }
func (f frame) T() float64  { return f.m.vars.T }
func (f frame) Dt() float64 { return f.m.vars.Dt }

func (f frame) Mem(index float64) float64 {
	i := memIndex(index)
	return f.m.vars.Memory[i]
}

func (f frame) SetMem(index, value float64) {
	i := memIndex(index)
	f.m.vars.Memory[i] = value
}

func (f frame) Random() float64 {
	if f.m.vars.Rand != nil {
		return f.m.vars.Rand.Float64()
	}
	return rand.Float64()
}

func memIndex(addr float64) int {
	i := int(addr) % MemoryCapacity
	if i < 0 {
		i += MemoryCapacity
	}
	return i
}

var _ words.Frame = frame{}

// Run dispatches block against vars, starting at slot 0 and running
// until a halt instruction. The caller must have already run
// engine/check.Check against block: Run performs no bounds checking of
// its own (spec.md §4.7: "Stack-bounds checks are NOT performed at
// runtime: the static checker is the guarantee").
func (m *Machine) Run(block *slot.Block, vars *Vars) {
	m.dTop, m.rTop = 0, 0
	m.vars = vars
	f := frame{m}

	slots := block.Slots()
	pc := 0
	for {
		s := slots[pc]
		switch s.Op.Pseudo {
		case slot.PushNumber:
			f.PushD(slots[pc+1].Number)
			pc += 2
		case slot.JumpIf:
			if f.PopD() == 0 {
				pc = slots[pc+1].Offset
			} else {
				pc += 2
			}
		case slot.Jump:
			pc = slots[pc+1].Offset
		case slot.Nop:
			pc++
		case slot.Halt:
			vars.FinalD = m.dTop
			vars.FinalR = m.rTop
			return
		default:
			s.Op.Builtin.Call(f)
			pc++
		}
	}
}

// DAt returns the D-stack value at depth i from the bottom (0-based),
// valid for i in [0, vars.FinalD) after Run returns.
func (m *Machine) DAt(i int) float64 { return m.d[i] }

// RAt returns the R-stack value at depth i from the bottom.
func (m *Machine) RAt(i int) float64 { return m.r[i] }

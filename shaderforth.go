// Package shaderforth is the façade over the compile/inline/optimize/
// check/run pipeline: spec.md §6's external interface (new, parse, run,
// d_stack_len, d_stack_pop), collapsed to Go's idiom of returning a
// ready *Program from compilation rather than a separate new()/parse()
// pair, the way the teacher's New()+VM.Run() pair works (api.go).
package shaderforth

import (
	"shaderforth/engine/check"
	"shaderforth/engine/compiler"
	"shaderforth/engine/inline"
	"shaderforth/engine/optimize"
	"shaderforth/engine/slot"
	"shaderforth/engine/vm"
	"shaderforth/internal/safely"
)

// Vars is the caller-owned runtime variable record: inputs, memory, and
// (after Run) the final stack lengths, per spec.md §6.
type Vars = vm.Vars

// MemoryCapacity is the size of a Vars.Memory array.
const MemoryCapacity = vm.MemoryCapacity

// Option configures compilation. WithLogf is the only one shaderforth
// ships; it mirrors the teacher's functional VMOption surface (api.go).
type Option = compiler.Option

// WithLogf installs logf as the compiler's diagnostic sink; compilation
// writes no trace lines to it.
var WithLogf = compiler.WithLogf

// Program is a compiled, inlined, optimized, and statically checked
// instruction stream: the state spec.md §6 calls "state" after a
// successful parse, ready to Run any number of times.
type Program struct {
	block   *slot.Block
	machine vm.Machine
}

// New compiles src and runs it through the full pipeline — parse,
// inline, peephole-optimize, stack-effect check — per spec.md §2's data
// flow. Any compile-phase failure (including a defect surfacing as a
// panic in this engine itself) is returned as a plain error; the caller
// should discard src's would-be Program rather than try to salvage it,
// per spec.md §7's "the state is left in an unspecified but destructible
// condition".
func New(src []byte, opts ...Option) (*Program, error) {
	var p *Program
	err := safely.Call("shaderforth.New", func() error {
		c := compiler.New(opts...)
		if err := c.Parse(src); err != nil {
			return err
		}

		inlined, err := inline.Inline(c.Main(), c.BlockByID)
		if err != nil {
			return compiler.RecursionLimitError{Err: err}
		}

		optimized := optimize.Run(inlined)

		if err := check.Check(optimized); err != nil {
			return compiler.StackEffectError{Err: err}
		}

		p = &Program{block: optimized}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Clone returns a Program sharing the same compiled instruction stream
// but owning its own interpreter state, so independent callers (e.g.
// cmd/shaderforth-render's per-row workers) can each Run concurrently
// without recompiling, per spec.md §5's "multiple independent compiler
// states may be ... used on different threads without coordination".
func (p *Program) Clone() *Program { return &Program{block: p.block} }

// Run executes the program against vars and writes vars.FinalD/FinalR
// on completion. Per spec.md §7, a compiled program always completes at
// runtime; Run only ever returns a non-nil error if this engine itself
// has a defect that panics mid-dispatch, recovered by internal/safely
// rather than crashing the caller.
func (p *Program) Run(vars *Vars) error {
	return safely.Call("shaderforth.Run", func() error {
		p.machine.Run(p.block, vars)
		return nil
	})
}

// DStackLen returns the number of doubles left on D after Run, per
// spec.md §6's d_stack_len.
func (p *Program) DStackLen(vars *Vars) int { return vars.FinalD }

// DStackPop pops and returns the top of D, decrementing vars.FinalD.
// Caller-side convenience only, per spec.md §6's d_stack_pop.
func (p *Program) DStackPop(vars *Vars) float64 {
	vars.FinalD--
	return p.machine.DAt(vars.FinalD)
}

// Disassemble renders the final, optimized instruction stream, one line
// per instruction. A read-only debugging aid (SPEC_FULL.md §4.1), not
// part of the compile/run contract.
func (p *Program) Disassemble() string { return slot.Disassemble(p.block) }

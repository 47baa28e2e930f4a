// Package words holds the static, append-only catalog of runtime
// builtins: named operations that execute during interpretation, each
// declaring its stack effect so engine/check can verify a program
// without running it. This mirrors the teacher's vmCodeTable/vmCodeNames
// pair (internals.go/core.go) generalized from a single shared-memory
// threaded-code VM into a name -> descriptor table, the shape
// spec.md §3 calls the "builtin registry".
//
// Builtin names whose first character is a space are private: the
// peephole optimizer in engine/optimize is the only thing that ever
// emits them; the lexer never resolves a source token to one.
package words

import "math"

// Frame is the narrow slice of interpreter state a builtin callback
// needs. engine/vm's Machine implements it; engine/words never imports
// engine/vm, which keeps the registry free of a dependency on the
// interpreter it's consumed by.
type Frame interface {
	PushD(float64)
	PopD() float64
	PushR(float64)
	PopR() float64
	PeekR() float64

	X() float64
	Y() float64
	T() float64
	Dt() float64
	Mem(index float64) float64
	SetMem(index, value float64)
	Random() float64
}

// Callback is a runtime builtin's implementation.
type Callback func(f Frame)

// Builtin is an immutable descriptor for one runtime word: its name,
// its callback, and its declared D/R stack effect (pops and pushes, in
// that order, matching spec.md §4.6's "(d_pops, r_pops, d_pushes,
// r_pushes)").
type Builtin struct {
	Name string
	Call Callback

	DPops, RPops, DPushes, RPushes int
}

// Private reports whether this builtin's name is space-prefixed, i.e.
// unreachable from source text.
func (b *Builtin) Private() bool { return len(b.Name) > 0 && b.Name[0] == ' ' }

func truth(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func isTrue(v float64) bool { return v != 0 }

// catalog is populated by the builtin table below; Lookup and All read
// it. It is fixed at package init and never mutated afterward, matching
// spec.md §3's "Builtin descriptors are immutable once registered."
var catalog []*Builtin
var byName map[string]*Builtin

func register(b Builtin) *Builtin {
	bp := &b
	catalog = append(catalog, bp)
	if byName == nil {
		byName = make(map[string]*Builtin)
	}
	byName[b.Name] = bp
	return bp
}

// Lookup returns the builtin named name, or nil if none is registered.
func Lookup(name string) *Builtin { return byName[name] }

// All returns every registered builtin, runtime catalog order.
func All() []*Builtin { return catalog }

func init() {
	// Variables (spec.md §4.8 "Variables").
	register(Builtin{Name: "x", DPushes: 1, Call: func(f Frame) { f.PushD(f.X()) }})
	register(Builtin{Name: "y", DPushes: 1, Call: func(f Frame) { f.PushD(f.Y()) }})
	register(Builtin{Name: "t", DPushes: 1, Call: func(f Frame) { f.PushD(f.T()) }})
	register(Builtin{Name: "dt", DPushes: 1, Call: func(f Frame) { f.PushD(f.Dt()) }})

	// Input stubs (spec.md §4.8 "Input stubs").
	register(Builtin{Name: "mx", DPushes: 1, Call: func(f Frame) { f.PushD(0) }})
	register(Builtin{Name: "my", DPushes: 1, Call: func(f Frame) { f.PushD(0) }})
	register(Builtin{Name: "button", DPops: 1, DPushes: 1, Call: func(f Frame) {
		f.PopD()
		f.PushD(0)
	}})
	register(Builtin{Name: "buttons", DPushes: 1, Call: func(f Frame) { f.PushD(0) }})
	register(Builtin{Name: "audio", DPops: 1, DPushes: 1, Call: func(f Frame) {
		f.PopD()
		f.PushD(0)
	}})
	register(Builtin{Name: "sample", DPops: 2, DPushes: 3, Call: func(f Frame) {
		f.PopD()
		f.PopD()
		f.PushD(0)
		f.PushD(0)
		f.PushD(0)
	}})
	register(Builtin{Name: "bwsample", DPops: 2, DPushes: 1, Call: func(f Frame) {
		f.PopD()
		f.PopD()
		f.PushD(0)
	}})

	// Memory (spec.md §4.8 "Memory").
	register(Builtin{Name: "@", DPops: 1, DPushes: 1, Call: func(f Frame) {
		idx := f.PopD()
		f.PushD(f.Mem(idx))
	}})
	register(Builtin{Name: "!", DPops: 2, Call: func(f Frame) {
		val := f.PopD()
		idx := f.PopD()
		f.SetMem(idx, val)
	}})

	// Stack words (spec.md §4.8 "Stack").
	register(Builtin{Name: "dup", DPops: 1, DPushes: 2, Call: func(f Frame) {
		v := f.PopD()
		f.PushD(v)
		f.PushD(v)
	}})
	register(Builtin{Name: "over", DPops: 2, DPushes: 3, Call: func(f Frame) {
		b := f.PopD()
		a := f.PopD()
		f.PushD(a)
		f.PushD(b)
		f.PushD(a)
	}})
	register(Builtin{Name: "2dup", DPops: 2, DPushes: 4, Call: func(f Frame) {
		b := f.PopD()
		a := f.PopD()
		f.PushD(a)
		f.PushD(b)
		f.PushD(a)
		f.PushD(b)
	}})
	register(Builtin{Name: "drop", DPops: 1, Call: func(f Frame) { f.PopD() }})
	register(Builtin{Name: "swap", DPops: 2, DPushes: 2, Call: func(f Frame) {
		b := f.PopD()
		a := f.PopD()
		f.PushD(b)
		f.PushD(a)
	}})
	register(Builtin{Name: "rot", DPops: 3, DPushes: 3, Call: func(f Frame) {
		c := f.PopD()
		b := f.PopD()
		a := f.PopD()
		f.PushD(b)
		f.PushD(c)
		f.PushD(a)
	}})
	register(Builtin{Name: "-rot", DPops: 3, DPushes: 3, Call: func(f Frame) {
		c := f.PopD()
		b := f.PopD()
		a := f.PopD()
		f.PushD(c)
		f.PushD(a)
		f.PushD(b)
	}})
	register(Builtin{Name: "z+", DPops: 4, DPushes: 2, Call: func(f Frame) {
		bi := f.PopD()
		br := f.PopD()
		ai := f.PopD()
		ar := f.PopD()
		f.PushD(ar + br)
		f.PushD(ai + bi)
	}})
	register(Builtin{Name: "z*", DPops: 4, DPushes: 2, Call: func(f Frame) {
		bi := f.PopD()
		br := f.PopD()
		ai := f.PopD()
		ar := f.PopD()
		f.PushD(ar*br - ai*bi)
		f.PushD(ar*bi + ai*br)
	}})

	// Return-stack words (spec.md §4.8 "Return-stack").
	register(Builtin{Name: "push", DPops: 1, RPushes: 1, Call: func(f Frame) { f.PushR(f.PopD()) }})
	register(Builtin{Name: ">r", DPops: 1, RPushes: 1, Call: func(f Frame) { f.PushR(f.PopD()) }})
	register(Builtin{Name: "pop", RPops: 1, DPushes: 1, Call: func(f Frame) { f.PushD(f.PopR()) }})
	register(Builtin{Name: "r>", RPops: 1, DPushes: 1, Call: func(f Frame) { f.PushD(f.PopR()) }})
	register(Builtin{Name: "r@", RPops: 1, RPushes: 1, DPushes: 1, Call: func(f Frame) {
		f.PushD(f.PeekR())
	}})

	// Arithmetic (spec.md §4.8 "Arithmetic").
	register(Builtin{Name: "+", DPops: 2, DPushes: 1, Call: func(f Frame) {
		b := f.PopD()
		a := f.PopD()
		f.PushD(a + b)
	}})
	register(Builtin{Name: "-", DPops: 2, DPushes: 1, Call: func(f Frame) {
		b := f.PopD()
		a := f.PopD()
		f.PushD(a - b)
	}})
	register(Builtin{Name: "*", DPops: 2, DPushes: 1, Call: func(f Frame) {
		b := f.PopD()
		a := f.PopD()
		f.PushD(a * b)
	}})
	register(Builtin{Name: "/", DPops: 2, DPushes: 1, Call: func(f Frame) {
		b := f.PopD()
		a := f.PopD()
		f.PushD(divide(a, b))
	}})
	register(Builtin{Name: "mod", DPops: 2, DPushes: 1, Call: func(f Frame) {
		b := f.PopD()
		a := f.PopD()
		f.PushD(math.Mod(a, b))
	}})
	powFn := func(f Frame) {
		b := f.PopD()
		a := f.PopD()
		f.PushD(math.Pow(math.Abs(a), b))
	}
	register(Builtin{Name: "pow", DPops: 2, DPushes: 1, Call: powFn})
	register(Builtin{Name: "**", DPops: 2, DPushes: 1, Call: powFn})
	register(Builtin{Name: "negate", DPops: 1, DPushes: 1, Call: func(f Frame) { f.PushD(-f.PopD()) }})
	register(Builtin{Name: "min", DPops: 2, DPushes: 1, Call: func(f Frame) {
		b := f.PopD()
		a := f.PopD()
		f.PushD(math.Min(a, b))
	}})
	register(Builtin{Name: "max", DPops: 2, DPushes: 1, Call: func(f Frame) {
		b := f.PopD()
		a := f.PopD()
		f.PushD(math.Max(a, b))
	}})
	register(Builtin{Name: "abs", DPops: 1, DPushes: 1, Call: func(f Frame) { f.PushD(math.Abs(f.PopD())) }})
	register(Builtin{Name: "sqrt", DPops: 1, DPushes: 1, Call: func(f Frame) { f.PushD(math.Sqrt(math.Abs(f.PopD()))) }})
	register(Builtin{Name: "log", DPops: 1, DPushes: 1, Call: func(f Frame) { f.PushD(math.Log(math.Abs(f.PopD()))) }})
	register(Builtin{Name: "exp", DPops: 1, DPushes: 1, Call: func(f Frame) { f.PushD(math.Exp(f.PopD())) }})
	register(Builtin{Name: "sin", DPops: 1, DPushes: 1, Call: func(f Frame) { f.PushD(math.Sin(f.PopD())) }})
	register(Builtin{Name: "cos", DPops: 1, DPushes: 1, Call: func(f Frame) { f.PushD(math.Cos(f.PopD())) }})
	register(Builtin{Name: "tan", DPops: 1, DPushes: 1, Call: func(f Frame) { f.PushD(math.Tan(f.PopD())) }})
	register(Builtin{Name: "atan2", DPops: 2, DPushes: 1, Call: func(f Frame) {
		b := f.PopD()
		a := f.PopD()
		f.PushD(math.Atan2(a, b))
	}})
	register(Builtin{Name: "floor", DPops: 1, DPushes: 1, Call: func(f Frame) { f.PushD(math.Floor(f.PopD())) }})
	register(Builtin{Name: "ceil", DPops: 1, DPushes: 1, Call: func(f Frame) { f.PushD(math.Ceil(f.PopD())) }})

	// Logic (spec.md §4.8 "Logic").
	register(Builtin{Name: "and", DPops: 2, DPushes: 1, Call: func(f Frame) {
		b := f.PopD()
		a := f.PopD()
		f.PushD(truth(isTrue(a) && isTrue(b)))
	}})
	register(Builtin{Name: "or", DPops: 2, DPushes: 1, Call: func(f Frame) {
		b := f.PopD()
		a := f.PopD()
		f.PushD(truth(isTrue(a) || isTrue(b)))
	}})
	register(Builtin{Name: "not", DPops: 1, DPushes: 1, Call: func(f Frame) { f.PushD(truth(!isTrue(f.PopD()))) }})
	register(Builtin{Name: "=", DPops: 2, DPushes: 1, Call: func(f Frame) {
		b := f.PopD()
		a := f.PopD()
		f.PushD(truth(a == b))
	}})
	register(Builtin{Name: "<>", DPops: 2, DPushes: 1, Call: func(f Frame) {
		b := f.PopD()
		a := f.PopD()
		f.PushD(truth(a != b))
	}})
	// Comparisons consume top-of-stack as the left operand of the test
	// against the next value down: "a b <" tests b < a, matching
	// original_source's POP_D()-ordered BUILTIN bodies.
	register(Builtin{Name: "<", DPops: 2, DPushes: 1, Call: func(f Frame) {
		b := f.PopD()
		a := f.PopD()
		f.PushD(truth(b < a))
	}})
	register(Builtin{Name: ">", DPops: 2, DPushes: 1, Call: func(f Frame) {
		b := f.PopD()
		a := f.PopD()
		f.PushD(truth(b > a))
	}})
	register(Builtin{Name: "<=", DPops: 2, DPushes: 1, Call: func(f Frame) {
		b := f.PopD()
		a := f.PopD()
		f.PushD(truth(b <= a))
	}})
	register(Builtin{Name: ">=", DPops: 2, DPushes: 1, Call: func(f Frame) {
		b := f.PopD()
		a := f.PopD()
		f.PushD(truth(b >= a))
	}})

	// Constants/source (spec.md §4.8 "Constants/source").
	register(Builtin{Name: "pi", DPushes: 1, Call: func(f Frame) { f.PushD(math.Pi) }})
	register(Builtin{Name: "random", DPushes: 1, Call: func(f Frame) { f.PushD(f.Random()) }})

	registerFused()
}

// divide implements spec.md's normalized division-by-zero rule, shared
// by the runtime "/" builtin and by engine/optimize's constant-folding
// rewrite so the two stay bit-for-bit consistent (spec.md §8 testable
// property 4: peephole is meaning-preserving).
func divide(a, b float64) float64 {
	if b == 0 {
		return math.Inf(1)
	}
	return a / b
}

// Divide exports divide for engine/optimize's constant folder.
func Divide(a, b float64) float64 { return divide(a, b) }

// registerFused installs the private, space-prefixed builtins that
// engine/optimize's peephole passes emit (spec.md §4.5's fusion table
// and §4.8's "Private fused" list). They are pre-registered here at
// package init, as spec.md §4.5 requires ("Private ... builtins
// introduced by rewrites must be pre-registered in the word map at
// compiler construction").
func registerFused() {
	register(Builtin{Name: " fma", DPops: 3, DPushes: 1, Call: func(f Frame) {
		// fuse1 only ever elides a "* +" pair, never the pushes that
		// feed them, so the stack on entry is ..., r, p, q (q on top):
		// p and q are the elided multiply's operands, r is the elided
		// add's other operand. Pop top-down and recombine as p*q + r.
		q := f.PopD()
		p := f.PopD()
		r := f.PopD()
		f.PushD(p*q + r)
	}})
	register(Builtin{Name: " multpi", DPops: 1, DPushes: 1, Call: func(f Frame) {
		f.PushD(f.PopD() * math.Pi)
	}})
	register(Builtin{Name: " multhalfpi", DPops: 1, DPushes: 1, Call: func(f Frame) {
		f.PushD(f.PopD() * math.Pi / 2)
	}})
	register(Builtin{Name: " mult2", DPops: 1, DPushes: 1, Call: func(f Frame) {
		f.PushD(f.PopD() * 2)
	}})
	register(Builtin{Name: " pow2", DPops: 1, DPushes: 1, Call: func(f Frame) {
		v := f.PopD()
		f.PushD(math.Pow(math.Abs(v), 2))
	}})
	register(Builtin{Name: " div2", DPops: 1, DPushes: 1, Call: func(f Frame) {
		f.PushD(divide(f.PopD(), 2))
	}})
	register(Builtin{Name: " dupdup", DPops: 1, DPushes: 4, Call: func(f Frame) {
		v := f.PopD()
		f.PushD(v)
		f.PushD(v)
		f.PushD(v)
		f.PushD(v)
	}})
	register(Builtin{Name: " -rotswap", DPops: 3, DPushes: 3, Call: func(f Frame) {
		// swap(-rot(a,b,c)): -rot gives (c,a,b), swap gives (c,b,a)
		c := f.PopD()
		b := f.PopD()
		a := f.PopD()
		f.PushD(c)
		f.PushD(b)
		f.PushD(a)
	}})
	register(Builtin{Name: " >=swap", DPops: 3, DPushes: 2, Call: func(f Frame) {
		v1 := f.PopD()
		v2 := f.PopD()
		v3 := f.PopD()
		f.PushD(truth(v1 >= v2))
		f.PushD(v3)
	}})
}

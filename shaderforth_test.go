package shaderforth

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shaderforth/engine/compiler"
)

func dStack(p *Program, vars *Vars) []float64 {
	out := make([]float64, vars.FinalD)
	for i := range out {
		out[i] = p.machine.DAt(i)
	}
	return out
}

func compileAndRun(t *testing.T, src string, vars *Vars) *Program {
	t.Helper()
	p, err := New([]byte(src))
	require.NoError(t, err)
	require.NoError(t, p.Run(vars))
	return p
}

// spec.md §8 scenario 1.
func TestEndToEnd_IfElseAndInlining(t *testing.T) {
	const src = `: nice 60 5 4 + + ; : juanita 400 10 5 5 + + + ; x if nice else juanita then 2 * 4 / 2 *`

	vars := &Vars{X: 0}
	p := compileAndRun(t, src, vars)
	assert.Equal(t, []float64{420.0}, dStack(p, vars))

	vars = &Vars{X: 1}
	p = compileAndRun(t, src, vars)
	assert.Equal(t, []float64{69.0}, dStack(p, vars))
}

// spec.md §8 scenario 2.
func TestEndToEnd_Addition(t *testing.T) {
	vars := &Vars{}
	p := compileAndRun(t, "3 4 +", vars)
	assert.Equal(t, []float64{7.0}, dStack(p, vars))
}

// spec.md §8 scenario 3: peephole fuses "pi *" into " multpi", leaving
// the 2 as the stream's only push_number.
func TestEndToEnd_MultiplyByPi(t *testing.T) {
	vars := &Vars{}
	p := compileAndRun(t, "2 pi *", vars)
	assert.Equal(t, []float64{2 * math.Pi}, dStack(p, vars))
	assert.Equal(t, 1, strings.Count(p.Disassemble(), "push_number"))
}

// spec.md §8 scenario 4: "dup dup" fuses to a single " dupdup", and
// (per the reference's declared stack effect, not naive composition)
// produces four copies rather than three.
func TestEndToEnd_DupDupFusion(t *testing.T) {
	vars := &Vars{}
	p := compileAndRun(t, "5 dup dup", vars)
	assert.Equal(t, []float64{5, 5, 5, 5}, dStack(p, vars))
	assert.Equal(t, 1, strings.Count(p.Disassemble(), "dupdup"))
}

// spec.md §8 scenario 5: inlining removes the call entirely.
func TestEndToEnd_InlinedSquare(t *testing.T) {
	vars := &Vars{}
	p := compileAndRun(t, ": sq dup * ; 3 sq", vars)
	assert.Equal(t, []float64{9.0}, dStack(p, vars))
	assert.NotContains(t, p.Disassemble(), "call_user_word")
}

// spec.md §8 scenario 6 and boundary case: division by a literal zero
// divisor folds to +Inf at compile time; a runtime-zero divisor
// evaluates to +Inf too.
func TestEndToEnd_DivisionByZero(t *testing.T) {
	vars := &Vars{}
	p := compileAndRun(t, "1 0 /", vars)
	assert.Equal(t, []float64{math.Inf(1)}, dStack(p, vars))

	vars = &Vars{}
	p = compileAndRun(t, "1 x /", vars)
	assert.Equal(t, []float64{math.Inf(1)}, dStack(p, vars))
}

// spec.md §8 boundary case: both arms of if/else.
func TestBoundary_IfElseBothArms(t *testing.T) {
	vars := &Vars{}
	p := compileAndRun(t, "0 if 1 else 2 then", vars)
	assert.Equal(t, []float64{2}, dStack(p, vars))

	vars = &Vars{}
	p = compileAndRun(t, "1 if 1 else 2 then", vars)
	assert.Equal(t, []float64{1}, dStack(p, vars))
}

// spec.md §8 boundary case: empty source compiles to a single halt and
// runs to an empty D stack.
func TestBoundary_EmptySource(t *testing.T) {
	vars := &Vars{}
	p := compileAndRun(t, "", vars)
	assert.Empty(t, dStack(p, vars))
	assert.Equal(t, "   0  halt\n", p.Disassemble())
}

// spec.md §8 boundary case: a token exactly MaxTokenLen octets long
// succeeds; one octet longer fails.
func TestBoundary_TokenLength(t *testing.T) {
	ok := strings.Repeat("a", 64)
	_, err := New([]byte(": " + ok + " ; 1 " + ok))
	assert.NoError(t, err)

	tooLong := strings.Repeat("a", 65)
	_, err = New([]byte(": " + tooLong + " ;"))
	require.Error(t, err)
	assert.ErrorAs(t, err, new(compiler.TokenTooLongError))
}

// spec.md §8 boundary case: the maximum nested if depth succeeds, one
// deeper fails.
func TestBoundary_MaxIfNesting(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 64; i++ {
		sb.WriteString("1 if ")
	}
	sb.WriteString("1")
	for i := 0; i < 64; i++ {
		sb.WriteString(" then")
	}
	_, err := New([]byte(sb.String()))
	assert.NoError(t, err)

	sb.Reset()
	for i := 0; i < 65; i++ {
		sb.WriteString("1 if ")
	}
	sb.WriteString("1")
	for i := 0; i < 65; i++ {
		sb.WriteString(" then")
	}
	_, err = New([]byte(sb.String()))
	assert.Error(t, err)
}

// spec.md §8 testable property 6: comment handling.
func TestProperty_CommentsAreInvisible(t *testing.T) {
	p1, err := New([]byte("3 4 + \\ trailing line comment\n"))
	require.NoError(t, err)
	p2, err := New([]byte("3 ( an aside ) 4 +"))
	require.NoError(t, err)
	assert.Equal(t, p1.Disassemble(), p2.Disassemble())
}

// spec.md §8 testable property 7: commutativity of constant folding.
func TestProperty_FoldCommutes(t *testing.T) {
	vars := &Vars{}
	p := compileAndRun(t, "3 4 +", vars)
	a := dStack(p, vars)

	vars = &Vars{}
	p = compileAndRun(t, "4 3 +", vars)
	b := dStack(p, vars)

	assert.Equal(t, a, b)
}

// spec.md §8 testable property 2: no call_user_word survives inlining,
// even through a chain of nested calls.
func TestProperty_InliningRemovesAllCalls(t *testing.T) {
	const src = `: a 1 + ; : b a a ; : c b b ; 0 c`
	vars := &Vars{}
	p := compileAndRun(t, src, vars)
	assert.Equal(t, []float64{4}, dStack(p, vars))
	assert.NotContains(t, p.Disassemble(), "call_user_word")
}

func TestErrors_UnknownWord(t *testing.T) {
	_, err := New([]byte(": w bogusword ;"))
	assert.Error(t, err)
}

func TestErrors_RedefinedWord(t *testing.T) {
	_, err := New([]byte(": dup 1 ;"))
	require.Error(t, err)
	assert.ErrorAs(t, err, new(compiler.RedefinedWordError))

	_, err = New([]byte(": sq dup * ; : sq dup * * ;"))
	require.Error(t, err)
	assert.ErrorAs(t, err, new(compiler.RedefinedWordError))
}

func TestErrors_MalformedNumber(t *testing.T) {
	_, err := New([]byte("3abc"))
	require.Error(t, err)
	assert.ErrorAs(t, err, new(compiler.NumberError))
}

func TestErrors_ColonWithoutName(t *testing.T) {
	_, err := New([]byte(":"))
	assert.Error(t, err)
}

func TestErrors_UnmatchedElse(t *testing.T) {
	_, err := New([]byte("else"))
	assert.Error(t, err)
}

func TestErrors_UnterminatedDefinition(t *testing.T) {
	_, err := New([]byte(": w 1 2 +"))
	assert.Error(t, err)
}

func TestMemory_StoreAndLoad(t *testing.T) {
	vars := &Vars{}
	p := compileAndRun(t, "0 3 ! 0 @", vars)
	assert.Equal(t, []float64{3}, dStack(p, vars))
}

func TestClone_IndependentExecution(t *testing.T) {
	p, err := New([]byte("x 1 +"))
	require.NoError(t, err)

	v1 := &Vars{X: 1}
	v2 := &Vars{X: 2}

	p1 := p.Clone()
	p2 := p.Clone()
	require.NoError(t, p1.Run(v1))
	require.NoError(t, p2.Run(v2))

	assert.Equal(t, []float64{2}, dStack(p1, v1))
	assert.Equal(t, []float64{3}, dStack(p2, v2))
}

// Package compiler assembles source text into an unresolved-call
// instruction stream: it owns the word table, the currently-defining
// word, and the control-flow jump stack, per spec.md §3 "Compiler
// state" and §4.1-§4.3. It is grounded on the teacher's (jcorbin/gothird)
// internals.go dictionary-and-compileHeader machinery, generalized from
// a single shared memory tape to a word map of independently owned
// engine/slot.Block values.
package compiler

import (
	"bytes"
	"strconv"

	"shaderforth/engine/diag"
	"shaderforth/engine/lexer"
	"shaderforth/engine/slot"
	"shaderforth/engine/words"
)

// MaxIfDepth bounds how many `if`s may be open (nested) at once within a
// single definition, per spec.md §8's "maximum nested if depth at the
// documented limit succeeds; one deeper fails" boundary case. The
// reference leaves the exact number an implementation choice; this
// engine allows 64.
const MaxIfDepth = 64

type wordKind int

const (
	wordBuiltin wordKind = iota
	wordCompileTime
	wordUser
)

// compileTimeFunc implements one of the seven compile-time builtins. It
// may consume additional bytes directly from l (as `\`, `(`  do) and may
// mutate c's defining target and jump stack.
type compileTimeFunc func(c *Compiler, l *lexer.Lexer) error

// word is a word-table entry: a builtin, a compile-time builtin, or a
// user-defined word owning a code block.
type word struct {
	name        string
	kind        wordKind
	builtin     *words.Builtin
	compileTime compileTimeFunc
	block       *slot.Block
	blockID     int
}

// Compiler is the compiler's single mutable object: the word table, the
// word currently receiving emissions, the control-flow jump stack, and
// the main word. Per spec.md §5 it is a single-writer object; a
// Compiler is not safe for concurrent compilation or execution.
type Compiler struct {
	diag.Sink

	words      map[string]*word
	main       *word
	defining   *word
	jumpStack  []int
	blocks     []*slot.Block
	expectName bool // set by `:`; the very next token names the new word
}

// Option configures a Compiler at construction, in the style of the
// teacher's VMOption (api.go/options.go).
type Option func(*Compiler)

// WithLogf installs logf as the destination of the compiler's embedded
// diag.Sink. Parse writes no trace lines to it.
func WithLogf(logf func(mess string, args ...interface{})) Option {
	return func(c *Compiler) { c.Sink.Logf = logf }
}

// New registers every runtime builtin (including the private fused
// builtins the optimizer may later emit, per spec.md §4.5's "must be
// pre-registered in the word map") and the seven compile-time builtins,
// and returns a Compiler ready to Parse.
func New(opts ...Option) *Compiler {
	c := &Compiler{words: make(map[string]*word)}
	for _, b := range words.All() {
		c.words[b.Name] = &word{name: b.Name, kind: wordBuiltin, builtin: b}
	}
	for name, fn := range compileTimeBuiltins {
		c.words[name] = &word{name: name, kind: wordCompileTime, compileTime: fn}
	}
	c.main = &word{name: "main", kind: wordUser, block: &slot.Block{}}
	c.defining = c.main
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Main returns the top-level code block, the compilation's entry point.
func (c *Compiler) Main() *slot.Block { return c.main.block }

// BlockByID returns the code block of the user word created with the
// given id, for the inliner to resolve call_user_word references.
func (c *Compiler) BlockByID(id int) *slot.Block { return c.blocks[id] }

// Parse tokenizes and compiles src into the main word's block (and any
// user words it defines), terminating main with a halt instruction.
// Parse is not safe to call twice on the same Compiler.
func (c *Compiler) Parse(src []byte) error {
	l := lexer.New(src)
	for {
		tok, ok, err := l.Next()
		if err != nil {
			return wrapLexError(err)
		}
		if !ok {
			break
		}
		if err := c.token(tok, l); err != nil {
			return err
		}
	}
	if c.expectName {
		return ControlFlowError{Message: "end of input after : with no word name"}
	}
	if c.defining != c.main {
		return UnterminatedDefinitionError{Name: c.defining.name}
	}
	c.main.block.Append(slot.Op(slot.HaltOp()))
	return nil
}

func (c *Compiler) token(tok string, l *lexer.Lexer) error {
	if c.expectName {
		c.expectName = false
		return c.defineWord(tok)
	}

	if n, err := strconv.ParseFloat(tok, 64); err == nil {
		c.defining.block.Append(slot.Op(slot.PushNumberOp()))
		c.defining.block.Append(slot.Number(n))
		return nil
	}

	if w, ok := c.words[tok]; ok {
		switch w.kind {
		case wordCompileTime:
			return w.compileTime(c, l)
		case wordBuiltin:
			c.defining.block.Append(slot.Builtin(w.builtin))
			return nil
		case wordUser:
			c.defining.block.Append(slot.Op(slot.CallUserWordOp()))
			c.defining.block.Append(slot.BlockRef(w.blockID))
			return nil
		}
	}

	if looksNumeric(tok) {
		return NumberError{Token: tok}
	}
	return UnknownWordError{Token: tok}
}

// looksNumeric reports whether tok's first byte is one a valid numeric
// literal could start with, distinguishing "malformed number" from
// "undefined word" for a token that is neither (spec.md §7's separate
// "number literal not fully consumed or out of range" error kind).
func looksNumeric(tok string) bool {
	if tok == "" {
		return false
	}
	switch tok[0] {
	case '+', '-', '.', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		return true
	}
	return false
}

// defineWord implements spec.md §4.1 step 3's composite action for the
// token immediately following a validated `:`: create a new user word
// and make it the current defining target, failing if a word of that
// name already exists.
func (c *Compiler) defineWord(tok string) error {
	if _, exists := c.words[tok]; exists {
		return RedefinedWordError{Name: tok}
	}
	nw := &word{name: tok, kind: wordUser, block: &slot.Block{}, blockID: len(c.blocks)}
	c.blocks = append(c.blocks, nw.block)
	c.words[tok] = nw
	c.defining = nw
	return nil
}

var compileTimeBuiltins = map[string]compileTimeFunc{
	`\`:    ctLineComment,
	`(`:    ctParenComment,
	`:`:    ctColon,
	`;`:    ctSemi,
	"if":   ctIf,
	"else": ctElse,
	"then": ctThen,
}

func ctLineComment(c *Compiler, l *lexer.Lexer) error {
	rem := l.Remainder()
	if i := bytes.IndexByte(rem, '\n'); i >= 0 {
		l.SetPos(l.Pos() + i + 1)
	} else {
		l.SetPos(l.Pos() + len(rem))
	}
	return nil
}

func ctParenComment(c *Compiler, l *lexer.Lexer) error {
	rem := l.Remainder()
	if i := bytes.IndexByte(rem, ')'); i >= 0 {
		l.SetPos(l.Pos() + i + 1)
	} else {
		l.SetPos(l.Pos() + len(rem))
	}
	return nil
}

func ctColon(c *Compiler, l *lexer.Lexer) error {
	if c.defining != c.main {
		return DefinitionOpenError{}
	}
	c.expectName = true
	return nil
}

func ctSemi(c *Compiler, l *lexer.Lexer) error {
	if c.defining == c.main {
		return DefinitionNotOpenError{}
	}
	if len(c.jumpStack) != 0 {
		return ControlFlowError{Message: "unmatched if/else inside definition of " + c.defining.name}
	}
	c.defining = c.main
	return nil
}

func ctIf(c *Compiler, l *lexer.Lexer) error {
	if len(c.jumpStack) >= MaxIfDepth {
		return ControlFlowError{Message: "if nesting depth exceeded"}
	}
	b := c.defining.block
	b.Append(slot.Op(slot.JumpIfOp()))
	idx := b.Append(slot.Offset(0))
	c.jumpStack = append(c.jumpStack, idx)
	return nil
}

func ctElse(c *Compiler, l *lexer.Lexer) error {
	if len(c.jumpStack) == 0 {
		return ControlFlowError{Message: "else without matching if"}
	}
	placeholder := c.jumpStack[len(c.jumpStack)-1]
	c.jumpStack = c.jumpStack[:len(c.jumpStack)-1]

	b := c.defining.block
	b.Append(slot.Op(slot.JumpOp()))
	newIdx := b.Append(slot.Offset(0))
	c.jumpStack = append(c.jumpStack, newIdx)
	b.Set(placeholder, slot.Offset(b.Len()))
	return nil
}

func ctThen(c *Compiler, l *lexer.Lexer) error {
	if len(c.jumpStack) == 0 {
		return ControlFlowError{Message: "then without matching if"}
	}
	placeholder := c.jumpStack[len(c.jumpStack)-1]
	c.jumpStack = c.jumpStack[:len(c.jumpStack)-1]

	b := c.defining.block
	nopIdx := b.Append(slot.Op(slot.NopOp()))
	b.Set(placeholder, slot.Offset(nopIdx))
	return nil
}

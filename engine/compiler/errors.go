package compiler

import (
	"fmt"

	"shaderforth/engine/lexer"
)

// LexError wraps a lexical failure (an unprintable, non-space octet) in
// this package's error taxonomy, per spec.md §7's "lexical" error kind.
type LexError struct{ Err error }

func (e LexError) Error() string { return e.Err.Error() }
func (e LexError) Unwrap() error { return e.Err }

// TokenTooLongError wraps the lexer's over-length-token failure, per
// spec.md §7's "token too long (> 64 octets)" error kind.
type TokenTooLongError struct{ Err error }

func (e TokenTooLongError) Error() string { return e.Err.Error() }
func (e TokenTooLongError) Unwrap() error { return e.Err }

// wrapLexError classifies a raw lexer error into this package's own
// taxonomy, so every compile-phase failure comes back as one of the
// named types spec.md §7 enumerates rather than a bare lexer error.
func wrapLexError(err error) error {
	switch err.(type) {
	case lexer.ErrTokenTooLong:
		return TokenTooLongError{Err: err}
	default:
		return LexError{Err: err}
	}
}

// NumberError reports a token that starts like a number but did not
// fully parse as one and is not a known word, per spec.md §4.1 step 1
// ("a number is valid only if the entire token is consumed").
type NumberError struct{ Token string }

func (e NumberError) Error() string { return fmt.Sprintf("invalid numeric literal: %q", e.Token) }

// UnknownWordError reports a token that is neither a number, a known
// word, nor the name following `:`.
type UnknownWordError struct{ Token string }

func (e UnknownWordError) Error() string { return fmt.Sprintf("unknown word: %q", e.Token) }

// RedefinedWordError reports an attempt to create a new top-level word
// whose name collides with an existing entry, per spec.md §4.1 step 3
// and the Open Question about new_word's failure path (SPEC_FULL.md §6).
type RedefinedWordError struct{ Name string }

func (e RedefinedWordError) Error() string { return fmt.Sprintf("word already defined: %q", e.Name) }

// DefinitionOpenError reports `:` encountered while a definition is
// already open.
type DefinitionOpenError struct{}

func (DefinitionOpenError) Error() string { return "a definition is already open" }

// UnterminatedDefinitionError reports end-of-input reached with a
// definition still open.
type UnterminatedDefinitionError struct{ Name string }

func (e UnterminatedDefinitionError) Error() string {
	return fmt.Sprintf("definition of %q was never closed with ;", e.Name)
}

// DefinitionNotOpenError reports `;` encountered with no definition open.
type DefinitionNotOpenError struct{}

func (DefinitionNotOpenError) Error() string { return "no definition is open" }

// ControlFlowError reports an `if`/`else`/`then` imbalance: a structural
// word with no matching opener, an unclosed `if` at `;`, or nesting
// deeper than MaxIfDepth.
type ControlFlowError struct{ Message string }

func (e ControlFlowError) Error() string { return "control flow error: " + e.Message }

// RecursionLimitError wraps engine/inline's depth-exhausted failure so
// every compile-phase error kind in spec.md §7 has a single home in
// this package's taxonomy.
type RecursionLimitError struct{ Err error }

func (e RecursionLimitError) Error() string { return e.Err.Error() }
func (e RecursionLimitError) Unwrap() error { return e.Err }

// StackEffectError wraps engine/check's static verification failure.
type StackEffectError struct{ Err error }

func (e StackEffectError) Error() string { return e.Err.Error() }
func (e StackEffectError) Unwrap() error { return e.Err }

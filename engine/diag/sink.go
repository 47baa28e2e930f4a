// Package diag provides the plain diagnostic sink that shaderforth's
// compiler and interpreter log through. It never writes to stdout or
// stderr on its own; callers opt in with a logf function.
package diag

import "strings"

// Sink is an optional, column-aligning log line emitter. The zero value
// discards everything.
type Sink struct {
	Logf func(mess string, args ...interface{})

	markWidth int
	tagWidth  int
}

// Enabled reports whether the sink has a destination.
func (s *Sink) Enabled() bool { return s.Logf != nil }

// Log writes one log line, left-padding mark to the widest mark seen
// so far (mirroring a fixed-width gutter), and widening tag's column the
// same way.
func (s *Sink) Log(mark, tag, mess string, args ...interface{}) {
	if s.Logf == nil {
		return
	}
	if n := s.markWidth - len(mark); n > 0 {
		mark = strings.Repeat(" ", n) + mark
	} else {
		s.markWidth = len(mark)
	}
	if n := s.tagWidth - len(tag); n > 0 {
		tag = tag + strings.Repeat(" ", n)
	} else {
		s.tagWidth = len(tag)
	}
	if len(args) > 0 {
		s.Logf("%v %v "+mess, append([]interface{}{mark, tag}, args...)...)
	} else {
		s.Logf("%v %v %v", mark, tag, mess)
	}
}

// WithPrefix makes s write every message with prefix prepended, and
// returns an undo function that restores the prior destination.
func (s *Sink) WithPrefix(prefix string) (undo func()) {
	logfn := s.Logf
	s.Logf = func(mess string, args ...interface{}) {
		if logfn != nil {
			logfn(prefix+mess, args...)
		}
	}
	return func() { s.Logf = logfn }
}

// Package safely recovers a panic escaping a compile or run call into a
// plain error, the way github.com/jcorbin/gothird's internal/panicerr
// protects its VM's Run from a bug in goroutine-isolated execution. This
// engine has no concurrent execution path of its own, so the recovery
// happens synchronously in the caller's goroutine rather than across a
// channel.
package safely

import (
	"fmt"
	"runtime/debug"
)

// Call runs f, converting any panic into a PanicError rather than
// letting it unwind past the caller.
func Call(name string, f func() error) (err error) {
	defer func() {
		if e := recover(); e != nil {
			err = PanicError{Name: name, Value: e, Stack: string(debug.Stack())}
		}
	}()
	return f()
}

// PanicError records a recovered panic.
type PanicError struct {
	Name  string
	Value interface{}
	Stack string
}

func (pe PanicError) Error() string {
	return fmt.Sprintf("%v panicked: %v", pe.Name, pe.Value)
}

func (pe PanicError) Format(f fmt.State, c rune) {
	if c == 'v' && f.Flag('+') {
		fmt.Fprintf(f, "%v panicked: %v\n%s", pe.Name, pe.Value, pe.Stack)
		return
	}
	fmt.Fprint(f, pe.Error())
}

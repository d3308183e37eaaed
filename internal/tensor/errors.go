package tensor

import (
	"errors"
	"fmt"
)

// ErrContract is wrapped by every contract violation raised in this module.
//
// Contract violations are programmer errors: unbound parameters, out of range
// projections, undersized scratch buffers. They are never returned as values;
// they panic with a *ContractError so that callers fail fast. Use Catch to turn
// one back into an error at a service boundary or in a test.
var ErrContract = errors.New("contract violation")

// ContractError describes a violated precondition.
type ContractError struct {
	Op  string // operation that detected the violation, e.g. "Slice"
	Msg string
}

// Error implements error.
func (e *ContractError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Op, ErrContract, e.Msg)
}

// Unwrap makes errors.Is(err, ErrContract) hold.
func (e *ContractError) Unwrap() error {
	return ErrContract
}

// Failf panics with a *ContractError for operation op.
func Failf(op, format string, args ...any) {
	panic(&ContractError{Op: op, Msg: fmt.Sprintf(format, args...)})
}

// Catch runs fn and converts a contract violation panic into an error.
// Any other panic is propagated unchanged.
func Catch(fn func()) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if ce, ok := r.(*ContractError); ok {
			err = ce
			return
		}
		panic(r)
	}()
	fn()
	return nil
}

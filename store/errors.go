package store

import "errors"

var (
	// ErrNotFound reports a missing node, root or image.
	ErrNotFound = errors.New("store: not found")

	// ErrFailure classifies every underlying storage failure. Match it with
	// errors.Is; the concrete error is an *Error.
	ErrFailure = errors.New("store: failure")
)

// Error wraps a storage failure with the operation that produced it.
type Error struct {
	Op  string
	Err error
}

// Fail wraps err as a store failure of op. It returns nil for a nil err and
// passes ErrNotFound through untouched.
func Fail(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) {
		return err
	}
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	return &Error{Op: op, Err: err}
}

func (e *Error) Error() string { return "store: " + e.Op + ": " + e.Err.Error() }

func (e *Error) Unwrap() error { return e.Err }

// Is makes every *Error match ErrFailure.
func (e *Error) Is(target error) bool { return target == ErrFailure }

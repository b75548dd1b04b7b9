package connection

import (
	"fmt"

	"go.trai.ch/zerr"
)

var (
	// ErrRemoteUnavailable is the single fault kind callers see when a
	// remote entity's data could not be obtained right now. It is never
	// remembered by a cache; the next access tries again.
	ErrRemoteUnavailable = zerr.New("remote entity unavailable")

	// ErrConnectionClosed is reported for every call made after teardown.
	ErrConnectionClosed = zerr.New("connection closed")
)

// Fault is the error shape produced at the call boundary. It matches
// ErrRemoteUnavailable, and ErrConnectionClosed when the connection was torn
// down, and unwraps to the underlying cause.
type Fault struct {
	Op       string
	Attempts int
	Err      error
	closed   bool
}

func (f *Fault) Error() string {
	msg := ErrRemoteUnavailable.Error() + ": " + f.Op
	if f.Attempts > 1 {
		msg += fmt.Sprintf(" after %d attempts", f.Attempts)
	}
	if f.Err != nil {
		msg += ": " + f.Err.Error()
	}
	return msg
}

func (f *Fault) Unwrap() error {
	return f.Err
}

// Is matches ErrRemoteUnavailable for every fault and ErrConnectionClosed
// for faults caused by teardown.
func (f *Fault) Is(target error) bool {
	switch target {
	case ErrRemoteUnavailable:
		return true
	case ErrConnectionClosed:
		return f.closed
	}
	return false
}

// Closed reports whether the fault was caused by teardown.
func (f *Fault) Closed() bool {
	return f.closed
}

// PanicError is the cause of a fault whose remote call panicked.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("remote call panicked: %v", e.Value)
}

func closedFault(op string) *Fault {
	return &Fault{Op: op, Err: ErrConnectionClosed, closed: true}
}

package proxy

import (
	"strconv"

	"go.trai.ch/zerr"
)

var (
	// ErrMalformedReply means the remote side answered a batch with the
	// wrong number of records.
	ErrMalformedReply = zerr.New("malformed reply")

	// ErrInvalidArgument is returned for requests that cannot be sent, such
	// as a non-positive array rank or a nil generic argument.
	ErrInvalidArgument = zerr.New("invalid argument")
)

// MalformedReplyError carries the call and the sizes that did not match.
type MalformedReplyError struct {
	Op   string
	Want int
	Got  int
}

func (e *MalformedReplyError) Error() string {
	return ErrMalformedReply.Error() + ": " + e.Op + " returned " + strconv.Itoa(e.Got) + " records for " + strconv.Itoa(e.Want) + " ids"
}

// Is matches ErrMalformedReply.
func (e *MalformedReplyError) Is(target error) bool {
	return target == ErrMalformedReply
}

// ArgumentError describes a rejected request argument.
type ArgumentError struct {
	Op      string
	Message string
}

func (e *ArgumentError) Error() string {
	return ErrInvalidArgument.Error() + ": " + e.Op + ": " + e.Message
}

// Is matches ErrInvalidArgument.
func (e *ArgumentError) Is(target error) bool {
	return target == ErrInvalidArgument
}

// The MIT License (MIT)
//
// # Copyright (c) 2016 xtaci
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package pipeline

import (
	"errors"
	"fmt"
)

// ErrorTag classifies a failure the way the host-provided reporting
// channel classifies it: a small fixed taxonomy instead of distinct
// Go error types per failure site.
type ErrorTag int

const (
	// ErrOutOfMemory: buffer allocation or stage-internal allocation failed.
	ErrOutOfMemory ErrorTag = iota + 1
	// ErrInvalidArgument: constructor-level misuse, or an API call made
	// while the scheduler isn't in a state that permits it.
	ErrInvalidArgument
	// ErrProtocol: a wrapped external library reported a decoding or
	// encoding failure (malformed ciphertext, corrupt deflate stream,
	// malformed base64).
	ErrProtocol
	// ErrIO: an underlying host operation on a file or stream failed.
	ErrIO
	// ErrUnexpected: a wrapped library reported a condition outside its
	// documented contract.
	ErrUnexpected
)

func (t ErrorTag) String() string {
	switch t {
	case ErrOutOfMemory:
		return "OutOfMemory"
	case ErrInvalidArgument:
		return "InvalidArgument"
	case ErrProtocol:
		return "ProtocolError"
	case ErrIO:
		return "IoError"
	case ErrUnexpected:
		return "Unexpected"
	default:
		return "Unknown"
	}
}

// Error is the shape that crosses the pipeline's reporting boundary: a
// tag from the taxonomy above, an optional message, and the wrapped
// cause, if any.
type Error struct {
	Tag   ErrorTag
	Msg   string
	Cause error
}

// NewError builds an Error. cause may be nil.
func NewError(tag ErrorTag, msg string, cause error) *Error {
	return &Error{Tag: tag, Msg: msg, Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Tag, e.Msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Tag, e.Msg)
}

func (e *Error) Unwrap() error { return e.Cause }

// TagOf extracts the ErrorTag from err if it (or something it wraps) is
// a *Error.
func TagOf(err error) (ErrorTag, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Tag, true
	}
	return 0, false
}

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
	"strings"
	"testing"
)

func TestErrorWrapsCauseAndTag(t *testing.T) {
	cause := errors.New("disk on fire")
	err := NewError(ErrIO, "write failed", cause)

	if !errors.Is(err, cause) {
		t.Fatalf("errors.Is(err, cause) = false, want true")
	}

	var pe *Error
	if !errors.As(err, &pe) {
		t.Fatalf("errors.As(err, &pe) = false, want true")
	}
	if pe.Tag != ErrIO {
		t.Fatalf("Tag = %v, want ErrIO", pe.Tag)
	}

	tag, ok := TagOf(err)
	if !ok || tag != ErrIO {
		t.Fatalf("TagOf(err) = %v, %v; want ErrIO, true", tag, ok)
	}
}

func TestTagOfNonPipelineError(t *testing.T) {
	if _, ok := TagOf(errors.New("plain")); ok {
		t.Fatalf("TagOf on a plain error: ok = true, want false")
	}
}

func TestErrorStringIncludesMessage(t *testing.T) {
	err := NewError(ErrInvalidArgument, "bad size", nil)
	if got := err.Error(); !strings.Contains(got, "bad size") {
		t.Fatalf("Error() = %q, want it to contain %q", got, "bad size")
	}
}

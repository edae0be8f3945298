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

import "testing"

func TestNewBufferRejectsNonPositiveCapacity(t *testing.T) {
	for _, cap := range []int{0, -1} {
		if _, err := NewBuffer(cap); err == nil {
			t.Fatalf("NewBuffer(%d): expected an error", cap)
		}
	}
}

func TestBufferAppendConsume(t *testing.T) {
	b, err := NewBuffer(16)
	if err != nil {
		t.Fatalf("NewBuffer: %v", err)
	}
	if b.WritableLen() != 16 || b.ReadableLen() != 0 {
		t.Fatalf("fresh buffer: writable=%d readable=%d, want 16/0", b.WritableLen(), b.ReadableLen())
	}

	copy(b.WriteSlice(), []byte("hello"))
	if err := b.Append(5); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if b.ReadableLen() != 5 || b.WritableLen() != 11 {
		t.Fatalf("after Append(5): readable=%d writable=%d, want 5/11", b.ReadableLen(), b.WritableLen())
	}
	if got := string(b.ReadSlice()); got != "hello" {
		t.Fatalf("ReadSlice = %q, want %q", got, "hello")
	}

	if err := b.Consume(3); err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if got := string(b.ReadSlice()); got != "lo" {
		t.Fatalf("ReadSlice after Consume(3) = %q, want %q", got, "lo")
	}
}

func TestBufferConsumeAppendPastLimitsFail(t *testing.T) {
	b, err := NewBuffer(8)
	if err != nil {
		t.Fatalf("NewBuffer: %v", err)
	}
	if err := b.Append(9); err == nil {
		t.Fatalf("Append(9) on an 8-byte buffer: expected an error")
	}
	if err := b.Consume(1); err == nil {
		t.Fatalf("Consume(1) on an empty buffer: expected an error")
	}
}

func TestBufferCompact(t *testing.T) {
	b, err := NewBuffer(8)
	if err != nil {
		t.Fatalf("NewBuffer: %v", err)
	}
	copy(b.WriteSlice(), []byte("abcdefgh"))
	if err := b.Append(8); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := b.Consume(6); err != nil {
		t.Fatalf("Consume: %v", err)
	}
	b.Compact()
	if b.rpos != 0 {
		t.Fatalf("Compact: rpos = %d, want 0", b.rpos)
	}
	if got := string(b.ReadSlice()); got != "gh" {
		t.Fatalf("ReadSlice after Compact = %q, want %q", got, "gh")
	}
	if b.WritableLen() != 6 {
		t.Fatalf("WritableLen after Compact = %d, want 6", b.WritableLen())
	}
}

func TestBufferResizeGrowPreservesData(t *testing.T) {
	b, err := NewBuffer(4)
	if err != nil {
		t.Fatalf("NewBuffer: %v", err)
	}
	copy(b.WriteSlice(), []byte("abcd"))
	if err := b.Append(4); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := b.Resize(16); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	if b.Cap() != 16 {
		t.Fatalf("Cap after Resize = %d, want 16", b.Cap())
	}
	if got := string(b.ReadSlice()); got != "abcd" {
		t.Fatalf("ReadSlice after grow = %q, want %q", got, "abcd")
	}
}

func TestBufferResizeShrinkTruncatesReadable(t *testing.T) {
	b, err := NewBuffer(8)
	if err != nil {
		t.Fatalf("NewBuffer: %v", err)
	}
	copy(b.WriteSlice(), []byte("abcdefgh"))
	if err := b.Append(8); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := b.Resize(3); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	if b.Cap() != 3 {
		t.Fatalf("Cap after shrink = %d, want 3", b.Cap())
	}
	if got := string(b.ReadSlice()); got != "abc" {
		t.Fatalf("ReadSlice after shrink = %q, want %q", got, "abc")
	}
}

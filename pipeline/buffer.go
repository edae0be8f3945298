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

// Buffer is a contiguous byte region with independent read and write
// cursors: 0 <= rpos <= wpos <= len(data). It is the only byte-staging
// primitive the scheduler uses between adjacent stages. A Buffer is
// owned exclusively by whichever Scheduler created it; stages only ever
// see cursor-scoped slice views passed in as call arguments, never the
// Buffer itself.
//
// There is no explicit Destroy: the backing array is released the usual
// Go way, by becoming unreachable.
type Buffer struct {
	data []byte
	rpos int
	wpos int
}

// NewBuffer allocates an empty buffer of the given capacity.
func NewBuffer(capacity int) (*Buffer, error) {
	if capacity < 1 {
		return nil, NewError(ErrInvalidArgument, "buffer capacity must be >= 1", nil)
	}
	data, err := allocate(capacity)
	if err != nil {
		return nil, err
	}
	return &Buffer{data: data}, nil
}

// allocate wraps make([]byte, n) and turns the runtime's out-of-memory
// panic into a tagged Error instead of crashing the process.
func allocate(n int) (b []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			b = nil
			err = NewError(ErrOutOfMemory, "buffer allocation failed", nil)
		}
	}()
	return make([]byte, n), nil
}

// Cap returns the buffer's total capacity.
func (b *Buffer) Cap() int { return len(b.data) }

// ReadableLen is wpos-rpos.
func (b *Buffer) ReadableLen() int { return b.wpos - b.rpos }

// WritableLen is size-wpos.
func (b *Buffer) WritableLen() int { return len(b.data) - b.wpos }

// OccupiedLen is wpos.
func (b *Buffer) OccupiedLen() int { return b.wpos }

// ReadSlice returns an immutable view over [rpos, wpos). The slice is
// only valid until the next mutating call on b.
func (b *Buffer) ReadSlice() []byte { return b.data[b.rpos:b.wpos] }

// WriteSlice returns a mutable view over [wpos, size). Callers fill some
// prefix of it and then call Append with the number of bytes written.
func (b *Buffer) WriteSlice() []byte { return b.data[b.wpos:] }

// Consume advances rpos by n. n must be <= ReadableLen().
func (b *Buffer) Consume(n int) error {
	if n < 0 || n > b.ReadableLen() {
		return NewError(ErrInvalidArgument, "consume beyond readable length", nil)
	}
	b.rpos += n
	return nil
}

// Append advances wpos by n. n must be <= WritableLen().
func (b *Buffer) Append(n int) error {
	if n < 0 || n > b.WritableLen() {
		return NewError(ErrInvalidArgument, "append beyond writable length", nil)
	}
	b.wpos += n
	return nil
}

// Reset sets both cursors to 0, discarding any pending data.
func (b *Buffer) Reset() {
	b.rpos = 0
	b.wpos = 0
}

// Resize reallocates the backing storage to newcap, preserving readable
// bytes identity-wise up to the new capacity. If newcap < wpos, wpos is
// truncated to newcap (and rpos along with it if also beyond newcap).
// Callers that can't tolerate losing unread data must check wpos first.
func (b *Buffer) Resize(newcap int) error {
	if newcap < 1 {
		return NewError(ErrInvalidArgument, "buffer capacity must be >= 1", nil)
	}
	keep := b.wpos
	if keep > newcap {
		keep = newcap
	}
	data, err := allocate(newcap)
	if err != nil {
		return err
	}
	copy(data, b.data[:keep])
	b.data = data
	if b.wpos > newcap {
		b.wpos = newcap
	}
	if b.rpos > newcap {
		b.rpos = newcap
	}
	return nil
}

// Compact shifts unread bytes ([rpos, wpos)) down to offset 0, so that
// WritableLen grows back to size-(wpos-rpos) without reallocating.
func (b *Buffer) Compact() {
	if b.rpos == 0 {
		return
	}
	n := copy(b.data, b.data[b.rpos:b.wpos])
	b.wpos = n
	b.rpos = 0
}

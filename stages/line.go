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

package stages

import (
	"bytes"

	"github.com/xtaci/gotransform/pipeline"
)

// LineConsumer splits its source into newline-terminated lines: each
// '\n' found closes out the current line and starts a new one. Bytes
// after the last '\n' are not added to Lines; they stay available
// through Pending.
type LineConsumer struct {
	lines [][]byte
	cur   []byte
}

func NewLineConsumer() *LineConsumer { return &LineConsumer{} }

func (c *LineConsumer) SourceMin() int { return 1 }

// End never reports true: this consumer accepts bytes for the whole
// stream, and the pipeline finishes once the producer is exhausted and
// every transformer is flushed.
func (c *LineConsumer) End() bool { return false }

func (c *LineConsumer) Send(source *pipeline.Buffer) error {
	data := source.ReadSlice()
	consumed := 0
	for {
		idx := bytes.IndexByte(data[consumed:], '\n')
		if idx < 0 {
			break
		}
		c.cur = append(c.cur, data[consumed:consumed+idx]...)
		c.lines = append(c.lines, c.cur)
		c.cur = nil
		consumed += idx + 1
	}
	c.cur = append(c.cur, data[consumed:]...)
	return source.Consume(len(data))
}

func (c *LineConsumer) Close() error { return nil }

// Lines returns every newline-terminated line seen so far, stripped of
// the trailing '\n'.
func (c *LineConsumer) Lines() [][]byte { return c.lines }

// Pending returns bytes collected after the last '\n', if any: the
// stream's final, unterminated line once the producer has run dry.
func (c *LineConsumer) Pending() []byte { return c.cur }

// ByteConsumer captures exactly one byte and then reports End.
type ByteConsumer struct {
	b        byte
	received bool
}

func NewByteConsumer() *ByteConsumer { return &ByteConsumer{} }

func (c *ByteConsumer) SourceMin() int { return 1 }

func (c *ByteConsumer) End() bool { return c.received }

func (c *ByteConsumer) Send(source *pipeline.Buffer) error {
	c.b = source.ReadSlice()[0]
	c.received = true
	return source.Consume(1)
}

func (c *ByteConsumer) Close() error { return nil }

// Byte returns the captured byte and whether one was actually received.
func (c *ByteConsumer) Byte() (byte, bool) { return c.b, c.received }

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
	"github.com/xtaci/gotransform/pipeline"
)

// MemoryProducer feeds the bytes of a single in-memory slice into the
// pipeline, in order, then reports End.
type MemoryProducer struct {
	data   []byte
	offset int
}

// NewMemoryProducer wraps data; data is not copied, so callers must not
// mutate it while the pipeline runs.
func NewMemoryProducer(data []byte) *MemoryProducer {
	return &MemoryProducer{data: data}
}

func (p *MemoryProducer) SinkMin() int { return 1 }

func (p *MemoryProducer) End() bool { return p.offset >= len(p.data) }

func (p *MemoryProducer) Send(sink *pipeline.Buffer) error {
	n := copy(sink.WriteSlice(), p.data[p.offset:])
	p.offset += n
	return sink.Append(n)
}

func (p *MemoryProducer) Close() error { return nil }

// ChunkFeeder is the producer-side mirror of ChunkCollector: it is fed
// discrete []byte chunks from the calling goroutine one at a time (via
// Feed) instead of owning one fixed slice up front, for input that
// arrives piecemeal from, e.g., a channel.
type ChunkFeeder struct {
	pending []byte
	offset  int
	closed  bool
}

// NewChunkFeeder creates an empty feeder; call Feed to hand it data and
// CloseInput once no more chunks will arrive.
func NewChunkFeeder() *ChunkFeeder { return &ChunkFeeder{} }

// Feed appends chunk to the pending input. It must only be called
// between pipeline cycles; ChunkFeeder is not safe for concurrent use
// with a running Scheduler.
func (f *ChunkFeeder) Feed(chunk []byte) {
	f.pending = append(f.pending, chunk...)
}

// CloseInput marks the feeder exhausted once all fed bytes are drained.
func (f *ChunkFeeder) CloseInput() { f.closed = true }

func (f *ChunkFeeder) SinkMin() int { return 1 }

func (f *ChunkFeeder) End() bool {
	return f.closed && f.offset >= len(f.pending)
}

func (f *ChunkFeeder) Send(sink *pipeline.Buffer) error {
	n := copy(sink.WriteSlice(), f.pending[f.offset:])
	f.offset += n
	return sink.Append(n)
}

func (f *ChunkFeeder) Close() error { return nil }

// ChunkCollector is a bounded in-memory consumer: it accepts up to cap
// bytes and then reports End, letting callers rebind a fresh collector
// to gather output in chunks.
type ChunkCollector struct {
	buf []byte
	cap int
}

// NewChunkCollector creates a collector that accepts at most capacity
// bytes.
func NewChunkCollector(capacity int) *ChunkCollector {
	return &ChunkCollector{cap: capacity}
}

func (c *ChunkCollector) SourceMin() int { return 1 }

func (c *ChunkCollector) End() bool { return len(c.buf) >= c.cap }

func (c *ChunkCollector) Send(source *pipeline.Buffer) error {
	room := c.cap - len(c.buf)
	avail := source.ReadableLen()
	n := room
	if avail < n {
		n = avail
	}
	c.buf = append(c.buf, source.ReadSlice()[:n]...)
	return source.Consume(n)
}

func (c *ChunkCollector) Close() error { return nil }

// Bytes returns everything collected so far.
func (c *ChunkCollector) Bytes() []byte { return c.buf }

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

// Producer, Transformer and Consumer are the three stage roles a
// pipeline is built from. Each is a small interface rather than a base
// struct with overridable methods: the scheduler never downcasts, it
// only ever calls through these.
//
// None of the three is handed a *Buffer to hold onto. Instead the
// scheduler passes the adjacent buffer(s) as arguments to every call,
// every cycle. Roles never carry a back-reference into the graph, so
// there is nothing to reseat when the scheduler swaps producer,
// consumer, or resizes a buffer out from under a stage.
//
// A role's SourceMin/SinkMin is a positive constant for the lifetime of
// a configured role. It may change as a side effect of a role-specific
// configuration call (e.g. rebinding a producer to new input), but never
// as a side effect of Send/Transform/Finalize/End.

// Producer feeds bytes into the head of the pipeline.
type Producer interface {
	// SinkMin returns the minimum writable bytes Send needs on sink.
	// Must be a positive, stable constant.
	SinkMin() int
	// End reports whether the producer is exhausted: no further Send
	// call will ever append anything.
	End() bool
	// Send appends at least one byte to sink. Precondition:
	// sink.WritableLen() >= SinkMin() && !End(). Must advance
	// sink's wpos, or fail.
	Send(sink *Buffer) error
	// Close releases any state held by the producer.
	Close() error
}

// Consumer drains bytes from the tail of the pipeline.
type Consumer interface {
	// SourceMin returns the minimum readable bytes Send needs on
	// source. Must be a positive, stable constant.
	SourceMin() int
	// End reports whether the consumer will accept no further bytes
	// (e.g. its destination capacity is exhausted).
	End() bool
	// Send consumes at least one byte from source. Precondition:
	// source.ReadableLen() >= SourceMin() && !End(). Must advance
	// source's rpos, or fail.
	Send(source *Buffer) error
	// Close releases any state held by the consumer.
	Close() error
}

// Transformer sits between two buffers and rewrites bytes flowing
// through: compression, encryption, encoding, filtering, or the
// identity transform.
type Transformer interface {
	// SourceMin returns the minimum readable bytes Transform needs on
	// source. Must be a positive, stable constant.
	SourceMin() int
	// SinkMin returns the minimum writable bytes Transform (and
	// Finalize) needs on sink. Must be a positive, stable constant.
	SinkMin() int
	// Transform consumes from source and/or produces into sink.
	// Precondition: source.ReadableLen() >= SourceMin() &&
	// sink.WritableLen() >= SinkMin() && Finalize has not yet been
	// called. Must advance source's rpos, sink's wpos, or both, or
	// fail.
	Transform(source, sink *Buffer) error
	// Finalize flushes any transformer-internal state into sink.
	// Precondition: source.ReadableLen() < SourceMin() &&
	// sink.WritableLen() >= SinkMin(). Returns done=true once nothing
	// further would be produced; repeated calls with sufficient sink
	// room and no new input must eventually return done=true.
	Finalize(source, sink *Buffer) (done bool, err error)
	// Close releases any state held by the transformer.
	Close() error
}

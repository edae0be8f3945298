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
	"math"

	"github.com/google/uuid"
)

// Stage is the scheduler's own lifecycle state, monotonic forward-only
// through Build -> Work -> Final -> Done.
type Stage int

const (
	Build Stage = iota
	Work
	Final
	Done
)

func (s Stage) String() string {
	switch s {
	case Build:
		return "Build"
	case Work:
		return "Work"
	case Final:
		return "Final"
	case Done:
		return "Done"
	default:
		return "Unknown"
	}
}

// MinBufferSize is the absolute floor on any internal buffer's
// capacity, large enough that a typical single-step demand fits
// comfortably.
const MinBufferSize = 4096

// Scheduler owns the pipeline graph: the producer, the ordered
// transformer chain, the consumer, and the n+1 internal buffers wired
// between them. It drives the graph through the Build/Work/Final/Done
// state machine.
//
// Scheduler is not safe for concurrent use: it runs a single-threaded,
// cooperative model with no internal concurrency.
type Scheduler struct {
	id           uuid.UUID
	stage        Stage
	producer     Producer
	consumer     Consumer
	transformers []Transformer
	buffers      []*Buffer // len(buffers) == len(transformers)+1

	// finalCursor is the finalization cursor: the index of the next
	// transformer (and its upstream buffer) not yet fully flushed. -1
	// means "absent" (finalize has not started).
	finalCursor int
}

// New creates an empty scheduler in the Build stage, bound to producer
// and consumer. Both must be non-nil.
func New(producer Producer, consumer Consumer) (*Scheduler, error) {
	if producer == nil || consumer == nil {
		return nil, NewError(ErrInvalidArgument, "producer and consumer must not be nil", nil)
	}
	return &Scheduler{
		id:          uuid.New(),
		stage:       Build,
		producer:    producer,
		consumer:    consumer,
		finalCursor: -1,
	}, nil
}

// ID returns a per-instance correlation id, useful only for log
// correlation when a process drives several pipelines concurrently; it
// carries no pipeline semantics.
func (s *Scheduler) ID() uuid.UUID { return s.id }

// Stage returns the scheduler's current state. Valid in every state.
func (s *Scheduler) Stage() Stage { return s.stage }

// AddTransformer appends a transformer to the end of the chain. Valid
// only in Build.
func (s *Scheduler) AddTransformer(t Transformer) error {
	if s.stage != Build {
		return NewError(ErrInvalidArgument, "AddTransformer is only valid in Build", nil)
	}
	if t == nil {
		return NewError(ErrInvalidArgument, "transformer must not be nil", nil)
	}
	s.transformers = append(s.transformers, t)
	return nil
}

// SetProducer replaces the producer, e.g. to concatenate a second
// finite input stream onto the pipeline. Valid in Build and Work, not
// Final (swapping mid-finalization would reintroduce upstream data).
func (s *Scheduler) SetProducer(p Producer) error {
	if p == nil {
		return NewError(ErrInvalidArgument, "producer must not be nil", nil)
	}
	if s.stage != Build && s.stage != Work {
		return NewError(ErrInvalidArgument, "SetProducer is not valid in "+s.stage.String(), nil)
	}
	s.producer = p
	return nil
}

// SetConsumer replaces the consumer, e.g. to collect output in bounded
// chunks. Valid in any state except Done.
func (s *Scheduler) SetConsumer(c Consumer) error {
	if c == nil {
		return NewError(ErrInvalidArgument, "consumer must not be nil", nil)
	}
	if s.stage == Done {
		return NewError(ErrInvalidArgument, "SetConsumer is not valid in Done", nil)
	}
	s.consumer = c
	return nil
}

// Close releases the scheduler's internal buffers. It does not close or
// otherwise touch the producer, consumer or transformers: those are
// owned by the caller, not the scheduler. Valid in any state.
func (s *Scheduler) Close() {
	s.buffers = nil
}

// demand is the minimum size an internal buffer must support so its
// downstream can always be fed whenever its upstream has just produced.
func demand(upstreamSinkMin, downstreamSourceMin int) int {
	return upstreamSinkMin + downstreamSourceMin
}

// sizeBuffers applies the buffer sizing policy to every internal
// buffer, creating any that don't yet exist. Recomputed at the start of
// every work cycle and at the start of finalize.
func (s *Scheduler) sizeBuffers() error {
	n := len(s.transformers)
	if s.buffers == nil {
		s.buffers = make([]*Buffer, n+1)
	} else if len(s.buffers) != n+1 {
		// AddTransformer only runs in Build, before any buffer exists,
		// so this only fires if the chain length changed without
		// going through AddTransformer's state guard.
		return NewError(ErrInvalidArgument, "transformer chain length changed after buffers were created", nil)
	}

	for i := range s.buffers {
		upstreamSinkMin := s.producer.SinkMin()
		if i > 0 {
			upstreamSinkMin = s.transformers[i-1].SinkMin()
		}
		downstreamSourceMin := s.consumer.SourceMin()
		if i < n {
			downstreamSourceMin = s.transformers[i].SourceMin()
		}

		d := demand(upstreamSinkMin, downstreamSourceMin)
		target := int(math.Ceil(float64(d) * 1.5))
		if target < MinBufferSize {
			target = MinBufferSize
		}

		b := s.buffers[i]
		if b == nil {
			nb, err := NewBuffer(target)
			if err != nil {
				return err
			}
			s.buffers[i] = nb
			continue
		}

		if b.Cap() >= d && b.Cap() <= 2*d {
			continue // within the hysteresis band, leave it alone
		}
		newCap := target
		if b.OccupiedLen() > newCap {
			newCap = b.OccupiedLen()
		}
		if newCap < MinBufferSize {
			newCap = MinBufferSize
		}
		if err := b.Resize(newCap); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scheduler) compactAll() {
	for _, b := range s.buffers {
		b.Compact()
	}
}

func (s *Scheduler) drainProducer() error {
	first := s.buffers[0]
	for !s.producer.End() && first.WritableLen() >= s.producer.SinkMin() {
		if err := s.producer.Send(first); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scheduler) advanceTransformers() error {
	for i, t := range s.transformers {
		in, out := s.buffers[i], s.buffers[i+1]
		for in.ReadableLen() >= t.SourceMin() && out.WritableLen() >= t.SinkMin() {
			if err := t.Transform(in, out); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Scheduler) drainConsumer() error {
	last := s.buffers[len(s.buffers)-1]
	for last.ReadableLen() >= s.consumer.SourceMin() && !s.consumer.End() {
		if err := s.consumer.Send(last); err != nil {
			return err
		}
	}
	return nil
}

// workCycle runs one pass: size, wire (a no-op here, since buffers are
// passed by argument on every call), then loop
// compact/produce/transform/consume until an endpoint stops.
func (s *Scheduler) workCycle() error {
	if err := s.sizeBuffers(); err != nil {
		return err
	}
	for !s.producer.End() && !s.consumer.End() {
		s.compactAll()
		if err := s.drainProducer(); err != nil {
			return err
		}
		if err := s.advanceTransformers(); err != nil {
			return err
		}
		if err := s.drainConsumer(); err != nil {
			return err
		}
	}
	return nil
}

// Advance drives the pipeline through one work cycle, moving the
// scheduler from Build to Work on first call. It never moves the
// scheduler on to Final by itself: Final is reached only when the
// caller invokes Finalize, matching the transition table's "finalize
// called" trigger. Caller may call Advance repeatedly while still in
// Work, e.g. after SetProducer rebinds a fresh finite input, to keep
// pumping the concatenation of every bound producer downstream; once
// ProducerEnded reports true, calling Advance again is a no-op and the
// caller should either rebind a new producer or switch to calling
// Finalize.
func (s *Scheduler) Advance() error {
	if s.stage == Final || s.stage == Done {
		return NewError(ErrInvalidArgument, "Advance is not valid in "+s.stage.String(), nil)
	}
	s.stage = Work
	return s.workCycle()
}

// ProducerEnded reports whether the bound producer is exhausted. Valid
// in every state; a caller driving the scheduler through repeated
// Advance calls uses this to decide when to stop calling Advance and
// start calling Finalize instead, or to rebind a fresh producer with
// SetProducer to concatenate another input.
func (s *Scheduler) ProducerEnded() bool { return s.producer.End() }

// drainChainFrom repeatedly advances transformers[cursor:] and drains
// the last buffer to the consumer until nothing more can move: either
// the upstream buffer at cursor no longer has enough to transform, or
// the consumer has ended. This single fixpoint realizes both "drain the
// upstream buffer through T" and "free space in T's sink buffer" in one
// loop: advancing the downstream chain is exactly what frees room in
// T's own sink buffer.
func (s *Scheduler) drainChainFrom(cursor int) (pausedOnConsumerEnd bool, err error) {
	for {
		for i := cursor; i < len(s.buffers); i++ {
			s.buffers[i].Compact()
		}

		advanced := false
		for i := cursor; i < len(s.transformers); i++ {
			t := s.transformers[i]
			in, out := s.buffers[i], s.buffers[i+1]
			for in.ReadableLen() >= t.SourceMin() && out.WritableLen() >= t.SinkMin() {
				if err := t.Transform(in, out); err != nil {
					return false, err
				}
				advanced = true
			}
		}

		last := s.buffers[len(s.buffers)-1]
		for last.ReadableLen() >= s.consumer.SourceMin() && !s.consumer.End() {
			if err := s.consumer.Send(last); err != nil {
				return false, err
			}
			advanced = true
		}

		if s.consumer.End() {
			return true, nil
		}
		if !advanced {
			return false, nil
		}
	}
}

// Finalize drives the pipeline toward Done. It may return while still
// in Final, either because the consumer reached End
// (caller should SetConsumer and call Finalize again) or because a
// transformer's Finalize reported not-done with room still free in its
// own sink (caller should just call Finalize again without touching
// anything, e.g. a compressor still flushing its tail).
func (s *Scheduler) Finalize() error {
	if s.stage == Done {
		return nil
	}

	if s.finalCursor < 0 {
		s.stage = Final
		if err := s.workCycle(); err != nil {
			return err
		}
		if s.consumer.End() {
			return nil // still Final; caller may swap consumer and retry
		}
		// producer reached end first
		s.finalCursor = 0
	} else {
		s.stage = Final
	}

	if err := s.sizeBuffers(); err != nil {
		return err
	}

	n := len(s.transformers)
	for s.finalCursor < n {
		cursor := s.finalCursor
		t := s.transformers[cursor]

		paused, err := s.drainChainFrom(cursor)
		if err != nil {
			return err
		}
		if paused {
			return nil
		}

		in, out := s.buffers[cursor], s.buffers[cursor+1]
		if in.ReadableLen() >= t.SourceMin() || out.WritableLen() < t.SinkMin() {
			// Still not enough room downstream to call Finalize, and
			// the consumer hasn't ended either: nothing more this
			// transformer can do until a later call makes progress.
			return nil
		}

		done, err := t.Finalize(in, out)
		if err != nil {
			return err
		}
		if !done {
			if out.WritableLen() >= t.SinkMin() {
				return nil // not blocked by the consumer; just call again
			}
			return nil // blocked by the consumer; caller may swap it
		}
		s.finalCursor++
	}

	last := s.buffers[len(s.buffers)-1]
	for last.ReadableLen() >= s.consumer.SourceMin() && !s.consumer.End() {
		if err := s.consumer.Send(last); err != nil {
			return err
		}
	}
	if last.ReadableLen() < s.consumer.SourceMin() {
		s.stage = Done
	}
	return nil
}

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
	"io"
	"sync"

	"github.com/klauspost/compress/flate"
	"github.com/pkg/errors"
	"github.com/xtaci/gotransform/pipeline"
)

// deflateSourceMin/deflateSinkMin are modest: klauspost/compress/flate
// buffers internally far beyond a single Transform call, so the
// transformer's own demand only needs to guarantee forward progress one
// byte at a time, not hold an entire block.
const (
	deflateSourceMin = 1
	deflateSinkMin   = 256
)

// Deflater compresses bytes with raw DEFLATE. Unlike the stdlib's
// compress/flate, klauspost/compress/flate avoids re-walking already
// compressed history on every Write, which matters when the round trip
// runs over a multi-gigabyte file.
type Deflater struct {
	w      *flate.Writer
	out    bytes.Buffer
	closed bool
}

// NewDeflater creates a deflater at the given compression level (see
// flate.BestSpeed..flate.BestCompression, or flate.DefaultCompression).
func NewDeflater(level int) (*Deflater, error) {
	d := &Deflater{}
	w, err := flate.NewWriter(&d.out, level)
	if err != nil {
		return nil, pipeline.NewError(pipeline.ErrInvalidArgument, "invalid deflate level", errors.WithStack(err))
	}
	d.w = w
	return d, nil
}

func (d *Deflater) SourceMin() int { return deflateSourceMin }
func (d *Deflater) SinkMin() int   { return deflateSinkMin }

func (d *Deflater) Transform(source, sink *pipeline.Buffer) error {
	n := source.ReadableLen()
	if room := sink.WritableLen(); n > room {
		n = room
	}
	if _, err := d.w.Write(source.ReadSlice()[:n]); err != nil {
		return pipeline.NewError(pipeline.ErrUnexpected, "deflate write", errors.WithStack(err))
	}
	if err := source.Consume(n); err != nil {
		return err
	}
	return d.drainOut(sink)
}

func (d *Deflater) Finalize(source, sink *pipeline.Buffer) (bool, error) {
	if !d.closed {
		if err := d.w.Close(); err != nil {
			return false, pipeline.NewError(pipeline.ErrUnexpected, "deflate close", errors.WithStack(err))
		}
		d.closed = true
	}
	if err := d.drainOut(sink); err != nil {
		return false, err
	}
	return d.out.Len() == 0, nil
}

// drainOut copies whatever the flate writer has buffered internally
// into sink, up to sink's remaining room.
func (d *Deflater) drainOut(sink *pipeline.Buffer) error {
	n := copy(sink.WriteSlice(), d.out.Bytes())
	if n > 0 {
		d.out.Next(n)
	}
	return sink.Append(n)
}

func (d *Deflater) Close() error { return nil }

// Inflater decompresses a raw DEFLATE stream.
type Inflater struct {
	pw *io.PipeWriter

	mu          sync.Mutex
	out         bytes.Buffer
	eof         bool  // decompressor reported a clean end of stream
	decodeErr   error // sticky error surfaced from the background reader
	closedInput bool
}

// NewInflater creates an inflater. A single background goroutine runs
// flate.NewReader over the read end of an in-process pipe, so Transform
// can push compressed bytes in as they arrive instead of needing the
// whole stream up front; io.Pipe's synchronous Read/Write rendezvous
// keeps that goroutine the only thing that ever calls the flate
// reader's Read, so there's no race on decompressor state.
func NewInflater() *Inflater {
	pr, pw := io.Pipe()
	inf := &Inflater{pw: pw}
	go inf.run(flate.NewReader(pr))
	return inf
}

func (f *Inflater) run(fr io.ReadCloser) {
	defer fr.Close()
	buf := make([]byte, 32*1024)
	for {
		n, err := fr.Read(buf)
		if n > 0 {
			f.mu.Lock()
			f.out.Write(buf[:n])
			f.mu.Unlock()
		}
		if err != nil {
			f.mu.Lock()
			if err == io.EOF {
				f.eof = true
			} else {
				f.decodeErr = err
			}
			f.mu.Unlock()
			return
		}
	}
}

func (f *Inflater) SourceMin() int { return deflateSourceMin }
func (f *Inflater) SinkMin() int   { return deflateSinkMin }

func (f *Inflater) Transform(source, sink *pipeline.Buffer) error {
	n := source.ReadableLen()
	chunk := append([]byte(nil), source.ReadSlice()[:n]...)
	if err := source.Consume(n); err != nil {
		return err
	}
	if _, err := f.pw.Write(chunk); err != nil {
		return pipeline.NewError(pipeline.ErrProtocol, "corrupt deflate stream", errors.WithStack(err))
	}
	return f.drain(sink)
}

func (f *Inflater) Finalize(source, sink *pipeline.Buffer) (bool, error) {
	if !f.closedInput {
		f.closedInput = true
		_ = f.pw.Close()
	}
	if err := f.drain(sink); err != nil {
		return false, err
	}
	f.mu.Lock()
	done := f.out.Len() == 0 && (f.eof || f.decodeErr != nil)
	derr := f.decodeErr
	f.mu.Unlock()
	if derr != nil {
		return false, pipeline.NewError(pipeline.ErrProtocol, "corrupt deflate stream", errors.WithStack(derr))
	}
	return done, nil
}

func (f *Inflater) drain(sink *pipeline.Buffer) error {
	f.mu.Lock()
	n := copy(sink.WriteSlice(), f.out.Bytes())
	if n > 0 {
		f.out.Next(n)
	}
	f.mu.Unlock()
	return sink.Append(n)
}

func (f *Inflater) Close() error {
	return f.pw.Close()
}

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
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/xtaci/gotransform/pipeline"
)

// FileProducer reads a file's contents into the pipeline.
type FileProducer struct {
	f     *os.File
	ended bool
}

// OpenFileProducer opens path for reading.
func OpenFileProducer(path string) (*FileProducer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, pipeline.NewError(pipeline.ErrIO, "open "+path, errors.WithStack(err))
	}
	return &FileProducer{f: f}, nil
}

func (p *FileProducer) SinkMin() int { return 1 }

func (p *FileProducer) End() bool { return p.ended }

func (p *FileProducer) Send(sink *pipeline.Buffer) error {
	n, err := p.f.Read(sink.WriteSlice())
	if n > 0 {
		if aerr := sink.Append(n); aerr != nil {
			return aerr
		}
	}
	if err != nil {
		if err == io.EOF {
			p.ended = true
			return nil
		}
		return pipeline.NewError(pipeline.ErrIO, "read file", errors.WithStack(err))
	}
	return nil
}

func (p *FileProducer) Close() error {
	if err := p.f.Close(); err != nil {
		return pipeline.NewError(pipeline.ErrIO, "close file", errors.WithStack(err))
	}
	return nil
}

// FileConsumer writes the pipeline's output to a file.
type FileConsumer struct {
	f *os.File
}

// CreateFileConsumer creates (or truncates) path for writing.
func CreateFileConsumer(path string) (*FileConsumer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, pipeline.NewError(pipeline.ErrIO, "create "+path, errors.WithStack(err))
	}
	return &FileConsumer{f: f}, nil
}

func (c *FileConsumer) SourceMin() int { return 1 }

// End never reports true: a file sink accepts bytes until explicitly
// closed, it has no capacity limit of its own.
func (c *FileConsumer) End() bool { return false }

func (c *FileConsumer) Send(source *pipeline.Buffer) error {
	n, err := c.f.Write(source.ReadSlice())
	if n > 0 {
		if cerr := source.Consume(n); cerr != nil {
			return cerr
		}
	}
	if err != nil {
		return pipeline.NewError(pipeline.ErrIO, "write file", errors.WithStack(err))
	}
	return nil
}

func (c *FileConsumer) Close() error {
	if err := c.f.Close(); err != nil {
		return pipeline.NewError(pipeline.ErrIO, "close file", errors.WithStack(err))
	}
	return nil
}

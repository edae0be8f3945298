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
	"os"
	"path/filepath"
	"testing"

	"github.com/xtaci/gotransform/pipeline"
)

func TestFileProducerReadsThenEnds(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "in.txt")
	if err := os.WriteFile(path, []byte("hello, world"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	p, err := OpenFileProducer(path)
	if err != nil {
		t.Fatalf("OpenFileProducer: %v", err)
	}
	defer p.Close()

	b, err := pipeline.NewBuffer(64)
	if err != nil {
		t.Fatalf("NewBuffer: %v", err)
	}
	for !p.End() {
		if err := p.Send(b); err != nil {
			t.Fatalf("Send: %v", err)
		}
	}
	if got := string(b.ReadSlice()); got != "hello, world" {
		t.Fatalf("ReadSlice = %q, want %q", got, "hello, world")
	}
}

func TestOpenFileProducerMissingFile(t *testing.T) {
	if _, err := OpenFileProducer(filepath.Join(t.TempDir(), "does-not-exist")); err == nil {
		t.Fatalf("OpenFileProducer on a missing file: expected an error")
	}
}

func TestFileConsumerWritesAndNeverEnds(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")

	c, err := CreateFileConsumer(path)
	if err != nil {
		t.Fatalf("CreateFileConsumer: %v", err)
	}

	b, err := pipeline.NewBuffer(64)
	if err != nil {
		t.Fatalf("NewBuffer: %v", err)
	}
	copy(b.WriteSlice(), []byte("written"))
	if err := b.Append(len("written")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if c.End() {
		t.Fatalf("End() true for a file consumer, want always false")
	}
	if err := c.Send(b); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(got) != "written" {
		t.Fatalf("file content = %q, want %q", got, "written")
	}
}

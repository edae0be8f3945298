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

import "github.com/xtaci/gotransform/pipeline"

// Filter is a pure Go byte-at-a-time transformer: bytes in remove are
// dropped, everything else is mapped through translate (the identity
// mapping for any byte the replace map given to NewFilter doesn't list).
type Filter struct {
	remove    [256]bool
	translate [256]byte
}

// NewFilter builds a Filter that drops every byte in remove and maps
// every remaining byte through replace (a byte->byte map; entries
// absent from replace pass through unchanged).
func NewFilter(remove []byte, replace map[byte]byte) *Filter {
	f := &Filter{}
	for i := range f.translate {
		f.translate[i] = byte(i)
	}
	for _, b := range remove {
		f.remove[b] = true
	}
	for from, to := range replace {
		f.translate[from] = to
	}
	return f
}

func (f *Filter) SourceMin() int { return 1 }
func (f *Filter) SinkMin() int   { return 1 }

func (f *Filter) Transform(source, sink *pipeline.Buffer) error {
	in := source.ReadSlice()
	out := sink.WriteSlice()
	i, n, written := 0, 0, 0
	for i < len(in) && written < len(out) {
		b := in[i]
		i++
		if f.remove[b] {
			continue
		}
		out[written] = f.translate[b]
		written++
	}
	n = i
	if err := sink.Append(written); err != nil {
		return err
	}
	return source.Consume(n)
}

func (f *Filter) Finalize(source, sink *pipeline.Buffer) (bool, error) {
	if source.ReadableLen() == 0 {
		return true, nil
	}
	if err := f.Transform(source, sink); err != nil {
		return false, err
	}
	return source.ReadableLen() == 0, nil
}

func (f *Filter) Close() error { return nil }

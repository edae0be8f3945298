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
	"encoding/base64"

	"github.com/pkg/errors"
	"github.com/xtaci/gotransform/pipeline"
)

// Standard base64 maps 3-byte raw groups to 4-byte encoded groups.
// b64ChunkGroups is how many of those groups get processed per
// Transform call.
const b64ChunkGroups = 16

// Base64Encoder transforms raw bytes into standard base64 text.
type Base64Encoder struct{}

func NewBase64Encoder() *Base64Encoder { return &Base64Encoder{} }

func (e *Base64Encoder) SourceMin() int { return 3 * b64ChunkGroups }
func (e *Base64Encoder) SinkMin() int   { return 4 * b64ChunkGroups }

func (e *Base64Encoder) Transform(source, sink *pipeline.Buffer) error {
	groups := source.ReadableLen() / 3
	if groups > b64ChunkGroups {
		groups = b64ChunkGroups
	}
	n := groups * 3
	base64.StdEncoding.Encode(sink.WriteSlice(), source.ReadSlice()[:n])
	if err := sink.Append(groups * 4); err != nil {
		return err
	}
	return source.Consume(n)
}

// Finalize encodes whatever residual tail remains (0 to SourceMin()-1
// bytes, at most 47, which is exactly why SinkMin() is set to 64: that
// is EncodedLen(47)) with padding.
func (e *Base64Encoder) Finalize(source, sink *pipeline.Buffer) (bool, error) {
	rem := source.ReadableLen()
	if rem == 0 {
		return true, nil
	}
	base64.StdEncoding.Encode(sink.WriteSlice(), source.ReadSlice())
	encLen := base64.StdEncoding.EncodedLen(rem)
	if err := sink.Append(encLen); err != nil {
		return false, err
	}
	if err := source.Consume(rem); err != nil {
		return false, err
	}
	return true, nil
}

func (e *Base64Encoder) Close() error { return nil }

// Base64Decoder transforms standard base64 text back into raw bytes.
//
// Source demand is a full 64-byte encoded group, a deliberate mismatch
// with the decoder's own 4-byte processing granularity: Transform only
// ever consumes whole 4-byte groups, and the trailing partial group,
// which may carry "=" padding, is handled exclusively in Finalize.
type Base64Decoder struct{}

func NewBase64Decoder() *Base64Decoder { return &Base64Decoder{} }

func (d *Base64Decoder) SourceMin() int { return 4 * b64ChunkGroups }
func (d *Base64Decoder) SinkMin() int   { return 3 * b64ChunkGroups }

func (d *Base64Decoder) Transform(source, sink *pipeline.Buffer) error {
	groups := source.ReadableLen() / 4
	if groups > b64ChunkGroups {
		groups = b64ChunkGroups
	}
	n := groups * 4
	dn, err := base64.StdEncoding.Decode(sink.WriteSlice(), source.ReadSlice()[:n])
	if err != nil {
		return pipeline.NewError(pipeline.ErrProtocol, "malformed base64", errors.WithStack(err))
	}
	if err := sink.Append(dn); err != nil {
		return err
	}
	return source.Consume(n)
}

// Finalize decodes whatever residual tail (0 to 63 bytes) remains,
// including its padding.
func (d *Base64Decoder) Finalize(source, sink *pipeline.Buffer) (bool, error) {
	rem := source.ReadableLen()
	if rem == 0 {
		return true, nil
	}
	dn, err := base64.StdEncoding.Decode(sink.WriteSlice(), source.ReadSlice())
	if err != nil {
		return false, pipeline.NewError(pipeline.ErrProtocol, "malformed base64 tail", errors.WithStack(err))
	}
	if err := sink.Append(dn); err != nil {
		return false, err
	}
	if err := source.Consume(rem); err != nil {
		return false, err
	}
	return true, nil
}

func (d *Base64Decoder) Close() error { return nil }

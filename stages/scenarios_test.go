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
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/xtaci/gotransform/pipeline"
)

// scenario263 builds a 263-byte fixture shared by several of the tests
// below: 16 copies each of '0'..'9' and 'a'..'f', then "fffffff".
func scenario263() []byte {
	var b []byte
	for c := byte('0'); c <= '9'; c++ {
		for i := 0; i < 16; i++ {
			b = append(b, c)
		}
	}
	for c := byte('a'); c <= 'f'; c++ {
		for i := 0; i < 16; i++ {
			b = append(b, c)
		}
	}
	b = append(b, "fffffff"...)
	return b
}

// driveToDone runs sched to Done, rebinding a fresh ChunkCollector of
// the given capacity every time Finalize leaves it in Final, and
// returns the concatenation of everything collected.
func driveToDone(t *testing.T, sched *pipeline.Scheduler, capacity int) []byte {
	t.Helper()
	var out []byte
	cur := NewChunkCollector(capacity)
	if err := sched.SetConsumer(cur); err != nil {
		t.Fatalf("SetConsumer: %v", err)
	}
	const maxSteps = 100000
	for i := 0; sched.Stage() != pipeline.Done; i++ {
		if i >= maxSteps {
			t.Fatalf("did not reach Done within %d steps (stuck in %v)", maxSteps, sched.Stage())
		}
		var err error
		switch {
		case sched.Stage() == pipeline.Final:
			err = sched.Finalize()
			if sched.Stage() == pipeline.Final {
				out = append(out, cur.Bytes()...)
				cur = NewChunkCollector(capacity)
				if serr := sched.SetConsumer(cur); serr != nil {
					t.Fatalf("SetConsumer: %v", serr)
				}
			}
		case sched.ProducerEnded():
			err = sched.Finalize()
		default:
			err = sched.Advance()
		}
		if err != nil {
			t.Fatalf("drive scheduler: %v", err)
		}
	}
	out = append(out, cur.Bytes()...)
	return out
}

func TestPassThrough(t *testing.T) {
	input := make([]byte, 128)
	for i := range input {
		input[i] = byte(i)
	}
	sched, err := pipeline.New(NewMemoryProducer(input), NewChunkCollector(136))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got := driveToDone(t, sched, 136)
	if !bytes.Equal(got, input) {
		t.Fatalf("pass-through: got %d bytes, want %d equal", len(got), len(input))
	}
	if sched.Stage() != pipeline.Done {
		t.Fatalf("Stage = %v, want Done", sched.Stage())
	}
}

func TestBase64RoundTrip(t *testing.T) {
	input := append(scenario263(), 0)
	sched, err := pipeline.New(NewMemoryProducer(input), NewChunkCollector(300))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := sched.AddTransformer(NewBase64Encoder()); err != nil {
		t.Fatalf("AddTransformer(encoder): %v", err)
	}
	if err := sched.AddTransformer(NewBase64Decoder()); err != nil {
		t.Fatalf("AddTransformer(decoder): %v", err)
	}
	got := driveToDone(t, sched, 300)
	if !bytes.Equal(got, input) {
		t.Fatalf("base64 round trip: got %d bytes, input %d, equal=%v", len(got), len(input), bytes.Equal(got, input))
	}
}

func TestEncryptDecryptRoundTripChunked(t *testing.T) {
	input := append(scenario263(), 0)
	sched, err := pipeline.New(NewMemoryProducer(input), NewChunkCollector(16))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	enc, err := NewEncrypter("mykey", "SHA-1")
	if err != nil {
		t.Fatalf("NewEncrypter: %v", err)
	}
	dec, err := NewDecrypter("mykey", "SHA-1")
	if err != nil {
		t.Fatalf("NewDecrypter: %v", err)
	}
	if err := sched.AddTransformer(enc); err != nil {
		t.Fatalf("AddTransformer(enc): %v", err)
	}
	if err := sched.AddTransformer(dec); err != nil {
		t.Fatalf("AddTransformer(dec): %v", err)
	}

	got := driveToDone(t, sched, 16)
	if !bytes.Equal(got, input) {
		t.Fatalf("encrypt/decrypt round trip: got %d bytes, input %d, equal=%v", len(got), len(input), bytes.Equal(got, input))
	}
}

func TestDigestSHA1(t *testing.T) {
	input := scenario263()
	sched, err := pipeline.New(NewMemoryProducer(input), NewChunkCollector(28))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	dg, err := NewDigester("SHA-1")
	if err != nil {
		t.Fatalf("NewDigester: %v", err)
	}
	if err := sched.AddTransformer(dg); err != nil {
		t.Fatalf("AddTransformer: %v", err)
	}
	got := driveToDone(t, sched, 28)
	want, _ := hex.DecodeString("37c58ddade8de380a74acff5bd8fc6fc570218e4")
	if !bytes.Equal(got, want) {
		t.Fatalf("digest = % x, want % x", got, want)
	}
}

func TestByteFilterRemove(t *testing.T) {
	input := append(scenario263(), 0)
	sched, err := pipeline.New(NewMemoryProducer(input), NewChunkCollector(272))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := sched.AddTransformer(NewFilter([]byte{'0', '2', '6', '7'}, nil)); err != nil {
		t.Fatalf("AddTransformer: %v", err)
	}
	got := driveToDone(t, sched, 272)
	if len(got) != 200 {
		t.Fatalf("filtered length = %d, want 200", len(got))
	}
	for _, b := range got {
		switch b {
		case '0', '2', '6', '7':
			t.Fatalf("filtered output still contains %q", b)
		}
	}
	var want []byte
	for _, b := range input {
		switch b {
		case '0', '2', '6', '7':
		default:
			want = append(want, b)
		}
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("filtered output order mismatch")
	}
}

func TestDeflateInflateRoundTripFile(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "in.bin")
	dstPath := filepath.Join(dir, "out.bin")

	input := make([]byte, 256*1024)
	seed := uint32(12345)
	for i := range input {
		seed = seed*1664525 + 1013904223
		input[i] = byte(seed >> 24)
	}
	if err := os.WriteFile(srcPath, input, 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}

	prod, err := OpenFileProducer(srcPath)
	if err != nil {
		t.Fatalf("OpenFileProducer: %v", err)
	}
	cons, err := CreateFileConsumer(dstPath)
	if err != nil {
		t.Fatalf("CreateFileConsumer: %v", err)
	}
	sched, err := pipeline.New(prod, cons)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defl, err := NewDeflater(6)
	if err != nil {
		t.Fatalf("NewDeflater: %v", err)
	}
	if err := sched.AddTransformer(defl); err != nil {
		t.Fatalf("AddTransformer(deflate): %v", err)
	}
	if err := sched.AddTransformer(NewInflater()); err != nil {
		t.Fatalf("AddTransformer(inflate): %v", err)
	}

	const maxSteps = 1000000
	for i := 0; sched.Stage() != pipeline.Done; i++ {
		if i >= maxSteps {
			t.Fatalf("did not reach Done within %d steps (stuck in %v)", maxSteps, sched.Stage())
		}
		var err error
		switch {
		case sched.Stage() == pipeline.Final:
			err = sched.Finalize()
		case sched.ProducerEnded():
			err = sched.Finalize()
		default:
			err = sched.Advance()
		}
		if err != nil {
			t.Fatalf("drive scheduler: %v", err)
		}
	}
	if err := prod.Close(); err != nil {
		t.Fatalf("close producer: %v", err)
	}
	if err := cons.Close(); err != nil {
		t.Fatalf("close consumer: %v", err)
	}

	got, err := os.ReadFile(dstPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !bytes.Equal(got, input) {
		t.Fatalf("deflate/inflate round trip: got %d bytes, want %d, equal=%v", len(got), len(input), bytes.Equal(got, input))
	}
}

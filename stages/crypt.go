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
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha1"
	"crypto/sha256"
	"hash"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/crypto/pbkdf2"

	"github.com/xtaci/gotransform/pipeline"
)

// pbkdf2Iterations/pbkdf2Salt fix the PBKDF2 parameters used to turn a
// passphrase into an AES-256 key.
const (
	pbkdf2Iterations = 4096
	pbkdf2Salt       = "gotransform"
)

// digestBuilders maps a key-derivation-digest name to its hash.Hash
// constructor.
var digestBuilders = map[string]func() hash.Hash{
	"SHA-1":   sha1.New,
	"SHA-256": sha256.New,
}

// deriveKey runs PBKDF2 over passphrase with the named digest,
// producing a key of keyLen bytes.
func deriveKey(passphrase, digestName string, keyLen int) ([]byte, error) {
	build, ok := digestBuilders[digestName]
	if !ok {
		return nil, pipeline.NewError(pipeline.ErrInvalidArgument, "unknown key-derivation digest "+digestName, nil)
	}
	return pbkdf2.Key([]byte(passphrase), []byte(pbkdf2Salt), pbkdf2Iterations, keyLen, build), nil
}

const (
	aes256KeyLen = 32
	aesBlockSize = aes.BlockSize
)

// pkcs7Pad/pkcs7Unpad implement the padding AES-CBC needs since the
// cipher only operates on whole blocks.
func pkcs7Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+padLen)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(padLen)
	}
	return padded
}

func pkcs7Unpad(data []byte) ([]byte, error) {
	if len(data) == 0 || len(data)%aesBlockSize != 0 {
		return nil, errors.New("ciphertext is not a whole number of blocks")
	}
	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > aesBlockSize || padLen > len(data) {
		return nil, errors.New("invalid PKCS#7 padding")
	}
	for _, b := range data[len(data)-padLen:] {
		if int(b) != padLen {
			return nil, errors.New("invalid PKCS#7 padding")
		}
	}
	return data[:len(data)-padLen], nil
}

// Encrypter is an AES-256-CBC transformer keyed via PBKDF2. It buffers
// whole AES blocks internally and only emits ciphertext once a block
// (or, at Finalize, the final padded block) is ready. The cipher
// itself gives no streaming guarantee below block granularity.
type Encrypter struct {
	block   cipher.Block
	iv      []byte
	mode    cipher.BlockMode
	pending []byte
	ivSent  bool
	padded  bool
}

// NewEncrypter derives a 256-bit key from passphrase using
// keyDerivationDigest, and prepares a random IV that is written as the
// first block of ciphertext, a standard self-describing CBC framing.
func NewEncrypter(passphrase, keyDerivationDigest string) (*Encrypter, error) {
	key, err := deriveKey(passphrase, keyDerivationDigest, aes256KeyLen)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, pipeline.NewError(pipeline.ErrInvalidArgument, "invalid AES-256 key", errors.WithStack(err))
	}
	iv := make([]byte, aesBlockSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, pipeline.NewError(pipeline.ErrUnexpected, "generate IV", errors.WithStack(err))
	}
	return &Encrypter{
		block: block,
		iv:    iv,
		mode:  cipher.NewCBCEncrypter(block, iv),
	}, nil
}

func (e *Encrypter) SourceMin() int { return 1 }
func (e *Encrypter) SinkMin() int   { return aesBlockSize }

func (e *Encrypter) Transform(source, sink *pipeline.Buffer) error {
	if !e.ivSent {
		if sink.WritableLen() < len(e.iv) {
			return nil
		}
		if err := writeAll(sink, e.iv); err != nil {
			return err
		}
		e.ivSent = true
	}
	n := source.ReadableLen()
	e.pending = append(e.pending, source.ReadSlice()[:n]...)
	if err := source.Consume(n); err != nil {
		return err
	}
	return e.flushBlocks(sink, false)
}

func (e *Encrypter) Finalize(source, sink *pipeline.Buffer) (bool, error) {
	if !e.ivSent {
		if sink.WritableLen() < len(e.iv) {
			return false, nil
		}
		if err := writeAll(sink, e.iv); err != nil {
			return false, err
		}
		e.ivSent = true
	}
	if e.padded {
		return true, nil
	}
	if sink.WritableLen() < aesBlockSize {
		return false, nil
	}
	padded := pkcs7Pad(e.pending, aesBlockSize)
	ciphertext := make([]byte, len(padded))
	e.mode.CryptBlocks(ciphertext, padded)
	e.pending = nil
	e.padded = true
	if err := writeAll(sink, ciphertext); err != nil {
		return false, err
	}
	return true, nil
}

// flushBlocks encrypts every whole block currently pending, leaving any
// remainder (< one block) buffered for the next call.
func (e *Encrypter) flushBlocks(sink *pipeline.Buffer, force bool) error {
	whole := (len(e.pending) / aesBlockSize) * aesBlockSize
	if whole == 0 {
		return nil
	}
	if sink.WritableLen() < whole {
		whole = (sink.WritableLen() / aesBlockSize) * aesBlockSize
		if whole == 0 {
			return nil
		}
	}
	ciphertext := make([]byte, whole)
	e.mode.CryptBlocks(ciphertext, e.pending[:whole])
	e.pending = e.pending[whole:]
	return writeAll(sink, ciphertext)
}

func (e *Encrypter) Close() error { return nil }

// Decrypter is the inverse of Encrypter: it expects the IV as the first
// block of ciphertext, then decrypts whole blocks, removing PKCS#7
// padding from the final block at Finalize.
type Decrypter struct {
	key   []byte
	block cipher.Block
	mode  cipher.BlockMode
	ivBuf []byte
}

// NewDecrypter mirrors NewEncrypter's parameters.
func NewDecrypter(passphrase, keyDerivationDigest string) (*Decrypter, error) {
	key, err := deriveKey(passphrase, keyDerivationDigest, aes256KeyLen)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, pipeline.NewError(pipeline.ErrInvalidArgument, "invalid AES-256 key", errors.WithStack(err))
	}
	return &Decrypter{key: key, block: block}, nil
}

// SourceMin is two AES blocks, not one: Transform always holds back the
// last complete block it sees (it might carry PKCS#7 padding, which
// only Finalize may strip), so it needs at least one block beyond
// whatever it consumes to guarantee it can still make progress.
func (d *Decrypter) SourceMin() int { return 2 * aesBlockSize }
func (d *Decrypter) SinkMin() int   { return aesBlockSize }

func (d *Decrypter) Transform(source, sink *pipeline.Buffer) error {
	if d.mode == nil {
		// source.ReadableLen() >= SourceMin() >= aesBlockSize here.
		d.ivBuf = append([]byte(nil), source.ReadSlice()[:aesBlockSize]...)
		if err := source.Consume(aesBlockSize); err != nil {
			return err
		}
		d.mode = cipher.NewCBCDecrypter(d.block, d.ivBuf)
		return nil
	}

	avail := (source.ReadableLen() / aesBlockSize) * aesBlockSize
	if avail == 0 {
		return nil
	}
	// Hold back the final available block: it might carry the PKCS#7
	// padding, which only Finalize is allowed to strip.
	avail -= aesBlockSize
	if avail == 0 {
		return nil
	}
	if sink.WritableLen() < avail {
		avail = (sink.WritableLen() / aesBlockSize) * aesBlockSize
		if avail == 0 {
			return nil
		}
	}
	plain := make([]byte, avail)
	d.mode.CryptBlocks(plain, source.ReadSlice()[:avail])
	if err := source.Consume(avail); err != nil {
		return err
	}
	return writeAll(sink, plain)
}

func (d *Decrypter) Finalize(source, sink *pipeline.Buffer) (bool, error) {
	if d.mode == nil {
		if source.ReadableLen() > 0 {
			return false, pipeline.NewError(pipeline.ErrProtocol, "ciphertext shorter than an IV plus one AES block", nil)
		}
		return true, nil
	}
	rem := source.ReadableLen()
	if rem == 0 {
		return true, nil
	}
	if rem%aesBlockSize != 0 {
		return false, pipeline.NewError(pipeline.ErrProtocol, "ciphertext is not a whole number of blocks", nil)
	}
	if sink.WritableLen() < rem {
		return false, nil
	}
	plain := make([]byte, rem)
	d.mode.CryptBlocks(plain, source.ReadSlice())
	unpadded, err := pkcs7Unpad(plain)
	if err != nil {
		return false, pipeline.NewError(pipeline.ErrProtocol, "bad padding", errors.WithStack(err))
	}
	if err := source.Consume(rem); err != nil {
		return false, err
	}
	if err := writeAll(sink, unpadded); err != nil {
		return false, err
	}
	return true, nil
}

func (d *Decrypter) Close() error { return nil }

func writeAll(sink *pipeline.Buffer, p []byte) error {
	n := copy(sink.WriteSlice(), p)
	if n != len(p) {
		return pipeline.NewError(pipeline.ErrUnexpected, "sink too small for a single block write", nil)
	}
	return sink.Append(n)
}

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

// Package recipe loads a declarative description of a pipeline, a
// source, an ordered list of transformer stages, and a sink, from
// YAML, and wires it into a *pipeline.Scheduler ready to run. It plays
// the role the kcptun client/server's JSON "-c" config file plays for
// that program: a single file an operator can hand-edit instead of
// assembling a pipeline by hand in Go.
package recipe

import (
	"io/ioutil"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/xtaci/gotransform/pipeline"
	"github.com/xtaci/gotransform/stages"
)

// Recipe is the top-level YAML document shape.
type Recipe struct {
	Source       Node   `yaml:"source"`
	Transformers []Node `yaml:"transformers"`
	Sink         Node   `yaml:"sink"`
}

// Node names a stage type and carries its constructor parameters. Which
// of the parameter fields apply depends on Type; unused fields are
// simply left at their zero value.
type Node struct {
	Type       string `yaml:"type"`
	Path       string `yaml:"path,omitempty"`       // file producer/consumer
	Passphrase string `yaml:"passphrase,omitempty"` // crypt stages
	Digest     string `yaml:"digest,omitempty"`     // crypt key-derivation digest, or digest stage name
	Level      int    `yaml:"level,omitempty"`      // deflate level
	Remove     string `yaml:"remove,omitempty"`     // filter: bytes to drop
	Capacity   int    `yaml:"capacity,omitempty"`   // chunk collector capacity
}

// Load parses a YAML recipe document.
func Load(data []byte) (*Recipe, error) {
	var r Recipe
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, pipeline.NewError(pipeline.ErrInvalidArgument, "parse recipe", errors.WithStack(err))
	}
	return &r, nil
}

// LoadFile reads and parses a YAML recipe document from path.
func LoadFile(path string) (*Recipe, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, pipeline.NewError(pipeline.ErrIO, "read recipe "+path, errors.WithStack(err))
	}
	return Load(data)
}

// Build constructs a producer, consumer and transformer chain from the
// recipe and assembles them into a *pipeline.Scheduler.
func (r *Recipe) Build() (*pipeline.Scheduler, error) {
	producer, err := r.Source.buildProducer()
	if err != nil {
		return nil, errors.Wrap(err, "source")
	}
	consumer, err := r.Sink.buildConsumer()
	if err != nil {
		return nil, errors.Wrap(err, "sink")
	}
	sched, err := pipeline.New(producer, consumer)
	if err != nil {
		return nil, err
	}
	for i, n := range r.Transformers {
		t, err := n.buildTransformer()
		if err != nil {
			return nil, errors.Wrapf(err, "transformers[%d]", i)
		}
		if err := sched.AddTransformer(t); err != nil {
			return nil, err
		}
	}
	return sched, nil
}

func (n Node) buildProducer() (pipeline.Producer, error) {
	switch n.Type {
	case "file":
		return stages.OpenFileProducer(n.Path)
	default:
		return nil, pipeline.NewError(pipeline.ErrInvalidArgument, "unknown producer type "+n.Type, nil)
	}
}

func (n Node) buildConsumer() (pipeline.Consumer, error) {
	switch n.Type {
	case "file":
		return stages.CreateFileConsumer(n.Path)
	case "line":
		return stages.NewLineConsumer(), nil
	case "byte":
		return stages.NewByteConsumer(), nil
	case "chunk":
		return stages.NewChunkCollector(n.Capacity), nil
	default:
		return nil, pipeline.NewError(pipeline.ErrInvalidArgument, "unknown consumer type "+n.Type, nil)
	}
}

func (n Node) buildTransformer() (pipeline.Transformer, error) {
	switch n.Type {
	case "base64-encode":
		return stages.NewBase64Encoder(), nil
	case "base64-decode":
		return stages.NewBase64Decoder(), nil
	case "deflate":
		return stages.NewDeflater(n.Level)
	case "inflate":
		return stages.NewInflater(), nil
	case "encrypt":
		return stages.NewEncrypter(n.Passphrase, n.Digest)
	case "decrypt":
		return stages.NewDecrypter(n.Passphrase, n.Digest)
	case "digest":
		return stages.NewDigester(n.Digest)
	case "filter":
		return stages.NewFilter([]byte(n.Remove), nil), nil
	default:
		return nil, pipeline.NewError(pipeline.ErrInvalidArgument, "unknown transformer type "+n.Type, nil)
	}
}

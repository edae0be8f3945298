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

package main

import (
	"log"
	"os"

	"github.com/pkg/errors"
	"github.com/urfave/cli"

	"github.com/xtaci/gotransform/internal/recipe"
	"github.com/xtaci/gotransform/pipeline"
)

// VERSION is injected by buildflags.
var VERSION = "SELFBUILD"

func main() {
	if VERSION == "SELFBUILD" {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	myApp := cli.NewApp()
	myApp.Name = "gotransform"
	myApp.Usage = "run a declarative streaming transformation pipeline"
	myApp.Version = VERSION
	myApp.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "recipe, r",
			Value: "recipe.yaml",
			Usage: "path to the YAML pipeline recipe",
		},
		cli.BoolFlag{
			Name:  "quiet, q",
			Usage: "only print errors",
		},
	}
	myApp.Action = func(c *cli.Context) error {
		r, err := recipe.LoadFile(c.String("recipe"))
		checkError(err)

		sched, err := r.Build()
		checkError(err)

		if !c.Bool("quiet") {
			log.Printf("pipeline %s: built, entering work loop", sched.ID())
		}

		for sched.Stage() != pipeline.Done {
			switch {
			case sched.Stage() == pipeline.Final:
				err = sched.Finalize()
			case sched.ProducerEnded():
				err = sched.Finalize()
			default:
				err = sched.Advance()
			}
			checkError(err)
		}

		if !c.Bool("quiet") {
			log.Printf("pipeline %s: done", sched.ID())
		}
		return nil
	}

	if err := myApp.Run(os.Args); err != nil {
		checkError(err)
	}
}

func checkError(err error) {
	if err != nil {
		log.Printf("%+v\n", errors.WithStack(err))
		os.Exit(-1)
	}
}

package runtime

import (
	_ "embed"

	"github.com/dop251/goja"
)

// preludeSource is the sandbox environment installed before any component
// code: the console mock, absent browser globals, the server runtime
// emulation behind $, and the render entry point.
//
//go:embed prelude.js
var preludeSource string

// preludeProgram is compiled once at startup. Compiled programs are
// immutable and safe to run on any number of sessions concurrently.
var preludeProgram = goja.MustCompile("fymo:prelude", preludeSource, false)

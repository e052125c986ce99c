// Package compiler defines the contract between sessions and a DSP
// compiler backend. Backends are injected into sessions, they keep no
// hidden global state the caller cannot release.
package compiler

import "pipelined.dev/faust/param"

// DefaultOptLevel requests the highest optimization level of the backend.
const DefaultOptLevel = -1

// Compiler turns DSP source text into factories.
type Compiler interface {
	// Compile returns nil factory and a diagnostic if source is rejected.
	Compile(name, source string, optLevel int) (Factory, string)
}

// Factory produces runnable instances of a compiled DSP.
type Factory interface {
	// Instantiate returns nil if the instance cannot be created.
	Instantiate() Instance
	Release()
}

// Instance is one runnable DSP graph.
type Instance interface {
	Init(sampleRate int)
	NumInputs() int
	NumOutputs() int
	// Compute processes frames samples of every channel. Output buffers
	// are written in place.
	Compute(frames int, in, out [][]float64)
	// BuildUserInterface issues one event per box and widget.
	BuildUserInterface(ui param.UI)
	Release()
}

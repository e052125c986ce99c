// Package mock provides a programmable compiler backend for tests.
package mock

import (
	"pipelined.dev/faust/compiler"
	"pipelined.dev/faust/param"
)

// Release records.
const (
	InstanceReleased = "instance"
	FactoryReleased  = "factory"
)

// GainLabel is the widget label whose value scales the computed output.
const GainLabel = "Gain"

type (
	// Compiler mocks a compiler.Compiler interface.
	Compiler struct {
		// Diagnostic rejects every source if not empty.
		Diagnostic string
		// FailInstantiate makes factories return nil instances.
		FailInstantiate bool

		Inputs   int
		Outputs  int
		Controls []param.Control

		Counter
		// Releases lists released handles in order.
		Releases []string
	}

	// Counter counts calls to the mocked backend.
	Counter struct {
		Compiled   int
		Computed   int
		Frames     int
		SampleRate int
		OptLevel   int
		Name       string
		Source     string
	}

	factory struct {
		*Compiler
	}

	instance struct {
		*Compiler
		cells []*param.Cell
		gain  *param.Cell
	}
)

// Compile implements compiler.Compiler.
func (m *Compiler) Compile(name, source string, optLevel int) (compiler.Factory, string) {
	m.Compiled++
	m.Name = name
	m.Source = source
	m.OptLevel = optLevel
	if m.Diagnostic != "" {
		return nil, m.Diagnostic
	}
	return &factory{Compiler: m}, ""
}

// Instantiate implements compiler.Factory.
func (f *factory) Instantiate() compiler.Instance {
	if f.FailInstantiate {
		return nil
	}
	i := &instance{Compiler: f.Compiler}
	for _, c := range f.Controls {
		if _, ok := c.Kind(); !ok {
			continue
		}
		cell := param.Cell(c.Init)
		i.cells = append(i.cells, &cell)
		if c.Label == GainLabel {
			i.gain = &cell
		}
	}
	return i
}

func (f *factory) Release() {
	f.Releases = append(f.Releases, FactoryReleased)
}

func (i *instance) Init(sampleRate int) {
	i.SampleRate = sampleRate
	for n, c := range i.widgets() {
		i.cells[n].Store(c.Init)
	}
}

func (i *instance) NumInputs() int {
	return i.Inputs
}

func (i *instance) NumOutputs() int {
	return i.Outputs
}

// Compute copies input channels to outputs scaled by the gain widget.
// Outputs wrap around inputs if there are more of them.
func (i *instance) Compute(frames int, in, out [][]float64) {
	i.Computed++
	i.Frames += frames
	gain := 1.0
	if i.gain != nil {
		gain = i.gain.Load()
	}
	for c := range out {
		for j := 0; j < frames; j++ {
			if len(in) == 0 {
				out[c][j] = 0
				continue
			}
			out[c][j] = in[c%len(in)][j] * gain
		}
	}
}

// BuildUserInterface replays controls. Widgets get instance zones, and a
// declaration is bound to the zone of the widget that follows it.
func (i *instance) BuildUserInterface(ui param.UI) {
	n := 0
	for _, c := range i.Controls {
		switch c.Op {
		case param.Declare:
			if n < len(i.cells) {
				c.Zone = i.cells[n]
			}
		default:
			if _, ok := c.Kind(); ok {
				c.Zone = i.cells[n]
				n++
			}
		}
		ui(c)
	}
}

func (i *instance) Release() {
	i.Releases = append(i.Releases, InstanceReleased)
}

func (i *instance) widgets() []param.Control {
	var w []param.Control
	for _, c := range i.Controls {
		if _, ok := c.Kind(); ok {
			w = append(w, c)
		}
	}
	return w
}

/*
Package param flattens the controls a compiled DSP declares into a table
addressed by path.

A compiled graph announces its controls through a sequence of Control
events: boxes open and close, widgets are added, metadata is declared. The
Registry consumes that sequence through the function returned by UI and
keeps one Param per widget. Each Param refers to the live zone the graph
reads on every block, so Set and Get act on the running graph directly.

Paths are flat: "/" followed by the widget label. Enclosing boxes do not
contribute to the path, so two widgets sharing a label in different boxes
collide and the later one wins the path lookup.
*/
package param

import "fmt"

// Kind of the widget a parameter was declared with.
type Kind int

// Widget kinds.
const (
	Button Kind = iota
	CheckButton
	VSlider
	HSlider
	NumEntry
)

func (k Kind) String() string {
	switch k {
	case Button:
		return "button"
	case CheckButton:
		return "checkbox"
	case VSlider:
		return "vslider"
	case HSlider:
		return "hslider"
	case NumEntry:
		return "nentry"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Zone is a numeric cell owned by a DSP instance. The instance reads it
// every block, so it is only valid while that instance is alive.
type Zone interface {
	Load() float64
	Store(float64)
}

// Cell is a Zone backed by a plain float64.
type Cell float64

// Load returns the cell value.
func (c *Cell) Load() float64 {
	return float64(*c)
}

// Store writes the cell value.
func (c *Cell) Store(v float64) {
	*c = Cell(v)
}

// Param describes one discovered control.
type Param struct {
	Label string
	Path  string
	Kind  Kind
	Zone  Zone

	Init float64
	Min  float64
	Max  float64
	Step float64

	// Meta holds key/value pairs declared for the zone, e.g. "unit": "dB".
	Meta map[string]string
}

// Value reads the current value from the zone.
func (p Param) Value() float64 {
	if p.Zone == nil {
		return 0
	}
	return p.Zone.Load()
}

func (p Param) String() string {
	return fmt.Sprintf("%s %s init=%g min=%g max=%g step=%g", p.Path, p.Kind, p.Init, p.Min, p.Max, p.Step)
}

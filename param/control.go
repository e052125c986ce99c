package param

import "fmt"

// Op identifies a control declaration event.
type Op int

// Declaration events issued by a DSP instance while it builds its UI.
const (
	OpenTabBox Op = iota
	OpenHorizontalBox
	OpenVerticalBox
	CloseBox
	AddButton
	AddCheckButton
	AddVerticalSlider
	AddHorizontalSlider
	AddNumEntry
	Declare
)

func (op Op) String() string {
	switch op {
	case OpenTabBox:
		return "openTabBox"
	case OpenHorizontalBox:
		return "openHorizontalBox"
	case OpenVerticalBox:
		return "openVerticalBox"
	case CloseBox:
		return "closeBox"
	case AddButton:
		return "addButton"
	case AddCheckButton:
		return "addCheckButton"
	case AddVerticalSlider:
		return "addVerticalSlider"
	case AddHorizontalSlider:
		return "addHorizontalSlider"
	case AddNumEntry:
		return "addNumEntry"
	case Declare:
		return "declare"
	}
	return fmt.Sprintf("Op(%d)", int(op))
}

// Control is a single declaration event. Fields irrelevant to the Op are
// zero: boxes carry only Label, buttons carry Label and Zone, Declare
// carries Zone, Key and Value.
type Control struct {
	Op    Op
	Label string
	Zone  Zone

	Init float64
	Min  float64
	Max  float64
	Step float64

	Key   string
	Value string
}

// UI receives declaration events in the order the instance issues them.
type UI func(Control)

// Kind returns the widget kind for widget ops.
func (c Control) Kind() (Kind, bool) {
	switch c.Op {
	case AddButton:
		return Button, true
	case AddCheckButton:
		return CheckButton, true
	case AddVerticalSlider:
		return VSlider, true
	case AddHorizontalSlider:
		return HSlider, true
	case AddNumEntry:
		return NumEntry, true
	}
	return 0, false
}

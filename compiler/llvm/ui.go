//go:build faust

package llvm

/*
#include <stdint.h>
*/
import "C"

import (
	"runtime/cgo"

	"pipelined.dev/faust/param"
)

// zone points to a FAUSTFLOAT cell inside JIT instance memory.
type zone struct {
	p *C.double
}

func (z zone) Load() float64 {
	return float64(*z.p)
}

func (z zone) Store(v float64) {
	*z.p = C.double(v)
}

func ui(handle C.uintptr_t) param.UI {
	return cgo.Handle(handle).Value().(param.UI)
}

//export goOpenBox
func goOpenBox(handle C.uintptr_t, op C.int, label *C.char) {
	ui(handle)(param.Control{Op: param.Op(op), Label: C.GoString(label)})
}

//export goCloseBox
func goCloseBox(handle C.uintptr_t) {
	ui(handle)(param.Control{Op: param.CloseBox})
}

//export goAddWidget
func goAddWidget(handle C.uintptr_t, op C.int, label *C.char, z *C.double, init, min, max, step C.double) {
	ui(handle)(param.Control{
		Op:    param.Op(op),
		Label: C.GoString(label),
		Zone:  zone{p: z},
		Init:  float64(init),
		Min:   float64(min),
		Max:   float64(max),
		Step:  float64(step),
	})
}

//export goDeclare
func goDeclare(handle C.uintptr_t, z *C.double, key, value *C.char) {
	c := param.Control{Op: param.Declare, Key: C.GoString(key), Value: C.GoString(value)}
	if z != nil {
		c.Zone = zone{p: z}
	}
	ui(handle)(c)
}

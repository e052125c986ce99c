//go:build faust

package llvm

/*
#cgo LDFLAGS: -lfaust
#include <stdlib.h>
#include "glue.h"
*/
import "C"

import (
	"runtime/cgo"
	"sync"
	"unsafe"

	"pipelined.dev/faust/compiler"
	"pipelined.dev/faust/param"
)

// factories guards libfaust factory cache.
var factories sync.Mutex

type (
	// Compiler compiles Faust programs with LLVM. Zero value is ready to use.
	Compiler struct{}

	factory struct {
		f *C.llvm_dsp_factory
	}

	instance struct {
		dsp     *C.llvm_dsp
		inputs  int
		outputs int

		// C buffers for compute, grown to the largest block.
		capacity int
		inPtrs   **C.double
		outPtrs  **C.double
		inBufs   []*C.double
		outBufs  []*C.double
	}
)

// Compile implements compiler.Compiler.
func (Compiler) Compile(name, source string, optLevel int) (compiler.Factory, string) {
	cName := C.CString(name)
	defer C.free(unsafe.Pointer(cName))
	cSource := C.CString(source)
	defer C.free(unsafe.Pointer(cSource))
	errorMsg := (*C.char)(C.calloc(C.FAUSTGO_ERROR_SIZE, 1))
	defer C.free(unsafe.Pointer(errorMsg))

	factories.Lock()
	f := C.faustgo_create_factory(cName, cSource, C.int(optLevel), errorMsg)
	factories.Unlock()
	if f == nil {
		return nil, C.GoString(errorMsg)
	}
	return &factory{f: f}, ""
}

// Instantiate implements compiler.Factory.
func (f *factory) Instantiate() compiler.Instance {
	dsp := C.createCDSPInstance(f.f)
	if dsp == nil {
		return nil
	}
	return &instance{
		dsp:     dsp,
		inputs:  int(C.getNumInputsCDSPInstance(dsp)),
		outputs: int(C.getNumOutputsCDSPInstance(dsp)),
	}
}

// Release implements compiler.Factory.
func (f *factory) Release() {
	factories.Lock()
	C.deleteCDSPFactory(f.f)
	factories.Unlock()
	f.f = nil
}

func (i *instance) Init(sampleRate int) {
	C.initCDSPInstance(i.dsp, C.int(sampleRate))
}

func (i *instance) NumInputs() int {
	return i.inputs
}

func (i *instance) NumOutputs() int {
	return i.outputs
}

// Compute copies input into C buffers, runs the DSP and copies output
// back. Missing input channels are silent, extra output channels of the
// DSP are dropped.
func (i *instance) Compute(frames int, in, out [][]float64) {
	i.reserve(frames)
	for c, buf := range i.inBufs {
		dst := unsafe.Slice((*float64)(unsafe.Pointer(buf)), frames)
		if c < len(in) {
			copy(dst, in[c][:frames])
		} else {
			clear(dst)
		}
	}
	C.computeCDSPInstance(i.dsp, C.int(frames), i.inPtrs, i.outPtrs)
	for c, buf := range i.outBufs {
		if c >= len(out) {
			break
		}
		copy(out[c][:frames], unsafe.Slice((*float64)(unsafe.Pointer(buf)), frames))
	}
}

func (i *instance) BuildUserInterface(ui param.UI) {
	h := cgo.NewHandle(ui)
	defer h.Delete()
	C.faustgo_build_ui(i.dsp, C.uintptr_t(h))
}

func (i *instance) Release() {
	i.free()
	C.deleteCDSPInstance(i.dsp)
	i.dsp = nil
}

// reserve allocates C buffers for at least frames samples per channel.
func (i *instance) reserve(frames int) {
	if frames <= i.capacity {
		return
	}
	i.free()
	i.inPtrs, i.inBufs = allocChannels(i.inputs, frames)
	i.outPtrs, i.outBufs = allocChannels(i.outputs, frames)
	i.capacity = frames
}

func (i *instance) free() {
	freeChannels(i.inPtrs, i.inBufs)
	freeChannels(i.outPtrs, i.outBufs)
	i.inPtrs, i.inBufs = nil, nil
	i.outPtrs, i.outBufs = nil, nil
	i.capacity = 0
}

func allocChannels(channels, frames int) (**C.double, []*C.double) {
	// one extra slot keeps malloc size positive for DSPs without channels.
	ptrs := (**C.double)(C.malloc(C.size_t(channels+1) * C.size_t(unsafe.Sizeof(uintptr(0)))))
	slots := unsafe.Slice(ptrs, channels+1)
	bufs := make([]*C.double, channels)
	for c := range bufs {
		bufs[c] = (*C.double)(C.calloc(C.size_t(frames), C.size_t(unsafe.Sizeof(C.double(0)))))
		slots[c] = bufs[c]
	}
	slots[channels] = nil
	return ptrs, bufs
}

func freeChannels(ptrs **C.double, bufs []*C.double) {
	for _, b := range bufs {
		C.free(unsafe.Pointer(b))
	}
	if ptrs != nil {
		C.free(unsafe.Pointer(ptrs))
	}
}

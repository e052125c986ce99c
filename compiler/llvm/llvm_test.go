//go:build faust

package llvm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipelined.dev/faust"
	"pipelined.dev/faust/compiler/llvm"
	"pipelined.dev/faust/param"
)

const gain = `
import("stdfaust.lib");
gain = hslider("Gain [unit:lin]", 0.5, 0, 1, 0.01);
process = *(gain);
`

func TestGain(t *testing.T) {
	s, err := faust.NewMono(llvm.Compiler{}, "gain", gain)
	require.NoError(t, err)
	defer s.Close()

	params := s.ListParams()
	require.Equal(t, 1, len(params))
	assert.Equal(t, "/Gain", params[0].Path)
	assert.Equal(t, param.HSlider, params[0].Kind)
	assert.Equal(t, 0.5, params[0].Init)
	assert.Equal(t, "lin", params[0].Meta["unit"])

	assert.True(t, s.SetParam("/Gain", 0.8))
	assert.Equal(t, 0.8, s.GetParam("/Gain"))

	in := []float64{1, 0.5, 0, -1}
	out := make([]float64, 4)
	s.Process(in, out, 4)
	assert.InDeltaSlice(t, []float64{0.8, 0.4, 0, -0.8}, out, 1e-9)
}

func TestCompileError(t *testing.T) {
	s, err := faust.NewMono(llvm.Compiler{}, "broken", "process = ;")
	assert.Error(t, err)
	assert.False(t, s.IsValid())
	assert.NotEmpty(t, s.Diagnostic())
}

package faust_test

import (
	"errors"
	"math"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipelined.dev/faust"
	"pipelined.dev/faust/compiler/interp"
	"pipelined.dev/faust/compiler/mock"
	"pipelined.dev/faust/param"
)

const gain = `
inputs  = 1
outputs = 1

hslider "Gain" {
  init = 0.5
  min  = 0
  max  = 1
  step = 0.01
}

process = [in[0] * ctl.Gain]
`

func gainControls() []param.Control {
	return []param.Control{
		{Op: param.OpenVerticalBox, Label: "gain"},
		{Op: param.AddHorizontalSlider, Label: mock.GainLabel, Init: 0.5, Min: 0, Max: 1, Step: 0.01},
		{Op: param.AddButton, Label: "Reset"},
		{Op: param.CloseBox},
	}
}

func warnings(hook *logtest.Hook) int {
	n := 0
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			n++
		}
	}
	return n
}

func TestGainEndToEnd(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	s, err := faust.NewMono(interp.Compiler{}, "gain", gain, faust.WithLogger(logger))
	require.NoError(t, err)
	defer s.Close()

	assert.True(t, s.IsValid())
	assert.Equal(t, 0, warnings(hook))
	assert.Equal(t, 1, s.NumInputs())
	assert.Equal(t, 1, s.NumOutputs())
	assert.Equal(t, faust.DefaultSampleRate, s.SampleRate())

	params := s.ListParams()
	require.Equal(t, 1, len(params))
	assert.Equal(t, "/Gain", params[0].Path)
	assert.Equal(t, 0.5, params[0].Init)

	assert.True(t, s.SetParam("/Gain", 0.8))
	assert.Equal(t, 0.8, s.GetParam("/Gain"))

	frames := 64
	in := make([]float64, frames)
	out := make([]float64, frames)
	s.Process(in, out, frames)
	assert.True(t, s.IsValid())
	assert.Equal(t, frames, len(out))
	for _, v := range out {
		assert.Equal(t, 0.0, v)
	}

	in[0], in[1] = 1, -0.5
	s.Process(in, out, 2)
	assert.InDelta(t, 0.8, out[0], 1e-12)
	assert.InDelta(t, -0.4, out[1], 1e-12)
}

func TestParams(t *testing.T) {
	c := &mock.Compiler{Inputs: 1, Outputs: 1, Controls: gainControls()}
	s, err := faust.NewMono(c, "gain", "source")
	require.NoError(t, err)

	params := s.ListParams()
	assert.Equal(t, 2, len(params))
	paths := map[string]bool{}
	for _, p := range params {
		paths[p.Path] = true
	}
	assert.Equal(t, map[string]bool{"/Gain": true, "/Reset": true}, paths)

	var tests = []struct {
		path  string
		value float64
	}{
		{path: "/Gain", value: 0.3},
		{path: "/Gain", value: 7},
		{path: "/Gain", value: -2},
		{path: "/Reset", value: 1},
	}
	for _, c := range tests {
		assert.True(t, s.SetParam(c.path, c.value))
		assert.Equal(t, c.value, s.GetParam(c.path))
	}

	before := s.ListParams()
	values := make([]float64, len(before))
	for i, p := range before {
		values[i] = p.Value()
	}
	assert.False(t, s.SetParam("/Missing", 1))
	assert.Equal(t, 0.0, s.GetParam("/Missing"))
	_, ok := s.LookupParam("/Missing")
	assert.False(t, ok)
	for i, p := range s.ListParams() {
		assert.Equal(t, values[i], p.Value())
	}
}

func TestOptions(t *testing.T) {
	c := &mock.Compiler{Inputs: 1, Outputs: 1}
	s, err := faust.NewMono(c, "gain", "source", faust.SampleRate(96000), faust.OptLevel(3))
	require.NoError(t, err)
	assert.Equal(t, 96000, s.SampleRate())
	assert.Equal(t, 96000, c.SampleRate)
	assert.Equal(t, 3, c.OptLevel)
	assert.Equal(t, "gain", c.Name)
	assert.Equal(t, "source", c.Source)
	assert.Equal(t, "gain", s.Name())
	assert.NotEmpty(t, s.ID())

	d, err := faust.NewMono(c, "gain", "source")
	require.NoError(t, err)
	assert.Equal(t, faust.DefaultSampleRate, d.SampleRate())
	assert.Equal(t, -1, c.OptLevel)
	assert.NotEqual(t, s.ID(), d.ID())
}

func TestShape(t *testing.T) {
	var tests = []struct {
		description string
		inputs      int
		outputs     int
		stereo      bool
		warnings    int
	}{
		{description: "mono on mono", inputs: 1, outputs: 1},
		{description: "stereo on mono", inputs: 2, outputs: 2, warnings: 1},
		{description: "generator on mono", inputs: 0, outputs: 1, warnings: 1},
		{description: "stereo on stereo", inputs: 2, outputs: 2, stereo: true},
		{description: "mono on stereo", inputs: 1, outputs: 1, stereo: true, warnings: 1},
	}
	for _, c := range tests {
		logger, hook := logtest.NewNullLogger()
		m := &mock.Compiler{Inputs: c.inputs, Outputs: c.outputs, Controls: gainControls()}
		var s *faust.Session
		if c.stereo {
			st, err := faust.NewStereo(m, "dsp", "source", faust.WithLogger(logger))
			assert.NoError(t, err, c.description)
			s = st.Session
		} else {
			mo, err := faust.NewMono(m, "dsp", "source", faust.WithLogger(logger))
			assert.NoError(t, err, c.description)
			s = mo.Session
		}
		assert.True(t, s.IsValid(), c.description)
		assert.Equal(t, c.warnings, warnings(hook), c.description)
	}
}

func TestMismatchedShapeProcess(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	m := &mock.Compiler{Inputs: 2, Outputs: 2, Controls: gainControls()}
	s, err := faust.NewMono(m, "dsp", "source", faust.WithLogger(logger))
	require.NoError(t, err)

	in := []float64{1, 1}
	out := make([]float64, 2)
	s.Process(in, out, 2)
	assert.True(t, s.IsValid())
	assert.Equal(t, []float64{0.5, 0.5}, out)
}

func TestStereoProcess(t *testing.T) {
	m := &mock.Compiler{Inputs: 2, Outputs: 2, Controls: gainControls()}
	s, err := faust.NewStereo(m, "dsp", "source")
	require.NoError(t, err)
	s.SetParam("/Gain", 2)

	inL, inR := []float64{1, 2, 3}, []float64{-1, -2, -3}
	outL, outR := make([]float64, 3), make([]float64, 3)
	s.Process(inL, inR, outL, outR, 3)
	assert.Equal(t, []float64{2, 4, 6}, outL)
	assert.Equal(t, []float64{-2, -4, -6}, outR)
	assert.Equal(t, 1, m.Computed)
	assert.Equal(t, 3, m.Frames)
}

func TestCompileFailure(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	s, err := faust.NewMono(interp.Compiler{}, "broken", "process = [in[0] *", faust.WithLogger(logger))
	require.Error(t, err)
	assert.True(t, errors.Is(err, faust.ErrCompile))
	var e *faust.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, "broken", e.Name)
	assert.Equal(t, faust.OpCompile, e.Op)
	assert.NotEmpty(t, e.Diagnostic)

	assertInvalid(t, s.Session)
	in, out := make([]float64, 4), []float64{1, 1, 1, 1}
	s.Process(in, out, 4)
	assert.Equal(t, []float64{1, 1, 1, 1}, out)
	s.Close()
}

func TestCompileFailureStereo(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	m := &mock.Compiler{Diagnostic: "unexpected token"}
	s, err := faust.NewStereo(m, "broken", "source", faust.WithLogger(logger))
	assert.True(t, errors.Is(err, faust.ErrCompile))
	assert.Equal(t, "unexpected token", s.Diagnostic())
	assert.Contains(t, err.Error(), "unexpected token")
	assert.Empty(t, m.Releases)
	assertInvalid(t, s.Session)
}

func TestInstantiateFailure(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	m := &mock.Compiler{FailInstantiate: true, Inputs: 1, Outputs: 1}
	s, err := faust.NewMono(m, "dsp", "source", faust.WithLogger(logger))
	assert.True(t, errors.Is(err, faust.ErrInstantiate))
	assert.False(t, errors.Is(err, faust.ErrCompile))
	assert.Equal(t, []string{mock.FactoryReleased}, m.Releases)
	assertInvalid(t, s.Session)

	s.Close()
	assert.Equal(t, []string{mock.FactoryReleased}, m.Releases)
}

func TestClose(t *testing.T) {
	m := &mock.Compiler{Inputs: 1, Outputs: 1, Controls: gainControls()}
	s, err := faust.NewMono(m, "dsp", "source")
	require.NoError(t, err)
	require.Equal(t, 2, len(s.ListParams()))

	s.Close()
	assert.Equal(t, []string{mock.InstanceReleased, mock.FactoryReleased}, m.Releases)
	assertInvalid(t, s.Session)

	s.Close()
	assert.Equal(t, []string{mock.InstanceReleased, mock.FactoryReleased}, m.Releases)
}

func TestUndersizedBuffer(t *testing.T) {
	m := &mock.Compiler{Inputs: 1, Outputs: 1}
	s, err := faust.NewMono(m, "dsp", "source")
	require.NoError(t, err)
	assert.Panics(t, func() {
		s.Process(make([]float64, 4), make([]float64, 2), 4)
	})
	assert.NotPanics(t, func() {
		s.Process(make([]float64, 4), make([]float64, 8), 4)
	})
	assert.Equal(t, 1, m.Computed)
}

func assertInvalid(t *testing.T, s *faust.Session) {
	t.Helper()
	assert.False(t, s.IsValid())
	assert.Equal(t, 0, s.NumInputs())
	assert.Equal(t, 0, s.NumOutputs())
	assert.Equal(t, 0, s.SampleRate())
	assert.Empty(t, s.ListParams())
	assert.False(t, s.SetParam("/Gain", 1))
	assert.Equal(t, 0.0, s.GetParam("/Gain"))
}

func TestAnyShape(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	m := &mock.Compiler{Inputs: 0, Outputs: 3}
	s, err := faust.New(m, "dsp", "source", faust.AnyShape, faust.WithLogger(logger))
	require.NoError(t, err)
	assert.Equal(t, 0, warnings(hook))
	assert.Equal(t, faust.AnyShape, s.Shape())

	_, err = faust.New(m, "dsp", "source", faust.Shape{Inputs: -1, Outputs: 2}, faust.WithLogger(logger))
	require.NoError(t, err)
	assert.Equal(t, 1, warnings(hook))
}

func TestAnyValue(t *testing.T) {
	backends := []struct {
		description string
		session     func() (*faust.Mono, error)
	}{
		{
			description: "interp",
			session: func() (*faust.Mono, error) {
				return faust.NewMono(interp.Compiler{}, "gain", gain)
			},
		},
		{
			description: "mock",
			session: func() (*faust.Mono, error) {
				return faust.NewMono(&mock.Compiler{Inputs: 1, Outputs: 1, Controls: gainControls()}, "gain", "source")
			},
		},
	}
	values := []float64{math.NaN(), math.Inf(1), math.Inf(-1), math.MaxFloat64, -42, 1e-300}
	for _, b := range backends {
		s, err := b.session()
		require.NoError(t, err, b.description)
		in := []float64{1, 0.5, 0, -1}
		out := make([]float64, len(in))
		for _, v := range values {
			assert.True(t, s.SetParam("/Gain", v), b.description)
			if math.IsNaN(v) {
				assert.True(t, math.IsNaN(s.GetParam("/Gain")), b.description)
			} else {
				assert.Equal(t, v, s.GetParam("/Gain"), b.description)
			}
			assert.NotPanics(t, func() { s.Process(in, out, len(in)) }, "%s: %v", b.description, v)
		}
		s.SetParam("/Gain", 0.5)
		s.Process(in, out, len(in))
		assert.Equal(t, []float64{0.5, 0.25, 0, -0.5}, out, b.description)
		s.Close()
	}
}

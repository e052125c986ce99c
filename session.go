package faust

import (
	"fmt"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"

	"pipelined.dev/faust/compiler"
	"pipelined.dev/faust/log"
	"pipelined.dev/faust/param"
)

// DefaultSampleRate is used when no SampleRate option is provided.
const DefaultSampleRate = 44100

// Shape is the number of input and output channels a session expects.
// Negative count matches any number of channels.
type Shape struct {
	Inputs  int
	Outputs int
}

// Channel shapes of session specializations.
var (
	MonoShape   = Shape{Inputs: 1, Outputs: 1}
	StereoShape = Shape{Inputs: 2, Outputs: 2}
	AnyShape    = Shape{Inputs: -1, Outputs: -1}
)

// Matches returns true if channel counts fit the shape.
func (s Shape) Matches(inputs, outputs int) bool {
	return (s.Inputs < 0 || s.Inputs == inputs) && (s.Outputs < 0 || s.Outputs == outputs)
}

// Session owns a compiled DSP instance and the registry of its parameters.
type Session struct {
	id         string
	name       string
	shape      Shape
	sampleRate int
	optLevel   int
	logger     log.Logger

	factory    compiler.Factory
	instance   compiler.Instance
	params     *param.Registry
	diagnostic string
}

// New compiles source and builds a session around the resulting instance.
// Returned session is never nil: if err is not nil, the session is invalid
// and all its methods are no-ops.
func New(c compiler.Compiler, name, source string, shape Shape, options ...Option) (*Session, error) {
	s := &Session{
		id:         xid.New().String(),
		name:       name,
		shape:      shape,
		sampleRate: DefaultSampleRate,
		optLevel:   compiler.DefaultOptLevel,
		params:     param.NewRegistry(),
	}
	for _, option := range options {
		option(s)
	}
	if s.logger == nil {
		s.logger = log.GetLogger()
	}
	s.logger = s.logger.WithFields(logrus.Fields{
		"session": s.id,
		"name":    s.name,
	})

	factory, diagnostic := c.Compile(name, source, s.optLevel)
	if factory == nil {
		if diagnostic == "" {
			diagnostic = "source rejected without diagnostic"
		}
		s.diagnostic = diagnostic
		s.logger.WithField("diagnostic", diagnostic).Error("cannot create factory")
		return s, &Error{Op: OpCompile, Name: name, Diagnostic: diagnostic, Err: ErrCompile}
	}

	instance := factory.Instantiate()
	if instance == nil {
		factory.Release()
		s.diagnostic = "cannot create instance"
		s.logger.Error(s.diagnostic)
		return s, &Error{Op: OpInstantiate, Name: name, Err: ErrInstantiate}
	}
	s.factory = factory
	s.instance = instance

	if !shape.Matches(instance.NumInputs(), instance.NumOutputs()) {
		s.logger.WithFields(logrus.Fields{
			"inputs":          instance.NumInputs(),
			"outputs":         instance.NumOutputs(),
			"expectedInputs":  shape.Inputs,
			"expectedOutputs": shape.Outputs,
		}).Warn("channel count mismatch")
	}

	instance.Init(s.sampleRate)
	instance.BuildUserInterface(s.params.UI())
	s.logger.WithFields(logrus.Fields{
		"sampleRate": s.sampleRate,
		"params":     s.params.Len(),
	}).Debug("session ready")
	return s, nil
}

// ID returns unique session id.
func (s *Session) ID() string {
	return s.id
}

// Name returns the name the source was compiled with.
func (s *Session) Name() string {
	return s.name
}

// IsValid returns true if session has a runnable instance.
func (s *Session) IsValid() bool {
	return s.instance != nil
}

// Diagnostic returns the reason the session is invalid.
func (s *Session) Diagnostic() string {
	return s.diagnostic
}

// Shape returns the expected channel shape.
func (s *Session) Shape() Shape {
	return s.shape
}

// NumInputs returns the number of inputs declared by the instance.
func (s *Session) NumInputs() int {
	if s.instance == nil {
		return 0
	}
	return s.instance.NumInputs()
}

// NumOutputs returns the number of outputs declared by the instance.
func (s *Session) NumOutputs() int {
	if s.instance == nil {
		return 0
	}
	return s.instance.NumOutputs()
}

// SampleRate returns the sample rate instance was initialized with.
func (s *Session) SampleRate() int {
	if s.instance == nil {
		return 0
	}
	return s.sampleRate
}

// SetParam writes the value of parameter at path. It returns false if
// there is no such parameter.
func (s *Session) SetParam(path string, value float64) bool {
	return s.params.Set(path, value)
}

// GetParam returns the value of parameter at path, 0 if there is no such
// parameter.
func (s *Session) GetParam(path string) float64 {
	return s.params.Get(path)
}

// LookupParam returns the parameter at path.
func (s *Session) LookupParam(path string) (param.Param, bool) {
	return s.params.Lookup(path)
}

// ListParams returns parameters in declaration order.
func (s *Session) ListParams() []param.Param {
	return s.params.List()
}

// Process computes frames samples. Buffers are channels of the instance
// and each of them must hold at least frames samples. Output is written
// in place.
func (s *Session) Process(in, out [][]float64, frames int) {
	if s.instance == nil || frames <= 0 {
		return
	}
	mustFit("input", in, frames)
	mustFit("output", out, frames)
	s.instance.Compute(frames, in, out)
}

// Close releases the instance and then the factory. Parameters are dropped
// with the instance. Close can be called multiple times.
func (s *Session) Close() {
	if s.instance != nil {
		s.instance.Release()
		s.instance = nil
		s.params = param.NewRegistry()
	}
	if s.factory != nil {
		s.factory.Release()
		s.factory = nil
	}
}

func mustFit(kind string, buffers [][]float64, frames int) {
	for i := range buffers {
		if len(buffers[i]) < frames {
			panic(fmt.Sprintf("%s channel %d has %d samples, %d frames requested", kind, i, len(buffers[i]), frames))
		}
	}
}

// Mono is a session over a graph with one input and one output.
type Mono struct {
	*Session
	in  [1][]float64
	out [1][]float64
}

// NewMono builds a mono session.
func NewMono(c compiler.Compiler, name, source string, options ...Option) (*Mono, error) {
	s, err := New(c, name, source, MonoShape, options...)
	return &Mono{Session: s}, err
}

// Process computes frames samples of in into out.
func (m *Mono) Process(in, out []float64, frames int) {
	m.in[0], m.out[0] = in, out
	m.Session.Process(m.in[:], m.out[:], frames)
	m.in[0], m.out[0] = nil, nil
}

// Stereo is a session over a graph with two inputs and two outputs.
type Stereo struct {
	*Session
	in  [2][]float64
	out [2][]float64
}

// NewStereo builds a stereo session.
func NewStereo(c compiler.Compiler, name, source string, options ...Option) (*Stereo, error) {
	s, err := New(c, name, source, StereoShape, options...)
	return &Stereo{Session: s}, err
}

// Process computes frames samples of left and right inputs into outputs.
func (s *Stereo) Process(inL, inR, outL, outR []float64, frames int) {
	s.in[0], s.in[1] = inL, inR
	s.out[0], s.out[1] = outL, outR
	s.Session.Process(s.in[:], s.out[:], frames)
	s.in[0], s.in[1] = nil, nil
	s.out[0], s.out[1] = nil, nil
}

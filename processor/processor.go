// Package processor runs a session as a stage of a channel pipeline.
package processor

import (
	"context"
	"errors"
	"fmt"

	"pipelined.dev/faust"
	"pipelined.dev/faust/metric"
	"pipelined.dev/faust/signal"
)

var (
	// ErrInvalidSession is returned when processor is started with an
	// invalid session.
	ErrInvalidSession = errors.New("session is not valid")
	// ErrUnknownParam is returned when message refers to a parameter
	// session doesn't have.
	ErrUnknownParam = errors.New("unknown param")
	// ErrChannelSize is returned when message channels differ in size.
	ErrChannelSize = errors.New("channels differ in size")
)

// Message is a DTO for pipe.
type Message struct {
	// Samples holds input channels. Processor replaces them with output
	// channels.
	Samples signal.Float64
	// Frames is used when there are no input channels.
	Frames int
	// Params are written before the block is processed.
	Params map[string]float64
}

// Size returns number of frames in the message.
func (m Message) Size() int {
	if m.Samples.NumChannels() == 0 || m.Samples[0] == nil {
		return m.Frames
	}
	return m.Samples.Size()
}

// Processor processes messages with a session. The session must not be
// used by anything else while processor is running.
type Processor struct {
	session *faust.Session
	meter   metric.ResetFunc
}

// New creates new processor. It is metered under the session name.
func New(s *faust.Session) *Processor {
	return &Processor{
		session: s,
		meter:   metric.Meter(s.Name(), s.SampleRate()),
	}
}

// Process starts processing of incoming messages. Output messages carry
// new buffers with one channel per session output. Processing stops when
// in is closed, ctx is done or a message is malformed.
func (p *Processor) Process(ctx context.Context, in <-chan Message) (<-chan Message, <-chan error, error) {
	if !p.session.IsValid() {
		return nil, nil, ErrInvalidSession
	}
	errc := make(chan error, 1)
	out := make(chan Message)
	go func() {
		defer close(out)
		defer close(errc)
		measure := p.meter()
		for in != nil {
			select {
			case message, ok := <-in:
				if !ok {
					in = nil
					continue
				}
				for path, value := range message.Params {
					if !p.session.SetParam(path, value) {
						errc <- fmt.Errorf("message param %q: %w", path, ErrUnknownParam)
						return
					}
				}
				frames := message.Size()
				for i := range message.Samples {
					if len(message.Samples[i]) != frames {
						errc <- fmt.Errorf("message channel %d: %w", i, ErrChannelSize)
						return
					}
				}
				samples := signal.EmptyFloat64(p.session.NumOutputs(), frames)
				p.session.Process(message.Samples, samples, frames)
				measure(int64(frames), len(message.Params))
				select {
				case out <- Message{Samples: samples, Frames: frames}:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, errc, nil
}

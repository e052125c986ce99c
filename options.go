package faust

import (
	"pipelined.dev/faust/log"
)

// Option of a session. It returns the option restoring the previous value.
type Option func(s *Session) Option

// SampleRate defines the sample rate the instance is initialized with.
func SampleRate(sampleRate int) Option {
	return func(s *Session) Option {
		previous := s.sampleRate
		s.sampleRate = sampleRate
		return SampleRate(previous)
	}
}

// OptLevel defines the optimization level passed to the compiler.
func OptLevel(level int) Option {
	return func(s *Session) Option {
		previous := s.optLevel
		s.optLevel = level
		return OptLevel(previous)
	}
}

// WithLogger defines the logger of a session.
func WithLogger(l log.Logger) Option {
	return func(s *Session) Option {
		previous := s.logger
		s.logger = l
		return WithLogger(previous)
	}
}

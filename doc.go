// Package faust runs compiled DSP graphs and exposes their controls as a flat
// table of parameters.
//
// # Concept
//
// A Session owns one DSP instance built by an injected compiler backend:
//
//	compiler - turns source text into a factory;
//	factory - produces runnable instances;
//	instance - processes blocks of samples and declares its controls.
//
// Building a session compiles the source, creates the instance, initializes
// it with a sample rate and walks its control declarations into a
// param.Registry:
//
//	s, err := faust.NewMono(interp.Compiler{}, "gain", source)
//	if err != nil {
//	    // s is not valid, err carries the compiler diagnostic.
//	}
//	defer s.Close()
//
// Parameters are addressed by path, "/" followed by the control label:
//
//	s.SetParam("/Gain", 0.8)
//	s.Process(in, out, len(in))
//
// A session that failed to build stays invalid. Every call on it is a no-op
// that returns zero values, so callers check IsValid before relying on any
// output.
//
// # Channels
//
// Mono and Stereo sessions expect graphs with 1/1 and 2/2 input/output
// channels. A graph declaring other counts only produces a warning; it is the
// caller's job to interpret the buffers.
//
// # Concurrency
//
// Sessions are not safe for concurrent use. Writing a parameter while a block
// is computed is a race on the zone the graph reads. The processor package
// runs a session on a single goroutine and applies parameter changes between
// blocks.
package faust

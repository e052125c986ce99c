package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"pipelined.dev/faust"
	"pipelined.dev/faust/log"
	"pipelined.dev/faust/processor"
	"pipelined.dev/faust/signal"
	"pipelined.dev/faust/wav"
)

type processCommand struct {
	dsp       string
	backend   string
	in        stringList
	out       string
	params    stringList
	blockSize int
	jobs      int
}

// Name implements command interface.
func (cmd *processCommand) Name() string {
	return "process"
}

func (cmd *processCommand) Help() string {
	return "Process wav files with a DSP program"
}

func (cmd *processCommand) Register(fs *flag.FlagSet) {
	fs.StringVar(&cmd.dsp, "dsp", "", "DSP program source file (required)")
	fs.StringVar(&cmd.backend, "backend", "interp", "compiler backend")
	fs.Var(&cmd.in, "in", "semicolon separated wav files to process (required)")
	fs.StringVar(&cmd.out, "out", "", "directory to save processed files (required)")
	fs.Var(&cmd.params, "set", "semicolon separated parameter values, e.g. /Gain=0.5")
	fs.IntVar(&cmd.blockSize, "block", 512, "frames per block")
	fs.IntVar(&cmd.jobs, "jobs", 4, "number of files processed at once")
}

func (cmd *processCommand) Validate() error {
	var message string
	if cmd.dsp == "" {
		message = message + "Missing -dsp required flag\n"
	}
	if len(cmd.in) == 0 {
		message = message + "Missing -in required flag\n"
	}
	if cmd.out == "" {
		message = message + "Missing -out required flag\n"
	}
	if cmd.blockSize <= 0 {
		message = message + "Block size must be positive\n"
	}
	if message != "" {
		return fmt.Errorf("%s", message)
	}
	return nil
}

func (cmd *processCommand) Run() error {
	err := cmd.Validate()
	if err != nil {
		return err
	}
	c, err := backend(cmd.backend)
	if err != nil {
		return err
	}
	source, err := os.ReadFile(cmd.dsp)
	if err != nil {
		return err
	}
	params, err := parseParams(cmd.params)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cmd.out, 0o755); err != nil {
		return err
	}

	logger := log.GetLogger()
	g, ctx := errgroup.WithContext(context.Background())
	if cmd.jobs > 0 {
		g.SetLimit(cmd.jobs)
	}
	for _, in := range cmd.in {
		in := in
		g.Go(func() error {
			a, err := wav.Read(in)
			if err != nil {
				return fmt.Errorf("%s: %w", in, err)
			}
			channels := a.Samples.NumChannels()
			s, err := faust.New(c, dspName(cmd.dsp), string(source),
				faust.Shape{Inputs: channels, Outputs: channels},
				faust.SampleRate(a.SampleRate),
				faust.WithLogger(logger.WithField("file", in)),
			)
			if err != nil {
				return fmt.Errorf("%s: %w", in, err)
			}
			defer s.Close()

			out, err := render(ctx, s, a, params, cmd.blockSize)
			if err != nil {
				return fmt.Errorf("%s: %w", in, err)
			}
			return wav.Write(filepath.Join(cmd.out, filepath.Base(in)), out)
		})
	}
	return g.Wait()
}

// render runs audio through session in blocks. Params are applied before
// the first block.
func render(ctx context.Context, s *faust.Session, a wav.Audio, params map[string]float64, blockSize int) (wav.Audio, error) {
	in := make(chan processor.Message)
	out, errc, err := processor.New(s).Process(ctx, in)
	if err != nil {
		return wav.Audio{}, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		defer close(in)
		size := a.Size()
		for pos := 0; pos < size; pos += blockSize {
			m := processor.Message{Samples: a.Samples.Slice(pos, blockSize)}
			if pos == 0 {
				m.Params = params
			}
			select {
			case in <- m:
			case <-ctx.Done():
				return
			}
		}
	}()

	result := wav.Audio{
		Samples:    signal.EmptyFloat64(s.NumOutputs(), 0),
		SampleRate: a.SampleRate,
		BitDepth:   a.BitDepth,
	}
	for m := range out {
		result.Samples = result.Samples.Append(m.Samples)
	}
	if err := <-errc; err != nil {
		return wav.Audio{}, err
	}
	if err := ctx.Err(); err != nil {
		return wav.Audio{}, err
	}
	return result, nil
}

// parseParams parses path=value pairs.
func parseParams(pairs []string) (map[string]float64, error) {
	params := make(map[string]float64, len(pairs))
	for _, pair := range pairs {
		path, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("parameter %q: expected path=value", pair)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", pair, err)
		}
		path = strings.TrimSpace(path)
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		params[path] = v
	}
	return params, nil
}

package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"pipelined.dev/faust"
)

type paramsCommand struct {
	dsp     string
	backend string
	out     io.Writer
}

// Name implements command interface.
func (cmd *paramsCommand) Name() string {
	return "params"
}

func (cmd *paramsCommand) Help() string {
	return "Show parameters declared by a DSP program"
}

func (cmd *paramsCommand) Register(fs *flag.FlagSet) {
	fs.StringVar(&cmd.dsp, "dsp", "", "DSP program source file (required)")
	fs.StringVar(&cmd.backend, "backend", "interp", "compiler backend")
}

func (cmd *paramsCommand) Run() error {
	if cmd.dsp == "" {
		return fmt.Errorf("missing -dsp required flag")
	}
	c, err := backend(cmd.backend)
	if err != nil {
		return err
	}
	source, err := os.ReadFile(cmd.dsp)
	if err != nil {
		return err
	}
	s, err := faust.New(c, dspName(cmd.dsp), string(source), faust.AnyShape)
	if err != nil {
		return err
	}
	defer s.Close()

	out := cmd.out
	if out == nil {
		out = os.Stdout
	}
	w := tabwriter.NewWriter(out, 0, 8, 2, ' ', 0)
	fmt.Fprintf(w, "inputs: %d\toutputs: %d\n", s.NumInputs(), s.NumOutputs())
	fmt.Fprintln(w, "PATH\tKIND\tINIT\tMIN\tMAX\tSTEP\tMETA")
	for _, p := range s.ListParams() {
		fmt.Fprintf(w, "%s\t%s\t%g\t%g\t%g\t%g\t%s\n", p.Path, p.Kind, p.Init, p.Min, p.Max, p.Step, formatMeta(p.Meta))
	}
	return w.Flush()
}

func formatMeta(meta map[string]string) string {
	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+meta[k])
	}
	return strings.Join(pairs, ",")
}

// dspName returns file name without extension.
func dspName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

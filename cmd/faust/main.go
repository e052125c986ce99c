package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"pipelined.dev/faust/compiler"
	"pipelined.dev/faust/compiler/interp"
)

type config struct {
	args []string
}

type command interface {
	Name() string
	Help() string
	Run() error
	Register(*flag.FlagSet)
}

func (config *config) run() int {
	cmdName, args := parseArgs(config.args)
	if cmdName == "" {
		printUsage()
		return errorExitCode
	}

	for _, cmd := range commands {
		if cmd.Name() == cmdName {
			flags := flag.NewFlagSet(cmdName, flag.ContinueOnError)
			cmd.Register(flags)
			if err := flags.Parse(args); err != nil {
				return errorExitCode
			}
			if err := cmd.Run(); err != nil {
				fmt.Fprintf(os.Stderr, "Command failed: %v\n", err)
				return errorExitCode
			}
			return successExitCode
		}
	}

	printUsage()
	return errorExitCode
}

var (
	successExitCode = 0
	errorExitCode   = 1
	commands        []command

	// backends available to commands, native ones are added by build tags.
	backends = map[string]compiler.Compiler{
		"interp": interp.Compiler{},
	}
)

func init() {
	commands = []command{&paramsCommand{}, &processCommand{}}
}

func main() {
	c := config{
		args: os.Args,
	}
	os.Exit(c.run())
}

func parseArgs(args []string) (string, []string) {
	if len(args) < 2 {
		return "", nil
	}
	return args[1], args[2:]
}

func printUsage() {
	fmt.Println("faust runs DSP programs over wav files")
	fmt.Println()
	fmt.Println("Usage: faust <command>")
	fmt.Println()
	fmt.Println("Commands:")
	for _, cmd := range commands {
		fmt.Printf("\t%s\t%s\n", cmd.Name(), cmd.Help())
	}
}

func backend(name string) (compiler.Compiler, error) {
	if c, ok := backends[name]; ok {
		return c, nil
	}
	names := make([]string, 0, len(backends))
	for n := range backends {
		names = append(names, n)
	}
	sort.Strings(names)
	return nil, fmt.Errorf("unknown backend %q, available: %s", name, strings.Join(names, ", "))
}

// stringList is a flag value of semicolon separated strings. It can be
// repeated.
type stringList []string

func (l *stringList) String() string {
	return strings.Join(*l, ";")
}

func (l *stringList) Set(value string) error {
	for _, v := range strings.Split(value, ";") {
		if v = strings.TrimSpace(v); v != "" {
			*l = append(*l, v)
		}
	}
	return nil
}

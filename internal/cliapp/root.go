// Package cliapp wires the CLI argument surface (SPEC_FULL.md §4.5)
// to the interpreter core: it owns no board semantics itself, only
// argument parsing, file loading, engine construction, and process
// exit-code mapping (spec.md §7).
package cliapp

import (
	"fmt"
	"os"
	"strconv"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/marbelous-lang/marbelous/internal/board"
	"github.com/marbelous-lang/marbelous/internal/interp"
	"github.com/marbelous-lang/marbelous/internal/runtime"
	"github.com/marbelous-lang/marbelous/internal/stdio"
	"github.com/marbelous-lang/marbelous/internal/trace"
	"github.com/marbelous-lang/marbelous/internal/traceserver"
)

// Options holds every flag the root command accepts.
type Options struct {
	UseReturnCode bool
	Verbosity     int
	ToStderr      bool
	ConfigPath    string
	Seed          uint64
	SeedSet       bool
	Watch         bool
	Serve         string
	MaxTicks      int
}

// NewRootCommand builds the "marbelous <board> [inputs...]" cobra
// command (spec.md §6, SPEC_FULL.md §4.5).
func NewRootCommand() *cobra.Command {
	opts := &Options{}

	cmd := &cobra.Command{
		Use:           "marbelous <board> [inputs...]",
		Short:         "Run a Marbelous board",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Watch {
				return RunWatch(args[0], args[1:], opts)
			}
			code, err := Run(args[0], args[1:], opts)
			if err != nil {
				return err
			}
			os.Exit(code)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.BoolVarP(&opts.UseReturnCode, "return", "r", false, "use main board's port-0 output as the process exit code")
	flags.CountVarP(&opts.Verbosity, "verbose", "v", "increase trace verbosity (repeatable, 0-4)")
	flags.BoolVar(&opts.ToStderr, "stderr", false, "route the verbose trace to stderr instead of stdout")
	flags.StringVar(&opts.ConfigPath, "config", "", "path to a YAML interpreter config")
	flags.StringVar(&opts.Serve, "serve", "", "address to serve a live trace websocket on (e.g. 127.0.0.1:9292)")
	flags.BoolVar(&opts.Watch, "watch", false, "re-run automatically whenever the source file changes")

	var seed int64
	flags.Int64Var(&seed, "seed", -1, "deterministic PRNG seed (overrides config)")
	cobra.OnInitialize(func() {
		if seed >= 0 {
			opts.Seed = uint64(seed)
			opts.SeedSet = true
		}
	})

	return cmd
}

// Run loads boardPath, feeds inputArgs into the main board's input
// ports, executes it to completion, and returns the process exit code.
func Run(boardPath string, inputArgs []string, opts *Options) (int, error) {
	inputs, err := parseInputs(inputArgs)
	if err != nil {
		return 1, err
	}

	var cfg *interp.Config
	if opts.ConfigPath != "" {
		cfg, err = interp.LoadConfig(opts.ConfigPath)
		if err != nil {
			return 1, fmt.Errorf("load config: %w", err)
		}
	}

	var seedPtr *uint64
	if opts.SeedSet {
		seedPtr = &opts.Seed
	}
	ip := interp.New(cfg, seedPtr)

	if err := ip.LoadFile(boardPath); err != nil {
		return 1, fmt.Errorf("load board: %w", err)
	}

	main := ip.Registry.Lookup(interp.MainBoardName)
	if main == nil {
		return 1, &board.ParseError{Board: interp.MainBoardName, Row: -1, Msg: "main board not found"}
	}
	if len(inputs) != main.InputPortCount() {
		return 1, fmt.Errorf("invocation error: got %d inputs, main board declares %d", len(inputs), main.InputPortCount())
	}

	var srv *traceserver.Server
	if opts.Serve != "" {
		srv = traceserver.New(opts.Serve)
		srv.Start()
		defer srv.Close()
	}

	outWriter := os.Stdout
	if opts.ToStderr || (cfg != nil && cfg.Trace.Stderr) {
		outWriter = os.Stderr
	}

	verbosity := opts.Verbosity
	if cfg != nil && cfg.Trace.Verbosity > verbosity {
		verbosity = cfg.Trace.Verbosity
	}

	maxTicks := opts.MaxTicks
	if cfg != nil && cfg.MaxTicks > 0 {
		maxTicks = cfg.MaxTicks
	}

	stdinSrc := stdio.NewSource(os.Stdin)
	defer stdinSrc.Close()

	engine := &runtime.Engine{
		Registry: ip.Registry,
		RNG:      ip.RNG,
		Stdin:    stdinSrc,
		Stdout:   stdio.NewSink(os.Stdout),
		Verbose:  verbosity,
	}

	if verbosity >= 3 {
		rec := &trace.Recorder{Sinks: []trace.Sink{trace.WriterSink{W: outWriter}}}
		if srv != nil {
			rec.Sinks = append(rec.Sinks, srv)
		}
		engine.OnTick = rec.OnTick
	}

	root := runtime.NewInstance(main, 0)
	for n, v := range inputs {
		root.PopulateInput(n, v)
	}

	if !engine.Run(root, maxTicks) {
		fmt.Fprintf(os.Stderr, "tick cap %d reached: board %s is still running\n", maxTicks, interp.MainBoardName)
	}

	os.Stdout.Write(root.BufferedStdout.Bytes())

	if opts.UseReturnCode {
		if v, ok := root.OutputByPort(0); ok {
			return int(v), nil
		}
	}
	return 0, nil
}

type collectorWriter struct {
	buf *[]byte
}

func (c collectorWriter) Write(p []byte) (int, error) {
	*c.buf = append(*c.buf, p...)
	return len(p), nil
}

func parseInputs(args []string) ([]uint8, error) {
	out := make([]uint8, 0, len(args))
	for _, a := range args {
		n, err := strconv.Atoi(a)
		if err != nil || n < 0 || n > 255 {
			return nil, fmt.Errorf("invocation error: invalid input %q (want 0-255)", a)
		}
		out = append(out, uint8(n))
	}
	return out, nil
}

// RunWatch re-invokes Run every time boardPath changes on disk, until
// interrupted (SPEC_FULL.md §4.5's --watch).
func RunWatch(boardPath string, inputArgs []string, opts *Options) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watcher.Add(boardPath); err != nil {
		return err
	}

	if _, err := Run(boardPath, inputArgs, opts); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}

	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				if _, err := Run(boardPath, inputArgs, opts); err != nil {
					fmt.Fprintln(os.Stderr, err)
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintln(os.Stderr, err)
		}
	}
}

// Package main runs the force-directed graph demo: a grid or tree laid out
// by the force simulator, shown in a window or rendered off screen.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/opd-ai/go-forceviz/internal/profiling"
	"github.com/opd-ai/go-forceviz/pkg/forceviz"
)

// Version is the current version of forceviz.
// This default value can be overridden at build time using:
//
//	go build -ldflags "-X main.Version=x.y.z"
var Version = "0.1.0-dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// cliOptions holds the parsed command line.
type cliOptions struct {
	configPath string
	version    bool
	headless   bool
	iterations int64
	graph      string
	output     string
	watch      bool
	debug      bool
	expvarAddr string
	cpuProfile string
	memProfile string
}

func parseFlags(args []string, stderr io.Writer) (cliOptions, error) {
	var o cliOptions
	fs := flag.NewFlagSet("forceviz", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.configPath, "c", "", "Path to a Lua or TOML configuration file (defaults apply when empty)")
	fs.BoolVar(&o.version, "v", false, "Print version and exit")
	fs.BoolVar(&o.headless, "headless", false, "Render off screen instead of opening a window")
	fs.Int64Var(&o.iterations, "iterations", 0, "Stop the layout after this many ticks (0 uses the configuration)")
	fs.StringVar(&o.graph, "graph", "", "Demo graph: grid, tree or none (empty uses the configuration)")
	fs.StringVar(&o.output, "o", "", "Write the final frame as PNG to this file")
	fs.BoolVar(&o.watch, "watch", false, "Reload the configuration file when it changes")
	fs.BoolVar(&o.debug, "debug", false, "Debug logging and memory growth checks")
	fs.StringVar(&o.expvarAddr, "expvar", "", "Serve metrics at http://ADDR/debug/vars (e.g. localhost:6060)")
	fs.StringVar(&o.cpuProfile, "cpuprofile", "", "Write CPU profile to file")
	fs.StringVar(&o.memProfile, "memprofile", "", "Write memory profile to file")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if fs.NArg() > 0 {
		return o, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	if o.headless && o.iterations == 0 && o.output != "" {
		// Without a bound the frame is written on interrupt.
		fmt.Fprintln(stderr, "note: headless run without -iterations; press Ctrl-C to write the frame")
	}
	return o, nil
}

func (o cliOptions) vizOptions(logger forceviz.Logger) *forceviz.Options {
	opts := forceviz.DefaultOptions()
	opts.Headless = o.headless
	opts.Iterations = o.iterations
	opts.Graph = o.graph
	opts.WatchConfig = o.watch
	opts.Logger = logger
	return &opts
}

// syncWriter serialises writes from handler goroutines. Writes after close
// are dropped so late events cannot touch the caller's writer.
type syncWriter struct {
	mu     sync.Mutex
	w      io.Writer
	closed bool
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return len(p), nil
	}
	return s.w.Write(p)
}

func (s *syncWriter) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

func run(args []string, rawStdout, rawStderr io.Writer) int {
	stdout, stderr := &syncWriter{w: rawStdout}, &syncWriter{w: rawStderr}
	defer stdout.close()
	defer stderr.close()

	o, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(stderr, err)
		return 2
	}

	if o.version {
		fmt.Fprintf(stdout, "forceviz version %s\n", Version)
		return 0
	}

	profConfig := profiling.Config{CPUProfilePath: o.cpuProfile, MemProfilePath: o.memProfile}
	if profConfig.Enabled() {
		profiler := profiling.New(profConfig)
		if err := profiler.Start(); err != nil {
			fmt.Fprintf(stderr, "Failed to start profiling: %v\n", err)
			return 1
		}
		defer func() {
			if err := profiler.Stop(); err != nil {
				fmt.Fprintf(stderr, "Warning: failed to stop profiling: %v\n", err)
			}
		}()
	}

	level := slog.LevelInfo
	if o.debug {
		level = slog.LevelDebug
	}
	slogger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	logger := forceviz.NewSlogAdapter(slogger)

	v, err := newViz(o, logger)
	if err != nil {
		fmt.Fprintf(stderr, "Error creating forceviz instance: %v\n", err)
		return 1
	}

	v.SetErrorHandler(func(err error) {
		fmt.Fprintf(stderr, "Warning: %v\n", err)
	})
	v.SetEventHandler(func(e forceviz.Event) {
		fmt.Fprintf(stdout, "[%s] %s: %s\n", e.Timestamp.Format("15:04:05"), e.Type, e.Message)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if o.debug {
		go profiling.NewMemoryWatch(profiling.WatchConfig{}, slogger, nil).Run(ctx)
	}
	if o.expvarAddr != "" {
		v.Metrics().RegisterExpvar()
		go func() {
			// expvar registers /debug/vars on the default mux.
			if err := http.ListenAndServe(o.expvarAddr, nil); err != nil {
				slogger.Warn("metrics endpoint stopped", "addr", o.expvarAddr, "error", err)
			}
		}()
	}

	if err := v.Start(); err != nil {
		fmt.Fprintf(stderr, "Failed to start: %v\n", err)
		return 1
	}

	code := supervise(v, stdout, stderr)

	if o.output != "" {
		if err := writeSnapshot(v, o.output); err != nil {
			fmt.Fprintf(stderr, "Snapshot failed: %v\n", err)
			return 1
		}
		fmt.Fprintf(stdout, "Wrote %s\n", o.output)
	}
	return code
}

func newViz(o cliOptions, logger forceviz.Logger) (forceviz.Viz, error) {
	opts := o.vizOptions(logger)
	if o.configPath == "" {
		return forceviz.NewFromReader(strings.NewReader(""), forceviz.FormatTOML, opts)
	}
	if _, err := os.Stat(o.configPath); err != nil {
		return nil, fmt.Errorf("configuration file %s: %w", o.configPath, err)
	}
	return forceviz.New(o.configPath, opts)
}

// supervise blocks until the run ends or a terminating signal arrives.
// SIGHUP restarts with a freshly loaded configuration.
func supervise(v forceviz.Viz, stdout, stderr io.Writer) int {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	for {
		ended := make(chan error, 1)
		go func() { ended <- v.Wait() }()

		select {
		case err := <-ended:
			if v.IsRunning() {
				// A restart replaced the run being waited on.
				continue
			}
			if err != nil {
				fmt.Fprintf(stderr, "Run failed: %v\n", err)
				return 1
			}
			return 0

		case sig := <-sigCh:
			if sig == syscall.SIGHUP {
				fmt.Fprintln(stdout, "Received SIGHUP, restarting...")
				if err := v.Restart(); err != nil {
					fmt.Fprintf(stderr, "Restart failed: %v\n", err)
				}
				continue
			}
			fmt.Fprintln(stdout, "Shutting down...")
			if err := v.Stop(); err != nil {
				fmt.Fprintf(stderr, "Stop error: %v\n", err)
				return 1
			}
			return 0
		}
	}
}

func writeSnapshot(v forceviz.Viz, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := v.Snapshot(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

package forceviz

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"

	"github.com/opd-ai/go-forceviz/internal/config"
	"github.com/opd-ai/go-forceviz/internal/registry"
)

// Configuration format constants for use with NewFromReader.
const (
	// FormatLua indicates a Lua configuration assigning viz.config.
	FormatLua = config.FormatLua
	// FormatTOML indicates a TOML configuration.
	FormatTOML = config.FormatTOML
)

// Viz represents an embedded go-forceviz instance with full lifecycle
// control. It is safe for concurrent use from multiple goroutines.
type Viz interface {
	// Start builds the demo graph and starts the layout pipeline. It returns
	// immediately; the pipeline and the window run in background goroutines.
	// Returns an error if already running or if initialization fails.
	Start() error

	// Stop cancels the pipeline, closes the window and waits for the
	// background goroutines. Safe to call multiple times.
	Stop() error

	// Restart performs a stop followed by a start. The configuration is
	// reloaded from its source and the graph is rebuilt.
	Restart() error

	// ReloadConfig reloads the configuration without stopping. Renderer,
	// force, palette and window settings take effect at the next tick; the
	// graph and the pipeline cadence keep their values until Restart.
	// On error the previous configuration stays active.
	ReloadConfig() error

	// IsRunning returns true while the instance is running.
	IsRunning() bool

	// Wait blocks until the current run ends and returns its error. A run
	// that completed its iterations or was stopped returns nil.
	Wait() error

	// Status returns detailed status information about the instance.
	Status() Status

	// SetErrorHandler registers a callback for runtime errors.
	// The handler is invoked asynchronously; panics in it are recovered.
	SetErrorHandler(handler ErrorHandler)

	// SetEventHandler registers a callback for lifecycle events.
	SetEventHandler(handler EventHandler)

	// Health returns a health check result for the instance.
	Health() HealthCheck

	// Metrics returns the metrics collector for this instance.
	Metrics() *Metrics

	// Registry returns the item registry of the current run, or nil before
	// the first Start. Writes must go through Registry.Enqueue while the
	// pipeline runs.
	Registry() *registry.Registry

	// Snapshot writes the latest frame as PNG. Headless instances write the
	// frame drawn by the last tick; windowed instances render the current
	// registry state on demand.
	Snapshot(w io.Writer) error
}

// New creates a new Viz instance from a configuration file on disk.
// The file can be Lua or TOML; the format is detected from its content.
// The instance is created but not started; call Start to begin.
//
// Example:
//
//	v, err := forceviz.New("viz.toml", nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer v.Stop()
//	if err := v.Start(); err != nil {
//		log.Fatal(err)
//	}
func New(configPath string, opts *Options) (Viz, error) {
	loader := func() (*config.Config, error) {
		return withParser(func(p *config.Parser) (*config.Config, error) {
			return p.ParseFile(configPath)
		})
	}
	return newViz(configPath, configPath, loader, opts)
}

// NewFromFS creates a new Viz instance using configuration from a
// filesystem such as an embed.FS. Relative image locations also resolve
// against fsys unless Options.ImageFS says otherwise.
//
// Example:
//
//	//go:embed configs/*
//	var configFS embed.FS
//
//	v, err := forceviz.NewFromFS(configFS, "configs/tree.lua", nil)
func NewFromFS(fsys fs.FS, configPath string, opts *Options) (Viz, error) {
	loader := func() (*config.Config, error) {
		return withParser(func(p *config.Parser) (*config.Config, error) {
			return p.ParseFromFS(fsys, configPath)
		})
	}
	if opts == nil {
		o := DefaultOptions()
		opts = &o
	}
	if opts.ImageFS == nil {
		o := *opts
		o.ImageFS = fsys
		opts = &o
	}
	return newViz("embedded:"+configPath, "", loader, opts)
}

// NewFromReader creates a new Viz instance from configuration content.
// The format parameter is FormatLua or FormatTOML. The content is read
// once and kept for Restart and ReloadConfig.
//
// Example:
//
//	cfg := strings.NewReader(`
//		[graph]
//		kind = "tree"
//		depth = 4
//	`)
//	v, err := forceviz.NewFromReader(cfg, forceviz.FormatTOML, nil)
func NewFromReader(r io.Reader, format string, opts *Options) (Viz, error) {
	if format != FormatLua && format != FormatTOML {
		return nil, fmt.Errorf("invalid format: %s (expected '%s' or '%s')", format, FormatLua, FormatTOML)
	}

	// A reader can only be consumed once.
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	loader := func() (*config.Config, error) {
		return withParser(func(p *config.Parser) (*config.Config, error) {
			return p.ParseReader(bytes.NewReader(content), format)
		})
	}
	return newViz("reader", "", loader, opts)
}

// withParser runs fn with a fresh parser and validates the result.
func withParser(fn func(p *config.Parser) (*config.Config, error)) (*config.Config, error) {
	p, err := config.NewParser()
	if err != nil {
		return nil, fmt.Errorf("parser init: %w", err)
	}
	defer p.Close()

	cfg, err := fn(p)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newViz(source, watchPath string, loader func() (*config.Config, error), opts *Options) (Viz, error) {
	if opts == nil {
		o := DefaultOptions()
		opts = &o
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}

	cfg, err := loader()
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &vizImpl{
		cfg:          cfg,
		opts:         *opts,
		configSource: source,
		watchPath:    watchPath,
		configLoader: loader,
		metrics:      opts.metrics(),
		errorTracker: opts.errorTracker(),
		log:          opts.logger(),
		reloads:      newReloadGuard(defaultReloadFailures, defaultReloadCooldown),
	}, nil
}

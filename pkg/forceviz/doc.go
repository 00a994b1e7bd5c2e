// Package forceviz provides the public API for embedding the go-forceviz
// force-directed graph viewer. It builds a demo graph from a configuration,
// runs the layout pipeline and shows the result in a window, or renders it
// off screen in headless mode.
//
// # Basic Usage
//
//	v, err := forceviz.New("/path/to/viz.toml", nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer v.Stop()
//
//	if err := v.Start(); err != nil {
//		log.Fatal(err)
//	}
//
// # Configuration Sources
//
// Configurations are Lua (a viz.config table) or TOML documents with the
// same sections and keys:
//
//   - Disk file: Use [New] to load from a filesystem path
//   - Embedded FS: Use [NewFromFS] to load from an [io/fs.FS]
//   - io.Reader: Use [NewFromReader] for generated configurations
//
// # Lifecycle Management
//
// The [Viz] interface provides full lifecycle control:
//
//   - [Viz.Start] builds the graph and starts the pipeline
//   - [Viz.Stop] cancels the pipeline and closes the window
//   - [Viz.Restart] reloads the configuration and rebuilds everything
//   - [Viz.ReloadConfig] applies renderer, force and palette settings in place
//
// All methods are safe to call from any goroutine.
//
// # Headless Mode
//
// Headless instances draw every tick into an off-screen image that
// [Viz.Snapshot] writes as PNG:
//
//	v, _ := forceviz.New("viz.lua", &forceviz.Options{Headless: true, Iterations: 200})
//	v.Start()
//	v.Wait()
//	v.Snapshot(f)
package forceviz

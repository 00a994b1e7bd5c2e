package render

import (
	"fmt"
	"image"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	// Register image decoders for common formats
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/anthonynsimon/bild/transform"
	"golang.org/x/sync/singleflight"
)

// ImageResource is a decoded raster shared by every item that references
// the same location. It is never modified after loading.
type ImageResource struct {
	Location string
	Image    image.Image
	Width    int
	Height   int
}

// Opener opens the raw bytes behind an image location.
type Opener func(location string) (io.ReadCloser, error)

// FileOpener opens locations as file paths. Relative paths are resolved
// against dir when dir is not empty.
func FileOpener(dir string) Opener {
	return func(location string) (io.ReadCloser, error) {
		path := location
		if dir != "" && !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		return os.Open(path)
	}
}

// FSOpener opens locations inside fsys.
func FSOpener(fsys fs.FS) Opener {
	return func(location string) (io.ReadCloser, error) {
		return fsys.Open(strings.TrimPrefix(location, "/"))
	}
}

// ImageCache loads images lazily by location and keeps them for the life of
// the cache. Concurrent requests for a location that is still loading join
// the in-flight load. Locations that fail to load are remembered as missing
// and are not retried until the cache is cleared.
type ImageCache struct {
	open   Opener
	logger *slog.Logger

	mu    sync.RWMutex
	cache map[string]*ImageResource
	maxW  int
	maxH  int
	// gen counts cache resets. Loads started under an older generation
	// are not stored.
	gen uint64

	group singleflight.Group

	loads    atomic.Int64
	failures atomic.Int64
}

// NewImageCache creates a cache that reads through open. A nil open reads
// files relative to the working directory.
func NewImageCache(open Opener, logger *slog.Logger) *ImageCache {
	if open == nil {
		open = FileOpener("")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ImageCache{
		open:   open,
		logger: logger,
		cache:  make(map[string]*ImageResource),
	}
}

// SetMaxDimensions bounds the size of images loaded from now on. Larger
// images are scaled down preserving their aspect ratio. Non-positive values
// disable the bound. Already loaded images are dropped.
func (ic *ImageCache) SetMaxDimensions(w, h int) {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	if ic.maxW == w && ic.maxH == h {
		return
	}
	ic.maxW, ic.maxH = w, h
	ic.reset()
}

// reset drops every entry. Called with mu held.
func (ic *ImageCache) reset() {
	ic.cache = make(map[string]*ImageResource)
	ic.gen++
}

// Get returns the image at location, loading it on first use. It returns
// nil when the location cannot be read or decoded.
func (ic *ImageCache) Get(location string) *ImageResource {
	ic.mu.RLock()
	res, ok := ic.cache[location]
	gen := ic.gen
	ic.mu.RUnlock()
	if ok {
		return res
	}

	// Keying by generation keeps callers after a reset from joining a load
	// that uses the old bounds.
	key := strconv.FormatUint(gen, 10) + ":" + location
	v, _, _ := ic.group.Do(key, func() (any, error) {
		// A load that finished between the lookup and Do is reused.
		ic.mu.RLock()
		res, ok := ic.cache[location]
		maxW, maxH, loadGen := ic.maxW, ic.maxH, ic.gen
		ic.mu.RUnlock()
		if ok {
			return res, nil
		}

		res, err := ic.load(location, maxW, maxH)
		if err != nil {
			ic.failures.Add(1)
			ic.logger.Warn("image unavailable", "location", location, "error", err)
			res = nil
		}

		ic.mu.Lock()
		if ic.gen == loadGen {
			ic.cache[location] = res
		}
		ic.mu.Unlock()
		return res, nil
	})
	return v.(*ImageResource)
}

// Peek returns a cached image without loading it.
func (ic *ImageCache) Peek(location string) (*ImageResource, bool) {
	ic.mu.RLock()
	defer ic.mu.RUnlock()
	res, ok := ic.cache[location]
	return res, ok
}

func (ic *ImageCache) load(location string, maxW, maxH int) (*ImageResource, error) {
	ic.loads.Add(1)

	rc, err := ic.open(location)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer rc.Close()

	img, _, err := image.Decode(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	img = fitWithin(img, maxW, maxH)

	b := img.Bounds()
	return &ImageResource{
		Location: location,
		Image:    img,
		Width:    b.Dx(),
		Height:   b.Dy(),
	}, nil
}

// fitWithin scales img down to fit maxW x maxH, keeping its aspect ratio.
func fitWithin(img image.Image, maxW, maxH int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	scale := 1.0
	if maxW > 0 && w > maxW {
		scale = float64(maxW) / float64(w)
	}
	if maxH > 0 && h > maxH {
		scale = min(scale, float64(maxH)/float64(h))
	}
	if scale >= 1 {
		return img
	}
	nw := max(1, int(float64(w)*scale+0.5))
	nh := max(1, int(float64(h)*scale+0.5))
	return transform.Resize(img, nw, nh, transform.Linear)
}

// Loads returns the number of decode attempts.
func (ic *ImageCache) Loads() int64 {
	return ic.loads.Load()
}

// Failures returns the number of locations that failed to load.
func (ic *ImageCache) Failures() int64 {
	return ic.failures.Load()
}

// Len returns the number of cached locations, including failed ones.
func (ic *ImageCache) Len() int {
	ic.mu.RLock()
	defer ic.mu.RUnlock()
	return len(ic.cache)
}

// Clear forgets every cached location.
func (ic *ImageCache) Clear() {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	ic.reset()
}

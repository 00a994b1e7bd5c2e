package render

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/opd-ai/go-forceviz/internal/registry"
)

// TextMetrics are the measurements of a string in a given font, in pixels.
type TextMetrics struct {
	Width  float64
	Height float64
	Ascent float64
}

// MetricsProvider measures text. MeasureText with an empty string reports
// zero width and the line height of the font.
type MetricsProvider interface {
	MeasureText(f registry.Font, s string) TextMetrics
}

// ParseFontStyle parses a string into a registry.FontStyle.
func ParseFontStyle(s string) (registry.FontStyle, error) {
	switch strings.ToLower(s) {
	case "regular", "normal", "plain", "":
		return registry.FontStyleRegular, nil
	case "bold":
		return registry.FontStyleBold, nil
	case "italic":
		return registry.FontStyleItalic, nil
	case "bold-italic", "bolditalic", "bold_italic":
		return registry.FontStyleBoldItalic, nil
	default:
		return registry.FontStyleRegular, fmt.Errorf("unknown font style: %s", s)
	}
}

// FontFamily is a set of parsed fonts, one per style.
type FontFamily struct {
	name  string
	fonts map[registry.FontStyle]*opentype.Font
	mu    sync.RWMutex
}

// NewFontFamily creates an empty family.
func NewFontFamily(name string) *FontFamily {
	return &FontFamily{
		name:  name,
		fonts: make(map[registry.FontStyle]*opentype.Font),
	}
}

// Name returns the family name.
func (ff *FontFamily) Name() string {
	return ff.name
}

// AddFont registers a font for style.
func (ff *FontFamily) AddFont(style registry.FontStyle, f *opentype.Font) {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	ff.fonts[style] = f
}

// GetFontWithFallback returns the font for style, or the closest style the
// family has: bold-italic tries bold then italic, everything tries regular.
func (ff *FontFamily) GetFontWithFallback(style registry.FontStyle) *opentype.Font {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	if f, ok := ff.fonts[style]; ok {
		return f
	}
	if style == registry.FontStyleBoldItalic {
		if f, ok := ff.fonts[registry.FontStyleBold]; ok {
			return f
		}
		if f, ok := ff.fonts[registry.FontStyleItalic]; ok {
			return f
		}
	}
	for _, s := range []registry.FontStyle{
		registry.FontStyleRegular, registry.FontStyleBold,
		registry.FontStyleItalic, registry.FontStyleBoldItalic,
	} {
		if f, ok := ff.fonts[s]; ok {
			return f
		}
	}
	return nil
}

// FontManager resolves font descriptors to faces. It ships the embedded Go
// fonts and maps the logical AWT-style families onto them.
//
// MeasureText is safe for concurrent use. Faces handed out through a
// FaceCache are not, so every drawing surface keeps its own FaceCache.
type FontManager struct {
	families      map[string]*FontFamily
	fallbackChain []string
	mu            sync.RWMutex

	measureMu sync.Mutex
	measure   *FaceCache

	logger *slog.Logger
	warned sync.Map
}

// NewFontManager creates a FontManager with the embedded Go fonts.
func NewFontManager() *FontManager {
	fm := &FontManager{
		families: make(map[string]*FontFamily),
		logger:   slog.New(slog.DiscardHandler),
	}
	fm.loadEmbeddedFonts()
	fm.measure = fm.NewFaceCache()
	return fm
}

func (fm *FontManager) loadEmbeddedFonts() {
	mono := NewFontFamily("GoMono")
	fm.loadEmbeddedFont(mono, registry.FontStyleRegular, gomono.TTF)
	fm.loadEmbeddedFont(mono, registry.FontStyleBold, gomonobold.TTF)
	fm.loadEmbeddedFont(mono, registry.FontStyleItalic, gomonoitalic.TTF)
	fm.loadEmbeddedFont(mono, registry.FontStyleBoldItalic, gomonobolditalic.TTF)

	sans := NewFontFamily("GoSans")
	fm.loadEmbeddedFont(sans, registry.FontStyleRegular, goregular.TTF)
	fm.loadEmbeddedFont(sans, registry.FontStyleBold, gobold.TTF)
	fm.loadEmbeddedFont(sans, registry.FontStyleItalic, goitalic.TTF)
	fm.loadEmbeddedFont(sans, registry.FontStyleBoldItalic, gobolditalic.TTF)

	for _, name := range []string{"GoMono", "Monospaced", "Monospace"} {
		fm.families[strings.ToLower(name)] = mono
	}
	for _, name := range []string{"GoSans", "Go", "SansSerif", "Sans", "Serif", "Dialog"} {
		fm.families[strings.ToLower(name)] = sans
	}
	fm.fallbackChain = []string{"gosans", "gomono"}
}

// Embedded fonts always parse; a failure leaves the style empty and the
// family falls back to another style.
func (fm *FontManager) loadEmbeddedFont(family *FontFamily, style registry.FontStyle, data []byte) {
	f, err := opentype.Parse(data)
	if err != nil {
		return
	}
	family.AddFont(style, f)
}

// SetLogger sets the logger used to report missing families.
func (fm *FontManager) SetLogger(l *slog.Logger) {
	if l == nil {
		return
	}
	fm.mu.Lock()
	defer fm.mu.Unlock()
	fm.logger = l
}

// LoadFontFromFile loads a TrueType or OpenType file into familyName.
func (fm *FontManager) LoadFontFromFile(familyName string, style registry.FontStyle, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read font file %s: %w", path, err)
	}
	return fm.LoadFontFromData(familyName, style, data)
}

// LoadFontFromData parses font data into familyName.
func (fm *FontManager) LoadFontFromData(familyName string, style registry.FontStyle, data []byte) error {
	f, err := opentype.Parse(data)
	if err != nil {
		return fmt.Errorf("failed to parse font data: %w", err)
	}

	fm.mu.Lock()
	defer fm.mu.Unlock()
	key := strings.ToLower(familyName)
	family, ok := fm.families[key]
	if !ok {
		family = NewFontFamily(familyName)
		fm.families[key] = family
	}
	family.AddFont(style, f)
	return nil
}

// RegisterAlias makes alias resolve to an existing family.
func (fm *FontManager) RegisterAlias(alias, familyName string) error {
	fm.mu.Lock()
	defer fm.mu.Unlock()
	family, ok := fm.families[strings.ToLower(familyName)]
	if !ok {
		return fmt.Errorf("font family %s not found", familyName)
	}
	fm.families[strings.ToLower(alias)] = family
	return nil
}

// SetFallbackChain sets the families tried when a requested family is
// unknown.
func (fm *FontManager) SetFallbackChain(families []string) {
	chain := make([]string, len(families))
	for i, f := range families {
		chain[i] = strings.ToLower(f)
	}
	fm.mu.Lock()
	defer fm.mu.Unlock()
	fm.fallbackChain = chain
}

// HasFamily reports whether name resolves without falling back.
func (fm *FontManager) HasFamily(name string) bool {
	fm.mu.RLock()
	defer fm.mu.RUnlock()
	_, ok := fm.families[strings.ToLower(name)]
	return ok
}

// ListFamilies returns the sorted canonical family names.
func (fm *FontManager) ListFamilies() []string {
	fm.mu.RLock()
	defer fm.mu.RUnlock()
	seen := make(map[string]bool)
	var names []string
	for _, family := range fm.families {
		if !seen[family.Name()] {
			seen[family.Name()] = true
			names = append(names, family.Name())
		}
	}
	sort.Strings(names)
	return names
}

// resolve returns the parsed font for a descriptor, following the style
// and family fallback chains.
func (fm *FontManager) resolve(name string, style registry.FontStyle) *opentype.Font {
	fm.mu.RLock()
	family, ok := fm.families[strings.ToLower(name)]
	chain := fm.fallbackChain
	logger := fm.logger
	fm.mu.RUnlock()

	if ok {
		if f := family.GetFontWithFallback(style); f != nil {
			return f
		}
	}
	if _, loaded := fm.warned.LoadOrStore(name, true); !loaded {
		logger.Warn("font family unavailable, using fallback", "family", name)
	}

	fm.mu.RLock()
	defer fm.mu.RUnlock()
	for _, fallback := range chain {
		if family, ok := fm.families[fallback]; ok {
			if f := family.GetFontWithFallback(style); f != nil {
				return f
			}
		}
	}
	return nil
}

// MeasureText implements MetricsProvider.
func (fm *FontManager) MeasureText(f registry.Font, s string) TextMetrics {
	fm.measureMu.Lock()
	defer fm.measureMu.Unlock()

	face := fm.measure.Face(f)
	if face == nil {
		return TextMetrics{}
	}
	m := face.Metrics()
	return TextMetrics{
		Width:  fixedToFloat(font.MeasureString(face, s)),
		Height: fixedToFloat(m.Height),
		Ascent: fixedToFloat(m.Ascent),
	}
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}

type faceKey struct {
	family string
	style  registry.FontStyle
	size   float64
}

// FaceCache caches font faces by descriptor. It is not safe for concurrent
// use; each drawing goroutine owns one.
type FaceCache struct {
	fm    *FontManager
	faces map[faceKey]font.Face
}

// NewFaceCache returns an empty face cache backed by fm.
func (fm *FontManager) NewFaceCache() *FaceCache {
	return &FaceCache{fm: fm, faces: make(map[faceKey]font.Face)}
}

// Face returns a face for f, or nil if no font at all is available.
// Point sizes map one to one onto pixels.
func (fc *FaceCache) Face(f registry.Font) font.Face {
	key := faceKey{family: strings.ToLower(f.Family), style: f.Style, size: f.Size}
	if face, ok := fc.faces[key]; ok {
		return face
	}
	otf := fc.fm.resolve(f.Family, f.Style)
	if otf == nil {
		return nil
	}
	size := f.Size
	if size <= 0 {
		size = registry.DefaultFont.Size
	}
	face, err := opentype.NewFace(otf, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil
	}
	fc.faces[key] = face
	return face
}

// Len returns the number of cached faces.
func (fc *FaceCache) Len() int {
	return len(fc.faces)
}

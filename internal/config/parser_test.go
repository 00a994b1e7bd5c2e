package config

import (
	"image/color"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/opd-ai/go-forceviz/internal/registry"
	"github.com/opd-ai/go-forceviz/internal/render"
)

const sampleLua = `-- demo configuration
local spacing = 25

viz.config = {
    window = {
        width = 800,
        height = 600,
        title = "Tree",
        background = "#101010",
        show_fps = false,
    },
    pipeline = { period_ms = 40, iterations = 500 },
    renderer = {
        font_family = "GoMono",
        font_style = "bold",
        font_size = 12,
        horizontal_align = "left",
        vertical_align = "bottom",
        horizontal_padding = 5,
        rounded_corner = 6,
        render_type = "draw-and-fill",
        max_image_width = 64,
    },
    force = {
        grav_const = -1,
        spring_length = spacing * 3,
        drag_coeff = -0.01,
        timestep_ms = 10,
        steps = 2,
    },
    colors = { node = "lavender", edge_stroke = "light_gray" },
    graph = { kind = "tree", depth = 2, branching = 4 },
}
`

const sampleTOML = `# demo configuration
[window]
width = 800
height = 600
title = "Tree"
background = "#101010"
show_fps = false

[pipeline]
period_ms = 40
iterations = 500

[renderer]
font_family = "GoMono"
font_style = "bold"
font_size = 12
horizontal_align = "left"
vertical_align = "bottom"
horizontal_padding = 5
rounded_corner = 6
render_type = "draw-and-fill"
max_image_width = 64

[force]
grav_const = -1
spring_length = 75
drag_coeff = -0.01
timestep_ms = 10
steps = 2

[colors]
node = "lavender"
edge_stroke = "light_gray"

[graph]
kind = "tree"
depth = 2
branching = 4
`

func newTestParser(t *testing.T) *Parser {
	t.Helper()
	p, err := NewParser()
	if err != nil {
		t.Fatalf("NewParser() error = %v", err)
	}
	t.Cleanup(func() { p.Close() })
	return p
}

func TestParseLuaAndTOMLAreEquivalent(t *testing.T) {
	p := newTestParser(t)

	fromLua, err := p.Parse([]byte(sampleLua))
	if err != nil {
		t.Fatalf("Parse(lua) error = %v", err)
	}
	fromTOML, err := p.Parse([]byte(sampleTOML))
	if err != nil {
		t.Fatalf("Parse(toml) error = %v", err)
	}
	if !reflect.DeepEqual(fromLua, fromTOML) {
		t.Errorf("configs differ:\nlua:  %+v\ntoml: %+v", fromLua, fromTOML)
	}

	cfg := fromLua
	if cfg.Window.Width != 800 || cfg.Window.Height != 600 || cfg.Window.ShowFPS {
		t.Errorf("window = %+v", cfg.Window)
	}
	if cfg.Window.Background != (color.RGBA{R: 0x10, G: 0x10, B: 0x10, A: 255}) {
		t.Errorf("background = %v", cfg.Window.Background)
	}
	if cfg.Pipeline.Period != 40*time.Millisecond || cfg.Pipeline.Iterations != 500 {
		t.Errorf("pipeline = %+v", cfg.Pipeline)
	}
	r := cfg.Renderer
	if r.FontStyle != registry.FontStyleBold || r.HorizontalAlign != render.AlignLeft || r.VerticalAlign != render.AlignBottom {
		t.Errorf("renderer enums = %v %v %v", r.FontStyle, r.HorizontalAlign, r.VerticalAlign)
	}
	if r.ArcWidth != 6 || r.ArcHeight != 6 || r.RenderType != render.RenderDrawAndFill {
		t.Errorf("renderer shape = %+v", r)
	}
	if cfg.Force.SpringLength != 75 || cfg.Force.Steps != 2 {
		t.Errorf("force = %+v", cfg.Force)
	}
	if cfg.Colors.EdgeStroke != (color.RGBA{R: 192, G: 192, B: 192, A: 255}) {
		t.Errorf("edge stroke = %v", cfg.Colors.EdgeStroke)
	}
	if cfg.Graph.Kind != GraphTree || cfg.Graph.Branching != 4 {
		t.Errorf("graph = %+v", cfg.Graph)
	}

	// Untouched keys keep their defaults.
	def := DefaultConfig()
	if r.VerticalPadding != def.Renderer.VerticalPadding || r.TextAttr != def.Renderer.TextAttr {
		t.Errorf("defaults lost: %+v", r)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestParseEmptyGivesDefaults(t *testing.T) {
	p := newTestParser(t)
	def := DefaultConfig()
	for name, content := range map[string]string{
		"empty toml": "",
		"empty lua":  "viz.config = {}",
	} {
		t.Run(name, func(t *testing.T) {
			cfg, err := p.Parse([]byte(content))
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if !reflect.DeepEqual(*cfg, def) {
				t.Errorf("Parse(%q) = %+v, want defaults", content, *cfg)
			}
		})
	}
}

func TestParseRejects(t *testing.T) {
	p := newTestParser(t)
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"unknown section", "[layout]\nx = 1\n", "unknown section"},
		{"unknown key", "[window]\ndepth = 3\n", "unknown key window.depth"},
		{"bad alignment toml", "[renderer]\nhorizontal_align = \"middle\"\n", "renderer.horizontal_align"},
		{"bad alignment lua", "viz.config = { renderer = { vertical_align = 'middle' } }", "renderer.vertical_align"},
		{"bad render type", "[renderer]\nrender_type = \"outline\"\n", "render_type"},
		{"wrong type", "[window]\nwidth = \"wide\"\n", "window.width"},
		{"fractional int", "viz.config = { window = { width = 10.5 } }", "window.width"},
		{"bad color", "[colors]\nnode = \"nope\"\n", "colors.node"},
		{"section not a table", "viz.config = { window = 3 }", "must be a table"},
		{"toml syntax", "[window\nwidth = 1\n", "TOML"},
		{"lua syntax", "viz.config = {", "compile"},
		{"lua runtime error", "viz.config = {}\nerror('boom')", "execute"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Parse([]byte(tt.content))
			if err == nil {
				t.Fatalf("Parse() expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestParseExpandsEnv(t *testing.T) {
	t.Setenv("VIZ_TEST_ICONS", "/srv/icons")
	p := newTestParser(t)
	cfg, err := p.Parse([]byte("[renderer]\nimage_dir = \"${VIZ_TEST_ICONS}/png\"\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Renderer.ImageDir != "/srv/icons/png" {
		t.Errorf("ImageDir = %q", cfg.Renderer.ImageDir)
	}
}

func TestParseReader(t *testing.T) {
	p := newTestParser(t)
	cfg, err := p.ParseReader(strings.NewReader(sampleLua), FormatLua)
	if err != nil || cfg.Window.Width != 800 {
		t.Fatalf("ParseReader(lua) = %+v, %v", cfg, err)
	}
	cfg, err = p.ParseReader(strings.NewReader(sampleTOML), FormatTOML)
	if err != nil || cfg.Window.Width != 800 {
		t.Fatalf("ParseReader(toml) = %+v, %v", cfg, err)
	}
	// A TOML document forced through the Lua parser is a Lua error.
	if _, err := p.ParseReader(strings.NewReader(sampleTOML), FormatLua); err == nil {
		t.Error("TOML parsed as Lua")
	}
	if _, err := p.ParseReader(strings.NewReader(""), "yaml"); err == nil {
		t.Error("unknown format accepted")
	}
}

func TestParseFileAndFS(t *testing.T) {
	p := newTestParser(t)
	path := filepath.Join(t.TempDir(), "viz.toml")
	if err := os.WriteFile(path, []byte(sampleTOML), 0o644); err != nil {
		t.Fatal(err)
	}
	if cfg, err := p.ParseFile(path); err != nil || cfg.Graph.Kind != GraphTree {
		t.Errorf("ParseFile() = %+v, %v", cfg, err)
	}
	if _, err := p.ParseFile(filepath.Join(t.TempDir(), "missing.lua")); err == nil {
		t.Error("ParseFile(missing) expected error")
	}

	fsys := fstest.MapFS{"configs/viz.lua": {Data: []byte(sampleLua)}}
	if cfg, err := p.ParseFromFS(fsys, "configs/viz.lua"); err != nil || cfg.Window.Title != "Tree" {
		t.Errorf("ParseFromFS() = %+v, %v", cfg, err)
	}
}

func TestLuaParserDoesNotLeakState(t *testing.T) {
	p := newTestParser(t)
	if _, err := p.Parse([]byte("viz.config = { window = { width = 123 } }")); err != nil {
		t.Fatal(err)
	}
	// The second chunk only mentions viz.config in a comment, so it is TOML;
	// force it through Lua to check the table was reset.
	cfg, err := p.ParseReader(strings.NewReader("-- viz.config untouched"), FormatLua)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Window.Width != DefaultWidth {
		t.Errorf("width leaked from the previous parse: %d", cfg.Window.Width)
	}
}

func TestIsLuaConfig(t *testing.T) {
	tests := []struct {
		content string
		want    bool
	}{
		{"viz.config = {}", true},
		{"  viz.config={}", true},
		{"local x = 1\nviz.config = { }", true},
		{"-- viz.config = {}", false},
		{"[window]\nwidth = 1", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := isLuaConfig([]byte(tt.content)); got != tt.want {
			t.Errorf("isLuaConfig(%q) = %v, want %v", tt.content, got, tt.want)
		}
	}
}

package config

import (
	"fmt"
	"image/color"
	"maps"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/opd-ai/go-forceviz/internal/registry"
	"github.com/opd-ai/go-forceviz/internal/render"
)

// setter decodes one value into its Config field.
type setter func(cfg *Config, v any) error

// section maps the keys of one configuration section to their setters.
type section map[string]setter

// sections lists every accepted key. Lua tables and TOML documents use the
// same names, so both formats decode through this one table.
var sections = map[string]section{
	"window": {
		"width":      intField(func(c *Config) *int { return &c.Window.Width }),
		"height":     intField(func(c *Config) *int { return &c.Window.Height }),
		"title":      stringField(func(c *Config) *string { return &c.Window.Title }),
		"background": colorField(func(c *Config) *color.RGBA { return &c.Window.Background }),
		"show_fps":   boolField(func(c *Config) *bool { return &c.Window.ShowFPS }),
	},
	"pipeline": {
		"period_ms":   millisField(func(c *Config) *time.Duration { return &c.Pipeline.Period }),
		"iterations":  int64Field(func(c *Config) *int64 { return &c.Pipeline.Iterations }),
		"duration_ms": millisField(func(c *Config) *time.Duration { return &c.Pipeline.Duration }),
	},
	"renderer": {
		"font_family":        stringField(func(c *Config) *string { return &c.Renderer.FontFamily }),
		"font_style":         enumField(render.ParseFontStyle, func(c *Config) *registry.FontStyle { return &c.Renderer.FontStyle }),
		"font_size":          floatField(func(c *Config) *float64 { return &c.Renderer.FontSize }),
		"horizontal_align":   enumField(render.ParseAlignment, func(c *Config) *render.Alignment { return &c.Renderer.HorizontalAlign }),
		"vertical_align":     enumField(render.ParseAlignment, func(c *Config) *render.Alignment { return &c.Renderer.VerticalAlign }),
		"horizontal_padding": floatField(func(c *Config) *float64 { return &c.Renderer.HorizontalPadding }),
		"vertical_padding":   floatField(func(c *Config) *float64 { return &c.Renderer.VerticalPadding }),
		"image_margin":       floatField(func(c *Config) *float64 { return &c.Renderer.ImageMargin }),
		"arc_width":          floatField(func(c *Config) *float64 { return &c.Renderer.ArcWidth }),
		"arc_height":         floatField(func(c *Config) *float64 { return &c.Renderer.ArcHeight }),
		"rounded_corner":     roundedCorner,
		"render_type":        enumField(render.ParseRenderType, func(c *Config) *render.RenderType { return &c.Renderer.RenderType }),
		"text_attr":          stringField(func(c *Config) *string { return &c.Renderer.TextAttr }),
		"image_attr":         stringField(func(c *Config) *string { return &c.Renderer.ImageAttr }),
		"image_dir":          stringField(func(c *Config) *string { return &c.Renderer.ImageDir }),
		"max_image_width":    intField(func(c *Config) *int { return &c.Renderer.MaxImageWidth }),
		"max_image_height":   intField(func(c *Config) *int { return &c.Renderer.MaxImageHeight }),
		"edge_width":         floatField(func(c *Config) *float64 { return &c.Renderer.EdgeWidth }),
	},
	"force": {
		"grav_const":    floatField(func(c *Config) *float64 { return &c.Force.GravConst }),
		"theta":         floatField(func(c *Config) *float64 { return &c.Force.Theta }),
		"max_distance":  floatField(func(c *Config) *float64 { return &c.Force.MaxDistance }),
		"spring_coeff":  floatField(func(c *Config) *float64 { return &c.Force.SpringCoeff }),
		"spring_length": floatField(func(c *Config) *float64 { return &c.Force.SpringLength }),
		"drag_coeff":    floatField(func(c *Config) *float64 { return &c.Force.DragCoeff }),
		"timestep_ms":   floatField(func(c *Config) *float64 { return &c.Force.Timestep }),
		"steps":         intField(func(c *Config) *int { return &c.Force.Steps }),
		"speed_limit":   floatField(func(c *Config) *float64 { return &c.Force.SpeedLimit }),
	},
	"colors": {
		"node":             colorField(func(c *Config) *color.RGBA { return &c.Colors.Node }),
		"fixed":            colorField(func(c *Config) *color.RGBA { return &c.Colors.Fixed }),
		"highlight":        colorField(func(c *Config) *color.RGBA { return &c.Colors.Highlight }),
		"edge":             colorField(func(c *Config) *color.RGBA { return &c.Colors.Edge }),
		"node_stroke":      colorField(func(c *Config) *color.RGBA { return &c.Colors.NodeStroke }),
		"edge_stroke":      colorField(func(c *Config) *color.RGBA { return &c.Colors.EdgeStroke }),
		"highlight_stroke": colorField(func(c *Config) *color.RGBA { return &c.Colors.HighlightStroke }),
	},
	"graph": {
		"kind":      enumField(ParseGraphKind, func(c *Config) *GraphKind { return &c.Graph.Kind }),
		"rows":      intField(func(c *Config) *int { return &c.Graph.Rows }),
		"cols":      intField(func(c *Config) *int { return &c.Graph.Cols }),
		"depth":     intField(func(c *Config) *int { return &c.Graph.Depth }),
		"branching": intField(func(c *Config) *int { return &c.Graph.Branching }),
	},
}

// applySettings decodes a tree of sections into cfg. Keys are applied in
// sorted order; unknown sections and keys are errors.
func applySettings(cfg *Config, tree map[string]any) error {
	for _, name := range slices.Sorted(maps.Keys(tree)) {
		sec, ok := sections[name]
		if !ok {
			return fmt.Errorf("unknown section %q", name)
		}
		values, ok := tree[name].(map[string]any)
		if !ok {
			return fmt.Errorf("section %q must be a table, got %T", name, tree[name])
		}
		for _, key := range slices.Sorted(maps.Keys(values)) {
			set, ok := sec[key]
			if !ok {
				return fmt.Errorf("unknown key %s.%s", name, key)
			}
			if err := set(cfg, values[key]); err != nil {
				return fmt.Errorf("invalid %s.%s: %w", name, key, err)
			}
		}
	}
	return nil
}

func roundedCorner(cfg *Config, v any) error {
	f, err := toFloat(v)
	if err != nil {
		return err
	}
	cfg.Renderer.ArcWidth, cfg.Renderer.ArcHeight = f, f
	return nil
}

func intField(field func(*Config) *int) setter {
	return func(cfg *Config, v any) error {
		n, err := toInt(v)
		if err != nil {
			return err
		}
		*field(cfg) = int(n)
		return nil
	}
}

func int64Field(field func(*Config) *int64) setter {
	return func(cfg *Config, v any) error {
		n, err := toInt(v)
		if err != nil {
			return err
		}
		*field(cfg) = n
		return nil
	}
}

func floatField(field func(*Config) *float64) setter {
	return func(cfg *Config, v any) error {
		f, err := toFloat(v)
		if err != nil {
			return err
		}
		*field(cfg) = f
		return nil
	}
}

func stringField(field func(*Config) *string) setter {
	return func(cfg *Config, v any) error {
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("expected a string, got %T", v)
		}
		*field(cfg) = s
		return nil
	}
}

func boolField(field func(*Config) *bool) setter {
	return func(cfg *Config, v any) error {
		switch b := v.(type) {
		case bool:
			*field(cfg) = b
		case string:
			*field(cfg) = parseBool(b)
		default:
			return fmt.Errorf("expected a boolean, got %T", v)
		}
		return nil
	}
}

func colorField(field func(*Config) *color.RGBA) setter {
	return func(cfg *Config, v any) error {
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("expected a color string, got %T", v)
		}
		c, err := render.ParseColor(s)
		if err != nil {
			return err
		}
		*field(cfg) = c
		return nil
	}
}

// millisField reads a number of milliseconds.
func millisField(field func(*Config) *time.Duration) setter {
	return func(cfg *Config, v any) error {
		f, err := toFloat(v)
		if err != nil {
			return err
		}
		*field(cfg) = time.Duration(f * float64(time.Millisecond))
		return nil
	}
}

func enumField[T any](parse func(string) (T, error), field func(*Config) *T) setter {
	return func(cfg *Config, v any) error {
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("expected a string, got %T", v)
		}
		e, err := parse(strings.ToLower(strings.TrimSpace(s)))
		if err != nil {
			return err
		}
		*field(cfg) = e
		return nil
	}
}

func toInt(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, fmt.Errorf("expected an integer, got %v", n)
		}
		return int64(n), nil
	default:
		return 0, fmt.Errorf("expected a number, got %T", v)
	}
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int64:
		return float64(n), nil
	case int:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("expected a number, got %T", v)
	}
}

// parseBool accepts yes/true/1 as true; anything else is false.
func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "true", "1":
		return true
	default:
		return false
	}
}

package render

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// NamedColors maps color names accepted in configuration files to RGBA
// values. Besides the CSS basics it carries the AWT constants used by
// graph palettes (LIGHT_GRAY is 192,192,192 there, unlike CSS).
var NamedColors = map[string]color.RGBA{
	"black":        {R: 0, G: 0, B: 0, A: 255},
	"white":        {R: 255, G: 255, B: 255, A: 255},
	"red":          {R: 255, G: 0, B: 0, A: 255},
	"green":        {R: 0, G: 128, B: 0, A: 255},
	"blue":         {R: 0, G: 0, B: 255, A: 255},
	"yellow":       {R: 255, G: 255, B: 0, A: 255},
	"cyan":         {R: 0, G: 255, B: 255, A: 255},
	"magenta":      {R: 255, G: 0, B: 255, A: 255},
	"gray":         {R: 128, G: 128, B: 128, A: 255},
	"grey":         {R: 128, G: 128, B: 128, A: 255},
	"orange":       {R: 255, G: 165, B: 0, A: 255},
	"pink":         {R: 255, G: 192, B: 203, A: 255},
	"lavender":     {R: 230, G: 230, B: 250, A: 255},
	"lightgray":    {R: 211, G: 211, B: 211, A: 255},
	"lightgrey":    {R: 211, G: 211, B: 211, A: 255},
	"darkgray":     {R: 169, G: 169, B: 169, A: 255},
	"darkgrey":     {R: 169, G: 169, B: 169, A: 255},
	"light_gray":   {R: 192, G: 192, B: 192, A: 255},
	"dark_gray":    {R: 64, G: 64, B: 64, A: 255},
	"pastelred":    {R: 255, G: 125, B: 125, A: 255},
	"pastelorange": {R: 255, G: 200, B: 125, A: 255},
	"transparent":  {R: 0, G: 0, B: 0, A: 0},
}

// ParseColor parses a color string. Supported forms are names from
// NamedColors, hex "#RGB", "#RGBA", "#RRGGBB", "#RRGGBBAA" (the "#" is
// optional), "rgb(r, g, b)" and "rgba(r, g, b, a)" where a is 0-255 or a
// fraction with a decimal point.
func ParseColor(s string) (color.RGBA, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return color.RGBA{}, fmt.Errorf("empty color string")
	}
	lower := strings.ToLower(s)
	if c, ok := NamedColors[lower]; ok {
		return c, nil
	}
	switch {
	case strings.HasPrefix(s, "#") || isHexString(s):
		return parseHexColor(strings.TrimPrefix(s, "#"))
	case strings.HasPrefix(lower, "rgba(") && strings.HasSuffix(s, ")"):
		return parseColorFunc(s[5:len(s)-1], 4)
	case strings.HasPrefix(lower, "rgb(") && strings.HasSuffix(s, ")"):
		return parseColorFunc(s[4:len(s)-1], 3)
	}
	return color.RGBA{}, fmt.Errorf("unrecognized color format: %q", s)
}

// MustParseColor is ParseColor for known-good literals.
func MustParseColor(s string) color.RGBA {
	c, err := ParseColor(s)
	if err != nil {
		panic(err)
	}
	return c
}

func isHexString(s string) bool {
	switch len(s) {
	case 3, 4, 6, 8:
	default:
		return false
	}
	for _, c := range s {
		if !strings.ContainsRune("0123456789abcdefABCDEF", c) {
			return false
		}
	}
	return true
}

func parseHexColor(s string) (color.RGBA, error) {
	// Expand shorthand forms: "abc" -> "aabbcc".
	if len(s) == 3 || len(s) == 4 {
		var b strings.Builder
		for _, c := range s {
			b.WriteRune(c)
			b.WriteRune(c)
		}
		s = b.String()
	}
	if len(s) != 6 && len(s) != 8 {
		return color.RGBA{}, fmt.Errorf("invalid hex color length: %d", len(s))
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	if len(s) == 6 {
		v = v<<8 | 0xff
	}
	return color.RGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

func parseColorFunc(args string, n int) (color.RGBA, error) {
	parts := strings.Split(args, ",")
	if len(parts) != n {
		return color.RGBA{}, fmt.Errorf("expected %d color components, got %d", n, len(parts))
	}
	var ch [4]uint8
	ch[3] = 255
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if i == 3 && strings.Contains(p, ".") {
			f, err := strconv.ParseFloat(p, 64)
			if err != nil {
				return color.RGBA{}, fmt.Errorf("invalid alpha value: %w", err)
			}
			ch[3] = uint8(min(max(f, 0), 1) * 255)
			continue
		}
		v, err := strconv.ParseUint(p, 10, 8)
		if err != nil {
			return color.RGBA{}, fmt.Errorf("invalid color component %q: %w", p, err)
		}
		ch[i] = uint8(v)
	}
	return color.RGBA{R: ch[0], G: ch[1], B: ch[2], A: ch[3]}, nil
}

// ToHex formats c as #RRGGBB, or #RRGGBBAA when not opaque.
func ToHex(c color.RGBA) string {
	if c.A == 255 {
		return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02X%02X%02X%02X", c.R, c.G, c.B, c.A)
}

// WithAlpha returns c with its alpha replaced.
func WithAlpha(c color.RGBA, alpha uint8) color.RGBA {
	c.A = alpha
	return c
}

// Blend mixes c1 and c2; ratio 0 yields c1 and 1 yields c2.
func Blend(c1, c2 color.RGBA, ratio float64) color.RGBA {
	ratio = min(max(ratio, 0), 1)
	mix := func(a, b uint8) uint8 {
		return uint8(float64(a)*(1-ratio) + float64(b)*ratio)
	}
	return color.RGBA{R: mix(c1.R, c2.R), G: mix(c1.G, c2.G), B: mix(c1.B, c2.B), A: mix(c1.A, c2.A)}
}

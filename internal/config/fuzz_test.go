// This file contains fuzzing tests for the configuration parsers to ensure
// robustness against malformed or unexpected input.

package config

import (
	"testing"
)

// FuzzLuaParser tests the Lua configuration parser with arbitrary input.
// It ensures malformed Lua is reported as an error without panicking.
func FuzzLuaParser(f *testing.F) {
	f.Add([]byte(`viz.config = { window = { width = 640 } }`))
	f.Add([]byte(`viz.config = {
    renderer = { horizontal_align = "left", rounded_corner = 4 },
    force = { grav_const = -1 },
}`))
	f.Add([]byte(""))
	f.Add([]byte("viz.config = nil"))
	f.Add([]byte("viz.config = { { } }"))
	f.Add([]byte("viz.config = { window = { width = 1e300 } }"))
	f.Add([]byte("viz.config = { colors = { node = 12 } }"))
	f.Add([]byte("viz = nil"))
	f.Add([]byte("for i = 1, 10 do end"))
	f.Add([]byte("viz.config = {"))

	p, err := NewLuaConfigParser()
	if err != nil {
		f.Fatalf("NewLuaConfigParser failed: %v", err)
	}
	defer p.Close()

	f.Fuzz(func(t *testing.T, data []byte) {
		cfg, err := p.Parse(data)
		if err == nil && cfg == nil {
			t.Error("Parse returned nil config with nil error")
		}
	})
}

// FuzzTOMLParser tests the TOML configuration parser with arbitrary input.
func FuzzTOMLParser(f *testing.F) {
	f.Add([]byte("[window]\nwidth = 640\n"))
	f.Add([]byte("[renderer]\nvertical_align = \"top\"\nrender_type = \"none\"\n"))
	f.Add([]byte("[graph]\nkind = \"tree\"\ndepth = 9223372036854775807\n"))
	f.Add([]byte("[force]\ntheta = inf\n"))
	f.Add([]byte("window = 3"))
	f.Add([]byte("[[window]]\n"))
	f.Add([]byte("[window\n"))
	f.Add([]byte(""))

	p := NewTOMLConfigParser()
	f.Fuzz(func(t *testing.T, data []byte) {
		cfg, err := p.Parse(data)
		if err == nil && cfg == nil {
			t.Error("Parse returned nil config with nil error")
		}
	})
}

// FuzzIsLuaConfig ensures format detection never panics and agrees with
// itself on repeated calls.
func FuzzIsLuaConfig(f *testing.F) {
	f.Add([]byte("viz.config = {}"))
	f.Add([]byte("[window]"))
	f.Add([]byte("\x00\xff"))

	f.Fuzz(func(t *testing.T, data []byte) {
		if isLuaConfig(data) != isLuaConfig(data) {
			t.Error("isLuaConfig is not deterministic")
		}
	})
}

// FuzzParseGraphKind checks that every accepted name maps to a kind whose
// name parses back to the same kind.
func FuzzParseGraphKind(f *testing.F) {
	for _, s := range []string{"grid", "tree", "none", "empty", "TREE", ""} {
		f.Add(s)
	}
	f.Fuzz(func(t *testing.T, s string) {
		k, err := ParseGraphKind(s)
		if err != nil {
			return
		}
		back, err := ParseGraphKind(k.String())
		if err != nil || back != k {
			t.Errorf("ParseGraphKind(%q) = %v, does not round trip: %v, %v", s, k, back, err)
		}
	})
}

package config

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/pelletier/go-toml/v2"
)

// TOMLConfigParser parses TOML configuration files. Each section of the
// configuration is a TOML table:
//
//	[window]
//	width = 700
//
//	[force]
//	grav_const = -0.4
type TOMLConfigParser struct{}

// NewTOMLConfigParser creates a TOML parser.
func NewTOMLConfigParser() *TOMLConfigParser {
	return &TOMLConfigParser{}
}

// Parse decodes content over the defaults.
func (p *TOMLConfigParser) Parse(content []byte) (*Config, error) {
	var tree map[string]any
	dec := toml.NewDecoder(bytes.NewReader(content))
	if err := dec.Decode(&tree); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return nil, fmt.Errorf("failed to parse TOML configuration at line %d column %d: %w", row, col, err)
		}
		return nil, fmt.Errorf("failed to parse TOML configuration: %w", err)
	}

	cfg := DefaultConfig()
	if err := applySettings(&cfg, tree); err != nil {
		return nil, err
	}
	return &cfg, nil
}

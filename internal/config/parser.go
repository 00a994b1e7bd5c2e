// This file implements the unified parser that auto-detects the
// configuration format.

package config

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"regexp"
)

// Format names accepted by ParseReader.
const (
	FormatLua  = "lua"
	FormatTOML = "toml"
)

// Parser provides a unified interface for parsing configuration files.
// It detects whether content is Lua or TOML. Environment references in
// string values are expanded after decoding.
type Parser struct {
	tomlParser *TOMLConfigParser
	luaParser  *LuaConfigParser
}

// NewParser creates a new Parser that can handle both Lua and TOML.
func NewParser() (*Parser, error) {
	luaParser, err := NewLuaConfigParser()
	if err != nil {
		return nil, fmt.Errorf("failed to create Lua parser: %w", err)
	}

	return &Parser{
		tomlParser: NewTOMLConfigParser(),
		luaParser:  luaParser,
	}, nil
}

// ParseFile reads and parses a configuration file, auto-detecting the format.
func (p *Parser) ParseFile(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return p.Parse(content)
}

// Parse parses configuration content, auto-detecting the format.
func (p *Parser) Parse(content []byte) (*Config, error) {
	if isLuaConfig(content) {
		return p.parse(FormatLua, content)
	}
	return p.parse(FormatTOML, content)
}

// luaConfigPattern matches "viz.config =" at the start of a line, which
// marks a Lua configuration.
var luaConfigPattern = regexp.MustCompile(`(?m)^\s*viz\.config\s*=`)

func isLuaConfig(content []byte) bool {
	return luaConfigPattern.Match(content)
}

// ParseFromFS reads and parses a configuration file from a filesystem such
// as an embed.FS.
func (p *Parser) ParseFromFS(fsys fs.FS, path string) (*Config, error) {
	content, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config from FS %s: %w", path, err)
	}

	return p.Parse(content)
}

// ParseReader parses configuration from an io.Reader.
// The format parameter must be "lua" or "toml".
func (p *Parser) ParseReader(r io.Reader, format string) (*Config, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	switch format {
	case FormatLua, FormatTOML:
		return p.parse(format, content)
	default:
		return nil, fmt.Errorf("unknown format: %s (expected 'lua' or 'toml')", format)
	}
}

func (p *Parser) parse(format string, content []byte) (*Config, error) {
	var (
		cfg *Config
		err error
	)
	if format == FormatLua {
		cfg, err = p.luaParser.Parse(content)
	} else {
		cfg, err = p.tomlParser.Parse(content)
	}
	if err != nil {
		return nil, err
	}
	ExpandEnvConfig(cfg)
	return cfg, nil
}

// Close releases resources associated with the parser.
func (p *Parser) Close() error {
	if p.luaParser != nil {
		return p.luaParser.Close()
	}
	return nil
}

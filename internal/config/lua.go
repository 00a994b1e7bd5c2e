// This file implements the Lua configuration parser. A Lua configuration
// assigns a table of sections to viz.config:
//
//	viz.config = {
//	    window = { width = 700, height = 700 },
//	    force  = { grav_const = -0.4, spring_length = 75 },
//	}
//
// The chunk may compute values with any Lua code; it runs with CPU and
// memory limits.

package config

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/arnodel/golua/lib"
	rt "github.com/arnodel/golua/runtime"
)

// maxTableDepth bounds nesting when converting Lua tables.
const maxTableDepth = 8

// LuaConfigParser parses Lua configuration files. It uses the Golua runtime
// to execute the chunk and reads the resulting viz.config table.
type LuaConfigParser struct {
	runtime *rt.Runtime
	cleanup func()
	mu      sync.Mutex
}

// NewLuaConfigParser creates a new LuaConfigParser with a fresh Lua runtime.
func NewLuaConfigParser() (*LuaConfigParser, error) {
	return NewLuaConfigParserWithOutput(io.Discard)
}

// NewLuaConfigParserWithOutput creates a LuaConfigParser whose print output
// goes to stdout.
func NewLuaConfigParserWithOutput(stdout io.Writer) (*LuaConfigParser, error) {
	if stdout == nil {
		stdout = os.Stdout
	}

	runtime := rt.New(stdout)
	cleanup := lib.LoadAll(runtime)

	return &LuaConfigParser{
		runtime: runtime,
		cleanup: cleanup,
	}, nil
}

// Parse executes content and decodes viz.config over the defaults.
func (p *LuaConfigParser) Parse(content []byte) (*Config, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.initVizGlobal()

	closure, err := p.runtime.CompileAndLoadLuaChunk(
		"config",
		content,
		rt.TableValue(p.runtime.GlobalEnv()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to compile Lua configuration: %w", err)
	}

	ctx := rt.RuntimeContextDef{
		HardLimits: rt.RuntimeResources{
			Cpu:    10_000_000,
			Memory: 50 * 1024 * 1024,
		},
	}
	p.runtime.PushContext(ctx)
	defer p.runtime.PopContext()

	thread := p.runtime.MainThread()
	if _, err := rt.Call1(thread, rt.FunctionValue(closure)); err != nil {
		return nil, fmt.Errorf("failed to execute Lua configuration: %w", err)
	}

	return p.extractConfig()
}

// initVizGlobal resets the viz global to an empty config table so that
// state from a previous Parse never leaks into the next one.
func (p *LuaConfigParser) initVizGlobal() {
	viz := rt.NewTable()
	viz.Set(rt.StringValue("config"), rt.TableValue(rt.NewTable()))
	p.runtime.GlobalEnv().Set(rt.StringValue("viz"), rt.TableValue(viz))
}

func (p *LuaConfigParser) extractConfig() (*Config, error) {
	cfg := DefaultConfig()

	vizVal := p.runtime.GlobalEnv().Get(rt.StringValue("viz"))
	if vizVal.IsNil() {
		return &cfg, nil
	}
	viz, ok := vizVal.TryTable()
	if !ok {
		return nil, fmt.Errorf("viz is not a table")
	}
	configVal := viz.Get(rt.StringValue("config"))
	if configVal.IsNil() {
		return &cfg, nil
	}
	configTable, ok := configVal.TryTable()
	if !ok {
		return nil, fmt.Errorf("viz.config is not a table")
	}

	tree, err := luaTable(configTable, 0)
	if err != nil {
		return nil, fmt.Errorf("viz.config: %w", err)
	}
	if err := applySettings(&cfg, tree); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// luaTable converts a string-keyed Lua table into a map.
func luaTable(t *rt.Table, depth int) (map[string]any, error) {
	if depth > maxTableDepth {
		return nil, fmt.Errorf("tables nested deeper than %d", maxTableDepth)
	}
	out := make(map[string]any)
	for k, v, ok := t.Next(rt.NilValue); ok && !k.IsNil(); k, v, ok = t.Next(k) {
		if k.Type() != rt.StringType {
			return nil, fmt.Errorf("non-string key of type %s", k.TypeName())
		}
		key := k.AsString()
		gv, err := luaValue(v, depth+1)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		out[key] = gv
	}
	return out, nil
}

// luaValue converts a Lua scalar or table. Integers stay int64 and floats
// stay float64, matching what the TOML decoder produces.
func luaValue(v rt.Value, depth int) (any, error) {
	switch v.Type() {
	case rt.BoolType:
		return v.AsBool(), nil
	case rt.IntType:
		return v.AsInt(), nil
	case rt.FloatType:
		return v.AsFloat(), nil
	case rt.StringType:
		return v.AsString(), nil
	case rt.TableType:
		return luaTable(v.AsTable(), depth)
	default:
		return nil, fmt.Errorf("unsupported value of type %s", v.TypeName())
	}
}

// Close releases resources associated with the parser's Lua runtime.
func (p *LuaConfigParser) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cleanup != nil {
		p.cleanup()
		p.cleanup = nil
	}
	return nil
}

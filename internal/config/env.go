package config

import (
	"os"
	"strings"
)

// ExpandEnv replaces $NAME, ${NAME} and ${NAME:-default} with values from
// the environment. The default applies when NAME is unset or empty. A
// dollar sign not followed by a valid name (for example "$5") is kept.
func ExpandEnv(s string) string {
	if !strings.Contains(s, "$") {
		return s
	}
	return os.Expand(s, lookupEnv)
}

func lookupEnv(ref string) string {
	name, def, hasDefault := strings.Cut(ref, ":-")
	if !validEnvName(name) {
		return "$" + ref
	}
	if v := os.Getenv(name); v != "" || !hasDefault {
		return v
	}
	return def
}

func validEnvName(name string) bool {
	if name == "" {
		return false
	}
	for i, c := range name {
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case i > 0 && c >= '0' && c <= '9':
		default:
			return false
		}
	}
	return true
}

// ExpandEnvConfig expands environment references in the window title, the
// font family, the image directory and the attribute names of cfg.
func ExpandEnvConfig(cfg *Config) {
	if cfg == nil {
		return
	}
	for _, s := range []*string{
		&cfg.Window.Title,
		&cfg.Renderer.FontFamily,
		&cfg.Renderer.ImageDir,
		&cfg.Renderer.TextAttr,
		&cfg.Renderer.ImageAttr,
	} {
		*s = ExpandEnv(*s)
	}
}

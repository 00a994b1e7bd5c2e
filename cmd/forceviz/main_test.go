package main

import (
	"bytes"
	"errors"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestVersion(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}

	var stdout, stderr bytes.Buffer
	if code := run([]string{"-v"}, &stdout, &stderr); code != 0 {
		t.Fatalf("run -v = %d, stderr: %s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), Version) {
		t.Errorf("version output %q does not contain %q", stdout.String(), Version)
	}
}

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    cliOptions
		wantErr bool
	}{
		{name: "defaults", args: nil, want: cliOptions{}},
		{
			name: "headless run",
			args: []string{"-headless", "-iterations", "10", "-graph", "tree", "-o", "out.png"},
			want: cliOptions{headless: true, iterations: 10, graph: "tree", output: "out.png"},
		},
		{
			name: "config and profiling",
			args: []string{"-c", "viz.toml", "-watch", "-cpuprofile", "cpu.out", "-memprofile", "mem.out", "-debug", "-expvar", "localhost:6060"},
			want: cliOptions{configPath: "viz.toml", watch: true, cpuProfile: "cpu.out", memProfile: "mem.out", debug: true, expvarAddr: "localhost:6060"},
		},
		{name: "unknown flag", args: []string{"-bogus"}, wantErr: true},
		{name: "bad number", args: []string{"-iterations", "many"}, wantErr: true},
		{name: "positional argument", args: []string{"viz.toml"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stderr bytes.Buffer
			got, err := parseFlags(tt.args, &stderr)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseFlags() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("parseFlags() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestRunExitCodes(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want int
	}{
		{name: "help", args: []string{"-h"}, want: 0},
		{name: "unknown flag", args: []string{"-bogus"}, want: 2},
		{name: "missing config", args: []string{"-headless", "-c", "/nonexistent/viz.toml"}, want: 1},
		{name: "invalid graph", args: []string{"-headless", "-graph", "star"}, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if got := run(tt.args, &stdout, &stderr); got != tt.want {
				t.Errorf("run(%v) = %d, want %d; stderr: %s", tt.args, got, tt.want, stderr.String())
			}
		})
	}
}

func TestConfigFileNotFound(t *testing.T) {
	_, err := newViz(cliOptions{configPath: "/nonexistent/config/viz.toml"}, nil)
	if err == nil {
		t.Fatal("expected error for missing configuration file")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestHeadlessRunWritesFrame(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "viz.toml")
	cfg := `
[window]
width = 160
height = 120

[pipeline]
period_ms = -1
iterations = 5

[graph]
kind = "grid"
rows = 4
cols = 4
`
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "frame.png")

	var stdout, stderr bytes.Buffer
	if code := run([]string{"-c", cfgPath, "-headless", "-o", out}, &stdout, &stderr); code != 0 {
		t.Fatalf("run = %d, stderr: %s", code, stderr.String())
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("frame not written: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 160 || b.Dy() != 120 {
		t.Errorf("frame size = %dx%d, want 160x120", b.Dx(), b.Dy())
	}
	if !strings.Contains(stdout.String(), "Wrote "+out) {
		t.Errorf("stdout missing confirmation: %q", stdout.String())
	}
}

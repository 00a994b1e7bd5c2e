package profiling

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigEnabled(t *testing.T) {
	tests := []struct {
		cfg  Config
		want bool
	}{
		{Config{}, false},
		{Config{CPUProfilePath: "cpu.prof"}, true},
		{Config{MemProfilePath: "mem.prof"}, true},
	}
	for _, tt := range tests {
		if got := tt.cfg.Enabled(); got != tt.want {
			t.Errorf("%+v.Enabled() = %v, want %v", tt.cfg, got, tt.want)
		}
	}
}

func nonEmpty(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("profile %s not written: %v", path, err)
	}
	if info.Size() == 0 {
		t.Errorf("profile %s is empty", path)
	}
}

func TestProfilerStartStop(t *testing.T) {
	dir := t.TempDir()
	cpu := filepath.Join(dir, "cpu.prof")
	mem := filepath.Join(dir, "mem.prof")
	p := New(Config{CPUProfilePath: cpu, MemProfilePath: mem})

	if err := p.Start(); err != nil {
		t.Fatalf("Start() = %v", err)
	}
	if !p.IsRunning() {
		t.Error("IsRunning() = false after Start")
	}
	if err := p.Start(); err == nil {
		t.Error("second Start should fail")
	}

	// Give the CPU profile something to record.
	sum := 0
	for i := range 1_000_000 {
		sum += i % 7
	}
	_ = sum

	if err := p.Stop(); err != nil {
		t.Fatalf("Stop() = %v", err)
	}
	if p.IsRunning() {
		t.Error("IsRunning() = true after Stop")
	}
	if err := p.Stop(); err == nil {
		t.Error("second Stop should fail")
	}
	nonEmpty(t, cpu)
	nonEmpty(t, mem)
}

func TestProfilerMemOnly(t *testing.T) {
	mem := filepath.Join(t.TempDir(), "mem.prof")
	p := New(Config{MemProfilePath: mem})
	if err := p.Start(); err != nil {
		t.Fatalf("Start() = %v", err)
	}
	if err := p.Stop(); err != nil {
		t.Fatalf("Stop() = %v", err)
	}
	nonEmpty(t, mem)
}

func TestProfilerBadPaths(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing", "x.prof")

	if err := New(Config{CPUProfilePath: missing}).Start(); err == nil {
		t.Error("Start with an unwritable CPU path should fail")
	}

	p := New(Config{MemProfilePath: missing})
	if err := p.Start(); err != nil {
		t.Fatalf("Start() = %v", err)
	}
	if err := p.Stop(); err == nil {
		t.Error("Stop with an unwritable heap path should fail")
	}
	if p.IsRunning() {
		t.Error("a failed Stop still stops the profiler")
	}
}

func TestWriteHeapProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heap.prof")
	if err := WriteHeapProfile(path); err != nil {
		t.Fatalf("WriteHeapProfile() = %v", err)
	}
	nonEmpty(t, path)
}

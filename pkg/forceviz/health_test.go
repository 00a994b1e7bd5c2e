package forceviz

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestHealthCheckPredicates(t *testing.T) {
	tests := []struct {
		status                       HealthStatus
		healthy, degraded, unhealthy bool
	}{
		{HealthOK, true, false, false},
		{HealthDegraded, false, true, false},
		{HealthUnhealthy, false, false, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			h := HealthCheck{Status: tt.status}
			if h.IsHealthy() != tt.healthy || h.IsDegraded() != tt.degraded || h.IsUnhealthy() != tt.unhealthy {
				t.Errorf("predicates for %s = %v/%v/%v", tt.status, h.IsHealthy(), h.IsDegraded(), h.IsUnhealthy())
			}
		})
	}
}

func TestComputeHealth(t *testing.T) {
	now := time.Now()
	started := now.Add(-time.Minute)
	running := healthInput{now: now, running: true, startTime: started, pipeline: "running", ticks: 10}

	tests := []struct {
		name       string
		in         healthInput
		want       HealthStatus
		component  string
		compStatus HealthStatus
		compMsg    string
	}{
		{
			name: "never started",
			in:   healthInput{now: now},
			want: HealthUnhealthy, component: "instance", compStatus: HealthUnhealthy, compMsg: "never started",
		},
		{
			name: "running",
			in:   running,
			want: HealthOK, component: "pipeline", compStatus: HealthOK, compMsg: "running after 10 ticks",
		},
		{
			name: "paused",
			in:   func() healthInput { in := running; in.pipeline = "paused"; return in }(),
			want: HealthDegraded, component: "pipeline", compStatus: HealthDegraded, compMsg: "paused",
		},
		{
			name: "failed",
			in: func() healthInput {
				in := running
				in.pipeline, in.lastError = "failed", errors.New("stage exploded")
				return in
			}(),
			want: HealthUnhealthy, component: "pipeline", compStatus: HealthUnhealthy, compMsg: "stage exploded",
		},
		{
			name: "some images failed",
			in:   func() healthInput { in := running; in.imageLoads, in.imageFailures = 3, 1; return in }(),
			want: HealthDegraded, component: "images", compStatus: HealthDegraded, compMsg: "3 loaded, 1 failed",
		},
		{
			name: "all images failed",
			in:   func() healthInput { in := running; in.imageFailures = 2; return in }(),
			want: HealthDegraded, component: "images", compStatus: HealthUnhealthy, compMsg: "all 2 loads failed",
		},
		{
			name: "error burst",
			in:   func() healthInput { in := running; in.recentErrors = 3; return in }(),
			want: HealthDegraded, component: "errors", compStatus: HealthDegraded, compMsg: "3.00 errors/s",
		},
		{
			name: "stopped",
			in:   healthInput{now: now, startTime: started, pipeline: "cancelled"},
			want: HealthUnhealthy, component: "instance", compStatus: HealthUnhealthy, compMsg: "stopped",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := computeHealth(tt.in)
			if h.Status != tt.want {
				t.Errorf("Status = %s, want %s (%+v)", h.Status, tt.want, h.Components)
			}
			c := h.Components[tt.component]
			if c.Status != tt.compStatus {
				t.Errorf("%s status = %s, want %s", tt.component, c.Status, tt.compStatus)
			}
			if !strings.Contains(c.Message, tt.compMsg) {
				t.Errorf("%s message = %q, want %q", tt.component, c.Message, tt.compMsg)
			}
			if h.Message == "" {
				t.Error("Message should be set")
			}
		})
	}

	if h := computeHealth(running); h.Uptime != time.Minute {
		t.Errorf("Uptime = %v, want 1m", h.Uptime)
	}
}

package forceviz

import (
	"fmt"
	"time"
)

// HealthStatus represents the overall health state of a component.
type HealthStatus string

const (
	// HealthOK indicates the component is functioning normally.
	HealthOK HealthStatus = "ok"
	// HealthDegraded indicates partial functionality or non-critical issues.
	HealthDegraded HealthStatus = "degraded"
	// HealthUnhealthy indicates the component is not functioning.
	HealthUnhealthy HealthStatus = "unhealthy"
)

// HealthCheck contains the health status of the Viz instance and its components.
type HealthCheck struct {
	// Status is the overall health status.
	Status HealthStatus

	// Timestamp is when the health check was performed.
	Timestamp time.Time

	// Uptime is the duration since the instance started (zero if not running).
	Uptime time.Duration

	// Components contains health status for individual components:
	// "instance", "pipeline", "images" and "errors".
	Components map[string]ComponentHealth

	// Message provides additional context about the health status.
	Message string
}

// ComponentHealth represents the health status of an individual component.
type ComponentHealth struct {
	// Status is the health status of this component.
	Status HealthStatus

	// Message provides details about the component's state.
	Message string

	// LastUpdated is when this component was last successfully updated.
	LastUpdated time.Time
}

// IsHealthy returns true if the overall status is HealthOK.
func (h HealthCheck) IsHealthy() bool {
	return h.Status == HealthOK
}

// IsDegraded returns true if the overall status is HealthDegraded.
func (h HealthCheck) IsDegraded() bool {
	return h.Status == HealthDegraded
}

// IsUnhealthy returns true if the overall status is HealthUnhealthy.
func (h HealthCheck) IsUnhealthy() bool {
	return h.Status == HealthUnhealthy
}

// healthInput is the state a health check is computed from.
type healthInput struct {
	now       time.Time
	running   bool
	startTime time.Time
	// pipeline is the state name of the current run, empty before the
	// first Start.
	pipeline      string
	ticks         int64
	imageLoads    int64
	imageFailures int64
	recentErrors  float64 // per second over the last minute
	lastError     error
}

// errorRateDegraded is the error rate above which the errors component
// reports degraded.
const errorRateDegraded = 1.0

func computeHealth(in healthInput) HealthCheck {
	h := HealthCheck{
		Timestamp:  in.now,
		Components: make(map[string]ComponentHealth, 4),
	}
	if in.running {
		h.Uptime = in.now.Sub(in.startTime)
	}

	switch {
	case in.running:
		h.Components["instance"] = ComponentHealth{Status: HealthOK, Message: "running", LastUpdated: in.startTime}
	case in.startTime.IsZero():
		h.Components["instance"] = ComponentHealth{Status: HealthUnhealthy, Message: "never started"}
	default:
		h.Components["instance"] = ComponentHealth{Status: HealthUnhealthy, Message: "stopped", LastUpdated: in.startTime}
	}

	switch in.pipeline {
	case "":
		h.Components["pipeline"] = ComponentHealth{Status: HealthUnhealthy, Message: "no run"}
	case "failed":
		msg := "failed"
		if in.lastError != nil {
			msg = "failed: " + in.lastError.Error()
		}
		h.Components["pipeline"] = ComponentHealth{Status: HealthUnhealthy, Message: msg}
	case "paused", "idle":
		h.Components["pipeline"] = ComponentHealth{Status: HealthDegraded, Message: in.pipeline}
	default:
		h.Components["pipeline"] = ComponentHealth{
			Status:      HealthOK,
			Message:     fmt.Sprintf("%s after %d ticks", in.pipeline, in.ticks),
			LastUpdated: in.now,
		}
	}

	switch {
	case in.imageFailures == 0:
		h.Components["images"] = ComponentHealth{Status: HealthOK, Message: fmt.Sprintf("%d loaded", in.imageLoads)}
	case in.imageLoads == 0:
		h.Components["images"] = ComponentHealth{Status: HealthUnhealthy, Message: fmt.Sprintf("all %d loads failed", in.imageFailures)}
	default:
		h.Components["images"] = ComponentHealth{
			Status:  HealthDegraded,
			Message: fmt.Sprintf("%d loaded, %d failed", in.imageLoads, in.imageFailures),
		}
	}

	if in.recentErrors > errorRateDegraded {
		h.Components["errors"] = ComponentHealth{Status: HealthDegraded, Message: fmt.Sprintf("%.2f errors/s", in.recentErrors)}
	} else {
		h.Components["errors"] = ComponentHealth{Status: HealthOK, Message: fmt.Sprintf("%.2f errors/s", in.recentErrors)}
	}

	// Overall status: the instance and pipeline decide unhealthy; every
	// other component can only degrade.
	h.Status = HealthOK
	for name, c := range h.Components {
		switch {
		case c.Status == HealthUnhealthy && (name == "instance" || name == "pipeline"):
			h.Status = HealthUnhealthy
		case c.Status != HealthOK && h.Status == HealthOK:
			h.Status = HealthDegraded
		}
	}
	switch h.Status {
	case HealthOK:
		h.Message = "all components healthy"
	case HealthDegraded:
		h.Message = "some components degraded"
	default:
		h.Message = "instance not operational"
	}
	return h
}

// This file implements validation of configuration values.

package config

import (
	"fmt"
	"strings"

	"github.com/opd-ai/go-forceviz/internal/render"
)

// ValidationError represents a configuration validation error.
// It contains the field name and a description of the issue.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (ve ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ve.Field, ve.Message)
}

// ValidationResult holds the results of a configuration validation.
type ValidationResult struct {
	// Errors contains all validation errors found.
	Errors []ValidationError
	// Warnings contains non-fatal issues such as unusual values.
	Warnings []ValidationError
}

// IsValid returns true if there are no validation errors.
func (vr *ValidationResult) IsValid() bool {
	return len(vr.Errors) == 0
}

// Error returns a combined error message if there are errors, nil otherwise.
func (vr *ValidationResult) Error() error {
	if len(vr.Errors) == 0 {
		return nil
	}

	messages := make([]string, 0, len(vr.Errors))
	for _, e := range vr.Errors {
		messages = append(messages, e.Error())
	}
	return fmt.Errorf("validation failed: %s", strings.Join(messages, "; "))
}

// AddError adds a validation error.
func (vr *ValidationResult) AddError(field, message string) {
	vr.Errors = append(vr.Errors, ValidationError{Field: field, Message: message})
}

// AddWarning adds a validation warning.
func (vr *ValidationResult) AddWarning(field, message string) {
	vr.Warnings = append(vr.Warnings, ValidationError{Field: field, Message: message})
}

// Merge combines another ValidationResult into this one.
func (vr *ValidationResult) Merge(other *ValidationResult) {
	if other == nil {
		return
	}
	vr.Errors = append(vr.Errors, other.Errors...)
	vr.Warnings = append(vr.Warnings, other.Warnings...)
}

// maxDimension is the window size above which a warning is issued.
const maxDimension = 10000

// maxGraphNodes is the demo graph size above which a warning is issued.
const maxGraphNodes = 5000

// Validator checks a Config.
type Validator struct {
	// strictMode turns warnings into errors.
	strictMode bool
}

// NewValidator creates a new Validator with default settings.
func NewValidator() *Validator {
	return &Validator{}
}

// WithStrictMode makes every warning an error.
func (v *Validator) WithStrictMode(strict bool) *Validator {
	v.strictMode = strict
	return v
}

// Validate performs validation of a Config.
func (v *Validator) Validate(cfg *Config) *ValidationResult {
	result := &ValidationResult{}

	v.validateWindow(&cfg.Window, result)
	v.validatePipeline(&cfg.Pipeline, result)
	v.validateRenderer(&cfg.Renderer, result)
	v.validateForce(&cfg.Force, result)
	v.validateGraph(&cfg.Graph, result)

	if v.strictMode && len(result.Warnings) > 0 {
		result.Errors = append(result.Errors, result.Warnings...)
		result.Warnings = nil
	}
	return result
}

func (v *Validator) validateWindow(wc *WindowConfig, result *ValidationResult) {
	if wc.Width <= 0 {
		result.AddError("window.width", fmt.Sprintf("must be positive, got %d", wc.Width))
	}
	if wc.Height <= 0 {
		result.AddError("window.height", fmt.Sprintf("must be positive, got %d", wc.Height))
	}
	if wc.Width > maxDimension {
		result.AddWarning("window.width", fmt.Sprintf("unusually large value %d", wc.Width))
	}
	if wc.Height > maxDimension {
		result.AddWarning("window.height", fmt.Sprintf("unusually large value %d", wc.Height))
	}
}

func (v *Validator) validatePipeline(pc *PipelineConfig, result *ValidationResult) {
	if pc.Iterations < 0 {
		result.AddError("pipeline.iterations", fmt.Sprintf("must be non-negative, got %d", pc.Iterations))
	}
	if pc.Duration < 0 {
		result.AddError("pipeline.duration_ms", fmt.Sprintf("must be non-negative, got %v", pc.Duration))
	}
}

func (v *Validator) validateRenderer(rc *RendererConfig, result *ValidationResult) {
	if rc.FontSize <= 0 {
		result.AddError("renderer.font_size", fmt.Sprintf("must be positive, got %v", rc.FontSize))
	}
	if strings.TrimSpace(rc.FontFamily) == "" {
		result.AddError("renderer.font_family", "must not be empty")
	}

	switch rc.HorizontalAlign {
	case render.AlignLeft, render.AlignRight, render.AlignCenter:
	default:
		result.AddError("renderer.horizontal_align", fmt.Sprintf("must be left, right or center, got %s", rc.HorizontalAlign))
	}
	switch rc.VerticalAlign {
	case render.AlignTop, render.AlignBottom, render.AlignCenter:
	default:
		result.AddError("renderer.vertical_align", fmt.Sprintf("must be top, bottom or center, got %s", rc.VerticalAlign))
	}
	if rc.RenderType < render.RenderNone || rc.RenderType > render.RenderDrawAndFill {
		result.AddError("renderer.render_type", fmt.Sprintf("unknown render type %d", rc.RenderType))
	}

	nonNegative := []struct {
		field string
		value float64
	}{
		{"renderer.horizontal_padding", rc.HorizontalPadding},
		{"renderer.vertical_padding", rc.VerticalPadding},
		{"renderer.image_margin", rc.ImageMargin},
		{"renderer.arc_width", rc.ArcWidth},
		{"renderer.arc_height", rc.ArcHeight},
		{"renderer.edge_width", rc.EdgeWidth},
		{"renderer.max_image_width", float64(rc.MaxImageWidth)},
		{"renderer.max_image_height", float64(rc.MaxImageHeight)},
	}
	for _, n := range nonNegative {
		if n.value < 0 {
			result.AddError(n.field, fmt.Sprintf("must be non-negative, got %v", n.value))
		}
	}

	if rc.TextAttr == "" {
		result.AddError("renderer.text_attr", "must not be empty")
	}
	if rc.ImageAttr == "" {
		result.AddError("renderer.image_attr", "must not be empty")
	}
	if rc.EdgeWidth == 0 {
		result.AddWarning("renderer.edge_width", "edges will not be visible")
	}
}

func (v *Validator) validateForce(fc *ForceConfig, result *ValidationResult) {
	if fc.Theta < 0 {
		result.AddError("force.theta", fmt.Sprintf("must be non-negative, got %v", fc.Theta))
	}
	if fc.SpringLength < 0 {
		result.AddError("force.spring_length", fmt.Sprintf("must be non-negative, got %v", fc.SpringLength))
	}
	if fc.Timestep < 0 {
		result.AddError("force.timestep_ms", fmt.Sprintf("must be non-negative, got %v", fc.Timestep))
	}
	if fc.Steps < 0 {
		result.AddError("force.steps", fmt.Sprintf("must be non-negative, got %d", fc.Steps))
	}
	if fc.SpeedLimit <= 0 {
		result.AddError("force.speed_limit", fmt.Sprintf("must be positive, got %v", fc.SpeedLimit))
	}
	if fc.GravConst > 0 {
		result.AddWarning("force.grav_const", "positive values pull all nodes together")
	}
	if fc.DragCoeff > 0 {
		result.AddWarning("force.drag_coeff", "positive values accelerate nodes")
	}
}

func (v *Validator) validateGraph(gc *GraphConfig, result *ValidationResult) {
	switch gc.Kind {
	case GraphGrid:
		if gc.Rows <= 0 || gc.Cols <= 0 {
			result.AddError("graph", fmt.Sprintf("grid needs positive rows and cols, got %dx%d", gc.Rows, gc.Cols))
		} else if gc.Rows*gc.Cols > maxGraphNodes {
			result.AddWarning("graph", fmt.Sprintf("grid of %d nodes may render slowly", gc.Rows*gc.Cols))
		}
	case GraphTree:
		if gc.Depth < 0 || gc.Branching <= 0 {
			result.AddError("graph", fmt.Sprintf("tree needs depth >= 0 and branching > 0, got %d/%d", gc.Depth, gc.Branching))
		}
	case GraphNone:
	default:
		result.AddError("graph.kind", fmt.Sprintf("unknown graph kind %d", gc.Kind))
	}
}

// ValidateConfig validates cfg and returns an error if it is invalid.
func ValidateConfig(cfg *Config) error {
	return NewValidator().Validate(cfg).Error()
}

// ValidateConfigStrict validates cfg treating warnings as errors.
func ValidateConfigStrict(cfg *Config) error {
	return NewValidator().WithStrictMode(true).Validate(cfg).Error()
}

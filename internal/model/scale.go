package model

import (
	"strings"

	"go-vis-pipeline/pkg/utils"
)

// DataRef points a scale domain at a field of a pipeline's output
type DataRef struct {
	Data  string `json:"data" validate:"required"`
	Field string `json:"field" validate:"required"`
}

// ScaleDefinition is the structural definition of a scale. Optional flags are
// pointers so that an unset flag can be filled from defaults.
type ScaleDefinition struct {
	Type         string   `json:"type,omitempty" validate:"omitempty,oneof=linear ordinal time log pow sqrt quantile quantize threshold"`
	Domain       *DataRef `json:"domain,omitempty" validate:"omitempty"`
	DomainValues []any    `json:"domainValues,omitempty"`
	Range        string   `json:"range,omitempty"`
	RangeValues  []any    `json:"rangeValues,omitempty"`
	Nice         *bool    `json:"nice,omitempty"`
	Zero         *bool    `json:"zero,omitempty"`
	Reverse      *bool    `json:"reverse,omitempty"`
	Points       *bool    `json:"points,omitempty"`
	Padding      *float64 `json:"padding,omitempty" validate:"omitempty,gte=0"`
}

// Normalize returns a copy with cosmetic differences removed so that two
// definitions meaning the same scale compare equal.
func (d ScaleDefinition) Normalize() ScaleDefinition {
	out := d
	out.Type = strings.ToLower(strings.TrimSpace(d.Type))
	out.Range = strings.TrimSpace(d.Range)
	if d.Domain != nil {
		out.Domain = &DataRef{
			Data:  strings.TrimSpace(d.Domain.Data),
			Field: strings.TrimSpace(d.Domain.Field),
		}
	}
	out.DomainValues = literals(d.DomainValues)
	out.RangeValues = literals(d.RangeValues)
	return out
}

// literals copies a literal list with every Go number widened to float64, so
// 1 and 1.0 describe the same domain. Empty lists become nil.
func literals(vals []any) []any {
	if len(vals) == 0 {
		return nil
	}
	out := make([]any, len(vals))
	for i, v := range vals {
		if f, ok := utils.ToFloat(v); ok && utils.IsNumber(v) {
			out[i] = f
			continue
		}
		out[i] = v
	}
	return out
}

// Bool is a helper for setting optional scale flags.
func Bool(b bool) *bool { return &b }

// Float is a helper for setting optional numeric scale properties.
func Float(f float64) *float64 { return &f }

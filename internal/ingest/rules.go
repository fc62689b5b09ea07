package ingest

import (
	"fmt"

	"go-vis-pipeline/internal/model"
	"go-vis-pipeline/pkg/utils"
)

// Rules are per-source checks applied to every loaded record
type Rules struct {
	RequiredFields []string           `json:"requiredFields,omitempty"`
	NumericFields  []string           `json:"numericFields,omitempty"`
	MinValues      map[string]float64 `json:"minValues,omitempty"`
	MaxValues      map[string]float64 `json:"maxValues,omitempty"`
}

// Check validates every record and reports the first violation. A nil rule
// set accepts everything.
func (r *Rules) Check(records []*model.Record) error {
	if r == nil {
		return nil
	}
	for i, rec := range records {
		if err := r.checkRecord(rec); err != nil {
			return &model.ValidationError{Subject: "source", Reason: fmt.Sprintf("record %d", i), Err: err}
		}
	}
	return nil
}

func (r *Rules) checkRecord(rec *model.Record) error {
	for _, field := range r.RequiredFields {
		if _, ok := rec.Get(field); !ok {
			return fmt.Errorf("missing required field: %s", field)
		}
	}

	for _, field := range r.NumericFields {
		val, ok := rec.Get(field)
		if !ok {
			continue
		}
		if !utils.IsNumber(val) {
			return fmt.Errorf("field %s must be numeric, got %T", field, val)
		}
	}

	for field, min := range r.MinValues {
		if val, ok := rec.Get(field); ok {
			if num, ok := utils.ToFloat(val); ok && num < min {
				return fmt.Errorf("field %s below minimum: got %v, want >= %v", field, val, min)
			}
		}
	}

	for field, max := range r.MaxValues {
		if val, ok := rec.Get(field); ok {
			if num, ok := utils.ToFloat(val); ok && num > max {
				return fmt.Errorf("field %s above maximum: got %v, want <= %v", field, val, max)
			}
		}
	}

	return nil
}

package model

import "strings"

// FieldType is the semantic type inferred for a schema column
type FieldType string

const (
	Ordinal FieldType = "ordinal"
	Linear  FieldType = "linear"
	Time    FieldType = "time"
)

// RawAccessor prefixes fields read from the raw source record.
const RawAccessor = DataKey + "."

// Aggregate statistics a Stats transform can produce.
const (
	StatCount    = "count"
	StatMin      = "min"
	StatMax      = "max"
	StatSum      = "sum"
	StatMean     = "mean"
	StatVariance = "variance"
	StatStdev    = "stdev"
	StatMedian   = "median"
)

// Stats lists every supported statistic in output order.
var Stats = []string{StatCount, StatMin, StatMax, StatSum, StatMean, StatVariance, StatStdev, StatMedian}

// IsStat reports whether s names a supported statistic.
func IsStat(s string) bool {
	for _, st := range Stats {
		if st == s {
			return true
		}
	}
	return false
}

// Field describes one schema column
type Field struct {
	Name         string    `json:"name" mapstructure:"name" validate:"required"`
	Accessor     string    `json:"accessor" mapstructure:"accessor"`
	Type         FieldType `json:"type,omitempty" mapstructure:"type"`
	PipelineName string    `json:"pipelineName,omitempty" mapstructure:"pipelineName"`
	Stat         string    `json:"stat,omitempty" mapstructure:"stat"`
}

// FieldKey identifies a field's underlying column independently of any
// statistic attached to it.
type FieldKey struct {
	Accessor string
	Name     string
}

func NewField(name, accessor string, typ FieldType, pipelineName string) *Field {
	return &Field{Name: name, Accessor: accessor, Type: typ, PipelineName: pipelineName}
}

// Spec is the canonical accessor string of the field.
func (f *Field) Spec() string {
	if f.Stat != "" {
		return StatField(f.Stat, f.Name)
	}
	return f.Accessor + f.Name
}

func (f *Field) Key() FieldKey {
	return FieldKey{Accessor: f.Accessor, Name: f.Name}
}

func (f *Field) String() string { return f.Spec() }

// StatField names the attribute a Stats transform writes for stat over field.
func StatField(stat, field string) string {
	return stat + "_" + field
}

// FieldName strips an accessor prefix from a field spec.
func FieldName(spec string) string {
	if i := strings.LastIndex(spec, "."); i >= 0 {
		return spec[i+1:]
	}
	return spec
}

// TypeFromParse maps a source parse hint to a field type.
func TypeFromParse(kind string) FieldType {
	switch strings.ToLower(kind) {
	case "date":
		return Time
	case "number":
		return Linear
	default:
		return Ordinal
	}
}

// TypeOf infers a field type from a sampled value: numeric literals are
// linear, everything else ordinal.
func TypeOf(v any) FieldType {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return Linear
	default:
		return Ordinal
	}
}

// ParseField builds a field from its accessor spec, e.g. "data.price".
func ParseField(spec string) *Field {
	if i := strings.LastIndex(spec, "."); i >= 0 {
		return &Field{Name: spec[i+1:], Accessor: spec[:i+1]}
	}
	return &Field{Name: spec}
}

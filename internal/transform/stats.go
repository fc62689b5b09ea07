package transform

import (
	"math"
	"sort"

	"go-vis-pipeline/internal/model"
	"go-vis-pipeline/pkg/utils"
)

const TypeStats = "stats"

// Stats computes summary statistics over one field. Every statistic except
// the median is always computed; the median is opt-in.
type Stats struct {
	Base
	field  string
	median bool
	output []string
}

// NewStats creates a stats transform over the field with the given spec,
// e.g. "data.price".
func NewStats(pipelineName, field string, median bool) *Stats {
	return &Stats{
		Base:   NewBase(TypeStats, pipelineName),
		field:  field,
		median: median,
	}
}

func (s *Stats) Field() string { return s.field }

func (s *Stats) SetField(field string) { s.field = field }

func (s *Stats) Median() bool { return s.median }

func (s *Stats) SetMedian(median bool) { s.median = median }

// Ops lists the statistics this transform computes, in output order
func (s *Stats) Ops() []string {
	ops := make([]string, 0, len(model.Stats))
	for _, op := range model.Stats {
		if op == model.StatMedian && !s.median {
			continue
		}
		ops = append(ops, op)
	}
	return ops
}

// OutputFields returns the attribute names produced by the last Spec call.
func (s *Stats) OutputFields() []string {
	out := make([]string, len(s.output))
	copy(out, s.output)
	return out
}

func (s *Stats) Properties() map[string]any {
	return map[string]any{"field": s.field, "median": s.median}
}

// RequiresFork is true: aggregates always live after the fork.
func (s *Stats) RequiresFork() bool { return true }

func (s *Stats) Spec() model.TransformSpec {
	ops := s.Ops()
	name := model.FieldName(s.field)
	s.output = make([]string, len(ops))
	for i, op := range ops {
		s.output[i] = model.StatField(op, name)
	}
	return model.TransformSpec{
		"type":   TypeStats,
		"field":  s.field,
		"ops":    ops,
		"as":     s.OutputFields(),
		"median": s.median,
	}
}

// Transform writes the statistics onto every facet group, or returns a single
// summary row for flat values.
func (s *Stats) Transform(in model.Values) (model.Values, error) {
	ops := s.Ops()
	name := model.FieldName(s.field)

	if !in.Faceted() {
		row := model.NewRecord()
		s.collect(in.Rows).write(row, ops, name)
		return model.Values{Rows: []*model.Record{row}}, nil
	}

	groups := make([]*model.Record, 0, len(in.Groups))
	for _, g := range in.Groups {
		out := g.Clone()
		members, _ := model.GroupValues(g)
		s.collect(leaves(members)).write(out, ops, name)
		groups = append(groups, out)
	}
	return model.Values{Groups: groups}, nil
}

func (s *Stats) collect(rows []*model.Record) *summary {
	sum := &summary{}
	for _, row := range rows {
		v, ok := row.Lookup(s.field)
		if !ok {
			continue
		}
		if num, ok := utils.ToFloat(v); ok {
			sum.update(num)
		}
	}
	return sum
}

// summary accumulates the running statistics of one field
type summary struct {
	count  int
	sum    float64
	min    float64
	max    float64
	values []float64
}

func (s *summary) update(v float64) {
	if s.count == 0 || v < s.min {
		s.min = v
	}
	if s.count == 0 || v > s.max {
		s.max = v
	}
	s.count++
	s.sum += v
	s.values = append(s.values, v)
}

func (s *summary) mean() float64 {
	if s.count == 0 {
		return 0
	}
	return s.sum / float64(s.count)
}

// variance is the sample variance; zero for fewer than two values
func (s *summary) variance() float64 {
	if s.count < 2 {
		return 0
	}
	m := s.mean()
	var acc float64
	for _, v := range s.values {
		acc += (v - m) * (v - m)
	}
	return acc / float64(s.count-1)
}

func (s *summary) median() float64 {
	if s.count == 0 {
		return 0
	}
	sorted := make([]float64, len(s.values))
	copy(sorted, s.values)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// write stores each op under <op>_<field>. Everything but the count is nil
// when no numeric value was seen.
func (s *summary) write(rec *model.Record, ops []string, field string) {
	for _, op := range ops {
		var v any
		switch op {
		case model.StatCount:
			v = s.count
		case model.StatMin:
			v = s.min
		case model.StatMax:
			v = s.max
		case model.StatSum:
			v = s.sum
		case model.StatMean:
			v = s.mean()
		case model.StatVariance:
			v = s.variance()
		case model.StatStdev:
			v = math.Sqrt(s.variance())
		case model.StatMedian:
			v = s.median()
		}
		if s.count == 0 && op != model.StatCount {
			v = nil
		}
		rec.Set(model.StatField(op, field), v)
	}
}

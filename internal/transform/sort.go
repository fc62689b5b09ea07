package transform

import (
	"sort"

	"go-vis-pipeline/internal/model"
	"go-vis-pipeline/pkg/utils"
)

const TypeSort = "sort"

// Sort orders rows or facet groups by one or more fields.
type Sort struct {
	Base
	by         []*model.Field
	descending bool
}

func NewSort(pipelineName string, by []*model.Field, descending bool) *Sort {
	return &Sort{
		Base:       NewBase(TypeSort, pipelineName),
		by:         by,
		descending: descending,
	}
}

func (s *Sort) By() []*model.Field { return s.by }

func (s *Sort) Descending() bool { return s.descending }

func (s *Sort) Properties() map[string]any {
	return map[string]any{"by": s.by, "descending": s.descending}
}

func (s *Sort) Spec() model.TransformSpec {
	if len(s.by) == 0 {
		return nil
	}
	order := "ascending"
	if s.descending {
		order = "descending"
	}
	return model.TransformSpec{"type": TypeSort, "by": fieldSpecs(s.by), "order": order}
}

// Transform sorts flat rows. On faceted values the groups themselves are
// reordered when they carry a sort field, as aggregates and group keys do;
// otherwise the rows inside each group are sorted.
func (s *Sort) Transform(in model.Values) (model.Values, error) {
	specs := fieldSpecs(s.by)
	if !in.Faceted() {
		return model.Values{Rows: s.sorted(in.Rows, specs)}, nil
	}
	if carries(in.Groups, specs) {
		return model.Values{Groups: s.sorted(in.Groups, specs)}, nil
	}

	groups := make([]*model.Record, 0, len(in.Groups))
	for _, g := range in.Groups {
		out := g.Clone()
		if members, ok := model.GroupValues(g); ok {
			next, err := s.Transform(members)
			if err != nil {
				return model.Values{}, err
			}
			out.Set(model.ValuesKey, next)
		}
		groups = append(groups, out)
	}
	return model.Values{Groups: groups}, nil
}

// sorted returns stably sorted clones of recs.
func (s *Sort) sorted(recs []*model.Record, specs []string) []*model.Record {
	out := make([]*model.Record, len(recs))
	for i, r := range recs {
		out[i] = r.Clone()
	}
	sort.SliceStable(out, func(i, j int) bool {
		for _, spec := range specs {
			a, _ := out[i].Lookup(spec)
			b, _ := out[j].Lookup(spec)
			c := utils.Compare(a, b)
			if c == 0 {
				continue
			}
			if s.descending {
				return c > 0
			}
			return c < 0
		}
		return false
	})
	return out
}

// carries reports whether any group record holds one of the sort fields.
func carries(groups []*model.Record, specs []string) bool {
	for _, g := range groups {
		for _, spec := range specs {
			if _, ok := g.Lookup(spec); ok {
				return true
			}
		}
	}
	return false
}

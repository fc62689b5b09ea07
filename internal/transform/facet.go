package transform

import (
	"fmt"
	"strings"

	"go-vis-pipeline/internal/model"
)

const TypeFacet = "facet"

// Facet groups rows by the values of its key fields. It is the transform that
// splits a pipeline into a shared chain and a faceted fork.
type Facet struct {
	Base
	keys []*model.Field
}

func NewFacet(pipelineName string, keys []*model.Field) *Facet {
	return &Facet{
		Base: NewBase(TypeFacet, pipelineName),
		keys: keys,
	}
}

func (f *Facet) Keys() []*model.Field { return f.keys }

func (f *Facet) Properties() map[string]any {
	return map[string]any{"keys": f.keys}
}

func (f *Facet) ForkPipeline() bool { return true }

func (f *Facet) Spec() model.TransformSpec {
	return model.TransformSpec{"type": TypeFacet, "keys": fieldSpecs(f.keys)}
}

// Transform groups flat rows in first-seen key order. Already faceted values
// are faceted again inside every group, nesting one level deeper.
func (f *Facet) Transform(in model.Values) (model.Values, error) {
	if in.Faceted() {
		groups := make([]*model.Record, 0, len(in.Groups))
		for _, g := range in.Groups {
			out := g.Clone()
			if members, ok := model.GroupValues(g); ok {
				nested, err := f.Transform(members)
				if err != nil {
					return model.Values{}, err
				}
				out.Set(model.ValuesKey, nested)
			}
			groups = append(groups, out)
		}
		return model.Values{Groups: groups}, nil
	}

	specs := fieldSpecs(f.keys)
	type bucket struct {
		keys []any
		rows []*model.Record
	}
	var order []string
	buckets := make(map[string]*bucket)

	for _, row := range in.Rows {
		keys := make([]any, len(specs))
		for i, spec := range specs {
			keys[i], _ = row.Lookup(spec)
		}
		id := groupID(keys)
		b, ok := buckets[id]
		if !ok {
			b = &bucket{keys: keys}
			buckets[id] = b
			order = append(order, id)
		}
		b.rows = append(b.rows, row.Clone())
	}

	groups := make([]*model.Record, 0, len(order))
	for _, id := range order {
		b := buckets[id]
		var key any = groupLabel(b.keys)
		if len(b.keys) == 1 {
			key = b.keys[0]
		}
		groups = append(groups, model.NewGroup(key, b.keys, model.Values{Rows: b.rows}))
	}
	return model.Values{Groups: groups}, nil
}

// groupID encodes a key tuple so that two tuples share an id only when every
// part has the same type and the same value. Each part is length prefixed, so
// separators inside values cannot shift part boundaries.
func groupID(keys []any) string {
	var sb strings.Builder
	for _, k := range keys {
		v := fmt.Sprintf("%v", k)
		fmt.Fprintf(&sb, "%T/%d/%s", k, len(v), v)
	}
	return sb.String()
}

// groupLabel is the display key of a multi-key group.
func groupLabel(keys []any) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%v", k)
	}
	return strings.Join(parts, "|")
}

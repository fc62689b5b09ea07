package pipeline

import (
	"fmt"

	"go-vis-pipeline/internal/model"
	"go-vis-pipeline/internal/transform"
)

// reserved top-level datum attributes that never become fields
var reserved = map[string]bool{
	model.DataKey:   true,
	model.ValuesKey: true,
	model.KeysKey:   true,
	model.StatsKey:  true,
}

// schemaBuilder accumulates unique fields in first-seen order
type schemaBuilder struct {
	fields []*model.Field
	seen   map[string]bool
	parse  map[string]string
}

func (b *schemaBuilder) add(f *model.Field) {
	if b.seen[f.Name] {
		return
	}
	b.seen[f.Name] = true
	b.fields = append(b.fields, f)
}

// build derives fields from values. Faceted values contribute a synthetic key
// field and the attributes of their groups, with group keys named
// key_<depth>.
func (b *schemaBuilder) build(values model.Values, pipelineName string, depth int) {
	if values.Faceted() {
		b.add(model.NewField(model.KeyKey, "", model.Ordinal, pipelineName))
		depth++
		for _, g := range values.Groups {
			b.attributes(g, pipelineName, depth)
		}
		for _, g := range values.Groups {
			if members, ok := model.GroupValues(g); ok && members.Faceted() {
				b.build(members, pipelineName, depth)
			}
		}
		return
	}

	for _, row := range values.Rows {
		if raw, ok := row.Get(model.DataKey); ok {
			if rec, ok := raw.(*model.Record); ok {
				b.raw(rec, pipelineName)
			}
		}
		b.attributes(row, pipelineName, depth)
	}
}

func (b *schemaBuilder) raw(rec *model.Record, pipelineName string) {
	for _, k := range rec.Keys() {
		if b.seen[k] {
			continue
		}
		v, _ := rec.Get(k)
		b.add(model.NewField(k, model.RawAccessor, b.typeOf(k, v), pipelineName))
	}
}

func (b *schemaBuilder) attributes(rec *model.Record, pipelineName string, depth int) {
	for _, k := range rec.Keys() {
		if reserved[k] {
			continue
		}
		v, _ := rec.Get(k)
		name := k
		if k == model.KeyKey {
			name = fmt.Sprintf("%s_%d", model.KeyKey, depth)
		}
		if b.seen[name] {
			continue
		}
		b.add(model.NewField(name, "", b.typeOf(k, v), pipelineName))
	}
}

func (b *schemaBuilder) typeOf(k string, v any) model.FieldType {
	if hint, ok := b.parse[k]; ok {
		return model.TypeFromParse(hint)
	}
	return model.TypeOf(v)
}

// Schema infers the fields visible after the transforms in [begin, end) and
// returns them with the materialized values. Fields are unique by name and
// ordered by first appearance: raw source fields first, then whatever each
// transform adds. Past the fork, fields belong to the fork branch and
// transforms that do not run on faceted values are skipped, as in Spec.
func (p *Pipeline) Schema(begin, end int) ([]*model.Field, model.Values, error) {
	b := &schemaBuilder{seen: make(map[string]bool)}
	if src, ok := p.registry.Source(p.source); ok {
		b.parse = src.Format.Parse
	}

	values := p.ingest()
	b.build(values, p.name, 0)

	owner := p.name
	for _, t := range p.slice(begin, end) {
		if t.ForkPipeline() && p.forkName != "" {
			owner = p.forkName
		}
		if t.IsVisual() {
			continue
		}

		if stats, ok := t.(*transform.Stats); ok {
			stats.Spec()
			for _, name := range stats.OutputFields() {
				f := model.NewField(name, "", model.Linear, owner)
				b.add(f)
			}
		}

		if !t.OnFork() && owner != p.name {
			continue
		}

		next, err := t.Transform(values)
		if err != nil {
			return nil, model.Values{}, fmt.Errorf("transform %s (%s) failed: %w", t.ID(), t.Type(), err)
		}
		values = next
		b.build(values, owner, 0)
	}

	return b.fields, values, nil
}

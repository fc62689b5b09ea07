package pipeline

import (
	"fmt"
	"sort"

	"github.com/mohae/deepcopy"

	"go-vis-pipeline/internal/logger"
	"go-vis-pipeline/internal/model"
	"go-vis-pipeline/internal/transform"
)

// End selects the rest of the transform chain in Values and Schema
const End = -1

// Pipeline owns one source reference and an ordered transform chain. Once a
// fork-creating transform is present the chain splits at forkIndex into a
// shared branch and a faceted fork branch named forkName.
type Pipeline struct {
	name        string
	displayName string
	source      string
	registry    *Registry

	transforms []transform.Transform
	aggregates map[model.FieldKey]*transform.Stats
	forkName   string
	forkIndex  int

	scales     map[string]*Scale
	scaleOrder []string

	log logger.Logger
}

func (p *Pipeline) Name() string        { return p.name }
func (p *Pipeline) DisplayName() string { return p.displayName }
func (p *Pipeline) Source() string      { return p.source }
func (p *Pipeline) ForkName() string    { return p.forkName }

// ForkIndex is the position of the first fork-creating transform, or -1.
func (p *Pipeline) ForkIndex() int { return p.forkIndex }

// Transforms returns a copy of the ordered chain
func (p *Pipeline) Transforms() []transform.Transform {
	out := make([]transform.Transform, len(p.transforms))
	copy(out, p.transforms)
	return out
}

func (p *Pipeline) Info() model.PipelineInfo {
	return model.PipelineInfo{
		Name:        p.name,
		DisplayName: p.displayName,
		Source:      p.source,
		Transforms:  len(p.transforms),
		ForkName:    p.forkName,
		ForkIndex:   p.forkIndex,
		Scales:      len(p.scaleOrder),
	}
}

// Spec compiles the chain into dataflow specs: the pipeline itself and, once
// forked, the fork. The fork starts from a copy of the shared chain's
// fragments and never receives transforms that cannot run on faceted values.
func (p *Pipeline) Spec() []model.DataflowSpec {
	specs := []model.DataflowSpec{{
		Name:      p.name,
		Source:    p.source,
		Transform: []model.TransformSpec{},
	}}

	runHooks(p.registry.hooks.PreSpec, p, &specs)
	if len(specs) == 0 {
		specs = append(specs, model.DataflowSpec{Name: p.name, Source: p.source, Transform: []model.TransformSpec{}})
	}

	// active indexes the spec receiving fragments; it moves to each new fork
	active := 0
	forked := false
	for i, t := range p.transforms {
		if forked && !t.OnFork() {
			continue
		}

		if t.ForkPipeline() {
			forked = true
			if p.forkName == "" {
				p.forkName = p.name + "_" + t.Type()
				p.forkIndex = i
			}
			inherited := []model.TransformSpec{}
			if prev := specs[active].Transform; len(prev) > 0 {
				inherited = deepcopy.Copy(prev).([]model.TransformSpec)
			}
			specs = append(specs, model.DataflowSpec{
				Name:      p.forkName,
				Source:    p.source,
				Transform: inherited,
			})
			active = len(specs) - 1
		}

		if s := t.Spec(); len(s) > 0 {
			specs[active].Transform = append(specs[active].Transform, s)
		}
	}

	runHooks(p.registry.hooks.PostSpec, p, &specs)

	p.log.Debug("spec compiled", "specs", len(specs), "transforms", len(p.transforms))
	return specs
}

// Aggregate makes sure exactly one Stats transform computes statistics over
// field and attaches stat to it. Requesting the median enables it on the
// shared Stats transform.
func (p *Pipeline) Aggregate(field *model.Field, stat string) error {
	if field == nil {
		return &model.ValidationError{Subject: "aggregate", Reason: "missing field"}
	}
	if !model.IsStat(stat) {
		return &model.ValidationError{Subject: "aggregate", Reason: fmt.Sprintf("unknown statistic %q", stat)}
	}

	field.Stat = ""
	key := field.Key()
	median := stat == model.StatMedian

	if stats, ok := p.aggregates[key]; !ok {
		stats = transform.NewStats(p.name, field.Spec(), median)
		if _, err := p.AddTransform(stats); err != nil {
			return err
		}
		p.aggregates[key] = stats
		p.log.Debug("aggregate created", "field", field.Spec(), "transform", stats.ID())
	} else if median {
		stats.SetMedian(true)
	}

	field.Stat = stat
	return nil
}

// Values materializes the source after the transforms in [begin, end).
// Visual transforms are skipped.
func (p *Pipeline) Values(begin, end int) (model.Values, error) {
	values := p.ingest()
	for _, t := range p.slice(begin, end) {
		if t.IsVisual() {
			continue
		}
		next, err := t.Transform(values)
		if err != nil {
			return model.Values{}, fmt.Errorf("transform %s (%s) failed: %w", t.ID(), t.Type(), err)
		}
		values = next
	}
	return values, nil
}

// ingest deep copies the source values into datums. A missing source yields
// no values.
func (p *Pipeline) ingest() model.Values {
	src, ok := p.registry.Source(p.source)
	if !ok {
		return model.Values{Rows: []*model.Record{}}
	}
	return model.IngestAll(src.Values)
}

// slice clamps [begin, end) to the chain; a negative end means the end.
func (p *Pipeline) slice(begin, end int) []transform.Transform {
	n := len(p.transforms)
	if end < 0 || end > n {
		end = n
	}
	if begin < 0 {
		begin = 0
	}
	if begin > end {
		return nil
	}
	return p.transforms[begin:end]
}

// AddTransform places t on the branch its fields belong to and returns its
// index. Before the first fork, and for transforms that create or require a
// fork, that is the end of the chain. Otherwise a transform reading fork
// fields is appended and any other is spliced in just before the fork.
func (p *Pipeline) AddTransform(t transform.Transform) (int, error) {
	if t == nil {
		return -1, &model.ValidationError{Subject: "transform", Reason: "missing"}
	}
	t.SetPipelineName(p.name)

	if p.forkName == "" || t.ForkPipeline() || t.RequiresFork() {
		p.transforms = append(p.transforms, t)
		idx := len(p.transforms) - 1
		if t.ForkPipeline() && p.forkName == "" {
			p.forkName = p.name + "_" + t.Type()
			p.forkIndex = idx
		}
		p.log.Debug("transform appended", "transform", t.Type(), "index", idx)
		return idx, nil
	}

	onFork, err := p.readsFork(t)
	if err != nil {
		return -1, err
	}
	if onFork {
		p.transforms = append(p.transforms, t)
		idx := len(p.transforms) - 1
		p.log.Debug("transform appended to fork", "transform", t.Type(), "index", idx)
		return idx, nil
	}

	idx := p.forkIndex
	p.transforms = append(p.transforms, nil)
	copy(p.transforms[idx+1:], p.transforms[idx:])
	p.transforms[idx] = t
	p.forkIndex++
	p.log.Debug("transform spliced before fork", "transform", t.Type(), "index", idx)
	return idx, nil
}

// readsFork reports whether any field t reads lives on the fork branch, that
// is it carries the fork's name or an aggregate statistic. A field owned by
// any other pipeline is a composition error.
func (p *Pipeline) readsFork(t transform.Transform) (bool, error) {
	onFork := false
	for _, f := range referencedFields(t) {
		switch {
		case f.PipelineName == p.forkName || f.Stat != "":
			onFork = true
		case f.PipelineName == "" || f.PipelineName == p.name:
		default:
			return false, &model.ConfigurationError{
				Pipeline:  p.name,
				Transform: t.Type(),
				Field:     f.Spec(),
				Branch:    f.PipelineName,
			}
		}
	}
	return onFork, nil
}

// referencedFields collects the Field-typed properties of t, in property name
// order, followed by its expression fields.
func referencedFields(t transform.Transform) []*model.Field {
	props := t.Properties()
	names := make([]string, 0, len(props))
	for k := range props {
		names = append(names, k)
	}
	sort.Strings(names)

	var fields []*model.Field
	for _, k := range names {
		switch v := props[k].(type) {
		case *model.Field:
			if v != nil {
				fields = append(fields, v)
			}
		case model.Field:
			fields = append(fields, &v)
		case []*model.Field:
			for _, f := range v {
				if f != nil {
					fields = append(fields, f)
				}
			}
		}
	}
	for _, f := range t.ExprFields() {
		if f != nil {
			fields = append(fields, f)
		}
	}
	return fields
}

// RemoveTransform destroys and removes the transform with the given id.
func (p *Pipeline) RemoveTransform(id string) error {
	idx := -1
	for i, t := range p.transforms {
		if t.ID() == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return &model.NotFoundError{Kind: "transform", Name: id}
	}

	t := p.transforms[idx]
	t.Destroy()
	p.transforms = append(p.transforms[:idx], p.transforms[idx+1:]...)

	if stats, ok := t.(*transform.Stats); ok {
		for key, s := range p.aggregates {
			if s == stats {
				delete(p.aggregates, key)
			}
		}
	}

	p.resetFork()
	p.log.Debug("transform removed", "transform", t.Type(), "index", idx)
	return nil
}

// resetFork points the fork at the first remaining fork-creating transform,
// or clears it.
func (p *Pipeline) resetFork() {
	for i, t := range p.transforms {
		if t.ForkPipeline() {
			p.forkName = p.name + "_" + t.Type()
			p.forkIndex = i
			return
		}
	}
	p.forkName = ""
	p.forkIndex = -1
}

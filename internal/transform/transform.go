package transform

import (
	"github.com/google/uuid"

	"go-vis-pipeline/internal/model"
)

// Transform is one ordered operation in a pipeline. Implementations compute
// values themselves and describe themselves to the dataflow compiler.
type Transform interface {
	ID() string
	Type() string
	PipelineName() string
	SetPipelineName(name string)

	// Properties exposes the transform's configuration. Values may be
	// *model.Field, []*model.Field or scalars.
	Properties() map[string]any

	// Spec returns the dataflow fragment for this transform, or nil when it
	// contributes nothing to the compiled dataflow.
	Spec() model.TransformSpec

	// Transform maps input values to output values. It must not mutate in.
	Transform(in model.Values) (model.Values, error)

	// OnFork reports whether the transform also runs on a faceted branch.
	OnFork() bool
	// ForkPipeline reports whether the transform splits the chain into a fork.
	ForkPipeline() bool
	// RequiresFork reports whether the transform always belongs after the fork.
	RequiresFork() bool

	ExprFields() []*model.Field
	IsVisual() bool
	Destroy()
}

// Base supplies identity and the default capability set. Concrete transforms
// embed it and override what differs.
type Base struct {
	id           string
	kind         string
	pipelineName string
}

// NewBase creates the embedded base of a transform with a fresh ID.
func NewBase(kind, pipelineName string) Base {
	return Base{
		id:           uuid.NewString(),
		kind:         kind,
		pipelineName: pipelineName,
	}
}

func (b *Base) ID() string                  { return b.id }
func (b *Base) Type() string                { return b.kind }
func (b *Base) PipelineName() string        { return b.pipelineName }
func (b *Base) SetPipelineName(name string) { b.pipelineName = name }
func (b *Base) OnFork() bool                { return true }
func (b *Base) ForkPipeline() bool          { return false }
func (b *Base) RequiresFork() bool          { return false }
func (b *Base) ExprFields() []*model.Field  { return nil }
func (b *Base) IsVisual() bool              { return false }
func (b *Base) Destroy()                    {}
func (b *Base) Properties() map[string]any  { return map[string]any{} }
func (b *Base) Spec() model.TransformSpec   { return nil }

// apply runs fn over the leaf rows of in, recursing into facet groups, and
// returns a new collection with the same grouping.
func apply(in model.Values, fn func(rows []*model.Record) ([]*model.Record, error)) (model.Values, error) {
	if !in.Faceted() {
		rows, err := fn(in.Rows)
		if err != nil {
			return model.Values{}, err
		}
		if rows == nil {
			rows = []*model.Record{}
		}
		return model.Values{Rows: rows}, nil
	}

	groups := make([]*model.Record, 0, len(in.Groups))
	for _, g := range in.Groups {
		out := g.Clone()
		members, ok := model.GroupValues(g)
		if ok {
			next, err := apply(members, fn)
			if err != nil {
				return model.Values{}, err
			}
			out.Set(model.ValuesKey, next)
		}
		groups = append(groups, out)
	}
	return model.Values{Groups: groups}, nil
}

// leaves collects every leaf row of a possibly nested faceted collection.
func leaves(in model.Values) []*model.Record {
	if !in.Faceted() {
		return in.Rows
	}
	var rows []*model.Record
	for _, g := range in.Groups {
		if members, ok := model.GroupValues(g); ok {
			rows = append(rows, leaves(members)...)
		}
	}
	return rows
}

func fieldSpecs(fields []*model.Field) []string {
	specs := make([]string, 0, len(fields))
	for _, f := range fields {
		if f != nil {
			specs = append(specs, f.Spec())
		}
	}
	return specs
}

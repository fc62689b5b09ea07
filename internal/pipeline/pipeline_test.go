package pipeline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-vis-pipeline/internal/logger"
	"go-vis-pipeline/internal/model"
	"go-vis-pipeline/internal/transform"
)

// fakeTransform is a transform whose capabilities are set by the test
type fakeTransform struct {
	transform.Base
	spec         model.TransformSpec
	onFork       bool
	fork         bool
	requiresFork bool
	visual       bool
	props        map[string]any
	exprFields   []*model.Field
	destroyed    bool
	fn           func(model.Values) (model.Values, error)
}

func newFake(kind string) *fakeTransform {
	return &fakeTransform{
		Base:   transform.NewBase(kind, ""),
		spec:   model.TransformSpec{"type": kind},
		onFork: true,
		props:  map[string]any{},
	}
}

func (f *fakeTransform) Spec() model.TransformSpec  { return f.spec }
func (f *fakeTransform) OnFork() bool               { return f.onFork }
func (f *fakeTransform) ForkPipeline() bool         { return f.fork }
func (f *fakeTransform) RequiresFork() bool         { return f.requiresFork }
func (f *fakeTransform) IsVisual() bool             { return f.visual }
func (f *fakeTransform) Properties() map[string]any { return f.props }
func (f *fakeTransform) ExprFields() []*model.Field { return f.exprFields }
func (f *fakeTransform) Destroy()                   { f.destroyed = true }

func (f *fakeTransform) Transform(in model.Values) (model.Values, error) {
	if f.fn == nil {
		return in.Clone(), nil
	}
	return f.fn(in)
}

func forkFake() *fakeTransform {
	f := newFake("facet")
	f.fork = true
	return f
}

// setAttr returns a transform function setting key=v on every top-level row
// or group
func setAttr(key string, v any) func(model.Values) (model.Values, error) {
	return func(in model.Values) (model.Values, error) {
		out := in.Clone()
		for _, r := range out.Rows {
			r.Set(key, v)
		}
		for _, g := range out.Groups {
			g.Set(key, v)
		}
		return out, nil
	}
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry(WithLogger(logger.NewLogger(logger.TestConfig())))
	require.NoError(t, r.RegisterSource(&model.Source{
		Name: "sales",
		Values: []*model.Record{
			model.RecordOf("cat", "a", "price", 10, "day", "2024-01-01"),
			model.RecordOf("cat", "b", "price", 20, "day", "2024-01-02"),
			model.RecordOf("cat", "a", "price", 30, "day", "2024-01-03"),
		},
		Format: model.Format{Type: "json", Parse: map[string]string{"day": "date"}},
	}))
	return r
}

func mustAdd(t *testing.T, p *Pipeline, tr transform.Transform) int {
	t.Helper()
	idx, err := p.AddTransform(tr)
	require.NoError(t, err)
	return idx
}

func fieldNames(fields []*model.Field) []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return names
}

func findField(fields []*model.Field, name string) *model.Field {
	for _, f := range fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func TestPipeline_Spec(t *testing.T) {
	t.Run("Should compile one spec without a fork", func(t *testing.T) {
		p := newTestRegistry(t).NewPipeline("sales")
		a, b, silent := newFake("a"), newFake("b"), newFake("visual")
		silent.spec = nil
		mustAdd(t, p, a)
		mustAdd(t, p, silent)
		mustAdd(t, p, b)

		specs := p.Spec()

		require.Len(t, specs, 1)
		assert.Equal(t, "pipeline_0", specs[0].Name)
		assert.Equal(t, "sales", specs[0].Source)
		assert.Equal(t, []model.TransformSpec{{"type": "a"}, {"type": "b"}}, specs[0].Transform)
	})

	t.Run("Should compile an empty chain", func(t *testing.T) {
		p := newTestRegistry(t).NewPipeline("sales")

		specs := p.Spec()

		require.Len(t, specs, 1)
		assert.Empty(t, specs[0].Transform)
	})

	t.Run("Should split at the fork", func(t *testing.T) {
		p := newTestRegistry(t).NewPipeline("sales")
		filter, err := transform.NewFilter("", "d.data.price > 10", nil)
		require.NoError(t, err)
		mustAdd(t, p, filter)
		mustAdd(t, p, forkFake())

		specs := p.Spec()

		require.Len(t, specs, 2)
		assert.Equal(t, []model.TransformSpec{filter.Spec()}, specs[0].Transform)
		assert.Equal(t, "pipeline_0_facet", specs[1].Name)
		assert.Equal(t, "sales", specs[1].Source)
		assert.Equal(t, []model.TransformSpec{filter.Spec(), {"type": "facet"}}, specs[1].Transform)
		assert.Equal(t, "pipeline_0_facet", p.ForkName())
		assert.Equal(t, 1, p.ForkIndex())
	})

	t.Run("Should copy the shared chain into the fork", func(t *testing.T) {
		p := newTestRegistry(t).NewPipeline("sales")
		mustAdd(t, p, newFake("a"))
		mustAdd(t, p, forkFake())

		specs := p.Spec()
		specs[1].Transform[0]["type"] = "changed"

		assert.Equal(t, "a", specs[0].Transform[0]["type"])
	})

	t.Run("Should keep pre-fork-only transforms off the fork", func(t *testing.T) {
		p := newTestRegistry(t).NewPipeline("sales")
		mustAdd(t, p, forkFake())
		late := newFake("late")
		late.onFork = false
		late.props["field"] = &model.Field{Name: "key", PipelineName: p.ForkName()}
		mustAdd(t, p, late)
		after := newFake("after")
		after.props["field"] = &model.Field{Name: "key", PipelineName: p.ForkName()}
		mustAdd(t, p, after)

		specs := p.Spec()

		require.Len(t, specs, 2)
		assert.Empty(t, specs[0].Transform)
		assert.Equal(t, []model.TransformSpec{{"type": "facet"}, {"type": "after"}}, specs[1].Transform)
	})

	t.Run("Should reuse the first fork name", func(t *testing.T) {
		p := newTestRegistry(t).NewPipeline("sales")
		mustAdd(t, p, forkFake())
		second := newFake("window")
		second.fork = true
		mustAdd(t, p, second)

		specs := p.Spec()

		require.Len(t, specs, 3)
		assert.Equal(t, "pipeline_0_facet", specs[1].Name)
		assert.Equal(t, "pipeline_0_facet", specs[2].Name)
		assert.Equal(t, []model.TransformSpec{{"type": "facet"}, {"type": "window"}}, specs[2].Transform)
		assert.Equal(t, 0, p.ForkIndex())
	})

	t.Run("Should survive hooks that clear the spec list", func(t *testing.T) {
		r := newTestRegistry(t)
		r.OnPreSpec(func(p *Pipeline, specs *[]model.DataflowSpec) {
			*specs = (*specs)[:0]
		})
		p := r.NewPipeline("sales")
		mustAdd(t, p, newFake("a"))
		mustAdd(t, p, forkFake())

		var specs []model.DataflowSpec
		require.NotPanics(t, func() { specs = p.Spec() })

		require.Len(t, specs, 2)
		assert.Equal(t, "pipeline_0", specs[0].Name)
		assert.Equal(t, []model.TransformSpec{{"type": "a"}}, specs[0].Transform)
		assert.Equal(t, "pipeline_0_facet", specs[1].Name)
	})

	t.Run("Should run hooks around compilation", func(t *testing.T) {
		r := newTestRegistry(t)
		var seen int
		r.OnPreSpec(func(p *Pipeline, specs *[]model.DataflowSpec) {
			(*specs)[0].Transform = append((*specs)[0].Transform, model.TransformSpec{"type": "injected"})
		})
		r.OnPostSpec(func(p *Pipeline, specs *[]model.DataflowSpec) {
			seen = len(*specs)
		})
		p := r.NewPipeline("sales")
		mustAdd(t, p, newFake("a"))
		mustAdd(t, p, forkFake())

		specs := p.Spec()

		assert.Equal(t, 2, seen)
		assert.Equal(t, []model.TransformSpec{{"type": "injected"}, {"type": "a"}}, specs[0].Transform)
		assert.Equal(t, "injected", specs[1].Transform[0]["type"])
	})
}

func TestPipeline_Aggregate(t *testing.T) {
	stats := func(p *Pipeline) []*transform.Stats {
		var out []*transform.Stats
		for _, tr := range p.Transforms() {
			if s, ok := tr.(*transform.Stats); ok {
				out = append(out, s)
			}
		}
		return out
	}

	t.Run("Should be idempotent", func(t *testing.T) {
		p := newTestRegistry(t).NewPipeline("sales")
		field := model.NewField("price", model.RawAccessor, model.Linear, p.Name())

		require.NoError(t, p.Aggregate(field, model.StatMedian))
		require.NoError(t, p.Aggregate(field, model.StatMedian))

		all := stats(p)
		require.Len(t, all, 1)
		assert.True(t, all[0].Median())
		assert.Equal(t, "data.price", all[0].Field())
		assert.Equal(t, model.StatMedian, field.Stat)
		assert.Equal(t, "median_price", field.Spec())
	})

	t.Run("Should reuse one stats transform per field", func(t *testing.T) {
		p := newTestRegistry(t).NewPipeline("sales")
		field := model.NewField("price", model.RawAccessor, model.Linear, p.Name())

		require.NoError(t, p.Aggregate(field, model.StatSum))
		require.NoError(t, p.Aggregate(field, model.StatMean))

		all := stats(p)
		require.Len(t, all, 1)
		assert.False(t, all[0].Median())
		assert.Equal(t, model.StatMean, field.Stat)
	})

	t.Run("Should enable the median on an existing aggregate", func(t *testing.T) {
		p := newTestRegistry(t).NewPipeline("sales")
		field := model.NewField("price", model.RawAccessor, model.Linear, p.Name())

		require.NoError(t, p.Aggregate(field, model.StatSum))
		require.NoError(t, p.Aggregate(field, model.StatMedian))

		all := stats(p)
		require.Len(t, all, 1)
		assert.True(t, all[0].Median())
	})

	t.Run("Should keep fields with the same spec text apart", func(t *testing.T) {
		p := newTestRegistry(t).NewPipeline("sales")
		nested := &model.Field{Name: "b", Accessor: "data.a."}
		dotted := &model.Field{Name: "a.b", Accessor: "data."}
		require.Equal(t, nested.Spec(), dotted.Spec())

		require.NoError(t, p.Aggregate(nested, model.StatSum))
		require.NoError(t, p.Aggregate(dotted, model.StatSum))

		assert.Len(t, stats(p), 2)
	})

	t.Run("Should reject unknown statistics", func(t *testing.T) {
		p := newTestRegistry(t).NewPipeline("sales")
		field := model.NewField("price", model.RawAccessor, model.Linear, p.Name())

		err := p.Aggregate(field, "mode")

		assert.True(t, errors.Is(err, model.ErrValidation))
		assert.Empty(t, p.Transforms())
	})

	t.Run("Should place aggregates after the fork", func(t *testing.T) {
		p := newTestRegistry(t).NewPipeline("sales")
		mustAdd(t, p, newFake("a"))
		mustAdd(t, p, forkFake())
		field := model.NewField("price", model.RawAccessor, model.Linear, p.Name())

		require.NoError(t, p.Aggregate(field, model.StatSum))

		chain := p.Transforms()
		require.Len(t, chain, 3)
		_, ok := chain[2].(*transform.Stats)
		assert.True(t, ok)
		assert.Equal(t, p.Name(), chain[2].PipelineName())
	})
}

func TestPipeline_AddTransform(t *testing.T) {
	forked := func(t *testing.T) *Pipeline {
		t.Helper()
		p := newTestRegistry(t).NewPipeline("sales")
		mustAdd(t, p, newFake("a"))
		mustAdd(t, p, newFake("b"))
		mustAdd(t, p, newFake("c"))
		mustAdd(t, p, forkFake())
		tail := newFake("tail")
		tail.props["field"] = &model.Field{Name: "key", PipelineName: p.ForkName()}
		require.Equal(t, 4, mustAdd(t, p, tail))
		require.Equal(t, 3, p.ForkIndex())
		return p
	}

	t.Run("Should append before any fork", func(t *testing.T) {
		p := newTestRegistry(t).NewPipeline("sales")
		tr := newFake("a")

		idx := mustAdd(t, p, tr)

		assert.Equal(t, 0, idx)
		assert.Equal(t, "pipeline_0", tr.PipelineName())
		assert.Equal(t, -1, p.ForkIndex())
	})

	t.Run("Should record the fork when it is appended", func(t *testing.T) {
		p := newTestRegistry(t).NewPipeline("sales")
		mustAdd(t, p, newFake("a"))

		idx := mustAdd(t, p, forkFake())

		assert.Equal(t, 1, idx)
		assert.Equal(t, "pipeline_0_facet", p.ForkName())
		assert.Equal(t, 1, p.ForkIndex())
	})

	t.Run("Should append transforms reading fork fields", func(t *testing.T) {
		p := forked(t)
		tr := newFake("sort")
		tr.props["by"] = []*model.Field{{Name: "key", PipelineName: p.ForkName()}}

		idx := mustAdd(t, p, tr)

		assert.Equal(t, 5, idx)
		assert.Equal(t, 3, p.ForkIndex())
	})

	t.Run("Should append transforms reading aggregated fields", func(t *testing.T) {
		p := forked(t)
		tr := newFake("filter")
		tr.exprFields = []*model.Field{{Name: "price", Accessor: model.RawAccessor, PipelineName: p.Name(), Stat: model.StatSum}}

		idx := mustAdd(t, p, tr)

		assert.Equal(t, 5, idx)
	})

	t.Run("Should splice shared transforms before the fork", func(t *testing.T) {
		p := forked(t)
		tr := newFake("filter")
		tr.props["field"] = model.NewField("price", model.RawAccessor, model.Linear, p.Name())

		idx := mustAdd(t, p, tr)

		assert.Equal(t, 3, idx)
		assert.Equal(t, 4, p.ForkIndex())
		chain := p.Transforms()
		assert.Equal(t, "filter", chain[3].Type())
		assert.True(t, chain[4].ForkPipeline())
	})

	t.Run("Should classify mixed references as fork bound", func(t *testing.T) {
		p := forked(t)
		tr := newFake("formula")
		tr.exprFields = []*model.Field{
			{Name: "price", Accessor: model.RawAccessor, PipelineName: p.Name()},
			{Name: "key", PipelineName: p.ForkName()},
		}

		idx := mustAdd(t, p, tr)

		assert.Equal(t, 5, idx)
	})

	t.Run("Should append fork-creating transforms after the fork", func(t *testing.T) {
		p := forked(t)
		tr := newFake("window")
		tr.fork = true

		idx := mustAdd(t, p, tr)

		assert.Equal(t, 5, idx)
		assert.Equal(t, 3, p.ForkIndex())
	})

	t.Run("Should reject fields from unknown branches", func(t *testing.T) {
		p := forked(t)
		tr := newFake("filter")
		tr.props["field"] = &model.Field{Name: "price", PipelineName: "pipeline_9"}

		_, err := p.AddTransform(tr)

		var cerr *model.ConfigurationError
		require.True(t, errors.As(err, &cerr))
		assert.Equal(t, "pipeline_9", cerr.Branch)
		assert.True(t, errors.Is(err, model.ErrConfiguration))
		assert.Len(t, p.Transforms(), 5)
		assert.Equal(t, 3, p.ForkIndex())
	})
}

func TestPipeline_RemoveTransform(t *testing.T) {
	t.Run("Should destroy and remove the transform", func(t *testing.T) {
		p := newTestRegistry(t).NewPipeline("sales")
		a, b := newFake("a"), newFake("b")
		mustAdd(t, p, a)
		mustAdd(t, p, b)

		require.NoError(t, p.RemoveTransform(a.ID()))

		assert.True(t, a.destroyed)
		assert.Equal(t, []transform.Transform{b}, p.Transforms())
	})

	t.Run("Should fail for unknown transforms", func(t *testing.T) {
		p := newTestRegistry(t).NewPipeline("sales")

		err := p.RemoveTransform("missing")

		var nerr *model.NotFoundError
		require.True(t, errors.As(err, &nerr))
		assert.Equal(t, "transform", nerr.Kind)
	})

	t.Run("Should move the fork when shared transforms go", func(t *testing.T) {
		p := newTestRegistry(t).NewPipeline("sales")
		a := newFake("a")
		mustAdd(t, p, a)
		mustAdd(t, p, forkFake())

		require.NoError(t, p.RemoveTransform(a.ID()))

		assert.Equal(t, 0, p.ForkIndex())
		assert.Equal(t, "pipeline_0_facet", p.ForkName())
	})

	t.Run("Should clear the fork with its last fork transform", func(t *testing.T) {
		p := newTestRegistry(t).NewPipeline("sales")
		fork := forkFake()
		mustAdd(t, p, fork)

		require.NoError(t, p.RemoveTransform(fork.ID()))

		assert.Empty(t, p.ForkName())
		assert.Equal(t, -1, p.ForkIndex())
		assert.Len(t, p.Spec(), 1)
	})

	t.Run("Should forget removed aggregates", func(t *testing.T) {
		p := newTestRegistry(t).NewPipeline("sales")
		field := model.NewField("price", model.RawAccessor, model.Linear, p.Name())
		require.NoError(t, p.Aggregate(field, model.StatSum))
		first := p.Transforms()[0]

		require.NoError(t, p.RemoveTransform(first.ID()))
		require.NoError(t, p.Aggregate(field, model.StatSum))

		chain := p.Transforms()
		require.Len(t, chain, 1)
		assert.NotEqual(t, first.ID(), chain[0].ID())
	})
}

func TestPipeline_Values(t *testing.T) {
	t.Run("Should ingest deep copies of the source", func(t *testing.T) {
		r := newTestRegistry(t)
		p := r.NewPipeline("sales")

		values, err := p.Values(0, End)
		require.NoError(t, err)
		raw, _ := values.Rows[0].Get(model.DataKey)
		raw.(*model.Record).Set("price", 99)

		src, _ := r.Source("sales")
		price, _ := src.Values[0].Get("price")
		assert.Equal(t, 10, price)
		assert.Len(t, values.Rows, 3)
	})

	t.Run("Should apply the requested slice", func(t *testing.T) {
		p := newTestRegistry(t).NewPipeline("sales")
		first, second := newFake("first"), newFake("second")
		first.fn = setAttr("first", true)
		second.fn = setAttr("second", true)
		mustAdd(t, p, first)
		mustAdd(t, p, second)

		values, err := p.Values(0, 1)
		require.NoError(t, err)
		_, hasFirst := values.Rows[0].Get("first")
		_, hasSecond := values.Rows[0].Get("second")
		assert.True(t, hasFirst)
		assert.False(t, hasSecond)

		values, err = p.Values(1, End)
		require.NoError(t, err)
		_, hasFirst = values.Rows[0].Get("first")
		_, hasSecond = values.Rows[0].Get("second")
		assert.False(t, hasFirst)
		assert.True(t, hasSecond)

		values, err = p.Values(5, 10)
		require.NoError(t, err)
		_, hasFirst = values.Rows[0].Get("first")
		assert.False(t, hasFirst)
	})

	t.Run("Should skip visual transforms", func(t *testing.T) {
		p := newTestRegistry(t).NewPipeline("sales")
		visual := newFake("mark")
		visual.visual = true
		visual.fn = func(model.Values) (model.Values, error) { return model.Values{}, errors.New("must not run") }
		mustAdd(t, p, visual)

		values, err := p.Values(0, End)

		require.NoError(t, err)
		assert.Len(t, values.Rows, 3)
	})

	t.Run("Should return no values for a missing source", func(t *testing.T) {
		p := newTestRegistry(t).NewPipeline("nowhere")

		values, err := p.Values(0, End)

		require.NoError(t, err)
		assert.Equal(t, 0, values.Len())
	})

	t.Run("Should order facet groups by an aggregate", func(t *testing.T) {
		p := newTestRegistry(t).NewPipeline("sales")
		mustAdd(t, p, transform.NewFacet(p.Name(), []*model.Field{model.ParseField("data.cat")}))
		field := model.NewField("price", model.RawAccessor, model.Linear, p.Name())
		require.NoError(t, p.Aggregate(field, model.StatSum))
		mustAdd(t, p, transform.NewSort(p.Name(), []*model.Field{field}, false))

		values, err := p.Values(0, End)

		require.NoError(t, err)
		require.Len(t, values.Groups, 2)
		var keys, sums []any
		for _, g := range values.Groups {
			k, _ := g.Get(model.KeyKey)
			v, _ := g.Get("sum_price")
			keys = append(keys, k)
			sums = append(sums, v)
		}
		assert.Equal(t, []any{"b", "a"}, keys)
		assert.Equal(t, []any{20.0, 40.0}, sums)
		last := p.Spec()[1].Transform
		assert.Equal(t, []string{"sum_price"}, last[len(last)-1]["by"])
	})

	t.Run("Should surface transform failures", func(t *testing.T) {
		p := newTestRegistry(t).NewPipeline("sales")
		broken := newFake("broken")
		broken.fn = func(model.Values) (model.Values, error) { return model.Values{}, errors.New("boom") }
		mustAdd(t, p, broken)

		_, err := p.Values(0, End)

		assert.ErrorContains(t, err, "boom")
	})
}

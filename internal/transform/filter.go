package transform

import (
	"fmt"

	"go-vis-pipeline/internal/model"
)

const TypeFilter = "filter"

// Filter keeps the rows for which its test expression evaluates to true
type Filter struct {
	Base
	test   *expression
	fields []*model.Field
}

// NewFilter compiles test and returns a filter scoped to pipelineName.
// exprFields lists the fields the test reads.
func NewFilter(pipelineName, test string, exprFields []*model.Field) (*Filter, error) {
	expr, err := compileExpr(test)
	if err != nil {
		return nil, err
	}
	return &Filter{
		Base:   NewBase(TypeFilter, pipelineName),
		test:   expr,
		fields: exprFields,
	}, nil
}

func (f *Filter) Test() string { return f.test.source }

func (f *Filter) Properties() map[string]any {
	return map[string]any{"test": f.test.source}
}

func (f *Filter) ExprFields() []*model.Field { return f.fields }

// OnFork is false: rows are filtered once on the shared chain.
func (f *Filter) OnFork() bool { return false }

func (f *Filter) Spec() model.TransformSpec {
	return model.TransformSpec{"type": TypeFilter, "test": f.test.source}
}

func (f *Filter) Transform(in model.Values) (model.Values, error) {
	return apply(in, func(rows []*model.Record) ([]*model.Record, error) {
		kept := make([]*model.Record, 0, len(rows))
		for _, row := range rows {
			out, err := f.test.eval(row)
			if err != nil {
				return nil, err
			}
			ok, isBool := out.(bool)
			if !isBool {
				return nil, fmt.Errorf("filter test %q returned %T, not bool", f.test.source, out)
			}
			if ok {
				kept = append(kept, row.Clone())
			}
		}
		return kept, nil
	})
}

package transform

import (
	"go-vis-pipeline/internal/model"
)

const TypeFormula = "formula"

// Formula derives a new top-level attribute from an expression over each datum
type Formula struct {
	Base
	field  string
	expr   *expression
	fields []*model.Field
}

func NewFormula(pipelineName, field, expr string, exprFields []*model.Field) (*Formula, error) {
	compiled, err := compileExpr(expr)
	if err != nil {
		return nil, err
	}
	return &Formula{
		Base:   NewBase(TypeFormula, pipelineName),
		field:  field,
		expr:   compiled,
		fields: exprFields,
	}, nil
}

// Field is the name of the derived attribute
func (f *Formula) Field() string { return f.field }

func (f *Formula) Expr() string { return f.expr.source }

func (f *Formula) Properties() map[string]any {
	return map[string]any{"field": f.field, "expr": f.expr.source}
}

func (f *Formula) ExprFields() []*model.Field { return f.fields }

func (f *Formula) OnFork() bool { return false }

func (f *Formula) Spec() model.TransformSpec {
	return model.TransformSpec{"type": TypeFormula, "field": f.field, "expr": f.expr.source}
}

func (f *Formula) Transform(in model.Values) (model.Values, error) {
	return apply(in, func(rows []*model.Record) ([]*model.Record, error) {
		out := make([]*model.Record, 0, len(rows))
		for _, row := range rows {
			v, err := f.expr.eval(row)
			if err != nil {
				return nil, err
			}
			next := row.Clone()
			next.Set(f.field, v)
			out = append(out, next)
		}
		return out, nil
	})
}

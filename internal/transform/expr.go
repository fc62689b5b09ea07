package transform

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"go-vis-pipeline/internal/model"
)

// DatumVar is the CEL variable a datum is bound to in filter tests and
// formula expressions, e.g. `d.data.price > 10`.
const DatumVar = "d"

var celEnv = sync.OnceValues(func() (*cel.Env, error) {
	return cel.NewEnv(cel.Variable(DatumVar, cel.MapType(cel.StringType, cel.DynType)))
})

// expression is a compiled CEL program bound to its source text
type expression struct {
	source  string
	program cel.Program
}

func compileExpr(source string) (*expression, error) {
	env, err := celEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to create expression environment: %w", err)
	}
	ast, iss := env.Compile(source)
	if iss != nil && iss.Err() != nil {
		return nil, &model.ValidationError{Subject: "expression", Reason: source, Err: iss.Err()}
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, &model.ValidationError{Subject: "expression", Reason: source, Err: err}
	}
	return &expression{source: source, program: prg}, nil
}

func (e *expression) eval(d *model.Record) (any, error) {
	out, _, err := e.program.Eval(map[string]any{DatumVar: d.Map()})
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate %q: %w", e.source, err)
	}
	return out.Value(), nil
}

package pipeline

import "go-vis-pipeline/internal/model"

// SpecHook may rewrite the spec list of a pipeline while it is compiled
type SpecHook func(p *Pipeline, specs *[]model.DataflowSpec)

// Hooks are the extension points run around Pipeline.Spec
type Hooks struct {
	PreSpec  []SpecHook
	PostSpec []SpecHook
}

func runHooks(hooks []SpecHook, p *Pipeline, specs *[]model.DataflowSpec) {
	for _, h := range hooks {
		if h != nil {
			h(p, specs)
		}
	}
}

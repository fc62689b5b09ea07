package pipeline

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"go-vis-pipeline/internal/logger"
	"go-vis-pipeline/internal/model"
	"go-vis-pipeline/internal/transform"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Registry owns every pipeline and data source of one editing session. It is
// not safe for concurrent use; callers serialize access.
type Registry struct {
	pipelines   map[string]*Pipeline
	order       []string
	sources     map[string]*model.Source
	sourceOrder []string
	hooks       Hooks
	log         logger.Logger
	pipelineSeq int
	scaleSeq    int
}

// Option configures a Registry
type Option func(*Registry)

func WithLogger(l logger.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.log = l
		}
	}
}

func WithHooks(h Hooks) Option {
	return func(r *Registry) {
		r.hooks = h
	}
}

func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		pipelines: make(map[string]*Pipeline),
		sources:   make(map[string]*model.Source),
		log:       logger.GetDefault(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// OnPreSpec registers a hook run before a pipeline compiles its transforms.
func (r *Registry) OnPreSpec(h SpecHook) { r.hooks.PreSpec = append(r.hooks.PreSpec, h) }

// OnPostSpec registers a hook run after a pipeline compiled its transforms.
func (r *Registry) OnPostSpec(h SpecHook) { r.hooks.PostSpec = append(r.hooks.PostSpec, h) }

// RegisterSource adds or replaces a data source
func (r *Registry) RegisterSource(src *model.Source) error {
	if src == nil {
		return &model.ValidationError{Subject: "source", Reason: "missing"}
	}
	if err := validate.Struct(src); err != nil {
		return &model.ValidationError{Subject: "source", Reason: "invalid descriptor", Err: err}
	}
	if _, ok := r.sources[src.Name]; !ok {
		r.sourceOrder = append(r.sourceOrder, src.Name)
	}
	r.sources[src.Name] = src
	r.log.Debug("source registered", "source", src.Name, "values", len(src.Values))
	return nil
}

func (r *Registry) Source(name string) (*model.Source, bool) {
	src, ok := r.sources[name]
	return src, ok
}

// Sources returns the registered sources in registration order
func (r *Registry) Sources() []*model.Source {
	out := make([]*model.Source, 0, len(r.sourceOrder))
	for _, name := range r.sourceOrder {
		out = append(out, r.sources[name])
	}
	return out
}

// NewPipeline creates and registers a pipeline reading from source. The
// source does not have to be registered yet.
func (r *Registry) NewPipeline(source string) *Pipeline {
	n := r.pipelineSeq
	r.pipelineSeq++

	name := fmt.Sprintf("pipeline_%d", n)
	p := &Pipeline{
		name:        name,
		displayName: "Data Pipeline " + codename(n),
		source:      source,
		registry:    r,
		aggregates:  make(map[model.FieldKey]*transform.Stats),
		forkIndex:   -1,
		scales:      make(map[string]*Scale),
		log:         r.log.With("pipeline", name),
	}
	r.pipelines[name] = p
	r.order = append(r.order, name)
	r.log.Debug("pipeline created", "pipeline", name, "source", source)
	return p
}

func (r *Registry) Pipeline(name string) (*Pipeline, error) {
	p, ok := r.pipelines[name]
	if !ok {
		return nil, &model.NotFoundError{Kind: "pipeline", Name: name}
	}
	return p, nil
}

// Pipelines returns every pipeline in creation order
func (r *Registry) Pipelines() []*Pipeline {
	out := make([]*Pipeline, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.pipelines[name])
	}
	return out
}

func (r *Registry) RemovePipeline(name string) error {
	if _, ok := r.pipelines[name]; !ok {
		return &model.NotFoundError{Kind: "pipeline", Name: name}
	}
	delete(r.pipelines, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.log.Debug("pipeline removed", "pipeline", name)
	return nil
}

func (r *Registry) nextScaleID() string {
	id := fmt.Sprintf("scale_%d", r.scaleSeq)
	r.scaleSeq++
	return id
}

// codename spells n in bijective base 26: 0 is A, 25 is Z, 26 is AA.
func codename(n int) string {
	var b strings.Builder
	var letters []byte
	for n >= 0 {
		letters = append(letters, byte('A'+n%26))
		n = n/26 - 1
	}
	for i := len(letters) - 1; i >= 0; i-- {
		b.WriteByte(letters[i])
	}
	return b.String()
}

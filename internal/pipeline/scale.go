package pipeline

import (
	"reflect"

	"dario.cat/mergo"
	"github.com/mohae/deepcopy"

	"go-vis-pipeline/internal/model"
)

// Scale is a domain to range mapping owned by the pipeline whose output it
// scales. Used and Manual protect it from Bookkeep.
type Scale struct {
	ID           string                `json:"id"`
	DisplayName  string                `json:"displayName"`
	PipelineName string                `json:"pipelineName"`
	Definition   model.ScaleDefinition `json:"definition"`
	Used         bool                  `json:"used"`
	Manual       bool                  `json:"manual"`

	// search is the normalized request the scale was created for, before
	// defaults were filled in
	search model.ScaleDefinition
}

// Equals reports whether def normalizes to the definition this scale was
// requested with or to its completed definition.
func (s *Scale) Equals(def model.ScaleDefinition) bool {
	n := def.Normalize()
	return reflect.DeepEqual(s.search, n) || reflect.DeepEqual(s.Definition, n)
}

// Scale returns the registered scale equal to search, or registers a new one
// whose unset properties are taken from defaults.
func (p *Pipeline) Scale(search, defaults model.ScaleDefinition, displayName string) (*Scale, error) {
	if err := validate.Struct(search); err != nil {
		return nil, &model.ValidationError{Subject: "scale definition", Reason: "malformed search", Err: err}
	}
	if err := validate.Struct(defaults); err != nil {
		return nil, &model.ValidationError{Subject: "scale definition", Reason: "malformed defaults", Err: err}
	}

	for _, id := range p.scaleOrder {
		if s := p.scales[id]; s.Equals(search) {
			return s, nil
		}
	}

	normalized := search.Normalize()
	definition := deepcopy.Copy(normalized).(model.ScaleDefinition)
	fill := deepcopy.Copy(defaults.Normalize()).(model.ScaleDefinition)
	if err := mergo.Merge(&definition, fill, mergo.WithoutDereference); err != nil {
		return nil, &model.ValidationError{Subject: "scale definition", Reason: "cannot apply defaults", Err: err}
	}

	s := &Scale{
		ID:           p.registry.nextScaleID(),
		DisplayName:  displayName,
		PipelineName: p.name,
		Definition:   definition.Normalize(),
		search:       normalized,
	}
	p.scales[s.ID] = s
	p.scaleOrder = append(p.scaleOrder, s.ID)
	p.log.Debug("scale created", "scale", s.ID, "name", displayName)
	return s, nil
}

// Scales returns the registered scales in creation order
func (p *Pipeline) Scales() []*Scale {
	out := make([]*Scale, 0, len(p.scaleOrder))
	for _, id := range p.scaleOrder {
		out = append(out, p.scales[id])
	}
	return out
}

func (p *Pipeline) ScaleByID(id string) (*Scale, error) {
	s, ok := p.scales[id]
	if !ok {
		return nil, &model.NotFoundError{Kind: "scale", Name: id}
	}
	return s, nil
}

// Bookkeep drops every scale that is neither used nor manual and returns how
// many were dropped.
func (p *Pipeline) Bookkeep() int {
	kept := p.scaleOrder[:0]
	removed := 0
	for _, id := range p.scaleOrder {
		s := p.scales[id]
		if s.Used || s.Manual {
			kept = append(kept, id)
			continue
		}
		delete(p.scales, id)
		removed++
	}
	p.scaleOrder = kept
	if removed > 0 {
		p.log.Debug("scales collected", "removed", removed, "kept", len(kept))
	}
	return removed
}

package model

// CreatePipelineRequest is the body for POST /api/v1/pipelines
type CreatePipelineRequest struct {
	Source string `json:"source"`
}

// TransformRequest declares a transform by type and property bag
type TransformRequest struct {
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
}

// AggregateRequest asks a pipeline to aggregate a field
type AggregateRequest struct {
	Field Field  `json:"field"`
	Stat  string `json:"stat"`
}

// ScaleRequest resolves or creates a scale on a pipeline
type ScaleRequest struct {
	Definition  ScaleDefinition `json:"definition"`
	Defaults    ScaleDefinition `json:"defaults"`
	DisplayName string          `json:"displayName"`
	Used        bool            `json:"used"`
	Manual      bool            `json:"manual"`
}

// SourceRef locates a source for a pipeline document
type SourceRef struct {
	Name  string            `json:"name"`
	Path  string            `json:"path"`
	Parse map[string]string `json:"parse,omitempty"`
}

// PipelineDocument is a self-contained pipeline definition read by the CLI
type PipelineDocument struct {
	Source     SourceRef          `json:"source"`
	Transforms []TransformRequest `json:"transforms"`
	Aggregates []AggregateRequest `json:"aggregates,omitempty"`
}

// PipelineInfo summarizes a pipeline for listings
type PipelineInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Source      string `json:"source"`
	Transforms  int    `json:"transformCount"`
	ForkName    string `json:"forkName,omitempty"`
	ForkIndex   int    `json:"forkIndex"`
	Scales      int    `json:"scales"`
}

// SourceRequest registers a source either from a file or URL (Path) or from
// inline Values
type SourceRequest struct {
	Name           string            `json:"name"`
	Path           string            `json:"path,omitempty"`
	Format         string            `json:"format,omitempty"`
	Parse          map[string]string `json:"parse,omitempty"`
	Values         []*Record         `json:"values,omitempty"`
	RequiredFields []string          `json:"requiredFields,omitempty"`
	NumericFields  []string          `json:"numericFields,omitempty"`
}

// ExportRequest writes a slice of a pipeline's values to a file
type ExportRequest struct {
	FileName string `json:"fileName"`
	Begin    int    `json:"begin"`
	End      *int   `json:"end,omitempty"`
}

// TransformInfo describes one transform of a pipeline
type TransformInfo struct {
	ID   string        `json:"id"`
	Type string        `json:"type"`
	Spec TransformSpec `json:"spec,omitempty"`
}

// PipelineDetail is a pipeline summary with its transform chain
type PipelineDetail struct {
	PipelineInfo
	Transforms []TransformInfo `json:"transforms"`
}

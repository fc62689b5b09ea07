package model

// Format describes how a source's raw values were parsed
type Format struct {
	Type  string            `json:"type,omitempty"`  // csv, json
	Parse map[string]string `json:"parse,omitempty"` // field name -> "date" | "number" | other
}

// Source is a named data-source descriptor
type Source struct {
	Name   string    `json:"name" validate:"required"`
	URL    string    `json:"url,omitempty"`
	Values []*Record `json:"values"`
	Format Format    `json:"format"`
}

// TransformSpec is one transform fragment of a compiled dataflow
type TransformSpec map[string]any

// DataflowSpec is the compiled form of a pipeline (or its fork) consumed by
// the execution engine
type DataflowSpec struct {
	Name      string          `json:"name"`
	Source    string          `json:"source"`
	Transform []TransformSpec `json:"transform"`
}

package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go-vis-pipeline/internal/model"
)

// Result represents the result of an export operation
type Result struct {
	Format      string    `json:"format"`
	Path        string    `json:"path,omitempty"`
	RecordCount int       `json:"recordCount"`
	ExportedAt  time.Time `json:"exportedAt"`
}

// Flatten turns materialized values into flat records. Datums contribute
// their raw fields followed by derived attributes; facet groups contribute
// their key and aggregate attributes.
func Flatten(values model.Values) []*model.Record {
	if values.Faceted() {
		out := make([]*model.Record, 0, len(values.Groups))
		for _, g := range values.Groups {
			rec := model.NewRecord()
			for _, k := range g.Keys() {
				if k == model.ValuesKey || k == model.KeysKey {
					continue
				}
				v, _ := g.Get(k)
				rec.Set(k, v)
			}
			out = append(out, rec)
		}
		return out
	}

	out := make([]*model.Record, 0, len(values.Rows))
	for _, row := range values.Rows {
		rec := model.NewRecord()
		if raw, ok := row.Get(model.DataKey); ok {
			if data, ok := raw.(*model.Record); ok {
				for _, k := range data.Keys() {
					v, _ := data.Get(k)
					rec.Set(k, v)
				}
			}
		}
		for _, k := range row.Keys() {
			if k == model.DataKey {
				continue
			}
			v, _ := row.Get(k)
			rec.Set(k, v)
		}
		out = append(out, rec)
	}
	return out
}

// header collects every key across records in first-seen order
func header(records []*model.Record) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, rec := range records {
		for _, k := range rec.Keys() {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	return keys
}

// WriteCSV writes values as CSV with a header row and returns the number of
// data rows written.
func WriteCSV(w io.Writer, values model.Values) (int, error) {
	records := Flatten(values)
	writer := csv.NewWriter(w)

	keys := header(records)
	if err := writer.Write(keys); err != nil {
		return 0, fmt.Errorf("failed to write header: %w", err)
	}

	recordCount := 0
	for _, rec := range records {
		row := make([]string, len(keys))
		for i, k := range keys {
			if v, ok := rec.Get(k); ok && v != nil {
				row[i] = fmt.Sprintf("%v", v)
			}
		}
		if err := writer.Write(row); err != nil {
			return recordCount, fmt.Errorf("failed to write row: %w", err)
		}
		recordCount++
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return recordCount, fmt.Errorf("failed to flush csv: %w", err)
	}
	return recordCount, nil
}

// WriteJSON writes values as an indented JSON array of flat objects
func WriteJSON(w io.Writer, values model.Values) (int, error) {
	records := Flatten(values)
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(records); err != nil {
		return 0, fmt.Errorf("failed to encode JSON: %w", err)
	}
	return len(records), nil
}

// Write writes values in the named format ("csv" or "json")
func Write(w io.Writer, format string, values model.Values) (int, error) {
	switch strings.ToLower(format) {
	case "csv":
		return WriteCSV(w, values)
	case "json", "":
		return WriteJSON(w, values)
	default:
		return 0, &model.ValidationError{Subject: "export", Reason: fmt.Sprintf("unsupported format %q", format)}
	}
}

// ToFile exports values to path, choosing the format from its extension.
func ToFile(path string, values model.Values) (Result, error) {
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if format != "csv" && format != "json" {
		return Result{}, &model.ValidationError{Subject: "export", Reason: fmt.Sprintf("unsupported file %q", path)}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return Result{}, fmt.Errorf("failed to create directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return Result{}, fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	n, err := Write(file, format, values)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Format:      format,
		Path:        path,
		RecordCount: n,
		ExportedAt:  time.Now().UTC(),
	}, nil
}

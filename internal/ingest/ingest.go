package ingest

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/gosimple/slug"

	"go-vis-pipeline/internal/logger"
	"go-vis-pipeline/internal/model"
	"go-vis-pipeline/pkg/utils"
)

// FetchConfig controls how remote sources are downloaded
type FetchConfig struct {
	Timeout      time.Duration
	Retries      int
	RetryWait    time.Duration
	RetryMaxWait time.Duration
}

func DefaultFetchConfig() FetchConfig {
	return FetchConfig{
		Timeout:      30 * time.Second,
		Retries:      3,
		RetryWait:    100 * time.Millisecond,
		RetryMaxWait: 2 * time.Second,
	}
}

// Options describe how one source is loaded
type Options struct {
	Name   string            // defaults to a slug of the file name
	Format string            // csv or json; defaults to the path extension
	Parse  map[string]string // field -> "number" | "date" | other
	Rules  *Rules
}

// Loader reads source descriptors from files and URLs
type Loader struct {
	client *resty.Client
	log    logger.Logger
}

func NewLoader(cfg FetchConfig, log logger.Logger) *Loader {
	if log == nil {
		log = logger.GetDefault()
	}
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.Retries).
		SetRetryWaitTime(cfg.RetryWait).
		SetRetryMaxWaitTime(cfg.RetryMaxWait)
	client.AddRetryCondition(retryCondition)
	return &Loader{client: client, log: log}
}

// retryCondition retries network failures, throttling and server errors
func retryCondition(r *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	if r == nil {
		return false
	}
	code := r.StatusCode()
	return code >= 500 || code == 429 || code == 408
}

// Load reads, parses and checks the source at pathOrURL.
func (l *Loader) Load(ctx context.Context, pathOrURL string, opts Options) (*model.Source, error) {
	start := time.Now()
	raw, err := l.read(ctx, pathOrURL)
	if err != nil {
		return nil, err
	}

	format := strings.ToLower(opts.Format)
	if format == "" {
		format = formatOf(pathOrURL)
	}

	var records []*model.Record
	switch format {
	case "csv":
		records, err = ParseCSV(bytes.NewReader(raw))
	case "json":
		records, err = ParseJSON(raw)
	default:
		return nil, &model.ValidationError{Subject: "source", Reason: fmt.Sprintf("unknown format %q", format)}
	}
	if err != nil {
		return nil, err
	}

	applyParse(records, opts.Parse)
	if err := opts.Rules.Check(records); err != nil {
		return nil, err
	}

	name := opts.Name
	if name == "" {
		name = NameOf(pathOrURL)
	}
	l.log.Info("source loaded",
		"source", name,
		"path", pathOrURL,
		"records", len(records),
		"duration", time.Since(start),
	)
	return &model.Source{
		Name:   name,
		URL:    pathOrURL,
		Values: records,
		Format: model.Format{Type: format, Parse: opts.Parse},
	}, nil
}

func (l *Loader) read(ctx context.Context, pathOrURL string) ([]byte, error) {
	if !isRemote(pathOrURL) {
		data, err := os.ReadFile(pathOrURL)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, &model.NotFoundError{Kind: "source file", Name: pathOrURL}
			}
			return nil, fmt.Errorf("failed to read %s: %w", pathOrURL, err)
		}
		return data, nil
	}

	resp, err := l.client.R().SetContext(ctx).Get(pathOrURL)
	if err != nil {
		return nil, fmt.Errorf("failed to GET %s: %w", pathOrURL, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("failed to GET %s: status %d", pathOrURL, resp.StatusCode())
	}
	l.log.Debug("source fetched", "url", pathOrURL, "bytes", len(resp.Body()), "status", resp.StatusCode())
	return resp.Body(), nil
}

func isRemote(p string) bool {
	return strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://")
}

func formatOf(p string) string {
	if isRemote(p) {
		p = strings.SplitN(p, "?", 2)[0]
		return strings.TrimPrefix(strings.ToLower(path.Ext(p)), ".")
	}
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(p)), ".")
}

// NameOf derives a source name from a file name, e.g. "Monthly Sales.csv"
// becomes "monthly-sales".
func NameOf(pathOrURL string) string {
	base := pathOrURL
	if isRemote(base) {
		base = path.Base(strings.SplitN(base, "?", 2)[0])
	} else {
		base = filepath.Base(base)
	}
	return slug.Make(strings.TrimSuffix(base, path.Ext(base)))
}

// ParseCSV reads a header row followed by records. Cells become ints,
// floats or strings.
func ParseCSV(r io.Reader) ([]*model.Record, error) {
	csvReader := csv.NewReader(r)
	csvReader.LazyQuotes = true
	headers, err := csvReader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return []*model.Record{}, nil
		}
		return nil, &model.ValidationError{Subject: "csv source", Reason: "unreadable header", Err: err}
	}
	for i, h := range headers {
		headers[i] = strings.ReplaceAll(strings.TrimSpace(h), `"`, "")
	}

	records := []*model.Record{}
	for line := 2; ; line++ {
		row, err := csvReader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &model.ValidationError{Subject: "csv source", Reason: fmt.Sprintf("line %d", line), Err: err}
		}
		rec := model.NewRecord()
		for i, h := range headers {
			if i < len(row) {
				rec.Set(h, utils.ParseValue(row[i]))
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

// ParseJSON accepts an array of objects or a single object and keeps the key
// order of each object.
func ParseJSON(data []byte) ([]*model.Record, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return []*model.Record{}, nil
	}

	switch trimmed[0] {
	case '[':
		var records []*model.Record
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, &model.ValidationError{Subject: "json source", Reason: "expected an array of objects", Err: err}
		}
		out := make([]*model.Record, 0, len(records))
		for _, r := range records {
			if r != nil {
				out = append(out, r)
			}
		}
		return out, nil
	case '{':
		rec := model.NewRecord()
		if err := json.Unmarshal(trimmed, rec); err != nil {
			return nil, &model.ValidationError{Subject: "json source", Reason: "malformed object", Err: err}
		}
		return []*model.Record{rec}, nil
	default:
		return nil, &model.ValidationError{Subject: "json source", Reason: "unexpected JSON structure"}
	}
}

// applyParse converts string cells of "number" fields to numbers.
func applyParse(records []*model.Record, parse map[string]string) {
	for field, kind := range parse {
		if model.TypeFromParse(kind) != model.Linear {
			continue
		}
		for _, rec := range records {
			v, ok := rec.Get(field)
			if !ok {
				continue
			}
			if s, isString := v.(string); isString {
				if f, ok := utils.ToFloat(s); ok {
					rec.Set(field, f)
				}
			}
		}
	}
}

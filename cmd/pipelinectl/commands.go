package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"

	"go-vis-pipeline/internal/export"
	"go-vis-pipeline/internal/ingest"
	"go-vis-pipeline/internal/logger"
	"go-vis-pipeline/internal/model"
	"go-vis-pipeline/internal/pipeline"
	"go-vis-pipeline/internal/transform"
	"go-vis-pipeline/pkg/utils"
)

type globalFlags struct {
	logLevel string
	color    bool
	timeout  string
}

// fetchConfig applies --timeout to the default fetch settings
func (g *globalFlags) fetchConfig() ingest.FetchConfig {
	cfg := ingest.DefaultFetchConfig()
	cfg.Timeout = utils.ParseDuration(g.timeout, cfg.Timeout)
	return cfg
}

type rangeFlags struct {
	begin int
	end   int
}

func (f *rangeFlags) bind(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.begin, "begin", 0, "first transform to run")
	cmd.Flags().IntVar(&f.end, "end", pipeline.End, "transform bound, -1 runs the whole chain")
}

func RootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:          "pipelinectl",
		Short:        "Compile visualization pipeline documents",
		SilenceUsage: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			cfg := logger.DefaultConfig()
			cfg.Level = logger.LogLevel(g.logLevel)
			cfg.Output = os.Stderr
			logger.Init(cfg)
		},
	}
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", string(logger.WarnLevel), "debug, info, warn, error or disabled")
	root.PersistentFlags().BoolVar(&g.color, "color", false, "colorize JSON output")
	root.PersistentFlags().StringVar(&g.timeout, "timeout", "", "timeout for fetching remote sources, e.g. 30s")

	root.AddCommand(
		specCmd(g),
		schemaCmd(g),
		valuesCmd(g),
	)
	return root
}

func specCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "spec DOCUMENT",
		Short: "Print the compiled dataflow specs of a pipeline document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := build(cmd.Context(), args[0], g.fetchConfig())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), p.Spec(), g.color)
		},
	}
}

func schemaCmd(g *globalFlags) *cobra.Command {
	var rf rangeFlags
	cmd := &cobra.Command{
		Use:   "schema DOCUMENT",
		Short: "Print the fields a pipeline document produces",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := build(cmd.Context(), args[0], g.fetchConfig())
			if err != nil {
				return err
			}
			fields, _, err := p.Schema(rf.begin, rf.end)
			if err != nil {
				return err
			}
			if fields == nil {
				fields = []*model.Field{}
			}
			return printJSON(cmd.OutOrStdout(), fields, g.color)
		},
	}
	rf.bind(cmd)
	return cmd
}

func valuesCmd(g *globalFlags) *cobra.Command {
	var rf rangeFlags
	var format, out string
	cmd := &cobra.Command{
		Use:   "values DOCUMENT",
		Short: "Materialize the values of a pipeline document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := build(cmd.Context(), args[0], g.fetchConfig())
			if err != nil {
				return err
			}
			values, err := p.Values(rf.begin, rf.end)
			if err != nil {
				return err
			}
			if out != "" {
				res, err := export.ToFile(out, values)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d records to %s\n", res.RecordCount, res.Path)
				return nil
			}
			_, err = export.Write(cmd.OutOrStdout(), format, values)
			return err
		},
	}
	rf.bind(cmd)
	cmd.Flags().StringVar(&format, "format", "json", "output format: json or csv")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write to a .csv or .json file instead of stdout")
	return cmd
}

// build loads a pipeline document and assembles its pipeline. A relative
// source path is resolved against the document's directory.
func build(ctx context.Context, docPath string, fetch ingest.FetchConfig) (*pipeline.Pipeline, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	raw, err := os.ReadFile(docPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	var doc model.PipelineDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, &model.ValidationError{Subject: "pipeline document", Reason: docPath, Err: err}
	}
	if doc.Source.Path == "" {
		return nil, &model.ValidationError{Subject: "pipeline document", Reason: "source path is required"}
	}

	srcPath := doc.Source.Path
	remote := strings.HasPrefix(srcPath, "http://") || strings.HasPrefix(srcPath, "https://")
	if !remote && !filepath.IsAbs(srcPath) {
		srcPath = filepath.Join(filepath.Dir(docPath), srcPath)
	}

	log := logger.GetDefault()
	src, err := ingest.NewLoader(fetch, log).Load(ctx, srcPath, ingest.Options{
		Name:  doc.Source.Name,
		Parse: doc.Source.Parse,
	})
	if err != nil {
		return nil, err
	}

	registry := pipeline.NewRegistry(pipeline.WithLogger(log))
	if err := registry.RegisterSource(src); err != nil {
		return nil, err
	}
	p := registry.NewPipeline(src.Name)

	for i, req := range doc.Transforms {
		t, err := transform.Decode(p.Name(), req)
		if err != nil {
			return nil, fmt.Errorf("transform %d: %w", i, err)
		}
		if _, err := p.AddTransform(t); err != nil {
			return nil, fmt.Errorf("transform %d: %w", i, err)
		}
	}
	for _, agg := range doc.Aggregates {
		field := agg.Field
		if err := p.Aggregate(&field, agg.Stat); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func printJSON(w io.Writer, v any, color bool) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	out := pretty.Pretty(raw)
	if color {
		out = pretty.Color(out, nil)
	}
	_, err = w.Write(out)
	return err
}

// Package generate drives cachedprop over many files: it resolves inputs,
// transforms them concurrently, writes outputs next to their inputs and
// checks that committed outputs are current.
package generate

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/teranos/cachedprop/errors"
	"github.com/teranos/cachedprop/logger"
	"github.com/teranos/cachedprop/rewrite"
)

// Options configure generation
type Options struct {
	// Dir is where package patterns are resolved; empty means the working directory
	Dir string

	BuildTag      string
	OutputSuffix  string
	RuntimeImport string
	Concurrency   int
}

// DefaultOptions returns the options matching the default configuration
func DefaultOptions() Options {
	r := rewrite.DefaultOptions()
	return Options{
		BuildTag:      r.BuildTag,
		OutputSuffix:  "_cachedprop.go",
		RuntimeImport: r.RuntimeImport,
		Concurrency:   runtime.NumCPU(),
	}
}

// Status is the outcome for one input file
type Status string

const (
	StatusWritten   Status = "written"
	StatusUnchanged Status = "unchanged"
	StatusFailed    Status = "failed"
)

// FileResult is the outcome of generating one file
type FileResult struct {
	Input  string
	Output string
	Status Status
	Report rewrite.FileReport
	Err    error
}

// Summary collects the results of a Run, in input order
type Summary struct {
	Files    []FileResult
	Duration time.Duration
}

// Count returns how many files ended with status s
func (s *Summary) Count(status Status) int {
	n := 0
	for _, f := range s.Files {
		if f.Status == status {
			n++
		}
	}
	return n
}

// Err combines the errors of every failed file, or returns nil
func (s *Summary) Err() error {
	var err error
	for _, f := range s.Files {
		err = multierr.Append(err, f.Err)
	}
	return err
}

// Generator runs the file transformer over sets of files
type Generator struct {
	opts        Options
	transformer *rewrite.Transformer
	log         *zap.SugaredLogger
}

// New creates a Generator. Zero option fields take their defaults.
func New(opts Options, log *zap.SugaredLogger) *Generator {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	def := DefaultOptions()
	if opts.BuildTag == "" {
		opts.BuildTag = def.BuildTag
	}
	if opts.OutputSuffix == "" {
		opts.OutputSuffix = def.OutputSuffix
	}
	if opts.RuntimeImport == "" {
		opts.RuntimeImport = def.RuntimeImport
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = def.Concurrency
	}

	return &Generator{
		opts: opts,
		transformer: rewrite.New(rewrite.Options{
			BuildTag:      opts.BuildTag,
			RuntimeImport: opts.RuntimeImport,
		}, log),
		log: log,
	}
}

// Options returns the effective options
func (g *Generator) Options() Options {
	return g.opts
}

// OutputPath returns where the output for input is written:
// shape.go -> shape_cachedprop.go
func (g *Generator) OutputPath(input string) string {
	return strings.TrimSuffix(input, ".go") + g.opts.OutputSuffix
}

// Run generates outputs for files concurrently. A file that fails to
// transform is recorded in the summary and does not stop the others; only
// cancellation of ctx aborts the run.
func (g *Generator) Run(ctx context.Context, files []string) (*Summary, error) {
	start := time.Now()
	results := make([]FileResult, len(files))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.opts.Concurrency)
	for i, input := range files {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = g.generateFile(input)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, errors.Wrap(err, "generation cancelled")
	}

	summary := &Summary{Files: results, Duration: time.Since(start)}
	g.log.Infow("Generation finished",
		logger.FieldCount, summary.Count(StatusWritten),
		logger.FieldTotalCount, len(files),
		logger.FieldDurationMS, summary.Duration.Milliseconds())
	return summary, nil
}

func (g *Generator) generateFile(input string) FileResult {
	res := FileResult{Input: input, Output: g.OutputPath(input)}
	log := logger.ChildLogger(g.log, logger.FieldFile, input)

	src, err := os.ReadFile(input)
	if err != nil {
		res.Status, res.Err = StatusFailed, errors.Wrapf(err, "failed to read %s", input)
		return res
	}

	out, err := g.transformer.File(input, src)
	if err != nil {
		log.Debugw("Transformation failed", logger.FieldError, err)
		res.Status, res.Err = StatusFailed, err
		return res
	}
	res.Report = out.Report
	res.Report.Output = res.Output

	existing, err := os.ReadFile(res.Output)
	if err == nil && (bytes.Equal(existing, out.Source) || current(existing, src)) {
		log.Debugw("Output is current", logger.FieldOutput, res.Output)
		res.Status = StatusUnchanged
		return res
	}
	if err := writeFile(res.Output, out.Source); err != nil {
		res.Status, res.Err = StatusFailed, err
		return res
	}

	log.Infow("Generated", logger.FieldOutput, res.Output)
	res.Status = StatusWritten
	return res
}

// current reports whether an existing output was generated from src under a
// compatible naming convention
func current(existing, src []byte) bool {
	h, err := rewrite.ParseHeader(existing)
	if err != nil || !h.Matches(src) {
		return false
	}
	ok, err := h.Compatible()
	return err == nil && ok
}

// writeFile replaces path atomically through a temporary file in the same
// directory
func writeFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return errors.Wrapf(err, "failed to create temporary file for %s", path)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "failed to write %s", path)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return errors.Wrapf(err, "failed to set permissions on %s", path)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrapf(err, "failed to replace %s", path)
	}
	return nil
}

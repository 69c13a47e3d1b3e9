package generate

import (
	"bytes"
	"context"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/teranos/cachedprop/errors"
	"github.com/teranos/cachedprop/logger"
	"github.com/teranos/cachedprop/rewrite"
)

// ProblemKind classifies why an output is not up to date
type ProblemKind string

const (
	// ProblemMissing means the output file does not exist
	ProblemMissing ProblemKind = "missing"

	// ProblemStale means the output was generated from a different input
	ProblemStale ProblemKind = "stale"

	// ProblemIncompatible means the output uses an incompatible naming convention
	ProblemIncompatible ProblemKind = "incompatible"

	// ProblemModified means the output differs from what would be generated
	ProblemModified ProblemKind = "modified"

	// ProblemFailed means the input does not transform
	ProblemFailed ProblemKind = "failed"
)

// Problem is one output that needs regenerating
type Problem struct {
	Input  string
	Output string
	Kind   ProblemKind
	Err    error
}

// CheckResult holds the result of an up-to-date check
type CheckResult struct {
	UpToDate bool
	Checked  int
	Problems []Problem
}

// Check regenerates every file in memory and compares the result with the
// output on disk. Nothing is written.
func (g *Generator) Check(ctx context.Context, files []string) (*CheckResult, error) {
	problems := make([]*Problem, len(files))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.opts.Concurrency)
	for i, input := range files {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			problems[i] = g.checkFile(input)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, errors.Wrap(err, "check cancelled")
	}

	result := &CheckResult{Checked: len(files)}
	for _, p := range problems {
		if p != nil {
			result.Problems = append(result.Problems, *p)
		}
	}
	result.UpToDate = len(result.Problems) == 0

	g.log.Infow("Check finished",
		logger.FieldCount, len(result.Problems),
		logger.FieldTotalCount, len(files),
		logger.FieldStatus, result.UpToDate)
	return result, nil
}

func (g *Generator) checkFile(input string) *Problem {
	p := &Problem{Input: input, Output: g.OutputPath(input)}

	src, err := os.ReadFile(input)
	if err != nil {
		p.Kind, p.Err = ProblemFailed, errors.Wrapf(err, "failed to read %s", input)
		return p
	}
	out, err := g.transformer.File(input, src)
	if err != nil {
		p.Kind, p.Err = ProblemFailed, err
		return p
	}

	existing, err := os.ReadFile(p.Output)
	if os.IsNotExist(err) {
		p.Kind = ProblemMissing
		return p
	}
	if err != nil {
		p.Kind, p.Err = ProblemFailed, errors.Wrapf(err, "failed to read %s", p.Output)
		return p
	}
	if bytes.Equal(existing, out.Source) {
		return nil
	}

	h, err := rewrite.ParseHeader(existing)
	switch {
	case err != nil:
		p.Kind, p.Err = ProblemModified, err
	case !h.Matches(src):
		p.Kind = ProblemStale
	default:
		if ok, err := h.Compatible(); err != nil || !ok {
			p.Kind, p.Err = ProblemIncompatible, err
		} else {
			p.Kind = ProblemModified
		}
	}
	return p
}

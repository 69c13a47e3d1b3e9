package generate

import (
	"context"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/tools/go/packages"

	"github.com/teranos/cachedprop/errors"
	"github.com/teranos/cachedprop/logger"
	"github.com/teranos/cachedprop/naming"
	"github.com/teranos/cachedprop/rewrite"
)

// Resolve expands patterns into the input files to transform.
//
// Arguments ending in .go name files directly. Anything else is a package
// pattern ("./...", "./shapes", an import path) loaded with the build tag
// enabled so tagged inputs are visible. Only files containing a directive
// are returned, never generated files. The result is sorted and free of
// duplicates.
func Resolve(ctx context.Context, patterns []string, opts Options, log *zap.SugaredLogger) ([]string, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if len(patterns) == 0 {
		patterns = []string{"."}
	}

	var candidates, pkgPatterns []string
	for _, p := range patterns {
		if strings.HasSuffix(p, ".go") {
			if _, err := os.Stat(p); err != nil {
				return nil, errors.Wrapf(err, "input file %s", p)
			}
			candidates = append(candidates, p)
			continue
		}
		pkgPatterns = append(pkgPatterns, p)
	}

	if len(pkgPatterns) > 0 {
		cfg := &packages.Config{
			Context:    ctx,
			Dir:        opts.Dir,
			Mode:       packages.NeedName | packages.NeedFiles,
			BuildFlags: []string{"-tags=" + opts.BuildTag},
			Tests:      true,
		}
		pkgs, err := packages.Load(cfg, pkgPatterns...)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to load packages %s", strings.Join(pkgPatterns, " "))
		}
		for _, pkg := range pkgs {
			for _, perr := range pkg.Errors {
				log.Warnw("Package loaded with errors",
					logger.FieldPackage, pkg.PkgPath,
					logger.FieldError, perr.Error())
			}
			candidates = append(candidates, pkg.GoFiles...)
			candidates = append(candidates, pkg.IgnoredFiles...)
		}
	}

	seen := make(map[string]bool)
	var files []string
	for _, path := range candidates {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to resolve %s", path)
		}
		if seen[abs] {
			continue
		}
		seen[abs] = true

		ok, err := isInput(abs, opts.OutputSuffix)
		if err != nil {
			return nil, err
		}
		if ok {
			files = append(files, abs)
		}
	}
	sort.Strings(files)

	log.Debugw("Resolved input files",
		logger.FieldCount, len(files),
		logger.FieldTotalCount, len(seen))
	return files, nil
}

// isInput reports whether path is a hand-written file carrying a directive
func isInput(path, outputSuffix string) (bool, error) {
	if outputSuffix != "" && strings.HasSuffix(path, outputSuffix) {
		return false, nil
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return false, errors.Wrapf(err, "failed to read %s", path)
	}
	if !rewrite.HasDirective(src) {
		return false, nil
	}

	file, err := parser.ParseFile(token.NewFileSet(), path, src, parser.ParseComments)
	if err != nil {
		// Let the transformer report the syntax error with full context.
		return true, nil
	}
	if ast.IsGenerated(file) {
		return false, nil
	}
	// The prefix may only appear in strings or ordinary text.
	for _, group := range file.Comments {
		for _, c := range group.List {
			if strings.HasPrefix(c.Text, naming.DirectivePrefix) {
				return true, nil
			}
		}
	}
	return false, nil
}

// Package rewrite transforms one annotated Go file into its generated form.
//
// Every //cachedprop:struct type and //cachedprop:property method in the file
// is run through its pass, and the results are spliced into the source in
// place of the annotated declarations. Everything else in the file is kept
// as written. When any declaration fails, File returns every diagnostic for
// the file and no output at all.
package rewrite

import (
	"bytes"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
	"path"

	"go.uber.org/zap"
	"golang.org/x/tools/go/ast/astutil"

	"github.com/teranos/cachedprop/errors"
	"github.com/teranos/cachedprop/logger"
	"github.com/teranos/cachedprop/naming"
)

// Options control how files are transformed
type Options struct {
	// BuildTag is the build constraint that keeps input files out of normal builds
	BuildTag string

	// RuntimeImport is the import path of the slot package
	RuntimeImport string
}

// DefaultOptions returns the options matching the default configuration
func DefaultOptions() Options {
	return Options{
		BuildTag:      "cachedprop",
		RuntimeImport: naming.RuntimeImportPath,
	}
}

// Output is a successfully transformed file
type Output struct {
	Source []byte
	Report FileReport
}

// Transformer applies the struct and method passes to whole files.
// It keeps no state between calls and is safe for concurrent use.
type Transformer struct {
	opts Options
	log  *zap.SugaredLogger
}

// New creates a Transformer. A nil logger discards output.
func New(opts Options, log *zap.SugaredLogger) *Transformer {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if opts.BuildTag == "" {
		opts.BuildTag = DefaultOptions().BuildTag
	}
	if opts.RuntimeImport == "" {
		opts.RuntimeImport = naming.RuntimeImportPath
	}
	return &Transformer{opts: opts, log: log}
}

// File transforms src, the contents of filename.
//
// A file that does not parse yields a plain error. A file with annotation
// problems yields an error combining one *Diagnostic per problem; use
// DiagnosticsOf to list them.
func (t *Transformer) File(filename string, src []byte) (*Output, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filename, src, parser.ParseComments)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", filename)
	}

	u := newUnit(t, fset, file, filename, src)
	u.scan()
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.GenDecl:
			u.genDecl(d)
		case *ast.FuncDecl:
			u.funcDecl(d)
		}
	}
	u.strays()
	u.collisions()

	if len(u.diags) > 0 {
		t.log.Debugw("Transformation failed",
			logger.FieldFile, filename,
			logger.FieldCount, len(u.diags))
		return nil, combine(u.diags)
	}

	u.checkReceivers()
	u.dropBuildConstraint()

	body, err := applyEdits(src, u.edits)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to splice generated declarations into %s", filename)
	}

	header := NewHeader(filename, src)
	assembled := append([]byte(header.String()+"\n"), body...)

	out, err := t.finish(filename, assembled, len(u.report.Records) > 0)
	if err != nil {
		return nil, err
	}

	u.report.Digest = header.Digest
	t.log.Debugw("Transformed file",
		logger.FieldFile, filename,
		logger.FieldCount, len(u.report.Records)+len(u.report.Methods))

	return &Output{Source: out, Report: u.report}, nil
}

// finish re-parses the assembled source, adds the runtime import when storage
// was generated and formats the result
func (t *Transformer) finish(filename string, src []byte, needsRuntime bool) ([]byte, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filename, src, parser.ParseComments)
	if err != nil {
		return nil, errors.WithHint(
			errors.Wrapf(err, "generated source for %s does not parse", filename),
			"this is a bug in cachedprop; please report it with the input file")
	}

	if needsRuntime {
		name := ""
		if path.Base(t.opts.RuntimeImport) != naming.RuntimePackage {
			name = naming.RuntimePackage
		}
		astutil.AddNamedImport(fset, file, name, t.opts.RuntimeImport)
	}

	var buf bytes.Buffer
	if err := format.Node(&buf, fset, file); err != nil {
		return nil, errors.Wrapf(err, "failed to format generated source for %s", filename)
	}
	return buf.Bytes(), nil
}

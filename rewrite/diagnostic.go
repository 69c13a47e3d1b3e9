package rewrite

import (
	"fmt"
	"go/token"

	"go.uber.org/multierr"

	"github.com/teranos/cachedprop/errors"
)

// Diagnostic is one problem found while transforming a file.
// Err wraps one of the transformation failure kinds in package errors.
type Diagnostic struct {
	Pos  token.Position
	Decl string
	Err  error
}

func (d *Diagnostic) Error() string {
	if d.Decl == "" {
		return fmt.Sprintf("%s: %v", d.Pos, d.Err)
	}
	return fmt.Sprintf("%s: %s: %v", d.Pos, d.Decl, d.Err)
}

func (d *Diagnostic) Unwrap() error {
	return d.Err
}

// Hints returns the user-facing hints attached to the diagnostic
func (d *Diagnostic) Hints() []string {
	return errors.GetAllHints(d.Err)
}

// DiagnosticsOf extracts every Diagnostic combined into err
func DiagnosticsOf(err error) []*Diagnostic {
	var out []*Diagnostic
	for _, e := range multierr.Errors(err) {
		var d *Diagnostic
		if errors.As(e, &d) {
			out = append(out, d)
		}
	}
	return out
}

func combine(diags []*Diagnostic) error {
	errs := make([]error, len(diags))
	for i, d := range diags {
		errs[i] = d
	}
	return multierr.Combine(errs...)
}

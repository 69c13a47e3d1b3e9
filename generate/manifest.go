package generate

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/teranos/cachedprop/errors"
	"github.com/teranos/cachedprop/naming"
	"github.com/teranos/cachedprop/rewrite"
)

// Manifest lists every declaration generated by a run
type Manifest struct {
	Naming string               `yaml:"naming"`
	Files  []rewrite.FileReport `yaml:"files"`
}

// NewManifest builds a manifest from the successful files of a run.
// Paths are made relative to base when possible.
func NewManifest(summary *Summary, base string) *Manifest {
	m := &Manifest{Naming: naming.Version}
	for _, f := range summary.Files {
		if f.Status == StatusFailed || f.Report.Empty() {
			continue
		}
		report := f.Report
		report.Input = relativeTo(base, report.Input)
		report.Output = relativeTo(base, report.Output)
		m.Files = append(m.Files, report)
	}
	return m
}

// WriteManifest writes the manifest for summary to path as YAML
func WriteManifest(path string, summary *Summary) error {
	m := NewManifest(summary, filepath.Dir(path))

	data, err := yaml.Marshal(m)
	if err != nil {
		return errors.Wrap(err, "failed to encode manifest")
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, "failed to write manifest %s", path)
	}
	return nil
}

// ReadManifest reads a manifest written by WriteManifest
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read manifest %s", path)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrapf(err, "failed to parse manifest %s", path)
	}
	return &m, nil
}

func relativeTo(base, path string) string {
	if path == "" || base == "" {
		return path
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(abs, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}

package config

import (
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/teranos/cachedprop/errors"
)

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Generate.BuildTag == "" {
		return errors.New("generate.build_tag cannot be empty")
	}
	if strings.ContainsAny(c.Generate.BuildTag, " \t!&|()") {
		return errors.Newf("generate.build_tag must be a single tag, got %q", c.Generate.BuildTag)
	}
	if c.Generate.OutputSuffix == "" {
		return errors.New("generate.output_suffix cannot be empty")
	}
	if !strings.HasSuffix(c.Generate.OutputSuffix, ".go") || c.Generate.OutputSuffix == ".go" {
		return errors.Newf("generate.output_suffix must end in .go and add something before it, got %q", c.Generate.OutputSuffix)
	}
	if strings.HasSuffix(c.Generate.OutputSuffix, "_test.go") {
		return errors.WithHint(
			errors.Newf("generate.output_suffix %q would turn outputs into test files", c.Generate.OutputSuffix),
			"use a suffix such as _cachedprop.go")
	}
	if c.Generate.RuntimeImport == "" {
		return errors.New("generate.runtime_import cannot be empty")
	}
	if c.Generate.Concurrency < 1 {
		return errors.Newf("generate.concurrency must be >= 1, got %d", c.Generate.Concurrency)
	}
	if c.Watch.DebounceMS < 0 {
		return errors.Newf("watch.debounce_ms must be >= 0, got %d", c.Watch.DebounceMS)
	}
	return nil
}

// UnknownKeys returns the keys in a configuration file that do not map to
// any setting, usually misspellings
func UnknownKeys(path string) ([]string, error) {
	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode %s", path)
	}

	var keys []string
	for _, key := range md.Undecoded() {
		keys = append(keys, key.String())
	}
	sort.Strings(keys)
	return keys, nil
}

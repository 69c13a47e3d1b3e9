// Package config loads cachedprop settings from defaults, the nearest
// cachedprop.toml and CACHEDPROP_* environment variables, in increasing
// order of precedence.
package config

import "time"

// FileName is the project configuration file searched for by Load
const FileName = "cachedprop.toml"

// EnvPrefix prefixes environment overrides: generate.build_tag is read from
// CACHEDPROP_GENERATE_BUILD_TAG
const EnvPrefix = "CACHEDPROP"

// Config represents the cachedprop configuration
type Config struct {
	Generate GenerateConfig `mapstructure:"generate" toml:"generate"`
	Watch    WatchConfig    `mapstructure:"watch" toml:"watch"`
	Log      LogConfig      `mapstructure:"log" toml:"log"`

	// Path is the configuration file that was read, empty when none was found
	Path string `mapstructure:"-" toml:"-"`
}

// GenerateConfig configures code generation
type GenerateConfig struct {
	BuildTag      string `mapstructure:"build_tag" toml:"build_tag"`           // constraint marking input files
	OutputSuffix  string `mapstructure:"output_suffix" toml:"output_suffix"`   // replaces ".go" in output names
	RuntimeImport string `mapstructure:"runtime_import" toml:"runtime_import"` // import path of the slot package
	Concurrency   int    `mapstructure:"concurrency" toml:"concurrency"`       // files transformed in parallel
	Manifest      string `mapstructure:"manifest" toml:"manifest"`             // optional YAML manifest path
}

// WatchConfig configures watch mode
type WatchConfig struct {
	DebounceMS int `mapstructure:"debounce_ms" toml:"debounce_ms"`
}

// Debounce returns the debounce period as a duration
func (w WatchConfig) Debounce() time.Duration {
	return time.Duration(w.DebounceMS) * time.Millisecond
}

// LogConfig configures logging
type LogConfig struct {
	JSON bool `mapstructure:"json" toml:"json"`
}

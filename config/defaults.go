package config

import (
	"runtime"

	"github.com/spf13/viper"

	"github.com/teranos/cachedprop/naming"
)

// Default values
const (
	DefaultBuildTag     = "cachedprop"
	DefaultOutputSuffix = "_cachedprop.go"
	DefaultDebounceMS   = 300
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	v.SetDefault("generate.build_tag", DefaultBuildTag)
	v.SetDefault("generate.output_suffix", DefaultOutputSuffix)
	v.SetDefault("generate.runtime_import", naming.RuntimeImportPath)
	v.SetDefault("generate.concurrency", runtime.NumCPU())
	v.SetDefault("generate.manifest", "")

	v.SetDefault("watch.debounce_ms", DefaultDebounceMS)

	v.SetDefault("log.json", false)
}

// Default returns the configuration used when nothing is configured
func Default() *Config {
	return &Config{
		Generate: GenerateConfig{
			BuildTag:      DefaultBuildTag,
			OutputSuffix:  DefaultOutputSuffix,
			RuntimeImport: naming.RuntimeImportPath,
			Concurrency:   runtime.NumCPU(),
		},
		Watch: WatchConfig{DebounceMS: DefaultDebounceMS},
	}
}

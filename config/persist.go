package config

import (
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/teranos/cachedprop/errors"
)

const fileHeader = `# cachedprop configuration
# Environment variables override these settings, e.g. CACHEDPROP_GENERATE_CONCURRENCY=4

`

// WriteDefault writes the default configuration to path. An existing file
// is only replaced when force is set, after copying it to path + ".back".
func WriteDefault(path string, force bool) error {
	if _, err := os.Stat(path); err == nil {
		if !force {
			return errors.WithHint(
				errors.Newf("%s already exists", path),
				"pass --force to overwrite it")
		}
		if err := createBackup(path); err != nil {
			return err
		}
	}

	data, err := toml.Marshal(Default())
	if err != nil {
		return errors.Wrap(err, "failed to encode default config")
	}

	if err := os.WriteFile(path, append([]byte(fileHeader), data...), 0644); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}

// createBackup copies the current file to path + ".back"
func createBackup(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "failed to read config for backup")
	}
	if err := os.WriteFile(path+".back", content, 0644); err != nil {
		return errors.Wrap(err, "failed to create backup")
	}
	return nil
}

// update_yaml.go writing settings back to the configuration file
package conf

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// SaveYAMLConfig writes the given settings as YAML to configPath. The write
// goes through a temporary file in the same directory and an atomic rename so
// a crash cannot leave a truncated config behind. An existing file is kept as
// a .backup copy first.
func SaveYAMLConfig(configPath string, settings *Settings) error {
	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("error marshaling settings to yaml: %w", err)
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	if _, err := os.Stat(configPath); err == nil {
		original, err := os.ReadFile(configPath)
		if err != nil {
			return fmt.Errorf("error reading existing config for backup: %w", err)
		}
		if err := os.WriteFile(configPath+".backup", original, 0o644); err != nil {
			return fmt.Errorf("error writing config backup: %w", err)
		}
	}

	tempFile, err := os.CreateTemp(dir, ".config-*.yaml")
	if err != nil {
		return fmt.Errorf("error creating temporary file: %w", err)
	}
	tempPath := tempFile.Name()

	if _, err := tempFile.Write(data); err != nil {
		tempFile.Close()
		os.Remove(tempPath)
		return fmt.Errorf("error writing temporary config: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("error closing temporary config: %w", err)
	}

	if err := os.Rename(tempPath, configPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("error replacing config file: %w", err)
	}
	return nil
}

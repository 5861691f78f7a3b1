package config

import (
	"os"

	"gopkg.in/yaml.v3"

	errs "github.com/ajitpratap0/stockpile/pkg/errors"
)

// LoadYAML loads a configuration from a YAML file into config.
func LoadYAML(filePath string, config interface{}) error {
	data, err := os.ReadFile(filePath) //nolint:gosec // G304: File path is controlled by caller and validated
	if err != nil {
		return errs.Wrap(err, errs.KindConfig, "failed to read config file")
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return errs.Wrap(err, errs.KindConfig, "failed to parse YAML")
	}

	return nil
}

// SaveYAML saves a configuration to a YAML file.
func SaveYAML(filePath string, config interface{}) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return errs.Wrap(err, errs.KindConfig, "failed to marshal YAML")
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil { //nolint:gosec
		return errs.Wrap(err, errs.KindConfig, "failed to write config file")
	}

	return nil
}

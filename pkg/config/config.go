// pkg/config/config.go - configuration settings for the auto-installer.

package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// BaseDir is the machine-wide data directory for the auto-installer.
var BaseDir = filepath.Join(programData(), "AutoInstaller")

// ConfigPath is the well-known location of Config.yaml.
var ConfigPath = filepath.Join(BaseDir, "Config.yaml")

// Registry path consulted for policy settings when Config.yaml is absent.
const PolicyRegistryPath = `SOFTWARE\AutoInstaller\Config`

// Configuration holds the configurable options in YAML format
type Configuration struct {
	CatalogPath   string `yaml:"CatalogPath"`
	SelectionPath string `yaml:"SelectionPath"`
	LogDir        string `yaml:"LogDir"`
	LogLevel      string `yaml:"LogLevel"`
	Debug         bool   `yaml:"Debug"`
	Verbose       bool   `yaml:"Verbose"`
}

func programData() string {
	if dir := os.Getenv("ProgramData"); dir != "" {
		return dir
	}
	return `C:\ProgramData`
}

// GetDefaultConfig provides default configuration values.
func GetDefaultConfig() *Configuration {
	return &Configuration{
		CatalogPath:   filepath.Join(BaseDir, "config", "software.json"),
		SelectionPath: filepath.Join(BaseDir, "config", "user_selection.json"),
		LogDir:        filepath.Join(BaseDir, "logs"),
		LogLevel:      "INFO",
	}
}

// LoadConfigFrom loads the configuration from a YAML file.
// If the file doesn't exist, it falls back to policy settings (the registry on
// Windows) layered over the defaults.
func LoadConfigFrom(path string) (*Configuration, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		log.Printf("Configuration file does not exist: %s", path)

		config := GetDefaultConfig()
		if policyErr := loadPolicy(config); policyErr != nil {
			log.Printf("No policy settings applied: %v", policyErr)
		}
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file: %w", err)
	}

	config := GetDefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %s: %w", path, err)
	}

	// Blank values in the file mean "use the default"
	defaults := GetDefaultConfig()
	if config.CatalogPath == "" {
		config.CatalogPath = defaults.CatalogPath
	}
	if config.SelectionPath == "" {
		config.SelectionPath = defaults.SelectionPath
	}
	if config.LogDir == "" {
		config.LogDir = defaults.LogDir
	}
	if config.LogLevel == "" {
		config.LogLevel = defaults.LogLevel
	}

	return config, nil
}

// SaveConfigTo saves the configuration to a YAML file.
func SaveConfigTo(path string, config *Configuration) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to serialize configuration: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create configuration directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	return nil
}

// Package config resolves target profiles and service credentials.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Profile fixes the filesystem layout and model preferences for one target
// bank. All paths are relative to the working directory unless absolute.
type Profile struct {
	Name            string   `yaml:"name"`
	SamplePath      string   `yaml:"sample_path"`
	ReferencePath   string   `yaml:"reference_path"`
	ArtifactPath    string   `yaml:"artifact_path"`
	PreferredModels []string `yaml:"preferred_models"`
}

// Config is the full runtime configuration.
type Config struct {
	APIKey   string             `yaml:"-"`
	BaseURL  string             `yaml:"base_url"`
	Profiles map[string]Profile `yaml:"profiles"`
}

func defaults() *Config {
	return &Config{
		Profiles: map[string]Profile{
			"icici": {
				Name:          "icici",
				SamplePath:    filepath.Join("data", "icici", "icici_sample.pdf"),
				ReferencePath: filepath.Join("data", "icici", "result.csv"),
				ArtifactPath:  filepath.Join("custom_parsers", "icici_parser.go"),
				PreferredModels: []string{
					"llama-3.1-8b-instant",
					"llama-3.3-70b-versatile",
				},
			},
		},
	}
}

// Load builds the configuration from compiled-in defaults, an optional YAML
// file, and environment overrides (GROQ_API_KEY, GROQ_API_BASE).
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.APIKey = os.Getenv("GROQ_API_KEY")
	if base := os.Getenv("GROQ_API_BASE"); base != "" {
		cfg.BaseURL = base
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Groq API key not set; export GROQ_API_KEY")
	}
	return cfg, nil
}

// ProfileFor resolves a target name to its profile.
func (c *Config) ProfileFor(target string) (Profile, error) {
	p, ok := c.Profiles[strings.ToLower(target)]
	if !ok {
		names := make([]string, 0, len(c.Profiles))
		for name := range c.Profiles {
			names = append(names, name)
		}
		return Profile{}, fmt.Errorf("unsupported target %q (supported: %s)", target, strings.Join(names, ", "))
	}
	return p, nil
}

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Environment variables that override file-configured credentials.
const (
	EnvTranscriptionKey = "ASSEMBLYAI_API_KEY"
	EnvOpenAIKey        = "OPENAI_API_KEY"
)

// Loaded captures resolved config path, parsed values, and non-fatal warnings.
type Loaded struct {
	Path     string
	Config   Config
	Warnings []Warning
	Exists   bool
}

// Load resolves, reads, parses, and validates the runtime configuration.
// Credential environment variables override the file contents.
func Load(explicitPath string) (Loaded, error) {
	resolvedPath, err := ResolvePath(explicitPath)
	if err != nil {
		return Loaded{}, err
	}

	base := Default()
	content, err := os.ReadFile(resolvedPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := applyEnvOverrides(base)
			return Loaded{
				Path:   resolvedPath,
				Config: cfg,
				Warnings: []Warning{{
					Message: fmt.Sprintf("config file %q not found; using defaults", resolvedPath),
				}},
				Exists: false,
			}, nil
		}
		return Loaded{}, fmt.Errorf("read config %q: %w", resolvedPath, err)
	}

	cfg, warnings, err := Parse(string(content), base)
	if err != nil {
		return Loaded{}, fmt.Errorf("parse config %q: %w", resolvedPath, err)
	}
	cfg = applyEnvOverrides(cfg)

	return Loaded{
		Path:     resolvedPath,
		Config:   cfg,
		Warnings: warnings,
		Exists:   true,
	}, nil
}

// applyEnvOverrides lets process environment credentials win over the file.
func applyEnvOverrides(cfg Config) Config {
	if key := strings.TrimSpace(os.Getenv(EnvTranscriptionKey)); key != "" {
		cfg.Transcription.APIKey = key
	}
	if key := strings.TrimSpace(os.Getenv(EnvOpenAIKey)); key != "" {
		cfg.OpenAI.APIKey = key
	}
	return cfg
}

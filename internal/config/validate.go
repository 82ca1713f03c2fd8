package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	endpoint := strings.TrimSpace(cfg.Transcription.URL)
	if endpoint == "" {
		return nil, fmt.Errorf("transcription.url must not be empty")
	}
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("transcription.url is not a valid URL: %w", err)
	}
	if parsed.Scheme != "wss" && parsed.Scheme != "ws" {
		return nil, fmt.Errorf("transcription.url scheme must be ws or wss, got %q", parsed.Scheme)
	}
	if cfg.Transcription.SampleRate <= 0 {
		return nil, fmt.Errorf("transcription.sample_rate must be > 0")
	}
	if cfg.Transcription.PingIntervalS <= 0 {
		return nil, fmt.Errorf("transcription.ping_interval_s must be > 0")
	}
	if cfg.Transcription.PingTimeoutS <= 0 {
		return nil, fmt.Errorf("transcription.ping_timeout_s must be > 0")
	}

	base := strings.TrimSpace(cfg.OpenAI.BaseURL)
	if base == "" {
		return nil, fmt.Errorf("openai.base_url must not be empty")
	}
	parsedBase, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("openai.base_url is not a valid URL: %w", err)
	}
	if parsedBase.Scheme != "https" && parsedBase.Scheme != "http" {
		return nil, fmt.Errorf("openai.base_url scheme must be http or https, got %q", parsedBase.Scheme)
	}
	if strings.TrimSpace(cfg.OpenAI.Model) == "" {
		return nil, fmt.Errorf("openai.model must not be empty")
	}

	if strings.TrimSpace(cfg.Prompt.System) == "" {
		return nil, fmt.Errorf("prompt.system must not be empty")
	}
	if strings.TrimSpace(cfg.Prompt.UserName) == "" {
		return nil, fmt.Errorf("prompt.user_name must not be empty")
	}
	if strings.TrimSpace(cfg.Prompt.InterviewerName) == "" {
		return nil, fmt.Errorf("prompt.interviewer_name must not be empty")
	}

	if cfg.ToggleGraceMS < 0 {
		return nil, fmt.Errorf("toggle_grace_ms must be >= 0")
	}
	if cfg.ToggleGraceMS > 2000 {
		warnings = append(warnings, Warning{Message: fmt.Sprintf("toggle_grace_ms=%d delays pause handling noticeably", cfg.ToggleGraceMS)})
	}

	// Credentials are intentionally not validated here: environment
	// overrides are applied after parsing, and doctor reports on them.
	return warnings, nil
}

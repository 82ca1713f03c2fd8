package config

import (
	"fmt"
	"strconv"
	"strings"
)

// parseLegacy reads the original key=value format: one dotted key per
// line, `#` comments, optional double quotes around values. Unknown keys
// warn instead of failing so old files keep loading.
func parseLegacy(content string, base Config) (Config, []Warning, error) {
	cfg := base
	var warnings []Warning

	for lineNo, raw := range strings.Split(content, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, found := strings.Cut(line, "=")
		if !found {
			warnings = append(warnings, Warning{
				Line:    lineNo + 1,
				Message: fmt.Sprintf("ignoring line without '=': %q", line),
			})
			continue
		}

		key = strings.TrimSpace(key)
		value = unquoteLegacyValue(strings.TrimSpace(value))

		if err := applyLegacyKey(&cfg, key, value, lineNo+1, &warnings); err != nil {
			return Config{}, nil, err
		}
	}

	validated, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	return cfg, append(warnings, validated...), nil
}

func applyLegacyKey(cfg *Config, key string, value string, lineNo int, warnings *[]Warning) error {
	switch key {
	case "transcription.url":
		cfg.Transcription.URL = value
	case "transcription.sample_rate":
		return setLegacyInt(&cfg.Transcription.SampleRate, key, value, lineNo)
	case "transcription.ping_interval_s":
		return setLegacyInt(&cfg.Transcription.PingIntervalS, key, value, lineNo)
	case "transcription.ping_timeout_s":
		return setLegacyInt(&cfg.Transcription.PingTimeoutS, key, value, lineNo)
	case "transcription.api_key":
		cfg.Transcription.APIKey = value
	case "openai.base_url":
		cfg.OpenAI.BaseURL = value
	case "openai.model":
		cfg.OpenAI.Model = value
	case "openai.api_key":
		cfg.OpenAI.APIKey = value
	case "prompt.system":
		cfg.Prompt.System = value
	case "prompt.style_note":
		cfg.Prompt.StyleNote = value
	case "prompt.user_name":
		cfg.Prompt.UserName = value
	case "prompt.interviewer_name":
		cfg.Prompt.InterviewerName = value
	case "audio.input":
		cfg.Audio.Input = value
	case "audio.fallback":
		cfg.Audio.Fallback = value
	case "toggle_grace_ms":
		return setLegacyInt(&cfg.ToggleGraceMS, key, value, lineNo)
	default:
		*warnings = append(*warnings, Warning{
			Line:    lineNo,
			Message: fmt.Sprintf("unknown config key %q", key),
		})
	}
	return nil
}

func setLegacyInt(target *int, key string, value string, lineNo int) error {
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("line %d: %s expects an integer, got %q", lineNo, key, value)
	}
	*target = parsed
	return nil
}

func unquoteLegacyValue(value string) string {
	if len(value) >= 2 && strings.HasPrefix(value, `"`) && strings.HasSuffix(value, `"`) {
		return value[1 : len(value)-1]
	}
	return value
}

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

const legacyFormatWarning = "legacy key=value config format is deprecated; migrate to JSONC"

// Parse reads configuration content as JSONC (preferred) or legacy key/value format.
//
// JSONC is selected when the first non-whitespace character is `{`.
func Parse(content string, base Config) (Config, []Warning, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		validatedWarnings, err := Validate(base)
		if err != nil {
			return Config{}, nil, err
		}
		return base, validatedWarnings, nil
	}

	if strings.HasPrefix(trimmed, "{") {
		return parseJSONC(content, base)
	}

	cfg, warnings, err := parseLegacy(content, base)
	if err != nil {
		return Config{}, nil, err
	}
	warnings = append([]Warning{{Message: legacyFormatWarning}}, warnings...)
	return cfg, warnings, nil
}

type jsoncConfig struct {
	Transcription *jsoncTranscription `json:"transcription"`
	OpenAI        *jsoncOpenAI        `json:"openai"`
	Prompt        *jsoncPrompt        `json:"prompt"`
	Audio         *jsoncAudio         `json:"audio"`
	ToggleGraceMS *int                `json:"toggle_grace_ms"`
}

type jsoncTranscription struct {
	URL           *string `json:"url"`
	SampleRate    *int    `json:"sample_rate"`
	PingIntervalS *int    `json:"ping_interval_s"`
	PingTimeoutS  *int    `json:"ping_timeout_s"`
	APIKey        *string `json:"api_key"`
}

type jsoncOpenAI struct {
	BaseURL *string `json:"base_url"`
	Model   *string `json:"model"`
	APIKey  *string `json:"api_key"`
}

type jsoncPrompt struct {
	System          *string `json:"system"`
	StyleNote       *string `json:"style_note"`
	UserName        *string `json:"user_name"`
	InterviewerName *string `json:"interviewer_name"`
}

type jsoncAudio struct {
	Input    *string `json:"input"`
	Fallback *string `json:"fallback"`
}

func parseJSONC(content string, base Config) (Config, []Warning, error) {
	normalized, err := normalizeJSONC(content)
	if err != nil {
		return Config{}, nil, err
	}

	decoder := json.NewDecoder(strings.NewReader(normalized))
	decoder.DisallowUnknownFields()

	var payload jsoncConfig
	if err := decoder.Decode(&payload); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}
	if err := ensureSingleJSONValue(decoder); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}

	cfg := base
	payload.applyTo(&cfg)

	warnings, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	return cfg, warnings, nil
}

func (payload jsoncConfig) applyTo(cfg *Config) {
	if payload.Transcription != nil {
		if payload.Transcription.URL != nil {
			cfg.Transcription.URL = strings.TrimSpace(*payload.Transcription.URL)
		}
		if payload.Transcription.SampleRate != nil {
			cfg.Transcription.SampleRate = *payload.Transcription.SampleRate
		}
		if payload.Transcription.PingIntervalS != nil {
			cfg.Transcription.PingIntervalS = *payload.Transcription.PingIntervalS
		}
		if payload.Transcription.PingTimeoutS != nil {
			cfg.Transcription.PingTimeoutS = *payload.Transcription.PingTimeoutS
		}
		if payload.Transcription.APIKey != nil {
			cfg.Transcription.APIKey = strings.TrimSpace(*payload.Transcription.APIKey)
		}
	}

	if payload.OpenAI != nil {
		if payload.OpenAI.BaseURL != nil {
			cfg.OpenAI.BaseURL = strings.TrimSpace(*payload.OpenAI.BaseURL)
		}
		if payload.OpenAI.Model != nil {
			cfg.OpenAI.Model = strings.TrimSpace(*payload.OpenAI.Model)
		}
		if payload.OpenAI.APIKey != nil {
			cfg.OpenAI.APIKey = strings.TrimSpace(*payload.OpenAI.APIKey)
		}
	}

	if payload.Prompt != nil {
		if payload.Prompt.System != nil {
			cfg.Prompt.System = *payload.Prompt.System
		}
		if payload.Prompt.StyleNote != nil {
			cfg.Prompt.StyleNote = *payload.Prompt.StyleNote
		}
		if payload.Prompt.UserName != nil {
			cfg.Prompt.UserName = strings.TrimSpace(*payload.Prompt.UserName)
		}
		if payload.Prompt.InterviewerName != nil {
			cfg.Prompt.InterviewerName = strings.TrimSpace(*payload.Prompt.InterviewerName)
		}
	}

	if payload.Audio != nil {
		if payload.Audio.Input != nil {
			cfg.Audio.Input = *payload.Audio.Input
		}
		if payload.Audio.Fallback != nil {
			cfg.Audio.Fallback = *payload.Audio.Fallback
		}
	}

	if payload.ToggleGraceMS != nil {
		cfg.ToggleGraceMS = *payload.ToggleGraceMS
	}
}

func normalizeJSONC(content string) (string, error) {
	withoutComments, err := stripJSONCComments(content)
	if err != nil {
		return "", err
	}
	return stripJSONCTrailingCommas(withoutComments), nil
}

func stripJSONCComments(content string) (string, error) {
	var out strings.Builder
	out.Grow(len(content))

	inString := false
	escape := false
	lineComment := false
	blockComment := false

	for i := 0; i < len(content); i++ {
		ch := content[i]

		if lineComment {
			if ch == '\n' || ch == '\r' {
				lineComment = false
				out.WriteByte(ch)
				continue
			}
			out.WriteByte(' ')
			continue
		}

		if blockComment {
			if ch == '*' && i+1 < len(content) && content[i+1] == '/' {
				blockComment = false
				out.WriteString("  ")
				i++
				continue
			}
			if ch == '\n' || ch == '\r' || ch == '\t' {
				out.WriteByte(ch)
			} else {
				out.WriteByte(' ')
			}
			continue
		}

		if inString {
			out.WriteByte(ch)
			if escape {
				escape = false
				continue
			}
			if ch == '\\' {
				escape = true
				continue
			}
			if ch == '"' {
				inString = false
			}
			continue
		}

		if ch == '"' {
			inString = true
			out.WriteByte(ch)
			continue
		}

		if ch == '/' && i+1 < len(content) {
			next := content[i+1]
			if next == '/' {
				lineComment = true
				out.WriteString("  ")
				i++
				continue
			}
			if next == '*' {
				blockComment = true
				out.WriteString("  ")
				i++
				continue
			}
		}

		out.WriteByte(ch)
	}

	if blockComment {
		return "", fmt.Errorf("unterminated block comment in JSONC")
	}

	return out.String(), nil
}

func stripJSONCTrailingCommas(content string) string {
	var out strings.Builder
	out.Grow(len(content))

	inString := false
	escape := false

	for i := 0; i < len(content); i++ {
		ch := content[i]

		if inString {
			out.WriteByte(ch)
			if escape {
				escape = false
				continue
			}
			if ch == '\\' {
				escape = true
				continue
			}
			if ch == '"' {
				inString = false
			}
			continue
		}

		if ch == '"' {
			inString = true
			out.WriteByte(ch)
			continue
		}

		if ch == ',' {
			j := i + 1
			for j < len(content) && isJSONWhitespace(content[j]) {
				j++
			}
			if j < len(content) && (content[j] == '}' || content[j] == ']') {
				continue
			}
		}

		out.WriteByte(ch)
	}

	return out.String()
}

func isJSONWhitespace(ch byte) bool {
	switch ch {
	case ' ', '\n', '\r', '\t':
		return true
	default:
		return false
	}
}

func ensureSingleJSONValue(decoder *json.Decoder) error {
	var extra struct{}
	err := decoder.Decode(&extra)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err == nil {
		return fmt.Errorf("multiple JSON values are not allowed")
	}
	return err
}

func wrapJSONDecodeError(content string, err error) error {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		line, col := offsetToLineCol(content, syntaxErr.Offset)
		return fmt.Errorf("line %d column %d: %w", line, col, err)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		line, col := offsetToLineCol(content, typeErr.Offset)
		return fmt.Errorf("line %d column %d: %w", line, col, err)
	}

	return err
}

func offsetToLineCol(content string, offset int64) (int, int) {
	if offset <= 0 {
		return 1, 1
	}

	limit := int(offset)
	if limit > len(content) {
		limit = len(content)
	}

	line := 1
	col := 1
	for i := 0; i < limit; i++ {
		if content[i] == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}

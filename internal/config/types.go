// Package config resolves, parses, validates, and defaults copilot configuration.
package config

// Config is the fully materialized runtime configuration used by copilot.
type Config struct {
	Transcription TranscriptionConfig
	OpenAI        OpenAIConfig
	Prompt        PromptConfig
	Audio         AudioConfig
	ToggleGraceMS int
}

// TranscriptionConfig controls the realtime transcription websocket channel.
type TranscriptionConfig struct {
	URL           string
	SampleRate    int
	PingIntervalS int
	PingTimeoutS  int
	APIKey        string
}

// OpenAIConfig controls the streaming completion service.
type OpenAIConfig struct {
	BaseURL string
	Model   string
	APIKey  string
}

// PromptConfig seeds the conversation and labels the output surface.
type PromptConfig struct {
	System          string
	StyleNote       string
	UserName        string
	InterviewerName string
}

// AudioConfig controls preferred and fallback input-source selection.
type AudioConfig struct {
	Input    string
	Fallback string
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}

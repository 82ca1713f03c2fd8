package config

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	return Config{
		Transcription: TranscriptionConfig{
			URL:           "wss://api.assemblyai.com/v2/realtime/ws",
			SampleRate:    16000,
			PingIntervalS: 5,
			PingTimeoutS:  20,
		},
		OpenAI: OpenAIConfig{
			BaseURL: "https://api.openai.com/v1",
			Model:   "gpt-4",
		},
		Prompt: PromptConfig{
			System:          "You are a concise assistant helping answer interview questions in real time.",
			StyleNote:       "Note: Remember to always be concise, brief, straight-to-the-point in your answers.",
			UserName:        "You",
			InterviewerName: "Interviewer",
		},
		Audio: AudioConfig{
			Input:    "default",
			Fallback: "default",
		},
		ToggleGraceMS: 300,
	}
}

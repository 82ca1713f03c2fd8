// Package doctor runs readiness diagnostics for config, credentials,
// service endpoints, and audio capture.
package doctor

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/Folusakin/Realtime-Copilot/internal/audio"
	"github.com/Folusakin/Realtime-Copilot/internal/config"
)

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Run executes environment/config/runtime checks for a loaded config.
func Run(cfg config.Loaded) Report {
	checks := []Check{}

	configMessage := fmt.Sprintf("loaded %q", cfg.Path)
	if !cfg.Exists {
		configMessage = fmt.Sprintf("%q not found; running on defaults", cfg.Path)
	}
	checks = append(checks, Check{Name: "config", Pass: true, Message: configMessage})

	checks = append(checks, checkCredential("transcription.api_key", cfg.Config.Transcription.APIKey, config.EnvTranscriptionKey))
	checks = append(checks, checkCredential("openai.api_key", cfg.Config.OpenAI.APIKey, config.EnvOpenAIKey))

	checks = append(checks, checkURL("transcription.url", cfg.Config.Transcription.URL, "ws", "wss"))
	checks = append(checks, checkURL("openai.base_url", cfg.Config.OpenAI.BaseURL, "http", "https"))

	checks = append(checks, checkRuntimeDir())
	checks = append(checks, checkAudioSelection(cfg.Config))

	return Report{Checks: checks}
}

// checkCredential verifies a key is present, without logging its value.
func checkCredential(name, value, envName string) Check {
	if strings.TrimSpace(value) == "" {
		return Check{
			Name:    name,
			Pass:    false,
			Message: fmt.Sprintf("missing; set it in the config file or export %s", envName),
		}
	}
	return Check{Name: name, Pass: true, Message: "configured"}
}

// checkURL validates an endpoint URL against its allowed schemes.
func checkURL(name, raw string, schemes ...string) Check {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return Check{Name: name, Pass: false, Message: fmt.Sprintf("invalid URL: %v", err)}
	}
	for _, scheme := range schemes {
		if parsed.Scheme == scheme {
			return Check{Name: name, Pass: true, Message: raw}
		}
	}
	return Check{
		Name:    name,
		Pass:    false,
		Message: fmt.Sprintf("scheme %q not in %s", parsed.Scheme, strings.Join(schemes, "/")),
	}
}

// checkRuntimeDir verifies the control socket has somewhere to live.
func checkRuntimeDir() Check {
	runtimeDir := strings.TrimSpace(os.Getenv("XDG_RUNTIME_DIR"))
	if runtimeDir == "" {
		return Check{Name: "XDG_RUNTIME_DIR", Pass: false, Message: "not set; toggle/stop/status need the control socket"}
	}
	return Check{Name: "XDG_RUNTIME_DIR", Pass: true, Message: runtimeDir}
}

// checkAudioSelection runs live device selection to surface selection/fallback issues.
func checkAudioSelection(cfg config.Config) Check {
	selection, err := audio.SelectDevice(context.Background(), cfg.Audio.Input, cfg.Audio.Fallback)
	if err != nil {
		return Check{Name: "audio.device", Pass: false, Message: err.Error()}
	}
	message := fmt.Sprintf("selected %q", selection.Device.ID)
	if selection.Warning != "" {
		message = message + " (" + selection.Warning + ")"
	}
	return Check{Name: "audio.device", Pass: true, Message: message}
}

package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

type credential struct {
	env   string
	value *string
}

// required lists the credentials a provider cannot work without. For Google
// either the API key or a service account file is enough; only the key is
// prompted for.
func (c *Config) required() []credential {
	creds := &c.Credentials
	switch c.TTS.Provider {
	case "openai":
		return []credential{{"OPENAI_API_KEY", &creds.OpenAIKey}}
	case "elevenlabs":
		return []credential{{"ELEVENLABS_API_KEY", &creds.ElevenLabsKey}}
	case "google":
		if creds.GoogleCredentialsFile != "" {
			return nil
		}
		return []credential{{"GOOGLE_TTS_API_KEY", &creds.GoogleAPIKey}}
	case "gemini":
		return []credential{{"GOOGLE_API_KEY", &creds.GeminiKey}}
	case "azure":
		return []credential{
			{"AZURE_SPEECH_KEY", &creds.AzureKey},
			{"AZURE_SPEECH_REGION", &creds.AzureRegion},
		}
	default:
		return nil
	}
}

// MissingCredentials names the unset credentials of the selected provider.
func (c *Config) MissingCredentials() []string {
	var missing []string
	for _, cred := range c.required() {
		if *cred.value == "" {
			missing = append(missing, cred.env)
		}
	}
	return missing
}

// PromptCredentials asks for every missing credential of the selected
// provider, one line each. Empty answers leave the credential unset.
func (c *Config) PromptCredentials(in io.Reader, out io.Writer) error {
	reader := bufio.NewReader(in)
	for _, cred := range c.required() {
		if *cred.value != "" {
			continue
		}
		fmt.Fprintf(out, "%s is not set. Enter it (leave empty to skip): ", cred.env)
		line, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return fmt.Errorf("failed to read %s: %w", cred.env, err)
		}
		*cred.value = strings.TrimSpace(line)
		if err == io.EOF {
			return nil
		}
	}
	return nil
}

// Interactive reports whether stdin is a terminal a user can type into.
func Interactive() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

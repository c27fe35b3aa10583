package tts

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"sort"
	"strings"
)

// Credentials holds every vendor secret. Only the selected vendor's fields
// need to be set.
type Credentials struct {
	OpenAIKey             string
	ElevenLabsKey         string
	GoogleCredentialsFile string
	GoogleAPIKey          string
	GeminiKey             string
	AzureKey              string
	AzureRegion           string
}

// Settings are the non-secret knobs shared by all vendors.
type Settings struct {
	HTTPClient *http.Client
	UserAgent  string
	// Endpoint overrides the vendor base URL.
	Endpoint string
}

func (s Settings) httpClient() *http.Client {
	if s.HTTPClient != nil {
		return s.HTTPClient
	}
	return http.DefaultClient
}

type factory struct {
	voice Voice
	// formats lists the audio formats the vendor can write.
	formats []string
	build func(ctx context.Context, creds Credentials, s Settings) (Synthesizer, error)
}

var registry = map[string]factory{
	"openai": {
		voice:   Voice{ID: "alloy", Language: "en", Model: "tts-1", Format: "mp3"},
		formats: []string{"mp3", "opus", "aac", "flac", "wav", "pcm"},
		build: func(_ context.Context, c Credentials, s Settings) (Synthesizer, error) {
			return NewOpenAI(c.OpenAIKey, s)
		},
	},
	"elevenlabs": {
		voice:   Voice{ID: "21m00Tcm4TlvDq8ikWAM", Language: "tr", Model: "eleven_multilingual_v2", Format: "mp3"},
		formats: []string{"mp3", "wav"},
		build: func(_ context.Context, c Credentials, s Settings) (Synthesizer, error) {
			return NewElevenLabs(c.ElevenLabsKey, s)
		},
	},
	"google": {
		voice:   Voice{Language: "tr-TR", Format: "mp3"},
		formats: []string{"mp3", "wav", "ogg"},
		build: func(ctx context.Context, c Credentials, s Settings) (Synthesizer, error) {
			return NewGoogle(ctx, c.GoogleAPIKey, c.GoogleCredentialsFile, s)
		},
	},
	"gemini": {
		voice:   Voice{ID: "Kore", Model: "gemini-2.5-flash-preview-tts", Format: "wav"},
		formats: []string{"wav"},
		build: func(ctx context.Context, c Credentials, s Settings) (Synthesizer, error) {
			return NewGemini(ctx, c.GeminiKey, s)
		},
	},
	"azure": {
		voice:   Voice{ID: "tr-TR-EmelNeural", Language: "tr-TR", Format: "mp3"},
		formats: []string{"mp3", "wav", "ogg"},
		build: func(_ context.Context, c Credentials, s Settings) (Synthesizer, error) {
			return NewAzure(c.AzureKey, c.AzureRegion, s)
		},
	},
}

// New builds the synthesizer registered under name.
func New(ctx context.Context, name string, creds Credentials, settings Settings) (Synthesizer, error) {
	f, ok := registry[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %s)", ErrUnknownProvider, name, strings.Join(Providers(), ", "))
	}
	return f.build(ctx, creds, settings)
}

// DefaultVoice returns the voice a provider uses when none is configured.
func DefaultVoice(name string) (Voice, error) {
	f, ok := registry[strings.ToLower(name)]
	if !ok {
		return Voice{}, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	return f.voice, nil
}

// SupportsFormat reports whether the named provider can write audio in
// format. An empty format means the provider default.
func SupportsFormat(name, format string) bool {
	f, ok := registry[strings.ToLower(name)]
	if !ok {
		return false
	}
	if format == "" {
		return true
	}
	return slices.Contains(f.formats, strings.ToLower(format))
}

// checkFormat rejects a voice format the vendor cannot produce.
func checkFormat(vendor string, voice Voice) error {
	if SupportsFormat(vendor, voice.Format) {
		return nil
	}
	return &Failure{
		Vendor: vendor,
		Reason: ReasonRejected,
		Err:    fmt.Errorf("%w %q (supported: %s)", ErrUnsupportedFormat, voice.Format, strings.Join(registry[vendor].formats, ", ")),
	}
}

// Providers lists the registered provider names.
func Providers() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func missing(vendor, what string) error {
	return fmt.Errorf("%s: %w: %s", vendor, ErrMissingCredential, what)
}

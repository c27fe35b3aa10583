package tts

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	texttospeech "google.golang.org/api/texttospeech/v1"
)

// Google speaks through Google Cloud Text-to-Speech.
type Google struct {
	svc *texttospeech.Service
}

// NewGoogle authenticates with apiKey when set, otherwise with the service
// account file at credentialsFile. The shared HTTP client is not used:
// option.WithHTTPClient would bypass both.
func NewGoogle(ctx context.Context, apiKey, credentialsFile string, s Settings) (*Google, error) {
	var opts []option.ClientOption
	switch {
	case apiKey != "":
		opts = append(opts, option.WithAPIKey(apiKey))
	case credentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	default:
		return nil, missing("google", "GOOGLE_TTS_API_KEY or GOOGLE_APPLICATION_CREDENTIALS")
	}
	if s.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(s.Endpoint))
	}
	if s.UserAgent != "" {
		opts = append(opts, option.WithUserAgent(s.UserAgent))
	}

	svc, err := texttospeech.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Google TTS client: %w", err)
	}
	return &Google{svc: svc}, nil
}

func (g *Google) Name() string {
	return "google"
}

func (g *Google) Synthesize(ctx context.Context, text string, voice Voice) ([]byte, error) {
	voice = voice.Or(registry["google"].voice)
	if err := checkFormat(g.Name(), voice); err != nil {
		return nil, err
	}

	req := &texttospeech.SynthesizeSpeechRequest{
		Input: &texttospeech.SynthesisInput{Text: text},
		Voice: &texttospeech.VoiceSelectionParams{
			LanguageCode: voice.Language,
			Name:         voice.ID,
			SsmlGender:   "NEUTRAL",
		},
		AudioConfig: &texttospeech.AudioConfig{
			AudioEncoding: googleEncoding(voice.Format),
		},
	}

	resp, err := g.svc.Text.Synthesize(req).Context(ctx).Do()
	if err != nil {
		return nil, googleFailure(err)
	}

	audio, err := base64.StdEncoding.DecodeString(resp.AudioContent)
	if err != nil {
		return nil, &Failure{Vendor: g.Name(), Reason: ReasonRejected, Err: fmt.Errorf("invalid audio content: %w", err)}
	}
	if len(audio) == 0 {
		return nil, &Failure{Vendor: g.Name(), Reason: ReasonRejected, Err: errors.New("empty audio response")}
	}
	return audio, nil
}

func (g *Google) Voices(ctx context.Context, language string) ([]VoiceInfo, error) {
	call := g.svc.Voices.List().Context(ctx)
	if language != "" {
		call = call.LanguageCode(language)
	}
	resp, err := call.Do()
	if err != nil {
		return nil, googleFailure(err)
	}

	voices := make([]VoiceInfo, 0, len(resp.Voices))
	for _, v := range resp.Voices {
		voices = append(voices, VoiceInfo{
			ID:       v.Name,
			Name:     v.Name,
			Language: strings.Join(v.LanguageCodes, ","),
			Gender:   v.SsmlGender,
		})
	}
	return voices, nil
}

func googleEncoding(format string) string {
	switch strings.ToLower(format) {
	case "wav":
		return "LINEAR16"
	case "ogg":
		return "OGG_OPUS"
	default:
		return "MP3"
	}
}

func googleFailure(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return fail("google", apiErr.Code, apiErr.Message, err)
	}
	return fail("google", 0, "", err)
}

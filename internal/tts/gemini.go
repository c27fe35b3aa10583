package tts

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"google.golang.org/genai"
)

// geminiSampleRate is the PCM rate Gemini speech models return.
const geminiSampleRate = 24000

var pcmRate = regexp.MustCompile(`rate=(\d+)`)

// Gemini speaks through the Gemini speech generation models.
type Gemini struct {
	client *genai.Client
}

func NewGemini(ctx context.Context, apiKey string, s Settings) (*Gemini, error) {
	if apiKey == "" {
		return nil, missing("gemini", "GOOGLE_API_KEY")
	}

	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: s.HTTPClient,
	}
	if s.Endpoint != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: s.Endpoint}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &Gemini{client: client}, nil
}

func (g *Gemini) Name() string {
	return "gemini"
}

// Synthesize returns a WAV file wrapping the PCM audio Gemini generates.
func (g *Gemini) Synthesize(ctx context.Context, text string, voice Voice) ([]byte, error) {
	voice = voice.Or(registry["gemini"].voice)
	if err := checkFormat(g.Name(), voice); err != nil {
		return nil, err
	}

	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: voice.ID},
			},
		},
	}
	if voice.Language != "" {
		cfg.SpeechConfig.LanguageCode = voice.Language
	}

	result, err := g.client.Models.GenerateContent(ctx, voice.Model, genai.Text(text), cfg)
	if err != nil {
		return nil, geminiFailure(err)
	}

	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return nil, &Failure{Vendor: g.Name(), Reason: ReasonRejected, Err: errors.New("empty response from Gemini")}
	}

	var pcm []byte
	rate := geminiSampleRate
	for _, part := range result.Candidates[0].Content.Parts {
		if part.InlineData == nil {
			continue
		}
		pcm = append(pcm, part.InlineData.Data...)
		if m := pcmRate.FindStringSubmatch(part.InlineData.MIMEType); m != nil {
			if r, err := strconv.Atoi(m[1]); err == nil && r > 0 {
				rate = r
			}
		}
	}
	if len(pcm) == 0 {
		return nil, &Failure{Vendor: g.Name(), Reason: ReasonRejected, Err: errors.New("no audio in Gemini response")}
	}

	return wav(pcm, rate, 1, 16), nil
}

func geminiFailure(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return fail("gemini", apiErr.Code, apiErr.Status+" "+apiErr.Message, err)
	}
	return &Failure{Vendor: "gemini", Reason: classifyMessage(err.Error()), Err: err}
}

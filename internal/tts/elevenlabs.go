package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const elevenLabsEndpoint = "https://api.elevenlabs.io"

// elevenLabsPCMRate is the sample rate requested when the voice wants WAV.
// The vendor has no WAV output, so raw PCM is wrapped locally.
const elevenLabsPCMRate = 24000

var elevenLabsOutputFormats = map[string]string{
	"mp3": "mp3_44100_128",
	"wav": fmt.Sprintf("pcm_%d", elevenLabsPCMRate),
}

// ElevenLabs speaks through the ElevenLabs text-to-speech REST API.
type ElevenLabs struct {
	apiKey    string
	endpoint  string
	userAgent string
	client    *http.Client
}

type elevenLabsRequest struct {
	Text          string                  `json:"text"`
	ModelID       string                  `json:"model_id"`
	VoiceSettings elevenLabsVoiceSettings `json:"voice_settings"`
}

type elevenLabsVoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

type elevenLabsVoices struct {
	Voices []struct {
		VoiceID string            `json:"voice_id"`
		Name    string            `json:"name"`
		Labels  map[string]string `json:"labels"`
	} `json:"voices"`
}

func NewElevenLabs(apiKey string, s Settings) (*ElevenLabs, error) {
	if apiKey == "" {
		return nil, missing("elevenlabs", "ELEVENLABS_API_KEY")
	}
	endpoint := elevenLabsEndpoint
	if s.Endpoint != "" {
		endpoint = s.Endpoint
	}
	return &ElevenLabs{
		apiKey:    apiKey,
		endpoint:  strings.TrimRight(endpoint, "/"),
		userAgent: s.UserAgent,
		client:    s.httpClient(),
	}, nil
}

func (e *ElevenLabs) Name() string {
	return "elevenlabs"
}

func (e *ElevenLabs) Synthesize(ctx context.Context, text string, voice Voice) ([]byte, error) {
	voice = voice.Or(registry["elevenlabs"].voice)
	if err := checkFormat(e.Name(), voice); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(elevenLabsRequest{
		Text:    text,
		ModelID: voice.Model,
		VoiceSettings: elevenLabsVoiceSettings{
			Stability:       0.5,
			SimilarityBoost: 0.75,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	query := url.Values{"output_format": {elevenLabsOutputFormats[voice.Ext()]}}
	endpoint := fmt.Sprintf("%s/v1/text-to-speech/%s?%s", e.endpoint, url.PathEscape(voice.ID), query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	e.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	if voice.Ext() == "wav" {
		pcm, err := doAudio(e.client, e.Name(), req)
		if err != nil {
			return nil, err
		}
		return wav(pcm, elevenLabsPCMRate, 1, 16), nil
	}

	req.Header.Set("Accept", "audio/mpeg")
	return doAudio(e.client, e.Name(), req)
}

// Voices lists the account's voices. A non-empty language keeps only voices
// labelled with it.
func (e *ElevenLabs) Voices(ctx context.Context, language string) ([]VoiceInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.endpoint+"/v1/voices", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	e.setHeaders(req)
	req.Header.Set("Accept", "application/json")

	body, err := doAudio(e.client, e.Name(), req)
	if err != nil {
		return nil, err
	}

	var resp elevenLabsVoices
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode voices: %w", err)
	}

	voices := make([]VoiceInfo, 0, len(resp.Voices))
	for _, v := range resp.Voices {
		lang := v.Labels["language"]
		if language != "" && lang != "" && !strings.EqualFold(lang, language) {
			continue
		}
		voices = append(voices, VoiceInfo{
			ID:       v.VoiceID,
			Name:     v.Name,
			Language: lang,
			Gender:   v.Labels["gender"],
		})
	}
	return voices, nil
}

func (e *ElevenLabs) setHeaders(req *http.Request) {
	req.Header.Set("xi-api-key", e.apiKey)
	if e.userAgent != "" {
		req.Header.Set("User-Agent", e.userAgent)
	}
}

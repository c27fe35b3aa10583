package tts

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"
)

// azureOutputFormats maps a file format to the X-Microsoft-OutputFormat value.
var azureOutputFormats = map[string]string{
	"mp3": "audio-16khz-128kbitrate-mono-mp3",
	"wav": "riff-24khz-16bit-mono-pcm",
	"ogg": "ogg-24khz-16bit-mono-opus",
}

// Azure speaks through the Azure Speech service REST endpoint.
type Azure struct {
	key       string
	endpoint  string
	userAgent string
	client    *http.Client
}

func NewAzure(key, region string, s Settings) (*Azure, error) {
	if key == "" {
		return nil, missing("azure", "AZURE_SPEECH_KEY")
	}
	endpoint := s.Endpoint
	if endpoint == "" {
		if region == "" {
			return nil, missing("azure", "AZURE_SPEECH_REGION")
		}
		endpoint = fmt.Sprintf("https://%s.tts.speech.microsoft.com", region)
	}
	return &Azure{
		key:       key,
		endpoint:  strings.TrimRight(endpoint, "/"),
		userAgent: s.UserAgent,
		client:    s.httpClient(),
	}, nil
}

func (a *Azure) Name() string {
	return "azure"
}

func (a *Azure) Synthesize(ctx context.Context, text string, voice Voice) ([]byte, error) {
	voice = voice.Or(registry["azure"].voice)
	if err := checkFormat(a.Name(), voice); err != nil {
		return nil, err
	}

	body, err := ssml(text, voice)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint+"/cognitiveservices/v1", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", a.key)
	req.Header.Set("Content-Type", "application/ssml+xml")
	req.Header.Set("X-Microsoft-OutputFormat", azureOutputFormats[voice.Ext()])
	ua := a.userAgent
	if ua == "" {
		ua = "newsvoice"
	}
	req.Header.Set("User-Agent", ua)

	return doAudio(a.client, a.Name(), req)
}

func ssml(text string, voice Voice) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`<speak version="1.0" xmlns="http://www.w3.org/2001/10/synthesis" xml:lang="`)
	if err := xml.EscapeText(&buf, []byte(voice.Language)); err != nil {
		return nil, fmt.Errorf("failed to build SSML: %w", err)
	}
	buf.WriteString(`"><voice name="`)
	if err := xml.EscapeText(&buf, []byte(voice.ID)); err != nil {
		return nil, fmt.Errorf("failed to build SSML: %w", err)
	}
	buf.WriteString(`">`)
	if err := xml.EscapeText(&buf, []byte(text)); err != nil {
		return nil, fmt.Errorf("failed to build SSML: %w", err)
	}
	buf.WriteString(`</voice></speak>`)
	return buf.Bytes(), nil
}

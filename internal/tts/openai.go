package tts

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sashabaranov/go-openai"
)

var openAIVoices = []string{"alloy", "ash", "coral", "echo", "fable", "nova", "onyx", "sage", "shimmer"}

// OpenAI speaks through the OpenAI speech endpoint.
type OpenAI struct {
	client *openai.Client
}

func NewOpenAI(apiKey string, s Settings) (*OpenAI, error) {
	if apiKey == "" {
		return nil, missing("openai", "OPENAI_API_KEY")
	}

	cfg := openai.DefaultConfig(apiKey)
	cfg.HTTPClient = s.httpClient()
	if s.Endpoint != "" {
		cfg.BaseURL = s.Endpoint
	}

	return &OpenAI{client: openai.NewClientWithConfig(cfg)}, nil
}

func (o *OpenAI) Name() string {
	return "openai"
}

func (o *OpenAI) Synthesize(ctx context.Context, text string, voice Voice) ([]byte, error) {
	voice = voice.Or(registry["openai"].voice)
	if err := checkFormat(o.Name(), voice); err != nil {
		return nil, err
	}

	resp, err := o.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(voice.Model),
		Input:          text,
		Voice:          openai.SpeechVoice(voice.ID),
		ResponseFormat: openai.SpeechResponseFormat(voice.Ext()),
	})
	if err != nil {
		return nil, openAIFailure(err)
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, fail(o.Name(), 0, "", fmt.Errorf("failed to read audio: %w", err))
	}
	if len(audio) == 0 {
		return nil, &Failure{Vendor: o.Name(), Reason: ReasonRejected, Err: errors.New("empty audio response")}
	}
	return audio, nil
}

// Voices returns the fixed OpenAI voice set. The voices are multilingual so
// language is ignored.
func (o *OpenAI) Voices(_ context.Context, _ string) ([]VoiceInfo, error) {
	voices := make([]VoiceInfo, 0, len(openAIVoices))
	for _, v := range openAIVoices {
		voices = append(voices, VoiceInfo{ID: v, Name: v})
	}
	return voices, nil
}

func openAIFailure(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fail("openai", apiErr.HTTPStatusCode, apiErr.Message, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fail("openai", reqErr.HTTPStatusCode, reqErr.Error(), err)
	}
	return fail("openai", 0, "", err)
}

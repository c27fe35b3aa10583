package tts

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxErrorBody caps how much of an error response is kept for classification.
const maxErrorBody = 4096

// doAudio sends req and returns the response body of a 2xx answer. Any other
// outcome becomes a *Failure.
func doAudio(client *http.Client, vendor string, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, fail(vendor, 0, "", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		msg := strings.TrimSpace(string(body))
		return nil, fail(vendor, resp.StatusCode, msg, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, msg))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fail(vendor, 0, "", fmt.Errorf("failed to read audio: %w", err))
	}
	if len(audio) == 0 {
		return nil, &Failure{Vendor: vendor, Reason: ReasonRejected, StatusCode: resp.StatusCode, Err: errors.New("empty audio response")}
	}
	return audio, nil
}

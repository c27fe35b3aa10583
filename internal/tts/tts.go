// Package tts converts text to speech through interchangeable cloud vendors.
package tts

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrMissingCredential is returned when a vendor's credential is not set.
	ErrMissingCredential = errors.New("missing credential")
	// ErrUnknownProvider is returned for a provider name with no registered vendor.
	ErrUnknownProvider = errors.New("unknown TTS provider")
	// ErrUnsupportedFormat is returned for an audio format a vendor cannot produce.
	ErrUnsupportedFormat = errors.New("unsupported audio format")
)

// Synthesizer turns one text segment into audio bytes.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, voice Voice) ([]byte, error)
	Name() string
}

// VoiceLister is implemented by vendors that expose a voice catalogue.
type VoiceLister interface {
	Voices(ctx context.Context, language string) ([]VoiceInfo, error)
}

// Voice selects how a vendor speaks. Empty fields take the vendor default.
type Voice struct {
	ID       string `yaml:"id" json:"id"`
	Language string `yaml:"language" json:"language"`
	Model    string `yaml:"model" json:"model"`
	Format   string `yaml:"format" json:"format"`
}

// Or fills the empty fields of v from def.
func (v Voice) Or(def Voice) Voice {
	if v.ID == "" {
		v.ID = def.ID
	}
	if v.Language == "" {
		v.Language = def.Language
	}
	if v.Model == "" {
		v.Model = def.Model
	}
	if v.Format == "" {
		v.Format = def.Format
	}
	return v
}

// Ext is the file extension for audio in this voice's format.
func (v Voice) Ext() string {
	if v.Format == "" {
		return "mp3"
	}
	return strings.ToLower(v.Format)
}

// VoiceInfo describes one entry of a vendor's voice catalogue.
type VoiceInfo struct {
	ID       string
	Name     string
	Language string
	Gender   string
}

// Reason tags why a synthesis call failed.
type Reason string

const (
	ReasonAuth                Reason = "auth"
	ReasonQuota               Reason = "quota"
	ReasonUnsupportedLanguage Reason = "unsupported_language"
	ReasonTransient           Reason = "transient"
	ReasonRejected            Reason = "rejected"
)

// Failure is the error returned by every vendor when synthesis fails.
type Failure struct {
	Vendor     string
	Reason     Reason
	StatusCode int
	Err        error
}

func (f *Failure) Error() string {
	if f.StatusCode != 0 {
		return fmt.Sprintf("%s: %s failure (HTTP %d): %v", f.Vendor, f.Reason, f.StatusCode, f.Err)
	}
	return fmt.Sprintf("%s: %s failure: %v", f.Vendor, f.Reason, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Temporary reports whether retrying later could succeed.
func (f *Failure) Temporary() bool {
	return f.Reason == ReasonTransient || f.Reason == ReasonQuota
}

// Classify maps an HTTP status and response body to a failure reason. A zero
// status means the request never got a response.
func Classify(status int, body string) Reason {
	lower := strings.ToLower(body)

	switch {
	case status == 0:
		return ReasonTransient
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ReasonAuth
	case status == http.StatusTooManyRequests || status == http.StatusPaymentRequired:
		return ReasonQuota
	case status == http.StatusRequestTimeout || status >= 500:
		return ReasonTransient
	case strings.Contains(lower, "quota"):
		return ReasonQuota
	case strings.Contains(lower, "language") || strings.Contains(lower, "voice"):
		return ReasonUnsupportedLanguage
	default:
		return ReasonRejected
	}
}

// classifyMessage is used for SDK errors that only expose a message.
func classifyMessage(msg string) Reason {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "resource_exhausted") || strings.Contains(lower, "429") || strings.Contains(lower, "quota"):
		return ReasonQuota
	case strings.Contains(lower, "permission_denied") || strings.Contains(lower, "unauthenticated") ||
		strings.Contains(lower, "api key") || strings.Contains(lower, "401") || strings.Contains(lower, "403"):
		return ReasonAuth
	case strings.Contains(lower, "invalid_argument") && (strings.Contains(lower, "language") || strings.Contains(lower, "voice")):
		return ReasonUnsupportedLanguage
	case strings.Contains(lower, "invalid_argument") || strings.Contains(lower, "400"):
		return ReasonRejected
	default:
		return ReasonTransient
	}
}

func fail(vendor string, status int, body string, err error) *Failure {
	return &Failure{
		Vendor:     vendor,
		Reason:     Classify(status, body),
		StatusCode: status,
		Err:        err,
	}
}

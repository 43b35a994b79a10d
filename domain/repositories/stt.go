package repositories

import (
	"context"
	"fmt"
)

// SpeechToText abstracts speech recognition services
type SpeechToText interface {
	// Recognize transcribes one complete audio payload as a single unary request
	Recognize(ctx context.Context, audioData []byte, config AudioConfig) (*Recognition, error)
	// Name identifies the backend in health output and logs
	Name() string
}

// AudioConfig represents audio configuration for speech recognition
type AudioConfig struct {
	SampleRate          int    `json:"sample_rate"`
	Encoding            string `json:"encoding"`
	Language            string `json:"language"`
	Channels            int    `json:"channels"`
	AutomaticPunctuation bool   `json:"automatic_punctuation"`
	ProfanityFilter     bool   `json:"profanity_filter"`
	Model               string `json:"model,omitempty"`
	UseEnhanced         bool   `json:"use_enhanced"`
}

// Alternative is one hypothesis for a recognized segment.
type Alternative struct {
	Transcript string  `json:"transcript"`
	Confidence float32 `json:"confidence"`
}

// Result holds the alternatives for one segment, best first.
type Result struct {
	Alternatives []Alternative `json:"alternatives"`
}

// Top returns the best alternative, if any.
func (r Result) Top() (Alternative, bool) {
	if len(r.Alternatives) == 0 {
		return Alternative{}, false
	}
	return r.Alternatives[0], true
}

// Recognition is the outcome of a successful recognizer call.
type Recognition struct {
	Results []Result `json:"results"`
}

// RecognitionError marks a failure returned by the recognizer backend.
type RecognitionError struct {
	Backend string
	Err     error
}

func (e *RecognitionError) Error() string {
	return e.Err.Error()
}

func (e *RecognitionError) Unwrap() error {
	return e.Err
}

// NewRecognitionError wraps err as a backend failure.
func NewRecognitionError(backend string, err error) error {
	if err == nil {
		return nil
	}
	return &RecognitionError{Backend: backend, Err: err}
}

// RecognitionErrorf formats a backend failure.
func RecognitionErrorf(backend, format string, args ...interface{}) error {
	return &RecognitionError{Backend: backend, Err: fmt.Errorf(format, args...)}
}

package stt

import (
	"context"

	"github.com/satriahrh/lisan/domain/repositories"
)

const unavailableBackend = "unavailable"

// UnavailableSpeechToText stands in for a backend that failed to initialize.
// Every call reports the initialization error.
type UnavailableSpeechToText struct {
	cause error
}

// NewUnavailableSpeechToText returns a recognizer that always fails with cause.
func NewUnavailableSpeechToText(cause error) *UnavailableSpeechToText {
	return &UnavailableSpeechToText{cause: cause}
}

// Name implements repositories.SpeechToText
func (u *UnavailableSpeechToText) Name() string {
	return unavailableBackend
}

// Recognize implements repositories.SpeechToText
func (u *UnavailableSpeechToText) Recognize(ctx context.Context, audioData []byte, config repositories.AudioConfig) (*repositories.Recognition, error) {
	return nil, repositories.RecognitionErrorf(unavailableBackend, "speech client not initialized: %v", u.cause)
}

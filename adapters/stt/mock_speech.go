package stt

import (
	"context"

	"go.uber.org/zap"

	"github.com/satriahrh/lisan/domain/repositories"
)

const mockBackend = "mock"

// MockSpeechToText is a placeholder implementation for speech recognition
type MockSpeechToText struct {
	logger *zap.Logger
}

// NewMockSpeechToText creates a new mock speech-to-text service
func NewMockSpeechToText(logger *zap.Logger) *MockSpeechToText {
	return &MockSpeechToText{
		logger: logger,
	}
}

// Name implements repositories.SpeechToText
func (s *MockSpeechToText) Name() string {
	return mockBackend
}

// Recognize implements repositories.SpeechToText
func (s *MockSpeechToText) Recognize(ctx context.Context, audioData []byte, config repositories.AudioConfig) (*repositories.Recognition, error) {
	s.logger.Info("Processing mock speech-to-text",
		zap.Int("audioSize", len(audioData)),
		zap.Int("sampleRate", config.SampleRate),
		zap.String("encoding", config.Encoding))

	if err := ctx.Err(); err != nil {
		return nil, repositories.NewRecognitionError(mockBackend, err)
	}

	// Mock transcription based on audio size
	var transcript string
	switch {
	case len(audioData) > 10000:
		transcript = "Hola, ¿qué tal? Quiero contarte cómo fue mi día."
	case len(audioData) > 5000:
		transcript = "Gracias por escuchar."
	case len(audioData) > 1000:
		transcript = "¡Hola!"
	default:
		return &repositories.Recognition{}, nil
	}

	return &repositories.Recognition{
		Results: []repositories.Result{{
			Alternatives: []repositories.Alternative{{Transcript: transcript, Confidence: 0.9}},
		}},
	}, nil
}

package stt

import (
	"errors"
	"testing"

	"cloud.google.com/go/speech/apiv1/speechpb"

	"github.com/satriahrh/lisan/domain/repositories"
)

var _ repositories.SpeechToText = &GoogleSpeechToText{}

func TestGetAudioEncoding(t *testing.T) {
	cases := map[string]speechpb.RecognitionConfig_AudioEncoding{
		"WAV":       speechpb.RecognitionConfig_LINEAR16,
		"LINEAR16":  speechpb.RecognitionConfig_LINEAR16,
		"OGG_OPUS":  speechpb.RecognitionConfig_OGG_OPUS,
		"WEBM_OPUS": speechpb.RecognitionConfig_WEBM_OPUS,
	}
	for name, want := range cases {
		got, err := getAudioEncoding(name)
		if err != nil {
			t.Fatalf("getAudioEncoding(%q) returned error: %v", name, err)
		}
		if got != want {
			t.Errorf("getAudioEncoding(%q) = %v, want %v", name, got, want)
		}
	}

	if _, err := getAudioEncoding("MP3"); err == nil {
		t.Error("Expected error for unsupported encoding")
	}
}

func TestBuildRecognitionConfig(t *testing.T) {
	cfg, err := buildRecognitionConfig(repositories.AudioConfig{
		SampleRate:           48000,
		Encoding:             "WEBM_OPUS",
		Language:             "es-ES",
		Channels:             1,
		AutomaticPunctuation: true,
		Model:                "default",
		UseEnhanced:          true,
	})
	if err != nil {
		t.Fatalf("buildRecognitionConfig returned error: %v", err)
	}

	if cfg.Encoding != speechpb.RecognitionConfig_WEBM_OPUS {
		t.Errorf("Expected WEBM_OPUS, got %v", cfg.Encoding)
	}
	if cfg.SampleRateHertz != 48000 {
		t.Errorf("Expected 48000 Hz, got %d", cfg.SampleRateHertz)
	}
	if cfg.LanguageCode != "es-ES" {
		t.Errorf("Expected es-ES, got %s", cfg.LanguageCode)
	}
	if cfg.AudioChannelCount != 1 {
		t.Errorf("Expected 1 channel, got %d", cfg.AudioChannelCount)
	}
	if !cfg.EnableAutomaticPunctuation {
		t.Error("Expected automatic punctuation enabled")
	}
	if cfg.ProfanityFilter {
		t.Error("Expected profanity filter disabled")
	}
}

func TestBuildRecognitionConfig_UnsupportedEncoding(t *testing.T) {
	_, err := buildRecognitionConfig(repositories.AudioConfig{Encoding: "MP3"})
	var recErr *repositories.RecognitionError
	if !errors.As(err, &recErr) {
		t.Fatalf("Expected RecognitionError, got %v", err)
	}
	if recErr.Backend != googleBackend {
		t.Errorf("Expected backend %q, got %q", googleBackend, recErr.Backend)
	}
}

func TestToRecognition(t *testing.T) {
	resp := &speechpb.RecognizeResponse{
		Results: []*speechpb.SpeechRecognitionResult{
			{Alternatives: []*speechpb.SpeechRecognitionAlternative{
				{Transcript: "hola mundo", Confidence: 0.92},
				{Transcript: "ola mundo", Confidence: 0.41},
			}},
			{},
			{Alternatives: []*speechpb.SpeechRecognitionAlternative{
				{Transcript: "adiós", Confidence: 0.8},
			}},
		},
	}

	rec := toRecognition(resp)
	if len(rec.Results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(rec.Results))
	}

	top, ok := rec.Results[0].Top()
	if !ok || top.Transcript != "hola mundo" {
		t.Errorf("Expected top transcript 'hola mundo', got %+v", top)
	}
	if _, ok := rec.Results[1].Top(); ok {
		t.Error("Expected no alternative for empty result")
	}
	if top, _ := rec.Results[2].Top(); top.Transcript != "adiós" {
		t.Errorf("Expected 'adiós', got %q", top.Transcript)
	}
}

func TestToRecognition_Empty(t *testing.T) {
	rec := toRecognition(&speechpb.RecognizeResponse{})
	if len(rec.Results) != 0 {
		t.Errorf("Expected no results, got %d", len(rec.Results))
	}
}

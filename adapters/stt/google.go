package stt

import (
	"context"
	"fmt"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/satriahrh/lisan/domain/repositories"
)

const googleBackend = "google"

// GoogleSpeechToText implements SpeechToText for Google Cloud
type GoogleSpeechToText struct {
	client *speech.Client
	logger *zap.Logger
}

// NewGoogleSpeechToText creates a client authenticated with credentialsFile,
// falling back to Application Default Credentials when it is empty.
func NewGoogleSpeechToText(ctx context.Context, credentialsFile string, logger *zap.Logger) (*GoogleSpeechToText, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech client: %w", err)
	}

	return &GoogleSpeechToText{
		client: client,
		logger: logger,
	}, nil
}

// Name implements repositories.SpeechToText
func (g *GoogleSpeechToText) Name() string {
	return googleBackend
}

// Recognize sends the payload as one synchronous Recognize request.
func (g *GoogleSpeechToText) Recognize(ctx context.Context, audioData []byte, config repositories.AudioConfig) (*repositories.Recognition, error) {
	recognitionConfig, err := buildRecognitionConfig(config)
	if err != nil {
		return nil, err
	}

	g.logger.Debug("Sending audio to Google Speech-to-Text",
		zap.Int("size", len(audioData)),
		zap.String("encoding", config.Encoding),
		zap.String("language", config.Language))

	resp, err := g.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: recognitionConfig,
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audioData},
		},
	})
	if err != nil {
		return nil, repositories.NewRecognitionError(googleBackend, err)
	}

	return toRecognition(resp), nil
}

// Close releases the underlying gRPC connection.
func (g *GoogleSpeechToText) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}

func buildRecognitionConfig(config repositories.AudioConfig) (*speechpb.RecognitionConfig, error) {
	encoding, err := getAudioEncoding(config.Encoding)
	if err != nil {
		return nil, repositories.NewRecognitionError(googleBackend, err)
	}

	return &speechpb.RecognitionConfig{
		Encoding:                   encoding,
		SampleRateHertz:            int32(config.SampleRate),
		AudioChannelCount:          int32(config.Channels),
		LanguageCode:               config.Language,
		EnableAutomaticPunctuation: config.AutomaticPunctuation,
		ProfanityFilter:            config.ProfanityFilter,
		Model:                      config.Model,
		UseEnhanced:                config.UseEnhanced,
	}, nil
}

func toRecognition(resp *speechpb.RecognizeResponse) *repositories.Recognition {
	recognition := &repositories.Recognition{}
	for _, result := range resp.GetResults() {
		converted := repositories.Result{}
		for _, alt := range result.GetAlternatives() {
			converted.Alternatives = append(converted.Alternatives, repositories.Alternative{
				Transcript: alt.GetTranscript(),
				Confidence: alt.GetConfidence(),
			})
		}
		recognition.Results = append(recognition.Results, converted)
	}
	return recognition
}

// getAudioEncoding converts string encoding to Google Speech API enum
func getAudioEncoding(encoding string) (speechpb.RecognitionConfig_AudioEncoding, error) {
	switch encoding {
	case "WAV", "LINEAR16":
		return speechpb.RecognitionConfig_LINEAR16, nil
	case "FLAC":
		return speechpb.RecognitionConfig_FLAC, nil
	case "MULAW":
		return speechpb.RecognitionConfig_MULAW, nil
	case "AMR":
		return speechpb.RecognitionConfig_AMR, nil
	case "AMR_WB":
		return speechpb.RecognitionConfig_AMR_WB, nil
	case "OGG_OPUS":
		return speechpb.RecognitionConfig_OGG_OPUS, nil
	case "SPEEX_WITH_HEADER_BYTE":
		return speechpb.RecognitionConfig_SPEEX_WITH_HEADER_BYTE, nil
	case "WEBM_OPUS":
		return speechpb.RecognitionConfig_WEBM_OPUS, nil
	default:
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED, fmt.Errorf("unsupported encoding: %s", encoding)
	}
}

package asr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"cloud.google.com/go/auth/credentials"
	speech "cloud.google.com/go/speech/apiv2"
	speechpb "cloud.google.com/go/speech/apiv2/speechpb"
	"github.com/lvturner/xiaozhi-esp32-server/internal/asr"
	"google.golang.org/api/option"
)

const speechAPIEndpointPort = 443

type GoogleSpeechConfig struct {
	ProjectID       string
	CredentialsJSON string
	Location        string
	Model           string
	Language        string
}

type GoogleSpeechClient struct {
	cfg GoogleSpeechConfig
	log *slog.Logger
}

func NewGoogleSpeechClient(cfg GoogleSpeechConfig, log *slog.Logger) (*GoogleSpeechClient, error) {
	if cfg.ProjectID == "" || cfg.CredentialsJSON == "" {
		return nil, errors.New("google cloud project id and credentials are required")
	}
	cfg.Location = strings.TrimSpace(cfg.Location)
	if cfg.Location == "" {
		cfg.Location = "global"
	}
	return &GoogleSpeechClient{cfg: cfg, log: log}, nil
}

func (c *GoogleSpeechClient) Name() string { return "google" }

func (c *GoogleSpeechClient) Transcribe(ctx context.Context, audioPath string, opts asr.Options) (string, error) {
	audioBytes, err := os.ReadFile(audioPath)
	if err != nil {
		return "", fmt.Errorf("failed to read audio artifact: %w", err)
	}

	creds, err := credentials.DetectDefault(&credentials.DetectOptions{
		CredentialsJSON: []byte(c.cfg.CredentialsJSON),
		Scopes:          []string{"https://www.googleapis.com/auth/cloud-platform"},
	})
	if err != nil {
		return "", fmt.Errorf("detect credentials: %w", err)
	}

	clientOpts := []option.ClientOption{option.WithAuthCredentials(creds)}
	if c.cfg.Location != "global" {
		clientOpts = append(clientOpts, option.WithEndpoint(fmt.Sprintf("%s-speech.googleapis.com:%d", c.cfg.Location, speechAPIEndpointPort)))
	}

	client, err := speech.NewClient(ctx, clientOpts...)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = client.Close()
	}()

	language := opts.Language
	if language == "" {
		language = c.cfg.Language
	}
	if language == "" {
		// chirp models detect the language themselves.
		language = "auto"
	}

	features := &speechpb.RecognitionFeatures{}
	if opts.Diarize {
		diarization := &speechpb.SpeakerDiarizationConfig{MinSpeakerCount: 1, MaxSpeakerCount: 2}
		if opts.NumSpeakers > 0 {
			diarization.MaxSpeakerCount = int32(opts.NumSpeakers)
		}
		features.DiarizationConfig = diarization
	}

	c.log.Debug("submitting audio to cloud speech", "location", c.cfg.Location, "model", c.cfg.Model, "language", language)

	resp, err := client.Recognize(ctx, &speechpb.RecognizeRequest{
		Recognizer: fmt.Sprintf("projects/%s/locations/%s/recognizers/_", c.cfg.ProjectID, c.cfg.Location),
		Config: &speechpb.RecognitionConfig{
			Model:         c.cfg.Model,
			LanguageCodes: []string{language},
			DecodingConfig: &speechpb.RecognitionConfig_AutoDecodingConfig{
				AutoDecodingConfig: &speechpb.AutoDetectDecodingConfig{},
			},
			Features: features,
		},
		AudioSource: &speechpb.RecognizeRequest_Content{Content: audioBytes},
	})
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, result := range resp.GetResults() {
		if len(result.GetAlternatives()) == 0 {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(result.GetAlternatives()[0].GetTranscript())
	}
	return strings.TrimSpace(sb.String()), nil
}

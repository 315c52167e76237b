package asr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/lvturner/xiaozhi-esp32-server/internal/asr"
)

const (
	elevenLabsDefaultModelID = "scribe_v1"
	elevenLabsDefaultBaseURL = "https://api.elevenlabs.io/v1/speech-to-text"
)

type ElevenLabsClient struct {
	apiKey  string
	modelID string
	baseURL string
	client  *http.Client
	log     *slog.Logger
}

func NewElevenLabsClient(apiKey, modelID, baseURL string, log *slog.Logger) (*ElevenLabsClient, error) {
	if apiKey == "" {
		return nil, errors.New("elevenlabs api key is required")
	}
	if modelID == "" {
		modelID = elevenLabsDefaultModelID
	}
	if baseURL == "" {
		baseURL = elevenLabsDefaultBaseURL
	}
	return &ElevenLabsClient{
		apiKey:  apiKey,
		modelID: modelID,
		baseURL: baseURL,
		client:  &http.Client{},
		log:     log,
	}, nil
}

func (c *ElevenLabsClient) Name() string { return "elevenlabs" }

// Transcribe submits the WAV artifact in one multipart POST. A non-200
// response surfaces the raw body as the error message so callers see the
// service diagnostics verbatim.
func (c *ElevenLabsClient) Transcribe(ctx context.Context, audioPath string, opts asr.Options) (string, error) {
	body, contentType, err := buildTranscribeBody(audioPath, c.modelID, opts)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		c.log.Error("elevenlabs api rejected transcription", "status", resp.StatusCode, "body", string(respBody))
		return "", errors.New(string(respBody))
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to parse elevenlabs response: %w", err)
	}
	return strings.TrimSpace(result.Text), nil
}

func buildTranscribeBody(audioPath, modelID string, opts asr.Options) (io.Reader, string, error) {
	audioFile, err := os.Open(audioPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open audio artifact: %w", err)
	}
	defer func() {
		_ = audioFile.Close()
	}()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := map[string]string{
		"model_id":               modelID,
		"enable_logging":         strconv.FormatBool(opts.EnableLogging),
		"tag_audio_events":       strconv.FormatBool(opts.TagAudioEvents),
		"timestamps_granularity": opts.TimestampsGranularity,
		"diarize":                strconv.FormatBool(opts.Diarize),
		// The artifact carries raw 16-bit little-endian PCM at 16kHz.
		"file_format": "pcm_s16le_16",
	}
	if opts.Language != "" {
		fields["language_code"] = opts.Language
	}
	if opts.NumSpeakers > 0 {
		fields["num_speakers"] = strconv.Itoa(opts.NumSpeakers)
	}
	for key, value := range fields {
		if err := w.WriteField(key, value); err != nil {
			return nil, "", fmt.Errorf("failed to write field %s: %w", key, err)
		}
	}

	filePart, err := w.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, "", fmt.Errorf("failed to create file part: %w", err)
	}
	if _, err := io.Copy(filePart, audioFile); err != nil {
		return nil, "", fmt.Errorf("failed to copy audio artifact: %w", err)
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finalize multipart body: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

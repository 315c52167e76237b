package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

type HTTPPostConfig struct {
	URL       string
	Headers   map[string]string
	Payload   map[string]string
	Format    string
	OutputDir string
}

// HTTPPostProvider speaks to any speech-synthesis endpoint that accepts
// a JSON POST and answers with raw audio bytes. Payload values may embed
// {prompt_text}, which is replaced by the utterance text per request.
type HTTPPostProvider struct {
	cfg    HTTPPostConfig
	client *http.Client
	log    *slog.Logger
}

func NewHTTPPostProvider(cfg HTTPPostConfig, log *slog.Logger) (*HTTPPostProvider, error) {
	if cfg.URL == "" {
		return nil, errors.New("tts url is required")
	}
	if cfg.Format == "" {
		cfg.Format = "wav"
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "tmp/"
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create tts output dir: %w", err)
	}
	return &HTTPPostProvider{cfg: cfg, client: &http.Client{}, log: log}, nil
}

func (p *HTTPPostProvider) Synthesize(ctx context.Context, text string) (string, error) {
	payload := make(map[string]string, len(p.cfg.Payload))
	for key, value := range p.cfg.Payload {
		payload[key] = strings.ReplaceAll(value, "{prompt_text}", text)
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	for key, value := range p.cfg.Headers {
		req.Header.Set(key, value)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		p.log.Error("tts request rejected", "status", resp.StatusCode, "body", string(audio))
		return "", fmt.Errorf("tts returned status %d", resp.StatusCode)
	}

	path := p.generateFilename()
	if err := os.WriteFile(path, audio, 0o644); err != nil {
		return "", fmt.Errorf("failed to write tts audio: %w", err)
	}
	return path, nil
}

func (p *HTTPPostProvider) generateFilename() string {
	token := strings.ReplaceAll(uuid.NewString(), "-", "")
	name := fmt.Sprintf("tts-%s@%s.%s", time.Now().Format(time.DateOnly), token, p.cfg.Format)
	return filepath.Join(p.cfg.OutputDir, name)
}

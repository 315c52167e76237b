package asr

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// ArtifactStore owns the transient WAV files the pipeline submits for
// transcription.
type ArtifactStore struct {
	dir string
	log *slog.Logger
}

func NewArtifactStore(dir string, log *slog.Logger) (*ArtifactStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create temp audio dir: %w", err)
	}
	return &ArtifactStore{dir: dir, log: log}, nil
}

// Allocate returns a fresh artifact path. The random token keeps paths
// unique across concurrent invocations sharing one session.
func (s *ArtifactStore) Allocate(providerName, sessionID string) string {
	name := fmt.Sprintf("%s_asr_%s_%s.wav", providerName, sessionID, uuid.NewString())
	return filepath.Join(s.dir, name)
}

func (s *ArtifactStore) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Release deletes the artifact. Best effort: a missing file is fine,
// any other failure is logged and swallowed.
func (s *ArtifactStore) Release(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.log.Warn("failed to remove audio artifact", "path", path, "error", err)
	}
}

//go:build !opus

package audio

import (
	"errors"

	"github.com/lvturner/xiaozhi-esp32-server/internal/audio"
)

var errOpusUnavailable = errors.New("opus support is not compiled in (build with -tags opus)")

type stubDecoder struct{}

func NewOpusDecoder() (audio.Decoder, error) {
	return &stubDecoder{}, nil
}

func (d *stubDecoder) Decode(_ []byte) ([]int16, error) {
	return nil, errOpusUnavailable
}

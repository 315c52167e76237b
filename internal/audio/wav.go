package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
)

type wavHeader struct {
	ChunkID       [4]byte // "RIFF"
	ChunkSize     uint32  // file size - 8
	Format        [4]byte // "WAVE"
	Subchunk1ID   [4]byte // "fmt "
	Subchunk1Size uint32  // 16 for PCM
	AudioFormat   uint16  // 1 for PCM
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	Subchunk2ID   [4]byte // "data"
	Subchunk2Size uint32
}

// WriteWAV writes mono 16-bit 16kHz PCM frames to path as a WAV file.
// An empty frame list still produces a valid header-only file.
func WriteWAV(path string, frames [][]int16) error {
	const bytesPerSample = 2

	totalSamples := 0
	for _, frame := range frames {
		totalSamples += len(frame)
	}
	dataSize := uint32(totalSamples * bytesPerSample)

	header := wavHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     36 + dataSize,
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1,
		NumChannels:   Channels,
		SampleRate:    SampleRate,
		ByteRate:      SampleRate * Channels * bytesPerSample,
		BlockAlign:    Channels * bytesPerSample,
		BitsPerSample: bytesPerSample * 8,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: dataSize,
	}

	buf := bytes.NewBuffer(make([]byte, 0, 44+int(dataSize)))
	if err := binary.Write(buf, binary.LittleEndian, header); err != nil {
		return fmt.Errorf("failed to encode wav header: %w", err)
	}
	for _, frame := range frames {
		if err := binary.Write(buf, binary.LittleEndian, frame); err != nil {
			return fmt.Errorf("failed to encode pcm samples: %w", err)
		}
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write wav file: %w", err)
	}
	return nil
}

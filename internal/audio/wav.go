package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// wavHeader is the 44-byte canonical PCM WAV header.
type wavHeader struct {
	ChunkID       [4]byte // "RIFF"
	ChunkSize     uint32  // file size - 8
	Format        [4]byte // "WAVE"
	Subchunk1ID   [4]byte // "fmt "
	Subchunk1Size uint32  // 16 for PCM
	AudioFormat   uint16  // 1 for PCM
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32 // SampleRate * NumChannels * BitsPerSample / 8
	BlockAlign    uint16 // NumChannels * BitsPerSample / 8
	BitsPerSample uint16
	Subchunk2ID   [4]byte // "data"
	Subchunk2Size uint32  // payload bytes
}

// EncodeWAVHeader builds the header for a raw PCM payload of dataSize
// bytes in the given format. The working file itself stays headerless;
// the header is only prepended on export.
func EncodeWAVHeader(f Format, dataSize int) ([]byte, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	if dataSize < 0 {
		return nil, fmt.Errorf("payload size must not be negative, got %d", dataSize)
	}

	h := wavHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     36 + uint32(dataSize),
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1,
		NumChannels:   uint16(f.Channels),
		SampleRate:    uint32(f.SampleRate),
		ByteRate:      uint32(f.SampleRate * f.Channels * f.BitDepth / 8),
		BlockAlign:    uint16(f.Channels * f.BitDepth / 8),
		BitsPerSample: uint16(f.BitDepth),
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: uint32(dataSize),
	}

	buf := bytes.NewBuffer(make([]byte, 0, 44))
	if err := binary.Write(buf, binary.LittleEndian, h); err != nil {
		return nil, fmt.Errorf("failed to write WAV header: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportWAV copies a raw PCM payload of dataSize bytes from src to dst
// behind a WAV header.
func ExportWAV(dst io.Writer, src io.Reader, f Format, dataSize int) error {
	header, err := EncodeWAVHeader(f, dataSize)
	if err != nil {
		return err
	}
	if _, err := dst.Write(header); err != nil {
		return fmt.Errorf("failed to write WAV header: %w", err)
	}
	if _, err := io.CopyN(dst, src, int64(dataSize)); err != nil {
		return fmt.Errorf("failed to copy PCM payload: %w", err)
	}
	return nil
}

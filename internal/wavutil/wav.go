package wavutil

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"briefcast/internal/services"
)

// HeaderSize is the byte length of the canonical 16-bit PCM WAV header the
// synthesis provider emits (RIFF descriptor + fmt chunk + data chunk header).
const HeaderSize = 44

const (
	riffSizeOffset = 4  // ChunkSize: file length minus the 8 bytes before it
	dataSizeOffset = 40 // Subchunk2Size: payload length
)

// Header carries the size fields a compliant WAV reader reports.
type Header struct {
	RIFFSize uint32
	DataSize uint32
}

// Combine merges an ordered list of same-format WAV buffers into one buffer.
// The first buffer's header becomes the template; every subsequent buffer
// contributes payload only. Size fields in the combined header are rewritten
// to match the final length.
//
// A single-element list is returned unchanged. An empty list is a caller
// bug and fails with a validation error.
func Combine(buffers [][]byte) ([]byte, error) {
	switch len(buffers) {
	case 0:
		return nil, services.Wrap(services.ErrValidation, "wav", "combine", "buffer list is empty", nil)
	case 1:
		return buffers[0], nil
	}

	total := len(buffers[0])
	for _, buf := range buffers[1:] {
		if len(buf) >= HeaderSize {
			total += len(buf) - HeaderSize
		} else {
			total += len(buf)
		}
	}

	combined := make([]byte, 0, total)
	combined = append(combined, buffers[0]...)
	for _, buf := range buffers[1:] {
		if len(buf) >= HeaderSize {
			combined = append(combined, buf[HeaderSize:]...)
		} else {
			// Truncated or empty synthesis responses carry no header to
			// strip; append them whole.
			combined = append(combined, buf...)
		}
	}

	if len(combined) >= HeaderSize {
		binary.LittleEndian.PutUint32(combined[riffSizeOffset:], uint32(len(combined)-8))
		binary.LittleEndian.PutUint32(combined[dataSizeOffset:], uint32(len(combined)-HeaderSize))
	}

	return combined, nil
}

// ParseHeader reads the size fields from a WAV buffer, validating the RIFF
// and WAVE magics the way any compliant reader would.
func ParseHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, fmt.Errorf("wav: buffer too short for header: %d bytes", len(buf))
	}
	if !bytes.Equal(buf[0:4], []byte("RIFF")) {
		return Header{}, fmt.Errorf("wav: missing RIFF magic")
	}
	if !bytes.Equal(buf[8:12], []byte("WAVE")) {
		return Header{}, fmt.Errorf("wav: missing WAVE magic")
	}
	return Header{
		RIFFSize: binary.LittleEndian.Uint32(buf[riffSizeOffset:]),
		DataSize: binary.LittleEndian.Uint32(buf[dataSizeOffset:]),
	}, nil
}

// NewBuffer builds a minimal PCM WAV buffer around the given payload. Used
// by tests and by the synthesis stub transport.
func NewBuffer(payload []byte) []byte {
	buf := make([]byte, HeaderSize+len(payload))
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[riffSizeOffset:], uint32(len(buf)-8))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:], 16)     // fmt chunk size
	binary.LittleEndian.PutUint16(buf[20:], 1)      // PCM
	binary.LittleEndian.PutUint16(buf[22:], 1)      // mono
	binary.LittleEndian.PutUint32(buf[24:], 22050)  // sample rate
	binary.LittleEndian.PutUint32(buf[28:], 44100)  // byte rate
	binary.LittleEndian.PutUint16(buf[32:], 2)      // block align
	binary.LittleEndian.PutUint16(buf[34:], 16)     // bits per sample
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[dataSizeOffset:], uint32(len(payload)))
	copy(buf[HeaderSize:], payload)
	return buf
}

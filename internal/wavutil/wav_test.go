package wavutil_test

import (
	"bytes"
	"errors"
	"testing"

	"briefcast/internal/services"
	"briefcast/internal/wavutil"
)

func TestCombineEmptyList(t *testing.T) {
	_, err := wavutil.Combine(nil)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestCombineSingleElementIdentity(t *testing.T) {
	buf := wavutil.NewBuffer([]byte{1, 2, 3, 4})
	combined, err := wavutil.Combine([][]byte{buf})
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	if !bytes.Equal(combined, buf) {
		t.Fatal("single-element combine must return the buffer unchanged")
	}
}

func TestCombineRoundTrip(t *testing.T) {
	payloads := [][]byte{
		bytes.Repeat([]byte{0x11}, 320),
		bytes.Repeat([]byte{0x22}, 512),
		bytes.Repeat([]byte{0x33}, 77),
	}
	buffers := make([][]byte, 0, len(payloads))
	rawTotal := 0
	payloadTotal := 0
	for _, p := range payloads {
		buf := wavutil.NewBuffer(p)
		buffers = append(buffers, buf)
		rawTotal += len(buf)
		payloadTotal += len(p)
	}

	combined, err := wavutil.Combine(buffers)
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}

	wantLen := rawTotal - (len(buffers)-1)*wavutil.HeaderSize
	if len(combined) != wantLen {
		t.Fatalf("combined length = %d, want %d (header stripped from all but the first)", len(combined), wantLen)
	}

	header, err := wavutil.ParseHeader(combined)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if int(header.RIFFSize) != len(combined)-8 {
		t.Fatalf("RIFF size = %d, want %d", header.RIFFSize, len(combined)-8)
	}
	if int(header.DataSize) != len(combined)-wavutil.HeaderSize {
		t.Fatalf("data size = %d, want %d", header.DataSize, len(combined)-wavutil.HeaderSize)
	}
	if int(header.DataSize) != payloadTotal {
		t.Fatalf("data size = %d, want sum of payloads %d", header.DataSize, payloadTotal)
	}

	// Payload bytes must appear in call order.
	wantPayload := bytes.Join(payloads, nil)
	if !bytes.Equal(combined[wavutil.HeaderSize:], wantPayload) {
		t.Fatal("combined payload does not match concatenated inputs")
	}
}

func TestCombineShortBufferAppendedWhole(t *testing.T) {
	first := wavutil.NewBuffer(bytes.Repeat([]byte{0xAA}, 100))
	stub := []byte{1, 2, 3} // shorter than a header, e.g. an empty synthesis response

	combined, err := wavutil.Combine([][]byte{first, stub})
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	if len(combined) != len(first)+len(stub) {
		t.Fatalf("short buffer should be appended in full: got %d bytes", len(combined))
	}
	if !bytes.HasSuffix(combined, stub) {
		t.Fatal("short buffer bytes missing from tail")
	}

	header, err := wavutil.ParseHeader(combined)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if int(header.RIFFSize) != len(combined)-8 || int(header.DataSize) != len(combined)-wavutil.HeaderSize {
		t.Fatal("size fields must reflect actual combined length even with short inputs")
	}
}

func TestParseHeaderRejectsGarbage(t *testing.T) {
	if _, err := wavutil.ParseHeader([]byte("too short")); err == nil {
		t.Fatal("expected error for short buffer")
	}
	bad := wavutil.NewBuffer([]byte{0})
	bad[0] = 'X'
	if _, err := wavutil.ParseHeader(bad); err == nil {
		t.Fatal("expected error for missing RIFF magic")
	}
}

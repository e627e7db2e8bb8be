// ABOUTME: Tests for WAV decoder
// ABOUTME: Tests RIFF chunk walking and format handling
package decode

import (
	"testing"
)

func TestWAVDecode(t *testing.T) {
	data := buildWAV(wavFormatPCM, 1, 22050, 16, []byte{0x00, 0x01, 0xFF, 0xFF})

	buf, err := NewWAV().Decode(data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if buf.Format.Codec != CodecWAV || buf.Format.SampleRate != 22050 || buf.Format.Channels != 1 {
		t.Errorf("unexpected format: %+v", buf.Format)
	}
	if len(buf.Samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(buf.Samples))
	}
	if buf.Samples[0] != 256<<8 || buf.Samples[1] != -1<<8 {
		t.Errorf("unexpected samples: %v", buf.Samples)
	}
}

func TestWAVDecodeSkipsUnknownChunks(t *testing.T) {
	data := buildWAV(wavFormatPCM, 1, 8000, 16, []byte{0x10, 0x00})
	// Splice an odd-sized LIST chunk (padded to even) between fmt and data
	list := []byte{'L', 'I', 'S', 'T', 3, 0, 0, 0, 'a', 'b', 'c', 0}
	fmtEnd := 12 + 8 + 16
	spliced := append(append(append([]byte{}, data[:fmtEnd]...), list...), data[fmtEnd:]...)

	buf, err := NewWAV().Decode(spliced)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(buf.Samples) != 1 || buf.Samples[0] != 16<<8 {
		t.Errorf("unexpected samples: %v", buf.Samples)
	}
}

func TestWAVDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"not riff", []byte("this is not audio at all")},
		{"missing data", buildWAV(wavFormatPCM, 1, 8000, 16, nil)[:12+8+16]},
		{"unsupported tag", buildWAV(0x0055, 2, 44100, 16, []byte{0, 0, 0, 0})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewWAV().Decode(tt.data); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

// ABOUTME: Audio output tests
// ABOUTME: Verifies backend selection, sample packing and the null drain loop
package output

import (
	"encoding/binary"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Resonate-Protocol/resonate-daw/pkg/audio"
)

func TestBackendsImplementOutput(t *testing.T) {
	var _ Output = (*Oto)(nil)
	var _ Output = (*Malgo)(nil)
	var _ Output = (*Null)(nil)
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"", false},
		{BackendOto, false},
		{BackendMalgo, false},
		{BackendNull, false},
		{"portaudio", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := New(tt.name)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil || out == nil {
				t.Fatalf("expected backend, got %v", err)
			}
		})
	}
}

type constSource struct {
	value int32
	reads atomic.Int64
}

func (s *constSource) Read(samples []int32) int {
	for i := range samples {
		samples[i] = s.value
	}
	s.reads.Add(int64(len(samples)))
	return len(samples)
}

func TestPCM16Reader(t *testing.T) {
	src := &constSource{value: 0x123456}
	r := newPCM16Reader(src, 2)

	// 9 bytes holds two whole stereo frames
	p := make([]byte, 9)
	n, err := r.Read(p)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if n != 8 {
		t.Fatalf("expected 8 bytes, got %d", n)
	}
	if got := int16(binary.LittleEndian.Uint16(p)); got != 0x1234 {
		t.Errorf("expected 0x1234, got %#x", got)
	}
}

func TestSamplePacking(t *testing.T) {
	samples := []int32{audio.Max24Bit, -1}

	out24 := make([]byte, 6)
	write24Bit(out24, samples)
	if out24[0] != 0xFF || out24[1] != 0xFF || out24[2] != 0x7F {
		t.Errorf("unexpected 24-bit packing: %v", out24[:3])
	}
	if out24[3] != 0xFF || out24[4] != 0xFF || out24[5] != 0xFF {
		t.Errorf("unexpected 24-bit packing for -1: %v", out24[3:])
	}

	out32 := make([]byte, 8)
	write32Bit(out32, samples)
	if v := int32(binary.LittleEndian.Uint32(out32)); v != audio.Max24Bit<<8 {
		t.Errorf("expected %d, got %d", audio.Max24Bit<<8, v)
	}

	out16 := make([]byte, 4)
	write16Bit(out16, samples)
	if v := int16(binary.LittleEndian.Uint16(out16)); v != 32767 {
		t.Errorf("expected 32767, got %d", v)
	}
}

func TestNullDrainsSource(t *testing.T) {
	src := &constSource{}
	out := NewNull()

	if err := out.Open(audio.EngineFormat(48000), src); err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if err := out.Open(audio.EngineFormat(48000), src); err == nil {
		t.Error("expected error opening twice")
	}

	time.Sleep(100 * time.Millisecond)
	if err := out.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	if src.reads.Load() == 0 {
		t.Error("expected null output to pull samples")
	}

	// Close is idempotent
	if err := out.Close(); err != nil {
		t.Errorf("second close failed: %v", err)
	}
}

func TestNullRejectsInvalidFormat(t *testing.T) {
	if err := NewNull().Open(audio.Format{}, &constSource{}); err == nil {
		t.Error("expected error for empty format")
	}
}

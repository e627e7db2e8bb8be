// ABOUTME: WAV container decoder
// ABOUTME: Walks RIFF chunks and hands the data chunk to the PCM decoder
package decode

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/Resonate-Protocol/resonate-daw/pkg/audio"
)

const (
	wavFormatPCM        = 1
	wavFormatFloat      = 3
	wavFormatExtensible = 0xFFFE
)

// WAVDecoder decodes RIFF/WAVE payloads
type WAVDecoder struct{}

// NewWAV creates a new WAV decoder
func NewWAV() *WAVDecoder {
	return &WAVDecoder{}
}

// Decode parses the fmt and data chunks and decodes the samples
func (d *WAVDecoder) Decode(data []byte) (*audio.Buffer, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, errors.New("not a RIFF/WAVE payload")
	}

	var (
		format   audio.Format
		haveFmt  bool
		pcm      []byte
		haveData bool
	)

	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4:]))
		body := data[pos+8:]
		if size > len(body) {
			// Truncated file: take what is there
			size = len(body)
		}
		body = body[:size]

		switch id {
		case "fmt ":
			f, err := parseWAVFormat(body)
			if err != nil {
				return nil, err
			}
			format = f
			haveFmt = true
		case "data":
			pcm = body
			haveData = true
		}

		// Chunks are word aligned
		pos += 8 + size + size%2
	}

	if !haveFmt {
		return nil, errors.New("wav: missing fmt chunk")
	}
	if !haveData {
		return nil, errors.New("wav: missing data chunk")
	}

	dec, err := NewPCM(format)
	if err != nil {
		return nil, fmt.Errorf("wav: %w", err)
	}
	buf, err := dec.Decode(pcm)
	if err != nil {
		return nil, err
	}
	if buf.Frames() == 0 {
		return nil, errors.New("wav: data chunk holds no complete frame")
	}
	buf.Format.Codec = CodecWAV
	return buf, nil
}

func parseWAVFormat(body []byte) (audio.Format, error) {
	if len(body) < 16 {
		return audio.Format{}, fmt.Errorf("wav: fmt chunk too short (%d bytes)", len(body))
	}

	tag := binary.LittleEndian.Uint16(body[0:])
	if tag == wavFormatExtensible && len(body) >= 26 {
		// Sub-format GUID starts with the real format tag
		tag = binary.LittleEndian.Uint16(body[24:])
	}

	format := audio.Format{
		Channels:   int(binary.LittleEndian.Uint16(body[2:])),
		SampleRate: int(binary.LittleEndian.Uint32(body[4:])),
		BitDepth:   int(binary.LittleEndian.Uint16(body[14:])),
	}

	switch tag {
	case wavFormatPCM:
		format.Codec = "pcm"
	case wavFormatFloat:
		format.Codec = "pcm_float"
	default:
		return audio.Format{}, fmt.Errorf("wav: unsupported format tag 0x%04x", tag)
	}
	return format, nil
}

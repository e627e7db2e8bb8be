// ABOUTME: Decoder interface definition and format detection
// ABOUTME: Picks a decoder from magic bytes, content type or file extension
package decode

import (
	"bytes"
	"fmt"
	"mime"
	"path"
	"strings"

	"github.com/Resonate-Protocol/resonate-daw/pkg/audio"
)

// Decoder decodes a complete encoded payload to PCM
type Decoder interface {
	Decode(data []byte) (*audio.Buffer, error)
}

// Codec names returned by Detect
const (
	CodecWAV  = "wav"
	CodecMP3  = "mp3"
	CodecFLAC = "flac"
	CodecOpus = "opus"
)

// ForCodec returns the decoder for a detected codec name
func ForCodec(codec string) (Decoder, error) {
	switch codec {
	case CodecWAV:
		return NewWAV(), nil
	case CodecMP3:
		return NewMP3(), nil
	case CodecFLAC:
		return NewFLAC(), nil
	case CodecOpus:
		return NewOpus(), nil
	default:
		return nil, fmt.Errorf("unsupported codec: %s", codec)
	}
}

// Decode detects the payload format and decodes it
func Decode(data []byte, contentType, ref string) (*audio.Buffer, error) {
	codec := Detect(contentType, ref, data)
	if codec == "" {
		return nil, fmt.Errorf("unrecognized audio payload (content type %q)", contentType)
	}

	dec, err := ForCodec(codec)
	if err != nil {
		return nil, err
	}
	return dec.Decode(data)
}

// Detect determines the codec of a payload. Magic bytes win over the
// content type, which wins over the file extension of ref.
func Detect(contentType, ref string, data []byte) string {
	if codec := detectMagic(data); codec != "" {
		return codec
	}
	if codec := detectContentType(contentType); codec != "" {
		return codec
	}
	return detectExtension(ref)
}

func detectMagic(data []byte) string {
	switch {
	case len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WAVE":
		return CodecWAV
	case bytes.HasPrefix(data, []byte("fLaC")):
		return CodecFLAC
	case bytes.HasPrefix(data, []byte("OggS")) && bytes.Contains(data[:min(len(data), 512)], []byte("OpusHead")):
		return CodecOpus
	case bytes.HasPrefix(data, []byte("ID3")):
		return CodecMP3
	case len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		// MPEG audio frame sync
		return CodecMP3
	}
	return ""
}

func detectContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(contentType))
	}

	switch mediaType {
	case "audio/wav", "audio/x-wav", "audio/wave", "audio/vnd.wave":
		return CodecWAV
	case "audio/mpeg", "audio/mp3":
		return CodecMP3
	case "audio/flac", "audio/x-flac":
		return CodecFLAC
	case "audio/ogg", "audio/opus":
		return CodecOpus
	}
	return ""
}

func detectExtension(ref string) string {
	// Drop query string and fragment
	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		ref = ref[:i]
	}

	switch strings.ToLower(path.Ext(ref)) {
	case ".wav", ".wave":
		return CodecWAV
	case ".mp3":
		return CodecMP3
	case ".flac":
		return CodecFLAC
	case ".opus", ".ogg":
		return CodecOpus
	}
	return ""
}

// ABOUTME: Test helpers for building encoded payloads
// ABOUTME: Synthesizes small WAV, FLAC and Ogg Opus payloads in memory
package decode

import (
	"bytes"
	"encoding/binary"
)

// buildWAV assembles a canonical PCM WAV file around raw sample bytes
func buildWAV(tag uint16, channels, sampleRate, bitDepth int, pcm []byte) []byte {
	var b bytes.Buffer
	blockAlign := channels * bitDepth / 8

	b.WriteString("RIFF")
	binary.Write(&b, binary.LittleEndian, uint32(4+8+16+8+len(pcm)))
	b.WriteString("WAVE")

	b.WriteString("fmt ")
	binary.Write(&b, binary.LittleEndian, uint32(16))
	binary.Write(&b, binary.LittleEndian, tag)
	binary.Write(&b, binary.LittleEndian, uint16(channels))
	binary.Write(&b, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&b, binary.LittleEndian, uint32(sampleRate*blockAlign))
	binary.Write(&b, binary.LittleEndian, uint16(blockAlign))
	binary.Write(&b, binary.LittleEndian, uint16(bitDepth))

	b.WriteString("data")
	binary.Write(&b, binary.LittleEndian, uint32(len(pcm)))
	b.Write(pcm)
	return b.Bytes()
}

// buildFLACHeader returns a FLAC stream with a STREAMINFO block and no frames
func buildFLACHeader(sampleRate, channels, bitDepth int, totalSamples uint64) []byte {
	var b bytes.Buffer
	b.WriteString("fLaC")

	// Last metadata block, type STREAMINFO, 34 bytes
	b.Write([]byte{0x80, 0x00, 0x00, 34})
	binary.Write(&b, binary.BigEndian, uint16(4096)) // min block size
	binary.Write(&b, binary.BigEndian, uint16(4096)) // max block size
	b.Write([]byte{0, 0, 0, 0, 0, 0})                // min/max frame size unknown

	packed := uint64(sampleRate)<<44 |
		uint64(channels-1)<<41 |
		uint64(bitDepth-1)<<36 |
		totalSamples&(1<<36-1)
	binary.Write(&b, binary.BigEndian, packed)
	b.Write(make([]byte, 16)) // MD5
	return b.Bytes()
}

// buildOpusHeadPage returns a single Ogg page carrying only an OpusHead packet
func buildOpusHeadPage(channels int) []byte {
	var head bytes.Buffer
	head.WriteString("OpusHead")
	head.WriteByte(1)
	head.WriteByte(byte(channels))
	binary.Write(&head, binary.LittleEndian, uint16(312))   // pre-skip
	binary.Write(&head, binary.LittleEndian, uint32(48000)) // input rate
	binary.Write(&head, binary.LittleEndian, int16(0))      // output gain
	head.WriteByte(0)                                       // mapping family

	var page bytes.Buffer
	page.WriteString("OggS")
	page.WriteByte(0)    // version
	page.WriteByte(0x02) // beginning of stream
	binary.Write(&page, binary.LittleEndian, uint64(0))
	binary.Write(&page, binary.LittleEndian, uint32(1)) // serial
	binary.Write(&page, binary.LittleEndian, uint32(0)) // sequence
	binary.Write(&page, binary.LittleEndian, uint32(0)) // checksum, filled below
	page.WriteByte(1)
	page.WriteByte(byte(head.Len()))
	page.Write(head.Bytes())

	data := page.Bytes()
	binary.LittleEndian.PutUint32(data[22:], oggCRC(data))
	return data
}

// oggCRC is the Ogg page checksum: CRC-32, polynomial 0x04c11db7, MSB first, zero init
func oggCRC(data []byte) uint32 {
	var crc uint32
	for _, b := range data {
		crc ^= uint32(b) << 24
		for i := 0; i < 8; i++ {
			if crc&0x80000000 != 0 {
				crc = crc<<1 ^ 0x04c11db7
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

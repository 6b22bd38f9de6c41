// Package pcm turns raw 16-bit little-endian PCM, as returned by speech
// synthesis endpoints, into sample buffers and WAV files.
package pcm

import (
	"bytes"
	"encoding/binary"
	"time"
)

const (
	DefaultSampleRate = 24000
	DefaultChannels   = 1

	bitsPerSample = 16
)

type Buffer struct {
	SampleRate int
	Channels   int
	Samples    []float32
}

// Decode converts 16-bit LE PCM into samples in [-1, 1). A trailing odd byte is dropped.
func Decode(raw []byte, sampleRate, channels int) Buffer {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	if channels <= 0 {
		channels = DefaultChannels
	}
	if len(raw)%2 != 0 {
		raw = raw[:len(raw)-1]
	}

	samples := make([]float32, len(raw)/2)
	for i := range samples {
		v := int16(binary.LittleEndian.Uint16(raw[i*2:]))
		samples[i] = float32(v) / 32768.0
	}
	return Buffer{
		SampleRate: sampleRate,
		Channels:   channels,
		Samples:    samples,
	}
}

func (b Buffer) Frames() int {
	if b.Channels <= 0 {
		return 0
	}
	return len(b.Samples) / b.Channels
}

func (b Buffer) Duration() time.Duration {
	if b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(b.Frames()) * time.Second / time.Duration(b.SampleRate)
}

// PCM16 quantizes the samples back to 16-bit little-endian.
func (b Buffer) PCM16() []byte {
	out := make([]byte, len(b.Samples)*2)
	for i, s := range b.Samples {
		v := s * 32768.0
		switch {
		case v > 32767:
			v = 32767
		case v < -32768:
			v = -32768
		}
		binary.LittleEndian.PutUint16(out[i*2:], uint16(int16(v)))
	}
	return out
}

// WAV wraps the buffer into a canonical RIFF/WAVE container.
func (b Buffer) WAV() []byte {
	data := b.PCM16()
	blockAlign := b.Channels * bitsPerSample / 8
	byteRate := b.SampleRate * blockAlign

	var buf bytes.Buffer
	buf.Grow(44 + len(data))
	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(36+len(data)))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(b.Channels))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(b.SampleRate))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(byteRate))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(bitsPerSample))
	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(data)))
	buf.Write(data)
	return buf.Bytes()
}

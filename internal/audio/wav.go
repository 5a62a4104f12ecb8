package audio

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

// maxWAVSamples keeps the RIFF size fields within 32 bits.
const maxWAVSamples = (1<<32 - 1 - 44) / 2

// EncodeWAV writes samples in [-1, 1] as a mono 16-bit PCM WAV file.
// volume is a multiplier from 0.0 (silent) to 1.0 (full volume); samples
// outside the 16-bit range after scaling are clamped.
func EncodeWAV(w io.Writer, samples []float64, sampleRate int, volume float64) error {
	if sampleRate <= 0 {
		return fmt.Errorf("wav: invalid sample rate %d", sampleRate)
	}
	if len(samples) > maxWAVSamples {
		return fmt.Errorf("wav: too many samples (%d, max %d)", len(samples), maxWAVSamples)
	}

	const (
		channels      = 1
		bitsPerSample = 16
		blockAlign    = channels * bitsPerSample / 8
	)
	dataSize := len(samples) * blockAlign

	var hdr [44]byte
	copy(hdr[0:4], "RIFF")
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(36+dataSize))
	copy(hdr[8:12], "WAVE")

	copy(hdr[12:16], "fmt ")
	binary.LittleEndian.PutUint32(hdr[16:20], 16)
	binary.LittleEndian.PutUint16(hdr[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(hdr[22:24], channels)
	binary.LittleEndian.PutUint32(hdr[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(hdr[28:32], uint32(sampleRate*blockAlign))
	binary.LittleEndian.PutUint16(hdr[32:34], blockAlign)
	binary.LittleEndian.PutUint16(hdr[34:36], bitsPerSample)

	copy(hdr[36:40], "data")
	binary.LittleEndian.PutUint32(hdr[40:44], uint32(dataSize))

	bw := bufio.NewWriter(w)
	if _, err := bw.Write(hdr[:]); err != nil {
		return fmt.Errorf("wav: %w", err)
	}
	var b [2]byte
	for _, s := range samples {
		binary.LittleEndian.PutUint16(b[:], uint16(clamp16(s*volume)))
		if _, err := bw.Write(b[:]); err != nil {
			return fmt.Errorf("wav: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("wav: %w", err)
	}
	return nil
}

// clamp16 converts a float64 in [-1, 1] to int16, clamping to avoid overflow.
func clamp16(f float64) int16 {
	s := f * 32767.0
	if s > 32767 {
		return 32767
	}
	if s < -32768 {
		return -32768
	}
	return int16(s)
}

package synth

import (
	"encoding/binary"
	"io"
	"math"
)

// BytesPerFrame is the size of one interleaved stereo float32 frame.
const BytesPerFrame = 8

type reader struct {
	c       *Context
	buf     []float64
	pending []byte
}

// Reader streams the destination as interleaved stereo float32
// little-endian PCM, clipped to [-1, 1]. It never returns an error.
func (c *Context) Reader() io.Reader {
	return &reader{c: c}
}

func (r *reader) Read(p []byte) (int, error) {
	n := copy(p, r.pending)
	r.pending = r.pending[n:]
	if n == len(p) {
		return n, nil
	}

	frames := (len(p) - n) / BytesPerFrame
	if frames == 0 {
		var tmp [BytesPerFrame]byte
		r.fill(tmp[:], 1)
		k := copy(p[n:], tmp[:])
		r.pending = append([]byte(nil), tmp[k:]...)
		return n + k, nil
	}
	r.fill(p[n:n+frames*BytesPerFrame], frames)
	return n + frames*BytesPerFrame, nil
}

func (r *reader) fill(dst []byte, frames int) {
	if cap(r.buf) < frames {
		r.buf = make([]float64, frames)
	}
	r.buf = r.buf[:frames]
	r.c.Render(r.buf)
	for i, s := range r.buf {
		v := math.Float32bits(float32(clip(s)))
		binary.LittleEndian.PutUint32(dst[i*BytesPerFrame:], v)
		binary.LittleEndian.PutUint32(dst[i*BytesPerFrame+4:], v)
	}
}

func clip(s float64) float64 {
	if s > 1 {
		return 1
	}
	if s < -1 {
		return -1
	}
	return s
}

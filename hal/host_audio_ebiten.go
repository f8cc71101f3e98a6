//go:build !tinygo && cgo

package hal

import (
	"sync"

	"github.com/hajimehoshi/ebiten/v2/audio"
)

// monitorRate is the playback rate of the duty monitor. It matches the
// firmware's sample pacing so the reconstructed audio plays at speed.
const monitorRate = 16000

// dutySink turns the duty-cycle stream written to a PWM channel back
// into PCM samples and plays them through Ebiten's audio package, so a
// host build is audible instead of silent.
type dutySink struct {
	mu sync.Mutex

	ctx    *audio.Context
	player *audio.Player

	buf []int16
	r   int
	w   int
	n   int
}

func newDutySink() *dutySink {
	return &dutySink{}
}

func (s *dutySink) start() bool {
	if s.ctx == nil {
		s.ctx = audio.NewContext(monitorRate)
	}
	if s.player == nil {
		// ~250ms of headroom between the pacing loop and the device.
		s.buf = make([]int16, monitorRate/4)
		p, err := s.ctx.NewPlayer(&dutyReader{s: s})
		if err != nil {
			return false
		}
		p.Play()
		s.player = p
	}
	return true
}

func (s *dutySink) writeDuty(periodNS, pulseNS uint32) {
	if s == nil || periodNS == 0 {
		return
	}
	sample := int16(int32(uint64(pulseNS)*65535/uint64(periodNS)) - 32768)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.start() {
		return
	}
	if s.n == len(s.buf) {
		// Full: drop the oldest sample. The monitor is best-effort.
		s.r = (s.r + 1) % len(s.buf)
		s.n--
	}
	s.buf[s.w] = sample
	s.w = (s.w + 1) % len(s.buf)
	s.n++
}

// dutyReader feeds the player 16-bit little-endian stereo frames,
// duplicating the mono duty stream and padding with silence when the
// pacing loop falls behind.
type dutyReader struct {
	s *dutySink
}

func (r *dutyReader) Read(p []byte) (int, error) {
	frames := len(p) / 4
	if frames == 0 {
		return 0, nil
	}

	r.s.mu.Lock()
	for i := 0; i < frames; i++ {
		var sample int16
		if r.s.n > 0 {
			sample = r.s.buf[r.s.r]
			r.s.r = (r.s.r + 1) % len(r.s.buf)
			r.s.n--
		}
		p[i*4] = byte(sample)
		p[i*4+1] = byte(sample >> 8)
		p[i*4+2] = byte(sample)
		p[i*4+3] = byte(sample >> 8)
	}
	r.s.mu.Unlock()

	return frames * 4, nil
}

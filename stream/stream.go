// Package stream reassembles packetized mono audio into fixed
// playback blocks. A 4-byte chunk is a control chunk carrying the
// little-endian total length of the upcoming block; every other chunk
// carries int16 samples. The first data chunk leaving at most one
// packet outstanding closes the block and triggers playback.
package stream

import (
	"encoding/binary"
	"fmt"
	"time"

	"pendant/audio"
	"pendant/hal"
	"pendant/pool"
)

const (
	// HeaderSize is the length of a control chunk.
	HeaderSize = 4

	// PacketSize is the transport packet payload in bytes. A block
	// with PacketSize or fewer bytes outstanding finishes on the
	// next data chunk.
	PacketSize = 400

	// DrainDelay holds the buffer after playback before it is
	// zeroed and released.
	DrainDelay = 4 * time.Second
)

// EncodeHeader writes the block byte count into a control chunk.
func EncodeHeader(total uint32) []byte {
	var b [HeaderSize]byte
	binary.LittleEndian.PutUint32(b[:], total)
	return b[:]
}

// DecodeHeader reads the block byte count from a control chunk.
func DecodeHeader(b []byte) (uint32, error) {
	if len(b) != HeaderSize {
		return 0, fmt.Errorf("stream: header is %d bytes, want %d", len(b), HeaderSize)
	}
	return binary.LittleEndian.Uint32(b), nil
}

// Player consumes a reassembled mono block.
type Player interface {
	PlayMono(samples []int16) error
}

// Config wires a Reassembler to the playback path.
type Config struct {
	Player  Player
	Clock   hal.Clock
	Log     hal.Logger
	Buffers *pool.Pool[[]int16]
}

// Reassembler accumulates incoming chunks into a pooled sample block.
// It holds its pool slot from the control chunk until playback
// finishes, so at most one block is in flight per buffer.
type Reassembler struct {
	player Player
	clock  hal.Clock
	log    hal.Logger
	bufs   *pool.Pool[[]int16]

	guard     *pool.Guard[[]int16]
	buf       []int16
	w         int
	remaining uint32
}

// New builds a Reassembler. Buffers is mandatory.
func New(cfg Config) *Reassembler {
	return &Reassembler{
		player: cfg.Player,
		clock:  cfg.Clock,
		log:    cfg.Log,
		bufs:   cfg.Buffers,
	}
}

// Consume feeds one transport chunk and returns the number of bytes
// taken, which always equals the chunk length so the transport can
// acknowledge uniformly. A 4-byte chunk opens a block and resets the
// write cursor. The final data chunk plays the whole working buffer,
// waits DrainDelay, zeroes the buffer and releases it.
func (r *Reassembler) Consume(chunk []byte) (int, error) {
	if len(chunk) == HeaderSize {
		total, err := DecodeHeader(chunk)
		if err != nil {
			return 0, err
		}
		if r.guard == nil {
			guard, err := r.bufs.Acquire(audio.AcquireTimeout)
			if err != nil {
				return 0, fmt.Errorf("stream: no free buffer: %w", err)
			}
			r.guard = guard
			r.buf = guard.Value()
		}
		r.w = 0
		r.remaining = total
		r.logf("block opened, %d bytes expected", total)
		return len(chunk), nil
	}

	if r.guard == nil {
		return 0, fmt.Errorf("stream: data chunk before header")
	}

	r.copySamples(chunk)
	if r.remaining > PacketSize {
		r.remaining -= PacketSize
		return len(chunk), nil
	}

	// Final chunk: play the whole block, trailing silence included.
	r.remaining = 0
	r.logf("block complete, playing %d samples", len(r.buf))
	err := r.player.PlayMono(r.buf)
	if r.clock != nil {
		r.clock.Sleep(DrainDelay)
	}
	for i := range r.buf {
		r.buf[i] = 0
	}
	r.w = 0
	r.guard.Release()
	r.guard = nil
	r.buf = nil
	if err != nil {
		return len(chunk), fmt.Errorf("stream: playback: %w", err)
	}
	return len(chunk), nil
}

// Active reports whether a block is open.
func (r *Reassembler) Active() bool { return r.guard != nil }

// copySamples decodes little-endian int16 samples and writes each one
// twice, stretching the capture rate to the playback rate. Samples
// past the end of the block are dropped.
func (r *Reassembler) copySamples(chunk []byte) {
	for i := 0; i+1 < len(chunk); i += 2 {
		if r.w+1 >= len(r.buf) {
			return
		}
		s := int16(binary.LittleEndian.Uint16(chunk[i:]))
		r.buf[r.w] = s
		r.buf[r.w+1] = s
		r.w += 2
	}
}

func (r *Reassembler) logf(format string, args ...any) {
	if r.log == nil {
		return
	}
	r.log.WriteLineString("stream: " + fmt.Sprintf(format, args...))
}

// Package app wires the audio chain together and runs the power-on
// sequence: amplifier bring-up, self tests, a simulated stream replay
// and the file store exercise.
package app

import (
	"fmt"

	"pendant/amp"
	"pendant/audio"
	"pendant/hal"
	"pendant/internal/buildinfo"
	"pendant/store"
	"pendant/stream"
)

// Config selects which parts of the power-on sequence run.
type Config struct {
	// SelfTest plays the tone, sweep and noise checks.
	SelfTest bool

	// StoreCheck exercises the numbered file store when a
	// filesystem is mounted.
	StoreCheck bool

	// Volume is the initial transport volume byte.
	Volume uint8
}

// DefaultConfig runs everything at a mid-range listening level.
func DefaultConfig() Config {
	return Config{SelfTest: true, StoreCheck: true, Volume: 150}
}

// Run executes the full power-on sequence and leaves the chain muted.
func Run(h hal.HAL) error {
	return RunWithConfig(h, DefaultConfig())
}

// RunWithConfig is Run with an explicit configuration.
func RunWithConfig(h hal.HAL, cfg Config) error {
	log := h.Logger()
	log.WriteLineString("pendant " + buildinfo.Short())

	shutdown := hal.PinByName(h.GPIO(), hal.PinAmpShutdown)
	if shutdown == nil {
		return fmt.Errorf("app: shutdown pin: %w", hal.ErrNotFound)
	}
	// Gain pins are optional: the amplifier falls back to its
	// last-latched gain when they are missing.
	gain0 := hal.PinByName(h.GPIO(), hal.PinAmpGain0)
	if gain0 == nil {
		log.WriteLineString("app: gain0 pin unavailable")
	}
	gain1 := hal.PinByName(h.GPIO(), hal.PinAmpGain1)
	if gain1 == nil {
		log.WriteLineString("app: gain1 pin unavailable")
	}

	ctrl := amp.New(shutdown, gain0, gain1, h.Clock(), log)
	eng := audio.New(audio.Config{
		Left:     h.Audio().Left(),
		Right:    h.Audio().Right(),
		Amp:      ctrl,
		Clock:    h.Clock(),
		Log:      log,
		NewTimer: h.NewTimer,
	})

	if err := eng.Init(); err != nil {
		return fmt.Errorf("app: audio init: %w", err)
	}
	eng.ApplyVolumeControl(cfg.Volume)
	eng.Unmute()

	if err := eng.PlayBootChime(); err != nil {
		return fmt.Errorf("app: boot chime: %w", err)
	}

	if cfg.SelfTest {
		if err := runSelfTest(eng, log); err != nil {
			return err
		}
	}

	if err := runStreamReplay(eng, h, log); err != nil {
		return err
	}

	if cfg.StoreCheck {
		if fs := h.Filesystem(); fs != nil {
			if err := runStoreCheck(fs, log); err != nil {
				return err
			}
		} else {
			log.WriteLineString("app: no filesystem, skipping store check")
		}
	}

	eng.PrintStats()
	eng.Mute()
	ctrl.Shutdown()
	log.WriteLineString("app: power-on sequence complete")
	return nil
}

func runSelfTest(eng *audio.Engine, log hal.Logger) error {
	log.WriteLineString("app: running audio self test")
	if err := eng.TestSineWave(); err != nil {
		return fmt.Errorf("app: sine test: %w", err)
	}
	if err := eng.TestSweep(); err != nil {
		return fmt.Errorf("app: sweep test: %w", err)
	}
	if err := eng.TestWhiteNoise(); err != nil {
		return fmt.Errorf("app: noise test: %w", err)
	}

	// Walk the volume range so each amplifier gain tier latches once.
	for _, v := range []uint8{40, 150, 220} {
		eng.ApplyVolumeControl(v)
	}
	eng.ApplyVolumeControl(150)
	return nil
}

// runStreamReplay pushes one short synthetic block through the
// reassembler the way the transport would deliver it.
func runStreamReplay(eng *audio.Engine, h hal.HAL, log hal.Logger) error {
	r := stream.New(stream.Config{
		Player:  eng,
		Clock:   h.Clock(),
		Log:     log,
		Buffers: eng.Buffers(),
	})

	// One mid packet plus one short final packet.
	const total = stream.PacketSize + 120
	chunks := [][]byte{
		stream.EncodeHeader(total),
		sawtoothChunk(stream.PacketSize, 0),
		sawtoothChunk(120, stream.PacketSize),
	}
	for _, c := range chunks {
		if _, err := r.Consume(c); err != nil {
			return fmt.Errorf("app: stream replay: %w", err)
		}
	}
	return nil
}

func sawtoothChunk(size, phase int) []byte {
	b := make([]byte, size)
	for i := 0; i+1 < size; i += 2 {
		v := int16((phase + i) % 512 * 64)
		b[i] = byte(v)
		b[i+1] = byte(v >> 8)
	}
	return b
}

func runStoreCheck(fs hal.Filesystem, log hal.Logger) error {
	s, err := store.Mount(fs, log)
	if err != nil {
		return fmt.Errorf("app: store mount: %w", err)
	}

	if err := s.Initialize(2); err != nil {
		return fmt.Errorf("app: store check: %w", err)
	}
	if err := s.MoveWrite(2); err != nil {
		return fmt.Errorf("app: store check: %w", err)
	}
	if err := s.Append([]byte("capture check")); err != nil {
		return fmt.Errorf("app: store check: %w", err)
	}
	if err := s.SaveOffset(s.Size(2)); err != nil {
		return fmt.Errorf("app: store check: %w", err)
	}

	if err := s.MoveRead(2); err != nil {
		return fmt.Errorf("app: store check: %w", err)
	}
	buf := make([]byte, 13)
	if _, err := s.ReadAt(buf, 0); err != nil {
		return fmt.Errorf("app: store check: %w", err)
	}
	log.WriteLineString(fmt.Sprintf("app: store readback %q, offset %d", buf, s.Offset()))

	if err := s.ClearDirectory(); err != nil {
		return fmt.Errorf("app: store clear: %w", err)
	}
	return nil
}

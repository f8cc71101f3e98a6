package audio

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"pendant/amp"
	"pendant/hal"
	"pendant/pool"
)

// Working buffer sizing, shared by the self tests and the stream
// reassembler: two fixed blocks, nothing else.
const (
	MaxBlockBytes = 10000
	BlockSamples  = MaxBlockBytes / 2
	BlockCount    = 2

	// AcquireTimeout bounds how long a caller waits for a free block.
	AcquireTimeout = 200 * time.Millisecond
)

// ErrInvalidArgument reports a nil or empty buffer passed to a
// generator or playback call.
var ErrInvalidArgument = errors.New("audio: invalid argument")

// Config wires the engine to the board.
type Config struct {
	Left  hal.PWMChannel
	Right hal.PWMChannel
	Amp   *amp.Controller
	Clock hal.Clock
	Log   hal.Logger

	// NewTimer builds the periodic timer driving the anti-pop ramp.
	NewTimer func(fn func()) hal.Timer
}

// Engine owns the process-wide playback state: current volume, mute
// flag and initialization flag. All mutation goes through its methods;
// the ramp timer callback and the playing thread share the volume
// field through atomic access, so a ramp can audibly move the volume
// in the middle of a block. That is intended behavior, not a race to
// fix.
type Engine struct {
	left  hal.PWMChannel
	right hal.PWMChannel
	amp   *amp.Controller
	clock hal.Clock
	log   hal.Logger

	volume uint32
	muted  uint32

	mu          sync.Mutex
	initialized bool
	ramp        *rampJob
	timer       hal.Timer

	bufs *pool.Pool[[]int16]
	rng  *rand.Rand
}

// New builds an engine. Init must run before any playback call.
func New(cfg Config) *Engine {
	e := &Engine{
		left:  cfg.Left,
		right: cfg.Right,
		amp:   cfg.Amp,
		clock: cfg.Clock,
		log:   cfg.Log,
		bufs: pool.New(BlockCount, func() []int16 {
			return make([]int16, BlockSamples)
		}),
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	atomic.StoreUint32(&e.volume, MaxVolume)
	if cfg.NewTimer != nil {
		e.timer = cfg.NewTimer(e.rampTick)
	} else {
		e.timer = nopTimer{}
	}
	return e
}

// Buffers exposes the engine's block pool so the stream reassembler
// draws its working buffer from the same two slots.
func (e *Engine) Buffers() *pool.Pool[[]int16] { return e.bufs }

// Init checks both PWM channels, parks them on 50% duty and only then
// powers the amplifier, so it never sees an undefined level. Calling
// Init on an initialized engine is a no-op returning success.
func (e *Engine) Init() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.initialized {
		return nil
	}
	e.logf("initializing PWM audio")

	if e.left == nil || !e.left.Ready() {
		return fmt.Errorf("left channel: %w", hal.ErrNotReady)
	}
	if e.right == nil || !e.right.Ready() {
		return fmt.Errorf("right channel: %w", hal.ErrNotReady)
	}

	if err := e.left.Set(PeriodNS, SilenceDuty); err != nil {
		return fmt.Errorf("left channel silence: %w", err)
	}
	if err := e.right.Set(PeriodNS, SilenceDuty); err != nil {
		return fmt.Errorf("right channel silence: %w", err)
	}

	if e.amp != nil {
		if err := e.amp.Init(); err != nil {
			return fmt.Errorf("amplifier: %w", err)
		}
	}
	if e.clock != nil {
		e.clock.Sleep(10 * time.Millisecond)
	}

	atomic.StoreUint32(&e.muted, 1)
	e.initialized = true
	e.logf("PWM audio initialized")
	return nil
}

// Initialized reports whether Init has completed.
func (e *Engine) Initialized() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.initialized
}

// PlayStereo consumes interleaved left/right samples, converting each
// pair at the current volume and pacing output to the sample rate.
// The mute flag is checked once at entry; a block already playing
// finishes even if Mute is called meanwhile. A failed channel write
// aborts with the samples emitted so far left in place.
func (e *Engine) PlayStereo(samples []int16) error {
	if !e.Initialized() {
		return fmt.Errorf("audio engine: %w", hal.ErrNotReady)
	}
	if e.Muted() {
		e.logf("muted, not playing")
		return nil
	}

	for i := 0; i+1 < len(samples); i += 2 {
		vol := e.Volume()
		if err := e.left.Set(PeriodNS, ToDuty(samples[i], vol)); err != nil {
			return fmt.Errorf("left channel: %w", err)
		}
		if err := e.right.Set(PeriodNS, ToDuty(samples[i+1], vol)); err != nil {
			return fmt.Errorf("right channel: %w", err)
		}
		e.clock.BusyWait(SamplePeriod)
	}
	return nil
}

// PlayMono duplicates each sample to both channels.
func (e *Engine) PlayMono(samples []int16) error {
	if !e.Initialized() {
		return fmt.Errorf("audio engine: %w", hal.ErrNotReady)
	}
	if e.Muted() {
		e.logf("muted, not playing")
		return nil
	}

	for _, s := range samples {
		duty := ToDuty(s, e.Volume())
		if err := e.left.Set(PeriodNS, duty); err != nil {
			return fmt.Errorf("left channel: %w", err)
		}
		if err := e.right.Set(PeriodNS, duty); err != nil {
			return fmt.Errorf("right channel: %w", err)
		}
		e.clock.BusyWait(SamplePeriod)
	}
	return nil
}

// Mute flips the mute flag immediately and fades the volume out via
// the ramp timer. Muting an already muted engine does nothing.
func (e *Engine) Mute() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized || atomic.LoadUint32(&e.muted) == 1 {
		return
	}
	e.logf("muting with anti-pop ramp")
	atomic.StoreUint32(&e.muted, 1)
	e.startRampLocked(rampToMute)
}

// Unmute flips the mute flag immediately and fades the volume back in.
func (e *Engine) Unmute() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized || atomic.LoadUint32(&e.muted) == 0 {
		return
	}
	e.logf("unmuting with anti-pop ramp")
	atomic.StoreUint32(&e.muted, 0)
	e.startRampLocked(rampToUnmute)
}

// SetVolume stores the linear gain numerator, clamped to MaxVolume.
func (e *Engine) SetVolume(v uint8) {
	if v > MaxVolume {
		v = MaxVolume
	}
	atomic.StoreUint32(&e.volume, uint32(v))
}

// Volume returns the current linear gain numerator.
func (e *Engine) Volume() uint8 {
	return uint8(atomic.LoadUint32(&e.volume))
}

// Muted reports the mute flag.
func (e *Engine) Muted() bool {
	return atomic.LoadUint32(&e.muted) == 1
}

// ApplyVolumeControl handles a transport volume byte: the PWM scaler
// takes the clamped value and the amplifier moves to its matching
// gain tier.
func (e *Engine) ApplyVolumeControl(v uint8) {
	e.SetVolume(v)
	if e.amp != nil {
		e.amp.SetGain(amp.TierForVolume(v))
	}
}

// PrintStats logs the output path configuration and current state.
func (e *Engine) PrintStats() {
	e.logf("PWM audio statistics:")
	e.logf("  sample rate: %d Hz", SampleRate)
	e.logf("  PWM frequency: %d Hz", PWMFrequency)
	e.logf("  PWM period: %d ns", PeriodNS)
	e.logf("  max volume: %d/%d", MaxVolume, Resolution)
	e.logf("  current volume: %d/%d", e.Volume(), Resolution)
	e.logf("  muted: %v", e.Muted())
	e.logf("  initialized: %v", e.Initialized())
}

func (e *Engine) logf(format string, args ...any) {
	if e.log == nil {
		return
	}
	e.log.WriteLineString("audio: " + fmt.Sprintf(format, args...))
}

type nopTimer struct{}

func (nopTimer) Start(time.Duration) {}
func (nopTimer) Stop()               {}

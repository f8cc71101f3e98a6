// Package amp drives a PAM8403-class class-D amplifier module through
// one shutdown line and two gain-select lines.
package amp

import (
	"fmt"
	"time"

	"pendant/hal"
)

// Gain selects one of the four discrete amplification levels. The two
// low bits map directly onto the gain-select pins.
type Gain uint8

const (
	Gain6dB Gain = iota
	Gain15dB
	Gain20dB
	Gain24dB
)

// GainDefault is the conservative mid gain applied when a request is
// out of range, chosen to avoid clipping at full PWM swing.
const GainDefault = Gain15dB

func (g Gain) String() string {
	switch g {
	case Gain6dB:
		return "6dB"
	case Gain15dB:
		return "15dB"
	case Gain20dB:
		return "20dB"
	case Gain24dB:
		return "24dB"
	default:
		return "invalid"
	}
}

// TierForVolume maps a transport volume byte onto an amplifier gain
// tier: quiet requests run at 6dB, the mid range at 15dB and loud
// requests at 20dB. The 24dB level is never picked automatically.
func TierForVolume(v uint8) Gain {
	switch {
	case v < 64:
		return Gain6dB
	case v <= 192:
		return Gain15dB
	default:
		return Gain20dB
	}
}

// Controller owns the three amplifier control pins. Pin levels live in
// the driver; the controller keeps no mirror of them.
type Controller struct {
	shutdown hal.GPIOPin
	gain0    hal.GPIOPin
	gain1    hal.GPIOPin
	clock    hal.Clock
	log      hal.Logger
}

// New wires a controller to its pins. A nil gain pin degrades to the
// hardware's default gain; a nil shutdown pin fails Init.
func New(shutdown, gain0, gain1 hal.GPIOPin, clock hal.Clock, log hal.Logger) *Controller {
	return &Controller{shutdown: shutdown, gain0: gain0, gain1: gain1, clock: clock, log: log}
}

// Init configures all pins as outputs driven low (amplifier powered
// down), applies the default gain and wakes the amplifier. Only the
// shutdown pin is mandatory; gain pin trouble is logged and the module
// runs at whatever gain the hardware defaults to.
func (c *Controller) Init() error {
	c.logf("initializing amplifier")

	if c.shutdown == nil {
		return fmt.Errorf("shutdown pin: %w", hal.ErrNotReady)
	}
	if err := c.shutdown.Configure(hal.GPIOModeOutput, hal.GPIOPullNone); err != nil {
		return fmt.Errorf("shutdown pin: %w", err)
	}
	if err := c.shutdown.Write(false); err != nil {
		return fmt.Errorf("shutdown pin: %w", err)
	}

	for _, p := range []hal.GPIOPin{c.gain0, c.gain1} {
		if p == nil {
			continue
		}
		if err := p.Configure(hal.GPIOModeOutput, hal.GPIOPullNone); err != nil {
			c.logf("gain pin %s: %v", p.Name(), err)
			continue
		}
		if err := p.Write(false); err != nil {
			c.logf("gain pin %s: %v", p.Name(), err)
		}
	}

	c.SetGain(GainDefault)
	c.Wakeup()
	if c.clock != nil {
		c.clock.Sleep(5 * time.Millisecond)
	}

	c.logf("amplifier initialized")
	return nil
}

// SetGain encodes the 2-bit gain level onto the gain-select pins.
// Out-of-range levels coerce to GainDefault; a failed pin write is
// logged, not propagated, since the hardware keeps its last gain.
func (c *Controller) SetGain(g Gain) {
	if g > Gain24dB {
		g = GainDefault
	}
	if c.gain0 != nil {
		if err := c.gain0.Write(g&0x01 != 0); err != nil {
			c.logf("gain0: %v", err)
		}
	}
	if c.gain1 != nil {
		if err := c.gain1.Write(g>>1&0x01 != 0); err != nil {
			c.logf("gain1: %v", err)
		}
	}
	c.logf("gain set to %s", g)
}

// Wakeup drives the shutdown line high, enabling the amplifier.
func (c *Controller) Wakeup() {
	c.logf("waking amplifier")
	if c.shutdown == nil {
		return
	}
	if err := c.shutdown.Write(true); err != nil {
		c.logf("wakeup: %v", err)
	}
}

// Shutdown drives the shutdown line low, powering the amplifier down.
func (c *Controller) Shutdown() {
	c.logf("shutting amplifier down")
	if c.shutdown == nil {
		return
	}
	if err := c.shutdown.Write(false); err != nil {
		c.logf("shutdown: %v", err)
	}
}

func (c *Controller) logf(format string, args ...any) {
	if c.log == nil {
		return
	}
	c.log.WriteLineString("amp: " + fmt.Sprintf(format, args...))
}

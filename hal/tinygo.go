//go:build tinygo && baremetal

package hal

import (
	"fmt"

	"machine"
)

// Board wiring for the nRF52840 build: PWM0/PWM1 drive the amplifier
// left/right inputs, three GPIOs control the amplifier, and the SD
// card module sits on SPI0.
const (
	pinPWMLeft  = machine.P0_02
	pinPWMRight = machine.P1_11

	pinAmpShutdown = machine.P0_28
	pinAmpGain0    = machine.P0_29
	pinAmpGain1    = machine.P0_03

	pinSDChipSelect = machine.P0_06
)

type tinyGoHAL struct {
	logger Logger
	gpio   GPIO
	aud    tinyGoAudio
	clock  Clock
	fs     Filesystem
}

// New returns the bare-metal HAL implementation.
func New() HAL {
	return &tinyGoHAL{
		logger: serialLogger{},
		gpio: newVirtualGPIO([]GPIOPin{
			&machinePin{name: PinAmpShutdown, pin: pinAmpShutdown},
			&machinePin{name: PinAmpGain0, pin: pinAmpGain0},
			&machinePin{name: PinAmpGain1, pin: pinAmpGain1},
		}),
		aud: tinyGoAudio{
			left:  newNRFPWMChannel(machine.PWM0, pinPWMLeft),
			right: newNRFPWMChannel(machine.PWM1, pinPWMRight),
		},
		clock: sleepClock{},
		fs:    initSD(),
	}
}

func (h *tinyGoHAL) Logger() Logger           { return h.logger }
func (h *tinyGoHAL) Audio() Audio             { return h.aud }
func (h *tinyGoHAL) GPIO() GPIO               { return h.gpio }
func (h *tinyGoHAL) Clock() Clock             { return h.clock }
func (h *tinyGoHAL) NewTimer(fn func()) Timer { return newRepeatTimer(fn) }
func (h *tinyGoHAL) Filesystem() Filesystem   { return h.fs }

type serialLogger struct{}

func (serialLogger) WriteLineString(s string) {
	println(s)
}

func (serialLogger) WriteLineBytes(b []byte) {
	println(string(b))
}

type tinyGoAudio struct {
	left  *nrfPWMChannel
	right *nrfPWMChannel
}

func (a tinyGoAudio) Left() PWMChannel  { return a.left }
func (a tinyGoAudio) Right() PWMChannel { return a.right }

type pwmDevice interface {
	Configure(config machine.PWMConfig) error
	Channel(pin machine.Pin) (uint8, error)
	Top() uint32
	Set(channel uint8, value uint32)
}

// nrfPWMChannel drives one nRF52840 PWM peripheral. The peripheral is
// configured on the first Set so a missing device only fails once the
// audio path actually runs.
type nrfPWMChannel struct {
	pwm pwmDevice
	pin machine.Pin

	ch         uint8
	periodNS   uint32
	configured bool
}

func newNRFPWMChannel(pwm pwmDevice, pin machine.Pin) *nrfPWMChannel {
	return &nrfPWMChannel{pwm: pwm, pin: pin}
}

func (c *nrfPWMChannel) Ready() bool {
	return c != nil && c.pwm != nil
}

func (c *nrfPWMChannel) Set(periodNS, pulseNS uint32) error {
	if !c.Ready() {
		return fmt.Errorf("pwm: %w", ErrNotReady)
	}
	if periodNS == 0 || pulseNS > periodNS {
		return fmt.Errorf("pwm: invalid pulse %d/%d", pulseNS, periodNS)
	}
	if !c.configured || c.periodNS != periodNS {
		if err := c.pwm.Configure(machine.PWMConfig{Period: uint64(periodNS)}); err != nil {
			return fmt.Errorf("pwm configure: %w", err)
		}
		ch, err := c.pwm.Channel(c.pin)
		if err != nil {
			return fmt.Errorf("pwm channel: %w", err)
		}
		c.ch = ch
		c.periodNS = periodNS
		c.configured = true
	}
	top := c.pwm.Top()
	c.pwm.Set(c.ch, uint32(uint64(pulseNS)*uint64(top)/uint64(periodNS)))
	return nil
}

type machinePin struct {
	name string
	pin  machine.Pin
}

func (p *machinePin) Name() string { return p.name }

func (p *machinePin) Configure(mode GPIOMode, pull GPIOPull) error {
	var m machine.PinMode
	switch mode {
	case GPIOModeOutput:
		m = machine.PinOutput
	case GPIOModeInput:
		switch pull {
		case GPIOPullUp:
			m = machine.PinInputPullup
		case GPIOPullDown:
			m = machine.PinInputPulldown
		default:
			m = machine.PinInput
		}
	default:
		return fmt.Errorf("gpio: pin %s: invalid mode", p.name)
	}
	p.pin.Configure(machine.PinConfig{Mode: m})
	return nil
}

func (p *machinePin) Read() (bool, error) {
	return p.pin.Get(), nil
}

func (p *machinePin) Write(level bool) error {
	p.pin.Set(level)
	return nil
}

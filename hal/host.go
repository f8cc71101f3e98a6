//go:build !tinygo

package hal

import (
	"fmt"
	"os"
	"sync"
)

type hostHAL struct {
	logger *hostLogger
	gpio   GPIO
	aud    hostAudio
	clock  Clock
	fs     Filesystem
}

// New returns a host HAL implementation.
//
// PWM output is recorded (and, with cgo, made audible through the duty
// monitor); the amplifier pins are virtual; storage lives in a local
// directory standing in for the SD card.
func New() HAL {
	logger := &hostLogger{w: os.Stdout}
	sink := newDutySink()
	pins := []GPIOPin{
		newVirtualPin(PinAmpShutdown),
		newVirtualPin(PinAmpGain0),
		newVirtualPin(PinAmpGain1),
	}
	root := os.Getenv("PENDANT_DATA")
	if root == "" {
		root = "data"
	}
	return &hostHAL{
		logger: logger,
		gpio:   newVirtualGPIO(pins),
		aud: hostAudio{
			left:  &hostPWMChannel{name: "PWM0", sink: sink},
			right: &hostPWMChannel{name: "PWM1"},
		},
		clock: sleepClock{},
		fs:    newHostFS(root),
	}
}

func (h *hostHAL) Logger() Logger             { return h.logger }
func (h *hostHAL) Audio() Audio               { return h.aud }
func (h *hostHAL) GPIO() GPIO                 { return h.gpio }
func (h *hostHAL) Clock() Clock               { return h.clock }
func (h *hostHAL) NewTimer(fn func()) Timer   { return newRepeatTimer(fn) }
func (h *hostHAL) Filesystem() Filesystem     { return h.fs }

type hostLogger struct {
	mu sync.Mutex
	w  *os.File
}

func (l *hostLogger) WriteLineString(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.w, s)
}

func (l *hostLogger) WriteLineBytes(b []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w.Write(b)
	l.w.Write([]byte{'\n'})
}

type hostAudio struct {
	left  *hostPWMChannel
	right *hostPWMChannel
}

func (a hostAudio) Left() PWMChannel  { return a.left }
func (a hostAudio) Right() PWMChannel { return a.right }

// hostPWMChannel records the last programmed duty cycle. The left
// channel additionally feeds the duty monitor so host builds are
// audible when a sound backend is available.
type hostPWMChannel struct {
	mu       sync.Mutex
	name     string
	periodNS uint32
	pulseNS  uint32
	sink     *dutySink
}

func (c *hostPWMChannel) Ready() bool { return c != nil }

func (c *hostPWMChannel) Set(periodNS, pulseNS uint32) error {
	if c == nil {
		return fmt.Errorf("pwm: %w", ErrNotReady)
	}
	if periodNS == 0 || pulseNS > periodNS {
		return fmt.Errorf("pwm %s: invalid pulse %d/%d", c.name, pulseNS, periodNS)
	}
	c.mu.Lock()
	c.periodNS = periodNS
	c.pulseNS = pulseNS
	sink := c.sink
	c.mu.Unlock()
	if sink != nil {
		sink.writeDuty(periodNS, pulseNS)
	}
	return nil
}

// Duty reports the last programmed (period, pulse) pair.
func (c *hostPWMChannel) Duty() (periodNS, pulseNS uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.periodNS, c.pulseNS
}

package hal

import (
	"errors"
	"io"
	"time"
)

// Logger writes newline-delimited log lines.
type Logger interface {
	WriteLineString(s string)
	WriteLineBytes(b []byte)
}

var (
	ErrNotImplemented = errors.New("not implemented")

	// ErrNotReady reports a peripheral that is absent or misconfigured.
	ErrNotReady = errors.New("device not ready")

	ErrNotFound = errors.New("not found")
	ErrExists   = errors.New("already exists")
)

// PWMChannel is one hardware PWM output.
type PWMChannel interface {
	Ready() bool
	// Set programs the period and pulse width, both in nanoseconds.
	Set(periodNS, pulseNS uint32) error
}

// Audio exposes the two PWM outputs feeding the amplifier inputs.
type Audio interface {
	Left() PWMChannel
	Right() PWMChannel
}

// Clock provides the two delay primitives the audio path needs.
//
// BusyWait paces per-sample output and must hold the calling thread;
// Sleep may yield.
type Clock interface {
	Sleep(d time.Duration)
	BusyWait(d time.Duration)
}

// Timer fires its callback at a fixed interval until stopped.
//
// Start on a running timer re-arms it from zero. Stop is idempotent.
type Timer interface {
	Start(interval time.Duration)
	Stop()
}

// FileInfo describes a filesystem entry.
type FileInfo struct {
	Dir  bool
	Size uint32
}

// WriteMode selects how OpenWriter positions an existing file.
type WriteMode uint8

const (
	WriteTruncate WriteMode = iota
	WriteAppend
)

// FileWriter is an open write handle; Close flushes it.
type FileWriter interface {
	io.Writer
	Close() error
}

// Filesystem is the mounted storage the capture file store runs against.
//
// Implementations map their native error codes onto ErrNotFound and
// ErrExists so callers can branch without knowing the backend.
type Filesystem interface {
	Mkdir(path string) error
	Remove(path string) error
	Stat(path string) (FileInfo, error)
	ReadAt(path string, p []byte, off uint32) (int, error)
	OpenWriter(path string, mode WriteMode) (FileWriter, error)
	ListDir(path string, fn func(name string, info FileInfo) bool) error
}

// Amplifier control pin names, as exposed by GPIO backends.
const (
	PinAmpShutdown = "AMP_SD"
	PinAmpGain0    = "AMP_G0"
	PinAmpGain1    = "AMP_G1"
)

// HAL provides the only contact point between the firmware and the board.
type HAL interface {
	Logger() Logger
	Audio() Audio
	GPIO() GPIO
	Clock() Clock
	NewTimer(fn func()) Timer
	Filesystem() Filesystem
}

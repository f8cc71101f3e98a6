//go:build !tinygo && !cgo

package hal

// dutySink is a stub when no sound backend is available.
type dutySink struct{}

func newDutySink() *dutySink { return nil }

func (s *dutySink) writeDuty(periodNS, pulseNS uint32) {}

package audio

import "time"

// Anti-pop ramp configuration: mute and unmute transitions interpolate
// the effective volume across RampSteps timer ticks instead of
// flipping it, which keeps the speaker from popping.
const (
	RampDuration = 100 * time.Millisecond
	RampSteps    = 20

	rampInterval = RampDuration / RampSteps
)

type rampDirection uint8

const (
	rampToMute rampDirection = iota
	rampToUnmute
)

// rampJob is the state of one in-flight fade. At most one job exists
// at a time; a new mute/unmute request replaces it and re-arms the
// timer from step zero.
type rampJob struct {
	dir   rampDirection
	step  uint8
	start uint8
}

func (e *Engine) startRampLocked(dir rampDirection) {
	e.ramp = &rampJob{dir: dir, start: e.Volume()}
	e.timer.Start(rampInterval)
}

// rampTick runs on the timer's execution context, not the caller's.
// It steps the effective volume toward the target; the final mute step
// additionally parks both channels on the exact 50% silence duty.
func (e *Engine) rampTick() {
	e.mu.Lock()
	job := e.ramp
	if job == nil {
		e.mu.Unlock()
		e.timer.Stop()
		return
	}
	job.step++

	var v uint8
	switch job.dir {
	case rampToUnmute:
		v = uint8(uint16(MaxVolume) * uint16(job.step) / RampSteps)
	case rampToMute:
		v = job.start - uint8(uint16(job.start)*uint16(job.step)/RampSteps)
	}

	done := job.step >= RampSteps
	if done {
		e.ramp = nil
	}
	e.mu.Unlock()

	e.SetVolume(v)

	if done {
		e.timer.Stop()
		if job.dir == rampToMute {
			e.forceSilence()
		}
	}
}

func (e *Engine) forceSilence() {
	if err := e.left.Set(PeriodNS, SilenceDuty); err != nil {
		e.logf("silence on left channel failed: %v", err)
	}
	if err := e.right.Set(PeriodNS, SilenceDuty); err != nil {
		e.logf("silence on right channel failed: %v", err)
	}
}

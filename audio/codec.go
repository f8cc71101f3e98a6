// Package audio implements the PWM audio playback engine: sample to
// duty-cycle conversion, volume scaling, anti-pop mute ramping and
// self-test signal generation.
package audio

import "time"

// Output path timing and scaling.
const (
	// SampleRate is the playback rate in Hz.
	SampleRate = 16000
	// PWMFrequency is the carrier frequency in Hz, far above the audio
	// band so the amplifier's input filter recovers the signal.
	PWMFrequency = 1000000
	// PeriodNS is the PWM period in nanoseconds.
	PeriodNS = 1000000000 / PWMFrequency
	// Resolution is the effective duty-cycle resolution. 8 bits is the
	// quality ceiling of this output stage, matched to the amplifier.
	Resolution = 256
	// MaxVolume caps the linear gain numerator below full scale to
	// leave clipping headroom.
	MaxVolume = 180
	// SilenceDuty is the 50% pulse width that reads as silence.
	SilenceDuty = PeriodNS / 2

	dutyStep = PeriodNS / Resolution
)

// SamplePeriod is the pacing delay between consecutive samples.
const SamplePeriod = time.Second / SampleRate

// ToDuty converts a signed 16-bit sample at the given volume into a
// PWM pulse width in nanoseconds.
//
// The result never touches the 0% or 100% rails: the edge values
// trigger a glitch in the PWM peripheral, so the duty is clamped one
// resolution step away from either end.
func ToDuty(sample int16, volume uint8) uint32 {
	scaled := int32(sample) * int32(volume) / Resolution

	if scaled > 127 {
		scaled = 127
	}
	if scaled < -128 {
		scaled = -128
	}

	unsigned := uint32(scaled + 128)
	duty := unsigned * PeriodNS / Resolution

	if duty < dutyStep {
		duty = dutyStep
	}
	if duty > PeriodNS-dutyStep {
		duty = PeriodNS - dutyStep
	}
	return duty
}

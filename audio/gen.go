package audio

import (
	"math"
)

// GenerateTone fills buf with a mono sine wave at freq Hz.
func GenerateTone(buf []int16, freq float64) error {
	if len(buf) == 0 {
		return ErrInvalidArgument
	}
	for i := range buf {
		t := float64(i) / SampleRate
		buf[i] = int16(16384 * math.Sin(2*math.Pi*freq*t))
	}
	return nil
}

// GenerateSweep fills buf with a linear frequency sweep from f0 to f1.
func GenerateSweep(buf []int16, f0, f1 float64) error {
	if len(buf) == 0 {
		return ErrInvalidArgument
	}
	n := float64(len(buf))
	for i := range buf {
		t := float64(i) / SampleRate
		f := f0 + (f1-f0)*float64(i)/n
		buf[i] = int16(8192 * math.Sin(2*math.Pi*f*t))
	}
	return nil
}

// GenerateWhiteNoise fills buf with uniform noise at quarter scale.
func (e *Engine) GenerateWhiteNoise(buf []int16) error {
	if len(buf) == 0 {
		return ErrInvalidArgument
	}
	for i := range buf {
		buf[i] = int16((e.rng.Intn(65536) - 32768) / 4)
	}
	return nil
}

// GenerateChime fills buf with an interleaved stereo four-note
// arpeggio (C5, E5, G5, C6) with a linear decay per note. Returns the
// number of samples written.
func GenerateChime(buf []int16) int {
	notes := []float64{523.25, 659.25, 783.99, 1046.50}
	noteSamples := len(buf) / (2 * len(notes))
	w := 0
	for _, f := range notes {
		for i := 0; i < noteSamples && w+1 < len(buf); i++ {
			t := float64(i) / SampleRate
			decay := 1 - float64(i)/float64(noteSamples)
			s := int16(12288 * decay * math.Sin(2*math.Pi*f*t))
			buf[w] = s
			buf[w+1] = s
			w += 2
		}
	}
	return w
}

// TestSineWave plays a short 440 Hz tone through the output path.
func (e *Engine) TestSineWave() error {
	guard, err := e.bufs.Acquire(AcquireTimeout)
	if err != nil {
		return err
	}
	defer guard.Release()

	buf := guard.Value()
	if err := GenerateTone(buf, 440); err != nil {
		return err
	}
	e.logf("playing %d ms sine test tone", len(buf)*1000/SampleRate)
	return e.PlayMono(buf)
}

// TestSweep plays a 200 Hz to 2 kHz sweep through the output path.
func (e *Engine) TestSweep() error {
	guard, err := e.bufs.Acquire(AcquireTimeout)
	if err != nil {
		return err
	}
	defer guard.Release()

	buf := guard.Value()
	if err := GenerateSweep(buf, 200, 2000); err != nil {
		return err
	}
	e.logf("playing frequency sweep")
	return e.PlayMono(buf)
}

// TestWhiteNoise plays a short burst of white noise.
func (e *Engine) TestWhiteNoise() error {
	guard, err := e.bufs.Acquire(AcquireTimeout)
	if err != nil {
		return err
	}
	defer guard.Release()

	buf := guard.Value()
	if err := e.GenerateWhiteNoise(buf); err != nil {
		return err
	}
	e.logf("playing white noise burst")
	return e.PlayMono(buf)
}

// PlayBootChime plays the stereo startup arpeggio.
func (e *Engine) PlayBootChime() error {
	guard, err := e.bufs.Acquire(AcquireTimeout)
	if err != nil {
		return err
	}
	defer guard.Release()

	buf := guard.Value()
	n := GenerateChime(buf)
	e.logf("playing boot chime")
	return e.PlayStereo(buf[:n])
}

package audio

import (
	"errors"
	"testing"
)

func TestGenerateToneShape(t *testing.T) {
	buf := make([]int16, SampleRate/10)
	if err := GenerateTone(buf, 440); err != nil {
		t.Fatalf("GenerateTone() = %v, want nil", err)
	}

	if buf[0] != 0 {
		t.Fatalf("tone sample 0 = %d, want 0", buf[0])
	}
	var peak int16
	for _, s := range buf {
		if s > 16384 || s < -16384 {
			t.Fatalf("tone sample %d exceeds amplitude 16384", s)
		}
		if s > peak {
			peak = s
		}
	}
	if peak < 16000 {
		t.Fatalf("tone peak = %d, want near 16384", peak)
	}
}

func TestGenerateToneDeterministic(t *testing.T) {
	a := make([]int16, 256)
	b := make([]int16, 256)
	if err := GenerateTone(a, 1000); err != nil {
		t.Fatalf("GenerateTone() = %v", err)
	}
	if err := GenerateTone(b, 1000); err != nil {
		t.Fatalf("GenerateTone() = %v", err)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("tone not deterministic at sample %d: %d vs %d", i, a[i], b[i])
		}
	}
}

func TestGenerateEmptyBuffer(t *testing.T) {
	if err := GenerateTone(nil, 440); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("GenerateTone(nil) = %v, want ErrInvalidArgument", err)
	}
	if err := GenerateSweep(nil, 200, 2000); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("GenerateSweep(nil) = %v, want ErrInvalidArgument", err)
	}
	rig := newTestRig(t)
	if err := rig.eng.GenerateWhiteNoise(nil); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("GenerateWhiteNoise(nil) = %v, want ErrInvalidArgument", err)
	}
}

func TestGenerateSweepBounds(t *testing.T) {
	buf := make([]int16, SampleRate/4)
	if err := GenerateSweep(buf, 200, 2000); err != nil {
		t.Fatalf("GenerateSweep() = %v, want nil", err)
	}
	for i, s := range buf {
		if s > 8192 || s < -8192 {
			t.Fatalf("sweep sample %d = %d, exceeds amplitude 8192", i, s)
		}
	}
}

func TestGenerateWhiteNoiseBounds(t *testing.T) {
	rig := newTestRig(t)
	buf := make([]int16, BlockSamples)
	if err := rig.eng.GenerateWhiteNoise(buf); err != nil {
		t.Fatalf("GenerateWhiteNoise() = %v, want nil", err)
	}

	var sum int64
	nonzero := 0
	for _, s := range buf {
		if s > 8191 || s < -8192 {
			t.Fatalf("noise sample %d outside quarter scale", s)
		}
		if s != 0 {
			nonzero++
		}
		sum += int64(s)
	}
	if nonzero < len(buf)/2 {
		t.Fatalf("only %d of %d noise samples nonzero", nonzero, len(buf))
	}
	// Uniform noise averages out; allow a wide statistical margin.
	mean := sum / int64(len(buf))
	if mean > 512 || mean < -512 {
		t.Fatalf("noise mean = %d, want near 0", mean)
	}
}

func TestGenerateChimeStereoPairs(t *testing.T) {
	buf := make([]int16, 1600)
	n := GenerateChime(buf)
	if n == 0 || n%2 != 0 || n > len(buf) {
		t.Fatalf("GenerateChime() wrote %d samples, want even count in (0, %d]", n, len(buf))
	}
	for i := 0; i < n; i += 2 {
		if buf[i] != buf[i+1] {
			t.Fatalf("chime frame %d not duplicated: %d vs %d", i/2, buf[i], buf[i+1])
		}
	}
	if buf[0] != 0 {
		t.Fatalf("chime sample 0 = %d, want 0", buf[0])
	}
}

func TestSelfTestUsesBufferPool(t *testing.T) {
	rig := newTestRig(t)
	rig.mustInit(t)
	rig.eng.Unmute()

	if err := rig.eng.TestSineWave(); err != nil {
		t.Fatalf("TestSineWave() = %v, want nil", err)
	}
	if err := rig.eng.TestSweep(); err != nil {
		t.Fatalf("TestSweep() = %v, want nil", err)
	}
	if err := rig.eng.TestWhiteNoise(); err != nil {
		t.Fatalf("TestWhiteNoise() = %v, want nil", err)
	}

	// All guards released: both slots must be immediately available.
	g1, err := rig.eng.Buffers().Acquire(0)
	if err != nil {
		t.Fatalf("Acquire after self test = %v, want nil", err)
	}
	g2, err := rig.eng.Buffers().Acquire(0)
	if err != nil {
		t.Fatalf("second Acquire after self test = %v, want nil", err)
	}
	g1.Release()
	g2.Release()
}

package audio

import (
	"encoding/binary"
	"math"
	"testing"
)

func TestBytesToSamplesRoundTrip(t *testing.T) {
	samples := []int16{0, 1, -1, 32767, -32768, 12345}

	data := SamplesToBytes(samples)
	if len(data) != len(samples)*2 {
		t.Fatalf("byte length = %d, want %d", len(data), len(samples)*2)
	}

	back := BytesToSamples(data)
	if len(back) != len(samples) {
		t.Fatalf("sample length = %d, want %d", len(back), len(samples))
	}
	for i := range samples {
		if back[i] != samples[i] {
			t.Errorf("sample[%d] = %d, want %d", i, back[i], samples[i])
		}
	}
}

func TestBytesToSamplesLittleEndian(t *testing.T) {
	// 0x0102 little-endian is bytes 02 01
	samples := BytesToSamples([]byte{0x02, 0x01})
	if samples[0] != 0x0102 {
		t.Errorf("sample = %#x, want 0x0102", samples[0])
	}
}

func TestSamplesToFloat32(t *testing.T) {
	tests := []struct {
		name   string
		sample int16
		want   float32
	}{
		{"zero", 0, 0},
		{"max positive", 32767, 32767.0 / 32768.0},
		{"min negative", -32768, -1.0},
		{"half scale", 16384, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SamplesToFloat32([]int16{tt.sample})[0]
			if math.Abs(float64(got-tt.want)) > 1e-6 {
				t.Errorf("SamplesToFloat32(%d) = %v, want %v", tt.sample, got, tt.want)
			}
		})
	}
}

func TestResample(t *testing.T) {
	t.Run("same rate returns input", func(t *testing.T) {
		in := []int16{1, 2, 3}
		out := Resample(in, 16000, 16000)
		if len(out) != 3 {
			t.Errorf("length = %d, want 3", len(out))
		}
	})

	t.Run("downsample halves length", func(t *testing.T) {
		in := make([]int16, 1000)
		out := Resample(in, 44100, 22050)
		if len(out) != 500 {
			t.Errorf("length = %d, want 500", len(out))
		}
	})

	t.Run("upsample doubles length", func(t *testing.T) {
		in := make([]int16, 500)
		out := Resample(in, 8000, 16000)
		if len(out) != 1000 {
			t.Errorf("length = %d, want 1000", len(out))
		}
	})

	t.Run("empty input", func(t *testing.T) {
		out := Resample(nil, 16000, 22050)
		if len(out) != 0 {
			t.Errorf("length = %d, want 0", len(out))
		}
	})

	t.Run("constant signal stays constant", func(t *testing.T) {
		in := make([]int16, 100)
		for i := range in {
			in[i] = 1000
		}
		out := Resample(in, 16000, 22050)
		for i, s := range out {
			if s != 1000 {
				t.Fatalf("out[%d] = %d, want 1000", i, s)
			}
		}
	})
}

func TestWAVBytes(t *testing.T) {
	pcm := SamplesToBytes([]int16{1, 2, 3, 4})
	wav := WAVBytes(pcm, 22050)

	if len(wav) != 44+len(pcm) {
		t.Fatalf("wav length = %d, want %d", len(wav), 44+len(pcm))
	}
	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		t.Error("missing RIFF/WAVE markers")
	}
	if rate := binary.LittleEndian.Uint32(wav[24:28]); rate != 22050 {
		t.Errorf("sample rate = %d, want 22050", rate)
	}
	if size := binary.LittleEndian.Uint32(wav[40:44]); size != uint32(len(pcm)) {
		t.Errorf("data size = %d, want %d", size, len(pcm))
	}
}

func TestRMS(t *testing.T) {
	if got := RMS(nil); got != 0 {
		t.Errorf("RMS(nil) = %v, want 0", got)
	}

	silence := make([]int16, 100)
	if got := RMS(silence); got != 0 {
		t.Errorf("RMS(silence) = %v, want 0", got)
	}

	loud := make([]int16, 100)
	for i := range loud {
		loud[i] = 32767
	}
	if got := RMS(loud); got < 0.99 {
		t.Errorf("RMS(full scale) = %v, want ~1.0", got)
	}

	// a constant half-scale signal has RMS 0.5, not 0.25: the root is
	// taken after averaging the squares
	half := make([]int16, 100)
	for i := range half {
		half[i] = 16384
	}
	if got := RMS(half); math.Abs(got-0.5) > 1e-6 {
		t.Errorf("RMS(half scale) = %v, want 0.5", got)
	}
}

package audioconv

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownmixStereo(t *testing.T) {
	in := []float32{1, 0, 0.5, 0.5, -1, 1}
	out := downmix(in, 2)
	assert.Equal(t, []float32{0.5, 0.5, 0}, out)
}

func TestResampleHalvesRate(t *testing.T) {
	in := make([]float32, 32000)
	out := resample(in, 32000, 16000)
	assert.InDelta(t, 16000, len(out), 1)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	pcm := make([]float32, TargetRate) // 1s of 440 Hz
	for i := range pcm {
		pcm[i] = float32(0.5 * math.Sin(2*math.Pi*440*float64(i)/TargetRate))
	}

	path := filepath.Join(t.TempDir(), "tone.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, EncodeWAV(f, pcm, TargetRate))
	require.NoError(t, f.Close())

	got, err := DecodeFile(path, Options{})
	require.NoError(t, err)
	require.Len(t, got, len(pcm))
	for i := 0; i < len(pcm); i += 997 {
		assert.InDelta(t, pcm[i], got[i], 0.001)
	}
}

func TestDecodeFileUnsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("not audio"), 0o644))
	_, err := DecodeFile(path, Options{})
	assert.Error(t, err)
}

func TestMaxSamplesCap(t *testing.T) {
	pcm := make([]float32, TargetRate)
	path := filepath.Join(t.TempDir(), "long.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, EncodeWAV(f, pcm, TargetRate))
	require.NoError(t, f.Close())

	got, err := DecodeFile(path, Options{MaxSamples: 100})
	require.NoError(t, err)
	assert.Len(t, got, 100)
}

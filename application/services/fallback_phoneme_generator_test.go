package services

import (
	"math"
	"testing"

	"github.com/dzhechko/pu-3d-avatar/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertCoversDuration(t *testing.T, track domain.MouthCueTrack, duration float64) {
	t.Helper()
	require.NoError(t, track.Validate())
	require.NotEmpty(t, track.MouthCues)

	cues := track.MouthCues
	assert.Equal(t, 0.0, cues[0].Start)
	assert.Equal(t, duration, cues[len(cues)-1].End)
	for i := 1; i < len(cues); i++ {
		assert.InDelta(t, cues[i-1].End, cues[i].Start, 1e-9, "gap between cue %d and %d", i-1, i)
		assert.NotEqual(t, cues[i-1].Value, cues[i].Value, "adjacent cues %d and %d should be merged", i-1, i)
	}
	assert.Equal(t, domain.ShapeRest, cues[0].Value)
	assert.Equal(t, domain.ShapeRest, cues[len(cues)-1].Value)
}

func TestFallbackPhonemeGenerator_CoversDuration(t *testing.T) {
	durations := []float64{0.01, 1.0 / 30, 0.1, 0.3333333, 0.5, 1, 2.0, 3.0, 7.77, 12.345, 60}

	for seed := uint64(1); seed <= 20; seed++ {
		generator := NewFallbackPhonemeGenerator(seed)
		for _, duration := range durations {
			track := generator.Generate(duration)
			assertCoversDuration(t, track, duration)
			assert.Equal(t, duration, track.Metadata.Duration)
			assert.Equal(t, FallbackVersion, track.Metadata.Version)
		}
	}
}

func TestFallbackPhonemeGenerator_WindUpAndDown(t *testing.T) {
	generator := NewFallbackPhonemeGenerator(42)
	track := generator.Generate(5.0)

	windSeconds := 5.0 / FallbackFrameRate
	first := track.MouthCues[0]
	last := track.MouthCues[len(track.MouthCues)-1]
	assert.GreaterOrEqual(t, first.End, windSeconds-1e-9)
	assert.LessOrEqual(t, last.Start, 5.0-windSeconds+1e-9)
}

func TestFallbackPhonemeGenerator_Moves(t *testing.T) {
	generator := NewFallbackPhonemeGenerator(7)
	track := generator.Generate(10.0)

	speaking := 0
	for _, cue := range track.MouthCues {
		if cue.Value != domain.ShapeRest {
			speaking++
		}
		frames := math.Round((cue.End - cue.Start) * FallbackFrameRate)
		assert.GreaterOrEqual(t, frames, 1.0)
	}
	assert.Greater(t, speaking, 5, "a ten second clip should animate the mouth")
}

func TestFallbackPhonemeGenerator_Deterministic(t *testing.T) {
	first := NewFallbackPhonemeGenerator(99).Generate(4.2)
	second := NewFallbackPhonemeGenerator(99).Generate(4.2)
	assert.Equal(t, first, second)
}

func TestFallbackPhonemeGenerator_NonPositiveDuration(t *testing.T) {
	track := NewFallbackPhonemeGenerator(1).Generate(0)
	require.NoError(t, track.Validate())
	assert.Equal(t, domain.ShapeRest, track.MouthCues[0].Value)
}

func TestFallbackPhonemeGenerator_ClampsHugeDuration(t *testing.T) {
	for _, duration := range []float64{1e12, math.Inf(1)} {
		track := NewFallbackPhonemeGenerator(1).Generate(duration)
		assertCoversDuration(t, track, maxFallbackDuration)
		assert.Equal(t, maxFallbackDuration, track.Metadata.Duration)
	}
}

package services

import (
	"github.com/dzhechko/pu-3d-avatar/domain"
	"math"
	"math/rand/v2"
	"sync"
	"time"
)

const (
	FallbackFrameRate = 30
	FallbackVersion   = "1.0.0"

	minShapeFrames        = 3
	maxShapeFrames        = 8
	transitionProbability = 0.3
	maxWindFrames         = 5

	// One frame is allocated per 1/30 s, so longer tracks are clamped.
	maxFallbackDuration = 3600.0
)

// Shapes the generator may switch to, rest included.
var fallbackShapes = append(append([]domain.ShapeSymbol{}, domain.SpeakingShapes...), domain.ShapeRest)

// FallbackPhonemeGenerator produces frame-quantized pseudo-random mouth movement
// when no real phoneme extraction is possible.
type FallbackPhonemeGenerator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewFallbackPhonemeGenerator seeds the generator; a zero seed picks one from the clock.
func NewFallbackPhonemeGenerator(seed uint64) *FallbackPhonemeGenerator {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &FallbackPhonemeGenerator{
		rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Generate returns a track that covers [0, duration] without gaps, starting and
// ending at rest. duration must be positive and is clamped to one hour.
func (g *FallbackPhonemeGenerator) Generate(duration float64) domain.MouthCueTrack {
	if !(duration > 0) {
		duration = 1.0 / FallbackFrameRate
	}
	duration = math.Min(duration, maxFallbackDuration)

	frames := g.frames(duration)

	cues := make([]domain.MouthCue, 0, len(frames)/minShapeFrames+1)
	runStart := 0
	for i := 1; i <= len(frames); i++ {
		if i < len(frames) && frames[i] == frames[runStart] {
			continue
		}
		start := float64(runStart) / FallbackFrameRate
		end := math.Min(float64(i)/FallbackFrameRate, duration)
		if i == len(frames) {
			end = duration
		}
		if end > start {
			cues = append(cues, domain.MouthCue{Start: start, End: end, Value: frames[runStart]})
		}
		runStart = i
	}

	return domain.MouthCueTrack{
		Metadata: domain.TrackMetadata{
			Duration: duration,
			Version:  FallbackVersion,
		},
		MouthCues: cues,
	}
}

func (g *FallbackPhonemeGenerator) frames(duration float64) []domain.ShapeSymbol {
	frameCount := int(math.Ceil(duration*FallbackFrameRate - 1e-9))
	if frameCount < 1 {
		frameCount = 1
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	frames := make([]domain.ShapeSymbol, frameCount)
	current := domain.ShapeRest
	held := 0
	target := g.holdFrames()
	for i := range frames {
		if held >= target && g.rng.Float64() < transitionProbability {
			current = g.nextShape(current)
			held = 0
			target = g.holdFrames()
		}
		frames[i] = current
		held++
	}

	wind := min(maxWindFrames, int(math.Floor(FallbackFrameRate*0.2)))
	for i := 0; i < wind && i < frameCount; i++ {
		frames[i] = domain.ShapeRest
		frames[frameCount-1-i] = domain.ShapeRest
	}
	frames[0] = domain.ShapeRest
	frames[frameCount-1] = domain.ShapeRest

	return frames
}

func (g *FallbackPhonemeGenerator) holdFrames() int {
	return minShapeFrames + g.rng.IntN(maxShapeFrames-minShapeFrames)
}

func (g *FallbackPhonemeGenerator) nextShape(current domain.ShapeSymbol) domain.ShapeSymbol {
	for {
		shape := fallbackShapes[g.rng.IntN(len(fallbackShapes))]
		if shape != current {
			return shape
		}
	}
}

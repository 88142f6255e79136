package domain

import (
	"fmt"
	"math"
)

type FacialExpression string

const (
	SmileExpression     FacialExpression = "smile"
	SadExpression       FacialExpression = "sad"
	AngryExpression     FacialExpression = "angry"
	SurprisedExpression FacialExpression = "surprised"
	FunnyFaceExpression FacialExpression = "funnyFace"
	DefaultExpression   FacialExpression = "default"
)

var facialExpressions = map[FacialExpression]struct{}{
	SmileExpression:     {},
	SadExpression:       {},
	AngryExpression:     {},
	SurprisedExpression: {},
	FunnyFaceExpression: {},
	DefaultExpression:   {},
}

// Normalize maps unknown expressions to the default one.
func (f FacialExpression) Normalize() FacialExpression {
	if _, ok := facialExpressions[f]; ok {
		return f
	}
	return DefaultExpression
}

type AnimationName string

const (
	IdleAnimation                AnimationName = "Idle"
	TalkingOneAnimation          AnimationName = "TalkingOne"
	TalkingThreeAnimation        AnimationName = "TalkingThree"
	SadIdleAnimation             AnimationName = "SadIdle"
	DefeatedAnimation            AnimationName = "Defeated"
	AngryAnimation               AnimationName = "Angry"
	SurprisedAnimation           AnimationName = "Surprised"
	DismissingGestureAnimation   AnimationName = "DismissingGesture"
	ThoughtfulHeadShakeAnimation AnimationName = "ThoughtfulHeadShake"
)

var animationNames = map[AnimationName]struct{}{
	IdleAnimation:                {},
	TalkingOneAnimation:          {},
	TalkingThreeAnimation:        {},
	SadIdleAnimation:             {},
	DefeatedAnimation:            {},
	AngryAnimation:               {},
	SurprisedAnimation:           {},
	DismissingGestureAnimation:   {},
	ThoughtfulHeadShakeAnimation: {},
}

// Normalize maps unknown animations to Idle.
func (a AnimationName) Normalize() AnimationName {
	if _, ok := animationNames[a]; ok {
		return a
	}
	return IdleAnimation
}

// Message is one line of avatar speech. Audio holds base64 encoded audio once the
// lip-sync pipeline has run.
type Message struct {
	Text             string           `json:"text"`
	FacialExpression FacialExpression `json:"facialExpression"`
	Animation        AnimationName    `json:"animation"`
	Audio            string           `json:"audio,omitempty"`
	Lipsync          *MouthCueTrack   `json:"lipsync,omitempty"`
}

// ShapeSymbol is a Rhubarb mouth shape.
type ShapeSymbol string

const (
	ShapeRest ShapeSymbol = "X"
	ShapeA    ShapeSymbol = "A"
	ShapeB    ShapeSymbol = "B"
	ShapeC    ShapeSymbol = "C"
	ShapeD    ShapeSymbol = "D"
	ShapeE    ShapeSymbol = "E"
	ShapeF    ShapeSymbol = "F"
	ShapeG    ShapeSymbol = "G"
	ShapeH    ShapeSymbol = "H"
)

var SpeakingShapes = []ShapeSymbol{ShapeA, ShapeB, ShapeC, ShapeD, ShapeE, ShapeF, ShapeG, ShapeH}

func (s ShapeSymbol) Valid() bool {
	if s == ShapeRest {
		return true
	}
	for _, shape := range SpeakingShapes {
		if s == shape {
			return true
		}
	}
	return false
}

type MouthCue struct {
	Start float64     `json:"start"`
	End   float64     `json:"end"`
	Value ShapeSymbol `json:"value"`
}

type TrackMetadata struct {
	SoundFile string  `json:"soundFile,omitempty"`
	Duration  float64 `json:"duration"`
	Version   string  `json:"version,omitempty"`
}

type MouthCueTrack struct {
	Metadata  TrackMetadata `json:"metadata"`
	MouthCues []MouthCue    `json:"mouthCues"`
}

const cueTolerance = 1e-6

// Validate checks that cues are well formed and cover the track from 0 without
// gaps or overlaps.
func (t MouthCueTrack) Validate() error {
	if len(t.MouthCues) == 0 {
		return fmt.Errorf("%w: track has no mouth cues", ErrMalformedOutput)
	}
	prevEnd := 0.0
	for i, cue := range t.MouthCues {
		if math.IsNaN(cue.Start) || math.IsNaN(cue.End) || cue.Start < 0 {
			return fmt.Errorf("%w: cue %d has invalid bounds", ErrMalformedOutput, i)
		}
		if cue.Start >= cue.End {
			return fmt.Errorf("%w: cue %d starts at %.3f but ends at %.3f", ErrMalformedOutput, i, cue.Start, cue.End)
		}
		if cue.Start+cueTolerance < prevEnd {
			return fmt.Errorf("%w: cue %d overlaps the previous one", ErrMalformedOutput, i)
		}
		if cue.Start > prevEnd+cueTolerance {
			if i == 0 {
				return fmt.Errorf("%w: track starts at %.3f instead of 0", ErrMalformedOutput, cue.Start)
			}
			return fmt.Errorf("%w: gap of %.3fs before cue %d", ErrMalformedOutput, cue.Start-prevEnd, i)
		}
		if !cue.Value.Valid() {
			return fmt.Errorf("%w: cue %d has unknown shape %q", ErrMalformedOutput, i, cue.Value)
		}
		prevEnd = cue.End
	}
	return nil
}

type CapabilityStatus string

const (
	CapabilityFull  CapabilityStatus = "full"
	CapabilityBasic CapabilityStatus = "basic"
)

type LipSyncSource string

const (
	RhubarbLipSyncSource  LipSyncSource = "rhubarb"
	FallbackLipSyncSource LipSyncSource = "fallback"
)

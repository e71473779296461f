package imagegen

import "google.golang.org/genai"

// Stage is a state of the invocation ladder.
//
//	Init -> TryDefault -> TryWithConfig -> TryPlain -> Failed
//
// Any successful call moves to Done.
type Stage int

const (
	StageInit Stage = iota
	StageTryDefault
	StageTryWithConfig
	StageTryPlain
	StageDone
	StageFailed
)

// FallbackTemperature is the sampling temperature sent by StageTryWithConfig.
const FallbackTemperature float32 = 0.7

func (s Stage) String() string {
	switch s {
	case StageInit:
		return "init"
	case StageTryDefault:
		return "default"
	case StageTryWithConfig:
		return "with_config"
	case StageTryPlain:
		return "plain"
	case StageDone:
		return "done"
	case StageFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further calls are made from s.
func (s Stage) Terminal() bool {
	return s == StageDone || s == StageFailed
}

// next returns the stage that follows s when the call made in s fails.
func (s Stage) next() Stage {
	switch s {
	case StageInit:
		return StageTryDefault
	case StageTryDefault:
		return StageTryWithConfig
	case StageTryWithConfig:
		return StageTryPlain
	default:
		return StageFailed
	}
}

// config is the generation config sent by the call made in s.
func (s Stage) config() *genai.GenerateContentConfig {
	if s == StageTryWithConfig {
		return &genai.GenerateContentConfig{Temperature: genai.Ptr(FallbackTemperature)}
	}
	return nil
}

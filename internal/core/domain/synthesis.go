package domain

type SynthesisSource string

const (
	SourceSynthesized SynthesisSource = "synthesized"
	SourceFallback    SynthesisSource = "fallback"
)

// Synthesis wraps the output of an AI-backed function. Both paths carry
// usable data; Reason explains why the fallback path was taken.
type Synthesis[T any] struct {
	Data   T
	Source SynthesisSource
	Reason error
}

func NewSynthesized[T any](data T) Synthesis[T] {
	return Synthesis[T]{Data: data, Source: SourceSynthesized}
}

func NewFallback[T any](data T, reason error) Synthesis[T] {
	return Synthesis[T]{Data: data, Source: SourceFallback, Reason: reason}
}

func (s Synthesis[T]) IsFallback() bool {
	return s.Source == SourceFallback
}

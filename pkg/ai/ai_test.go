package ai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopSynth struct{}

func (nopSynth) Synthesize(context.Context, SynthesisRequest) (*SynthesisResult, error) {
	return &SynthesisResult{Success: true}, nil
}

func TestParseAlgorithm(t *testing.T) {
	for _, a := range Algorithms() {
		got, err := ParseAlgorithm(string(a))
		require.NoError(t, err)
		assert.Equal(t, a, got)
	}
	_, err := ParseAlgorithm("ultra")
	assert.Error(t, err)
	_, err = ParseAlgorithm("")
	assert.Error(t, err)
}

func TestRegistry(t *testing.T) {
	bindings := map[Algorithm]Synthesizer{AlgorithmBasic: nopSynth{}}
	r := NewRegistry(bindings)
	delete(bindings, AlgorithmBasic)

	_, ok := r.For(AlgorithmBasic)
	assert.True(t, ok)
	_, ok = r.For(AlgorithmPro)
	assert.False(t, ok)
}

package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerationStatus_Transitions(t *testing.T) {
	all := []GenerationStatus{
		GenerationStatusQueued,
		GenerationStatusProcessing,
		GenerationStatusCompleted,
		GenerationStatusFailed,
		GenerationStatusCancelled,
	}
	legal := map[[2]GenerationStatus]bool{
		{GenerationStatusQueued, GenerationStatusProcessing}:    true,
		{GenerationStatusQueued, GenerationStatusCancelled}:     true,
		{GenerationStatusProcessing, GenerationStatusCompleted}: true,
		{GenerationStatusProcessing, GenerationStatusFailed}:    true,
		{GenerationStatusProcessing, GenerationStatusCancelled}: true,
	}

	for _, from := range all {
		for _, to := range all {
			t.Run(string(from)+"->"+string(to), func(t *testing.T) {
				assert.Equal(t, legal[[2]GenerationStatus{from, to}], from.CanTransitionTo(to))
			})
		}
	}
}

func TestGenerationStatus_Terminal(t *testing.T) {
	tests := []struct {
		status   GenerationStatus
		terminal bool
	}{
		{GenerationStatusQueued, false},
		{GenerationStatusProcessing, false},
		{GenerationStatusCompleted, true},
		{GenerationStatusFailed, true},
		{GenerationStatusCancelled, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.terminal, tt.status.IsTerminal(), tt.status)
	}
	assert.False(t, GenerationStatus("paused").IsValid())
}

func TestSourcesOf(t *testing.T) {
	assert.ElementsMatch(t,
		[]GenerationStatus{GenerationStatusQueued, GenerationStatusProcessing},
		SourcesOf(GenerationStatusCancelled))
	assert.ElementsMatch(t, []GenerationStatus{GenerationStatusProcessing}, SourcesOf(GenerationStatusFailed))
	assert.Empty(t, SourcesOf(GenerationStatusQueued))
}

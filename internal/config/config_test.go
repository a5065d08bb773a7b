package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "3000", cfg.App.Port)
	assert.Equal(t, 10, cfg.Generation.WelcomeCredits)
	assert.True(t, cfg.Generation.RefundOnFailure)
	assert.False(t, cfg.Generation.RefundOnCancel)
	assert.Equal(t, 20*time.Second, cfg.Ai.AnalysisTimeout)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("GENERATION_WORKERS", "3")
	t.Setenv("REFUND_ON_CANCEL", "true")
	t.Setenv("ANALYSIS_TIMEOUT", "1500ms")
	t.Setenv("WELCOME_CREDITS", "not-a-number")

	cfg := Load()

	assert.Equal(t, 3, cfg.Generation.WorkerConcurrency)
	assert.True(t, cfg.Generation.RefundOnCancel)
	assert.Equal(t, 1500*time.Millisecond, cfg.Ai.AnalysisTimeout)
	assert.Equal(t, 10, cfg.Generation.WelcomeCredits)
}

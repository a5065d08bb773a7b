package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLogger_WritesModuleAndDetails(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	l := NewFromZap(zap.New(core))

	l.Info("Ledger", "debit applied", map[string]interface{}{"amount": 3})
	l.Warn("Hub", "subscriber dropped", nil)

	entries := recorded.All()
	require.Len(t, entries, 2)

	assert.Equal(t, "debit applied", entries[0].Message)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "Ledger", ctx["module"])
	assert.Equal(t, map[string]interface{}{"amount": 3}, ctx["details"])

	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, map[string]interface{}{}, entries[1].ContextMap()["details"])
}

func TestZapLogger_ErrorCarriesErrorRef(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	l := NewFromZap(zap.New(core))

	l.Error("Orchestrator", "stage failed", map[string]interface{}{"error": "boom"})

	entries := recorded.FilterField(zap.Any("error_ref", "boom")).All()
	assert.Len(t, entries, 1)
}

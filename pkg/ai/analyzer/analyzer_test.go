package analyzer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"ai-thumbnail-be/internal/pkg/logger"
	"ai-thumbnail-be/pkg/llm"

	"github.com/stretchr/testify/assert"
)

type stubProvider struct {
	answer string
	err    error
	delay  time.Duration
}

func (s *stubProvider) Chat(ctx context.Context, _ []llm.Message, _ ...llm.Option) (string, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return s.answer, s.err
}

func (s *stubProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return s.Chat(ctx, nil, opts...)
}

func TestHeuristic(t *testing.T) {
	tests := []struct {
		prompt   string
		category string
		style    string
	}{
		{"Epic gaming montage", "gaming", "modern"},
		{"Retro software review", "tech", "vintage"},
		{"A clean tutorial intro", "education", "minimalist"},
		{"Strong corporate keynote", "business", "bold"},
		{"My cat sleeping", "other", "modern"},
	}
	for _, tt := range tests {
		t.Run(tt.prompt, func(t *testing.T) {
			a := Heuristic(tt.prompt)
			assert.Equal(t, tt.category, a.Category)
			assert.Equal(t, tt.style, a.Style)
			assert.Equal(t, "professional", a.Mood)
			assert.Equal(t, "heuristic", a.Source)
			assert.Contains(t, a.Description, tt.prompt)
		})
	}
}

func TestHeuristic_TruncatesText(t *testing.T) {
	prompt := strings.Repeat("a", 120)
	a := Heuristic(prompt)
	assert.Len(t, a.TextContent, 50)
	assert.True(t, strings.HasSuffix(a.Description, strings.Repeat("a", 100)))
	assert.NotContains(t, a.Description, strings.Repeat("a", 101))
}

func TestLLMAnalyzer(t *testing.T) {
	log := logger.NewNopLogger()

	t.Run("parses fenced json and fills gaps", func(t *testing.T) {
		p := &stubProvider{answer: "```json\n{\"category\":\"tech\",\"style\":\"dark\",\"colors\":[\"black\"]}\n```"}
		a := NewLLMAnalyzer(p, time.Second, log).Analyze(context.Background(), "new phone unboxing", nil)
		assert.Equal(t, "tech", a.Category)
		assert.Equal(t, "dark", a.Style)
		assert.Equal(t, []string{"black"}, a.Colors)
		assert.Equal(t, "professional", a.Mood)
		assert.Equal(t, "llm", a.Source)
	})

	t.Run("provider error falls back to heuristic", func(t *testing.T) {
		p := &stubProvider{err: errors.New("connection refused")}
		a := NewLLMAnalyzer(p, time.Second, log).Analyze(context.Background(), "gaming highlights", nil)
		assert.Equal(t, "gaming", a.Category)
		assert.Equal(t, "heuristic", a.Source)
	})

	t.Run("timeout falls back to heuristic", func(t *testing.T) {
		p := &stubProvider{answer: `{"category":"tech"}`, delay: time.Second}
		start := time.Now()
		a := NewLLMAnalyzer(p, 30*time.Millisecond, log).Analyze(context.Background(), "gaming highlights", nil)
		assert.Less(t, time.Since(start), 500*time.Millisecond)
		assert.Equal(t, "heuristic", a.Source)
	})

	t.Run("free text answer is wrapped", func(t *testing.T) {
		p := &stubProvider{answer: "A bright beach scene with a surfer"}
		a := NewLLMAnalyzer(p, time.Second, log).Analyze(context.Background(), "surf vlog", nil)
		assert.Equal(t, "other", a.Category)
		assert.Equal(t, "A bright beach scene with a surfer", a.Description)
	})

	t.Run("no provider uses heuristic", func(t *testing.T) {
		a := NewLLMAnalyzer(nil, time.Second, log).Analyze(context.Background(), "learn go", nil)
		assert.Equal(t, "education", a.Category)
	})
}

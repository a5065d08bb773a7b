package synthesis

import (
	"context"
	"time"

	"ai-thumbnail-be/pkg/ai"
)

// MockSynthesizer renders a local placeholder after a simulated render time.
// It backs tiers whose upstream has no public API or no credentials configured.
type MockSynthesizer struct {
	Model    string
	Latency  time.Duration
	Metadata map[string]interface{}
}

var _ ai.Synthesizer = &MockSynthesizer{}

func NewStableDiffusionMock(latency time.Duration) *MockSynthesizer {
	return &MockSynthesizer{
		Model:   "stable-diffusion-xl",
		Latency: latency,
		Metadata: map[string]interface{}{
			"steps":          20,
			"guidance_scale": 7.5,
		},
	}
}

func NewMidjourneyMock(latency time.Duration) *MockSynthesizer {
	return &MockSynthesizer{
		Model:   "midjourney-v6",
		Latency: latency,
		Metadata: map[string]interface{}{
			"version": "6.0",
			"quality": "high",
			"stylize": 100,
		},
	}
}

func (m *MockSynthesizer) Synthesize(ctx context.Context, req ai.SynthesisRequest) (*ai.SynthesisResult, error) {
	start := time.Now()
	if m.Latency > 0 {
		select {
		case <-time.After(m.Latency):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	img, err := renderPlaceholder(req.Template.PrimaryColor, req.Prompt)
	if err != nil {
		return &ai.SynthesisResult{Success: false, Error: err.Error()}, nil
	}

	meta := map[string]interface{}{
		"model":           m.Model,
		"algorithm":       string(req.Algorithm),
		"processing_time": time.Since(start).Seconds(),
		"mock":            true,
	}
	for k, v := range m.Metadata {
		meta[k] = v
	}
	return &ai.SynthesisResult{
		Success:     true,
		Image:       img,
		ContentType: "image/jpeg",
		Metadata:    meta,
	}, nil
}

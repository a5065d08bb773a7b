package synthesis

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ai-thumbnail-be/pkg/ai"
)

// StableDiffusionSynthesizer talks to an AUTOMATIC1111-compatible txt2img endpoint.
type StableDiffusionSynthesizer struct {
	baseURL string
	client  *http.Client
}

var _ ai.Synthesizer = &StableDiffusionSynthesizer{}

func NewStableDiffusionSynthesizer(baseURL string, timeout time.Duration) *StableDiffusionSynthesizer {
	return &StableDiffusionSynthesizer{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type txt2imgRequest struct {
	Prompt         string  `json:"prompt"`
	NegativePrompt string  `json:"negative_prompt"`
	Steps          int     `json:"steps"`
	CfgScale       float64 `json:"cfg_scale"`
	Width          int     `json:"width"`
	Height         int     `json:"height"`
}

type txt2imgResponse struct {
	Images []string `json:"images"`
}

func (s *StableDiffusionSynthesizer) Synthesize(ctx context.Context, req ai.SynthesisRequest) (*ai.SynthesisResult, error) {
	start := time.Now()
	steps := intParam(req.Parameters, "steps", 20)
	guidance := floatParam(req.Parameters, "guidance_scale", 7.5)

	payload, err := json.Marshal(txt2imgRequest{
		Prompt:         thumbnailPrompt(req),
		NegativePrompt: "blurry, low quality, watermark, distorted text",
		Steps:          steps,
		CfgScale:       guidance,
		Width:          thumbWidth,
		Height:         thumbHeight,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/sdapi/v1/txt2img", bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("stable diffusion request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return &ai.SynthesisResult{
			Success: false,
			Error:   fmt.Sprintf("stable diffusion error: status %d", resp.StatusCode),
		}, nil
	}

	var out txt2imgResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if len(out.Images) == 0 {
		return &ai.SynthesisResult{Success: false, Error: "stable diffusion returned no images"}, nil
	}
	img, err := base64.StdEncoding.DecodeString(out.Images[0])
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	return &ai.SynthesisResult{
		Success:     true,
		Image:       img,
		ContentType: "image/png",
		Metadata: map[string]interface{}{
			"model":           "stable-diffusion-xl",
			"algorithm":       string(req.Algorithm),
			"steps":           steps,
			"guidance_scale":  guidance,
			"processing_time": time.Since(start).Seconds(),
		},
	}, nil
}

func intParam(params map[string]interface{}, key string, fallback int) int {
	switch v := params[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return fallback
	}
}

func floatParam(params map[string]interface{}, key string, fallback float64) float64 {
	switch v := params[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return fallback
	}
}

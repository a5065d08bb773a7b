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

// DalleSynthesizer generates images through the OpenAI images API.
type DalleSynthesizer struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

var _ ai.Synthesizer = &DalleSynthesizer{}

func NewDalleSynthesizer(apiKey, baseURL string, timeout time.Duration) *DalleSynthesizer {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &DalleSynthesizer{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type imagesRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	Size           string `json:"size"`
	Quality        string `json:"quality"`
	N              int    `json:"n"`
	ResponseFormat string `json:"response_format"`
}

type imagesResponse struct {
	Data []struct {
		B64JSON       string `json:"b64_json"`
		RevisedPrompt string `json:"revised_prompt"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (d *DalleSynthesizer) Synthesize(ctx context.Context, req ai.SynthesisRequest) (*ai.SynthesisResult, error) {
	start := time.Now()
	payload, err := json.Marshal(imagesRequest{
		Model:          "dall-e-3",
		Prompt:         thumbnailPrompt(req),
		Size:           "1792x1024", // closest to 16:9
		Quality:        "hd",
		N:              1,
		ResponseFormat: "b64_json",
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"/images/generations", bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+d.apiKey)

	resp, err := d.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("openai request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var out imagesResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("unmarshal response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := fmt.Sprintf("openai error: status %d", resp.StatusCode)
		if out.Error != nil {
			msg = msg + ": " + out.Error.Message
		}
		return &ai.SynthesisResult{Success: false, Error: msg}, nil
	}
	if len(out.Data) == 0 || out.Data[0].B64JSON == "" {
		return &ai.SynthesisResult{Success: false, Error: "openai returned no image"}, nil
	}

	img, err := base64.StdEncoding.DecodeString(out.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return &ai.SynthesisResult{
		Success:     true,
		Image:       img,
		ContentType: "image/png",
		Metadata: map[string]interface{}{
			"model":           "dall-e-3",
			"algorithm":       string(req.Algorithm),
			"size":            "1792x1024",
			"quality":         "hd",
			"revised_prompt":  out.Data[0].RevisedPrompt,
			"processing_time": time.Since(start).Seconds(),
		},
	}, nil
}

// Package analyzer turns a free-form prompt into a structured thumbnail brief.
package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"ai-thumbnail-be/internal/pkg/logger"
	"ai-thumbnail-be/pkg/ai"
	"ai-thumbnail-be/pkg/llm"
)

const analysisPrompt = `Analyze this thumbnail generation request and extract key information:

User Request: "%s"
%s
Respond with a single JSON object with the following structure:
{
  "category": "gaming|tech|lifestyle|education|entertainment|business|other",
  "style": "modern|vintage|minimalist|bold|colorful|dark|bright",
  "elements": ["text", "person", "product", "background", "effects"],
  "mood": "exciting|professional|fun|serious|energetic|calm",
  "colors": ["primary_color", "secondary_color"],
  "text_content": "main text to include",
  "description": "detailed description for image generation"
}`

// LLMAnalyzer asks an LLM for the brief and never lets a provider problem escape.
type LLMAnalyzer struct {
	provider llm.LLMProvider
	timeout  time.Duration
	logger   logger.ILogger
}

var _ ai.Analyzer = &LLMAnalyzer{}

func NewLLMAnalyzer(provider llm.LLMProvider, timeout time.Duration, log logger.ILogger) *LLMAnalyzer {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &LLMAnalyzer{provider: provider, timeout: timeout, logger: log}
}

func (a *LLMAnalyzer) Analyze(ctx context.Context, prompt string, references []string) ai.Analysis {
	if a.provider == nil {
		return Heuristic(prompt)
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	var refs string
	if len(references) > 0 {
		limit := references
		if len(limit) > 3 {
			limit = limit[:3]
		}
		refs = fmt.Sprintf("Reference images: %s\n", strings.Join(limit, ", "))
	}

	answer, err := a.provider.Chat(ctx, []llm.Message{
		{Role: "system", Content: "You are an expert thumbnail designer. Analyze requests and provide structured JSON responses."},
		{Role: "user", Content: fmt.Sprintf(analysisPrompt, prompt, refs)},
	}, llm.WithJSONResponse(), llm.WithTemperature(0.3), llm.WithMaxTokens(500))
	if err != nil {
		a.logger.Warn("Analyzer", "Provider failed, using keyword heuristic", map[string]interface{}{"error": err.Error()})
		return Heuristic(prompt)
	}

	analysis, ok := parseAnswer(answer)
	if !ok {
		a.logger.Warn("Analyzer", "Provider answer was not JSON", map[string]interface{}{"answer": truncate(answer, 200)})
		return fromText(answer)
	}
	return fillDefaults(analysis, prompt)
}

func parseAnswer(answer string) (ai.Analysis, bool) {
	raw := strings.TrimSpace(answer)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	if start, end := strings.Index(raw, "{"), strings.LastIndex(raw, "}"); start >= 0 && end > start {
		raw = raw[start : end+1]
	}

	var analysis ai.Analysis
	if err := json.Unmarshal([]byte(raw), &analysis); err != nil {
		return ai.Analysis{}, false
	}
	analysis.Source = "llm"
	return analysis, true
}

// fillDefaults completes a partial model answer with heuristic values.
func fillDefaults(a ai.Analysis, prompt string) ai.Analysis {
	h := Heuristic(prompt)
	if a.Category == "" {
		a.Category = h.Category
	}
	if a.Style == "" {
		a.Style = h.Style
	}
	if a.Mood == "" {
		a.Mood = h.Mood
	}
	if len(a.Elements) == 0 {
		a.Elements = h.Elements
	}
	if len(a.Colors) == 0 {
		a.Colors = h.Colors
	}
	if a.TextContent == "" {
		a.TextContent = h.TextContent
	}
	if a.Description == "" {
		a.Description = h.Description
	}
	return a
}

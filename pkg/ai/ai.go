// Package ai holds the capability contracts the generation pipeline talks to.
package ai

import (
	"context"
	"fmt"
)

// Algorithm is the closed set of synthesis tiers a generation may request.
type Algorithm string

const (
	AlgorithmBasic   Algorithm = "basic"
	AlgorithmPremium Algorithm = "premium"
	AlgorithmPro     Algorithm = "pro"
)

func Algorithms() []Algorithm {
	return []Algorithm{AlgorithmBasic, AlgorithmPremium, AlgorithmPro}
}

func ParseAlgorithm(s string) (Algorithm, error) {
	for _, a := range Algorithms() {
		if string(a) == s {
			return a, nil
		}
	}
	return "", fmt.Errorf("unknown algorithm %q", s)
}

type Analysis struct {
	Category    string   `json:"category"`
	Style       string   `json:"style"`
	Mood        string   `json:"mood"`
	Elements    []string `json:"elements"`
	Colors      []string `json:"colors"`
	TextContent string   `json:"text_content"`
	Description string   `json:"description"`
	// Source is "llm" or "heuristic".
	Source string `json:"source"`
}

func (a Analysis) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"category":     a.Category,
		"style":        a.Style,
		"mood":         a.Mood,
		"elements":     a.Elements,
		"colors":       a.Colors,
		"text_content": a.TextContent,
		"description":  a.Description,
		"source":       a.Source,
	}
}

// Template is the layout strategy handed to a synthesizer.
type Template struct {
	Name         string   `json:"name"`
	Category     string   `json:"category"`
	Style        string   `json:"style"`
	Mood         string   `json:"mood"`
	Elements     []string `json:"elements"`
	Colors       []string `json:"colors"`
	PrimaryColor string   `json:"primary_color"`
	MatchScore   float64  `json:"match_score"`
}

type SynthesisRequest struct {
	Prompt          string
	Analysis        Analysis
	Template        Template
	Algorithm       Algorithm
	ReferenceInputs []string
	Parameters      map[string]interface{}
}

// SynthesisResult reports failure through Success rather than an error so providers
// can attach diagnostics.
type SynthesisResult struct {
	Success     bool
	Image       []byte
	ContentType string
	Metadata    map[string]interface{}
	Error       string
}

// Analyzer never fails. Implementations fall back to a heuristic on any provider problem.
type Analyzer interface {
	Analyze(ctx context.Context, prompt string, references []string) Analysis
}

type Synthesizer interface {
	Synthesize(ctx context.Context, req SynthesisRequest) (*SynthesisResult, error)
}

// Registry binds every algorithm to its synthesizer at configuration time.
type Registry struct {
	bindings map[Algorithm]Synthesizer
}

func NewRegistry(bindings map[Algorithm]Synthesizer) *Registry {
	copied := make(map[Algorithm]Synthesizer, len(bindings))
	for k, v := range bindings {
		copied[k] = v
	}
	return &Registry{bindings: copied}
}

func (r *Registry) For(a Algorithm) (Synthesizer, bool) {
	s, ok := r.bindings[a]
	return s, ok
}

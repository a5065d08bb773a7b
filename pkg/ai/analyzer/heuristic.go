package analyzer

import (
	"context"
	"fmt"
	"strings"

	"ai-thumbnail-be/pkg/ai"
)

type keywordRule struct {
	value    string
	keywords []string
}

// First matching rule wins.
var categoryRules = []keywordRule{
	{"gaming", []string{"game", "gaming", "play"}},
	{"tech", []string{"tech", "technology", "software"}},
	{"education", []string{"learn", "education", "tutorial"}},
	{"business", []string{"business", "professional", "corporate"}},
}

var styleRules = []keywordRule{
	{"vintage", []string{"vintage", "retro", "old"}},
	{"minimalist", []string{"minimal", "simple", "clean"}},
	{"bold", []string{"bold", "strong", "powerful"}},
}

// HeuristicAnalyzer classifies a prompt by keyword lookup. It is the fallback for every
// provider failure and is used directly when no LLM is configured.
type HeuristicAnalyzer struct{}

var _ ai.Analyzer = HeuristicAnalyzer{}

func (HeuristicAnalyzer) Analyze(_ context.Context, prompt string, _ []string) ai.Analysis {
	return Heuristic(prompt)
}

func Heuristic(prompt string) ai.Analysis {
	lower := strings.ToLower(prompt)
	category := match(lower, categoryRules, "other")
	style := match(lower, styleRules, "modern")

	return ai.Analysis{
		Category:    category,
		Style:       style,
		Mood:        "professional",
		Elements:    []string{"text", "background"},
		Colors:      []string{"blue", "white"},
		TextContent: truncate(prompt, 50),
		Description: fmt.Sprintf("Create a %s %s thumbnail with the text: %s", style, category, truncate(prompt, 100)),
		Source:      "heuristic",
	}
}

// fromText builds an analysis around a free-form model answer that was not JSON.
func fromText(text string) ai.Analysis {
	return ai.Analysis{
		Category:    "other",
		Style:       "modern",
		Mood:        "professional",
		Elements:    []string{"text", "background"},
		Colors:      []string{"blue", "white"},
		TextContent: truncate(text, 50),
		Description: truncate(text, 200),
		Source:      "llm",
	}
}

func match(text string, rules []keywordRule, fallback string) string {
	for _, rule := range rules {
		for _, kw := range rule.keywords {
			if strings.Contains(text, kw) {
				return rule.value
			}
		}
	}
	return fallback
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

package synthesis

import (
	"fmt"
	"strings"

	"ai-thumbnail-be/pkg/ai"
)

func thumbnailPrompt(req ai.SynthesisRequest) string {
	style := req.Template.Style
	if style == "" {
		style = req.Analysis.Style
	}
	category := req.Template.Category
	if category == "" {
		category = req.Analysis.Category
	}

	var sb strings.Builder
	sb.WriteString("Create a professional YouTube thumbnail in 16:9 aspect ratio.\n")
	fmt.Fprintf(&sb, "Style: %s\nCategory: %s\nMood: %s\n", style, category, req.Analysis.Mood)
	if len(req.Analysis.Colors) > 0 {
		fmt.Fprintf(&sb, "Colors: %s\n", strings.Join(req.Analysis.Colors, ", "))
	}
	if req.Analysis.TextContent != "" {
		fmt.Fprintf(&sb, "Headline text: %q\n", req.Analysis.TextContent)
	}
	sb.WriteString(req.Prompt)
	if req.Analysis.Description != "" && req.Analysis.Description != req.Prompt {
		sb.WriteString("\n")
		sb.WriteString(req.Analysis.Description)
	}
	sb.WriteString("\nRequirements: high contrast, vibrant colors, clear readable text, eye-catching composition.")
	return sb.String()
}

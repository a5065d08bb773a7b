package service

import "ai-thumbnail-be/internal/entity"

// DefaultAlgorithms is the catalog shipped with a fresh database.
func DefaultAlgorithms() []*entity.Algorithm {
	return []*entity.Algorithm{
		{
			Id:          "basic",
			DisplayName: "Basic Generation",
			Description: "Fast and efficient thumbnail generation using Stable Diffusion. Perfect for quick results.",
			CostCredits: 1,
			IsActive:    true,
			Parameters: map[string]interface{}{
				"model":          "stable-diffusion-xl",
				"steps":          20,
				"guidance_scale": 7.5,
				"resolution":     "1280x720",
			},
		},
		{
			Id:          "premium",
			DisplayName: "Premium Generation",
			Description: "High-quality thumbnail generation using DALL-E 3. Superior quality and detail.",
			CostCredits: 3,
			IsActive:    true,
			Parameters: map[string]interface{}{
				"model":      "dall-e-3",
				"quality":    "hd",
				"resolution": "1792x1024",
			},
		},
		{
			Id:          "pro",
			DisplayName: "Pro Generation",
			Description: "Professional-grade thumbnail generation. Ultra-high quality results.",
			CostCredits: 5,
			IsActive:    true,
			Parameters: map[string]interface{}{
				"model":        "midjourney-v6",
				"quality":      "ultra",
				"aspect_ratio": "16:9",
			},
		},
	}
}

func DefaultTemplates() []*entity.Template {
	return []*entity.Template{
		SeedTemplate("Epic Gaming Action", "gaming", "bold", "exciting", "#FF0000", 4.7, "text", "background", "effects"),
		SeedTemplate("Retro Gaming Nostalgia", "gaming", "vintage", "fun", "#8B4513", 4.3, "text", "background", "effects"),
		SeedTemplate("Modern Tech Innovation", "tech", "modern", "professional", "#0066FF", 4.6, "text", "background", "product"),
		SeedTemplate("Minimalist Tech Review", "tech", "minimalist", "calm", "#FFFFFF", 4.4, "text", "background", "product"),
		SeedTemplate("Educational Tutorial", "education", "modern", "professional", "#4CAF50", 4.5, "text", "background", "person"),
		SeedTemplate("Fun Learning", "education", "colorful", "fun", "#FF5722", 4.2, "text", "background", "effects"),
		SeedTemplate("Corporate Professional", "business", "modern", "professional", "#1A237E", 4.4, "text", "background", "person"),
		SeedTemplate("Lifestyle Vlog", "lifestyle", "bright", "energetic", "#FF6F61", 4.1, "text", "background", "person"),
		SeedTemplate("Entertainment Hype", "entertainment", "bold", "exciting", "#FF00FF", 4.5, "text", "background", "effects"),
		SeedTemplate("Dark Mode Entertainment", "entertainment", "dark", "serious", "#000000", 4.0, "text", "background", "effects"),
	}
}

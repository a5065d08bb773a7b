package factory

import (
	"testing"

	"ai-thumbnail-be/pkg/llm/gemini"
	"ai-thumbnail-be/pkg/llm/ollama"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLLMProvider(t *testing.T) {
	p, err := NewLLMProvider(ProviderConfig{Provider: "ollama", Model: "llama3"})
	require.NoError(t, err)
	o, ok := p.(*ollama.OllamaProvider)
	require.True(t, ok)
	assert.Equal(t, "http://localhost:11434", o.BaseURL)

	p, err = NewLLMProvider(ProviderConfig{Provider: "gemini", Model: "gemini-1.5-flash", APIKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &gemini.GeminiProvider{}, p)

	_, err = NewLLMProvider(ProviderConfig{Provider: "gemini"})
	assert.Error(t, err)

	p, err = NewLLMProvider(ProviderConfig{Provider: "none"})
	require.NoError(t, err)
	assert.Nil(t, p)

	_, err = NewLLMProvider(ProviderConfig{Provider: "bard"})
	assert.Error(t, err)
}

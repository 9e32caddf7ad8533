package generation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectModel(t *testing.T) {
	tests := []struct {
		name         string
		task         string
		wantProvider string
		wantModel    string
	}{
		{"ui task", "generate the ui for a dashboard", "google", "gemini-2.5-pro"},
		{"interface keyword", "build an admin interface", "google", "gemini-2.5-pro"},
		{"copy task", "write marketing copy for the landing page", "anthropic", "claude-sonnet-4-5"},
		{"email task", "compose a weekly email digest", "anthropic", "claude-sonnet-4-5"},
		{"vision task", "transcribe an audio note", "google", "gemini-2.0-flash"},
		{"image task", "describe the uploaded image", "google", "gemini-2.0-flash"},
		{"analysis task", "produce a data report", "openai", "o3-mini"},
		{"default task", "scaffold project configuration files", "anthropic", "claude-sonnet-4-5"},
		{"case insensitive", "Generate The UI", "google", "gemini-2.5-pro"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			choice := SelectModel(tt.task)
			assert.Equal(t, tt.wantProvider, choice.Provider)
			assert.Equal(t, tt.wantModel, choice.Model)
			assert.NotEmpty(t, choice.Reason)
		})
	}
}

func TestSelectModelPrecedence(t *testing.T) {
	// "ui report" matches both the UI group and the analysis group; the UI
	// rule is tested first and wins
	choice := SelectModel("a ui report generator")
	assert.Equal(t, "gemini-2.5-pro", choice.Model)
}

func TestSelectModelIsPure(t *testing.T) {
	first := SelectModel("write a summary email")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, SelectModel("write a summary email"))
	}
}

func TestSelectModelFallbackIsAdvisory(t *testing.T) {
	choice := SelectModel("write a product summary")
	require.NotNil(t, choice.Fallback)
	assert.Equal(t, "openai", choice.Fallback.Provider)
	assert.Equal(t, "gpt-4o-mini", choice.Fallback.Model)
	assert.Nil(t, choice.Fallback.Fallback)

	// Non-copy rules carry no fallback
	assert.Nil(t, SelectModel("render the dashboard ui").Fallback)
	assert.Nil(t, SelectModel("analyze the data").Fallback)
}

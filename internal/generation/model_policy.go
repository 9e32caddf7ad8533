package generation

import (
	"strings"

	"github.com/appfoundry/app-builder/generation-orchestrator/internal/llm"
	"github.com/appfoundry/app-builder/generation-orchestrator/internal/models"
)

// Keyword groups tested against the task description, in precedence order.
// The first group with a hit decides the model; a description matching both
// "ui" and "report" resolves via the UI rule.
var (
	uiKeywords       = []string{"ui", "interface", "dashboard"}
	copyKeywords     = []string{"copy", "email", "summary"}
	visionKeywords   = []string{"vision", "image", "audio", "transcribe"}
	analysisKeywords = []string{"analysis", "report", "data"}
)

// SelectModel maps a free-text task description to an LLM provider/model
// choice. Pure function: identical input always yields an identical choice.
// The Fallback field is advisory; no caller retries with it automatically.
func SelectModel(task string) models.LLMChoice {
	lower := strings.ToLower(task)

	switch {
	case containsAny(lower, uiKeywords):
		return models.LLMChoice{
			Provider: llm.ProviderGoogle,
			Model:    "gemini-2.5-pro",
			Reason:   "vision-capable model for front-end generation",
		}
	case containsAny(lower, copyKeywords):
		return longFormChoice()
	case containsAny(lower, visionKeywords):
		return models.LLMChoice{
			Provider: llm.ProviderGoogle,
			Model:    "gemini-2.0-flash",
			Reason:   "multimodal model for vision and audio tasks",
		}
	case containsAny(lower, analysisKeywords):
		return models.LLMChoice{
			Provider: llm.ProviderOpenAI,
			Model:    "o3-mini",
			Reason:   "reasoning-oriented model for analysis",
		}
	default:
		return longFormChoice()
	}
}

// longFormChoice is shared by the copy rule and the default rule
func longFormChoice() models.LLMChoice {
	return models.LLMChoice{
		Provider: llm.ProviderAnthropic,
		Model:    "claude-sonnet-4-5",
		Reason:   "long-form generalist for text generation",
		Fallback: &models.LLMChoice{
			Provider: llm.ProviderOpenAI,
			Model:    "gpt-4o-mini",
			Reason:   "cheaper fallback for long-form text",
		},
	}
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/appfoundry/app-builder/generation-orchestrator/internal/models"
)

// Provider tags understood by the gateway
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGoogle    = "google"
)

// GatewayInterface defines the LLM gateway contract consumed by the core.
// Call fails uniformly for unconfigured providers and remote errors;
// GenerateUI soft-fails to an empty file list on malformed output.
type GatewayInterface interface {
	Call(ctx context.Context, systemPrompt, userPrompt string, choice models.LLMChoice) (string, error)
	GenerateUI(ctx context.Context, model, prompt string) ([]models.GeneratedFile, error)
	IsConfigured(provider string) bool
}

// Gateway handles communication with LLM provider APIs
type Gateway struct {
	baseURLs   map[string]string
	apiKeys    map[string]string
	httpClient *http.Client
	tracer     trace.Tracer
	breaker    *gobreaker.CircuitBreaker
}

// NewGateway creates a new LLM gateway reading provider credentials from
// environment variables. A provider with no credential stays unconfigured;
// calls routed to it fail before any network I/O.
func NewGateway() *Gateway {
	settings := gobreaker.Settings{
		Name:        "llm-gateway",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Printf("Circuit breaker %s changed from %s to %s", name, from, to)
		},
	}

	return &Gateway{
		baseURLs: map[string]string{
			ProviderOpenAI:    envOrDefault("OPENAI_BASE_URL", "https://api.openai.com"),
			ProviderAnthropic: envOrDefault("ANTHROPIC_BASE_URL", "https://api.anthropic.com"),
			ProviderGoogle:    envOrDefault("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
		},
		apiKeys: map[string]string{
			ProviderOpenAI:    os.Getenv("OPENAI_API_KEY"),
			ProviderAnthropic: os.Getenv("ANTHROPIC_API_KEY"),
			ProviderGoogle:    os.Getenv("GEMINI_API_KEY"),
		},
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		tracer:  otel.Tracer("llm-gateway"),
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// SetBaseURL overrides a provider base URL for testing purposes
func (g *Gateway) SetBaseURL(provider, baseURL string) {
	g.baseURLs[provider] = baseURL
}

// SetAPIKey overrides a provider credential for testing purposes
func (g *Gateway) SetAPIKey(provider, key string) {
	g.apiKeys[provider] = key
}

// IsConfigured reports whether a provider has a credential
func (g *Gateway) IsConfigured(provider string) bool {
	return g.apiKeys[provider] != ""
}

// Call sends a prompt to the chosen provider/model and returns the generated
// text. Configuration errors and remote failures surface identically as a
// non-nil error; the caller's phase-failure policy treats them the same.
func (g *Gateway) Call(ctx context.Context, systemPrompt, userPrompt string, choice models.LLMChoice) (string, error) {
	ctx, span := g.tracer.Start(ctx, "llm.call")
	defer span.End()

	span.SetAttributes(
		attribute.String("llm.provider", choice.Provider),
		attribute.String("llm.model", choice.Model),
	)

	if !g.IsConfigured(choice.Provider) {
		err := fmt.Errorf("provider %s is not configured: missing API credential", choice.Provider)
		span.RecordError(err)
		return "", err
	}

	result, err := g.breaker.Execute(func() (interface{}, error) {
		return g.callProvider(ctx, systemPrompt, userPrompt, choice)
	})

	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("llm call failed: %w", err)
	}

	text := result.(string)
	span.SetAttributes(attribute.Int("llm.response_length", len(text)))

	return text, nil
}

// callProvider performs the actual HTTP request for one provider
func (g *Gateway) callProvider(ctx context.Context, systemPrompt, userPrompt string, choice models.LLMChoice) (string, error) {
	var (
		url     string
		body    interface{}
		headers = map[string]string{"Content-Type": "application/json"}
	)

	switch choice.Provider {
	case ProviderAnthropic:
		url = g.baseURLs[ProviderAnthropic] + "/v1/messages"
		headers["x-api-key"] = g.apiKeys[ProviderAnthropic]
		headers["anthropic-version"] = "2023-06-01"
		body = map[string]interface{}{
			"model":      choice.Model,
			"max_tokens": 8192,
			"system":     systemPrompt,
			"messages": []map[string]string{
				{"role": "user", "content": userPrompt},
			},
		}
	case ProviderGoogle:
		url = fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
			g.baseURLs[ProviderGoogle], choice.Model, g.apiKeys[ProviderGoogle])
		body = map[string]interface{}{
			"system_instruction": map[string]interface{}{
				"parts": []map[string]string{{"text": systemPrompt}},
			},
			"contents": []map[string]interface{}{
				{"parts": []map[string]string{{"text": userPrompt}}},
			},
		}
	default: // OpenAI-compatible
		url = g.baseURLs[ProviderOpenAI] + "/v1/chat/completions"
		headers["Authorization"] = "Bearer " + g.apiKeys[ProviderOpenAI]
		body = map[string]interface{}{
			"model": choice.Model,
			"messages": []map[string]string{
				{"role": "system", "content": systemPrompt},
				{"role": "user", "content": userPrompt},
			},
		}
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return "", fmt.Errorf("%s returned status %d (failed to read body: %w)", choice.Provider, resp.StatusCode, readErr)
		}
		return "", fmt.Errorf("%s returned status %d: %s", choice.Provider, resp.StatusCode, string(bodyBytes))
	}

	return extractText(choice.Provider, resp.Body)
}

// extractText pulls the generated text out of a provider response body
func extractText(provider string, body io.Reader) (string, error) {
	var raw map[string]interface{}
	if err := json.NewDecoder(body).Decode(&raw); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	switch provider {
	case ProviderAnthropic:
		if content, ok := raw["content"].([]interface{}); ok && len(content) > 0 {
			if block, ok := content[0].(map[string]interface{}); ok {
				if text, ok := block["text"].(string); ok {
					return text, nil
				}
			}
		}
	case ProviderGoogle:
		if candidates, ok := raw["candidates"].([]interface{}); ok && len(candidates) > 0 {
			if cand, ok := candidates[0].(map[string]interface{}); ok {
				if content, ok := cand["content"].(map[string]interface{}); ok {
					if parts, ok := content["parts"].([]interface{}); ok && len(parts) > 0 {
						if part, ok := parts[0].(map[string]interface{}); ok {
							if text, ok := part["text"].(string); ok {
								return text, nil
							}
						}
					}
				}
			}
		}
	default:
		if choices, ok := raw["choices"].([]interface{}); ok && len(choices) > 0 {
			if choice, ok := choices[0].(map[string]interface{}); ok {
				if message, ok := choice["message"].(map[string]interface{}); ok {
					if text, ok := message["content"].(string); ok {
						return text, nil
					}
				}
			}
		}
	}

	return "", fmt.Errorf("unexpected %s response shape", provider)
}

// uiSystemPrompt instructs the model to emit a strict JSON file list
const uiSystemPrompt = `You are a senior front-end engineer. Respond with ONLY a JSON object of the form {"files":[{"path":"...","content":"..."}]} containing complete, production-ready source files. No markdown fences, no prose.`

// uiResponse is the structured shape expected from UI generation calls
type uiResponse struct {
	Files []struct {
		Path    string `json:"path"`
		Content string `json:"content"`
	} `json:"files"`
}

// GenerateUI invokes the structured UI-generation entry point. The provider
// is inferred from the model name. Malformed output yields an empty file
// list, not an error; callers must handle the empty case.
func (g *Gateway) GenerateUI(ctx context.Context, model, prompt string) ([]models.GeneratedFile, error) {
	ctx, span := g.tracer.Start(ctx, "llm.generate_ui")
	defer span.End()

	span.SetAttributes(attribute.String("llm.model", model))

	choice := models.LLMChoice{
		Provider: InferProvider(model),
		Model:    model,
		Reason:   "ui_generation",
	}

	raw, err := g.Call(ctx, uiSystemPrompt, prompt, choice)
	if err != nil {
		return nil, err
	}

	var parsed uiResponse
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), &parsed); err != nil {
		// Documented soft-fail: malformed structured output degrades to an
		// empty list instead of an error
		log.Printf(`{"level":"warn","message":"UI generation returned unparseable output","model":"%s","error":"%v"}`, model, err)
		span.SetAttributes(attribute.Bool("llm.ui_parse_failed", true))
		return []models.GeneratedFile{}, nil
	}

	files := make([]models.GeneratedFile, 0, len(parsed.Files))
	for _, f := range parsed.Files {
		files = append(files, models.GeneratedFile{
			Path:    f.Path,
			Content: f.Content,
			Phase:   models.PhaseStyling,
		})
	}

	span.SetAttributes(attribute.Int("llm.ui_file_count", len(files)))
	return files, nil
}

// InferProvider maps a model name to a provider tag by substring match,
// defaulting to the UI provider for unrecognized names.
func InferProvider(model string) string {
	lower := strings.ToLower(model)
	switch {
	case strings.Contains(lower, "gemini"):
		return ProviderGoogle
	case strings.Contains(lower, "claude"):
		return ProviderAnthropic
	case strings.Contains(lower, "gpt"), strings.Contains(lower, "o3"):
		return ProviderOpenAI
	default:
		return ProviderGoogle
	}
}

// stripCodeFences removes a surrounding markdown code fence if a model
// ignored the no-fences instruction
func stripCodeFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

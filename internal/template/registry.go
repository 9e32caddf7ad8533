// Package template holds the static template catalog, the matcher that
// scores catalog entries against a requirements payload, and the customizer
// that turns a matched template into a complete file set.
package template

import (
	"fmt"

	"github.com/appfoundry/app-builder/generation-orchestrator/internal/models"
)

// ErrTemplateNotFound is returned when a requested definition is not in the
// catalog. This is a hard error: customization cannot proceed without its
// definition.
var ErrTemplateNotFound = fmt.Errorf("template not found")

// Registry is the immutable, preloaded template catalog
type Registry struct {
	templates []models.TemplateDefinition
	byName    map[string]int
}

// NewRegistry loads the built-in catalog
func NewRegistry() *Registry {
	r := &Registry{byName: make(map[string]int)}
	for _, def := range builtinTemplates {
		r.byName[def.Name] = len(r.templates)
		r.templates = append(r.templates, def)
	}
	return r
}

// Get returns one definition by name
func (r *Registry) Get(name string) (models.TemplateDefinition, error) {
	idx, ok := r.byName[name]
	if !ok {
		return models.TemplateDefinition{}, fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
	}
	return r.templates[idx], nil
}

// List returns all definitions in registry order
func (r *Registry) List() []models.TemplateDefinition {
	out := make([]models.TemplateDefinition, len(r.templates))
	copy(out, r.templates)
	return out
}

// builtinTemplates is the static catalog. Order matters: matcher ties are
// broken by registry order.
var builtinTemplates = []models.TemplateDefinition{
	{
		Name:       "journal-app",
		Category:   "personal_records",
		Framework:  "react",
		Complexity: "simple",
		Capabilities: map[string]bool{
			"file_upload": true,
			"text_input":  true,
			"list_view":   true,
			"export":      true,
		},
		Integrations: []models.APIIntegration{},
		Variables: map[string]string{
			"app_title":     "Journal - {{jtbd}}",
			"primary_color": "{{style.palette}}",
		},
		UIPrompt: `Design a journal entry UI for: {{jtbd}}. Theme {{style.theme}}, font {{style.font}}, vibe {{style.vibe}}. Inputs: {{input_sources}}. Outputs: {{output_types}}.`,
		FunctionalityPrompt: `Implement journal CRUD and search for: {{jtbd}}. Inputs: {{input_sources}}. Outputs: {{output_types}}. External APIs: {{required_apis}}.`,
		Dependencies: map[string]string{
			"react":     "^18.3.1",
			"react-dom": "^18.3.1",
		},
		Deployment: models.DeploymentMeta{
			WorkerType:   "static",
			RoutingStyle: "spa",
			DatabaseKind: "kv",
			AssetKind:    "bundled",
		},
	},
	{
		Name:       "idea-board",
		Category:   "capture",
		Framework:  "react",
		Complexity: "simple",
		Capabilities: map[string]bool{
			"text_input":  true,
			"voice_input": true,
			"list_view":   true,
		},
		Integrations: []models.APIIntegration{
			{Type: "transcription", Providers: []string{"openai"}},
		},
		Variables: map[string]string{
			"app_title":     "Ideas - {{jtbd}}",
			"primary_color": "{{style.palette}}",
		},
		UIPrompt: `Design a quick-capture idea board UI for: {{jtbd}}. Theme {{style.theme}}, vibe {{style.vibe}}. Inputs: {{input_sources}}.`,
		FunctionalityPrompt: `Implement idea capture, tagging and voice transcription for: {{jtbd}}. External APIs: {{required_apis}}.`,
		Dependencies: map[string]string{
			"react":     "^18.3.1",
			"react-dom": "^18.3.1",
		},
		Deployment: models.DeploymentMeta{
			WorkerType:   "static",
			RoutingStyle: "spa",
			DatabaseKind: "kv",
			AssetKind:    "bundled",
		},
	},
	{
		Name:       "kpi-dashboard",
		Category:   "analytics",
		Framework:  "react",
		Complexity: "medium",
		Capabilities: map[string]bool{
			"dashboard":     true,
			"visualization": true,
			"file_upload":   true,
			"export":        true,
		},
		Integrations: []models.APIIntegration{
			{Type: "llm", Providers: []string{"openai", "anthropic"}},
		},
		Variables: map[string]string{
			"app_title":     "Dashboard - {{jtbd}}",
			"primary_color": "{{style.palette}}",
		},
		UIPrompt: `Design a KPI dashboard UI for: {{jtbd}}. Theme {{style.theme}}, palette {{style.palette}}, motion {{style.motion}}. Outputs: {{output_types}}.`,
		FunctionalityPrompt: `Implement metric aggregation, chart data shaping and CSV export for: {{jtbd}}. External APIs: {{required_apis}}.`,
		Dependencies: map[string]string{
			"react":     "^18.3.1",
			"react-dom": "^18.3.1",
			"recharts":  "^2.12.7",
		},
		Deployment: models.DeploymentMeta{
			WorkerType:   "edge",
			RoutingStyle: "spa",
			DatabaseKind: "sql",
			AssetKind:    "bundled",
		},
	},
	{
		Name:       "workflow-manager",
		Category:   "workflow_management",
		Framework:  "react",
		Complexity: "medium",
		Capabilities: map[string]bool{
			"workflow_management": true,
			"text_input":          true,
			"list_view":           true,
			"webhook":             true,
			"email_send":          true,
		},
		Integrations: []models.APIIntegration{
			{Type: "email", Providers: []string{"resend"}},
			{Type: "llm", Providers: []string{"anthropic"}},
		},
		Variables: map[string]string{
			"app_title":     "Tracker - {{jtbd}}",
			"primary_color": "{{style.palette}}",
		},
		UIPrompt: `Design a task/workflow tracking UI for: {{jtbd}}. Theme {{style.theme}}, vibe {{style.vibe}}. Inputs: {{input_sources}}. Outputs: {{output_types}}.`,
		FunctionalityPrompt: `Implement workflow state transitions, reminders and webhook notifications for: {{jtbd}}. External APIs: {{required_apis}}.`,
		Dependencies: map[string]string{
			"react":     "^18.3.1",
			"react-dom": "^18.3.1",
		},
		Deployment: models.DeploymentMeta{
			WorkerType:   "edge",
			RoutingStyle: "spa",
			DatabaseKind: "sql",
			AssetKind:    "bundled",
		},
	},
	{
		Name:       "email-digest",
		Category:   "communication",
		Framework:  "react",
		Complexity: "complex",
		Capabilities: map[string]bool{
			"email_ingest": true,
			"email_send":   true,
			"export":       true,
			"dashboard":    true,
		},
		Integrations: []models.APIIntegration{
			{Type: "email", Providers: []string{"resend"}},
			{Type: "llm", Providers: []string{"openai", "anthropic", "gemini"}},
		},
		Variables: map[string]string{
			"app_title":     "Digest - {{jtbd}}",
			"primary_color": "{{style.palette}}",
		},
		UIPrompt: `Design an email digest composer UI for: {{jtbd}}. Theme {{style.theme}}, font {{style.font}}. Outputs: {{output_types}}.`,
		FunctionalityPrompt: `Implement inbound mail parsing, LLM summarization and scheduled digest sending for: {{jtbd}}. External APIs: {{required_apis}}.`,
		Dependencies: map[string]string{
			"react":     "^18.3.1",
			"react-dom": "^18.3.1",
		},
		Deployment: models.DeploymentMeta{
			WorkerType:   "scheduled",
			RoutingStyle: "spa",
			DatabaseKind: "sql",
			AssetKind:    "bundled",
		},
	},
}

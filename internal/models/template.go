package models

// APIIntegration declares an external API a template knows how to talk to
type APIIntegration struct {
	Type      string   `json:"type"`
	Providers []string `json:"providers"`
}

// DeploymentMeta is deployment metadata copied verbatim from a template
// definition into every customized app
type DeploymentMeta struct {
	WorkerType   string `json:"worker_type"`
	RoutingStyle string `json:"routing_style"`
	DatabaseKind string `json:"database_kind"`
	AssetKind    string `json:"asset_kind"`
}

// TemplateDefinition is one entry in the static template catalog. Loaded once
// at startup, never mutated.
type TemplateDefinition struct {
	Name                string            `json:"name"`
	Category            string            `json:"category"`
	Framework           string            `json:"framework"`
	Complexity          string            `json:"complexity"` // "simple", "medium", "complex"
	Capabilities        map[string]bool   `json:"capabilities"`
	Integrations        []APIIntegration  `json:"integrations"`
	Variables           map[string]string `json:"variables"` // name -> value template with placeholders
	UIPrompt            string            `json:"ui_prompt"`
	FunctionalityPrompt string            `json:"functionality_prompt"`
	Dependencies        map[string]string `json:"dependencies"`
	Deployment          DeploymentMeta    `json:"deployment"`
}

// TemplateMatch scores one template against a requirements payload
type TemplateMatch struct {
	TemplateName string   `json:"template_name"`
	Confidence   float64  `json:"confidence"`
	Reasoning    string   `json:"reasoning"`
	MatchedCaps  []string `json:"matched_capabilities"`
}

// SelectionResult is the matcher's reuse-vs-generate decision. When
// FallbackGeneration is true SelectedTemplate is empty and Alternatives holds
// the best (still insufficient) candidates for diagnostics.
type SelectionResult struct {
	SelectedTemplate   string          `json:"selected_template,omitempty"`
	Confidence         float64         `json:"confidence"`
	Reasoning          string          `json:"reasoning"`
	FallbackGeneration bool            `json:"fallback_generation"`
	Alternatives       []TemplateMatch `json:"alternatives,omitempty"`
}

// CustomizedApp is the template customizer's output: a complete synthetic
// file set plus deployment metadata and provenance.
type CustomizedApp struct {
	Files      map[string]string `json:"files"`
	Deployment DeploymentMeta    `json:"deployment"`
	Metadata   CustomizationMeta `json:"metadata"`
}

// CustomizationMeta records where a customized app came from
type CustomizationMeta struct {
	SourceTemplate string           `json:"source_template"`
	Customized     bool             `json:"customized"`
	Requirements   UserRequirements `json:"requirements"`
	GeneratedAt    string           `json:"generated_at"`
}

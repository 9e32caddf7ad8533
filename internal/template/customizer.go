package template

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/appfoundry/app-builder/generation-orchestrator/internal/llm"
	"github.com/appfoundry/app-builder/generation-orchestrator/internal/models"
)

// Placeholder bodies substituted when a customization LLM call fails
// entirely. Visible in the generated source so the degradation is obvious.
const (
	uiPlaceholder            = "/* UI customization unavailable, template default shell in use */\nexport default function App() {\n  return <div id=\"app-shell\" />;\n}\n"
	functionalityPlaceholder = "/* Functionality customization unavailable, template defaults in use */\nexport {};\n"
)

// Default models for the two customization calls when the requirements carry
// no explicit selection
const (
	defaultUIModel            = "gemini-2.5-pro"
	defaultFunctionalityModel = "claude-sonnet-4-5"
)

// sdkDependencies is the allow-list of pinned SDK packages added to a
// customized app's dependency patch when the matching API tag is requested.
// Unknown tags add nothing.
var sdkDependencies = map[string]struct {
	pkg     string
	version string
}{
	"openai":    {pkg: "openai", version: "^4.52.0"},
	"anthropic": {pkg: "@anthropic-ai/sdk", version: "^0.27.0"},
	"gemini":    {pkg: "@google/generative-ai", version: "^0.15.0"},
	"stripe":    {pkg: "stripe", version: "^16.2.0"},
}

var stylePropRe = regexp.MustCompile(`\{\{style\.([a-z_]+)\}\}`)

// Customizer applies variable substitution and the template's customization
// prompts to a matched template, producing a complete file set.
type Customizer struct {
	registry *Registry
	gateway  llm.GatewayInterface
}

// NewCustomizer creates a customizer over the given registry and LLM gateway
func NewCustomizer(registry *Registry, gateway llm.GatewayInterface) *Customizer {
	return &Customizer{registry: registry, gateway: gateway}
}

// Customize produces a complete synthetic file set from a matched template.
// A missing template definition is a hard error; LLM failures inside the
// customization degrade to visible placeholders instead.
func (c *Customizer) Customize(ctx context.Context, name string, req models.UserRequirements) (*models.CustomizedApp, error) {
	def, err := c.registry.Get(name)
	if err != nil {
		return nil, err
	}

	vars := make(map[string]string, len(def.Variables))
	for key, tmpl := range def.Variables {
		vars[key] = substituteVariables(tmpl, req)
	}

	uiSource := c.customizeUI(ctx, def, req)
	functionalitySource := c.customizeFunctionality(ctx, def, req)

	dependencies := mergeDependencyPatch(def.Dependencies, req.RequiredAPIs)

	files, err := assembleFiles(def, req, vars, uiSource, functionalitySource, dependencies)
	if err != nil {
		return nil, fmt.Errorf("failed to assemble customized app: %w", err)
	}

	return &models.CustomizedApp{
		Files:      files,
		Deployment: def.Deployment,
		Metadata: models.CustomizationMeta{
			SourceTemplate: def.Name,
			Customized:     true,
			Requirements:   req,
			GeneratedAt:    time.Now().UTC().Format(time.RFC3339),
		},
	}, nil
}

// customizeUI renders the template's UI prompt and calls the structured
// UI-generation entry point, taking the first returned file's content.
func (c *Customizer) customizeUI(ctx context.Context, def models.TemplateDefinition, req models.UserRequirements) string {
	prompt := renderPrompt(def.UIPrompt, req)

	model := req.ModelSelection["ui"]
	if model == "" {
		model = defaultUIModel
	}

	files, err := c.gateway.GenerateUI(ctx, model, prompt)
	if err != nil || len(files) == 0 {
		log.Printf(`{"level":"warn","message":"UI customization failed, using placeholder","template":"%s","error":"%v"}`, def.Name, err)
		return uiPlaceholder
	}
	return files[0].Content
}

// customizeFunctionality renders the functionality prompt and invokes the
// general LLM call with the user's explicit model selection when present.
func (c *Customizer) customizeFunctionality(ctx context.Context, def models.TemplateDefinition, req models.UserRequirements) string {
	prompt := renderPrompt(def.FunctionalityPrompt, req)

	model := req.ModelSelection["functionality"]
	if model == "" {
		model = defaultFunctionalityModel
	}

	choice := models.LLMChoice{
		Provider: llm.InferProvider(model),
		Model:    model,
		Reason:   "user_selected_model",
	}

	raw, err := c.gateway.Call(ctx, "You are customizing an application template. Respond with complete TypeScript source only.", prompt, choice)
	if err != nil {
		log.Printf(`{"level":"warn","message":"Functionality customization failed, using placeholder","template":"%s","error":"%v"}`, def.Name, err)
		return functionalityPlaceholder
	}
	return raw
}

// substituteVariables replaces the two fixed placeholder patterns: the
// job-description token and dotted visual-style-property tokens. Array-valued
// style properties are joined with ", ".
func substituteVariables(s string, req models.UserRequirements) string {
	out := strings.ReplaceAll(s, "{{jtbd}}", req.JTBD)
	out = stylePropRe.ReplaceAllStringFunc(out, func(match string) string {
		prop := stylePropRe.FindStringSubmatch(match)[1]
		return styleProperty(req.VisualStyle, prop)
	})
	return out
}

func styleProperty(style models.VisualStyle, prop string) string {
	switch prop {
	case "theme":
		return style.Theme
	case "palette":
		return strings.Join(style.Palette, ", ")
	case "font":
		return style.Font
	case "vibe":
		return style.Vibe
	case "motion":
		return style.Motion
	case "favorite_app":
		return style.FavoriteApp
	case "screenshots":
		return strings.Join(style.Screenshots, ", ")
	default:
		return ""
	}
}

// renderPrompt applies variable substitution plus the phase-specific list
// placeholders used by customization prompts
func renderPrompt(tmpl string, req models.UserRequirements) string {
	out := substituteVariables(tmpl, req)
	out = strings.ReplaceAll(out, "{{input_sources}}", strings.Join(req.InputSources, ", "))
	out = strings.ReplaceAll(out, "{{output_types}}", strings.Join(req.OutputTypes, ", "))
	out = strings.ReplaceAll(out, "{{required_apis}}", strings.Join(req.RequiredAPIs, ", "))
	return out
}

// mergeDependencyPatch copies the template's dependency patch and additively
// inserts allow-listed SDK packages for requested API tags
func mergeDependencyPatch(base map[string]string, requiredAPIs []string) map[string]string {
	merged := make(map[string]string, len(base))
	for pkg, version := range base {
		merged[pkg] = version
	}
	for _, api := range requiredAPIs {
		if sdk, ok := sdkDependencies[strings.ToLower(api)]; ok {
			merged[sdk.pkg] = sdk.version
		}
	}
	return merged
}

// assembleFiles combines the customized sources with deterministic boilerplate
func assembleFiles(def models.TemplateDefinition, req models.UserRequirements, vars map[string]string, uiSource, functionalitySource string, dependencies map[string]string) (map[string]string, error) {
	appTitle := vars["app_title"]
	if appTitle == "" {
		appTitle = req.Name
	}
	primaryColor := vars["primary_color"]
	if primaryColor == "" {
		primaryColor = "#3b82f6"
	}

	packageJSON, err := json.MarshalIndent(map[string]interface{}{
		"name":         strings.ToLower(strings.ReplaceAll(req.Name, " ", "-")),
		"private":      true,
		"version":      "0.1.0",
		"type":         "module",
		"dependencies": dependencies,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal package.json: %w", err)
	}

	files := map[string]string{
		"src/App.tsx":          uiSource,
		"src/functionality.ts": functionalitySource,
		"src/main.tsx": "import React from \"react\";\n" +
			"import ReactDOM from \"react-dom/client\";\n" +
			"import App from \"./App\";\n" +
			"import \"./index.css\";\n\n" +
			"ReactDOM.createRoot(document.getElementById(\"root\")!).render(<App />);\n",
		"src/index.css": fmt.Sprintf(
			":root {\n  --theme: %s;\n  --primary: %s;\n  --font: %s;\n}\n\nbody {\n  font-family: var(--font), sans-serif;\n  margin: 0;\n}\n",
			def.Name+"-"+req.VisualStyle.Theme, firstColor(primaryColor), req.VisualStyle.Font),
		"vite.config.ts": "import { defineConfig } from \"vite\";\n" +
			"import react from \"@vitejs/plugin-react\";\n\n" +
			"export default defineConfig({ plugins: [react()] });\n",
		"tsconfig.json": "{\n  \"compilerOptions\": {\n    \"target\": \"ES2022\",\n    \"jsx\": \"react-jsx\",\n    \"module\": \"ESNext\",\n    \"moduleResolution\": \"bundler\",\n    \"strict\": true\n  },\n  \"include\": [\"src\"]\n}\n",
		"index.html": fmt.Sprintf(
			"<!doctype html>\n<html>\n<head><title>%s</title></head>\n<body><div id=\"root\"></div><script type=\"module\" src=\"/src/main.tsx\"></script></body>\n</html>\n",
			appTitle),
		"package.json": string(packageJSON) + "\n",
	}

	return files, nil
}

// firstColor picks the first entry of a joined palette list for the primary
// color variable
func firstColor(palette string) string {
	if idx := strings.Index(palette, ","); idx > 0 {
		return strings.TrimSpace(palette[:idx])
	}
	return palette
}

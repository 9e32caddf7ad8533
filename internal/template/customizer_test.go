package template

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/appfoundry/app-builder/generation-orchestrator/internal/models"
)

// stubGateway scripts the two customization LLM calls
type stubGateway struct {
	uiContent     string
	uiErr         error
	callContent   string
	callErr       error
	lastUIModel   string
	lastCallModel string
}

func (s *stubGateway) Call(ctx context.Context, systemPrompt, userPrompt string, choice models.LLMChoice) (string, error) {
	s.lastCallModel = choice.Model
	if s.callErr != nil {
		return "", s.callErr
	}
	return s.callContent, nil
}

func (s *stubGateway) GenerateUI(ctx context.Context, model, prompt string) ([]models.GeneratedFile, error) {
	s.lastUIModel = model
	if s.uiErr != nil {
		return nil, s.uiErr
	}
	return []models.GeneratedFile{{Path: "src/App.tsx", Content: s.uiContent, Phase: models.PhaseStyling}}, nil
}

func (s *stubGateway) IsConfigured(provider string) bool { return true }

func customizationRequirements() models.UserRequirements {
	return models.UserRequirements{
		Name:         "Trip Journal",
		JTBD:         "log my travels with photos",
		InputSources: []string{"upload", "text"},
		OutputTypes:  []string{"list"},
		VisualStyle: models.VisualStyle{
			Theme:   "dark",
			Palette: []string{"#0f172a", "#38bdf8"},
			Font:    "Inter",
			Vibe:    "calm",
		},
	}
}

func TestCustomizeHappyPath(t *testing.T) {
	gw := &stubGateway{
		uiContent:   "export default function App() { return <main />; }",
		callContent: "export function saveEntry() {}",
	}
	c := NewCustomizer(NewRegistry(), gw)

	app, err := c.Customize(context.Background(), "journal-app", customizationRequirements())
	require.NoError(t, err)
	require.NotNil(t, app)

	assert.Equal(t, gw.uiContent, app.Files["src/App.tsx"])
	assert.Equal(t, gw.callContent, app.Files["src/functionality.ts"])
	assert.Contains(t, app.Files, "package.json")
	assert.Contains(t, app.Files, "index.html")
	assert.Contains(t, app.Files, "vite.config.ts")

	assert.Equal(t, "journal-app", app.Metadata.SourceTemplate)
	assert.True(t, app.Metadata.Customized)
	assert.Equal(t, "static", app.Deployment.WorkerType)

	// Default models are used when the requirements carry no selection
	assert.Equal(t, "gemini-2.5-pro", gw.lastUIModel)
	assert.Equal(t, "claude-sonnet-4-5", gw.lastCallModel)
}

func TestCustomizeVariableSubstitution(t *testing.T) {
	gw := &stubGateway{uiContent: "ui", callContent: "fn"}
	c := NewCustomizer(NewRegistry(), gw)

	app, err := c.Customize(context.Background(), "journal-app", customizationRequirements())
	require.NoError(t, err)

	// app_title is "Journal - {{jtbd}}" in the catalog
	assert.Contains(t, app.Files["index.html"], "log my travels with photos")

	// primary_color is "{{style.palette}}"; the stylesheet takes the first entry
	assert.Contains(t, app.Files["src/index.css"], "--primary: #0f172a;")
	assert.Contains(t, app.Files["src/index.css"], "--font: Inter;")
}

func TestCustomizeModelOverrides(t *testing.T) {
	gw := &stubGateway{uiContent: "ui", callContent: "fn"}
	c := NewCustomizer(NewRegistry(), gw)

	req := customizationRequirements()
	req.ModelSelection = map[string]string{
		"ui":            "gpt-4o",
		"functionality": "gemini-2.0-flash",
	}

	_, err := c.Customize(context.Background(), "journal-app", req)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", gw.lastUIModel)
	assert.Equal(t, "gemini-2.0-flash", gw.lastCallModel)
}

func TestCustomizeUIFailureUsesPlaceholder(t *testing.T) {
	gw := &stubGateway{
		uiErr:       fmt.Errorf("provider down"),
		callContent: "export function ok() {}",
	}
	c := NewCustomizer(NewRegistry(), gw)

	app, err := c.Customize(context.Background(), "journal-app", customizationRequirements())
	require.NoError(t, err)

	assert.Equal(t, uiPlaceholder, app.Files["src/App.tsx"])
	// The functionality call still succeeded
	assert.Equal(t, "export function ok() {}", app.Files["src/functionality.ts"])
}

func TestCustomizeFunctionalityFailureUsesPlaceholder(t *testing.T) {
	gw := &stubGateway{
		uiContent: "ui",
		callErr:   fmt.Errorf("provider down"),
	}
	c := NewCustomizer(NewRegistry(), gw)

	app, err := c.Customize(context.Background(), "journal-app", customizationRequirements())
	require.NoError(t, err)
	assert.Equal(t, functionalityPlaceholder, app.Files["src/functionality.ts"])
}

func TestCustomizeUnknownTemplate(t *testing.T) {
	c := NewCustomizer(NewRegistry(), &stubGateway{})

	app, err := c.Customize(context.Background(), "ghost-template", customizationRequirements())
	require.Error(t, err)
	assert.Nil(t, app)
	assert.True(t, errors.Is(err, ErrTemplateNotFound))
}

func TestMergeDependencyPatch(t *testing.T) {
	base := map[string]string{"react": "^18.3.1"}

	merged := mergeDependencyPatch(base, []string{"openai", "Stripe", "unknown-api"})

	assert.Equal(t, "^18.3.1", merged["react"])
	assert.Equal(t, "^4.52.0", merged["openai"])
	assert.Equal(t, "^16.2.0", merged["stripe"])
	// Unknown tags add nothing
	assert.Len(t, merged, 3)

	// The template's base map is never mutated
	assert.Len(t, base, 1)
}

func TestSubstituteVariables(t *testing.T) {
	req := customizationRequirements()

	out := substituteVariables("Job: {{jtbd}}; theme {{style.theme}}; colors {{style.palette}}; unknown {{style.bogus}}", req)

	assert.Equal(t, "Job: log my travels with photos; theme dark; colors #0f172a, #38bdf8; unknown ", out)
}

func TestRenderPrompt(t *testing.T) {
	req := customizationRequirements()
	req.RequiredAPIs = []string{"openai"}

	out := renderPrompt("Inputs: {{input_sources}}. Outputs: {{output_types}}. APIs: {{required_apis}}.", req)

	assert.Equal(t, "Inputs: upload, text. Outputs: list. APIs: openai.", out)
}

func TestCustomizedPackageJSONNaming(t *testing.T) {
	gw := &stubGateway{uiContent: "ui", callContent: "fn"}
	c := NewCustomizer(NewRegistry(), gw)

	app, err := c.Customize(context.Background(), "journal-app", customizationRequirements())
	require.NoError(t, err)

	pkg := app.Files["package.json"]
	assert.Contains(t, pkg, `"name": "trip-journal"`)
	assert.True(t, strings.HasSuffix(pkg, "\n"))
}

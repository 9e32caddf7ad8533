package template

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/appfoundry/app-builder/generation-orchestrator/internal/models"
)

func newTestMatcher() *Matcher {
	return NewMatcher(NewRegistry())
}

func TestSelectJournalScenario(t *testing.T) {
	m := newTestMatcher()

	result := m.Select(models.UserRequirements{
		Name:         "My Journal",
		JTBD:         "track my journal entries",
		InputSources: []string{"upload"},
	})

	assert.False(t, result.FallbackGeneration)
	assert.Equal(t, "journal-app", result.SelectedTemplate)
	assert.GreaterOrEqual(t, result.Confidence, SelectionThreshold)
	assert.Contains(t, result.Reasoning, `keyword "journal"`)
	assert.LessOrEqual(t, len(result.Alternatives), 3)
}

func TestSelectDashboardScenario(t *testing.T) {
	m := newTestMatcher()

	result := m.Select(models.UserRequirements{
		Name:        "KPIs",
		JTBD:        "show me a dashboard of weekly sales",
		OutputTypes: []string{"dashboard", "chart"},
	})

	assert.False(t, result.FallbackGeneration)
	assert.Equal(t, "kpi-dashboard", result.SelectedTemplate)
	assert.GreaterOrEqual(t, result.Confidence, SelectionThreshold)
}

func TestSelectAPICoverage(t *testing.T) {
	m := newTestMatcher()

	result := m.Select(models.UserRequirements{
		Name:         "Task Hub",
		JTBD:         "manage my team's tasks",
		RequiredAPIs: []string{"resend"},
	})

	assert.False(t, result.FallbackGeneration)
	assert.Equal(t, "workflow-manager", result.SelectedTemplate)
	assert.Contains(t, result.Reasoning, "API coverage 1/1")
}

func TestSelectFavoriteAppPairing(t *testing.T) {
	m := newTestMatcher()

	result := m.Select(models.UserRequirements{
		Name: "Diary",
		JTBD: "keep a daily journal",
		VisualStyle: models.VisualStyle{
			FavoriteApp: "Day One",
		},
	})

	assert.Equal(t, "journal-app", result.SelectedTemplate)
	assert.Contains(t, result.Reasoning, `favorite app "Day One"`)
}

func TestSelectFallbackWhenNothingMatches(t *testing.T) {
	m := newTestMatcher()

	result := m.Select(models.UserRequirements{
		Name: "Gyro",
		JTBD: "calibrate spacecraft gyroscopes in real time",
	})

	assert.True(t, result.FallbackGeneration)
	assert.Empty(t, result.SelectedTemplate)
	assert.Less(t, result.Confidence, SelectionThreshold)
	assert.Contains(t, result.Reasoning, "below the 0.7 reuse threshold")
	// Top candidates are surfaced as diagnostics
	assert.Len(t, result.Alternatives, 3)
}

func TestSelectTieKeepsRegistryOrder(t *testing.T) {
	m := newTestMatcher()

	// No keywords, inputs, outputs, APIs or favorite app: every template
	// scores on complexity alone, so the two simple templates tie
	result := m.Select(models.UserRequirements{
		Name: "Blank",
		JTBD: "something without matching words",
	})

	require.True(t, result.FallbackGeneration)
	require.GreaterOrEqual(t, len(result.Alternatives), 2)
	assert.Equal(t, "journal-app", result.Alternatives[0].TemplateName)
	assert.Equal(t, "idea-board", result.Alternatives[1].TemplateName)
	assert.Equal(t, result.Alternatives[0].Confidence, result.Alternatives[1].Confidence)
}

func TestScoreTemplateConfidenceBounds(t *testing.T) {
	m := newTestMatcher()
	reqs := []models.UserRequirements{
		{Name: "A", JTBD: "track my journal entries and manage a dashboard", InputSources: []string{"upload", "voice", "email"}, OutputTypes: []string{"export", "email", "webhook"}, RequiredAPIs: []string{"openai", "resend"}},
		{Name: "B", JTBD: "x"},
		{Name: "C", JTBD: strings.Repeat("very long description ", 10), InputSources: []string{"nonsense"}, OutputTypes: []string{"nonsense"}},
	}

	for _, req := range reqs {
		for _, def := range m.registry.List() {
			match := scoreTemplate(def, req)
			assert.GreaterOrEqual(t, match.Confidence, 0.0)
			assert.LessOrEqual(t, match.Confidence, 1.0)
			assert.NotEmpty(t, match.Reasoning)
		}
	}
}

func TestScoreTemplateKeywordFirstHitWins(t *testing.T) {
	// "track my journal" matches both the journal rule and the track rule;
	// the journal rule is earlier and decides alone
	reg := NewRegistry()
	journal, err := reg.Get("journal-app")
	require.NoError(t, err)

	match := scoreTemplate(journal, models.UserRequirements{
		Name: "J",
		JTBD: "track my journal",
	})
	assert.Contains(t, match.Reasoning, `keyword "journal"`)
	assert.NotContains(t, match.Reasoning, `keyword "track"`)
}

func TestScoreTemplateSkipsAbsentSignals(t *testing.T) {
	reg := NewRegistry()
	journal, err := reg.Get("journal-app")
	require.NoError(t, err)

	// No inputs, outputs, APIs or favorite app: the denominator only holds
	// the keyword and complexity weights, so a keyword hit scores high
	match := scoreTemplate(journal, models.UserRequirements{
		Name: "J",
		JTBD: "my journal",
	})
	assert.Equal(t, 1.0, match.Confidence)
}

func TestDeriveComplexity(t *testing.T) {
	tests := []struct {
		name string
		req  models.UserRequirements
		want string
	}{
		{"bare", models.UserRequirements{JTBD: "short"}, "simple"},
		{"one signal", models.UserRequirements{JTBD: "short", InputSources: []string{"a", "b", "c"}}, "simple"},
		{"two signals", models.UserRequirements{JTBD: "short", InputSources: []string{"a", "b", "c"}, OutputTypes: []string{"a", "b", "c"}}, "medium"},
		{"three signals", models.UserRequirements{JTBD: "short", InputSources: []string{"a", "b", "c"}, OutputTypes: []string{"a", "b", "c"}, RequiredAPIs: []string{"x", "y"}}, "complex"},
		{"long description counts", models.UserRequirements{JTBD: strings.Repeat("w", 101), InputSources: []string{"a", "b", "c"}}, "medium"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, deriveComplexity(tt.req))
		})
	}
}

func TestTemplateSupportsAPI(t *testing.T) {
	reg := NewRegistry()
	digest, err := reg.Get("email-digest")
	require.NoError(t, err)

	assert.True(t, templateSupportsAPI(digest, "openai"))
	assert.True(t, templateSupportsAPI(digest, "Resend"))
	assert.False(t, templateSupportsAPI(digest, "stripe"))
}

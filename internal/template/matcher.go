package template

import (
	"fmt"
	"sort"
	"strings"

	"github.com/appfoundry/app-builder/generation-orchestrator/internal/models"
)

// SelectionThreshold is the fixed confidence cutoff for template reuse
const SelectionThreshold = 0.7

// Scoring weights. They sum to 100; the normalization denominator only
// includes weights whose inputs were actually present, so requirements
// without optional fields are not penalized.
const (
	weightKeyword    = 30.0
	weightInputs     = 20.0
	weightOutputs    = 20.0
	weightAPIs       = 15.0
	weightFavorite   = 10.0
	weightComplexity = 5.0
)

// keywordRule links a job-description keyword to a template attribute.
// Rules are tested in order; the first hit wins, no accumulation.
type keywordRule struct {
	keyword    string
	capability string // empty means match on template name instead
}

var keywordRules = []keywordRule{
	{keyword: "journal"},
	{keyword: "idea"},
	{keyword: "dashboard", capability: "dashboard"},
	{keyword: "track", capability: "workflow_management"},
	{keyword: "manage", capability: "workflow_management"},
}

// inputCapability maps input source tags to the capability a template must
// declare to support them
var inputCapability = map[string]string{
	"upload": "file_upload",
	"text":   "text_input",
	"voice":  "voice_input",
	"camera": "image_capture",
	"image":  "image_capture",
	"email":  "email_ingest",
}

// outputCapability maps output type tags to capabilities
var outputCapability = map[string]string{
	"dashboard": "dashboard",
	"chart":     "visualization",
	"export":    "export",
	"csv":       "export",
	"email":     "email_send",
	"webhook":   "webhook",
	"list":      "list_view",
}

// favoritePairing awards bonus points for two hard-coded app references
var favoritePairings = map[string]string{
	"notion":  "workflow_management", // category match
	"day one": "journal-app",         // name match
}

// Matcher scores registry entries against a requirements payload
type Matcher struct {
	registry *Registry
}

// NewMatcher creates a matcher over the given registry
func NewMatcher(registry *Registry) *Matcher {
	return &Matcher{registry: registry}
}

// Select scores every registered template and decides reuse vs fallback to
// full generation. Ties keep registry order (stable sort).
func (m *Matcher) Select(req models.UserRequirements) models.SelectionResult {
	defs := m.registry.List()
	matches := make([]models.TemplateMatch, 0, len(defs))
	for _, def := range defs {
		matches = append(matches, scoreTemplate(def, req))
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Confidence > matches[j].Confidence
	})

	if len(matches) == 0 {
		return models.SelectionResult{
			FallbackGeneration: true,
			Reasoning:          "no templates registered",
		}
	}

	top := matches[0]
	alternatives := matches[1:]
	if len(alternatives) > 3 {
		alternatives = alternatives[:3]
	}

	if top.Confidence >= SelectionThreshold {
		return models.SelectionResult{
			SelectedTemplate: top.TemplateName,
			Confidence:       top.Confidence,
			Reasoning:        top.Reasoning,
			Alternatives:     alternatives,
		}
	}

	diagnostics := matches
	if len(diagnostics) > 3 {
		diagnostics = diagnostics[:3]
	}
	return models.SelectionResult{
		FallbackGeneration: true,
		Confidence:         top.Confidence,
		Reasoning: fmt.Sprintf("best candidate %s scored %.2f, below the %.1f reuse threshold",
			top.TemplateName, top.Confidence, SelectionThreshold),
		Alternatives: diagnostics,
	}
}

// scoreTemplate computes one template's confidence in [0,1] plus the
// reasoning string re-derived from the contributing sub-scores.
func scoreTemplate(def models.TemplateDefinition, req models.UserRequirements) models.TemplateMatch {
	desc := strings.ToLower(req.JTBD)

	var (
		score       float64
		maxScore    float64
		reasons     []string
		matchedCaps []string
	)

	// Keyword rule: always applicable
	maxScore += weightKeyword
	for _, rule := range keywordRules {
		if !strings.Contains(desc, rule.keyword) {
			continue
		}
		hit := false
		if rule.capability != "" {
			hit = def.Capabilities[rule.capability]
		} else {
			hit = strings.Contains(def.Name, rule.keyword)
		}
		if hit {
			score += weightKeyword
			reasons = append(reasons, fmt.Sprintf("keyword %q matched (%d)", rule.keyword, int(weightKeyword)))
			if rule.capability != "" {
				matchedCaps = append(matchedCaps, rule.capability)
			}
			break
		}
	}

	// Input source coverage
	if len(req.InputSources) > 0 {
		maxScore += weightInputs
		matched := 0
		for _, input := range req.InputSources {
			capName, ok := inputCapability[strings.ToLower(input)]
			if ok && def.Capabilities[capName] {
				matched++
				matchedCaps = append(matchedCaps, capName)
			}
		}
		contribution := float64(matched) / float64(len(req.InputSources)) * weightInputs
		score += contribution
		reasons = append(reasons, fmt.Sprintf("input coverage %d/%d (%.1f)", matched, len(req.InputSources), contribution))
	}

	// Output type coverage
	if len(req.OutputTypes) > 0 {
		maxScore += weightOutputs
		matched := 0
		for _, output := range req.OutputTypes {
			capName, ok := outputCapability[strings.ToLower(output)]
			if ok && def.Capabilities[capName] {
				matched++
				matchedCaps = append(matchedCaps, capName)
			}
		}
		contribution := float64(matched) / float64(len(req.OutputTypes)) * weightOutputs
		score += contribution
		reasons = append(reasons, fmt.Sprintf("output coverage %d/%d (%.1f)", matched, len(req.OutputTypes), contribution))
	}

	// Required-API coverage against declared provider lists
	if len(req.RequiredAPIs) > 0 {
		maxScore += weightAPIs
		matched := 0
		for _, api := range req.RequiredAPIs {
			if templateSupportsAPI(def, api) {
				matched++
			}
		}
		contribution := float64(matched) / float64(len(req.RequiredAPIs)) * weightAPIs
		score += contribution
		reasons = append(reasons, fmt.Sprintf("API coverage %d/%d (%.1f)", matched, len(req.RequiredAPIs), contribution))
	}

	// Favorite-app heuristic: applicable only when a favorite app was given
	if req.VisualStyle.FavoriteApp != "" {
		maxScore += weightFavorite
		target, ok := favoritePairings[strings.ToLower(req.VisualStyle.FavoriteApp)]
		if ok && (def.Name == target || def.Category == target || def.Capabilities[target]) {
			score += weightFavorite
			reasons = append(reasons, fmt.Sprintf("favorite app %q pairing (%d)", req.VisualStyle.FavoriteApp, int(weightFavorite)))
		}
	}

	// Complexity match: always applicable
	maxScore += weightComplexity
	if deriveComplexity(req) == def.Complexity {
		score += weightComplexity
		reasons = append(reasons, fmt.Sprintf("complexity tier %s matched (%d)", def.Complexity, int(weightComplexity)))
	}

	confidence := score / maxScore
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	reasoning := "no scoring rules contributed"
	if len(reasons) > 0 {
		reasoning = strings.Join(reasons, "; ")
	}

	return models.TemplateMatch{
		TemplateName: def.Name,
		Confidence:   confidence,
		Reasoning:    reasoning,
		MatchedCaps:  dedupe(matchedCaps),
	}
}

// templateSupportsAPI reports whether any declared integration lists the
// requested provider
func templateSupportsAPI(def models.TemplateDefinition, api string) bool {
	lower := strings.ToLower(api)
	for _, integration := range def.Integrations {
		for _, provider := range integration.Providers {
			if strings.ToLower(provider) == lower {
				return true
			}
		}
	}
	return false
}

// deriveComplexity buckets a requirements payload into simple/medium/complex
// by counting structural signals
func deriveComplexity(req models.UserRequirements) string {
	signals := 0
	if len(req.InputSources) > 2 {
		signals++
	}
	if len(req.OutputTypes) > 2 {
		signals++
	}
	if len(req.RequiredAPIs) > 1 {
		signals++
	}
	if len(req.JTBD) > 100 {
		signals++
	}

	switch {
	case signals <= 1:
		return "simple"
	case signals == 2:
		return "medium"
	default:
		return "complex"
	}
}

func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := items[:0]
	for _, item := range items {
		if !seen[item] {
			seen[item] = true
			out = append(out, item)
		}
	}
	return out
}

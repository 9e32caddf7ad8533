package generation

import (
	"fmt"
	"strings"

	"github.com/appfoundry/app-builder/generation-orchestrator/internal/models"
)

// phaseInstructions holds the per-phase instruction block appended to the
// common preamble
var phaseInstructions = map[string]string{
	models.PhasePlanning: `Produce a project structure plan as a JSON object.
Include a "directories" listing, a "files" listing with a one-line purpose per
file, and a "dependencies" object of npm packages with pinned versions.`,
	models.PhaseFoundation: `Generate the project configuration files:
package.json, tsconfig.json, vite.config.ts, and the HTML shell. Respond with
a JSON array of {"path": "...", "content": "..."} objects.`,
	models.PhaseCore: `Generate the core business logic modules implementing
the job-to-be-done. Keep components small and typed. Respond with a JSON
array of {"path": "...", "content": "..."} objects.`,
	models.PhaseStyling: `Generate the visual layer: stylesheet variables,
layout components, and theming derived from the visual style above. Respond
with a JSON array of {"path": "...", "content": "..."} objects.`,
	models.PhaseIntegration: `Generate one integration module per required
external API listed above, with typed request/response wrappers and
credential lookup from environment variables. Respond with a JSON array of
{"path": "...", "content": "..."} objects.`,
	models.PhaseOptimization: `Harden the application: input validation,
error boundaries, loading states, and retry wrappers around network calls.
Respond with a JSON array of {"path": "...", "content": "..."} objects.`,
}

// BuildPhasePrompt renders the instruction block for one pipeline phase.
// Deterministic string construction; no I/O. Prior file paths are embedded as
// advisory continuity context, not a machine-checked dependency.
func BuildPhasePrompt(req models.UserRequirements, phase string, framework string, priorFiles []models.GeneratedFile) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are generating a %s application named %q.\n", framework, req.Name)
	fmt.Fprintf(&b, "Job to be done: %s\n\n", req.JTBD)

	fmt.Fprintf(&b, "Input sources: %s\n", joinOrNone(req.InputSources))
	fmt.Fprintf(&b, "Output types: %s\n", joinOrNone(req.OutputTypes))
	fmt.Fprintf(&b, "Required external APIs: %s\n\n", joinOrNone(req.RequiredAPIs))

	b.WriteString("Visual style:\n")
	fmt.Fprintf(&b, "  theme: %s\n", req.VisualStyle.Theme)
	fmt.Fprintf(&b, "  palette: %s\n", joinOrNone(req.VisualStyle.Palette))
	fmt.Fprintf(&b, "  font: %s\n", req.VisualStyle.Font)
	fmt.Fprintf(&b, "  vibe: %s\n", req.VisualStyle.Vibe)
	fmt.Fprintf(&b, "  motion: %s\n", req.VisualStyle.Motion)
	if req.VisualStyle.FavoriteApp != "" {
		fmt.Fprintf(&b, "  favorite app reference: %s\n", req.VisualStyle.FavoriteApp)
	}
	b.WriteString("\n")

	if len(priorFiles) > 0 {
		b.WriteString("Files generated in earlier phases (do not regenerate, build on them):\n")
		for _, f := range priorFiles {
			fmt.Fprintf(&b, "  - %s (%s phase)\n", f.Path, f.Phase)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Current phase: %s\n\n", phase)
	b.WriteString(phaseInstructions[phase])

	return b.String()
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}

package models

// Phase names for the generation pipeline, in execution order
const (
	PhasePlanning     = "planning"
	PhaseFoundation   = "foundation"
	PhaseCore         = "core"
	PhaseStyling      = "styling"
	PhaseIntegration  = "integration"
	PhaseOptimization = "optimization"

	// PhaseCustomization tags files produced by the template customization
	// path instead of the six-phase pipeline
	PhaseCustomization = "customization"

	// PhaseComplete is the terminal progress marker, not a generating phase
	PhaseComplete = "complete"
)

// Phases lists the six pipeline phases in their fixed execution order
var Phases = []string{
	PhasePlanning,
	PhaseFoundation,
	PhaseCore,
	PhaseStyling,
	PhaseIntegration,
	PhaseOptimization,
}

// GeneratedFile is a single file emitted by a pipeline phase. Files accumulate
// in order; a later file at the same path conceptually supersedes an earlier
// one, the list is never de-duplicated.
type GeneratedFile struct {
	Path    string `json:"path"`
	Content string `json:"content"`
	Phase   string `json:"phase"`
}

// Session status values reported to the progress store
const (
	StatusGenerating            = "generating"
	StatusAnalyzingRequirements = "analyzing_requirements"
	StatusFinalizingApp         = "finalizing_app"
	StatusCompleted             = "completed"
	StatusError                 = "error"
)

// ProgressUpdate is one snapshot pushed to the progress store at a phase
// boundary. Result is only populated on the final completed snapshot.
type ProgressUpdate struct {
	Phase    string            `json:"phase"`
	Progress int               `json:"progress"`
	Status   string            `json:"status"`
	Result   *GenerationResult `json:"result,omitempty"`
}

// PhaseResult records the outcome of one pipeline phase in the run report.
// Error is empty for a successful phase; a failed phase contributed zero files.
type PhaseResult struct {
	Phase     string `json:"phase"`
	FileCount int    `json:"file_count"`
	Error     string `json:"error,omitempty"`
}

// BuildResult is the structured outcome of the build adapter. Failures are
// reported here, never as an error from the orchestrator.
type BuildResult struct {
	Success  bool              `json:"success"`
	Assets   map[string]string `json:"assets,omitempty"`
	Errors   []string          `json:"errors,omitempty"`
	Warnings []string          `json:"warnings,omitempty"`
}

// GenerationResult is the final record returned by a generation run. It is
// produced unconditionally; callers inspect Build.Success and Phases to learn
// how much of the run actually succeeded.
type GenerationResult struct {
	Files        []GeneratedFile `json:"files"`
	PreviewURL   string          `json:"preview_url"`
	DeploymentID string          `json:"deployment_id"`
	Build        BuildResult     `json:"build"`
	Phases       []PhaseResult   `json:"phases"`
}

// LLMChoice is the model selection policy's output. Fallback is advisory
// only; nothing in the orchestrator retries with it automatically.
type LLMChoice struct {
	Provider string     `json:"provider"`
	Model    string     `json:"model"`
	Reason   string     `json:"reason"`
	Fallback *LLMChoice `json:"fallback,omitempty"`
}

package generation

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/appfoundry/app-builder/generation-orchestrator/internal/artifact"
	"github.com/appfoundry/app-builder/generation-orchestrator/internal/build"
	"github.com/appfoundry/app-builder/generation-orchestrator/internal/llm"
	"github.com/appfoundry/app-builder/generation-orchestrator/internal/metrics"
	"github.com/appfoundry/app-builder/generation-orchestrator/internal/models"
)

// ProgressSink receives progress snapshots. Posting is fire-and-forget from
// the orchestrator's perspective: a failed post is logged, never fatal.
type ProgressSink interface {
	Post(ctx context.Context, sessionID string, update models.ProgressUpdate) error
}

// ArtifactSink persists build assets under namespaced keys
type ArtifactSink interface {
	Put(ctx context.Context, key, content, contentType string) error
}

// Builder turns an accumulated file set into build output
type Builder interface {
	Build(ctx context.Context, in build.Input) models.BuildResult
}

// TemplateSelector decides template reuse vs full generation
type TemplateSelector interface {
	Select(req models.UserRequirements) models.SelectionResult
}

// TemplateCustomizer produces a file set from a matched template
type TemplateCustomizer interface {
	Customize(ctx context.Context, name string, req models.UserRequirements) (*models.CustomizedApp, error)
}

const generationSystemPrompt = `You are an expert full-stack engineer generating production-quality application source files. Follow the response format instructions exactly; emit no markdown fences or prose outside the requested structure.`

// phaseTaskDescriptions feed the model selection policy per phase
var phaseTaskDescriptions = map[string]string{
	models.PhasePlanning:     "analysis of requirements and project structure report",
	models.PhaseFoundation:   "code generation for project configuration and scaffolding",
	models.PhaseCore:         "business logic code generation",
	models.PhaseStyling:      "ui styling and interface generation",
	models.PhaseIntegration:  "external api integration code generation",
	models.PhaseOptimization: "code hardening and optimization",
}

// Orchestrator drives the phased generation pipeline. One run is a single
// logical flow of control: phases execute strictly sequentially because each
// phase's prompt embeds the accumulated file list. Independent runs share no
// mutable state; the progress and artifact stores are namespaced by session
// identifier.
type Orchestrator struct {
	gateway       llm.GatewayInterface
	progress      ProgressSink
	artifacts     ArtifactSink
	builder       Builder
	selector      TemplateSelector
	customizer    TemplateCustomizer
	recorder      SessionRecorder
	metrics       *metrics.GenerationMetrics
	tracer        trace.Tracer
	previewDomain string
	framework     string
}

// NewOrchestrator wires the generation orchestrator. Recorder and metrics may
// be nil; persistence and instrumentation are then skipped.
func NewOrchestrator(
	gateway llm.GatewayInterface,
	progressSink ProgressSink,
	artifacts ArtifactSink,
	builder Builder,
	selector TemplateSelector,
	customizer TemplateCustomizer,
	recorder SessionRecorder,
	genMetrics *metrics.GenerationMetrics,
) *Orchestrator {
	return &Orchestrator{
		gateway:       gateway,
		progress:      progressSink,
		artifacts:     artifacts,
		builder:       builder,
		selector:      selector,
		customizer:    customizer,
		recorder:      recorder,
		metrics:       genMetrics,
		tracer:        otel.Tracer("generation-orchestrator"),
		previewDomain: build.PreviewDomain(),
		framework:     build.DefaultFramework,
	}
}

// SetPreviewDomain overrides the preview domain for testing purposes
func (o *Orchestrator) SetPreviewDomain(domain string) {
	o.previewDomain = domain
}

// ValidateRequirements enforces the caller-level pre-flight checks. These are
// the only input failures that abort before any phase runs.
func ValidateRequirements(req models.UserRequirements) error {
	if req.Name == "" {
		return fmt.Errorf("requirements validation failed: name is required")
	}
	if req.JTBD == "" {
		return fmt.Errorf("requirements validation failed: job description is required")
	}
	return nil
}

// Run is the top-level entry point: it consults the template matcher and
// either customizes a matched template or runs the full six-phase pipeline.
func (o *Orchestrator) Run(ctx context.Context, req models.UserRequirements, sessionID string) (*models.GenerationResult, error) {
	ctx, span := o.tracer.Start(ctx, "orchestrator.run")
	defer span.End()
	span.SetAttributes(attribute.String("session.id", sessionID))

	if err := ValidateRequirements(req); err != nil {
		span.RecordError(err)
		return nil, err
	}

	o.postProgress(ctx, sessionID, models.ProgressUpdate{
		Phase:    models.PhasePlanning,
		Progress: 0,
		Status:   models.StatusAnalyzingRequirements,
	})

	selection := o.selector.Select(req)
	span.SetAttributes(
		attribute.Bool("template.fallback_generation", selection.FallbackGeneration),
		attribute.String("template.selected", selection.SelectedTemplate),
	)

	if !selection.FallbackGeneration {
		log.Printf(`{"level":"info","message":"Template matched","session_id":"%s","template":"%s","confidence":%.2f}`,
			sessionID, selection.SelectedTemplate, selection.Confidence)
		return o.runCustomization(ctx, req, sessionID, selection.SelectedTemplate)
	}

	log.Printf(`{"level":"info","message":"No template above threshold, running full generation","session_id":"%s","best_confidence":%.2f}`,
		sessionID, selection.Confidence)
	return o.GenerateApp(ctx, req, sessionID)
}

// runCustomization drives the template-reuse path. A missing template
// definition is the one core failure that surfaces to the caller.
func (o *Orchestrator) runCustomization(ctx context.Context, req models.UserRequirements, sessionID, templateName string) (*models.GenerationResult, error) {
	start := time.Now()
	o.recordRunStarted(ctx, sessionID, req)

	app, err := o.customizer.Customize(ctx, templateName, req)
	if err != nil {
		o.postProgress(ctx, sessionID, models.ProgressUpdate{
			Phase:    models.PhaseCustomization,
			Progress: 0,
			Status:   models.StatusError,
		})
		return nil, fmt.Errorf("template customization failed: %w", err)
	}

	files := make([]models.GeneratedFile, 0, len(app.Files))
	for path, content := range app.Files {
		files = append(files, models.GeneratedFile{
			Path:    path,
			Content: content,
			Phase:   models.PhaseCustomization,
		})
	}

	phases := []models.PhaseResult{{
		Phase:     models.PhaseCustomization,
		FileCount: len(files),
	}}

	return o.finalize(ctx, req, sessionID, files, phases, start), nil
}

// GenerateApp drives the six-phase pipeline end to end. It terminates for
// every input and posts exactly one completed/100 snapshot, regardless of how
// many individual phases failed. No failure inside this method propagates to
// the caller.
func (o *Orchestrator) GenerateApp(ctx context.Context, req models.UserRequirements, sessionID string) (*models.GenerationResult, error) {
	ctx, span := o.tracer.Start(ctx, "orchestrator.generate_app")
	defer span.End()
	span.SetAttributes(attribute.String("session.id", sessionID))

	start := time.Now()
	o.recordRunStarted(ctx, sessionID, req)

	var (
		files        []models.GeneratedFile
		phaseResults []models.PhaseResult
	)

	for i, phase := range models.Phases {
		// Cancellation is honored at phase boundaries only; stopping
		// mid-phase could leave the accumulated file list inconsistent.
		if ctx.Err() != nil {
			log.Printf(`{"level":"warn","message":"Generation cancelled at phase boundary","session_id":"%s","phase":"%s"}`, sessionID, phase)
			phaseResults = append(phaseResults, models.PhaseResult{
				Phase: phase,
				Error: "cancelled before phase start",
			})
			continue
		}

		o.postProgress(ctx, sessionID, models.ProgressUpdate{
			Phase:    phase,
			Progress: i * 100 / len(models.Phases),
			Status:   models.StatusGenerating,
		})

		phaseStart := time.Now()
		phaseFiles, err := o.executePhase(ctx, req, phase, files)
		if err != nil {
			// Graceful degradation: a single phase's failure is never fatal
			// to the whole run. The phase contributes zero files and the
			// pipeline moves on.
			log.Printf(`{"level":"error","message":"Phase failed, continuing","session_id":"%s","phase":"%s","error":"%v"}`, sessionID, phase, err)
			if o.metrics != nil {
				o.metrics.RecordPhaseFailed(ctx, phase, time.Since(phaseStart))
			}
			phaseResults = append(phaseResults, models.PhaseResult{
				Phase: phase,
				Error: err.Error(),
			})
			continue
		}

		if o.metrics != nil {
			o.metrics.RecordPhaseCompleted(ctx, phase, time.Since(phaseStart))
		}
		files = append(files, phaseFiles...)
		phaseResults = append(phaseResults, models.PhaseResult{
			Phase:     phase,
			FileCount: len(phaseFiles),
		})
	}

	return o.finalize(ctx, req, sessionID, files, phaseResults, start), nil
}

// executePhase runs one phase's LLM call and parses the response. The styling
// phase delegates to the structured UI-generation entry point.
func (o *Orchestrator) executePhase(ctx context.Context, req models.UserRequirements, phase string, priorFiles []models.GeneratedFile) ([]models.GeneratedFile, error) {
	ctx, span := o.tracer.Start(ctx, "orchestrator.execute_phase")
	defer span.End()
	span.SetAttributes(attribute.String("phase", phase))

	choice := o.chooseModel(req, phase)
	span.SetAttributes(
		attribute.String("llm.provider", choice.Provider),
		attribute.String("llm.model", choice.Model),
	)

	prompt := BuildPhasePrompt(req, phase, o.framework, priorFiles)

	if phase == models.PhaseStyling {
		return o.gateway.GenerateUI(ctx, choice.Model, prompt)
	}

	raw, err := o.gateway.Call(ctx, generationSystemPrompt, prompt, choice)
	if err != nil {
		return nil, err
	}

	return ParseFileResponse(phase, raw), nil
}

// chooseModel applies the selection policy, honoring a per-task override
// from the requirements when present
func (o *Orchestrator) chooseModel(req models.UserRequirements, phase string) models.LLMChoice {
	if override := req.ModelSelection[phase]; override != "" {
		return models.LLMChoice{
			Provider: llm.InferProvider(override),
			Model:    override,
			Reason:   "user_selected_model",
		}
	}
	return SelectModel(phaseTaskDescriptions[phase])
}

// finalize runs build + deploy, persists assets, posts the unconditional
// completed snapshot and assembles the final result record. It runs on a
// detached context so a cancelled run still delivers its terminal snapshot
// and session record to observers.
func (o *Orchestrator) finalize(ctx context.Context, req models.UserRequirements, sessionID string, files []models.GeneratedFile, phaseResults []models.PhaseResult, start time.Time) *models.GenerationResult {
	ctx = context.WithoutCancel(ctx)

	o.postProgress(ctx, sessionID, models.ProgressUpdate{
		Phase:    models.PhaseComplete,
		Progress: 100,
		Status:   models.StatusFinalizingApp,
	})

	buildResult := o.builder.Build(ctx, build.Input{
		SessionID: sessionID,
		Files:     files,
		Framework: o.framework,
	})

	for path, content := range buildResult.Assets {
		key := artifact.AssetKey(sessionID, path)
		if err := o.artifacts.Put(ctx, key, content, contentTypeFor(path)); err != nil {
			log.Printf(`{"level":"error","message":"Failed to persist asset","session_id":"%s","key":"%s","error":"%v"}`, sessionID, key, err)
		}
	}

	result := &models.GenerationResult{
		Files:        files,
		PreviewURL:   build.PreviewURL(sessionID, o.previewDomain),
		DeploymentID: sessionID,
		Build:        buildResult,
		Phases:       phaseResults,
	}

	// Completion is reported unconditionally, even after phase or build
	// failures; callers inspect the embedded result for actual outcome.
	o.postProgress(ctx, sessionID, models.ProgressUpdate{
		Phase:    models.PhaseComplete,
		Progress: 100,
		Status:   models.StatusCompleted,
		Result:   result,
	})

	if o.recorder != nil {
		if err := o.recorder.CompleteSession(ctx, sessionID, result); err != nil {
			log.Printf(`{"level":"error","message":"Failed to finalize session record","session_id":"%s","error":"%v"}`, sessionID, err)
		}
	}
	if o.metrics != nil {
		o.metrics.RecordRunCompleted(ctx, sessionID, buildResult.Success, time.Since(start))
	}

	return result
}

// recordRunStarted persists the session row and increments run metrics.
// Both are best-effort.
func (o *Orchestrator) recordRunStarted(ctx context.Context, sessionID string, req models.UserRequirements) {
	if o.recorder != nil {
		if err := o.recorder.CreateSession(ctx, sessionID, req); err != nil {
			log.Printf(`{"level":"error","message":"Failed to record session start","session_id":"%s","error":"%v"}`, sessionID, err)
		}
	}
	if o.metrics != nil {
		o.metrics.RecordRunStarted(ctx, sessionID)
	}
}

// postProgress pushes one snapshot, logging failures without interrupting
// the run
func (o *Orchestrator) postProgress(ctx context.Context, sessionID string, update models.ProgressUpdate) {
	if err := o.progress.Post(ctx, sessionID, update); err != nil {
		log.Printf(`{"level":"warn","message":"Progress post failed","session_id":"%s","phase":"%s","error":"%v"}`, sessionID, update.Phase, err)
	}
}

func contentTypeFor(path string) string {
	switch {
	case strings.HasSuffix(path, ".html"):
		return "text/html"
	case strings.HasSuffix(path, ".js"):
		return "application/javascript"
	case strings.HasSuffix(path, ".css"):
		return "text/css"
	case strings.HasSuffix(path, ".json"):
		return "application/json"
	default:
		return "text/plain"
	}
}

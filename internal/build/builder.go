// Package build provides the build/deploy adapter. The build step is a
// simulation: no bundler or sandbox runs here, the adapter logs the request
// and synthesizes an asset map so the rest of the pipeline exercises real
// code paths.
package build

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/appfoundry/app-builder/generation-orchestrator/internal/models"
)

// DefaultFramework is used when a requirements payload names no framework
const DefaultFramework = "react"

// Input carries everything the build adapter needs for one run
type Input struct {
	SessionID    string
	Files        []models.GeneratedFile
	Framework    string
	Dependencies map[string]string
}

// SimulatedBuilder is a stand-in for a real bundler. It never errors at the
// Go level; failures are reported inside the BuildResult.
type SimulatedBuilder struct{}

// NewSimulatedBuilder creates the simulated build adapter
func NewSimulatedBuilder() *SimulatedBuilder {
	return &SimulatedBuilder{}
}

// Build pretends to compile the file set and returns a structured result.
// An empty file set builds "successfully" with a warning so a fully failed
// generation run still completes end to end.
func (b *SimulatedBuilder) Build(ctx context.Context, in Input) models.BuildResult {
	framework := in.Framework
	if framework == "" {
		framework = DefaultFramework
	}

	log.Printf(`{"level":"info","message":"Simulated build started","session_id":"%s","framework":"%s","file_count":%d}`,
		in.SessionID, framework, len(in.Files))

	result := models.BuildResult{
		Success: true,
		Assets:  map[string]string{},
	}

	if len(in.Files) == 0 {
		result.Warnings = append(result.Warnings, "no generated files; produced empty shell")
	}

	var manifest strings.Builder
	fmt.Fprintf(&manifest, "// %s bundle manifest for session %s\n", framework, in.SessionID)
	for _, f := range in.Files {
		fmt.Fprintf(&manifest, "// %s (%s)\n", f.Path, f.Phase)
	}

	result.Assets["index.html"] = fmt.Sprintf(
		"<!doctype html>\n<html>\n<head><title>%s app</title></head>\n<body><div id=\"root\"></div><script src=\"/bundle.js\"></script></body>\n</html>\n",
		framework)
	result.Assets["bundle.js"] = manifest.String()

	log.Printf(`{"level":"info","message":"Simulated build finished","session_id":"%s","success":%t,"asset_count":%d}`,
		in.SessionID, result.Success, len(result.Assets))

	return result
}

// PreviewDomain returns the hosting domain previews are served under
func PreviewDomain() string {
	if d := os.Getenv("PREVIEW_DOMAIN"); d != "" {
		return d
	}
	return "preview.appfoundry.dev"
}

// PreviewURL derives the deterministic preview URL for a session. The
// deployment identifier equals the session identifier.
func PreviewURL(sessionID, domain string) string {
	return fmt.Sprintf("https://%s.%s", sessionID, domain)
}

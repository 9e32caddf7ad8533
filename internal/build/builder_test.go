package build

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/appfoundry/app-builder/generation-orchestrator/internal/models"
)

func TestSimulatedBuild(t *testing.T) {
	b := NewSimulatedBuilder()

	result := b.Build(context.Background(), Input{
		SessionID: "sess-1",
		Framework: "react",
		Files: []models.GeneratedFile{
			{Path: "src/App.tsx", Content: "x", Phase: models.PhaseStyling},
			{Path: "src/index.ts", Content: "y", Phase: models.PhaseCore},
		},
	})

	assert.True(t, result.Success)
	assert.Empty(t, result.Errors)
	require.Contains(t, result.Assets, "index.html")
	require.Contains(t, result.Assets, "bundle.js")
	assert.Contains(t, result.Assets["bundle.js"], "src/App.tsx")
	assert.Contains(t, result.Assets["bundle.js"], "sess-1")
}

func TestSimulatedBuildEmptyFileSet(t *testing.T) {
	b := NewSimulatedBuilder()

	result := b.Build(context.Background(), Input{SessionID: "sess-2"})

	// An empty generation still builds, with a warning instead of an error
	assert.True(t, result.Success)
	assert.NotEmpty(t, result.Warnings)
	assert.Contains(t, result.Assets, "index.html")
}

func TestSimulatedBuildDefaultsFramework(t *testing.T) {
	b := NewSimulatedBuilder()

	result := b.Build(context.Background(), Input{SessionID: "sess-3"})
	assert.Contains(t, result.Assets["bundle.js"], DefaultFramework)
}

func TestPreviewURL(t *testing.T) {
	assert.Equal(t, "https://sess-1.preview.appfoundry.dev", PreviewURL("sess-1", "preview.appfoundry.dev"))
}

func TestPreviewDomain(t *testing.T) {
	t.Setenv("PREVIEW_DOMAIN", "")
	assert.Equal(t, "preview.appfoundry.dev", PreviewDomain())

	t.Setenv("PREVIEW_DOMAIN", "apps.example.com")
	assert.Equal(t, "apps.example.com", PreviewDomain())
}

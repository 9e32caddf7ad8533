package generation

import (
	"encoding/json"
	"fmt"

	"github.com/appfoundry/app-builder/generation-orchestrator/internal/models"
)

// ResponseKind classifies the shape of a raw LLM response
type ResponseKind int

const (
	// KindStructuredFiles is a JSON array of {path, content} entries
	KindStructuredFiles ResponseKind = iota
	// KindSingleNote is any other valid JSON value
	KindSingleNote
	// KindRawText is anything that failed to parse as JSON
	KindRawText
)

// fileEntry is one element of a structured file-list response. Content is a
// pointer so an explicitly empty file is distinguishable from an absent key.
type fileEntry struct {
	Path    string  `json:"path"`
	Content *string `json:"content"`
}

// ClassifyResponse decides which parsing policy applies to a raw response.
// The explicit classification keeps the fallback ladder testable instead of
// shape-sniffing at each use site.
func ClassifyResponse(raw string) ResponseKind {
	var any interface{}
	if err := json.Unmarshal([]byte(raw), &any); err != nil {
		return KindRawText
	}
	if _, ok := any.([]interface{}); ok {
		return KindStructuredFiles
	}
	return KindSingleNote
}

// ParsePlanningResponse interprets the planning phase's output. Valid JSON is
// re-serialized with 2-space indentation into project-structure.json; anything
// else is preserved verbatim as planning-notes.txt. Never returns an error.
func ParsePlanningResponse(raw string) []models.GeneratedFile {
	var parsed interface{}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return []models.GeneratedFile{{
			Path:    "planning-notes.txt",
			Content: raw,
			Phase:   models.PhasePlanning,
		}}
	}

	pretty, err := json.MarshalIndent(parsed, "", "  ")
	if err != nil {
		return []models.GeneratedFile{{
			Path:    "planning-notes.txt",
			Content: raw,
			Phase:   models.PhasePlanning,
		}}
	}

	return []models.GeneratedFile{{
		Path:    "project-structure.json",
		Content: string(pretty),
		Phase:   models.PhasePlanning,
	}}
}

// ParseFileResponse interprets a text-generating phase's output. A JSON array
// maps entry-by-entry into GeneratedFiles, defaulting missing paths to a
// phase-indexed filename and missing content to the raw entry. Any other
// shape degrades to a single fallback file named by phase. Never returns an
// error.
func ParseFileResponse(phase, raw string) []models.GeneratedFile {
	if phase == models.PhasePlanning {
		return ParsePlanningResponse(raw)
	}

	if ClassifyResponse(raw) != KindStructuredFiles {
		return fallbackFile(phase, raw)
	}

	var entries []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return fallbackFile(phase, raw)
	}

	files := make([]models.GeneratedFile, 0, len(entries))
	for i, entry := range entries {
		var fe fileEntry
		if err := json.Unmarshal(entry, &fe); err != nil || fe.Content == nil {
			// Entry is not a {path, content} object: keep its raw text
			raw := string(entry)
			fe.Content = &raw
		}
		if fe.Path == "" {
			fe.Path = fmt.Sprintf("%s-%d.txt", phase, i+1)
		}
		files = append(files, models.GeneratedFile{
			Path:    fe.Path,
			Content: *fe.Content,
			Phase:   phase,
		})
	}

	return files
}

func fallbackFile(phase, raw string) []models.GeneratedFile {
	return []models.GeneratedFile{{
		Path:    fmt.Sprintf("%s-output.txt", phase),
		Content: raw,
		Phase:   phase,
	}}
}

package models

// VisualStyle captures the look-and-feel portion of an app specification
type VisualStyle struct {
	Theme       string   `json:"theme"`
	Palette     []string `json:"palette"`
	Font        string   `json:"font"`
	Vibe        string   `json:"vibe"`
	Motion      string   `json:"motion"`
	FavoriteApp string   `json:"favorite_app,omitempty"`
	Screenshots []string `json:"screenshots,omitempty"`
}

// UserRequirements is the canonical app specification produced by user intake.
// It is immutable once a generation run starts; every core component reads it,
// none mutate it.
type UserRequirements struct {
	Name           string            `json:"name" binding:"required"`
	JTBD           string            `json:"jtbd" binding:"required"` // job-to-be-done description
	InputSources   []string          `json:"input_sources"`
	OutputTypes    []string          `json:"output_types"`
	RequiredAPIs   []string          `json:"required_apis"`
	ChainNext      bool              `json:"chain_next"`
	VisualStyle    VisualStyle       `json:"visual_style"`
	ModelSelection map[string]string `json:"model_selection,omitempty"` // task -> model override
}

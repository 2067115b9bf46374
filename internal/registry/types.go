// Package registry implements the model, trend and brand registry service:
// AI model records with usage metrics, viral-potential predictions, detected
// trends, and brand voice profiles.
package registry

import "github.com/digitull/SocialWave-sub001/pkg/types"

// ModelRequest describes a model to register.
type ModelRequest struct {
	Name         string     `json:"name"`
	Version      string     `json:"version"`
	ModelType    string     `json:"model_type"`
	Capabilities []string   `json:"capabilities"`
	Metadata     []types.KV `json:"metadata,omitempty"`
}

// ModelQuery filters ListModels. Nil or empty fields impose no constraint;
// the rest are combined with AND.
type ModelQuery struct {
	// NameContains is a case-sensitive substring of the model name.
	NameContains  string  `json:"name_contains,omitempty"`
	ModelType     *string `json:"model_type,omitempty"`
	Owner         *string `json:"owner,omitempty"`
	Active        *bool   `json:"active,omitempty"`
	CreatedAfter  *int64  `json:"created_after,omitempty"`
	CreatedBefore *int64  `json:"created_before,omitempty"`
}

// BrandRequest describes a brand profile to create.
type BrandRequest struct {
	Name         string   `json:"name"`
	Persona      string   `json:"persona"`
	Tone         string   `json:"tone"`
	Guidelines   string   `json:"guidelines"`
	KeyPhrases   []string `json:"key_phrases"`
	AvoidPhrases []string `json:"avoid_phrases"`
}

// Stats summarizes the registry contents.
type Stats struct {
	Models        int    `json:"models"`
	ActiveModels  int    `json:"active_models"`
	TotalUsage    uint64 `json:"total_usage"`
	TotalTokens   uint64 `json:"total_tokens"`
	Predictions   int    `json:"predictions"`
	Trends        int    `json:"trends"`
	BrandProfiles int    `json:"brand_profiles"`
}

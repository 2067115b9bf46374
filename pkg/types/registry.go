package types

// ModelRecord describes a registered AI model.
type ModelRecord struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Version      string   `json:"version"`
	ModelType    string   `json:"model_type"`
	Capabilities []string `json:"capabilities"`
	Owner        string   `json:"owner"`
	CreatedAt    int64    `json:"created_at"`
	UpdatedAt    int64    `json:"updated_at"`
	Active       bool     `json:"active"`
	Metadata     []KV     `json:"metadata"`
}

// ModelMetrics is the usage aggregate paired 1:1 with a ModelRecord.
type ModelMetrics struct {
	ModelID               string  `json:"model_id"`
	UsageCount            uint64  `json:"usage_count"`
	LastUsed              int64   `json:"last_used"`
	AverageResponseTimeMs float64 `json:"average_response_time_ms"`
	SuccessRate           float64 `json:"success_rate"`
	TotalTokensProcessed  uint64  `json:"total_tokens_processed"`
}

// Factor is a named contribution to a prediction score.
type Factor struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
}

// PredictionRecord is a write-once viral potential prediction.
type PredictionRecord struct {
	ID             string   `json:"id"`
	ContentID      string   `json:"content_id"`
	PredictedScore float64  `json:"predicted_score"`
	Confidence     float64  `json:"confidence"`
	Factors        []Factor `json:"factors"`
	Timestamp      int64    `json:"timestamp"`
}

// TrendRecord is a detected trending topic.
type TrendRecord struct {
	ID        string   `json:"id"`
	Topic     string   `json:"topic"`
	Score     float64  `json:"score"`
	Momentum  float64  `json:"momentum"`
	Category  string   `json:"category"`
	Sources   []string `json:"sources"`
	Timestamp int64    `json:"timestamp"`
}

// BrandProfile captures a brand's voice for alignment analysis.
type BrandProfile struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Persona      string   `json:"persona"`
	Tone         string   `json:"tone"`
	Guidelines   string   `json:"guidelines"`
	KeyPhrases   []string `json:"key_phrases"`
	AvoidPhrases []string `json:"avoid_phrases"`
	Owner        string   `json:"owner"`
	CreatedAt    int64    `json:"created_at"`
	UpdatedAt    int64    `json:"updated_at"`
}

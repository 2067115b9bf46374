package registry

import "github.com/digitull/SocialWave-sub001/pkg/types"

// applyUsage folds one usage report into running metrics. Response time and
// success rate are running means over every report.
func applyUsage(prev types.ModelMetrics, modelID string, now int64, responseTimeMs float64, success bool, tokens uint64) types.ModelMetrics {
	m := prev
	m.ModelID = modelID

	n := float64(m.UsageCount)
	outcome := 0.0
	if success {
		outcome = 1.0
	}
	m.AverageResponseTimeMs = (m.AverageResponseTimeMs*n + responseTimeMs) / (n + 1)
	m.SuccessRate = (m.SuccessRate*n + outcome) / (n + 1)

	m.UsageCount++
	m.LastUsed = now
	m.TotalTokensProcessed += tokens
	return m
}

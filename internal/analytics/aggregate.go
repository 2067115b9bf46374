package analytics

import (
	"maps"
	"sort"

	"github.com/digitull/SocialWave-sub001/pkg/types"
)

// topPlatformCount is the number of platforms kept in TopPlatforms.
const topPlatformCount = 3

// applyEngagement folds one event into its actor's summary. Summaries are
// replaced wholesale; the platform map is copied so values handed out earlier
// never change underneath a reader.
func applyEngagement(prev types.EngagementSummary, found bool, e types.Event, kind EventKind) types.EngagementSummary {
	sum := prev
	if !found {
		sum = types.EngagementSummary{
			UserID:       e.UserID,
			LastActivity: e.Timestamp,
			TopPlatforms: []string{},
		}
	}
	if e.Timestamp > sum.LastActivity {
		sum.LastActivity = e.Timestamp
	}
	if kind == KindOther {
		return sum
	}

	switch kind {
	case KindView:
		sum.TotalViews++
	case KindLike:
		sum.TotalLikes++
	case KindShare:
		sum.TotalShares++
	case KindComment:
		sum.TotalComments++
	}

	if e.Platform != "" {
		counts := maps.Clone(sum.PlatformCounts)
		if counts == nil {
			counts = make(map[string]uint64)
		}
		counts[e.Platform]++
		sum.PlatformCounts = counts
		sum.TopPlatforms = topPlatforms(counts, topPlatformCount)
	}

	sum.AverageEngagementRate = engagementRate(sum.TotalLikes+sum.TotalShares+sum.TotalComments, sum.TotalViews)
	return sum
}

// applyPerformance folds one event into its subject's summary.
func applyPerformance(prev types.PerformanceSummary, found bool, e types.Event, kind EventKind) types.PerformanceSummary {
	sum := prev
	if !found {
		sum = types.PerformanceSummary{
			ContentID:         e.ContentID,
			PeakEngagement:    e.Timestamp,
			PlatformBreakdown: map[string]uint64{},
		}
	}
	if kind == KindOther {
		return sum
	}

	switch kind {
	case KindView:
		sum.Views++
	case KindLike:
		sum.Likes++
	case KindShare:
		sum.Shares++
	case KindComment:
		sum.Comments++
	}

	if e.Platform != "" {
		breakdown := maps.Clone(sum.PlatformBreakdown)
		if breakdown == nil {
			breakdown = make(map[string]uint64)
		}
		breakdown[e.Platform]++
		sum.PlatformBreakdown = breakdown
	}

	rate := engagementRate(sum.Interactions(), sum.Views)
	if rate > sum.EngagementRate {
		sum.PeakEngagement = e.Timestamp
	}
	sum.EngagementRate = rate
	sum.ViralCoefficient = engagementRate(sum.Shares, sum.Views)
	return sum
}

// engagementRate is interactions/views, 0 when there are no views.
func engagementRate(interactions, views uint64) float64 {
	if views == 0 {
		return 0
	}
	return float64(interactions) / float64(views)
}

// topPlatforms returns up to n platforms by descending count, ties by name.
func topPlatforms(counts map[string]uint64, n int) []string {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		ci, cj := counts[names[i]], counts[names[j]]
		if ci != cj {
			return ci > cj
		}
		return names[i] < names[j]
	})
	if len(names) > n {
		names = names[:n]
	}
	return names
}

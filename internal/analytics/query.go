package analytics

import (
	"sort"
	"time"

	swerrors "github.com/digitull/SocialWave-sub001/internal/errors"
	"github.com/digitull/SocialWave-sub001/internal/ident"
	"github.com/digitull/SocialWave-sub001/internal/store"
	"github.com/digitull/SocialWave-sub001/pkg/types"
)

const (
	dashboardWindow = 24 * time.Hour

	defaultTrendHours = 24
	// maxTrendHours bounds the number of bins a single request can allocate.
	maxTrendHours = 24 * 31
)

// GetUserEngagement returns the summary for user.
func (s *Service) GetUserEngagement(userID string) (types.EngagementSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sum, ok := s.stores.Engagement.Get(userID)
	if !ok {
		return types.EngagementSummary{}, swerrors.NewNotFoundError(swerrors.CodeUserNotFound,
			"no engagement recorded for user %s", userID)
	}
	return sum, nil
}

// GetContentPerformance returns the summary for content.
func (s *Service) GetContentPerformance(contentID string) (types.PerformanceSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sum, ok := s.stores.Performance.Get(contentID)
	if !ok {
		return types.PerformanceSummary{}, swerrors.NewNotFoundError(swerrors.CodeContentNotFound,
			"no performance recorded for content %s", contentID)
	}
	return sum, nil
}

// GetTopPerformingContent returns at most limit summaries by descending
// engagement rate. Equal rates are ordered by content id.
func (s *Service) GetTopPerformingContent(limit int) []types.PerformanceSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return rankByRate(s.stores.Performance.Values(), limit)
}

// GetViralContent returns viewed content whose engagement rate is at least
// threshold, by descending rate.
func (s *Service) GetViralContent(threshold float64) []types.PerformanceSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	viral := store.Filter(s.stores.Performance.Values(), func(p types.PerformanceSummary) bool {
		return p.Views > 0 && p.EngagementRate >= threshold
	})
	return rankByRate(viral, len(viral))
}

func rankByRate(values []types.PerformanceSummary, limit int) []types.PerformanceSummary {
	return store.TopK(values, limit,
		func(p types.PerformanceSummary) float64 { return p.EngagementRate },
		func(a, b types.PerformanceSummary) bool { return a.ContentID < b.ContentID },
	)
}

// GetPlatformAnalytics summarizes every event recorded on platform. An
// unknown platform yields a zero report.
func (s *Service) GetPlatformAnalytics(platform string) PlatformReport {
	s.mu.RLock()
	defer s.mu.RUnlock()

	report := PlatformReport{Platform: platform}
	users := make(map[string]struct{})
	content := make(map[string]struct{})

	s.stores.Events.Range(func(_ string, e types.Event) bool {
		if e.Platform != platform {
			return true
		}
		report.TotalEvents++
		switch KindOf(e.Type) {
		case KindView:
			report.Views++
		case KindLike:
			report.Likes++
		case KindShare:
			report.Shares++
		case KindComment:
			report.Comments++
		default:
			report.Other++
		}
		if e.HasActor() {
			users[e.UserID] = struct{}{}
		}
		if e.HasSubject() {
			content[e.ContentID] = struct{}{}
		}
		if report.FirstEvent == 0 || e.Timestamp < report.FirstEvent {
			report.FirstEvent = e.Timestamp
		}
		if e.Timestamp > report.LastEvent {
			report.LastEvent = e.Timestamp
		}
		return true
	})

	report.UniqueUsers = len(users)
	report.UniqueContent = len(content)
	return report
}

// GetTimeSeriesData returns one point of value 1 per event with
// start <= timestamp <= end, optionally restricted to platform. Points are
// ordered by timestamp, then event id.
func (s *Service) GetTimeSeriesData(start, end int64, platform string) []TimeSeriesPoint {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var platformFilter *string
	if platform != "" {
		platformFilter = &platform
	}
	matched := store.Filter(s.stores.Events.Values(),
		store.Between(&start, &end, func(e types.Event) int64 { return e.Timestamp }),
		store.Equals(platformFilter, func(e types.Event) string { return e.Platform }),
	)

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Timestamp != matched[j].Timestamp {
			return matched[i].Timestamp < matched[j].Timestamp
		}
		return ident.Less(matched[i].ID, matched[j].ID)
	})

	points := make([]TimeSeriesPoint, len(matched))
	for i, e := range matched {
		points[i] = TimeSeriesPoint{EventID: e.ID, Timestamp: e.Timestamp, Value: 1.0}
	}
	return points
}

// GetDashboardStats returns store totals and the number of events in the
// last 24 hours.
func (s *Service) GetDashboardStats() DashboardStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := DashboardStats{
		TotalEvents:  s.stores.Events.Len(),
		TotalUsers:   s.stores.Engagement.Len(),
		TotalContent: s.stores.Performance.Len(),
	}
	since := s.now().Add(-dashboardWindow).UnixNano()

	s.stores.Events.Range(func(_ string, e types.Event) bool {
		switch KindOf(e.Type) {
		case KindView:
			stats.TotalViews++
		case KindLike:
			stats.TotalLikes++
		case KindShare:
			stats.TotalShares++
		case KindComment:
			stats.TotalComments++
		}
		if e.Timestamp >= since {
			stats.EventsLast24h++
		}
		return true
	})
	return stats
}

// GetEngagementTrends bins the last hours of events by hour, oldest first.
// hours <= 0 means 24.
func (s *Service) GetEngagementTrends(hours int) []TrendBin {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if hours <= 0 {
		hours = defaultTrendHours
	}
	if hours > maxTrendHours {
		hours = maxTrendHours
	}

	now := s.now().UnixNano()
	width := int64(time.Hour)
	start := now - int64(hours)*width

	bins := make([]TrendBin, hours)
	for i := range bins {
		bins[i].Start = start + int64(i)*width
		bins[i].End = bins[i].Start + width
	}

	s.stores.Events.Range(func(_ string, e types.Event) bool {
		if e.Timestamp < start || e.Timestamp > now {
			return true
		}
		idx := int((e.Timestamp - start) / width)
		if idx >= hours {
			idx = hours - 1
		}
		bin := &bins[idx]
		bin.Events++
		switch KindOf(e.Type) {
		case KindView:
			bin.Views++
		case KindLike:
			bin.Likes++
		case KindShare:
			bin.Shares++
		case KindComment:
			bin.Comments++
		}
		return true
	})
	return bins
}

// GetStatus reports service health and store sizes.
func (s *Service) GetStatus() Status {
	// The state func may take other locks; read it outside s.mu.
	state := s.state()

	s.mu.RLock()
	defer s.mu.RUnlock()

	var last int64
	s.stores.Events.Range(func(_ string, e types.Event) bool {
		if e.Timestamp > last {
			last = e.Timestamp
		}
		return true
	})

	return Status{
		Service:       ServiceName,
		State:         state,
		Events:        s.stores.Events.Len(),
		Users:         s.stores.Engagement.Len(),
		Content:       s.stores.Performance.Len(),
		LastEventAt:   last,
		UptimeSeconds: s.now().Sub(s.startedAt).Seconds(),
	}
}

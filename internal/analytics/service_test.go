package analytics

import (
	"testing"
	"time"

	swerrors "github.com/digitull/SocialWave-sub001/internal/errors"
	"github.com/digitull/SocialWave-sub001/internal/ident"
	"github.com/digitull/SocialWave-sub001/pkg/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newTestService(t *testing.T) (*Service, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: baseTime}
	svc := NewService(NewStores(), ident.NewGenerator(), zerolog.Nop(), nil, WithClock(clock.now))
	return svc, clock
}

func track(t *testing.T, svc *Service, in EventInput) string {
	t.Helper()
	id, err := svc.TrackEvent(in)
	require.NoError(t, err)
	return id
}

func TestKindOf(t *testing.T) {
	cases := map[string]EventKind{
		"view":            KindView,
		"content_view":    KindView,
		"content_like":    KindLike,
		"share":           KindShare,
		"content_comment": KindComment,
		"created":         KindOther,
		"View":            KindOther,
		"":                KindOther,
	}
	for tag, want := range cases {
		assert.Equal(t, want, KindOf(tag), "tag %q", tag)
	}
}

func TestValidateKindTags(t *testing.T) {
	require.NoError(t, validateKindTags(kindTags))

	assert.Error(t, validateKindTags(map[string]EventKind{"view": KindView}), "missing kinds")
	assert.Error(t, validateKindTags(map[string]EventKind{
		"view": KindView, "like": KindLike, "share": KindShare, "comment": KindComment,
		"created": KindOther,
	}), "explicit other")
}

func TestTrackEvent_ExampleScenario(t *testing.T) {
	svc, _ := newTestService(t)

	track(t, svc, EventInput{Type: "content_view", ContentID: "c1", Platform: "tiktok"})
	track(t, svc, EventInput{Type: "content_like", ContentID: "c1", Platform: "tiktok"})
	track(t, svc, EventInput{Type: "content_view", ContentID: "c1", Platform: "instagram"})

	perf, err := svc.GetContentPerformance("c1")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), perf.Views)
	assert.Equal(t, uint64(1), perf.Likes)
	assert.Equal(t, uint64(0), perf.Shares)
	assert.Equal(t, uint64(0), perf.Comments)
	assert.Equal(t, 0.5, perf.EngagementRate)
	assert.Equal(t, map[string]uint64{"tiktok": 2, "instagram": 1}, perf.PlatformBreakdown)
}

func TestTrackEvent_AllocatesSequentialIDs(t *testing.T) {
	svc, _ := newTestService(t)

	assert.Equal(t, "event_1", track(t, svc, EventInput{Type: "view"}))
	assert.Equal(t, "event_2", track(t, svc, EventInput{Type: "view"}))
}

func TestTrackEvent_NoActorOrSubjectCreatesNoSummaries(t *testing.T) {
	svc, _ := newTestService(t)
	track(t, svc, EventInput{Type: "view", Platform: "web"})

	stats := svc.GetDashboardStats()
	assert.Equal(t, 1, stats.TotalEvents)
	assert.Equal(t, 0, stats.TotalUsers)
	assert.Equal(t, 0, stats.TotalContent)
}

func TestTrackEvent_UnknownTagTouchesOnlyActivity(t *testing.T) {
	svc, _ := newTestService(t)

	track(t, svc, EventInput{Type: "view", UserID: "u1", ContentID: "c1", Platform: "x", Timestamp: 100})
	track(t, svc, EventInput{Type: "created", UserID: "u1", ContentID: "c1", Platform: "x", Timestamp: 200})

	eng, err := svc.GetUserEngagement("u1")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), eng.TotalViews)
	assert.Equal(t, int64(200), eng.LastActivity)
	assert.Equal(t, map[string]uint64{"x": 1}, eng.PlatformCounts)

	perf, err := svc.GetContentPerformance("c1")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), perf.Views)
	assert.Equal(t, map[string]uint64{"x": 1}, perf.PlatformBreakdown)
}

func TestTrackEvent_FirstEventOfUnknownKindCreatesZeroSummary(t *testing.T) {
	svc, _ := newTestService(t)
	track(t, svc, EventInput{Type: "created", UserID: "u9", ContentID: "c9", Timestamp: 42})

	eng, err := svc.GetUserEngagement("u9")
	require.NoError(t, err)
	assert.Equal(t, int64(42), eng.LastActivity)
	assert.Zero(t, eng.TotalViews)

	perf, err := svc.GetContentPerformance("c9")
	require.NoError(t, err)
	assert.Equal(t, int64(42), perf.PeakEngagement)
	assert.Zero(t, perf.EngagementRate)
}

func TestEngagementSummary_RateAndTopPlatforms(t *testing.T) {
	svc, _ := newTestService(t)
	inputs := []EventInput{
		{Type: "view", UserID: "u1", Platform: "youtube"},
		{Type: "view", UserID: "u1", Platform: "youtube"},
		{Type: "view", UserID: "u1", Platform: "tiktok"},
		{Type: "view", UserID: "u1", Platform: "instagram"},
		{Type: "like", UserID: "u1", Platform: "twitter"},
		{Type: "share", UserID: "u1", Platform: "tiktok"},
	}
	n, err := svc.ProcessBatch(inputs)
	require.NoError(t, err)
	assert.Equal(t, len(inputs), n)

	eng, err := svc.GetUserEngagement("u1")
	require.NoError(t, err)
	assert.Equal(t, 0.5, eng.AverageEngagementRate)
	assert.Equal(t, []string{"tiktok", "youtube", "instagram"}, eng.TopPlatforms)
}

func TestPerformanceSummary_ViralCoefficientAndPeak(t *testing.T) {
	svc, _ := newTestService(t)

	track(t, svc, EventInput{Type: "view", ContentID: "c1", Timestamp: 10})
	track(t, svc, EventInput{Type: "share", ContentID: "c1", Timestamp: 20})
	track(t, svc, EventInput{Type: "view", ContentID: "c1", Timestamp: 30})
	track(t, svc, EventInput{Type: "comment", ContentID: "c1", Timestamp: 40})

	perf, err := svc.GetContentPerformance("c1")
	require.NoError(t, err)
	assert.Equal(t, 0.5, perf.ViralCoefficient)
	assert.Equal(t, 1.0, perf.EngagementRate)
	assert.Equal(t, int64(40), perf.PeakEngagement, "the comment raised the rate from 0.5 to 1.0")

	track(t, svc, EventInput{Type: "view", ContentID: "c1", Timestamp: 50})
	perf, err = svc.GetContentPerformance("c1")
	require.NoError(t, err)
	assert.Equal(t, int64(40), perf.PeakEngagement, "a falling rate leaves the peak in place")
}

func TestGetUserEngagement_NotFound(t *testing.T) {
	svc, _ := newTestService(t)
	track(t, svc, EventInput{Type: "view", UserID: "someone"})

	sum, err := svc.GetUserEngagement("nobody")
	require.Error(t, err)
	assert.True(t, swerrors.IsNotFound(err))
	assert.Equal(t, swerrors.CodeUserNotFound, swerrors.GetCode(err))
	assert.Zero(t, sum)

	_, err = svc.GetContentPerformance("nothing")
	assert.Equal(t, swerrors.CodeContentNotFound, swerrors.GetCode(err))
}

func TestGetTimeSeriesData_InclusiveWindow(t *testing.T) {
	svc, _ := newTestService(t)
	for _, ts := range []int64{10, 20, 30} {
		track(t, svc, EventInput{Type: "view", Platform: "web", Timestamp: ts})
	}

	points := svc.GetTimeSeriesData(15, 25, "")
	require.Len(t, points, 1)
	assert.Equal(t, int64(20), points[0].Timestamp)
	assert.Equal(t, 1.0, points[0].Value)

	assert.Len(t, svc.GetTimeSeriesData(10, 30, ""), 3, "bounds are inclusive")
	assert.Empty(t, svc.GetTimeSeriesData(10, 30, "mobile"))
}

func TestGetTimeSeriesData_OrderedByTimestampThenID(t *testing.T) {
	svc, _ := newTestService(t)
	for i := 0; i < 11; i++ {
		track(t, svc, EventInput{Type: "view", Platform: "web", Timestamp: int64(100 - i%2)})
	}

	points := svc.GetTimeSeriesData(0, 1000, "web")
	require.Len(t, points, 11)
	for i := 1; i < len(points); i++ {
		prev, cur := points[i-1], points[i]
		if prev.Timestamp == cur.Timestamp {
			assert.True(t, ident.Less(prev.EventID, cur.EventID), "%s before %s", prev.EventID, cur.EventID)
		} else {
			assert.Less(t, prev.Timestamp, cur.Timestamp)
		}
	}
}

func TestGetTopPerformingContent(t *testing.T) {
	svc, _ := newTestService(t)
	// c1: 1.0, c2: 0.5, c3: 0.5, c4: 0
	for _, in := range []EventInput{
		{Type: "view", ContentID: "c1"}, {Type: "like", ContentID: "c1"},
		{Type: "view", ContentID: "c2"}, {Type: "view", ContentID: "c2"}, {Type: "like", ContentID: "c2"},
		{Type: "view", ContentID: "c3"}, {Type: "view", ContentID: "c3"}, {Type: "share", ContentID: "c3"},
		{Type: "view", ContentID: "c4"},
	} {
		track(t, svc, in)
	}

	top := svc.GetTopPerformingContent(3)
	require.Len(t, top, 3)
	assert.Equal(t, []string{"c1", "c2", "c3"}, contentIDs(top))

	assert.Len(t, svc.GetTopPerformingContent(10), 4, "all items when population <= limit")
	assert.Empty(t, svc.GetTopPerformingContent(0))
}

func TestGetViralContent(t *testing.T) {
	svc, _ := newTestService(t)
	for _, in := range []EventInput{
		{Type: "view", ContentID: "a"}, {Type: "like", ContentID: "a"}, {Type: "share", ContentID: "a"},
		{Type: "view", ContentID: "b"}, {Type: "view", ContentID: "b"}, {Type: "like", ContentID: "b"},
		{Type: "like", ContentID: "unviewed"},
	} {
		track(t, svc, in)
	}

	viral := svc.GetViralContent(0.5)
	assert.Equal(t, []string{"a", "b"}, contentIDs(viral))
	assert.Equal(t, []string{"a"}, contentIDs(svc.GetViralContent(1.5)))
}

func TestGetPlatformAnalytics(t *testing.T) {
	svc, _ := newTestService(t)
	for _, in := range []EventInput{
		{Type: "view", UserID: "u1", ContentID: "c1", Platform: "tiktok", Timestamp: 5},
		{Type: "like", UserID: "u2", ContentID: "c1", Platform: "tiktok", Timestamp: 9},
		{Type: "created", UserID: "u1", ContentID: "c2", Platform: "tiktok", Timestamp: 7},
		{Type: "view", UserID: "u3", ContentID: "c3", Platform: "youtube", Timestamp: 1},
	} {
		track(t, svc, in)
	}

	report := svc.GetPlatformAnalytics("tiktok")
	assert.Equal(t, PlatformReport{
		Platform:      "tiktok",
		TotalEvents:   3,
		Views:         1,
		Likes:         1,
		Other:         1,
		UniqueUsers:   2,
		UniqueContent: 2,
		FirstEvent:    5,
		LastEvent:     9,
	}, report)

	assert.Equal(t, PlatformReport{Platform: "none"}, svc.GetPlatformAnalytics("none"))
}

func TestGetDashboardStats_Last24Hours(t *testing.T) {
	svc, clock := newTestService(t)
	now := clock.t

	track(t, svc, EventInput{Type: "view", UserID: "u1", ContentID: "c1", Timestamp: now.Add(-time.Hour).UnixNano()})
	track(t, svc, EventInput{Type: "like", UserID: "u1", ContentID: "c1", Timestamp: now.Add(-48 * time.Hour).UnixNano()})
	track(t, svc, EventInput{Type: "share", UserID: "u2", ContentID: "c2"})

	stats := svc.GetDashboardStats()
	assert.Equal(t, DashboardStats{
		TotalEvents:   3,
		TotalUsers:    2,
		TotalContent:  2,
		TotalViews:    1,
		TotalLikes:    1,
		TotalShares:   1,
		EventsLast24h: 2,
	}, stats)
}

func TestGetEngagementTrends(t *testing.T) {
	svc, clock := newTestService(t)
	now := clock.t

	track(t, svc, EventInput{Type: "view", Timestamp: now.Add(-90 * time.Minute).UnixNano()})
	track(t, svc, EventInput{Type: "like", Timestamp: now.Add(-30 * time.Minute).UnixNano()})
	track(t, svc, EventInput{Type: "comment"})
	track(t, svc, EventInput{Type: "view", Timestamp: now.Add(-5 * time.Hour).UnixNano()})

	bins := svc.GetEngagementTrends(2)
	require.Len(t, bins, 2)
	assert.Equal(t, now.Add(-2*time.Hour).UnixNano(), bins[0].Start)
	assert.Equal(t, TrendBin{Start: bins[0].Start, End: bins[0].End, Events: 1, Views: 1}, bins[0])
	assert.Equal(t, uint64(2), bins[1].Events)
	assert.Equal(t, uint64(1), bins[1].Likes)
	assert.Equal(t, uint64(1), bins[1].Comments)

	assert.Len(t, svc.GetEngagementTrends(0), 24)
}

func TestGetStatus(t *testing.T) {
	clock := &fakeClock{t: baseTime}
	svc := NewService(NewStores(), ident.NewGenerator(), zerolog.Nop(), nil,
		WithClock(clock.now),
		WithStateFunc(func() string { return "warm" }),
	)
	track(t, svc, EventInput{Type: "view", UserID: "u1", Timestamp: 77})
	clock.t = clock.t.Add(time.Minute)

	status := svc.GetStatus()
	assert.Equal(t, ServiceName, status.Service)
	assert.Equal(t, "warm", status.State)
	assert.Equal(t, 1, status.Events)
	assert.Equal(t, 1, status.Users)
	assert.Equal(t, int64(77), status.LastEventAt)
	assert.Equal(t, 60.0, status.UptimeSeconds)
}

func TestQueriesDoNotMutate(t *testing.T) {
	svc, _ := newTestService(t)
	track(t, svc, EventInput{Type: "view", UserID: "u1", ContentID: "c1"})
	before := svc.GetDashboardStats()

	_, _ = svc.GetUserEngagement("ghost")
	_, _ = svc.GetContentPerformance("ghost")
	svc.GetTopPerformingContent(5)
	svc.GetPlatformAnalytics("ghost")
	svc.GetEngagementTrends(3)

	assert.Equal(t, before, svc.GetDashboardStats())
}

func TestReturnedSummariesAreNotAliased(t *testing.T) {
	svc, _ := newTestService(t)
	track(t, svc, EventInput{Type: "view", ContentID: "c1", Platform: "web"})

	first, err := svc.GetContentPerformance("c1")
	require.NoError(t, err)
	track(t, svc, EventInput{Type: "view", ContentID: "c1", Platform: "web"})

	assert.Equal(t, uint64(1), first.PlatformBreakdown["web"], "earlier reads must not observe later writes")
}

func contentIDs(values []types.PerformanceSummary) []string {
	ids := make([]string, len(values))
	for i, v := range values {
		ids[i] = v.ContentID
	}
	return ids
}

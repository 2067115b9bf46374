// Package analytics implements the events service: it records content
// interactions, keeps per-user and per-content summaries current on every
// write, and answers aggregate queries over them.
package analytics

import (
	"fmt"

	"github.com/digitull/SocialWave-sub001/pkg/types"
)

// EventKind is the closed set of interaction kinds the aggregation counts.
type EventKind int

const (
	KindOther EventKind = iota
	KindView
	KindLike
	KindShare
	KindComment
)

// String returns the metric label for the kind.
func (k EventKind) String() string {
	switch k {
	case KindView:
		return "view"
	case KindLike:
		return "like"
	case KindShare:
		return "share"
	case KindComment:
		return "comment"
	default:
		return "other"
	}
}

// kindTags maps event tags to counted kinds. Tags not listed are KindOther.
var kindTags = map[string]EventKind{
	"view":            KindView,
	"content_view":    KindView,
	"like":            KindLike,
	"content_like":    KindLike,
	"share":           KindShare,
	"content_share":   KindShare,
	"comment":         KindComment,
	"content_comment": KindComment,
}

func init() {
	if err := validateKindTags(kindTags); err != nil {
		panic(err)
	}
}

// validateKindTags checks that every counted kind is reachable and that no
// tag is mapped to KindOther explicitly.
func validateKindTags(tags map[string]EventKind) error {
	seen := make(map[EventKind]bool)
	for tag, kind := range tags {
		if tag == "" {
			return fmt.Errorf("analytics: empty event tag in kind table")
		}
		if kind <= KindOther || kind > KindComment {
			return fmt.Errorf("analytics: tag %q maps to uncounted kind %d", tag, kind)
		}
		seen[kind] = true
	}
	for _, k := range []EventKind{KindView, KindLike, KindShare, KindComment} {
		if !seen[k] {
			return fmt.Errorf("analytics: kind %s has no tag", k)
		}
	}
	return nil
}

// KindOf classifies an event tag. Matching is exact.
func KindOf(tag string) EventKind {
	if k, ok := kindTags[tag]; ok {
		return k
	}
	return KindOther
}

// EventInput is a caller-supplied event before an id is allocated.
type EventInput struct {
	Type      string     `json:"event_type"`
	UserID    string     `json:"user_id,omitempty"`
	ContentID string     `json:"content_id,omitempty"`
	Platform  string     `json:"platform"`
	Metadata  []types.KV `json:"metadata,omitempty"`

	// Timestamp in nanoseconds. Zero means the time of the call.
	Timestamp int64 `json:"timestamp,omitempty"`
}

// PlatformReport summarizes all events seen on one platform.
type PlatformReport struct {
	Platform      string `json:"platform"`
	TotalEvents   uint64 `json:"total_events"`
	Views         uint64 `json:"views"`
	Likes         uint64 `json:"likes"`
	Shares        uint64 `json:"shares"`
	Comments      uint64 `json:"comments"`
	Other         uint64 `json:"other"`
	UniqueUsers   int    `json:"unique_users"`
	UniqueContent int    `json:"unique_content"`
	FirstEvent    int64  `json:"first_event"`
	LastEvent     int64  `json:"last_event"`
}

// TimeSeriesPoint is one event in a counting series.
type TimeSeriesPoint struct {
	EventID   string  `json:"event_id"`
	Timestamp int64   `json:"timestamp"`
	Value     float64 `json:"value"`
}

// DashboardStats is the service-wide overview.
type DashboardStats struct {
	TotalEvents   int    `json:"total_events"`
	TotalUsers    int    `json:"total_users"`
	TotalContent  int    `json:"total_content"`
	TotalViews    uint64 `json:"total_views"`
	TotalLikes    uint64 `json:"total_likes"`
	TotalShares   uint64 `json:"total_shares"`
	TotalComments uint64 `json:"total_comments"`
	EventsLast24h int    `json:"events_last_24h"`
}

// TrendBin counts events in one hour.
type TrendBin struct {
	Start    int64  `json:"start"`
	End      int64  `json:"end"`
	Events   uint64 `json:"events"`
	Views    uint64 `json:"views"`
	Likes    uint64 `json:"likes"`
	Shares   uint64 `json:"shares"`
	Comments uint64 `json:"comments"`
}

// Status reports service health and store sizes.
type Status struct {
	Service       string  `json:"service"`
	State         string  `json:"state"`
	Events        int     `json:"events"`
	Users         int     `json:"users"`
	Content       int     `json:"content"`
	LastEventAt   int64   `json:"last_event_at"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

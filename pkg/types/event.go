// Package types provides the entity records shared by the SocialWave services.
package types

// KV is a single metadata entry. Metadata is an ordered list of KV pairs;
// duplicate keys are allowed and order is preserved.
type KV struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Event is an immutable record of a single business interaction.
type Event struct {
	// ID is the event identifier (event_{n})
	ID string `json:"id"`

	// Type is the event tag as sent by the caller (e.g., "content_view")
	Type string `json:"event_type"`

	// UserID identifies the actor, empty when the event has no actor
	UserID string `json:"user_id,omitempty"`

	// ContentID identifies the subject, empty when the event has no subject
	ContentID string `json:"content_id,omitempty"`

	// Platform is the platform tag the event originated from
	Platform string `json:"platform"`

	// Metadata holds free-form key-value pairs in caller order
	Metadata []KV `json:"metadata"`

	// Timestamp is the Unix timestamp (nanoseconds) when the event was recorded
	Timestamp int64 `json:"timestamp"`
}

// HasActor reports whether the event references an actor.
func (e *Event) HasActor() bool { return e.UserID != "" }

// HasSubject reports whether the event references a subject.
func (e *Event) HasSubject() bool { return e.ContentID != "" }

// EngagementSummary is the running per-actor engagement aggregate.
type EngagementSummary struct {
	UserID                string            `json:"user_id"`
	TotalViews            uint64            `json:"total_views"`
	TotalLikes            uint64            `json:"total_likes"`
	TotalShares           uint64            `json:"total_shares"`
	TotalComments         uint64            `json:"total_comments"`
	AverageEngagementRate float64           `json:"average_engagement_rate"`
	LastActivity          int64             `json:"last_activity"`
	TopPlatforms          []string          `json:"top_platforms"`
	PlatformCounts        map[string]uint64 `json:"platform_counts,omitempty"`
}

// PerformanceSummary is the running per-content performance aggregate.
type PerformanceSummary struct {
	ContentID         string            `json:"content_id"`
	Views             uint64            `json:"views"`
	Likes             uint64            `json:"likes"`
	Shares            uint64            `json:"shares"`
	Comments          uint64            `json:"comments"`
	EngagementRate    float64           `json:"engagement_rate"`
	ViralCoefficient  float64           `json:"viral_coefficient"`
	PeakEngagement    int64             `json:"peak_engagement"`
	PlatformBreakdown map[string]uint64 `json:"platform_breakdown"`
}

// Interactions returns likes+shares+comments.
func (p *PerformanceSummary) Interactions() uint64 {
	return p.Likes + p.Shares + p.Comments
}

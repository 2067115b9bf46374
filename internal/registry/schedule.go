package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// detectTimeout bounds one scheduled detection run.
const detectTimeout = time.Minute

// ScheduleTrendDetection runs DetectTrends on the cron spec. The returned
// scheduler has not been started.
func (s *Service) ScheduleTrendDetection(spec string) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), detectTimeout)
		defer cancel()
		if _, err := s.DetectTrends(ctx); err != nil {
			s.logger.Error().Err(err).Msg("scheduled trend detection failed")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid trend schedule %q: %w", spec, err)
	}
	return c, nil
}

package catalog

import (
	"context"
	"fmt"
	"time"
)

// Run sweeps all enabled catalogs every interval until ctx is done. A
// sweep already in flight runs to completion; cancellation only prevents
// the next one. onSweep, when set, is called after every sweep.
func (s *Service) Run(ctx context.Context, interval time.Duration, onSweep func(*SweepResult)) error {
	if interval <= 0 {
		return fmt.Errorf("refresh interval must be positive, got %s", interval)
	}
	s.logger.Info("Starting catalog refresh scheduler", "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			result := s.RefreshAll(context.WithoutCancel(ctx))
			if onSweep != nil {
				onSweep(result)
			}
		case <-ctx.Done():
			s.logger.Info("Catalog refresh scheduler stopping")
			return nil
		}
	}
}

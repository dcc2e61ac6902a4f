// internal/refresh/refresh.go
package refresh

import (
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/user/tickctl/internal/cache"
)

// cronParser accepts standard 5-field cron expressions, 6-field
// expressions with an optional seconds field, and descriptors like
// "@every 30s".
var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Refresher periodically marks list entries stale so subscribed views
// pick up server-side changes without a manual refresh. Detail entries
// are left alone: they refresh through mutation invalidation or an
// explicit refetch.
type Refresher struct {
	schedule string
	cache    *cache.Cache
	cron     *cron.Cron
}

// New creates a Refresher firing on the given cron schedule.
func New(schedule string, c *cache.Cache) *Refresher {
	return &Refresher{
		schedule: schedule,
		cache:    c,
		cron:     cron.New(cron.WithParser(cronParser)),
	}
}

// Start registers the schedule and starts the cron ticker.
func (r *Refresher) Start() error {
	_, err := r.cron.AddFunc(r.schedule, func() {
		slog.Debug("auto refresh firing", "schedule", r.schedule)
		r.cache.Invalidate(cache.ByKind(cache.KindList))
	})
	if err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", r.schedule, err)
	}
	r.cron.Start()
	return nil
}

// Stop stops the cron ticker.
func (r *Refresher) Stop() {
	r.cron.Stop()
}

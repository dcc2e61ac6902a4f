package refresh

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/tickctl/internal/cache"
)

func TestStartRejectsBadSchedule(t *testing.T) {
	r := New("not a schedule", cache.New())
	err := r.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid refresh schedule")
}

func TestStartAcceptsDescriptorAndCron(t *testing.T) {
	for _, schedule := range []string{"@every 30s", "*/5 * * * *", "0 */5 * * * *"} {
		r := New(schedule, cache.New())
		require.NoError(t, r.Start(), "schedule %q", schedule)
		r.Stop()
	}
}

func TestFiringInvalidatesListEntries(t *testing.T) {
	c := cache.New()
	defer c.Stop()

	sub := c.Subscribe(cache.ListKey("", "", 20, 0), func(ctx context.Context) (any, string, error) {
		return "window", "", nil
	})
	defer sub.Cancel()

	r := New("@every 100ms", c)
	require.NoError(t, r.Start())
	defer r.Stop()

	// the subscribed list entry is refetched when the schedule fires
	seen := 0
	deadline := time.After(3 * time.Second)
	for seen < 3 {
		select {
		case snap := <-sub.Updates():
			if snap.State == cache.StateSuccess && !snap.IsFetching {
				seen++
			}
		case <-deadline:
			t.Fatalf("expected repeated refreshes, saw %d", seen)
		}
	}
}

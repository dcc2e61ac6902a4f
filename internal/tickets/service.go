// internal/tickets/service.go
package tickets

import (
	"context"
	"fmt"

	"github.com/user/tickctl/internal/api"
	"github.com/user/tickctl/internal/cache"
	"github.com/user/tickctl/internal/notify"
	"github.com/user/tickctl/internal/schema"
)

// Page is one list window plus the pagination the caller can infer from
// it. The server never reports a total count: a full page means more
// data is likely available, a non-zero offset means there is something
// before this window.
type Page struct {
	Tickets    []schema.Ticket
	RequestID  string
	Limit      int
	Offset     int
	HasNext    bool
	HasPrev    bool
	Refreshing bool
}

// Service routes ticket reads through the query cache and coordinates
// mutations with the invalidation they imply.
type Service struct {
	client *api.Client
	cache  *cache.Cache
	notify notify.Notifier
}

func NewService(client *api.Client, c *cache.Cache, n notify.Notifier) *Service {
	if n == nil {
		n = notify.NewLog()
	}
	return &Service{client: client, cache: c, notify: n}
}

func listKey(p api.ListParams) cache.Key {
	p = p.Normalize()
	return cache.ListKey(string(p.Status), p.Search, p.Limit, p.Offset)
}

func (s *Service) listFetcher(p api.ListParams) cache.Fetcher {
	return func(ctx context.Context) (any, string, error) {
		rows, requestID, err := s.client.ListTickets(ctx, p)
		if err != nil {
			return nil, requestID, err
		}
		return rows, requestID, nil
	}
}

func (s *Service) detailFetcher(id int64) cache.Fetcher {
	return func(ctx context.Context) (any, string, error) {
		t, requestID, err := s.client.GetTicket(ctx, id)
		if err != nil {
			return nil, requestID, err
		}
		return t, requestID, nil
	}
}

// PageFrom projects a cache snapshot into a Page for the given params.
func PageFrom(snap cache.Snapshot, p api.ListParams) Page {
	p = p.Normalize()
	page := Page{
		Limit:      p.Limit,
		Offset:     p.Offset,
		RequestID:  snap.RequestID,
		HasPrev:    p.Offset > 0,
		Refreshing: snap.IsFetching,
	}
	if rows, ok := snap.Data.([]schema.Ticket); ok {
		page.Tickets = rows
		page.HasNext = len(rows) == p.Limit
	}
	return page
}

// List resolves one list window through the cache. When a previously
// cached value exists it is returned even if the latest fetch failed;
// the error says why the data is stale.
func (s *Service) List(ctx context.Context, p api.ListParams) (Page, error) {
	p = p.Normalize()
	snap := s.cache.Get(ctx, listKey(p), s.listFetcher(p))
	return PageFrom(snap, p), snap.Err
}

// SubscribeList attaches a live consumer to one list window.
func (s *Service) SubscribeList(p api.ListParams) (*cache.Subscription, api.ListParams) {
	p = p.Normalize()
	return s.cache.Subscribe(listKey(p), s.listFetcher(p)), p
}

// Get resolves one ticket through the cache.
func (s *Service) Get(ctx context.Context, id int64) (schema.Ticket, string, error) {
	snap := s.cache.Get(ctx, cache.DetailKey(id), s.detailFetcher(id))
	t, _ := snap.Data.(schema.Ticket)
	return t, snap.RequestID, snap.Err
}

// CanTransition is the "can save" predicate: a write from current to
// next is permitted only if next is in the status domain and differs
// from current.
func CanTransition(current, next schema.Status) bool {
	return next.Valid() && next != current
}

// UpdateStatus executes the status mutation. Preconditions are checked
// before any network call; on success the detail entry for id and every
// list entry (any filter, any page) are invalidated, since the mutated
// ticket may now match or fail to match any filter. On failure nothing
// cached is touched and no guess at the new state is written.
func (s *Service) UpdateStatus(ctx context.Context, id int64, next schema.Status) (schema.Ticket, error) {
	if !next.Valid() {
		return schema.Ticket{}, newUnknownStatusError(id, string(next))
	}

	current, err := s.currentStatus(ctx, id)
	if err != nil {
		return schema.Ticket{}, err
	}
	if !CanTransition(current, next) {
		return schema.Ticket{}, newUnchangedStatusError(id, next)
	}

	updated, _, err := s.client.PatchStatus(ctx, id, schema.StatusPatch{Status: next})
	if err != nil {
		s.notify.Error(fmt.Sprintf("ticket #%d: %s", id, api.ToError(err).Message))
		return schema.Ticket{}, err
	}

	s.cache.Invalidate(cache.ByDetail(id))
	s.cache.Invalidate(cache.ByKind(cache.KindList))

	s.notify.Success(fmt.Sprintf("ticket #%d status changed to %s", id, next))
	return updated, nil
}

// currentStatus prefers the cached detail value so an unchanged-status
// submission is rejected without touching the network.
func (s *Service) currentStatus(ctx context.Context, id int64) (schema.Status, error) {
	if snap, ok := s.cache.Peek(cache.DetailKey(id)); ok {
		if t, ok := snap.Data.(schema.Ticket); ok {
			return t.Status, nil
		}
	}
	t, _, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return t.Status, nil
}

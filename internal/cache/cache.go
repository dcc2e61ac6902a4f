// internal/cache/cache.go
package cache

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"
)

// State is the coarse projection of a cache entry for consumers.
type State int

const (
	// StateLoading: first load, no data yet.
	StateLoading State = iota
	// StateSuccess: a value is available (possibly stale).
	StateSuccess
	// StateError: the last fetch failed and no prior value exists.
	StateError
)

func (s State) String() string {
	switch s {
	case StateSuccess:
		return "success"
	case StateError:
		return "error"
	default:
		return "loading"
	}
}

// Snapshot is the consumer-facing projection of one entry. Data and Err
// can both be set: a background refetch failure keeps the last known
// value available for stale display. IsFetching distinguishes a
// background refresh from a first load.
type Snapshot struct {
	State      State
	Data       any
	Err        error
	IsFetching bool
	RequestID  string
}

// Fetcher performs the network read for one key, returning the value
// and the server's correlation id.
type Fetcher func(ctx context.Context) (any, string, error)

// entry owns the cached state for one key. Mutated only by the cache's
// own fetch/invalidate paths, always under the cache lock.
type entry struct {
	key       Key
	fetch     Fetcher
	hasData   bool
	data      any
	requestID string
	err       error
	stale     bool
	fetching  bool
	subs      map[int64]*Subscription

	// gen counts invalidations. A fetch records the generation it
	// started under; a result from an older generation cannot clear
	// the stale mark.
	gen uint64
}

func (e *entry) snapshot() Snapshot {
	switch {
	case e.hasData:
		return Snapshot{State: StateSuccess, Data: e.data, Err: e.err, IsFetching: e.fetching, RequestID: e.requestID}
	case e.err != nil:
		return Snapshot{State: StateError, Err: e.err, IsFetching: e.fetching, RequestID: e.requestID}
	default:
		return Snapshot{State: StateLoading, IsFetching: e.fetching}
	}
}

// Subscription is a live view onto one entry. Consumers read snapshots
// from Updates; a superseded consumer just calls Cancel and stops
// reading, there is no hard cancellation of in-flight requests.
type Subscription struct {
	key    Key
	ch     chan Snapshot
	cancel func()
	once   sync.Once
}

// Updates delivers a snapshot on every entry change. Slow consumers
// lose intermediate snapshots, never the latest one.
func (s *Subscription) Updates() <-chan Snapshot {
	return s.ch
}

func (s *Subscription) Key() Key {
	return s.key
}

func (s *Subscription) Cancel() {
	s.once.Do(s.cancel)
}

// Cache is a key-addressed result cache with request deduplication and
// stale-while-refetch semantics. For a given key there is at most one
// in-flight request at any instant; concurrent readers attach to it and
// resolve from the same outcome.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	nextSub int64

	group singleflight.Group
	slots *semaphore.Weighted

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Cache allowing up to maxConcurrent background refetches
// to run simultaneously (default 4).
func New(maxConcurrent ...int64) *Cache {
	var concurrency int64 = 4
	if len(maxConcurrent) > 0 && maxConcurrent[0] > 0 {
		concurrency = maxConcurrent[0]
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Cache{
		entries: make(map[string]*entry),
		slots:   semaphore.NewWeighted(concurrency),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start rebinds background refetches to the given context. Optional;
// without it they run under a background context until Stop.
func (c *Cache) Start(ctx context.Context) {
	c.cancel()
	c.ctx, c.cancel = context.WithCancel(ctx)
}

// Stop cancels background refetches and waits for them to wind down.
func (c *Cache) Stop() {
	c.cancel()
	c.wg.Wait()
}

// ensure returns the entry for key, creating it on first request. The
// fetcher is (re)bound so invalidation can refetch later without the
// original caller present. Callers hold the lock.
func (c *Cache) ensure(key Key, fetch Fetcher) *entry {
	id := key.String()
	e, ok := c.entries[id]
	if !ok {
		e = &entry{key: key, subs: make(map[int64]*Subscription)}
		c.entries[id] = e
	}
	if fetch != nil {
		e.fetch = fetch
	}
	return e
}

// Get resolves key to a snapshot. A fresh value is served as is; a
// stale value is served immediately while a background refetch runs;
// no value at all blocks on the (deduplicated) fetch.
func (c *Cache) Get(ctx context.Context, key Key, fetch Fetcher) Snapshot {
	c.mu.Lock()
	e := c.ensure(key, fetch)
	if e.hasData {
		if e.stale && !e.fetching {
			c.refetchLocked(e)
		}
		snap := e.snapshot()
		c.mu.Unlock()
		return snap
	}
	c.mu.Unlock()

	c.fetchNow(ctx, key)

	c.mu.Lock()
	defer c.mu.Unlock()
	if cur, ok := c.entries[key.String()]; ok {
		return cur.snapshot()
	}
	// entry dropped by Reset while the fetch ran
	return Snapshot{State: StateLoading}
}

// Peek returns the current snapshot without triggering any fetch.
func (c *Cache) Peek(key Key) (Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key.String()]
	if !ok {
		return Snapshot{}, false
	}
	return e.snapshot(), true
}

// Subscribe attaches a live consumer to key. The current snapshot is
// delivered immediately; a missing or stale value triggers a background
// refetch.
func (c *Cache) Subscribe(key Key, fetch Fetcher) *Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.ensure(key, fetch)
	c.nextSub++
	id := c.nextSub
	sub := &Subscription{key: key, ch: make(chan Snapshot, 8)}
	sub.cancel = func() { c.unsubscribe(key, id) }
	e.subs[id] = sub

	sub.ch <- e.snapshot()
	if (!e.hasData || e.stale) && !e.fetching {
		c.refetchLocked(e)
	}
	return sub
}

func (c *Cache) unsubscribe(key Key, id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key.String()]
	if !ok {
		return
	}
	delete(e.subs, id)
	// entries nobody references are dropped once stale
	if len(e.subs) == 0 && e.stale && !e.fetching {
		delete(c.entries, key.String())
	}
}

// Invalidate marks every entry matching pred as stale. The last value
// is retained for immediate display. Entries with live subscribers
// refetch in the background right away; unsubscribed entries wait for
// the next Get/Subscribe, or are dropped if they never loaded. An
// invalidation racing an in-flight fetch outranks its result: the entry
// stays stale and a subscribed entry refetches once more.
func (c *Cache) Invalidate(pred func(Key) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, e := range c.entries {
		if !pred(e.key) {
			continue
		}
		e.stale = true
		e.gen++
		if len(e.subs) > 0 {
			c.refetchLocked(e)
		} else if !e.hasData {
			delete(c.entries, id)
		}
	}
}

// Refetch forces a background refresh of one key, if it is cached.
func (c *Cache) Refetch(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key.String()]; ok {
		e.stale = true
		e.gen++
		c.refetchLocked(e)
	}
}

// Reset drops every entry. Required after a credential change: entries
// are implicitly scoped to the credential current at fetch time and are
// never re-keyed.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
}

// refetchLocked schedules a background refetch. The semaphore bounds
// how many run at once; singleflight still collapses duplicates.
func (c *Cache) refetchLocked(e *entry) {
	if e.fetching {
		return
	}
	key := e.key
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := c.slots.Acquire(c.ctx, 1); err != nil {
			return
		}
		defer c.slots.Release(1)
		c.fetchNow(c.ctx, key)
	}()
}

// fetchNow runs the entry's fetcher through singleflight, so concurrent
// callers for the same key share one network call and one outcome. The
// flight is keyed by key and generation: a fetch scheduled after an
// invalidation never attaches to one started before it. Results are
// applied in completion order; an entry dropped mid-flight discards its
// result.
func (c *Cache) fetchNow(ctx context.Context, key Key) {
	id := key.String()
	c.mu.Lock()
	cur, ok := c.entries[id]
	if !ok || cur.fetch == nil {
		c.mu.Unlock()
		return
	}
	flight := fmt.Sprintf("%s#%d", id, cur.gen)
	c.mu.Unlock()

	c.group.Do(flight, func() (any, error) {
		c.mu.Lock()
		e, ok := c.entries[id]
		if !ok || e.fetch == nil {
			c.mu.Unlock()
			return nil, nil
		}
		fetch := e.fetch
		start := e.gen
		e.fetching = true
		c.notifyLocked(e)
		c.mu.Unlock()

		data, requestID, err := fetch(ctx)

		c.mu.Lock()
		if e, ok := c.entries[id]; ok {
			c.applyLocked(e, data, requestID, err, start)
		}
		c.mu.Unlock()
		return nil, nil
	})
}

// applyLocked records a completed fetch. Success replaces the value and
// clears the error; the stale mark clears only if no invalidation
// arrived after the fetch started, otherwise the entry stays stale and
// a subscribed entry refetches again. Failure records the error and
// preserves the last known value; a failed refetch leaves the entry
// stale so the next use tries again.
func (c *Cache) applyLocked(e *entry, data any, requestID string, err error, start uint64) {
	e.fetching = false
	if err != nil {
		e.err = err
		if requestID != "" {
			e.requestID = requestID
		}
	} else {
		e.data = data
		e.hasData = true
		e.err = nil
		e.stale = e.gen != start
		e.requestID = requestID
	}
	c.notifyLocked(e)
	if err == nil && e.stale && len(e.subs) > 0 {
		c.refetchLocked(e)
	}
}

// notifyLocked pushes the entry's snapshot to every subscriber without
// blocking: a full subscriber channel loses its oldest snapshot first.
func (c *Cache) notifyLocked(e *entry) {
	snap := e.snapshot()
	for _, sub := range e.subs {
		select {
		case sub.ch <- snap:
		default:
			select {
			case <-sub.ch:
			default:
			}
			select {
			case sub.ch <- snap:
			default:
			}
		}
	}
}

package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recvSettled(t *testing.T, s *Settler) string {
	t.Helper()
	select {
	case v := <-s.Settled():
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("no value settled in time")
		return ""
	}
}

func assertNoSettle(t *testing.T, s *Settler, within time.Duration) {
	t.Helper()
	select {
	case v := <-s.Settled():
		t.Fatalf("unexpected settled value %q", v)
	case <-time.After(within):
	}
}

func TestSettlerEmitsAfterQuietPeriod(t *testing.T) {
	s := NewSettler(MinSettle)
	defer s.Stop()

	start := time.Now()
	s.Set("printer")
	v := recvSettled(t, s)

	assert.Equal(t, "printer", v)
	assert.GreaterOrEqual(t, time.Since(start), MinSettle, "value must not settle before the quiet period")
}

func TestSettlerCoalescesRapidInput(t *testing.T) {
	s := NewSettler(MinSettle)
	defer s.Stop()

	s.Set("p")
	time.Sleep(50 * time.Millisecond)
	s.Set("pr")
	time.Sleep(50 * time.Millisecond)
	s.Set("printer")

	v := recvSettled(t, s)
	require.Equal(t, "printer", v, "only the final value survives a burst")
	assertNoSettle(t, s, 2*MinSettle)
}

func TestSettlerSkipsConsecutiveDuplicate(t *testing.T) {
	s := NewSettler(MinSettle)
	defer s.Stop()

	s.Set("printer")
	require.Equal(t, "printer", recvSettled(t, s))

	s.Set("printer")
	assertNoSettle(t, s, 2*MinSettle)

	// a different value still settles
	s.Set("vpn")
	require.Equal(t, "vpn", recvSettled(t, s))

	// and the earlier value is allowed again after an intervening change
	s.Set("printer")
	require.Equal(t, "printer", recvSettled(t, s))
}

func TestSettlerReplacesUnconsumedValue(t *testing.T) {
	s := NewSettler(MinSettle)
	defer s.Stop()

	s.Set("old")
	time.Sleep(MinSettle + 100*time.Millisecond)
	s.Set("new")
	time.Sleep(MinSettle + 100*time.Millisecond)

	// nothing was read in between, the newer value wins
	assert.Equal(t, "new", recvSettled(t, s))
}

func TestSettlerClampsInterval(t *testing.T) {
	s := NewSettler(10 * time.Millisecond)
	defer s.Stop()
	assert.Equal(t, MinSettle, s.d)
}

func TestSettlerStopDiscardsPending(t *testing.T) {
	s := NewSettler(MinSettle)
	s.Set("printer")
	s.Stop()
	assertNoSettle(t, s, 2*MinSettle)
}

package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestStore() (*MemoryStore[string], *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}
	return NewMemoryStore[string]().WithClock(clock.Now), clock
}

func TestSetGetExpiry(t *testing.T) {
	store, clock := newTestStore()
	store.Set("token", "user-1", time.Minute)

	v, ok := store.Get("token")
	assert.True(t, ok)
	assert.Equal(t, "user-1", v)

	clock.Advance(time.Minute)
	_, ok = store.Get("token")
	assert.False(t, ok)
	assert.Equal(t, 0, store.Len())
}

func TestTakeRemoves(t *testing.T) {
	store, _ := newTestStore()
	store.Set("k", "v", time.Hour)

	v, ok := store.Take("k")
	assert.True(t, ok)
	assert.Equal(t, "v", v)

	_, ok = store.Take("k")
	assert.False(t, ok)
}

func TestUpdateKeepsExpiry(t *testing.T) {
	store, clock := newTestStore()
	store.Set("k", "a", 10*time.Minute)

	clock.Advance(5 * time.Minute)
	assert.True(t, store.Update("k", func(v *string) { *v = "b" }))

	v, _ := store.Get("k")
	assert.Equal(t, "b", v)

	clock.Advance(5 * time.Minute)
	assert.False(t, store.Update("k", func(v *string) { *v = "c" }))
}

func TestSweep(t *testing.T) {
	store, clock := newTestStore()
	store.Set("short", "1", time.Second)
	store.Set("long", "2", time.Hour)

	clock.Advance(time.Minute)
	assert.Equal(t, 1, store.Sweep())
	assert.Equal(t, 1, store.Len())
}

func TestConcurrentTakeSingleWinner(t *testing.T) {
	store, _ := newTestStore()
	store.Set("txn", "reservation", time.Hour)

	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := store.Take("txn"); ok {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, winners)
}

package listview

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
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

func testFactories(clock *fakeClock, src *fakeSource) map[string]Factory {
	build := func(entity string) Factory {
		return func() View {
			return New(Config[item, form]{
				Entity: entity,
				Source: src,
				ID:     func(it item) string { return it.ID },
				Now:    clock.Now,
			})
		}
	}
	return map[string]Factory{
		EntityCompanies: build(EntityCompanies),
		EntityUsers:     build(EntityUsers),
	}
}

func TestRegistry_Get(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	reg := NewRegistry(testFactories(clock, &fakeSource{}), time.Hour, nil, WithClock(clock.Now))
	defer reg.Stop(context.Background())

	assert.Equal(t, []string{EntityCompanies, EntityUsers}, reg.Entities())

	v1, created, err := reg.Get("s1", EntityCompanies)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, EntityCompanies, v1.Entity())

	v2, created, err := reg.Get("s1", EntityCompanies)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Same(t, v1, v2)

	other, _, err := reg.Get("s2", EntityCompanies)
	require.NoError(t, err)
	assert.NotSame(t, v1, other)

	_, _, err = reg.Get("s1", "invoices")
	assert.ErrorIs(t, err, ErrUnknownEntity)
	assert.Equal(t, 2, reg.Len())
}

func TestRegistry_DropClosesSessionViews(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	src := &fakeSource{listGate: make(chan struct{})}
	reg := NewRegistry(testFactories(clock, src), time.Hour, nil)

	v, _, err := reg.Get("s1", EntityCompanies)
	require.NoError(t, err)
	require.NoError(t, v.StartRefresh())
	_, _, err = reg.Get("s1", EntityUsers)
	require.NoError(t, err)
	_, _, err = reg.Get("s2", EntityUsers)
	require.NoError(t, err)

	assert.Equal(t, 2, reg.Drop("s1"))
	assert.Equal(t, 1, reg.Len())
	assert.ErrorIs(t, v.StartRefresh(), ErrClosed)

	reg.Stop(context.Background())
	assert.Zero(t, reg.Len())
}

func TestRegistry_Sweep(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	reg := NewRegistry(testFactories(clock, &fakeSource{}), 30*time.Minute, nil, WithClock(clock.Now))
	defer reg.Stop(context.Background())

	_, _, err := reg.Get("idle", EntityCompanies)
	require.NoError(t, err)
	clock.Advance(20 * time.Minute)
	active, _, err := reg.Get("active", EntityCompanies)
	require.NoError(t, err)

	clock.Advance(15 * time.Minute)
	active.CancelEdit()

	assert.Equal(t, 1, reg.Sweep())
	assert.Equal(t, 1, reg.Len())
	_, created, err := reg.Get("active", EntityCompanies)
	require.NoError(t, err)
	assert.False(t, created)
}

func TestRegistry_StartStop(t *testing.T) {
	reg := NewRegistry(testFactories(&fakeClock{now: time.Now()}, &fakeSource{}), time.Minute, nil)

	assert.Error(t, reg.Start("not a schedule"))
	require.NoError(t, reg.Start("@every 1h"))
	reg.Stop(context.Background())
}

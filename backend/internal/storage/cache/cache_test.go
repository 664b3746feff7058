package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ebrain/board/shared/domain"
)

func newTestCache(t *testing.T) (*Categories, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return New(client, time.Minute), mr
}

func TestCategoriesCache(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	_, ok, err := c.Get(ctx, domain.KindFree)
	require.NoError(t, err)
	assert.False(t, ok)

	want := []domain.Category{{Id: 2, Kind: domain.KindFree, Name: "Chat"}, {Id: 5, Kind: domain.KindFree, Name: "Question"}}
	require.NoError(t, c.Set(ctx, domain.KindFree, want))
	assert.True(t, mr.Exists("categories:free"))

	got, ok, err := c.Get(ctx, domain.KindFree)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, want, got)

	_, ok, err = c.Get(ctx, domain.KindGallery)
	require.NoError(t, err)
	assert.False(t, ok, "kinds are cached separately")

	mr.FastForward(2 * time.Minute)
	_, ok, err = c.Get(ctx, domain.KindFree)
	require.NoError(t, err)
	assert.False(t, ok, "entry expires after ttl")
}

func TestInvalidate(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)

	require.NoError(t, c.Set(ctx, domain.KindNotice, []domain.Category{{Id: 1, Kind: domain.KindNotice, Name: "General"}}))
	require.NoError(t, c.Invalidate(ctx, domain.KindNotice))

	_, ok, err := c.Get(ctx, domain.KindNotice)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCorruptEntry(t *testing.T) {
	c, mr := newTestCache(t)
	require.NoError(t, mr.Set("categories:free", "{not json"))

	_, ok, err := c.Get(context.Background(), domain.KindFree)
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestDefaultTTL(t *testing.T) {
	c := New(nil, 0)
	assert.Equal(t, DefaultTTL, c.ttl)
}

func TestDial(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	client, err := Dial(context.Background(), addr, "", 0)
	require.NoError(t, err)
	client.Close()

	mr.Close()
	_, err = Dial(context.Background(), addr, "", 0)
	assert.Error(t, err)
}

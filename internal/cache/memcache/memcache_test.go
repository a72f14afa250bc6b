package memcache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/smallsquare/internal/cache"
)

func TestMemcache(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 1, 19, 0, 0, 0, time.UTC)
	newCache := func() *Cache {
		return New(Config{Size: 10, Now: func() time.Time { return now }})
	}

	t.Run("set and get", func(t *testing.T) {
		c := newCache()

		err := c.Set(t.Context(), "key", "value", time.Minute)
		require.NoError(t, err)

		got, err := c.Get(t.Context(), "key")
		require.NoError(t, err)
		require.Equal(t, "value", got)

		ok, err := c.Exists(t.Context(), "key")
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("miss", func(t *testing.T) {
		c := newCache()

		_, err := c.Get(t.Context(), "unknown")
		require.ErrorIs(t, err, cache.ErrMiss)

		ok, err := c.Exists(t.Context(), "unknown")
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("non positive ttl rejected", func(t *testing.T) {
		c := newCache()

		require.ErrorIs(t, c.Set(t.Context(), "key", "value", 0), cache.ErrInvalidTTL)
		require.ErrorIs(t, c.Set(t.Context(), "key", "value", -time.Second), cache.ErrInvalidTTL)
		_, err := c.SetNX(t.Context(), "key", "value", 0)
		require.ErrorIs(t, err, cache.ErrInvalidTTL)

		ok, err := c.Exists(t.Context(), "key")
		require.NoError(t, err)
		require.False(t, ok, "nothing should be stored")
	})

	t.Run("entry expires", func(t *testing.T) {
		c := newCache()
		require.NoError(t, c.Set(t.Context(), "key", "value", time.Minute))

		now = now.Add(time.Minute - time.Millisecond)
		ok, err := c.Exists(t.Context(), "key")
		require.NoError(t, err)
		require.True(t, ok, "should live until expiration")

		now = now.Add(time.Millisecond)
		_, err = c.Get(t.Context(), "key")
		require.ErrorIs(t, err, cache.ErrMiss, "should expire at expiration")
	})

	t.Run("set nx", func(t *testing.T) {
		c := newCache()

		ok, err := c.SetNX(t.Context(), "key", "first", time.Minute)
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = c.SetNX(t.Context(), "key", "second", time.Minute)
		require.NoError(t, err)
		require.False(t, ok, "key already exists")

		got, err := c.Get(t.Context(), "key")
		require.NoError(t, err)
		require.Equal(t, "first", got)

		now = now.Add(time.Minute)
		ok, err = c.SetNX(t.Context(), "key", "third", time.Minute)
		require.NoError(t, err)
		require.True(t, ok, "expired key may be set again")
	})

	t.Run("delete", func(t *testing.T) {
		c := newCache()
		require.NoError(t, c.Set(t.Context(), "key", "value", time.Minute))

		require.NoError(t, c.Delete(t.Context(), "key"))
		require.NoError(t, c.Delete(t.Context(), "key"), "deleting twice is fine")

		_, err := c.Get(t.Context(), "key")
		require.ErrorIs(t, err, cache.ErrMiss)
	})
	t.Run("ttl longer than max rejected", func(t *testing.T) {
		c := New(Config{Size: 10, MaxTTL: time.Minute, Now: func() time.Time { return now }})

		require.NoError(t, c.Set(t.Context(), "key", "value", time.Minute), "max ttl itself is fine")

		err := c.Set(t.Context(), "other", "value", time.Hour)
		require.ErrorIs(t, err, cache.ErrInvalidTTL)
		_, err = c.SetNX(t.Context(), "other", "value", time.Hour)
		require.ErrorIs(t, err, cache.ErrInvalidTTL)

		ok, err := c.Exists(t.Context(), "other")
		require.NoError(t, err)
		require.False(t, ok, "nothing should be stored")
	})

	t.Run("full cache keeps live entries", func(t *testing.T) {
		c := New(Config{Size: 3, Now: func() time.Time { return now }})

		require.NoError(t, c.Set(t.Context(), "first", "value", time.Hour))
		require.NoError(t, c.Set(t.Context(), "second", "value", time.Hour))
		require.NoError(t, c.Set(t.Context(), "third", "value", time.Hour))

		err := c.Set(t.Context(), "fourth", "value", time.Hour)
		require.ErrorIs(t, err, cache.ErrFull)
		_, err = c.SetNX(t.Context(), "fourth", "value", time.Hour)
		require.ErrorIs(t, err, cache.ErrFull)

		for _, key := range []string{"first", "second", "third"} {
			ok, err := c.Exists(t.Context(), key)
			require.NoError(t, err)
			require.True(t, ok, "%s has to survive", key)
		}

		require.NoError(t, c.Set(t.Context(), "first", "updated", time.Hour), "existing key may be overwritten")
	})

	t.Run("full cache makes room from expired entries", func(t *testing.T) {
		c := New(Config{Size: 2, Now: func() time.Time { return now }})

		require.NoError(t, c.Set(t.Context(), "short", "value", time.Minute))
		require.NoError(t, c.Set(t.Context(), "long", "value", time.Hour))

		now = now.Add(time.Minute)
		require.NoError(t, c.Set(t.Context(), "new", "value", time.Hour))

		ok, err := c.Exists(t.Context(), "long")
		require.NoError(t, err)
		require.True(t, ok)
		ok, err = c.Exists(t.Context(), "new")
		require.NoError(t, err)
		require.True(t, ok)
	})
}

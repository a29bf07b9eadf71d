package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedUser struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func setupCache(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	c := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	SetClient(c)
	t.Cleanup(func() {
		SetClient(nil)
		c.Close()
	})
	return mr
}

func TestGetJSONMiss(t *testing.T) {
	setupCache(t)

	var u cachedUser
	found, err := GetJSON(context.Background(), UserKey("u1"), &u)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSetThenGetJSON(t *testing.T) {
	setupCache(t)
	ctx := context.Background()

	in := cachedUser{ID: "u1", Name: "Ada"}
	require.NoError(t, SetJSON(ctx, UserKey("u1"), in, UserTTL))

	var out cachedUser
	found, err := GetJSON(ctx, UserKey("u1"), &out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, in, out)
}

func TestAsideFetchesOnMissAndCaches(t *testing.T) {
	setupCache(t)
	ctx := context.Background()

	fetches := 0
	var u cachedUser
	fetch := func() error {
		fetches++
		u = cachedUser{ID: "u2", Name: "Grace"}
		return nil
	}

	require.NoError(t, Aside(ctx, UserKey("u2"), &u, time.Minute, fetch))
	assert.Equal(t, 1, fetches)

	var again cachedUser
	require.NoError(t, Aside(ctx, UserKey("u2"), &again, time.Minute, func() error {
		fetches++
		return nil
	}))
	assert.Equal(t, 1, fetches)
	assert.Equal(t, "Grace", again.Name)
}

func TestInvalidate(t *testing.T) {
	setupCache(t)
	ctx := context.Background()

	require.NoError(t, SetJSON(ctx, UserKey("u3"), cachedUser{ID: "u3"}, UserTTL))
	InvalidateUser(ctx, "u3")

	var u cachedUser
	found, err := GetJSON(ctx, UserKey("u3"), &u)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInvalidateEntityKeys(t *testing.T) {
	setupCache(t)
	ctx := context.Background()

	cases := []struct {
		key        string
		invalidate func()
	}{
		{PostKey("p1"), func() { InvalidatePost(ctx, "p1") }},
		{GroupKey("g1"), func() { InvalidateGroup(ctx, "g1") }},
		{EventKey("e1"), func() { InvalidateEvent(ctx, "e1") }},
	}
	for _, tc := range cases {
		require.NoError(t, SetJSON(ctx, tc.key, cachedUser{ID: "x"}, time.Minute))
		tc.invalidate()

		var u cachedUser
		found, err := GetJSON(ctx, tc.key, &u)
		require.NoError(t, err)
		assert.False(t, found, tc.key)
	}
}

func TestNilClientIsNoOp(t *testing.T) {
	SetClient(nil)
	ctx := context.Background()

	var u cachedUser
	found, err := GetJSON(ctx, UserKey("u4"), &u)
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, SetJSON(ctx, UserKey("u4"), u, UserTTL))
}

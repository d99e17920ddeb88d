package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BTreeMap/SiteBot/internal/session"
)

func newMiniredisClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestRedisPresence_ClaimRelease(t *testing.T) {
	mr, client := newMiniredisClient(t)
	p := session.NewRedisPresence(client, "sitebot:", "node-a", 30*time.Second)
	ctx := context.Background()

	require.NoError(t, p.Claim(ctx, "chat-1"))
	got, err := mr.Get("sitebot:chat:chat-1")
	require.NoError(t, err)
	assert.Equal(t, "node-a", got)

	alive, err := p.Alive(ctx, "chat-1")
	require.NoError(t, err)
	assert.True(t, alive)

	require.NoError(t, p.Release(ctx, "chat-1"))
	alive, err = p.Alive(ctx, "chat-1")
	require.NoError(t, err)
	assert.False(t, alive)
}

func TestRedisPresence_ClaimsExpireWithoutRefresh(t *testing.T) {
	mr, client := newMiniredisClient(t)
	p := session.NewRedisPresence(client, "sitebot:", "node-a", 10*time.Second)
	ctx := context.Background()

	require.NoError(t, p.Claim(ctx, "chat-1"))
	require.NoError(t, p.Claim(ctx, "chat-2"))

	mr.FastForward(8 * time.Second)
	require.NoError(t, p.Refresh(ctx, []string{"chat-1"}))
	mr.FastForward(8 * time.Second)

	assert.True(t, mr.Exists("sitebot:chat:chat-1"), "refreshed claim should survive")
	assert.False(t, mr.Exists("sitebot:chat:chat-2"), "unrefreshed claim should expire")
}

func TestRedisPresence_ReleaseKeepsOtherOwner(t *testing.T) {
	mr, client := newMiniredisClient(t)
	a := session.NewRedisPresence(client, "sitebot:", "node-a", 30*time.Second)
	b := session.NewRedisPresence(client, "sitebot:", "node-b", 30*time.Second)
	ctx := context.Background()

	require.NoError(t, a.Claim(ctx, "chat-1"))
	require.NoError(t, b.Claim(ctx, "chat-1"))

	// A stale owner must not drop the new owner's claim.
	require.NoError(t, a.Release(ctx, "chat-1"))
	assert.True(t, mr.Exists("sitebot:chat:chat-1"))
	require.NoError(t, b.Release(ctx, "chat-1"))
	assert.False(t, mr.Exists("sitebot:chat:chat-1"))
}

func TestRegistry_PublishesPresenceToRedis(t *testing.T) {
	mr, client := newMiniredisClient(t)
	p := session.NewRedisPresence(client, "sitebot:", "node-a", 30*time.Second)
	r := session.NewRegistry(session.WithPresence(p))

	state := newState("conn-1", "chat-1")
	r.Put(state)
	assert.True(t, mr.Exists("sitebot:chat:chat-1"))

	r.Delete("conn-1")
	assert.False(t, mr.Exists("sitebot:chat:chat-1"))
}

package session_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BTreeMap/SiteBot/internal/models"
	"github.com/BTreeMap/SiteBot/internal/session"
)

func TestRegistry_GetPutDelete(t *testing.T) {
	r := session.NewRegistry()
	_, ok := r.Get("conn-1")
	assert.False(t, ok)

	r.Put(models.NewSessionState("conn-1", "acme", time.Now()))
	s, ok := r.Get("conn-1")
	require.True(t, ok)
	assert.Equal(t, "acme", s.TenantCode)
	assert.Equal(t, 1, r.Len())

	removed, ok := r.Delete("conn-1")
	require.True(t, ok)
	assert.Same(t, s, removed)
	assert.Equal(t, 0, r.Len())

	_, ok = r.Delete("conn-1")
	assert.False(t, ok)
}

func TestRegistry_WithLockSerializesTurns(t *testing.T) {
	r := session.NewRegistry()
	r.Put(models.NewSessionState("conn-1", "acme", time.Now()))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := r.WithLock(ctx, "conn-1", func(ctx context.Context) error {
				s, _ := r.Get("conn-1")
				// Read-modify-write with a yield in between loses updates without the lock.
				n := len(s.ResponseOrder)
				time.Sleep(time.Millisecond)
				s.ResponseOrder = append(s.ResponseOrder[:n:n], "x")
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	s, _ := r.Get("conn-1")
	assert.Len(t, s.ResponseOrder, 20)
}

func newState(sessionID, chatID string) *models.SessionState {
	s := models.NewSessionState(sessionID, "acme", time.Now())
	s.ChatID = chatID
	return s
}

type fakePresence struct {
	mu        sync.Mutex
	claimed   []string
	released  []string
	refreshed [][]string
}

func (f *fakePresence) Claim(ctx context.Context, chatID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.claimed = append(f.claimed, chatID)
	return nil
}

func (f *fakePresence) Release(ctx context.Context, chatID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released = append(f.released, chatID)
	return nil
}

func (f *fakePresence) Refresh(ctx context.Context, chatIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshed = append(f.refreshed, chatIDs)
	return nil
}

func (f *fakePresence) refreshCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.refreshed)
}

func TestRegistry_PresenceFollowsSessions(t *testing.T) {
	p := &fakePresence{}
	r := session.NewRegistry(session.WithPresence(p))

	r.Put(newState("conn-1", "chat-1"))
	r.Put(newState("conn-2", "chat-2"))
	assert.Equal(t, []string{"chat-1", "chat-2"}, p.claimed)
	assert.ElementsMatch(t, []string{"chat-1", "chat-2"}, r.ChatIDs())

	r.Delete("conn-1")
	r.Delete("conn-1")
	assert.Equal(t, []string{"chat-1"}, p.released, "a missing session releases nothing")
}

func TestRegistry_KeepAliveRefreshesLiveSessions(t *testing.T) {
	p := &fakePresence{}
	r := session.NewRegistry(session.WithPresence(p))
	r.Put(newState("conn-1", "chat-1"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.KeepAlive(ctx, 5*time.Millisecond)
		close(done)
	}()
	require.Eventually(t, func() bool { return p.refreshCount() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done

	p.mu.Lock()
	defer p.mu.Unlock()
	assert.Equal(t, []string{"chat-1"}, p.refreshed[0])
}

func TestRegistry_KeepAliveWithoutPresenceReturns(t *testing.T) {
	r := session.NewRegistry()
	// Returns at once; a hang here fails the test by timeout.
	r.KeepAlive(context.Background(), time.Millisecond)
}

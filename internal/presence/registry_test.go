package presence

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vedran77/vybe/internal/domain"
)

type fakeConn struct {
	name string
	mu   sync.Mutex
	got  [][]byte
	fail bool
}

func (c *fakeConn) Push(data []byte) error {
	if c.fail {
		return errors.New("closed")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.got = append(c.got, data)
	return nil
}

func (c *fakeConn) last(t *testing.T) []domain.UserID {
	c.mu.Lock()
	defer c.mu.Unlock()
	require.NotEmpty(t, c.got)
	var online []domain.UserID
	require.NoError(t, json.Unmarshal(c.got[len(c.got)-1], &online))
	return online
}

func (c *fakeConn) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.got)
}

func jsonEncoder(online []domain.UserID) ([]byte, error) {
	return json.Marshal(online)
}

func TestRegistry_Register_And_Lookup(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(slog.Default(), jsonEncoder)
	conn := &fakeConn{name: "a"}

	// Given nobody is connected
	_, ok := registry.Lookup("alice")
	req.False(ok)

	// When alice connects
	prev := registry.Register("alice", conn)

	// Then alice is reachable through her connection
	req.Nil(prev)
	got, ok := registry.Lookup("alice")
	req.True(ok)
	req.Same(conn, got)
	req.Equal([]domain.UserID{"alice"}, registry.Online())
}

func TestRegistry_Newer_Connection_Supersedes_Older(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(slog.Default(), jsonEncoder)
	c1 := &fakeConn{name: "c1"}
	c2 := &fakeConn{name: "c2"}

	registry.Register("u", c1)
	prev := registry.Register("u", c2)

	req.Same(c1, prev)
	got, ok := registry.Lookup("u")
	req.True(ok)
	req.Same(c2, got)
	req.Equal(1, registry.Len())
}

func TestRegistry_Stale_Unregister_Keeps_Newer_Connection(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(slog.Default(), jsonEncoder)
	c1 := &fakeConn{name: "c1"}
	c2 := &fakeConn{name: "c2"}

	// Given c2 superseded c1 for the same user
	registry.Register("u", c1)
	registry.Register("u", c2)
	pushesBefore := c2.count()

	// When c1 disconnects late
	changed := registry.Unregister("u", c1)

	// Then c2 is still registered and no presence change is broadcast
	req.False(changed)
	got, ok := registry.Lookup("u")
	req.True(ok)
	req.Same(c2, got)
	req.Equal(pushesBefore, c2.count())

	// And the real disconnect does remove it
	req.True(registry.Unregister("u", c2))
	_, ok = registry.Lookup("u")
	req.False(ok)
}

func TestRegistry_Broadcasts_Presence_To_All(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(slog.Default(), jsonEncoder)
	a := &fakeConn{name: "a"}
	b := &fakeConn{name: "b"}

	registry.Register("a", a)
	req.Equal([]domain.UserID{"a"}, a.last(t))

	registry.Register("b", b)
	req.Equal([]domain.UserID{"a", "b"}, a.last(t))
	req.Equal([]domain.UserID{"a", "b"}, b.last(t))

	registry.Unregister("b", b)
	req.Equal([]domain.UserID{"a"}, a.last(t))
}

func TestRegistry_Broadcast_Survives_Failing_Connection(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(slog.Default(), jsonEncoder)
	broken := &fakeConn{fail: true}
	ok := &fakeConn{}

	registry.Register("broken", broken)
	registry.Register("ok", ok)

	req.Equal([]domain.UserID{"broken", "ok"}, ok.last(t))
}

func TestRegistry_Concurrent_Connect_Disconnect(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(slog.Default(), nil)

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			userID := domain.UserID(fmt.Sprintf("user-%d", i%10))
			conn := &fakeConn{name: fmt.Sprint(i)}
			registry.Register(userID, conn)
			registry.Lookup(userID)
			registry.Unregister(userID, conn)
		}(i)
	}
	wg.Wait()

	req.Equal(0, registry.Len())
}

type lookupConn struct {
	registry *Registry
	found    chan bool
}

func (c *lookupConn) Push(data []byte) error {
	_, ok := c.registry.Lookup("a")
	c.found <- ok
	return nil
}

func TestRegistry_Lookup_Is_Not_Held_Up_By_Broadcast(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(slog.Default(), jsonEncoder)
	conn := &lookupConn{registry: registry, found: make(chan bool, 1)}

	// When a connection looks up presence while receiving the broadcast
	done := make(chan struct{})
	go func() {
		defer close(done)
		registry.Register("a", conn)
	}()

	// Then the lookup completes and already sees the new entry
	select {
	case ok := <-conn.found:
		req.True(ok)
	case <-time.After(2 * time.Second):
		req.FailNow("lookup blocked during presence broadcast")
	}
	<-done
}

func TestRegistry_Concurrent_Broadcasts_End_On_Final_Snapshot(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(slog.Default(), jsonEncoder)
	watcher := &fakeConn{name: "watcher"}
	registry.Register("watcher", watcher)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			registry.Register(domain.UserID(fmt.Sprintf("user-%02d", i)), &fakeConn{})
		}(i)
	}
	wg.Wait()

	req.Equal(registry.Online(), watcher.last(t))
	req.Equal(21, watcher.count())
}

package ws

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// fakeConn records emitted events and can be told to fail.
type fakeConn struct {
	mu     sync.Mutex
	events []string
	fail   bool
}

func (c *fakeConn) Emit(event string, data interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("connection gone")
	}
	c.events = append(c.events, event)
	return nil
}

func (c *fakeConn) emitted() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.events...)
}

func TestRegistry_AddRemove(t *testing.T) {
	r := NewRegistry()
	conn := &fakeConn{}

	assert.False(t, r.Online("u1"))
	r.Add("u1", conn)
	assert.True(t, r.Online("u1"))
	assert.Equal(t, 1, r.Count())

	got, ok := r.Get("u1")
	assert.True(t, ok)
	assert.Same(t, conn, got.(*fakeConn))

	r.Remove("u1", conn)
	assert.False(t, r.Online("u1"))
	assert.Equal(t, 0, r.Count())
}

func TestRegistry_ReconnectLastWriterWins(t *testing.T) {
	r := NewRegistry()
	old := &fakeConn{}
	fresh := &fakeConn{}

	r.Add("u1", old)
	r.Add("u1", fresh)

	got, ok := r.Get("u1")
	assert.True(t, ok)
	assert.Same(t, fresh, got.(*fakeConn))

	// The superseded connection's disconnect must not evict the fresh one
	r.Remove("u1", old)
	assert.True(t, r.Online("u1"))

	r.Remove("u1", fresh)
	assert.False(t, r.Online("u1"))
}

func TestRegistry_ConcurrentChurn(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			userID := fmt.Sprintf("user-%d", n%10)
			conn := &fakeConn{}
			r.Add(userID, conn)
			r.Online(userID)
			r.Remove(userID, conn)
		}(i)
	}
	wg.Wait()

	// Every Remove was keyed to its own conn; whatever remains is consistent
	assert.LessOrEqual(t, r.Count(), 10)
}

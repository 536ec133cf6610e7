package ws

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDispatcher_DeliversToOnlineUser(t *testing.T) {
	r := NewRegistry()
	d := NewDispatcher(r)
	conn := &fakeConn{}
	r.Add("u1", conn)

	delivered := d.Dispatch("u1", "TRADE_REQUEST_RECEIVED", map[string]string{"tradeId": "abc"})
	assert.True(t, delivered)
	assert.Equal(t, []string{"TRADE_REQUEST_RECEIVED"}, conn.emitted())
}

func TestDispatcher_OfflineUserIsNotAnError(t *testing.T) {
	d := NewDispatcher(NewRegistry())

	delivered := d.Dispatch("nobody", "REVIEW_RECEIVED", nil)
	assert.False(t, delivered)
}

func TestDispatcher_EmitFailureReportsUndelivered(t *testing.T) {
	r := NewRegistry()
	d := NewDispatcher(r)
	conn := &fakeConn{fail: true}
	r.Add("u1", conn)

	delivered := d.Dispatch("u1", "TRADE_MARKED_COMPLETE", nil)
	assert.False(t, delivered)
}

func TestDispatcher_ReconnectReroutesDelivery(t *testing.T) {
	r := NewRegistry()
	d := NewDispatcher(r)
	old := &fakeConn{}
	fresh := &fakeConn{}

	r.Add("u1", old)
	r.Add("u1", fresh)

	delivered := d.Dispatch("u1", "CHAT_RECEIVE", nil)
	assert.True(t, delivered)
	assert.Empty(t, old.emitted())
	assert.Equal(t, []string{"CHAT_RECEIVE"}, fresh.emitted())
}

package ws

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Emit and shutdown never touch the underlying connection, so a client
// without one is enough here.
func TestClient_EmitBufferFull(t *testing.T) {
	client := newClient("u1", nil, nil)

	for i := 0; i < sendBufferSize; i++ {
		require.NoError(t, client.Emit("chat:receive", map[string]string{"n": "x"}))
	}

	// Saturation drops the frame but leaves the connection alive
	err := client.Emit("chat:receive", map[string]string{"n": "overflow"})
	assert.ErrorIs(t, err, ErrSendBufferFull)
	assert.ErrorIs(t, client.Emit("typing", nil), ErrSendBufferFull)

	// Draining one frame makes room again
	<-client.send
	assert.NoError(t, client.Emit("chat:receive", map[string]string{"n": "y"}))
}

func TestClient_EmitAfterShutdown(t *testing.T) {
	client := newClient("u1", nil, nil)

	require.NoError(t, client.Emit("chat:receive", map[string]string{"n": "x"}))

	client.shutdown()
	assert.ErrorIs(t, client.Emit("chat:receive", nil), ErrClientClosed)

	// Repeated shutdown must not close the channel twice
	client.shutdown()
	assert.ErrorIs(t, client.Emit("chat:receive", nil), ErrClientClosed)
}

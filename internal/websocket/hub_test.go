package websocket

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type quietLogger struct{}

func (quietLogger) Debug(module, message string, details map[string]interface{}) {}
func (quietLogger) Info(module, message string, details map[string]interface{})  {}
func (quietLogger) Warn(module, message string, details map[string]interface{})  {}
func (quietLogger) Error(module, message string, details map[string]interface{}) {}
func (quietLogger) Sync() error                                                  { return nil }

func (h *Hub) clientCount(userId uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userId])
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestSendBalanceUpdateDeliversToRegisteredClient(t *testing.T) {
	hub := NewHub(nil, quietLogger{})
	go hub.Run()

	client := &Client{Hub: hub, UserID: uuid.New(), Send: make(chan []byte, 4)}
	hub.register <- client
	waitFor(t, func() bool { return hub.clientCount(client.UserID) == 1 })

	hub.SendBalanceUpdate(BalanceUpdate{UserId: client.UserID, Balance: 42, Delta: -3})

	select {
	case msg := <-client.Send:
		assert.Contains(t, string(msg), "energy_update")
		assert.Contains(t, string(msg), `"balance":42`)
	case <-time.After(2 * time.Second):
		t.Fatal("no message delivered")
	}
}

// A client whose Send buffer is full gets dropped, and the drop must not
// panic: only the unregister handler closes the channel.
func TestSlowClientDroppedWithoutPanic(t *testing.T) {
	hub := NewHub(nil, quietLogger{})
	go hub.Run()

	client := &Client{Hub: hub, UserID: uuid.New(), Send: make(chan []byte)}
	hub.register <- client
	waitFor(t, func() bool { return hub.clientCount(client.UserID) == 1 })

	// Nothing reads Send, so delivery takes the drop path.
	hub.SendBalanceUpdate(BalanceUpdate{UserId: client.UserID, Balance: 7})
	waitFor(t, func() bool { return hub.clientCount(client.UserID) == 0 })

	// The channel was closed exactly once, by the unregister handler.
	_, open := <-client.Send
	require.False(t, open)

	// A later update for the same user is a no-op, not a panic.
	hub.SendBalanceUpdate(BalanceUpdate{UserId: client.UserID, Balance: 6})
}

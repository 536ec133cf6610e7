package ws

import (
	"encoding/json"
	"log"
)

// Dispatcher performs at-most-one delivery attempt per event against the
// presence registry. Every attempt is logged with its outcome; for events
// to offline users that log line is the only record. There is no durable
// queue and nothing is retried. Chat messages survive regardless because
// they are persisted before dispatch is attempted.
type Dispatcher struct {
	registry *Registry
}

// NewDispatcher creates a Dispatcher over the given registry.
func NewDispatcher(registry *Registry) *Dispatcher {
	return &Dispatcher{registry: registry}
}

// Dispatch emits payload tagged with event to userID's live connection, if
// one exists. Returns whether the event was handed to a connection. A
// dispatch racing a disconnect may report either outcome.
func (d *Dispatcher) Dispatch(userID string, event string, payload interface{}) bool {
	delivered := false
	if conn, ok := d.registry.Get(userID); ok {
		if err := conn.Emit(event, payload); err != nil {
			log.Printf("Dispatch %s to user %s: emit failed: %v", event, userID, err)
		} else {
			delivered = true
		}
	}

	pretty, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		pretty = []byte("<unserializable payload>")
	}
	log.Printf("Dispatch %s to user %s delivered=%v payload=%s", event, userID, delivered, pretty)

	return delivered
}

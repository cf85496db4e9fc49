package entity

import (
	"time"

	"github.com/joseph-ayodele/fieldquote-sync/constants"
)

// InboundEvent is a raw push payload as delivered by the push channel.
type InboundEvent struct {
	Data       map[string]string `json:"data"`
	ReceivedAt time.Time         `json:"received_at"`
}

// Get returns the value for key, or "" when absent.
func (e InboundEvent) Get(key string) string {
	return e.Data[key]
}

// Lookup returns the value for key and whether it is present and non-empty.
func (e InboundEvent) Lookup(key string) (string, bool) {
	v, ok := e.Data[key]
	return v, ok && v != ""
}

// HistoryEntry is one row of the local notification history log.
type HistoryEntry struct {
	ID         int64               `json:"id"`
	EventType  constants.EventType `json:"event_type"`
	Title      string              `json:"title"`
	Body       string              `json:"body"`
	Reference  string              `json:"reference,omitempty"`
	Payload    map[string]string   `json:"payload"`
	ReceivedAt time.Time           `json:"received_at"`
}

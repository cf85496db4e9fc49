package notify

import (
	"fmt"

	"github.com/joseph-ayodele/fieldquote-sync/constants"
)

type Priority string

const (
	PriorityHigh    Priority = "high"
	PriorityDefault Priority = "default"
)

// ActionViewDetails opens the quote named by the alert's Reference.
const ActionViewDetails = "View Details"

// Alert is what the notification surface shows.
type Alert struct {
	Type      constants.EventType `json:"type"`
	Priority  Priority            `json:"priority"`
	Title     string              `json:"title"`
	Body      string              `json:"body"`
	Reference string              `json:"reference,omitempty"` // quote id
	Actions   []string            `json:"actions,omitempty"`
}

const (
	unknownClient = "A client"
	unknownAmount = "0.00"
)

// Render builds the alert for a classified event. ok is false for
// Unrecognized.
func Render(e Event) (Alert, bool) {
	switch v := e.(type) {
	case QuoteAccepted:
		return Alert{
			Type:      v.Type(),
			Priority:  PriorityHigh,
			Title:     "Quote Accepted!",
			Body:      fmt.Sprintf("%s has accepted your quote for $%s", or(v.ClientName, unknownClient), or(v.TotalAmount, unknownAmount)),
			Reference: v.QuoteID,
			Actions:   []string{ActionViewDetails},
		}, true
	case QuoteViewed:
		return Alert{
			Type:     v.Type(),
			Priority: PriorityDefault,
			Title:    "Quote Viewed",
			Body:     fmt.Sprintf("%s is viewing your quote", or(v.ClientName, unknownClient)),
		}, true
	case Reminder:
		return Alert{
			Type:     v.Type(),
			Priority: PriorityDefault,
			Title:    "Quote Reminder",
			Body:     or(v.Message, constants.DefaultReminderMessage),
		}, true
	case Generic:
		return Alert{
			Type:     v.Type(),
			Priority: PriorityDefault,
			Title:    v.Title,
			Body:     v.Body,
		}, true
	default:
		return Alert{}, false
	}
}

func or(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// Package notify classifies inbound push payloads and routes each one to the
// local notification surface and the history log.
package notify

import (
	"github.com/joseph-ayodele/fieldquote-sync/constants"
	"github.com/joseph-ayodele/fieldquote-sync/internal/entity"
)

// Event is the parsed form of an inbound payload. The set of variants is
// closed: QuoteAccepted, QuoteViewed, Reminder, Generic and Unrecognized.
type Event interface {
	Type() constants.EventType
	event()
}

type QuoteAccepted struct {
	QuoteID     string
	ClientName  string
	TotalAmount string
	AcceptedAt  string
}

type QuoteViewed struct {
	QuoteID    string
	ClientName string
}

type Reminder struct {
	Message string // empty when the payload carried none
}

// Generic is an untyped payload that still carries a title and body.
type Generic struct {
	Title string
	Body  string
}

// Unrecognized is dropped by the dispatcher.
type Unrecognized struct {
	RawType string
}

func (QuoteAccepted) Type() constants.EventType { return constants.EventQuoteAccepted }
func (QuoteViewed) Type() constants.EventType   { return constants.EventQuoteViewed }
func (Reminder) Type() constants.EventType      { return constants.EventReminder }
func (Generic) Type() constants.EventType       { return constants.EventGeneric }
func (u Unrecognized) Type() constants.EventType {
	return constants.EventType(u.RawType)
}

func (QuoteAccepted) event() {}
func (QuoteViewed) event()   {}
func (Reminder) event()      {}
func (Generic) event()       {}
func (Unrecognized) event()  {}

// Classify maps a payload onto exactly one variant. A recognized type wins;
// otherwise a payload with both title and body is Generic; anything else is
// Unrecognized.
func Classify(ev entity.InboundEvent) Event {
	switch t := constants.EventType(ev.Get(constants.FieldType)); t {
	case constants.EventQuoteAccepted:
		return QuoteAccepted{
			QuoteID:     ev.Get(constants.FieldQuoteID),
			ClientName:  ev.Get(constants.FieldClientName),
			TotalAmount: ev.Get(constants.FieldTotalAmount),
			AcceptedAt:  ev.Get(constants.FieldAcceptedAt),
		}
	case constants.EventQuoteViewed:
		return QuoteViewed{
			QuoteID:    ev.Get(constants.FieldQuoteID),
			ClientName: ev.Get(constants.FieldClientName),
		}
	case constants.EventReminder:
		return Reminder{Message: ev.Get(constants.FieldMessage)}
	}

	title, hasTitle := ev.Lookup(constants.FieldTitle)
	body, hasBody := ev.Lookup(constants.FieldBody)
	if hasTitle && hasBody {
		return Generic{Title: title, Body: body}
	}
	return Unrecognized{RawType: ev.Get(constants.FieldType)}
}

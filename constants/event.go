package constants

// EventType is the value of the distinguished "type" key of an inbound push payload.
type EventType string

// Stable wire values sent by the acceptance server.
const (
	EventQuoteAccepted EventType = "quote_accepted"
	EventQuoteViewed   EventType = "quote_viewed"
	EventReminder      EventType = "reminder"
	EventGeneric       EventType = "generic" // local only: untyped title/body payloads
)

// Payload keys read by the classifier.
const (
	FieldType        = "type"
	FieldQuoteID     = "quoteId"
	FieldClientName  = "clientName"
	FieldTotalAmount = "totalAmount"
	FieldAcceptedAt  = "acceptedAt"
	FieldMessage     = "message"
	FieldTitle       = "title"
	FieldBody        = "body"
)

// DefaultReminderMessage is shown when a reminder carries no message.
const DefaultReminderMessage = "You have pending quotes"

package domain

import (
	"time"
)

const (
	MessageIDLength    = 34
	RecipientMinLength = 12
	RecipientMaxLength = 30

	StatusSent     = "sent"
	StatusFailed   = "failed"
	StatusCanceled = "canceled"
)

// Message is one SMS dispatch attempt, or a delivery status update for one.
type Message struct {
	ID           *int64     `json:"id"`
	EventID      *int64     `json:"eventId"`
	MessageID    *string    `json:"messageId"`
	Recipient    string     `json:"recipient"`
	Status       *string    `json:"status"`
	SentDT       *time.Time `json:"sentDT"`
	DeliveredDT  *time.Time `json:"deliveredDT"`
	ErrorCode    *int64     `json:"errorCode"`
	ErrorMessage *string    `json:"errorMessage"`
	Created      *time.Time `json:"created"`
	Updated      *time.Time `json:"updated"`
}

// ParseMessage validates a message payload, such as one assembled from a
// Twilio status callback.
func ParseMessage(payload map[string]any) (*Message, error) {
	r := newPayloadReader("Message", payload)

	m := &Message{
		ID:           r.positiveInt("id"),
		EventID:      r.positiveInt("eventId"),
		MessageID:    r.str("messageId"),
		Recipient:    r.requiredStr("recipient", RecipientMinLength, RecipientMaxLength),
		Status:       r.str("status"),
		SentDT:       r.timestamp("sentDT"),
		DeliveredDT:  r.timestamp("deliveredDT"),
		ErrorCode:    r.int("errorCode"),
		ErrorMessage: r.str("errorMessage"),
		Created:      r.timestamp("created"),
		Updated:      r.timestamp("updated"),
	}
	if m.MessageID != nil {
		if err := ValidateMessageID(*m.MessageID); err != nil {
			r.verr.add("messageId", err)
		}
	}

	if err := r.verr.errOrNil(); err != nil {
		return nil, err
	}
	return m, nil
}

// ValidateRecipient checks the shape of a recipient phone number.
func ValidateRecipient(recipient string) error {
	if err := checkLength(recipient, RecipientMinLength, RecipientMaxLength); err != nil {
		return &ValidationError{Entity: "Message", Fields: []FieldError{{Field: "recipient", Reason: err.Error()}}}
	}
	return nil
}

// ValidateMessageID checks that a provider message id has exactly
// MessageIDLength characters.
func ValidateMessageID(messageID string) error {
	return checkLength(messageID, MessageIDLength, MessageIDLength)
}

// Validate re-checks the bounds of a Message built in code rather than parsed.
func (m *Message) Validate() error {
	verr := &ValidationError{Entity: "Message"}
	if err := checkLength(m.Recipient, RecipientMinLength, RecipientMaxLength); err != nil {
		verr.add("recipient", err)
	}
	if m.MessageID != nil {
		if err := ValidateMessageID(*m.MessageID); err != nil {
			verr.add("messageId", err)
		}
	}
	if m.ID != nil && *m.ID <= 0 {
		verr.add("id", errNotPositive)
	}
	if m.EventID != nil && *m.EventID <= 0 {
		verr.add("eventId", errNotPositive)
	}
	return verr.errOrNil()
}

// InsertArgs returns the messages table insert columns in schema order.
func (m *Message) InsertArgs() []any {
	return []any{
		deref(m.EventID),
		deref(m.MessageID),
		m.Recipient,
		deref(m.Status),
		deref(m.SentDT),
		deref(m.DeliveredDT),
		deref(m.ErrorCode),
		deref(m.ErrorMessage),
	}
}

// UpdateArgs returns the status update parameters, message id last.
func (m *Message) UpdateArgs() ([]any, error) {
	if m.MessageID == nil {
		return nil, ErrMissingMessageID
	}

	return []any{
		deref(m.Status),
		deref(m.SentDT),
		deref(m.DeliveredDT),
		deref(m.ErrorCode),
		deref(m.ErrorMessage),
		deref(m.Updated),
		*m.MessageID,
	}, nil
}

package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event is one iMonnit rule trigger together with the SMS dispatch outcomes
// attached to it.
type Event struct {
	ID                int64      `json:"id,omitempty"`
	Rule              string     `json:"rule"`
	Subject           *string    `json:"subject"`
	DeviceID          *int64     `json:"deviceID"`
	DeviceName        *string    `json:"name"`
	Reading           *string    `json:"reading"`
	TriggeredDT       *time.Time `json:"triggeredDT"`
	ReadingDT         *time.Time `json:"readingDT"`
	OriginalReadingDT *time.Time `json:"originalReadingDT"`
	AcknowledgeURL    *string    `json:"acknowledgeURL"`
	ParentAccount     *string    `json:"parentAccount"`
	NetworkID         *int64     `json:"networkID"`
	Network           *string    `json:"network"`
	AccountID         *int64     `json:"accountID"`
	AccountNumber     *string    `json:"accountNumber"`
	CompanyName       *string    `json:"companyName"`
	Created           *time.Time `json:"created"`

	Messages []*Message `json:"-"`
}

// ParseEvent validates an iMonnit rule webhook payload.
func ParseEvent(payload map[string]any) (*Event, error) {
	r := newPayloadReader("Event", payload)

	e := &Event{
		Rule:           r.requiredStr("rule", 1, 0),
		Subject:        r.str("subject"),
		DeviceID:       r.int("deviceID"),
		DeviceName:     r.str("name"),
		Reading:        r.str("reading"),
		AcknowledgeURL: r.str("acknowledgeURL"),
		ParentAccount:  r.str("parentAccount"),
		NetworkID:      r.int("networkID"),
		Network:        r.str("network"),
		AccountID:      r.int("accountID"),
		AccountNumber:  r.str("accountNumber"),
		CompanyName:    r.str("companyName"),
		Created:        r.timestamp("created"),
	}
	if id := r.positiveInt("id"); id != nil {
		e.ID = *id
	}

	e.TriggeredDT = r.composite("triggeredDT", "date", "time")
	e.ReadingDT = r.composite("readingDT", "readingDate", "readingTime")
	e.OriginalReadingDT = r.composite("originalReadingDT", "originalReadingDate", "originalReadingTime")

	if err := r.verr.errOrNil(); err != nil {
		return nil, err
	}
	return e, nil
}

// MessageBody renders the SMS text sent for this event.
func (e *Event) MessageBody() string {
	dt := ""
	if e.TriggeredDT != nil {
		dt = e.TriggeredDT.Format(bodyTimeLayout)
	}

	return fmt.Sprintf("%s triggered by %s (%s)\nTime: %s\nReading: %s\nAcknowledge: %s",
		e.Rule, text(e.DeviceName), text(e.DeviceID), dt, text(e.Reading), text(e.AcknowledgeURL))
}

// MessageCount is the number of dispatch outcomes attached to the event.
func (e *Event) MessageCount() int {
	return len(e.Messages)
}

// SetEventID assigns the stored id to the event and to every attached message.
func (e *Event) SetEventID(id int64) {
	e.ID = id
	for _, m := range e.Messages {
		m.EventID = &id
	}
}

// ClearEventID undoes SetEventID after a rolled back write.
func (e *Event) ClearEventID() {
	e.ID = 0
	for _, m := range e.Messages {
		m.EventID = nil
	}
}

// InsertArgs returns the events table insert columns in schema order.
func (e *Event) InsertArgs() []any {
	return []any{
		e.Rule,
		deref(e.Subject),
		deref(e.DeviceID),
		deref(e.DeviceName),
		deref(e.Reading),
		deref(e.TriggeredDT),
		deref(e.ReadingDT),
		deref(e.OriginalReadingDT),
		deref(e.AcknowledgeURL),
		e.MessageCount(),
		deref(e.ParentAccount),
		deref(e.NetworkID),
		deref(e.Network),
		deref(e.AccountID),
		deref(e.AccountNumber),
		deref(e.CompanyName),
	}
}

// MessageInsertArgs returns the insert columns of every attached message.
func (e *Event) MessageInsertArgs() [][]any {
	args := make([][]any, 0, len(e.Messages))
	for _, m := range e.Messages {
		args = append(args, m.InsertArgs())
	}
	return args
}

// MarshalJSON adds the computed messageBody and messageCount fields.
func (e *Event) MarshalJSON() ([]byte, error) {
	type event Event
	return json.Marshal(struct {
		*event
		MessageBody  string `json:"messageBody"`
		MessageCount int    `json:"messageCount"`
	}{
		event:        (*event)(e),
		MessageBody:  e.MessageBody(),
		MessageCount: e.MessageCount(),
	})
}

func text[T any](p *T) string {
	if p == nil {
		return ""
	}
	return fmt.Sprint(*p)
}

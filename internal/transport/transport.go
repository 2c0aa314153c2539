package transport

import (
	"context"
	"fmt"
)

// SentMessage is the provider's view of a message it accepted.
type SentMessage struct {
	SID          string
	Status       string
	ErrorCode    *int64
	ErrorMessage *string
}

// SMSTransport hands a single SMS to the provider.
type SMSTransport interface {
	Send(ctx context.Context, to, body string) (*SentMessage, error)
}

// Error is a provider rejection carrying its error code and text.
type Error struct {
	Code    int64
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%q Status = %d", e.Message, e.Code)
}

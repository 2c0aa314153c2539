package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aniladanir/imonnit-sms-connector/internal/cache"
	"github.com/aniladanir/imonnit-sms-connector/internal/domain"
)

const dispatchTTL = 24 * time.Hour

// Dispatch is the cached record of a message handed to the SMS provider.
type Dispatch struct {
	MessageID string    `json:"messageId"`
	Recipient string    `json:"recipient"`
	SentAt    time.Time `json:"sentAt"`
}

func dispatchKey(messageID string) string {
	return fmt.Sprintf("sent_msg:%s", messageID)
}

// CacheDispatch writes the provider id of a sent message to the cache.
func (r *repo) CacheDispatch(ctx context.Context, msg *domain.Message) error {
	if r.cache == nil || msg.MessageID == nil {
		return nil
	}

	value, err := json.Marshal(Dispatch{
		MessageID: *msg.MessageID,
		Recipient: msg.Recipient,
		SentAt:    time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	// Expire after 24 hours to keep memory clean
	return r.cache.Set(ctx, dispatchKey(*msg.MessageID), string(value), dispatchTTL)
}

// LookupDispatch returns the cached dispatch for messageID, or nil when it
// is unknown or caching is disabled.
func (r *repo) LookupDispatch(ctx context.Context, messageID string) (*Dispatch, error) {
	if r.cache == nil {
		return nil, nil
	}

	value, err := r.cache.Get(ctx, dispatchKey(messageID))
	if errors.Is(err, cache.ErrMiss) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var d Dispatch
	if err := json.Unmarshal([]byte(value), &d); err != nil {
		return nil, err
	}
	return &d, nil
}

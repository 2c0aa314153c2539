package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/aniladanir/imonnit-sms-connector/internal/cache"
	"github.com/aniladanir/imonnit-sms-connector/internal/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	insertEventSQL = `INSERT INTO events (rule, subject, device_id, device_name, reading, triggered_dt, reading_dt, ` +
		`original_reading_dt, acknowledge_url, message_count, parent_account, network_id, network, account_id, ` +
		`account_number, company_name) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?) RETURNING id`

	insertMessageSQL = `INSERT INTO messages (event_id, message_id, recipient, status, sent_dt, delivered_dt, ` +
		`error_code, error_message) VALUES (?,?,?,?,?,?,?,?) RETURNING id`

	// postgres has no UPDATE ... LIMIT, the subquery picks the single row
	updateMessageSQL = `UPDATE messages SET status = ?, sent_dt = ?, delivered_dt = ?, error_code = ?, ` +
		`error_message = ?, updated = ? WHERE id = (SELECT id FROM messages WHERE message_id = ? LIMIT 1)`
)

type Repository interface {
	AddEvent(ctx context.Context, event *domain.Event) error
	ApplyCallback(ctx context.Context, msg *domain.Message) error
	AddEventWithMessages(ctx context.Context, event *domain.Event) bool
	UpdateMessage(ctx context.Context, msg *domain.Message) bool
	CacheDispatch(ctx context.Context, msg *domain.Message) error
	LookupDispatch(ctx context.Context, messageID string) (*Dispatch, error)
}

// repo holds only the pooled *gorm.DB. Every call checks out its own
// connection through db.Transaction and gives it back on every exit path,
// so calls never share a live transaction.
type repo struct {
	db     *gorm.DB
	cache  cache.Cache
	logger *zap.Logger
}

// NewNotificationRepository returns the event/message store. cache may be
// nil, in which case dispatch caching is disabled.
func NewNotificationRepository(db *gorm.DB, cache cache.Cache, logger *zap.Logger) Repository {
	return &repo{db: db, cache: cache, logger: logger}
}

// AddEvent inserts the event and all of its messages in one transaction.
func (r *repo) AddEvent(ctx context.Context, event *domain.Event) error {
	var messageIDs []int64

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var eventID int64
		if err := tx.Raw(insertEventSQL, event.InsertArgs()...).Scan(&eventID).Error; err != nil {
			return fmt.Errorf("failed to insert event: %w", err)
		}
		if eventID <= 0 {
			return errors.New("id is missing after inserting event")
		}

		// messages embed the event id, so it must be set before they are inserted
		event.SetEventID(eventID)

		for _, args := range event.MessageInsertArgs() {
			var messageID int64
			if err := tx.Raw(insertMessageSQL, args...).Scan(&messageID).Error; err != nil {
				return fmt.Errorf("failed to insert message: %w", err)
			}
			messageIDs = append(messageIDs, messageID)
		}

		return nil
	})
	if err != nil {
		event.ClearEventID()
		r.logger.Error("error adding event with messages to db", zap.Error(err))
		return fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}

	r.logger.Info("added event to db", zap.Int64("eventId", event.ID), zap.Int64s("messageRowIds", messageIDs))
	return nil
}

// ApplyCallback updates one stored message matching msg.MessageID.
func (r *repo) ApplyCallback(ctx context.Context, msg *domain.Message) error {
	args, err := msg.UpdateArgs()
	if err != nil {
		r.logger.Error("error updating message", zap.Error(err))
		return fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}

	var rowID int64
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var found bool
		var err error
		rowID, found, err = ResolveMessage(tx, *msg.MessageID)
		if err != nil {
			return fmt.Errorf("failed to resolve message: %w", err)
		}
		if !found {
			return domain.ErrCorrelationNotFound
		}

		res := tx.Exec(updateMessageSQL, args...)
		if res.Error != nil {
			return fmt.Errorf("failed to update message: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return domain.ErrCorrelationNotFound
		}

		return nil
	})
	if err != nil {
		r.logger.Error("error updating message", zap.Stringp("messageId", msg.MessageID), zap.Error(err))
		if errors.Is(err, domain.ErrCorrelationNotFound) {
			return err
		}
		return fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}

	r.logger.Info("updated message in db", zap.Int64("id", rowID), zap.Stringp("messageId", msg.MessageID))
	return nil
}

// AddEventWithMessages reports whether the event and every message were stored.
func (r *repo) AddEventWithMessages(ctx context.Context, event *domain.Event) bool {
	return r.AddEvent(ctx, event) == nil
}

// UpdateMessage reports whether a stored message was updated.
func (r *repo) UpdateMessage(ctx context.Context, msg *domain.Message) bool {
	return r.ApplyCallback(ctx, msg) == nil
}

package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/aniladanir/imonnit-sms-connector/internal/domain"
	"github.com/aniladanir/imonnit-sms-connector/internal/metrics"
	"github.com/aniladanir/imonnit-sms-connector/internal/repository/notification"
	"go.uber.org/zap"
)

const badDataBody = "Error: Received bad data from iMonnit Webhook!"

// Notifier is what the webhook handlers call into.
type Notifier interface {
	HandleTrigger(ctx context.Context, payload map[string]any) error
	HandleCallback(ctx context.Context, form map[string]string) error
}

// Connector ties rule triggers to SMS dispatch and persistence, and applies
// delivery status callbacks to stored messages.
//
// A Connector is built once at startup and shared by all requests. It keeps
// no per-request state; each call gets its own database transaction from
// the repository.
type Connector struct {
	dispatcher *Dispatcher
	repo       notification.Repository
	recipients []string
	errorCodes *ErrorCodes
	metrics    *metrics.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

func NewConnector(dispatcher *Dispatcher, repo notification.Repository, recipients []string, errorCodes *ErrorCodes, m *metrics.Metrics, logger *zap.Logger) *Connector {
	return &Connector{
		dispatcher: dispatcher,
		repo:       repo,
		recipients: recipients,
		errorCodes: errorCodes,
		metrics:    m,
		logger:     logger,
		now:        domain.NaiveNow,
	}
}

// HandleTrigger validates a rule trigger, texts it to every recipient and
// stores it with the dispatch outcomes. Nothing is stored unless at least
// one recipient was reached.
func (c *Connector) HandleTrigger(ctx context.Context, payload map[string]any) error {
	c.logger.Info("iMonnit webhook received")
	sendSMS := len(c.recipients) > 0

	event, err := domain.ParseEvent(payload)
	if err != nil {
		if sendSMS {
			// best effort, the outcome is neither stored nor checked
			c.dispatcher.Send(ctx, badDataBody, c.recipients)
		}
		c.logger.Error("received bad data from iMonnit webhook", zap.Error(err))
		c.countTrigger("invalid")
		return err
	}
	c.logger.Info("rule triggered", zap.String("rule", event.Rule))

	if sendSMS {
		result := c.dispatcher.Send(ctx, event.MessageBody(), c.recipients)
		event.Messages = result.Messages

		if !result.AnySent {
			c.countTrigger("dispatch_exhausted")
			return &domain.DispatchExhaustedError{ErrorCodes: result.ErrorCodes()}
		}
	} else {
		c.logger.Info("no SMS recipients")
	}

	if err := c.repo.AddEvent(ctx, event); err != nil {
		c.countTrigger("persistence_failed")
		return err
	}

	c.countTrigger("ok")
	return nil
}

// HandleCallback applies a twilio status callback to the stored message
// with the same message sid.
func (c *Connector) HandleCallback(ctx context.Context, form map[string]string) error {
	c.logger.Info("twilio webhook received")
	now := c.now()

	// twilio does not send these, they are filled in on receipt
	var sentDT any
	if form["MessageStatus"] == domain.StatusSent {
		sentDT = now
	}
	var errorMessage *string
	if code, ok := form["ErrorCode"]; ok && strings.TrimSpace(code) != "" {
		errorMessage = c.errorCodes.Lookup(code)
	}

	msg, err := domain.ParseMessage(map[string]any{
		"messageId":    form["MessageSid"],
		"recipient":    form["To"],
		"status":       form["MessageStatus"],
		"sentDT":       sentDT,
		"deliveredDT":  form["RawDlrDoneDate"],
		"errorCode":    form["ErrorCode"],
		"errorMessage": errorMessage,
		"updated":      now,
	})
	if err != nil {
		c.logger.Error("received bad data from twilio webhook", zap.Error(err))
		c.countCallback("invalid")
		return err
	}
	c.logger.Info("message status received", zap.Stringp("messageId", msg.MessageID), zap.Stringp("status", msg.Status))

	if err := c.repo.ApplyCallback(ctx, msg); err != nil {
		if errors.Is(err, domain.ErrCorrelationNotFound) {
			c.countCallback("not_found")
		} else {
			c.countCallback("persistence_failed")
		}
		return err
	}

	if msg.MessageID != nil {
		c.observeLatency(ctx, *msg.MessageID)
	}
	c.countCallback("ok")
	return nil
}

func (c *Connector) observeLatency(ctx context.Context, messageID string) {
	dispatch, err := c.repo.LookupDispatch(ctx, messageID)
	if err != nil {
		c.logger.Warn("failed to read dispatch cache", zap.String("messageId", messageID), zap.Error(err))
		return
	}
	if dispatch == nil {
		return
	}

	latency := time.Since(dispatch.SentAt)
	c.logger.Debug("callback for cached dispatch", zap.String("messageId", messageID), zap.Duration("latency", latency))
	if c.metrics != nil {
		c.metrics.CallbackLatency.Observe(latency.Seconds())
	}
}

func (c *Connector) countTrigger(outcome string) {
	if c.metrics != nil {
		c.metrics.TriggersTotal.WithLabelValues(outcome).Inc()
	}
}

func (c *Connector) countCallback(outcome string) {
	if c.metrics != nil {
		c.metrics.CallbacksTotal.WithLabelValues(outcome).Inc()
	}
}

package service

import (
	"context"
	"errors"
	"strings"

	"github.com/aniladanir/imonnit-sms-connector/internal/domain"
	"github.com/aniladanir/imonnit-sms-connector/internal/metrics"
	"github.com/aniladanir/imonnit-sms-connector/internal/transport"
	"go.uber.org/zap"
)

// DispatchRecorder remembers messages handed to the provider.
type DispatchRecorder interface {
	CacheDispatch(ctx context.Context, msg *domain.Message) error
}

// DispatchResult is the outcome of sending one body to every recipient.
type DispatchResult struct {
	// AnySent is false only when every recipient failed.
	AnySent bool
	// Messages holds one entry per recipient that reached the transport,
	// in recipient order.
	Messages []*domain.Message
	Failed   int
}

// ErrorCodes lists the error code of every recorded message, in order.
func (r DispatchResult) ErrorCodes() []*int64 {
	codes := make([]*int64, 0, len(r.Messages))
	for _, m := range r.Messages {
		codes = append(codes, m.ErrorCode)
	}
	return codes
}

// Dispatcher sends SMS to a list of recipients one at a time. It keeps no
// state between calls and is safe for concurrent use.
type Dispatcher struct {
	transport transport.SMSTransport
	recorder  DispatchRecorder
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// NewDispatcher creates a dispatcher. recorder and m may be nil.
func NewDispatcher(t transport.SMSTransport, recorder DispatchRecorder, m *metrics.Metrics, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		transport: t,
		recorder:  recorder,
		metrics:   m,
		logger:    logger,
	}
}

// Send sends body to every recipient sequentially. A failing recipient
// never stops the remaining ones.
func (d *Dispatcher) Send(ctx context.Context, body string, recipients []string) DispatchResult {
	result := DispatchResult{Messages: make([]*domain.Message, 0, len(recipients))}

	if body == "" {
		d.logger.Error("message body cannot be empty")
		return result
	}
	d.logger.Info("sending SMS with twilio", zap.Int("recipients", len(recipients)))

	for _, recipient := range recipients {
		recipientLogger := d.logger.With(zap.String("recipient", recipient))

		if err := domain.ValidateRecipient(recipient); err != nil {
			recipientLogger.Error("unable to validate message", zap.Error(err))
			result.Failed++
			d.observe("skipped")
			continue
		}

		sent, err := d.transport.Send(ctx, recipient, body)
		if err != nil {
			result.Messages = append(result.Messages, failedMessage(recipient, err))
			result.Failed++
			recipientLogger.Error("failed to send message", zap.Error(err))
			d.observe("failed")
			continue
		}

		msg := &domain.Message{
			Recipient:    recipient,
			MessageID:    optional(sent.SID),
			Status:       optional(sent.Status),
			ErrorCode:    sent.ErrorCode,
			ErrorMessage: sent.ErrorMessage,
		}
		if err := msg.Validate(); err != nil {
			recipientLogger.Error("unable to validate message", zap.String("messageId", sent.SID), zap.Error(err))
			result.Failed++
			d.observe("invalid")
			continue
		}
		result.Messages = append(result.Messages, msg)
		d.observe("sent")

		if sent.Status == domain.StatusCanceled || sent.Status == domain.StatusFailed {
			recipientLogger.Warn("created message, but with failed status",
				zap.String("messageId", sent.SID), zap.String("status", sent.Status))
		} else {
			recipientLogger.Info("successfully created message",
				zap.String("messageId", sent.SID), zap.String("status", sent.Status))
		}

		if d.recorder != nil {
			if err := d.recorder.CacheDispatch(ctx, msg); err != nil {
				recipientLogger.Warn("failed to cache dispatched message", zap.Error(err))
			}
		}
	}

	if result.Failed == 0 {
		d.logger.Info("all SMS sent successfully")
	} else {
		d.logger.Warn("failed to send some messages", zap.Int("failed", result.Failed))
	}

	result.AnySent = result.Failed < len(recipients)
	if !result.AnySent {
		d.logger.Warn("unable to send anything with twilio, likely throttled, no valid recipients, or invalid from number")
	}

	return result
}

func (d *Dispatcher) observe(result string) {
	if d.metrics != nil {
		d.metrics.DispatchTotal.WithLabelValues(result).Inc()
	}
}

func failedMessage(recipient string, err error) *domain.Message {
	status := domain.StatusFailed
	msg := &domain.Message{Recipient: recipient, Status: &status}

	var terr *transport.Error
	if errors.As(err, &terr) {
		code := terr.Code
		msg.ErrorCode = &code
		msg.ErrorMessage = optional(terr.Message)
	} else {
		msg.ErrorMessage = optional(err.Error())
	}
	return msg
}

func optional(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

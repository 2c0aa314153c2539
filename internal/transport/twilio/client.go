package twilio

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/aniladanir/imonnit-sms-connector/internal/transport"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL = "https://api.twilio.com"
	messagesPath   = "/2010-04-01/Accounts/{accountSid}/Messages.json"
)

type Config struct {
	BaseURL      string
	AccountSID   string
	APIKeySID    string
	APIKeySecret string
	From         string
	// StatusCallback is the url twilio posts delivery status updates to.
	// Empty disables callbacks.
	StatusCallback string
	Timeout        time.Duration
	Debug          bool
}

// Client sends SMS through the twilio Messages REST API.
type Client struct {
	http           *resty.Client
	accountSID     string
	from           string
	statusCallback string
	logger         *zap.Logger
}

// messageResource is the subset of the twilio Message resource we read.
//
// status is one of queued, sending, sent, failed, delivered, undelivered,
// receiving or received; error_code and error_message are set only for
// failed or undelivered messages.
type messageResource struct {
	SID          string  `json:"sid"`
	Status       string  `json:"status"`
	ErrorCode    *int64  `json:"error_code"`
	ErrorMessage *string `json:"error_message"`
}

type apiError struct {
	Code     int64  `json:"code"`
	Message  string `json:"message"`
	MoreInfo string `json:"more_info"`
	Status   int    `json:"status"`
}

func NewClient(cfg Config, logger *zap.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(cfg.Timeout).
		SetBasicAuth(cfg.APIKeySID, cfg.APIKeySecret).
		SetHeader("Accept", "application/json").
		SetLogger(logger.Named("httpclient").Sugar()).
		SetDebug(cfg.Debug)

	if cfg.StatusCallback != "" {
		logger.Info("using twilio status callbacks")
	}

	return &Client{
		http:           httpClient,
		accountSID:     cfg.AccountSID,
		from:           cfg.From,
		statusCallback: cfg.StatusCallback,
		logger:         logger,
	}
}

// Send creates one outbound message. Rejections by twilio are returned as
// *transport.Error.
func (c *Client) Send(ctx context.Context, to, body string) (*transport.SentMessage, error) {
	form := map[string]string{
		"To":   to,
		"From": c.from,
		"Body": body,
	}
	if c.statusCallback != "" {
		form["StatusCallback"] = c.statusCallback
	}

	var result messageResource
	var failure apiError
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("X-Request-ID", uuid.NewString()).
		SetPathParam("accountSid", c.accountSID).
		SetFormData(form).
		SetResult(&result).
		SetError(&failure).
		Post(messagesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	// the http status is the recorded error code, twilio's code is only logged
	if resp.IsError() {
		msg := failure.Message
		if msg == "" {
			msg = resp.Status()
		}
		c.logger.Error("twilio rejected message",
			zap.Int("status", resp.StatusCode()), zap.Int64("twilioCode", failure.Code), zap.String("moreInfo", failure.MoreInfo))
		return nil, &transport.Error{Code: int64(resp.StatusCode()), Message: msg}
	}

	return &transport.SentMessage{
		SID:          result.SID,
		Status:       result.Status,
		ErrorCode:    result.ErrorCode,
		ErrorMessage: result.ErrorMessage,
	}, nil
}

// StatusCallbackURL builds the authenticated callback url pointing back at
// this service's twilio webhook.
func StatusCallbackURL(user, password, hostname string) string {
	u := url.URL{
		Scheme: "https",
		User:   url.UserPassword(user, password),
		Host:   hostname,
		Path:   "/webhook/twilio",
	}
	return u.String()
}

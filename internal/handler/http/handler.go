package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	_ "github.com/aniladanir/imonnit-sms-connector/docs"
	"github.com/aniladanir/imonnit-sms-connector/internal/domain"
	"github.com/aniladanir/imonnit-sms-connector/internal/metrics"
	"github.com/aniladanir/imonnit-sms-connector/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

const (
	authRealm          = "Login Required"
	unexpectedDataBody = "Unexpected Data"
	addEventFailedBody = "Unable to add event details to db"
	callbackFailedBody = "Unable to update db with message callback"
)

// HealthCheck reports whether the service can reach its dependencies.
type HealthCheck func(ctx context.Context) error

type Handler struct {
	notifier service.Notifier
	health   HealthCheck
	logger   *zap.Logger
	server   *http.Server
}

// @title iMonnit SMS Connector API
// @version 1.0
// @description Receives iMonnit rule webhooks, texts them to recipients through Twilio and records delivery status callbacks
// @host localhost:5080
// @BasePath /
// @securityDefinitions.basic BasicAuth
func NewHttpHandler(
	addr string,
	svc service.Notifier,
	accounts gin.Accounts,
	health HealthCheck,
	gatherer prometheus.Gatherer,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Handler {
	h := &Handler{
		notifier: svc,
		health:   health,
		logger:   logger,
	}

	// create router
	router := gin.New()
	router.Use(gin.Recovery(), requestID(), accessLog(logger))
	if m != nil {
		router.Use(instrument(m))
	}

	// register routes
	webhook := router.Group("/webhook", gin.BasicAuthForRealm(accounts, authRealm))
	webhook.POST("/imonnit", h.imonnit)
	webhook.POST("/twilio", h.twilio)

	router.GET("/healthz", h.healthz)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// create http server
	h.server = &http.Server{
		Addr:              addr,
		Handler:           router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return h
}

func (h *Handler) Run() error {
	return h.server.ListenAndServe()
}

func (h *Handler) Shutdown(ctx context.Context) error {
	return h.server.Shutdown(ctx)
}

// Imonnit godoc
// @Summary Receive an iMonnit rule webhook
// @Description Validates the rule trigger, sends it as SMS to every configured recipient and stores the event with the send results
// @Tags Webhook
// @Accept json
// @Produce plain
// @Param event body domain.Event true "iMonnit rule webhook"
// @Success 200
// @Failure 400 {string} string "Unexpected Data"
// @Failure 401
// @Failure 500 {string} string "Sending Twilio messages resulted in errors"
// @Security BasicAuth
// @Router /webhook/imonnit [post]
func (h *Handler) imonnit(c *gin.Context) {
	var payload map[string]any
	if err := c.ShouldBindJSON(&payload); err != nil || payload == nil {
		h.logger.Error("unable to decode iMonnit webhook", zap.Error(err))
		c.String(http.StatusBadRequest, unexpectedDataBody)
		return
	}

	err := h.notifier.HandleTrigger(c.Request.Context(), payload)
	switch {
	case err == nil:
		c.Status(http.StatusOK)
	case errors.Is(err, domain.ErrValidation):
		c.String(http.StatusBadRequest, unexpectedDataBody)
	case errors.Is(err, domain.ErrDispatchExhausted):
		c.String(http.StatusInternalServerError, err.Error())
	default:
		c.String(http.StatusInternalServerError, addEventFailedBody)
	}
}

// Twilio godoc
// @Summary Receive a Twilio status callback
// @Description Applies the reported delivery status to the stored message with the same message sid
// @Tags Webhook
// @Accept x-www-form-urlencoded
// @Produce plain
// @Param MessageSid formData string true "Twilio message sid"
// @Param To formData string true "Recipient phone number"
// @Param MessageStatus formData string false "Message status"
// @Param ErrorCode formData string false "Twilio error code"
// @Param RawDlrDoneDate formData string false "Delivery receipt done date (YYMMDDhhmm)"
// @Success 200
// @Failure 400 {string} string "Unexpected Data"
// @Failure 401
// @Failure 500 {string} string "Unable to update db with message callback"
// @Security BasicAuth
// @Router /webhook/twilio [post]
func (h *Handler) twilio(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		h.logger.Error("unable to decode twilio webhook", zap.Error(err))
		c.String(http.StatusBadRequest, unexpectedDataBody)
		return
	}

	// only keys actually sent are kept, ErrorCode presence matters
	form := make(map[string]string, len(c.Request.PostForm))
	for key := range c.Request.PostForm {
		form[key] = c.Request.PostForm.Get(key)
	}

	err := h.notifier.HandleCallback(c.Request.Context(), form)
	switch {
	case err == nil:
		c.Status(http.StatusOK)
	case errors.Is(err, domain.ErrValidation):
		c.String(http.StatusBadRequest, unexpectedDataBody)
	default:
		c.String(http.StatusInternalServerError, callbackFailedBody)
	}
}

// Healthz godoc
// @Summary Health check
// @Tags Health
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /healthz [get]
func (h *Handler) healthz(c *gin.Context) {
	if h.health != nil {
		if err := h.health(c.Request.Context()); err != nil {
			h.logger.Warn("health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

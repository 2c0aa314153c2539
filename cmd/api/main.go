package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/aniladanir/imonnit-sms-connector/internal/cache"
	redisCache "github.com/aniladanir/imonnit-sms-connector/internal/cache/redis"
	"github.com/aniladanir/imonnit-sms-connector/internal/domain"
	httpHandler "github.com/aniladanir/imonnit-sms-connector/internal/handler/http"
	"github.com/aniladanir/imonnit-sms-connector/internal/logger"
	"github.com/aniladanir/imonnit-sms-connector/internal/metrics"
	"github.com/aniladanir/imonnit-sms-connector/internal/persistant/postgresql"
	"github.com/aniladanir/imonnit-sms-connector/internal/repository/notification"
	"github.com/aniladanir/imonnit-sms-connector/internal/service"
	"github.com/aniladanir/imonnit-sms-connector/internal/transport/twilio"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	configFile = flag.String("config", "config.json", "config file path")
)

func main() {
	// create root context
	appCtx, appCtxCancel := context.WithCancel(context.Background())
	defer appCtxCancel()

	// listen for terminate signal
	notifyCtx, stop := signal.NotifyContext(appCtx, syscall.SIGTERM, os.Interrupt)
	defer stop()

	// parse flags
	flag.Parse()

	// parse config
	config, err := ReadConfig(*configFile)
	if err != nil {
		log.Fatalf("failed to read config: %v", err)
	}

	// setup logger
	zapLogger, err := logger.New(config.Log.Level, config.Log.Format, "imonnit-sms-connector")
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer zapLogger.Sync()

	if config.LocalZone != "" {
		zone, err := time.LoadLocation(config.LocalZone)
		if err != nil {
			zapLogger.Fatal("invalid local zone", zap.String("zone", config.LocalZone), zap.Error(err))
		}
		domain.LocalZone = zone
	}

	// initialize external dependencies
	db, rCache, err := initExternalDependencies(notifyCtx, config, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed to initialize external dependencies", zap.Error(err))
	}

	// a nil *RedisCache must not end up inside the interface
	var dispatchCache cache.Cache
	if rCache != nil {
		dispatchCache = rCache
	}

	// metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.New(registry)

	// init notification repository
	notificationRepo := notification.NewNotificationRepository(db, dispatchCache, zapLogger.With(zap.String("component", "repository")))

	// init twilio client
	var statusCallback string
	if config.Twilio.UseCallback {
		statusCallback = twilio.StatusCallbackURL(config.Webhook.User, config.Webhook.Password, config.Webhook.Hostname)
	}
	smsClient := twilio.NewClient(twilio.Config{
		BaseURL:        config.Twilio.BaseURL,
		AccountSID:     config.Twilio.AccountSID,
		APIKeySID:      config.Twilio.APISID,
		APIKeySecret:   config.Twilio.APISecret,
		From:           config.Twilio.PhoneSource,
		StatusCallback: statusCallback,
		Timeout:        config.Twilio.Timeout,
		Debug:          config.Twilio.Debug,
	}, zapLogger.With(zap.String("component", "twilio")))

	// init services
	dispatcher := service.NewDispatcher(
		smsClient,
		notificationRepo,
		appMetrics,
		zapLogger.With(zap.String("component", "dispatcher")),
	)
	connector := service.NewConnector(
		dispatcher,
		notificationRepo,
		config.Twilio.Recipients,
		service.LoadErrorCodes(config.Twilio.ErrorCodeFile, zapLogger.With(zap.String("component", "errorCodes"))),
		appMetrics,
		zapLogger.With(zap.String("component", "connector")),
	)
	zapLogger.Info("connector configured", zap.Int("recipients", len(config.Twilio.Recipients)), zap.Bool("statusCallback", statusCallback != ""))

	// init http handler
	if config.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	httpHandler := httpHandler.NewHttpHandler(
		fmt.Sprintf(":%d", config.HttpPort),
		connector,
		gin.Accounts{config.Webhook.User: config.Webhook.Password},
		func(ctx context.Context) error { return postgresql.Ping(ctx, db) },
		registry,
		appMetrics,
		zapLogger.With(zap.String("component", "http")),
	)

	wg := sync.WaitGroup{}
	// run http handler
	wg.Go(func() {
		zapLogger.Info("starting server", zap.Int("port", config.HttpPort))
		if err := httpHandler.Run(); err != nil {
			zapLogger.Error("http server encountered with an error and closed", zap.Error(err))
		}
		// cancel app context if http handler fails
		appCtxCancel()
	})

	// graceful shutdown
	wg.Go(func() {
		<-notifyCtx.Done()
		zapLogger.Info("application shutting down...")

		shutDownCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
		defer cancel()

		httpHandler.Shutdown(shutDownCtx)
		if rCache != nil {
			rCache.Close()
		}
		postgresql.Close(db)
	})

	wg.Wait()
	os.Exit(0)
}

func initExternalDependencies(ctx context.Context, config *Config, logger *zap.Logger) (db *gorm.DB, rCache *redisCache.RedisCache, err error) {
	// initialize database
	db, err = postgresql.Initialize(ctx, postgresql.Options{
		ConnString:   config.DbConnString,
		MaxAttempts:  config.Db.MaxRetry,
		MaxOpenConns: config.Db.MaxOpenConns,
		MaxIdleConns: config.Db.MaxIdleConns,
	}, notification.Models(), logger.With(zap.String("component", "postgres")))
	if err != nil {
		return
	}

	// initialize cache, optional
	if config.RedisAddr == "" {
		logger.Info("redis address not configured, dispatch cache disabled")
		return
	}
	rCache, err = redisCache.NewRedisCache(ctx, config.RedisAddr, config.Db.MaxRetry)
	if err != nil {
		// dispatch cache is not needed to serve webhooks
		logger.Warn("dispatch cache disabled", zap.Error(err))
		rCache, err = nil, nil
	}

	return
}

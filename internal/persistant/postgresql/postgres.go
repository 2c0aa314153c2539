package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/aniladanir/retry"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

type Options struct {
	ConnString   string
	MaxAttempts  int
	MaxOpenConns int
	MaxIdleConns int
}

// Initialize opens the db session, retrying while the database is not ready,
// and auto migrates given models.
func Initialize(ctx context.Context, opts Options, models []any, logger *zap.Logger) (*gorm.DB, error) {
	retrierOpts := make([]retry.Option, 0, 1)
	if opts.MaxAttempts > 0 {
		retrierOpts = append(retrierOpts, retry.WithMaxAttemps(opts.MaxAttempts))
	}
	retrier, err := retry.New(retrierOpts...)
	if err != nil {
		return nil, fmt.Errorf("encountered error when initializing retrier: %w", err)
	}

	var db *gorm.DB
	var openErr error
	connected := <-retrier.Retry(ctx, func(attempt int) (terminate bool) {
		db, openErr = open(opts)
		if openErr != nil {
			logger.Warn("database not ready, waiting", zap.Int("attempt", attempt), zap.Error(openErr))
			return false
		}
		return true
	}, true)
	if !connected {
		return nil, fmt.Errorf("unable to connect to database: %w", openErr)
	}
	logger.Info("successfully connected to database")

	if err := db.AutoMigrate(models...); err != nil {
		return nil, fmt.Errorf("failed to migrate models: %w", err)
	}

	return db, nil
}

func open(opts Options) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(opts.ConnString), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormLogger.Default.LogMode(gormLogger.Warn),
	})
	if err != nil {
		return nil, err
	}

	sqlDb, err := db.DB()
	if err != nil {
		return nil, err
	}
	if opts.MaxOpenConns > 0 {
		sqlDb.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		sqlDb.SetMaxIdleConns(opts.MaxIdleConns)
	}
	sqlDb.SetConnMaxLifetime(time.Hour)

	return db, nil
}

// Ping checks that the database is reachable.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDb, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDb.PingContext(ctx)
}

func Close(db *gorm.DB) error {
	sqlDb, err := db.DB()
	if err != nil {
		return err
	}

	return sqlDb.Close()
}

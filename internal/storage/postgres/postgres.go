package postgres

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/twosidefinance/twoside-core/internal/storage"
	"github.com/twosidefinance/twoside-core/internal/storage/models"
)

// gormLogger adapts zap to GORM's logger.Interface.
type gormLogger struct {
	zapLogger *zap.Logger
	logLevel  logger.LogLevel
}

func newGormLogger(zapLogger *zap.Logger) logger.Interface {
	return &gormLogger{
		zapLogger: zapLogger,
		logLevel:  logger.Warn,
	}
}

func (l *gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	newLogger := *l
	newLogger.logLevel = level
	return &newLogger
}

func (l *gormLogger) Info(_ context.Context, msg string, data ...interface{}) {
	if l.logLevel >= logger.Info {
		l.zapLogger.Sugar().Infof(msg, data...)
	}
}

func (l *gormLogger) Warn(_ context.Context, msg string, data ...interface{}) {
	if l.logLevel >= logger.Warn {
		l.zapLogger.Sugar().Warnf(msg, data...)
	}
}

func (l *gormLogger) Error(_ context.Context, msg string, data ...interface{}) {
	if l.logLevel >= logger.Error {
		l.zapLogger.Sugar().Errorf(msg, data...)
	}
}

func (l *gormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.logLevel <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()

	fields := []zap.Field{
		zap.Duration("elapsed", elapsed),
		zap.String("sql", sql),
		zap.Int64("rows", rows),
	}

	if err != nil {
		l.zapLogger.Error("trace", append(fields, zap.Error(err))...)
		return
	}

	if l.logLevel >= logger.Info {
		l.zapLogger.Info("trace", fields...)
	}
}

// postgresStorage implements storage.Storage over GORM.
type postgresStorage struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewStorage(dsn string, zapLogger *zap.Logger) (storage.Storage, error) {
	gormLogger := newGormLogger(zapLogger.Named("gorm"))

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		DisableForeignKeyConstraintWhenMigrating: true,
		SkipDefaultTransaction:                   true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return &postgresStorage{
		db:     db,
		logger: zapLogger,
	}, nil
}

// RunMigrations applies the schema under an advisory lock so concurrent
// service instances don't race each other.
func (p *postgresStorage) RunMigrations() error {
	var lockObtained bool
	err := p.db.Raw("SELECT pg_try_advisory_lock(101)").Scan(&lockObtained).Error
	if err != nil {
		return fmt.Errorf("failed to acquire migration lock: %w", err)
	}
	if !lockObtained {
		return fmt.Errorf("another migration is in progress")
	}
	defer p.db.Exec("SELECT pg_advisory_unlock(101)")

	err = p.db.AutoMigrate(
		&models.Operation{},
		&models.EventRecord{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// SaveOperation inserts a new record or, when op already carries a
// primary key from a prior save, updates it in place.
func (p *postgresStorage) SaveOperation(ctx context.Context, op *models.Operation) error {
	return p.db.WithContext(ctx).Save(op).Error
}

func (p *postgresStorage) GetOperation(ctx context.Context, operationID string) (*models.Operation, error) {
	var op models.Operation
	err := p.db.WithContext(ctx).Where("operation_id = ?", operationID).First(&op).Error
	if err != nil {
		return nil, err
	}
	return &op, nil
}

// ListOperations returns the trail newest first. An empty asset matches
// every operation; limit <= 0 disables paging.
func (p *postgresStorage) ListOperations(ctx context.Context, asset string, limit, offset int) ([]*models.Operation, error) {
	query := p.db.WithContext(ctx).Order("created_at desc")
	if asset != "" {
		query = query.Where("asset = ?", asset)
	}
	if limit > 0 {
		query = query.Limit(limit).Offset(offset)
	}
	var ops []*models.Operation
	err := query.Find(&ops).Error
	return ops, err
}

func (p *postgresStorage) UpdateOperationStatus(ctx context.Context, operationID string, status, txID, errorMsg string) error {
	return p.db.WithContext(ctx).Model(&models.Operation{}).
		Where("operation_id = ?", operationID).
		Updates(map[string]interface{}{
			"status":        status,
			"tx_id":         txID,
			"error_message": errorMsg,
		}).Error
}

func (p *postgresStorage) SaveEvent(ctx context.Context, rec *models.EventRecord) error {
	return p.db.WithContext(ctx).Create(rec).Error
}

func (p *postgresStorage) ListEvents(ctx context.Context, asset string, limit, offset int) ([]*models.EventRecord, error) {
	var recs []*models.EventRecord
	err := p.db.WithContext(ctx).
		Where("asset = ?", asset).
		Order("emitted_at desc").
		Limit(limit).
		Offset(offset).
		Find(&recs).Error
	return recs, err
}

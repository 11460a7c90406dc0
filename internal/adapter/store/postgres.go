package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"currency-rates-service/internal/domain/model"
	"currency-rates-service/internal/domain/ports"
	"currency-rates-service/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

var _ ports.RateStore = (*PostgresStore)(nil)

type PostgresStore struct {
	db  *gorm.DB
	log *logger.Logger
}

// OpenPostgres connects and applies the embedded migrations.
func OpenPostgres(dsn string, log *logger.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		_ = closeDB(db)
		return nil, fmt.Errorf("failed to init db: %w", err)
	}

	if err := migrateOrClose(db); err != nil {
		return nil, err
	}
	log.Info("Database migrations applied")

	return db, nil
}

// migrateOrClose applies the migrations and releases the pool when they fail.
func migrateOrClose(db *gorm.DB) error {
	if err := RunMigrations(db); err != nil {
		_ = closeDB(db)
		return err
	}
	return nil
}

func closeDB(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func NewPostgresStore(db *gorm.DB, log *logger.Logger) *PostgresStore {
	return &PostgresStore{
		db:  db,
		log: log,
	}
}

// Close releases the underlying connection pool.
func (s *PostgresStore) Close() error {
	return closeDB(s.db)
}

func (s *PostgresStore) Get(ctx context.Context, date string, from, to model.Currency) (*model.PersistedRate, error) {
	var row RateModel
	err := s.db.WithContext(ctx).
		Where("date = ? AND from_currency = ? AND to_currency = ?", date, from.String(), to.String()).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return ToDomainRate(&row), nil
}

func (s *PostgresStore) Find(ctx context.Context, filter model.RateFilter) ([]model.PersistedRate, error) {
	query := s.db.WithContext(ctx).Model(&RateModel{})
	if filter.Date != "" {
		query = query.Where("date = ?", filter.Date)
	}
	if filter.From != "" {
		query = query.Where("from_currency = ?", filter.From.String())
	}
	if filter.To != "" {
		query = query.Where("to_currency = ?", filter.To.String())
	}

	var rows []RateModel
	if err := query.Order("date, from_currency, to_currency").Find(&rows).Error; err != nil {
		return nil, err
	}

	result := make([]model.PersistedRate, len(rows))
	for i := range rows {
		result[i] = *ToDomainRate(&rows[i])
	}
	return result, nil
}

// Upsert inserts the row or, when (date, from, to) already exists, updates
// its rate. The stored row is returned.
func (s *PostgresStore) Upsert(ctx context.Context, rate model.PersistedRate) (*model.PersistedRate, error) {
	now := time.Now().UTC()

	row := ToRateModel(&rate)
	row.ID = uuid.NewString()
	row.CreatedAt = now
	row.UpdatedAt = now

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "date"}, {Name: "from_currency"}, {Name: "to_currency"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"rate":       row.Rate,
			"updated_at": now,
		}),
	}).Create(row).Error
	if err != nil {
		s.log.Debug("Upsert failed", "date", rate.Date, "from", rate.From, "to", rate.To, "error", err)
		return nil, err
	}

	stored, err := s.Get(ctx, rate.Date, rate.From, rate.To)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, fmt.Errorf("upserted rate %s %s-%s not found", rate.Date, rate.From, rate.To)
	}
	return stored, nil
}

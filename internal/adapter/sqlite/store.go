// Package sqlite stores hourly readings in a SQLite database through GORM.
package sqlite

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/couchcryptid/station-temperature-etl/internal/domain"
)

// batchSize is the number of rows per INSERT statement.
const batchSize = 500

// HourlyTemperature is the table row for one station-hour.
type HourlyTemperature struct {
	ID          uint      `gorm:"primaryKey"`
	Station     string    `gorm:"column:station;not null;uniqueIndex:idx_station_time,priority:1"`
	Time        time.Time `gorm:"column:time;not null;uniqueIndex:idx_station_time,priority:2"`
	Temperature float64   `gorm:"column:temperature;not null"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

// TableName implements gorm's Tabler.
func (HourlyTemperature) TableName() string {
	return "hourly_temperatures"
}

// Store upserts hourly readings. It implements pipeline.Loader.
type Store struct {
	db     *gorm.DB
	logger *slog.Logger
}

// Open connects to the database at path and migrates the schema.
func Open(path string, log *slog.Logger) (*Store, error) {
	db, err := gorm.Open(gormsqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if err := db.AutoMigrate(&HourlyTemperature{}); err != nil {
		return nil, fmt.Errorf("migrate sqlite %s: %w", path, err)
	}
	return &Store{db: db, logger: log}, nil
}

// Name implements pipeline.Loader.
func (s *Store) Name() string { return "sqlite" }

// Load inserts rows, replacing the temperature of any station-hour that is
// already stored, so a rerun leaves one row per station-hour.
func (s *Store) Load(ctx context.Context, rows []domain.HourlyReading) error {
	if len(rows) == 0 {
		return nil
	}
	now := domain.Now()
	records := make([]HourlyTemperature, len(rows))
	for i, r := range rows {
		records[i] = HourlyTemperature{
			Station:     r.Station,
			Time:        r.Time.UTC(),
			Temperature: r.Temperature,
			UpdatedAt:   now,
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "station"}, {Name: "time"}},
			DoUpdates: clause.AssignmentColumns([]string{"temperature", "updated_at"}),
		}).CreateInBatches(records, batchSize).Error
	})
	if err != nil {
		return fmt.Errorf("upsert hourly temperatures: %w", err)
	}
	s.logger.Info("stored hourly readings", "table", HourlyTemperature{}.TableName(), "rows", len(records))
	return nil
}

// Hourly returns the stored rows of one station in time order.
func (s *Store) Hourly(ctx context.Context, station string) ([]domain.HourlyReading, error) {
	var records []HourlyTemperature
	err := s.db.WithContext(ctx).
		Where("station = ?", station).
		Order("time").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("query hourly temperatures: %w", err)
	}
	out := make([]domain.HourlyReading, len(records))
	for i, rec := range records {
		out[i] = domain.HourlyReading{Time: rec.Time.UTC(), Temperature: rec.Temperature, Station: rec.Station}
	}
	return out, nil
}

// Count returns the number of stored rows.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&HourlyTemperature{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count hourly temperatures: %w", err)
	}
	return n, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// sessionRecord is the row holding one session snapshot.
type sessionRecord struct {
	ID        string         `gorm:"primaryKey;type:varchar(64)"`
	State     datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (sessionRecord) TableName() string {
	return "briefwork_sessions"
}

// PostgresStore keeps snapshots in a jsonb column. Postgres normalizes jsonb,
// so Load returns equivalent JSON rather than the exact bytes saved.
type PostgresStore struct {
	db *gorm.DB
}

// OpenPostgres connects to dsn with a quiet GORM logger and a small pool.
func OpenPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

// NewPostgresStore migrates the sessions table and returns a store on db.
func NewPostgresStore(ctx context.Context, db *gorm.DB) (*PostgresStore, error) {
	if err := db.WithContext(ctx).AutoMigrate(&sessionRecord{}); err != nil {
		return nil, fmt.Errorf("migrate sessions table: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// Save upserts the snapshot for sessionID.
func (s *PostgresStore) Save(ctx context.Context, sessionID string, data []byte) error {
	if err := checkID(sessionID); err != nil {
		return err
	}
	rec := sessionRecord{ID: sessionID, State: datatypes.JSON(data)}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"state", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

// Load reads the snapshot for sessionID.
func (s *PostgresStore) Load(ctx context.Context, sessionID string) ([]byte, error) {
	if err := checkID(sessionID); err != nil {
		return nil, err
	}
	var rec sessionRecord
	if err := s.db.WithContext(ctx).First(&rec, "id = ?", sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select session: %w", err)
	}
	return []byte(rec.State), nil
}

// Delete removes sessionID.
func (s *PostgresStore) Delete(ctx context.Context, sessionID string) error {
	if err := checkID(sessionID); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(&sessionRecord{}, "id = ?", sessionID).Error; err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// List returns all session ids.
func (s *PostgresStore) List(ctx context.Context) ([]string, error) {
	ids := []string{}
	if err := s.db.WithContext(ctx).Model(&sessionRecord{}).Order("id").Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return ids, nil
}

// Close closes the underlying connection pool.
func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

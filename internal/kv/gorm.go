package kv

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"pataalerta/internal/model"
)

type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a Store backed by the kv_entries table of db.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// OpenFile opens (creating if needed) a sqlite file holding the device-local store.
func OpenFile(path string) (Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open local store %s: %w", path, err)
	}
	if err := db.AutoMigrate(&model.KVEntry{}); err != nil {
		return nil, fmt.Errorf("failed to migrate local store: %w", err)
	}
	return NewGormStore(db), nil
}

func (s *gormStore) Get(key string) (string, bool, error) {
	var entry model.KVEntry
	err := s.db.Where("entry_key = ?", key).Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %q: %w", key, err)
	}
	return entry.Value, true, nil
}

func (s *gormStore) Set(key, value string) error {
	entry := model.KVEntry{Key: key, Value: value, UpdatedAt: time.Now()}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entry_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("failed to write %q: %w", key, err)
	}
	return nil
}

func (s *gormStore) Delete(key string) error {
	if err := s.db.Where("entry_key = ?", key).Delete(&model.KVEntry{}).Error; err != nil {
		return fmt.Errorf("failed to delete %q: %w", key, err)
	}
	return nil
}

func (s *gormStore) Keys(prefix string) ([]string, error) {
	var candidates []string
	err := s.db.Model(&model.KVEntry{}).
		Where("entry_key LIKE ?", prefix+"%").
		Order("entry_key").
		Pluck("entry_key", &candidates).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list keys with prefix %q: %w", prefix, err)
	}
	// LIKE treats '_' as a wildcard.
	keys := candidates[:0]
	for _, k := range candidates {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

// Package store persists application state in SQLite via GORM. The
// signaling relay deliberately keeps nothing here; only the REST API and
// auth flows touch the database.
package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("store: not found")
	// ErrDuplicate is returned when an insert violates a uniqueness rule.
	ErrDuplicate = errors.New("store: duplicate")
)

var defaultRooms = []MeetingRoom{
	{Name: "General Chat", Description: "A general chat room for everyone."},
	{Name: "Daily Check-in", Description: "Share your daily progress and thoughts."},
	{Name: "Steps & Traditions", Description: "Discussion about the 12 Steps and 12 Traditions."},
}

type Store struct {
	db  *gorm.DB
	log zerolog.Logger
}

// Open connects to the SQLite database at path, runs migrations and seeds
// the default meeting rooms on first boot. Use ":memory:" for tests.
func Open(path string, log zerolog.Logger) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path+"?_foreign_keys=on"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite serializes writers anyway, and a single pooled connection is
	// what makes ":memory:" databases hold together across queries.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	s := &Store{db: db, log: log}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	err := s.db.AutoMigrate(
		&User{},
		&RefreshToken{},
		&JournalEntry{},
		&Post{},
		&Comment{},
		&MeetingRoom{},
		&Message{},
		&SharingQueueEntry{},
		&InventoryEntry{},
	)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	var count int64
	if err := s.db.Model(&MeetingRoom{}).Count(&count).Error; err != nil {
		return fmt.Errorf("count meeting rooms: %w", err)
	}
	if count == 0 {
		if err := s.db.Create(&defaultRooms).Error; err != nil {
			return fmt.Errorf("seed meeting rooms: %w", err)
		}
		s.log.Info().Int("rooms", len(defaultRooms)).Msg("seeded default meeting rooms")
	}
	return nil
}

// Ping reports whether the underlying database is reachable.
func (s *Store) Ping() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// translate maps driver errors onto the package sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case strings.Contains(err.Error(), "UNIQUE constraint failed"):
		return ErrDuplicate
	default:
		return err
	}
}

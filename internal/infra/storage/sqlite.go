package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"cycle_go/internal/domain"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Storage is the SQLite-backed run journal. It implements domain.Journal.
type Storage struct {
	db *gorm.DB
}

// NewStorage opens (or creates) the journal database.
// An empty path resolves to the per-user config directory.
func NewStorage(path string) (*Storage, error) {
	dbPath := path
	if dbPath == "" {
		var err error
		dbPath, err = getDBPath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve DB path: %w", err)
		}
	}

	// Ensure directory exists
	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create DB directory: %w", err)
	}

	// Connect to SQLite (Pure Go)
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := migrate(db); err != nil {
		return nil, err
	}

	return &Storage{db: db}, nil
}

func migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&domain.RunRecord{}, &domain.OrderRecord{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// getDBPath resolves the database file path based on OS
func getDBPath() (string, error) {
	var configDir string
	var err error

	if runtime.GOOS == "windows" {
		configDir = os.Getenv("LOCALAPPDATA")
		if configDir == "" {
			configDir, err = os.UserConfigDir()
		}
	} else {
		configDir, err = os.UserConfigDir()
	}

	if err != nil {
		return "", err
	}

	return filepath.Join(configDir, "CycleGo", "data", "cycle.db"), nil
}

// Close releases the underlying connection pool.
func (s *Storage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ======================================================================================
// Run Operations
// ======================================================================================

// BeginRun records the start of a scheduler run
func (s *Storage) BeginRun(run *domain.RunRecord) error {
	return s.db.Create(run).Error
}

// EndRun stores the final counters and outcome of a run
func (s *Storage) EndRun(run *domain.RunRecord) error {
	return s.db.Save(run).Error
}

// GetRun retrieves a run by id
func (s *Storage) GetRun(runID string) (*domain.RunRecord, error) {
	var run domain.RunRecord
	err := s.db.First(&run, "run_id = ?", runID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil // Not found is not an error
	}
	return &run, err
}

// ======================================================================================
// Order Operations
// ======================================================================================

// SaveOrder creates or updates an order record
func (s *Storage) SaveOrder(order *domain.OrderRecord) error {
	return s.db.Save(order).Error
}

// MarkCancelled stamps an order placed during runID as cancelled
func (s *Storage) MarkCancelled(runID, orderID string, at time.Time) error {
	res := s.db.Model(&domain.OrderRecord{}).
		Where("run_id = ? AND order_id = ?", runID, orderID).
		Updates(map[string]any{"status": domain.OrderStatusCanceled, "cancelled_at": at})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("mark cancelled %s: %w", orderID, domain.ErrOrderNotFound)
	}
	return nil
}

// ListOrders returns the orders of a run in placement order
func (s *Storage) ListOrders(runID string) ([]domain.OrderRecord, error) {
	var orders []domain.OrderRecord
	err := s.db.Where("run_id = ?", runID).Order("placed_at asc").Find(&orders).Error
	return orders, err
}

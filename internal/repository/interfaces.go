// internal/repository/interfaces.go
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"printer-service/internal/model"
)

// ConfigRepository defines printer configuration storage operations
type ConfigRepository interface {
	// Save inserts a config without id, or replaces the stored config with the same id
	Save(ctx context.Context, cfg model.PrinterConfig) (model.PrinterConfig, error)
	Get(ctx context.Context, id string) (model.PrinterConfig, error)
	List(ctx context.Context) ([]model.PrinterConfig, error)
	Remove(ctx context.Context, id string) error

	// ByRole returns the first enabled config for role in stored order
	ByRole(ctx context.Context, role model.PrinterRole) (*model.PrinterConfig, bool)
}

// HistoryRepository defines print history data access operations
type HistoryRepository interface {
	Create(ctx context.Context, record *model.PrintRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.PrintRecord, error)
	List(ctx context.Context, filter *model.HistoryFilter) ([]*model.PrintRecord, error)
	Stats(ctx context.Context) (*model.HistoryStats, error)

	// Cleanup
	DeleteOlderThan(ctx context.Context, olderThan time.Time) (int64, error)
}

// internal/repository/config_repository.go
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"printer-service/internal/model"
)

// configStorageKey is the key the config list is stored under
const configStorageKey = "printer_configs"

type configDocument struct {
	Configs []model.PrinterConfig `json:"printer_configs"`
}

// fileConfigRepository keeps printer configs in memory and rewrites the
// whole JSON document on every mutation
type fileConfigRepository struct {
	mu      sync.RWMutex
	path    string
	configs []model.PrinterConfig
	logger  *zap.Logger
	now     func() time.Time
}

// NewConfigRepository loads the configs stored at path. A missing or
// unreadable document starts an empty store.
func NewConfigRepository(path string, logger *zap.Logger) ConfigRepository {
	r := &fileConfigRepository{
		path:   path,
		logger: logger.With(zap.String("component", "config_repository"), zap.String("path", path)),
		now:    time.Now,
	}
	r.configs = r.load()
	return r
}

func (r *fileConfigRepository) load() []model.PrinterConfig {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			r.logger.Info("No printer configs stored yet")
		} else {
			r.logger.Warn("Failed to read printer configs, starting empty", zap.Error(err))
		}
		return nil
	}

	var doc configDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		r.logger.Warn("Stored printer configs are corrupt, starting empty", zap.Error(err))
		return nil
	}

	configs := make([]model.PrinterConfig, 0, len(doc.Configs))
	for _, cfg := range doc.Configs {
		cfg.Normalize()
		if err := cfg.Validate(); err != nil || cfg.ID == "" {
			r.logger.Warn("Skipping invalid stored printer config",
				zap.String("config_id", cfg.ID),
				zap.Error(err),
			)
			continue
		}
		configs = append(configs, cfg)
	}

	r.logger.Info("Printer configs loaded", zap.Int("count", len(configs)))
	return configs
}

// Save inserts or replaces a config and persists the full list
func (r *fileConfigRepository) Save(ctx context.Context, cfg model.PrinterConfig) (model.PrinterConfig, error) {
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return model.PrinterConfig{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	next := make([]model.PrinterConfig, len(r.configs), len(r.configs)+1)
	copy(next, r.configs)

	if cfg.ID == "" {
		cfg.ID = uuid.New().String()
		cfg.CreatedAt = now
		cfg.UpdatedAt = now
		next = append(next, cfg)
	} else {
		i := indexOf(next, cfg.ID)
		if i < 0 {
			return model.PrinterConfig{}, fmt.Errorf("%w: %s", model.ErrConfigNotFound, cfg.ID)
		}
		cfg.CreatedAt = next[i].CreatedAt
		cfg.UpdatedAt = now
		next[i] = cfg
	}

	if err := r.persist(next); err != nil {
		return model.PrinterConfig{}, err
	}
	r.configs = next

	r.logger.Info("Printer config saved",
		zap.String("config_id", cfg.ID),
		zap.String("role", string(cfg.Role)),
		zap.String("device_id", cfg.DeviceID),
	)
	return cfg, nil
}

// Get returns a config by id
func (r *fileConfigRepository) Get(ctx context.Context, id string) (model.PrinterConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := indexOf(r.configs, id)
	if i < 0 {
		return model.PrinterConfig{}, fmt.Errorf("%w: %s", model.ErrConfigNotFound, id)
	}
	return r.configs[i], nil
}

// List returns every config in stored order
func (r *fileConfigRepository) List(ctx context.Context) ([]model.PrinterConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	configs := make([]model.PrinterConfig, len(r.configs))
	copy(configs, r.configs)
	return configs, nil
}

// Remove deletes a config and persists the remaining list
func (r *fileConfigRepository) Remove(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := indexOf(r.configs, id)
	if i < 0 {
		return fmt.Errorf("%w: %s", model.ErrConfigNotFound, id)
	}

	next := make([]model.PrinterConfig, 0, len(r.configs)-1)
	next = append(next, r.configs[:i]...)
	next = append(next, r.configs[i+1:]...)

	if err := r.persist(next); err != nil {
		return err
	}
	r.configs = next

	r.logger.Info("Printer config removed", zap.String("config_id", id))
	return nil
}

// ByRole returns the first enabled config for role. Several enabled configs
// for one role resolve to the earliest stored.
func (r *fileConfigRepository) ByRole(ctx context.Context, role model.PrinterRole) (*model.PrinterConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, cfg := range r.configs {
		if cfg.Role == role && cfg.Enabled {
			found := cfg
			return &found, true
		}
	}
	return nil, false
}

// persist writes the whole document to a temp file and renames it over the
// previous one; r.mu must be held
func (r *fileConfigRepository) persist(configs []model.PrinterConfig) error {
	if configs == nil {
		configs = []model.PrinterConfig{}
	}

	data, err := json.MarshalIndent(configDocument{Configs: configs}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", configStorageKey, err)
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".printer_configs-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp config file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close config file: %w", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace config file: %w", err)
	}
	return nil
}

func indexOf(configs []model.PrinterConfig, id string) int {
	for i, cfg := range configs {
		if cfg.ID == id {
			return i
		}
	}
	return -1
}

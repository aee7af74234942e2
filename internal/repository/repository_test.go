package repository

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"printer-service/internal/model"
)

func kitchenConfig() model.PrinterConfig {
	return model.PrinterConfig{
		Name:            "Cozinha",
		Role:            model.RoleKitchen,
		DeviceID:        "usb:04B8:0202",
		PaperWidthChars: model.PaperWidth58mm,
		Copies:          2,
		Autoprint:       true,
		Enabled:         true,
		ConnectionKind:  model.TransportUSB,
	}
}

func TestConfigRepositoryPersistsAcrossRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "printer_configs.json")
	ctx := context.Background()

	repo := NewConfigRepository(path, zaptest.NewLogger(t))
	saved, err := repo.Save(ctx, kitchenConfig())
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if saved.ID == "" {
		t.Fatal("Expected generated id")
	}
	if saved.CreatedAt.IsZero() {
		t.Error("Expected created_at to be stamped")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Expected config file to exist: %v", err)
	}
	var doc map[string][]model.PrinterConfig
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("Stored document is not valid JSON: %v", err)
	}
	if len(doc[configStorageKey]) != 1 {
		t.Fatalf("Expected 1 config under %q, got %d", configStorageKey, len(doc[configStorageKey]))
	}

	reopened := NewConfigRepository(path, zaptest.NewLogger(t))
	got, err := reopened.Get(ctx, saved.ID)
	if err != nil {
		t.Fatalf("Get after restart failed: %v", err)
	}
	if got.DeviceID != saved.DeviceID || got.Copies != 2 {
		t.Errorf("Unexpected config after restart: %+v", got)
	}
}

func TestConfigRepositoryCorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "printer_configs.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	repo := NewConfigRepository(path, zaptest.NewLogger(t))
	configs, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(configs) != 0 {
		t.Errorf("Expected empty list, got %d", len(configs))
	}

	// the next mutation replaces the corrupt document
	if _, err := repo.Save(context.Background(), kitchenConfig()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	reopened := NewConfigRepository(path, zaptest.NewLogger(t))
	if configs, _ := reopened.List(context.Background()); len(configs) != 1 {
		t.Errorf("Expected 1 config after rewrite, got %d", len(configs))
	}
}

func TestConfigRepositoryMissingFileStartsEmpty(t *testing.T) {
	repo := NewConfigRepository(filepath.Join(t.TempDir(), "absent.json"), zaptest.NewLogger(t))
	if _, ok := repo.ByRole(context.Background(), model.RoleKitchen); ok {
		t.Error("Expected no config for an empty store")
	}
}

func TestConfigRepositoryRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "printer_configs.json")
	repo := NewConfigRepository(path, zaptest.NewLogger(t))

	cfg := kitchenConfig()
	cfg.PaperWidthChars = 40
	if _, err := repo.Save(context.Background(), cfg); !errors.Is(err, model.ErrValidation) {
		t.Fatalf("Expected validation error, got %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Expected nothing to be written for an invalid config")
	}
}

func TestConfigRepositoryUpdateAndRemove(t *testing.T) {
	ctx := context.Background()
	repo := NewConfigRepository(filepath.Join(t.TempDir(), "printer_configs.json"), zaptest.NewLogger(t))

	saved, err := repo.Save(ctx, kitchenConfig())
	if err != nil {
		t.Fatal(err)
	}

	saved.Copies = 3
	time.Sleep(time.Millisecond)
	updated, err := repo.Save(ctx, saved)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Copies != 3 || !updated.CreatedAt.Equal(saved.CreatedAt) {
		t.Errorf("Unexpected update result: %+v", updated)
	}

	unknown := kitchenConfig()
	unknown.ID = "missing"
	if _, err := repo.Save(ctx, unknown); !errors.Is(err, model.ErrConfigNotFound) {
		t.Errorf("Expected ErrConfigNotFound, got %v", err)
	}

	if err := repo.Remove(ctx, saved.ID); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if err := repo.Remove(ctx, saved.ID); !errors.Is(err, model.ErrConfigNotFound) {
		t.Errorf("Expected ErrConfigNotFound on second remove, got %v", err)
	}
	if configs, _ := repo.List(ctx); len(configs) != 0 {
		t.Errorf("Expected empty list, got %d", len(configs))
	}
}

func TestByRoleFirstEnabledWins(t *testing.T) {
	ctx := context.Background()
	repo := NewConfigRepository(filepath.Join(t.TempDir(), "printer_configs.json"), zaptest.NewLogger(t))

	disabled := kitchenConfig()
	disabled.Name = "Disabled"
	disabled.Enabled = false

	first := kitchenConfig()
	first.Name = "First"

	second := kitchenConfig()
	second.Name = "Second"

	for _, cfg := range []model.PrinterConfig{disabled, first, second} {
		if _, err := repo.Save(ctx, cfg); err != nil {
			t.Fatal(err)
		}
	}

	cfg, ok := repo.ByRole(ctx, model.RoleKitchen)
	if !ok {
		t.Fatal("Expected a kitchen config")
	}
	if cfg.Name != "First" {
		t.Errorf("Expected earliest enabled config, got %s", cfg.Name)
	}
	if _, ok := repo.ByRole(ctx, model.RolePayment); ok {
		t.Error("Expected no payment config")
	}
}

func TestMemoryHistoryRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryHistoryRepository(3)

	base := time.Now().Add(-time.Hour)
	statuses := []model.PrintStatus{
		model.PrintStatusPrinted,
		model.PrintStatusFailed,
		model.PrintStatusSkipped,
		model.PrintStatusPrinted,
	}
	for i, status := range statuses {
		record := &model.PrintRecord{
			Role:      model.RoleKitchen,
			Status:    status,
			StartedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := repo.Create(ctx, record); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	records, err := repo.List(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 {
		t.Fatalf("Expected ring to keep 3 records, got %d", len(records))
	}
	if !records[0].StartedAt.After(records[1].StartedAt) {
		t.Error("Expected newest record first")
	}

	failed := model.PrintStatusFailed
	records, _ = repo.List(ctx, &model.HistoryFilter{Status: &failed})
	if len(records) != 1 {
		t.Errorf("Expected 1 failed record, got %d", len(records))
	}

	found, err := repo.GetByID(ctx, records[0].ID)
	if err != nil || found.Status != model.PrintStatusFailed {
		t.Errorf("GetByID returned %+v, %v", found, err)
	}

	stats, _ := repo.Stats(ctx)
	if stats.Total != 3 || stats.ByStatus[model.PrintStatusPrinted] != 1 {
		t.Errorf("Unexpected stats %+v", stats)
	}

	removed, _ := repo.DeleteOlderThan(ctx, base.Add(150*time.Second))
	if removed != 2 {
		t.Errorf("Expected 2 records removed, got %d", removed)
	}
}

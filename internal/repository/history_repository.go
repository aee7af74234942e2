// internal/repository/history_repository.go
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"printer-service/internal/database"
	"printer-service/internal/model"
)

const historyColumns = `id, config_id, role, kind, device_id, trigger, status,
		   copies_requested, copies_printed, bytes, error_message,
		   started_at, completed_at, duration_ms`

// historyRepository implements HistoryRepository on postgres
type historyRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewHistoryRepository creates a postgres backed history repository
func NewHistoryRepository(db *database.DB, logger *zap.Logger) HistoryRepository {
	return &historyRepository{
		db:     db,
		logger: logger,
	}
}

// Create stores a print record
func (r *historyRepository) Create(ctx context.Context, record *model.PrintRecord) error {
	query := `
		INSERT INTO print_history (
			id, config_id, role, kind, device_id, trigger, status,
			copies_requested, copies_printed, bytes, error_message,
			started_at, completed_at, duration_ms
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.db.ExecContext(ctx, query,
		record.ID, record.ConfigID, record.Role, record.Kind, record.DeviceID,
		record.Trigger, record.Status, record.CopiesRequested, record.CopiesPrinted,
		record.Bytes, record.ErrorMessage, record.StartedAt, record.CompletedAt,
		record.DurationMs,
	)

	if err != nil {
		r.logger.Error("Failed to create print record", zap.Error(err))
		return fmt.Errorf("failed to create print record: %w", err)
	}

	return nil
}

// GetByID retrieves a print record by ID
func (r *historyRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.PrintRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM print_history WHERE id = $1`, historyColumns)

	record, err := scanRecord(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("print record not found with id: %s", id)
		}
		return nil, fmt.Errorf("failed to get print record: %w", err)
	}

	return record, nil
}

// List retrieves the most recent print records matching filter
func (r *historyRepository) List(ctx context.Context, filter *model.HistoryFilter) ([]*model.PrintRecord, error) {
	whereConditions := []string{}
	args := []interface{}{}
	argIndex := 1

	limit := 50
	if filter != nil {
		if filter.Role != nil {
			whereConditions = append(whereConditions, fmt.Sprintf("role = $%d", argIndex))
			args = append(args, *filter.Role)
			argIndex++
		}

		if filter.Status != nil {
			whereConditions = append(whereConditions, fmt.Sprintf("status = $%d", argIndex))
			args = append(args, *filter.Status)
			argIndex++
		}

		if filter.DeviceID != nil {
			whereConditions = append(whereConditions, fmt.Sprintf("device_id = $%d", argIndex))
			args = append(args, *filter.DeviceID)
			argIndex++
		}

		if filter.Limit > 0 {
			limit = filter.Limit
		}
	}

	whereClause := ""
	if len(whereConditions) > 0 {
		whereClause = "WHERE " + strings.Join(whereConditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM print_history %s
		ORDER BY started_at DESC
		LIMIT $%d
	`, historyColumns, whereClause, argIndex)
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list print history: %w", err)
	}
	defer rows.Close()

	records := []*model.PrintRecord{}
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			r.logger.Error("Failed to scan print record row", zap.Error(err))
			continue
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

// Stats counts print records per status and role
func (r *historyRepository) Stats(ctx context.Context) (*model.HistoryStats, error) {
	query := `
		SELECT role, status, COUNT(*)
		FROM print_history
		GROUP BY role, status
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get print history stats: %w", err)
	}
	defer rows.Close()

	stats := &model.HistoryStats{
		ByStatus: make(map[model.PrintStatus]int),
		ByRole:   make(map[model.PrinterRole]int),
	}

	for rows.Next() {
		var role model.PrinterRole
		var status model.PrintStatus
		var count int
		if err := rows.Scan(&role, &status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan print history stats: %w", err)
		}
		stats.Total += count
		stats.ByStatus[status] += count
		stats.ByRole[role] += count
	}

	return stats, rows.Err()
}

// DeleteOlderThan removes print records started before olderThan
func (r *historyRepository) DeleteOlderThan(ctx context.Context, olderThan time.Time) (int64, error) {
	query := `DELETE FROM print_history WHERE started_at < $1`

	result, err := r.db.ExecContext(ctx, query, olderThan)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old print records: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	r.logger.Info("Deleted old print records",
		zap.Int64("rows_deleted", rowsAffected),
		zap.Time("older_than", olderThan),
	)

	return rowsAffected, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (*model.PrintRecord, error) {
	record := &model.PrintRecord{}
	var errorMessage sql.NullString
	var completedAt sql.NullTime
	var durationMs sql.NullInt64

	err := row.Scan(
		&record.ID, &record.ConfigID, &record.Role, &record.Kind, &record.DeviceID,
		&record.Trigger, &record.Status, &record.CopiesRequested, &record.CopiesPrinted,
		&record.Bytes, &errorMessage, &record.StartedAt, &completedAt, &durationMs,
	)
	if err != nil {
		return nil, err
	}

	if errorMessage.Valid {
		record.ErrorMessage = &errorMessage.String
	}
	if completedAt.Valid {
		record.CompletedAt = &completedAt.Time
	}
	if durationMs.Valid {
		d := int(durationMs.Int64)
		record.DurationMs = &d
	}
	return record, nil
}

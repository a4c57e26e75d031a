package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/akinalp/swipecall/database"
	"github.com/akinalp/swipecall/models"
	"github.com/akinalp/swipecall/pkg"
)

// sqliteCallRecordRepo, CallRecordRepository interface'inin SQLite implementasyonu.
type sqliteCallRecordRepo struct {
	db database.TxQuerier
}

// NewSQLiteCallRecordRepo, constructor.
func NewSQLiteCallRecordRepo(db database.TxQuerier) CallRecordRepository {
	return &sqliteCallRecordRepo{db: db}
}

func (r *sqliteCallRecordRepo) Create(ctx context.Context, record *models.CallRecord) error {
	query := `
		INSERT INTO call_records (id, peer_id, direction, reason, started_at, ended_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query,
		record.ID,
		record.PeerID,
		string(record.Direction),
		string(record.Reason),
		record.StartedAt,
		record.EndedAt,
	).Scan(&record.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create call record: %w", err)
	}

	return nil
}

func (r *sqliteCallRecordRepo) GetByID(ctx context.Context, id string) (*models.CallRecord, error) {
	query := `
		SELECT id, peer_id, direction, reason, started_at, ended_at, created_at
		FROM call_records WHERE id = ?`

	record := &models.CallRecord{}
	var direction, reason string
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&record.ID, &record.PeerID, &direction, &reason,
		&record.StartedAt, &record.EndedAt, &record.CreatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get call record: %w", err)
	}

	record.Direction = models.Direction(direction)
	record.Reason = models.CallEndReason(reason)
	return record, nil
}

func (r *sqliteCallRecordRepo) ListRecent(ctx context.Context, limit int) ([]*models.CallRecord, error) {
	query := `
		SELECT id, peer_id, direction, reason, started_at, ended_at, created_at
		FROM call_records ORDER BY ended_at DESC LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list call records: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

func (r *sqliteCallRecordRepo) ListByPeer(ctx context.Context, peerID string, limit int) ([]*models.CallRecord, error) {
	query := `
		SELECT id, peer_id, direction, reason, started_at, ended_at, created_at
		FROM call_records WHERE peer_id = ? ORDER BY ended_at DESC LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, peerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list call records by peer: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

func (r *sqliteCallRecordRepo) DeleteOlderThan(ctx context.Context, days int) (int64, error) {
	query := `DELETE FROM call_records WHERE ended_at < datetime('now', ?)`

	result, err := r.db.ExecContext(ctx, query, fmt.Sprintf("-%d days", days))
	if err != nil {
		return 0, fmt.Errorf("failed to delete old call records: %w", err)
	}

	return result.RowsAffected()
}

// scanRecords, rows'dan CallRecord listesi okur.
func scanRecords(rows *sql.Rows) ([]*models.CallRecord, error) {
	var records []*models.CallRecord
	for rows.Next() {
		record := &models.CallRecord{}
		var direction, reason string
		if err := rows.Scan(
			&record.ID, &record.PeerID, &direction, &reason,
			&record.StartedAt, &record.EndedAt, &record.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan call record: %w", err)
		}
		record.Direction = models.Direction(direction)
		record.Reason = models.CallEndReason(reason)
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate call records: %w", err)
	}
	return records, nil
}

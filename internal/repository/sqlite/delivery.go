package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sudeepta/portfolio/internal/apperror"
	"github.com/sudeepta/portfolio/internal/model"
	"github.com/sudeepta/portfolio/internal/repository"
)

var _ repository.DeliveryRepository = (*DB)(nil)

const deliveryColumns = `id, request_id, status, error_kind, duration_ms, created_at`

// Record inserts d, filling in its ID and, when unset, CreatedAt.
//
// IDs come from xid: 20 URL-safe characters that sort by creation time.
func (db *DB) Record(ctx context.Context, d *model.Delivery) error {
	d.ID = xid.New().String()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	if d.ErrorKind == "" {
		d.ErrorKind = apperror.KindNone
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO deliveries (`+deliveryColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		d.ID,
		d.RequestID,
		d.Status,
		d.ErrorKind,
		d.DurationMs,
		d.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: recording delivery: %w", err)
	}
	return nil
}

// GetByID returns one delivery, or apperror.ErrNotFound.
func (db *DB) GetByID(ctx context.Context, id string) (*model.Delivery, error) {
	var d model.Delivery
	err := db.conn.QueryRowContext(ctx,
		`SELECT `+deliveryColumns+` FROM deliveries WHERE id = ?`,
		id,
	).Scan(&d.ID, &d.RequestID, &d.Status, &d.ErrorKind, &d.DurationMs, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("delivery", id)
		}
		return nil, fmt.Errorf("sqlite: getting delivery %s: %w", id, err)
	}
	return &d, nil
}

// List returns deliveries newest first. Limit defaults to 20 and is capped
// at 100.
func (db *DB) List(ctx context.Context, opts repository.ListOptions) ([]model.Delivery, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	offset := max(opts.Offset, 0)

	query := `SELECT ` + deliveryColumns + ` FROM deliveries`
	args := []any{}
	if opts.Status != "" {
		query += ` WHERE status = ?`
		args = append(args, opts.Status)
	}
	// id breaks ties between rows recorded in the same instant; xids
	// sort by creation time.
	query += ` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing deliveries: %w", err)
	}
	defer rows.Close()

	deliveries := make([]model.Delivery, 0, limit)
	for rows.Next() {
		var d model.Delivery
		if err := rows.Scan(&d.ID, &d.RequestID, &d.Status, &d.ErrorKind, &d.DurationMs, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning delivery row: %w", err)
		}
		deliveries = append(deliveries, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating delivery rows: %w", err)
	}

	return deliveries, nil
}

// Summary counts deliveries by status.
func (db *DB) Summary(ctx context.Context) (repository.DeliverySummary, error) {
	var s repository.DeliverySummary
	err := db.conn.QueryRowContext(ctx,
		`SELECT
			COALESCE(SUM(CASE WHEN status = 'sent' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END), 0)
		 FROM deliveries`,
	).Scan(&s.Sent, &s.Failed)
	if err != nil {
		return repository.DeliverySummary{}, fmt.Errorf("sqlite: summarising deliveries: %w", err)
	}
	return s, nil
}

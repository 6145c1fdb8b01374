package repository

import (
	"context"
	"fmt"

	"playground-checkin/internal/data/entity"
	"playground-checkin/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type ScanRepository interface {
	Create(ctx context.Context, record *entity.ScanRecord) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.ScanRecord, error)
	FindByBookingID(ctx context.Context, bookingID string) ([]*entity.ScanRecord, error)
	List(ctx context.Context, limit, offset int) ([]*entity.ScanRecord, error)
	Count(ctx context.Context) (int64, error)
}

type scanRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewScanRepository(db database.PgxIface, log *zap.Logger) ScanRepository {
	return &scanRepository{
		db:  db,
		log: log.With(zap.String("repository", "scan")),
	}
}

const scanColumns = `id, booking_id, playground, booking_date, booking_time, price, customer,
	status, status_source, strategy, source, raw_text, operator_note, created_at, updated_at`

func (r *scanRepository) Create(ctx context.Context, record *entity.ScanRecord) error {
	query := `
		INSERT INTO scan_records (` + scanColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := r.db.Exec(ctx, query,
		record.ID,
		record.BookingID,
		record.Playground,
		record.BookingDate,
		record.BookingTime,
		record.Price,
		record.Customer,
		record.Status,
		record.StatusSource,
		record.Strategy,
		record.Source,
		record.RawText,
		record.OperatorNote,
		record.CreatedAt,
		record.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create scan record",
			zap.Error(err),
			zap.String("booking_id", record.BookingID),
		)
		return fmt.Errorf("create scan record for booking %s: %w", record.BookingID, err)
	}

	return nil
}

func (r *scanRepository) scanRow(row pgx.Row) (*entity.ScanRecord, error) {
	var record entity.ScanRecord
	err := row.Scan(
		&record.ID,
		&record.BookingID,
		&record.Playground,
		&record.BookingDate,
		&record.BookingTime,
		&record.Price,
		&record.Customer,
		&record.Status,
		&record.StatusSource,
		&record.Strategy,
		&record.Source,
		&record.RawText,
		&record.OperatorNote,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *scanRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.ScanRecord, error) {
	query := `SELECT ` + scanColumns + ` FROM scan_records WHERE id = $1`

	record, err := r.scanRow(r.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find scan record by ID",
			zap.Error(err),
			zap.String("scan_id", id.String()),
		)
		return nil, fmt.Errorf("find scan record by ID %s: %w", id.String(), err)
	}

	return record, nil
}

func (r *scanRepository) FindByBookingID(ctx context.Context, bookingID string) ([]*entity.ScanRecord, error) {
	query := `
		SELECT ` + scanColumns + `
		FROM scan_records
		WHERE booking_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(ctx, query, bookingID)
	if err != nil {
		r.log.Error("Failed to find scan records by booking ID",
			zap.Error(err),
			zap.String("booking_id", bookingID),
		)
		return nil, fmt.Errorf("find scan records for booking %s: %w", bookingID, err)
	}
	defer rows.Close()

	return r.collect(rows)
}

func (r *scanRepository) List(ctx context.Context, limit, offset int) ([]*entity.ScanRecord, error) {
	query := `
		SELECT ` + scanColumns + `
		FROM scan_records
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		r.log.Error("Failed to list scan records", zap.Error(err))
		return nil, fmt.Errorf("list scan records: %w", err)
	}
	defer rows.Close()

	return r.collect(rows)
}

func (r *scanRepository) collect(rows pgx.Rows) ([]*entity.ScanRecord, error) {
	var records []*entity.ScanRecord
	for rows.Next() {
		record, err := r.scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record row: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scan records: %w", err)
	}
	return records, nil
}

func (r *scanRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM scan_records`).Scan(&total)
	if err != nil {
		r.log.Error("Failed to count scan records", zap.Error(err))
		return 0, fmt.Errorf("count scan records: %w", err)
	}
	return total, nil
}

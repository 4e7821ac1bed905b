package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bookly/internal/domain"
)

const insertBlockedSlot = `
	INSERT INTO blocked_slots (business_id, staff_name, date, start_time, end_time, reason, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING id
`

type BlockedSlotRepo struct {
	db *pgxpool.Pool
}

func NewBlockedSlotRepository(db *pgxpool.Pool) *BlockedSlotRepo {
	return &BlockedSlotRepo{
		db: db,
	}
}

func (r *BlockedSlotRepo) Create(ctx context.Context, s domain.BlockedSlot) (int64, error) {
	var id int64
	err := executor(ctx, r.db).QueryRow(ctx, insertBlockedSlot,
		s.BusinessID,
		s.StaffName,
		s.Date,
		s.StartTime,
		s.EndTime,
		s.Reason,
		time.Now(),
	).Scan(&id)

	if err != nil {
		return 0, fmt.Errorf("error creating blocked slot: %w", err)
	}

	return id, nil
}

func (r *BlockedSlotRepo) CreateBatch(ctx context.Context, slots []domain.BlockedSlot) ([]int64, error) {
	tx, err := executor(ctx, r.db).Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now()
	batch := &pgx.Batch{}
	for _, s := range slots {
		batch.Queue(insertBlockedSlot, s.BusinessID, s.StaffName, s.Date, s.StartTime, s.EndTime, s.Reason, now)
	}

	results := tx.SendBatch(ctx, batch)
	ids := make([]int64, 0, len(slots))
	for range slots {
		var id int64
		if err := results.QueryRow().Scan(&id); err != nil {
			results.Close()
			return nil, fmt.Errorf("error creating blocked slot: %w", err)
		}
		ids = append(ids, id)
	}
	if err := results.Close(); err != nil {
		return nil, fmt.Errorf("error creating blocked slots: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("error committing blocked slots: %w", err)
	}

	return ids, nil
}

func (r *BlockedSlotRepo) GetByID(ctx context.Context, id int64) (*domain.BlockedSlot, error) {
	query := `
		SELECT id, business_id, staff_name, date, start_time, end_time, reason, created_at
		FROM blocked_slots
		WHERE id = $1
	`

	s, err := scanBlockedSlot(executor(ctx, r.db).QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("blocked slot with id %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("error getting blocked slot: %w", err)
	}

	return s, nil
}

func (r *BlockedSlotRepo) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM blocked_slots WHERE id = $1`

	tag, err := executor(ctx, r.db).Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("error deleting blocked slot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("blocked slot with id %d: %w", id, domain.ErrNotFound)
	}

	return nil
}

// List matches staff the same way the board does: records without staff
// apply to everyone and are always included.
func (r *BlockedSlotRepo) List(ctx context.Context, filter domain.BlockedSlotFilter) ([]domain.BlockedSlot, error) {
	builder := psql.Select("id", "business_id", "staff_name", "date", "start_time", "end_time", "reason", "created_at").
		From("blocked_slots").
		OrderBy("date ASC", "start_time ASC", "id ASC")

	if filter.BusinessID != nil {
		builder = builder.Where(squirrel.Eq{"business_id": *filter.BusinessID})
	}
	if filter.Date != nil {
		builder = builder.Where(squirrel.Eq{"date": *filter.Date})
	}
	if filter.StaffName != nil && *filter.StaffName != "" {
		builder = builder.Where(squirrel.Or{
			squirrel.Eq{"staff_name": ""},
			squirrel.Expr("LOWER(staff_name) = LOWER(?)", *filter.StaffName),
		})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building blocked slot query: %w", err)
	}

	rows, err := executor(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing blocked slots: %w", err)
	}
	defer rows.Close()

	slots := make([]domain.BlockedSlot, 0)
	for rows.Next() {
		s, err := scanBlockedSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning blocked slot: %w", err)
		}
		slots = append(slots, *s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating blocked slots: %w", err)
	}

	return slots, nil
}

func scanBlockedSlot(row scanner) (*domain.BlockedSlot, error) {
	var s domain.BlockedSlot
	err := row.Scan(
		&s.ID,
		&s.BusinessID,
		&s.StaffName,
		&s.Date,
		&s.StartTime,
		&s.EndTime,
		&s.Reason,
		&s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

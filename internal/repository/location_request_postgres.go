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

var locationRequestColumns = []string{
	"lr.id", "lr.business_id", "b.name", "lr.current_address", "lr.requested_address", "lr.reason",
	"lr.status", "lr.admin_note", "lr.created_at", "lr.updated_at",
}

type LocationRequestRepo struct {
	db *pgxpool.Pool
}

func NewLocationRequestRepository(db *pgxpool.Pool) *LocationRequestRepo {
	return &LocationRequestRepo{
		db: db,
	}
}

func (r *LocationRequestRepo) Create(ctx context.Context, req domain.LocationRequest) (int64, error) {
	query := `
		INSERT INTO location_requests (business_id, current_address, requested_address, reason, status,
			admin_note, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, '', $6, $6)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRow(ctx, query,
		req.BusinessID,
		req.CurrentAddress,
		req.RequestedAddress,
		req.Reason,
		domain.LocationRequestPending,
		time.Now(),
	).Scan(&id)

	if err != nil {
		return 0, fmt.Errorf("error creating location request: %w", err)
	}

	return id, nil
}

func (r *LocationRequestRepo) GetByID(ctx context.Context, id int64) (*domain.LocationRequest, error) {
	query, args, err := locationRequestSelect().Where(squirrel.Eq{"lr.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building location request query: %w", err)
	}

	req, err := scanLocationRequest(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("location request with id %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("error getting location request: %w", err)
	}

	return req, nil
}

func (r *LocationRequestRepo) Review(ctx context.Context, id int64, review domain.ReviewLocationRequestDTO) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now()

	var businessID int64
	var requested string
	err = tx.QueryRow(ctx, `
		UPDATE location_requests
		SET status = $1, admin_note = $2, updated_at = $3
		WHERE id = $4 AND status = $5
		RETURNING business_id, requested_address
	`, review.Status, review.AdminNote, now, id, domain.LocationRequestPending).Scan(&businessID, &requested)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: location request %d is not pending", domain.ErrConflict, id)
		}
		return fmt.Errorf("error reviewing location request: %w", err)
	}

	if review.Status == domain.LocationRequestApproved {
		_, err = tx.Exec(ctx, `UPDATE businesses SET address = $1, updated_at = $2 WHERE id = $3`, requested, now, businessID)
		if err != nil {
			return fmt.Errorf("error applying business address: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("error committing location request review: %w", err)
	}

	return nil
}

func (r *LocationRequestRepo) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM location_requests WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("error deleting location request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("location request with id %d: %w", id, domain.ErrNotFound)
	}

	return nil
}

func (r *LocationRequestRepo) List(ctx context.Context, filter domain.LocationRequestFilter) ([]domain.LocationRequest, error) {
	builder := applyLocationRequestFilter(locationRequestSelect(), filter).OrderBy("lr.created_at DESC", "lr.id DESC")

	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit)).Offset(uint64(filter.Offset))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building location request query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing location requests: %w", err)
	}
	defer rows.Close()

	requests := make([]domain.LocationRequest, 0)
	for rows.Next() {
		req, err := scanLocationRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning location request: %w", err)
		}
		requests = append(requests, *req)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating location requests: %w", err)
	}

	return requests, nil
}

func (r *LocationRequestRepo) CountByFilter(ctx context.Context, filter domain.LocationRequestFilter) (int, error) {
	query, args, err := applyLocationRequestFilter(psql.Select("COUNT(*)").From("location_requests lr"), filter).ToSql()
	if err != nil {
		return 0, fmt.Errorf("error building location request count query: %w", err)
	}

	var count int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("error counting location requests: %w", err)
	}

	return count, nil
}

func locationRequestSelect() squirrel.SelectBuilder {
	return psql.Select(locationRequestColumns...).
		From("location_requests lr").
		Join("businesses b ON b.id = lr.business_id")
}

func applyLocationRequestFilter(builder squirrel.SelectBuilder, filter domain.LocationRequestFilter) squirrel.SelectBuilder {
	if filter.BusinessID != nil {
		builder = builder.Where(squirrel.Eq{"lr.business_id": *filter.BusinessID})
	}
	if filter.Status != nil {
		builder = builder.Where(squirrel.Eq{"lr.status": *filter.Status})
	}
	return builder
}

func scanLocationRequest(row scanner) (*domain.LocationRequest, error) {
	var req domain.LocationRequest
	err := row.Scan(
		&req.ID,
		&req.BusinessID,
		&req.BusinessName,
		&req.CurrentAddress,
		&req.RequestedAddress,
		&req.Reason,
		&req.Status,
		&req.AdminNote,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

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

var bookingColumns = []string{
	"bk.id", "bk.business_id", "b.name", "bk.customer_name", "bk.customer_email", "bk.customer_phone",
	"bk.service_name", "bk.staff_name", "bk.appointment_date", "bk.appointment_time", "bk.service_duration",
	"bk.price", "bk.notes", "bk.status", "bk.created_at", "bk.updated_at",
}

type BookingRepo struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) *BookingRepo {
	return &BookingRepo{
		db: db,
	}
}

func (r *BookingRepo) Create(ctx context.Context, bk domain.Booking) (int64, error) {
	query := `
		INSERT INTO bookings (business_id, customer_name, customer_email, customer_phone, service_name,
			staff_name, appointment_date, appointment_time, service_duration, price, notes, status,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)
		RETURNING id
	`

	now := time.Now()
	var id int64
	err := executor(ctx, r.db).QueryRow(ctx, query,
		bk.BusinessID,
		bk.CustomerName,
		bk.CustomerEmail,
		bk.CustomerPhone,
		bk.ServiceName,
		bk.StaffName,
		bk.AppointmentDate,
		bk.AppointmentTime,
		bk.ServiceDuration,
		bk.Price,
		bk.Notes,
		bk.Status,
		now,
	).Scan(&id)

	if err != nil {
		return 0, fmt.Errorf("error creating booking: %w", err)
	}

	return id, nil
}

func (r *BookingRepo) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	query, args, err := bookingSelect().Where(squirrel.Eq{"bk.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building booking query: %w", err)
	}

	bk, err := scanBooking(executor(ctx, r.db).QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("booking with id %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("error getting booking: %w", err)
	}

	return bk, nil
}

func (r *BookingRepo) TransitionStatus(ctx context.Context, id int64, from, to domain.BookingStatus) (bool, error) {
	query := `
		UPDATE bookings
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
	`

	tag, err := executor(ctx, r.db).Exec(ctx, query, to, time.Now(), id, from)
	if err != nil {
		return false, fmt.Errorf("error updating booking status: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

func (r *BookingRepo) List(ctx context.Context, filter domain.BookingFilter) ([]domain.Booking, error) {
	builder := applyBookingFilter(bookingSelect(), filter).
		OrderBy("bk.appointment_date DESC", "bk.appointment_time DESC", "bk.id DESC")

	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit)).Offset(uint64(filter.Offset))
	}

	return r.query(ctx, builder)
}

func (r *BookingRepo) CountByFilter(ctx context.Context, filter domain.BookingFilter) (int, error) {
	query, args, err := applyBookingFilter(psql.Select("COUNT(*)").From("bookings bk"), filter).ToSql()
	if err != nil {
		return 0, fmt.Errorf("error building booking count query: %w", err)
	}

	var count int
	if err := executor(ctx, r.db).QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("error counting bookings: %w", err)
	}

	return count, nil
}

func (r *BookingRepo) ListConfirmedUntil(ctx context.Context, businessID *int64, date string) ([]domain.Booking, error) {
	builder := bookingSelect().
		Where(squirrel.Eq{"bk.status": domain.BookingStatusConfirmed}).
		Where(squirrel.LtOrEq{"bk.appointment_date": date}).
		OrderBy("bk.appointment_date ASC", "bk.appointment_time ASC")

	if businessID != nil {
		builder = builder.Where(squirrel.Eq{"bk.business_id": *businessID})
	}

	return r.query(ctx, builder)
}

func (r *BookingRepo) query(ctx context.Context, builder squirrel.SelectBuilder) ([]domain.Booking, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building booking list query: %w", err)
	}

	rows, err := executor(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing bookings: %w", err)
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		bk, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning booking: %w", err)
		}
		bookings = append(bookings, *bk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bookings: %w", err)
	}

	return bookings, nil
}

func bookingSelect() squirrel.SelectBuilder {
	return psql.Select(bookingColumns...).
		From("bookings bk").
		Join("businesses b ON b.id = bk.business_id")
}

func applyBookingFilter(builder squirrel.SelectBuilder, filter domain.BookingFilter) squirrel.SelectBuilder {
	if filter.BusinessID != nil {
		builder = builder.Where(squirrel.Eq{"bk.business_id": *filter.BusinessID})
	}
	if filter.Status != nil {
		builder = builder.Where(squirrel.Eq{"bk.status": *filter.Status})
	}
	if filter.StaffName != nil {
		builder = builder.Where(squirrel.Eq{"bk.staff_name": *filter.StaffName})
	}
	if filter.DateFrom != nil {
		builder = builder.Where(squirrel.GtOrEq{"bk.appointment_date": *filter.DateFrom})
	}
	if filter.DateTo != nil {
		builder = builder.Where(squirrel.LtOrEq{"bk.appointment_date": *filter.DateTo})
	}
	return builder
}

func scanBooking(row scanner) (*domain.Booking, error) {
	var bk domain.Booking
	err := row.Scan(
		&bk.ID,
		&bk.BusinessID,
		&bk.BusinessName,
		&bk.CustomerName,
		&bk.CustomerEmail,
		&bk.CustomerPhone,
		&bk.ServiceName,
		&bk.StaffName,
		&bk.AppointmentDate,
		&bk.AppointmentTime,
		&bk.ServiceDuration,
		&bk.Price,
		&bk.Notes,
		&bk.Status,
		&bk.CreatedAt,
		&bk.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &bk, nil
}

package repository

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"bookly/internal/domain"
)

// psql builds queries with $n placeholders for pgx.
var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

type scanner interface {
	Scan(dest ...any) error
}

type Repositories struct {
	Business        BusinessRepository
	Category        CategoryRepository
	Booking         BookingRepository
	BlockedSlot     BlockedSlotRepository
	LocationRequest LocationRequestRepository
	Auth            AuthRepository
	Locker          Locker
}

func NewRepositories(db *pgxpool.Pool) *Repositories {
	return &Repositories{
		Business:        NewBusinessRepository(db),
		Category:        NewCategoryRepository(db),
		Booking:         NewBookingRepository(db),
		BlockedSlot:     NewBlockedSlotRepository(db),
		LocationRequest: NewLocationRequestRepository(db),
		Auth:            NewAuthRepository(db),
		Locker:          NewAdvisoryLocker(db),
	}
}

// Locker runs fn while holding an exclusive lock on one business, so an
// occupancy check and the write that depends on it cannot interleave with
// another writer for the same business.
type Locker interface {
	WithBusinessLock(ctx context.Context, businessID int64, fn func(ctx context.Context) error) error
}

type BusinessRepository interface {
	Create(ctx context.Context, business domain.Business) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.Business, error)
	GetByEmail(ctx context.Context, email string) (*domain.Business, error)
	GetByStaffEmail(ctx context.Context, email string) (*domain.Business, error)
	Update(ctx context.Context, business domain.Business) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter domain.BusinessFilter) ([]domain.Business, error)
	CountByFilter(ctx context.Context, filter domain.BusinessFilter) (int, error)
}

type CategoryRepository interface {
	Create(ctx context.Context, category domain.CreateCategoryDTO) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.Category, error)
	Update(ctx context.Context, id int64, category domain.UpdateCategoryDTO) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter domain.CategoryFilter) ([]domain.Category, error)
	CountByFilter(ctx context.Context, filter domain.CategoryFilter) (int, error)
}

type BookingRepository interface {
	Create(ctx context.Context, booking domain.Booking) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	// TransitionStatus moves a booking from one status to another and reports
	// false when the booking was no longer in the expected status.
	TransitionStatus(ctx context.Context, id int64, from, to domain.BookingStatus) (bool, error)
	List(ctx context.Context, filter domain.BookingFilter) ([]domain.Booking, error)
	CountByFilter(ctx context.Context, filter domain.BookingFilter) (int, error)
	// ListConfirmedUntil returns CONFIRMED bookings dated on or before date.
	ListConfirmedUntil(ctx context.Context, businessID *int64, date string) ([]domain.Booking, error)
}

type BlockedSlotRepository interface {
	Create(ctx context.Context, slot domain.BlockedSlot) (int64, error)
	// CreateBatch inserts every slot or none of them.
	CreateBatch(ctx context.Context, slots []domain.BlockedSlot) ([]int64, error)
	GetByID(ctx context.Context, id int64) (*domain.BlockedSlot, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter domain.BlockedSlotFilter) ([]domain.BlockedSlot, error)
}

type LocationRequestRepository interface {
	Create(ctx context.Context, request domain.LocationRequest) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.LocationRequest, error)
	// Review stores the decision; an approval also moves the business to the
	// requested address, in the same transaction.
	Review(ctx context.Context, id int64, review domain.ReviewLocationRequestDTO) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter domain.LocationRequestFilter) ([]domain.LocationRequest, error)
	CountByFilter(ctx context.Context, filter domain.LocationRequestFilter) (int, error)
}

type AuthRepository interface {
	CreateSession(ctx context.Context, session domain.Session) error
	GetSessionByRefreshToken(ctx context.Context, refreshToken string) (*domain.Session, error)
	DeleteSession(ctx context.Context, id string) error
	DeleteSessionsBySubject(ctx context.Context, role domain.Role, subjectID int64) error

	CreateAdmin(ctx context.Context, admin domain.Admin) (int64, error)
	GetAdminByEmail(ctx context.Context, email string) (*domain.Admin, error)
}

package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"bookly/config"
	"bookly/internal/availability"
	"bookly/internal/domain"
	"bookly/internal/events"
	"bookly/internal/repository"
	"bookly/internal/storage"
)

type Deps struct {
	Repos       *repository.Repositories
	Logger      *zap.Logger
	Config      *config.Config
	FileStorage storage.FileStorage
	Events      events.Publisher
	// Now defaults to time.Now; tests pin it.
	Now func() time.Time
}

type Services struct {
	Auth            AuthService
	Business        BusinessService
	Category        CategoryService
	Booking         BookingService
	BlockedSlot     BlockedSlotService
	Availability    AvailabilityService
	LocationRequest LocationRequestService
	Upload          UploadService
	Sweeper         *Sweeper
}

func NewServices(deps Deps) *Services {
	if deps.Events == nil {
		deps.Events = events.Nop{}
	}
	if deps.FileStorage == nil {
		deps.FileStorage = storage.Disabled{}
	}
	clock := newClock(deps.Now, deps.Config.Location())

	availabilitySvc := NewAvailabilityService(deps.Repos.Business, deps.Repos.Booking, deps.Repos.BlockedSlot, clock, deps.Logger)
	sweeper := NewSweeper(deps.Repos.Booking, deps.Events, clock, deps.Logger)

	return &Services{
		Auth:            NewAuthService(deps.Repos.Auth, deps.Repos.Business, deps.Config.JWT, deps.Events, deps.Logger),
		Business:        NewBusinessService(deps.Repos.Business, deps.FileStorage, deps.Logger),
		Category:        NewCategoryService(deps.Repos.Category, deps.Logger),
		Booking:         NewBookingService(deps.Repos.Booking, deps.Repos.Locker, availabilitySvc, sweeper, deps.Events, deps.Logger),
		BlockedSlot:     NewBlockedSlotService(deps.Repos.BlockedSlot, deps.Repos.Locker, availabilitySvc, deps.Events, deps.Logger),
		Availability:    availabilitySvc,
		LocationRequest: NewLocationRequestService(deps.Repos.LocationRequest, deps.Repos.Business, deps.Events, deps.Logger),
		Upload:          NewUploadService(deps.FileStorage, deps.Logger),
		Sweeper:         sweeper,
	}
}

type AuthService interface {
	Login(ctx context.Context, role domain.Role, dto domain.LoginRequest, userAgent, ip string) (*domain.Tokens, error)
	RefreshTokens(ctx context.Context, refreshToken, userAgent, ip string) (*domain.Tokens, error)
	Logout(ctx context.Context, refreshToken string) error
	ParseToken(ctx context.Context, token string) (*domain.Principal, error)
	EnsureAdmin(ctx context.Context, email, password, name string) error
}

type BusinessService interface {
	Create(ctx context.Context, dto domain.CreateBusinessDTO) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.Business, error)
	Update(ctx context.Context, id int64, dto domain.UpdateBusinessDTO) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter domain.BusinessFilter) ([]domain.Business, int, error)
}

type CategoryService interface {
	Create(ctx context.Context, dto domain.CreateCategoryDTO) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.Category, error)
	Update(ctx context.Context, id int64, dto domain.UpdateCategoryDTO) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter domain.CategoryFilter) ([]domain.Category, int, error)
}

type BookingService interface {
	Create(ctx context.Context, dto domain.CreateBookingDTO) (*domain.Booking, error)
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	UpdateStatus(ctx context.Context, id int64, dto domain.UpdateBookingStatusDTO) (*domain.Booking, error)
	// ListForBusiness completes finished bookings of the business before listing.
	ListForBusiness(ctx context.Context, businessID int64, filter domain.BookingFilter) ([]domain.Booking, int, error)
	List(ctx context.Context, filter domain.BookingFilter) ([]domain.Booking, int, error)
}

type BlockedSlotService interface {
	Create(ctx context.Context, dto domain.CreateBlockedSlotDTO) (*domain.BlockedSlot, error)
	BlockSlots(ctx context.Context, dto domain.BlockSlotsDTO) ([]domain.BlockedSlot, error)
	GetByID(ctx context.Context, id int64) (*domain.BlockedSlot, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter domain.BlockedSlotFilter) ([]domain.BlockedSlot, error)
}

type AvailabilityService interface {
	// Board loads everything that occupies date for the business.
	Board(ctx context.Context, businessID int64, date string) (*availability.Board, error)
	// Day renders the grid. Without detailed, customer details are redacted.
	Day(ctx context.Context, businessID int64, date, staff string, duration int, detailed bool) (*availability.Day, error)
	RangeSelect(ctx context.Context, businessID int64, dto domain.RangeSelectDTO) (*domain.RangeSelection, error)
}

type LocationRequestService interface {
	Create(ctx context.Context, businessID int64, dto domain.CreateLocationRequestDTO) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.LocationRequest, error)
	Review(ctx context.Context, id int64, dto domain.ReviewLocationRequestDTO) (*domain.LocationRequest, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter domain.LocationRequestFilter) ([]domain.LocationRequest, int, error)
}

type UploadService interface {
	UploadImage(ctx context.Context, data []byte, filename, folder string) (string, error)
}

// clock yields the current time in the business timezone.
type clock func() time.Time

func newClock(now func() time.Time, loc *time.Location) clock {
	if now == nil {
		now = time.Now
	}
	return func() time.Time {
		return now().In(loc)
	}
}

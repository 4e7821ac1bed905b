package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"bookly/config"
	"bookly/internal/domain"
	"bookly/internal/events"
	"bookly/internal/repository"
)

// monday 2024-01-15, 11:00 UTC
var testNow = time.Date(2024, time.January, 15, 11, 0, 0, 0, time.UTC)

type fakeBusinessRepo struct {
	mu     sync.Mutex
	nextID int64
	items  map[int64]domain.Business
}

func newFakeBusinessRepo() *fakeBusinessRepo {
	return &fakeBusinessRepo{items: make(map[int64]domain.Business)}
}

func (r *fakeBusinessRepo) Create(_ context.Context, b domain.Business) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.items {
		if strings.EqualFold(existing.Email, b.Email) {
			return 0, fmt.Errorf("%w: email taken", domain.ErrConflict)
		}
	}
	r.nextID++
	b.ID = r.nextID
	r.items[b.ID] = b
	return b.ID, nil
}

func (r *fakeBusinessRepo) GetByID(_ context.Context, id int64) (*domain.Business, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	b.Staff = append([]domain.Staff(nil), b.Staff...)
	return &b, nil
}

func (r *fakeBusinessRepo) GetByEmail(_ context.Context, email string) (*domain.Business, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.items {
		if strings.EqualFold(b.Email, email) {
			return &b, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeBusinessRepo) GetByStaffEmail(_ context.Context, email string) (*domain.Business, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.items {
		for _, s := range b.Staff {
			if strings.EqualFold(s.Email, email) {
				return &b, nil
			}
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeBusinessRepo) Update(_ context.Context, b domain.Business) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[b.ID]; !ok {
		return domain.ErrNotFound
	}
	r.items[b.ID] = b
	return nil
}

func (r *fakeBusinessRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *fakeBusinessRepo) List(_ context.Context, _ domain.BusinessFilter) ([]domain.Business, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Business, 0, len(r.items))
	for _, b := range r.items {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeBusinessRepo) CountByFilter(_ context.Context, _ domain.BusinessFilter) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items), nil
}

type fakeBookingRepo struct {
	mu     sync.Mutex
	nextID int64
	items  []domain.Booking
	// onList runs before every List, outside the repository mutex.
	onList func()
}

func (r *fakeBookingRepo) Create(_ context.Context, b domain.Booking) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	b.ID = r.nextID
	r.items = append(r.items, b)
	return b.ID, nil
}

func (r *fakeBookingRepo) add(b domain.Booking) int64 {
	id, _ := r.Create(context.Background(), b)
	return id
}

func (r *fakeBookingRepo) GetByID(_ context.Context, id int64) (*domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.items {
		if b.ID == id {
			return &b, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeBookingRepo) TransitionStatus(_ context.Context, id int64, from, to domain.BookingStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].ID == id {
			if r.items[i].Status != from {
				return false, nil
			}
			r.items[i].Status = to
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeBookingRepo) status(id int64) domain.BookingStatus {
	b, _ := r.GetByID(context.Background(), id)
	return b.Status
}

func (r *fakeBookingRepo) List(_ context.Context, f domain.BookingFilter) ([]domain.Booking, error) {
	if r.onList != nil {
		r.onList()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Booking, 0)
	for _, b := range r.items {
		if f.BusinessID != nil && b.BusinessID != *f.BusinessID {
			continue
		}
		if f.Status != nil && b.Status != *f.Status {
			continue
		}
		if f.StaffName != nil && !strings.EqualFold(b.StaffName, *f.StaffName) {
			continue
		}
		if f.DateFrom != nil && b.AppointmentDate < *f.DateFrom {
			continue
		}
		if f.DateTo != nil && b.AppointmentDate > *f.DateTo {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (r *fakeBookingRepo) CountByFilter(ctx context.Context, f domain.BookingFilter) (int, error) {
	items, _ := r.List(ctx, f)
	return len(items), nil
}

func (r *fakeBookingRepo) ListConfirmedUntil(ctx context.Context, businessID *int64, date string) ([]domain.Booking, error) {
	status := domain.BookingStatusConfirmed
	return r.List(ctx, domain.BookingFilter{BusinessID: businessID, Status: &status, DateTo: &date})
}

type fakeBlockedSlotRepo struct {
	mu       sync.Mutex
	nextID   int64
	items    []domain.BlockedSlot
	batchErr error
}

func (r *fakeBlockedSlotRepo) Create(_ context.Context, s domain.BlockedSlot) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	s.ID = r.nextID
	r.items = append(r.items, s)
	return s.ID, nil
}

func (r *fakeBlockedSlotRepo) CreateBatch(ctx context.Context, slots []domain.BlockedSlot) ([]int64, error) {
	if r.batchErr != nil {
		return nil, r.batchErr
	}
	ids := make([]int64, 0, len(slots))
	for _, s := range slots {
		id, _ := r.Create(ctx, s)
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *fakeBlockedSlotRepo) GetByID(_ context.Context, id int64) (*domain.BlockedSlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.items {
		if s.ID == id {
			return &s, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeBlockedSlotRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, s := range r.items {
		if s.ID == id {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *fakeBlockedSlotRepo) List(_ context.Context, f domain.BlockedSlotFilter) ([]domain.BlockedSlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.BlockedSlot, 0)
	for _, s := range r.items {
		if f.BusinessID != nil && s.BusinessID != *f.BusinessID {
			continue
		}
		if f.Date != nil && s.Date != *f.Date {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

type fakeLocationRequestRepo struct {
	mu         sync.Mutex
	nextID     int64
	items      map[int64]domain.LocationRequest
	businesses *fakeBusinessRepo
}

func newFakeLocationRequestRepo(businesses *fakeBusinessRepo) *fakeLocationRequestRepo {
	return &fakeLocationRequestRepo{items: make(map[int64]domain.LocationRequest), businesses: businesses}
}

func (r *fakeLocationRequestRepo) Create(_ context.Context, req domain.LocationRequest) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	req.ID = r.nextID
	req.Status = domain.LocationRequestPending
	r.items[req.ID] = req
	return req.ID, nil
}

func (r *fakeLocationRequestRepo) GetByID(_ context.Context, id int64) (*domain.LocationRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &req, nil
}

func (r *fakeLocationRequestRepo) Review(ctx context.Context, id int64, review domain.ReviewLocationRequestDTO) error {
	r.mu.Lock()
	req, ok := r.items[id]
	if !ok || req.Status != domain.LocationRequestPending {
		r.mu.Unlock()
		return domain.ErrConflict
	}
	req.Status = review.Status
	req.AdminNote = review.AdminNote
	r.items[id] = req
	r.mu.Unlock()

	if review.Status == domain.LocationRequestApproved {
		b, err := r.businesses.GetByID(ctx, req.BusinessID)
		if err != nil {
			return err
		}
		b.Address = req.RequestedAddress
		return r.businesses.Update(ctx, *b)
	}
	return nil
}

func (r *fakeLocationRequestRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *fakeLocationRequestRepo) List(_ context.Context, f domain.LocationRequestFilter) ([]domain.LocationRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.LocationRequest, 0)
	for _, req := range r.items {
		if f.Status != nil && req.Status != *f.Status {
			continue
		}
		out = append(out, req)
	}
	return out, nil
}

func (r *fakeLocationRequestRepo) CountByFilter(ctx context.Context, f domain.LocationRequestFilter) (int, error) {
	items, _ := r.List(ctx, f)
	return len(items), nil
}

type fakeAuthRepo struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
	admins   map[string]domain.Admin
}

func newFakeAuthRepo() *fakeAuthRepo {
	return &fakeAuthRepo{sessions: make(map[string]domain.Session), admins: make(map[string]domain.Admin)}
}

func (r *fakeAuthRepo) CreateSession(_ context.Context, s domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.RefreshToken] = s
	return nil
}

func (r *fakeAuthRepo) GetSessionByRefreshToken(_ context.Context, token string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[token]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &s, nil
}

func (r *fakeAuthRepo) DeleteSession(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for token, s := range r.sessions {
		if s.ID == id {
			delete(r.sessions, token)
		}
	}
	return nil
}

func (r *fakeAuthRepo) DeleteSessionsBySubject(_ context.Context, role domain.Role, subjectID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for token, s := range r.sessions {
		if s.Role == role && s.SubjectID == subjectID {
			delete(r.sessions, token)
		}
	}
	return nil
}

func (r *fakeAuthRepo) CreateAdmin(_ context.Context, a domain.Admin) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a.ID = int64(len(r.admins) + 1)
	r.admins[strings.ToLower(a.Email)] = a
	return a.ID, nil
}

func (r *fakeAuthRepo) GetAdminByEmail(_ context.Context, email string) (*domain.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.admins[strings.ToLower(email)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &a, nil
}

// rendezvousOnList makes every booking List wait until n callers have reached
// it, or until wait has passed. Callers that race past an occupancy check all
// meet here and read the same board.
func (r *fakeBookingRepo) rendezvousOnList(n int32, wait time.Duration) {
	var arrived atomic.Int32
	r.onList = func() {
		arrived.Add(1)
		deadline := time.Now().Add(wait)
		for arrived.Load() < n && time.Now().Before(deadline) {
			time.Sleep(time.Millisecond)
		}
	}
}

// fakeLocker holds one mutex per business.
type fakeLocker struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func (l *fakeLocker) WithBusinessLock(ctx context.Context, businessID int64, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[int64]*sync.Mutex)
	}
	lock, ok := l.locks[businessID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[businessID] = lock
	}
	l.mu.Unlock()

	lock.Lock()
	defer lock.Unlock()
	return fn(ctx)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) kinds() []events.Kind {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Kind, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Kind)
	}
	return out
}

// testEnv wires every service over in-memory repositories.
type testEnv struct {
	businesses *fakeBusinessRepo
	bookings   *fakeBookingRepo
	blocked    *fakeBlockedSlotRepo
	requests   *fakeLocationRequestRepo
	auth       *fakeAuthRepo
	events     *recordingPublisher
	services   *Services
}

func newTestEnv(now time.Time) *testEnv {
	businesses := newFakeBusinessRepo()
	env := &testEnv{
		businesses: businesses,
		bookings:   &fakeBookingRepo{},
		blocked:    &fakeBlockedSlotRepo{},
		requests:   newFakeLocationRequestRepo(businesses),
		auth:       newFakeAuthRepo(),
		events:     &recordingPublisher{},
	}

	env.services = NewServices(Deps{
		Repos: &repository.Repositories{
			Business:        env.businesses,
			Booking:         env.bookings,
			BlockedSlot:     env.blocked,
			LocationRequest: env.requests,
			Auth:            env.auth,
			Locker:          &fakeLocker{},
		},
		Logger: zap.NewNop(),
		Config: &config.Config{
			Timezone: "UTC",
			JWT: config.JWTConfig{
				SigningKey:      "test-key",
				AccessTokenTTL:  15 * time.Minute,
				RefreshTokenTTL: time.Hour,
			},
		},
		Events: env.events,
		Now:    func() time.Time { return now },
	})

	return env
}

// seedSalon stores an active salon open 09:00-18:00 on Mondays.
func (e *testEnv) seedSalon() *domain.Business {
	b := domain.Business{
		Name:     "Salon",
		Email:    "salon@example.com",
		Address:  "1 Main St",
		IsActive: true,
		OperatingHours: domain.OperatingHours{
			"monday": {Open: "09:00", Close: "18:00"},
		},
		Services: []domain.Service{
			{Name: "Haircut", Duration: 30, Price: 25},
			{Name: "Coloring", Duration: 60, Price: 80},
		},
		Staff: []domain.Staff{
			{
				Name:       "Anna",
				Email:      "anna@example.com",
				IsActive:   true,
				BreakTimes: []domain.BreakTime{{StartTime: "13:00", EndTime: "13:30"}},
			},
			{Name: "Ivan", IsActive: false, Services: []string{"Haircut"}},
		},
	}
	id, _ := e.businesses.Create(context.Background(), b)
	b.ID = id
	return &b
}

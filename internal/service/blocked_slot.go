package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"bookly/internal/availability"
	"bookly/internal/domain"
	"bookly/internal/events"
	"bookly/internal/repository"
	"bookly/pkg/validator"
)

type BlockedSlotServiceImpl struct {
	repo         repository.BlockedSlotRepository
	locker       repository.Locker
	availability AvailabilityService
	events       events.Publisher
	logger       *zap.Logger
}

func NewBlockedSlotService(repo repository.BlockedSlotRepository, locker repository.Locker, availability AvailabilityService, publisher events.Publisher, logger *zap.Logger) *BlockedSlotServiceImpl {
	return &BlockedSlotServiceImpl{
		repo:         repo,
		locker:       locker,
		availability: availability,
		events:       publisher,
		logger:       logger,
	}
}

// Create stores one blocked range. A missing end, or one not after the start,
// blocks a single slot.
func (s *BlockedSlotServiceImpl) Create(ctx context.Context, dto domain.CreateBlockedSlotDTO) (*domain.BlockedSlot, error) {
	if !validator.ValidateDate(dto.Date) {
		return nil, fmt.Errorf("%w: invalid date %q, expected YYYY-MM-DD", domain.ErrValidation, dto.Date)
	}
	if !validator.ValidateClock(dto.StartTime) {
		return nil, fmt.Errorf("%w: invalid start time %q, expected HH:MM", domain.ErrValidation, dto.StartTime)
	}
	if dto.EndTime != "" && !validator.ValidateClock(dto.EndTime) {
		return nil, fmt.Errorf("%w: invalid end time %q, expected HH:MM", domain.ErrValidation, dto.EndTime)
	}

	staff := strings.TrimSpace(dto.StaffName)
	if strings.EqualFold(staff, availability.AllStaff) {
		staff = ""
	}

	slot := domain.BlockedSlot{
		BusinessID: dto.BusinessID,
		StaffName:  staff,
		Date:       dto.Date,
		StartTime:  dto.StartTime,
		EndTime:    dto.EndTime,
		Reason:     validator.SanitizeString(dto.Reason),
	}
	start, end, _ := availability.BlockedRange(slot)
	slot.StartTime = domain.FormatClock(start)
	slot.EndTime = domain.FormatClock(end)

	id, err := s.repo.Create(ctx, slot)
	if err != nil {
		s.logger.Error("Failed to create blocked slot", zap.Int64("business_id", dto.BusinessID), zap.Error(err))
		return nil, err
	}
	slot.ID = id

	s.events.Publish(ctx, events.New(events.SlotsBlocked, slot.BusinessID, []domain.BlockedSlot{slot}))
	s.logger.Info("Blocked slot created", zap.Int64("id", id), zap.Int64("business_id", slot.BusinessID))

	return &slot, nil
}

// BlockSlots blocks a batch of single slots on one day. Every listed time must
// be selectable; slots added by RangeTo that are not selectable are skipped.
// Nothing is stored unless the whole batch is. The board is read and the batch
// stored under the business lock.
func (s *BlockedSlotServiceImpl) BlockSlots(ctx context.Context, dto domain.BlockSlotsDTO) ([]domain.BlockedSlot, error) {
	var slots []domain.BlockedSlot
	err := s.locker.WithBusinessLock(ctx, dto.BusinessID, func(ctx context.Context) error {
		var err error
		slots, err = s.blockSlots(ctx, dto)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(ctx, events.New(events.SlotsBlocked, dto.BusinessID, slots))
	s.logger.Info("Slots blocked",
		zap.Int64("business_id", dto.BusinessID),
		zap.String("date", dto.Date),
		zap.Int("count", len(slots)))

	return slots, nil
}

func (s *BlockedSlotServiceImpl) blockSlots(ctx context.Context, dto domain.BlockSlotsDTO) ([]domain.BlockedSlot, error) {
	board, err := s.availability.Board(ctx, dto.BusinessID, dto.Date)
	if err != nil {
		return nil, err
	}
	if err := checkStaff(board.Business, dto.StaffName); err != nil {
		return nil, err
	}
	staff := canonicalStaff(board.Business, dto.StaffName)

	daySlots, _, err := board.DaySlots(dto.Date, staff, availability.SlotMinutes)
	if err != nil {
		return nil, err
	}

	selection := availability.NewSelection()
	for _, t := range dto.Times {
		if !board.IsSelectable(dto.Date, t, staff) || !contains(daySlots, t) {
			return nil, fmt.Errorf("%w: %s %s", domain.ErrSlotUnavailable, dto.Date, t)
		}
		selection.Add(t)
	}

	if dto.RangeTo != nil {
		if !contains(daySlots, *dto.RangeTo) {
			return nil, fmt.Errorf("%w: %s is outside the working day", domain.ErrValidation, *dto.RangeTo)
		}
		selection.RangeFill(daySlots, *dto.RangeTo, board.Selectable(dto.Date, staff))
	}

	if selection.Len() == 0 {
		return nil, fmt.Errorf("%w: no slots selected", domain.ErrValidation)
	}

	reason := validator.SanitizeString(dto.Reason)
	slots := make([]domain.BlockedSlot, 0, selection.Len())
	for _, t := range selection.Items() {
		start, _ := domain.ParseClock(t)
		slots = append(slots, domain.BlockedSlot{
			BusinessID: dto.BusinessID,
			StaffName:  staff,
			Date:       dto.Date,
			StartTime:  t,
			EndTime:    domain.FormatClock(start + availability.SlotMinutes),
			Reason:     reason,
		})
	}

	ids, err := s.repo.CreateBatch(ctx, slots)
	if err != nil {
		s.logger.Error("Failed to block slots",
			zap.Int64("business_id", dto.BusinessID),
			zap.String("date", dto.Date),
			zap.Error(err))
		return nil, err
	}
	for i := range slots {
		slots[i].ID = ids[i]
	}

	return slots, nil
}

func (s *BlockedSlotServiceImpl) GetByID(ctx context.Context, id int64) (*domain.BlockedSlot, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *BlockedSlotServiceImpl) Delete(ctx context.Context, id int64) error {
	slot, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("Failed to delete blocked slot", zap.Int64("id", id), zap.Error(err))
		return err
	}

	s.events.Publish(ctx, events.New(events.SlotsUnblocked, slot.BusinessID, slot))
	s.logger.Info("Blocked slot deleted", zap.Int64("id", id))
	return nil
}

func (s *BlockedSlotServiceImpl) List(ctx context.Context, filter domain.BlockedSlotFilter) ([]domain.BlockedSlot, error) {
	if filter.Date != nil && !validator.ValidateDate(*filter.Date) {
		return nil, fmt.Errorf("%w: invalid date %q, expected YYYY-MM-DD", domain.ErrValidation, *filter.Date)
	}
	return s.repo.List(ctx, filter)
}

// canonicalStaff maps a staff filter to the stored member name, or "" for all staff.
func canonicalStaff(business *domain.Business, name string) string {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, availability.AllStaff) {
		return ""
	}
	if member, ok := business.FindStaff(name); ok {
		return member.Name
	}
	return name
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

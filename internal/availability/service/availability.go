package service

import (
	"context"
	"errors"
	"time"

	availabilityerrors "masterbook/internal/availability/errors"
	"masterbook/internal/availability/repository"
	"masterbook/internal/availability/validator"
	"masterbook/pkg/config"
	apperrors "masterbook/pkg/errors"
	"masterbook/pkg/model"
	"masterbook/pkg/schedule"
	"masterbook/pkg/timegrid"
)

// slotTimeLayout is the wire format for slot instants. Milliseconds are
// always zero but kept in the representation for client compatibility.
const slotTimeLayout = "2006-01-02T15:04:05.000Z"

// SlotView is a slot as serialized to clients.
type SlotView struct {
	Start  string              `json:"start"`
	End    string              `json:"end"`
	Status schedule.SlotStatus `json:"status"`
}

// SlotsView is the read-path payload for one master and date.
type SlotsView struct {
	SlotMinutes int        `json:"slotMinutes"`
	Slots       []SlotView `json:"slots"`
}

// OrderReader is the slice of the orders repository the slot read path
// needs: active orders for one master inside an instant window.
type OrderReader interface {
	ListActiveByMasterBetween(ctx context.Context, masterID string, from, to time.Time) ([]model.Order, error)
}

type AvailabilityService interface {
	Get(ctx context.Context, masterID string) (*model.Availability, error)
	Put(ctx context.Context, actor *model.User, av *model.Availability) error
	Slots(ctx context.Context, masterID string, date string) (*SlotsView, error)
}

type availabilityService struct {
	repo      repository.Repository
	orders    OrderReader
	validator *validator.AvailabilityValidator
	cfg       *config.Config
}

func NewAvailabilityService(
	repo repository.Repository,
	orders OrderReader,
	validator *validator.AvailabilityValidator,
	cfg *config.Config,
) AvailabilityService {
	return &availabilityService{
		repo:      repo,
		orders:    orders,
		validator: validator,
		cfg:       cfg,
	}
}

// Get returns the master's stored schedule, or the system default when
// the master has never configured one.
func (s *availabilityService) Get(ctx context.Context, masterID string) (*model.Availability, error) {
	if masterID == "" {
		return nil, apperrors.InvalidInput("Master ID cannot be empty")
	}

	av, err := s.repo.Get(ctx, masterID)
	if err != nil {
		if errors.Is(err, availabilityerrors.ErrNotFound) {
			return schedule.Default(masterID), nil
		}
		s.cfg.Log.Error("Failed to get availability",
			"master_id", masterID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to retrieve availability", err)
	}
	return av, nil
}

// Put replaces the master's schedule wholesale. Only the master may
// write their own schedule; concurrent writes are last-writer-wins.
func (s *availabilityService) Put(ctx context.Context, actor *model.User, av *model.Availability) error {
	if av.MasterID == "" {
		return apperrors.InvalidInput("Master ID cannot be empty")
	}
	if actor == nil || actor.Role != model.RoleMaster {
		return apperrors.Forbidden("Only masters can manage a schedule")
	}
	if actor.ID != av.MasterID {
		return apperrors.Forbidden("You can only manage your own schedule")
	}

	if err := s.validator.Validate(av); err != nil {
		s.cfg.Log.Warn("Availability validation failed",
			"master_id", av.MasterID,
			"error", err,
		)
		return apperrors.Validation("Availability validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if av.Exceptions == nil {
		av.Exceptions = map[string][]model.TimeRange{}
	}

	if err := s.repo.Put(ctx, av); err != nil {
		s.cfg.Log.Error("Failed to store availability",
			"master_id", av.MasterID,
			"error", err,
		)
		return apperrors.Internal("Failed to store availability", err)
	}

	s.cfg.Log.Info("Availability stored successfully",
		"master_id", av.MasterID,
		"slot_minutes", av.SlotMinutes,
	)
	return nil
}

// Slots computes the bookable slots for one date, with occupancy marked
// from the master's active orders. A master with no stored schedule has
// no bookable slots on the read path, even though Get falls back to the
// default schedule for display.
func (s *availabilityService) Slots(ctx context.Context, masterID string, date string) (*SlotsView, error) {
	if masterID == "" {
		return nil, apperrors.InvalidInput("Master ID cannot be empty")
	}
	day, err := timegrid.ParseDate(date)
	if err != nil {
		return nil, apperrors.InvalidInput("Date must be in YYYY-MM-DD format")
	}

	av, err := s.repo.Get(ctx, masterID)
	if err != nil {
		if errors.Is(err, availabilityerrors.ErrNotFound) {
			return &SlotsView{SlotMinutes: config.DefaultSlotMinutes, Slots: []SlotView{}}, nil
		}
		s.cfg.Log.Error("Failed to get availability for slots",
			"master_id", masterID,
			"date", date,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to retrieve availability", err)
	}

	slots, err := schedule.GenerateSlots(av, day)
	if err != nil {
		s.cfg.Log.Error("Failed to generate slots",
			"master_id", masterID,
			"date", date,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to generate slots", err)
	}

	if len(slots) > 0 {
		// A midnight-crossing range can spill into the next calendar
		// date, so the occupancy window spans two days.
		from := day
		to := day.Add(48 * time.Hour)
		active, err := s.orders.ListActiveByMasterBetween(ctx, masterID, from, to)
		if err != nil {
			s.cfg.Log.Error("Failed to load active orders for slots",
				"master_id", masterID,
				"date", date,
				"error", err,
			)
			return nil, apperrors.Internal("Failed to load active orders", err)
		}
		slots = schedule.MarkBusy(slots, active, av.SlotMinutes)
	}

	view := &SlotsView{
		SlotMinutes: av.SlotMinutes,
		Slots:       make([]SlotView, 0, len(slots)),
	}
	for _, sl := range slots {
		view.Slots = append(view.Slots, SlotView{
			Start:  sl.Start.UTC().Format(slotTimeLayout),
			End:    sl.End.UTC().Format(slotTimeLayout),
			Status: sl.Status,
		})
	}
	return view, nil
}

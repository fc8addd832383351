package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	availabilityerrors "masterbook/internal/availability/errors"
	catalogerrors "masterbook/internal/catalog/errors"
	ordererrors "masterbook/internal/orders/errors"
	"masterbook/internal/orders/events"
	"masterbook/internal/orders/repository"
	"masterbook/internal/orders/validator"
	"masterbook/pkg/config"
	apperrors "masterbook/pkg/errors"
	"masterbook/pkg/model"
	"masterbook/pkg/sanitizer"
	"masterbook/pkg/schedule"
)

// AvailabilityReader is the raw schedule lookup: unlike the public read
// path it must distinguish "never configured" from a stored schedule,
// because booking against an unconfigured master is an error.
type AvailabilityReader interface {
	Get(ctx context.Context, masterID string) (*model.Availability, error)
}

// ServiceReader resolves the booked service to find its master.
type ServiceReader interface {
	GetService(ctx context.Context, id string) (*model.Service, error)
}

type CreateOrderInput struct {
	ServiceID string    `json:"service_id"`
	DesiredAt time.Time `json:"desired_at"`
	Comment   string    `json:"comment"`
}

type OrderService interface {
	Create(ctx context.Context, actor *model.User, in CreateOrderInput) (*model.Order, error)
	SetStatus(ctx context.Context, actor *model.User, orderID string, status model.OrderStatus, reason string) (*model.Order, error)
	GetByID(ctx context.Context, actor *model.User, orderID string) (*model.OrderDetails, error)
	ListForActor(ctx context.Context, actor *model.User) ([]model.OrderDetails, error)
}

type orderService struct {
	repo         repository.Repository
	availability AvailabilityReader
	services     ServiceReader
	validator    *validator.OrderValidator
	publisher    events.Publisher
	cfg          *config.Config
	now          func() time.Time
}

func NewOrderService(
	repo repository.Repository,
	availability AvailabilityReader,
	services ServiceReader,
	validator *validator.OrderValidator,
	publisher events.Publisher,
	cfg *config.Config,
) OrderService {
	return &orderService{
		repo:         repo,
		availability: availability,
		services:     services,
		validator:    validator,
		publisher:    publisher,
		cfg:          cfg,
		now:          time.Now,
	}
}

// Create books a slot for the acting client. The conflict check here is
// advisory; the repository's Create is the authoritative gate against
// concurrent requests for the same instant.
func (s *orderService) Create(ctx context.Context, actor *model.User, in CreateOrderInput) (*model.Order, error) {
	if actor == nil || actor.Role != model.RoleClient {
		return nil, apperrors.Forbidden("Only clients can create orders")
	}
	if in.ServiceID == "" {
		return nil, apperrors.InvalidInput("Service ID cannot be empty")
	}
	if in.DesiredAt.IsZero() {
		return nil, apperrors.InvalidInput("Desired time is required")
	}

	svc, err := s.services.GetService(ctx, in.ServiceID)
	if err != nil {
		if errors.Is(err, catalogerrors.ErrServiceNotFound) {
			return nil, apperrors.NotFoundWithID("Service", in.ServiceID)
		}
		s.cfg.Log.Error("Failed to resolve service for order",
			"service_id", in.ServiceID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to resolve service", err)
	}

	if svc.MasterID == actor.ID {
		return nil, apperrors.InvalidInput("You cannot book your own service")
	}

	// Slots live on a whole-minute grid; sub-minute noise from the
	// client would otherwise defeat the equality-based busy check.
	desiredAt := in.DesiredAt.UTC().Truncate(time.Minute)
	if desiredAt.Before(s.now().UTC()) {
		return nil, apperrors.InvalidInput("Desired time must be in the future")
	}

	av, err := s.availability.Get(ctx, svc.MasterID)
	if err != nil {
		if errors.Is(err, availabilityerrors.ErrNotFound) {
			return nil, apperrors.ScheduleNotConfigured(svc.MasterID)
		}
		s.cfg.Log.Error("Failed to load availability for order",
			"master_id", svc.MasterID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to load availability", err)
	}

	day := desiredAt.Truncate(24 * time.Hour)
	active, err := s.repo.ListActiveByMasterBetween(ctx, svc.MasterID, day, day.Add(48*time.Hour))
	if err != nil {
		s.cfg.Log.Error("Failed to load active orders for conflict check",
			"master_id", svc.MasterID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to load active orders", err)
	}

	if err := schedule.CheckConflict(av, desiredAt, active); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	order := &model.Order{
		ID:              uuid.NewString(),
		ServiceID:       svc.ID,
		MasterID:        svc.MasterID,
		ClientID:        actor.ID,
		DesiredAt:       desiredAt,
		Comment:         sanitizer.NormalizeComment(in.Comment),
		Status:          model.StatusNew,
		StatusChangedAt: now,
		CreatedAt:       now,
	}

	if err := s.validator.Validate(order); err != nil {
		return nil, apperrors.Validation("Order validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if err := s.repo.Create(ctx, order); err != nil {
		if errors.Is(err, ordererrors.ErrSlotTaken) {
			return nil, apperrors.SlotConflict("this slot is already taken")
		}
		s.cfg.Log.Error("Failed to create order",
			"master_id", order.MasterID,
			"client_id", order.ClientID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to create order", err)
	}

	s.publisher.OrderCreated(ctx, order)

	s.cfg.Log.Info("Order created successfully",
		"order_id", order.ID,
		"master_id", order.MasterID,
		"client_id", order.ClientID,
		"desired_at", order.DesiredAt,
	)
	return order, nil
}

// SetStatus moves an order through the lifecycle. The allowed moves
// depend on whether the actor is the order's master or its client;
// anyone else is rejected outright.
func (s *orderService) SetStatus(ctx context.Context, actor *model.User, orderID string, status model.OrderStatus, reason string) (*model.Order, error) {
	if actor == nil {
		return nil, apperrors.Unauthorized("authentication required")
	}
	if orderID == "" {
		return nil, apperrors.InvalidInput("Order ID cannot be empty")
	}
	if !status.Valid() {
		return nil, apperrors.InvalidInput("Unknown order status")
	}

	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, ordererrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Order", orderID)
		}
		s.cfg.Log.Error("Failed to load order",
			"order_id", orderID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to load order", err)
	}

	var role model.Role
	switch actor.ID {
	case order.MasterID:
		role = model.RoleMaster
	case order.ClientID:
		role = model.RoleClient
	default:
		return nil, apperrors.Forbidden("You are not a participant of this order")
	}

	if !model.CanTransition(role, order.Status, status) {
		return nil, apperrors.IllegalTransition(string(order.Status), string(status))
	}

	previous := order.Status
	order.Status = status
	order.StatusChangedAt = s.now().UTC()
	if status == model.StatusRejected {
		order.RejectReason = sanitizer.NormalizeComment(reason)
	}

	if err := s.repo.Update(ctx, order); err != nil {
		if errors.Is(err, ordererrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Order", orderID)
		}
		s.cfg.Log.Error("Failed to update order status",
			"order_id", orderID,
			"status", status,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to update order status", err)
	}

	s.publisher.OrderStatusChanged(ctx, order, previous)

	s.cfg.Log.Info("Order status updated",
		"order_id", order.ID,
		"from", previous,
		"to", status,
		"actor_role", role,
	)
	return order, nil
}

func (s *orderService) GetByID(ctx context.Context, actor *model.User, orderID string) (*model.OrderDetails, error) {
	if actor == nil {
		return nil, apperrors.Unauthorized("authentication required")
	}
	if orderID == "" {
		return nil, apperrors.InvalidInput("Order ID cannot be empty")
	}

	details, err := s.repo.GetDetailsByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, ordererrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Order", orderID)
		}
		s.cfg.Log.Error("Failed to load order details",
			"order_id", orderID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to load order", err)
	}

	if actor.ID != details.MasterID && actor.ID != details.ClientID {
		return nil, apperrors.Forbidden("You are not a participant of this order")
	}
	return details, nil
}

func (s *orderService) ListForActor(ctx context.Context, actor *model.User) ([]model.OrderDetails, error) {
	if actor == nil {
		return nil, apperrors.Unauthorized("authentication required")
	}

	var (
		list []model.OrderDetails
		err  error
	)
	switch actor.Role {
	case model.RoleMaster:
		list, err = s.repo.ListByMaster(ctx, actor.ID)
	case model.RoleClient:
		list, err = s.repo.ListByClient(ctx, actor.ID)
	default:
		return nil, apperrors.Forbidden("Unknown role")
	}
	if err != nil {
		s.cfg.Log.Error("Failed to list orders",
			"user_id", actor.ID,
			"role", actor.Role,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to list orders", err)
	}
	if list == nil {
		list = []model.OrderDetails{}
	}
	return list, nil
}

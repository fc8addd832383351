package service

import (
	"context"
	"testing"
	"time"

	availabilityerrors "masterbook/internal/availability/errors"
	catalogerrors "masterbook/internal/catalog/errors"
	ordererrors "masterbook/internal/orders/errors"
	"masterbook/internal/orders/validator"
	"masterbook/pkg/config"
	apperrors "masterbook/pkg/errors"
	"masterbook/pkg/logger"
	"masterbook/pkg/model"
)

type mockOrderRepository struct {
	createFunc     func(ctx context.Context, o *model.Order) error
	getByIDFunc    func(ctx context.Context, id string) (*model.Order, error)
	getDetailsFunc func(ctx context.Context, id string) (*model.OrderDetails, error)
	updateFunc     func(ctx context.Context, o *model.Order) error
	listMasterFunc func(ctx context.Context, masterID string) ([]model.OrderDetails, error)
	listClientFunc func(ctx context.Context, clientID string) ([]model.OrderDetails, error)
	listActiveFunc func(ctx context.Context, masterID string, from, to time.Time) ([]model.Order, error)
}

func (m *mockOrderRepository) Create(ctx context.Context, o *model.Order) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, o)
	}
	return nil
}

func (m *mockOrderRepository) GetByID(ctx context.Context, id string) (*model.Order, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, ordererrors.ErrNotFound
}

func (m *mockOrderRepository) GetDetailsByID(ctx context.Context, id string) (*model.OrderDetails, error) {
	if m.getDetailsFunc != nil {
		return m.getDetailsFunc(ctx, id)
	}
	return nil, ordererrors.ErrNotFound
}

func (m *mockOrderRepository) Update(ctx context.Context, o *model.Order) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, o)
	}
	return nil
}

func (m *mockOrderRepository) ListByMaster(ctx context.Context, masterID string) ([]model.OrderDetails, error) {
	if m.listMasterFunc != nil {
		return m.listMasterFunc(ctx, masterID)
	}
	return nil, nil
}

func (m *mockOrderRepository) ListByClient(ctx context.Context, clientID string) ([]model.OrderDetails, error) {
	if m.listClientFunc != nil {
		return m.listClientFunc(ctx, clientID)
	}
	return nil, nil
}

func (m *mockOrderRepository) ListActiveByMasterBetween(ctx context.Context, masterID string, from, to time.Time) ([]model.Order, error) {
	if m.listActiveFunc != nil {
		return m.listActiveFunc(ctx, masterID, from, to)
	}
	return nil, nil
}

func (m *mockOrderRepository) CountOpenByService(ctx context.Context, serviceID string) (int64, error) {
	return 0, nil
}

type mockAvailabilityReader struct {
	getFunc func(ctx context.Context, masterID string) (*model.Availability, error)
}

func (m *mockAvailabilityReader) Get(ctx context.Context, masterID string) (*model.Availability, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, masterID)
	}
	return nil, availabilityerrors.ErrNotFound
}

type mockServiceReader struct {
	getFunc func(ctx context.Context, id string) (*model.Service, error)
}

func (m *mockServiceReader) GetService(ctx context.Context, id string) (*model.Service, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, id)
	}
	return nil, catalogerrors.ErrServiceNotFound
}

type recordingPublisher struct {
	created []model.Order
	changed []model.Order
}

func (p *recordingPublisher) OrderCreated(ctx context.Context, o *model.Order) {
	p.created = append(p.created, *o)
}

func (p *recordingPublisher) OrderStatusChanged(ctx context.Context, o *model.Order, prev model.OrderStatus) {
	p.changed = append(p.changed, *o)
}

// testNow is a fixed clock well before every desired instant the tests
// use, so "in the past" checks stay deterministic.
var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestOrderService(
	repo *mockOrderRepository,
	availability *mockAvailabilityReader,
	services *mockServiceReader,
	publisher *recordingPublisher,
) *orderService {
	log := logger.New(logger.Config{
		Level:     "info",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
	return &orderService{
		repo:         repo,
		availability: availability,
		services:     services,
		validator:    validator.NewOrderValidator(log),
		publisher:    publisher,
		cfg:          &config.Config{Log: log},
		now:          func() time.Time { return testNow },
	}
}

func mondaySchedule(masterID string) *model.Availability {
	av := &model.Availability{
		MasterID:    masterID,
		SlotMinutes: 30,
		Exceptions:  map[string][]model.TimeRange{},
	}
	av.WeekTemplate[1] = []model.TimeRange{{Start: "09:00", End: "12:00"}}
	return av
}

func knownService() *mockServiceReader {
	return &mockServiceReader{
		getFunc: func(ctx context.Context, id string) (*model.Service, error) {
			return &model.Service{ID: id, MasterID: "master-1", Title: "Haircut", Price: 25}, nil
		},
	}
}

func knownSchedule() *mockAvailabilityReader {
	return &mockAvailabilityReader{
		getFunc: func(ctx context.Context, masterID string) (*model.Availability, error) {
			return mondaySchedule(masterID), nil
		},
	}
}

// 2024-06-10 is a Monday inside the test schedule.
var validDesiredAt = time.Date(2024, 6, 10, 9, 30, 0, 0, time.UTC)

func TestCreateRequiresClientRole(t *testing.T) {
	svc := newTestOrderService(&mockOrderRepository{}, knownSchedule(), knownService(), &recordingPublisher{})

	for _, actor := range []*model.User{
		nil,
		{ID: "master-2", Role: model.RoleMaster},
	} {
		_, err := svc.Create(context.Background(), actor, CreateOrderInput{ServiceID: "s1", DesiredAt: validDesiredAt})
		appErr := apperrors.AsAppError(err)
		if appErr == nil || appErr.Code != apperrors.CodeForbidden {
			t.Errorf("expected forbidden for actor %v, got %v", actor, err)
		}
	}
}

func TestCreateUnknownService(t *testing.T) {
	svc := newTestOrderService(&mockOrderRepository{}, knownSchedule(), &mockServiceReader{}, &recordingPublisher{})

	_, err := svc.Create(context.Background(), &model.User{ID: "client-1", Role: model.RoleClient},
		CreateOrderInput{ServiceID: "missing", DesiredAt: validDesiredAt})
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCreateRejectsOwnService(t *testing.T) {
	svc := newTestOrderService(&mockOrderRepository{}, knownSchedule(), knownService(), &recordingPublisher{})

	_, err := svc.Create(context.Background(), &model.User{ID: "master-1", Role: model.RoleClient},
		CreateOrderInput{ServiceID: "s1", DesiredAt: validDesiredAt})
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeInvalidInput {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestCreateRejectsPastInstant(t *testing.T) {
	svc := newTestOrderService(&mockOrderRepository{}, knownSchedule(), knownService(), &recordingPublisher{})

	past := time.Date(2024, 5, 27, 9, 30, 0, 0, time.UTC) // a Monday before testNow
	_, err := svc.Create(context.Background(), &model.User{ID: "client-1", Role: model.RoleClient},
		CreateOrderInput{ServiceID: "s1", DesiredAt: past})
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeInvalidInput {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestCreateWithoutScheduleFails(t *testing.T) {
	svc := newTestOrderService(&mockOrderRepository{}, &mockAvailabilityReader{}, knownService(), &recordingPublisher{})

	_, err := svc.Create(context.Background(), &model.User{ID: "client-1", Role: model.RoleClient},
		CreateOrderInput{ServiceID: "s1", DesiredAt: validDesiredAt})
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeScheduleNotConfigured {
		t.Fatalf("expected schedule not configured, got %v", err)
	}
}

func TestCreateRejectsOffGridInstant(t *testing.T) {
	svc := newTestOrderService(&mockOrderRepository{}, knownSchedule(), knownService(), &recordingPublisher{})

	offGrid := time.Date(2024, 6, 10, 9, 15, 0, 0, time.UTC)
	_, err := svc.Create(context.Background(), &model.User{ID: "client-1", Role: model.RoleClient},
		CreateOrderInput{ServiceID: "s1", DesiredAt: offGrid})
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeOutsideWorkingHours {
		t.Fatalf("expected outside working hours, got %v", err)
	}
}

func TestCreateRejectsOccupiedSlot(t *testing.T) {
	repo := &mockOrderRepository{
		listActiveFunc: func(ctx context.Context, masterID string, from, to time.Time) ([]model.Order, error) {
			return []model.Order{
				{MasterID: masterID, DesiredAt: validDesiredAt, Status: model.StatusAccepted},
			}, nil
		},
	}
	svc := newTestOrderService(repo, knownSchedule(), knownService(), &recordingPublisher{})

	_, err := svc.Create(context.Background(), &model.User{ID: "client-1", Role: model.RoleClient},
		CreateOrderInput{ServiceID: "s1", DesiredAt: validDesiredAt})
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeSlotConflict {
		t.Fatalf("expected slot conflict, got %v", err)
	}
}

func TestCreateMapsStorageConflict(t *testing.T) {
	// A concurrent writer can win between the advisory check and the
	// insert; the storage sentinel must surface as the same conflict.
	repo := &mockOrderRepository{
		createFunc: func(ctx context.Context, o *model.Order) error {
			return ordererrors.ErrSlotTaken
		},
	}
	svc := newTestOrderService(repo, knownSchedule(), knownService(), &recordingPublisher{})

	_, err := svc.Create(context.Background(), &model.User{ID: "client-1", Role: model.RoleClient},
		CreateOrderInput{ServiceID: "s1", DesiredAt: validDesiredAt})
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeSlotConflict {
		t.Fatalf("expected slot conflict, got %v", err)
	}
}

func TestCreateSuccess(t *testing.T) {
	var stored *model.Order
	repo := &mockOrderRepository{
		createFunc: func(ctx context.Context, o *model.Order) error {
			stored = o
			return nil
		},
	}
	publisher := &recordingPublisher{}
	svc := newTestOrderService(repo, knownSchedule(), knownService(), publisher)

	withNoise := validDesiredAt.Add(15 * time.Second)
	order, err := svc.Create(context.Background(), &model.User{ID: "client-1", Role: model.RoleClient},
		CreateOrderInput{ServiceID: "s1", DesiredAt: withNoise, Comment: "  please be gentle  "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if order.ID == "" {
		t.Error("expected a generated order id")
	}
	if order.Status != model.StatusNew {
		t.Errorf("expected status NEW, got %s", order.Status)
	}
	if !order.DesiredAt.Equal(validDesiredAt) {
		t.Errorf("expected desired instant truncated to the minute, got %v", order.DesiredAt)
	}
	if order.MasterID != "master-1" || order.ClientID != "client-1" {
		t.Errorf("unexpected participants: master=%s client=%s", order.MasterID, order.ClientID)
	}
	if order.Comment != "please be gentle" {
		t.Errorf("expected normalized comment, got %q", order.Comment)
	}
	if stored == nil {
		t.Fatal("expected the order to reach the repository")
	}
	if len(publisher.created) != 1 {
		t.Fatalf("expected one created event, got %d", len(publisher.created))
	}
}

func TestSetStatusTransitions(t *testing.T) {
	const masterID, clientID = "master-1", "client-1"

	tests := []struct {
		name     string
		actor    *model.User
		from     model.OrderStatus
		to       model.OrderStatus
		wantCode string
	}{
		{name: "master accepts new", actor: &model.User{ID: masterID, Role: model.RoleMaster}, from: model.StatusNew, to: model.StatusAccepted},
		{name: "master rejects new", actor: &model.User{ID: masterID, Role: model.RoleMaster}, from: model.StatusNew, to: model.StatusRejected},
		{name: "master completes accepted", actor: &model.User{ID: masterID, Role: model.RoleMaster}, from: model.StatusAccepted, to: model.StatusDone},
		{name: "master cancels accepted", actor: &model.User{ID: masterID, Role: model.RoleMaster}, from: model.StatusAccepted, to: model.StatusCancelled},
		{name: "client cancels new", actor: &model.User{ID: clientID, Role: model.RoleClient}, from: model.StatusNew, to: model.StatusCancelled},
		{name: "client cancels accepted", actor: &model.User{ID: clientID, Role: model.RoleClient}, from: model.StatusAccepted, to: model.StatusCancelled},
		{
			name:     "master cannot skip to done",
			actor:    &model.User{ID: masterID, Role: model.RoleMaster},
			from:     model.StatusNew,
			to:       model.StatusDone,
			wantCode: apperrors.CodeIllegalTransition,
		},
		{
			name:     "client cannot accept",
			actor:    &model.User{ID: clientID, Role: model.RoleClient},
			from:     model.StatusNew,
			to:       model.StatusAccepted,
			wantCode: apperrors.CodeIllegalTransition,
		},
		{
			name:     "client cannot cancel done",
			actor:    &model.User{ID: clientID, Role: model.RoleClient},
			from:     model.StatusDone,
			to:       model.StatusCancelled,
			wantCode: apperrors.CodeIllegalTransition,
		},
		{
			name:     "outsider is rejected",
			actor:    &model.User{ID: "stranger", Role: model.RoleClient},
			from:     model.StatusNew,
			to:       model.StatusCancelled,
			wantCode: apperrors.CodeForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockOrderRepository{
				getByIDFunc: func(ctx context.Context, id string) (*model.Order, error) {
					return &model.Order{
						ID:       id,
						MasterID: masterID,
						ClientID: clientID,
						Status:   tt.from,
					}, nil
				},
			}
			publisher := &recordingPublisher{}
			svc := newTestOrderService(repo, knownSchedule(), knownService(), publisher)

			order, err := svc.SetStatus(context.Background(), tt.actor, "o1", tt.to, "")
			if tt.wantCode != "" {
				appErr := apperrors.AsAppError(err)
				if appErr == nil || appErr.Code != tt.wantCode {
					t.Fatalf("expected %s, got %v", tt.wantCode, err)
				}
				if len(publisher.changed) != 0 {
					t.Error("no event must be published for a rejected transition")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if order.Status != tt.to {
				t.Errorf("expected status %s, got %s", tt.to, order.Status)
			}
			if !order.StatusChangedAt.Equal(testNow) {
				t.Errorf("expected status change stamped with the clock, got %v", order.StatusChangedAt)
			}
			if len(publisher.changed) != 1 {
				t.Errorf("expected one status event, got %d", len(publisher.changed))
			}
		})
	}
}

func TestSetStatusStoresRejectReason(t *testing.T) {
	var updated *model.Order
	repo := &mockOrderRepository{
		getByIDFunc: func(ctx context.Context, id string) (*model.Order, error) {
			return &model.Order{ID: id, MasterID: "master-1", ClientID: "client-1", Status: model.StatusNew}, nil
		},
		updateFunc: func(ctx context.Context, o *model.Order) error {
			updated = o
			return nil
		},
	}
	svc := newTestOrderService(repo, knownSchedule(), knownService(), &recordingPublisher{})

	_, err := svc.SetStatus(context.Background(), &model.User{ID: "master-1", Role: model.RoleMaster},
		"o1", model.StatusRejected, "  fully booked that week  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated == nil || updated.RejectReason != "fully booked that week" {
		t.Fatalf("expected normalized reject reason, got %+v", updated)
	}
}

func TestGetByIDEnforcesParticipation(t *testing.T) {
	repo := &mockOrderRepository{
		getDetailsFunc: func(ctx context.Context, id string) (*model.OrderDetails, error) {
			return &model.OrderDetails{
				Order: model.Order{ID: id, MasterID: "master-1", ClientID: "client-1", Status: model.StatusNew},
			}, nil
		},
	}
	svc := newTestOrderService(repo, knownSchedule(), knownService(), &recordingPublisher{})

	if _, err := svc.GetByID(context.Background(), &model.User{ID: "client-1", Role: model.RoleClient}, "o1"); err != nil {
		t.Errorf("participant must see the order, got %v", err)
	}

	_, err := svc.GetByID(context.Background(), &model.User{ID: "stranger", Role: model.RoleClient}, "o1")
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeForbidden {
		t.Errorf("expected forbidden for an outsider, got %v", err)
	}
}

func TestListForActorRoutesByRole(t *testing.T) {
	var masterCalled, clientCalled bool
	repo := &mockOrderRepository{
		listMasterFunc: func(ctx context.Context, masterID string) ([]model.OrderDetails, error) {
			masterCalled = true
			return nil, nil
		},
		listClientFunc: func(ctx context.Context, clientID string) ([]model.OrderDetails, error) {
			clientCalled = true
			return nil, nil
		},
	}
	svc := newTestOrderService(repo, knownSchedule(), knownService(), &recordingPublisher{})

	list, err := svc.ListForActor(context.Background(), &model.User{ID: "master-1", Role: model.RoleMaster})
	if err != nil || !masterCalled {
		t.Errorf("expected master listing, err=%v", err)
	}
	if list == nil {
		t.Error("an empty listing must not be nil")
	}

	if _, err := svc.ListForActor(context.Background(), &model.User{ID: "client-1", Role: model.RoleClient}); err != nil || !clientCalled {
		t.Errorf("expected client listing, err=%v", err)
	}
}

package service

import (
	"context"
	"testing"
	"time"

	availabilityerrors "masterbook/internal/availability/errors"
	"masterbook/internal/availability/validator"
	"masterbook/pkg/config"
	apperrors "masterbook/pkg/errors"
	"masterbook/pkg/logger"
	"masterbook/pkg/model"
)

type mockAvailabilityRepository struct {
	getFunc func(ctx context.Context, masterID string) (*model.Availability, error)
	putFunc func(ctx context.Context, av *model.Availability) error
}

func (m *mockAvailabilityRepository) Get(ctx context.Context, masterID string) (*model.Availability, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, masterID)
	}
	return nil, availabilityerrors.ErrNotFound
}

func (m *mockAvailabilityRepository) Put(ctx context.Context, av *model.Availability) error {
	if m.putFunc != nil {
		return m.putFunc(ctx, av)
	}
	return nil
}

type mockOrderReader struct {
	listFunc func(ctx context.Context, masterID string, from, to time.Time) ([]model.Order, error)
}

func (m *mockOrderReader) ListActiveByMasterBetween(ctx context.Context, masterID string, from, to time.Time) ([]model.Order, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, masterID, from, to)
	}
	return nil, nil
}

func newTestService(repo *mockAvailabilityRepository, orders *mockOrderReader) AvailabilityService {
	log := logger.New(logger.Config{
		Level:     "info",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
	cfg := &config.Config{Log: log}
	return NewAvailabilityService(repo, orders, validator.NewAvailabilityValidator(log), cfg)
}

func configuredAvailability(masterID string) *model.Availability {
	av := &model.Availability{
		MasterID:    masterID,
		SlotMinutes: 60,
		Exceptions:  map[string][]model.TimeRange{},
	}
	av.WeekTemplate[1] = []model.TimeRange{{Start: "09:00", End: "12:00"}}
	return av
}

func TestGetFallsBackToDefault(t *testing.T) {
	svc := newTestService(&mockAvailabilityRepository{}, &mockOrderReader{})

	av, err := svc.Get(context.Background(), "master-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if av.MasterID != "master-1" {
		t.Errorf("expected master id to be carried into default, got %q", av.MasterID)
	}
	if av.SlotMinutes != 30 {
		t.Errorf("expected default slot width 30, got %d", av.SlotMinutes)
	}
	if len(av.WeekTemplate[0]) != 0 {
		t.Error("default schedule should be closed on Sunday")
	}
	if len(av.WeekTemplate[1]) != 2 {
		t.Errorf("default Monday should have two ranges, got %d", len(av.WeekTemplate[1]))
	}
}

func TestGetReturnsStoredSchedule(t *testing.T) {
	stored := configuredAvailability("master-1")
	svc := newTestService(&mockAvailabilityRepository{
		getFunc: func(ctx context.Context, masterID string) (*model.Availability, error) {
			return stored, nil
		},
	}, &mockOrderReader{})

	av, err := svc.Get(context.Background(), "master-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if av.SlotMinutes != 60 {
		t.Errorf("expected stored slot width 60, got %d", av.SlotMinutes)
	}
}

func TestPutRequiresOwnership(t *testing.T) {
	var putCalled bool
	svc := newTestService(&mockAvailabilityRepository{
		putFunc: func(ctx context.Context, av *model.Availability) error {
			putCalled = true
			return nil
		},
	}, &mockOrderReader{})

	tests := []struct {
		name     string
		actor    *model.User
		wantCode string
	}{
		{
			name:     "nil actor",
			actor:    nil,
			wantCode: apperrors.CodeForbidden,
		},
		{
			name:     "client role",
			actor:    &model.User{ID: "master-1", Role: model.RoleClient},
			wantCode: apperrors.CodeForbidden,
		},
		{
			name:     "different master",
			actor:    &model.User{ID: "master-2", Role: model.RoleMaster},
			wantCode: apperrors.CodeForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			putCalled = false
			err := svc.Put(context.Background(), tt.actor, configuredAvailability("master-1"))
			appErr := apperrors.AsAppError(err)
			if appErr == nil || appErr.Code != tt.wantCode {
				t.Fatalf("expected %s, got %v", tt.wantCode, err)
			}
			if putCalled {
				t.Error("repository must not be written on a forbidden request")
			}
		})
	}
}

func TestPutValidatesBeforeStoring(t *testing.T) {
	var putCalled bool
	svc := newTestService(&mockAvailabilityRepository{
		putFunc: func(ctx context.Context, av *model.Availability) error {
			putCalled = true
			return nil
		},
	}, &mockOrderReader{})

	av := configuredAvailability("master-1")
	av.SlotMinutes = 5

	err := svc.Put(context.Background(), &model.User{ID: "master-1", Role: model.RoleMaster}, av)
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if putCalled {
		t.Error("repository must not be written when validation fails")
	}
}

func TestPutStoresValidSchedule(t *testing.T) {
	var stored *model.Availability
	svc := newTestService(&mockAvailabilityRepository{
		putFunc: func(ctx context.Context, av *model.Availability) error {
			stored = av
			return nil
		},
	}, &mockOrderReader{})

	av := configuredAvailability("master-1")
	err := svc.Put(context.Background(), &model.User{ID: "master-1", Role: model.RoleMaster}, av)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored == nil || stored.MasterID != "master-1" {
		t.Fatal("expected the schedule to reach the repository")
	}
}

func TestSlotsRejectsMalformedDate(t *testing.T) {
	svc := newTestService(&mockAvailabilityRepository{}, &mockOrderReader{})

	for _, date := range []string{"", "10/06/2024", "2024-6-1", "2024-02-30"} {
		if _, err := svc.Slots(context.Background(), "master-1", date); err == nil {
			t.Errorf("expected error for date %q", date)
		}
	}
}

func TestSlotsWithoutScheduleReturnsEmpty(t *testing.T) {
	svc := newTestService(&mockAvailabilityRepository{}, &mockOrderReader{})

	view, err := svc.Slots(context.Background(), "master-1", "2024-06-10")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.SlotMinutes != 30 {
		t.Errorf("expected default slot width 30, got %d", view.SlotMinutes)
	}
	if len(view.Slots) != 0 {
		t.Errorf("expected no slots, got %d", len(view.Slots))
	}
}

func TestSlotsMarksBusyAndFormatsInstants(t *testing.T) {
	stored := configuredAvailability("master-1")
	svc := newTestService(&mockAvailabilityRepository{
		getFunc: func(ctx context.Context, masterID string) (*model.Availability, error) {
			return stored, nil
		},
	}, &mockOrderReader{
		listFunc: func(ctx context.Context, masterID string, from, to time.Time) ([]model.Order, error) {
			return []model.Order{
				{
					MasterID:  masterID,
					DesiredAt: time.Date(2024, 6, 10, 10, 0, 0, 0, time.UTC),
					Status:    model.StatusAccepted,
				},
			}, nil
		},
	})

	// 2024-06-10 is a Monday: 09:00-12:00 in one-hour slots.
	view, err := svc.Slots(context.Background(), "master-1", "2024-06-10")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.SlotMinutes != 60 {
		t.Errorf("expected slot width 60, got %d", view.SlotMinutes)
	}
	if len(view.Slots) != 3 {
		t.Fatalf("expected 3 slots, got %d", len(view.Slots))
	}

	if view.Slots[0].Start != "2024-06-10T09:00:00.000Z" {
		t.Errorf("unexpected first slot start %q", view.Slots[0].Start)
	}
	if view.Slots[0].End != "2024-06-10T10:00:00.000Z" {
		t.Errorf("unexpected first slot end %q", view.Slots[0].End)
	}

	statuses := []string{string(view.Slots[0].Status), string(view.Slots[1].Status), string(view.Slots[2].Status)}
	if statuses[0] != "free" || statuses[1] != "busy" || statuses[2] != "free" {
		t.Errorf("unexpected occupancy %v", statuses)
	}
}

package schedule

import (
	"testing"
	"time"

	apperrors "masterbook/pkg/errors"
	"masterbook/pkg/model"
	"masterbook/pkg/timegrid"
)

// 2024-06-10 is a Monday.
const monday = "2024-06-10"

func mondayTemplate(ranges ...model.TimeRange) *model.Availability {
	av := &model.Availability{
		MasterID:    "m1",
		SlotMinutes: 30,
		Exceptions:  map[string][]model.TimeRange{},
	}
	av.WeekTemplate[1] = ranges
	return av
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := timegrid.ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q): %v", s, err)
	}
	return d
}

func TestRangesForDate_TemplateLookup(t *testing.T) {
	av := mondayTemplate(model.TimeRange{Start: "09:00", End: "13:00"})

	got := RangesForDate(av, mustDate(t, monday))
	if len(got) != 1 || got[0].Start != "09:00" {
		t.Fatalf("expected monday template ranges, got %v", got)
	}

	// Tuesday has no entry: empty, not an error.
	if got := RangesForDate(av, mustDate(t, "2024-06-11")); len(got) != 0 {
		t.Fatalf("expected no ranges for unset day, got %v", got)
	}
}

func TestRangesForDate_ExceptionOverridesVerbatim(t *testing.T) {
	av := mondayTemplate(model.TimeRange{Start: "09:00", End: "13:00"})
	av.Exceptions[monday] = []model.TimeRange{{Start: "15:00", End: "17:00"}}

	got := RangesForDate(av, mustDate(t, monday))
	if len(got) != 1 || got[0].Start != "15:00" {
		t.Fatalf("exception must override the template, got %v", got)
	}
}

func TestGenerateSlots_MondayMorning(t *testing.T) {
	av := mondayTemplate(model.TimeRange{Start: "09:00", End: "13:00"})

	slots, err := GenerateSlots(av, mustDate(t, monday))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slots) != 8 {
		t.Fatalf("expected 8 slots for 09:00-13:00 at 30min, got %d", len(slots))
	}

	first := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	last := time.Date(2024, 6, 10, 12, 30, 0, 0, time.UTC)
	if !slots[0].Start.Equal(first) {
		t.Errorf("first slot = %v, want %v", slots[0].Start, first)
	}
	if !slots[7].Start.Equal(last) {
		t.Errorf("last slot = %v, want %v", slots[7].Start, last)
	}
	end := time.Date(2024, 6, 10, 13, 0, 0, 0, time.UTC)
	if slots[7].End.After(end) {
		t.Errorf("last slot crosses 13:00: ends %v", slots[7].End)
	}
}

func TestGenerateSlots_SortedNonOverlappingFixedWidth(t *testing.T) {
	av := mondayTemplate(
		model.TimeRange{Start: "09:00", End: "13:00"},
		model.TimeRange{Start: "14:00", End: "18:00"},
	)

	slots, err := GenerateSlots(av, mustDate(t, monday))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	width := 30 * time.Minute
	for i, s := range slots {
		if s.End.Sub(s.Start) != width {
			t.Errorf("slot %d width = %v, want %v", i, s.End.Sub(s.Start), width)
		}
		if i > 0 {
			if !slots[i-1].Start.Before(s.Start) {
				t.Errorf("slots not strictly sorted at %d", i)
			}
			if slots[i-1].End.After(s.Start) {
				t.Errorf("slots %d and %d overlap", i-1, i)
			}
		}
	}
}

func TestGenerateSlots_PartialTrailingSlotDropped(t *testing.T) {
	// 09:00-09:50 fits exactly one 30-minute slot.
	av := mondayTemplate(model.TimeRange{Start: "09:00", End: "09:50"})

	slots, err := GenerateSlots(av, mustDate(t, monday))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slots) != 1 {
		t.Fatalf("expected 1 slot, got %d", len(slots))
	}
}

func TestGenerateSlots_EmptyExceptionClosesDay(t *testing.T) {
	av := mondayTemplate(model.TimeRange{Start: "09:00", End: "13:00"})
	av.Exceptions[monday] = []model.TimeRange{}

	slots, err := GenerateSlots(av, mustDate(t, monday))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slots) != 0 {
		t.Fatalf("closed day must yield zero slots, got %d", len(slots))
	}
}

func TestGenerateSlots_MidnightCrossingRange(t *testing.T) {
	// 23:00-01:00 crosses midnight; its tail lands on June 11.
	av := mondayTemplate(model.TimeRange{Start: "23:00", End: "01:00"})

	slots, err := GenerateSlots(av, mustDate(t, monday))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slots) != 4 {
		t.Fatalf("expected 4 slots for 23:00-01:00, got %d", len(slots))
	}
	lastStart := time.Date(2024, 6, 11, 0, 30, 0, 0, time.UTC)
	if !slots[3].Start.Equal(lastStart) {
		t.Fatalf("last slot = %v, want %v", slots[3].Start, lastStart)
	}
}

func TestGenerateSlots_MidnightCrossingKeepsOrder(t *testing.T) {
	// An overnight range listed before a later range on the same day
	// would emit out-of-order slots without the final sort.
	av := mondayTemplate(
		model.TimeRange{Start: "22:00", End: "23:30"},
		model.TimeRange{Start: "23:00", End: "00:30"},
	)

	slots, err := GenerateSlots(av, mustDate(t, monday))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 1; i < len(slots); i++ {
		if slots[i].Start.Before(slots[i-1].Start) {
			t.Fatalf("slots out of order at index %d", i)
		}
	}
}

func TestGenerateSlots_Idempotent(t *testing.T) {
	av := mondayTemplate(model.TimeRange{Start: "09:00", End: "13:00"})
	date := mustDate(t, monday)

	a, err := GenerateSlots(av, date)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := GenerateSlots(av, date)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(a) != len(b) {
		t.Fatalf("runs differ in length: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("slot %d differs between runs", i)
		}
	}
}

func TestMarkBusy_AcceptedOrderOccupiesItsSlot(t *testing.T) {
	av := mondayTemplate(model.TimeRange{Start: "09:00", End: "13:00"})
	date := mustDate(t, monday)
	slots, _ := GenerateSlots(av, date)

	at := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	slots = MarkBusy(slots, []model.Order{
		{MasterID: "m1", DesiredAt: at, Status: model.StatusAccepted},
	}, av.SlotMinutes)

	if slots[0].Status != SlotBusy {
		t.Errorf("09:00 slot should be busy")
	}
	if slots[1].Status != SlotFree {
		t.Errorf("09:30 slot should stay free")
	}
}

func TestMarkBusy_IgnoresInactiveStatuses(t *testing.T) {
	av := mondayTemplate(model.TimeRange{Start: "09:00", End: "13:00"})
	slots, _ := GenerateSlots(av, mustDate(t, monday))

	at := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	slots = MarkBusy(slots, []model.Order{
		{DesiredAt: at, Status: model.StatusRejected},
		{DesiredAt: at, Status: model.StatusCancelled},
	}, av.SlotMinutes)

	if slots[0].Status != SlotFree {
		t.Errorf("rejected/cancelled orders must not occupy slots")
	}
}

func TestCheckConflict_AdmitsFreeAlignedSlot(t *testing.T) {
	av := mondayTemplate(model.TimeRange{Start: "09:00", End: "13:00"})
	at := time.Date(2024, 6, 10, 9, 30, 0, 0, time.UTC)

	if err := CheckConflict(av, at, nil); err != nil {
		t.Fatalf("expected admission, got %v", err)
	}
}

func TestCheckConflict_RejectsOffGridInstant(t *testing.T) {
	av := mondayTemplate(model.TimeRange{Start: "09:00", End: "13:00"})
	// 09:15 fits inside the range but is off the 30-minute grid.
	at := time.Date(2024, 6, 10, 9, 15, 0, 0, time.UTC)

	err := CheckConflict(av, at, nil)
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeOutsideWorkingHours {
		t.Fatalf("expected OUTSIDE_WORKING_HOURS, got %v", err)
	}
}

func TestCheckConflict_RejectsClosedDay(t *testing.T) {
	av := mondayTemplate(model.TimeRange{Start: "09:00", End: "13:00"})
	av.Exceptions[monday] = []model.TimeRange{}
	at := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)

	err := CheckConflict(av, at, nil)
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeOutsideWorkingHours {
		t.Fatalf("expected OUTSIDE_WORKING_HOURS, got %v", err)
	}
}

func TestCheckConflict_DoneOrderStillBlocks(t *testing.T) {
	av := mondayTemplate(model.TimeRange{Start: "09:00", End: "13:00"})
	at := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)

	err := CheckConflict(av, at, []model.Order{
		{MasterID: "m1", DesiredAt: at, Status: model.StatusDone},
	})
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeSlotConflict {
		t.Fatalf("expected SLOT_CONFLICT for DONE order, got %v", err)
	}
}

func TestCheckConflict_OverlapNotJustEquality(t *testing.T) {
	av := mondayTemplate(model.TimeRange{Start: "09:00", End: "13:00"})
	// Existing order at 09:30; candidate 10:00 touches but does not overlap.
	existing := []model.Order{
		{DesiredAt: time.Date(2024, 6, 10, 9, 30, 0, 0, time.UTC), Status: model.StatusNew},
	}

	if err := CheckConflict(av, time.Date(2024, 6, 10, 10, 0, 0, 0, time.UTC), existing); err != nil {
		t.Fatalf("adjacent slot must be admissible, got %v", err)
	}
	err := CheckConflict(av, time.Date(2024, 6, 10, 9, 30, 0, 0, time.UTC), existing)
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeSlotConflict {
		t.Fatalf("same slot must conflict, got %v", err)
	}
}

func TestDefaultSchedule(t *testing.T) {
	av := Default("m1")

	if av.SlotMinutes != 30 {
		t.Errorf("default slot minutes = %d, want 30", av.SlotMinutes)
	}
	if len(av.WeekTemplate[0]) != 0 {
		t.Errorf("sunday must be closed")
	}
	if len(av.WeekTemplate[1]) != 2 || av.WeekTemplate[1][1].End != "18:00" {
		t.Errorf("monday template wrong: %v", av.WeekTemplate[1])
	}
	if len(av.WeekTemplate[5]) != 1 || av.WeekTemplate[5][0].Start != "10:00" {
		t.Errorf("friday template wrong: %v", av.WeekTemplate[5])
	}

	// Monday under the default schedule: 8 morning + 8 afternoon slots.
	slots, err := GenerateSlots(av, mustDate(t, monday))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slots) != 16 {
		t.Fatalf("expected 16 slots, got %d", len(slots))
	}
}

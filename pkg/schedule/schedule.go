// Package schedule turns a master's recurring weekly template plus
// per-date overrides into concrete bookable slots, and decides whether
// a requested booking instant can be admitted. Everything here is a
// pure function over availability and order snapshots; persistence
// and atomicity are the repositories' problem.
package schedule

import (
	"fmt"
	"sort"
	"time"

	apperrors "masterbook/pkg/errors"
	"masterbook/pkg/model"
	"masterbook/pkg/timegrid"
)

type SlotStatus string

const (
	SlotFree SlotStatus = "free"
	SlotBusy SlotStatus = "busy"
)

// Slot is an ephemeral derived value, never persisted.
type Slot struct {
	Start  time.Time  `json:"start"`
	End    time.Time  `json:"end"`
	Status SlotStatus `json:"status"`
}

// RangesForDate resolves the working intervals that apply to one
// calendar date. An exception entry overrides the template verbatim,
// including an explicitly empty list meaning "closed that day".
// The weekday is computed on the UTC calendar.
func RangesForDate(av *model.Availability, date time.Time) []model.TimeRange {
	if ranges, ok := av.Exceptions[timegrid.FormatDate(date)]; ok {
		return ranges
	}
	return av.WeekTemplate[timegrid.Weekday(date)]
}

// GenerateSlots expands the date's working ranges into fixed-size
// slots anchored at UTC midnight of date. A range whose end is before
// its start crosses midnight: its end is pushed a day forward and the
// trailing slots get instants on the next calendar date. A partial
// trailing slot that does not fully fit inside its range is dropped.
// The result is sorted ascending by start instant.
func GenerateSlots(av *model.Availability, date time.Time) ([]Slot, error) {
	var slots []Slot
	for _, r := range RangesForDate(av, date) {
		start, err := timegrid.ToMinutes(r.Start)
		if err != nil {
			return nil, fmt.Errorf("range start: %w", err)
		}
		end, err := timegrid.ToMinutes(r.End)
		if err != nil {
			return nil, fmt.Errorf("range end: %w", err)
		}
		if end < start {
			end += timegrid.MinutesPerDay
		}
		for cursor := start; cursor+av.SlotMinutes <= end; cursor += av.SlotMinutes {
			slots = append(slots, Slot{
				Start:  timegrid.Instant(date, cursor),
				End:    timegrid.Instant(date, cursor+av.SlotMinutes),
				Status: SlotFree,
			})
		}
	}
	// A midnight-crossing range can emit slots later than a following
	// same-day range, so the combined sequence needs a final sort.
	sort.Slice(slots, func(i, j int) bool { return slots[i].Start.Before(slots[j].Start) })
	return slots, nil
}

// MarkBusy flags every slot that overlaps an active order's window.
// Each order occupies [DesiredAt, DesiredAt+slotMinutes).
func MarkBusy(slots []Slot, orders []model.Order, slotMinutes int) []Slot {
	width := time.Duration(slotMinutes) * time.Minute
	for i := range slots {
		for _, o := range orders {
			if !o.Status.Active() {
				continue
			}
			if overlaps(slots[i].Start, slots[i].End, o.DesiredAt, o.DesiredAt.Add(width)) {
				slots[i].Status = SlotBusy
				break
			}
		}
	}
	return slots
}

// CheckConflict validates that a booking at desiredAt is admissible:
// the instant must align exactly with the start of a generated slot
// for its own UTC date, and the candidate window must not overlap any
// active order of the same master. Exact grid alignment is the
// contract; an instant that merely fits inside a working range but
// sits off the grid is rejected, so the server and the slot-picking
// UI can never disagree.
func CheckConflict(av *model.Availability, desiredAt time.Time, active []model.Order) error {
	date := desiredAt.UTC().Truncate(24 * time.Hour)
	slots, err := GenerateSlots(av, date)
	if err != nil {
		return apperrors.Internal("corrupt schedule ranges", err)
	}
	if len(slots) == 0 {
		return apperrors.OutsideWorkingHours("master does not work on this day")
	}

	aligned := false
	for _, s := range slots {
		if s.Start.Equal(desiredAt) {
			aligned = true
			break
		}
	}
	if !aligned {
		return apperrors.OutsideWorkingHours("requested time does not match any bookable slot")
	}

	width := time.Duration(av.SlotMinutes) * time.Minute
	candidateEnd := desiredAt.Add(width)
	for _, o := range active {
		if !o.Status.Active() {
			continue
		}
		if overlaps(desiredAt, candidateEnd, o.DesiredAt, o.DesiredAt.Add(width)) {
			return apperrors.SlotConflict("this slot is already taken")
		}
	}
	return nil
}

// overlaps reports whether the half-open windows [aStart,aEnd) and
// [bStart,bEnd) intersect.
func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// Default is the system-wide schedule used for masters who have not
// configured one: Mon-Thu 09:00-13:00 and 14:00-18:00, Fri
// 10:00-16:00, Sat 10:00-14:00, Sun closed, 30-minute slots.
func Default(masterID string) *model.Availability {
	weekday := []model.TimeRange{
		{Start: "09:00", End: "13:00"},
		{Start: "14:00", End: "18:00"},
	}
	av := &model.Availability{
		MasterID:    masterID,
		SlotMinutes: 30,
		Exceptions:  map[string][]model.TimeRange{},
	}
	av.WeekTemplate[0] = []model.TimeRange{}
	for d := 1; d <= 4; d++ {
		av.WeekTemplate[d] = append([]model.TimeRange(nil), weekday...)
	}
	av.WeekTemplate[5] = []model.TimeRange{{Start: "10:00", End: "16:00"}}
	av.WeekTemplate[6] = []model.TimeRange{{Start: "10:00", End: "14:00"}}
	return av
}

package model

// TimeRange is one working interval inside a day, both bounds as
// zero-padded "HH:MM" clock strings. End at or before Start means the
// range crosses midnight into the next day.
type TimeRange struct {
	Start string `json:"start" validate:"required,hhmm"`
	End   string `json:"end" validate:"required,hhmm"`
}

// DaysPerWeek fixes the week template size; index 0 is Sunday.
const DaysPerWeek = 7

// Availability is a master's recurring weekly schedule plus per-date
// overrides. The week template is a fixed-size array so a day with no
// entry is an explicit empty slice, never a missing key. Exception
// keys are "YYYY-MM-DD" dates; an entry with an empty range list marks
// the day as closed regardless of the template.
type Availability struct {
	MasterID     string                  `json:"master_id"`
	SlotMinutes  int                     `json:"slot_minutes" validate:"required,min=15,max=120"`
	WeekTemplate [DaysPerWeek][]TimeRange `json:"week_template"`
	Exceptions   map[string][]TimeRange  `json:"exceptions"`
}

// Clone returns a deep copy so callers can hand out snapshots without
// sharing slices with the store.
func (a *Availability) Clone() *Availability {
	cp := &Availability{
		MasterID:    a.MasterID,
		SlotMinutes: a.SlotMinutes,
		Exceptions:  make(map[string][]TimeRange, len(a.Exceptions)),
	}
	for d := range a.WeekTemplate {
		cp.WeekTemplate[d] = append([]TimeRange(nil), a.WeekTemplate[d]...)
	}
	for date, ranges := range a.Exceptions {
		cp.Exceptions[date] = append([]TimeRange(nil), ranges...)
	}
	return cp
}

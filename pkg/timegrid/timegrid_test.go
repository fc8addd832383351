package timegrid

import (
	"testing"
	"time"
)

func TestToMinutes(t *testing.T) {
	valid := map[string]int{
		"00:00": 0,
		"09:00": 540,
		"09:30": 570,
		"13:45": 825,
		"23:59": 1439,
	}
	for in, want := range valid {
		got, err := ToMinutes(in)
		if err != nil {
			t.Errorf("ToMinutes(%q): unexpected error %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ToMinutes(%q) = %d, want %d", in, got, want)
		}
	}

	invalid := []string{"", "9:00", "09:5", "24:00", "12:60", "ab:cd", "09-30", " 09:00", "09:00 "}
	for _, in := range invalid {
		if _, err := ToMinutes(in); err == nil {
			t.Errorf("ToMinutes(%q): expected error, got none", in)
		}
	}
}

func TestFromMinutes(t *testing.T) {
	cases := map[int]string{
		0:    "00:00",
		540:  "09:00",
		825:  "13:45",
		1439: "23:59",
		1440: "00:00",
		1470: "00:30",
	}
	for in, want := range cases {
		if got := FromMinutes(in); got != want {
			t.Errorf("FromMinutes(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestToFromRoundTrip(t *testing.T) {
	for m := 0; m < MinutesPerDay; m += 7 {
		back, err := ToMinutes(FromMinutes(m))
		if err != nil {
			t.Fatalf("round trip %d: %v", m, err)
		}
		if back != m {
			t.Fatalf("round trip %d came back as %d", m, back)
		}
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-06-10")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	if !d.Equal(want) {
		t.Fatalf("ParseDate = %v, want %v", d, want)
	}

	for _, in := range []string{"", "2024-6-10", "10-06-2024", "2024-13-40", "2024-06-10T00:00:00Z"} {
		if _, err := ParseDate(in); err == nil {
			t.Errorf("ParseDate(%q): expected error", in)
		}
	}
}

func TestWeekdayUTC(t *testing.T) {
	// 2024-06-10 is a Monday.
	d, _ := ParseDate("2024-06-10")
	if wd := Weekday(d); wd != 1 {
		t.Fatalf("Weekday(2024-06-10) = %d, want 1", wd)
	}
	// 2024-06-09 is a Sunday.
	d, _ = ParseDate("2024-06-09")
	if wd := Weekday(d); wd != 0 {
		t.Fatalf("Weekday(2024-06-09) = %d, want 0", wd)
	}
}

func TestInstantCarriesPastMidnight(t *testing.T) {
	d, _ := ParseDate("2024-06-10")

	got := Instant(d, 570)
	want := time.Date(2024, 6, 10, 9, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("Instant(570) = %v, want %v", got, want)
	}

	got = Instant(d, MinutesPerDay+30)
	want = time.Date(2024, 6, 11, 0, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("Instant(1470) = %v, want %v", got, want)
	}
}

func TestMinuteOfDay(t *testing.T) {
	at := time.Date(2024, 6, 10, 9, 30, 0, 0, time.UTC)
	if m := MinuteOfDay(at); m != 570 {
		t.Fatalf("MinuteOfDay = %d, want 570", m)
	}
}

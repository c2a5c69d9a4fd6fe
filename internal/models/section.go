package models

import (
	"fmt"
	"strings"
	"time"
)

// Modality is the delivery mode of a section.
type Modality string

const (
	ModalityLecture Modality = "LEC"
	ModalityHybrid  Modality = "HYB"
	ModalityOnline  Modality = "ONLIN"
	ModalityOther   Modality = "OTHER"
)

// ParseModality normalises a raw catalog modality code.
func ParseModality(raw string) Modality {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "LEC", "LECTURE":
		return ModalityLecture
	case "HYB", "HYBRID":
		return ModalityHybrid
	case "ONLIN", "ONLINE":
		return ModalityOnline
	default:
		return ModalityOther
	}
}

// Weekday is a meeting-day token as stored in the catalog.
type Weekday string

const (
	Mon Weekday = "Mon"
	Tue Weekday = "Tue"
	Wed Weekday = "Wed"
	Thu Weekday = "Thu"
	Fri Weekday = "Fri"
	Sat Weekday = "Sat"
)

// AllWeekdays lists the schedulable days in calendar order.
var AllWeekdays = []Weekday{Mon, Tue, Wed, Thu, Fri, Sat}

var weekdayAliases = map[string]Weekday{
	"MON": Mon, "M": Mon,
	"TUE": Tue, "T": Tue,
	"WED": Wed, "W": Wed,
	"THU": Thu, "TH": Thu,
	"FRI": Fri, "F": Fri,
	"SAT": Sat, "S": Sat,
}

// ParseWeekday resolves a day token or abbreviation to its canonical form.
func ParseWeekday(raw string) (Weekday, bool) {
	day, ok := weekdayAliases[strings.ToUpper(strings.TrimSpace(raw))]
	return day, ok
}

// ParseMeetingDays splits a catalog meeting-days value ("Mon, Wed") into
// canonical weekdays, dropping tokens it cannot resolve.
func ParseMeetingDays(raw string) []Weekday {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var days []Weekday
	for _, token := range strings.Split(raw, ",") {
		if day, ok := ParseWeekday(token); ok {
			days = append(days, day)
		}
	}
	return days
}

// Ordinal returns the position of the weekday within the schedulable week,
// used for presentation ordering only.
func (d Weekday) Ordinal() int {
	for i, day := range AllWeekdays {
		if day == d {
			return i
		}
	}
	return len(AllWeekdays)
}

// ClockTime is a time of day in minutes since midnight. Conflict checks
// operate at hour:minute granularity, so this is the whole representation.
type ClockTime int

// Clock builds a ClockTime from an hour/minute pair.
func Clock(hour, minute int) ClockTime {
	return ClockTime(hour*60 + minute)
}

// ParseClock accepts both 24-hour ("15:04") and catalog 12-hour
// ("03:04 PM") time-of-day strings.
func ParseClock(raw string) (ClockTime, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("empty clock value")
	}
	for _, layout := range []string{"15:04", "03:04 PM", "3:04 PM", "03:04PM", "3:04PM"} {
		if t, err := time.Parse(layout, strings.ToUpper(raw)); err == nil {
			return Clock(t.Hour(), t.Minute()), nil
		}
	}
	return 0, fmt.Errorf("unrecognised clock value %q", raw)
}

// String renders the clock in 24-hour form.
func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// Section is one offering of a course as loaded from the catalog. Values are
// immutable for the duration of a planning run.
type Section struct {
	SectionID      string
	CourseID       string
	ShortTitle     string
	MeetingDays    []Weekday
	StartTime      *ClockTime
	EndTime        *ClockTime
	EffectiveStart time.Time
	EffectiveEnd   time.Time
	Modality       Modality
	Credits        float64
	CorequisiteIDs []string
	AvailSeats     int
}

// HasMeetingTime reports whether the section meets at a fixed time of day.
// Fully online and async sections do not.
func (s Section) HasMeetingTime() bool {
	return s.StartTime != nil && s.EndTime != nil
}

// MeetsOn reports whether the section meets on the given weekday.
func (s Section) MeetsOn(day Weekday) bool {
	for _, d := range s.MeetingDays {
		if d == day {
			return true
		}
	}
	return false
}

// CourseIDFromSectionID derives the course identifier (ENG-103) from a
// section identifier (ENG-103-101). The course id is always the first two
// dash-separated components.
func CourseIDFromSectionID(sectionID string) string {
	parts := strings.Split(sectionID, "-")
	if len(parts) < 2 {
		return sectionID
	}
	return parts[0] + "-" + parts[1]
}

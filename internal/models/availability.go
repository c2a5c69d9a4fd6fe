package models

// UnavailabilityBlock is a half-open weekday time window [Start, End) during
// which the student cannot attend class.
type UnavailabilityBlock struct {
	Day   Weekday
	Start ClockTime
	End   ClockTime
}

const (
	dayStart ClockTime = 0
	dayEnd   ClockTime = 24 * 60
)

// DayWindow is a student's declared available interval on one weekday.
type DayWindow struct {
	Start ClockTime
	End   ClockTime
}

// WeeklyAvailability is the student's stated availability: an available
// window per day, plus days marked fully unavailable.
type WeeklyAvailability struct {
	Windows         map[Weekday]DayWindow
	UnavailableDays []Weekday
}

// Blocks derives the unavailability blocks for the run: per available day the
// complement of the declared window, and the whole day for days marked
// unavailable. Days absent from both sets yield no blocks.
func (a WeeklyAvailability) Blocks() []UnavailabilityBlock {
	var blocks []UnavailabilityBlock
	for _, day := range AllWeekdays {
		window, ok := a.Windows[day]
		if !ok {
			continue
		}
		if window.Start > dayStart {
			blocks = append(blocks, UnavailabilityBlock{Day: day, Start: dayStart, End: window.Start})
		}
		if window.End < dayEnd {
			blocks = append(blocks, UnavailabilityBlock{Day: day, Start: window.End, End: dayEnd})
		}
	}
	for _, day := range a.UnavailableDays {
		blocks = append(blocks, UnavailabilityBlock{Day: day, Start: dayStart, End: dayEnd})
	}
	return blocks
}

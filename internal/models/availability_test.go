package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBlocksComplementOfWindow(t *testing.T) {
	avail := WeeklyAvailability{
		Windows: map[Weekday]DayWindow{
			Mon: {Start: Clock(9, 0), End: Clock(17, 0)},
		},
	}

	blocks := avail.Blocks()
	assert.Equal(t, []UnavailabilityBlock{
		{Day: Mon, Start: Clock(0, 0), End: Clock(9, 0)},
		{Day: Mon, Start: Clock(17, 0), End: Clock(24, 0)},
	}, blocks)
}

func TestBlocksFullDayWindowYieldsNothing(t *testing.T) {
	avail := WeeklyAvailability{
		Windows: map[Weekday]DayWindow{
			Tue: {Start: Clock(0, 0), End: Clock(24, 0)},
		},
	}
	assert.Empty(t, avail.Blocks())
}

func TestBlocksUnavailableDayCoversWholeDay(t *testing.T) {
	avail := WeeklyAvailability{UnavailableDays: []Weekday{Fri}}
	blocks := avail.Blocks()
	assert.Equal(t, []UnavailabilityBlock{
		{Day: Fri, Start: Clock(0, 0), End: Clock(24, 0)},
	}, blocks)
}

func TestBlocksUnmentionedDaysAreFree(t *testing.T) {
	avail := WeeklyAvailability{
		Windows: map[Weekday]DayWindow{
			Mon: {Start: Clock(8, 0), End: Clock(12, 0)},
		},
	}
	for _, block := range avail.Blocks() {
		assert.Equal(t, Mon, block.Day)
	}
}

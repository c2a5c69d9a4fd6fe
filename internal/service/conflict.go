package service

import (
	"github.com/mhutchins/course-planner-api/internal/models"
)

// Conflict detection for the planner. Both the corequisite resolver and the
// combination enumerator go through these three primitives; there is exactly
// one definition of "conflicts" in the codebase.

// intervalsOverlap implements half-open interval overlap: touching endpoints
// do not conflict.
func intervalsOverlap(aStart, aEnd, bStart, bEnd models.ClockTime) bool {
	return aStart < bEnd && aEnd > bStart
}

// SectionsConflict reports whether two sections collide in time. A section
// without a fixed meeting time cannot conflict. Sections whose effective date
// ranges do not overlap (a short summer term vs. a late-start term) cannot
// conflict either, regardless of their weekly pattern.
func SectionsConflict(a, b models.Section) bool {
	if !a.HasMeetingTime() || !b.HasMeetingTime() {
		return false
	}
	if a.EffectiveStart.After(b.EffectiveEnd) || a.EffectiveEnd.Before(b.EffectiveStart) {
		return false
	}
	for _, day := range a.MeetingDays {
		if !b.MeetsOn(day) {
			continue
		}
		if intervalsOverlap(*a.StartTime, *a.EndTime, *b.StartTime, *b.EndTime) {
			return true
		}
	}
	return false
}

// SectionConflictsWithBlock reports whether a section's weekly meeting
// pattern falls inside a student unavailability window.
func SectionConflictsWithBlock(s models.Section, block models.UnavailabilityBlock) bool {
	if !s.HasMeetingTime() || !s.MeetsOn(block.Day) {
		return false
	}
	return intervalsOverlap(*s.StartTime, *s.EndTime, block.Start, block.End)
}

// SectionConflictsWithAnyBlock checks a section against the full set of
// unavailability blocks for the run.
func SectionConflictsWithAnyBlock(s models.Section, blocks []models.UnavailabilityBlock) bool {
	for _, block := range blocks {
		if SectionConflictsWithBlock(s, block) {
			return true
		}
	}
	return false
}

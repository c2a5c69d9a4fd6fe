package dto

import (
	"github.com/mhutchins/course-planner-api/internal/models"
)

// TimeWindow is a client-supplied time-of-day interval. Times accept both
// 24-hour ("15:00") and 12-hour ("03:00 PM") forms.
type TimeWindow struct {
	Start string `json:"start" validate:"required"`
	End   string `json:"end" validate:"required"`
}

// PlanRequest asks the planner for ranked schedule combinations. Clients
// state availability either as per-day available windows (the planner derives
// the unavailability blocks) or as pre-derived blocks; blocks win when both
// are present.
type PlanRequest struct {
	Courses              []string                `json:"courses" validate:"required,min=1,dive,required"`
	ModalityPreferences  map[string]string       `json:"modalityPreferences" validate:"omitempty"`
	Availability         map[string]TimeWindow   `json:"availability"`
	UnavailableDays      []string                `json:"unavailableDays"`
	UnavailabilityBlocks map[string][]TimeWindow `json:"unavailabilityBlocks"`
	TopN                 int                     `json:"topN" validate:"omitempty,min=1"`
}

// SectionView is the presentation shape of a scheduled section.
type SectionView struct {
	SectionID   string   `json:"sectionId"`
	CourseID    string   `json:"courseId"`
	MeetingDays []string `json:"meetingDays"`
	StartTime   *string  `json:"startTime,omitempty"`
	EndTime     *string  `json:"endTime,omitempty"`
	Modality    string   `json:"modality"`
	Corequisite bool     `json:"corequisite"`
}

// PlanOption is one ranked, conflict-free combination.
type PlanOption struct {
	Rank          int           `json:"rank"`
	CombinedScore float64       `json:"combinedScore"`
	ModalityScore int           `json:"modalityScore"`
	DaysScore     int           `json:"daysScore"`
	GapScore      int           `json:"gapScore"`
	Sections      []SectionView `json:"sections"`
}

// PlanResponse carries the ranked options plus everything the caller needs
// to explain the outcome: per-course summaries, unschedulable courses and
// whether the search was cut short.
type PlanResponse struct {
	PlanID        string                       `json:"planId"`
	Courses       []models.CourseSummary       `json:"courses"`
	TotalCredits  float64                      `json:"totalCredits"`
	Unschedulable []models.UnschedulableCourse `json:"unschedulable,omitempty"`
	Options       []PlanOption                 `json:"options"`
	TotalOptions  int                          `json:"totalOptions"`
	Truncated     bool                         `json:"truncated"`
}

// ExportPlanRequest renders a plan as a downloadable document.
type ExportPlanRequest struct {
	Plan   PlanRequest `json:"plan" validate:"required"`
	Format string      `json:"format" validate:"required,oneof=csv pdf"`
}

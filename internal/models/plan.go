package models

// UnschedulableReason tags why a requested course produced no candidates.
type UnschedulableReason string

const (
	ReasonNoSections           UnschedulableReason = "NoSections"
	ReasonAllCoreqsUnavailable UnschedulableReason = "AllCoreqsUnavailable"
)

// UnschedulableCourse reports a requested course that cannot appear in any
// combination, with the number of pending (not yet open) sections the catalog
// still lists for it.
type UnschedulableCourse struct {
	CourseID        string              `json:"courseId"`
	Reason          UnschedulableReason `json:"reason"`
	PendingSections int                 `json:"pendingSections"`
}

// SectionGroup is one requested course's chosen section together with its
// fully resolved corequisite sections. Groups are only constructed when the
// members are mutually conflict-free.
type SectionGroup struct {
	Primary      Section
	Corequisites []Section
}

// Sections returns the group members, primary first.
func (g SectionGroup) Sections() []Section {
	out := make([]Section, 0, 1+len(g.Corequisites))
	out = append(out, g.Primary)
	out = append(out, g.Corequisites...)
	return out
}

// Combination is a conflict-free assignment of exactly one section group per
// requested course.
type Combination struct {
	Groups []SectionGroup
}

// Flatten returns every section in the combination, in group order.
func (c Combination) Flatten() []Section {
	var out []Section
	for _, g := range c.Groups {
		out = append(out, g.Sections()...)
	}
	return out
}

// ScoredCombination attaches the composite desirability score to a
// combination. Lower combined scores are better.
type ScoredCombination struct {
	Combination   Combination
	ModalityScore int
	DaysScore     int
	GapScore      int
	CombinedScore float64
}

// CourseSummary describes one requested course in the plan response.
type CourseSummary struct {
	CourseID           string   `json:"courseId"`
	ShortTitle         string   `json:"shortTitle"`
	Credits            float64  `json:"credits"`
	HasCorequisites    bool     `json:"hasCorequisites"`
	ModalityPreference Modality `json:"modalityPreference,omitempty"`
	SectionsInWindow   int      `json:"sectionsInWindow"`
	SectionsOutWindow  int      `json:"sectionsOutsideWindow"`
}

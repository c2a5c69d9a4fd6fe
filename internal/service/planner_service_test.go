package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mhutchins/course-planner-api/internal/dto"
	"github.com/mhutchins/course-planner-api/internal/models"
)

type plannerCatalogStub struct {
	byCourse map[string][]models.Section
	pending  map[string]int
}

func newPlannerCatalogStub() *plannerCatalogStub {
	return &plannerCatalogStub{
		byCourse: map[string][]models.Section{},
		pending:  map[string]int{},
	}
}

func (s *plannerCatalogStub) add(courseID string, sections ...models.Section) {
	s.byCourse[courseID] = append(s.byCourse[courseID], sections...)
}

func (s *plannerCatalogStub) SectionsForCourse(ctx context.Context, courseID string) ([]models.Section, error) {
	return s.byCourse[courseID], nil
}

func (s *plannerCatalogStub) PendingCount(ctx context.Context, courseID string) (int, error) {
	return s.pending[courseID], nil
}

func (s *plannerCatalogStub) SectionByID(ctx context.Context, sectionID string) (*models.Section, error) {
	for _, sections := range s.byCourse {
		for _, section := range sections {
			if section.SectionID == sectionID {
				return &section, nil
			}
		}
	}
	return nil, sql.ErrNoRows
}

func newTestPlanner(t *testing.T, catalog *plannerCatalogStub, limits PlannerLimits) *PlannerService {
	t.Helper()
	resolver := NewCoreqResolver(catalog, nil)
	return NewPlannerService(catalog, resolver, newTestScorer(t), limits, nil, nil, nil)
}

func TestPlanEnumeratesAllLegalCombinations(t *testing.T) {
	catalog := newPlannerCatalogStub()
	catalog.add("MAT-120",
		timedSection("MAT-120-101", []models.Weekday{models.Mon, models.Wed}, models.Clock(9, 0), models.Clock(10, 15)),
		timedSection("MAT-120-102", []models.Weekday{models.Mon, models.Wed}, models.Clock(11, 0), models.Clock(12, 15)),
	)
	catalog.add("ENG-103",
		timedSection("ENG-103-201", []models.Weekday{models.Tue, models.Thu}, models.Clock(9, 0), models.Clock(10, 15)),
	)

	planner := newTestPlanner(t, catalog, PlannerLimits{})
	resp, err := planner.Plan(context.Background(), dto.PlanRequest{Courses: []string{"MAT-120", "ENG-103"}})
	require.NoError(t, err)

	assert.Equal(t, 2, resp.TotalOptions)
	require.Len(t, resp.Options, 2)
	assert.Empty(t, resp.Unschedulable)
	assert.False(t, resp.Truncated)
	assert.NotEmpty(t, resp.PlanID)

	for i, option := range resp.Options {
		assert.Equal(t, i+1, option.Rank)
		assert.Len(t, option.Sections, 2)
	}
}

func TestPlanPrunesConflictingCombinations(t *testing.T) {
	catalog := newPlannerCatalogStub()
	catalog.add("MAT-120",
		timedSection("MAT-120-101", []models.Weekday{models.Mon}, models.Clock(9, 0), models.Clock(10, 15)),
		timedSection("MAT-120-102", []models.Weekday{models.Tue}, models.Clock(9, 0), models.Clock(10, 15)),
	)
	catalog.add("ENG-103",
		timedSection("ENG-103-201", []models.Weekday{models.Mon}, models.Clock(9, 30), models.Clock(10, 45)),
	)

	planner := newTestPlanner(t, catalog, PlannerLimits{})
	resp, err := planner.Plan(context.Background(), dto.PlanRequest{Courses: []string{"MAT-120", "ENG-103"}})
	require.NoError(t, err)

	// Only the Tuesday math section coexists with the Monday English section.
	require.Equal(t, 1, resp.TotalOptions)
	sectionIDs := make([]string, 0, 2)
	for _, s := range resp.Options[0].Sections {
		sectionIDs = append(sectionIDs, s.SectionID)
	}
	assert.Contains(t, sectionIDs, "MAT-120-102")
	assert.Contains(t, sectionIDs, "ENG-103-201")
}

func TestPlanReportsCourseWithoutSections(t *testing.T) {
	catalog := newPlannerCatalogStub()
	catalog.add("ENG-103",
		timedSection("ENG-103-201", []models.Weekday{models.Tue}, models.Clock(9, 0), models.Clock(10, 15)),
	)
	catalog.pending["HIS-210"] = 2

	planner := newTestPlanner(t, catalog, PlannerLimits{})
	resp, err := planner.Plan(context.Background(), dto.PlanRequest{Courses: []string{"ENG-103", "HIS-210"}})
	require.NoError(t, err)

	require.Len(t, resp.Unschedulable, 1)
	assert.Equal(t, "HIS-210", resp.Unschedulable[0].CourseID)
	assert.Equal(t, models.ReasonNoSections, resp.Unschedulable[0].Reason)
	assert.Equal(t, 2, resp.Unschedulable[0].PendingSections)

	// The remaining course is still planned.
	assert.Equal(t, 1, resp.TotalOptions)
}

func TestPlanReportsAllCoreqsUnavailable(t *testing.T) {
	lecture := timedSection("BIO-101-101", []models.Weekday{models.Mon}, models.Clock(9, 0), models.Clock(10, 15))
	lecture.CorequisiteIDs = []string{"BIO-101L-901"} // seats exhausted, not in catalog

	catalog := newPlannerCatalogStub()
	catalog.add("BIO-101", lecture)

	planner := newTestPlanner(t, catalog, PlannerLimits{})
	resp, err := planner.Plan(context.Background(), dto.PlanRequest{Courses: []string{"BIO-101"}})
	require.NoError(t, err)

	require.Len(t, resp.Unschedulable, 1)
	assert.Equal(t, models.ReasonAllCoreqsUnavailable, resp.Unschedulable[0].Reason)
	assert.Zero(t, resp.TotalOptions)
}

func TestPlanIncludesCorequisitesInOptions(t *testing.T) {
	lab := timedSection("BIO-101L-101", []models.Weekday{models.Thu}, models.Clock(14, 0), models.Clock(16, 45))
	lecture := timedSection("BIO-101-101", []models.Weekday{models.Mon, models.Wed}, models.Clock(9, 0), models.Clock(10, 15))
	lecture.CorequisiteIDs = []string{"BIO-101L-101"}

	catalog := newPlannerCatalogStub()
	catalog.add("BIO-101", lecture)
	catalog.add("BIO-101L", lab)

	planner := newTestPlanner(t, catalog, PlannerLimits{})
	resp, err := planner.Plan(context.Background(), dto.PlanRequest{Courses: []string{"BIO-101"}})
	require.NoError(t, err)

	require.Equal(t, 1, resp.TotalOptions)
	require.Len(t, resp.Options[0].Sections, 2)

	byID := map[string]dto.SectionView{}
	for _, s := range resp.Options[0].Sections {
		byID[s.SectionID] = s
	}
	assert.False(t, byID["BIO-101-101"].Corequisite)
	assert.True(t, byID["BIO-101L-101"].Corequisite)
}

func TestPlanRejectsSharedCorequisiteDoubleBooking(t *testing.T) {
	shared := timedSection("LAB-100-101", []models.Weekday{models.Fri}, models.Clock(8, 0), models.Clock(9, 0))

	chemA := timedSection("CHM-101-101", []models.Weekday{models.Mon}, models.Clock(9, 0), models.Clock(10, 15))
	chemA.CorequisiteIDs = []string{"LAB-100-101"}
	chemB := timedSection("PHY-102-101", []models.Weekday{models.Tue}, models.Clock(9, 0), models.Clock(10, 15))
	chemB.CorequisiteIDs = []string{"LAB-100-101"}

	catalog := newPlannerCatalogStub()
	catalog.add("CHM-101", chemA)
	catalog.add("PHY-102", chemB)
	catalog.add("LAB-100", shared)

	planner := newTestPlanner(t, catalog, PlannerLimits{})
	resp, err := planner.Plan(context.Background(), dto.PlanRequest{Courses: []string{"CHM-101", "PHY-102"}})
	require.NoError(t, err)

	// Both courses demand the same physical lab section; no legal combination.
	assert.Zero(t, resp.TotalOptions)
	assert.Empty(t, resp.Unschedulable)
}

func TestPlanHonoursAvailabilityWindows(t *testing.T) {
	catalog := newPlannerCatalogStub()
	catalog.add("ENG-103",
		timedSection("ENG-103-101", []models.Weekday{models.Mon}, models.Clock(8, 0), models.Clock(9, 15)),
		timedSection("ENG-103-102", []models.Weekday{models.Mon}, models.Clock(10, 0), models.Clock(11, 15)),
	)

	planner := newTestPlanner(t, catalog, PlannerLimits{})
	resp, err := planner.Plan(context.Background(), dto.PlanRequest{
		Courses: []string{"ENG-103"},
		Availability: map[string]dto.TimeWindow{
			"Mon": {Start: "09:30", End: "17:00"},
		},
	})
	require.NoError(t, err)

	require.Equal(t, 1, resp.TotalOptions)
	assert.Equal(t, "ENG-103-102", resp.Options[0].Sections[0].SectionID)

	require.Len(t, resp.Courses, 1)
	assert.Equal(t, 1, resp.Courses[0].SectionsInWindow)
	assert.Equal(t, 1, resp.Courses[0].SectionsOutWindow)
}

func TestPlanOnlineSectionIgnoresFullUnavailability(t *testing.T) {
	catalog := newPlannerCatalogStub()
	catalog.add("CSC-110", onlineSection("CSC-110-W01"))

	planner := newTestPlanner(t, catalog, PlannerLimits{})
	resp, err := planner.Plan(context.Background(), dto.PlanRequest{
		Courses:         []string{"CSC-110"},
		UnavailableDays: []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, resp.TotalOptions)
}

func TestPlanRejectsTooManyCourses(t *testing.T) {
	planner := newTestPlanner(t, newPlannerCatalogStub(), PlannerLimits{MaxRequestedCourses: 2})

	_, err := planner.Plan(context.Background(), dto.PlanRequest{
		Courses: []string{"A-1", "B-2", "C-3"},
	})
	assert.Error(t, err)
}

func TestPlanRejectsUnknownWeekday(t *testing.T) {
	catalog := newPlannerCatalogStub()
	catalog.add("ENG-103",
		timedSection("ENG-103-101", []models.Weekday{models.Mon}, models.Clock(9, 0), models.Clock(10, 15)),
	)
	planner := newTestPlanner(t, catalog, PlannerLimits{})

	_, err := planner.Plan(context.Background(), dto.PlanRequest{
		Courses:      []string{"ENG-103"},
		Availability: map[string]dto.TimeWindow{"Funday": {Start: "09:00", End: "17:00"}},
	})
	assert.Error(t, err)
}

func TestPlanDeduplicatesRequestedCourses(t *testing.T) {
	catalog := newPlannerCatalogStub()
	catalog.add("ENG-103",
		timedSection("ENG-103-101", []models.Weekday{models.Mon}, models.Clock(9, 0), models.Clock(10, 15)),
	)

	planner := newTestPlanner(t, catalog, PlannerLimits{})
	resp, err := planner.Plan(context.Background(), dto.PlanRequest{
		Courses: []string{"eng-103", "ENG-103"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, resp.TotalOptions)
	require.Len(t, resp.Options[0].Sections, 1)
	assert.Len(t, resp.Courses, 1)
}

func TestPlanTruncatesAtCombinationBudget(t *testing.T) {
	catalog := newPlannerCatalogStub()
	catalog.add("ENG-103",
		timedSection("ENG-103-101", []models.Weekday{models.Mon}, models.Clock(9, 0), models.Clock(10, 15)),
		timedSection("ENG-103-102", []models.Weekday{models.Tue}, models.Clock(9, 0), models.Clock(10, 15)),
		timedSection("ENG-103-103", []models.Weekday{models.Wed}, models.Clock(9, 0), models.Clock(10, 15)),
	)

	planner := newTestPlanner(t, catalog, PlannerLimits{MaxCombinations: 2})
	resp, err := planner.Plan(context.Background(), dto.PlanRequest{Courses: []string{"ENG-103"}})
	require.NoError(t, err)

	assert.True(t, resp.Truncated)
	assert.Equal(t, 2, resp.TotalOptions)
}

func TestPlanRanksByAscendingCombinedScore(t *testing.T) {
	catalog := newPlannerCatalogStub()
	// Gapless Tuesday pair vs. a two-hour gap.
	catalog.add("MAT-120",
		timedSection("MAT-120-101", []models.Weekday{models.Tue}, models.Clock(12, 0), models.Clock(13, 0)),
		timedSection("MAT-120-102", []models.Weekday{models.Tue}, models.Clock(10, 0), models.Clock(11, 0)),
	)
	catalog.add("ENG-103",
		timedSection("ENG-103-201", []models.Weekday{models.Tue}, models.Clock(9, 0), models.Clock(10, 0)),
	)

	planner := newTestPlanner(t, catalog, PlannerLimits{})
	resp, err := planner.Plan(context.Background(), dto.PlanRequest{Courses: []string{"MAT-120", "ENG-103"}})
	require.NoError(t, err)

	require.Equal(t, 2, resp.TotalOptions)
	assert.LessOrEqual(t, resp.Options[0].CombinedScore, resp.Options[1].CombinedScore)

	first := make([]string, 0, 2)
	for _, s := range resp.Options[0].Sections {
		first = append(first, s.SectionID)
	}
	assert.Contains(t, first, "MAT-120-102")
}

func TestPlanRespectsTopN(t *testing.T) {
	catalog := newPlannerCatalogStub()
	catalog.add("ENG-103",
		timedSection("ENG-103-101", []models.Weekday{models.Mon}, models.Clock(9, 0), models.Clock(10, 15)),
		timedSection("ENG-103-102", []models.Weekday{models.Tue}, models.Clock(9, 0), models.Clock(10, 15)),
		timedSection("ENG-103-103", []models.Weekday{models.Wed}, models.Clock(9, 0), models.Clock(10, 15)),
	)

	planner := newTestPlanner(t, catalog, PlannerLimits{})
	resp, err := planner.Plan(context.Background(), dto.PlanRequest{
		Courses: []string{"ENG-103"},
		TopN:    1,
	})
	require.NoError(t, err)

	assert.Equal(t, 3, resp.TotalOptions)
	assert.Len(t, resp.Options, 1)
}

func TestPlanTotalCredits(t *testing.T) {
	math := timedSection("MAT-120-101", []models.Weekday{models.Mon}, models.Clock(9, 0), models.Clock(10, 15))
	math.Credits = 4
	eng := timedSection("ENG-103-201", []models.Weekday{models.Tue}, models.Clock(9, 0), models.Clock(10, 15))
	eng.Credits = 3

	catalog := newPlannerCatalogStub()
	catalog.add("MAT-120", math)
	catalog.add("ENG-103", eng)

	planner := newTestPlanner(t, catalog, PlannerLimits{})
	resp, err := planner.Plan(context.Background(), dto.PlanRequest{Courses: []string{"MAT-120", "ENG-103"}})
	require.NoError(t, err)

	assert.InDelta(t, 7.0, resp.TotalCredits, 1e-9)
}

func TestPlanRejectsEmptyRequest(t *testing.T) {
	planner := newTestPlanner(t, newPlannerCatalogStub(), PlannerLimits{})
	_, err := planner.Plan(context.Background(), dto.PlanRequest{})
	assert.Error(t, err)
}

func TestPlanDeterministicAcrossRuns(t *testing.T) {
	catalog := newPlannerCatalogStub()
	catalog.add("MAT-120",
		timedSection("MAT-120-101", []models.Weekday{models.Mon, models.Wed}, models.Clock(9, 0), models.Clock(10, 15)),
		timedSection("MAT-120-102", []models.Weekday{models.Mon, models.Wed}, models.Clock(11, 0), models.Clock(12, 15)),
	)
	catalog.add("ENG-103",
		timedSection("ENG-103-201", []models.Weekday{models.Tue, models.Thu}, models.Clock(9, 0), models.Clock(10, 15)),
		timedSection("ENG-103-202", []models.Weekday{models.Tue, models.Thu}, models.Clock(13, 0), models.Clock(14, 15)),
	)

	planner := newTestPlanner(t, catalog, PlannerLimits{})
	req := dto.PlanRequest{Courses: []string{"MAT-120", "ENG-103"}}

	first, err := planner.Plan(context.Background(), req)
	require.NoError(t, err)
	second, err := planner.Plan(context.Background(), req)
	require.NoError(t, err)

	require.Equal(t, first.TotalOptions, second.TotalOptions)
	for i := range first.Options {
		assert.Equal(t, first.Options[i].Sections, second.Options[i].Sections)
		assert.Equal(t, first.Options[i].CombinedScore, second.Options[i].CombinedScore)
	}
}

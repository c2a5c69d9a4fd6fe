package service

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mhutchins/course-planner-api/internal/dto"
	"github.com/mhutchins/course-planner-api/internal/models"
	appErrors "github.com/mhutchins/course-planner-api/pkg/errors"
)

type planCatalog interface {
	SectionsForCourse(ctx context.Context, courseID string) ([]models.Section, error)
	PendingCount(ctx context.Context, courseID string) (int, error)
}

type groupResolver interface {
	GroupsForCourse(ctx context.Context, courseID string, sections []models.Section) ([]models.SectionGroup, error)
}

type combinationScorer interface {
	Score(combo models.Combination, prefs map[string]models.Modality) models.ScoredCombination
}

type plannerObserver interface {
	ObservePlan(duration time.Duration, validCombinations int, truncated bool)
}

// PlannerLimits bounds a single planning run.
type PlannerLimits struct {
	MaxRequestedCourses int
	TopNResults         int
	MaxCombinations     int
}

// PlannerService runs the full pipeline for one planning request: candidate
// lookup, corequisite expansion, combination enumeration against the
// student's availability, scoring and ranking.
type PlannerService struct {
	catalog   planCatalog
	resolver  groupResolver
	scorer    combinationScorer
	limits    PlannerLimits
	validator *validator.Validate
	logger    *zap.Logger
	metrics   plannerObserver
}

// NewPlannerService wires the planner dependencies.
func NewPlannerService(
	catalog planCatalog,
	resolver groupResolver,
	scorer combinationScorer,
	limits PlannerLimits,
	validate *validator.Validate,
	logger *zap.Logger,
	metrics plannerObserver,
) *PlannerService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if limits.MaxRequestedCourses <= 0 {
		limits.MaxRequestedCourses = 8
	}
	if limits.TopNResults <= 0 {
		limits.TopNResults = 50
	}
	return &PlannerService{
		catalog:   catalog,
		resolver:  resolver,
		scorer:    scorer,
		limits:    limits,
		validator: validate,
		logger:    logger,
		metrics:   metrics,
	}
}

// Plan produces the ranked schedule options for one request.
func (s *PlannerService) Plan(ctx context.Context, req dto.PlanRequest) (*dto.PlanResponse, error) {
	started := time.Now()

	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid plan request")
	}

	courses := normalizeCourseIDs(req.Courses)
	if len(courses) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no courses requested")
	}
	if len(courses) > s.limits.MaxRequestedCourses {
		return nil, appErrors.Clone(appErrors.ErrTooManyCourses,
			fmt.Sprintf("at most %d courses may be requested", s.limits.MaxRequestedCourses))
	}

	prefs, err := parseModalityPreferences(req.ModalityPreferences)
	if err != nil {
		return nil, err
	}

	blocks, err := buildUnavailabilityBlocks(req)
	if err != nil {
		return nil, err
	}

	candidates := make(map[string][]models.SectionGroup, len(courses))
	var schedulable []string
	var unschedulable []models.UnschedulableCourse
	summaries := make([]models.CourseSummary, 0, len(courses))
	totalCredits := 0.0

	for _, courseID := range courses {
		sections, err := s.catalog.SectionsForCourse(ctx, courseID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status,
				fmt.Sprintf("failed to load sections for %s", courseID))
		}
		if len(sections) == 0 {
			unschedulable = append(unschedulable, s.unschedulable(ctx, courseID, models.ReasonNoSections))
			continue
		}

		groups, err := s.resolver.GroupsForCourse(ctx, courseID, sections)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status,
				fmt.Sprintf("failed to resolve corequisites for %s", courseID))
		}
		if len(groups) == 0 {
			unschedulable = append(unschedulable, s.unschedulable(ctx, courseID, models.ReasonAllCoreqsUnavailable))
			continue
		}

		candidates[courseID] = groups
		schedulable = append(schedulable, courseID)
		summaries = append(summaries, summarizeCourse(courseID, sections, prefs[courseID], blocks))
		totalCredits += sections[0].Credits
	}

	var combos []models.Combination
	truncated := false
	if len(schedulable) > 0 {
		combos, truncated = s.enumerate(schedulable, candidates, blocks)
	}

	scored := s.scoreAll(combos, prefs)
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].CombinedScore < scored[j].CombinedScore
	})

	topN := s.limits.TopNResults
	if req.TopN > 0 {
		topN = req.TopN
	}
	options := make([]dto.PlanOption, 0, min(topN, len(scored)))
	for i, sc := range scored {
		if i >= topN {
			break
		}
		options = append(options, buildOption(i+1, sc))
	}

	resp := &dto.PlanResponse{
		PlanID:        uuid.NewString(),
		Courses:       summaries,
		TotalCredits:  totalCredits,
		Unschedulable: unschedulable,
		Options:       options,
		TotalOptions:  len(scored),
		Truncated:     truncated,
	}

	duration := time.Since(started)
	if s.metrics != nil {
		s.metrics.ObservePlan(duration, len(scored), truncated)
	}
	s.logger.Info("plan generated",
		zap.String("plan_id", resp.PlanID),
		zap.Int("courses", len(courses)),
		zap.Int("valid_combinations", len(scored)),
		zap.Bool("truncated", truncated),
		zap.Duration("duration", duration))

	return resp, nil
}

func (s *PlannerService) unschedulable(ctx context.Context, courseID string, reason models.UnschedulableReason) models.UnschedulableCourse {
	pending, err := s.catalog.PendingCount(ctx, courseID)
	if err != nil {
		s.logger.Warn("pending count lookup failed", zap.String("course_id", courseID), zap.Error(err))
		pending = 0
	}
	return models.UnschedulableCourse{CourseID: courseID, Reason: reason, PendingSections: pending}
}

// enumerate walks the Cartesian product of section groups, one group per
// course in request order, pruning any prefix that already conflicts. The
// visiting order is deterministic (course order as requested, group order as
// returned by the catalog), so equally-scored combinations always report in
// the same order. Returns true when the valid-combination budget cut the
// search short.
func (s *PlannerService) enumerate(
	courses []string,
	candidates map[string][]models.SectionGroup,
	blocks []models.UnavailabilityBlock,
) ([]models.Combination, bool) {
	var combos []models.Combination
	truncated := false

	chosen := make([]models.SectionGroup, 0, len(courses))
	var flat []models.Section
	seen := make(map[string]bool)

	var walk func(depth int)
	walk = func(depth int) {
		if truncated {
			return
		}
		if depth == len(courses) {
			groups := make([]models.SectionGroup, len(chosen))
			copy(groups, chosen)
			combos = append(combos, models.Combination{Groups: groups})
			if s.limits.MaxCombinations > 0 && len(combos) >= s.limits.MaxCombinations {
				truncated = true
			}
			return
		}

		for _, group := range candidates[courses[depth]] {
			sections := group.Sections()
			if !s.admissible(sections, flat, seen, blocks) {
				continue
			}

			chosen = append(chosen, group)
			flat = append(flat, sections...)
			for _, sec := range sections {
				seen[sec.SectionID] = true
			}

			walk(depth + 1)

			for _, sec := range sections {
				delete(seen, sec.SectionID)
			}
			flat = flat[:len(flat)-len(sections)]
			chosen = chosen[:len(chosen)-1]

			if truncated {
				return
			}
		}
	}
	walk(0)

	return combos, truncated
}

// admissible checks one group against the partial combination built so far:
// no double-booked section id (shared corequisites), no pairwise conflict
// with already-placed sections, no collision with an unavailability block.
func (s *PlannerService) admissible(
	sections []models.Section,
	placed []models.Section,
	seen map[string]bool,
	blocks []models.UnavailabilityBlock,
) bool {
	for _, sec := range sections {
		if seen[sec.SectionID] {
			return false
		}
		if SectionConflictsWithAnyBlock(sec, blocks) {
			return false
		}
		for _, other := range placed {
			if SectionsConflict(sec, other) {
				return false
			}
		}
	}
	return true
}

// scoreAll scores combinations, fanning out across workers for large result
// sets. Output order matches input order; scoring is pure so the fan-out is
// observationally identical to a sequential pass.
func (s *PlannerService) scoreAll(combos []models.Combination, prefs map[string]models.Modality) []models.ScoredCombination {
	scored := make([]models.ScoredCombination, len(combos))
	workers := runtime.GOMAXPROCS(0)
	if workers > 8 {
		workers = 8
	}
	if len(combos) < 64 || workers <= 1 {
		for i, combo := range combos {
			scored[i] = s.scorer.Score(combo, prefs)
		}
		return scored
	}

	var next int64 = -1
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(atomic.AddInt64(&next, 1))
				if i >= len(combos) {
					return
				}
				scored[i] = s.scorer.Score(combos[i], prefs)
			}
		}()
	}
	wg.Wait()
	return scored
}

// buildOption renders one scored combination for presentation: sections
// ordered by first meeting day then start time, online sections last.
func buildOption(rank int, sc models.ScoredCombination) dto.PlanOption {
	type member struct {
		section models.Section
		coreq   bool
	}
	var members []member
	for _, group := range sc.Combination.Groups {
		members = append(members, member{section: group.Primary})
		for _, coreq := range group.Corequisites {
			members = append(members, member{section: coreq, coreq: true})
		}
	}

	sort.SliceStable(members, func(i, j int) bool {
		return presentationKey(members[i].section) < presentationKey(members[j].section)
	})

	views := make([]dto.SectionView, 0, len(members))
	for _, m := range members {
		views = append(views, sectionView(m.section, m.coreq))
	}

	return dto.PlanOption{
		Rank:          rank,
		CombinedScore: sc.CombinedScore,
		ModalityScore: sc.ModalityScore,
		DaysScore:     sc.DaysScore,
		GapScore:      sc.GapScore,
		Sections:      views,
	}
}

// presentationKey orders sections by first meeting day and start time.
// Online sections sort after everything else.
func presentationKey(s models.Section) int {
	if s.Modality == models.ModalityOnline || len(s.MeetingDays) == 0 {
		return 1 << 20
	}
	key := s.MeetingDays[0].Ordinal() * (24 * 60)
	if s.StartTime != nil {
		key += int(*s.StartTime)
	}
	return key
}

func sectionView(s models.Section, coreq bool) dto.SectionView {
	days := make([]string, 0, len(s.MeetingDays))
	for _, d := range s.MeetingDays {
		days = append(days, string(d))
	}
	view := dto.SectionView{
		SectionID:   s.SectionID,
		CourseID:    s.CourseID,
		MeetingDays: days,
		Modality:    string(s.Modality),
		Corequisite: coreq,
	}
	if s.StartTime != nil {
		start := s.StartTime.String()
		view.StartTime = &start
	}
	if s.EndTime != nil {
		end := s.EndTime.String()
		view.EndTime = &end
	}
	return view
}

// summarizeCourse builds the per-course report line, including how many
// candidate sections fall inside vs. outside the student's availability.
func summarizeCourse(courseID string, sections []models.Section, pref models.Modality, blocks []models.UnavailabilityBlock) models.CourseSummary {
	summary := models.CourseSummary{
		CourseID:           courseID,
		ShortTitle:         sections[0].ShortTitle,
		Credits:            sections[0].Credits,
		ModalityPreference: pref,
	}
	for _, section := range sections {
		if len(section.CorequisiteIDs) > 0 {
			summary.HasCorequisites = true
		}
		if SectionConflictsWithAnyBlock(section, blocks) {
			summary.SectionsOutWindow++
		} else {
			summary.SectionsInWindow++
		}
	}
	return summary
}

func normalizeCourseIDs(raw []string) []string {
	seen := make(map[string]bool, len(raw))
	var courses []string
	for _, id := range raw {
		id = strings.ToUpper(strings.TrimSpace(id))
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		courses = append(courses, id)
	}
	return courses
}

func parseModalityPreferences(raw map[string]string) (map[string]models.Modality, error) {
	prefs := make(map[string]models.Modality, len(raw))
	for courseID, value := range raw {
		value = strings.TrimSpace(value)
		if value == "" || strings.EqualFold(value, "none") {
			continue
		}
		modality := models.ParseModality(value)
		if modality == models.ModalityOther {
			return nil, appErrors.Clone(appErrors.ErrValidation,
				fmt.Sprintf("unknown modality preference %q for %s", value, courseID))
		}
		prefs[strings.ToUpper(strings.TrimSpace(courseID))] = modality
	}
	return prefs, nil
}

// buildUnavailabilityBlocks turns the request's availability statement into
// the canonical block set. Pre-derived blocks take precedence; otherwise the
// blocks are the per-day complement of the declared available windows.
func buildUnavailabilityBlocks(req dto.PlanRequest) ([]models.UnavailabilityBlock, error) {
	if len(req.UnavailabilityBlocks) > 0 {
		var blocks []models.UnavailabilityBlock
		for rawDay, windows := range req.UnavailabilityBlocks {
			day, ok := models.ParseWeekday(rawDay)
			if !ok {
				return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown weekday %q", rawDay))
			}
			for _, window := range windows {
				start, end, err := parseWindow(window)
				if err != nil {
					return nil, appErrors.Clone(appErrors.ErrValidation,
						fmt.Sprintf("invalid unavailability window on %s: %v", day, err))
				}
				blocks = append(blocks, models.UnavailabilityBlock{Day: day, Start: start, End: end})
			}
		}
		sortBlocks(blocks)
		return blocks, nil
	}

	availability := models.WeeklyAvailability{Windows: make(map[models.Weekday]models.DayWindow)}
	for rawDay, window := range req.Availability {
		day, ok := models.ParseWeekday(rawDay)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown weekday %q", rawDay))
		}
		start, end, err := parseWindow(window)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation,
				fmt.Sprintf("invalid availability window on %s: %v", day, err))
		}
		if end <= start {
			return nil, appErrors.Clone(appErrors.ErrValidation,
				fmt.Sprintf("availability window on %s must end after it starts", day))
		}
		availability.Windows[day] = models.DayWindow{Start: start, End: end}
	}
	for _, rawDay := range req.UnavailableDays {
		day, ok := models.ParseWeekday(rawDay)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown weekday %q", rawDay))
		}
		availability.UnavailableDays = append(availability.UnavailableDays, day)
	}
	return availability.Blocks(), nil
}

func parseWindow(window dto.TimeWindow) (models.ClockTime, models.ClockTime, error) {
	start, err := models.ParseClock(window.Start)
	if err != nil {
		return 0, 0, err
	}
	end, err := models.ParseClock(window.End)
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

func sortBlocks(blocks []models.UnavailabilityBlock) {
	sort.SliceStable(blocks, func(i, j int) bool {
		if blocks[i].Day != blocks[j].Day {
			return blocks[i].Day.Ordinal() < blocks[j].Day.Ordinal()
		}
		return blocks[i].Start < blocks[j].Start
	})
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

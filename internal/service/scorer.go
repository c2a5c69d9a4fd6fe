package service

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/mhutchins/course-planner-api/internal/models"
	"github.com/mhutchins/course-planner-api/pkg/config"
	appErrors "github.com/mhutchins/course-planner-api/pkg/errors"
)

// ScoreConfig is the parsed, validated scoring configuration. Lower combined
// scores are more desirable.
type ScoreConfig struct {
	WeightModality       float64
	WeightDays           float64
	WeightGaps           float64
	DayWeights           map[int]int
	BreakStart           models.ClockTime
	BreakEnd             models.ClockTime
	MaxAllowedGapMinutes int
}

// NewScoreConfig parses the raw planner configuration and fails fast on
// malformed weights or tables so a misconfigured service never produces
// misleading scores.
func NewScoreConfig(cfg config.PlannerConfig) (ScoreConfig, error) {
	if cfg.WeightModality < 0 || cfg.WeightDays < 0 || cfg.WeightGaps < 0 {
		return ScoreConfig{}, appErrors.Clone(appErrors.ErrInvalidWeights, "scoring weights must be non-negative")
	}

	dayWeights, err := parseDayWeights(cfg.DayWeights)
	if err != nil {
		return ScoreConfig{}, appErrors.Wrap(err, appErrors.ErrConfiguration.Code, appErrors.ErrConfiguration.Status, "invalid day-weight table")
	}
	if len(dayWeights) == 0 {
		return ScoreConfig{}, appErrors.Clone(appErrors.ErrConfiguration, "day-weight table must not be empty")
	}

	breakStart, err := models.ParseClock(cfg.MandatoryBreakStart)
	if err != nil {
		return ScoreConfig{}, appErrors.Wrap(err, appErrors.ErrConfiguration.Code, appErrors.ErrConfiguration.Status, "invalid mandatory break start")
	}
	breakEnd, err := models.ParseClock(cfg.MandatoryBreakEnd)
	if err != nil {
		return ScoreConfig{}, appErrors.Wrap(err, appErrors.ErrConfiguration.Code, appErrors.ErrConfiguration.Status, "invalid mandatory break end")
	}
	if breakEnd <= breakStart {
		return ScoreConfig{}, appErrors.Clone(appErrors.ErrConfiguration, "mandatory break must end after it starts")
	}
	if cfg.MaxAllowedGapMinutes < 0 {
		return ScoreConfig{}, appErrors.Clone(appErrors.ErrConfiguration, "max allowed gap must be non-negative")
	}

	return ScoreConfig{
		WeightModality:       cfg.WeightModality,
		WeightDays:           cfg.WeightDays,
		WeightGaps:           cfg.WeightGaps,
		DayWeights:           dayWeights,
		BreakStart:           breakStart,
		BreakEnd:             breakEnd,
		MaxAllowedGapMinutes: cfg.MaxAllowedGapMinutes,
	}, nil
}

// parseDayWeights reads a "1:0,2:1,3:2" style table.
func parseDayWeights(raw string) (map[int]int, error) {
	table := make(map[int]int)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.SplitN(pair, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("malformed day-weight entry %q", pair)
		}
		days, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			return nil, fmt.Errorf("malformed day count in %q", pair)
		}
		weight, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return nil, fmt.Errorf("malformed weight in %q", pair)
		}
		if days < 0 || weight < 0 {
			return nil, fmt.Errorf("negative value in day-weight entry %q", pair)
		}
		table[days] = weight
	}
	return table, nil
}

// Scorer computes the composite desirability score of a combination. It is a
// pure function of its inputs; the same combination and preferences always
// yield the same ScoredCombination.
type Scorer struct {
	cfg ScoreConfig
}

// NewScorer constructs a scorer over a validated configuration.
func NewScorer(cfg ScoreConfig) *Scorer {
	return &Scorer{cfg: cfg}
}

// Gap exemption applies only on the short days of the alternating schedule.
var shortDays = map[models.Weekday]bool{models.Mon: true, models.Wed: true, models.Fri: true}

// Score evaluates one combination against the student's modality preferences.
func (s *Scorer) Score(combo models.Combination, prefs map[string]models.Modality) models.ScoredCombination {
	sections := combo.Flatten()
	modality := s.modalityScore(sections, prefs)
	days := s.daysScore(sections)
	gaps := s.gapScore(sections)

	combined := s.cfg.WeightModality*float64(modality) +
		s.cfg.WeightDays*float64(days) +
		s.cfg.WeightGaps*float64(gaps)

	return models.ScoredCombination{
		Combination:   combo,
		ModalityScore: modality,
		DaysScore:     days,
		GapScore:      gaps,
		CombinedScore: combined,
	}
}

// modalityScore counts sections whose delivery mode differs from the stated
// preference for their course. Courses without a preference incur no penalty.
func (s *Scorer) modalityScore(sections []models.Section, prefs map[string]models.Modality) int {
	score := 0
	for _, section := range sections {
		pref, ok := prefs[section.CourseID]
		if ok && pref != "" && section.Modality != pref {
			score++
		}
	}
	return score
}

// daysScore penalises the number of distinct weekdays with at least one
// on-campus meeting. Day counts beyond the configured table take the table's
// maximum penalty.
func (s *Scorer) daysScore(sections []models.Section) int {
	onCampus := make(map[models.Weekday]bool)
	for _, section := range sections {
		if section.Modality == models.ModalityOnline {
			continue
		}
		for _, day := range section.MeetingDays {
			onCampus[day] = true
		}
	}

	count := len(onCampus)
	if weight, ok := s.cfg.DayWeights[count]; ok {
		return weight
	}

	maxDays, maxWeight := 0, 0
	for days, weight := range s.cfg.DayWeights {
		if days > maxDays {
			maxDays = days
		}
		if weight > maxWeight {
			maxWeight = weight
		}
	}
	if count > maxDays {
		return maxWeight
	}
	return 0
}

// gapScore walks each weekday's sections chronologically and penalises idle
// stretches between consecutive classes quadratically: the gap rounded to
// whole hours, squared. A gap that fully contains the mandatory break window
// on a short day is exempt.
func (s *Scorer) gapScore(sections []models.Section) int {
	score := 0
	for _, day := range models.AllWeekdays {
		var meets []models.Section
		for _, section := range sections {
			if section.HasMeetingTime() && section.MeetsOn(day) {
				meets = append(meets, section)
			}
		}
		if len(meets) < 2 {
			continue
		}
		sort.SliceStable(meets, func(i, j int) bool {
			return *meets[i].StartTime < *meets[j].StartTime
		})

		for i := 1; i < len(meets); i++ {
			prevEnd := *meets[i-1].EndTime
			currStart := *meets[i].StartTime
			if shortDays[day] && prevEnd <= s.cfg.BreakStart && currStart >= s.cfg.BreakEnd {
				continue
			}
			gap := int(currStart) - int(prevEnd)
			if gap > s.cfg.MaxAllowedGapMinutes {
				hours := int(math.Round(float64(gap) / 60.0))
				score += hours * hours
			}
		}
	}
	return score
}

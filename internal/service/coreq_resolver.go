package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mhutchins/course-planner-api/internal/models"
)

type sectionResolver interface {
	SectionByID(ctx context.Context, sectionID string) (*models.Section, error)
}

// CoreqResolver expands each candidate section into a section group holding
// its mandatory corequisite sections. A candidate whose corequisite
// requirement cannot be satisfied (no open seats, absent from the catalog,
// or conflicting with its own primary) is rejected outright: a course cannot
// be scheduled through a section whose mandatory pairing is unavailable.
type CoreqResolver struct {
	catalog sectionResolver
	logger  *zap.Logger
}

// NewCoreqResolver constructs a resolver over the given catalog accessor.
func NewCoreqResolver(catalog sectionResolver, logger *zap.Logger) *CoreqResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CoreqResolver{catalog: catalog, logger: logger}
}

// GroupsForCourse filters a course's candidate sections into schedulable
// section groups. Sections without corequisites pass through as single-member
// groups. The returned slice preserves catalog order; it is empty when no
// candidate survives.
func (r *CoreqResolver) GroupsForCourse(ctx context.Context, courseID string, sections []models.Section) ([]models.SectionGroup, error) {
	groups := make([]models.SectionGroup, 0, len(sections))
	for _, section := range sections {
		group, ok, err := r.resolve(ctx, section)
		if err != nil {
			return nil, fmt.Errorf("resolve corequisites for %s: %w", section.SectionID, err)
		}
		if !ok {
			continue
		}
		groups = append(groups, group)
	}
	if len(groups) == 0 && len(sections) > 0 {
		r.logger.Info("course has sections but no schedulable section group",
			zap.String("course_id", courseID))
	}
	return groups, nil
}

func (r *CoreqResolver) resolve(ctx context.Context, section models.Section) (models.SectionGroup, bool, error) {
	if len(section.CorequisiteIDs) == 0 {
		return models.SectionGroup{Primary: section}, true, nil
	}

	coreqs := make([]models.Section, 0, len(section.CorequisiteIDs))
	for _, coreqID := range section.CorequisiteIDs {
		coreq, err := r.catalog.SectionByID(ctx, coreqID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				r.logger.Debug("rejecting candidate: corequisite unavailable",
					zap.String("section_id", section.SectionID),
					zap.String("corequisite_id", coreqID))
				return models.SectionGroup{}, false, nil
			}
			return models.SectionGroup{}, false, err
		}
		coreqs = append(coreqs, *coreq)
	}

	// The group must be internally conflict-free before it can join any
	// combination.
	members := append([]models.Section{section}, coreqs...)
	for i := 0; i < len(members); i++ {
		for j := i + 1; j < len(members); j++ {
			if SectionsConflict(members[i], members[j]) {
				r.logger.Debug("rejecting candidate: corequisite set conflicts internally",
					zap.String("section_id", section.SectionID),
					zap.String("conflicting_a", members[i].SectionID),
					zap.String("conflicting_b", members[j].SectionID))
				return models.SectionGroup{}, false, nil
			}
		}
	}

	return models.SectionGroup{Primary: section, Corequisites: coreqs}, true, nil
}

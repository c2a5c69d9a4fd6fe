package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/mhutchins/course-planner-api/internal/models"
	appErrors "github.com/mhutchins/course-planner-api/pkg/errors"
)

type sectionStore interface {
	SectionsForCourse(ctx context.Context, courseID string) ([]models.Section, error)
	SectionByID(ctx context.Context, sectionID string) (*models.Section, error)
	CourseExists(ctx context.Context, courseID string) (bool, error)
	PendingCount(ctx context.Context, courseID string) (int, error)
	ModalitiesForCourse(ctx context.Context, courseID string) ([]models.Modality, error)
}

type catalogCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type cacheObserver interface {
	RecordCacheLookup(hit bool)
}

// CatalogService fronts the section repository with an optional Redis cache.
// Section values are immutable per planning run, so a short TTL is safe.
type CatalogService struct {
	store    sectionStore
	cache    catalogCache
	cacheTTL time.Duration
	logger   *zap.Logger
	metrics  cacheObserver
}

// NewCatalogService wires the catalog accessor.
func NewCatalogService(store sectionStore, cache catalogCache, cacheTTL time.Duration, logger *zap.Logger, metrics cacheObserver) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{store: store, cache: cache, cacheTTL: cacheTTL, logger: logger, metrics: metrics}
}

// SectionsForCourse returns seat-available active sections, cached per course.
func (s *CatalogService) SectionsForCourse(ctx context.Context, courseID string) ([]models.Section, error) {
	key := "catalog:sections:" + courseID
	if s.cache != nil {
		var cached []models.Section
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			if s.metrics != nil {
				s.metrics.RecordCacheLookup(true)
			}
			return cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("catalog cache read failed", zap.String("course_id", courseID), zap.Error(err))
		}
		if s.metrics != nil {
			s.metrics.RecordCacheLookup(false)
		}
	}

	sections, err := s.store.SectionsForCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, sections, s.cacheTTL); err != nil {
			s.logger.Warn("catalog cache write failed", zap.String("course_id", courseID), zap.Error(err))
		}
	}
	return sections, nil
}

// SectionByID resolves a section id. Misses surface as the store's not-found
// error; corequisite resolution treats them as non-fatal.
func (s *CatalogService) SectionByID(ctx context.Context, sectionID string) (*models.Section, error) {
	return s.store.SectionByID(ctx, sectionID)
}

// CourseExists reports whether the catalog lists the course at all.
func (s *CatalogService) CourseExists(ctx context.Context, courseID string) (bool, error) {
	return s.store.CourseExists(ctx, courseID)
}

// PendingCount counts not-yet-open sections for the unavailable report.
func (s *CatalogService) PendingCount(ctx context.Context, courseID string) (int, error) {
	return s.store.PendingCount(ctx, courseID)
}

// ModalitiesForCourse lists distinct modalities with open seats.
func (s *CatalogService) ModalitiesForCourse(ctx context.Context, courseID string) ([]models.Modality, error) {
	return s.store.ModalitiesForCourse(ctx, courseID)
}

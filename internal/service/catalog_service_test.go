package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mhutchins/course-planner-api/internal/models"
	appErrors "github.com/mhutchins/course-planner-api/pkg/errors"
)

type countingStore struct {
	*plannerCatalogStub
	calls int
}

func (s *countingStore) SectionsForCourse(ctx context.Context, courseID string) ([]models.Section, error) {
	s.calls++
	return s.plannerCatalogStub.SectionsForCourse(ctx, courseID)
}

func (s *countingStore) CourseExists(ctx context.Context, courseID string) (bool, error) {
	_, ok := s.byCourse[courseID]
	return ok, nil
}

func (s *countingStore) ModalitiesForCourse(ctx context.Context, courseID string) ([]models.Modality, error) {
	return nil, nil
}

type memoryCache struct {
	entries map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}}
}

func (c *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := c.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = raw
	return nil
}

func TestCatalogServiceCachesSections(t *testing.T) {
	stub := newPlannerCatalogStub()
	stub.add("ENG-103",
		timedSection("ENG-103-101", []models.Weekday{models.Mon}, models.Clock(9, 0), models.Clock(10, 15)),
	)
	store := &countingStore{plannerCatalogStub: stub}

	svc := NewCatalogService(store, newMemoryCache(), time.Minute, nil, nil)

	first, err := svc.SectionsForCourse(context.Background(), "ENG-103")
	require.NoError(t, err)
	second, err := svc.SectionsForCourse(context.Background(), "ENG-103")
	require.NoError(t, err)

	assert.Equal(t, 1, store.calls)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].SectionID, second[0].SectionID)
	assert.Equal(t, *first[0].StartTime, *second[0].StartTime)
}

func TestCatalogServiceWorksWithoutCache(t *testing.T) {
	stub := newPlannerCatalogStub()
	stub.add("ENG-103",
		timedSection("ENG-103-101", []models.Weekday{models.Mon}, models.Clock(9, 0), models.Clock(10, 15)),
	)
	store := &countingStore{plannerCatalogStub: stub}

	svc := NewCatalogService(store, nil, time.Minute, nil, nil)

	_, err := svc.SectionsForCourse(context.Background(), "ENG-103")
	require.NoError(t, err)
	_, err = svc.SectionsForCourse(context.Background(), "ENG-103")
	require.NoError(t, err)

	assert.Equal(t, 2, store.calls)
}

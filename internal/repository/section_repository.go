package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/mhutchins/course-planner-api/internal/models"
)

const sectionColumns = `section_id, course_id, short_title, status, avail_seats, meeting_days, start_time, end_time, effective_start, effective_end, modality, credits, corequisites`

// SectionRepository is the catalog accessor: read-only, indexed lookup of
// sections by course and by section id. Ingestion of the catalog itself
// happens upstream; only active sections with open seats reach the planner.
type SectionRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewSectionRepository constructs a SectionRepository.
func NewSectionRepository(db *sqlx.DB, logger *zap.Logger) *SectionRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SectionRepository{db: db, logger: logger}
}

// sectionRow mirrors the sections table. Raw catalog values are mapped into
// the typed Section in exactly one place (toSection) so schema fragility
// stays inside this file.
type sectionRow struct {
	SectionID      string          `db:"section_id"`
	CourseID       string          `db:"course_id"`
	ShortTitle     string          `db:"short_title"`
	Status         string          `db:"status"`
	AvailSeats     int             `db:"avail_seats"`
	MeetingDays    sql.NullString  `db:"meeting_days"`
	StartTime      sql.NullString  `db:"start_time"`
	EndTime        sql.NullString  `db:"end_time"`
	EffectiveStart sql.NullTime    `db:"effective_start"`
	EffectiveEnd   sql.NullTime    `db:"effective_end"`
	Modality       string          `db:"modality"`
	Credits        sql.NullFloat64 `db:"credits"`
	Corequisites   sql.NullString  `db:"corequisites"`
}

// SectionsForCourse returns the active, seat-available sections of a course
// in catalog order. Rows missing their effective date range are dropped with
// a logged reason; they cannot be conflict-checked safely.
func (r *SectionRepository) SectionsForCourse(ctx context.Context, courseID string) ([]models.Section, error) {
	query := fmt.Sprintf(`SELECT %s FROM sections WHERE course_id = $1 AND status = 'A' AND avail_seats > 0 ORDER BY section_id`, sectionColumns)
	var rows []sectionRow
	if err := r.db.SelectContext(ctx, &rows, query, courseID); err != nil {
		return nil, fmt.Errorf("sections for course %s: %w", courseID, err)
	}

	sections := make([]models.Section, 0, len(rows))
	for _, row := range rows {
		section, ok := r.toSection(row)
		if !ok {
			continue
		}
		sections = append(sections, section)
	}
	return sections, nil
}

// SectionByID resolves a single section id to its record. Returns
// sql.ErrNoRows when the section is absent or has no open seats; callers
// treat that as a non-fatal corequisite miss.
func (r *SectionRepository) SectionByID(ctx context.Context, sectionID string) (*models.Section, error) {
	query := fmt.Sprintf(`SELECT %s FROM sections WHERE section_id = $1 AND status = 'A' AND avail_seats > 0`, sectionColumns)
	var row sectionRow
	if err := r.db.GetContext(ctx, &row, query, sectionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("section by id %s: %w", sectionID, err)
	}
	section, ok := r.toSection(row)
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &section, nil
}

// CourseExists reports whether any section of the course is listed at all,
// regardless of status or seats.
func (r *SectionRepository) CourseExists(ctx context.Context, courseID string) (bool, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM sections WHERE course_id = $1`, courseID); err != nil {
		return false, fmt.Errorf("course exists %s: %w", courseID, err)
	}
	return count > 0, nil
}

// PendingCount counts sections of the course in pending status, for the
// unavailable-course report.
func (r *SectionRepository) PendingCount(ctx context.Context, courseID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM sections WHERE course_id = $1 AND status = 'P'`, courseID); err != nil {
		return 0, fmt.Errorf("pending count %s: %w", courseID, err)
	}
	return count, nil
}

// ModalitiesForCourse lists the distinct modalities with open seats for a
// course, catalog order.
func (r *SectionRepository) ModalitiesForCourse(ctx context.Context, courseID string) ([]models.Modality, error) {
	var raw []string
	query := `SELECT DISTINCT modality FROM sections WHERE course_id = $1 AND status = 'A' AND avail_seats > 0 ORDER BY modality`
	if err := r.db.SelectContext(ctx, &raw, query, courseID); err != nil {
		return nil, fmt.Errorf("modalities for course %s: %w", courseID, err)
	}
	modalities := make([]models.Modality, 0, len(raw))
	for _, m := range raw {
		modalities = append(modalities, models.ParseModality(m))
	}
	return modalities, nil
}

func (r *SectionRepository) toSection(row sectionRow) (models.Section, bool) {
	if !row.EffectiveStart.Valid || !row.EffectiveEnd.Valid {
		r.logger.Warn("dropping section without effective date range",
			zap.String("section_id", row.SectionID))
		return models.Section{}, false
	}

	section := models.Section{
		SectionID:      row.SectionID,
		CourseID:       row.CourseID,
		ShortTitle:     row.ShortTitle,
		EffectiveStart: row.EffectiveStart.Time,
		EffectiveEnd:   row.EffectiveEnd.Time,
		Modality:       models.ParseModality(row.Modality),
		Credits:        row.Credits.Float64,
		AvailSeats:     row.AvailSeats,
	}
	if section.CourseID == "" {
		section.CourseID = models.CourseIDFromSectionID(row.SectionID)
	}
	if row.MeetingDays.Valid {
		section.MeetingDays = models.ParseMeetingDays(row.MeetingDays.String)
	}
	section.StartTime = r.parseClock(row.SectionID, "start_time", row.StartTime)
	section.EndTime = r.parseClock(row.SectionID, "end_time", row.EndTime)
	if row.Corequisites.Valid {
		section.CorequisiteIDs = splitIDList(row.Corequisites.String)
	}
	return section, true
}

// parseClock treats a missing or malformed meeting time as "no fixed time":
// the section stays a candidate but never conflicts on time of day.
func (r *SectionRepository) parseClock(sectionID, column string, raw sql.NullString) *models.ClockTime {
	if !raw.Valid || strings.TrimSpace(raw.String) == "" || strings.EqualFold(raw.String, "nan") {
		return nil
	}
	clock, err := models.ParseClock(raw.String)
	if err != nil {
		r.logger.Warn("unparseable section meeting time",
			zap.String("section_id", sectionID),
			zap.String("column", column),
			zap.String("value", raw.String))
		return nil
	}
	return &clock
}

func splitIDList(raw string) []string {
	var ids []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			ids = append(ids, trimmed)
		}
	}
	return ids
}

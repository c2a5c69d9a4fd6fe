package service

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mhutchins/course-planner-api/internal/dto"
	"github.com/mhutchins/course-planner-api/pkg/export"
	appErrors "github.com/mhutchins/course-planner-api/pkg/errors"
)

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportResult carries one rendered plan file.
type ExportResult struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// ExportService renders a generated plan as a downloadable file.
type ExportService struct {
	csv    csvRenderer
	pdf    pdfRenderer
	logger *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{csv: csv, pdf: pdf, logger: logger}
}

// Render produces the plan's ranked options in the requested format.
func (s *ExportService) Render(plan *dto.PlanResponse, format string) (*ExportResult, error) {
	if plan == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no plan to export")
	}

	dataset := buildPlanDataset(plan)
	title := fmt.Sprintf("Schedule Options (%d courses)", len(plan.Courses))

	var payload []byte
	var contentType string
	var err error
	switch strings.ToLower(format) {
	case "csv":
		payload, err = s.csv.Render(dataset)
		contentType = "text/csv"
	case "pdf":
		payload, err = s.pdf.Render(dataset, title)
		contentType = "application/pdf"
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render plan export")
	}

	filename := fmt.Sprintf("plan_%s_%s.%s",
		sanitizeFilename(plan.PlanID),
		time.Now().UTC().Format("20060102_150405"),
		strings.ToLower(format))

	s.logger.Info("plan exported",
		zap.String("plan_id", plan.PlanID),
		zap.String("format", format),
		zap.Int("options", len(plan.Options)))

	return &ExportResult{Filename: filename, ContentType: contentType, Payload: payload}, nil
}

func buildPlanDataset(plan *dto.PlanResponse) export.Dataset {
	headers := []string{"Rank", "Combined Score", "Modality Score", "Days Score", "Gap Score", "Section", "Course", "Days", "Start", "End", "Modality"}
	rows := make([]map[string]string, 0, len(plan.Options))
	for _, option := range plan.Options {
		for _, section := range option.Sections {
			rows = append(rows, map[string]string{
				"Rank":           fmt.Sprintf("%d", option.Rank),
				"Combined Score": fmt.Sprintf("%.2f", option.CombinedScore),
				"Modality Score": fmt.Sprintf("%d", option.ModalityScore),
				"Days Score":     fmt.Sprintf("%d", option.DaysScore),
				"Gap Score":      fmt.Sprintf("%d", option.GapScore),
				"Section":        section.SectionID,
				"Course":         section.CourseID,
				"Days":           strings.Join(section.MeetingDays, " "),
				"Start":          derefTime(section.StartTime),
				"End":            derefTime(section.EndTime),
				"Modality":       section.Modality,
			})
		}
	}
	return export.Dataset{Headers: headers, Rows: rows}
}

func derefTime(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

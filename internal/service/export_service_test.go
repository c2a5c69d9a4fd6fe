package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mhutchins/course-planner-api/internal/dto"
)

func samplePlan() *dto.PlanResponse {
	start := "09:00"
	end := "10:15"
	return &dto.PlanResponse{
		PlanID: "abc-123",
		Options: []dto.PlanOption{
			{
				Rank:          1,
				CombinedScore: 2.5,
				Sections: []dto.SectionView{
					{
						SectionID:   "ENG-103-101",
						CourseID:    "ENG-103",
						MeetingDays: []string{"Mon", "Wed"},
						StartTime:   &start,
						EndTime:     &end,
						Modality:    "LEC",
					},
					{
						SectionID: "CSC-110-W01",
						CourseID:  "CSC-110",
						Modality:  "ONLIN",
					},
				},
			},
		},
	}
}

func TestRenderCSV(t *testing.T) {
	svc := NewExportService(nil, nil, nil)

	result, err := svc.Render(samplePlan(), "csv")
	require.NoError(t, err)

	assert.Equal(t, "text/csv", result.ContentType)
	assert.True(t, strings.HasPrefix(result.Filename, "plan_abc-123_"))
	assert.True(t, strings.HasSuffix(result.Filename, ".csv"))

	body := string(result.Payload)
	assert.Contains(t, body, "ENG-103-101")
	assert.Contains(t, body, "Mon Wed")
	assert.Contains(t, body, "CSC-110-W01")
}

func TestRenderPDF(t *testing.T) {
	svc := NewExportService(nil, nil, nil)

	result, err := svc.Render(samplePlan(), "pdf")
	require.NoError(t, err)

	assert.Equal(t, "application/pdf", result.ContentType)
	assert.True(t, strings.HasSuffix(result.Filename, ".pdf"))
	assert.NotEmpty(t, result.Payload)
}

func TestRenderRejectsUnknownFormat(t *testing.T) {
	svc := NewExportService(nil, nil, nil)

	_, err := svc.Render(samplePlan(), "xlsx")
	assert.Error(t, err)
}

func TestRenderRejectsNilPlan(t *testing.T) {
	svc := NewExportService(nil, nil, nil)

	_, err := svc.Render(nil, "csv")
	assert.Error(t, err)
}

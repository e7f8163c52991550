package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smounat/ecole-plus-api/internal/models"
)

type pagingGradeRepo struct {
	grades []models.GradeDetail
	calls  int
}

func (f *pagingGradeRepo) List(ctx context.Context, filter models.GradeFilter) ([]models.GradeDetail, int, error) {
	f.calls++
	start := (filter.Page - 1) * filter.PageSize
	if start >= len(f.grades) {
		return nil, len(f.grades), nil
	}
	end := start + filter.PageSize
	if end > len(f.grades) {
		end = len(f.grades)
	}
	return f.grades[start:end], len(f.grades), nil
}

func (f *pagingGradeRepo) FindByID(ctx context.Context, id string) (*models.Grade, error) {
	return nil, nil
}

func (f *pagingGradeRepo) ListByStudent(ctx context.Context, studentID string) ([]models.Grade, error) {
	return nil, nil
}

func (f *pagingGradeRepo) Create(ctx context.Context, grade *models.Grade) error { return nil }
func (f *pagingGradeRepo) Update(ctx context.Context, grade *models.Grade) error { return nil }
func (f *pagingGradeRepo) Delete(ctx context.Context, id string) error           { return nil }

func TestGradeExportWalksEveryPage(t *testing.T) {
	total := exportPageSize + 25
	grades := make([]models.GradeDetail, 0, total)
	for i := 0; i < total; i++ {
		grades = append(grades, models.GradeDetail{
			Grade:            models.Grade{Subject: "Maths", Value: 12.5, Date: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)},
			StudentFirstName: fmt.Sprintf("Eleve%d", i),
			StudentLastName:  "Test",
			ClassLevel:       "CM2",
		})
	}
	repo := &pagingGradeRepo{grades: grades}
	svc := NewGradeService(repo, nil, nil, nil, nil, nil)

	payload, err := svc.ExportCSV(context.Background(), models.GradeFilter{})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(payload)), "\n")
	// Header plus one row per grade, nothing cut off at the page boundary.
	assert.Len(t, lines, total+1)
	assert.GreaterOrEqual(t, repo.calls, 2)
	assert.Contains(t, string(payload), fmt.Sprintf("Eleve%d Test", total-1))
}

func TestGradeExportEmptyResult(t *testing.T) {
	repo := &pagingGradeRepo{}
	svc := NewGradeService(repo, nil, nil, nil, nil, nil)

	payload, err := svc.ExportCSV(context.Background(), models.GradeFilter{})
	require.NoError(t, err)
	assert.Equal(t, "student,class,subject,grade,date", strings.TrimSpace(string(payload)))
	assert.Equal(t, 1, repo.calls)
}

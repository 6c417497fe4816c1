package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/studyhall/studyhall-backend/internal/repository"
	"github.com/xuri/excelize/v2"
)

// ExportService renders course results to XLSX workbooks and question
// banks to JSON dumps for admin download.
type ExportService struct {
	courses    *repository.CourseRepository
	resultRepo *repository.ResultRepository
	exportDir  string
	log        zerolog.Logger
}

// NewExportService creates a new ExportService.
func NewExportService(
	courses *repository.CourseRepository,
	resultRepo *repository.ResultRepository,
	exportDir string,
	log zerolog.Logger,
) *ExportService {
	return &ExportService{
		courses:    courses,
		resultRepo: resultRepo,
		exportDir:  exportDir,
		log:        log.With().Str("component", "export_service").Logger(),
	}
}

var resultColumns = []string{
	"S/N", "USERNAME", "NAME", "CORRECT ANSWERS", "WRONG ANSWERS",
	"SCORE (%)", "REMARK", "DURATION (minutes)", "DATE",
}

// ResultsXLSX writes all results of a course to an .xlsx workbook and
// returns the file path.
func (s *ExportService) ResultsXLSX(ctx context.Context, courseID uuid.UUID) (string, error) {
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrCourseNotFound
		}
		return "", fmt.Errorf("get course: %w", err)
	}
	results, err := s.resultRepo.ListByCourse(ctx, courseID)
	if err != nil {
		return "", fmt.Errorf("list results: %w", err)
	}
	if len(results) == 0 {
		return "", ErrNoResults
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := course.Name + " Results"
	idx, err := f.NewSheet(sheet)
	if err != nil {
		return "", fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "008000"},
	})
	if err != nil {
		return "", fmt.Errorf("create style: %w", err)
	}

	for col, name := range resultColumns {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(sheet, cell, name)
		f.SetCellStyle(sheet, cell, cell, headerStyle)
	}
	f.SetColWidth(sheet, "B", "I", 22)

	for i, res := range results {
		row := i + 2
		remark := "Fail"
		if res.Passed {
			remark = "Pass"
		}
		values := []interface{}{
			i + 1,
			res.Username,
			res.Name,
			len(res.PassedQuestions),
			len(res.FailedQuestions),
			res.Score,
			remark,
			float64(res.Duration) / 60000,
			time.UnixMilli(res.Date).Format(time.RFC1123),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			f.SetCellValue(sheet, cell, v)
		}
	}

	if err := os.MkdirAll(s.exportDir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	outfile := filepath.Join(s.exportDir, course.Name+"-results.xlsx")
	if err := f.SaveAs(outfile); err != nil {
		return "", fmt.Errorf("write workbook: %w", err)
	}

	s.log.Info().Str("course", course.Name).Int("results", len(results)).Msg("Results exported")
	return outfile, nil
}

// QuestionsJSON dumps a course's full question bank (answers included)
// to a .json file and returns the file path.
func (s *ExportService) QuestionsJSON(ctx context.Context, courseID uuid.UUID) (string, error) {
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrCourseNotFound
		}
		return "", fmt.Errorf("get course: %w", err)
	}

	raw, err := json.MarshalIndent(course.Questions, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal questions: %w", err)
	}

	if err := os.MkdirAll(s.exportDir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	outfile := filepath.Join(s.exportDir, course.Name+"-questions.json")
	if err := os.WriteFile(outfile, raw, 0o644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return outfile, nil
}

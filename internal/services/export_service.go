package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/vantagecare/questionnaire-service/internal/models"
	"github.com/vantagecare/questionnaire-service/internal/repositories"
	"github.com/xuri/excelize/v2"
)

// ExportService renders stored score results as downloadable files for
// clinician review.
type ExportService interface {
	ExportResultsToCSV(ctx context.Context, questionnaireID uint, configID *uint) ([]byte, error)
	ExportResultsToExcel(ctx context.Context, questionnaireID uint, configID *uint) ([]byte, error)
}

type exportService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewExportService(repo repositories.Repository, logger *slog.Logger) ExportService {
	return &exportService{
		repo:   repo,
		logger: logger,
	}
}

var resultExportHeaders = []string{
	"Response ID", "Config ID", "Total Score", "Normalized Score",
	"Percentage", "Risk Level", "Risk Label", "Recommended Actions", "Calculated At",
}

func (s *exportService) ExportResultsToCSV(ctx context.Context, questionnaireID uint, configID *uint) ([]byte, error) {
	results, err := s.loadResults(ctx, questionnaireID, configID)
	if err != nil {
		return nil, err
	}

	var buf strings.Builder
	writer := csv.NewWriter(&buf)

	if err := writer.Write(resultExportHeaders); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, r := range results {
		if err := writer.Write(resultToRow(r)); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return []byte(buf.String()), nil
}

func (s *exportService) ExportResultsToExcel(ctx context.Context, questionnaireID uint, configID *uint) ([]byte, error) {
	results, err := s.loadResults(ctx, questionnaireID, configID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	sheetName := "Score Results"

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	for col, header := range resultExportHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(sheetName, cell, header)
	}

	for rowIdx, r := range results {
		for col, value := range resultToRow(r) {
			cell, _ := excelize.CoordinatesToCellName(col+1, rowIdx+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}

	s.logger.Info("exported score results",
		"questionnaire_id", questionnaireID,
		"rows", len(results),
		"format", "xlsx")

	return buf.Bytes(), nil
}

func (s *exportService) loadResults(ctx context.Context, questionnaireID uint, configID *uint) ([]*models.ScoreResult, error) {
	results, err := s.repo.ScoreResult().List(ctx, repositories.ResultFilters{
		QuestionnaireID: questionnaireID,
		ConfigID:        configID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load score results: %w", err)
	}
	return results, nil
}

func resultToRow(r *models.ScoreResult) []string {
	return []string{
		r.ResponseID,
		fmt.Sprintf("%d", r.ConfigID),
		fmt.Sprintf("%.2f", r.TotalScore),
		fmt.Sprintf("%.2f", r.NormalizedScore),
		fmt.Sprintf("%.1f", r.Percentage),
		string(r.RiskLevel),
		r.RiskLabel,
		strings.Join(r.Actions, "; "),
		r.CalculatedAt.UTC().Format(time.RFC3339),
	}
}

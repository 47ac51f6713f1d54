package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// ExportService renders a filtered directory view as an XLSX workbook for
// compliance officers who live in spreadsheets
type ExportService struct {
	directory *DirectoryService
}

// NewExportService creates an export service
func NewExportService(directory *DirectoryService) *ExportService {
	return &ExportService{directory: directory}
}

var exportHeaders = []string{
	"Worker Name", "Job Title", "SOC Code", "CoS Reference", "Assignment Date",
	"Overall Status", "Risk Level", "Risk Score", "Red Flags",
	"Serious Breaches", "Breaches", "Pending", "Flagged Agents", "Last Assessed",
}

// ExportXLSX writes the full filtered result set (all pages) to a workbook
func (s *ExportService) ExportXLSX(ctx context.Context, tenantID string, filter *DirectoryFilter) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Compliance Directory"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for i, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}
	endCell, _ := excelize.CoordinatesToCellName(len(exportHeaders), 1)
	f.SetCellStyle(sheet, "A1", endCell, headerStyle)

	page := *filter
	page.Page = 1
	page.PageSize = 100
	row := 2
	for {
		result, err := s.directory.Query(ctx, tenantID, &page)
		if err != nil {
			return nil, err
		}
		for _, entry := range result.Workers {
			s.writeRow(f, sheet, row, &entry)
			row++
		}
		if !result.HasMore {
			break
		}
		page.Page++
	}

	f.SetColWidth(sheet, "A", "A", 24)
	f.SetColWidth(sheet, "B", "E", 18)
	f.SetColWidth(sheet, "M", "N", 28)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}
	return buf, nil
}

func (s *ExportService) writeRow(f *excelize.File, sheet string, row int, entry *DirectoryEntry) {
	w := entry.Worker
	values := []interface{}{
		w.Name, w.JobTitle, w.SOCCode, w.CoSReference,
		w.AssignmentDate.Format("2006-01-02"),
	}
	if agg := entry.Aggregate; agg != nil {
		last := ""
		if !agg.LastAssessedAt.IsZero() {
			last = agg.LastAssessedAt.UTC().Format(time.RFC3339)
		}
		values = append(values,
			string(agg.OverallStatus), string(agg.OverallRiskLevel), agg.GlobalRiskScore,
			agg.TotalRedFlags, agg.SeriousBreachCount, agg.BreachCount, agg.PendingCount,
			strings.Join(agg.FlaggedAgents, ", "), last)
	} else {
		values = append(values, "NOT_ASSESSED", "", "", "", "", "", "", "", "")
	}

	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		f.SetCellValue(sheet, cell, v)
	}
}

// ExportFilename builds a timestamped download name
func ExportFilename() string {
	return fmt.Sprintf("compliance-directory-%s.xlsx", time.Now().UTC().Format("2006-01-02"))
}

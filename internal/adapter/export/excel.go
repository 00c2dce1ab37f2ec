// Package export renders analysis records into spreadsheet form.
package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/fairyhunter13/ai-resume-screener/internal/domain"
)

const sheetName = "Results"

var columns = []string{"ID", "Name", "Email", "Mobile", "Score", "Status", "Recommendation", "Strengths", "Gaps", "Job Title", "Resume Path", "Date Added"}

// Excel writes records into an xlsx workbook held in memory.
func Excel(records []domain.ResumeRecord) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	f.SetSheetName("Sheet1", sheetName)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("op=export.Excel: style: %w", err)
	}
	shortlistedStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"C6EFCE"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("op=export.Excel: style: %w", err)
	}

	for col, header := range columns {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, fmt.Errorf("op=export.Excel: cell: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return nil, fmt.Errorf("op=export.Excel: header: %w", err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			return nil, fmt.Errorf("op=export.Excel: header style: %w", err)
		}
	}

	for i, rec := range records {
		row := i + 2
		values := []any{
			rec.ID, rec.Name, rec.Email, rec.Mobile, rec.Score, string(rec.Status),
			rec.Recommendation, rec.Strengths, rec.Gaps, rec.JobTitle, rec.ResumePath,
			rec.DateAdded.Format("2006-01-02"),
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return nil, fmt.Errorf("op=export.Excel: cell: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return nil, fmt.Errorf("op=export.Excel: value: %w", err)
			}
		}
		if rec.Status == domain.StatusShortlisted {
			start, _ := excelize.CoordinatesToCellName(1, row)
			end, _ := excelize.CoordinatesToCellName(len(columns), row)
			if err := f.SetCellStyle(sheetName, start, end, shortlistedStyle); err != nil {
				return nil, fmt.Errorf("op=export.Excel: row style: %w", err)
			}
		}
	}

	if len(records) > 0 {
		end, _ := excelize.CoordinatesToCellName(len(columns), len(records)+1)
		if err := f.AutoFilter(sheetName, "A1:"+end, nil); err != nil {
			return nil, fmt.Errorf("op=export.Excel: autofilter: %w", err)
		}
	}
	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("op=export.Excel: panes: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("op=export.Excel: write: %w", err)
	}
	return buf, nil
}

package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/iamSachinDev/transcription-workflow-api/internal/domain/entity"
)

const sheetName = "Workflows"

var headers = []string{
	"ID", "Transcription ID", "Current State", "Steps",
	"Last Assignee", "Last Notes", "Created At", "Updated At",
}

// Exporter writes workflow review reports as xlsx
type Exporter struct {
	logger *zap.Logger
}

// NewExporter creates a new report exporter
func NewExporter(logger *zap.Logger) *Exporter {
	return &Exporter{logger: logger}
}

// Write renders one row per workflow into an xlsx document on w
func (e *Exporter) Write(w io.Writer, workflows []*entity.Workflow) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to remove default sheet: %w", err)
	}

	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("failed to compute header cell: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	for i, wf := range workflows {
		row := i + 2

		assignee, notes := "", ""
		if step := wf.CurrentStep(); step != nil {
			assignee = step.Assignee
		}
		// the most recent notes live on the last closed step
		for j := len(wf.Steps) - 1; j >= 0; j-- {
			if wf.Steps[j].Notes != "" {
				notes = wf.Steps[j].Notes
				break
			}
		}

		values := []interface{}{
			wf.ID,
			wf.TranscriptionID,
			wf.CurrentState.String(),
			len(wf.Steps),
			assignee,
			notes,
			wf.CreatedAt.Format("2006-01-02 15:04:05"),
			wf.UpdatedAt.Format("2006-01-02 15:04:05"),
		}

		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return fmt.Errorf("failed to compute cell: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return fmt.Errorf("failed to write row %d: %w", row, err)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	e.logger.Info("Workflow report written", zap.Int("workflows", len(workflows)))
	return nil
}

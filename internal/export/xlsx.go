package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/lueurxax/trend-dashboard/internal/trends"
)

const (
	sheetName        = "Trends"
	defaultSheetName = "Sheet1"
	scoreNumFmt      = 2 // 0.00
	wideColumnWidth  = 60
	textColumnWidth  = 24
	scoreColumnWidth = 8
)

// WriteXLSX writes rows to a single-sheet workbook with a bold, frozen header row.
func WriteXLSX(w io.Writer, rows []trends.ExportRow) error {
	f := excelize.NewFile()

	defer func() {
		_ = f.Close()
	}()

	if err := f.SetSheetName(defaultSheetName, sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]any, len(columns))
	for i, c := range columns {
		header[i] = c
	}

	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}

		values := xlsxValues(row)
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if err := styleSheet(f, len(rows)); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}

	return nil
}

func xlsxValues(row trends.ExportRow) []any {
	values := make([]any, 0, len(columns))

	if row.Score != nil {
		values = append(values, *row.Score)
	} else {
		values = append(values, "")
	}

	for _, v := range rowValues(row)[1:] {
		values = append(values, v)
	}

	return values
}

func styleSheet(f *excelize.File, rowCount int) error {
	lastCol, err := excelize.ColumnNumberToName(len(columns))
	if err != nil {
		return fmt.Errorf("column name: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	if err := f.SetCellStyle(sheetName, "A1", lastCol+"1", bold); err != nil {
		return fmt.Errorf("apply header style: %w", err)
	}

	if rowCount > 0 {
		score, err := f.NewStyle(&excelize.Style{NumFmt: scoreNumFmt})
		if err != nil {
			return fmt.Errorf("score style: %w", err)
		}

		if err := f.SetCellStyle(sheetName, "A2", fmt.Sprintf("A%d", rowCount+1), score); err != nil {
			return fmt.Errorf("apply score style: %w", err)
		}
	}

	widths := []struct {
		from, to string
		width    float64
	}{
		{"A", "A", scoreColumnWidth},
		{"B", "C", textColumnWidth},
		{"D", "E", wideColumnWidth},
		{"F", "G", textColumnWidth / 2},
	}

	for _, cw := range widths {
		if err := f.SetColWidth(sheetName, cw.from, cw.to, cw.width); err != nil {
			return fmt.Errorf("set column width: %w", err)
		}
	}

	err = f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
	if err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	return nil
}

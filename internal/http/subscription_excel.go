package httpapi

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/MichielDePaepe/RadioAssetManagement/internal/domain"
	"github.com/MichielDePaepe/RadioAssetManagement/internal/feed"
)

// SubscriptionImportHeader the column layout the feed parser expects.
var SubscriptionImportHeader = []string{
	feed.ColTEI,
	feed.ColISSI,
	feed.ColAlias,
	feed.ColModelType,
}

// SubscriptionExportHeader export layout, feed columns plus derived fields.
var SubscriptionExportHeader = []string{
	feed.ColTEI,
	feed.ColISSI,
	feed.ColAlias,
	"Customer",
	"Active",
	"DMO Only",
	"Created",
}

// GenerateSubscriptionImportTemplate an empty workbook with the feed
// columns, for hand-made uploads.
func GenerateSubscriptionImportTemplate() ([]byte, error) {
	return generateSubscriptionExcel(SubscriptionImportHeader, nil)
}

// GenerateSubscriptionExport the current subscription list as a workbook.
func GenerateSubscriptionExport(subs []*domain.Subscription) ([]byte, error) {
	return generateSubscriptionExcel(SubscriptionExportHeader, subs)
}

func generateSubscriptionExcel(headers []string, subs []*domain.Subscription) ([]byte, error) {
	f := excelize.NewFile()

	sheetName := "Subscriptions"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
	}

	columnWidths := []float64{18, 12, 20, 20, 10, 10, 20}
	for i := 0; i < len(headers); i++ {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert column number: %w", err)
		}
		if i < len(columnWidths) {
			if err := f.SetColWidth(sheetName, col, col, columnWidths[i]); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to set column width: %w", err)
			}
		}
	}

	for rowIdx, sub := range subs {
		row := rowIdx + 2
		values := []any{
			fmt.Sprintf("%014d", sub.RadioTEI),
			sub.ISSINumber,
			sub.AstridAlias,
			sub.CustomerName.String,
			boolCell(sub.Active),
			boolCell(sub.DMOOnly),
			"",
		}
		if sub.CreatedAt.Valid {
			values[6] = sub.CreatedAt.Time.Format(time.RFC3339)
		}
		for colIdx, value := range values {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, row)
			if err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to convert coordinates: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to set cell %s: %w", cell, err)
			}
		}
	}

	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to freeze panes: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write to buffer: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close file: %w", err)
	}
	return buf.Bytes(), nil
}

func boolCell(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

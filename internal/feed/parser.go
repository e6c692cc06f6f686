package feed

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/MichielDePaepe/RadioAssetManagement/internal/domain"
)

// Column names of the subscription export. Columns are addressed by name,
// not by position.
const (
	ColTEI       = "TEI"
	ColISSI      = "ISSI"
	ColAlias     = "CICAlias"
	ColModelType = "ModelType"
)

// spare subscriptions are placeholders without a physical radio behind them
const spareSubscriptionType = "Spare subscription"

var requiredColumns = []string{ColTEI, ColISSI, ColAlias, ColModelType}

// ParseResult the normalized candidate set extracted from one export.
type ParseResult struct {
	// Pairs in sheet order, deduplicated on (TEI, ISSI).
	Pairs []domain.Pair
	// Alias per pair (empty string when the export carries none).
	Aliases map[domain.Pair]string
	// RowErrors rows excluded for malformed TEI/ISSI, in sheet order.
	RowErrors []*RowError
	// Skipped rows without TEI/ISSI or flagged as spare subscriptions.
	Skipped int
}

// Contains reports whether the candidate set holds the pair.
func (r *ParseResult) Contains(p domain.Pair) bool {
	_, ok := r.Aliases[p]
	return ok
}

// Parse reads a subscription export (xlsx bytes) into a candidate set.
// Rows with an empty TEI or ISSI and spare-subscription placeholders are
// skipped silently; rows with malformed values are collected as RowErrors.
// Parsing the same bytes always yields the same result.
func Parse(data []byte) (*ParseResult, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("Excel file has no sheets")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, &MissingColumnError{Column: ColTEI}
	}

	col := make(map[string]int)
	for i, name := range rows[0] {
		col[name] = i
	}
	for _, name := range requiredColumns {
		if _, ok := col[name]; !ok {
			return nil, &MissingColumnError{Column: name}
		}
	}

	result := &ParseResult{
		Aliases: make(map[domain.Pair]string),
	}

	for rowIdx := 1; rowIdx < len(rows); rowIdx++ {
		row := rows[rowIdx]
		rawTEI := cell(row, col[ColTEI])
		rawISSI := cell(row, col[ColISSI])
		rawAlias := cell(row, col[ColAlias])
		modelType := cell(row, col[ColModelType])

		// Rows without both identifiers carry no subscription.
		if rawTEI == "" || rawISSI == "" {
			result.Skipped++
			continue
		}
		if modelType == spareSubscriptionType {
			result.Skipped++
			continue
		}

		tei, err := domain.NormalizeTEI(rawTEI)
		if err != nil {
			result.RowErrors = append(result.RowErrors, &RowError{
				Row: rowIdx + 1, RawTEI: rawTEI, RawISSI: rawISSI, Reason: err.Error(),
			})
			continue
		}
		issi, err := domain.ParseISSI(rawISSI)
		if err != nil {
			result.RowErrors = append(result.RowErrors, &RowError{
				Row: rowIdx + 1, RawTEI: rawTEI, RawISSI: rawISSI, Reason: err.Error(),
			})
			continue
		}

		pair := domain.Pair{TEI: tei, ISSI: issi}
		if _, seen := result.Aliases[pair]; !seen {
			result.Pairs = append(result.Pairs, pair)
		}
		result.Aliases[pair] = rawAlias
	}

	return result, nil
}

func cell(row []string, idx int) string {
	if idx < len(row) {
		return strings.TrimSpace(row[idx])
	}
	return ""
}

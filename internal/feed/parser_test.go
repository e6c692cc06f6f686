package feed

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/MichielDePaepe/RadioAssetManagement/internal/domain"
)

func buildWorkbook(t *testing.T, header []string, rows [][]any) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	headerRow := make([]any, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	require.NoError(t, f.SetSheetRow(sheet, "A1", &headerRow))
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)
	return buf.Bytes()
}

var feedHeader = []string{ColTEI, ColISSI, ColAlias, ColModelType}

func TestParseValidRows(t *testing.T) {
	data := buildWorkbook(t, feedHeader, [][]any{
		{"123456789012340", "2090001", "PUMPER 01", "TPH900"},
		{"22345678901234", "2090002", "", "TPH900"},
	})

	result, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, []domain.Pair{
		{TEI: 12345678901234, ISSI: 2090001},
		{TEI: 22345678901234, ISSI: 2090002},
	}, result.Pairs)
	assert.Equal(t, "PUMPER 01", result.Aliases[domain.Pair{TEI: 12345678901234, ISSI: 2090001}])
	assert.Empty(t, result.RowErrors)
	assert.Zero(t, result.Skipped)
}

func TestParseSkipsEmptyAndSpareRows(t *testing.T) {
	data := buildWorkbook(t, feedHeader, [][]any{
		{"", "2090001", "NO RADIO", "TPH900"},
		{"12345678901234", "", "NO ISSI", "TPH900"},
		{"22345678901234", "2090002", "SPARE", "Spare subscription"},
		{"32345678901234", "2090003", "REAL", "TPH900"},
	})

	result, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Skipped)
	assert.Equal(t, []domain.Pair{{TEI: 32345678901234, ISSI: 2090003}}, result.Pairs)
}

func TestParseCollectsRowErrors(t *testing.T) {
	data := buildWorkbook(t, feedHeader, [][]any{
		{"not-a-tei", "2090001", "", "TPH900"},
		{"123456789012345", "2090002", "", "TPH900"}, // 15 digits, no trailing zero
		{"12345678901234", "bad", "", "TPH900"},
		{"22345678901234", "2090004", "OK", "TPH900"},
	})

	result, err := Parse(data)
	require.NoError(t, err)

	require.Len(t, result.RowErrors, 3)
	assert.Equal(t, 2, result.RowErrors[0].Row)
	assert.Equal(t, "not-a-tei", result.RowErrors[0].RawTEI)
	// the valid row still lands
	assert.Equal(t, []domain.Pair{{TEI: 22345678901234, ISSI: 2090004}}, result.Pairs)
}

func TestParseDeduplicatesPairs(t *testing.T) {
	data := buildWorkbook(t, feedHeader, [][]any{
		{"12345678901234", "2090001", "FIRST", "TPH900"},
		{"12345678901234", "2090001", "SECOND", "TPH900"},
	})

	result, err := Parse(data)
	require.NoError(t, err)

	require.Len(t, result.Pairs, 1)
	// last alias wins
	assert.Equal(t, "SECOND", result.Aliases[domain.Pair{TEI: 12345678901234, ISSI: 2090001}])
}

func TestParseMissingColumn(t *testing.T) {
	data := buildWorkbook(t, []string{ColTEI, ColISSI, ColAlias}, nil)

	_, err := Parse(data)
	var missing *MissingColumnError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, ColModelType, missing.Column)
}

func TestParseDeterministic(t *testing.T) {
	data := buildWorkbook(t, feedHeader, [][]any{
		{"12345678901234", "2090001", "A", "TPH900"},
		{"22345678901234", "2090002", "B", "TPH900"},
	})

	first, err := Parse(data)
	require.NoError(t, err)
	second, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, first.Pairs, second.Pairs)
	assert.Equal(t, first.Aliases, second.Aliases)
}

package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTEI(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    int64
		wantErr bool
	}{
		{name: "plain 14 digits", raw: "12345678901234", want: 12345678901234},
		{name: "padded 15 digits drops trailing zero", raw: "123456789012340", want: 12345678901234},
		{name: "surrounding whitespace", raw: "  12345678901234 ", want: 12345678901234},
		{name: "short value passes through", raw: "42", want: 42},
		{name: "15 digits not ending in zero", raw: "123456789012345", wantErr: true},
		{name: "empty", raw: "", wantErr: true},
		{name: "whitespace only", raw: "   ", wantErr: true},
		{name: "non numeric", raw: "ABC123", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeTEI(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeTEIRoundTrip(t *testing.T) {
	// the padded export form must normalize back to the canonical TEI
	r := Radio{TEI: 12345678901234}
	padded := r.TEIString() + "0"

	got, err := NormalizeTEI(padded)
	require.NoError(t, err)
	assert.Equal(t, r.TEI, got)
}

func TestParseISSI(t *testing.T) {
	got, err := ParseISSI(" 2090001 ")
	require.NoError(t, err)
	assert.Equal(t, int64(2090001), got)

	_, err = ParseISSI("")
	require.Error(t, err)

	_, err = ParseISSI("20x9")
	require.Error(t, err)
}

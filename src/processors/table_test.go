// backend/src/processors/table_test.go
package processors

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadTableSensesDelimiter(t *testing.T) {
	csv := "\ufeffKierowca;Identyfikator kierowcy;Zarobki netto|ZŁ\n" +
		"Jan Kowalski;abc-123;150,50\n"

	rows, err := LoadTable(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, "Jan Kowalski", rows[0]["Kierowca"])
	assert.Equal(t, "abc-123", rows[0]["Identyfikator kierowcy"])
	assert.Equal(t, "150,50", rows[0]["Zarobki netto|ZŁ"])
}

func TestLoadTableCommaDefault(t *testing.T) {
	csv := "a,b,c\n1,2,3\n4,5,6\n"

	rows, err := LoadTable(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "5", rows[1]["b"])
}

func TestLoadTableRejectsSingleColumn(t *testing.T) {
	_, err := LoadTable(strings.NewReader("just one header\nvalue\n"))
	assert.Error(t, err)
}

func TestMapColumnsCoercesNumerics(t *testing.T) {
	rows := []map[string]string{
		{
			"Kierowca":                   "Jan Kowalski",
			"Identyfikator kierowcy":     "abc-123",
			"Zarobki netto|ZŁ":           "150,50",
			"Zarobki brutto (ogółem)|ZŁ": " \"1 200,00\" ",
			"Opłaty ogółem|ZŁ":           "garbage",
			"Pobrana gotówka|ZŁ":         "",
			"Kolumna nieznana":           "ignored",
		},
	}

	canonical := MapColumns(rows, boltConfig)
	require.Len(t, canonical, 1)
	row := canonical[0]

	assert.Equal(t, "Jan Kowalski", row.DriverName)
	assert.Equal(t, "abc-123", row.PlatformID)
	assert.InDelta(t, 150.50, row.Val(FieldNetIncome), 1e-9)
	assert.InDelta(t, 1200.00, row.Val(FieldGrossTotal), 1e-9)
	assert.Zero(t, row.Val(FieldExpensesTotal))
	assert.Zero(t, row.Val(FieldCashCollected))

	// Columns absent from the file still read as zero.
	assert.Zero(t, row.Val(FieldCampaign))
	assert.Zero(t, row.Val(FieldRefunds))
}

func TestMapColumnsUberIdentity(t *testing.T) {
	rows := []map[string]string{
		{
			"Identyfikator UUID kierowcy":  " uuid-9 ",
			"Imię kierowcy":                "Anna",
			"Nazwisko kierowcy":            "Nowak",
			"Wypłacono Ci : Twój przychód": "321.45",
		},
	}

	canonical := MapColumns(rows, uberConfig)
	require.Len(t, canonical, 1)

	assert.Equal(t, "uuid-9", canonical[0].PlatformID)
	assert.Equal(t, "Anna", canonical[0].FirstName)
	assert.Equal(t, "Nowak", canonical[0].LastName)
	assert.InDelta(t, 321.45, canonical[0].Val(FieldGrossNetIncome), 1e-9)
}

func TestParseNumericCell(t *testing.T) {
	testCases := []struct {
		in   string
		want float64
	}{
		{"150,50", 150.50},
		{"150.50", 150.50},
		{"\"1 234,56\"", 1234.56},
		{"-42,10", -42.10},
		{"", 0},
		{"   ", 0},
		{"n/a", 0},
	}

	for _, tc := range testCases {
		assert.InDelta(t, tc.want, parseNumericCell(tc.in), 1e-9, "input %q", tc.in)
	}
}

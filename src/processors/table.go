// backend/src/processors/table.go
package processors

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// LoadTable parses delimited text into ordered rows of source header ->
// raw cell value. The delimiter is sensed from the header line (comma,
// semicolon or tab — Bolt exports commas, Uber sometimes semicolons); if the
// sensed delimiter fails to parse, one retry is made from the start of the
// data with a plain comma before giving up.
func LoadTable(r io.Reader) ([]map[string]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	rows, err := parseCSV(data, senseDelimiter(data))
	if err != nil {
		rows, err = parseCSV(data, ',')
		if err != nil {
			return nil, fmt.Errorf("parse csv: %w", err)
		}
	}
	return rows, nil
}

// senseDelimiter picks the candidate separator that occurs most often in the
// header line. Ties and absence both fall back to comma.
func senseDelimiter(data []byte) rune {
	header := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		header = data[:i]
	}

	best, bestCount := ',', 0
	for _, cand := range []byte{',', ';', '\t'} {
		if n := bytes.Count(header, []byte{cand}); n > bestCount {
			best, bestCount = rune(cand), n
		}
	}
	return best
}

func parseCSV(data []byte, delimiter rune) ([]map[string]string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1 // vendor exports are ragged at times

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	if len(header) < 2 {
		// A single-column header almost always means the wrong delimiter.
		return nil, fmt.Errorf("header has %d column(s) with delimiter %q", len(header), delimiter)
	}

	var rows []map[string]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		row := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(record) {
				row[name] = record[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// CanonicalRow is one export row after column mapping. Every numeric field
// declared by the platform config is present in Numeric (absent or blank
// source cells become 0.0), so the calculators never test for presence.
type CanonicalRow struct {
	PlatformID string
	DriverName string
	FirstName  string
	LastName   string
	ReportDate string // YYYY-MM-DD, same for every row of a file
	Numeric    map[string]float64
}

// Val returns a numeric canonical field; missing keys read as zero.
func (r CanonicalRow) Val(field string) float64 {
	return r.Numeric[field]
}

// MapColumns renames the source columns of a raw table to canonical fields
// per the platform config. Source columns outside the mapping are dropped,
// numeric fields are coerced (bad or blank cells become 0.0, wholly absent
// columns become all-zero), and identity fields pass through trimmed.
func MapColumns(rows []map[string]string, cfg *PlatformConfig) []CanonicalRow {
	numeric := make(map[string]bool, len(cfg.NumericFields))
	for _, f := range cfg.NumericFields {
		numeric[f] = true
	}

	canonical := make([]CanonicalRow, 0, len(rows))
	for _, raw := range rows {
		row := CanonicalRow{Numeric: make(map[string]float64, len(cfg.NumericFields))}
		for _, f := range cfg.NumericFields {
			row.Numeric[f] = 0.0
		}

		for source, field := range cfg.ColumnMapping {
			cell, ok := raw[source]
			if !ok {
				continue
			}
			if numeric[field] {
				row.Numeric[field] = parseNumericCell(cell)
				continue
			}
			value := strings.TrimSpace(cell)
			switch field {
			case FieldPlatformID:
				row.PlatformID = value
			case FieldDriverName:
				row.DriverName = value
			case FieldFirstName:
				row.FirstName = value
			case FieldLastName:
				row.LastName = value
			}
		}
		canonical = append(canonical, row)
	}
	return canonical
}

// parseNumericCell coerces a raw cell to float64. Polish exports sometimes
// use a decimal comma; blank or malformed cells are zero, never an error.
func parseNumericCell(cell string) float64 {
	cleaned := strings.TrimSpace(cell)
	cleaned = strings.Trim(cleaned, "\"")
	if cleaned == "" {
		return 0.0
	}
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	cleaned = strings.ReplaceAll(cleaned, ",", ".")
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0.0
	}
	return v
}

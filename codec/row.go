package codec

import (
	"fmt"
	"strings"
)

// Row format constants. The delimiter and quote are fixed: the row format
// exists for spreadsheet-style exports, which are comma/double-quote.
const (
	rowDelimiter = ','
	rowQuote     = '"'
)

// RowCodec converts one record to and from a row of column values. The
// column order is the record type's field declaration order, which is why
// implementations are generated per model rather than written generically.
type RowCodec[R any] interface {
	// Columns returns the header names in column order.
	Columns() []string
	// Encode maps a record to its column values, one per column.
	Encode(record R) []string
	// Decode maps column values back to a record. The input always has
	// exactly len(Columns()) entries; short rows are padded by the caller.
	Decode(fields []string) (R, error)
}

// SplitRows tokenizes row-format text into rows of fields.
//
// The scan tracks a single in_quotes flag. A quote toggles quoting, except
// that a doubled quote inside a quoted field emits one literal quote. The
// delimiter and line breaks are boundaries only outside quotes. End of
// input always closes the current field, even when a quote was left open;
// malformed trailing rows degrade instead of failing. Blank lines are
// skipped.
func SplitRows(data []byte) [][]string {
	var (
		rows     [][]string
		row      []string
		field    strings.Builder
		inQuotes bool
		hasData  bool // current row saw any character, delimiter, or quote
	)

	flushField := func() {
		row = append(row, field.String())
		field.Reset()
	}
	flushRow := func() {
		flushField()
		if hasData {
			rows = append(rows, row)
		}
		row = nil
		hasData = false
	}

	for i := 0; i < len(data); i++ {
		c := data[i]
		switch {
		case c == rowQuote:
			if inQuotes && i+1 < len(data) && data[i+1] == rowQuote {
				field.WriteByte(rowQuote)
				i++
			} else {
				inQuotes = !inQuotes
			}
			hasData = true
		case c == rowDelimiter && !inQuotes:
			flushField()
			hasData = true
		case c == '\n' && !inQuotes:
			flushRow()
		case c == '\r' && !inQuotes:
			// part of a \r\n row break; a bare \r is dropped the same way
		default:
			field.WriteByte(c)
			hasData = true
		}
	}
	if hasData {
		flushRow()
	}
	return rows
}

// EscapeField quotes a field when it contains the delimiter, a quote, or a
// line break; embedded quotes are doubled.
func EscapeField(field string) string {
	if !strings.ContainsAny(field, "\",\n\r") {
		return field
	}
	return string(rowQuote) + strings.ReplaceAll(field, `"`, `""`) + string(rowQuote)
}

// JoinRows renders rows of fields as row-format text, one row per line.
func JoinRows(rows [][]string) []byte {
	var b strings.Builder
	for _, row := range rows {
		for i, f := range row {
			if i > 0 {
				b.WriteByte(rowDelimiter)
			}
			b.WriteString(EscapeField(f))
		}
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

// DecodeRows parses row-format text into records via the model's RowCodec.
// The first row is the header and is skipped; data rows shorter than the
// column list are padded with empty fields, longer ones are truncated.
func DecodeRows[R any](data []byte, rc RowCodec[R]) ([]R, error) {
	rows := SplitRows(data)
	if len(rows) == 0 {
		return nil, nil
	}
	width := len(rc.Columns())
	records := make([]R, 0, len(rows)-1)
	for n, row := range rows[1:] {
		switch {
		case len(row) < width:
			padded := make([]string, width)
			copy(padded, row)
			row = padded
		case len(row) > width:
			row = row[:width]
		}
		record, err := rc.Decode(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", n+2, err)
		}
		records = append(records, record)
	}
	return records, nil
}

// EncodeRows renders records as row-format text with a leading header row.
func EncodeRows[R any](records []R, rc RowCodec[R]) []byte {
	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, rc.Columns())
	for _, r := range records {
		rows = append(rows, rc.Encode(r))
	}
	return JoinRows(rows)
}

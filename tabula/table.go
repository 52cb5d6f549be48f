package tabula

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// RawCell is a single cell of the jar's JSON output.
type RawCell struct {
	Top    float64 `json:"top"`
	Left   float64 `json:"left"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Text   string  `json:"text"`
}

// RawTable is one table of the jar's JSON output, geometry included.
type RawTable struct {
	ExtractionMethod string      `json:"extraction_method"`
	Top              float64     `json:"top"`
	Left             float64     `json:"left"`
	Width            float64     `json:"width"`
	Height           float64     `json:"height"`
	Right            float64     `json:"right"`
	Bottom           float64     `json:"bottom"`
	Data             [][]RawCell `json:"data"`
}

// Table is an extracted table. Cells are plain text and a missing value is
// an empty string.
type Table struct {
	// Columns holds inferred or supplied column names. Nil when header
	// handling is disabled.
	Columns []string
	// Rows holds the data rows, header excluded when one was inferred.
	Rows [][]string
	// ExtractionMethod records how the jar located this table, when known.
	ExtractionMethod string
}

// RowCount returns the number of data rows.
func (t *Table) RowCount() int {
	return len(t.Rows)
}

// ColCount returns the number of columns, preferring the header width.
func (t *Table) ColCount() int {
	if len(t.Columns) > 0 {
		return len(t.Columns)
	}

	if len(t.Rows) > 0 {
		return len(t.Rows[0])
	}

	return 0
}

// Column returns the values under the named column, or nil when the table
// has no such column.
func (t *Table) Column(name string) []string {
	index := -1

	for i, col := range t.Columns {
		if col == name {
			index = i

			break
		}
	}

	if index < 0 {
		return nil
	}

	values := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		if index < len(row) {
			values[i] = row[index]
		}
	}

	return values
}

// ToCSV writes the table in CSV form, header row first when present.
func (t *Table) ToCSV(w io.Writer) error {
	writer := csv.NewWriter(w)

	if len(t.Columns) > 0 {
		headerErr := writer.Write(t.Columns)
		if headerErr != nil {
			return fmt.Errorf("failed to write header: %w", headerErr)
		}
	}

	for _, row := range t.Rows {
		rowErr := writer.Write(row)
		if rowErr != nil {
			return fmt.Errorf("failed to write row: %w", rowErr)
		}
	}

	writer.Flush()

	flushErr := writer.Error()
	if flushErr != nil {
		return fmt.Errorf("failed to flush csv: %w", flushErr)
	}

	return nil
}

// ToMarkdown renders the table as a GitHub-style markdown table. Tables
// without a header get positional column names.
func (t *Table) ToMarkdown() string {
	width := t.ColCount()
	if width == 0 {
		return ""
	}

	header := t.Columns
	if len(header) == 0 {
		header = make([]string, width)
		for i := range header {
			header[i] = strconv.Itoa(i)
		}
	}

	var builder strings.Builder

	writeMarkdownRow(&builder, header, width)

	builder.WriteString("|")

	for range width {
		builder.WriteString(" --- |")
	}

	builder.WriteString("\n")

	for _, row := range t.Rows {
		writeMarkdownRow(&builder, row, width)
	}

	return builder.String()
}

func writeMarkdownRow(builder *strings.Builder, cells []string, width int) {
	builder.WriteString("|")

	for i := range width {
		cell := ""
		if i < len(cells) {
			cell = strings.ReplaceAll(cells[i], "|", "\\|")
		}

		builder.WriteString(" " + cell + " |")
	}

	builder.WriteString("\n")
}

// tablesFromRaw converts the jar's JSON document into Tables, applying the
// header shaping options. Tables without data are skipped.
func tablesFromRaw(rawTables []RawTable, opt Options) ([]*Table, error) {
	tables := make([]*Table, 0, len(rawTables))

	for _, raw := range rawTables {
		if len(raw.Data) == 0 {
			continue
		}

		rows := make([][]string, len(raw.Data))
		for i, rawRow := range raw.Data {
			row := make([]string, len(rawRow))
			for j, cell := range rawRow {
				row[j] = cell.Text
			}

			rows[i] = row
		}

		table, assembleErr := assembleTable(rows, raw.ExtractionMethod, opt)
		if assembleErr != nil {
			return nil, assembleErr
		}

		tables = append(tables, table)
	}

	return tables, nil
}

// assembleTable shapes rows into a Table. Unless disabled, the header row is
// popped from the data and cleaned up: blank names become "Unnamed: N" and
// duplicates get a ".N" suffix.
func assembleTable(rows [][]string, method string, opt Options) (*Table, error) {
	columns := append([]string(nil), opt.Names...)

	if !opt.NoHeader && len(columns) == 0 {
		if opt.HeaderRow < 0 || opt.HeaderRow >= len(rows) {
			return nil, fmt.Errorf(
				"%w: row %d of %d",
				ErrHeaderRowOutOfRange,
				opt.HeaderRow,
				len(rows),
			)
		}

		columns = append([]string(nil), rows[opt.HeaderRow]...)

		remaining := make([][]string, 0, len(rows)-1)
		remaining = append(remaining, rows[:opt.HeaderRow]...)
		remaining = append(remaining, rows[opt.HeaderRow+1:]...)
		rows = remaining

		nameUnnamedColumns(columns)
		dedupeColumns(columns)
	}

	return &Table{
		Columns:          columns,
		Rows:             rows,
		ExtractionMethod: method,
	}, nil
}

// nameUnnamedColumns replaces blank header cells with "Unnamed: N", where N
// counts the blanks seen so far.
func nameUnnamedColumns(columns []string) {
	unnamed := 0

	for i, col := range columns {
		if col == "" {
			columns[i] = fmt.Sprintf("Unnamed: %d", unnamed)
			unnamed++
		}
	}
}

// dedupeColumns suffixes repeated column names with ".N" so every name is
// unique, re-checking that the suffixed name is itself unused.
func dedupeColumns(columns []string) {
	counts := make(map[string]int)

	for i, col := range columns {
		cur := counts[col]

		for cur > 0 {
			counts[col] = cur + 1
			col = fmt.Sprintf("%s.%d", col, cur)
			cur = counts[col]
		}

		columns[i] = col
		counts[col] = cur + 1
	}
}

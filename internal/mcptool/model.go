package mcptool

import (
	"github.com/book-expert/tabula-client/tabula"
)

const (
	defaultMaxTables = 10
	maxMaxTables     = 50
)

// TableContent is one extracted table rendered for the model.
type TableContent struct {
	Index            int    `json:"index"                       jsonschema:"position of the table in the document, starting at 1"`
	ExtractionMethod string `json:"extraction_method,omitempty" jsonschema:"how the table was detected: lattice or stream"`
	Rows             int    `json:"rows"                        jsonschema:"number of data rows"`
	Columns          int    `json:"columns"                     jsonschema:"number of columns"`
	Markdown         string `json:"markdown"                    jsonschema:"the table rendered as markdown"`
}

// ExtractResponse is shared by the extraction tools.
type ExtractResponse struct {
	Tables     []TableContent `json:"tables"     jsonschema:"the extracted tables"`
	TableCount int            `json:"table_count" jsonschema:"total number of tables found"`
	Truncated  bool           `json:"truncated"  jsonschema:"true when max_tables cut the list short"`
}

// newExtractResponse renders the tables, keeping at most maxTables of them.
func newExtractResponse(tables []*tabula.Table, maxTables int) ExtractResponse {
	maxTables = normalizeMaxTables(maxTables)

	contents := make([]TableContent, 0, len(tables))

	for i, table := range tables {
		if len(contents) >= maxTables {
			break
		}

		contents = append(contents, TableContent{
			Index:            i + 1,
			ExtractionMethod: table.ExtractionMethod,
			Rows:             table.RowCount(),
			Columns:          table.ColCount(),
			Markdown:         table.ToMarkdown(),
		})
	}

	return ExtractResponse{
		Tables:     contents,
		TableCount: len(tables),
		Truncated:  len(tables) > maxTables,
	}
}

func normalizeMaxTables(maxTables int) int {
	if maxTables <= 0 {
		return defaultMaxTables
	}

	if maxTables > maxMaxTables {
		return maxMaxTables
	}

	return maxTables
}

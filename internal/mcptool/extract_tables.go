package mcptool

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/book-expert/tabula-client/tabula"
)

// ExtractTablesRequest selects a document and how to read it.
type ExtractTablesRequest struct {
	Source    string `json:"source"              jsonschema:"path or URL of the PDF document"`
	Pages     string `json:"pages,omitempty"     jsonschema:"pages to extract: 1, 2-3, 1-2,4 or all; default is page 1"`
	Lattice   bool   `json:"lattice,omitempty"   jsonschema:"force lattice mode (ruling lines between cells)"`
	Stream    bool   `json:"stream,omitempty"    jsonschema:"force stream mode (whitespace between cells)"`
	Guess     *bool  `json:"guess,omitempty"     jsonschema:"guess table regions on each page; defaults to true"`
	Password  string `json:"password,omitempty"  jsonschema:"password for an encrypted document"`
	MaxTables int    `json:"max_tables,omitempty" jsonschema:"maximum tables to return; default 10, cap 50"`
}

type tableExtractor interface {
	ExtractTables(
		ctx context.Context,
		src string,
		opt tabula.Options,
	) ([]*tabula.Table, error)
}

// NewExtractTables builds the extract_tables tool handler.
func NewExtractTables(svc tableExtractor) *ExtractTables {
	return &ExtractTables{svc: svc}
}

// ExtractTables handles the extract_tables tool.
type ExtractTables struct {
	svc tableExtractor
}

// ExtractTables extracts every table of the document and renders each as
// markdown.
func (t *ExtractTables) ExtractTables(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ExtractTablesRequest,
) (*mcp.CallToolResult, ExtractResponse, error) {
	opt := tabula.Options{
		Pages:    input.Pages,
		Lattice:  input.Lattice,
		Stream:   input.Stream,
		NoGuess:  input.Guess != nil && !*input.Guess,
		Password: input.Password,
		Silent:   true,
	}

	tables, extractErr := t.svc.ExtractTables(ctx, input.Source, opt)
	if extractErr != nil {
		return nil, ExtractResponse{}, fmt.Errorf(
			"extraction of %s failed: %w",
			input.Source,
			extractErr,
		)
	}

	return nil, newExtractResponse(tables, input.MaxTables), nil
}

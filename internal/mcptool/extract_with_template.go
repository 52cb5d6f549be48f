package mcptool

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/book-expert/tabula-client/tabula"
)

// ExtractWithTemplateRequest pairs a document with a Tabula App template.
type ExtractWithTemplateRequest struct {
	Source    string `json:"source"               jsonschema:"path or URL of the PDF document"`
	Template  string `json:"template"             jsonschema:"path or URL of the Tabula App template JSON"`
	Password  string `json:"password,omitempty"   jsonschema:"password for an encrypted document"`
	MaxTables int    `json:"max_tables,omitempty" jsonschema:"maximum tables to return; default 10, cap 50"`
}

type templateExtractor interface {
	ExtractTablesWithTemplate(
		ctx context.Context,
		src string,
		templateSrc string,
		opt tabula.Options,
	) ([]*tabula.Table, error)
}

// NewExtractWithTemplate builds the extract_with_template tool handler.
func NewExtractWithTemplate(svc templateExtractor) *ExtractWithTemplate {
	return &ExtractWithTemplate{svc: svc}
}

// ExtractWithTemplate handles the extract_with_template tool.
type ExtractWithTemplate struct {
	svc templateExtractor
}

// ExtractWithTemplate replays the template's saved regions against the
// document and renders each extracted table as markdown.
func (t *ExtractWithTemplate) ExtractWithTemplate(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ExtractWithTemplateRequest,
) (*mcp.CallToolResult, ExtractResponse, error) {
	opt := tabula.Options{
		Password: input.Password,
		Silent:   true,
	}

	tables, extractErr := t.svc.ExtractTablesWithTemplate(
		ctx,
		input.Source,
		input.Template,
		opt,
	)
	if extractErr != nil {
		return nil, ExtractResponse{}, fmt.Errorf(
			"template extraction of %s failed: %w",
			input.Source,
			extractErr,
		)
	}

	return nil, newExtractResponse(tables, input.MaxTables), nil
}

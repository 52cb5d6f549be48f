package mcptool

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/book-expert/tabula-client/tabula"
)

// ConvertFileRequest selects a document and where to write its tables.
type ConvertFileRequest struct {
	Source     string `json:"source"           jsonschema:"path or URL of the PDF document"`
	OutputPath string `json:"output_path"      jsonschema:"file path to write the conversion to"`
	Format     string `json:"format,omitempty" jsonschema:"output format: csv, tsv or json; defaults to csv"`
	Pages      string `json:"pages,omitempty"  jsonschema:"pages to extract: 1, 2-3, 1-2,4 or all; default is page 1"`
}

// ConvertFileResponse reports the written file.
type ConvertFileResponse struct {
	OutputPath string `json:"output_path" jsonschema:"path of the written file"`
	Format     string `json:"format"      jsonschema:"format of the written file"`
}

type fileConverter interface {
	ConvertInto(
		ctx context.Context,
		src string,
		outputPath string,
		format tabula.Format,
		opt tabula.Options,
	) error
}

// NewConvertFile builds the convert_file tool handler.
func NewConvertFile(svc fileConverter) *ConvertFile {
	return &ConvertFile{svc: svc}
}

// ConvertFile handles the convert_file tool.
type ConvertFile struct {
	svc fileConverter
}

// ConvertFile runs the jar's conversion and reports the written path.
func (t *ConvertFile) ConvertFile(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ConvertFileRequest,
) (*mcp.CallToolResult, ConvertFileResponse, error) {
	formatName := input.Format
	if formatName == "" {
		formatName = "csv"
	}

	format, formatErr := tabula.ParseFormat(formatName)
	if formatErr != nil {
		return nil, ConvertFileResponse{}, formatErr
	}

	opt := tabula.Options{
		Pages:  input.Pages,
		Silent: true,
	}

	convertErr := t.svc.ConvertInto(ctx, input.Source, input.OutputPath, format, opt)
	if convertErr != nil {
		return nil, ConvertFileResponse{}, fmt.Errorf(
			"conversion of %s failed: %w",
			input.Source,
			convertErr,
		)
	}

	return nil, ConvertFileResponse{
		OutputPath: input.OutputPath,
		Format:     string(format),
	}, nil
}

// Package mcptool exposes table extraction as Model Context Protocol tools.
package mcptool

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// extractorSvc is the slice of the extraction client the tools depend on.
type extractorSvc interface {
	tableExtractor
	templateExtractor
	fileConverter
}

// NewServer creates an MCP server with table extraction tools.
func NewServer(svc extractorSvc) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "tabula", Version: "v1.0.0"}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "extract_tables",
		Description: "Extract tables from a PDF document (local path or URL) as markdown",
	}, NewExtractTables(svc).ExtractTables)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "extract_with_template",
		Description: "Extract tables from a PDF using the regions of a Tabula App template",
	}, NewExtractWithTemplate(svc).ExtractWithTemplate)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "convert_file",
		Description: "Convert the tables of a PDF into a csv, tsv or json file",
	}, NewConvertFile(svc).ConvertFile)

	return server
}

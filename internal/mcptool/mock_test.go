package mcptool_test

import (
	"context"

	"github.com/book-expert/tabula-client/tabula"
)

// extractorSvcMock stands in for the extraction client. Each method delegates
// to the matching Func field; calling a method whose field is nil panics.
type extractorSvcMock struct {
	ExtractTablesFunc func(
		ctx context.Context,
		src string,
		opt tabula.Options,
	) ([]*tabula.Table, error)
	ExtractTablesWithTemplateFunc func(
		ctx context.Context,
		src string,
		templateSrc string,
		opt tabula.Options,
	) ([]*tabula.Table, error)
	ConvertIntoFunc func(
		ctx context.Context,
		src string,
		outputPath string,
		format tabula.Format,
		opt tabula.Options,
	) error
}

func (m *extractorSvcMock) ExtractTables(
	ctx context.Context,
	src string,
	opt tabula.Options,
) ([]*tabula.Table, error) {
	return m.ExtractTablesFunc(ctx, src, opt)
}

func (m *extractorSvcMock) ExtractTablesWithTemplate(
	ctx context.Context,
	src string,
	templateSrc string,
	opt tabula.Options,
) ([]*tabula.Table, error) {
	return m.ExtractTablesWithTemplateFunc(ctx, src, templateSrc, opt)
}

func (m *extractorSvcMock) ConvertInto(
	ctx context.Context,
	src string,
	outputPath string,
	format tabula.Format,
	opt tabula.Options,
) error {
	return m.ConvertIntoFunc(ctx, src, outputPath, format, opt)
}

// sampleTables builds n identical single-row tables.
func sampleTables(n int) []*tabula.Table {
	tables := make([]*tabula.Table, 0, n)

	for range n {
		tables = append(tables, &tabula.Table{
			Columns:          []string{"mpg", "cyl"},
			Rows:             [][]string{{"21.0", "6"}},
			ExtractionMethod: "lattice",
		})
	}

	return tables
}

const sampleMarkdown = "| mpg | cyl |\n| --- | --- |\n| 21.0 | 6 |\n"

package tabula

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// ExtractTables reads every table the jar finds in the source. The source
// may be a local path or an http(s) URL, which is downloaded first.
func (client *Client) ExtractTables(
	ctx context.Context,
	src string,
	opt Options,
) ([]*Table, error) {
	raw, rawErr := client.ExtractRaw(ctx, src, opt)
	if rawErr != nil {
		return nil, rawErr
	}

	return tablesFromRaw(raw, opt)
}

// ExtractRaw returns the jar's JSON document for the source, geometry and
// cell positions included.
func (client *Client) ExtractRaw(
	ctx context.Context,
	src string,
	opt Options,
) ([]RawTable, error) {
	opt.Format = FormatJSON

	output, runErr := client.runOnFile(ctx, src, opt)
	if runErr != nil {
		return nil, runErr
	}

	return client.parseRawTables(output)
}

// ExtractSingle reads the source as a single table via the jar's CSV output.
// It returns nil without an error when the extractor produced nothing.
func (client *Client) ExtractSingle(
	ctx context.Context,
	src string,
	opt Options,
) (*Table, error) {
	opt.Format = FormatCSV

	output, runErr := client.runOnFile(ctx, src, opt)
	if runErr != nil {
		return nil, runErr
	}

	return client.parseSingleTable(output, opt)
}

// ExtractTablesFromReader spools the reader to a temp file and extracts its
// tables. The temp file is removed before returning.
func (client *Client) ExtractTablesFromReader(
	ctx context.Context,
	reader io.Reader,
	opt Options,
) ([]*Table, error) {
	localPath, cleanup, localizeErr := client.localizeReader(reader, suffixPDF)
	if localizeErr != nil {
		return nil, localizeErr
	}
	defer cleanup()

	return client.ExtractTables(ctx, localPath, opt)
}

// ExtractTablesWithTemplate extracts tables using the regions of a Tabula
// App template. The template may itself be a path or an http(s) URL.
func (client *Client) ExtractTablesWithTemplate(
	ctx context.Context,
	src string,
	templateSrc string,
	opt Options,
) ([]*Table, error) {
	templatePath, templateCleanup, templateErr := client.localize(
		ctx,
		templateSrc,
		suffixJSON,
	)
	if templateErr != nil {
		return nil, templateErr
	}
	defer templateCleanup()

	templateOptions, loadErr := LoadTemplateFile(templatePath)
	if loadErr != nil {
		return nil, loadErr
	}

	// Localize the input once so a remote source is not downloaded again
	// for every region group.
	localPath, cleanup, localizeErr := client.localize(ctx, src, suffixPDF)
	if localizeErr != nil {
		return nil, localizeErr
	}
	defer cleanup()

	var tables []*Table

	for _, templateOpt := range templateOptions {
		merged := templateOpt.Merge(opt)

		groupTables, extractErr := client.ExtractTables(ctx, localPath, merged)
		if extractErr != nil {
			return nil, extractErr
		}

		tables = append(tables, groupTables...)
	}

	return tables, nil
}

// ConvertInto extracts tables from the source and writes them to outputPath
// in the given format.
func (client *Client) ConvertInto(
	ctx context.Context,
	src string,
	outputPath string,
	format Format,
	opt Options,
) error {
	if outputPath == "" {
		return ErrOutputPathRequired
	}

	if !format.valid() {
		return fmt.Errorf("%w: %q", ErrUnknownFormat, string(format))
	}

	opt.OutputPath = outputPath
	opt.Format = format

	_, runErr := client.runOnFile(ctx, src, opt)

	return runErr
}

// ConvertIntoByBatch converts every PDF in inputDir in a single jar
// invocation. The jar writes one output file next to each PDF.
func (client *Client) ConvertIntoByBatch(
	ctx context.Context,
	inputDir string,
	format Format,
	opt Options,
) error {
	if !format.valid() {
		return fmt.Errorf("%w: %q", ErrUnknownFormat, string(format))
	}

	info, statErr := os.Stat(inputDir)
	if statErr != nil || !info.IsDir() {
		return fmt.Errorf("%w: %q", ErrInputDirRequired, inputDir)
	}

	opt.Batch = inputDir
	opt.Format = format

	_, runErr := client.run(ctx, opt, "")

	return runErr
}

// valid reports whether the format is one the jar accepts.
func (f Format) valid() bool {
	switch f {
	case FormatCSV, FormatTSV, FormatJSON:
		return true
	default:
		return false
	}
}

// runOnFile localizes the source, verifies it is readable, and runs the jar
// on it.
func (client *Client) runOnFile(
	ctx context.Context,
	src string,
	opt Options,
) ([]byte, error) {
	localPath, cleanup, localizeErr := client.localize(ctx, src, suffixPDF)
	if localizeErr != nil {
		return nil, localizeErr
	}
	defer cleanup()

	readableErr := ensureReadableFile(localPath)
	if readableErr != nil {
		return nil, readableErr
	}

	return client.run(ctx, opt, localPath)
}

func (client *Client) parseRawTables(output []byte) ([]RawTable, error) {
	if len(output) == 0 {
		client.log.Warn("The output of the extractor is empty.")

		return []RawTable{}, nil
	}

	var raw []RawTable

	unmarshalErr := json.Unmarshal(output, &raw)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("failed to parse json output: %w", unmarshalErr)
	}

	return raw, nil
}

func (client *Client) parseSingleTable(output []byte, opt Options) (*Table, error) {
	if len(output) == 0 {
		client.log.Warn("The output of the extractor is empty.")

		return nil, nil
	}

	records, readErr := csv.NewReader(bytes.NewReader(output)).ReadAll()
	if readErr != nil {
		return nil, fmt.Errorf(
			"%w: %v. Tables with differing column counts need ExtractTables, or set Names",
			ErrCSVParse,
			readErr,
		)
	}

	if len(records) == 0 {
		return nil, nil
	}

	return assembleTable(records, "", opt)
}

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/book-expert/tabula-client/tabula"
)

var readCmd = &cobra.Command{
	Use:   "read <pdf|url>",
	Short: "Extract tables from a document and print them",
	Long: `Read extracts every table the jar finds in the document and prints the
result. The markdown format assembles tables in memory with inferred column
names; csv, tsv and json print the jar's own output conversion.`,
	Args: cobra.ExactArgs(1),
	RunE: runRead,
}

func init() {
	addExtractionFlags(readCmd.Flags())
	addShapingFlags(readCmd.Flags())

	readCmd.Flags().String("format", "csv", "output format: csv, tsv, json or markdown")
	readCmd.Flags().StringP("output", "o", "", "write output to a file instead of stdout")

	rootCmd.AddCommand(readCmd)
}

func runRead(cmd *cobra.Command, args []string) error {
	opt, optErr := extractionOptionsFromFlags(cmd)
	if optErr != nil {
		return optErr
	}

	formatName, _ := cmd.Flags().GetString("format")
	outputPath, _ := cmd.Flags().GetString("output")

	client, log, clientErr := newClient()
	if clientErr != nil {
		return clientErr
	}
	defer closeLogger(log)

	if strings.EqualFold(formatName, "markdown") {
		tables, extractErr := client.ExtractTables(cmd.Context(), args[0], opt)
		if extractErr != nil {
			return fmt.Errorf("extraction failed: %w", extractErr)
		}

		return writeOutput(outputPath, renderMarkdown(tables))
	}

	format, formatErr := tabula.ParseFormat(formatName)
	if formatErr != nil {
		return formatErr
	}

	return convertToOutput(cmd.Context(), client, args[0], outputPath, format, opt)
}

// convertToOutput writes the jar's conversion to outputPath, or spools it to
// a temp file and copies it to stdout when no path is given.
func convertToOutput(
	ctx context.Context,
	client *tabula.Client,
	src string,
	outputPath string,
	format tabula.Format,
	opt tabula.Options,
) error {
	if outputPath != "" {
		convertErr := client.ConvertInto(ctx, src, outputPath, format, opt)
		if convertErr != nil {
			return fmt.Errorf("conversion failed: %w", convertErr)
		}

		return nil
	}

	tempDir, tempErr := os.MkdirTemp("", "tabula-cli-")
	if tempErr != nil {
		return fmt.Errorf("failed to create temp dir: %w", tempErr)
	}
	defer func() {
		_ = os.RemoveAll(tempDir)
	}()

	tempPath := filepath.Join(tempDir, "output."+strings.ToLower(string(format)))

	convertErr := client.ConvertInto(ctx, src, tempPath, format, opt)
	if convertErr != nil {
		return fmt.Errorf("conversion failed: %w", convertErr)
	}

	content, readErr := os.ReadFile(tempPath)
	if readErr != nil {
		// The jar writes no file when the document holds no tables.
		if os.IsNotExist(readErr) {
			return nil
		}

		return fmt.Errorf("failed to read conversion output: %w", readErr)
	}

	_, writeErr := os.Stdout.Write(content)
	if writeErr != nil {
		return fmt.Errorf("failed to write output: %w", writeErr)
	}

	return nil
}

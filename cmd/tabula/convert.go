package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/book-expert/tabula-client/tabula"
)

var convertCmd = &cobra.Command{
	Use:   "convert <pdf|url>",
	Short: "Convert the tables of a document into a file",
	Long: `Convert extracts every table of the document in a single jar run and
writes the conversion to the output file.`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	addExtractionFlags(convertCmd.Flags())

	convertCmd.Flags().String("format", "csv", "output format: csv, tsv or json")
	convertCmd.Flags().StringP("output", "o", "", "output file path (required)")
	_ = convertCmd.MarkFlagRequired("output")

	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	opt, optErr := extractionOptionsFromFlags(cmd)
	if optErr != nil {
		return optErr
	}

	formatName, _ := cmd.Flags().GetString("format")
	outputPath, _ := cmd.Flags().GetString("output")

	format, formatErr := tabula.ParseFormat(formatName)
	if formatErr != nil {
		return formatErr
	}

	client, log, clientErr := newClient()
	if clientErr != nil {
		return clientErr
	}
	defer closeLogger(log)

	convertErr := client.ConvertInto(cmd.Context(), args[0], outputPath, format, opt)
	if convertErr != nil {
		return fmt.Errorf("conversion failed: %w", convertErr)
	}

	fmt.Printf("Wrote %s\n", outputPath)

	return nil
}

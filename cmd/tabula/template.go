package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/book-expert/tabula-client/tabula"
)

var templateCmd = &cobra.Command{
	Use:   "template <pdf|url>",
	Short: "Extract tables using a Tabula App template",
	Long: `Template replays the page regions saved by the Tabula App. Each template
region is extracted with its recorded method; the extracted tables print as
markdown or csv.`,
	Args: cobra.ExactArgs(1),
	RunE: runTemplate,
}

func init() {
	templateCmd.Flags().String("template", "", "template JSON file or URL (required)")
	_ = templateCmd.MarkFlagRequired("template")

	templateCmd.Flags().String("password", "", "password for an encrypted document")
	templateCmd.Flags().String("format", "markdown", "output format: markdown or csv")
	templateCmd.Flags().StringP("output", "o", "", "write output to a file instead of stdout")
	addShapingFlags(templateCmd.Flags())

	rootCmd.AddCommand(templateCmd)
}

func runTemplate(cmd *cobra.Command, args []string) error {
	var opt tabula.Options

	opt.Password, _ = cmd.Flags().GetString("password")
	opt.NoHeader, _ = cmd.Flags().GetBool("no-header")
	opt.Names, _ = cmd.Flags().GetStringSlice("names")
	opt.Silent = viper.GetBool("quiet")

	templateSrc, _ := cmd.Flags().GetString("template")
	formatName, _ := cmd.Flags().GetString("format")
	outputPath, _ := cmd.Flags().GetString("output")

	client, log, clientErr := newClient()
	if clientErr != nil {
		return clientErr
	}
	defer closeLogger(log)

	tables, extractErr := client.ExtractTablesWithTemplate(
		cmd.Context(),
		args[0],
		templateSrc,
		opt,
	)
	if extractErr != nil {
		return fmt.Errorf("template extraction failed: %w", extractErr)
	}

	switch strings.ToLower(formatName) {
	case "markdown":
		return writeOutput(outputPath, renderMarkdown(tables))
	case "csv":
		csvText, csvErr := renderCSV(tables)
		if csvErr != nil {
			return csvErr
		}

		return writeOutput(outputPath, csvText)
	default:
		return fmt.Errorf(
			"template output supports markdown and csv, got %q",
			formatName,
		)
	}
}

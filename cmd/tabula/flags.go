package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/book-expert/tabula-client/tabula"
)

const areaEdgeCount = 4

var errAreaFormat = errors.New("area must be top,left,bottom,right")

// addExtractionFlags registers the flags shared by every command that runs
// the jar on a document.
func addExtractionFlags(flagSet *pflag.FlagSet) {
	flagSet.String("pages", "", "pages to extract: 1, 2-3, 1-2,4 or all")
	flagSet.StringArray(
		"area",
		nil,
		"table region top,left,bottom,right in points; repeatable",
	)
	flagSet.Bool("relative-area", false, "treat --area values as page percentages")
	flagSet.Bool("lattice", false, "force lattice mode (ruling lines between cells)")
	flagSet.Bool("stream", false, "force stream mode (whitespace between cells)")
	flagSet.Bool("no-guess", false, "disable table region guessing")
	flagSet.Float64Slice("columns", nil, "x coordinates of column boundaries, ascending")
	flagSet.Bool("relative-columns", false, "treat --columns values as page percentages")
	flagSet.String("password", "", "password for an encrypted document")
	flagSet.String("raw-options", "", "raw tabula-java options, split shell-style")
}

// addShapingFlags registers the flags that shape extracted tables.
func addShapingFlags(flagSet *pflag.FlagSet) {
	flagSet.Bool("no-header", false, "keep every row as data instead of naming columns")
	flagSet.StringSlice("names", nil, "column names to assign to extracted tables")
}

// extractionOptionsFromFlags assembles jar options from the command's flags.
func extractionOptionsFromFlags(cmd *cobra.Command) (tabula.Options, error) {
	flagSet := cmd.Flags()

	var opt tabula.Options

	opt.Pages, _ = flagSet.GetString("pages")
	opt.RelativeArea, _ = flagSet.GetBool("relative-area")
	opt.Lattice, _ = flagSet.GetBool("lattice")
	opt.Stream, _ = flagSet.GetBool("stream")
	opt.NoGuess, _ = flagSet.GetBool("no-guess")
	opt.Columns, _ = flagSet.GetFloat64Slice("columns")
	opt.RelativeColumns, _ = flagSet.GetBool("relative-columns")
	opt.Password, _ = flagSet.GetString("password")
	opt.RawOptions, _ = flagSet.GetString("raw-options")
	opt.Silent = viper.GetBool("quiet")

	areaSpecs, _ := flagSet.GetStringArray("area")
	for _, spec := range areaSpecs {
		area, areaErr := parseArea(spec)
		if areaErr != nil {
			return tabula.Options{}, areaErr
		}

		opt.Areas = append(opt.Areas, area)
	}

	if flagSet.Lookup("no-header") != nil {
		opt.NoHeader, _ = flagSet.GetBool("no-header")
		opt.Names, _ = flagSet.GetStringSlice("names")
	}

	return opt, nil
}

// parseArea reads a "top,left,bottom,right" flag value.
func parseArea(spec string) (tabula.Area, error) {
	parts := strings.Split(spec, ",")
	if len(parts) != areaEdgeCount {
		return tabula.Area{}, fmt.Errorf("%w: got %q", errAreaFormat, spec)
	}

	edges := make([]float64, 0, areaEdgeCount)

	for _, part := range parts {
		edge, parseErr := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if parseErr != nil {
			return tabula.Area{}, fmt.Errorf(
				"%w: bad edge %q",
				errAreaFormat,
				part,
			)
		}

		edges = append(edges, edge)
	}

	return tabula.Area{
		Top:    edges[0],
		Left:   edges[1],
		Bottom: edges[2],
		Right:  edges[3],
	}, nil
}

// renderMarkdown joins the markdown renditions of the tables, one blank line
// between them.
func renderMarkdown(tables []*tabula.Table) string {
	rendered := make([]string, 0, len(tables))
	for _, table := range tables {
		rendered = append(rendered, table.ToMarkdown())
	}

	return strings.Join(rendered, "\n")
}

// renderCSV joins the CSV renditions of the tables, one blank line between
// them.
func renderCSV(tables []*tabula.Table) (string, error) {
	rendered := make([]string, 0, len(tables))

	for _, table := range tables {
		var builder strings.Builder

		csvErr := table.ToCSV(&builder)
		if csvErr != nil {
			return "", fmt.Errorf("failed to render table: %w", csvErr)
		}

		rendered = append(rendered, builder.String())
	}

	return strings.Join(rendered, "\n"), nil
}

// writeOutput prints the content to stdout, or writes it to path when given.
func writeOutput(path, content string) error {
	if path == "" {
		_, writeErr := os.Stdout.WriteString(content)
		if writeErr != nil {
			return fmt.Errorf("failed to write output: %w", writeErr)
		}

		return nil
	}

	writeErr := os.WriteFile(path, []byte(content), 0o600)
	if writeErr != nil {
		return fmt.Errorf("failed to write %s: %w", path, writeErr)
	}

	return nil
}

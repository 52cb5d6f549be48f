// Package extractor turns PDFs into table artifacts for the
// pdf-to-tables-service worker.
package extractor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/tabula-client/tabula"
)

// Extraction modes select how the jar detects table regions.
const (
	// ModeGuess lets the jar guess the table regions on each page.
	ModeGuess = "guess"
	// ModeLattice extracts tables delimited by ruling lines.
	ModeLattice = "lattice"
	// ModeStream extracts tables from whitespace-aligned text.
	ModeStream = "stream"
)

// ErrPDFZeroOrNegativePages is returned when a PDF has an invalid page count.
var ErrPDFZeroOrNegativePages = errors.New(
	"pdf has zero or a negative number of pages",
)

// Options holds all configurable parameters for a Processor.
// This struct is used to initialize a new Processor with user-defined settings.
type Options struct {
	JavaBin     string
	JarPath     string
	JavaOptions []string
	Format      tabula.Format
	Mode        string
	Pages       string
	Timeout     time.Duration
}

// Processor runs the extraction pipeline for single PDFs.
type Processor struct {
	config   Options
	log      *logger.Logger
	client   *tabula.Client
	executor tabula.CommandExecutor
}

// Result describes the artifact produced for one PDF.
type Result struct {
	TablesPath string
	Format     tabula.Format
	TableCount int
	PageCount  int
}

// NewProcessor creates and initializes a new Processor with the given options
// and logger. It sets sensible defaults for any zero-value fields in the
// Options struct.
func NewProcessor(opts *Options, log *logger.Logger) *Processor {
	return newProcessorWithExecutor(opts, log, tabula.NewDefaultExecutor())
}

func newProcessorWithExecutor(
	opts *Options,
	log *logger.Logger,
	executor tabula.CommandExecutor,
) *Processor {
	applyDefaultOptions(opts)

	client := tabula.New(tabula.Config{
		JavaBin:     opts.JavaBin,
		JarPath:     opts.JarPath,
		JavaOptions: opts.JavaOptions,
		Timeout:     opts.Timeout,
		Executor:    executor,
	}, log)

	return &Processor{
		config:   *opts,
		log:      log,
		client:   client,
		executor: executor,
	}
}

const defaultPages = "all"

// applyDefaultOptions fills zero-value fields in Options with sensible defaults.
func applyDefaultOptions(opts *Options) {
	opts.Format = defaultFormat(opts.Format, tabula.FormatCSV)
	opts.Mode = defaultString(opts.Mode, ModeGuess)
	opts.Pages = defaultString(opts.Pages, defaultPages)
}

func defaultFormat(v, def tabula.Format) tabula.Format {
	if v == "" {
		return def
	}

	return v
}

func defaultString(v, def string) string {
	if v == "" {
		return def
	}

	return v
}

// ProcessOnePDF extracts the tables of a single PDF into outputDir and
// reports what was produced. The artifact is written even when the document
// holds no tables, so downstream consumers always find an object.
func (processor *Processor) ProcessOnePDF(
	ctx context.Context,
	pdfPath string,
	outputDir string,
) (*Result, error) {
	pageCount, pageCountErr := processor.PageCount(ctx, pdfPath)
	if pageCountErr != nil {
		return nil, fmt.Errorf("could not get page count: %w", pageCountErr)
	}

	if pageCount <= 0 {
		return nil, ErrPDFZeroOrNegativePages
	}

	opt := processor.extractionOptions()

	tables, extractErr := processor.client.ExtractTables(ctx, pdfPath, opt)
	if extractErr != nil {
		return nil, fmt.Errorf("table extraction failed: %w", extractErr)
	}

	if len(tables) == 0 {
		processor.log.Warn("No tables found in %s", filepath.Base(pdfPath))
	}

	artifactPath := filepath.Join(outputDir, ArtifactName(processor.config.Format))

	convertErr := processor.client.ConvertInto(
		ctx,
		pdfPath,
		artifactPath,
		processor.config.Format,
		opt,
	)
	if convertErr != nil {
		return nil, fmt.Errorf("table conversion failed: %w", convertErr)
	}

	ensureErr := ensureArtifactExists(artifactPath)
	if ensureErr != nil {
		return nil, ensureErr
	}

	return &Result{
		TablesPath: artifactPath,
		Format:     processor.config.Format,
		TableCount: len(tables),
		PageCount:  pageCount,
	}, nil
}

// PageCount executes the `pdfinfo` command to determine the number of pages
// in a PDF.
func (processor *Processor) PageCount(ctx context.Context, pdfPath string) (int, error) {
	stdout, stderr, execErr := processor.executor.Run(ctx, "pdfinfo", pdfPath)
	if execErr != nil {
		// Include the command's output in the error for better debugging.
		return 0, fmt.Errorf(
			"pdfinfo execution failed: %w. Output: %s",
			execErr,
			string(stderr),
		)
	}

	return parsePdfInfoOutput(string(stdout))
}

// parsePdfInfoOutput scans the text output from the `pdfinfo` command to find
// and parse the page count.
func parsePdfInfoOutput(output string) (int, error) {
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "Pages:") {
			parts := strings.Fields(line) // e.g., ["Pages:", "123"]
			if len(parts) >= 2 {
				pageCount, convErr := strconv.Atoi(parts[1])
				if convErr == nil {
					return pageCount, nil
				}
			}
		}
	}

	return 0, errors.New("could not parse 'Pages:' line from pdfinfo output")
}

// extractionOptions maps the processor configuration onto jar options.
// Guessing stays on only in guess mode; lattice and stream modes pin the
// detection method instead.
func (processor *Processor) extractionOptions() tabula.Options {
	return tabula.Options{
		Pages:   processor.config.Pages,
		Lattice: processor.config.Mode == ModeLattice,
		Stream:  processor.config.Mode == ModeStream,
		NoGuess: processor.config.Mode != ModeGuess,
	}
}

// ArtifactName returns the object name for a table artifact in the given
// format, for example "tables.csv".
func ArtifactName(format tabula.Format) string {
	return "tables." + strings.ToLower(string(format))
}

// ensureArtifactExists writes an empty artifact when the jar skipped creating
// one. tabula-java writes no output file for documents without tables.
func ensureArtifactExists(artifactPath string) error {
	_, statErr := os.Stat(artifactPath)
	if statErr == nil {
		return nil
	}

	if !os.IsNotExist(statErr) {
		return fmt.Errorf("could not stat artifact %s: %w", artifactPath, statErr)
	}

	writeErr := os.WriteFile(artifactPath, nil, 0o600)
	if writeErr != nil {
		return fmt.Errorf("could not create empty artifact: %w", writeErr)
	}

	return nil
}

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/book-expert/logger"
	"github.com/cheggaaa/pb/v3"
	"github.com/spf13/cobra"

	"github.com/book-expert/tabula-client/tabula"
)

var batchCmd = &cobra.Command{
	Use:   "batch <dir>",
	Short: "Convert every PDF in a directory",
	Long: `Batch converts every PDF found in the directory. By default one jar run
handles the whole directory and writes each output next to its PDF. With
--separate each PDF gets its own jar run through a worker pool, writing into
--output-dir.`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	addExtractionFlags(batchCmd.Flags())

	batchCmd.Flags().String("format", "csv", "output format: csv, tsv or json")
	batchCmd.Flags().Bool("separate", false, "run the jar once per PDF instead of once per directory")
	batchCmd.Flags().String("output-dir", "", "output directory for --separate (default: the input directory)")
	batchCmd.Flags().Int("workers", runtime.NumCPU(), "concurrent jar runs for --separate")

	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	opt, optErr := extractionOptionsFromFlags(cmd)
	if optErr != nil {
		return optErr
	}

	formatName, _ := cmd.Flags().GetString("format")

	format, formatErr := tabula.ParseFormat(formatName)
	if formatErr != nil {
		return formatErr
	}

	client, log, clientErr := newClient()
	if clientErr != nil {
		return clientErr
	}
	defer closeLogger(log)

	separate, _ := cmd.Flags().GetBool("separate")
	if !separate {
		batchErr := client.ConvertIntoByBatch(cmd.Context(), args[0], format, opt)
		if batchErr != nil {
			return fmt.Errorf("batch conversion failed: %w", batchErr)
		}

		return nil
	}

	outputDir, _ := cmd.Flags().GetString("output-dir")
	if outputDir == "" {
		outputDir = args[0]
	}

	workers, _ := cmd.Flags().GetInt("workers")

	return runSeparateBatch(
		cmd.Context(),
		client,
		log,
		args[0],
		outputDir,
		format,
		opt,
		workers,
		os.Stdout,
	)
}

// fileConverter is the slice of the client used by the per-file batch. Tests
// substitute a fake.
type fileConverter interface {
	ConvertInto(
		ctx context.Context,
		src string,
		outputPath string,
		format tabula.Format,
		opt tabula.Options,
	) error
}

// runSeparateBatch discovers the PDFs and feeds them through the worker pool.
func runSeparateBatch(
	ctx context.Context,
	converter fileConverter,
	log *logger.Logger,
	inputDir string,
	outputDir string,
	format tabula.Format,
	opt tabula.Options,
	workers int,
	progressOut io.Writer,
) error {
	pdfPaths, discoverErr := tabula.DiscoverPDFs(inputDir)
	if discoverErr != nil {
		return fmt.Errorf("failed to discover PDFs: %w", discoverErr)
	}

	if len(pdfPaths) == 0 {
		return fmt.Errorf(
			"no PDF files found in %s: %w",
			inputDir,
			os.ErrNotExist,
		)
	}

	mkdirErr := os.MkdirAll(outputDir, 0o750)
	if mkdirErr != nil {
		return fmt.Errorf("failed to create output directory: %w", mkdirErr)
	}

	log.Info("Found %d PDF(s) to convert.", len(pdfPaths))
	convertAllPDFs(ctx, converter, log, pdfPaths, outputDir, format, opt, workers, progressOut)

	return nil
}

// convertAllPDFs runs one jar conversion per PDF through a pool of workers,
// tracking overall progress with a bar. Failures are logged per file and do
// not abort the run.
func convertAllPDFs(
	ctx context.Context,
	converter fileConverter,
	log *logger.Logger,
	pdfPaths []string,
	outputDir string,
	format tabula.Format,
	opt tabula.Options,
	workers int,
	progressOut io.Writer,
) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	jobs := make(chan string, len(pdfPaths))

	progressBar := pb.New(len(pdfPaths)).
		SetTemplateString(`{{ bar . " " "━" "━" " " " "}} {{percent .}} {{rtime .}}`).
		SetWriter(progressOut).
		Start()
	defer progressBar.Finish()

	var waitGroup sync.WaitGroup

	for range workers {
		waitGroup.Add(1)

		go func() {
			defer waitGroup.Done()

			for pdfPath := range jobs {
				if ctx.Err() != nil {
					log.Warn(
						"Context canceled, skipping %s",
						filepath.Base(pdfPath),
					)

					return
				}

				convertOnePDF(ctx, converter, log, pdfPath, outputDir, format, opt)
				progressBar.Increment()
			}
		}()
	}

	for _, pdfPath := range pdfPaths {
		jobs <- pdfPath
	}

	close(jobs)

	waitGroup.Wait()
}

// convertOnePDF handles the conversion of a single PDF file.
func convertOnePDF(
	ctx context.Context,
	converter fileConverter,
	log *logger.Logger,
	pdfPath string,
	outputDir string,
	format tabula.Format,
	opt tabula.Options,
) {
	outputPath := batchOutputPath(outputDir, pdfPath, format)

	convertErr := converter.ConvertInto(ctx, pdfPath, outputPath, format, opt)
	if convertErr != nil {
		log.Error(
			"Failed to convert %s: %v",
			filepath.Base(pdfPath),
			convertErr,
		)

		return
	}

	log.Success("Converted %s", filepath.Base(pdfPath))
}

// batchOutputPath names the per-file conversion output, for example
// "report.pdf" becomes "<outputDir>/report.csv".
func batchOutputPath(outputDir, pdfPath string, format tabula.Format) string {
	stem := strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath))

	return filepath.Join(outputDir, stem+"."+strings.ToLower(string(format)))
}

package extractor

import (
	"github.com/book-expert/logger"
	"github.com/book-expert/tabula-client/tabula"
)

// Exported test-only accessors for unexported functions and fields.
// This file is compiled only during tests and does not affect the public API.

// NewProcessorWithExecutorForTest builds a processor around a fake executor.
func NewProcessorWithExecutorForTest(
	opts *Options,
	log *logger.Logger,
	executor tabula.CommandExecutor,
) *Processor {
	return newProcessorWithExecutor(opts, log, executor)
}

// ParsePdfInfoOutputForTest exposes parsePdfInfoOutput for tests in external package.
func ParsePdfInfoOutputForTest(s string) (int, error) { return parsePdfInfoOutput(s) }

// ConfigForTest returns a copy of the processor configuration for assertions in tests.
func (processor *Processor) ConfigForTest() Options { return processor.config }

// ExtractionOptionsForTest exposes the configured jar options.
func (processor *Processor) ExtractionOptionsForTest() tabula.Options {
	return processor.extractionOptions()
}

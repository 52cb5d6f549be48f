package tabula

import (
	"context"
	"io"
	"net/url"
	"time"
)

// Exported test-only accessors for unexported functions and fields.
// This file is compiled only during tests and does not affect the public API.

// SetExecutorForTest allows tests to inject a fake executor.
func (client *Client) SetExecutorForTest(exec CommandExecutor) {
	client.executor = exec
}

// ConfigForTest returns a copy of the client configuration for assertions in
// tests.
func (client *Client) ConfigForTest() Config { return client.config }

// BuildJavaArgsForTest exposes buildJavaArgs for tests in external package.
func (client *Client) BuildJavaArgsForTest(
	opt Options,
	optionArgs []string,
	inputPath string,
) []string {
	return client.buildJavaArgs(opt, optionArgs, inputPath)
}

// LocalizeForTest exposes localize for tests in external package.
func (client *Client) LocalizeForTest(
	ctx context.Context,
	src string,
	suffix string,
) (string, func(), error) {
	return client.localize(ctx, src, suffix)
}

// LocalizeReaderForTest exposes localizeReader for tests in external package.
func (client *Client) LocalizeReaderForTest(
	reader io.Reader,
	suffix string,
) (string, func(), error) {
	return client.localizeReader(reader, suffix)
}

// SetRetryBaseDelayForTest shortens the 429 backoff and returns the previous
// value so tests can restore it.
func SetRetryBaseDelayForTest(d time.Duration) time.Duration {
	previous := retryBaseDelay
	retryBaseDelay = d

	return previous
}

// TablesFromRawForTest exposes tablesFromRaw for tests in external package.
func TablesFromRawForTest(raw []RawTable, opt Options) ([]*Table, error) {
	return tablesFromRaw(raw, opt)
}

// AssembleTableForTest exposes assembleTable for tests in external package.
func AssembleTableForTest(rows [][]string, method string, opt Options) (*Table, error) {
	return assembleTable(rows, method, opt)
}

// EnsureReadableFileForTest exposes ensureReadableFile for tests in external
// package.
func EnsureReadableFileForTest(path string) error { return ensureReadableFile(path) }

// RemoteFilenameForTest exposes remoteFilename for tests in external package.
func RemoteFilenameForTest(finalURL *url.URL, suffix string) string {
	return remoteFilename(finalURL, suffix)
}

// ExpandUserForTest exposes expandUser for tests in external package.
func ExpandUserForTest(path string) string { return expandUser(path) }

package tabula

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// maxFilenameStem bounds the stem of a filename derived from a URL.
	maxFilenameStem = 250

	suffixPDF  = ".pdf"
	suffixJSON = ".json"
)

// retryBaseDelay is the base duration for exponential backoff on HTTP 429
// responses. Tests override this to avoid real sleeps.
var retryBaseDelay = time.Second

// localize ensures src refers to a readable local file. Remote URLs are
// downloaded into a fresh temp directory. The returned cleanup removes
// whatever was created and is never nil.
func (client *Client) localize(
	ctx context.Context,
	src string,
	suffix string,
) (string, func(), error) {
	if isRemoteURL(src) {
		return client.localizeURL(ctx, src, suffix)
	}

	return expandUser(src), func() {}, nil
}

// localizeReader spools a reader-backed input into a temp file so the jar
// can open it by path.
func (client *Client) localizeReader(
	reader io.Reader,
	suffix string,
) (string, func(), error) {
	dir, mkErr := os.MkdirTemp(client.config.TempDir, "tabula-")
	if mkErr != nil {
		return "", nil, fmt.Errorf("failed to create temp dir: %w", mkErr)
	}

	cleanup := func() { client.removeTempDir(dir) }

	localPath := filepath.Join(dir, uuid.New().String()+suffix)

	writeErr := writeStream(localPath, reader)
	if writeErr != nil {
		cleanup()

		return "", nil, writeErr
	}

	return localPath, cleanup, nil
}

func (client *Client) localizeURL(
	ctx context.Context,
	rawURL string,
	suffix string,
) (string, func(), error) {
	dir, mkErr := os.MkdirTemp(client.config.TempDir, "tabula-")
	if mkErr != nil {
		return "", nil, fmt.Errorf("failed to create temp dir: %w", mkErr)
	}

	cleanup := func() { client.removeTempDir(dir) }

	// The filename derives from the final URL, which is only known after
	// redirects, so the payload lands under a scratch name first.
	scratchPath := filepath.Join(dir, "download.tmp")

	finalURL, downloadErr := client.downloadFile(ctx, rawURL, scratchPath)
	if downloadErr != nil {
		cleanup()

		return "", nil, downloadErr
	}

	localPath := filepath.Join(dir, remoteFilename(finalURL, suffix))

	renameErr := os.Rename(scratchPath, localPath)
	if renameErr != nil {
		cleanup()

		return "", nil, fmt.Errorf("failed to place download: %w", renameErr)
	}

	return localPath, cleanup, nil
}

// downloadFile fetches rawURL into destPath and reports the final URL after
// redirects. It sets the configured User-Agent and retries on HTTP 429.
func (client *Client) downloadFile(
	ctx context.Context,
	rawURL string,
	destPath string,
) (*url.URL, error) {
	req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if reqErr != nil {
		return nil, fmt.Errorf("failed to create download request: %w", reqErr)
	}

	if client.config.UserAgent != "" {
		req.Header.Set("User-Agent", client.config.UserAgent)
	}

	resp, doErr := client.doWithRetry(ctx, req)
	if doErr != nil {
		return nil, doErr
	}

	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			client.log.Warn("Failed to close response body: %v", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)

		return nil, fmt.Errorf("download of %s failed: %s", rawURL, resp.Status)
	}

	writeErr := writeStream(destPath, resp.Body)
	if writeErr != nil {
		return nil, writeErr
	}

	return resp.Request.URL, nil
}

// doWithRetry executes the request, retrying on HTTP 429 with exponential
// backoff. The last 429 response is returned once attempts are exhausted so
// the caller can inspect it.
func (client *Client) doWithRetry(
	ctx context.Context,
	req *http.Request,
) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		resp, doErr := client.config.HTTPClient.Do(req.Clone(ctx))
		if doErr != nil {
			return nil, fmt.Errorf("download request failed: %w", doErr)
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}

		if attempt >= client.config.DownloadAttempts-1 {
			return resp, nil
		}

		// Drain and close the body before retrying.
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()

		backoff := time.Duration(math.Pow(2, float64(attempt))) * retryBaseDelay
		client.log.Warn(
			"Rate limited by %s, retrying in %v",
			req.URL.Host,
			backoff,
		)

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("download canceled: %w", ctx.Err())
		case <-time.After(backoff):
		}
	}
}

// writeStream copies a stream into a new file at path.
func writeStream(filePath string, reader io.Reader) error {
	out, createErr := os.Create(filePath)
	if createErr != nil {
		return fmt.Errorf("failed to create %s: %w", filePath, createErr)
	}

	_, copyErr := io.Copy(out, reader)

	closeErr := out.Close()
	if copyErr != nil {
		return fmt.Errorf("failed to write %s: %w", filePath, copyErr)
	}

	if closeErr != nil {
		return fmt.Errorf("failed to close %s: %w", filePath, closeErr)
	}

	return nil
}

// remoteFilename derives a local filename from the final download URL.
// Stems longer than maxFilenameStem are truncated, and a URL whose extension
// does not match the expected suffix gets a random name instead.
func remoteFilename(finalURL *url.URL, suffix string) string {
	filename := path.Base(finalURL.Path)
	ext := path.Ext(filename)
	stem := strings.TrimSuffix(filename, ext)

	if len(stem) > maxFilenameStem {
		stem = stem[:maxFilenameStem]
	}

	if ext != suffix {
		return uuid.New().String() + suffix
	}

	return stem + ext
}

func isRemoteURL(src string) bool {
	parsed, parseErr := url.Parse(src)

	return parseErr == nil && (parsed.Scheme == "http" || parsed.Scheme == "https")
}

// expandUser resolves a leading ~ to the current home directory.
func expandUser(filePath string) string {
	if filePath != "~" && !strings.HasPrefix(filePath, "~/") {
		return filePath
	}

	home, homeErr := os.UserHomeDir()
	if homeErr != nil {
		return filePath
	}

	return filepath.Join(home, strings.TrimPrefix(filePath, "~"))
}

// ensureReadableFile verifies an input exists and has content.
func ensureReadableFile(filePath string) error {
	info, statErr := os.Stat(filePath)
	if statErr != nil {
		return fmt.Errorf("failed to stat input: %w", statErr)
	}

	if info.Size() == 0 {
		return fmt.Errorf("%w: %s", ErrEmptyFile, filePath)
	}

	return nil
}

func (client *Client) removeTempDir(dir string) {
	removeErr := os.RemoveAll(dir)
	if removeErr != nil {
		client.log.Warn("Failed to remove temp directory '%s': %v", dir, removeErr)
	}
}

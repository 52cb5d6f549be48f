// Package tabula drives the tabula-java table extractor as a subprocess.
// It marshals extraction options into command-line flags, runs the jar,
// and converts its CSV/TSV/JSON output into in-memory tables.
package tabula

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/book-expert/logger"
)

// Version identifies this wrapper in environment reports.
const Version = "1.0.0"

const (
	tabulaJavaVersion = "1.0.5"
	jarName           = "tabula-" + tabulaJavaVersion + "-jar-with-dependencies.jar"

	// envJarPath overrides the bundled jar location.
	envJarPath = "TABULA_JAR"

	defaultJavaBin          = "java"
	defaultEncoding         = "utf-8"
	defaultDownloadAttempts = 3
)

var (
	// ErrJavaNotFound is returned when the java command cannot be executed.
	ErrJavaNotFound = errors.New(
		"java command is not found; ensure Java is installed and PATH is set for java",
	)
	// ErrEmptyFile is returned when an input file has zero size.
	ErrEmptyFile = errors.New("file is empty; check the file, or download it manually")
	// ErrCSVParse is returned when single-table csv output cannot be assembled.
	ErrCSVParse = errors.New("failed to parse csv output")
	// ErrUnknownFormat is returned for an unrecognized output format name.
	ErrUnknownFormat = errors.New("unknown output format")
	// ErrOutputPathRequired is returned when a conversion misses its output path.
	ErrOutputPathRequired = errors.New("output path is required")
	// ErrInputDirRequired is returned when a batch input is not an existing directory.
	ErrInputDirRequired = errors.New("input dir should be an existing directory path")
	// ErrUnsortedColumns is returned when column boundaries are not ascending.
	ErrUnsortedColumns = errors.New("columns option should be sorted")
	// ErrInvalidArea is returned when an area's coordinates are inverted.
	ErrInvalidArea = errors.New("area option requires top <= bottom and left <= right")
	// ErrHeaderRowOutOfRange is returned when the header row index exceeds the table.
	ErrHeaderRowOutOfRange = errors.New("header row is out of range for table")
	// ErrUnsupportedEncoding is returned when the configured output encoding
	// has no decoder.
	ErrUnsupportedEncoding = errors.New("unsupported output encoding")
)

// Config holds all configurable parameters for a Client.
type Config struct {
	// JavaBin is the java executable to invoke. Defaults to "java".
	JavaBin string
	// JarPath locates the tabula-java jar. When empty, the TABULA_JAR
	// environment variable is consulted, then a jar next to the running
	// executable, then the bare jar name resolved against the working
	// directory.
	JarPath string
	// JavaOptions are extra JVM flags, for example "-Xmx256m".
	JavaOptions []string
	// Encoding is the IANA name of the jar's output encoding. Output is
	// decoded to UTF-8 before parsing. Defaults to "utf-8".
	Encoding string
	// UserAgent is sent when downloading remote inputs. Empty uses the
	// Go http client default.
	UserAgent string
	// TempDir is where remote and reader-backed inputs are spooled.
	// Defaults to the OS temp directory.
	TempDir string
	// Timeout bounds a single jar invocation. Zero means no limit.
	Timeout time.Duration
	// DownloadAttempts is the number of tries for a remote input that
	// keeps answering HTTP 429. Defaults to 3.
	DownloadAttempts int
	// HTTPClient performs remote input downloads. Defaults to a plain client.
	HTTPClient *http.Client
	// Executor runs the java subprocess. Defaults to the os/exec
	// implementation; tests inject fakes here.
	Executor CommandExecutor
}

// Client runs the tabula-java jar and interprets its output.
type Client struct {
	config   Config
	log      *logger.Logger
	executor CommandExecutor
}

// New creates a Client with the given configuration and logger.
// It sets sensible defaults for any zero-value fields in the Config struct.
func New(cfg Config, log *logger.Logger) *Client {
	applyDefaultConfig(&cfg)

	return &Client{
		config:   cfg,
		log:      log,
		executor: cfg.Executor,
	}
}

// applyDefaultConfig fills zero-value fields in Config with sensible defaults.
func applyDefaultConfig(cfg *Config) {
	cfg.JavaBin = defaultString(cfg.JavaBin, defaultJavaBin)
	cfg.Encoding = defaultString(cfg.Encoding, defaultEncoding)
	cfg.TempDir = defaultString(cfg.TempDir, os.TempDir())
	cfg.JarPath = defaultString(cfg.JarPath, resolveJarPath())
	cfg.DownloadAttempts = defaultIntNonPositive(
		cfg.DownloadAttempts,
		defaultDownloadAttempts,
	)
	cfg.HTTPClient = defaultHTTPClientNil(cfg.HTTPClient)

	if cfg.Executor == nil {
		cfg.Executor = NewDefaultExecutor()
	}
}

func defaultString(v, def string) string {
	if v == "" {
		return def
	}

	return v
}

func defaultIntNonPositive(v, def int) int {
	if v <= 0 {
		return def
	}

	return v
}

func defaultHTTPClientNil(c *http.Client) *http.Client {
	if c == nil {
		return &http.Client{}
	}

	return c
}

// resolveJarPath picks the jar location: the TABULA_JAR environment variable
// wins, then a jar shipped next to the executable, then the bare jar name.
func resolveJarPath() string {
	if fromEnv := os.Getenv(envJarPath); fromEnv != "" {
		return fromEnv
	}

	exePath, exeErr := os.Executable()
	if exeErr == nil {
		candidate := filepath.Join(filepath.Dir(exePath), jarName)
		if _, statErr := os.Stat(candidate); statErr == nil {
			return candidate
		}
	}

	return jarName
}

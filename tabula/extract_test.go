package tabula_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/book-expert/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/book-expert/tabula-client/tabula"
)

// extractorJSON mimics the jar's JSON document for a single lattice table.
const extractorJSON = `[
  {
    "extraction_method": "lattice",
    "top": 100.0,
    "left": 14.0,
    "width": 187.0,
    "height": 189.0,
    "right": 201.0,
    "bottom": 289.0,
    "data": [
      [
        {"top": 100.0, "left": 14.0, "width": 90.0, "height": 10.0, "text": "mpg"},
        {"top": 100.0, "left": 104.0, "width": 90.0, "height": 10.0, "text": "cyl"}
      ],
      [
        {"top": 110.0, "left": 14.0, "width": 90.0, "height": 10.0, "text": "21.0"},
        {"top": 110.0, "left": 104.0, "width": 90.0, "height": 10.0, "text": "6"}
      ]
    ]
  }
]`

// twoGroupTemplate holds one lattice region on page 1 and one stream region
// on page 2, the way the Tabula App exports them.
const twoGroupTemplate = `[
  {"page": 1, "extraction_method": "lattice",
   "x1": 14.4, "x2": 201.9, "y1": 100.9, "y2": 290.7, "width": 187.5, "height": 189.8},
  {"page": 2, "extraction_method": "stream",
   "x1": 35.0, "x2": 300.5, "y1": 40.2, "y2": 411.0, "width": 265.5, "height": 370.8}
]`

type execResult struct {
	stdout []byte
	stderr []byte
	err    error
}

type fakeExec struct {
	run         map[string]execResult
	runCombined map[string]execResult
	onRun       func(name string, args []string)
	stdout      []byte
	stderr      []byte
	combinedOut []byte
	err         error
}

func (f *fakeExec) Run(
	_ context.Context,
	name string,
	args ...string,
) ([]byte, []byte, error) {
	if f.onRun != nil {
		f.onRun(name, args)
	}

	key := name + " " + strings.Join(args, " ")
	if f.run != nil {
		if v, ok := f.run[key]; ok {
			return v.stdout, v.stderr, v.err
		}
	}

	return f.stdout, f.stderr, f.err
}

func (f *fakeExec) RunCombined(
	_ context.Context,
	name string,
	args ...string,
) ([]byte, error) {
	key := name + " " + strings.Join(args, " ")
	if f.runCombined != nil {
		if v, ok := f.runCombined[key]; ok {
			return v.stdout, v.err
		}
	}

	return f.combinedOut, f.err
}

// newTestClient builds a Client backed by a fake executor. The jar path is
// pinned so argument assertions stay deterministic.
func newTestClient(t *testing.T, cfg tabula.Config) (*tabula.Client, *fakeExec) {
	t.Helper()

	log, logErr := logger.New(t.TempDir(), "test.log")
	require.NoError(t, logErr)

	if cfg.JarPath == "" {
		cfg.JarPath = "tabula.jar"
	}

	if cfg.TempDir == "" {
		cfg.TempDir = t.TempDir()
	}

	client := tabula.New(cfg, log)
	fake := &fakeExec{}
	client.SetExecutorForTest(fake)

	return client, fake
}

// writeSamplePDF drops a small non-empty stand-in PDF into a temp dir.
func writeSamplePDF(t *testing.T) string {
	t.Helper()

	pdfPath := filepath.Join(t.TempDir(), "sample.pdf")
	require.NoError(t, os.WriteFile(pdfPath, []byte("%PDF-1.4 sample"), 0o600))

	return pdfPath
}

// flagValue returns the value following a flag in an argument list.
func flagValue(args []string, flag string) string {
	for i := range len(args) - 1 {
		if args[i] == flag {
			return args[i+1]
		}
	}

	return ""
}

func TestExtractTables(t *testing.T) {
	t.Parallel()

	pdfPath := writeSamplePDF(t)
	client, fake := newTestClient(t, tabula.Config{})
	fake.stdout = []byte(extractorJSON)

	var (
		gotName string
		gotArgs []string
	)

	fake.onRun = func(name string, args []string) {
		gotName = name
		gotArgs = append([]string(nil), args...)
	}

	tables, err := client.ExtractTables(context.Background(), pdfPath, tabula.Options{})
	require.NoError(t, err)
	require.Len(t, tables, 1)

	table := tables[0]
	assert.Equal(t, []string{"mpg", "cyl"}, table.Columns)
	assert.Equal(t, [][]string{{"21.0", "6"}}, table.Rows)
	assert.Equal(t, "lattice", table.ExtractionMethod)

	assert.Equal(t, "java", gotName)
	assert.Equal(t, "tabula.jar", flagValue(gotArgs, "-jar"))
	assert.Equal(t, "JSON", flagValue(gotArgs, "--format"))
	assert.Contains(t, gotArgs, "--guess")
	assert.Equal(t, pdfPath, gotArgs[len(gotArgs)-1])
}

func TestExtractTables_EmptyOutput(t *testing.T) {
	t.Parallel()

	pdfPath := writeSamplePDF(t)
	client, _ := newTestClient(t, tabula.Config{})

	tables, err := client.ExtractTables(context.Background(), pdfPath, tabula.Options{})
	require.NoError(t, err)
	assert.Empty(t, tables)
}

func TestExtractTables_EmptyFile(t *testing.T) {
	t.Parallel()

	pdfPath := filepath.Join(t.TempDir(), "empty.pdf")
	require.NoError(t, os.WriteFile(pdfPath, nil, 0o600))

	client, _ := newTestClient(t, tabula.Config{})

	_, err := client.ExtractTables(context.Background(), pdfPath, tabula.Options{})
	require.ErrorIs(t, err, tabula.ErrEmptyFile)
}

func TestExtractTables_MissingFile(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, tabula.Config{})

	missing := filepath.Join(t.TempDir(), "missing.pdf")
	_, err := client.ExtractTables(context.Background(), missing, tabula.Options{})
	require.Error(t, err)
}

func TestExtractTables_JavaNotFound(t *testing.T) {
	t.Parallel()

	pdfPath := writeSamplePDF(t)
	client, fake := newTestClient(t, tabula.Config{})
	fake.err = &exec.Error{Name: "java", Err: exec.ErrNotFound}

	_, err := client.ExtractTables(context.Background(), pdfPath, tabula.Options{})
	require.ErrorIs(t, err, tabula.ErrJavaNotFound)
}

func TestExtractTables_RunFailureIncludesStderr(t *testing.T) {
	t.Parallel()

	pdfPath := writeSamplePDF(t)
	client, fake := newTestClient(t, tabula.Config{})
	fake.err = errors.New("exit status 1")
	fake.stderr = []byte("Error: cannot open document")

	_, err := client.ExtractTables(context.Background(), pdfPath, tabula.Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tabula-java execution failed")
	assert.Contains(t, err.Error(), "cannot open document")
}

func TestExtractTables_StderrChatterOnSuccess(t *testing.T) {
	t.Parallel()

	pdfPath := writeSamplePDF(t)
	client, fake := newTestClient(t, tabula.Config{})
	fake.stdout = []byte(extractorJSON)
	fake.stderr = []byte("Picked up JAVA_TOOL_OPTIONS: -Dfoo=bar")

	tables, err := client.ExtractTables(context.Background(), pdfPath, tabula.Options{})
	require.NoError(t, err)
	assert.Len(t, tables, 1)
}

func TestExtractRaw_KeepsGeometry(t *testing.T) {
	t.Parallel()

	pdfPath := writeSamplePDF(t)
	client, fake := newTestClient(t, tabula.Config{})
	fake.stdout = []byte(extractorJSON)

	raw, err := client.ExtractRaw(context.Background(), pdfPath, tabula.Options{})
	require.NoError(t, err)
	require.Len(t, raw, 1)

	assert.Equal(t, "lattice", raw[0].ExtractionMethod)
	assert.InDelta(t, 100.0, raw[0].Top, 0.001)
	assert.InDelta(t, 289.0, raw[0].Bottom, 0.001)
	require.Len(t, raw[0].Data, 2)
	assert.Equal(t, "mpg", raw[0].Data[0][0].Text)
	assert.InDelta(t, 104.0, raw[0].Data[0][1].Left, 0.001)
}

func TestExtractSingle(t *testing.T) {
	t.Parallel()

	t.Run("Header row becomes columns", func(t *testing.T) {
		t.Parallel()

		pdfPath := writeSamplePDF(t)
		client, fake := newTestClient(t, tabula.Config{})
		fake.stdout = []byte("mpg,cyl\n21.0,6\n24.4,4\n")

		var gotArgs []string

		fake.onRun = func(_ string, args []string) {
			gotArgs = append([]string(nil), args...)
		}

		table, err := client.ExtractSingle(
			context.Background(),
			pdfPath,
			tabula.Options{},
		)
		require.NoError(t, err)
		require.NotNil(t, table)

		assert.Equal(t, []string{"mpg", "cyl"}, table.Columns)
		assert.Equal(t, 2, table.RowCount())
		assert.Equal(t, "CSV", flagValue(gotArgs, "--format"))
	})

	t.Run("NoHeader keeps every row", func(t *testing.T) {
		t.Parallel()

		pdfPath := writeSamplePDF(t)
		client, fake := newTestClient(t, tabula.Config{})
		fake.stdout = []byte("21.0,6\n24.4,4\n")

		table, err := client.ExtractSingle(
			context.Background(),
			pdfPath,
			tabula.Options{NoHeader: true},
		)
		require.NoError(t, err)
		require.NotNil(t, table)

		assert.Nil(t, table.Columns)
		assert.Equal(t, 2, table.RowCount())
	})

	t.Run("Ragged output is rejected", func(t *testing.T) {
		t.Parallel()

		pdfPath := writeSamplePDF(t)
		client, fake := newTestClient(t, tabula.Config{})
		fake.stdout = []byte("a,b\n1\n")

		_, err := client.ExtractSingle(context.Background(), pdfPath, tabula.Options{})
		require.ErrorIs(t, err, tabula.ErrCSVParse)
	})

	t.Run("Empty output yields no table", func(t *testing.T) {
		t.Parallel()

		pdfPath := writeSamplePDF(t)
		client, _ := newTestClient(t, tabula.Config{})

		table, err := client.ExtractSingle(
			context.Background(),
			pdfPath,
			tabula.Options{},
		)
		require.NoError(t, err)
		assert.Nil(t, table)
	})
}

func TestExtractTablesFromReader(t *testing.T) {
	t.Parallel()

	content := []byte("%PDF-1.4 reader backed")
	client, fake := newTestClient(t, tabula.Config{})
	fake.stdout = []byte(extractorJSON)

	var (
		spooledPath    string
		spooledContent []byte
	)

	fake.onRun = func(_ string, args []string) {
		spooledPath = args[len(args)-1]
		spooledContent, _ = os.ReadFile(spooledPath)
	}

	tables, err := client.ExtractTablesFromReader(
		context.Background(),
		bytes.NewReader(content),
		tabula.Options{},
	)
	require.NoError(t, err)
	assert.Len(t, tables, 1)

	assert.True(t, strings.HasSuffix(spooledPath, ".pdf"))
	assert.Equal(t, content, spooledContent)

	// The spooled copy is removed once extraction finishes.
	_, statErr := os.Stat(spooledPath)
	require.Error(t, statErr)
}

func TestExtractTablesWithTemplate(t *testing.T) {
	t.Parallel()

	pdfPath := writeSamplePDF(t)
	templatePath := filepath.Join(t.TempDir(), "report.tabula-template.json")
	require.NoError(t, os.WriteFile(templatePath, []byte(twoGroupTemplate), 0o600))

	client, fake := newTestClient(t, tabula.Config{})
	fake.stdout = []byte(extractorJSON)

	var calls [][]string

	fake.onRun = func(_ string, args []string) {
		calls = append(calls, append([]string(nil), args...))
	}

	tables, err := client.ExtractTablesWithTemplate(
		context.Background(),
		pdfPath,
		templatePath,
		tabula.Options{Password: "pw"},
	)
	require.NoError(t, err)
	assert.Len(t, tables, 2)

	require.Len(t, calls, 2)
	assert.Equal(t, "1", flagValue(calls[0], "--pages"))
	assert.Contains(t, calls[0], "--lattice")
	assert.Equal(t, "2", flagValue(calls[1], "--pages"))
	assert.Contains(t, calls[1], "--stream")

	for _, call := range calls {
		assert.NotEmpty(t, flagValue(call, "--area"))
		assert.Equal(t, "pw", flagValue(call, "--password"))
		assert.NotContains(t, call, "--guess")
	}
}

func TestConvertInto(t *testing.T) {
	t.Parallel()

	t.Run("Requires an output path", func(t *testing.T) {
		t.Parallel()

		pdfPath := writeSamplePDF(t)
		client, _ := newTestClient(t, tabula.Config{})

		err := client.ConvertInto(
			context.Background(),
			pdfPath,
			"",
			tabula.FormatCSV,
			tabula.Options{},
		)
		require.ErrorIs(t, err, tabula.ErrOutputPathRequired)
	})

	t.Run("Rejects unknown formats", func(t *testing.T) {
		t.Parallel()

		pdfPath := writeSamplePDF(t)
		client, _ := newTestClient(t, tabula.Config{})

		err := client.ConvertInto(
			context.Background(),
			pdfPath,
			"out.xlsx",
			tabula.Format("XLSX"),
			tabula.Options{},
		)
		require.ErrorIs(t, err, tabula.ErrUnknownFormat)
	})

	t.Run("Passes outfile and format through", func(t *testing.T) {
		t.Parallel()

		pdfPath := writeSamplePDF(t)
		outPath := filepath.Join(t.TempDir(), "out.tsv")
		client, fake := newTestClient(t, tabula.Config{})

		var gotArgs []string

		fake.onRun = func(_ string, args []string) {
			gotArgs = append([]string(nil), args...)
		}

		err := client.ConvertInto(
			context.Background(),
			pdfPath,
			outPath,
			tabula.FormatTSV,
			tabula.Options{},
		)
		require.NoError(t, err)

		assert.Equal(t, outPath, flagValue(gotArgs, "--outfile"))
		assert.Equal(t, "TSV", flagValue(gotArgs, "--format"))
		assert.Equal(t, pdfPath, gotArgs[len(gotArgs)-1])
	})
}

func TestConvertIntoByBatch(t *testing.T) {
	t.Parallel()

	t.Run("Requires an existing directory", func(t *testing.T) {
		t.Parallel()

		client, _ := newTestClient(t, tabula.Config{})

		err := client.ConvertIntoByBatch(
			context.Background(),
			filepath.Join(t.TempDir(), "nope"),
			tabula.FormatCSV,
			tabula.Options{},
		)
		require.ErrorIs(t, err, tabula.ErrInputDirRequired)
	})

	t.Run("Rejects a file path", func(t *testing.T) {
		t.Parallel()

		pdfPath := writeSamplePDF(t)
		client, _ := newTestClient(t, tabula.Config{})

		err := client.ConvertIntoByBatch(
			context.Background(),
			pdfPath,
			tabula.FormatCSV,
			tabula.Options{},
		)
		require.ErrorIs(t, err, tabula.ErrInputDirRequired)
	})

	t.Run("Rejects unknown formats", func(t *testing.T) {
		t.Parallel()

		client, _ := newTestClient(t, tabula.Config{})

		err := client.ConvertIntoByBatch(
			context.Background(),
			t.TempDir(),
			tabula.Format(""),
			tabula.Options{},
		)
		require.ErrorIs(t, err, tabula.ErrUnknownFormat)
	})

	t.Run("Runs the jar without an input path", func(t *testing.T) {
		t.Parallel()

		inputDir := t.TempDir()
		require.NoError(t, os.WriteFile(
			filepath.Join(inputDir, "a.pdf"),
			[]byte("%PDF-1.4"),
			0o600,
		))

		client, fake := newTestClient(t, tabula.Config{})

		var gotArgs []string

		fake.onRun = func(_ string, args []string) {
			gotArgs = append([]string(nil), args...)
		}

		err := client.ConvertIntoByBatch(
			context.Background(),
			inputDir,
			tabula.FormatJSON,
			tabula.Options{},
		)
		require.NoError(t, err)

		assert.Equal(t, inputDir, flagValue(gotArgs, "--batch"))
		assert.Equal(t, "JSON", flagValue(gotArgs, "--format"))
		// --batch replaces the positional input path entirely.
		assert.Equal(t, inputDir, gotArgs[len(gotArgs)-1])
	})
}

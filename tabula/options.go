package tabula

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/shlex"
)

// Format is an output format understood by tabula-java.
type Format string

// Output formats accepted by the --format flag of tabula-java.
const (
	FormatCSV  Format = "CSV"
	FormatTSV  Format = "TSV"
	FormatJSON Format = "JSON"
)

// ParseFormat converts a case-insensitive format name ("csv", "tsv", "json")
// into a Format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "csv":
		return FormatCSV, nil
	case "tsv":
		return FormatTSV, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
}

// Area is a page region in PDF points, measured from the top-left corner.
type Area struct {
	Top    float64
	Left   float64
	Bottom float64
	Right  float64
}

// validate rejects regions whose edges are inverted.
func (a Area) validate() error {
	if a.Bottom < a.Top || a.Right < a.Left {
		return fmt.Errorf("%w: %s", ErrInvalidArea, a.String())
	}

	return nil
}

// String renders the area as "top,left,bottom,right".
func (a Area) String() string {
	return joinFloats([]float64{a.Top, a.Left, a.Bottom, a.Right})
}

// Options holds per-invocation settings for tabula-java.
type Options struct {
	// Pages selects pages to extract from: "1", "2-3", "1-2,4" or "all".
	// When empty the jar extracts page 1 only.
	Pages string
	// NoGuess disables the jar's guessing of table portions per page.
	// Guessing is on by default and is suppressed automatically whenever
	// an Area is given.
	NoGuess bool
	// Areas are the page regions to analyze. Empty means the entire page.
	Areas []Area
	// RelativeArea treats area values as percentages (0-100) of the page.
	RelativeArea bool
	// Lattice forces lattice-mode extraction (ruling lines between cells).
	Lattice bool
	// Stream forces stream-mode extraction (no ruling lines between cells).
	Stream bool
	// Password decrypts a protected document.
	Password string
	// Silent suppresses the jar's stderr chatter.
	Silent bool
	// Columns are x coordinates of column boundaries, ascending.
	Columns []float64
	// RelativeColumns treats column values as percentages of the page width.
	RelativeColumns bool
	// Format selects the jar's output format.
	Format Format
	// Batch converts every PDF in the given directory in one invocation.
	Batch string
	// OutputPath writes the jar's output to a file instead of stdout.
	OutputPath string
	// RawOptions is a raw tabula-java option string, split shell-style and
	// passed through before any generated flags.
	RawOptions string

	// Names supplies explicit column names for extracted tables and
	// suppresses header inference.
	Names []string
	// NoHeader keeps every row as data; extracted tables get nil Columns.
	NoHeader bool
	// HeaderRow is the row used as the header when inferring. Default 0.
	HeaderRow int
}

// Args marshals the options into the tabula-java argument list.
func (o Options) Args() ([]string, error) {
	var args []string

	// Raw option strings are kept for compatibility with callers that
	// assemble flags by hand. They go first so generated flags win.
	if o.RawOptions != "" {
		rawArgs, splitErr := shlex.Split(o.RawOptions)
		if splitErr != nil {
			return nil, fmt.Errorf("failed to split raw options: %w", splitErr)
		}

		args = append(args, rawArgs...)
	}

	if o.Pages != "" {
		args = append(args, "--pages", o.Pages)
	}

	for _, area := range o.Areas {
		validateErr := area.validate()
		if validateErr != nil {
			return nil, validateErr
		}

		args = append(
			args,
			"--area",
			formatWithRelative(
				[]float64{area.Top, area.Left, area.Bottom, area.Right},
				o.RelativeArea,
			),
		)
	}

	if o.Lattice {
		args = append(args, "--lattice")
	}

	if o.Stream {
		args = append(args, "--stream")
	}

	// An explicit area always disables guessing.
	if !o.NoGuess && len(o.Areas) == 0 {
		args = append(args, "--guess")
	}

	if o.Format != "" {
		args = append(args, "--format", string(o.Format))
	}

	if o.OutputPath != "" {
		args = append(args, "--outfile", o.OutputPath)
	}

	if len(o.Columns) > 0 {
		sortedErr := validateAscending(o.Columns)
		if sortedErr != nil {
			return nil, sortedErr
		}

		args = append(
			args,
			"--columns",
			formatWithRelative(o.Columns, o.RelativeColumns),
		)
	}

	if o.Password != "" {
		args = append(args, "--password", o.Password)
	}

	if o.Batch != "" {
		args = append(args, "--batch", o.Batch)
	}

	if o.Silent {
		args = append(args, "--silent")
	}

	return args, nil
}

// Merge layers the receiver over base: fields set on the receiver win,
// everything else falls back to base.
func (o Options) Merge(base Options) Options {
	merged := Options{
		Pages:           defaultString(o.Pages, base.Pages),
		NoGuess:         o.NoGuess && base.NoGuess,
		Areas:           o.Areas,
		RelativeArea:    o.RelativeArea || base.RelativeArea,
		Lattice:         o.Lattice || base.Lattice,
		Stream:          o.Stream || base.Stream,
		Password:        defaultString(o.Password, base.Password),
		Silent:          o.Silent || base.Silent,
		Columns:         o.Columns,
		RelativeColumns: o.RelativeColumns || base.RelativeColumns,
		Format:          Format(defaultString(string(o.Format), string(base.Format))),
		Batch:           defaultString(o.Batch, base.Batch),
		OutputPath:      defaultString(o.OutputPath, base.OutputPath),
		RawOptions:      defaultString(o.RawOptions, base.RawOptions),
		Names:           o.Names,
		NoHeader:        o.NoHeader || base.NoHeader,
		HeaderRow:       o.HeaderRow,
	}

	if len(merged.Areas) == 0 {
		merged.Areas = base.Areas
	}

	if len(merged.Columns) == 0 {
		merged.Columns = base.Columns
	}

	if len(merged.Names) == 0 {
		merged.Names = base.Names
	}

	if merged.HeaderRow == 0 {
		merged.HeaderRow = base.HeaderRow
	}

	return merged
}

// validateAscending rejects column boundaries that are not sorted.
func validateAscending(values []float64) error {
	for i := 1; i < len(values); i++ {
		if values[i] < values[i-1] {
			return fmt.Errorf("%w: %s", ErrUnsortedColumns, joinFloats(values))
		}
	}

	return nil
}

// formatWithRelative joins values with commas, prefixed with '%' when the
// values are percentages of the page dimensions.
func formatWithRelative(values []float64, relative bool) string {
	if relative {
		return "%" + joinFloats(values)
	}

	return joinFloats(values)
}

func joinFloats(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}

	return strings.Join(parts, ",")
}

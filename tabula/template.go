package tabula

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
)

// templateEntry is one region of a Tabula App template file.
type templateEntry struct {
	Page             int     `json:"page"`
	ExtractionMethod string  `json:"extraction_method"`
	X1               float64 `json:"x1"`
	X2               float64 `json:"x2"`
	Y1               float64 `json:"y1"`
	Y2               float64 `json:"y2"`
	Width            float64 `json:"width"`
	Height           float64 `json:"height"`
}

// LoadTemplateFile reads a Tabula App template from disk and converts it
// into extraction option sets.
func LoadTemplateFile(path string) ([]Options, error) {
	data, readErr := os.ReadFile(path)
	if readErr != nil {
		return nil, fmt.Errorf("failed to read template: %w", readErr)
	}

	return LoadTemplate(bytes.NewReader(data))
}

// LoadTemplate converts a Tabula App template document into extraction
// option sets. Regions on the same page that share an extraction method are
// merged into a single option set carrying multiple areas.
func LoadTemplate(reader io.Reader) ([]Options, error) {
	var entries []templateEntry

	decodeErr := json.NewDecoder(reader).Decode(&entries)
	if decodeErr != nil {
		return nil, fmt.Errorf("failed to decode template: %w", decodeErr)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Page != entries[j].Page {
			return entries[i].Page < entries[j].Page
		}

		return entries[i].ExtractionMethod < entries[j].ExtractionMethod
	})

	var options []Options

	for start := 0; start < len(entries); {
		end := start + 1
		for end < len(entries) && sameGroup(entries[start], entries[end]) {
			end++
		}

		options = append(options, optionFromGroup(entries[start:end]))
		start = end
	}

	return options, nil
}

func sameGroup(a, b templateEntry) bool {
	return a.Page == b.Page && a.ExtractionMethod == b.ExtractionMethod
}

// optionFromGroup builds the option set for one (page, method) group. A
// "guess" method needs no flag: guessing is the default, and the template's
// explicit areas suppress it anyway.
func optionFromGroup(group []templateEntry) Options {
	opt := Options{
		Pages: strconv.Itoa(group[0].Page),
	}

	switch group[0].ExtractionMethod {
	case "lattice":
		opt.Lattice = true
	case "stream":
		opt.Stream = true
	}

	for _, entry := range group {
		opt.Areas = append(opt.Areas, entry.area())
	}

	return opt
}

// area converts template coordinates into a page region, rounded to three
// decimals the way the Tabula App exports them.
func (e templateEntry) area() Area {
	return Area{
		Top:    round3(e.Y1),
		Left:   round3(e.X1),
		Bottom: round3(e.Y2),
		Right:  round3(e.X2),
	}
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

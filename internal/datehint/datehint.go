package datehint

import (
	"regexp"
	"time"
)

// Filename conventions seen in uploaded fuel invoices, most specific
// first. Fuel card providers commonly embed the statement date in the
// exported filename.
var patterns = []struct {
	re     *regexp.Regexp
	layout string
}{
	{regexp.MustCompile(`(\d{4}-\d{2}-\d{2})`), "2006-01-02"},
	{regexp.MustCompile(`(\d{4}_\d{2}_\d{2})`), "2006_01_02"},
	{regexp.MustCompile(`(\d{8})`), "20060102"},
}

// FromFilename derives an anchor-date hint from a filename convention.
// The hint biases extraction and window checks but is never trusted as
// ground truth. Returning nil is the normal outcome for filenames that
// carry no date, not an error.
func FromFilename(name string) *time.Time {
	for _, p := range patterns {
		for _, match := range p.re.FindAllString(name, -1) {
			t, err := time.Parse(p.layout, match)
			if err != nil {
				continue
			}
			// Years outside a sane range are artifacts (timestamps,
			// sequence numbers), not statement dates
			if t.Year() < 2000 || t.Year() > 2100 {
				continue
			}
			return &t
		}
	}
	return nil
}

package noteblock

import (
	"fmt"
	"strings"

	"github.com/larpo1/davidlarpent.com/internal/apperr"
)

// Span is the byte range of one note block within a body: header start
// (inclusive) through the next header (exclusive) or end of body.
type Span struct {
	Start  int
	End    int
	Header string
	Index  int
}

type marker struct {
	start     int
	header    string
	timestamp string
}

func markers(body string) []marker {
	locs := headerRe.FindAllStringSubmatchIndex(body, -1)
	out := make([]marker, len(locs))
	for i, loc := range locs {
		out[i] = marker{
			start:     loc[0],
			header:    body[loc[0]:loc[1]],
			timestamp: strings.TrimSpace(body[loc[2]:loc[3]]),
		}
	}
	return out
}

// Locate resolves a note reference to its block span. A valid index is
// authoritative: timestamps collide, positions do not. With index < 0 (or
// out of range) the first header matching the timestamp wins, the legacy
// path kept for callers that predate indexes.
func Locate(body, timestamp string, index int) (Span, error) {
	marks := markers(body)

	if index >= 0 && index < len(marks) {
		return spanAt(body, marks, index), nil
	}

	header := "<!-- note: " + timestamp + " -->"
	pos := strings.Index(body, header)
	if pos < 0 {
		return Span{}, fmt.Errorf("noteblock: note %s: %w", timestamp, apperr.ErrNotFound)
	}
	for i, m := range marks {
		if m.start == pos {
			return spanAt(body, marks, i), nil
		}
	}
	// Unreachable: an exact header match is always a marker.
	return Span{}, fmt.Errorf("noteblock: note %s: %w", timestamp, apperr.ErrNotFound)
}

func spanAt(body string, marks []marker, i int) Span {
	end := len(body)
	if i+1 < len(marks) {
		end = marks[i+1].start
	}
	return Span{Start: marks[i].start, End: end, Header: marks[i].header, Index: i}
}

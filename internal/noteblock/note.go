// Package noteblock implements the timestamped note protocol embedded in
// source document bodies. Notes are delimited by HTML-comment headers and
// carry optional metadata comment lines; all mutations are pure text
// splices over a located block span, so bytes outside the span are never
// rewritten.
package noteblock

import (
	"regexp"
	"sort"
	"strings"
	"time"
)

// TimestampLayout is the note header timestamp format, minute granularity.
const TimestampLayout = "2006-01-02T15:04"

var (
	headerRe    = regexp.MustCompile(`<!-- note: (.+?) -->`)
	tagsRe      = regexp.MustCompile(`<!-- tags: (.+?) -->`)
	publishedRe = regexp.MustCompile(`<!-- published: (true|false) -->`)

	tagsLineRe      = regexp.MustCompile(`^<!-- tags: (.+?) -->$`)
	publishedLineRe = regexp.MustCompile(`^<!-- published: (true|false) -->$`)
	spotifyLineRe   = regexp.MustCompile(`^<!-- spotify: (.+?) -->$`)
	metaLineRe      = regexp.MustCompile(`^<!-- (tags|published|spotify): .+? -->$`)
)

// Note is one parsed annotation block. Notes have no storage of their own;
// they are views computed by scanning a document body.
type Note struct {
	Timestamp string   `json:"timestamp"`
	Tags      []string `json:"tags"`
	Published bool     `json:"published"`
	Spotify   string   `json:"spotify,omitempty"`
	Content   string   `json:"content"`
	Index     int      `json:"index"`
}

// ParseAll scans body once and returns every note in document order.
// Timestamps are not unique; Index is the only reliable disambiguator.
func ParseAll(body string) []Note {
	marks := markers(body)
	if len(marks) == 0 {
		return nil
	}

	notes := make([]Note, 0, len(marks))
	for i, m := range marks {
		end := len(body)
		if i+1 < len(marks) {
			end = marks[i+1].start
		}
		block := body[m.start+len(m.header) : end]

		n := Note{Timestamp: m.timestamp, Tags: []string{}, Index: i}

		// Metadata lines directly follow the header; the first content
		// line ends the metadata region even if later lines happen to
		// look like metadata comments.
		inMeta := true
		var content []string
		for _, line := range strings.Split(block, "\n") {
			trimmed := strings.TrimSpace(line)
			if inMeta {
				if trimmed == "" {
					continue
				}
				if m := tagsLineRe.FindStringSubmatch(trimmed); m != nil {
					n.Tags = splitTags(m[1])
					continue
				}
				if m := publishedLineRe.FindStringSubmatch(trimmed); m != nil {
					n.Published = m[1] == "true"
					continue
				}
				if m := spotifyLineRe.FindStringSubmatch(trimmed); m != nil {
					n.Spotify = strings.TrimSpace(m[1])
					continue
				}
				inMeta = false
			}
			content = append(content, line)
		}
		n.Content = strings.TrimSpace(strings.Join(content, "\n"))
		notes = append(notes, n)
	}
	return notes
}

// AggregateTags returns the sorted, deduplicated union of every note's tags.
// A source document's frontmatter tags field is derived from this on every
// tag mutation; it is not independently editable.
func AggregateTags(body string) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, n := range ParseAll(body) {
		for _, t := range n.Tags {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	sort.Strings(out)
	return out
}

// Build renders a new note block. The leading newline is the block's own
// separator; Append relies on it. The published line is always emitted so
// the block stays toggleable later.
func Build(content string, tags []string, published bool, spotify string, now time.Time) string {
	lines := []string{"<!-- note: " + now.UTC().Format(TimestampLayout) + " -->"}
	if len(tags) > 0 {
		lines = append(lines, "<!-- tags: "+strings.Join(tags, ", ")+" -->")
	}
	lines = append(lines, "<!-- published: "+boolStr(published)+" -->")
	if spotify != "" {
		lines = append(lines, "<!-- spotify: "+spotify+" -->")
	}
	lines = append(lines, content)
	return "\n" + strings.Join(lines, "\n")
}

// Append concatenates a built block onto body: trailing whitespace is
// trimmed and exactly one newline separates the old body from the block's
// own leading separator.
func Append(body, block string) string {
	return strings.TrimRight(body, " \t\r\n") + "\n" + block
}

func splitTags(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

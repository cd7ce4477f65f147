// Package frontmatter encodes and decodes the YAML metadata block that
// prefixes every content document (posts and sources).
package frontmatter

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/larpo1/davidlarpent.com/internal/apperr"
)

// Frontmatter is the recognized metadata schema, the union of the posts and
// sources collections. Keys outside this schema are dropped on decode.
type Frontmatter struct {
	Title        string    `yaml:"title"`
	Author       string    `yaml:"author"`
	Type         string    `yaml:"type"`
	Link         string    `yaml:"link"`
	Date         time.Time `yaml:"date"`
	Description  string    `yaml:"description"`
	Draft        bool      `yaml:"draft"`
	Category     string    `yaml:"category"`
	FeatureImage string    `yaml:"featureImage"`
	Tags         []string  `yaml:"tags"`
	Archived     bool      `yaml:"archived"`
}

const delim = "---"

// Decode separates the frontmatter block (between leading --- delimiters)
// from the document body. A document without a parseable delimiter pair is
// malformed; callers surface that, they do not recover.
func Decode(raw []byte) (Frontmatter, string, error) {
	var fm Frontmatter

	trimmed := bytes.TrimLeft(raw, "\n\r")
	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return fm, "", fmt.Errorf("frontmatter: missing opening delimiter: %w", apperr.ErrMalformed)
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return fm, "", fmt.Errorf("frontmatter: unterminated block: %w", apperr.ErrMalformed)
	}

	yamlBlock := rest[:idx]
	if err := yaml.Unmarshal(yamlBlock, &fm); err != nil {
		return fm, "", fmt.Errorf("frontmatter: decode: %w", apperr.ErrMalformed)
	}

	// Body starts after the closing delimiter line. Encode emits one blank
	// line between the block and the body; strip exactly that much so that
	// Decode(Encode(fm, body)) returns body byte-for-byte.
	after := rest[idx+1+len(delim):]
	body := string(after)
	body = strings.TrimPrefix(body, "\n")
	body = strings.TrimPrefix(body, "\n")
	return fm, body, nil
}

// needsQuoting matches any scalar that would change meaning if emitted bare.
// Titles containing colons or quotes corrupted files before this set was
// locked down; it must not shrink.
const needsQuoting = ":\"'#{}[]&*?|>!%@`\n"

func scalar(v string) string {
	if !strings.ContainsAny(v, needsQuoting) {
		return v
	}
	return "'" + strings.ReplaceAll(v, "'", "''") + "'"
}

// Encode renders the frontmatter block followed by one blank line and the
// body. Keys are emitted in schema order; zero values are omitted. Tags are
// always a block sequence, never inline flow.
func Encode(fm Frontmatter, body string) []byte {
	var b strings.Builder
	b.WriteString(delim + "\n")

	writeStr := func(key, val string) {
		if val != "" {
			b.WriteString(key + ": " + scalar(val) + "\n")
		}
	}

	writeStr("title", fm.Title)
	writeStr("author", fm.Author)
	writeStr("type", fm.Type)
	writeStr("link", fm.Link)
	if !fm.Date.IsZero() {
		b.WriteString("date: " + fm.Date.UTC().Format("2006-01-02T15:04:05.000Z07:00") + "\n")
	}
	writeStr("description", fm.Description)
	if fm.Draft {
		b.WriteString("draft: true\n")
	}
	writeStr("category", fm.Category)
	writeStr("featureImage", fm.FeatureImage)
	if len(fm.Tags) > 0 {
		b.WriteString("tags:\n")
		for _, tag := range fm.Tags {
			b.WriteString("  - " + scalar(tag) + "\n")
		}
	}
	if fm.Archived {
		b.WriteString("archived: true\n")
	}

	b.WriteString(delim + "\n\n")
	b.WriteString(body)
	return []byte(b.String())
}

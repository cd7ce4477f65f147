package noteblock

import "strings"

// ReplaceContent re-emits the block's header and existing metadata lines
// verbatim, in original order, followed by the trimmed new content and a
// blank line, spliced over the span.
func ReplaceContent(body string, span Span, content string) string {
	block := body[span.Start:span.End]
	lines := strings.Split(block, "\n")

	metaLines := []string{lines[0]}
	for _, line := range lines[1:] {
		trimmed := strings.TrimSpace(line)
		if metaLineRe.MatchString(trimmed) {
			metaLines = append(metaLines, line)
			continue
		}
		if trimmed == "" {
			continue
		}
		break
	}

	newBlock := strings.Join(metaLines, "\n") + "\n" + strings.TrimSpace(content) + "\n\n"
	return body[:span.Start] + newBlock + body[span.End:]
}

// TogglePublished flips the block's published metadata line. A block
// without one is left untouched: legacy notes predate the line and the
// protocol never synthesizes it.
func TogglePublished(body string, span Span) string {
	block := body[span.Start:span.End]
	loc := publishedRe.FindStringSubmatchIndex(block)
	if loc == nil {
		return body
	}
	flipped := "false"
	if block[loc[2]:loc[3]] == "false" {
		flipped = "true"
	}
	newBlock := block[:loc[0]] + "<!-- published: " + flipped + " -->" + block[loc[1]:]
	return body[:span.Start] + newBlock + body[span.End:]
}

// UpdateTags rewrites the block's tags metadata line: replaced when both
// old and new exist, removed (with its trailing newline) when the new set
// is empty, inserted directly after the header when absent.
func UpdateTags(body string, span Span, tags []string) string {
	block := body[span.Start:span.End]

	tagsLine := ""
	if len(tags) > 0 {
		tagsLine = "<!-- tags: " + strings.Join(tags, ", ") + " -->"
	}

	loc := tagsRe.FindStringIndex(block)
	switch {
	case loc != nil && tagsLine != "":
		block = block[:loc[0]] + tagsLine + block[loc[1]:]
	case loc != nil && tagsLine == "":
		end := loc[1]
		if end < len(block) && block[end] == '\n' {
			end++
		}
		block = block[:loc[0]] + block[end:]
	case loc == nil && tagsLine != "":
		block = strings.Replace(block, span.Header, span.Header+"\n"+tagsLine, 1)
	default:
		return body
	}

	return body[:span.Start] + block + body[span.End:]
}

// Delete excises the block span entirely, header through block end.
func Delete(body string, span Span) string {
	return body[:span.Start] + body[span.End:]
}

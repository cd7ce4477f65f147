package mcpserver

// NoteFormatContract describes the note block format that LLM consumers
// must follow when appending notes to a source.
const NoteFormatContract = `# Reading Library Note Format

Sources are Markdown files with YAML frontmatter. Reading notes live in
the body as timestamped blocks. Every note MUST follow this structure.

## Structure

` + "```" + `markdown
<!-- note: 2025-01-20T14:30 -->
<!-- tags: first-tag, second-tag -->
<!-- published: false -->
<!-- spotify: https://open.spotify.com/episode/... -->

Free-form Markdown text of the note.
` + "```" + `

## Rules

1. **The header line is mandatory.** ` + "`" + `<!-- note: YYYY-MM-DDTHH:MM -->` + "`" + `
   marks the start of a block; the block runs until the next header or
   end of file. The timestamp is minute precision, local time.
2. **Metadata lines are optional** and must come directly after the
   header, before any content line: ` + "`" + `tags` + "`" + ` (comma separated),
   ` + "`" + `published` + "`" + ` (true or false), ` + "`" + `spotify` + "`" + ` (a deep link).
3. **Tags** are lowercase, kebab-case. The document's frontmatter ` + "`" + `tags` + "`" + `
   field is the sorted union of every note's tags; do not edit it by hand.
4. **Append only.** New notes go at the end of the body. Never reorder or
   rewrite existing blocks when adding a note.
5. **Timestamps may repeat** (two notes in the same minute). Tools that
   edit a specific note take a zero-based ` + "`" + `noteIndex` + "`" + ` to disambiguate.

## Example

` + "```" + `markdown
---
title: Dune
author: Frank Herbert
type: book
date: 2025-01-15T00:00:00.000Z
tags:
  - ecology
  - politics
---

<!-- note: 2025-01-15T09:12 -->
<!-- tags: ecology -->
<!-- published: true -->

The spice economy reads as an oil allegory from the first chapter.

<!-- note: 2025-01-20T14:30 -->
<!-- published: false -->

Second read: the Fremen chapters hold up better than the court intrigue.
` + "```" + `
`

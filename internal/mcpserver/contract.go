package mcpserver

// NoteFormatContract describes the Markdown accepted by create_note.
const NoteFormatContract = `# zhishi Note Format

Notes are Markdown documents with a title, an optional category and a set
of tags. create_note accepts plain Markdown or Markdown with a leading YAML
frontmatter block.

## Structure

` + "```" + `markdown
---
title: Human-readable title    # optional, defaults to the first "# " heading
category: work                 # optional, a single flat category
tags: [meeting-notes, q3]      # optional, YAML list
---

# Human-readable title

Body text in standard Markdown. Inline #hashtags are added to the tags.
` + "```" + `

## Rules

1. The frontmatter fences must be the first thing in the content.
2. Without a title field the first level-one heading is used; without
   either the note is called "Untitled".
3. Categories are flat names. "all" and "uncategorized" are reserved.
4. Hashtags inside code spans and fenced code blocks are ignored.
5. Encoding is UTF-8. Titles, tags and body may use any language.

## Images

- Use the ` + "`" + `attach_image` + "`" + ` tool with the note id and an http(s) URL or a
  base64 data URI. The image is downscaled to at most 1600px and embedded
  in the note; nothing is stored outside of it.
- Inside the note an image appears as ` + "`" + `![caption](attachment:<id>)` + "`" + `.
  Do not write these references by hand.
- Supported formats: png, jpg, gif, webp, svg.
`

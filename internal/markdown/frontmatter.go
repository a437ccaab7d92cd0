// Package markdown extracts card content from vault notes: YAML
// frontmatter, preview text, and image references. It parses just enough of
// the document for the feed and never renders markdown.
package markdown

import (
	"bytes"
	"strings"

	"gopkg.in/yaml.v3"
)

var frontmatterDelim = []byte("---\n")

// Document is a note split into parsed frontmatter and raw body.
type Document struct {
	Meta map[string]any
	Body string
}

// Parse splits a note into frontmatter and body. A note without a
// frontmatter block, or with one that is not valid YAML, yields nil Meta and
// the full content as Body.
func Parse(content []byte) Document {
	content = bytes.TrimPrefix(content, []byte("\ufeff"))

	if !bytes.HasPrefix(content, frontmatterDelim) {
		return Document{Body: string(content)}
	}

	rest := content[len(frontmatterDelim):]
	end := bytes.Index(rest, frontmatterDelim)
	closing := len(frontmatterDelim)
	if end < 0 {
		// Closing delimiter at EOF without a trailing newline.
		if bytes.HasSuffix(rest, []byte("\n---")) {
			end = len(rest) - 4
			closing = 4
		} else {
			return Document{Body: string(content)}
		}
	}

	var meta map[string]any
	if err := yaml.Unmarshal(rest[:end], &meta); err != nil {
		return Document{Body: string(content)}
	}

	return Document{Meta: meta, Body: string(rest[end+closing:])}
}

// StringProperty returns the named frontmatter property as a string. Lists
// yield their first string element.
func (d Document) StringProperty(key string) string {
	if d.Meta == nil || key == "" {
		return ""
	}
	switch v := d.Meta[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case []any:
		for _, elem := range v {
			if s, ok := elem.(string); ok {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

// Tags returns the note's frontmatter tags, normalized to lowercase without
// a leading #. Both list form and comma-separated string form are accepted.
func (d Document) Tags() []string {
	if d.Meta == nil {
		return nil
	}

	var raw []string
	switch v := d.Meta["tags"].(type) {
	case string:
		raw = strings.Split(v, ",")
	case []any:
		for _, elem := range v {
			if s, ok := elem.(string); ok {
				raw = append(raw, s)
			}
		}
	}

	var tags []string
	for _, t := range raw {
		t = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(t), "#")))
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

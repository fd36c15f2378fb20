// Package frontmatter splits `---` delimited YAML headers from Markdown
// bodies and decodes them into typed page metadata.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter indicates the document started with a YAML
// frontmatter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("yaml frontmatter start delimiter found but closing delimiter is missing")

// FrontMatter holds the typed metadata of a document or layout header.
// Keys the generator does not know about are preserved in Extra and exposed
// to templates under .Page.Params.
type FrontMatter struct {
	Layout string
	Title  string
	Date   time.Time
	Draft  bool
	Tags   []string
	Extra  map[string]any
}

// knownKeys are lifted into typed fields; everything else lands in Extra.
var knownKeys = map[string]bool{
	"layout": true,
	"title":  true,
	"date":   true,
	"draft":  true,
	"tags":   true,
}

// Split separates a YAML frontmatter header from the Markdown body.
//
// If the document does not start with a `---` line, had is false and body is
// the full input. Both Unix and Windows newlines are accepted.
func Split(content []byte) (header []byte, body []byte, had bool, err error) {
	nl := detectNewline(content)

	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, nil
	}

	rest := content[len(open):]
	if bytes.HasPrefix(rest, open) {
		// Empty header block.
		return []byte{}, rest[len(open):], true, nil
	}

	closeSeq := []byte(nl + "---" + nl)
	idx := bytes.Index(rest, closeSeq)
	if idx < 0 {
		// A final `---` without trailing newline still terminates the block.
		tail := []byte(nl + "---")
		if bytes.HasSuffix(rest, tail) {
			return rest[:len(rest)-len(tail)+len(nl)], []byte{}, true, nil
		}
		return nil, nil, false, ErrMissingClosingDelimiter
	}

	return rest[:idx+len(nl)], rest[idx+len(closeSeq):], true, nil
}

// Parse splits content and decodes the header. A document without a header
// yields a zero FrontMatter with an empty Extra map.
func Parse(content []byte) (FrontMatter, []byte, error) {
	header, body, had, err := Split(content)
	if err != nil {
		return FrontMatter{}, nil, err
	}
	if !had {
		return FrontMatter{Extra: map[string]any{}}, body, nil
	}
	fm, err := Decode(header)
	if err != nil {
		return FrontMatter{}, nil, err
	}
	return fm, body, nil
}

// Decode parses raw YAML header bytes (without delimiters) into FrontMatter.
func Decode(header []byte) (FrontMatter, error) {
	fm := FrontMatter{Extra: map[string]any{}}
	if len(header) == 0 {
		return fm, nil
	}

	var fields map[string]any
	if err := yaml.Unmarshal(header, &fields); err != nil {
		return fm, err
	}

	for key, value := range fields {
		switch key {
		case "layout":
			s, ok := value.(string)
			if !ok {
				return fm, fmt.Errorf("frontmatter key %q must be a string", key)
			}
			fm.Layout = s
		case "title":
			fm.Title = fmt.Sprintf("%v", value)
		case "date":
			t, err := parseDate(value)
			if err != nil {
				return fm, err
			}
			fm.Date = t
		case "draft":
			b, ok := value.(bool)
			if !ok {
				return fm, fmt.Errorf("frontmatter key %q must be a boolean", key)
			}
			fm.Draft = b
		case "tags":
			tags, err := parseTags(value)
			if err != nil {
				return fm, err
			}
			fm.Tags = tags
		}
		if !knownKeys[key] {
			fm.Extra[key] = value
		}
	}
	return fm, nil
}

// dateFormats are tried in order. Jekyll accepts both bare dates and
// timestamped dates in post headers.
var dateFormats = []string{
	time.RFC3339,
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseDate(value any) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		// yaml.v3 decodes ISO timestamps natively.
		return v, nil
	case string:
		for _, layout := range dateFormats {
			if t, err := time.Parse(layout, v); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("unparsable date %q", v)
	default:
		return time.Time{}, fmt.Errorf("frontmatter key \"date\" must be a date, got %T", value)
	}
}

func parseTags(value any) ([]string, error) {
	switch v := value.(type) {
	case string:
		return []string{v}, nil
	case []any:
		tags := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("frontmatter tags must be strings, got %T", item)
			}
			tags = append(tags, s)
		}
		return tags, nil
	default:
		return nil, fmt.Errorf("frontmatter key \"tags\" must be a string or list, got %T", value)
	}
}

func detectNewline(content []byte) string {
	for i := 0; i+1 < len(content); i++ {
		if content[i] == '\r' && content[i+1] == '\n' {
			return "\r\n"
		}
		if content[i] == '\n' {
			return "\n"
		}
	}
	return "\n"
}

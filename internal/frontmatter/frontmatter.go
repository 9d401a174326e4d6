// Package frontmatter splits a Markdown document into its YAML front matter
// and body.
//
// Front matter is delimited by lines containing only "---". LF and CRLF line
// endings are accepted and a leading UTF-8 byte order mark is ignored. Unknown
// YAML keys are ignored when decoding.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

var (
	// ErrNoFrontmatter is returned when the document does not open with a
	// "---" line or the block is never closed.
	ErrNoFrontmatter = errors.New("no front matter")
	// ErrInvalidYAML is returned when the block between the delimiters is
	// not valid YAML for the target type.
	ErrInvalidYAML = errors.New("invalid front matter yaml")
)

const delimiter = "---"

var bom = []byte{0xEF, 0xBB, 0xBF}

// Split returns the raw YAML block and the body that follows the closing
// delimiter.
func Split(src []byte) (meta, body []byte, err error) {
	src = bytes.TrimPrefix(src, bom)

	first, rest, ok := cutLine(src)
	if !ok && len(first) == 0 {
		return nil, nil, ErrNoFrontmatter
	}
	if string(first) != delimiter {
		return nil, nil, ErrNoFrontmatter
	}

	start := len(src) - len(rest)
	for len(rest) > 0 {
		line, next, _ := cutLine(rest)
		if string(line) == delimiter {
			end := len(src) - len(rest)
			return src[start:end], next, nil
		}
		rest = next
	}
	return nil, nil, ErrNoFrontmatter
}

// cutLine returns the first line of b without its terminator.
func cutLine(b []byte) (line, rest []byte, found bool) {
	line, rest, found = bytes.Cut(b, []byte{'\n'})
	line = bytes.TrimSuffix(line, []byte{'\r'})
	line = bytes.TrimRight(line, " \t")
	return line, rest, found
}

// Parse reads a whole document from r and decodes its front matter into T.
func Parse[T any](r io.Reader) (T, []byte, error) {
	var zero T
	src, err := io.ReadAll(r)
	if err != nil {
		return zero, nil, err
	}
	return ParseBytes[T](src)
}

// ParseBytes is Parse over an in-memory document.
func ParseBytes[T any](src []byte) (T, []byte, error) {
	var meta T
	raw, body, err := Split(src)
	if err != nil {
		return meta, nil, err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return meta, body, nil
	}
	if err := yaml.Unmarshal(raw, &meta); err != nil {
		return meta, nil, fmt.Errorf("%w: %w", ErrInvalidYAML, err)
	}
	return meta, body, nil
}

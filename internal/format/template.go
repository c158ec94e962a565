// Package format implements the output sinks the pipeline drives: a
// template printer for the print action and a command executor for the exec
// action. The pipeline invokes a sink at most once per matched entry, in
// breadth-first filtered order.
package format

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"github.com/harrison/bfind/internal/entry"
)

// Sink consumes matched entries. Emit is called once per match, in arrival
// order; Close flushes and releases any held resources after the pipeline
// drains.
type Sink interface {
	Emit(e *entry.Entry) error
	Close() error
}

// Template is a compiled print template. Literal text passes through;
// placeholders of the form {field} or {field:width} interpolate entry
// attributes, left-aligned and padded to the given minimum width.
//
// Fields: path, name, depth, size, type. {size} renders human-readable
// bytes for regular files and "-" when the size is not meaningful or the
// metadata cannot be resolved.
type Template struct {
	segments []segment
}

type segment struct {
	literal string
	field   string
	width   int
}

// DefaultTemplate is used when the print action is given without a template.
const DefaultTemplate = "{path}"

var validFields = map[string]bool{
	"path":  true,
	"name":  true,
	"depth": true,
	"size":  true,
	"type":  true,
}

// CompileTemplate parses a template string. Unknown fields, bad widths and
// unbalanced braces fail here, before any traversal starts.
func CompileTemplate(text string) (*Template, error) {
	var segments []segment
	for len(text) > 0 {
		open := strings.IndexByte(text, '{')
		if open < 0 {
			segments = append(segments, segment{literal: text})
			break
		}
		if open > 0 {
			segments = append(segments, segment{literal: text[:open]})
		}
		text = text[open+1:]
		closing := strings.IndexByte(text, '}')
		if closing < 0 {
			return nil, fmt.Errorf("unclosed placeholder in template")
		}
		spec := text[:closing]
		text = text[closing+1:]

		field, widthStr, hasWidth := strings.Cut(spec, ":")
		if !validFields[field] {
			return nil, fmt.Errorf("unknown template field %q", field)
		}
		width := 0
		if hasWidth {
			w, err := strconv.Atoi(widthStr)
			if err != nil || w < 0 {
				return nil, fmt.Errorf("invalid width %q for field %q", widthStr, field)
			}
			width = w
		}
		segments = append(segments, segment{field: field, width: width})
	}
	return &Template{segments: segments}, nil
}

// Render produces one output line for an entry (without the trailing newline).
func (t *Template) Render(e *entry.Entry) string {
	var b strings.Builder
	for _, seg := range t.segments {
		if seg.field == "" {
			b.WriteString(seg.literal)
			continue
		}
		value := fieldValue(seg.field, e)
		b.WriteString(value)
		// Pad by display width, not byte length, so columns stay aligned
		// for non-ASCII names.
		for pad := seg.width - runewidth.StringWidth(value); pad > 0; pad-- {
			b.WriteByte(' ')
		}
	}
	return b.String()
}

func fieldValue(field string, e *entry.Entry) string {
	switch field {
	case "path":
		return e.Path
	case "name":
		return e.Name
	case "depth":
		return strconv.Itoa(e.Depth)
	case "type":
		return e.Kind.String()
	case "size":
		if e.Kind != entry.KindFile {
			return "-"
		}
		meta, err := e.Metadata()
		if err != nil {
			return "-"
		}
		return humanize.IBytes(uint64(meta.Size))
	default:
		return ""
	}
}

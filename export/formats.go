package export

import (
	"fmt"
	"strings"
)

// FormatInfo provides metadata about an export format.
type FormatInfo struct {
	// Name is the format identifier.
	Name Format

	// MIMEType is the standard MIME type.
	MIMEType string

	// Extension is the file extension (with dot).
	Extension string

	// Description describes the format.
	Description string
}

// FormatRegistry contains metadata for all supported formats.
var FormatRegistry = map[Format]FormatInfo{
	FormatMarkdown: {
		Name:        FormatMarkdown,
		MIMEType:    "text/markdown",
		Extension:   ".md",
		Description: "Markdown document with one heading per section",
	},
	FormatJSON: {
		Name:        FormatJSON,
		MIMEType:    "application/json",
		Extension:   ".json",
		Description: "Brief document as JSON",
	},
	FormatText: {
		Name:        FormatText,
		MIMEType:    "text/plain",
		Extension:   ".txt",
		Description: "Plain text with underlined headings",
	},
}

// GetFormatInfo returns metadata for a format.
func GetFormatInfo(format Format) (FormatInfo, bool) {
	info, ok := FormatRegistry[format]
	return info, ok
}

// MarkdownWriter accumulates a Markdown document.
type MarkdownWriter struct {
	sb strings.Builder
}

// NewMarkdownWriter creates a new Markdown writer.
func NewMarkdownWriter() *MarkdownWriter {
	return &MarkdownWriter{}
}

// WriteTitle writes the level-one document heading.
func (w *MarkdownWriter) WriteTitle(title string) {
	w.sb.WriteString(fmt.Sprintf("# %s\n\n", escapeHeading(title)))
}

// WriteMeta writes an emphasized metadata line, e.g. "_Creative brief · June 1, 2026_".
func (w *MarkdownWriter) WriteMeta(parts ...string) {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return
	}
	w.sb.WriteString(fmt.Sprintf("_%s_\n\n", strings.Join(kept, " · ")))
}

// WriteSection writes a level-two heading followed by its body.
func (w *MarkdownWriter) WriteSection(title, body string) {
	w.sb.WriteString(fmt.Sprintf("## %s\n\n", escapeHeading(title)))
	w.sb.WriteString(strings.TrimRight(body, "\n"))
	w.sb.WriteString("\n\n")
}

// String returns the accumulated Markdown output.
func (w *MarkdownWriter) String() string {
	return strings.TrimRight(w.sb.String(), "\n") + "\n"
}

// escapeHeading keeps a heading on one line.
func escapeHeading(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

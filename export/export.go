// Package export renders a creative brief as a shareable document.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/c360studio/briefwork/workshop"
)

// Format specifies the output serialization format.
type Format string

const (
	// FormatMarkdown produces Markdown (.md) output.
	FormatMarkdown Format = "markdown"

	// FormatJSON produces the brief document as JSON (.json).
	FormatJSON Format = "json"

	// FormatText produces plain text (.txt) output.
	FormatText Format = "text"
)

// ErrUnknownFormat is returned for a format name that is not registered.
var ErrUnknownFormat = errors.New("unknown export format")

// ParseFormat resolves a format name or file extension ("md", ".json").
func ParseFormat(s string) (Format, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for f, info := range FormatRegistry {
		if name == string(f) || name == info.Extension || "."+name == info.Extension {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Exporter renders brief documents.
type Exporter struct {
	clock      func() time.Time
	keepEmpty  bool
	emptyLabel string
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithClock sets the time source for the generated-at stamp.
func WithClock(clock func() time.Time) Option {
	return func(e *Exporter) {
		e.clock = clock
	}
}

// WithEmptySections keeps sections that have no text, rendered with label.
func WithEmptySections(label string) Option {
	return func(e *Exporter) {
		e.keepEmpty = true
		e.emptyLabel = label
	}
}

// NewExporter creates an exporter. Empty sections are omitted by default.
func NewExporter(opts ...Option) *Exporter {
	e := &Exporter{clock: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// jsonDocument is the JSON wire shape: the brief document plus a timestamp.
type jsonDocument struct {
	workshop.BriefDocument
	GeneratedAt time.Time `json:"generatedAt"`
}

// Export renders doc in the requested format.
func (e *Exporter) Export(doc workshop.BriefDocument, format Format) (string, error) {
	switch format {
	case FormatMarkdown:
		return e.exportMarkdown(doc), nil
	case FormatText:
		return e.exportText(doc), nil
	case FormatJSON:
		data, err := json.MarshalIndent(jsonDocument{
			BriefDocument: doc,
			GeneratedAt:   e.clock().UTC().Truncate(time.Second),
		}, "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshal brief: %w", err)
		}
		return string(data) + "\n", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

func (e *Exporter) sections(doc workshop.BriefDocument) []workshop.Section {
	var out []workshop.Section
	for _, s := range doc.Sections.Ordered() {
		s.Text = strings.TrimSpace(s.Text)
		if s.Text == "" {
			if !e.keepEmpty {
				continue
			}
			s.Text = e.emptyLabel
		}
		out = append(out, s)
	}
	return out
}

func (e *Exporter) exportMarkdown(doc workshop.BriefDocument) string {
	w := NewMarkdownWriter()
	w.WriteTitle(doc.ProjectName)
	w.WriteMeta("Creative brief", e.clock().Format("January 2, 2006"))
	for _, s := range e.sections(doc) {
		w.WriteSection(s.Title, s.Text)
	}
	return w.String()
}

func (e *Exporter) exportText(doc workshop.BriefDocument) string {
	var sb strings.Builder
	sb.WriteString(strings.ToUpper(doc.ProjectName))
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", len(doc.ProjectName)))
	sb.WriteString("\n")
	for _, s := range e.sections(doc) {
		sb.WriteString("\n")
		sb.WriteString(s.Title)
		sb.WriteString("\n")
		sb.WriteString(strings.Repeat("-", len(s.Title)))
		sb.WriteString("\n")
		sb.WriteString(s.Text)
		sb.WriteString("\n")
	}
	return sb.String()
}

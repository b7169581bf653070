// Package render turns highlight segments into display text for a given output medium.
package render

import (
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/hyperjump/bloemist/internal/highlight"
	"github.com/muesli/termenv"
)

// Format names an output medium.
type Format string

const (
	// FormatPlain drops emphasis and returns the original text.
	FormatPlain Format = "plain"
	// FormatHTML escapes text and wraps emphasis in <strong>.
	FormatHTML Format = "html"
	// FormatMarkdown wraps emphasis in ** and escapes Markdown emphasis characters.
	FormatMarkdown Format = "markdown"
	// FormatTerminal styles emphasis with ANSI bold for terminals.
	FormatTerminal Format = "terminal"
)

// Formats lists every supported format.
var Formats = []Format{FormatPlain, FormatHTML, FormatMarkdown, FormatTerminal}

// ansiRenderer always emits ANSI sequences. The default lipgloss renderer inspects
// os.Stdout and drops all styling when it is not a terminal, which is the normal
// case for the server and for piped output.
var ansiRenderer = newANSIRenderer()

func newANSIRenderer() *lipgloss.Renderer {
	r := lipgloss.NewRenderer(io.Discard, termenv.WithProfile(termenv.ANSI))
	r.SetColorProfile(termenv.ANSI)
	return r
}

// EmphasisStyle is applied to emphasized segments in FormatTerminal.
var EmphasisStyle = ansiRenderer.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("#8BC34A")).
	TabWidth(lipgloss.NoTabConversion)

// ParseFormat parses a format name. The empty string parses as FormatPlain.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatPlain, "text":
		return FormatPlain, nil
	case FormatHTML:
		return FormatHTML, nil
	case FormatMarkdown, "md":
		return FormatMarkdown, nil
	case FormatTerminal, "ansi":
		return FormatTerminal, nil
	default:
		return "", fmt.Errorf("unknown format %q", s)
	}
}

// Render renders segments in the given format.
func Render(segments []highlight.Segment, format Format) (string, error) {
	switch format {
	case FormatPlain, "":
		return Plain(segments), nil
	case FormatHTML:
		return HTML(segments), nil
	case FormatMarkdown:
		return Markdown(segments), nil
	case FormatTerminal:
		return Terminal(segments), nil
	default:
		return "", fmt.Errorf("unknown format %q", format)
	}
}

// Plain returns the underlying text without emphasis.
func Plain(segments []highlight.Segment) string {
	return highlight.Text(segments)
}

// HTML escapes each segment and wraps emphasized ones in <strong>.
func HTML(segments []highlight.Segment) string {
	var b strings.Builder
	for _, s := range segments {
		if s.Emphasized {
			b.WriteString("<strong>")
			b.WriteString(html.EscapeString(s.Text))
			b.WriteString("</strong>")
			continue
		}
		b.WriteString(html.EscapeString(s.Text))
	}
	return b.String()
}

var markdownEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `_`, `\_`, "`", "\\`")

// Markdown wraps emphasized segments in ** and escapes characters that would
// otherwise start or end emphasis.
func Markdown(segments []highlight.Segment) string {
	var b strings.Builder
	for _, s := range segments {
		if s.Emphasized {
			b.WriteString("**")
			b.WriteString(markdownEscaper.Replace(s.Text))
			b.WriteString("**")
			continue
		}
		b.WriteString(markdownEscaper.Replace(s.Text))
	}
	return b.String()
}

// Terminal renders emphasized segments with EmphasisStyle. Plain segments are
// written verbatim.
func Terminal(segments []highlight.Segment) string {
	var b strings.Builder
	for _, s := range segments {
		if s.Emphasized {
			b.WriteString(EmphasisStyle.Render(s.Text))
			continue
		}
		b.WriteString(s.Text)
	}
	return b.String()
}

// Package cli writes highlight, intro, and search results for the bloemist command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/hyperjump/bloemist/internal/highlight"
	"github.com/hyperjump/bloemist/internal/models"
	"github.com/hyperjump/bloemist/internal/render"
	"github.com/hyperjump/bloemist/pkg/utils"
)

// OutputFormat is the shape of command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputCompact is one line per result.
	OutputCompact OutputFormat = "compact"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat parses an output format name; empty means OutputText.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(strings.TrimSpace(s))) {
	case "", OutputText:
		return OutputText, nil
	case OutputCompact:
		return OutputCompact, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text, compact, or json", s)
	}
}

// Options controls how results are written.
type Options struct {
	Output OutputFormat
	// Style renders segments in text and compact output.
	Style render.Format
	// MaxIntro cuts intros in search results to this many characters; 0 keeps them whole.
	MaxIntro int
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteSegments writes highlighted text. JSON output is the segment list; text output
// is the rendered text followed by a newline.
func WriteSegments(w io.Writer, segments []highlight.Segment, opts Options) error {
	if opts.Output == OutputJSON {
		if segments == nil {
			segments = []highlight.Segment{}
		}
		return writeJSON(w, segments)
	}
	out, err := render.Render(segments, opts.Style)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, out)
	return err
}

// WriteHighlight writes an ad hoc highlight response.
func WriteHighlight(w io.Writer, resp *models.HighlightResponse, opts Options) error {
	if opts.Output == OutputJSON {
		return writeJSON(w, resp)
	}
	return WriteSegments(w, resp.Segments, opts)
}

// WriteIntro writes a category and its highlighted intro.
func WriteIntro(w io.Writer, resp *models.IntroResponse, opts Options) error {
	switch opts.Output {
	case OutputJSON:
		return writeJSON(w, resp)
	case OutputCompact:
		fmt.Fprintf(w, "%s\t", resp.Category.Slug)
		return WriteSegments(w, resp.Segments, opts)
	default:
		fmt.Fprintf(w, "%s (%s)\n", resp.Category.Name, resp.Category.Slug)
		if len(resp.Keywords) > 0 {
			fmt.Fprintf(w, "Keywords: %s\n", strings.Join(resp.Keywords, ", "))
		}
		fmt.Fprintln(w)
		return WriteSegments(w, resp.Segments, opts)
	}
}

// WriteSearchResults writes search results to w in the given format.
// Use OutputJSON for parseable output consumable by other apps.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, opts Options) error {
	switch opts.Output {
	case OutputJSON:
		return writeJSON(w, response)
	case OutputCompact:
		return writeSearchResultsCompact(w, response, opts)
	default:
		return writeSearchResultsText(w, response, opts)
	}
}

func writeSearchResultsText(w io.Writer, response *models.SearchResponse, opts Options) error {
	fmt.Fprintf(w, "\nFound %d categories in %dms\n", response.Total, response.QueryTime)
	if response.AutoFuzzy {
		fmt.Fprintln(w, "(no exact matches; showing fuzzy matches)")
	}
	fmt.Fprintln(w)
	for _, result := range response.Results {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "Rank: %d | Score: %.4f\n", result.Rank, result.Score)
		fmt.Fprintf(w, "%s (%s)\n\n", result.Category.Name, result.Category.Slug)
		if err := WriteSegments(w, TruncateSegments(result.Segments, opts.MaxIntro), opts); err != nil {
			return err
		}
		fmt.Fprintln(w)
	}
	return nil
}

func writeSearchResultsCompact(w io.Writer, response *models.SearchResponse, opts Options) error {
	for _, result := range response.Results {
		snippet, err := render.Render(TruncateSegments(result.Segments, opts.MaxIntro), opts.Style)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%d\t%.3f\t%s\t%s\t%s\n",
			result.Rank, result.Score, result.Category.Slug,
			utils.Truncate(utils.SingleLine(result.Category.Name), 40),
			utils.SingleLine(snippet))
	}
	return nil
}

// TruncateSegments keeps the first maxRunes characters of segments, preserving emphasis,
// and appends a plain "..." when anything was cut. maxRunes <= 0 keeps everything.
func TruncateSegments(segments []highlight.Segment, maxRunes int) []highlight.Segment {
	if maxRunes <= 0 {
		return segments
	}
	out := make([]highlight.Segment, 0, len(segments))
	left := maxRunes
	for _, s := range segments {
		n := utf8.RuneCountInString(s.Text)
		if n <= left {
			out = append(out, s)
			left -= n
			continue
		}
		if left > 0 {
			out = append(out, highlight.Segment{Text: string([]rune(s.Text)[:left]), Emphasized: s.Emphasized})
		}
		return append(out, highlight.PlainText("..."))
	}
	return out
}

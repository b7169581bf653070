// Package highlight marks keyword occurrences in text as emphasized segments.
//
// Matching is literal and case-insensitive. When occurrences of different keywords
// overlap, the longer match wins; the emphasized spans of a result never overlap and
// the segments concatenate back to the input text.
package highlight

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// Segment is one contiguous run of output text, either plain or emphasized.
type Segment struct {
	Text       string `json:"text"`
	Emphasized bool   `json:"emphasized,omitempty"`
}

// PlainText returns a plain segment.
func PlainText(s string) Segment { return Segment{Text: s} }

// EmphasizedText returns an emphasized segment.
func EmphasizedText(s string) Segment { return Segment{Text: s, Emphasized: true} }

// Match is an occurrence of a keyword in the source text. Start and End are byte
// offsets, End exclusive. Length is the match length in runes.
type Match struct {
	Start  int    `json:"start"`
	End    int    `json:"end"`
	Text   string `json:"text"`
	Length int    `json:"length"`

	// keyword is the index of the keyword in declaration order; it breaks ties
	// between equal-length matches at the same offset.
	keyword int
}

// Highlighter highlights a fixed keyword list. It is safe for concurrent use.
type Highlighter struct {
	keywords []string
	patterns []*regexp.Regexp
}

// NewHighlighter compiles keywords into case-insensitive literal patterns.
// Empty keywords and keywords that are not valid UTF-8 are skipped.
func NewHighlighter(keywords []string) *Highlighter {
	h := &Highlighter{keywords: append([]string(nil), keywords...)}
	for _, kw := range keywords {
		if kw == "" {
			h.patterns = append(h.patterns, nil)
			continue
		}
		// Keywords with invalid UTF-8 do not compile; they match nothing.
		re, err := regexp.Compile("(?i)" + regexp.QuoteMeta(kw))
		if err != nil {
			h.patterns = append(h.patterns, nil)
			continue
		}
		h.patterns = append(h.patterns, re)
	}
	return h
}

// Keywords returns a copy of the keyword list in declaration order.
func (h *Highlighter) Keywords() []string {
	return append([]string(nil), h.keywords...)
}

// Highlight splits text into plain and emphasized segments.
// Empty text yields nil; text without matches yields a single plain segment.
func (h *Highlighter) Highlight(text string) []Segment {
	if text == "" {
		return nil
	}
	spans := SelectSpans(h.FindMatches(text))
	if len(spans) == 0 {
		return []Segment{PlainText(text)}
	}
	segments := make([]Segment, 0, 2*len(spans)+1)
	cursor := 0
	for _, m := range spans {
		if m.Start > cursor {
			segments = append(segments, PlainText(text[cursor:m.Start]))
		}
		segments = append(segments, EmphasizedText(m.Text))
		cursor = m.End
	}
	if cursor < len(text) {
		segments = append(segments, PlainText(text[cursor:]))
	}
	return segments
}

// FindMatches returns every occurrence of every keyword. Occurrences of one keyword
// never overlap each other; occurrences of different keywords may.
func (h *Highlighter) FindMatches(text string) []Match {
	var matches []Match
	for i, re := range h.patterns {
		if re == nil {
			continue
		}
		for _, loc := range re.FindAllStringIndex(text, -1) {
			if loc[0] == loc[1] {
				continue
			}
			s := text[loc[0]:loc[1]]
			matches = append(matches, Match{
				Start:   loc[0],
				End:     loc[1],
				Text:    s,
				Length:  utf8.RuneCountInString(s),
				keyword: i,
			})
		}
	}
	return matches
}

// SelectSpans picks a non-overlapping subset of matches, longest first. Ties on length
// go to the earlier start, then to the keyword declared first. The result is ordered
// by Start.
func SelectSpans(matches []Match) []Match {
	if len(matches) == 0 {
		return nil
	}
	ordered := append([]Match(nil), matches...)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.Length != b.Length {
			return a.Length > b.Length
		}
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		return a.keyword < b.keyword
	})

	var claimed []bool
	for _, m := range ordered {
		if m.End > len(claimed) {
			claimed = append(claimed, make([]bool, m.End-len(claimed))...)
		}
	}
	accepted := make([]Match, 0, len(ordered))
	for _, m := range ordered {
		if anyClaimed(claimed[m.Start:m.End]) {
			continue
		}
		for i := m.Start; i < m.End; i++ {
			claimed[i] = true
		}
		accepted = append(accepted, m)
	}
	sort.Slice(accepted, func(i, j int) bool { return accepted[i].Start < accepted[j].Start })
	return accepted
}

func anyClaimed(positions []bool) bool {
	for _, c := range positions {
		if c {
			return true
		}
	}
	return false
}

// FindMatches is a convenience for NewHighlighter(keywords).FindMatches(text).
func FindMatches(text string, keywords []string) []Match {
	return NewHighlighter(keywords).FindMatches(text)
}

// Highlight is a convenience for NewHighlighter(keywords).Highlight(text).
func Highlight(text string, keywords []string) []Segment {
	return NewHighlighter(keywords).Highlight(text)
}

// Text concatenates the underlying text of segments.
func Text(segments []Segment) string {
	var b strings.Builder
	for _, s := range segments {
		b.WriteString(s.Text)
	}
	return b.String()
}

// Emphasized returns the text of each emphasized segment in order.
func Emphasized(segments []Segment) []string {
	var out []string
	for _, s := range segments {
		if s.Emphasized {
			out = append(out, s.Text)
		}
	}
	return out
}

// Package segment aligns extracted proper nouns onto a transcript.
//
// The transcript is split into an ordered run of spans. Plain spans carry
// untouched text; noun spans carry the exact substring that matched and the
// proper-noun record it matched. Matching is greedy leftmost and ignores
// ASCII case only, so byte offsets in the folded text equal those in the
// original.
package segment

import (
	"encoding/json"
	"strings"

	"github.com/starford/notable/internal/models"
)

// Span is one contiguous piece of the transcript.
type Span struct {
	Text   string             `json:"text"`
	Offset int                `json:"offset"`
	Noun   *models.ProperNoun `json:"properNoun,omitempty"`
}

// IsNoun reports whether the span is a matched proper noun.
func (s Span) IsNoun() bool { return s.Noun != nil }

// Result is the outcome of Segment. When nothing can be aligned it is in the
// plain form: the whole text, not a one-element sequence.
type Result struct {
	text  string
	spans []Span
}

// Plain reports whether the result is the bare text.
func (r Result) Plain() bool { return r.spans == nil }

// Spans returns the ordered spans, or nil for a plain result.
func (r Result) Spans() []Span { return r.spans }

// Text reassembles the transcript from the result.
func (r Result) Text() string {
	if r.Plain() {
		return r.text
	}
	var b strings.Builder
	for _, s := range r.spans {
		b.WriteString(s.Text)
	}
	return b.String()
}

// Nouns returns the noun spans in order of appearance.
func (r Result) Nouns() []Span {
	var out []Span
	for _, s := range r.spans {
		if s.IsNoun() {
			out = append(out, s)
		}
	}
	return out
}

// MarshalJSON encodes a plain result as a JSON string and anything else as
// an array of spans.
func (r Result) MarshalJSON() ([]byte, error) {
	if r.Plain() {
		return json.Marshal(r.text)
	}
	return json.Marshal(r.spans)
}

type entry struct {
	key  string
	noun models.ProperNoun
}

// Segment splits text around every occurrence of the nouns' original forms.
//
// For duplicate originals (case-insensitive) the last record wins but keeps
// the position of the first. When two keys match at the same offset the one
// inserted first wins. Empty originals never match.
func Segment(text string, nouns []models.ProperNoun) Result {
	if text == "" || len(nouns) == 0 {
		return Result{text: text}
	}

	entries := lookup(nouns)
	if len(entries) == 0 {
		return Result{text: text}
	}

	folded := foldASCII(text)
	spans := make([]Span, 0, 2*len(entries)+1)
	pos := 0
	for pos < len(text) {
		best, at := -1, -1
		for i, e := range entries {
			idx := strings.Index(folded[pos:], e.key)
			if idx < 0 {
				continue
			}
			if at < 0 || idx < at {
				best, at = i, idx
			}
		}
		if best < 0 {
			break
		}

		start := pos + at
		end := start + len(entries[best].key)
		if start > pos {
			spans = append(spans, Span{Text: text[pos:start], Offset: pos})
		}
		noun := entries[best].noun.Clone()
		spans = append(spans, Span{Text: text[start:end], Offset: start, Noun: &noun})
		pos = end
	}
	if pos < len(text) {
		spans = append(spans, Span{Text: text[pos:], Offset: pos})
	}
	return Result{text: text, spans: spans}
}

func lookup(nouns []models.ProperNoun) []entry {
	index := make(map[string]int, len(nouns))
	entries := make([]entry, 0, len(nouns))
	for _, n := range nouns {
		key := foldASCII(n.Original)
		if key == "" {
			continue
		}
		if i, ok := index[key]; ok {
			entries[i].noun = n
			continue
		}
		index[key] = len(entries)
		entries = append(entries, entry{key: key, noun: n})
	}
	return entries
}

// foldASCII lowercases A-Z and leaves every other byte alone.
func foldASCII(s string) string {
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= 'A' && c <= 'Z' {
			b := []byte(s)
			for j := i; j < len(b); j++ {
				if b[j] >= 'A' && b[j] <= 'Z' {
					b[j] += 'a' - 'A'
				}
			}
			return string(b)
		}
	}
	return s
}

// IndexFold returns the byte offset of the first ASCII case-insensitive
// occurrence of sub in s, or -1.
func IndexFold(s, sub string) int {
	return strings.Index(foldASCII(s), foldASCII(sub))
}

package extraction

import (
	"errors"
	"sort"
	"strings"
	"unicode"

	"github.com/arbovm/levenshtein"

	"go-ultrasound-inspector/pkg/models"
)

var (
	// ErrEmptyResponse is returned when the model text is empty or whitespace
	ErrEmptyResponse = errors.New("empty model response")
	// ErrNoSections is returned when none of the labels appear in the text
	ErrNoSections = errors.New("no labelled sections in model response")
)

// Section labels, in the order the model is asked to produce them
const (
	LabelFindings       = "findings"
	LabelSummary        = "summary"
	LabelRecommendation = "recommendation"
)

var labels = []string{LabelFindings, LabelSummary, LabelRecommendation}

// trimCutset is stripped from both ends of every extracted value
const trimCutset = " \t\r\n*_#"

// Extractor splits a free-text model response into the three result fields
type Extractor struct {
	// Strict disables matching of misspelled or pluralised labels
	Strict bool
}

// NewExtractor returns a lenient extractor
func NewExtractor() *Extractor {
	return &Extractor{}
}

// marker is a located label: start of the label text and end of its colon
type marker struct {
	label string
	start int
	end   int
}

// Extract locates each label and returns the text between it and the next label.
// A label that cannot be found yields an empty field.
func (e *Extractor) Extract(text string) (*models.AnalysisResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyResponse
	}

	markers := e.locate(text)
	if len(markers) == 0 {
		return nil, ErrNoSections
	}

	sort.Slice(markers, func(i, j int) bool { return markers[i].start < markers[j].start })

	values := make(map[string]string, len(markers))
	for i, m := range markers {
		stop := len(text)
		if i+1 < len(markers) {
			stop = markers[i+1].start
		}
		values[m.label] = strings.Trim(text[m.end:stop], trimCutset)
	}

	return &models.AnalysisResult{
		Findings:       values[LabelFindings],
		Summary:        values[LabelSummary],
		Recommendation: values[LabelRecommendation],
	}, nil
}

func (e *Extractor) locate(text string) []marker {
	lower := asciiLower(text)
	markers := make([]marker, 0, len(labels))
	taken := make(map[int]bool, len(labels))

	for _, label := range labels {
		if idx := strings.Index(lower, label+":"); idx >= 0 {
			markers = append(markers, marker{label: label, start: idx, end: idx + len(label) + 1})
			taken[idx] = true
		}
	}

	if e.Strict || len(markers) == len(labels) {
		return markers
	}

	found := make(map[string]bool, len(markers))
	for _, m := range markers {
		found[m.label] = true
	}

	for _, candidate := range lineLabels(lower) {
		if taken[candidate.start] {
			continue
		}
		for _, label := range labels {
			if found[label] {
				continue
			}
			if levenshtein.Distance(candidate.label, label) <= 1 {
				markers = append(markers, marker{label: label, start: candidate.start, end: candidate.end})
				found[label] = true
				taken[candidate.start] = true
				break
			}
		}
	}

	return markers
}

// asciiLower folds A-Z only, so every byte offset in the result is valid in s
func asciiLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// lineLabels returns every "word:" token that begins a line, ignoring leading
// whitespace and markdown decoration. The label field holds the bare word.
// lower must have the same byte layout as the text it was derived from.
func lineLabels(lower string) []marker {
	var out []marker
	offset := 0
	for _, line := range strings.SplitAfter(lower, "\n") {
		lineStart := offset
		offset += len(line)

		trimmed := strings.TrimLeft(line, " \t*_#->")
		wordStart := lineStart + len(line) - len(trimmed)

		colon := strings.IndexByte(trimmed, ':')
		if colon <= 0 {
			continue
		}
		word := strings.TrimRight(trimmed[:colon], "*_ ")
		if !isWord(word) {
			continue
		}
		out = append(out, marker{label: word, start: wordStart, end: wordStart + colon + 1})
	}
	return out
}

func isWord(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

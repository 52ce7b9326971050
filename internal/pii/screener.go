// Package pii implements the best-effort privacy screen run once when an
// image is registered. It is a coarse whole-word check against a fixed
// term list, intentionally biased toward over-flagging.
package pii

import (
	"context"
	_ "embed"
	"log/slog"
	"strings"
	"unicode"
)

//go:embed names.txt
var namesList string

// headerTerms are document headers that typically precede identifying
// text on scanned forms.
var headerTerms = []string{"name", "dob", "d.o.b.", "address"}

// Checker decides whether the image at path likely depicts identifying
// text.
type Checker interface {
	Check(ctx context.Context, path string) (bool, error)
}

// Screener screens images by intersecting their OCR word set with a
// fixed suspicious-term set. The term set is built once at construction
// and read-only afterwards.
type Screener struct {
	ocr        OCR
	suspicious map[string]struct{}
}

// NewScreener builds a Screener over the given OCR capability. ocr may
// be nil, in which case every check fails closed.
func NewScreener(ocr OCR) *Screener {
	suspicious := make(map[string]struct{})
	for _, term := range headerTerms {
		suspicious[term] = struct{}{}
	}
	for _, name := range strings.Split(namesList, "\n") {
		name = strings.TrimSpace(name)
		if name != "" {
			suspicious[strings.ToLower(name)] = struct{}{}
		}
	}
	return &Screener{ocr: ocr, suspicious: suspicious}
}

// ExtractWords runs OCR over the image and returns the distinct
// lower-cased, punctuation-stripped tokens of the result.
func (s *Screener) ExtractWords(ctx context.Context, path string) (map[string]struct{}, error) {
	text, err := s.ocr.ExtractText(ctx, path)
	if err != nil {
		return nil, err
	}
	return tokenize(text), nil
}

// Suspicious reports whether the word set intersects the suspicious-term
// set. An empty set is never suspicious: no text, no risk.
func (s *Screener) Suspicious(words map[string]struct{}) bool {
	for word := range words {
		if _, ok := s.suspicious[word]; ok {
			return true
		}
	}
	return false
}

// Check composes extraction and the intersection test. If no OCR
// capability is present the image is conservatively flagged as sensitive
// rather than silently passed. An OCR invocation failure is returned to
// the caller and fails the enclosing request.
func (s *Screener) Check(ctx context.Context, path string) (bool, error) {
	if s.ocr == nil || !s.ocr.Available() {
		slog.Warn("ocr unavailable, flagging image as sensitive", "path", path)
		return true, nil
	}
	words, err := s.ExtractWords(ctx, path)
	if err != nil {
		return false, err
	}
	return s.Suspicious(words), nil
}

func tokenize(text string) map[string]struct{} {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			return -1
		}
		return r
	}, strings.ToLower(text))

	words := make(map[string]struct{})
	for _, word := range strings.Fields(cleaned) {
		words[word] = struct{}{}
	}
	return words
}

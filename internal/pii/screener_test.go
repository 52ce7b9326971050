package pii

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOCR struct {
	text      string
	err       error
	available bool
}

func (f *fakeOCR) Available() bool { return f.available }

func (f *fakeOCR) ExtractText(ctx context.Context, path string) (string, error) {
	return f.text, f.err
}

func wordSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

func TestSuspicious(t *testing.T) {
	s := NewScreener(nil)

	tests := []struct {
		name  string
		words map[string]struct{}
		want  bool
	}{
		{"nil set", nil, false},
		{"empty set", wordSet(), false},
		{"header name", wordSet("name"), true},
		{"header dob", wordSet("dob"), true},
		{"header address", wordSet("address"), true},
		{"common first name", wordSet("sarah"), true},
		{"common surname", wordSet("hernandez"), true},
		{"clinical terms only", wordSet("tumor", "cyst", "hospital"), false},
		{"mixed", wordSet("tumor", "john"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Suspicious(tt.words))
		})
	}
}

func TestExtractWordsStripsPunctuationAndCase(t *testing.T) {
	s := NewScreener(&fakeOCR{available: true, text: "Patient D.O.B: 01/02/1990!\nSarah, CYST."})

	words, err := s.ExtractWords(context.Background(), "scan.png")
	require.NoError(t, err)

	assert.Contains(t, words, "dob")
	assert.Contains(t, words, "sarah")
	assert.Contains(t, words, "cyst")
	assert.NotContains(t, words, "Sarah")
	assert.NotContains(t, words, "d.o.b")
}

func TestCheck(t *testing.T) {
	t.Run("flags identifying text", func(t *testing.T) {
		s := NewScreener(&fakeOCR{available: true, text: "Name: John Smith"})
		flagged, err := s.Check(context.Background(), "scan.png")
		require.NoError(t, err)
		assert.True(t, flagged)
	})

	t.Run("passes clinical text", func(t *testing.T) {
		s := NewScreener(&fakeOCR{available: true, text: "tumor cyst hospital"})
		flagged, err := s.Check(context.Background(), "scan.png")
		require.NoError(t, err)
		assert.False(t, flagged)
	})

	t.Run("passes image with no text", func(t *testing.T) {
		s := NewScreener(&fakeOCR{available: true, text: ""})
		flagged, err := s.Check(context.Background(), "scan.png")
		require.NoError(t, err)
		assert.False(t, flagged)
	})

	t.Run("fails closed without ocr capability", func(t *testing.T) {
		s := NewScreener(&fakeOCR{available: false})
		flagged, err := s.Check(context.Background(), "scan.png")
		require.NoError(t, err)
		assert.True(t, flagged)
	})

	t.Run("fails closed with nil ocr", func(t *testing.T) {
		s := NewScreener(nil)
		flagged, err := s.Check(context.Background(), "scan.png")
		require.NoError(t, err)
		assert.True(t, flagged)
	})

	t.Run("ocr invocation failure is fatal", func(t *testing.T) {
		s := NewScreener(&fakeOCR{available: true, err: errors.New("boom")})
		_, err := s.Check(context.Background(), "scan.png")
		assert.Error(t, err)
	})
}

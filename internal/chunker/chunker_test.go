package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentences(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"single", "Hello world.", []string{"Hello world."}},
		{"keeps punctuation", "One. Two! Three? Four", []string{"One.", "Two!", "Three?", "Four"}},
		{"punctuation runs", "Wait... What?! Yes.", []string{"Wait...", "What?!", "Yes."}},
		{"newlines are boundaries", "Hello.\nWorld.", []string{"Hello.", "World."}},
		{"no boundary without whitespace", "Version 1.5 is out.", []string{"Version 1.5 is out."}},
		{"blank", "   ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Sentences(tt.input))
		})
	}
}

func TestSplit(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		maxLen   int
		expected []string
	}{
		{
			name:     "fits in one chunk unchanged",
			text:     "Hello.\nWorld.",
			maxLen:   1000,
			expected: []string{"Hello.\nWorld."},
		},
		{
			name:     "packs sentences greedily",
			text:     "Aaaa. Bbbb. Cccc. Dddd.",
			maxLen:   11,
			expected: []string{"Aaaa. Bbbb.", "Cccc. Dddd."},
		},
		{
			name:     "oversized sentence is its own chunk",
			text:     "Hi. This sentence is far too long to fit. Ok.",
			maxLen:   10,
			expected: []string{"Hi.", "This sentence is far too long to fit.", "Ok."},
		},
		{
			name:     "unbounded",
			text:     "One. Two. Three.",
			maxLen:   0,
			expected: []string{"One. Two. Three."},
		},
		{
			name:     "surrounding whitespace trimmed",
			text:     "  Short.  ",
			maxLen:   100,
			expected: []string{"Short."},
		},
		{
			name:     "empty",
			text:     "",
			maxLen:   100,
			expected: nil,
		},
		{
			name:     "whitespace only",
			text:     " \n\t ",
			maxLen:   100,
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Split(tt.text, tt.maxLen))
		})
	}
}

func TestSplit_CountsRunes(t *testing.T) {
	// Six runes per sentence, more bytes than that.
	text := "Çğüşö. Çğüşö."
	assert.Equal(t, []string{text}, Split(text, 13))
	assert.Equal(t, []string{"Çğüşö.", "Çğüşö."}, Split(text, 12))
}

func longText() string {
	sentences := []string{
		"The ministry announced new measures on Monday.",
		"Officials said the plan would take effect next month!",
		"Would it work?",
		"Critics were not convinced.",
		"A spokesperson declined to comment on the details of the agreement reached late at night.",
		"Markets reacted calmly.",
	}
	return strings.Join(sentences, " ") + "\n" + strings.Join(sentences, "  ")
}

func TestSplit_Invariants(t *testing.T) {
	text := longText()

	for _, maxLen := range []int{20, 50, 80, 120, 400} {
		chunks := Split(text, maxLen)
		require.NotEmpty(t, chunks)

		var rejoined []string
		for _, c := range chunks {
			assert.NotEmpty(t, c)
			if utf8.RuneCountInString(c) > maxLen {
				assert.Len(t, Sentences(c), 1, "only a lone sentence may exceed the limit")
			}
			rejoined = append(rejoined, Sentences(c)...)
		}
		assert.Equal(t, Sentences(text), rejoined, "sentences kept in order, none lost or duplicated")
	}
}

func TestSplit_Idempotent(t *testing.T) {
	text := longText()

	for _, maxLen := range []int{20, 50, 80, 120} {
		for _, c := range Split(text, maxLen) {
			assert.Equal(t, []string{c}, Split(c, maxLen))
		}
	}
}

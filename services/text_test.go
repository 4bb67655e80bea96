package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"ligatures", "Deﬁnition von Proﬁlen", "Definition von Profilen"},
		{"nfc", "Mu\u0308ller", "M\u00fcller"},
		{"hyphenation", "Sprach-\nmodelle", "Sprachmodelle"},
		{"keeps compound hyphen", "KI-\nStrategie", "KI-\nStrategie"},
		{"spaces", "  Forscht zu\t\tNLP  ", "Forscht zu NLP"},
		{"blank lines", "A\r\n\r\n\r\n\r\nB", "A\n\nB"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanText(tt.in))
		})
	}
}

package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{}},
		{"   ", []string{}},
		{"Hi, can you HELP me?", []string{"hi", "can", "you", "help", "me"}},
		{"debug... the code!!!", []string{"debug", "the", "code"}},
		{"C++ / Go-lang", []string{"c", "go", "lang"}},
		{"Résumé tips", []string{"résumé", "tips"}},
		{"top 10 questions", []string{"top", "10", "questions"}},
	}
	for _, tt := range tests {
		got := Tokenize(tt.in)
		if len(tt.want) == 0 {
			assert.Empty(t, got, tt.in)
			continue
		}
		assert.Equal(t, tt.want, got, tt.in)
	}
}

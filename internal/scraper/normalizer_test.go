package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain text collapsed", "a  b\n\tc", "a b c"},
		{"tags stripped", "<p>Hello <b>world</b></p>", "Hello world"},
		{"script contents dropped", "<p>keep</p><script>var x = 1;</script>", "keep"},
		{"style contents dropped", "<style>.a{color:red}</style><div>text</div>", "text"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeText(tt.in))
		})
	}
}

func TestEmbeddingText(t *testing.T) {
	got := EmbeddingText("Software Engineer", "<p>Build   things</p>")
	assert.Equal(t, "Software Engineer\nBuild things", got)

	assert.Equal(t, "Engineer", EmbeddingText("Engineer", ""))
	assert.Equal(t, "", EmbeddingText("", ""))
}

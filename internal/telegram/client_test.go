package telegram

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitByBytes(t *testing.T) {
	tests := []struct {
		name string
		text string
		max  int
		want []string
	}{
		{name: "fits", text: "hello", max: 10, want: []string{"hello"}},
		{name: "ascii split", text: "abcdefg", max: 3, want: []string{"abc", "def", "g"}},
		{name: "keeps runes whole", text: "ééé", max: 3, want: []string{"é", "é", "é"}},
		{name: "zero max", text: "abc", max: 0, want: []string{"abc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitByBytes(tt.text, tt.max))
		})
	}
}

func TestSplitByBytesRejoins(t *testing.T) {
	text := strings.Repeat("resource \"aws_s3_bucket\" \"b\" {}\n", 300)
	parts := splitByBytes(text, maxMessageBytes)

	assert.Greater(t, len(parts), 1)
	for _, p := range parts {
		assert.LessOrEqual(t, len(p), maxMessageBytes)
	}
	assert.Equal(t, text, strings.Join(parts, ""))
}

func TestTruncateByBytes(t *testing.T) {
	assert.Equal(t, "short", truncateByBytes("short", 10))
	assert.Equal(t, "ab", truncateByBytes("abcdef", 2))
	assert.Equal(t, "é", truncateByBytes("éé", 3))
}

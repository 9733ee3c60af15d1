package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShortHash(t *testing.T) {
	// sha1("abc") = a9993e364706816aba3e25717850c26c9cd0d89d
	assert.Equal(t, "a9993e364706816a", ShortHash("abc", 16))
	assert.Equal(t, "a9993e364706816aba3e25717850c26c9cd0d89d", ShortHash("abc", 0))
	assert.Equal(t, "a9993e364706816aba3e25717850c26c9cd0d89d", ShortHash("abc", 100))
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "turkish letters", input: "Sabır ve Şükür", expected: "sabir-ve-sukur"},
		{name: "dotted capital i", input: "İman ve Güven", expected: "iman-ve-guven"},
		{name: "url escaped", input: "Cuma%20Hutbesi", expected: "cuma-hutbesi"},
		{name: "punctuation", input: "  Aile: Huzur!  ", expected: "aile-huzur"},
		{name: "empty", input: "   ", expected: "hutbe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Slugify(tt.input))
		})
	}
}

package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTagText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercases", "Beach", "beach"},
		{"trims", "  beach  ", "beach"},
		{"collapses whitespace", "beach\t day", "beach day"},
		{"folds unicode", "Łódź", "łódź"},
		{"empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TagText(tt.input))
		})
	}
}

func TestSplitTagInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"single", "beach", []string{"beach"}},
		{"comma separated", "beach, Sunset,HIKE", []string{"beach", "sunset", "hike"}},
		{"punctuation stripped", "beach!day, (sunset)", []string{"beach day", "sunset"}},
		{"empties dropped", "beach,, ,", []string{"beach"}},
		{"no tags", " , ", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitTagInput(tt.input))
		})
	}
}

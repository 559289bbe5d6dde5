package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple name", "Electronics", "electronics"},
		{"special characters stripped", "Home & Garden!!", "home-garden"},
		{"spaces and underscores collapse", " Foo_Bar  Baz ", "foo-bar-baz"},
		{"ampersand between words", "Phones & Tablets", "phones-tablets"},
		{"leading and trailing hyphens trimmed", "--Weird--", "weird"},
		{"already a slug", "home-garden", "home-garden"},
		{"only special characters", "!!!", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Slugify(tt.input))
		})
	}
}

func TestSlugify_Deterministic(t *testing.T) {
	// Same name must always yield the same slug.
	assert.Equal(t, Slugify("Home & Garden!!"), Slugify("Home & Garden!!"))
}

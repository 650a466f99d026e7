package validate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPhone(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		ok       bool
	}{
		{"+79991234567", "+7 (999) 123-45-67", true},
		{"89991234567", "+7 (999) 123-45-67", true},
		{"8 (999) 123-45-67", "+7 (999) 123-45-67", true},
		{"+7 999 123 45 67", "+7 (999) 123-45-67", true},
		{"79991234567", "+7 (999) 123-45-67", true},
		{"9991234567", "", false}, // no country prefix
		{"123", "", false},
		{"", "", false},
		{"+7999123456789", "", false}, // too long
		{"abc", "", false},
	}

	for _, tt := range tests {
		res, err := Phone(tt.input)
		if tt.ok {
			assert.NoError(t, err, "input: %s", tt.input)
			assert.Equal(t, tt.expected, res, "input: %s", tt.input)
		} else {
			assert.Error(t, err, "input: %s", tt.input)
			assert.True(t, IsValidationError(err), "input: %s", tt.input)
		}
	}
}

func TestFullName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		ok    bool
	}{
		{"cyrillic", "Анна Петрова", true},
		{"latin", "Anna Petrova", true},
		{"hyphenated", "Анна-Мария Петрова-Водкина", true},
		{"with dot", "Петрова А.", true},
		{"too short", "А", false},
		{"digits", "Анна123", false},
		{"empty", "", false},
		{"markup stripped then valid", "  Анна <b>Петрова</b>  ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FullName(tt.input)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestFullNameNormalizesWhitespace(t *testing.T) {
	name, err := FullName("  Анна   Петрова ")
	assert.NoError(t, err)
	assert.Equal(t, "Анна Петрова", name)
}

func TestDate(t *testing.T) {
	now := time.Date(2025, 6, 14, 12, 0, 0, 0, time.Local)

	tests := []struct {
		name  string
		input string
		ok    bool
	}{
		{"tomorrow", "15.06.2025", true},
		{"today", "14.06.2025", true},
		{"yesterday", "13.06.2025", false},
		{"year ahead", "14.06.2026", true},
		{"beyond year", "15.06.2026", false},
		{"bad format", "2025-06-15", false},
		{"nonsense", "99.99.9999", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Date(tt.input, now)
			if tt.ok {
				assert.NoError(t, err)
				assert.Equal(t, tt.input, res)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestTime(t *testing.T) {
	tests := []struct {
		input string
		ok    bool
	}{
		{"08:00", true},
		{"12:15", true},
		{"19:45", true},
		{"20:00", true}, // closing boundary is bookable
		{"20:15", false},
		{"07:45", false},
		{"12:10", false}, // off the 15-minute grid
		{"12:60", false},
		{"1200", false},
		{"", false},
	}

	for _, tt := range tests {
		_, err := Time(tt.input)
		if tt.ok {
			assert.NoError(t, err, "input: %s", tt.input)
		} else {
			assert.Error(t, err, "input: %s", tt.input)
		}
	}
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "Анна Петрова", Sanitize("  Анна \n\t Петрова  ", 100))
	assert.Equal(t, "abc", Sanitize("a<b>c", 100))
	assert.Equal(t, "abc", Sanitize("abcdef", 3))
}

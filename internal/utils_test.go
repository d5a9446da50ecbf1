package internal

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrompt(t *testing.T) {
	prompt, err := ParsePrompt("Hello, {{.Name}}!", struct{ Name string }{Name: "Ada"})
	require.NoError(t, err)
	assert.Equal(t, "Hello, Ada!", prompt)

	_, err = ParsePrompt("Hello, {{.Name!", nil)
	assert.Error(t, err)
}

func TestReverseSlice(t *testing.T) {
	testCases := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "Empty slice",
			input:    []string{},
			expected: []string{},
		},
		{
			name:     "Slice with one element",
			input:    []string{"a"},
			expected: []string{"a"},
		},
		{
			name:     "Slice with even number of elements",
			input:    []string{"a", "b", "c", "d"},
			expected: []string{"d", "c", "b", "a"},
		},
		{
			name:     "Slice with odd number of elements",
			input:    []string{"a", "b", "c", "d", "e"},
			expected: []string{"e", "d", "c", "b", "a"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ReverseSlice(tc.input)
			if !reflect.DeepEqual(tc.input, tc.expected) {
				t.Errorf("ReverseSlice(%v) = %v; want %v", tc.input, tc.input, tc.expected)
			}
		})
	}
}

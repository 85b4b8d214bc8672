package documents

import (
	"math/rand"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSplitter(t *testing.T) {
	cases := []struct {
		name    string
		size    int
		overlap int
		wantErr bool
	}{
		{"defaults", DefaultChunkSize, DefaultChunkOverlap, false},
		{"no_overlap", 10, 0, false},
		{"overlap_equals_size", 10, 10, false},
		{"zero_size", 0, 0, true},
		{"negative_overlap", 10, -1, true},
		{"overlap_bigger_than_size", 10, 11, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s, err := NewSplitter("\n", c.size, c.overlap)
			if c.wantErr {
				assert.ErrorIs(t, err, ErrInvalidSplitter)
				assert.Nil(t, s)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, c.size, s.ChunkSize)
		})
	}
}

func TestSplit(t *testing.T) {
	cases := []struct {
		name    string
		sep     string
		size    int
		overlap int
		text    string
		want    []string
	}{
		{
			name: "overlapping_lines", sep: "\n", size: 10, overlap: 5,
			text: "aaaa\nbbbb\ncccc\ndddd",
			want: []string{"aaaa\nbbbb", "bbbb\ncccc", "cccc\ndddd"},
		},
		{
			name: "no_overlap", sep: "\n", size: 10, overlap: 0,
			text: "aaaa\nbbbb\ncccc\ndddd",
			want: []string{"aaaa\nbbbb", "cccc\ndddd"},
		},
		{
			name: "fits_in_one_chunk", sep: "\n", size: 160, overlap: 100,
			text: "Four score and seven years ago\nour fathers brought forth",
			want: []string{"Four score and seven years ago\nour fathers brought forth"},
		},
		{
			name: "empty_lines_dropped", sep: "\n", size: 160, overlap: 100,
			text: "\n\nfirst\n\n\nsecond\n",
			want: []string{"first\nsecond"},
		},
		{
			name: "oversized_line_hard_split", sep: "\n", size: 5, overlap: 2,
			text: "abcdefgh\nxy",
			want: []string{"abcde", "defgh", "xy"},
		},
		{
			name: "chunks_are_trimmed", sep: "\n", size: 8, overlap: 0,
			text: "  ab  \n  cd  ",
			want: []string{"ab", "cd"},
		},
		{
			name: "whitespace_only", sep: "\n", size: 160, overlap: 100,
			text: "   \n\n   ",
			want: nil,
		},
		{
			name: "empty", sep: "\n", size: 160, overlap: 100,
			text: "",
			want: nil,
		},
		{
			name: "multibyte_counts_runes", sep: "\n", size: 5, overlap: 0,
			text: "ñandú\nöl",
			want: []string{"ñandú", "öl"},
		},
		{
			name: "empty_separator_splits_runes", sep: "", size: 3, overlap: 1,
			text: "abcde",
			want: []string{"abc", "cde"},
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s, err := NewSplitter(c.sep, c.size, c.overlap)
			require.NoError(t, err)
			assert.Equal(t, c.want, s.Split(c.text))
		})
	}
}

func TestSplitNeverExceedsChunkSize(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	words := []string{"nation", "liberty", "dedicated", "we", "here", "highly", "resolve", "that", "these", "dead"}

	for round := 0; round < 50; round++ {
		var lines []string
		for i := 0; i < 1+rng.Intn(40); i++ {
			var line []string
			for j := 0; j < 1+rng.Intn(60); j++ {
				line = append(line, words[rng.Intn(len(words))])
			}
			lines = append(lines, strings.Join(line, " "))
		}
		text := strings.Join(lines, "\n")

		s, err := NewSplitter(DefaultSeparator, DefaultChunkSize, DefaultChunkOverlap)
		require.NoError(t, err)
		chunks := s.Split(text)
		require.NotEmpty(t, chunks)

		for _, chunk := range chunks {
			assert.LessOrEqual(t, utf8.RuneCountInString(chunk), DefaultChunkSize)
			assert.NotEmpty(t, chunk)
		}
		for _, line := range lines {
			if utf8.RuneCountInString(line) > DefaultChunkSize {
				continue
			}
			found := false
			for _, chunk := range chunks {
				if strings.Contains(chunk, line) {
					found = true
					break
				}
			}
			assert.True(t, found, "line %q missing from chunks", line)
		}
	}
}

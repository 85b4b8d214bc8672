package documents

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	DefaultSeparator    = "\n"
	DefaultChunkSize    = 160
	DefaultChunkOverlap = 100
)

var ErrInvalidSplitter = errors.New("invalid splitter settings")

// Splitter cuts text on a literal separator and greedily merges the pieces
// back into chunks of at most ChunkSize runes. Consecutive chunks share
// trailing pieces worth up to ChunkOverlap runes.
type Splitter struct {
	Separator    string
	ChunkSize    int
	ChunkOverlap int
}

func NewSplitter(separator string, chunkSize, chunkOverlap int) (*Splitter, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size %d must be positive", ErrInvalidSplitter, chunkSize)
	}
	if chunkOverlap < 0 || chunkOverlap > chunkSize {
		return nil, fmt.Errorf("%w: chunk overlap %d must be within [0, %d]", ErrInvalidSplitter, chunkOverlap, chunkSize)
	}
	return &Splitter{Separator: separator, ChunkSize: chunkSize, ChunkOverlap: chunkOverlap}, nil
}

func (s *Splitter) Split(text string) []string {
	if text == "" {
		return nil
	}
	var pieces []string
	for _, p := range s.pieces(text) {
		pieces = append(pieces, s.hardSplit(p)...)
	}
	return s.merge(pieces)
}

func (s *Splitter) pieces(text string) []string {
	var raw []string
	if s.Separator == "" {
		for _, r := range text {
			raw = append(raw, string(r))
		}
	} else {
		raw = strings.Split(text, s.Separator)
	}

	out := raw[:0]
	for _, p := range raw {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// hardSplit cuts a piece longer than ChunkSize into overlapping rune windows.
func (s *Splitter) hardSplit(piece string) []string {
	if utf8.RuneCountInString(piece) <= s.ChunkSize {
		return []string{piece}
	}
	step := s.ChunkSize - s.ChunkOverlap
	if step <= 0 {
		step = s.ChunkSize
	}

	runes := []rune(piece)
	var windows []string
	for start := 0; start < len(runes); start += step {
		end := start + s.ChunkSize
		if end > len(runes) {
			end = len(runes)
		}
		windows = append(windows, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return windows
}

func (s *Splitter) merge(pieces []string) []string {
	sepLen := utf8.RuneCountInString(s.Separator)
	sepIf := func(cond bool) int {
		if cond {
			return sepLen
		}
		return 0
	}

	var (
		chunks  []string
		current []string
		total   int
	)
	for _, piece := range pieces {
		n := utf8.RuneCountInString(piece)
		if total+n+sepIf(len(current) > 0) > s.ChunkSize && len(current) > 0 {
			chunks = s.appendChunk(chunks, current)
			for total > s.ChunkOverlap || (total > 0 && total+n+sepIf(len(current) > 0) > s.ChunkSize) {
				total -= utf8.RuneCountInString(current[0]) + sepIf(len(current) > 1)
				current = current[1:]
			}
		}
		current = append(current, piece)
		total += n + sepIf(len(current) > 1)
	}
	if len(current) > 0 {
		chunks = s.appendChunk(chunks, current)
	}
	return chunks
}

func (s *Splitter) appendChunk(chunks, parts []string) []string {
	chunk := strings.TrimSpace(strings.Join(parts, s.Separator))
	if chunk == "" {
		return chunks
	}
	return append(chunks, chunk)
}

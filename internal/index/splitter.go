package index

import (
	"strings"
	"unicode/utf8"
)

// CharacterSplitter cuts text on Separator and packs the pieces into chunks of
// at most ChunkSize runes, carrying up to Overlap runes of trailing pieces
// into the next chunk. A single piece longer than ChunkSize becomes its own chunk.
type CharacterSplitter struct {
	Separator string
	ChunkSize int
	Overlap   int
}

func NewCharacterSplitter(size, overlap int) CharacterSplitter {
	if size <= 0 {
		size = 500
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}
	return CharacterSplitter{Separator: "\n", ChunkSize: size, Overlap: overlap}
}

func (s CharacterSplitter) Split(text string) []string {
	sep := s.Separator
	var pieces []string
	for _, p := range strings.Split(text, sep) {
		if p = strings.TrimSpace(p); p != "" {
			pieces = append(pieces, p)
		}
	}
	return s.merge(pieces)
}

func (s CharacterSplitter) merge(pieces []string) []string {
	sepLen := utf8.RuneCountInString(s.Separator)
	var (
		out     []string
		current []string
		total   int
	)
	joinLen := func(n int) int {
		if n > 0 {
			return sepLen
		}
		return 0
	}
	for _, p := range pieces {
		l := utf8.RuneCountInString(p)
		if total+l+joinLen(len(current)) > s.ChunkSize && len(current) > 0 {
			if doc := strings.TrimSpace(strings.Join(current, s.Separator)); doc != "" {
				out = append(out, doc)
			}
			for total > s.Overlap || (total+l+joinLen(len(current)) > s.ChunkSize && total > 0) {
				first := utf8.RuneCountInString(current[0])
				if len(current) > 1 {
					first += sepLen
				}
				total -= first
				current = current[1:]
			}
		}
		current = append(current, p)
		total += l + joinLen(len(current)-1)
	}
	if doc := strings.TrimSpace(strings.Join(current, s.Separator)); doc != "" {
		out = append(out, doc)
	}
	return out
}

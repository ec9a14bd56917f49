package storage

import (
	"math/rand/v2"
	"slices"
	"strings"
)

type WordSource interface {
	Generate(count int) []string
}

var DefaultWords = []string{
	"gopher", "channel", "goroutine", "pointer", "compiler",
	"keyboard", "monitor", "rainbow", "volcano", "penguin",
	"lighthouse", "sandwich", "elephant", "treasure", "blanket",
}

// StaticWords serves words from a fixed list.
type StaticWords struct {
	words []string
}

func NewStaticWords(words []string) *StaticWords {
	cleaned := make([]string, 0, len(words))
	for _, w := range words {
		if w = strings.TrimSpace(w); w != "" {
			cleaned = append(cleaned, w)
		}
	}
	return &StaticWords{words: cleaned}
}

// Generate returns up to count distinct words in random order.
func (s *StaticWords) Generate(count int) []string {
	if count <= 0 {
		return []string{}
	}
	shuffled := slices.Clone(s.words)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled[:min(count, len(shuffled))]
}

// FallbackWords tops up whatever primary returns with words from fallback.
type FallbackWords struct {
	Primary  WordSource
	Fallback WordSource
}

func (f FallbackWords) Generate(count int) []string {
	var words []string
	if f.Primary != nil {
		words = f.Primary.Generate(count)
	}
	if len(words) >= count || f.Fallback == nil {
		return words
	}
	for _, w := range f.Fallback.Generate(count) {
		if len(words) == count {
			break
		}
		if !slices.Contains(words, w) {
			words = append(words, w)
		}
	}
	return words
}

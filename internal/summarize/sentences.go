package summarize

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var sentenceEnd = regexp.MustCompile(`[.!?]\s+`)

// SplitSentences splits after '.', '!' or '?' when followed by whitespace.
// The terminator stays with its sentence.
func SplitSentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	var out []string
	last := 0
	for _, loc := range sentenceEnd.FindAllStringIndex(text, -1) {
		out = append(out, text[last:loc[0]+1])
		last = loc[1]
	}
	if last < len(text) {
		out = append(out, text[last:])
	}
	return out
}

// TokenCounter estimates how many model tokens a text occupies.
type TokenCounter interface {
	Count(text string) int
}

// HeuristicCounter approximates a subword tokenizer without loading one:
// every non-ASCII letter counts as a token, ASCII words count one token per
// four characters and every punctuation mark counts as one.
type HeuristicCounter struct{}

func (HeuristicCounter) Count(text string) int {
	n := 0
	asciiRun := 0
	flush := func() {
		if asciiRun > 0 {
			n += (asciiRun + 3) / 4
			asciiRun = 0
		}
	}
	for _, r := range text {
		switch {
		case r < utf8.RuneSelf && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			asciiRun++
		case unicode.IsSpace(r):
			flush()
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			flush()
			n++
		default:
			flush()
			n++
		}
	}
	flush()
	return n
}

// GroupByTokenLimit greedily packs sentences (joined by a space) while the
// packed text stays within maxTokens. A sentence that alone exceeds the limit
// becomes its own group.
func GroupByTokenLimit(sentences []string, counter TokenCounter, maxTokens int) []string {
	var groups []string
	current := ""
	for _, s := range sentences {
		tentative := s
		if current != "" {
			tentative = current + " " + s
		}
		if counter.Count(tentative) <= maxTokens {
			current = tentative
			continue
		}
		if current != "" {
			groups = append(groups, strings.TrimSpace(current))
		}
		current = s
	}
	if strings.TrimSpace(current) != "" {
		groups = append(groups, strings.TrimSpace(current))
	}
	return groups
}

// ExtractKeywordSentences keeps the '.'-separated sentences containing any of
// keywords, joined by ". ". It returns text unchanged when none match.
func ExtractKeywordSentences(text string, keywords []string) string {
	if len(keywords) == 0 {
		return text
	}
	var selected []string
	for _, s := range strings.Split(text, ".") {
		for _, kw := range keywords {
			if kw != "" && strings.Contains(s, kw) {
				selected = append(selected, s)
				break
			}
		}
	}
	joined := strings.Join(selected, ". ")
	if strings.TrimSpace(joined) == "" {
		return text
	}
	return joined
}

// RemoveDuplicateSentences drops repeated '.'-separated sentences, keeping the
// first occurrence, and joins the rest with ". ".
func RemoveDuplicateSentences(text string) string {
	seen := map[string]struct{}{}
	var out []string
	for _, s := range strings.Split(text, ".") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return strings.Join(out, ". ")
}

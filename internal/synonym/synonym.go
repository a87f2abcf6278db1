package synonym

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/mohammad-safakhou/briefer/provider"
)

const temperature = 0.3

const generatePrompt = `Please provide a comprehensive list of at least 20 synonyms for the keyword "%[1]s".

Important instructions:
- The synonyms must be commonly used in %[2]s.
- Use both the primary local language of %[2]s and English if English terms are also widely used in %[2]s.
- You should automatically detect the local language based on %[2]s.
- Provide strict synonyms only (no related terms, no broader/narrower concepts).
- Do not include the keyword itself.
- No synonym should be a substring of another synonym.
- List only synonyms, separated by commas.

Example:
If the country is Korea and the keyword is "인공지능", include synonyms like "AI", "Artificial Intelligence" along with local synonyms like "인공신경망", "기계지능".

Keyword: %[1]s`

const reviewPrompt = `Review the following list of synonyms for the keyword "%s" used in %s:

%s

Please return a clean list of only the correct synonyms (no related/broader/narrower terms),
with no substring overlaps, and that are commonly used in %s. List them separated by commas.`

const rankPrompt = `Rank the following list of synonyms by how frequently they are used in %s, from most common to least common.
Return only the sorted list, separated by commas.

Synonyms: %s`

// Cache stores ranked synonym lists between runs.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// Finder expands a keyword into related search terms with an LLM.
type Finder struct {
	LLM      provider.LLM
	Cache    Cache
	CacheTTL time.Duration
	logger   *log.Logger
}

func NewFinder(llm provider.LLM, cache Cache) *Finder {
	return &Finder{
		LLM:      llm,
		Cache:    cache,
		CacheTTL: 7 * 24 * time.Hour,
		logger:   log.New(log.Writer(), "[SYNONYM] ", log.LstdFlags),
	}
}

// Find returns keyword followed by its most frequently used synonyms in
// country, n terms at most. Fewer than n is not an error.
func (f *Finder) Find(ctx context.Context, keyword string, n int, country string) ([]string, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, fmt.Errorf("empty keyword")
	}
	if n <= 1 {
		return []string{keyword}, nil
	}

	ranked, err := f.ranked(ctx, keyword, country)
	if err != nil {
		return nil, err
	}
	result := append([]string{keyword}, ranked...)
	if len(result) > n {
		result = result[:n]
	}
	if len(result) < n {
		f.logger.Printf("only found %d valid synonyms for %q (requested %d)", len(result), keyword, n)
	}
	return result, nil
}

func (f *Finder) ranked(ctx context.Context, keyword, country string) ([]string, error) {
	key := "synonyms:" + strings.ToLower(country) + ":" + keyword
	if f.Cache != nil {
		if raw, ok, err := f.Cache.Get(ctx, key); err == nil && ok {
			var cached []string
			if json.Unmarshal([]byte(raw), &cached) == nil {
				return cached, nil
			}
		} else if err != nil {
			f.logger.Printf("cache get %s: %v", key, err)
		}
	}

	raw, err := provider.Ask(ctx, f.LLM, "", fmt.Sprintf(generatePrompt, keyword, country), temperature)
	if err != nil {
		return nil, fmt.Errorf("generate synonyms: %w", err)
	}
	candidates := SplitList(raw)
	filtered := FilterCandidates(keyword, candidates)
	f.logger.Printf("%q: %d candidates, %d after filtering", keyword, len(candidates), len(filtered))

	reviewed, err := provider.Ask(ctx, f.LLM, "", fmt.Sprintf(reviewPrompt, keyword, country, strings.Join(filtered, ", "), country), temperature)
	if err != nil {
		return nil, fmt.Errorf("review synonyms: %w", err)
	}
	sorted, err := provider.Ask(ctx, f.LLM, "", fmt.Sprintf(rankPrompt, country, strings.Join(SplitList(reviewed), ", ")), temperature)
	if err != nil {
		return nil, fmt.Errorf("rank synonyms: %w", err)
	}
	ranked := withoutKeyword(keyword, SplitList(sorted))

	if f.Cache != nil {
		b, _ := json.Marshal(ranked)
		if err := f.Cache.Set(ctx, key, string(b), f.CacheTTL); err != nil {
			f.logger.Printf("cache set %s: %v", key, err)
		}
	}
	return ranked, nil
}

// SplitList splits a comma separated LLM answer into trimmed, non-empty terms.
func SplitList(s string) []string {
	var out []string
	for _, w := range strings.Split(s, ",") {
		w = strings.Trim(strings.TrimSpace(w), `"'.`)
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}

// FilterCandidates drops candidates that contain the keyword, candidates that
// are a substring of another candidate, and duplicates.
func FilterCandidates(keyword string, candidates []string) []string {
	var filtered []string
	seen := map[string]struct{}{}
	for _, w := range candidates {
		if strings.Contains(w, keyword) {
			continue
		}
		substring := false
		for _, other := range candidates {
			if w != other && strings.Contains(other, w) {
				substring = true
				break
			}
		}
		if substring {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		filtered = append(filtered, w)
	}
	return filtered
}

func withoutKeyword(keyword string, terms []string) []string {
	out := terms[:0:0]
	seen := map[string]struct{}{keyword: {}}
	for _, t := range terms {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

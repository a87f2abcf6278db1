package agent

import (
	"regexp"
	"strings"

	"github.com/mohammad-safakhou/briefer/models"
)

var (
	listBreak  = regexp.MustCompile(`\n\d+\.`)
	entryBlock = regexp.MustCompile(`\*\*\[(.*?)\]\((.*?)\)\*\*\n\s*[-–]\s*([\s\S]+)`)
)

// ParseNewsOutput reads a numbered list of "**[title](url)**" lines each
// followed by a "- summary" line back into items. Summary newlines collapse
// to spaces.
func ParseNewsOutput(text string) []models.Item {
	var items []models.Item
	for _, block := range listBreak.Split(strings.TrimSpace(text), -1) {
		m := entryBlock.FindStringSubmatch(block)
		if m == nil {
			continue
		}
		summary := strings.TrimSpace(strings.ReplaceAll(m[3], "\n", " "))
		if summary == "" {
			continue
		}
		items = append(items, models.Item{
			Title:   strings.TrimSpace(m[1]),
			URL:     strings.TrimSpace(m[2]),
			Summary: summary,
		})
	}
	return items
}

package keyword

import (
	"context"
	"strings"

	"github.com/kirillkom/proofpack-health/internal/core/domain"
)

// Classifier matches lowercased keywords against a file name and its text.
// Categories are tried in the configured order; the first hit wins.
type Classifier struct {
	order    []string
	keywords map[string][]string
}

func New(order []string, keywords map[string][]string) *Classifier {
	normalized := make(map[string][]string, len(keywords))
	for category, words := range keywords {
		for _, w := range words {
			if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
				normalized[category] = append(normalized[category], w)
			}
		}
	}
	return &Classifier{
		order:    append([]string(nil), order...),
		keywords: normalized,
	}
}

func (c *Classifier) Classify(_ context.Context, fileName, text string) (string, error) {
	haystack := strings.ToLower(fileName + "\n" + text)
	// File names often use separators instead of spaces.
	haystack += "\n" + strings.NewReplacer("_", " ", "-", " ", ".", " ").Replace(strings.ToLower(fileName))

	for _, category := range c.order {
		for _, word := range c.keywords[category] {
			if strings.Contains(haystack, word) {
				return category, nil
			}
		}
	}
	return domain.CategoryOther, nil
}

package summarize

import (
	"context"
	"fmt"

	"github.com/mohammad-safakhou/briefer/provider"
)

// LLM summarizes with a chat model instead of a dedicated seq2seq model.
type LLM struct {
	Client   provider.LLM
	Language string
}

func (l LLM) Summarize(ctx context.Context, text string) (string, error) {
	lang := l.Language
	if lang == "" {
		lang = "Korean"
	}
	system := fmt.Sprintf("You summarize documents. Write a faithful summary of the user's text in %s, "+
		"in one paragraph of at most five sentences. Do not add facts that are not in the text.", lang)
	return provider.Ask(ctx, l.Client, system, text, 0.1)
}

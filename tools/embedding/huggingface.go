package embedding

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mohammad-safakhou/briefer/utils"
)

// HuggingFace calls the Inference API feature-extraction pipeline of a
// sentence-transformers model.
type HuggingFace struct {
	endpoint string
	apiKey   string
	model    string
	http     *utils.HTTPClient
}

func NewHuggingFace(endpoint, apiKey, model string, timeout time.Duration) *HuggingFace {
	return &HuggingFace{
		endpoint: strings.TrimRight(endpoint, "/"),
		apiKey:   apiKey,
		model:    model,
		http:     utils.NewHTTPClient(timeout, 2, 500*time.Millisecond),
	}
}

func (h *HuggingFace) Model() string { return h.model }

func (h *HuggingFace) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	headers := map[string]string{}
	if h.apiKey != "" {
		headers["Authorization"] = "Bearer " + h.apiKey
	}
	body := map[string]any{
		"inputs":  texts,
		"options": map[string]any{"wait_for_model": true},
	}
	var out [][]float32
	url := h.endpoint + "/" + h.model + "/pipeline/feature-extraction"
	if err := h.http.DoJSON(ctx, "POST", url, headers, body, &out); err != nil {
		return nil, fmt.Errorf("huggingface embed: %w", err)
	}
	if len(out) != len(texts) {
		return nil, ErrCountMismatch
	}
	return out, nil
}

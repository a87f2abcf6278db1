package summarize

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mohammad-safakhou/briefer/config"
	"github.com/mohammad-safakhou/briefer/utils"
)

// HuggingFace calls a hosted seq2seq model through the Inference API. It
// serves both summarization (KoBART, BART) and translation models.
type HuggingFace struct {
	Endpoint   string
	APIKey     string
	ModelID    string
	Parameters config.GenerationConfig
	HTTP       *utils.HTTPClient
}

func NewHuggingFace(cfg config.HuggingFaceConfig, model string, params config.GenerationConfig) *HuggingFace {
	return &HuggingFace{
		Endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		APIKey:     cfg.APIKey,
		ModelID:    model,
		Parameters: params,
		HTTP:       utils.NewHTTPClient(cfg.Timeout, 2, time.Second),
	}
}

type hfOutput struct {
	SummaryText     string `json:"summary_text"`
	TranslationText string `json:"translation_text"`
	GeneratedText   string `json:"generated_text"`
}

func (h *HuggingFace) Summarize(ctx context.Context, text string) (string, error) {
	headers := map[string]string{}
	if h.APIKey != "" {
		headers["Authorization"] = "Bearer " + h.APIKey
	}
	body := map[string]any{
		"inputs":  text,
		"options": map[string]any{"wait_for_model": true},
	}
	if h.Parameters != (config.GenerationConfig{}) {
		body["parameters"] = h.Parameters
	}
	var out []hfOutput
	if err := h.HTTP.DoJSON(ctx, "POST", h.Endpoint+"/"+h.ModelID, headers, body, &out); err != nil {
		return "", fmt.Errorf("huggingface %s: %w", h.ModelID, err)
	}
	if len(out) == 0 {
		return "", errors.New("huggingface returned no output")
	}
	for _, s := range []string{out[0].SummaryText, out[0].TranslationText, out[0].GeneratedText} {
		if s != "" {
			return strings.TrimSpace(s), nil
		}
	}
	return "", errors.New("huggingface returned empty text")
}

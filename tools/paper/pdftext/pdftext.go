package pdftext

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
	"github.com/mohammad-safakhou/briefer/utils"
)

// maxMarkerLen bounds the length of a heading line such as "1 Introduction".
const maxMarkerLen = 30

var ErrNoBody = errors.New("no body text between introduction and references")

type Extractor struct {
	HTTP *utils.HTTPClient
}

func NewExtractor(timeout time.Duration) *Extractor {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Extractor{HTTP: utils.NewHTTPClient(timeout, 1, time.Second)}
}

// Extract downloads the PDF at url and returns its body text on one line.
func (e *Extractor) Extract(ctx context.Context, url string) (string, error) {
	raw, err := e.HTTP.Do(ctx, "GET", url, nil, nil)
	if err != nil {
		return "", fmt.Errorf("download pdf: %w", err)
	}
	text, err := Lines(raw)
	if err != nil {
		return "", err
	}
	body := BodyOnly(text)
	if body == "" {
		return "", ErrNoBody
	}
	return strings.Join(strings.Fields(body), " "), nil
}

// Lines extracts the text of every page, one visual row per line.
func Lines(raw []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		rows, err := p.GetTextByRow()
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		for _, row := range rows {
			for _, word := range row.Content {
				b.WriteString(word.S)
			}
			b.WriteByte('\n')
		}
	}
	return b.String(), nil
}

// BodyOnly keeps the lines after the first short line mentioning
// "introduction" and before the next short line mentioning "references".
func BodyOnly(text string) string {
	var body []string
	capturing := false
	for _, line := range strings.Split(text, "\n") {
		lower := strings.ToLower(strings.TrimSpace(line))
		if !capturing {
			if strings.Contains(lower, "introduction") && len(lower) < maxMarkerLen {
				capturing = true
			}
			continue
		}
		if strings.Contains(lower, "references") && len(lower) < maxMarkerLen {
			break
		}
		body = append(body, line)
	}
	return strings.TrimSpace(strings.Join(body, "\n"))
}

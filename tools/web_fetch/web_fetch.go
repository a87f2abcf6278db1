package web_fetch

import (
	"context"
	"net/http"

	"github.com/mohammad-safakhou/briefer/config"
	"github.com/mohammad-safakhou/briefer/tools/web_fetch/chromedp"
	"github.com/mohammad-safakhou/briefer/tools/web_fetch/httpfetch"
	"github.com/mohammad-safakhou/briefer/tools/web_fetch/models"
)

type WebFetcher interface {
	Exec(ctx context.Context, url string) (models.Result, error)
}

type FetcherType string

const (
	HTTPFetcherType     FetcherType = "http"
	ChromedpFetcherType FetcherType = "chromedp"
)

type Error struct{ msg string }

func (e *Error) Error() string { return e.msg }

var ErrUnsupportedFetcher = &Error{"unsupported fetcher type"}

func NewWebFetcher(cfg config.FetchConfig) (WebFetcher, error) {
	switch FetcherType(cfg.Fetcher) {
	case HTTPFetcherType:
		return httpfetch.Fetch{
			Client:    &http.Client{Timeout: cfg.Timeout},
			UserAgent: cfg.UserAgent,
			Timeout:   cfg.Timeout,
			MaxChars:  cfg.MaxChars,
		}, nil
	case ChromedpFetcherType:
		return chromedp.Fetch{Timeout: cfg.Timeout, MaxChars: cfg.MaxChars, UserAgent: cfg.UserAgent}, nil
	default:
		return nil, ErrUnsupportedFetcher
	}
}

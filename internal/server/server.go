package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/mohammad-safakhou/briefer/internal/agent"
	"github.com/mohammad-safakhou/briefer/internal/telemetry"
	"github.com/mohammad-safakhou/briefer/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// BriefingService runs and stores briefings.
type BriefingService interface {
	Brief(ctx context.Context, prompt string, n int, country string) (models.Briefing, error)
	List(ctx context.Context, limit int) ([]models.BriefingSummary, error)
	Get(ctx context.Context, id string) (models.Briefing, error)
}

// ChatService answers chat messages.
type ChatService interface {
	Reply(ctx context.Context, message string, history []agent.Turn) (string, error)
}

// IndexService rebuilds the vector index from saved briefings.
type IndexService interface {
	Rebuild(ctx context.Context) (int, error)
}

type Deps struct {
	Briefings BriefingService
	Chat      ChatService
	Index     IndexService
	Metrics   *telemetry.Metrics

	DefaultCountry string
	DefaultRange   int
	RequestTimeout time.Duration
}

type renderer struct{ t *template.Template }

func (r renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	return r.t.ExecuteTemplate(w, name, data)
}

// New builds the echo instance with every route registered.
func New(d Deps) (*echo.Echo, error) {
	tpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	e := echo.New()
	e.HideBanner = true
	e.Renderer = renderer{t: tpl}
	e.Use(middleware.Recover())
	// Unified HTTP error handler with structured JSON and logging
	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Content-Type"},
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(200, "ok") })
	e.GET("/metrics", echo.WrapHandler(d.Metrics.Handler()))

	h := &handlers{deps: d}
	if h.deps.DefaultCountry == "" {
		h.deps.DefaultCountry = "Korea"
	}
	if h.deps.DefaultRange <= 0 {
		h.deps.DefaultRange = 3
	}
	e.GET("/", h.indexPage)
	e.GET("/chat", h.chatPage)

	api := e.Group("/api")
	api.POST("/briefings", h.createBriefing)
	api.GET("/briefings", h.listBriefings)
	api.GET("/briefings/:id", h.getBriefing)
	api.POST("/chat", h.chat)
	api.POST("/index/rebuild", h.rebuildIndex)
	return e, nil
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, addr string, d Deps) error {
	e, err := New(d)
	if err != nil {
		return err
	}
	if addr == "" {
		addr = ":7860"
	}
	errCh := make(chan error, 1)
	go func() {
		log.Printf("listening on %s", addr)
		errCh <- e.Start(addr)
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	}
}

package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/mohammad-safakhou/briefer/internal/agent"
	"github.com/mohammad-safakhou/briefer/internal/helpers"
	"github.com/mohammad-safakhou/briefer/internal/index"
	"github.com/mohammad-safakhou/briefer/models"
)

// Countries offered by the briefing form.
var Countries = []string{"Korea", "Japan", "China", "USA", "Europe"}

type handlers struct {
	deps Deps
}

type pageData struct {
	Countries    []string
	Country      string
	SynonymRange int
}

func (h *handlers) indexPage(c echo.Context) error {
	return c.Render(http.StatusOK, "index.html", pageData{Countries: Countries, Country: h.deps.DefaultCountry, SynonymRange: h.deps.DefaultRange})
}

func (h *handlers) chatPage(c echo.Context) error {
	return c.Render(http.StatusOK, "chat.html", nil)
}

type briefingRequest struct {
	Prompt       string `json:"prompt"`
	Country      string `json:"country"`
	SynonymRange int    `json:"synonym_range"`
}

type briefingResponse struct {
	models.Briefing
	Saved bool `json:"saved"`
}

func (h *handlers) ctx(c echo.Context) (context.Context, context.CancelFunc) {
	if h.deps.RequestTimeout > 0 {
		return context.WithTimeout(c.Request().Context(), h.deps.RequestTimeout)
	}
	return context.WithCancel(c.Request().Context())
}

func (h *handlers) createBriefing(c echo.Context) error {
	if h.deps.Briefings == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "briefing agent not configured")
	}
	var req briefingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	prompt := helpers.SingleLine(helpers.SanitizeHTMLStrict(req.Prompt))
	if prompt == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "prompt is required")
	}
	country := h.deps.DefaultCountry
	if req.Country != "" {
		country = ""
		for _, known := range Countries {
			if strings.EqualFold(known, req.Country) {
				country = known
			}
		}
		if country == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "unsupported country")
		}
	}
	n := req.SynonymRange
	if n == 0 {
		n = h.deps.DefaultRange
	}
	if n < 1 || n > 5 {
		return echo.NewHTTPError(http.StatusBadRequest, "synonym_range must be between 1 and 5")
	}

	ctx, cancel := h.ctx(c)
	defer cancel()
	b, err := h.deps.Briefings.Brief(ctx, prompt, n, country)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, briefingResponse{Briefing: b, Saved: b.ID != ""})
}

func (h *handlers) listBriefings(c echo.Context) error {
	if h.deps.Briefings == nil {
		return c.JSON(http.StatusOK, []models.BriefingSummary{})
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	list, err := h.deps.Briefings.List(c.Request().Context(), limit)
	if err != nil {
		return err
	}
	if list == nil {
		list = []models.BriefingSummary{}
	}
	return c.JSON(http.StatusOK, list)
}

func (h *handlers) getBriefing(c echo.Context) error {
	if h.deps.Briefings == nil {
		return echo.NewHTTPError(http.StatusNotFound, "briefing not found")
	}
	b, err := h.deps.Briefings.Get(c.Request().Context(), c.Param("id"))
	if errors.Is(err, models.ErrBriefingNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "briefing not found")
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, b)
}

type chatRequest struct {
	Message string       `json:"message"`
	History []agent.Turn `json:"history"`
}

type chatResponse struct {
	Reply   string       `json:"reply"`
	History []agent.Turn `json:"history"`
}

// chat never fails the request on agent errors; the error becomes the reply.
func (h *handlers) chat(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message is required")
	}
	var reply string
	if h.deps.Chat == nil {
		reply = agent.ErrorReply(errors.New("chat agent not configured"))
	} else {
		ctx, cancel := h.ctx(c)
		defer cancel()
		r, err := h.deps.Chat.Reply(ctx, msg, req.History)
		if err != nil {
			reply = agent.ErrorReply(err)
		} else {
			reply = r
		}
	}
	history := append(req.History, agent.Turn{User: msg, Assistant: reply})
	return c.JSON(http.StatusOK, chatResponse{Reply: reply, History: history})
}

func (h *handlers) rebuildIndex(c echo.Context) error {
	if h.deps.Index == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "index not configured")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Minute)
	defer cancel()
	n, err := h.deps.Index.Rebuild(ctx)
	if errors.Is(err, index.ErrEmptyCorpus) {
		return c.JSON(http.StatusOK, map[string]interface{}{"chunks": 0, "warning": err.Error()})
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"chunks": n})
}

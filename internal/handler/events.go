package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ticket-compare/internal/middleware"
	"github.com/iliyamo/ticket-compare/internal/model"
	"github.com/iliyamo/ticket-compare/internal/service"
)

// EventHandler serves search, discover and comparison pages as JSON.
type EventHandler struct {
	Events  EventFinder
	Timeout time.Duration // upstream budget for one provider round trip
}

func NewEventHandler(events EventFinder, timeout time.Duration) *EventHandler {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &EventHandler{Events: events, Timeout: timeout}
}

// parseSearch reads the query string.  Empty values mean "not set";
// priceRange of "0" also means no ceiling.
func parseSearch(c echo.Context) (service.SearchQuery, string) {
	sq := service.SearchQuery{
		Keyword: strings.TrimSpace(c.QueryParam("searchTerm")),
		Genre:   strings.TrimSpace(c.QueryParam("genre")),
		City:    strings.TrimSpace(c.QueryParam("location")),
		Date:    strings.TrimSpace(c.QueryParam("date")),
	}
	if sq.Date != "" {
		if _, err := time.Parse("2006-01-02", sq.Date); err != nil {
			return sq, "invalid date (YYYY-MM-DD)"
		}
	}
	if v := strings.TrimSpace(c.QueryParam("page")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return sq, "invalid page"
		}
		sq.Page = n
	}
	if v := strings.TrimSpace(c.QueryParam("priceRange")); v != "" && v != "0" {
		ceiling, err := strconv.ParseFloat(v, 64)
		if err != nil || ceiling < 0 {
			return sq, "invalid priceRange"
		}
		sq.Criteria.PriceCeiling = &ceiling
	}
	for _, s := range c.QueryParams()["source"] {
		if s = strings.TrimSpace(s); s != "" {
			sq.Criteria.Sources = append(sq.Criteria.Sources, s)
		}
	}
	return sq, ""
}

// GET /v1/search?searchTerm=&genre=&date=&location=&priceRange=&source=&page=
func (h *EventHandler) Search(c echo.Context) error {
	sq, bad := parseSearch(c)
	if bad != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": bad})
	}
	sq.UserID, _ = middleware.UserID(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Timeout)
	defer cancel()

	res := h.Events.Search(ctx, sq)
	return c.JSON(resultStatus(res), res)
}

// GET /v1/discover
func (h *EventHandler) Discover(c echo.Context) error {
	uid, _ := middleware.UserID(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Timeout)
	defer cancel()

	res := h.Events.Discover(ctx, uid)
	return c.JSON(resultStatus(res), res)
}

// GET /v1/comparisons?eventId=
func (h *EventHandler) Comparisons(c echo.Context) error {
	id := strings.TrimSpace(c.QueryParam("eventId"))
	if id == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "eventId required"})
	}
	uid, _ := middleware.UserID(c)

	// two sequential upstream calls
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*h.Timeout)
	defer cancel()

	cmp := h.Events.Compare(ctx, id, uid)
	return c.JSON(comparisonStatus(cmp), cmp)
}

// Upstream failures are 502 so the response cache skips them.
func resultStatus(r service.SearchResult) int {
	if r.Error {
		return http.StatusBadGateway
	}
	return http.StatusOK
}

// A failed listing search is 502 even when the primary event loaded; the
// body still carries the event.
func comparisonStatus(cmp model.Comparison) int {
	switch cmp.Status {
	case model.EventNotFound:
		return http.StatusNotFound
	case model.ListingsError:
		return http.StatusBadGateway
	default:
		return http.StatusOK
	}
}

package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Go-Pr0/stock-analyze-backend/internal/research"
	"github.com/Go-Pr0/stock-analyze-backend/internal/store"
)

// ReportRunner is the subset of the orchestrator the handler needs.
type ReportRunner interface {
	Run(ctx context.Context, topic, ticker string) research.ResearchReport
	RunMock(ctx context.Context, topic, ticker string) research.ResearchReport
}

// ResearchHandler serves report generation and report history endpoints.
type ResearchHandler struct {
	Store  *store.Store
	Runner ReportRunner
	MockAI bool
	Logger *log.Logger
}

func NewResearchHandler(st *store.Store, runner ReportRunner, mockAI bool) *ResearchHandler {
	return &ResearchHandler{
		Store:  st,
		Runner: runner,
		MockAI: mockAI,
		Logger: log.New(log.Writer(), "[RESEARCH] ", log.LstdFlags),
	}
}

func (h *ResearchHandler) Register(g *echo.Group) {
	g.POST("", h.create)
	g.GET("", h.list)
	g.GET("/:id", h.get)
	g.DELETE("/:id", h.remove)
}

func (h *ResearchHandler) create(c echo.Context) error {
	var req ResearchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Topic == "" && req.Ticker == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "topic or ticker required")
	}
	userID, _ := c.Get("user_id").(string)

	ctx := c.Request().Context()
	var report research.ResearchReport
	if h.MockAI {
		report = h.Runner.RunMock(ctx, req.Topic, req.Ticker)
	} else {
		report = h.Runner.Run(ctx, req.Topic, req.Ticker)
	}

	if err := h.Store.SaveReport(ctx, report, userID); err != nil {
		// The report was produced; losing persistence should not lose the
		// response.
		h.Logger.Printf("failed to save report %s for user %s: %v", report.ID, userID, err)
	}
	return c.JSON(http.StatusOK, report)
}

func (h *ResearchHandler) list(c echo.Context) error {
	userID, _ := c.Get("user_id").(string)
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		limit = parsed
	}
	reports, err := h.Store.GetReportsByUser(c.Request().Context(), userID, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if reports == nil {
		reports = []research.ResearchReport{}
	}
	return c.JSON(http.StatusOK, reports)
}

func (h *ResearchHandler) get(c echo.Context) error {
	userID, _ := c.Get("user_id").(string)
	report, err := h.Store.GetReportByID(c.Request().Context(), c.Param("id"), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "report not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, report)
}

func (h *ResearchHandler) remove(c echo.Context) error {
	userID, _ := c.Get("user_id").(string)
	if err := h.Store.DeleteReport(c.Request().Context(), c.Param("id"), userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "report not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

package reconcile

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/carelog/carelog/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/reconciliation/run", h.RunPass)
	api.GET("/reconciliation/report", h.GetReport)
	api.GET("/reconciliation/groups", h.ListGroups)
}

// RunPass executes a reconciliation pass synchronously and returns the
// summary. A migration failure maps to 409 so callers can tell a blocked
// pass apart from a server fault.
func (h *Handler) RunPass(c echo.Context) error {
	report, err := h.svc.Run(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	return c.JSON(http.StatusOK, report.Summary())
}

func (h *Handler) GetReport(c echo.Context) error {
	report, ok := h.svc.LastReport()
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "no reconciliation pass has run yet")
	}
	return c.JSON(http.StatusOK, report)
}

func (h *Handler) ListGroups(c echo.Context) error {
	report, ok := h.svc.LastReport()
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "no reconciliation pass has run yet")
	}
	pg := pagination.FromContext(c)
	groups := report.Groups
	total := len(groups)
	if pg.Offset > total {
		pg.Offset = total
	}
	end := pg.Offset + pg.Limit
	if end > total {
		end = total
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(groups[pg.Offset:end], total, pg.Limit, pg.Offset))
}

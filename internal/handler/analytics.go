package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/fahamijemal/astu-smart-complaints-backend/internal/repository"
	"github.com/fahamijemal/astu-smart-complaints-backend/internal/utils"
)

// AnalyticsHandler serves the admin dashboard aggregates.
type AnalyticsHandler struct {
	Analytics *repository.AnalyticsRepo
}

func NewAnalyticsHandler(a *repository.AnalyticsRepo) *AnalyticsHandler {
	return &AnalyticsHandler{Analytics: a}
}

// Summary returns status counts, top categories, per-department load and
// the overall resolution figures.
func (h *AnalyticsHandler) Summary(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	report, err := h.Analytics.Summary(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, utils.Fail(utils.CodeInternal, "build summary failed"))
	}
	return c.JSON(http.StatusOK, utils.OK(report))
}

// TimeSeries buckets complaint creation per period over a trailing window.
func (h *AnalyticsHandler) TimeSeries(c echo.Context) error {
	period := c.QueryParam("period")
	days, _ := strconv.Atoi(c.QueryParam("days"))
	if days < 1 || days > 365 {
		days = 30
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	points, err := h.Analytics.TimeSeries(ctx, period, days)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, utils.Fail(utils.CodeInternal, "build time series failed"))
	}
	return c.JSON(http.StatusOK, utils.OK(echo.Map{
		"period": period,
		"days":   days,
		"points": points,
	}))
}

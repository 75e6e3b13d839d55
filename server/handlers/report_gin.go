package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"fwat/aggregate"
	apperrors "fwat/server/errors"
	"fwat/server/services"
)

// ReportHandler exposes merge runs and aggregation reports over the API.
type ReportHandler struct {
	reportService *services.ReportService
}

// NewReportHandler creates the report handler.
func NewReportHandler(reportService *services.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

// SendJSONError writes the standard error envelope.
func SendJSONError(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorResponse{Error: true, Message: message})
}

func sendAppError(c *gin.Context, err error, fallback string) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		SendJSONError(c, appErr.StatusCode(), appErr.UserMessage())
		return
	}
	wrapped := apperrors.WrapError(err, fallback)
	SendJSONError(c, wrapped.StatusCode(), wrapped.UserMessage())
}

// RunMergeRequest is the body of POST /api/report/run.
type RunMergeRequest struct {
	StartDate string `json:"start_date" binding:"required"`
	EndDate   string `json:"end_date" binding:"required"`
}

// HandleRunMerge rebuilds the store for a date range and returns the merge
// diagnostics.
func (h *ReportHandler) HandleRunMerge(c *gin.Context) {
	var req RunMergeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		SendJSONError(c, http.StatusBadRequest, "start_date and end_date are required")
		return
	}

	stats, err := h.reportService.RunMerge(c.Request.Context(), req.StartDate, req.EndDate)
	if err != nil {
		sendAppError(c, err, "merge run failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"stats":   stats,
		"summary": stats.Summary(),
	})
}

func rangeParams(c *gin.Context) (string, string, bool) {
	start := c.Query("start")
	end := c.Query("end")
	if start == "" || end == "" {
		SendJSONError(c, http.StatusBadRequest, "start and end query parameters are required")
		return "", "", false
	}
	return start, end, true
}

// HandleCounterReport returns per-counter totals, tallies and averages.
func (h *ReportHandler) HandleCounterReport(c *gin.Context) {
	start, end, ok := rangeParams(c)
	if !ok {
		return
	}

	report, err := h.reportService.CounterReport(start, end)
	if err != nil {
		sendAppError(c, err, "failed to build counter report")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"report":          report,
		"ranked_average":  aggregate.Rank(report.Average),
		"ranked_total":    aggregate.Rank(report.Total),
		"ranked_tally":    aggregate.RankInts(report.Tally),
	})
}

// HandleCategoryReport returns the six diagnostic record buckets.
func (h *ReportHandler) HandleCategoryReport(c *gin.Context) {
	start, end, ok := rangeParams(c)
	if !ok {
		return
	}

	cats, bothPerDay, err := h.reportService.CategoryReport(start, end)
	if err != nil {
		sendAppError(c, err, "failed to categorize records")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"categories":   cats,
		"both_per_day": bothPerDay,
	})
}

// HandleSeries returns one attribute's grouped time series. Query parameters:
// start, end, attr (house|yeargroup|formclass|staff_student), presentation
// (cumulative|daily_average).
func (h *ReportHandler) HandleSeries(c *gin.Context) {
	start, end, ok := rangeParams(c)
	if !ok {
		return
	}
	attr := aggregate.Attribute(c.DefaultQuery("attr", string(aggregate.AttrHouse)))
	presentation := c.DefaultQuery("presentation", services.PresentationCumulative)

	series, err := h.reportService.Series(start, end, attr, presentation)
	if err != nil {
		sendAppError(c, err, "failed to build series")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"attr":         attr,
		"presentation": presentation,
		"series":       series,
	})
}

// HandleLastStats returns the diagnostics of the most recent merge run.
func (h *ReportHandler) HandleLastStats(c *gin.Context) {
	stats := h.reportService.LastStats()
	if stats == nil {
		SendJSONError(c, http.StatusNotFound, "no merge run has completed yet")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"stats":   stats,
		"summary": stats.Summary(),
	})
}

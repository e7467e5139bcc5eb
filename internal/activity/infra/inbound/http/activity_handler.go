package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/davicafu/todolab/internal/activity/domain"
	"github.com/davicafu/todolab/pkg/utils"
)

const (
	dateLayout   = "2006-01-02"
	defaultRange = 7 * 24 * time.Hour
)

type ActivityHandler struct {
	analytics domain.ActivityAnalytics
	now       func() time.Time
	log       *zap.Logger
}

func NewActivityHandler(analytics domain.ActivityAnalytics, log *zap.Logger) *ActivityHandler {
	return &ActivityHandler{analytics: analytics, now: time.Now, log: log}
}

type DailyActivityResponse struct {
	Day        string `json:"day"`
	Created    uint64 `json:"created"`
	Completed  uint64 `json:"completed"`
	Deleted    uint64 `json:"deleted"`
	Registered uint64 `json:"registered"`
}

// DailyTrend endpoint GET /activity/daily?from=2024-03-01&to=2024-03-07
func (h *ActivityHandler) DailyTrend(c *gin.Context) {
	start, end, ok := h.parseRange(c)
	if !ok {
		return
	}
	trend, err := h.analytics.DailyTrend(c.Request.Context(), start, end)
	if err != nil {
		h.log.Error("Failed to query daily activity", zap.Error(err))
		utils.SendInternalServerError(c)
		return
	}

	resp := make([]DailyActivityResponse, 0, len(trend))
	for _, d := range trend {
		resp = append(resp, DailyActivityResponse{
			Day:        d.Day.UTC().Format(dateLayout),
			Created:    d.CreatedCount,
			Completed:  d.CompletedCount,
			Deleted:    d.DeletedCount,
			Registered: d.RegisteredCount,
		})
	}
	utils.SendSuccess(c, http.StatusOK, resp)
}

// CompletionTime endpoint GET /activity/completion-time
func (h *ActivityHandler) CompletionTime(c *gin.Context) {
	start, end, ok := h.parseRange(c)
	if !ok {
		return
	}
	avg, err := h.analytics.AverageCompletionTime(c.Request.Context(), start, end)
	if err != nil {
		h.log.Error("Failed to query completion time", zap.Error(err))
		utils.SendInternalServerError(c)
		return
	}
	utils.SendSuccess(c, http.StatusOK, gin.H{
		"averageSeconds": avg.Seconds(),
		"from":           start.Format(dateLayout),
		"to":             end.Add(-24 * time.Hour).Format(dateLayout),
	})
}

// parseRange: sin parámetros, los últimos siete días. "to" es inclusivo.
func (h *ActivityHandler) parseRange(c *gin.Context) (time.Time, time.Time, bool) {
	end := h.now().UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
	start := end.Add(-defaultRange)

	if v := c.Query("from"); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			utils.SendBadRequest(c, "from must be a date (YYYY-MM-DD)")
			return time.Time{}, time.Time{}, false
		}
		start = t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			utils.SendBadRequest(c, "to must be a date (YYYY-MM-DD)")
			return time.Time{}, time.Time{}, false
		}
		end = t.Add(24 * time.Hour)
	}
	if !start.Before(end) {
		utils.SendBadRequest(c, "from must not be after to")
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

// RegisterActivityRoutes registra /activity.
func RegisterActivityRoutes(r gin.IRouter, handler *ActivityHandler) {
	activity := r.Group("/activity")
	{
		activity.GET("/daily", handler.DailyTrend)
		activity.GET("/completion-time", handler.CompletionTime)
	}
}

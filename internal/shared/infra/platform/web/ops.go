package web

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	sharedDomain "github.com/davicafu/todolab/internal/shared/domain"
	"github.com/davicafu/todolab/pkg/utils"
)

// Pinger lo cumplen *sql.DB y cualquier dependencia que se quiera vigilar en /health.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// RegisterOps añade /health y /metrics.
func RegisterOps(r gin.IRouter, checks map[string]Pinger, log *zap.Logger) {
	r.GET("/health", Health(checks, log))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// Health responde 503 si alguna comprobación falla.
func Health(checks map[string]Pinger, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := gin.H{}
		healthy := true
		for name, p := range checks {
			if err := p.PingContext(ctx); err != nil {
				log.Warn("Health check failed", zap.String("check", name), zap.Error(err))
				status[name] = "down"
				healthy = false
				continue
			}
			status[name] = "up"
		}
		if !healthy {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "checks": status})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "checks": status})
	}
}

// OutboxStats endpoint GET /admin/outbox/stats
func OutboxStats(reader sharedDomain.OutboxStatsReader, maxAttempts int, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := reader.Stats(c.Request.Context(), maxAttempts)
		if err != nil {
			log.Error("Failed to read outbox stats", zap.Error(err))
			utils.SendInternalServerError(c)
			return
		}
		utils.SendSuccess(c, http.StatusOK, stats)
	}
}

/* Copyright (c) 2025 Mikhail Gelvikh
 * SPDX-License-Identifier: Apache-2.0 */
package http

import (
    "github.com/gin-gonic/gin"
    "github.com/google/uuid"
    "github.com/rs/zerolog"

    "github.com/Mixxxxa/youtrack-analysis/internal/config"
)

func NewRouter(cfg config.Config, log zerolog.Logger, svc any) *gin.Engine {
    if cfg.AppEnv != "dev" { gin.SetMode(gin.ReleaseMode) }
    r := gin.New()
    r.Use(gin.Recovery())
    r.Use(func(c *gin.Context) {
        reqID := c.GetHeader("X-Request-ID")
        if reqID == "" { reqID = uuid.NewString() }
        c.Header("X-Request-ID", reqID)
        c.Next()
        log.Info().Str("id", reqID).Str("m", c.Request.Method).Str("p", c.FullPath()).Int("s", c.Writer.Status()).Msg("http")
    })

    h := NewHandlers(cfg, log, svc)

    r.GET("/healthz", h.Healthz)
    r.GET("/api/timeline", h.Timeline)
    r.GET("/api/issue/:id/timeline", h.Timeline)
    r.GET("/api/batch/scope-overrun", h.ScopeOverrun)
    r.GET("/api/batch/scope-increase", h.ScopeIncrease)
    r.GET("/admin/last-run", h.LastRun)
    r.POST("/admin/refresh", h.RefreshNow)

    return r
}

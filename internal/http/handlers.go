/* Copyright (c) 2025 Mikhail Gelvikh
 * SPDX-License-Identifier: Apache-2.0 */
package http

import (
    "context"
    "errors"
    "net/http"
    "strings"

    "github.com/gin-gonic/gin"
    "github.com/rs/zerolog"

    "github.com/Mixxxxa/youtrack-analysis/internal/adapters/youtrack"
    "github.com/Mixxxxa/youtrack-analysis/internal/batch"
    "github.com/Mixxxxa/youtrack-analysis/internal/config"
    "github.com/Mixxxxa/youtrack-analysis/internal/parser"
    "github.com/Mixxxxa/youtrack-analysis/internal/repo"
    "github.com/Mixxxxa/youtrack-analysis/internal/services"
)

type service interface {
    Timeline(ctx context.Context, input string) (*services.TimelineReport, error)
    ScopeOverrunReport(ctx context.Context, req services.ScopeOverrunRequest) (*batch.OverrunReport, error)
    ScopeIncreaseReport(ctx context.Context, req services.ScopeOverrunRequest) (*batch.IncreaseReport, error)
    Refresh(ctx context.Context) (int, error)
    GetLastRun(ctx context.Context) (*repo.LastRun, error)
}

type Handlers struct {
    cfg config.Config
    log zerolog.Logger
    svc service
}

func NewHandlers(cfg config.Config, log zerolog.Logger, svc any) *Handlers {
    return &Handlers{cfg: cfg, log: log, svc: svc.(service)}
}

// statusFor sorts request failures into caller mistakes (400), issues whose
// history the parser refuses to trust (422) and tracker-side trouble (502).
func statusFor(err error) int {
    var badID *youtrack.InvalidIssueIDError
    var tooMany *youtrack.TooManyIssuesError
    switch {
    case errors.As(err, &badID), errors.Is(err, batch.ErrBadDates):
        return http.StatusBadRequest
    case errors.Is(err, parser.ErrNoAssignee),
        errors.Is(err, parser.ErrSelfAssign),
        errors.Is(err, parser.ErrAssigneeMismatch),
        errors.Is(err, parser.ErrStateMismatch),
        errors.Is(err, parser.ErrSameStateSwitch):
        return http.StatusUnprocessableEntity
    case errors.As(err, &tooMany), errors.Is(err, youtrack.ErrCountUnavailable):
        return http.StatusBadGateway
    }
    return http.StatusBadGateway
}

func (h *Handlers) fail(c *gin.Context, err error) {
    status := statusFor(err)
    if status >= http.StatusInternalServerError {
        h.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
    }
    c.JSON(status, gin.H{"error": err.Error()})
}

func (h *Handlers) Healthz(c *gin.Context) {
    c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Timeline serves GET /api/issue/:id/timeline and GET /api/timeline, the
// latter taking a full issue URL in the "issue" query parameter.
func (h *Handlers) Timeline(c *gin.Context) {
    input := c.Param("id")
    if input == "" { input = c.Query("issue") }
    if input == "" {
        c.JSON(http.StatusBadRequest, gin.H{"error": "missing issue id"})
        return
    }
    report, err := h.svc.Timeline(c.Request.Context(), input)
    if err != nil { h.fail(c, err); return }
    c.JSON(http.StatusOK, report)
}

func batchRequest(c *gin.Context) services.ScopeOverrunRequest {
    var components []string
    for _, raw := range c.QueryArray("component") {
        if v := strings.TrimSpace(raw); v != "" { components = append(components, v) }
    }
    return services.ScopeOverrunRequest{
        Project:    strings.TrimSpace(c.Query("project")),
        Components: components,
        DateBegin:  c.Query("from"),
        DateEnd:    c.Query("to"),
    }
}

func (h *Handlers) ScopeOverrun(c *gin.Context) {
    report, err := h.svc.ScopeOverrunReport(c.Request.Context(), batchRequest(c))
    if err != nil { h.fail(c, err); return }
    c.JSON(http.StatusOK, report)
}

func (h *Handlers) ScopeIncrease(c *gin.Context) {
    report, err := h.svc.ScopeIncreaseReport(c.Request.Context(), batchRequest(c))
    if err != nil { h.fail(c, err); return }
    c.JSON(http.StatusOK, report)
}

func (h *Handlers) LastRun(c *gin.Context) {
    lr, err := h.svc.GetLastRun(c.Request.Context())
    if err != nil {
        c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
        return
    }
    if lr == nil {
        c.JSON(http.StatusNotFound, gin.H{"error": "no runs recorded"})
        return
    }
    c.JSON(http.StatusOK, lr)
}

func (h *Handlers) RefreshNow(c *gin.Context) {
    // Detached from the request context so a closed connection does not
    // cancel the sweep.
    go func() {
        if _, err := h.svc.Refresh(context.Background()); err != nil {
            h.log.Error().Err(err).Msg("manual refresh failed")
        }
    }()
    c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
}

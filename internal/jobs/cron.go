/* Copyright (c) 2025 Mikhail Gelvikh
 * SPDX-License-Identifier: Apache-2.0 */
package jobs

import (
    "context"
    "time"

    "github.com/Mixxxxa/youtrack-analysis/internal/config"
    "github.com/Mixxxxa/youtrack-analysis/internal/repo"
    "github.com/robfig/cron/v3"
    "github.com/rs/zerolog"
)

type service interface {
    Refresh(ctx context.Context) (int, error)
}

// refreshLockKey serializes the refresh sweep across replicas.
const refreshLockKey int64 = 771201

type Cron struct {
    cfg  config.Config
    log  zerolog.Logger
    svc  service
    repo *repo.Repository
    c    *cron.Cron
}

func NewCron(cfg config.Config, log zerolog.Logger, svc service, r *repo.Repository) *Cron {
    c := cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)))
    cr := &Cron{cfg: cfg, log: log, svc: svc, repo: r, c: c}
    if _, err := c.AddFunc(cfg.RefreshCron, cr.refresh); err != nil {
        log.Error().Err(err).Str("spec", cfg.RefreshCron).Msg("cron: bad refresh spec")
    }
    return cr
}

func (cr *Cron) Start() { cr.c.Start() }
func (cr *Cron) Stop()  { cr.c.Stop() }

func (cr *Cron) refresh() {
    ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute); defer cancel()
    ok, err := cr.repo.TryAdvisoryLock(ctx, refreshLockKey)
    if err != nil { cr.log.Error().Err(err).Msg("cron: lock error"); return }
    if !ok { cr.log.Info().Msg("cron: refresh already running elsewhere"); return }
    defer func() { _ = cr.repo.AdvisoryUnlock(context.Background(), refreshLockKey) }()
    cr.log.Info().Msg("cron: cache refresh")
    if n, err := cr.svc.Refresh(ctx); err != nil {
        cr.log.Error().Err(err).Msg("cron: refresh failed")
    } else {
        cr.log.Info().Int("issues", n).Msg("cron: refresh done")
    }
}

/* Copyright (c) 2025 Mikhail Gelvikh
 * SPDX-License-Identifier: Apache-2.0 */
package main

import (
    "context"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/Mixxxxa/youtrack-analysis/internal/adapters/youtrack"
    "github.com/Mixxxxa/youtrack-analysis/internal/config"
    apphttp "github.com/Mixxxxa/youtrack-analysis/internal/http"
    "github.com/Mixxxxa/youtrack-analysis/internal/jobs"
    "github.com/Mixxxxa/youtrack-analysis/internal/logger"
    "github.com/Mixxxxa/youtrack-analysis/internal/repo"
    "github.com/Mixxxxa/youtrack-analysis/internal/services"
)

func main() {
    cfg := config.Load()
    log := logger.New(cfg)
    if cfg.YTHost == "" || cfg.YTAPIKey == "" {
        log.Fatal().Msg("YT_HOST and YT_API_KEY are required")
    }
    ctx, cancel := context.WithCancel(context.Background())
    defer cancel()

    db := repo.MustOpen(ctx, cfg, log)
    defer db.Close()

    repository := repo.NewRepository(db, log)
    if err := repository.EnsureSchema(ctx); err != nil {
        log.Fatal().Err(err).Msg("schema init failed")
    }

    yt := youtrack.NewClient(cfg, log)
    svc := services.New(cfg, log, repository, yt)

    router := apphttp.NewRouter(cfg, log, svc)

    cr := jobs.NewCron(cfg, log, svc, repository)
    cr.Start()
    defer cr.Stop()

    errCh := make(chan error, 1)
    go func() { errCh <- router.Run(cfg.HTTPAddr) }()

    sigCh := make(chan os.Signal, 1)
    signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

    select {
    case <-sigCh:
        log.Info().Msg("shutting down...")
    case err := <-errCh:
        if err != nil { log.Error().Err(err).Msg("http server error") }
    }

    time.Sleep(500 * time.Millisecond)
}

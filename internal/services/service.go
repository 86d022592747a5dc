/* Copyright (c) 2025 Mikhail Gelvikh
 * SPDX-License-Identifier: Apache-2.0 */
package services

import (
    "context"
    "encoding/json"
    "time"

    "github.com/Mixxxxa/youtrack-analysis/internal/adapters/youtrack"
    "github.com/Mixxxxa/youtrack-analysis/internal/anomaly"
    "github.com/Mixxxxa/youtrack-analysis/internal/batch"
    "github.com/Mixxxxa/youtrack-analysis/internal/config"
    "github.com/Mixxxxa/youtrack-analysis/internal/parser"
    "github.com/Mixxxxa/youtrack-analysis/internal/repo"
    "github.com/rs/zerolog"
)

type Tracker interface {
    Issue(ctx context.Context, id string) ([]byte, error)
    Activities(ctx context.Context, id string, fields, categories []string) ([]byte, error)
    IssuesByQuery(ctx context.Context, query string, fields []string) ([]json.RawMessage, error)
    ExtractIssueID(input string) (string, error)
    SearchURL(query string) string
}

type Store interface {
    GetTimeline(ctx context.Context, issueID string, maxAge time.Duration) ([]byte, error)
    SaveTimeline(ctx context.Context, issueID string, resolved bool, payload []byte) error
    SaveTimelines(ctx context.Context, recs []repo.TimelineRecord) error
    ListStaleIssues(ctx context.Context) ([]string, error)
    StartJobRun(ctx context.Context, kind string) (int64, error)
    FinishJobRun(ctx context.Context, id int64, issuesScanned int, success bool, errStr string) error
    GetLastRun(ctx context.Context) (*repo.LastRun, error)
}

type Service struct {
    cfg   config.Config
    log   zerolog.Logger
    store Store
    yt    Tracker
}

func New(cfg config.Config, log zerolog.Logger, store Store, yt Tracker) *Service {
    return &Service{cfg: cfg, log: log, store: store, yt: yt}
}

// Timeline reconstructs the full issue history for the given id or issue URL.
// Unresolved issues are served from cache within CacheTTL, resolved ones
// indefinitely.
func (s *Service) Timeline(ctx context.Context, input string) (*TimelineReport, error) {
    id, err := s.yt.ExtractIssueID(input)
    if err != nil { return nil, err }

    if s.store != nil {
        if payload, err := s.store.GetTimeline(ctx, id, s.cfg.CacheTTL); err == nil {
            var report TimelineReport
            if err := json.Unmarshal(payload, &report); err == nil {
                s.log.Debug().Str("issue", id).Msg("timeline served from cache")
                return &report, nil
            }
            s.log.Warn().Str("issue", id).Msg("cached timeline unreadable, refetching")
        }
    }

    report, err := s.buildTimeline(ctx, id)
    if err != nil { return nil, err }

    if s.store != nil {
        payload, err := json.Marshal(report)
        if err == nil { err = s.store.SaveTimeline(ctx, id, report.Resolved != nil, payload) }
        if err != nil { s.log.Error().Err(err).Str("issue", id).Msg("timeline cache write failed") }
    }
    return report, nil
}

func (s *Service) buildTimeline(ctx context.Context, id string) (*TimelineReport, error) {
    snapshot, err := s.yt.Issue(ctx, id)
    if err != nil { return nil, err }
    activities, err := s.yt.Activities(ctx, id, youtrack.TimelineActivityFields, youtrack.TimelineActivityCategories)
    if err != nil { return nil, err }

    p := parser.New(s.cfg.YTFieldMap)
    det := anomaly.NewDetector(s.cfg.ReviewThreshold)
    det.Attach(p)

    if err := p.ParseSnapshot(snapshot); err != nil { return nil, err }
    if err := p.ParseActivities(activities); err != nil { return nil, err }
    info, err := p.Result()
    if err != nil { return nil, err }

    return renderTimeline(info, det.Anomalies()), nil
}

// ScopeOverrunRequest filters a batch report: a project, optional components
// and the resolution date window.
type ScopeOverrunRequest struct {
    Project    string
    Components []string
    DateBegin  string
    DateEnd    string
}

func (s *Service) ScopeOverrunReport(ctx context.Context, req ScopeOverrunRequest) (*batch.OverrunReport, error) {
    if err := batch.ValidateDates(req.DateBegin, req.DateEnd); err != nil { return nil, err }
    query := youtrack.SearchQueryBuilder{
        Project:          req.Project,
        Components:       req.Components,
        ResolveDateBegin: req.DateBegin,
        ResolveDateEnd:   req.DateEnd,
        OnlyResolved:     true,
        OnlyStarted:      true,
    }.Build()

    issues, err := s.yt.IssuesByQuery(ctx, query, youtrack.BatchIssueFields)
    if err != nil { return nil, err }
    report, err := batch.ScopeOverrun(issues, s.cfg.YTDefaultScopes, query, s.yt.SearchURL(query))
    if err != nil { return nil, err }
    return &report, nil
}

func (s *Service) ScopeIncreaseReport(ctx context.Context, req ScopeOverrunRequest) (*batch.IncreaseReport, error) {
    if err := batch.ValidateDates(req.DateBegin, req.DateEnd); err != nil { return nil, err }
    query := youtrack.SearchQueryBuilder{
        Project:          req.Project,
        Components:       req.Components,
        ResolveDateBegin: req.DateBegin,
        ResolveDateEnd:   req.DateEnd,
        OnlyResolved:     true,
        OnlyStarted:      true,
    }.Build()

    issues, err := s.yt.IssuesByQuery(ctx, query, youtrack.BatchIssueFields)
    if err != nil { return nil, err }
    report, err := batch.ScopeIncrease(ctx, scopeSource{yt: s.yt}, s.cfg.YTFieldMap,
        issues, s.cfg.YTDefaultScopes, query, s.yt.SearchURL(query), s.cfg.WorkersFetch)
    if err != nil { return nil, err }
    return &report, nil
}

// scopeSource narrows the tracker client to the activity slice the
// scope-increase scan reads.
type scopeSource struct{ yt Tracker }

func (s scopeSource) ScopeActivities(ctx context.Context, id string) ([]byte, error) {
    return s.yt.Activities(ctx, id, youtrack.ScopeActivityFields, youtrack.ScopeActivityCategories)
}

// Refresh rebuilds the cached timelines of every unresolved issue. Returns
// the number of issues rebuilt.
func (s *Service) Refresh(ctx context.Context) (int, error) {
    if s.store == nil { return 0, nil }
    runID, err := s.store.StartJobRun(ctx, "refresh")
    if err != nil { s.log.Error().Err(err).Msg("start job run failed") }

    var scanned int
    var runErr error
    defer func() {
        if runID != 0 {
            errStr := ""
            if runErr != nil { errStr = runErr.Error() }
            _ = s.store.FinishJobRun(ctx, runID, scanned, runErr == nil, errStr)
        }
    }()

    ids, err := s.store.ListStaleIssues(ctx)
    if err != nil { runErr = err; return 0, err }

    recs := make([]repo.TimelineRecord, 0, len(ids))
    for _, id := range ids {
        report, err := s.buildTimeline(ctx, id)
        if err != nil {
            // One broken issue must not abort the sweep.
            s.log.Error().Err(err).Str("issue", id).Msg("refresh: rebuild failed")
            continue
        }
        payload, err := json.Marshal(report)
        if err != nil { s.log.Error().Err(err).Str("issue", id).Msg("refresh: encode failed"); continue }
        recs = append(recs, repo.TimelineRecord{IssueID: id, Resolved: report.Resolved != nil, Payload: payload})
        scanned++
    }
    if err := s.store.SaveTimelines(ctx, recs); err != nil { runErr = err; return scanned, err }
    s.log.Info().Int("issues", scanned).Msg("refresh: done")
    return scanned, nil
}

func (s *Service) GetLastRun(ctx context.Context) (*repo.LastRun, error) {
    if s.store == nil { return nil, nil }
    return s.store.GetLastRun(ctx)
}

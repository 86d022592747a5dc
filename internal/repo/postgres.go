/* Copyright (c) 2025 Mikhail Gelvikh
 * SPDX-License-Identifier: Apache-2.0 */
package repo

import (
    "context"
    "errors"
    "time"

    "github.com/Mixxxxa/youtrack-analysis/internal/config"
    "github.com/jackc/pgx/v5"
    "github.com/jackc/pgx/v5/pgxpool"
    "github.com/rs/zerolog"
)

// ErrCacheMiss is returned when no cached report exists for an issue or the
// cached copy is older than the caller accepts.
var ErrCacheMiss = errors.New("repo: cache miss")

type DB struct {
    Pool *pgxpool.Pool
    log  zerolog.Logger
}

func MustOpen(ctx context.Context, cfg config.Config, log zerolog.Logger) *DB {
    pool, err := pgxpool.New(ctx, cfg.DBDSN)
    if err != nil { log.Fatal().Err(err).Msg("db connect failed") }
    ctx2, cancel := context.WithTimeout(ctx, 10*time.Second); defer cancel()
    if err := pool.Ping(ctx2); err != nil { log.Fatal().Err(err).Msg("db ping failed") }
    return &DB{Pool: pool, log: log}
}

func (d *DB) Close() { d.Pool.Close() }

type Repository struct {
    db  *DB
    log zerolog.Logger
}

func NewRepository(d *DB, log zerolog.Logger) *Repository { return &Repository{db: d, log: log} }

// EnsureSchema creates the tables the service needs. Idempotent, runs at
// startup.
func (r *Repository) EnsureSchema(ctx context.Context) error {
    stmts := []string{
        `CREATE TABLE IF NOT EXISTS issue_cache(
            issue_id   text PRIMARY KEY,
            resolved   boolean NOT NULL DEFAULT false,
            payload    jsonb NOT NULL,
            fetched_at timestamptz NOT NULL
        )`,
        `CREATE TABLE IF NOT EXISTS job_runs(
            id             bigserial PRIMARY KEY,
            kind           text NOT NULL,
            started_at     timestamptz NOT NULL,
            finished_at    timestamptz,
            issues_scanned int,
            success        boolean,
            error          text
        )`,
    }
    for _, q := range stmts {
        if _, err := r.db.Pool.Exec(ctx, q); err != nil { return err }
    }
    return nil
}

func (r *Repository) TryAdvisoryLock(ctx context.Context, key int64) (bool, error) {
    var ok bool
    err := r.db.Pool.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", key).Scan(&ok)
    return ok, err
}

func (r *Repository) AdvisoryUnlock(ctx context.Context, key int64) error {
    var ok bool
    err := r.db.Pool.QueryRow(ctx, "SELECT pg_advisory_unlock($1)", key).Scan(&ok)
    if !ok && err == nil { return errors.New("advisory unlock returned false") }
    return err
}

// SaveTimeline upserts the rendered timeline report for an issue.
func (r *Repository) SaveTimeline(ctx context.Context, issueID string, resolved bool, payload []byte) error {
    const q = `INSERT INTO issue_cache(issue_id, resolved, payload, fetched_at)
        VALUES($1,$2,$3,now())
        ON CONFLICT(issue_id) DO UPDATE SET
            resolved=EXCLUDED.resolved,
            payload=EXCLUDED.payload,
            fetched_at=EXCLUDED.fetched_at`
    _, err := r.db.Pool.Exec(ctx, q, issueID, resolved, payload)
    return err
}

type TimelineRecord struct {
    IssueID  string
    Resolved bool
    Payload  []byte
}

// SaveTimelines upserts a batch of reports in one round trip.
func (r *Repository) SaveTimelines(ctx context.Context, recs []TimelineRecord) error {
    if len(recs) == 0 { return nil }
    batch := &pgx.Batch{}
    const q = `INSERT INTO issue_cache(issue_id, resolved, payload, fetched_at)
        VALUES($1,$2,$3,now())
        ON CONFLICT(issue_id) DO UPDATE SET
            resolved=EXCLUDED.resolved,
            payload=EXCLUDED.payload,
            fetched_at=EXCLUDED.fetched_at`
    for _, rec := range recs { batch.Queue(q, rec.IssueID, rec.Resolved, rec.Payload) }
    br := r.db.Pool.SendBatch(ctx, batch)
    defer br.Close()
    for range recs { if _, err := br.Exec(); err != nil { return err } }
    return nil
}

// GetTimeline returns the cached report if it is younger than maxAge.
// Resolved issues never go stale, their timelines cannot change.
func (r *Repository) GetTimeline(ctx context.Context, issueID string, maxAge time.Duration) ([]byte, error) {
    const q = `SELECT resolved, payload, fetched_at FROM issue_cache WHERE issue_id=$1`
    var resolved bool
    var payload []byte
    var fetchedAt time.Time
    err := r.db.Pool.QueryRow(ctx, q, issueID).Scan(&resolved, &payload, &fetchedAt)
    if errors.Is(err, pgx.ErrNoRows) { return nil, ErrCacheMiss }
    if err != nil { return nil, err }
    if !resolved && time.Since(fetchedAt) > maxAge { return nil, ErrCacheMiss }
    return payload, nil
}

// ListStaleIssues returns ids of cached unresolved issues, oldest first.
func (r *Repository) ListStaleIssues(ctx context.Context) ([]string, error) {
    rows, err := r.db.Pool.Query(ctx, `SELECT issue_id FROM issue_cache WHERE NOT resolved ORDER BY fetched_at`)
    if err != nil { return nil, err }
    defer rows.Close()
    var out []string
    for rows.Next() {
        var id string
        if err := rows.Scan(&id); err != nil { return nil, err }
        out = append(out, id)
    }
    return out, rows.Err()
}

func (r *Repository) DeleteTimeline(ctx context.Context, issueID string) error {
    _, err := r.db.Pool.Exec(ctx, `DELETE FROM issue_cache WHERE issue_id=$1`, issueID)
    return err
}

// Job runs
func (r *Repository) StartJobRun(ctx context.Context, kind string) (int64, error) {
    const q = `INSERT INTO job_runs(kind, started_at, success) VALUES($1, now(), false) RETURNING id`
    var id int64
    if err := r.db.Pool.QueryRow(ctx, q, kind).Scan(&id); err != nil { return 0, err }
    return id, nil
}

func (r *Repository) FinishJobRun(ctx context.Context, id int64, issuesScanned int, success bool, errStr string) error {
    const q = `UPDATE job_runs SET finished_at=now(), issues_scanned=$2, success=$3, error=$4 WHERE id=$1`
    _, err := r.db.Pool.Exec(ctx, q, id, issuesScanned, success, errStr)
    return err
}

type LastRun struct {
    Kind          string     `json:"kind"`
    StartedAt     time.Time  `json:"started_at"`
    FinishedAt    *time.Time `json:"finished_at"`
    IssuesScanned int        `json:"issues_scanned"`
    Success       bool       `json:"success"`
    Error         string     `json:"error"`
}

func (r *Repository) GetLastRun(ctx context.Context) (*LastRun, error) {
    const q = `SELECT kind, started_at, finished_at,
        coalesce(issues_scanned,0), coalesce(success,false), coalesce(error,'')
        FROM job_runs ORDER BY id DESC LIMIT 1`
    row := r.db.Pool.QueryRow(ctx, q)
    lr := &LastRun{}
    err := row.Scan(&lr.Kind, &lr.StartedAt, &lr.FinishedAt, &lr.IssuesScanned, &lr.Success, &lr.Error)
    if errors.Is(err, pgx.ErrNoRows) { return nil, nil }
    if err != nil { return nil, err }
    return lr, nil
}

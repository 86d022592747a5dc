/* Copyright (c) 2025 Mikhail Gelvikh
 * SPDX-License-Identifier: Apache-2.0 */
package youtrack

import (
    "bytes"
    "context"
    "encoding/json"
    "fmt"
    "io"
    "math/rand"
    "net/http"
    "net/url"
    "strconv"
    "strings"
    "time"

    "github.com/rs/zerolog"

    "github.com/Mixxxxa/youtrack-analysis/internal/config"
)

const (
    // BatchSize is the page size for query fetches.
    BatchSize = 50
    // MaxIssueCount caps how many issues one batch query may pull.
    MaxIssueCount = 500

    maxAttempts = 3
)

var backoffSchedule = [maxAttempts]time.Duration{500 * time.Millisecond, time.Second, 2 * time.Second}

// Activity fields and categories for the full timeline replay.
var (
    TimelineActivityCategories = []string{
        "CommentsCategory",
        "CustomFieldCategory",
        "IssueCreatedCategory",
        "IssueResolvedCategory",
        "WorkItemCategory",
        "TagsCategory",
    }
    TimelineActivityFields = []string{
        "id",
        "author(name,login)",
        "added(name,duration(minutes,presentation))",
        "removed(name,duration(minutes,presentation))",
        "timestamp",
        "target(id,text)",
        "targetMember",
        "authorGroup(id,name)",
        "field(presentation,name)",
    }
)

// Reduced activity slice for scope-increase scans.
var (
    ScopeActivityCategories = []string{"CustomFieldCategory", "IssueResolvedCategory"}
    ScopeActivityFields     = []string{
        "author(name)",
        "added(name)",
        "removed(name)",
        "timestamp",
        "targetMember",
    }
)

// BatchIssueFields is the snapshot slice batch reports work from.
var BatchIssueFields = []string{
    "summary",
    "created",
    "resolved",
    "idReadable",
    "numberInProject",
    "customFields(id,name,value(minutes,fullName,name))",
    "project(id,shortName)",
    "tags(name,color(background,foreground))",
}

type Client struct {
    host    string
    baseURL string
    token   string
    http    *http.Client
    log     zerolog.Logger
}

func NewClient(cfg config.Config, log zerolog.Logger) *Client {
    return &Client{
        host:    cfg.YTHost,
        baseURL: "https://" + cfg.YTHost,
        token:   cfg.YTAPIKey,
        http:    &http.Client{Timeout: cfg.HTTPTimeout},
        log:     log,
    }
}

func (c *Client) headers(req *http.Request) {
    req.Header.Set("Accept", "application/json")
    req.Header.Set("Authorization", "Bearer "+c.token)
    req.Header.Set("Content-Type", "application/json")
    req.Header.Set("Cache-Control", "no-cache")
}

func retriableStatus(code int) bool { return code == http.StatusTooManyRequests || code >= 500 }

// fetchJSON performs one API call with retries and full-jitter backoff.
// Client errors other than 429 fail fast.
func (c *Client) fetchJSON(ctx context.Context, method, u string, body []byte) ([]byte, error) {
    var lastErr error
    for attempt := 0; attempt < maxAttempts; attempt++ {
        if attempt > 0 {
            base := backoffSchedule[attempt-1]
            delay := time.Duration(rand.Int63n(int64(base)))
            select {
            case <-time.After(delay):
            case <-ctx.Done():
                return nil, ctx.Err()
            }
        }

        var r io.Reader
        if body != nil { r = bytes.NewReader(body) }
        req, err := http.NewRequestWithContext(ctx, method, u, r)
        if err != nil { return nil, err }
        c.headers(req)

        resp, err := c.http.Do(req)
        if err != nil {
            lastErr = err
            continue
        }
        data, err := io.ReadAll(resp.Body)
        resp.Body.Close()
        if err != nil {
            lastErr = err
            continue
        }
        if resp.StatusCode >= 300 {
            err = fmt.Errorf("youtrack api status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(data)))
            if !retriableStatus(resp.StatusCode) { return nil, err }
            lastErr = err
            continue
        }
        return data, nil
    }
    return nil, lastErr
}

func (c *Client) apiURL(path string, q url.Values) string {
    u := c.baseURL + path
    if len(q) > 0 { u += "?" + q.Encode() }
    return u
}

// Issue fetches the full issue snapshot, subtask links included.
func (c *Client) Issue(ctx context.Context, id string) ([]byte, error) {
    q := url.Values{}
    q.Set("fields", strings.Join(snapshotFields(), ","))
    u := c.apiURL("/youtrack/api/issues/"+url.PathEscape(id), q)
    return c.fetchJSON(ctx, http.MethodGet, u, nil)
}

// Activities fetches the issue's activity records for the given field and
// category slices.
func (c *Client) Activities(ctx context.Context, id string, fields, categories []string) ([]byte, error) {
    q := url.Values{}
    q.Set("fields", strings.Join(fields, ","))
    q.Set("categories", strings.Join(categories, ","))
    u := c.apiURL("/youtrack/api/issues/"+url.PathEscape(id)+"/activities", q)
    return c.fetchJSON(ctx, http.MethodGet, u, nil)
}

// IssuesByQuery pulls every issue matching the query, paginated. The result
// keeps each issue as raw JSON for the caller to shape.
func (c *Client) IssuesByQuery(ctx context.Context, query string, fields []string) ([]json.RawMessage, error) {
    total, err := c.IssueCount(ctx, query)
    if err != nil { return nil, err }
    if total == 0 { return nil, nil }
    if total > MaxIssueCount {
        c.log.Error().Str("query", query).Int("count", total).Msg("batch query over issue limit")
        return nil, &TooManyIssuesError{Count: total}
    }

    var out []json.RawMessage
    for skip := 0; skip < total; skip += BatchSize {
        q := url.Values{}
        q.Set("query", query)
        q.Set("fields", strings.Join(fields, ","))
        q.Set("$skip", strconv.Itoa(skip))
        q.Set("$top", strconv.Itoa(BatchSize))
        data, err := c.fetchJSON(ctx, http.MethodGet, c.apiURL("/youtrack/api/issues", q), nil)
        if err != nil { return nil, err }
        var page []json.RawMessage
        if err := json.Unmarshal(data, &page); err != nil { return nil, fmt.Errorf("decode issues page: %w", err) }
        out = append(out, page...)
    }
    return out, nil
}

// IssueCount asks the tracker how many issues match a query. The endpoint
// answers -1 while it is still counting, in which case the call is repeated
// after a short pause.
func (c *Client) IssueCount(ctx context.Context, query string) (int, error) {
    body, err := json.Marshal(map[string]string{"query": query})
    if err != nil { return 0, err }
    u := c.apiURL("/youtrack/api/issuesGetter/count", url.Values{"fields": {"count"}})

    for i := 0; i < maxAttempts; i++ {
        data, err := c.fetchJSON(ctx, http.MethodPost, u, body)
        if err != nil { return 0, err }
        var res struct {
            Count *int `json:"count"`
        }
        if err := json.Unmarshal(data, &res); err != nil { return 0, fmt.Errorf("decode count: %w", err) }
        if res.Count != nil && *res.Count != -1 { return *res.Count, nil }

        if i < maxAttempts-1 {
            select {
            case <-time.After(time.Duration(i) * 200 * time.Millisecond):
            case <-ctx.Done():
                return 0, ctx.Err()
            }
        }
    }
    c.log.Error().Str("query", query).Msg("issue count never settled")
    return 0, ErrCountUnavailable
}

// SearchURL renders the human-facing search link for a query.
func (c *Client) SearchURL(query string) string {
    return "https://" + c.host + "/youtrack/issues?" + url.Values{"q": {query}}.Encode()
}

func snapshotFields() []string {
    summary := []string{
        "idReadable",
        "summary",
        "created",
        "project(id,name,shortName)",
        "reporter(fullName)",
        "customFields(id,name,value(minutes,fullName,name))",
        "tags(id,color(background,foreground),name)",
        "comments(author(fullName),created,text)",
    }
    links := []string{
        "id",
        "idReadable",
        "direction",
        "linkType(name,localizedName,sourceToTarget,targetToSource,directed,aggregation)",
        "issues(" + strings.Join(summary, ",") + ")",
    }
    return append(summary, "links("+strings.Join(links, ",")+")")
}

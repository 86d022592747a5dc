package services

import (
    "context"
    "encoding/json"
    "fmt"
    "strings"
    "testing"
    "time"

    "github.com/rs/zerolog"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/Mixxxxa/youtrack-analysis/internal/adapters/youtrack"
    "github.com/Mixxxxa/youtrack-analysis/internal/batch"
    "github.com/Mixxxxa/youtrack-analysis/internal/config"
    "github.com/Mixxxxa/youtrack-analysis/internal/domain"
    "github.com/Mixxxxa/youtrack-analysis/internal/repo"
)

func msAt(y int, mo time.Month, d, h, mi int) int64 {
    return time.Date(y, mo, d, h, mi, 0, 0, time.UTC).UnixMilli()
}

func snapshotJSON(id string, created int64, state string, spentMinutes int) []byte {
    return []byte(fmt.Sprintf(`{
        "idReadable": %q,
        "summary": "Checkout flow",
        "created": %d,
        "reporter": {"fullName": "Bob"},
        "project": {"id": "0-1", "shortName": "TST", "name": "Test"},
        "customFields": [
            {"id": "110-33", "name": "State", "value": {"name": %q}},
            {"id": "111-7", "name": "Assignee", "value": {"fullName": "Alice"}},
            {"id": "116-7", "name": "Scope", "value": {"minutes": 480}},
            {"id": "116-6", "name": "Spent time", "value": {"minutes": %d}},
            {"id": "110-32", "name": "Component", "value": {"name": "Backend"}}
        ],
        "tags": [{"name": "backend"}]
    }`, id, created, state, spentMinutes))
}

func workActivityJSON(at int64, author string, minutes int) string {
    return fmt.Sprintf(`{
        "$type": "WorkItemActivityItem",
        "timestamp": %d,
        "author": {"name": %q},
        "added": [{"duration": {"minutes": %d}}]
    }`, at, author, minutes)
}

type fakeTracker struct {
    snapshot    []byte
    activities  map[string][]byte
    queryIssues []json.RawMessage
    lastQuery   string

    issueCalls int
}

func (f *fakeTracker) Issue(_ context.Context, id string) ([]byte, error) {
    f.issueCalls++
    return f.snapshot, nil
}

func (f *fakeTracker) Activities(_ context.Context, id string, fields, categories []string) ([]byte, error) {
    key := id + "|" + strings.Join(categories, ",")
    if data, ok := f.activities[key]; ok { return data, nil }
    return []byte("[]"), nil
}

func (f *fakeTracker) IssuesByQuery(_ context.Context, query string, fields []string) ([]json.RawMessage, error) {
    f.lastQuery = query
    return f.queryIssues, nil
}

func (f *fakeTracker) ExtractIssueID(input string) (string, error) {
    if !youtrack.IsValidIssueID(input) { return "", &youtrack.InvalidIssueIDError{Input: input} }
    return input, nil
}

func (f *fakeTracker) SearchURL(query string) string {
    return "https://yt.example.com/youtrack/issues?q=" + query
}

type memStore struct {
    payloads map[string][]byte
    resolved map[string]bool
    saves    int
    lastRun  *repo.LastRun
    runID    int64
}

func newMemStore() *memStore {
    return &memStore{payloads: map[string][]byte{}, resolved: map[string]bool{}}
}

func (m *memStore) GetTimeline(_ context.Context, issueID string, _ time.Duration) ([]byte, error) {
    if p, ok := m.payloads[issueID]; ok { return p, nil }
    return nil, repo.ErrCacheMiss
}

func (m *memStore) SaveTimeline(_ context.Context, issueID string, resolved bool, payload []byte) error {
    m.payloads[issueID] = payload
    m.resolved[issueID] = resolved
    m.saves++
    return nil
}

func (m *memStore) SaveTimelines(_ context.Context, recs []repo.TimelineRecord) error {
    for _, r := range recs {
        m.payloads[r.IssueID] = r.Payload
        m.resolved[r.IssueID] = r.Resolved
        m.saves++
    }
    return nil
}

func (m *memStore) ListStaleIssues(_ context.Context) ([]string, error) {
    var out []string
    for id, resolved := range m.resolved {
        if !resolved { out = append(out, id) }
    }
    return out, nil
}

func (m *memStore) StartJobRun(_ context.Context, kind string) (int64, error) {
    m.runID++
    m.lastRun = &repo.LastRun{Kind: kind, StartedAt: time.Now()}
    return m.runID, nil
}

func (m *memStore) FinishJobRun(_ context.Context, _ int64, issuesScanned int, success bool, errStr string) error {
    m.lastRun.IssuesScanned = issuesScanned
    m.lastRun.Success = success
    m.lastRun.Error = errStr
    return nil
}

func (m *memStore) GetLastRun(_ context.Context) (*repo.LastRun, error) { return m.lastRun, nil }

func testConfig() config.Config {
    return config.Config{
        YTHost:          "yt.example.com",
        YTFieldMap:      domain.DefaultCustomFields(),
        ReviewThreshold: domain.DurationFromMinutes(960),
        CacheTTL:        time.Hour,
        WorkersFetch:    2,
    }
}

func timelineCategories() string {
    return strings.Join(youtrack.TimelineActivityCategories, ",")
}

func TestService_Timeline(t *testing.T) {
    created := msAt(2025, time.April, 1, 6, 30)
    yt := &fakeTracker{
        snapshot: snapshotJSON("tst-1", created, "In progress", 60),
        activities: map[string][]byte{
            "tst-1|" + timelineCategories(): []byte("[" + workActivityJSON(msAt(2025, time.April, 1, 9, 0), "Alice", 60) + "]"),
        },
    }
    store := newMemStore()
    svc := New(testConfig(), zerolog.Nop(), store, yt)

    report, err := svc.Timeline(context.Background(), "tst-1")
    require.NoError(t, err)

    assert.Equal(t, "tst-1", report.ID)
    assert.Equal(t, "Checkout flow", report.Summary)
    assert.Equal(t, "Bob", report.Author)
    assert.Equal(t, "Alice", report.Assignee)
    assert.Equal(t, "In progress", report.State)
    assert.Equal(t, "Backend", report.Component)
    assert.Equal(t, "TST", report.Project)
    require.NotNil(t, report.Scope)
    assert.Equal(t, "1d", *report.Scope)
    assert.Equal(t, "1h", report.SpentTime)
    assert.Equal(t, int64(3600), report.SpentTimeValue)
    assert.Equal(t, "none", report.ScopeOverrun)
    // Created in-work means the clock started at creation.
    require.NotNil(t, report.Started)
    assert.Nil(t, report.Resolved)
    require.Len(t, report.WorkItems, 1)
    assert.Equal(t, "Alice", report.WorkItems[0].Author)
    assert.Equal(t, "1h", report.WorkItems[0].Duration)
    assert.Equal(t, []string{"backend"}, report.Tags)
    assert.Empty(t, report.Problems)

    // Unresolved issues enter the cache as refreshable.
    assert.Equal(t, 1, store.saves)
    assert.False(t, store.resolved["tst-1"])
}

func TestService_Timeline_ServedFromCache(t *testing.T) {
    created := msAt(2025, time.April, 1, 6, 30)
    yt := &fakeTracker{snapshot: snapshotJSON("tst-1", created, "In progress", 0)}
    store := newMemStore()
    svc := New(testConfig(), zerolog.Nop(), store, yt)

    _, err := svc.Timeline(context.Background(), "tst-1")
    require.NoError(t, err)
    require.Equal(t, 1, yt.issueCalls)

    report, err := svc.Timeline(context.Background(), "tst-1")
    require.NoError(t, err)
    assert.Equal(t, "tst-1", report.ID)
    assert.Equal(t, 1, yt.issueCalls)
}

func TestService_Timeline_InvalidID(t *testing.T) {
    svc := New(testConfig(), zerolog.Nop(), newMemStore(), &fakeTracker{})
    _, err := svc.Timeline(context.Background(), "not an issue")
    var badID *youtrack.InvalidIssueIDError
    require.ErrorAs(t, err, &badID)
}

func TestService_Timeline_NoStore(t *testing.T) {
    created := msAt(2025, time.April, 1, 6, 30)
    yt := &fakeTracker{snapshot: snapshotJSON("tst-1", created, "In progress", 0)}
    svc := New(testConfig(), zerolog.Nop(), nil, yt)

    report, err := svc.Timeline(context.Background(), "tst-1")
    require.NoError(t, err)
    assert.Equal(t, "tst-1", report.ID)
}

func TestService_ScopeOverrunReport(t *testing.T) {
    yt := &fakeTracker{queryIssues: []json.RawMessage{}}
    svc := New(testConfig(), zerolog.Nop(), newMemStore(), yt)

    report, err := svc.ScopeOverrunReport(context.Background(), ScopeOverrunRequest{
        Project:   "TST",
        DateBegin: "2025-04-01",
        DateEnd:   "2025-04-30",
    })
    require.NoError(t, err)
    assert.Equal(t, "project: TST resolved date: 2025-04-01 .. 2025-04-30 #Resolved Spent time: 1m .. * sort by: updated", yt.lastQuery)
    assert.Equal(t, yt.lastQuery, report.Query)
    assert.Empty(t, report.Entries)
}

func TestService_ScopeOverrunReport_BadDates(t *testing.T) {
    svc := New(testConfig(), zerolog.Nop(), newMemStore(), &fakeTracker{})
    _, err := svc.ScopeOverrunReport(context.Background(), ScopeOverrunRequest{
        Project:   "TST",
        DateBegin: "2025-04-30",
        DateEnd:   "2025-04-01",
    })
    assert.ErrorIs(t, err, batch.ErrBadDates)
}

func TestService_ScopeIncreaseReport(t *testing.T) {
    yt := &fakeTracker{queryIssues: []json.RawMessage{}}
    svc := New(testConfig(), zerolog.Nop(), newMemStore(), yt)

    report, err := svc.ScopeIncreaseReport(context.Background(), ScopeOverrunRequest{
        Project:   "TST",
        DateBegin: "2025-04-01",
        DateEnd:   "2025-04-30",
    })
    require.NoError(t, err)
    assert.Empty(t, report.Entries)
    assert.Nil(t, report.Stats)
}

func TestService_Refresh(t *testing.T) {
    created := msAt(2025, time.April, 1, 6, 30)
    yt := &fakeTracker{snapshot: snapshotJSON("tst-1", created, "In progress", 0)}
    store := newMemStore()
    svc := New(testConfig(), zerolog.Nop(), store, yt)

    _, err := svc.Timeline(context.Background(), "tst-1")
    require.NoError(t, err)

    n, err := svc.Refresh(context.Background())
    require.NoError(t, err)
    assert.Equal(t, 1, n)

    lr, err := svc.GetLastRun(context.Background())
    require.NoError(t, err)
    require.NotNil(t, lr)
    assert.Equal(t, "refresh", lr.Kind)
    assert.True(t, lr.Success)
    assert.Equal(t, 1, lr.IssuesScanned)
}

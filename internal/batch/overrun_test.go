package batch

import (
    "encoding/json"
    "fmt"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/Mixxxxa/youtrack-analysis/internal/domain"
)

func batchIssueJSON(id string, number int, scope, spent string) json.RawMessage {
    scopeField := `null`
    if scope != "" { scopeField = fmt.Sprintf(`{"minutes":%s}`, scope) }
    spentField := `null`
    if spent != "" { spentField = fmt.Sprintf(`{"minutes":%s}`, spent) }
    return json.RawMessage(fmt.Sprintf(`{
        "idReadable": %q,
        "numberInProject": %d,
        "summary": "Some issue",
        "created": 1743487800000,
        "resolved": 1743519600000,
        "project": {"shortName": "TST"},
        "customFields": [
            {"name": "Assignee", "value": {"fullName": "Alice"}},
            {"name": "Component", "value": {"name": "Backend"}},
            {"name": "State", "value": {"name": "Resolved"}},
            {"name": "Priority", "value": {"name": "Major"}},
            {"name": "Scope", "value": %s},
            {"name": "Spent time", "value": %s}
        ],
        "tags": [{"name": "Overdue", "color": {"background": "#a30", "foreground": "#fff"}}]
    }`, id, number, scopeField, spentField))
}

func TestValidateDates(t *testing.T) {
    assert.NoError(t, ValidateDates("2025-04-01", "2025-04-30"))
    assert.NoError(t, ValidateDates("2025-04-01", "2025-04-01"))
    assert.ErrorIs(t, ValidateDates("2025-04-30", "2025-04-01"), ErrBadDates)
    assert.ErrorIs(t, ValidateDates("yesterday", "2025-04-01"), ErrBadDates)
    assert.ErrorIs(t, ValidateDates("2025-04-01", ""), ErrBadDates)
}

func TestScopeOverrun(t *testing.T) {
    issues := []json.RawMessage{
        batchIssueJSON("tst-1", 1, "480", "648"), // 35% over
        batchIssueJSON("tst-2", 2, "480", "480"), // within scope
        batchIssueJSON("tst-3", 3, "", "120"),    // spent with no scope
        batchIssueJSON("tst-4", 4, "480", ""),    // scope, nothing spent
    }

    report, err := ScopeOverrun(issues, nil, "project: TST sort by: updated", "https://yt.example.com/youtrack/issues?q=x")
    require.NoError(t, err)

    require.Len(t, report.Entries, 2)

    over := report.Entries[0]
    assert.Equal(t, "tst-1", over.ID)
    assert.Equal(t, 1, over.IDValue)
    assert.Equal(t, "Alice", over.Assignee)
    assert.Equal(t, "Backend", over.Component)
    assert.Equal(t, "2h 48m", over.ScopeOverrun)
    assert.Equal(t, int64(168*60), over.ScopeOverrunValue)
    assert.InDelta(t, 135.0, over.ScopeOverrunPercValue, 0.01)
    require.Len(t, over.Tags, 1)
    assert.Equal(t, "Overdue", over.Tags[0].Text)

    lost := report.Entries[1]
    assert.Equal(t, "tst-3", lost.ID)
    assert.Equal(t, "N/A", lost.ScopeOverrun)
    assert.Equal(t, int64(0), lost.ScopeOverrunValue)
    assert.Equal(t, 0.0, lost.ScopeOverrunPercValue)

    require.NotNil(t, report.Stats)
    assert.Equal(t, 4, report.Stats.CountTotal)
    assert.Equal(t, 2, report.Stats.CountScopeOK)
    assert.Equal(t, 2, report.Stats.CountScopeOverrun)
    assert.Equal(t, "2h 48m", report.Stats.MeanOverrun)
    assert.Equal(t, "2h 48m", report.Stats.MedianOverrun)
}

func TestScopeOverrun_DefaultScope(t *testing.T) {
    defaults := map[string]domain.Duration{"TST": domain.DurationFromMinutes(60)}
    issues := []json.RawMessage{
        batchIssueJSON("tst-1", 1, "", "120"),
    }

    report, err := ScopeOverrun(issues, defaults, "q", "u")
    require.NoError(t, err)

    // The project default substitutes the missing estimate, so the issue is
    // a regular overrun rather than a lost scope.
    require.Len(t, report.Entries, 1)
    assert.Equal(t, "1h", report.Entries[0].ScopeOverrun)
    assert.Equal(t, int64(3600), report.Entries[0].ScopeOverrunValue)
    assert.InDelta(t, 200.0, report.Entries[0].ScopeOverrunPercValue, 0.01)
}

func TestScopeOverrun_Empty(t *testing.T) {
    report, err := ScopeOverrun(nil, nil, "q", "u")
    require.NoError(t, err)
    assert.Empty(t, report.Entries)
    assert.Nil(t, report.Stats)
}

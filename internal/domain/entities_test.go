package domain

import (
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestWorkItem_BusinessDuration(t *testing.T) {
    // Friday morning span reaching into the weekend: only the business
    // windows of Friday count.
    w := WorkItem{
        Timestamp: TimestampOf(time.Date(2025, 4, 4, 9, 50, 0, 0, time.UTC)),
        Name:      "Somebody",
        Duration:  DurationOf(3*24*time.Hour + 30*time.Minute),
        State:     StateInProgress,
    }
    assert.Equal(t, DurationFromMinutes(490), w.BusinessDuration())
    assert.Equal(t, "1d 10m", w.BusinessDuration().FormatYT())
}

func TestWorkItem_FormatSpan(t *testing.T) {
    w1 := WorkItem{
        Timestamp: TimestampOf(time.Date(2025, 6, 4, 12, 30, 0, 0, time.UTC)),
        Name:      "Somebody",
        Duration:  DurationOf(24 * time.Hour),
        State:     StateInProgress,
    }
    assert.Equal(t, "3d", w1.Duration.FormatYT())
    assert.Equal(t, "1d", w1.Duration.FormatNatural())
    assert.Equal(t, "1d", w1.BusinessDuration().FormatYT())

    w3 := WorkItem{
        Timestamp: TimestampOf(time.Date(2025, 7, 7, 9, 30, 0, 0, time.UTC)),
        Name:      "Somebody",
        Duration:  DurationOf(3*time.Hour + time.Minute),
        State:     StateReview,
    }
    assert.Equal(t, "2h 1m", w3.BusinessDuration().FormatYT())
}

func TestWorkItem_String(t *testing.T) {
    w := WorkItem{
        Timestamp: TimestampOf(time.Date(2025, 4, 4, 9, 50, 0, 0, time.UTC)),
        Name:      "Somebody",
        Duration:  DurationFromMinutes(90),
        State:     StateReview,
    }
    assert.Equal(t, "Somebody - Review - 1h 30m", w.String())
}

func TestIssueInfo_SpentTime(t *testing.T) {
    info := IssueInfo{
        ShortIssueInfo: ShortIssueInfo{
            Subtasks: []ShortIssueInfo{
                {ID: "tst-2", SpentTimeYT: DurationFromMinutes(30)},
                {ID: "tst-3", SpentTimeYT: DurationFromMinutes(15)},
            },
        },
        WorkItems: []WorkItem{
            {Duration: DurationFromMinutes(60)},
            {Duration: DurationFromMinutes(45)},
        },
    }
    assert.Equal(t, DurationFromMinutes(150), info.SpentTime())
}

func TestIssueInfo_ScopeOverrun(t *testing.T) {
    scope := DurationFromMinutes(480)

    t.Run("no scope", func(t *testing.T) {
        info := IssueInfo{WorkItems: []WorkItem{{Duration: DurationFromMinutes(60)}}}
        assert.Equal(t, "", info.ScopeOverrun())
    })

    t.Run("within scope", func(t *testing.T) {
        info := IssueInfo{
            ShortIssueInfo: ShortIssueInfo{Scope: &scope},
            WorkItems:      []WorkItem{{Duration: DurationFromMinutes(480)}},
        }
        assert.Equal(t, ScopeOverrunNone, info.ScopeOverrun())
    })

    t.Run("over scope", func(t *testing.T) {
        info := IssueInfo{
            ShortIssueInfo: ShortIssueInfo{Scope: &scope},
            WorkItems:      []WorkItem{{Duration: DurationFromMinutes(648)}},
        }
        assert.Equal(t, "2h 48m (+35%)", info.ScopeOverrun())
    })
}

func TestIssueInfo_Times(t *testing.T) {
    created := TimestampOf(time.Date(2025, 4, 1, 6, 0, 0, 0, time.UTC))
    started := created.Add(DurationFromMinutes(90))
    resolved := created.Add(DurationFromMinutes(600))

    info := IssueInfo{ShortIssueInfo: ShortIssueInfo{CreationTime: created}}
    assert.False(t, info.IsStarted())
    assert.False(t, info.IsFinished())
    assert.Nil(t, info.ResolutionTime())
    assert.Nil(t, info.ReactionTime())

    info.StartedTime = &started
    info.ResolveTime = &resolved
    require.True(t, info.IsStarted())
    require.True(t, info.IsFinished())
    assert.Equal(t, DurationFromMinutes(90), *info.ReactionTime())
    assert.Equal(t, DurationFromMinutes(600), *info.ResolutionTime())
}

func TestSortWorkItemsByTime(t *testing.T) {
    base := TimestampOf(time.Date(2025, 4, 1, 6, 0, 0, 0, time.UTC))
    items := []WorkItem{
        {Timestamp: base.Add(DurationFromMinutes(20)), Name: "b"},
        {Timestamp: base, Name: "a"},
        {Timestamp: base.Add(DurationFromMinutes(20)), Name: "c"},
    }
    SortWorkItemsByTime(items)
    assert.Equal(t, "a", items[0].Name)
    assert.Equal(t, "b", items[1].Name)
    assert.Equal(t, "c", items[2].Name)
}

func TestSortSubtasksBySpentTime(t *testing.T) {
    subtasks := []ShortIssueInfo{
        {ID: "tst-2", SpentTimeYT: DurationFromMinutes(15)},
        {ID: "tst-3", SpentTimeYT: DurationFromMinutes(45)},
        {ID: "tst-4", SpentTimeYT: DurationFromMinutes(30)},
    }
    SortSubtasksBySpentTime(subtasks)
    assert.Equal(t, "tst-3", subtasks[0].ID)
    assert.Equal(t, "tst-4", subtasks[1].ID)
    assert.Equal(t, "tst-2", subtasks[2].ID)
}

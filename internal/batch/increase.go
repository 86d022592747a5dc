/* Copyright (c) 2025 Mikhail Gelvikh
 * SPDX-License-Identifier: Apache-2.0 */
package batch

import (
    "context"
    "encoding/json"
    "sync"

    "github.com/Mixxxxa/youtrack-analysis/internal/anomaly"
    "github.com/Mixxxxa/youtrack-analysis/internal/domain"
)

// ScopeActivitySource supplies the reduced activity slice the scope scan
// needs: state switches, estimation edits and resolve marks.
type ScopeActivitySource interface {
    ScopeActivities(ctx context.Context, id string) ([]byte, error)
}

type IncreaseAnomalyRow struct {
    Timestamp   string `json:"timestamp"`
    Description string `json:"description"`
}

type IncreaseRow struct {
    IssueRow
    Anomalies           []IncreaseAnomalyRow `json:"anomalies"`
    IncreasedTotal      string               `json:"increased_total"`
    IncreasedTotalValue int64                `json:"increased_total_value"`
}

type IncreaseStats struct {
    CountTotal          int    `json:"count_total"`
    CountOK             int    `json:"count_ok"`
    CountFail           int    `json:"count_fail"`
    MeanScopeIncrease   string `json:"mean_scope_increase"`
    MedianScopeIncrease string `json:"median_scope_increase"`
}

type IncreaseReport struct {
    Entries  []IncreaseRow  `json:"entries"`
    Query    string         `json:"query"`
    QueryURL string         `json:"query_url"`
    Stats    *IncreaseStats `json:"stats,omitempty"`
}

const (
    activityResolved    = "IssueResolvedActivityItem"
    activityCustomField = "CustomFieldActivityItem"
)

type rawScanActivity struct {
    Type      string `json:"$type"`
    Timestamp int64  `json:"timestamp"`
    Author    struct {
        Name string `json:"name"`
    } `json:"author"`
    TargetMember string          `json:"targetMember"`
    Added        json.RawMessage `json:"added"`
    Removed      json.RawMessage `json:"removed"`
}

// ScopeIncrease reports the issues whose estimate grew after work started.
// Activities are fetched per issue through src with the given concurrency.
func ScopeIncrease(ctx context.Context, src ScopeActivitySource, fields domain.CustomFields,
    issues []json.RawMessage, defaults map[string]domain.Duration,
    query, queryURL string, workers int) (IncreaseReport, error) {

    report := IncreaseReport{Entries: []IncreaseRow{}, Query: query, QueryURL: queryURL}
    if workers <= 0 { workers = DefaultWorkers }

    type parsedIssue struct {
        info  shortInfo
        entry rawBatchIssue
    }
    parsed := make([]parsedIssue, 0, len(issues))
    for _, raw := range issues {
        var entry rawBatchIssue
        if err := json.Unmarshal(raw, &entry); err != nil { return report, err }
        info, err := parseShortInfo(&entry, defaults)
        if err != nil { return report, err }
        parsed = append(parsed, parsedIssue{info: info, entry: entry})
    }
    if len(parsed) == 0 { return report, nil }

    results := make([]*IncreaseRow, len(parsed))
    jobs := make(chan int)
    var wg sync.WaitGroup
    var mu sync.Mutex
    var firstErr error

    for w := 0; w < workers; w++ {
        wg.Add(1)
        go func() {
            defer wg.Done()
            for i := range jobs {
                mu.Lock()
                failed := firstErr != nil
                mu.Unlock()
                if failed { continue }

                row, err := scanIssue(ctx, src, fields, parsed[i].info, &parsed[i].entry, defaults)
                if err != nil {
                    mu.Lock()
                    if firstErr == nil { firstErr = err }
                    mu.Unlock()
                    continue
                }
                results[i] = row
            }
        }()
    }
    for i := range parsed {
        jobs <- i
    }
    close(jobs)
    wg.Wait()
    if firstErr != nil { return report, firstErr }

    var increases []int64
    for _, row := range results {
        if row == nil { continue }
        report.Entries = append(report.Entries, *row)
        increases = append(increases, row.IncreasedTotalValue)
    }
    if len(report.Entries) > 0 {
        mean, median := meanMedianSeconds(increases)
        report.Stats = &IncreaseStats{
            CountTotal:          len(parsed),
            CountOK:             len(parsed) - len(report.Entries),
            CountFail:           len(report.Entries),
            MeanScopeIncrease:   mean,
            MedianScopeIncrease: median,
        }
    }
    return report, nil
}

func scanIssue(ctx context.Context, src ScopeActivitySource, fields domain.CustomFields,
    info shortInfo, entry *rawBatchIssue, defaults map[string]domain.Duration) (*IncreaseRow, error) {

    data, err := src.ScopeActivities(ctx, entry.IDReadable)
    if err != nil { return nil, err }
    anomalies, err := scanActivities(data, fields, info.State, defaults[info.ProjectShortName])
    if err != nil { return nil, err }

    total := totalScopeIncrease(anomalies)
    if total <= 0 { return nil, nil }

    row := IncreaseRow{
        IssueRow:            issueRow(info, entry),
        Anomalies:           make([]IncreaseAnomalyRow, 0, len(anomalies)),
        IncreasedTotal:      domain.DurationFromMinutes(int(total / 60)).FormatYT(),
        IncreasedTotalValue: total,
    }
    for _, a := range anomalies {
        row.Anomalies = append(row.Anomalies, IncreaseAnomalyRow{
            Timestamp:   a.When().String(),
            Description: a.Describe(),
        })
    }
    return &row, nil
}

// scanActivities walks the reduced activity log looking for estimate growth
// after work started and for reopened resolutions.
func scanActivities(data []byte, fields domain.CustomFields, currentState string, defaultScope domain.Duration) ([]anomaly.Anomaly, error) {
    var entries []rawScanActivity
    if err := json.Unmarshal(data, &entries); err != nil { return nil, err }

    started, err := initiallyStarted(entries, fields, currentState)
    if err != nil { return nil, err }

    var found []anomaly.Anomaly
    resolved := false
    for _, e := range entries {
        switch {
        case e.Type == activityResolved:
            resolved = true

        case e.Type == activityCustomField && e.TargetMember == fields.State.Target:
            added, err := namedValues(e.Added)
            if err != nil { return nil, err }
            if len(added) == 0 { continue }
            newState, err := domain.ParseState(added[0].Name)
            if err != nil { return nil, err }
            if !started && newState.IsInWork() { started = true }
            if resolved && newState.IsActive() {
                resolved = false
                found = append(found, anomaly.NewReopen(domain.TimestampFromMillis(e.Timestamp), e.Author.Name))
            }

        case e.Type == activityCustomField && started && e.TargetMember == fields.Scope.Target:
            before, err := minutesOrDefault(e.Removed, defaultScope)
            if err != nil { return nil, err }
            after, err := minutesOrDefault(e.Added, defaultScope)
            if err != nil { return nil, err }
            if before.Less(after) {
                found = append(found, anomaly.NewScopeIncreased(
                    domain.TimestampFromMillis(e.Timestamp), e.Author.Name, before, after))
            }
        }
    }
    return found, nil
}

// initiallyStarted recovers whether the issue was in work before the first
// recorded state switch; without any switch the current state decides.
func initiallyStarted(entries []rawScanActivity, fields domain.CustomFields, currentState string) (bool, error) {
    for _, e := range entries {
        if e.Type != activityCustomField || e.TargetMember != fields.State.Target { continue }
        removed, err := namedValues(e.Removed)
        if err != nil { return false, err }
        if len(removed) == 0 { return false, nil }
        st, err := domain.ParseState(removed[0].Name)
        if err != nil { return false, err }
        return st.IsInWork(), nil
    }
    st, err := domain.ParseState(currentState)
    if err != nil { return false, err }
    return st.IsInWork(), nil
}

func totalScopeIncrease(anomalies []anomaly.Anomaly) int64 {
    var total int64
    for _, a := range anomalies {
        inc, ok := a.(anomaly.ScopeIncreased)
        if !ok { continue }
        delta := inc.After.Seconds() - inc.Before.Seconds()
        if delta > 0 { total += delta }
    }
    return total
}

func namedValues(raw json.RawMessage) ([]rawBatchValue, error) {
    if len(raw) == 0 || string(raw) == "null" { return nil, nil }
    var out []rawBatchValue
    if err := json.Unmarshal(raw, &out); err != nil { return nil, err }
    return out, nil
}

func minutesOrDefault(raw json.RawMessage, def domain.Duration) (domain.Duration, error) {
    if len(raw) == 0 || string(raw) == "null" { return def, nil }
    var minutes int
    if err := json.Unmarshal(raw, &minutes); err != nil { return domain.Duration{}, err }
    return domain.DurationFromMinutes(minutes), nil
}

/* Copyright (c) 2025 Mikhail Gelvikh
 * SPDX-License-Identifier: Apache-2.0 */
package batch

import (
    "encoding/json"
    "math"

    "github.com/Mixxxxa/youtrack-analysis/internal/domain"
)

type OverrunRow struct {
    IssueRow
    ScopeOverrun          string  `json:"scope_overrun"`
    ScopeOverrunValue     int64   `json:"scope_overrun_value"`
    ScopeOverrunPercValue float64 `json:"scope_overrun_perc_value"`
}

type OverrunStats struct {
    CountTotal        int    `json:"count_total"`
    CountScopeOK      int    `json:"count_scope_ok"`
    CountScopeOverrun int    `json:"count_scope_overrun"`
    MeanOverrun       string `json:"mean_overrun"`
    MedianOverrun     string `json:"median_overrun"`
}

type OverrunReport struct {
    Entries  []OverrunRow  `json:"entries"`
    Query    string        `json:"query"`
    QueryURL string        `json:"query_url"`
    Stats    *OverrunStats `json:"stats,omitempty"`
}

// ScopeOverrun keeps the issues whose logged time blew the estimate, plus
// the ones that logged time with no estimate to blow.
func ScopeOverrun(issues []json.RawMessage, defaults map[string]domain.Duration, query, queryURL string) (OverrunReport, error) {
    report := OverrunReport{Entries: []OverrunRow{}, Query: query, QueryURL: queryURL}

    var overrunSeconds []int64
    for _, raw := range issues {
        var entry rawBatchIssue
        if err := json.Unmarshal(raw, &entry); err != nil { return report, err }
        info, err := parseShortInfo(&entry, defaults)
        if err != nil { return report, err }
        if !info.isScopeOverrun() && !info.lostScope() { continue }

        row := OverrunRow{IssueRow: issueRow(info, &entry), ScopeOverrun: "N/A"}
        if overrun := info.overrun(); overrun != nil {
            row.ScopeOverrun = overrun.FormatYT()
            row.ScopeOverrunValue = overrun.Seconds()
        }
        if info.hasTimings() && !info.Scope.IsZero() {
            ratio := float64(info.SpentTime.Seconds()) / float64(info.Scope.Seconds()) * 100
            row.ScopeOverrunPercValue = math.Round(ratio*100) / 100
        }
        if row.ScopeOverrunValue > 0 { overrunSeconds = append(overrunSeconds, row.ScopeOverrunValue) }
        report.Entries = append(report.Entries, row)
    }

    if len(report.Entries) > 0 {
        mean, median := meanMedianSeconds(overrunSeconds)
        report.Stats = &OverrunStats{
            CountTotal:        len(issues),
            CountScopeOK:      len(issues) - len(report.Entries),
            CountScopeOverrun: len(report.Entries),
            MeanOverrun:       mean,
            MedianOverrun:     median,
        }
    }
    return report, nil
}

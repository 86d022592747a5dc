/* Copyright (c) 2025 Mikhail Gelvikh
 * SPDX-License-Identifier: Apache-2.0 */

// Package batch builds portfolio-level reports from a query's worth of
// issues, without replaying full timelines.
package batch

import (
    "encoding/json"
    "errors"
    "fmt"
    "sort"
    "time"

    "github.com/Mixxxxa/youtrack-analysis/internal/domain"
)

// Concurrency for per-issue activity fetches inside one report.
const DefaultWorkers = 10

var ErrBadDates = errors.New("bad report date range")

// ValidateDates checks an ISO date pair and rejects reversed ranges.
func ValidateDates(begin, end string) error {
    b, err := time.Parse("2006-01-02", begin)
    if err != nil { return fmt.Errorf("%w: %s .. %s", ErrBadDates, begin, end) }
    e, err := time.Parse("2006-01-02", end)
    if err != nil { return fmt.Errorf("%w: %s .. %s", ErrBadDates, begin, end) }
    if e.Before(b) { return fmt.Errorf("%w: %s .. %s", ErrBadDates, begin, end) }
    return nil
}

type rawTag struct {
    Name  string `json:"name"`
    Color struct {
        Background string `json:"background"`
        Foreground string `json:"foreground"`
    } `json:"color"`
}

type rawBatchIssue struct {
    IDReadable      string `json:"idReadable"`
    NumberInProject int    `json:"numberInProject"`
    Summary         string `json:"summary"`
    Created         int64  `json:"created"`
    Resolved        *int64 `json:"resolved"`
    Project         struct {
        ShortName string `json:"shortName"`
    } `json:"project"`
    CustomFields []struct {
        Name  string          `json:"name"`
        Value json.RawMessage `json:"value"`
    } `json:"customFields"`
    Tags []rawTag `json:"tags"`
}

type rawBatchValue struct {
    Name     string `json:"name"`
    FullName string `json:"fullName"`
    Minutes  *int   `json:"minutes"`
}

// shortInfo is the slimmed-down per-issue view batch reports work from.
// Unlike the timeline parser it matches custom fields by display name only.
type shortInfo struct {
    Scope            *domain.Duration
    SpentTime        *domain.Duration
    Priority         string
    State            string
    Component        string
    Assignee         string
    ProjectShortName string
}

func (s shortInfo) hasTimings() bool { return s.Scope != nil && s.SpentTime != nil }

func (s shortInfo) isScopeOverrun() bool {
    return s.hasTimings() && s.Scope.Less(*s.SpentTime)
}

// lostScope flags time logged against an issue that has no estimate at all.
func (s shortInfo) lostScope() bool { return s.Scope == nil && s.SpentTime != nil }

func (s shortInfo) overrun() *domain.Duration {
    if !s.hasTimings() { return nil }
    d := s.SpentTime.Sub(*s.Scope)
    return &d
}

func parseShortInfo(entry *rawBatchIssue, defaults map[string]domain.Duration) (shortInfo, error) {
    info := shortInfo{ProjectShortName: entry.Project.ShortName}

    for _, f := range entry.CustomFields {
        var v rawBatchValue
        present := len(f.Value) > 0 && string(f.Value) != "null"
        if present {
            if err := json.Unmarshal(f.Value, &v); err != nil {
                return info, fmt.Errorf("issue %s field %q: %w", entry.IDReadable, f.Name, err)
            }
        }

        switch {
        case info.Assignee == "" && f.Name == "Assignee" && present:
            info.Assignee = v.FullName
        case info.Component == "" && f.Name == "Component" && present:
            info.Component = v.Name
        case info.State == "" && f.Name == "State" && present:
            info.State = v.Name
        case info.Priority == "" && f.Name == "Priority" && present:
            info.Priority = v.Name
        case info.Scope == nil && f.Name == "Scope":
            if present && v.Minutes != nil {
                d := domain.DurationFromMinutes(*v.Minutes)
                info.Scope = &d
            } else if def, ok := defaults[info.ProjectShortName]; ok {
                info.Scope = &def
            }
        case info.SpentTime == nil && f.Name == "Spent time" && present && v.Minutes != nil:
            d := domain.DurationFromMinutes(*v.Minutes)
            info.SpentTime = &d
        }
    }
    return info, nil
}

type TagRow struct {
    Text    string `json:"text"`
    BgColor string `json:"bg_color"`
    FgColor string `json:"fg_color"`
}

// IssueRow is the report line shared by every batch view.
type IssueRow struct {
    ID               string   `json:"id"`
    IDValue          int      `json:"id_value"`
    ProjectShortName string   `json:"project_short_name"`
    Title            string   `json:"title"`
    Component        string   `json:"component,omitempty"`
    CreatedMillis    int64    `json:"created_datetime"`
    ResolvedMillis   *int64   `json:"resolved_datetime"`
    Scope            string   `json:"scope,omitempty"`
    ScopeValue       int64    `json:"scope_value"`
    SpentTime        string   `json:"spent_time,omitempty"`
    SpentTimeValue   int64    `json:"spent_time_value"`
    Priority         string   `json:"priority,omitempty"`
    State            string   `json:"state,omitempty"`
    Assignee         string   `json:"assignee,omitempty"`
    Tags             []TagRow `json:"tags"`
}

func issueRow(info shortInfo, entry *rawBatchIssue) IssueRow {
    row := IssueRow{
        ID:               entry.IDReadable,
        IDValue:          entry.NumberInProject,
        ProjectShortName: info.ProjectShortName,
        Title:            entry.Summary,
        Component:        info.Component,
        CreatedMillis:    entry.Created,
        ResolvedMillis:   entry.Resolved,
        Priority:         info.Priority,
        State:            info.State,
        Assignee:         info.Assignee,
        Tags:             make([]TagRow, 0, len(entry.Tags)),
    }
    if info.Scope != nil {
        row.Scope = info.Scope.FormatYT()
        row.ScopeValue = info.Scope.Seconds()
    }
    if info.SpentTime != nil {
        row.SpentTime = info.SpentTime.FormatYT()
        row.SpentTimeValue = info.SpentTime.Seconds()
    }
    for _, t := range entry.Tags {
        row.Tags = append(row.Tags, TagRow{Text: t.Name, BgColor: t.Color.Background, FgColor: t.Color.Foreground})
    }
    return row
}

// meanMedianSeconds reduces a list of second counts to formatted tracker
// durations, minute precision.
func meanMedianSeconds(values []int64) (string, string) {
    if len(values) == 0 {
        zero := domain.Duration{}
        return zero.FormatYT(), zero.FormatYT()
    }
    sorted := make([]int64, len(values))
    copy(sorted, values)
    sort.Slice(sorted, func(a, b int) bool { return sorted[a] < sorted[b] })

    var sum int64
    for _, v := range sorted { sum += v }
    mean := sum / int64(len(sorted))

    var median int64
    mid := len(sorted) / 2
    if len(sorted)%2 == 1 {
        median = sorted[mid]
    } else {
        median = (sorted[mid-1] + sorted[mid]) / 2
    }
    return domain.DurationFromMinutes(int(mean / 60)).FormatYT(),
        domain.DurationFromMinutes(int(median / 60)).FormatYT()
}

/* Copyright (c) 2025 Mikhail Gelvikh
 * SPDX-License-Identifier: Apache-2.0 */
package services

import (
    "github.com/Mixxxxa/youtrack-analysis/internal/anomaly"
    "github.com/Mixxxxa/youtrack-analysis/internal/domain"
)

// TimelineReport is the wire form of one reconstructed issue history.
type TimelineReport struct {
    ID        string `json:"id"`
    Summary   string `json:"summary"`
    Author    string `json:"author"`
    Assignee  string `json:"assignee"`
    State     string `json:"state"`
    Component string `json:"component"`
    Project   string `json:"project"`

    Created  string  `json:"created"`
    Started  *string `json:"started,omitempty"`
    Resolved *string `json:"resolved,omitempty"`

    Scope          *string `json:"scope,omitempty"`
    ScopeValue     *int64  `json:"scope_value,omitempty"`
    SpentTime      string  `json:"spent_time"`
    SpentTimeValue int64   `json:"spent_time_value"`
    SpentTimeYT    string  `json:"spent_time_yt"`
    ScopeOverrun   string  `json:"scope_overrun"`

    ReactionTime   *string `json:"reaction_time,omitempty"`
    ResolutionTime *string `json:"resolution_time,omitempty"`

    Tags      []string         `json:"tags"`
    WorkItems []TimelineSpan   `json:"work_items"`
    Pauses    []TimelineSpan   `json:"pauses"`
    Assignees []TimelineChange `json:"assignees"`
    Subtasks  []TimelineSubtask `json:"subtasks"`

    Anomalies []TimelineAnomaly `json:"anomalies"`
    Problems  []TimelineProblem `json:"problems"`
}

// TimelineSpan is one rendered work or pause interval.
type TimelineSpan struct {
    Timestamp     string `json:"timestamp"`
    Author        string `json:"author"`
    Duration      string `json:"duration"`
    DurationValue int64  `json:"duration_value"`
    State         string `json:"state"`
}

type TimelineChange struct {
    Timestamp string `json:"timestamp"`
    Value     string `json:"value"`
}

type TimelineSubtask struct {
    ID             string `json:"id"`
    Summary        string `json:"summary"`
    SpentTime      string `json:"spent_time"`
    SpentTimeValue int64  `json:"spent_time_value"`
}

type TimelineAnomaly struct {
    Kind        string `json:"kind"`
    Timestamp   string `json:"timestamp"`
    Responsible string `json:"responsible"`
    Description string `json:"description"`
}

type TimelineProblem struct {
    Kind           string   `json:"kind"`
    Details        string   `json:"details"`
    AffectedFields []string `json:"affected_fields"`
}

func renderTimeline(info *domain.IssueInfo, anomalies []anomaly.Anomaly) *TimelineReport {
    spent := info.SpentTime()
    report := &TimelineReport{
        ID:        info.ID,
        Summary:   info.Summary,
        Author:    info.Author,
        Assignee:  info.CurrentAssignee,
        State:     info.State.String(),
        Component: info.Component,
        Project:   info.Project.ShortName,

        Created: info.CreationTime.String(),

        SpentTime:      spent.FormatYT(),
        SpentTimeValue: spent.Seconds(),
        SpentTimeYT:    info.SpentTimeYT.FormatYT(),
        ScopeOverrun:   info.ScopeOverrun(),

        Tags:      []string{},
        WorkItems: []TimelineSpan{},
        Pauses:    []TimelineSpan{},
        Assignees: []TimelineChange{},
        Subtasks:  []TimelineSubtask{},
        Anomalies: []TimelineAnomaly{},
        Problems:  []TimelineProblem{},
    }

    if info.StartedTime != nil { report.Started = strPtr(info.StartedTime.String()) }
    if info.ResolveTime != nil { report.Resolved = strPtr(info.ResolveTime.String()) }
    if info.Scope != nil {
        report.Scope = strPtr(info.Scope.FormatYT())
        v := info.Scope.Seconds()
        report.ScopeValue = &v
    }
    if rt := info.ReactionTime(); rt != nil { report.ReactionTime = strPtr(rt.FormatNatural()) }
    if rt := info.ResolutionTime(); rt != nil { report.ResolutionTime = strPtr(rt.FormatNatural()) }

    for _, t := range info.Tags { report.Tags = append(report.Tags, t.Name) }
    for _, w := range info.WorkItems { report.WorkItems = append(report.WorkItems, renderSpan(w)) }
    for _, p := range info.Pauses { report.Pauses = append(report.Pauses, renderSpan(p)) }
    for _, a := range info.Assignees {
        report.Assignees = append(report.Assignees, TimelineChange{Timestamp: a.Timestamp.String(), Value: a.Value})
    }
    for _, st := range info.Subtasks {
        report.Subtasks = append(report.Subtasks, TimelineSubtask{
            ID:             st.ID,
            Summary:        st.Summary,
            SpentTime:      st.SpentTimeYT.FormatYT(),
            SpentTimeValue: st.SpentTimeYT.Seconds(),
        })
    }
    for _, a := range anomalies {
        report.Anomalies = append(report.Anomalies, TimelineAnomaly{
            Kind:        a.Kind(),
            Timestamp:   a.When().String(),
            Responsible: a.Who(),
            Description: a.Describe(),
        })
    }
    for _, p := range info.Problems {
        fields := []string{}
        for _, f := range p.AffectedFields() { fields = append(fields, f.String()) }
        report.Problems = append(report.Problems, TimelineProblem{
            Kind:           p.Kind.String(),
            Details:        p.Details,
            AffectedFields: fields,
        })
    }
    return report
}

func renderSpan(w domain.WorkItem) TimelineSpan {
    return TimelineSpan{
        Timestamp:     w.Timestamp.String(),
        Author:        w.Name,
        Duration:      w.Duration.FormatYT(),
        DurationValue: w.Duration.Seconds(),
        State:         w.State.String(),
    }
}

func strPtr(s string) *string { return &s }

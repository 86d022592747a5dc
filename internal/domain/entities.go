/* Copyright (c) 2025 Mikhail Gelvikh
 * SPDX-License-Identifier: Apache-2.0 */
package domain

import (
    "fmt"
    "sort"
)

// UnassignedName is what the tracker shows when nobody holds the issue.
const UnassignedName = "Unassigned"

// CustomField identifies one tracker custom field: its instance-specific id,
// display name and the targetMember string activity records carry for it.
type CustomField struct {
    ID     string `json:"id"`
    Name   string `json:"name"`
    Target string `json:"target,omitempty"`
}

// CustomFields maps the semantic roles the parser understands onto the
// tracker instance's field identifiers. These are configuration data: the
// ids differ per installation.
type CustomFields struct {
    State     CustomField `json:"state"`
    Assignee  CustomField `json:"assignee"`
    Scope     CustomField `json:"scope"`
    SpentTime CustomField `json:"spent_time"`
    Component CustomField `json:"component"`
}

func DefaultCustomFields() CustomFields {
    return CustomFields{
        State:     CustomField{ID: "110-33", Name: "State", Target: "__CUSTOM_FIELD__State_2"},
        Assignee:  CustomField{ID: "111-7", Name: "Assignee", Target: "__CUSTOM_FIELD__Assignee_3"},
        Scope:     CustomField{ID: "116-7", Name: "Scope", Target: "__CUSTOM_FIELD__Estimation_19"},
        SpentTime: CustomField{ID: "116-6", Name: "Spent time"},
        Component: CustomField{ID: "110-32", Name: "Component"},
    }
}

type Project struct {
    ID        string
    ShortName string
    Name      string
}

type Tag struct {
    Name            string
    BackgroundColor string
    ForegroundColor string
}

type Comment struct {
    Timestamp Timestamp
    Author    string
    Text      string
}

// ValueChangeEvent is a timestamped scalar change, e.g. one assignee switch.
type ValueChangeEvent struct {
    Timestamp Timestamp
    Value     string
}

// WorkItem is one attributed span of work: who, from when, for how long and
// in which workflow state. Pauses reuse the same shape with an on-hold state.
type WorkItem struct {
    Timestamp Timestamp
    Name      string
    Duration  Duration
    State     IssueState
}

func (w WorkItem) Begin() Timestamp { return w.Timestamp }

func (w WorkItem) End() Timestamp { return w.Timestamp.Add(w.Duration) }

// BusinessDuration is the business-hours-only portion of [Begin, End).
func (w WorkItem) BusinessDuration() Duration {
    return DurationFromMinutes(CountWorkingMinutes(w.Begin(), w.End()))
}

func (w WorkItem) String() string {
    return fmt.Sprintf("%s - %s - %s", w.Name, w.State, w.Duration.FormatYT())
}

// ShortIssueInfo is the snapshot-derived summary of an issue or subtask.
type ShortIssueInfo struct {
    ID              string
    Summary         string
    Author          string
    CreationTime    Timestamp
    Scope           *Duration
    SpentTimeYT     Duration
    CurrentAssignee string
    State           IssueState
    Component       string
    Project         Project
    Tags            []Tag
    Comments        []Comment
    Subtasks        []ShortIssueInfo
}

// IssueInfo is the fully reconstructed issue timeline produced by one parse
// pass. It is frozen after the pass completes.
type IssueInfo struct {
    ShortIssueInfo

    ResolveTime *Timestamp
    StartedTime *Timestamp
    WorkItems   []WorkItem
    Pauses      []WorkItem
    Assignees   []ValueChangeEvent
    Problems    []Problem
}

func (i *IssueInfo) IsStarted() bool { return i.StartedTime != nil }

func (i *IssueInfo) IsFinished() bool { return i.ResolveTime != nil }

// ResolutionTime is the wall time from creation to resolution, nil while
// the issue is open.
func (i *IssueInfo) ResolutionTime() *Duration {
    if i.ResolveTime == nil { return nil }
    d := i.ResolveTime.Since(i.CreationTime)
    return &d
}

// ReactionTime is the wall time from creation until work first started.
func (i *IssueInfo) ReactionTime() *Duration {
    if i.StartedTime == nil { return nil }
    d := i.StartedTime.Since(i.CreationTime)
    return &d
}

// SpentTime is the recomputed total: own work items plus the tracker-reported
// spent time of subtasks, which the tracker folds into the parent total.
func (i *IssueInfo) SpentTime() Duration {
    total := Duration{}
    for _, w := range i.WorkItems { total = total.Add(w.Duration) }
    for _, s := range i.Subtasks { total = total.Add(s.SpentTimeYT) }
    return total
}

// ScopeOverrunNone marks an issue whose spent time fits its scope.
const ScopeOverrunNone = "none"

// ScopeOverrun renders the amount of budget blown, e.g. "1d 2h (+35%)",
// or ScopeOverrunNone when within scope. Empty when no scope is set.
func (i *IssueInfo) ScopeOverrun() string {
    if i.Scope == nil { return "" }
    overrun := i.SpentTime().Sub(*i.Scope)
    if overrun.Seconds() <= 0 { return ScopeOverrunNone }
    percent := float64(overrun.Seconds()) / float64(i.Scope.Seconds()) * 100
    return fmt.Sprintf("%s (+%.0f%%)", overrun.FormatYT(), percent)
}

// SortWorkItemsByTime orders work items chronologically, preserving the
// insertion order of equal timestamps.
func SortWorkItemsByTime(items []WorkItem) {
    sort.SliceStable(items, func(a, b int) bool {
        return items[a].Timestamp.Before(items[b].Timestamp)
    })
}

// SortSubtasksBySpentTime orders subtasks by descending reported spent time.
func SortSubtasksBySpentTime(subtasks []ShortIssueInfo) {
    sort.SliceStable(subtasks, func(a, b int) bool {
        return subtasks[b].SpentTimeYT.Less(subtasks[a].SpentTimeYT)
    })
}

/* Copyright (c) 2025 Mikhail Gelvikh
 * SPDX-License-Identifier: Apache-2.0 */
package domain

import "errors"

// Canonical workflow state labels. Tracker instances may define arbitrary
// extra states; those are carried verbatim and answer false to every
// predicate below.
const (
    stateBuffer     = "Buffer"
    stateOnHold     = "On hold"
    stateInProgress = "In progress"
    stateReview     = "Review"
    stateResolved   = "Resolved"
    stateSuspend    = "Suspend"
    stateWontfix    = "Wontfix"
    stateDuplicate  = "Duplicate"
)

var ErrEmptyStateLabel = errors.New("tried to parse empty state")

// IssueState wraps a workflow state label. Comparable with ==.
type IssueState struct {
    label string
}

var (
    StateBuffer     = IssueState{stateBuffer}
    StateOnHold     = IssueState{stateOnHold}
    StateInProgress = IssueState{stateInProgress}
    StateReview     = IssueState{stateReview}
    StateResolved   = IssueState{stateResolved}
    StateSuspend    = IssueState{stateSuspend}
    StateWontfix    = IssueState{stateWontfix}
    StateDuplicate  = IssueState{stateDuplicate}
)

func ParseState(label string) (IssueState, error) {
    if label == "" { return IssueState{}, ErrEmptyStateLabel }
    return IssueState{label: label}, nil
}

func (s IssueState) String() string { return s.label }

func (s IssueState) IsBuffer() bool { return s.label == stateBuffer }

func (s IssueState) IsHold() bool { return s.label == stateOnHold }

func (s IssueState) IsInProgress() bool { return s.label == stateInProgress }

func (s IssueState) IsReview() bool { return s.label == stateReview }

// IsInWork reports whether somebody is actively working the issue.
func (s IssueState) IsInWork() bool { return s.IsInProgress() || s.IsReview() }

// IsActive reports whether the issue is anywhere in the live part of the
// workflow, holds and buffers included.
func (s IssueState) IsActive() bool {
    return s.IsBuffer() || s.IsHold() || s.IsInProgress() || s.IsReview()
}

/* Copyright (c) 2025 Mikhail Gelvikh
 * SPDX-License-Identifier: Apache-2.0 */
package anomaly

import (
    "github.com/rs/zerolog/log"

    "github.com/Mixxxxa/youtrack-analysis/internal/domain"
    "github.com/Mixxxxa/youtrack-analysis/internal/parser"
)

// Detector listens to one parse pass and collects anomalies on the fly.
//
// Review tracking cannot wait for the end of the pass: an assignee switch
// does not always come together with a state switch, so the window has to
// be evaluated the moment either of them moves.
type Detector struct {
    threshold domain.Duration
    found     []Anomaly

    // Open review window, if any.
    reviewUser     string
    reviewTracking bool
    reviewPure     domain.Duration
    reviewWithHold domain.Duration
}

func NewDetector(reviewThreshold domain.Duration) *Detector {
    return &Detector{threshold: reviewThreshold}
}

// Attach subscribes the detector to every event the parser emits.
func (d *Detector) Attach(p *parser.Parser) {
    p.RegisterPauseListener(d)
    p.RegisterTagListener(d)
    p.RegisterWorkListener(d)
    p.RegisterAssigneeListener(d)
    p.RegisterScopeListener(d)
    p.RegisterStateListener(d)
    p.RegisterFinishListener(d)
}

func (d *Detector) Anomalies() []Anomaly { return d.found }

func (d *Detector) OnPauseAdded(item domain.WorkItem) error {
    if item.Name == d.reviewUser && d.reviewTracking {
        d.reviewWithHold = d.reviewWithHold.Add(item.BusinessDuration())
    }
    return nil
}

func (d *Detector) OnTagAdded(ctx parser.Context, tag string) error {
    if tag == "Overdue" { d.found = append(d.found, NewOverdue(ctx.Timestamp, ctx.Assignee)) }
    return nil
}

func (d *Detector) OnWorkAdded(ctx parser.Context, item domain.WorkItem) error {
    // Time booked by outside reviewers is not the assignee's review.
    if !item.State.IsReview() || item.Name != ctx.Assignee { return nil }

    if !d.reviewTracking {
        log.Debug().Str("assignee", item.Name).Msg("review window opened")
        d.reviewUser = item.Name
        d.reviewTracking = true
    }
    d.reviewPure = d.reviewPure.Add(item.BusinessDuration())
    d.reviewWithHold = d.reviewWithHold.Add(item.Duration)
    return nil
}

func (d *Detector) OnAssigneeChanged(ctx parser.Context, assignee string) error {
    if d.reviewTracking && d.reviewUser != assignee { d.evaluateReview(ctx.Timestamp) }
    return nil
}

func (d *Detector) OnScopeChanged(ctx parser.Context, before, after domain.Duration, author string) error {
    if before.Less(after) {
        d.found = append(d.found, NewScopeIncreased(ctx.Timestamp, author, before, after))
    }
    return nil
}

func (d *Detector) OnStateChanged(ctx parser.Context, state domain.IssueState) error {
    if d.reviewTracking && !state.IsHold() && !state.IsReview() { d.evaluateReview(ctx.Timestamp) }
    return nil
}

func (d *Detector) OnParsingFinished(issue *domain.IssueInfo) error {
    latest := domain.Now()
    if issue.ResolveTime != nil { latest = *issue.ResolveTime }

    // Set-vs-unset: a scope of zero minutes still counts as a budget.
    if issue.Scope != nil && issue.Scope.Less(issue.SpentTimeYT) {
        d.found = append(d.found, ScopeOverrun{
            base:      base{Timestamp: latest},
            Scope:     *issue.Scope,
            SpentTime: issue.SpentTimeYT,
        })
    }
    if d.reviewTracking { d.evaluateReview(latest) }
    return nil
}

// evaluateReview closes the open review window, recording an anomaly when
// either the pure review time or the hold-inclusive time blew the budget.
func (d *Detector) evaluateReview(ts domain.Timestamp) {
    tooLong := d.threshold.Less(d.reviewPure)
    tooLongWithHold := d.threshold.Less(d.reviewWithHold)
    fragmented := d.reviewPure.Less(d.reviewWithHold)

    if tooLong || tooLongWithHold {
        actual := d.reviewPure
        if fragmented { actual = d.reviewWithHold }
        log.Debug().Str("assignee", d.reviewUser).Stringer("actual", actual.Std()).Msg("too long review")
        d.found = append(d.found, TooLongReview{
            base:       base{Timestamp: ts, Responsible: d.reviewUser},
            Fragmented: fragmented,
            Expected:   d.threshold,
            Actual:     actual,
        })
    }

    d.reviewUser = ""
    d.reviewTracking = false
    d.reviewPure = domain.Duration{}
    d.reviewWithHold = domain.Duration{}
}

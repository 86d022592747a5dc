/* Copyright (c) 2025 Mikhail Gelvikh
 * SPDX-License-Identifier: Apache-2.0 */
package anomaly

import (
    "fmt"

    "github.com/Mixxxxa/youtrack-analysis/internal/domain"
)

// Anomaly is one workflow smell pinned to a moment and a person.
type Anomaly interface {
    Kind() string
    When() domain.Timestamp
    Who() string
    Describe() string
}

type base struct {
    Timestamp   domain.Timestamp
    Responsible string
}

func (b base) When() domain.Timestamp { return b.Timestamp }

func (b base) Who() string { return b.Responsible }

// Overdue marks an issue that received the tracker's Overdue tag.
type Overdue struct {
    base
}

func NewOverdue(ts domain.Timestamp, responsible string) Overdue {
    return Overdue{base{Timestamp: ts, Responsible: responsible}}
}

func (Overdue) Kind() string { return "overdue" }

func (Overdue) Describe() string { return "Issue went overdue" }

// TooLongReview marks a review that crossed the configured budget.
// Fragmented means the review only crosses it once on-hold gaps count.
type TooLongReview struct {
    base
    Fragmented bool
    Expected   domain.Duration
    Actual     domain.Duration
}

func (TooLongReview) Kind() string { return "too_long_review" }

func (a TooLongReview) Describe() string {
    if a.Fragmented {
        return fmt.Sprintf("Fragmented review took %s with a budget of %s", a.Actual.FormatYT(), a.Expected.FormatYT())
    }
    return fmt.Sprintf("Review took %s with a budget of %s", a.Actual.FormatYT(), a.Expected.FormatYT())
}

// ScopeOverrun marks spent time exceeding the estimated scope.
type ScopeOverrun struct {
    base
    Scope     domain.Duration
    SpentTime domain.Duration
}

func (ScopeOverrun) Kind() string { return "scope_overrun" }

func (a ScopeOverrun) Describe() string {
    return fmt.Sprintf("Spent %s against a scope of %s", a.SpentTime.FormatYT(), a.Scope.FormatYT())
}

// ScopeIncreased marks an estimation that grew after planning.
type ScopeIncreased struct {
    base
    Before domain.Duration
    After  domain.Duration
}

func NewScopeIncreased(ts domain.Timestamp, author string, before, after domain.Duration) ScopeIncreased {
    return ScopeIncreased{
        base:   base{Timestamp: ts, Responsible: author},
        Before: before,
        After:  after,
    }
}

func (ScopeIncreased) Kind() string { return "scope_increased" }

func (a ScopeIncreased) Describe() string {
    return fmt.Sprintf("Scope increased from %s to %s by %s", a.Before.FormatYT(), a.After.FormatYT(), a.Responsible)
}

// Reopen marks a resolved issue pulled back into an active state.
type Reopen struct {
    base
}

func NewReopen(ts domain.Timestamp, responsible string) Reopen {
    return Reopen{base{Timestamp: ts, Responsible: responsible}}
}

func (Reopen) Kind() string { return "reopen" }

func (Reopen) Describe() string { return "Resolved issue was reopened" }

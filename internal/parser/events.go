/* Copyright (c) 2025 Mikhail Gelvikh
 * SPDX-License-Identifier: Apache-2.0 */
package parser

import "github.com/Mixxxxa/youtrack-analysis/internal/domain"

// Context carries the replay position at the moment an event fired: where
// the clock stands, who holds the issue and in which state it sits.
type Context struct {
    Timestamp domain.Timestamp
    Assignee  string
    State     domain.IssueState
}

// PauseListener receives on-hold spans as they are closed. Pauses carry no
// context: the span itself already names the holder and the interval.
type PauseListener interface {
    OnPauseAdded(item domain.WorkItem) error
}

type TagListener interface {
    OnTagAdded(ctx Context, tag string) error
}

type WorkListener interface {
    OnWorkAdded(ctx Context, item domain.WorkItem) error
}

// AssigneeListener receives assignee switches. ctx.Assignee already holds
// the new value when the event fires.
type AssigneeListener interface {
    OnAssigneeChanged(ctx Context, assignee string) error
}

type ScopeListener interface {
    OnScopeChanged(ctx Context, before, after domain.Duration, author string) error
}

type StateListener interface {
    OnStateChanged(ctx Context, state domain.IssueState) error
}

type FinishListener interface {
    OnParsingFinished(issue *domain.IssueInfo) error
}

// callbackList keeps listeners in registration order and swallows repeated
// registrations of the same value.
type callbackList[T comparable] struct {
    subs []T
}

func (l *callbackList[T]) add(s T) {
    for _, have := range l.subs {
        if have == s { return }
    }
    l.subs = append(l.subs, s)
}

// each walks listeners in FIFO order and stops on the first error.
func (l *callbackList[T]) each(fn func(T) error) error {
    for _, s := range l.subs {
        if err := fn(s); err != nil { return err }
    }
    return nil
}

func (p *Parser) RegisterPauseListener(l PauseListener)       { p.pauseSubs.add(l) }
func (p *Parser) RegisterTagListener(l TagListener)           { p.tagSubs.add(l) }
func (p *Parser) RegisterWorkListener(l WorkListener)         { p.workSubs.add(l) }
func (p *Parser) RegisterAssigneeListener(l AssigneeListener) { p.assigneeSubs.add(l) }
func (p *Parser) RegisterScopeListener(l ScopeListener)       { p.scopeSubs.add(l) }
func (p *Parser) RegisterStateListener(l StateListener)       { p.stateSubs.add(l) }
func (p *Parser) RegisterFinishListener(l FinishListener)     { p.finishSubs.add(l) }

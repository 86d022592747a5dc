/* Copyright (c) 2025 Mikhail Gelvikh
 * SPDX-License-Identifier: Apache-2.0 */
package parser

import (
    "encoding/json"
    "fmt"

    "github.com/rs/zerolog/log"

    "github.com/Mixxxxa/youtrack-analysis/internal/domain"
)

// Activity record discriminators of the tracker API.
const (
    activityResolved    = "IssueResolvedActivityItem"
    activityTags        = "TagsActivityItem"
    activityWorkItem    = "WorkItemActivityItem"
    activityCustomField = "CustomFieldActivityItem"
)

// Pauses at or below this length are treated as workflow noise and dropped.
const minPauseSeconds = 60

// Parser replays one issue's activity log on top of its current snapshot and
// reconstructs the timeline: work items, pauses, assignee and state history.
// A Parser instance handles exactly one issue: feed it ParseSnapshot, then
// ParseActivities, then take Result.
type Parser struct {
    fields domain.CustomFields

    pauseSubs    callbackList[PauseListener]
    tagSubs      callbackList[TagListener]
    workSubs     callbackList[WorkListener]
    assigneeSubs callbackList[AssigneeListener]
    scopeSubs    callbackList[ScopeListener]
    stateSubs    callbackList[StateListener]
    finishSubs   callbackList[FinishListener]

    // Replay cursor.
    pauseBegin   *domain.Timestamp
    curState     *domain.IssueState
    parsingLinks bool

    id               string
    summary          string
    author           string
    currentAssignee  string
    snapshotState    domain.IssueState
    snapshotStateSet bool
    component        string
    scope            *domain.Duration
    spentTimeYT      domain.Duration
    project          domain.Project
    created          domain.Timestamp
    resolved         *domain.Timestamp
    started          *domain.Timestamp
    tags             []domain.Tag
    comments         []domain.Comment
    workItems        []domain.WorkItem
    pauses           []domain.WorkItem
    assignees        []domain.ValueChangeEvent
    subtasks         []domain.ShortIssueInfo
    problems         domain.ProblemHolder
}

func New(fields domain.CustomFields) *Parser {
    return &Parser{fields: fields}
}

func (p *Parser) context(ts domain.Timestamp) Context {
    return Context{Timestamp: ts, Assignee: p.assignee(), State: *p.curState}
}

func (p *Parser) assignee() string { return p.assignees[len(p.assignees)-1].Value }

// ParseSnapshot ingests the issue's current state as served by the issues
// endpoint. Must be called before ParseActivities.
func (p *Parser) ParseSnapshot(data []byte) error {
    var ri rawIssue
    if err := json.Unmarshal(data, &ri); err != nil { return fmt.Errorf("decode issue: %w", err) }

    info, err := p.parseShortInfo(&ri)
    if err != nil { return err }

    p.id = info.ID
    p.summary = info.Summary
    p.author = info.Author
    p.created = info.CreationTime
    log.Debug().Stringer("ts", p.created).Str("author", p.author).Msg("[Created]")
    p.scope = info.Scope
    p.spentTimeYT = info.SpentTimeYT
    p.currentAssignee = info.CurrentAssignee
    p.snapshotState, p.snapshotStateSet = info.State, info.State.String() != ""
    p.component = info.Component
    p.project = info.Project
    p.tags = info.Tags
    p.comments = info.Comments
    p.subtasks = info.Subtasks
    return nil
}

func (p *Parser) parseShortInfo(ri *rawIssue) (domain.ShortIssueInfo, error) {
    out := domain.ShortIssueInfo{
        ID:              ri.IDReadable,
        Summary:         ri.Summary,
        Author:          ri.Reporter.FullName,
        CreationTime:    domain.TimestampFromMillis(ri.Created),
        CurrentAssignee: domain.UnassignedName,
        Project: domain.Project{
            ID:        ri.Project.ID,
            ShortName: ri.Project.ShortName,
            Name:      ri.Project.Name,
        },
    }

    assigneeSet := false
    for _, f := range ri.CustomFields {
        v, present, err := f.value()
        if err != nil { return out, fmt.Errorf("decode field %q: %w", f.Name, err) }

        switch {
        case out.State.String() == "" && p.matches(f, p.fields.State):
            if !present { continue }
            st, err := domain.ParseState(v.Name)
            if err != nil { return out, err }
            out.State = st
        case !assigneeSet && p.matches(f, p.fields.Assignee):
            if !present { continue }
            out.CurrentAssignee = v.FullName
            assigneeSet = true
        case out.Scope == nil && p.matches(f, p.fields.Scope):
            if !present {
                // Scope is mandatory in the workflow but the API sometimes
                // drops it.
                p.writeProblem(domain.ProblemNullScope, "API has returned NULL Scope")
                continue
            }
            d := domain.DurationFromMinutes(intOrZero(v.Minutes))
            out.Scope = &d
        case out.SpentTimeYT.IsZero() && p.matches(f, p.fields.SpentTime):
            if !present { continue }
            out.SpentTimeYT = domain.DurationFromMinutes(intOrZero(v.Minutes))
        case out.Component == "" && p.matches(f, p.fields.Component):
            if !present { continue }
            out.Component = v.Name
        }
    }

    for _, t := range ri.Tags {
        out.Tags = append(out.Tags, domain.Tag{
            Name:            t.Name,
            BackgroundColor: t.Color.Background,
            ForegroundColor: t.Color.Foreground,
        })
    }
    for _, c := range ri.Comments {
        out.Comments = append(out.Comments, domain.Comment{
            Timestamp: domain.TimestampFromMillis(c.Created),
            Author:    c.Author.FullName,
            Text:      c.Text,
        })
    }

    // Subtasks come nested one level deep. The guard stops the recursion
    // from descending into grandchildren.
    if !p.parsingLinks {
        p.parsingLinks = true
        for _, link := range ri.Links {
            if link.Direction != "OUTWARD" || link.LinkType.SourceToTarget != "parent for" { continue }
            for i := range link.Issues {
                sub, err := p.parseShortInfo(&link.Issues[i])
                if err != nil {
                    p.parsingLinks = false
                    return out, err
                }
                out.Subtasks = append(out.Subtasks, sub)
            }
        }
        p.parsingLinks = false
    }
    return out, nil
}

func (p *Parser) matches(f rawCustomField, want domain.CustomField) bool {
    return f.ID == want.ID && f.Name == want.Name
}

// ParseActivities replays the activity page(s) in chronological order. The
// records are pre-scanned first to recover the assignee and state the issue
// had at creation, which the log itself only reveals retroactively.
func (p *Parser) ParseActivities(data []byte) error {
    var entries []rawActivity
    if err := json.Unmarshal(data, &entries); err != nil { return fmt.Errorf("decode activities: %w", err) }

    if err := p.preScan(entries); err != nil { return err }
    for i := range entries {
        if err := p.parseActivity(&entries[i]); err != nil { return err }
    }
    return nil
}

func (p *Parser) preScan(entries []rawActivity) error {
    for _, e := range entries {
        if e.Type != activityCustomField { continue }

        if len(p.assignees) == 0 && e.TargetMember == p.fields.Assignee.Target {
            removed, err := values(e.Removed)
            if err != nil { return err }
            before := domain.UnassignedName
            if len(removed) > 0 { before = removed[0].Name }
            p.addAssignee(p.created, before)
        } else if p.curState == nil && e.TargetMember == p.fields.State.Target {
            removed, err := values(e.Removed)
            if err != nil { return err }
            if len(removed) == 0 { return fmt.Errorf("issue %s: state change without previous value", p.id) }
            st, err := domain.ParseState(removed[0].Name)
            if err != nil { return err }
            p.recordState(p.created, st)
        }

        if len(p.assignees) > 0 && p.curState != nil { break }
    }

    // No switches recorded means the snapshot values held since creation.
    if len(p.assignees) == 0 { p.addAssignee(p.created, p.currentAssignee) }
    if p.curState == nil {
        if !p.snapshotStateSet { return fmt.Errorf("issue %s: current state unknown", p.id) }
        p.recordState(p.created, p.snapshotState)
    }

    // Issues opened straight into hold count as paused from creation.
    // Recording such pauses only after work starts would lose the many
    // issues that are parked on hold and never move again.
    if p.curState.IsHold() { p.beginPause(p.created) }
    if p.curState.IsInWork() { p.addStarted(p.created) }
    return nil
}

func (p *Parser) parseActivity(e *rawActivity) error {
    ts := domain.TimestampFromMillis(e.Timestamp)

    switch e.Type {
    case activityResolved:
        p.addResolved(ts, e.Author.Name)

    case activityTags:
        added, err := values(e.Added)
        if err != nil { return err }
        if len(added) == 0 { return nil }
        return p.tagSubs.each(func(l TagListener) error {
            return l.OnTagAdded(p.context(ts), added[0].Name)
        })

    case activityWorkItem:
        entries, err := workEntries(e.Added)
        if err != nil { return err }
        if len(entries) == 0 { return fmt.Errorf("issue %s: work record without added item", p.id) }
        duration := domain.DurationFromMinutes(entries[0].Duration.Minutes)
        fixed := ts
        // Entries logged right at day start belong to the previous day's work.
        if ts.IsDayStart() { fixed = fixed.EndOfPreviousBusinessDay() }
        fixed = fixed.Sub(duration)
        return p.addWorkItem(fixed, e.Author.Name, duration, *p.curState)

    case activityCustomField:
        return p.parseFieldActivity(e, ts)
    }
    return nil
}

func (p *Parser) parseFieldActivity(e *rawActivity, ts domain.Timestamp) error {
    switch e.TargetMember {
    case p.fields.Assignee.Target:
        removed, err := values(e.Removed)
        if err != nil { return err }
        added, err := values(e.Added)
        if err != nil { return err }
        before, after := domain.UnassignedName, domain.UnassignedName
        if len(removed) > 0 { before = removed[0].Name }
        if len(added) > 0 { after = added[0].Name }
        return p.switchAssignee(ts, before, after)

    case p.fields.State.Target:
        removed, err := values(e.Removed)
        if err != nil { return err }
        added, err := values(e.Added)
        if err != nil { return err }
        if len(removed) == 0 || len(added) == 0 { return fmt.Errorf("issue %s: state change missing a side", p.id) }
        before, err := domain.ParseState(removed[0].Name)
        if err != nil { return err }
        after, err := domain.ParseState(added[0].Name)
        if err != nil { return err }
        return p.switchState(ts, before, after)

    case p.fields.Scope.Target:
        removed, err := minutesOrNull(e.Removed)
        if err != nil { return err }
        added, err := minutesOrNull(e.Added)
        if err != nil { return err }
        after := domain.DurationFromMinutes(intOrZero(added))
        if removed == nil {
            p.writeProblem(domain.ProblemNullBeginScope,
                fmt.Sprintf("Detected Scope change, but the value before is unknown (Empty->%s)", after.FormatYT()))
            return nil
        }
        before := domain.DurationFromMinutes(*removed)
        return p.scopeSubs.each(func(l ScopeListener) error {
            return l.OnScopeChanged(p.context(ts), before, after, e.Author.Name)
        })
    }
    return nil
}

// Result finalizes the replay and hands back the frozen timeline. Call it
// once, after all activity pages went through ParseActivities.
func (p *Parser) Result() (*domain.IssueInfo, error) {
    if err := p.finalize(); err != nil { return nil, err }

    ret := &domain.IssueInfo{
        ShortIssueInfo: domain.ShortIssueInfo{
            ID:              p.id,
            Summary:         p.summary,
            Author:          p.author,
            CreationTime:    p.created,
            Scope:           p.scope,
            SpentTimeYT:     p.spentTimeYT,
            CurrentAssignee: p.currentAssignee,
            State:           p.snapshotState,
            Component:       p.component,
            Project:         p.project,
            Tags:            p.tags,
            Comments:        p.comments,
            Subtasks:        p.subtasks,
        },
        ResolveTime: p.resolved,
        StartedTime: p.started,
        WorkItems:   p.workItems,
        Pauses:      p.pauses,
        Assignees:   p.assignees,
        Problems:    p.problems.Get(),
    }
    err := p.finishSubs.each(func(l FinishListener) error { return l.OnParsingFinished(ret) })
    if err != nil { return nil, err }
    return ret, nil
}

func (p *Parser) finalize() error {
    if p.inPause() {
        if err := p.endPause(domain.Now()); err != nil { return err }
    }

    total := domain.Duration{}
    for _, w := range p.workItems { total = total.Add(w.Duration) }
    for _, s := range p.subtasks { total = total.Add(s.SpentTimeYT) }

    // A mismatch usually means a subtask was linked late and its time was
    // booked on the parent before the link existed.
    if total != p.spentTimeYT {
        p.writeProblem(domain.ProblemSpentTimeInconsistency,
            "The value in YouTrack field 'Spent Time' is not equal to calculated Spent Time")
    }

    domain.SortSubtasksBySpentTime(p.subtasks)

    // A 1-minute entry in buffer or hold is the common trick for pinning a
    // card on the board. Reattribute it to the state of the next real entry.
    if len(p.workItems) > 1 {
        first := &p.workItems[0]
        if (first.State.IsBuffer() || first.State.IsHold()) && first.Duration == domain.DurationFromMinutes(1) {
            first.State = p.workItems[1].State
            log.Debug().Str("issue", p.id).Msg("fixed 1m buffer entry")
        }
    }

    // Must stay last: the fixes above index into pre-sort positions.
    domain.SortWorkItemsByTime(p.workItems)
    return nil
}

func (p *Parser) writeProblem(kind domain.ProblemKind, details string) {
    // Subtasks legitimately miss fields the parent must have.
    if p.parsingLinks && kind == domain.ProblemNullScope { return }
    log.Warn().Str("issue", p.id).Stringer("kind", kind).Str("details", details).Msg("tracker data problem")
    p.problems.Add(kind, details)
}

func (p *Parser) recordState(ts domain.Timestamp, state domain.IssueState) {
    if p.curState == nil {
        log.Debug().Stringer("ts", ts).Stringer("state", state).Msg("[State]")
    } else {
        log.Debug().Stringer("ts", ts).Stringer("from", *p.curState).Stringer("to", state).Msg("[State]")
    }
    p.curState = &state
}

func (p *Parser) switchState(ts domain.Timestamp, before, after domain.IssueState) error {
    if before == after { return fmt.Errorf("%w: '%s' -> '%s'", ErrSameStateSwitch, before, after) }

    if before != *p.curState {
        // The tracker occasionally writes the same switch twice. Detectable
        // when the last two work items already carry the pair.
        duplicate := false
        if len(p.workItems) > 2 {
            duplicate = p.workItems[len(p.workItems)-2].State == before &&
                p.workItems[len(p.workItems)-1].State == after
        }
        if !duplicate {
            return fmt.Errorf("%w: '%s' != '%s'", ErrStateMismatch, before, *p.curState)
        }
        p.writeProblem(domain.ProblemDuplicateStateSwitch,
            fmt.Sprintf("%s Duplicate state switch for '%s': '%s'->'%s'", ts, p.assignee(), before, *p.curState))
        return nil
    }

    if before.IsHold() {
        if err := p.endPause(ts.PrevSecond()); err != nil { return err }
    }
    if after.IsHold() { p.beginPause(ts) }

    if p.started == nil && after.IsInWork() { p.addStarted(ts) }

    // Resolution is void if the issue came back to life.
    if p.resolved != nil && after.IsActive() { p.resolved = nil }

    p.recordState(ts, after)
    return p.stateSubs.each(func(l StateListener) error {
        return l.OnStateChanged(p.context(ts), after)
    })
}

func (p *Parser) switchAssignee(ts domain.Timestamp, before, after string) error {
    if before == "" && after == "" { return fmt.Errorf("issue %s: %w", p.id, ErrNoAssignee) }
    if before == after { return fmt.Errorf("issue %s: %w", p.id, ErrSelfAssign) }

    // An ongoing pause is split so each holder is billed their own share.
    if p.inPause() {
        if err := p.endPause(ts.PrevSecond()); err != nil { return err }
        p.beginPause(ts)
    }

    if current := p.assignee(); before != current {
        return fmt.Errorf("%w: '%s' != '%s'", ErrAssigneeMismatch, before, current)
    }
    p.addAssignee(ts, after)
    return p.assigneeSubs.each(func(l AssigneeListener) error {
        return l.OnAssigneeChanged(p.context(ts), after)
    })
}

func (p *Parser) addAssignee(ts domain.Timestamp, name string) {
    if len(p.assignees) == 0 {
        log.Debug().Stringer("ts", ts).Str("assignee", name).Msg("[Assignee]")
    } else {
        log.Debug().Stringer("ts", ts).Str("from", p.assignee()).Str("to", name).Msg("[Assignee]")
    }
    p.assignees = append(p.assignees, domain.ValueChangeEvent{Timestamp: ts, Value: name})
}

func (p *Parser) addStarted(ts domain.Timestamp) {
    p.started = &ts
    log.Debug().Stringer("ts", ts).Str("assignee", p.assignee()).Msg("[Started]")
}

func (p *Parser) addResolved(ts domain.Timestamp, name string) {
    p.resolved = &ts
    log.Debug().Stringer("ts", ts).Str("author", name).Msg("[Resolved]")
}

func (p *Parser) addWorkItem(ts domain.Timestamp, name string, duration domain.Duration, state domain.IssueState) error {
    item := domain.WorkItem{Timestamp: ts, Name: name, Duration: duration, State: state}
    p.workItems = append(p.workItems, item)
    log.Debug().Stringer("ts", ts).Stringer("item", item).Msg("[Time]")
    return p.workSubs.each(func(l WorkListener) error {
        return l.OnWorkAdded(p.context(ts), item)
    })
}

func (p *Parser) inPause() bool { return p.pauseBegin != nil }

func (p *Parser) beginPause(ts domain.Timestamp) { p.pauseBegin = &ts }

// endPause closes the open on-hold span. Spans of a minute or less are
// dropped as noise.
func (p *Parser) endPause(ts domain.Timestamp) error {
    begin := *p.pauseBegin
    p.pauseBegin = nil

    delta := ts.Since(begin)
    if delta.Abs().Seconds() <= minPauseSeconds { return nil }

    item := domain.WorkItem{
        Timestamp: begin,
        Name:      p.assignee(),
        Duration:  delta,
        State:     domain.StateOnHold,
    }
    p.pauses = append(p.pauses, item)
    log.Debug().Stringer("ts", begin).Stringer("item", item).Msg("[Pause]")
    return p.pauseSubs.each(func(l PauseListener) error { return l.OnPauseAdded(item) })
}

func intOrZero(v *int) int {
    if v == nil { return 0 }
    return *v
}

/* Copyright (c) 2025 Mikhail Gelvikh
 * SPDX-License-Identifier: Apache-2.0 */
package domain

// ProblemKind classifies a non-fatal data-quality finding in the tracker's
// own data. Problems never abort a parse; they tell the consumer which
// derived values not to trust.
type ProblemKind int

const (
    // ProblemDuplicateStateSwitch is a repeated state transition already seen
    // in the work-item log, a known tracker false positive.
    ProblemDuplicateStateSwitch ProblemKind = iota
    // ProblemNullScope means the API returned null for a configured scope field.
    ProblemNullScope
    // ProblemSpentTimeInconsistency means the recomputed spent time does not
    // match the tracker-reported total.
    ProblemSpentTimeInconsistency
    // ProblemNullBeginScope is a scope change whose previous value is unknown.
    ProblemNullBeginScope
)

func (k ProblemKind) String() string {
    switch k {
    case ProblemDuplicateStateSwitch: return "duplicate_state_switch"
    case ProblemNullScope: return "null_scope"
    case ProblemSpentTimeInconsistency: return "spent_time_inconsistency"
    case ProblemNullBeginScope: return "null_begin_scope"
    }
    return "unknown"
}

// AffectedField names a derived value a problem may have corrupted.
type AffectedField int

const (
    AffectsSpentTime AffectedField = iota
    AffectsScopeOverrun
    AffectsState
)

func (f AffectedField) String() string {
    switch f {
    case AffectsSpentTime: return "spent_time"
    case AffectsScopeOverrun: return "scope_overrun"
    case AffectsState: return "state"
    }
    return "unknown"
}

type Problem struct {
    Kind    ProblemKind
    Details string
}

func (p Problem) AffectedFields() []AffectedField {
    switch p.Kind {
    case ProblemDuplicateStateSwitch:
        return []AffectedField{AffectsSpentTime, AffectsState}
    case ProblemNullScope:
        return []AffectedField{AffectsSpentTime, AffectsScopeOverrun}
    case ProblemSpentTimeInconsistency:
        return []AffectedField{AffectsSpentTime}
    case ProblemNullBeginScope:
        return nil
    }
    return nil
}

// ProblemHolder accumulates findings during one parse pass.
type ProblemHolder struct {
    problems []Problem
}

func (h *ProblemHolder) Add(kind ProblemKind, details string) {
    h.problems = append(h.problems, Problem{Kind: kind, Details: details})
}

func (h *ProblemHolder) Get() []Problem { return h.problems }

// Has reports whether any recorded problem affects the given field.
func (h *ProblemHolder) Has(field AffectedField) bool {
    for _, p := range h.problems {
        for _, f := range p.AffectedFields() {
            if f == field { return true }
        }
    }
    return false
}

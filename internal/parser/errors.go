/* Copyright (c) 2025 Mikhail Gelvikh
 * SPDX-License-Identifier: Apache-2.0 */
package parser

import "errors"

// Fatal inconsistencies between the activity log and the replayed state.
// Each aborts the parse: the log cannot be trusted past that point.
var (
    ErrNoAssignee       = errors.New("no assignee passed")
    ErrSelfAssign       = errors.New("self assign detected")
    ErrAssigneeMismatch = errors.New("previous assignee mismatch")
    ErrStateMismatch    = errors.New("previous state mismatch")
    ErrSameStateSwitch  = errors.New("state switched to itself")
)

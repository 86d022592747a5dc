/* Copyright (c) 2025 Mikhail Gelvikh
 * SPDX-License-Identifier: Apache-2.0 */
package youtrack

import (
    "errors"
    "fmt"
)

// ErrCountUnavailable means the tracker never finished counting issues for
// a query within the retry budget.
var ErrCountUnavailable = errors.New("unable to count issues for query")

// InvalidIssueIDError reports input that is neither an issue id nor a
// recognizable issue URL.
type InvalidIssueIDError struct {
    Input string
}

func (e *InvalidIssueIDError) Error() string {
    return fmt.Sprintf("invalid issue id or url: '%s'", e.Input)
}

// TooManyIssuesError reports a query that matches more issues than a batch
// is allowed to pull.
type TooManyIssuesError struct {
    Count int
}

func (e *TooManyIssuesError) Error() string {
    return fmt.Sprintf("query matches %d issues, batch limit is %d", e.Count, MaxIssueCount)
}

/* Copyright (c) 2025 Mikhail Gelvikh
 * SPDX-License-Identifier: Apache-2.0 */
package youtrack

import "strings"

// SearchQueryBuilder assembles a tracker search string from filter parts.
// The zero value builds just the default sort clause.
type SearchQueryBuilder struct {
    Project          string
    Components       []string
    ResolveDateBegin string
    ResolveDateEnd   string
    OnlyStarted      bool
    OnlyResolved     bool
    SortBy           string
}

func (b SearchQueryBuilder) Build() string {
    var parts []string

    if b.Project != "" { parts = append(parts, "project: "+b.Project) }
    if len(b.Components) > 0 {
        escaped := make([]string, 0, len(b.Components))
        for _, c := range b.Components { escaped = append(escaped, escapeComponentName(c)) }
        parts = append(parts, "Component:", strings.Join(escaped, ","))
    }
    if b.ResolveDateBegin != "" && b.ResolveDateEnd != "" {
        parts = append(parts, "resolved date: "+b.ResolveDateBegin+" .. "+b.ResolveDateEnd)
    }
    if b.OnlyResolved { parts = append(parts, "#Resolved") }
    // A single logged minute separates started issues from planned ones.
    if b.OnlyStarted { parts = append(parts, "Spent time: 1m .. *") }

    sortBy := b.SortBy
    if sortBy == "" { sortBy = "updated" }
    parts = append(parts, "sort by: "+sortBy)
    return strings.Join(parts, " ")
}

// Component names with spaces need braces in the query language.
func escapeComponentName(name string) string {
    if strings.Contains(name, " ") { return "{" + name + "}" }
    return name
}

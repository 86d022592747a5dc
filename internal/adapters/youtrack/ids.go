/* Copyright (c) 2025 Mikhail Gelvikh
 * SPDX-License-Identifier: Apache-2.0 */
package youtrack

import (
    "net/url"
    "regexp"
    "strings"
)

// Issue ids are lowercase project prefix, dash, number. Uppercase input is
// rejected on purpose: the tracker's canonical links are lowercase.
var issueIDPattern = regexp.MustCompile(`^[a-z]+-[0-9]+$`)

func IsValidIssueID(id string) bool { return issueIDPattern.MatchString(id) }

// ExtractIssueIDFromURL pulls an issue id out of a tracker link on the given
// host. Supported shapes are the short /issue/<id> link, the full
// /youtrack/issue/<id>/... link and agile board links carrying ?issue=<id>.
// Returns "" when the input is not a matching https link.
func ExtractIssueIDFromURL(raw, host string) string {
    parts, err := url.Parse(raw)
    if err != nil { return "" }
    if parts.Scheme != "https" { return "" }
    if parts.Hostname() != host { return "" }
    if parts.Path == "" { return "" }

    if strings.HasPrefix(parts.Path, "/youtrack/agiles/") && parts.RawQuery != "" {
        if id := parts.Query().Get("issue"); IsValidIssueID(id) { return id }
    }
    if strings.HasPrefix(parts.Path, "/youtrack/issue/") {
        if segs := pathSegments(parts.Path); len(segs) > 2 && IsValidIssueID(segs[2]) { return segs[2] }
    }
    if strings.HasPrefix(parts.Path, "/issue/") {
        if segs := pathSegments(parts.Path); len(segs) > 1 && IsValidIssueID(segs[1]) { return segs[1] }
    }
    return ""
}

func pathSegments(path string) []string {
    var out []string
    for _, s := range strings.Split(path, "/") {
        if strings.TrimSpace(s) != "" { out = append(out, s) }
    }
    return out
}

// ExtractIssueID accepts either a bare issue id or an issue URL on this
// client's host and normalizes both to the id.
func (c *Client) ExtractIssueID(text string) (string, error) {
    if IsValidIssueID(text) { return text, nil }
    if id := ExtractIssueIDFromURL(text, c.host); id != "" { return id, nil }
    return "", &InvalidIssueIDError{Input: text}
}

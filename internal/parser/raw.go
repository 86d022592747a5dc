/* Copyright (c) 2025 Mikhail Gelvikh
 * SPDX-License-Identifier: Apache-2.0 */
package parser

import "encoding/json"

// Wire shapes of the tracker REST API. Polymorphic members stay raw and are
// decoded once the record's $type or targetMember is known.
// https://www.jetbrains.com/help/youtrack/devportal/api-entity-Issue.html

type rawUser struct {
    Name     string `json:"name"`
    FullName string `json:"fullName"`
}

type rawProject struct {
    ID        string `json:"id"`
    ShortName string `json:"shortName"`
    Name      string `json:"name"`
}

type rawFieldValue struct {
    Name     string `json:"name"`
    FullName string `json:"fullName"`
    Minutes  *int   `json:"minutes"`
}

type rawCustomField struct {
    ID    string          `json:"id"`
    Name  string          `json:"name"`
    Value json.RawMessage `json:"value"`
}

// value decodes the field payload, reporting ok=false for JSON null.
func (f rawCustomField) value() (rawFieldValue, bool, error) {
    if isNullJSON(f.Value) { return rawFieldValue{}, false, nil }
    var v rawFieldValue
    if err := json.Unmarshal(f.Value, &v); err != nil { return rawFieldValue{}, false, err }
    return v, true, nil
}

type rawTag struct {
    Name  string `json:"name"`
    Color struct {
        Background string `json:"background"`
        Foreground string `json:"foreground"`
    } `json:"color"`
}

type rawComment struct {
    Created int64   `json:"created"`
    Author  rawUser `json:"author"`
    Text    string  `json:"text"`
}

type rawLink struct {
    Direction string `json:"direction"`
    LinkType  struct {
        SourceToTarget string `json:"sourceToTarget"`
    } `json:"linkType"`
    Issues []rawIssue `json:"issues"`
}

type rawIssue struct {
    IDReadable   string           `json:"idReadable"`
    Summary      string           `json:"summary"`
    Created      int64            `json:"created"`
    Reporter     rawUser          `json:"reporter"`
    Project      rawProject       `json:"project"`
    CustomFields []rawCustomField `json:"customFields"`
    Tags         []rawTag         `json:"tags"`
    Comments     []rawComment     `json:"comments"`
    Links        []rawLink        `json:"links"`
}

type rawActivity struct {
    Type         string          `json:"$type"`
    Timestamp    int64           `json:"timestamp"`
    Author       rawUser         `json:"author"`
    TargetMember string          `json:"targetMember"`
    Added        json.RawMessage `json:"added"`
    Removed      json.RawMessage `json:"removed"`
}

type rawWorkEntry struct {
    Duration struct {
        Minutes int `json:"minutes"`
    } `json:"duration"`
}

// values decodes an added/removed member as a list of named values.
func values(raw json.RawMessage) ([]rawFieldValue, error) {
    if isNullJSON(raw) { return nil, nil }
    var out []rawFieldValue
    if err := json.Unmarshal(raw, &out); err != nil { return nil, err }
    return out, nil
}

func workEntries(raw json.RawMessage) ([]rawWorkEntry, error) {
    var out []rawWorkEntry
    if err := json.Unmarshal(raw, &out); err != nil { return nil, err }
    return out, nil
}

// minutesOrNull decodes an estimation member, which the API serializes as a
// bare integer of minutes or null.
func minutesOrNull(raw json.RawMessage) (*int, error) {
    if isNullJSON(raw) { return nil, nil }
    var v int
    if err := json.Unmarshal(raw, &v); err != nil { return nil, err }
    return &v, nil
}

func isNullJSON(raw json.RawMessage) bool {
    return len(raw) == 0 || string(raw) == "null"
}

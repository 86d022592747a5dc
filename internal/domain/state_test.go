package domain

import (
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestParseState(t *testing.T) {
    known := map[string]IssueState{
        "Buffer":      StateBuffer,
        "On hold":     StateOnHold,
        "In progress": StateInProgress,
        "Review":      StateReview,
        "Resolved":    StateResolved,
        "Suspend":     StateSuspend,
        "Wontfix":     StateWontfix,
        "Duplicate":   StateDuplicate,
    }
    for label, want := range known {
        t.Run(label, func(t *testing.T) {
            got, err := ParseState(label)
            require.NoError(t, err)
            assert.Equal(t, want, got)
            assert.Equal(t, label, got.String())
        })
    }
}

func TestParseState_Empty(t *testing.T) {
    _, err := ParseState("")
    assert.ErrorIs(t, err, ErrEmptyStateLabel)
}

func TestIssueState_Predicates(t *testing.T) {
    cases := []struct {
        state                                            IssueState
        buffer, hold, inProgress, review, inWork, active bool
    }{
        {StateBuffer, true, false, false, false, false, true},
        {StateOnHold, false, true, false, false, false, true},
        {StateInProgress, false, false, true, false, true, true},
        {StateReview, false, false, false, true, true, true},
        {StateResolved, false, false, false, false, false, false},
        {StateSuspend, false, false, false, false, false, false},
        {StateWontfix, false, false, false, false, false, false},
        {StateDuplicate, false, false, false, false, false, false},
    }
    for _, tc := range cases {
        t.Run(tc.state.String(), func(t *testing.T) {
            assert.Equal(t, tc.buffer, tc.state.IsBuffer())
            assert.Equal(t, tc.hold, tc.state.IsHold())
            assert.Equal(t, tc.inProgress, tc.state.IsInProgress())
            assert.Equal(t, tc.review, tc.state.IsReview())
            assert.Equal(t, tc.inWork, tc.state.IsInWork())
            assert.Equal(t, tc.active, tc.state.IsActive())
        })
    }
}

func TestIssueState_CustomLabels(t *testing.T) {
    for _, label := range []string{"Todo", "Issue Created"} {
        s, err := ParseState(label)
        require.NoError(t, err)
        assert.False(t, s.IsBuffer())
        assert.False(t, s.IsHold())
        assert.False(t, s.IsInProgress())
        assert.False(t, s.IsReview())
        assert.False(t, s.IsInWork())
        assert.False(t, s.IsActive())
        assert.Equal(t, label, s.String())
    }
}

func TestIssueState_Compare(t *testing.T) {
    assert.True(t, StateBuffer == StateBuffer)
    assert.True(t, StateBuffer != StateOnHold)
}

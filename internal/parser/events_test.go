package parser

import (
    "errors"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/Mixxxxa/youtrack-analysis/internal/domain"
)

type namedTagListener struct {
    name string
    out  *[]string
    err  error
}

func (l *namedTagListener) OnTagAdded(_ Context, tag string) error {
    *l.out = append(*l.out, l.name+":"+tag)
    return l.err
}

func TestCallbackList_FIFO(t *testing.T) {
    var got []string
    p := New(domain.DefaultCustomFields())
    p.RegisterTagListener(&namedTagListener{name: "a", out: &got})
    p.RegisterTagListener(&namedTagListener{name: "b", out: &got})
    p.RegisterTagListener(&namedTagListener{name: "c", out: &got})

    err := p.tagSubs.each(func(l TagListener) error { return l.OnTagAdded(Context{}, "Overdue") })
    require.NoError(t, err)
    assert.Equal(t, []string{"a:Overdue", "b:Overdue", "c:Overdue"}, got)
}

func TestCallbackList_AtMostOnce(t *testing.T) {
    var got []string
    l := &namedTagListener{name: "a", out: &got}
    p := New(domain.DefaultCustomFields())
    p.RegisterTagListener(l)
    p.RegisterTagListener(l)

    err := p.tagSubs.each(func(s TagListener) error { return s.OnTagAdded(Context{}, "x") })
    require.NoError(t, err)
    assert.Equal(t, []string{"a:x"}, got)
}

func TestCallbackList_StopsOnError(t *testing.T) {
    var got []string
    boom := errors.New("boom")
    p := New(domain.DefaultCustomFields())
    p.RegisterTagListener(&namedTagListener{name: "a", out: &got})
    p.RegisterTagListener(&namedTagListener{name: "b", out: &got, err: boom})
    p.RegisterTagListener(&namedTagListener{name: "c", out: &got})

    err := p.tagSubs.each(func(s TagListener) error { return s.OnTagAdded(Context{}, "x") })
    assert.ErrorIs(t, err, boom)
    assert.Equal(t, []string{"a:x", "b:x"}, got)
}

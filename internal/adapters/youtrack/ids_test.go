package youtrack

import (
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestIsValidIssueID(t *testing.T) {
    valid := []string{"cpp-1010", "id-1", "backend-99999"}
    for _, id := range valid {
        assert.True(t, IsValidIssueID(id), id)
    }
    invalid := []string{"", "CPP-1010", "Id-12", "cpp1010", "cpp-", "-1010", "cpp-10a", "cpp 1010"}
    for _, id := range invalid {
        assert.False(t, IsValidIssueID(id), id)
    }
}

func TestExtractIssueID(t *testing.T) {
    c := &Client{host: "my-yt.myjetbrains.com"}
    cases := []struct {
        in   string
        want string
    }{
        {"https://my-yt.myjetbrains.com/issue/id-12680", "id-12680"},
        {"https://my-yt.myjetbrains.com/youtrack/issue/id-12680", "id-12680"},
        {"https://my-yt.myjetbrains.com/youtrack/issue/id-12680/Great-big-issue", "id-12680"},
        {"https://my-yt.myjetbrains.com/youtrack/agiles/120-80/current?issue=id-12680", "id-12680"},
        {"https://my-yt.myjetbrains.com/youtrack/agiles/120-80/current?issue=id-12680&wft=true", "id-12680"},
        {"cpp-1010", "cpp-1010"},
    }
    for _, tc := range cases {
        id, err := c.ExtractIssueID(tc.in)
        require.NoError(t, err, tc.in)
        assert.Equal(t, tc.want, id, tc.in)
    }

    rejected := []string{
        "https://my-yt2.myjetbrains.com/youtrack/issue/id-12680", // another host
        "http://my-yt.myjetbrains.com/youtrack/issue/id-12680",   // https only
        "https://my-yt.myjetbrains.com/youtrack/agiles/120-80/current",
        "CPP-1010",
        "not a url",
    }
    for _, in := range rejected {
        _, err := c.ExtractIssueID(in)
        var badID *InvalidIssueIDError
        require.ErrorAs(t, err, &badID, in)
        assert.Equal(t, in, badID.Input)
    }
}

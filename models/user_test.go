package models

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRankPrefix(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"instructor":           "INST",
		"assistant":            "ASST",
		"associate":            "ASOC",
		"professor":            "PROF",
		"university_professor": "UPRO",
		"  Professor ":         "PROF",
		"dean":                 "USER",
		"":                     "USER",
	}
	for rank, want := range cases {
		assert.Equal(t, want, RankPrefix(rank), "rank %q", rank)
	}
}

func TestGenerateUserID_Format(t *testing.T) {
	t.Parallel()

	id := GenerateUserID("professor", func(string) bool { return false })
	assert.Regexp(t, regexp.MustCompile(`^PROF-[0-9]{6}$`), id)
}

func TestGenerateUserID_RetriesOnCollision(t *testing.T) {
	t.Parallel()

	seen := map[string]bool{}
	for i := 0; i < 500; i++ {
		id := GenerateUserID("assistant", func(c string) bool { return seen[c] })
		assert.False(t, seen[id], "generator returned an id reported taken")
		seen[id] = true
	}
	assert.Len(t, seen, 500)
}

func TestCountRecentAttempts(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	window := 15 * time.Minute
	attempts := []time.Time{
		now.Add(-1 * time.Minute),
		now.Add(-14 * time.Minute),
		now.Add(-16 * time.Minute), // aged out
		now.Add(-2 * time.Hour),    // aged out
	}
	assert.Equal(t, 2, CountRecentAttempts(attempts, now, window))
	assert.Equal(t, 0, CountRecentAttempts(nil, now, window))
}

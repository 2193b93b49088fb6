package repository

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReviewCode(t *testing.T) {
	for _, n := range []int{1, 8, 32} {
		code, err := NewReviewCode(n)
		require.NoError(t, err)
		assert.Len(t, code, n)
		for _, r := range code {
			assert.Contains(t, reviewCodeAlphabet, string(r))
		}
	}
}

func TestNewReviewCodeVaries(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		code, err := NewReviewCode(8)
		require.NoError(t, err)
		seen[code] = true
	}
	// 50 draws from a 62^8 space colliding would mean a broken source.
	assert.Greater(t, len(seen), 45)
}

func TestIsDuplicate(t *testing.T) {
	dup := errors.New("Error 1062 (23000): Duplicate entry 'user-1' for key 'events.uq_events_host'")
	assert.True(t, isDuplicate(dup, "uq_events_host"))
	assert.False(t, isDuplicate(dup, "uq_review_author"))
	assert.False(t, isDuplicate(errors.New("Error 1213: Deadlock found"), "uq_events_host"))
	assert.False(t, isDuplicate(nil, "uq_events_host"))
}

func TestSentinelMessages(t *testing.T) {
	// Handler layer relies on these exact strings staying stable.
	assert.True(t, strings.Contains(ErrNotStarted.Error(), "hasn't begun"))
	assert.True(t, strings.Contains(ErrAlreadyHosting.Error(), "already hosting"))
}

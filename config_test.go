package approvalflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyCreateOptions_Defaults(t *testing.T) {
	opts := ApplyCreateOptions()

	assert.Empty(t, opts.Title)
	assert.Nil(t, opts.DueDate)
	assert.Empty(t, opts.Priority)
	assert.False(t, opts.AllowDelegation)
	assert.False(t, opts.AllowReassignment)
	assert.False(t, opts.RequireComments)
}

func TestApplyCreateOptions_Multiple(t *testing.T) {
	due := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	opts := ApplyCreateOptions(
		WithTitle("Annual review"),
		WithDueDate(due),
		WithPriority(PriorityUrgent),
		WithAllowDelegation(true),
		WithAllowReassignment(true),
		WithRequireComments(true),
		WithCreatedBy("owner"),
	)

	assert.Equal(t, "Annual review", opts.Title)
	require.NotNil(t, opts.DueDate)
	assert.Equal(t, due, *opts.DueDate)
	assert.Equal(t, PriorityUrgent, opts.Priority)
	assert.True(t, opts.AllowDelegation)
	assert.True(t, opts.AllowReassignment)
	assert.True(t, opts.RequireComments)
	assert.Equal(t, "owner", opts.CreatedBy)
}

func TestApplyCreateOptions_LastWins(t *testing.T) {
	opts := ApplyCreateOptions(WithPriority(PriorityLow), WithPriority(PriorityHigh))
	assert.Equal(t, PriorityHigh, opts.Priority)
}

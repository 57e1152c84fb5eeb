package approvalflow

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Message(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"plain", NewNotFoundError("workflow wf-1 not found"), "[NOT_FOUND] workflow wf-1 not found"},
		{"with workflow", NewInvalidStateError("workflow is DRAFT").WithWorkflow("wf-1"),
			"[INVALID_STATE] workflow is DRAFT (workflow: wf-1)"},
		{"stage wins over workflow", NewConflictError("version moved").WithWorkflow("wf-1").WithStage("st-1"),
			"[CONFLICT] version moved (stage: st-1)"},
		{"with cause", NewCollaboratorUnavailableError("workflow store", errors.New("dial tcp: refused")),
			"[COLLABORATOR_UNAVAILABLE] workflow store unavailable: dial tcp: refused"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestError_IsMatchesCode(t *testing.T) {
	err := NewForbiddenError("delegation is not allowed").WithWorkflow("wf-1")
	wrapped := fmt.Errorf("delegate stage: %w", err)

	assert.True(t, errors.Is(wrapped, ErrForbidden))
	assert.True(t, IsForbidden(wrapped))
	assert.False(t, IsNotFound(wrapped))
	assert.Equal(t, ErrCodeForbidden, CodeOf(wrapped))

	var coded *Error
	assert.True(t, errors.As(wrapped, &coded))
	assert.Equal(t, "wf-1", coded.WorkflowID)
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("throttled")
	err := NewCollaboratorUnavailableError("document registry", cause)

	assert.True(t, errors.Is(err, cause))
	assert.True(t, IsCollaboratorUnavailable(err))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, "", CodeOf(nil))
	assert.Equal(t, ErrCodeValidation, CodeOf(NewValidationError("x")))
	assert.Equal(t, ErrCodeInternal, CodeOf(errors.New("boom")))
}

func TestAsCollaboratorError(t *testing.T) {
	assert.NoError(t, AsCollaboratorError("workflow store", nil))

	coded := NewConflictError("version moved")
	assert.Same(t, coded, AsCollaboratorError("workflow store", coded))

	wrapped := AsCollaboratorError("workflow store", errors.New("timeout"))
	assert.True(t, IsCollaboratorUnavailable(wrapped))
	assert.Contains(t, wrapped.Error(), "workflow store unavailable")
}

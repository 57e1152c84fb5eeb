package approvalflow

import (
	"fmt"
	"time"
)

// NewStage builds the PENDING stage record for a definition
func NewStage(id, workflowID string, number int, def StageDefinition, dueDays int, dueDate, now time.Time) *Stage {
	assigneeType := def.AssigneeType
	if assigneeType == "" {
		assigneeType = AssigneeTypeUser
	}
	stageType := def.StageType
	if stageType == "" {
		stageType = StageTypeApproval
	}
	return &Stage{
		ID:             id,
		WorkflowID:     workflowID,
		StageNumber:    number,
		Name:           def.Name,
		StageType:      stageType,
		RequiredAction: def.RequiredAction,
		AssigneeType:   assigneeType,
		AssigneeIDs:    cloneStrings(def.AssigneeIDs),
		AssigneeRole:   def.AssigneeRole,
		Status:         StageStatusPending,
		DueDays:        dueDays,
		DueDate:        dueDate,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Assignees returns who acts on the stage: the user ids, or the role for
// role-addressed stages without explicit users.
func (s *Stage) Assignees() []string {
	if len(s.AssigneeIDs) > 0 {
		return cloneStrings(s.AssigneeIDs)
	}
	if s.AssigneeType == AssigneeTypeRole && s.AssigneeRole != "" {
		return []string{s.AssigneeRole}
	}
	return nil
}

// Activate moves a PENDING stage to IN_PROGRESS. Activating a stage that is
// already IN_PROGRESS is a no-op so a retried transition stays safe.
func (s *Stage) Activate(now time.Time) error {
	switch s.Status {
	case StageStatusInProgress:
		return nil
	case StageStatusPending:
		s.Status = StageStatusInProgress
		s.StartedAt = ToPtr(now)
		s.UpdatedAt = now
		return nil
	}
	return NewInvalidStateError(fmt.Sprintf("stage %d is %s and cannot be activated", s.StageNumber, s.Status)).
		WithStage(s.ID)
}

// Finish writes the terminal fields of the stage. A stage finishes at most once.
func (s *Stage) Finish(action StageAction, userID, comments string, now time.Time) error {
	if s.Status.IsTerminal() {
		return NewInvalidStateError(fmt.Sprintf("stage %d is already %s", s.StageNumber, s.Status)).
			WithStage(s.ID).
			WithWorkflow(s.WorkflowID)
	}

	switch action {
	case ActionRejected:
		s.Status = StageStatusRejected
	case ActionSkipped:
		s.Status = StageStatusSkipped
	case ActionApproved, ActionCompleted:
		s.Status = StageStatusCompleted
	default:
		return NewValidationError(fmt.Sprintf("unsupported stage action %q", action)).WithStage(s.ID)
	}

	s.ActionTaken = action
	s.CompletedBy = userID
	s.Comments = comments
	s.CompletedAt = ToPtr(now)
	s.UpdatedAt = now
	return nil
}

// Delegate hands the stage to a single user. Status is left unchanged.
func (s *Stage) Delegate(toUserID, fromUserID, reason string, now time.Time) error {
	if s.Status.IsTerminal() {
		return NewInvalidStateError(fmt.Sprintf("stage %d is %s and cannot be delegated", s.StageNumber, s.Status)).
			WithStage(s.ID)
	}
	s.AssigneeIDs = []string{toUserID}
	s.DelegatedTo = toUserID
	s.DelegatedBy = fromUserID
	s.DelegatedAt = ToPtr(now)
	s.DelegationReason = reason
	s.UpdatedAt = now
	return nil
}

package approvalflow

import (
	"github.com/rs/zerolog"
)

// Log event names
const (
	// Workflow-level events
	EventWorkflowCreated    = "workflow_created"
	EventWorkflowStarted    = "workflow_started"
	EventWorkflowTerminated = "workflow_terminated"
	EventWorkflowCancelled  = "workflow_cancelled"
	EventWorkflowHeld       = "workflow_held"
	EventWorkflowResumed    = "workflow_resumed"
	EventWorkflowEscalated  = "workflow_escalated"

	// Stage-level events
	EventStageCompleted = "stage_completed"
	EventStageDelegated = "stage_delegated"
	EventStageSkipped   = "stage_skipped"

	// Collaborator events
	EventActivityLogFailed = "activity_log_failed"
	EventReadDegraded      = "read_degraded"
	EventPersistenceError  = "persistence_error"
)

// LogWorkflowCreated logs when a workflow and its stages are persisted
func LogWorkflowCreated(logger zerolog.Logger, workflowID, documentID string, totalStages int) {
	logger.Info().
		Str("event", EventWorkflowCreated).
		Str("workflow_id", workflowID).
		Str("document_id", documentID).
		Int("total_stages", totalStages).
		Msg("Workflow created")
}

// LogWorkflowStarted logs when a workflow leaves DRAFT
func LogWorkflowStarted(logger zerolog.Logger, workflowID string, assignees []string) {
	logger.Info().
		Str("event", EventWorkflowStarted).
		Str("workflow_id", workflowID).
		Strs("assignees", assignees).
		Msg("Workflow started")
}

// LogStageCompleted logs a stage finishing and the branch it caused
func LogStageCompleted(logger zerolog.Logger, workflowID string, stageNumber int, action StageAction, branch Branch) {
	logger.Info().
		Str("event", EventStageCompleted).
		Str("workflow_id", workflowID).
		Int("stage_number", stageNumber).
		Str("action", action.String()).
		Str("branch", string(branch)).
		Msg("Stage completed")
}

// LogStageDelegated logs a delegation
func LogStageDelegated(logger zerolog.Logger, workflowID, stageID, from, to string) {
	logger.Info().
		Str("event", EventStageDelegated).
		Str("workflow_id", workflowID).
		Str("stage_id", stageID).
		Str("from", from).
		Str("to", to).
		Msg("Stage delegated")
}

// LogStageSkipped logs when a stage is skipped
func LogStageSkipped(logger zerolog.Logger, workflowID string, stageNumber int, reason string) {
	logger.Info().
		Str("event", EventStageSkipped).
		Str("workflow_id", workflowID).
		Int("stage_number", stageNumber).
		Str("reason", reason).
		Msg("Stage skipped")
}

// LogWorkflowTerminated logs a workflow reaching a terminal status
func LogWorkflowTerminated(logger zerolog.Logger, workflowID string, status WorkflowStatus) {
	logger.Info().
		Str("event", EventWorkflowTerminated).
		Str("workflow_id", workflowID).
		Str("status", status.String()).
		Msg("Workflow terminated")
}

// LogWorkflowCancelled logs workflow cancellation
func LogWorkflowCancelled(logger zerolog.Logger, workflowID, userID string) {
	logger.Warn().
		Str("event", EventWorkflowCancelled).
		Str("workflow_id", workflowID).
		Str("user_id", userID).
		Msg("Workflow cancelled")
}

// LogWorkflowHeld logs a workflow being paused
func LogWorkflowHeld(logger zerolog.Logger, workflowID string) {
	logger.Info().
		Str("event", EventWorkflowHeld).
		Str("workflow_id", workflowID).
		Msg("Workflow put on hold")
}

// LogWorkflowResumed logs a paused workflow continuing
func LogWorkflowResumed(logger zerolog.Logger, workflowID string) {
	logger.Info().
		Str("event", EventWorkflowResumed).
		Str("workflow_id", workflowID).
		Msg("Workflow resumed")
}

// LogWorkflowEscalated logs an escalation level change
func LogWorkflowEscalated(logger zerolog.Logger, workflowID string, level int) {
	logger.Warn().
		Str("event", EventWorkflowEscalated).
		Str("workflow_id", workflowID).
		Int("escalation_level", level).
		Msg("Workflow escalated")
}

// LogActivityLogFailed logs a swallowed activity-log failure
func LogActivityLogFailed(logger zerolog.Logger, workflowID string, activity ActivityType, err error) {
	logger.Error().
		Str("event", EventActivityLogFailed).
		Str("workflow_id", workflowID).
		Str("activity", string(activity)).
		Err(err).
		Msg("Failed to log activity")
}

// LogReadDegraded logs a read that fell back to an empty result
func LogReadDegraded(logger zerolog.Logger, operation string, err error) {
	logger.Warn().
		Str("event", EventReadDegraded).
		Str("operation", operation).
		Err(err).
		Msg("Read failed, returning empty result")
}

// LogPersistenceError logs errors during persistence operations
func LogPersistenceError(logger zerolog.Logger, workflowID, operation string, err error) {
	logger.Error().
		Str("event", EventPersistenceError).
		Str("workflow_id", workflowID).
		Str("operation", operation).
		Err(err).
		Msg("Persistence error")
}

// WorkflowLogger creates a logger enriched with workflow context
func WorkflowLogger(baseLogger zerolog.Logger, workflowID, documentID string) zerolog.Logger {
	return baseLogger.With().
		Str("workflow_id", workflowID).
		Str("document_id", documentID).
		Logger()
}

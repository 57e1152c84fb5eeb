package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sicko7947/approvalflow"
)

// PostgresPool is the subset of *pgxpool.Pool used by PostgresStore
type PostgresPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var _ PostgresPool = (*pgxpool.Pool)(nil)

// PostgresStore implements approvalflow.WorkflowStore using PostgreSQL via pgx
type PostgresStore struct {
	pool PostgresPool
}

// NewPostgresStore creates a new PostgreSQL-backed workflow store
func NewPostgresStore(pool PostgresPool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

var _ approvalflow.WorkflowStore = (*PostgresStore)(nil)

// EnsureSchema creates the approval tables and indexes if they are missing
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("create approval schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateWorkflow(ctx context.Context, wf *approvalflow.Workflow, stages []*approvalflow.Stage) error {
	if err := validateCreate(wf, stages); err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create workflow: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	_, err = tx.Exec(ctx,
		`INSERT INTO approval_workflows (`+workflowColumns+`) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
			$13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24
		)`,
		workflowArgs(wf, wf.Version)...,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return approvalflow.NewConflictError(fmt.Sprintf("workflow %s already exists", wf.ID)).
				WithWorkflow(wf.ID).
				WithCause(err)
		}
		return fmt.Errorf("insert workflow: %w", err)
	}

	for _, st := range stages {
		_, err = tx.Exec(ctx,
			`INSERT INTO approval_stages (`+stageColumns+`) VALUES (
				$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
				$13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24
			)`,
			stageArgs(st, st.Version)...,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return approvalflow.NewConflictError(fmt.Sprintf("stage %s already exists", st.ID)).
					WithStage(st.ID).
					WithCause(err)
			}
			return fmt.Errorf("insert stage: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit create workflow: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetWorkflow(ctx context.Context, workflowID string) (*approvalflow.Workflow, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+workflowColumns+` FROM approval_workflows WHERE id = $1`,
		workflowID,
	)
	wf, err := scanWorkflow(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, workflowNotFound(workflowID)
	}
	if err != nil {
		return nil, fmt.Errorf("query workflow: %w", err)
	}
	return wf, nil
}

func (s *PostgresStore) GetStage(ctx context.Context, stageID string) (*approvalflow.Stage, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+stageColumns+` FROM approval_stages WHERE id = $1`,
		stageID,
	)
	st, err := scanStage(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, stageNotFound(stageID)
	}
	if err != nil {
		return nil, fmt.Errorf("query stage: %w", err)
	}
	return st, nil
}

func (s *PostgresStore) ListStages(ctx context.Context, workflowID string) ([]*approvalflow.Stage, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+stageColumns+` FROM approval_stages WHERE workflow_id = $1 ORDER BY stage_number ASC`,
		workflowID,
	)
	if err != nil {
		return nil, fmt.Errorf("query stages: %w", err)
	}
	defer rows.Close()

	var stages []*approvalflow.Stage
	for rows.Next() {
		st, err := scanStage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stage: %w", err)
		}
		stages = append(stages, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stages: %w", err)
	}

	if len(stages) == 0 {
		if _, err := s.GetWorkflow(ctx, workflowID); err != nil {
			return nil, err
		}
	}
	return stages, nil
}

func (s *PostgresStore) ListWorkflows(ctx context.Context, filter approvalflow.WorkflowFilter) ([]*approvalflow.Workflow, error) {
	query := `SELECT ` + workflowColumns + ` FROM approval_workflows`
	var where []string
	var args []any
	argIdx := 1

	if filter.DocumentID != "" {
		where = append(where, fmt.Sprintf("document_id = $%d", argIdx))
		args = append(args, filter.DocumentID)
		argIdx++
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, st := range filter.Statuses {
			statuses[i] = string(st)
		}
		where = append(where, fmt.Sprintf("status = ANY($%d)", argIdx))
		args = append(args, statuses)
		argIdx++
	}
	if filter.AssigneeID != "" {
		where = append(where, fmt.Sprintf("$%d = ANY(current_assignees)", argIdx))
		args = append(args, filter.AssigneeID)
		argIdx++
	}
	if filter.DueBefore != nil {
		where = append(where, fmt.Sprintf("due_date < $%d", argIdx))
		args = append(args, *filter.DueBefore)
		argIdx++
	}

	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at ASC, id ASC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, filter.Limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query workflows: %w", err)
	}
	defer rows.Close()

	var workflows []*approvalflow.Workflow
	for rows.Next() {
		wf, err := scanWorkflow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan workflow: %w", err)
		}
		workflows = append(workflows, wf)
	}
	return workflows, rows.Err()
}

func (s *PostgresStore) ApplyTransition(ctx context.Context, tr approvalflow.Transition) error {
	if tr.Workflow == nil && len(tr.Stages) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transition: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if wf := tr.Workflow; wf != nil {
		tag, err := tx.Exec(ctx, `
			UPDATE approval_workflows SET
				status = $1, current_stage = $2, current_assignees = $3,
				started_at = $4, completed_at = $5, priority = $6,
				escalation_level = $7, reminders_sent = $8,
				outcome = $9, outcome_comments = $10, final_approvers = $11,
				updated_at = $12, version = $13
			WHERE id = $14 AND version = $15`,
			string(wf.Status), wf.CurrentStage, wf.CurrentAssignees,
			wf.StartedAt, wf.CompletedAt, string(wf.Priority),
			wf.EscalationLevel, wf.RemindersSent,
			string(wf.Outcome), wf.OutcomeComments, wf.FinalApprovers,
			wf.UpdatedAt, wf.Version+1,
			wf.ID, wf.Version,
		)
		if err != nil {
			return fmt.Errorf("update workflow: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return s.missOrConflict(ctx, tx, "approval_workflows", wf.ID, wf.Version,
				workflowNotFound, workflowConflict)
		}
	}

	for _, st := range tr.Stages {
		tag, err := tx.Exec(ctx, `
			UPDATE approval_stages SET
				assignee_ids = $1, status = $2, action_taken = $3,
				completed_by = $4, comments = $5, started_at = $6, completed_at = $7,
				delegated_to = $8, delegated_by = $9, delegated_at = $10,
				delegation_reason = $11, updated_at = $12, version = $13
			WHERE id = $14 AND workflow_id = $15 AND stage_number = $16 AND version = $17`,
			st.AssigneeIDs, string(st.Status), string(st.ActionTaken),
			st.CompletedBy, st.Comments, st.StartedAt, st.CompletedAt,
			st.DelegatedTo, st.DelegatedBy, st.DelegatedAt,
			st.DelegationReason, st.UpdatedAt, st.Version+1,
			st.ID, st.WorkflowID, st.StageNumber, st.Version,
		)
		if err != nil {
			return fmt.Errorf("update stage: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return s.missOrConflict(ctx, tx, "approval_stages", st.ID, st.Version,
				stageNotFound, stageConflict)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transition: %w", err)
	}

	if tr.Workflow != nil {
		tr.Workflow.Version++
	}
	for _, st := range tr.Stages {
		st.Version++
	}
	return nil
}

// missOrConflict explains a zero-row update: the record is gone or its version moved
func (s *PostgresStore) missOrConflict(
	ctx context.Context,
	tx pgx.Tx,
	table, id string,
	expected int64,
	notFound func(string) error,
	conflict func(string, int64, int64) error,
) error {
	var actual int64
	err := tx.QueryRow(ctx, `SELECT version FROM `+table+` WHERE id = $1`, id).Scan(&actual)
	if errors.Is(err, pgx.ErrNoRows) {
		return notFound(id)
	}
	if err != nil {
		return fmt.Errorf("query %s version: %w", table, err)
	}
	return conflict(id, expected, actual)
}

func workflowArgs(wf *approvalflow.Workflow, version int64) []any {
	return []any{
		wf.ID, wf.DocumentID, wf.Title, string(wf.Type), string(wf.Status), wf.CurrentStage, wf.TotalStages,
		wf.CurrentAssignees, wf.DueDate, wf.StartedAt, wf.CompletedAt, string(wf.Priority),
		wf.EscalationLevel, wf.RemindersSent, string(wf.Outcome), wf.OutcomeComments, wf.FinalApprovers,
		wf.AllowDelegation, wf.AllowReassignment, wf.RequireComments,
		wf.CreatedBy, wf.CreatedAt, wf.UpdatedAt, version,
	}
}

func stageArgs(st *approvalflow.Stage, version int64) []any {
	return []any{
		st.ID, st.WorkflowID, st.StageNumber, st.Name, string(st.StageType), st.RequiredAction,
		string(st.AssigneeType), st.AssigneeIDs, st.AssigneeRole, string(st.Status), st.DueDays, st.DueDate,
		string(st.ActionTaken), st.CompletedBy, st.Comments, st.StartedAt, st.CompletedAt,
		st.DelegatedTo, st.DelegatedBy, st.DelegatedAt, st.DelegationReason,
		st.CreatedAt, st.UpdatedAt, version,
	}
}

func scanWorkflow(row pgx.Row) (*approvalflow.Workflow, error) {
	var wf approvalflow.Workflow
	var wfType, status, priority, outcome string
	err := row.Scan(
		&wf.ID, &wf.DocumentID, &wf.Title, &wfType, &status, &wf.CurrentStage, &wf.TotalStages,
		&wf.CurrentAssignees, &wf.DueDate, &wf.StartedAt, &wf.CompletedAt, &priority,
		&wf.EscalationLevel, &wf.RemindersSent, &outcome, &wf.OutcomeComments, &wf.FinalApprovers,
		&wf.AllowDelegation, &wf.AllowReassignment, &wf.RequireComments,
		&wf.CreatedBy, &wf.CreatedAt, &wf.UpdatedAt, &wf.Version,
	)
	if err != nil {
		return nil, err
	}
	wf.Type = approvalflow.WorkflowType(wfType)
	wf.Status = approvalflow.WorkflowStatus(status)
	wf.Priority = approvalflow.Priority(priority)
	wf.Outcome = approvalflow.Outcome(outcome)
	return &wf, nil
}

func scanStage(row pgx.Row) (*approvalflow.Stage, error) {
	var st approvalflow.Stage
	var stageType, assigneeType, status, action string
	err := row.Scan(
		&st.ID, &st.WorkflowID, &st.StageNumber, &st.Name, &stageType, &st.RequiredAction,
		&assigneeType, &st.AssigneeIDs, &st.AssigneeRole, &status, &st.DueDays, &st.DueDate,
		&action, &st.CompletedBy, &st.Comments, &st.StartedAt, &st.CompletedAt,
		&st.DelegatedTo, &st.DelegatedBy, &st.DelegatedAt, &st.DelegationReason,
		&st.CreatedAt, &st.UpdatedAt, &st.Version,
	)
	if err != nil {
		return nil, err
	}
	st.StageType = approvalflow.StageType(stageType)
	st.AssigneeType = approvalflow.AssigneeType(assigneeType)
	st.Status = approvalflow.StageStatus(status)
	st.ActionTaken = approvalflow.StageAction(action)
	return &st, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

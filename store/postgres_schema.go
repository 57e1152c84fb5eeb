package store

// PostgreSQL schema for the approval tables. Stage numbers are unique per
// workflow and both tables carry a version column for optimistic locking.
const postgresSchema = `
CREATE TABLE IF NOT EXISTS approval_workflows (
	id                 TEXT PRIMARY KEY,
	document_id        TEXT NOT NULL,
	title              TEXT NOT NULL DEFAULT '',
	type               TEXT NOT NULL,
	status             TEXT NOT NULL,
	current_stage      INTEGER NOT NULL,
	total_stages       INTEGER NOT NULL,
	current_assignees  TEXT[],
	due_date           TIMESTAMPTZ NOT NULL,
	started_at         TIMESTAMPTZ,
	completed_at       TIMESTAMPTZ,
	priority           TEXT NOT NULL,
	escalation_level   INTEGER NOT NULL DEFAULT 0,
	reminders_sent     INTEGER NOT NULL DEFAULT 0,
	outcome            TEXT NOT NULL DEFAULT '',
	outcome_comments   TEXT NOT NULL DEFAULT '',
	final_approvers    TEXT[],
	allow_delegation   BOOLEAN NOT NULL DEFAULT TRUE,
	allow_reassignment BOOLEAN NOT NULL DEFAULT TRUE,
	require_comments   BOOLEAN NOT NULL DEFAULT FALSE,
	created_by         TEXT NOT NULL DEFAULT '',
	created_at         TIMESTAMPTZ NOT NULL,
	updated_at         TIMESTAMPTZ NOT NULL,
	version            BIGINT NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_approval_workflows_document
	ON approval_workflows (document_id, created_at);
CREATE INDEX IF NOT EXISTS idx_approval_workflows_status_due
	ON approval_workflows (status, due_date);

CREATE TABLE IF NOT EXISTS approval_stages (
	id                TEXT PRIMARY KEY,
	workflow_id       TEXT NOT NULL REFERENCES approval_workflows (id) ON DELETE CASCADE,
	stage_number      INTEGER NOT NULL,
	name              TEXT NOT NULL,
	stage_type        TEXT NOT NULL,
	required_action   TEXT NOT NULL DEFAULT '',
	assignee_type     TEXT NOT NULL,
	assignee_ids      TEXT[],
	assignee_role     TEXT NOT NULL DEFAULT '',
	status            TEXT NOT NULL,
	due_days          INTEGER NOT NULL DEFAULT 0,
	due_date          TIMESTAMPTZ NOT NULL,
	action_taken      TEXT NOT NULL DEFAULT '',
	completed_by      TEXT NOT NULL DEFAULT '',
	comments          TEXT NOT NULL DEFAULT '',
	started_at        TIMESTAMPTZ,
	completed_at      TIMESTAMPTZ,
	delegated_to      TEXT NOT NULL DEFAULT '',
	delegated_by      TEXT NOT NULL DEFAULT '',
	delegated_at      TIMESTAMPTZ,
	delegation_reason TEXT NOT NULL DEFAULT '',
	created_at        TIMESTAMPTZ NOT NULL,
	updated_at        TIMESTAMPTZ NOT NULL,
	version           BIGINT NOT NULL DEFAULT 0,
	UNIQUE (workflow_id, stage_number)
);
`

const workflowColumns = `id, document_id, title, type, status, current_stage, total_stages,
	current_assignees, due_date, started_at, completed_at, priority,
	escalation_level, reminders_sent, outcome, outcome_comments, final_approvers,
	allow_delegation, allow_reassignment, require_comments,
	created_by, created_at, updated_at, version`

const stageColumns = `id, workflow_id, stage_number, name, stage_type, required_action,
	assignee_type, assignee_ids, assignee_role, status, due_days, due_date,
	action_taken, completed_by, comments, started_at, completed_at,
	delegated_to, delegated_by, delegated_at, delegation_reason,
	created_at, updated_at, version`

// pgUniqueViolation is the SQLSTATE for unique_violation
const pgUniqueViolation = "23505"

package engine

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sicko7947/approvalflow"
	"github.com/sicko7947/approvalflow/builder"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/sicko7947/approvalflow/engine"

// Operation names used for spans, metrics and degraded-read logs
const (
	opCreateWorkflow    = "create_workflow"
	opStartWorkflow     = "start_workflow"
	opCompleteStage     = "complete_stage"
	opDelegateStage     = "delegate_stage"
	opSkipStage         = "skip_stage"
	opCancelWorkflow    = "cancel_workflow"
	opPutOnHold         = "put_on_hold"
	opResumeWorkflow    = "resume_workflow"
	opRecordReminder    = "record_reminder"
	opEscalate          = "escalate"
	opGetByID           = "get_by_id"
	opGetStages         = "get_stages"
	opGetByDocument     = "get_by_document"
	opGetPendingForUser = "get_pending_for_user"
	opGetOverdue        = "get_overdue"
	opGetActive         = "get_active"
)

const (
	collaboratorStore    = "workflow store"
	collaboratorRegistry = "document registry"
)

// Engine runs approval workflows on top of a WorkflowStore and a DocumentRegistry
type Engine struct {
	store    approvalflow.WorkflowStore
	registry approvalflow.DocumentRegistry
	logger   zerolog.Logger
	config   EngineConfig
	clock    func() time.Time
	metrics  *Metrics
	tracer   trace.Tracer
}

// EngineConfig holds engine configuration
type EngineConfig struct {
	// DefaultDaysPerStage sizes the due date when the caller supplies none
	DefaultDaysPerStage int
	// MaxStages caps the stage list, never above approvalflow.MaxStages
	MaxStages int
	// ConflictRetries is how often RecordReminder and Escalate retry a CONFLICT
	ConflictRetries int
	ConflictBackoff time.Duration
}

// DefaultEngineConfig provides sensible defaults
var DefaultEngineConfig = EngineConfig{
	DefaultDaysPerStage: approvalflow.DefaultDaysPerStage,
	MaxStages:           approvalflow.MaxStages,
	ConflictRetries:     3,
	ConflictBackoff:     10 * time.Millisecond,
}

// EngineOption configures the engine
type EngineOption func(*Engine)

// WithLogger sets a custom logger for the engine
func WithLogger(logger zerolog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithConfig sets a custom configuration for the engine
func WithConfig(config EngineConfig) EngineOption {
	return func(e *Engine) {
		e.config = config
	}
}

// WithClock replaces time.Now, mostly for tests
func WithClock(clock func() time.Time) EngineOption {
	return func(e *Engine) {
		e.clock = clock
	}
}

// WithMetrics records operation metrics into m
func WithMetrics(m *Metrics) EngineOption {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithTracer sets the tracer used for operation spans
func WithTracer(tracer trace.Tracer) EngineOption {
	return func(e *Engine) {
		e.tracer = tracer
	}
}

// NewEngine creates a new approval engine with optional configuration
// If no logger is provided, a default stdout logger with Info level is used
// If no config is provided, DefaultEngineConfig is used
func NewEngine(store approvalflow.WorkflowStore, registry approvalflow.DocumentRegistry, opts ...EngineOption) *Engine {
	// Default logger: pretty console output, Info level
	defaultLogger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
		With().
		Timestamp().
		Logger().
		Level(zerolog.InfoLevel)

	eng := &Engine{
		store:    store,
		registry: registry,
		logger:   defaultLogger,
		config:   DefaultEngineConfig,
		clock:    time.Now,
		tracer:   otel.Tracer(tracerName),
	}

	// Apply options
	for _, opt := range opts {
		opt(eng)
	}

	return eng
}

// CreateWorkflow creates a DRAFT workflow with one PENDING stage per definition
func (e *Engine) CreateWorkflow(
	ctx context.Context,
	documentID string,
	wfType approvalflow.WorkflowType,
	defs []approvalflow.StageDefinition,
	opts ...approvalflow.CreateOption,
) (wf *approvalflow.Workflow, err error) {
	ctx, done := e.begin(ctx, opCreateWorkflow, attribute.String("document_id", documentID))
	defer func() { done(err) }()

	if strings.TrimSpace(documentID) == "" {
		return nil, approvalflow.NewValidationError("document id is required")
	}
	if !wfType.IsValid() {
		return nil, approvalflow.NewValidationError(fmt.Sprintf("unknown workflow type %q", wfType))
	}
	if err := builder.ValidateDefinitions(defs, e.config.MaxStages); err != nil {
		return nil, err
	}

	options := approvalflow.ApplyCreateOptions(opts...)

	doc, err := e.registry.GetDocument(ctx, documentID)
	if err != nil {
		return nil, approvalflow.AsCollaboratorError(collaboratorRegistry, err)
	}

	now := e.now()
	if options.Title == "" {
		options.Title = doc.Title
	}
	due := approvalflow.DefaultDueDate(now, len(defs), e.config.DefaultDaysPerStage)
	if options.DueDate != nil {
		due = *options.DueDate
	}

	wf = approvalflow.NewWorkflow(uuid.New().String(), documentID, wfType, len(defs), options, now)
	wf.DueDate = due

	dueDates, budgets := approvalflow.ScheduleStages(now, due, defs)
	stages := make([]*approvalflow.Stage, len(defs))
	for i, def := range defs {
		stages[i] = approvalflow.NewStage(uuid.New().String(), wf.ID, i+1, def, budgets[i], dueDates[i], now)
	}

	if err := e.store.CreateWorkflow(ctx, wf, stages); err != nil {
		approvalflow.LogPersistenceError(e.logger, wf.ID, opCreateWorkflow, err)
		return nil, approvalflow.AsCollaboratorError(collaboratorStore, err)
	}

	approvalflow.LogWorkflowCreated(e.logger, wf.ID, documentID, len(stages))
	e.logActivity(ctx, wf, approvalflow.ActivityWorkflowStarted, options.CreatedBy, approvalflow.SeverityInfo, now,
		map[string]interface{}{
			"workflow_type": string(wfType),
			"total_stages":  len(stages),
			"due_date":      due,
		})

	wf.Stages = stages
	return wf, nil
}

// StartWorkflow moves a DRAFT workflow to IN_PROGRESS and activates stage 1
func (e *Engine) StartWorkflow(ctx context.Context, workflowID, userID string) (wf *approvalflow.Workflow, err error) {
	ctx, done := e.begin(ctx, opStartWorkflow, attribute.String("workflow_id", workflowID))
	defer func() { done(err) }()

	wf, _, err = e.loadHydrated(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	from := wf.Status
	now := e.now()
	first := wf.StageByNumber(1)
	if err := wf.Start(first, now); err != nil {
		return nil, err
	}

	if err := e.commit(ctx, opStartWorkflow, wf, first); err != nil {
		return nil, err
	}

	e.metrics.transition(from.String(), wf.Status.String())
	approvalflow.LogWorkflowStarted(approvalflow.WorkflowLogger(e.logger, wf.ID, wf.DocumentID), wf.ID, wf.CurrentAssignees)
	e.logger.Debug().Str("workflow_id", wf.ID).Str("user_id", userID).Msg("Workflow start requested")

	return wf, nil
}

// CancelWorkflow ends any non-terminal workflow. Stage records are left as they are.
func (e *Engine) CancelWorkflow(ctx context.Context, workflowID, userID, reason string) (wf *approvalflow.Workflow, err error) {
	ctx, done := e.begin(ctx, opCancelWorkflow, attribute.String("workflow_id", workflowID))
	defer func() { done(err) }()

	wf, err = e.loadWorkflow(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	from := wf.Status
	now := e.now()
	if err := wf.Cancel(reason, now); err != nil {
		return nil, err
	}
	if err := e.commit(ctx, opCancelWorkflow, wf); err != nil {
		return nil, err
	}

	e.metrics.transition(from.String(), wf.Status.String())
	approvalflow.LogWorkflowCancelled(e.logger, wf.ID, userID)
	e.logActivity(ctx, wf, approvalflow.ActivityWorkflowCancelled, userID, approvalflow.SeverityWarning, now,
		map[string]interface{}{"reason": reason, "previous_status": from.String()})

	return wf, nil
}

// PutOnHold pauses an IN_PROGRESS workflow
func (e *Engine) PutOnHold(ctx context.Context, workflowID string) (wf *approvalflow.Workflow, err error) {
	ctx, done := e.begin(ctx, opPutOnHold, attribute.String("workflow_id", workflowID))
	defer func() { done(err) }()

	wf, err = e.loadWorkflow(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	from := wf.Status
	if err := wf.Hold(e.now()); err != nil {
		return nil, err
	}
	if err := e.commit(ctx, opPutOnHold, wf); err != nil {
		return nil, err
	}

	e.metrics.transition(from.String(), wf.Status.String())
	approvalflow.LogWorkflowHeld(e.logger, wf.ID)
	return wf, nil
}

// ResumeWorkflow continues an ON_HOLD workflow
func (e *Engine) ResumeWorkflow(ctx context.Context, workflowID string) (wf *approvalflow.Workflow, err error) {
	ctx, done := e.begin(ctx, opResumeWorkflow, attribute.String("workflow_id", workflowID))
	defer func() { done(err) }()

	wf, err = e.loadWorkflow(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	from := wf.Status
	if err := wf.Resume(e.now()); err != nil {
		return nil, err
	}
	if err := e.commit(ctx, opResumeWorkflow, wf); err != nil {
		return nil, err
	}

	e.metrics.transition(from.String(), wf.Status.String())
	approvalflow.LogWorkflowResumed(e.logger, wf.ID)
	return wf, nil
}

// RecordReminder counts a reminder sent for an active workflow
func (e *Engine) RecordReminder(ctx context.Context, workflowID string) (wf *approvalflow.Workflow, err error) {
	ctx, done := e.begin(ctx, opRecordReminder, attribute.String("workflow_id", workflowID))
	defer func() { done(err) }()

	err = e.retryOnConflict(ctx, opRecordReminder, func() error {
		loaded, err := e.loadWorkflow(ctx, workflowID)
		if err != nil {
			return err
		}
		if err := loaded.RecordReminder(e.now()); err != nil {
			return err
		}
		if err := e.commit(ctx, opRecordReminder, loaded); err != nil {
			return err
		}
		wf = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return wf, nil
}

// Escalate raises the escalation level of a non-terminal workflow. Levels at
// or below the current one leave the workflow unchanged.
func (e *Engine) Escalate(ctx context.Context, workflowID string, level int) (wf *approvalflow.Workflow, err error) {
	ctx, done := e.begin(ctx, opEscalate,
		attribute.String("workflow_id", workflowID),
		attribute.Int("escalation_level", level))
	defer func() { done(err) }()

	err = e.retryOnConflict(ctx, opEscalate, func() error {
		loaded, err := e.loadWorkflow(ctx, workflowID)
		if err != nil {
			return err
		}
		changed, err := loaded.Escalate(level, e.now())
		if err != nil {
			return err
		}
		if changed {
			if err := e.commit(ctx, opEscalate, loaded); err != nil {
				return err
			}
			approvalflow.LogWorkflowEscalated(e.logger, loaded.ID, level)
		}
		wf = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return wf, nil
}

// helpers

func (e *Engine) now() time.Time {
	return e.clock()
}

// begin opens a span for operation and returns the func that closes it and records metrics
func (e *Engine) begin(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	ctx, span := e.tracer.Start(ctx, "approvalflow."+operation, trace.WithAttributes(attrs...))
	start := time.Now()

	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, approvalflow.CodeOf(err))
		}
		span.End()
		e.metrics.observe(operation, approvalflow.CodeOf(err), time.Since(start))
	}
}

func (e *Engine) loadWorkflow(ctx context.Context, workflowID string) (*approvalflow.Workflow, error) {
	wf, err := e.store.GetWorkflow(ctx, workflowID)
	if err != nil {
		return nil, approvalflow.AsCollaboratorError(collaboratorStore, err)
	}
	return wf, nil
}

// loadHydrated loads a workflow with its stage list attached
func (e *Engine) loadHydrated(ctx context.Context, workflowID string) (*approvalflow.Workflow, []*approvalflow.Stage, error) {
	wf, err := e.loadWorkflow(ctx, workflowID)
	if err != nil {
		return nil, nil, err
	}
	stages, err := e.store.ListStages(ctx, workflowID)
	if err != nil {
		return nil, nil, approvalflow.AsCollaboratorError(collaboratorStore, err)
	}
	wf.Stages = stages
	return wf, stages, nil
}

// commit writes wf and stages as one version-checked transition
func (e *Engine) commit(ctx context.Context, operation string, wf *approvalflow.Workflow, stages ...*approvalflow.Stage) error {
	err := e.store.ApplyTransition(ctx, approvalflow.Transition{Workflow: wf, Stages: stages})
	if err == nil {
		return nil
	}
	if !approvalflow.IsConflict(err) {
		approvalflow.LogPersistenceError(e.logger, wf.ID, operation, err)
	}
	return approvalflow.AsCollaboratorError(collaboratorStore, err)
}

// logActivity writes an activity entry. Failures are logged and never undo the transition.
func (e *Engine) logActivity(
	ctx context.Context,
	wf *approvalflow.Workflow,
	activity approvalflow.ActivityType,
	actorID string,
	severity approvalflow.Severity,
	at time.Time,
	details map[string]interface{},
) {
	entry := approvalflow.ActivityEntry{
		ID:         uuid.New().String(),
		WorkflowID: wf.ID,
		DocumentID: wf.DocumentID,
		Type:       activity,
		ActorID:    actorID,
		Timestamp:  at,
		Severity:   severity,
		Details:    details,
	}
	if err := e.registry.LogActivity(ctx, entry); err != nil {
		approvalflow.LogActivityLogFailed(e.logger, wf.ID, activity, err)
		e.metrics.activityFailed()
	}
}

// Package api exposes the approval engine over HTTP with fiber.
package api

import (
	"context"
	"net/http"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/sicko7947/approvalflow"
	"github.com/sicko7947/approvalflow/engine"
)

// Engine is the set of engine operations served over HTTP
type Engine interface {
	CreateWorkflow(ctx context.Context, documentID string, wfType approvalflow.WorkflowType, defs []approvalflow.StageDefinition, opts ...approvalflow.CreateOption) (*approvalflow.Workflow, error)
	StartWorkflow(ctx context.Context, workflowID, userID string) (*approvalflow.Workflow, error)
	CompleteStage(ctx context.Context, stageID string, action approvalflow.StageAction, userID, comments string) (*approvalflow.Workflow, error)
	DelegateStage(ctx context.Context, stageID, toUserID, fromUserID, reason string) (*approvalflow.Workflow, error)
	SkipStage(ctx context.Context, stageID, userID, reason string) (*approvalflow.Workflow, error)
	CancelWorkflow(ctx context.Context, workflowID, userID, reason string) (*approvalflow.Workflow, error)
	PutOnHold(ctx context.Context, workflowID string) (*approvalflow.Workflow, error)
	ResumeWorkflow(ctx context.Context, workflowID string) (*approvalflow.Workflow, error)
	RecordReminder(ctx context.Context, workflowID string) (*approvalflow.Workflow, error)
	Escalate(ctx context.Context, workflowID string, level int) (*approvalflow.Workflow, error)
	GetByID(ctx context.Context, workflowID string) (*approvalflow.Workflow, error)
	GetStages(ctx context.Context, workflowID string) ([]*approvalflow.Stage, error)
	GetByDocument(ctx context.Context, documentID string) []*approvalflow.Workflow
	GetPendingForUser(ctx context.Context, userID string) []*approvalflow.Workflow
	GetOverdue(ctx context.Context) []*approvalflow.Workflow
	GetActive(ctx context.Context) []*approvalflow.Workflow
}

var _ Engine = (*engine.Engine)(nil)

// Handler serves the approval API
type Handler struct {
	engine  Engine
	logger  zerolog.Logger
	service string
	version string
}

// HandlerOption configures a Handler
type HandlerOption func(*Handler)

// WithLogger sets the request logger
func WithLogger(logger zerolog.Logger) HandlerOption {
	return func(h *Handler) {
		h.logger = logger
	}
}

// WithVersion sets the version reported by /health
func WithVersion(version string) HandlerOption {
	return func(h *Handler) {
		h.version = version
	}
}

// NewHandler creates a Handler for eng
func NewHandler(eng Engine, opts ...HandlerOption) *Handler {
	h := &Handler{
		engine:  eng,
		logger:  zerolog.Nop(),
		service: "approvald",
		version: "dev",
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the health check and the /api/v1 routes on app
func (h *Handler) Register(app *fiber.App) {
	app.Get("/health", h.health)

	v1 := app.Group("/api/v1")

	workflows := v1.Group("/workflows")
	workflows.Post("/", h.createWorkflow)
	workflows.Get("/", h.listWorkflows)
	workflows.Get("/:id", h.getWorkflow)
	workflows.Get("/:id/stages", h.getStages)
	workflows.Post("/:id/start", h.startWorkflow)
	workflows.Post("/:id/cancel", h.cancelWorkflow)
	workflows.Post("/:id/hold", h.holdWorkflow)
	workflows.Post("/:id/resume", h.resumeWorkflow)
	workflows.Post("/:id/remind", h.remindWorkflow)
	workflows.Post("/:id/escalate", h.escalateWorkflow)

	stages := v1.Group("/stages")
	stages.Post("/:id/complete", h.completeStage)
	stages.Post("/:id/delegate", h.delegateStage)
	stages.Post("/:id/skip", h.skipStage)

	v1.Get("/documents/:id/workflows", h.documentWorkflows)
	v1.Get("/users/:id/pending", h.pendingForUser)
}

// RegisterMetrics serves the collectors of gatherer at path
func RegisterMetrics(app *fiber.App, path string, gatherer prometheus.Gatherer) {
	var handler http.Handler = promhttp.Handler()
	if gatherer != nil {
		handler = promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
	}
	app.Get(path, adaptor.HTTPHandler(handler))
}

func (h *Handler) health(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "healthy",
		"service": h.service,
		"version": h.version,
	})
}

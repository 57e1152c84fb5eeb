package approvalflow

import "time"

// MaxStages bounds the number of stages in one workflow so creation fits in a
// single store transaction.
const MaxStages = 32

// CreateOption allows functional configuration of workflow creation
type CreateOption func(*CreateOptions)

// CreateOptions holds options for creating a workflow
type CreateOptions struct {
	Title             string
	DueDate           *time.Time
	Priority          Priority
	AllowDelegation   bool
	AllowReassignment bool
	RequireComments   bool
	CreatedBy         string
}

// ApplyCreateOptions folds opts into a CreateOptions value
func ApplyCreateOptions(opts ...CreateOption) CreateOptions {
	var o CreateOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithTitle overrides the title taken from the document
func WithTitle(title string) CreateOption {
	return func(o *CreateOptions) {
		o.Title = title
	}
}

// WithDueDate sets an explicit workflow due date
func WithDueDate(due time.Time) CreateOption {
	return func(o *CreateOptions) {
		o.DueDate = &due
	}
}

// WithPriority sets the workflow priority
func WithPriority(p Priority) CreateOption {
	return func(o *CreateOptions) {
		o.Priority = p
	}
}

// WithAllowDelegation permits DelegateStage on the workflow
func WithAllowDelegation(allow bool) CreateOption {
	return func(o *CreateOptions) {
		o.AllowDelegation = allow
	}
}

// WithAllowReassignment records whether assignees may be reassigned
func WithAllowReassignment(allow bool) CreateOption {
	return func(o *CreateOptions) {
		o.AllowReassignment = allow
	}
}

// WithRequireComments makes comments mandatory when finishing a stage
func WithRequireComments(require bool) CreateOption {
	return func(o *CreateOptions) {
		o.RequireComments = require
	}
}

// WithCreatedBy records who created the workflow
func WithCreatedBy(userID string) CreateOption {
	return func(o *CreateOptions) {
		o.CreatedBy = userID
	}
}

package builder

import "github.com/sicko7947/approvalflow"

// StageOption is a functional option for configuring a stage definition
type StageOption func(*approvalflow.StageDefinition)

// AssignedTo addresses the stage to the given users
func AssignedTo(userIDs ...string) StageOption {
	return func(d *approvalflow.StageDefinition) {
		d.AssigneeType = approvalflow.AssigneeTypeUser
		d.AssigneeIDs = append([]string(nil), userIDs...)
	}
}

// AssignedToRole addresses the stage to a role
func AssignedToRole(role string) StageOption {
	return func(d *approvalflow.StageDefinition) {
		d.AssigneeType = approvalflow.AssigneeTypeRole
		d.AssigneeRole = role
	}
}

// WithDueDays gives the stage its own day budget instead of an even share
func WithDueDays(days int) StageOption {
	return func(d *approvalflow.StageDefinition) {
		d.DueDays = days
	}
}

// WithRequiredAction describes what the assignee must do
func WithRequiredAction(action string) StageOption {
	return func(d *approvalflow.StageDefinition) {
		d.RequiredAction = action
	}
}

// ApplyOptions applies a list of options to a definition
func ApplyOptions(d *approvalflow.StageDefinition, opts ...StageOption) {
	for _, opt := range opts {
		opt(d)
	}
}

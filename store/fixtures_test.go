package store

import (
	"fmt"
	"time"

	"github.com/sicko7947/approvalflow"
)

var fixtureNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

// newFixture builds a DRAFT workflow with n stages assigned to user-1..user-n
func newFixture(id, documentID string, n int) (*approvalflow.Workflow, []*approvalflow.Stage) {
	opts := approvalflow.ApplyCreateOptions(approvalflow.WithTitle("Review " + documentID))
	wf := approvalflow.NewWorkflow(id, documentID, approvalflow.WorkflowTypeApproval, n, opts, fixtureNow)
	wf.DueDate = fixtureNow.AddDate(0, 0, 5*n)

	stages := make([]*approvalflow.Stage, n)
	for i := 0; i < n; i++ {
		def := approvalflow.StageDefinition{
			Name:        fmt.Sprintf("Stage %d", i+1),
			AssigneeIDs: []string{fmt.Sprintf("user-%d", i+1)},
		}
		stages[i] = approvalflow.NewStage(
			fmt.Sprintf("%s-stage-%d", id, i+1), id, i+1, def, 5,
			fixtureNow.AddDate(0, 0, 5*(i+1)), fixtureNow,
		)
	}
	return wf, stages
}

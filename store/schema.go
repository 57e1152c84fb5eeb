package store

import (
	"fmt"
	"time"
)

// DynamoDB schema constants for single-table design
const (
	// Table attributes
	AttrPK         = "PK"
	AttrSK         = "SK"
	AttrGSI1PK     = "GSI1PK"
	AttrGSI1SK     = "GSI1SK"
	AttrGSI2PK     = "GSI2PK"
	AttrGSI2SK     = "GSI2SK"
	AttrEntityType = "entity_type"
	AttrVersion    = "version"

	// Entity types
	EntityTypeWorkflow = "Workflow"
	EntityTypeStage    = "Stage"
	EntityTypeStageRef = "StageRef"

	// Index names
	IndexDocumentIndex = "GSI1"
	IndexStatusIndex   = "GSI2"

	// Fixed-width so lexical order matches time order
	sortableTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// Workflow keys: PK=WF#{workflowID}, SK=META
func workflowPK(workflowID string) string {
	return fmt.Sprintf("WF#%s", workflowID)
}

func workflowSK() string {
	return "META"
}

// GSI1 groups workflows by document, ordered by creation time
func workflowGSI1PK(documentID string) string {
	return fmt.Sprintf("DOC#%s", documentID)
}

func workflowGSI1SK(createdAt time.Time) string {
	return createdAt.UTC().Format(sortableTimeLayout)
}

// GSI2 groups workflows by status, ordered by due date
func workflowGSI2PK(status string) string {
	return fmt.Sprintf("STATUS#%s", status)
}

func workflowGSI2SK(dueDate time.Time) string {
	return dueDate.UTC().Format(sortableTimeLayout)
}

// Stage keys: PK=WF#{workflowID}, SK=STAGE#{number}
func stagePK(workflowID string) string {
	return workflowPK(workflowID)
}

func stageSK(stageNumber int) string {
	return fmt.Sprintf("STAGE#%04d", stageNumber)
}

// Stage reference keys: PK=STAGE#{stageID}, SK=REF
func stageRefPK(stageID string) string {
	return fmt.Sprintf("STAGE#%s", stageID)
}

func stageRefSK() string {
	return "REF"
}

// Prefix for range queries
func stagePrefix() string {
	return "STAGE#"
}

package store

import (
	"sort"
	"strings"
	"testing"
	"time"
)

func TestWorkflowPK(t *testing.T) {
	tests := []struct {
		name       string
		workflowID string
		want       string
	}{
		{
			name:       "simple workflow ID",
			workflowID: "wf-1",
			want:       "WF#wf-1",
		},
		{
			name:       "UUID workflow ID",
			workflowID: "550e8400-e29b-41d4-a716-446655440000",
			want:       "WF#550e8400-e29b-41d4-a716-446655440000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := workflowPK(tt.workflowID)
			if got != tt.want {
				t.Errorf("workflowPK(%s) = %s, want %s", tt.workflowID, got, tt.want)
			}
		})
	}
}

func TestStageKeysShareWorkflowPartition(t *testing.T) {
	if stagePK("wf-1") != workflowPK("wf-1") {
		t.Errorf("stagePK() = %s, want workflow partition %s", stagePK("wf-1"), workflowPK("wf-1"))
	}
	if !strings.HasPrefix(stageSK(3), stagePrefix()) {
		t.Errorf("stageSK(3) = %s, want prefix %s", stageSK(3), stagePrefix())
	}
	if workflowSK() == stageSK(1) {
		t.Error("workflow and stage sort keys must differ")
	}
}

func TestStageSK_SortsByNumber(t *testing.T) {
	keys := []string{stageSK(10), stageSK(2), stageSK(1), stageSK(32)}
	sort.Strings(keys)

	want := []string{"STAGE#0001", "STAGE#0002", "STAGE#0010", "STAGE#0032"}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("sorted keys[%d] = %s, want %s", i, keys[i], want[i])
		}
	}
}

func TestStageRefKeys(t *testing.T) {
	if got := stageRefPK("st-1"); got != "STAGE#st-1" {
		t.Errorf("stageRefPK() = %s, want STAGE#st-1", got)
	}
	if got := stageRefSK(); got != "REF" {
		t.Errorf("stageRefSK() = %s, want REF", got)
	}
}

func TestWorkflowGSIKeys(t *testing.T) {
	if got := workflowGSI1PK("doc-9"); got != "DOC#doc-9" {
		t.Errorf("workflowGSI1PK() = %s, want DOC#doc-9", got)
	}
	if got := workflowGSI2PK("IN_PROGRESS"); got != "STATUS#IN_PROGRESS" {
		t.Errorf("workflowGSI2PK() = %s, want STATUS#IN_PROGRESS", got)
	}

	// Sort keys are normalised to UTC so lexical order matches time order
	sydney := time.FixedZone("AEST", 10*60*60)
	early := time.Date(2026, 1, 1, 9, 0, 0, 0, sydney) // 2025-12-31T23:00Z
	late := time.Date(2026, 1, 1, 1, 0, 0, 0, time.UTC)

	if workflowGSI2SK(early) >= workflowGSI2SK(late) {
		t.Errorf("workflowGSI2SK(%v) should sort before workflowGSI2SK(%v)", early, late)
	}

	whole := time.Date(2026, 1, 1, 1, 0, 1, 0, time.UTC)
	fraction := whole.Add(500 * time.Millisecond)
	if workflowGSI2SK(whole) >= workflowGSI2SK(fraction) {
		t.Errorf("workflowGSI2SK(%v) should sort before workflowGSI2SK(%v)", whole, fraction)
	}
	if got := workflowGSI1SK(late); got != "2026-01-01T01:00:00.000000000Z" {
		t.Errorf("workflowGSI1SK() = %s, want 2026-01-01T01:00:00.000000000Z", got)
	}
}

package onboarding

import (
	"testing"

	"github.com/ogurasousui/onboarding-engine/internal/core/document"
	"github.com/ogurasousui/onboarding-engine/internal/core/task"
)

func TestPercentage(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name                                  string
		completed, total, approved, mandatory int
		want                                  int
	}{
		{name: "empty denominator", want: 0},
		{name: "nothing done", total: 3, mandatory: 2, want: 0},
		{name: "one task", completed: 1, total: 3, mandatory: 2, want: 20},
		{name: "one task two documents", completed: 1, total: 3, approved: 2, mandatory: 2, want: 60},
		{name: "floor", completed: 2, total: 3, mandatory: 0, want: 66},
		{name: "everything", completed: 3, total: 3, approved: 2, mandatory: 2, want: 100},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Percentage(tc.completed, tc.total, tc.approved, tc.mandatory); got != tc.want {
				t.Fatalf("Percentage() = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestNextAction(t *testing.T) {
	t.Parallel()

	if got := NextAction(1, 1); got != ActionCompleteTasks {
		t.Fatalf("expected tasks to take priority, got %q", got)
	}
	if got := NextAction(0, 2); got != ActionUpdateDocuments {
		t.Fatalf("expected rejected documents action, got %q", got)
	}
	if got := NextAction(0, 0); got != ActionAwaitApproval {
		t.Fatalf("expected wait action, got %q", got)
	}
}

func TestEvaluate_IgnoresOptionalDocuments(t *testing.T) {
	t.Parallel()

	tasks := []*task.Task{
		{Type: task.TypePolicyAcknowledgment, Status: task.StatusCompleted},
		{Type: task.TypeOrientationSession, Status: task.StatusPending},
		{Type: task.TypeDocumentSubmission, Status: task.StatusPending},
	}
	docs := []*document.Document{
		{Type: document.TypeBankDetails, Status: document.StatusApproved},
		{Type: document.TypePanAadhar, Status: document.StatusRejected},
		{Type: document.TypeIDProof, Status: document.StatusPendingReview},
	}

	p := Evaluate(tasks, docs)
	if p.Percentage != 20 {
		t.Fatalf("expected 20%%, got %d", p.Percentage)
	}
	if p.CompletedTasks != 1 || p.PendingTasks != 2 {
		t.Fatalf("unexpected task counts: %+v", p)
	}
	if p.ApprovedMandatory != 0 || p.ApprovedDocuments != 1 || p.RejectedDocuments != 1 || p.PendingDocuments != 1 {
		t.Fatalf("unexpected document counts: %+v", p)
	}
	if p.NextAction != ActionCompleteTasks {
		t.Fatalf("unexpected next action %q", p.NextAction)
	}
}

func TestEvaluate_MissingTasksCountAsIncomplete(t *testing.T) {
	t.Parallel()

	p := Evaluate(nil, []*document.Document{
		{Type: document.TypeIDProof, Status: document.StatusApproved},
		{Type: document.TypeOfferLetter, Status: document.StatusApproved},
	})
	if p.TasksDone() {
		t.Fatalf("expected missing tasks to block completion")
	}
	if !p.MandatoryDocumentsDone() {
		t.Fatalf("expected mandatory documents done")
	}
	if p.Percentage != 40 {
		t.Fatalf("expected 40%%, got %d", p.Percentage)
	}
}

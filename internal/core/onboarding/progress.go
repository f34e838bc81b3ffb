package onboarding

import (
	"github.com/ogurasousui/onboarding-engine/internal/core/document"
	"github.com/ogurasousui/onboarding-engine/internal/core/task"
)

// 社員に提示する次のアクション。
const (
	// ActionCompleteTasks は未完了タスクが残っている場合のアクションです。
	ActionCompleteTasks = "Complete pending onboarding tasks"
	// ActionUpdateDocuments は差し戻された書類がある場合のアクションです。
	ActionUpdateDocuments = "Update rejected documents"
	// ActionAwaitApproval は書類の審査待ちの場合のアクションです。
	ActionAwaitApproval = "Wait for document approval"
)

// Progress は社員一人分のオンボーディング進捗の集計値です。
type Progress struct {
	TotalTasks        int
	CompletedTasks    int
	PendingTasks      int
	MandatoryTypes    int
	ApprovedMandatory int
	TotalDocuments    int
	ApprovedDocuments int
	PendingDocuments  int
	RejectedDocuments int
	Percentage        int
	NextAction        string
}

// TasksDone は全種別のタスクが完了しているかを返します。
func (p Progress) TasksDone() bool {
	return p.CompletedTasks >= p.TotalTasks
}

// MandatoryDocumentsDone は全必須種別の書類が承認済みかを返します。
func (p Progress) MandatoryDocumentsDone() bool {
	return p.ApprovedMandatory >= p.MandatoryTypes
}

// Percentage は floor(100*(C+A)/(T+M)) を返します。分母が 0 の場合は 0 です。
func Percentage(completedTasks, totalTasks, approvedMandatory, mandatoryTypes int) int {
	denominator := totalTasks + mandatoryTypes
	if denominator <= 0 {
		return 0
	}
	p := 100 * (completedTasks + approvedMandatory) / denominator
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}

// NextAction は未完了タスクを最優先に、次に取るべき行動を返します。
func NextAction(pendingTasks, rejectedDocuments int) string {
	if pendingTasks > 0 {
		return ActionCompleteTasks
	}
	if rejectedDocuments > 0 {
		return ActionUpdateDocuments
	}
	return ActionAwaitApproval
}

// Evaluate は現在のタスクと書類から進捗を算出します。
// タスク総数は定義済み種別数で固定し、欠けているタスクは未完了として扱います。
func Evaluate(tasks []*task.Task, docs []*document.Document) Progress {
	p := Progress{
		TotalTasks:     len(task.AllTypes()),
		MandatoryTypes: len(document.MandatoryTypes()),
		TotalDocuments: len(docs),
	}

	completed := make(map[task.Type]bool, len(tasks))
	for _, t := range tasks {
		if t.IsCompleted() {
			completed[t.Type] = true
		}
	}
	for _, t := range task.AllTypes() {
		if completed[t] {
			p.CompletedTasks++
		}
	}
	p.PendingTasks = p.TotalTasks - p.CompletedTasks

	approvedMandatory := make(map[document.Type]bool, len(docs))
	for _, d := range docs {
		switch d.Status {
		case document.StatusApproved:
			p.ApprovedDocuments++
			if d.Type.IsMandatory() {
				approvedMandatory[d.Type] = true
			}
		case document.StatusPendingReview:
			p.PendingDocuments++
		case document.StatusRejected:
			p.RejectedDocuments++
		}
	}
	p.ApprovedMandatory = len(approvedMandatory)

	p.Percentage = Percentage(p.CompletedTasks, p.TotalTasks, p.ApprovedMandatory, p.MandatoryTypes)
	p.NextAction = NextAction(p.PendingTasks, p.RejectedDocuments)
	return p
}

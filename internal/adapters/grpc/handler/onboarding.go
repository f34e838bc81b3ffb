package handler

import (
	"context"

	"github.com/ogurasousui/onboarding-engine/internal/core/access"
	"github.com/ogurasousui/onboarding-engine/internal/core/document"
	"github.com/ogurasousui/onboarding-engine/internal/core/employee"
	"github.com/ogurasousui/onboarding-engine/internal/core/onboarding"
	"github.com/ogurasousui/onboarding-engine/internal/core/task"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// OnboardingServiceName は社員オンボーディングサービスの完全修飾名です。
const OnboardingServiceName = "onboarding.v1.OnboardingService"

// OnboardingHandler は OnboardingService の gRPC 実装です。
type OnboardingHandler struct {
	employees  employee.UseCase
	tasks      task.UseCase
	documents  document.UseCase
	onboarding onboarding.UseCase
	methods    map[string]Method
}

// NewOnboardingHandler は OnboardingHandler を生成します。
func NewOnboardingHandler(employees employee.UseCase, tasks task.UseCase, documents document.UseCase, onboardingSvc onboarding.UseCase) *OnboardingHandler {
	h := &OnboardingHandler{
		employees:  employees,
		tasks:      tasks,
		documents:  documents,
		onboarding: onboardingSvc,
	}
	h.methods = map[string]Method{
		"AddEmployee":        h.AddEmployee,
		"GetEmployeeDetail":  h.GetEmployeeDetail,
		"ListEmployees":      h.ListEmployees,
		"ListAvailableUsers": h.ListAvailableUsers,
		"ListDepartments":    h.ListDepartments,
		"GetDashboard":       h.GetDashboard,
		"GetMyDashboard":     h.GetMyDashboard,
		"GetCompletion":      h.GetCompletion,
		"ListTasks":          h.ListTasks,
		"CompleteTask":       h.CompleteTask,
		"SubmitDocuments":    h.SubmitDocuments,
		"SubmitDocument":     h.SubmitDocument,
		"UpdateDocument":     h.UpdateDocument,
		"ReviewDocument":     h.ReviewDocument,
		"ListDocuments":      h.ListDocuments,
		"CompleteOnboarding": h.CompleteOnboarding,
	}
	return h
}

// ServiceName はサービス名を返します。
func (h *OnboardingHandler) ServiceName() string { return OnboardingServiceName }

// Methods はメソッド表を返します。
func (h *OnboardingHandler) Methods() map[string]Method { return h.methods }

// AddEmployee はユーザーをオンボーディング対象に追加します。
func (h *OnboardingHandler) AddEmployee(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	f := newFields(req)
	joiningDate, err := f.date("joining_date")
	if err != nil {
		return nil, err
	}

	created, err := h.employees.AddToOnboarding(ctx, employee.AddToOnboardingInput{
		Actor:          actor,
		UserID:         f.str("user_id"),
		EmployeeNumber: f.str("employee_number"),
		Department:     f.str("department"),
		Designation:    f.str("designation"),
		JoiningDate:    joiningDate,
	})
	if err != nil {
		return nil, toStatusError(err)
	}
	return toStruct(map[string]any{"employee": employeeMessage(created)})
}

// GetEmployeeDetail は社員・タスク・書類・進捗をまとめて返します。
func (h *OnboardingHandler) GetEmployeeDetail(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := principal(ctx)
	if err != nil {
		return nil, err
	}

	detail, err := h.onboarding.EmployeeDetail(ctx, actor, newFields(req).str("employee_id"))
	if err != nil {
		return nil, toStatusError(err)
	}
	return toStruct(map[string]any{
		"employee":  employeeMessage(detail.Employee),
		"tasks":     list(detail.Tasks, taskMessage),
		"documents": list(detail.Documents, documentMessage),
		"progress":  progressMessage(detail.Progress),
	})
}

// ListEmployees は進捗付きの社員一覧を返します。
func (h *OnboardingHandler) ListEmployees(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	f := newFields(req)

	var statusPtr *employee.OnboardingStatus
	if raw := f.str("status"); raw != "" {
		st := employee.OnboardingStatus(raw)
		statusPtr = &st
	}
	joinedFrom, err := f.date("joined_from")
	if err != nil {
		return nil, err
	}
	joinedTo, err := f.date("joined_to")
	if err != nil {
		return nil, err
	}
	pageSize, err := f.integer("page_size")
	if err != nil {
		return nil, err
	}

	result, err := h.onboarding.ListSummaries(ctx, onboarding.ListSummariesInput{
		Actor:      actor,
		Department: f.str("department"),
		Status:     statusPtr,
		JoinedFrom: joinedFrom,
		JoinedTo:   joinedTo,
		PageSize:   pageSize,
		PageToken:  f.str("page_token"),
	})
	if err != nil {
		return nil, toStatusError(err)
	}
	return toStruct(map[string]any{
		"employees":       list(result.Summaries, summaryMessage),
		"next_page_token": result.NextPageToken,
	})
}

// ListAvailableUsers はまだオンボーディングに追加されていない EMPLOYEE ユーザーを返します。
func (h *OnboardingHandler) ListAvailableUsers(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	actor, err := principal(ctx)
	if err != nil {
		return nil, err
	}

	users, err := h.employees.ListAvailableUsers(ctx, actor)
	if err != nil {
		return nil, toStatusError(err)
	}
	return toStruct(map[string]any{"users": list(users, userMessage)})
}

// ListDepartments は部署一覧を返します。
func (h *OnboardingHandler) ListDepartments(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	actor, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	if !isStaff(actor) {
		return nil, toStatusError(access.ErrForbidden)
	}

	departments, err := h.employees.ListDepartments(ctx)
	if err != nil {
		return nil, toStatusError(err)
	}
	values := make([]any, 0, len(departments))
	for _, d := range departments {
		values = append(values, d)
	}
	return toStruct(map[string]any{"departments": values})
}

// GetDashboard は HR ダッシュボードを返します。
func (h *OnboardingHandler) GetDashboard(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	actor, err := principal(ctx)
	if err != nil {
		return nil, err
	}

	summary, err := h.onboarding.Dashboard(ctx, actor)
	if err != nil {
		return nil, toStatusError(err)
	}
	return toStruct(map[string]any{
		"total_onboarded":                  summary.TotalOnboarded,
		"employees_in_progress":            summary.EmployeesInProgress,
		"employees_with_pending_tasks":     summary.EmployeesWithPendingTasks,
		"employees_with_pending_documents": summary.EmployeesWithPendingDocuments,
		"recent_onboardings":               list(summary.RecentOnboardings, employeeMessage),
	})
}

// GetMyDashboard は呼び出し元社員のダッシュボードを返します。
func (h *OnboardingHandler) GetMyDashboard(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	actor, err := principal(ctx)
	if err != nil {
		return nil, err
	}

	dash, err := h.onboarding.EmployeeDashboard(ctx, actor.UserID)
	if err != nil {
		return nil, toStatusError(err)
	}
	return toStruct(map[string]any{
		"employee":        employeeMessage(dash.Employee),
		"pending_tasks":   list(dash.PendingTasks, taskMessage),
		"completed_tasks": list(dash.CompletedTasks, taskMessage),
		"documents":       list(dash.Documents, documentMessage),
		"progress":        progressMessage(dash.Progress),
	})
}

// GetCompletion は完了率と次のアクションを返します。
func (h *OnboardingHandler) GetCompletion(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	employeeID, err := h.resolveEmployeeID(ctx, newFields(req).str("employee_id"))
	if err != nil {
		return nil, err
	}

	percentage, err := h.onboarding.CompletionPercentage(ctx, employeeID)
	if err != nil {
		return nil, toStatusError(err)
	}
	next, err := h.onboarding.NextAction(ctx, employeeID)
	if err != nil {
		return nil, toStatusError(err)
	}
	return toStruct(map[string]any{
		"employee_id": employeeID,
		"percentage":  percentage,
		"next_action": next,
	})
}

// ListTasks は社員のタスクを返します。
func (h *OnboardingHandler) ListTasks(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	employeeID, err := h.resolveEmployeeID(ctx, newFields(req).str("employee_id"))
	if err != nil {
		return nil, err
	}

	tasks, err := h.tasks.ListTasks(ctx, employeeID)
	if err != nil {
		return nil, toStatusError(err)
	}
	return toStruct(map[string]any{"tasks": list(tasks, taskMessage)})
}

// CompleteTask はタスクを完了にします。
func (h *OnboardingHandler) CompleteTask(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := newFields(req)
	employeeID, err := h.resolveEmployeeID(ctx, f.str("employee_id"))
	if err != nil {
		return nil, err
	}

	completed, err := h.tasks.CompleteTask(ctx, task.CompleteTaskInput{
		EmployeeID: employeeID,
		TaskType:   f.str("task_type"),
		Notes:      f.optStr("notes"),
	})
	if err != nil {
		return nil, toStatusError(err)
	}
	return toStruct(map[string]any{"task": taskMessage(completed)})
}

// SubmitDocuments は呼び出し元社員の書類をまとめて提出します。
func (h *OnboardingHandler) SubmitDocuments(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	employeeID, err := h.selfEmployeeID(ctx)
	if err != nil {
		return nil, err
	}
	f := newFields(req)

	docs, err := h.documents.SubmitDocuments(ctx, document.SubmitDocumentsInput{
		EmployeeID:     employeeID,
		IDProofURL:     f.str("id_proof_url"),
		PanAadharURL:   f.str("pan_aadhar_url"),
		BankDetailsURL: f.str("bank_details_url"),
		OfferLetterURL: f.str("offer_letter_url"),
	})
	if err != nil {
		return nil, toStatusError(err)
	}
	return toStruct(map[string]any{"documents": list(docs, documentMessage)})
}

// SubmitDocument は書類を 1 件提出または再提出します。
func (h *OnboardingHandler) SubmitDocument(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	employeeID, err := h.selfEmployeeID(ctx)
	if err != nil {
		return nil, err
	}
	f := newFields(req)

	doc, err := h.documents.SubmitOrUpdate(ctx, document.SubmitOrUpdateInput{
		EmployeeID: employeeID,
		Type:       f.str("document_type"),
		URL:        f.str("document_url"),
	})
	if err != nil {
		return nil, toStatusError(err)
	}
	return toStruct(map[string]any{"document": documentMessage(doc)})
}

// UpdateDocument は提出済み書類の URL を差し替えます。
func (h *OnboardingHandler) UpdateDocument(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	employeeID, err := h.selfEmployeeID(ctx)
	if err != nil {
		return nil, err
	}
	f := newFields(req)

	doc, err := h.documents.UpdateDocument(ctx, document.UpdateDocumentInput{
		EmployeeID: employeeID,
		DocumentID: f.str("document_id"),
		URL:        f.str("document_url"),
	})
	if err != nil {
		return nil, toStatusError(err)
	}
	return toStruct(map[string]any{"document": documentMessage(doc)})
}

// ReviewDocument は HR が書類を承認または却下します。
func (h *OnboardingHandler) ReviewDocument(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	f := newFields(req)

	doc, err := h.documents.Review(ctx, document.ReviewInput{
		Actor:      actor,
		DocumentID: f.str("document_id"),
		Status:     f.str("status"),
		Comments:   f.optStr("comments"),
	})
	if err != nil {
		return nil, toStatusError(err)
	}
	return toStruct(map[string]any{"document": documentMessage(doc)})
}

// ListDocuments は社員の書類を返します。
func (h *OnboardingHandler) ListDocuments(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	employeeID, err := h.resolveEmployeeID(ctx, newFields(req).str("employee_id"))
	if err != nil {
		return nil, err
	}

	docs, err := h.documents.ListDocuments(ctx, employeeID)
	if err != nil {
		return nil, toStatusError(err)
	}
	return toStruct(map[string]any{"documents": list(docs, documentMessage)})
}

// CompleteOnboarding はオンボーディングを完了にします。
func (h *OnboardingHandler) CompleteOnboarding(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := principal(ctx)
	if err != nil {
		return nil, err
	}

	completed, err := h.onboarding.CompleteOnboarding(ctx, onboarding.CompleteOnboardingInput{
		Actor:      actor,
		EmployeeID: newFields(req).str("employee_id"),
	})
	if err != nil {
		return nil, toStatusError(err)
	}
	return toStruct(map[string]any{"employee": employeeMessage(completed)})
}

// resolveEmployeeID は HR/ADMIN なら指定された社員 ID を、それ以外は呼び出し元自身の社員 ID を返します。
func (h *OnboardingHandler) resolveEmployeeID(ctx context.Context, requested string) (string, error) {
	actor, err := principal(ctx)
	if err != nil {
		return "", err
	}
	if requested != "" && isStaff(actor) {
		return requested, nil
	}

	own, err := h.selfEmployeeID(ctx)
	if err != nil {
		return "", err
	}
	if requested != "" && !sameID(requested, own) {
		return "", status.Error(codes.PermissionDenied, "cannot access another employee's onboarding")
	}
	return own, nil
}

func (h *OnboardingHandler) selfEmployeeID(ctx context.Context) (string, error) {
	actor, err := principal(ctx)
	if err != nil {
		return "", err
	}
	emp, err := h.employees.GetEmployeeByUser(ctx, actor.UserID)
	if err != nil {
		return "", toStatusError(err)
	}
	return emp.ID, nil
}

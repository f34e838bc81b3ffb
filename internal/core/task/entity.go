package task

import "time"

// Type はオンボーディングタスクの種別です。
type Type string

const (
	TypePolicyAcknowledgment Type = "POLICY_ACKNOWLEDGMENT"
	TypeOrientationSession   Type = "ORIENTATION_SESSION"
	TypeDocumentSubmission   Type = "DOCUMENT_SUBMISSION"
)

// AllTypes は社員ごとに生成される全タスク種別を定義順で返します。
func AllTypes() []Type {
	return []Type{TypePolicyAcknowledgment, TypeOrientationSession, TypeDocumentSubmission}
}

// Description は種別ごとの既定説明文です。
func (t Type) Description() string {
	switch t {
	case TypePolicyAcknowledgment:
		return "Complete company policy acknowledgment"
	case TypeOrientationSession:
		return "Attend orientation session"
	case TypeDocumentSubmission:
		return "Submit required documents"
	default:
		return ""
	}
}

// ParseType は文字列をタスク種別に変換します。
func ParseType(raw string) (Type, bool) {
	for _, t := range AllTypes() {
		if string(t) == raw {
			return t, true
		}
	}
	return "", false
}

// Status はタスクの状態です。
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
)

// Task はオンボーディングタスクエンティティです。
type Task struct {
	ID          string
	EmployeeID  string
	Type        Type
	Description string
	Status      Status
	CompletedAt *time.Time
	Notes       *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsCompleted はタスクが完了済みかを返します。
func (t *Task) IsCompleted() bool {
	return t != nil && t.Status == StatusCompleted
}

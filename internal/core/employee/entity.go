package employee

import "time"

// OnboardingStatus は社員のオンボーディング状態を表します。
type OnboardingStatus string

const (
	StatusPending    OnboardingStatus = "PENDING"
	StatusInProgress OnboardingStatus = "IN_PROGRESS"
	StatusCompleted  OnboardingStatus = "COMPLETED"
)

// Employee はオンボーディング対象の社員エンティティです。
type Employee struct {
	ID               string
	UserID           string
	EmployeeNumber   string
	Department       string
	Designation      string
	JoiningDate      time.Time
	OnboardingStatus OnboardingStatus
	CreatedAt        time.Time
	UpdatedAt        time.Time
	User             *UserSnapshot
}

// UserSnapshot は社員に紐づくユーザー情報のスナップショットです。
type UserSnapshot struct {
	ID          string
	Email       string
	Name        string
	PhoneNumber string
}

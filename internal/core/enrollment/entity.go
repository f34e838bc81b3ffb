package enrollment

import (
	"time"

	"github.com/ogurasousui/onboarding-engine/internal/core/course"
	"github.com/ogurasousui/onboarding-engine/internal/core/user"
)

// Enrollment は受講者とコースの組です。
type Enrollment struct {
	ID         string
	StudentID  string
	CourseID   string
	EnrolledAt time.Time
}

// ModuleProgress は受講者ごとのモジュール完了状態です。
type ModuleProgress struct {
	ID          string
	StudentID   string
	ModuleID    string
	IsCompleted bool
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CourseProgress は受講者の受講中コースごとの進捗です。
type CourseProgress struct {
	Course           *course.Course
	EnrolledAt       time.Time
	CompletedModules int
	PublishedModules int
	Percentage       float64
}

// ModuleCompletion はモジュールごとの受講者完了状況です。
type ModuleCompletion struct {
	Module            *course.Module
	EnrolledStudents  int
	CompletedStudents int
	Percentage        float64
}

// CompletionReport はコースの完了状況レポートです。
type CompletionReport struct {
	Course            *course.Course
	EnrolledStudents  int
	Modules           []ModuleCompletion
	OverallPercentage float64
}

// StudentProgress はコース受講者一人分の進捗です。
type StudentProgress struct {
	Student          *user.User
	EnrolledAt       time.Time
	CompletedModules int
	PublishedModules int
	Percentage       float64
}

// Stats は HR が作成したコース全体の受講統計です。
type Stats struct {
	TotalCourses     int
	TotalEnrollments int
	AveragePerCourse float64
}

// Percentage は completed*100/total を返します。total が 0 の場合は 0 です。
func Percentage(completed, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(completed) * 100 / float64(total)
}

package handler

import (
	"github.com/ogurasousui/onboarding-engine/internal/core/course"
	"github.com/ogurasousui/onboarding-engine/internal/core/document"
	"github.com/ogurasousui/onboarding-engine/internal/core/employee"
	"github.com/ogurasousui/onboarding-engine/internal/core/enrollment"
	"github.com/ogurasousui/onboarding-engine/internal/core/onboarding"
	"github.com/ogurasousui/onboarding-engine/internal/core/task"
	"github.com/ogurasousui/onboarding-engine/internal/core/user"
)

func userMessage(u *user.User) map[string]any {
	roles := make([]any, 0, len(u.Roles))
	for _, r := range u.Roles {
		roles = append(roles, string(r))
	}
	return map[string]any{
		"id":           u.ID,
		"email":        u.Email,
		"name":         u.Name,
		"phone_number": u.PhoneNumber,
		"roles":        roles,
		"created_at":   timestamp(u.CreatedAt),
		"updated_at":   timestamp(u.UpdatedAt),
	}
}

func employeeMessage(e *employee.Employee) map[string]any {
	m := map[string]any{
		"id":                e.ID,
		"user_id":           e.UserID,
		"employee_number":   e.EmployeeNumber,
		"department":        e.Department,
		"designation":       e.Designation,
		"joining_date":      e.JoiningDate.UTC().Format(dateLayout),
		"onboarding_status": string(e.OnboardingStatus),
		"created_at":        timestamp(e.CreatedAt),
		"updated_at":        timestamp(e.UpdatedAt),
	}
	if e.User != nil {
		m["user"] = map[string]any{
			"id":           e.User.ID,
			"email":        e.User.Email,
			"name":         e.User.Name,
			"phone_number": e.User.PhoneNumber,
		}
	}
	return m
}

func taskMessage(t *task.Task) map[string]any {
	return map[string]any{
		"id":           t.ID,
		"employee_id":  t.EmployeeID,
		"task_type":    string(t.Type),
		"description":  t.Description,
		"status":       string(t.Status),
		"completed_at": optTimestamp(t.CompletedAt),
		"notes":        optString(t.Notes),
		"created_at":   timestamp(t.CreatedAt),
		"updated_at":   timestamp(t.UpdatedAt),
	}
}

func documentMessage(d *document.Document) map[string]any {
	m := map[string]any{
		"id":            d.ID,
		"employee_id":   d.EmployeeID,
		"document_type": string(d.Type),
		"display_name":  d.Type.DisplayName(),
		"mandatory":     d.Type.IsMandatory(),
		"document_url":  d.URL,
		"status":        string(d.Status),
		"created_at":    timestamp(d.CreatedAt),
		"updated_at":    timestamp(d.UpdatedAt),
	}
	if d.Review != nil {
		m["review"] = map[string]any{
			"reviewer_id":   d.Review.ReviewerID,
			"reviewer_name": d.Review.ReviewerName,
			"comments":      optString(d.Review.Comments),
			"reviewed_at":   timestamp(d.Review.ReviewedAt),
		}
	}
	return m
}

func progressMessage(p onboarding.Progress) map[string]any {
	return map[string]any{
		"percentage":          p.Percentage,
		"next_action":         p.NextAction,
		"total_tasks":         p.TotalTasks,
		"completed_tasks":     p.CompletedTasks,
		"pending_tasks":       p.PendingTasks,
		"mandatory_documents": p.MandatoryTypes,
		"approved_mandatory":  p.ApprovedMandatory,
		"total_documents":     p.TotalDocuments,
		"approved_documents":  p.ApprovedDocuments,
		"pending_documents":   p.PendingDocuments,
		"rejected_documents":  p.RejectedDocuments,
	}
}

func summaryMessage(s *onboarding.Summary) map[string]any {
	return map[string]any{
		"employee": employeeMessage(s.Employee),
		"progress": progressMessage(s.Progress),
	}
}

func courseMessage(c *course.Course) map[string]any {
	return map[string]any{
		"id":          c.ID,
		"owner_id":    c.OwnerID,
		"name":        c.Name,
		"description": c.Description,
		"created_at":  timestamp(c.CreatedAt),
		"updated_at":  timestamp(c.UpdatedAt),
	}
}

func moduleMessage(m *course.Module) map[string]any {
	return map[string]any{
		"id":           m.ID,
		"course_id":    m.CourseID,
		"title":        m.Title,
		"description":  m.Description,
		"content_type": string(m.ContentType),
		"content_url":  m.ContentURL,
		"is_published": m.IsPublished,
		"created_at":   timestamp(m.CreatedAt),
		"updated_at":   timestamp(m.UpdatedAt),
	}
}

func enrollmentMessage(e *enrollment.Enrollment) map[string]any {
	return map[string]any{
		"id":          e.ID,
		"student_id":  e.StudentID,
		"course_id":   e.CourseID,
		"enrolled_at": timestamp(e.EnrolledAt),
	}
}

func moduleProgressMessage(p *enrollment.ModuleProgress) map[string]any {
	return map[string]any{
		"id":           p.ID,
		"student_id":   p.StudentID,
		"module_id":    p.ModuleID,
		"is_completed": p.IsCompleted,
		"completed_at": optTimestamp(p.CompletedAt),
	}
}

func courseProgressMessage(p *enrollment.CourseProgress) map[string]any {
	return map[string]any{
		"course":            courseMessage(p.Course),
		"enrolled_at":       timestamp(p.EnrolledAt),
		"completed_modules": p.CompletedModules,
		"published_modules": p.PublishedModules,
		"percentage":        p.Percentage,
	}
}

func completionReportMessage(r *enrollment.CompletionReport) map[string]any {
	modules := make([]any, 0, len(r.Modules))
	for _, m := range r.Modules {
		modules = append(modules, map[string]any{
			"module":             moduleMessage(m.Module),
			"enrolled_students":  m.EnrolledStudents,
			"completed_students": m.CompletedStudents,
			"percentage":         m.Percentage,
		})
	}
	return map[string]any{
		"course":             courseMessage(r.Course),
		"enrolled_students":  r.EnrolledStudents,
		"modules":            modules,
		"overall_percentage": r.OverallPercentage,
	}
}

func studentProgressMessage(p *enrollment.StudentProgress) map[string]any {
	return map[string]any{
		"student":           userMessage(p.Student),
		"enrolled_at":       timestamp(p.EnrolledAt),
		"completed_modules": p.CompletedModules,
		"published_modules": p.PublishedModules,
		"percentage":        p.Percentage,
	}
}

package course

import "time"

// ContentType はモジュール教材の種別です。
type ContentType string

const (
	ContentVideo   ContentType = "VIDEO"
	ContentPDF     ContentType = "PDF"
	ContentArticle ContentType = "ARTICLE"
	ContentLink    ContentType = "LINK"
)

// ParseContentType は文字列を教材種別に変換します。
func ParseContentType(raw string) (ContentType, bool) {
	switch ct := ContentType(raw); ct {
	case ContentVideo, ContentPDF, ContentArticle, ContentLink:
		return ct, true
	default:
		return "", false
	}
}

// Course は HR が作成するコースです。
type Course struct {
	ID          string
	OwnerID     string
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Module はコースに属する教材単位です。公開済みのモジュールのみ受講対象になります。
type Module struct {
	ID          string
	CourseID    string
	Title       string
	Description string
	ContentType ContentType
	ContentURL  string
	IsPublished bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

package document

import "time"

// Type は提出書類の種別です。
type Type string

const (
	TypeIDProof     Type = "ID_PROOF"
	TypePanAadhar   Type = "PAN_AADHAR"
	TypeBankDetails Type = "BANK_DETAILS"
	TypeOfferLetter Type = "OFFER_LETTER"
)

// AllTypes は全書類種別を定義順で返します。
func AllTypes() []Type {
	return []Type{TypeIDProof, TypePanAadhar, TypeBankDetails, TypeOfferLetter}
}

// MandatoryTypes は必須書類種別を返します。
func MandatoryTypes() []Type {
	var mandatory []Type
	for _, t := range AllTypes() {
		if t.IsMandatory() {
			mandatory = append(mandatory, t)
		}
	}
	return mandatory
}

// IsMandatory は必須書類かを返します。
func (t Type) IsMandatory() bool {
	return t == TypeIDProof || t == TypeOfferLetter
}

// DisplayName は表示名です。
func (t Type) DisplayName() string {
	switch t {
	case TypeIDProof:
		return "ID Proof"
	case TypePanAadhar:
		return "PAN/Aadhar"
	case TypeBankDetails:
		return "Bank Account Details"
	case TypeOfferLetter:
		return "Offer Letter Acceptance"
	default:
		return ""
	}
}

// ParseType は文字列を書類種別に変換します。
func ParseType(raw string) (Type, bool) {
	for _, t := range AllTypes() {
		if string(t) == raw {
			return t, true
		}
	}
	return "", false
}

// Status は書類の審査状態です。
type Status string

const (
	StatusPendingReview Status = "PENDING_REVIEW"
	StatusApproved      Status = "APPROVED"
	StatusRejected      Status = "REJECTED"
)

// Review は最後の審査結果です。審査者と審査日時は常に組で設定されます。
type Review struct {
	ReviewerID   string
	ReviewerName string
	Comments     *string
	ReviewedAt   time.Time
}

// Document は社員が提出した書類エンティティです。
type Document struct {
	ID         string
	EmployeeID string
	Type       Type
	URL        string
	Status     Status
	Review     *Review
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// resubmit は URL を差し替えて審査待ちに戻し、審査結果を消去します。
func (d *Document) resubmit(url string, now time.Time) {
	d.URL = url
	d.Status = StatusPendingReview
	d.Review = nil
	d.UpdatedAt = now
}

// AllMandatoryApproved は全必須種別の書類が存在し、いずれも承認済みかを判定します。
func AllMandatoryApproved(docs []*Document) bool {
	approved := make(map[Type]bool, len(docs))
	for _, d := range docs {
		if d.Status == StatusApproved {
			approved[d.Type] = true
		}
	}
	for _, t := range MandatoryTypes() {
		if !approved[t] {
			return false
		}
	}
	return true
}

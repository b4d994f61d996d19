package model

import "time"

// ArtisanStatus is the lifecycle status of an artisan application record.
type ArtisanStatus string

const (
	ArtisanPending   ArtisanStatus = "pending"
	ArtisanApproved  ArtisanStatus = "approved"
	ArtisanRejected  ArtisanStatus = "rejected"
	ArtisanSuspended ArtisanStatus = "suspended"
)

// ArtisanStatuses lists every valid artisan status.
var ArtisanStatuses = []ArtisanStatus{
	ArtisanPending, ArtisanApproved, ArtisanRejected, ArtisanSuspended,
}

// Valid reports whether s is a known artisan status.
func (s ArtisanStatus) Valid() bool {
	for _, v := range ArtisanStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// IDProof is the identity verification sub-record. Verification is a
// metadata-only operation, not a status transition.
type IDProof struct {
	Type       string     `json:"type"`
	Number     string     `json:"number"`
	Verified   bool       `json:"verified"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
}

// BankDetails is the payout account sub-record, independently verifiable.
type BankDetails struct {
	AccountName   string     `json:"account_name"`
	AccountNumber string     `json:"account_number"`
	IFSC          string     `json:"ifsc"`
	BankName      string     `json:"bank_name"`
	Verified      bool       `json:"verified"`
	VerifiedAt    *time.Time `json:"verified_at,omitempty"`
	Notes         string     `json:"notes,omitempty"`
}

// Performance holds read-only aggregates derived elsewhere. Revenue is in
// paise.
type Performance struct {
	TotalProducts int     `json:"total_products"`
	TotalSales    int     `json:"total_sales"`
	TotalRevenue  int64   `json:"total_revenue"`
	Rating        float64 `json:"rating"`
}

// Artisan is an artisan application record. Created on application
// submission with status pending; approved and suspended cycle via
// suspend/reactivate. Rejected artisans cannot reapply with the same email,
// a rule enforced by the external registration component.
type Artisan struct {
	ID              string        `json:"id"`
	UserID          string        `json:"user_id,omitempty"`
	Status          ArtisanStatus `json:"status"`
	BusinessName    string        `json:"business_name"`
	FullName        string        `json:"full_name"`
	Specializations []string      `json:"specializations"`
	YearsExperience int           `json:"years_experience"`
	Address         string        `json:"address"`
	Email           string        `json:"email"`
	Phone           string        `json:"phone"`

	IDProof     *IDProof     `json:"id_proof,omitempty"`
	BankDetails *BankDetails `json:"bank_details,omitempty"`

	// Decision metadata, each set only by the corresponding transition.
	AdminNotes       string     `json:"admin_notes,omitempty"`
	ApprovedAt       *time.Time `json:"approved_at,omitempty"`
	ApprovedBy       string     `json:"approved_by,omitempty"`
	RejectedAt       *time.Time `json:"rejected_at,omitempty"`
	RejectionReason  string     `json:"rejection_reason,omitempty"`
	SuspendedAt      *time.Time `json:"suspended_at,omitempty"`
	SuspensionReason string     `json:"suspension_reason,omitempty"`

	Performance Performance `json:"performance"`

	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

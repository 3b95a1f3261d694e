package models

import (
	"time"

	"github.com/google/uuid"
)

// Party is a person named on a form: applicant, seller or buyer.
type Party struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// UnitKey identifies a flat within the society.
type UnitKey struct {
	FlatNumber string `json:"flatNumber"`
	Wing       string `json:"wing"`
}

type ShareCertificateDetails struct {
	MembershipNumber string   `json:"membershipNumber,omitempty"`
	CoApplicants     []string `json:"coApplicants,omitempty"`
	ReasonForRequest string   `json:"reasonForRequest,omitempty"`
	Declaration      bool     `json:"declaration"`
}

type Nominee struct {
	Name            string     `json:"name"`
	Relationship    string     `json:"relationship"`
	SharePercentage int        `json:"sharePercentage"`
	DateOfBirth     *time.Time `json:"dateOfBirth,omitempty"`
	Address         string     `json:"address,omitempty"`
	GuardianName    string     `json:"guardianName,omitempty"`
}

type NominationDetails struct {
	Nominees    []Nominee `json:"nominees"`
	Witnesses   []string  `json:"witnesses,omitempty"`
	Declaration bool      `json:"declaration"`
}

// NOCDetails holds NOC-only fields. Fee fields are frozen at creation.
type NOCDetails struct {
	NOCType              NOCType       `json:"nocType"`
	Buyer                *Party        `json:"buyer,omitempty"`
	PurposeDescription   *string       `json:"purposeDescription,omitempty"`
	NOCFees              int64         `json:"nocFees"`
	TransferFees         int64         `json:"transferFees"`
	TotalAmount          int64         `json:"totalAmount"`
	PaymentStatus        PaymentStatus `json:"paymentStatus"`
	PaymentTransactionID *string       `json:"paymentTransactionId,omitempty"`
	PaymentDate          *time.Time    `json:"paymentDate,omitempty"`
}

// Submission is the shape shared by share-certificate applications,
// nominations and NOC requests. Applicant is the seller for NOC requests.
type Submission struct {
	ID                    uuid.UUID        `json:"id"`
	Kind                  SubmissionKind   `json:"kind"`
	AcknowledgementNumber string           `json:"acknowledgementNumber"`
	FlatNumber            string           `json:"flatNumber"`
	Wing                  string           `json:"wing"`
	Applicant             Party            `json:"applicant"`
	Status                SubmissionStatus `json:"status"`
	AdminRemarks          *string          `json:"adminRemarks,omitempty"`
	ReviewedAt            *time.Time       `json:"reviewedAt,omitempty"`
	ReviewedBy            *string          `json:"reviewedBy,omitempty"`
	Documents             DocumentSet      `json:"documents,omitempty"`

	ShareCertificate *ShareCertificateDetails `json:"shareCertificate,omitempty"`
	Nomination       *NominationDetails       `json:"nomination,omitempty"`
	NOC              *NOCDetails              `json:"noc,omitempty"`

	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	DeletedAt *time.Time `json:"-"`
	Versioned
}

func (s *Submission) GetID() string {
	return s.ID.String()
}

func (s *Submission) UnitKey() UnitKey {
	return UnitKey{FlatNumber: s.FlatNumber, Wing: s.Wing}
}

// IsFeeBearing reports whether a NOC request carries a non-zero amount.
func (s *Submission) IsFeeBearing() bool {
	return s.Kind == KindNOC && s.NOC != nil && s.NOC.TotalAmount > 0
}

// IsSettled reports whether the payment side of the submission is complete.
// Non-NOC submissions and zero-fee NOCs are always settled.
func (s *Submission) IsSettled() bool {
	if !s.IsFeeBearing() {
		return true
	}
	return s.NOC.PaymentStatus == PaymentPaid
}

// HasSettlementGap flags an approved fee-bearing NOC whose payment is not Paid.
// Approval is not blocked on payment; this lets callers and audits detect it.
func (s *Submission) HasSettlementGap() bool {
	return s.Status == StatusApproved && !s.IsSettled()
}

// StatusHistory is one audit row written alongside every status change.
type StatusHistory struct {
	ID           uuid.UUID         `json:"id"`
	SubmissionID uuid.UUID         `json:"submissionId"`
	FromStatus   *SubmissionStatus `json:"fromStatus,omitempty"`
	ToStatus     SubmissionStatus  `json:"toStatus"`
	Remarks      *string           `json:"remarks,omitempty"`
	ChangedBy    string            `json:"changedBy"`
	ChangedAt    time.Time         `json:"changedAt"`
}

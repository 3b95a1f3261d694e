package dtos

import (
	"time"

	shared_dtos "github.com/poofware/society-service/pkg/dtos"
	"github.com/poofware/society-service/internal/models"
)

// PartyRequest is a named person on a form.
type PartyRequest struct {
	Name  string `json:"name" validate:"required,min=2,max=120"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone,omitempty" validate:"omitempty,e164"`
}

func (p PartyRequest) ToModel() models.Party {
	return models.Party{Name: p.Name, Email: p.Email, Phone: p.Phone}
}

type DocumentRequest struct {
	FileName string `json:"fileName" validate:"required"`
	FileURL  string `json:"fileUrl" validate:"required,url"`
	S3Key    string `json:"s3Key,omitempty"`
	FileSize int64  `json:"fileSize,omitempty" validate:"omitempty,gte=0"`
	FileType string `json:"fileType,omitempty"`
}

type NomineeRequest struct {
	Name            string     `json:"name" validate:"required"`
	Relationship    string     `json:"relationship" validate:"required"`
	SharePercentage int        `json:"sharePercentage" validate:"required,gt=0,lte=100"`
	DateOfBirth     *time.Time `json:"dateOfBirth,omitempty"`
	Address         string     `json:"address,omitempty"`
	GuardianName    string     `json:"guardianName,omitempty"`
}

// CreateSubmissionRequest covers all three forms. The kind comes from the URL;
// fields that do not apply to it are ignored.
type CreateSubmissionRequest struct {
	FlatNumber string                     `json:"flatNumber" validate:"required,max=20"`
	Wing       string                     `json:"wing" validate:"max=10"`
	Applicant  PartyRequest               `json:"applicant" validate:"required"`
	Documents  map[string]DocumentRequest `json:"documents,omitempty" validate:"omitempty,dive"`

	// Share certificate
	MembershipNumber string   `json:"membershipNumber,omitempty"`
	CoApplicants     []string `json:"coApplicants,omitempty"`
	ReasonForRequest string   `json:"reasonForRequest,omitempty"`

	// Nomination
	Nominees  []NomineeRequest `json:"nominees,omitempty" validate:"omitempty,max=10,dive"`
	Witnesses []string         `json:"witnesses,omitempty"`

	// NOC
	NOCType            string        `json:"nocType,omitempty" validate:"omitempty,oneof=FlatTransfer BankAccountTransfer MSEBBillChange Other"`
	Buyer              *PartyRequest `json:"buyer,omitempty" validate:"omitempty"`
	PurposeDescription *string       `json:"purposeDescription,omitempty" validate:"omitempty,max=2000"`

	Declaration bool `json:"declaration"`
}

// DocumentSet converts the upload map, skipping unknown slot names.
func (r CreateSubmissionRequest) DocumentSet(now time.Time) models.DocumentSet {
	if len(r.Documents) == 0 {
		return nil
	}
	out := make(models.DocumentSet, len(r.Documents))
	for name, d := range r.Documents {
		slot := models.DocumentSlot(name)
		if !slot.Valid() {
			continue
		}
		out[slot] = &models.DocumentRef{
			FileName:   d.FileName,
			FileURL:    d.FileURL,
			S3Key:      d.S3Key,
			FileSize:   d.FileSize,
			FileType:   d.FileType,
			UploadedAt: now,
		}
	}
	return out
}

type CheckPendingRequest struct {
	FlatNumber string `json:"flatNumber" validate:"required"`
	Wing       string `json:"wing"`
}

// TransitionStatusRequest is a staff review decision.
type TransitionStatusRequest struct {
	Status  string  `json:"status" validate:"required,oneof=Pending 'Under Review' Approved Rejected 'Document Required'"`
	Remarks *string `json:"adminRemarks,omitempty" validate:"omitempty,max=2000"`
}

type UpdatePaymentRequest struct {
	AcknowledgementNumber string     `json:"acknowledgementNumber" validate:"required"`
	PaymentStatus         string     `json:"paymentStatus" validate:"required,oneof=Pending Paid Failed"`
	TransactionID         *string    `json:"paymentTransactionId,omitempty" validate:"omitempty,max=120"`
	PaymentDate           *time.Time `json:"paymentDate,omitempty"`
}

// TrackSubmissionResponse is the public view of a submission: no contact
// details or documents.
type TrackSubmissionResponse struct {
	AcknowledgementNumber string                  `json:"acknowledgementNumber"`
	Kind                  models.SubmissionKind   `json:"kind"`
	Status                models.SubmissionStatus `json:"status"`
	FlatNumber            string                  `json:"flatNumber"`
	Wing                  string                  `json:"wing"`
	AdminRemarks          *string                 `json:"adminRemarks,omitempty"`
	NOCType               *models.NOCType         `json:"nocType,omitempty"`
	TotalAmount           *int64                  `json:"totalAmount,omitempty"`
	PaymentStatus         *models.PaymentStatus   `json:"paymentStatus,omitempty"`
	CreatedAt             time.Time               `json:"createdAt"`
	UpdatedAt             time.Time               `json:"updatedAt"`
}

func NewTrackSubmissionResponse(s *models.Submission) TrackSubmissionResponse {
	resp := TrackSubmissionResponse{
		AcknowledgementNumber: s.AcknowledgementNumber,
		Kind:                  s.Kind,
		Status:                s.Status,
		FlatNumber:            s.FlatNumber,
		Wing:                  s.Wing,
		AdminRemarks:          s.AdminRemarks,
		CreatedAt:             s.CreatedAt,
		UpdatedAt:             s.UpdatedAt,
	}
	if s.NOC != nil {
		t, amt, ps := s.NOC.NOCType, s.NOC.TotalAmount, s.NOC.PaymentStatus
		resp.NOCType, resp.TotalAmount, resp.PaymentStatus = &t, &amt, &ps
	}
	return resp
}

type ConfirmationResponse struct {
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}

type ValidationErrorDetail shared_dtos.ValidationErrorDetail

package utils

import (
	"errors"
	"fmt"

	"github.com/poofware/society-service/pkg/utils"
)

// Domain errors raised by the submission services and translated into
// AppErrors at the service boundary.
var (
	ErrDuplicateSubmission   = errors.New("duplicate_submission")
	ErrSubmissionNotFound    = errors.New("submission_not_found")
	ErrMissingDocuments      = errors.New("missing_documents")
	ErrMissingBuyerInfo      = errors.New("missing_buyer_info")
	ErrMissingPurpose        = errors.New("missing_purpose_description")
	ErrInvalidNomineeShares  = errors.New("invalid_nominee_shares")
	ErrInvalidKind           = errors.New("invalid_submission_kind")
	ErrInvalidStatus         = errors.New("invalid_submission_status")
	ErrInvalidNOCType        = errors.New("invalid_noc_type")
	ErrInvalidPaymentStatus  = errors.New("invalid_payment_status")
	ErrInvalidAckNumber      = errors.New("invalid_acknowledgement_number")
	ErrAckNumberTaken        = errors.New("acknowledgement_number_taken")
	ErrAckAllocationExceeded = errors.New("acknowledgement_allocation_exhausted")
	ErrNotNOCSubmission      = errors.New("not_a_noc_submission")
	ErrKindMismatch          = errors.New("submission_kind_mismatch")

	// SendGrid / Twilio rejected or could not be reached.
	ErrTransportFailure = fmt.Errorf("notification transport: %w", utils.ErrExternalServiceFailure)
)

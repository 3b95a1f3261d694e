package models

import "time"

// DocumentRef is the handle produced by object storage for an uploaded file.
// Only its presence matters to the lifecycle.
type DocumentRef struct {
	FileName   string    `json:"fileName"`
	FileURL    string    `json:"fileUrl"`
	S3Key      string    `json:"s3Key"`
	FileSize   int64     `json:"fileSize"`
	FileType   string    `json:"fileType"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// DocumentSlot names a document field on a submission form.
type DocumentSlot string

const (
	DocShareCertificate   DocumentSlot = "shareCertificateDocument"
	DocAgreement          DocumentSlot = "agreementDocument"
	DocMaintenanceReceipt DocumentSlot = "maintenanceReceiptDocument"
	DocSellerAadhaar      DocumentSlot = "sellerAadhaarDocument"
	DocBuyerAadhaar       DocumentSlot = "buyerAadhaarDocument"
	DocSellerPan          DocumentSlot = "sellerPanDocument"
	DocBuyerPan           DocumentSlot = "buyerPanDocument"
	DocBankLetter         DocumentSlot = "bankLetterDocument"
	DocIdentityProof      DocumentSlot = "identityProofDocument"
	DocElectricityBill    DocumentSlot = "electricityBillDocument"
	DocPropertyTaxReceipt DocumentSlot = "propertyTaxReceiptDocument"
	DocSupporting         DocumentSlot = "supportingDocument"

	// share certificate / nomination forms
	DocAllotmentLetter DocumentSlot = "allotmentLetterDocument"
	DocApplicantID     DocumentSlot = "applicantIdDocument"
	DocNomineeID       DocumentSlot = "nomineeIdDocument"
)

func (s DocumentSlot) Valid() bool {
	switch s {
	case DocShareCertificate, DocAgreement, DocMaintenanceReceipt, DocSellerAadhaar, DocBuyerAadhaar,
		DocSellerPan, DocBuyerPan, DocBankLetter, DocIdentityProof, DocElectricityBill,
		DocPropertyTaxReceipt, DocSupporting, DocAllotmentLetter, DocApplicantID, DocNomineeID:
		return true
	}
	return false
}

// DocumentSet maps slots to uploaded files. A nil entry counts as absent.
type DocumentSet map[DocumentSlot]*DocumentRef

func (d DocumentSet) Has(slot DocumentSlot) bool {
	if d == nil {
		return false
	}
	return d[slot] != nil
}

package models

// SubmissionKind identifies which of the three society forms a submission came from.
type SubmissionKind string

const (
	KindShareCertificate SubmissionKind = "share-certificate"
	KindNomination       SubmissionKind = "nomination"
	KindNOC              SubmissionKind = "noc"
)

var AllKinds = []SubmissionKind{KindShareCertificate, KindNomination, KindNOC}

func (k SubmissionKind) Valid() bool {
	switch k {
	case KindShareCertificate, KindNomination, KindNOC:
		return true
	}
	return false
}

// AckPrefix is the acknowledgement-number prefix printed on receipts.
func (k SubmissionKind) AckPrefix() string {
	switch k {
	case KindShareCertificate:
		return "SC"
	case KindNomination:
		return "NOM"
	case KindNOC:
		return "NOC"
	}
	return ""
}

// DisplayName is the human label used in emails.
func (k SubmissionKind) DisplayName() string {
	switch k {
	case KindShareCertificate:
		return "Share Certificate Application"
	case KindNomination:
		return "Nomination"
	case KindNOC:
		return "NOC Request"
	}
	return string(k)
}

// SubmissionStatus is the review state. Every status is reachable from every other.
type SubmissionStatus string

const (
	StatusPending          SubmissionStatus = "Pending"
	StatusUnderReview      SubmissionStatus = "Under Review"
	StatusApproved         SubmissionStatus = "Approved"
	StatusRejected         SubmissionStatus = "Rejected"
	StatusDocumentRequired SubmissionStatus = "Document Required"
)

var AllStatuses = []SubmissionStatus{
	StatusPending,
	StatusUnderReview,
	StatusApproved,
	StatusRejected,
	StatusDocumentRequired,
}

func (s SubmissionStatus) Valid() bool {
	for _, v := range AllStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// IsTerminal is only used for messaging; the lifecycle treats no status as final.
func (s SubmissionStatus) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// NOCType is the closed set of NOC request sub-types.
type NOCType string

const (
	NOCTypeFlatTransfer        NOCType = "FlatTransfer"
	NOCTypeBankAccountTransfer NOCType = "BankAccountTransfer"
	NOCTypeMSEBBillChange      NOCType = "MSEBBillChange"
	NOCTypeOther               NOCType = "Other"
)

var AllNOCTypes = []NOCType{
	NOCTypeFlatTransfer,
	NOCTypeBankAccountTransfer,
	NOCTypeMSEBBillChange,
	NOCTypeOther,
}

func (t NOCType) Valid() bool {
	for _, v := range AllNOCTypes {
		if v == t {
			return true
		}
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "Pending"
	PaymentPaid    PaymentStatus = "Paid"
	PaymentFailed  PaymentStatus = "Failed"
)

func (p PaymentStatus) Valid() bool {
	return p == PaymentPending || p == PaymentPaid || p == PaymentFailed
}

package services

import (
	"fmt"
	"slices"

	"github.com/poofware/society-service/internal/models"
)

// NOCTypeConfig is the single source of truth for everything that varies by
// NOC sub-type: fees, documents and conditional form fields.
type NOCTypeConfig struct {
	NOCType                    models.NOCType        `json:"nocType"`
	DisplayName                string                `json:"displayName"`
	RequiresBuyerInfo          bool                  `json:"requiresBuyerInfo"`
	RequiresPurposeDescription bool                  `json:"requiresPurposeDescription"`
	NOCFees                    int64                 `json:"nocFees"`
	TransferFees               int64                 `json:"transferFees"`
	RequiredDocuments          []models.DocumentSlot `json:"requiredDocuments"`
	OptionalDocuments          []models.DocumentSlot `json:"optionalDocuments"`
}

var documentLabels = map[models.DocumentSlot]string{
	models.DocShareCertificate:   "Copy of Share Certificate",
	models.DocAgreement:          "Sale Agreement",
	models.DocMaintenanceReceipt: "Latest Maintenance Receipt",
	models.DocSellerAadhaar:      "Seller Aadhaar Card",
	models.DocBuyerAadhaar:       "Buyer Aadhaar Card",
	models.DocSellerPan:          "Seller PAN Card",
	models.DocBuyerPan:           "Buyer PAN Card",
	models.DocBankLetter:         "Bank Letter",
	models.DocIdentityProof:      "Identity Proof",
	models.DocElectricityBill:    "Latest Electricity Bill",
	models.DocPropertyTaxReceipt: "Property Tax Receipt",
	models.DocSupporting:         "Supporting Document",
	models.DocAllotmentLetter:    "Allotment Letter",
	models.DocApplicantID:        "Applicant Identity Proof",
	models.DocNomineeID:          "Nominee Identity Proof",
}

// DocumentLabel returns the printable name of a document slot.
func DocumentLabel(slot models.DocumentSlot) string {
	if l, ok := documentLabels[slot]; ok {
		return l
	}
	return string(slot)
}

// DefaultNOCTypeConfigs is the society's current fee and document schedule.
func DefaultNOCTypeConfigs() []NOCTypeConfig {
	return []NOCTypeConfig{
		{
			NOCType:           models.NOCTypeFlatTransfer,
			DisplayName:       "Flat Transfer",
			RequiresBuyerInfo: true,
			NOCFees:           1000,
			TransferFees:      25000,
			RequiredDocuments: []models.DocumentSlot{
				models.DocShareCertificate,
				models.DocAgreement,
				models.DocMaintenanceReceipt,
				models.DocSellerAadhaar,
				models.DocBuyerAadhaar,
			},
			OptionalDocuments: []models.DocumentSlot{
				models.DocSellerPan,
				models.DocBuyerPan,
			},
		},
		{
			NOCType:     models.NOCTypeBankAccountTransfer,
			DisplayName: "Bank Account Transfer",
			RequiredDocuments: []models.DocumentSlot{
				models.DocShareCertificate,
				models.DocBankLetter,
				models.DocMaintenanceReceipt,
				models.DocIdentityProof,
			},
		},
		{
			NOCType:     models.NOCTypeMSEBBillChange,
			DisplayName: "MSEB Bill Change",
			RequiredDocuments: []models.DocumentSlot{
				models.DocMaintenanceReceipt,
				models.DocElectricityBill,
				models.DocIdentityProof,
			},
			OptionalDocuments: []models.DocumentSlot{
				models.DocPropertyTaxReceipt,
			},
		},
		{
			NOCType:                    models.NOCTypeOther,
			DisplayName:                "Other Purpose",
			RequiresPurposeDescription: true,
			RequiredDocuments: []models.DocumentSlot{
				models.DocShareCertificate,
				models.DocMaintenanceReceipt,
				models.DocIdentityProof,
				models.DocSupporting,
			},
		},
	}
}

// kindDocuments lists the document slots on the share-certificate and
// nomination forms. None of them are mandatory.
var kindDocuments = map[models.SubmissionKind][]models.DocumentSlot{
	models.KindShareCertificate: {models.DocApplicantID, models.DocAllotmentLetter, models.DocMaintenanceReceipt},
	models.KindNomination:       {models.DocApplicantID, models.DocNomineeID},
}

// NOCTypeRegistry serves NOCTypeConfig lookups. It is built once at process
// start and never changes afterwards.
type NOCTypeRegistry struct {
	entries map[models.NOCType]NOCTypeConfig
}

func NewNOCTypeRegistry() *NOCTypeRegistry {
	r, err := NewNOCTypeRegistryFrom(DefaultNOCTypeConfigs())
	if err != nil {
		panic(err)
	}
	return r
}

// NewNOCTypeRegistryFrom validates entries: every NOC type must be covered
// exactly once and every document slot must be a known one.
func NewNOCTypeRegistryFrom(entries []NOCTypeConfig) (*NOCTypeRegistry, error) {
	next := make(map[models.NOCType]NOCTypeConfig, len(entries))
	for _, e := range entries {
		if !e.NOCType.Valid() {
			return nil, fmt.Errorf("unknown noc type %q", e.NOCType)
		}
		if _, dup := next[e.NOCType]; dup {
			return nil, fmt.Errorf("duplicate config for noc type %q", e.NOCType)
		}
		if e.NOCFees < 0 || e.TransferFees < 0 {
			return nil, fmt.Errorf("negative fees for noc type %q", e.NOCType)
		}
		for _, slot := range append(slices.Clone(e.RequiredDocuments), e.OptionalDocuments...) {
			if !slot.Valid() {
				return nil, fmt.Errorf("unknown document slot %q for noc type %q", slot, e.NOCType)
			}
		}
		next[e.NOCType] = cloneConfig(e)
	}
	for _, t := range models.AllNOCTypes {
		if _, ok := next[t]; !ok {
			return nil, fmt.Errorf("missing config for noc type %q", t)
		}
	}
	return &NOCTypeRegistry{entries: next}, nil
}

// ConfigFor panics on an unknown type: callers validate input before asking.
func (r *NOCTypeRegistry) ConfigFor(t models.NOCType) NOCTypeConfig {
	e, ok := r.entries[t]
	if !ok {
		panic(fmt.Sprintf("noc type registry: no config for %q", t))
	}
	return cloneConfig(e)
}

// All returns the table in declaration order of models.AllNOCTypes.
func (r *NOCTypeRegistry) All() []NOCTypeConfig {
	out := make([]NOCTypeConfig, 0, len(models.AllNOCTypes))
	for _, t := range models.AllNOCTypes {
		out = append(out, r.ConfigFor(t))
	}
	return out
}

func cloneConfig(e NOCTypeConfig) NOCTypeConfig {
	e.RequiredDocuments = slices.Clone(e.RequiredDocuments)
	e.OptionalDocuments = slices.Clone(e.OptionalDocuments)
	return e
}

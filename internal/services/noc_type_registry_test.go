package services

import (
	"testing"

	"github.com/poofware/society-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistryFees(t *testing.T) {
	calc := NewFeeCalculator(NewNOCTypeRegistry())

	ft := calc.ComputeFees(models.NOCTypeFlatTransfer)
	assert.Equal(t, FeeDetails{NOCFees: 1000, TransferFees: 25000, TotalAmount: 26000, InitialPaymentStatus: models.PaymentPending}, ft)

	for _, typ := range []models.NOCType{models.NOCTypeBankAccountTransfer, models.NOCTypeMSEBBillChange, models.NOCTypeOther} {
		f := calc.ComputeFees(typ)
		assert.Zero(t, f.TotalAmount, typ)
		assert.Equal(t, models.PaymentPaid, f.InitialPaymentStatus, typ)
	}
}

func TestNewNOCTypeRegistryFrom_Validation(t *testing.T) {
	_, err := NewNOCTypeRegistryFrom(DefaultNOCTypeConfigs()[:3])
	assert.ErrorContains(t, err, "missing config")

	_, err = NewNOCTypeRegistryFrom(append(DefaultNOCTypeConfigs(), DefaultNOCTypeConfigs()[0]))
	assert.ErrorContains(t, err, "duplicate config")

	negative := DefaultNOCTypeConfigs()
	negative[1].NOCFees = -5
	_, err = NewNOCTypeRegistryFrom(negative)
	assert.ErrorContains(t, err, "negative fees")

	unknownRequired := DefaultNOCTypeConfigs()
	unknownRequired[0].RequiredDocuments = append(unknownRequired[0].RequiredDocuments, "bogusSlot")
	_, err = NewNOCTypeRegistryFrom(unknownRequired)
	assert.ErrorContains(t, err, `unknown document slot "bogusSlot"`)

	unknownOptional := DefaultNOCTypeConfigs()
	unknownOptional[2].OptionalDocuments = []models.DocumentSlot{"taxRecieptDocument"}
	_, err = NewNOCTypeRegistryFrom(unknownOptional)
	assert.ErrorContains(t, err, "unknown document slot")

	r, err := NewNOCTypeRegistryFrom(DefaultNOCTypeConfigs())
	require.NoError(t, err)
	assert.EqualValues(t, 25000, r.ConfigFor(models.NOCTypeFlatTransfer).TransferFees)
}

func TestRegistryReturnsCopies(t *testing.T) {
	r := NewNOCTypeRegistry()
	cfg := r.ConfigFor(models.NOCTypeOther)
	cfg.RequiredDocuments[0] = models.DocBankLetter

	again := r.ConfigFor(models.NOCTypeOther)
	assert.Equal(t, models.DocShareCertificate, again.RequiredDocuments[0])
	assert.True(t, again.RequiresPurposeDescription)

	all := r.All()
	require.Len(t, all, len(models.AllNOCTypes))
	for i, typ := range models.AllNOCTypes {
		assert.Equal(t, typ, all[i].NOCType)
	}
}

func TestEnclosuresForNonNOCKinds(t *testing.T) {
	res := NewEnclosureResolver(NewNOCTypeRegistry())
	encl := res.Resolve(&models.Submission{
		Kind:      models.KindNomination,
		Documents: models.DocumentSet{models.DocNomineeID: doc("n.pdf")},
	})
	require.Len(t, encl, 2)
	assert.True(t, encl[0].Optional)
	assert.False(t, encl[0].Present)
	assert.True(t, encl[1].Present)
	assert.Empty(t, res.MissingRequired(&models.Submission{Kind: models.KindShareCertificate}))
}

package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubmissionKindPrefixes(t *testing.T) {
	assert.Equal(t, "SC", KindShareCertificate.AckPrefix())
	assert.Equal(t, "NOM", KindNomination.AckPrefix())
	assert.Equal(t, "NOC", KindNOC.AckPrefix())
	assert.Equal(t, "", SubmissionKind("bogus").AckPrefix())
	assert.False(t, SubmissionKind("bogus").Valid())
}

func TestSettlementGap(t *testing.T) {
	sc := &Submission{Kind: KindShareCertificate, Status: StatusApproved}
	assert.True(t, sc.IsSettled())
	assert.False(t, sc.HasSettlementGap())

	free := &Submission{Kind: KindNOC, Status: StatusApproved, NOC: &NOCDetails{TotalAmount: 0, PaymentStatus: PaymentPaid}}
	assert.False(t, free.HasSettlementGap())

	unpaid := &Submission{Kind: KindNOC, Status: StatusApproved, NOC: &NOCDetails{TotalAmount: 26000, PaymentStatus: PaymentPending}}
	assert.False(t, unpaid.IsSettled())
	assert.True(t, unpaid.HasSettlementGap())

	unpaid.NOC.PaymentStatus = PaymentPaid
	assert.False(t, unpaid.HasSettlementGap())

	underReview := &Submission{Kind: KindNOC, Status: StatusUnderReview, NOC: &NOCDetails{TotalAmount: 26000, PaymentStatus: PaymentFailed}}
	assert.False(t, underReview.HasSettlementGap())
}

func TestDocumentSetHas(t *testing.T) {
	var empty DocumentSet
	assert.False(t, empty.Has(DocAgreement))

	set := DocumentSet{DocAgreement: &DocumentRef{FileName: "a.pdf"}, DocBuyerPan: nil}
	assert.True(t, set.Has(DocAgreement))
	assert.False(t, set.Has(DocBuyerPan))
}

func TestDocumentSlotValid(t *testing.T) {
	assert.True(t, DocSupporting.Valid())
	assert.True(t, DocNomineeID.Valid())
	assert.False(t, DocumentSlot("bogusSlot").Valid())
	assert.False(t, DocumentSet(nil).Has(DocSupporting))
}

package services

import "github.com/poofware/society-service/internal/models"

type FeeDetails struct {
	NOCFees              int64                `json:"nocFees"`
	TransferFees         int64                `json:"transferFees"`
	TotalAmount          int64                `json:"totalAmount"`
	InitialPaymentStatus models.PaymentStatus `json:"paymentStatus"`
}

type FeeCalculator struct {
	registry *NOCTypeRegistry
}

func NewFeeCalculator(registry *NOCTypeRegistry) *FeeCalculator {
	return &FeeCalculator{registry: registry}
}

// ComputeFees is called once per NOC request; the result is stored on the
// submission and never recomputed.
func (c *FeeCalculator) ComputeFees(t models.NOCType) FeeDetails {
	cfg := c.registry.ConfigFor(t)
	total := cfg.NOCFees + cfg.TransferFees
	status := models.PaymentPending
	if total == 0 {
		status = models.PaymentPaid
	}
	return FeeDetails{
		NOCFees:              cfg.NOCFees,
		TransferFees:         cfg.TransferFees,
		TotalAmount:          total,
		InitialPaymentStatus: status,
	}
}

// backend/src/processors/calculator.go
package processors

import "math"

// VAT rates for the Bolt settlement: app and cash gross earnings are taxed
// as transport services at 8%, everything else (campaigns, refunds,
// cancellation fees) at the standard 23%, and 23% of the platform fees is
// reclaimed. These coefficients are fixed business constants.
const (
	vatRateTransport = 0.08
	vatRateStandard  = 0.23
)

// CalculateBoltVAT computes the VAT due for one Bolt daily row. The fee
// deduction is unconditional, so small-earning, high-expense days can
// legitimately produce a negative result (a credit carried by the period
// report, not clamped here).
func CalculateBoltVAT(row CanonicalRow) float64 {
	return row.Val(FieldBruttoApp)*vatRateTransport +
		row.Val(FieldBruttoCash)*vatRateTransport +
		row.Val(FieldCampaign)*vatRateStandard +
		row.Val(FieldRefunds)*vatRateStandard +
		row.Val(FieldCancellations)*vatRateStandard -
		row.Val(FieldExpensesTotal)*vatRateStandard
}

// CalculateUberVAT computes the VAT due for one Uber daily row. Uber reports
// the tax components directly; the VAT due is their sum.
func CalculateUberVAT(row CanonicalRow) float64 {
	return row.Val(FieldTaxOnFee) +
		row.Val(FieldTaxGeneral) +
		row.Val(FieldTaxOnServiceFee)
}

// UberExpensesTotal derives total fees from the service fee and its tax.
// Uber encodes debits as negative amounts, hence the absolute value.
func UberExpensesTotal(row CanonicalRow) float64 {
	return math.Abs(row.Val(FieldServiceFee) + row.Val(FieldTaxOnServiceFee))
}

// UberCashCollected normalizes the collected-cash amount, which Uber also
// reports as a negative payout balance.
func UberCashCollected(row CanonicalRow) float64 {
	return math.Abs(row.Val(FieldCashCollected))
}

// backend/src/processors/calculator_test.go
package processors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func rowWith(values map[string]float64) CanonicalRow {
	return CanonicalRow{Numeric: values}
}

func TestCalculateBoltVAT(t *testing.T) {
	row := rowWith(map[string]float64{
		FieldBruttoApp:     1000,
		FieldBruttoCash:    500,
		FieldCampaign:      100,
		FieldRefunds:       50,
		FieldCancellations: 30,
		FieldExpensesTotal: 200,
	})

	// 8% of 1500 + 23% of 180 - 23% of 200 = 120 + 41.4 - 46
	assert.InDelta(t, 115.4, CalculateBoltVAT(row), 1e-9)
}

func TestCalculateBoltVATCanGoNegative(t *testing.T) {
	row := rowWith(map[string]float64{
		FieldBruttoApp:     10,
		FieldExpensesTotal: 100,
	})

	// 0.8 - 23 = -22.2, kept signed as a VAT credit
	assert.InDelta(t, -22.2, CalculateBoltVAT(row), 1e-9)
}

func TestCalculateBoltVATMissingFieldsAreZero(t *testing.T) {
	assert.Zero(t, CalculateBoltVAT(rowWith(nil)))
}

func TestCalculateUberVAT(t *testing.T) {
	row := rowWith(map[string]float64{
		FieldTaxOnFee:        50,
		FieldTaxGeneral:      30,
		FieldTaxOnServiceFee: 20,
	})

	assert.InDelta(t, 100.0, CalculateUberVAT(row), 1e-9)
}

func TestUberExpensesTotal(t *testing.T) {
	row := rowWith(map[string]float64{
		FieldServiceFee:      -80.5,
		FieldTaxOnServiceFee: -18.5,
	})

	assert.InDelta(t, 99.0, UberExpensesTotal(row), 1e-9)
}

func TestUberCashCollected(t *testing.T) {
	row := rowWith(map[string]float64{FieldCashCollected: -240.75})
	assert.InDelta(t, 240.75, UberCashCollected(row), 1e-9)
}

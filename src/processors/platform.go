// backend/src/processors/platform.go
package processors

import (
	"fmt"

	"github.com/username/fleetfolio/backend/src/models"
)

// Platform tags as they appear in import summaries.
const (
	PlatformBolt = "bolt"
	PlatformUber = "uber"
)

// Canonical field names both platform exports are mapped onto.
const (
	FieldPlatformID = "platform_id"
	FieldDriverName = "driver_name"
	FieldFirstName  = "first_name"
	FieldLastName   = "last_name"

	FieldGrossTotal      = "gross_total"
	FieldExpensesTotal   = "expenses_total"
	FieldNetIncome       = "net_income"
	FieldCashCollected   = "cash_collected"
	FieldBruttoApp       = "brutto_app"
	FieldBruttoCash      = "brutto_cash"
	FieldCampaign        = "campaign"
	FieldRefunds         = "refunds"
	FieldCancellations   = "cancellations"
	FieldGrossNetIncome  = "gross_net_income"
	FieldServiceFee      = "service_fee"
	FieldTaxOnFee        = "tax_on_fee"
	FieldTaxGeneral      = "tax_general"
	FieldTaxOnServiceFee = "tax_on_service_fee"
)

// PlatformConfig declares everything platform-specific about one export
// format: which source headers map to which canonical fields, which of those
// are numeric, which user column identifies the driver, and which ledger
// table the rows land in. Configs are static; adding a platform means adding
// a config and a calculator, nothing in the orchestration changes.
type PlatformConfig struct {
	Platform      string
	ColumnMapping map[string]string
	NumericFields []string
	LookupColumn  string
	Table         string
}

// The source headers are the exact column names of the vendors' Polish CSV
// exports. They are an external, versionless contract: columns may come and
// go between vendor releases, which is why missing numeric columns default
// to zero instead of failing.
var boltConfig = &PlatformConfig{
	Platform: PlatformBolt,
	ColumnMapping: map[string]string{
		"Kierowca":                                    FieldDriverName,
		"Identyfikator kierowcy":                      FieldPlatformID,
		"Zarobki brutto (ogółem)|ZŁ":                  FieldGrossTotal,
		"Opłaty ogółem|ZŁ":                            FieldExpensesTotal,
		"Zarobki netto|ZŁ":                            FieldNetIncome,
		"Pobrana gotówka|ZŁ":                          FieldCashCollected,
		"Zarobki brutto (płatności w aplikacji)|ZŁ":   FieldBruttoApp,
		"Zarobki brutto (płatności gotówkowe)|ZŁ":     FieldBruttoCash,
		"Zarobki z kampanii|ZŁ":                       FieldCampaign,
		"Zwroty wydatków|ZŁ":                          FieldRefunds,
		"Opłaty za anulowanie|ZŁ":                     FieldCancellations,
	},
	NumericFields: []string{
		FieldGrossTotal, FieldExpensesTotal, FieldNetIncome, FieldCashCollected,
		FieldBruttoApp, FieldBruttoCash, FieldCampaign, FieldRefunds, FieldCancellations,
	},
	LookupColumn: "bolt_id",
	Table:        models.TableBoltEarnings,
}

var uberConfig = &PlatformConfig{
	Platform: PlatformUber,
	ColumnMapping: map[string]string{
		"Identyfikator UUID kierowcy": FieldPlatformID,
		"Imię kierowcy":               FieldFirstName,
		"Nazwisko kierowcy":           FieldLastName,
		"Wypłacono Ci : Twój przychód":                                  FieldGrossNetIncome,
		"Wypłacono Ci : Bilans przejazdu : Wypłaty : Odebrana gotówka":  FieldCashCollected,
		"Wypłacono Ci:Twój przychód:Opłata za usługę":                   FieldServiceFee,
		"Wypłacono Ci:Twój przychód:Opłata:Podatek od opłaty":           FieldTaxOnFee,
		"Wypłacono Ci:Twój przychód:Podatki:Podatek":                    FieldTaxGeneral,
		"Wypłacono Ci:Twój przychód:Podatki:Podatek od opłaty za usługę": FieldTaxOnServiceFee,
	},
	NumericFields: []string{
		FieldGrossNetIncome, FieldCashCollected, FieldServiceFee,
		FieldTaxOnFee, FieldTaxGeneral, FieldTaxOnServiceFee,
	},
	LookupColumn: "uber_id",
	Table:        models.TableUberEarnings,
}

// ConfigFor returns the static config for a detected platform tag.
func ConfigFor(platform string) (*PlatformConfig, error) {
	switch platform {
	case PlatformBolt:
		return boltConfig, nil
	case PlatformUber:
		return uberConfig, nil
	default:
		return nil, fmt.Errorf("unknown platform: %s", platform)
	}
}

package services

import (
	"garagedesk/internal/repos"
)

// Bill is the money breakdown for one repair. Arithmetic is plain float64;
// two-decimal rounding is left to the templates.
type Bill struct {
	Subtotal  float64
	VATRate   float64
	VATAmount float64
	Total     float64
}

// LineTotal is the charge for one repair line: unit price times quantity
// plus the flat labor fee.
func LineTotal(it repos.ItemRow) float64 {
	return it.PriceAtTime*float64(it.Quantity) + it.LaborFee
}

// ComputeBill totals the given lines under the given VAT percentage.
// No lines means a zero bill.
func ComputeBill(items []repos.ItemRow, vatRate float64) Bill {
	var subtotal float64
	for _, it := range items {
		subtotal += LineTotal(it)
	}
	vat := subtotal * (vatRate / 100)
	return Bill{
		Subtotal:  subtotal,
		VATRate:   vatRate,
		VATAmount: vat,
		Total:     subtotal + vat,
	}
}

type BillingService struct {
	Repairs  *repos.RepairRepo
	Settings *repos.SettingsRepo
}

func NewBillingService(repairs *repos.RepairRepo, settings *repos.SettingsRepo) *BillingService {
	return &BillingService{Repairs: repairs, Settings: settings}
}

// Quote prices a repair with the live VAT rate. The rate is only snapshotted
// into the invoice when the payment commits.
func (s *BillingService) Quote(repairID int64) (Bill, []repos.ItemRow, error) {
	items, err := s.Repairs.Items(repairID)
	if err != nil {
		return Bill{}, nil, err
	}
	return ComputeBill(items, s.Settings.VATRate()), items, nil
}

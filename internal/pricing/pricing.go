// Package pricing computes demand-based ticket prices. Pure reads over
// registry state; nothing here mutates a sold counter.
package pricing

import (
	"time"

	"github.com/openvenue/settlement/internal/registry"
	"github.com/openvenue/settlement/pkg/errors"
)

// Quoter prices tier purchases. CapBps bounds the demand multiplier, in
// basis points of the unit price (30_000 means at most 3x).
type Quoter struct {
	CapBps int64
}

// Quote is a priced purchase broken down for display.
type Quote struct {
	UnitPrice     int64 `json:"unit_price"`
	Quantity      int64 `json:"quantity"`
	MultiplierBps int64 `json:"multiplier_bps"`
	Total         int64 `json:"total"`
}

// Price computes the total for buying quantity units of the tier at the
// given instant. The multiplier reads the sold counter before this purchase
// increments it, so two quotes at the same sold count agree. Errors are
// economic when another buyer could change the outcome, validation
// otherwise.
func (q Quoter) Price(tier *registry.Tier, quantity int64, now time.Time) (Quote, error) {
	if quantity <= 0 {
		return Quote{}, errors.New(errors.CodeValidation, "quantity must be positive")
	}
	if now.Before(tier.SaleStart) || !now.Before(tier.SaleEnd) {
		return Quote{}, errors.New(errors.CodeStateConflict, "tier sale window closed")
	}
	remaining := int64(tier.MaxSupply) - int64(tier.Sold)
	if quantity > remaining {
		return Quote{}, errors.Newf(errors.CodeEconomic, "only %d units remain", remaining)
	}

	multBps := q.multiplierBps(int64(tier.Sold), int64(tier.MaxSupply))
	total, err := scaleTotal(tier.UnitPrice, quantity, multBps)
	if err != nil {
		return Quote{}, err
	}
	return Quote{
		UnitPrice:     tier.UnitPrice,
		Quantity:      quantity,
		MultiplierBps: multBps,
		Total:         total,
	}, nil
}

// multiplierBps grows linearly with sell-through from 10_000 (1.0x) at zero
// sales to CapBps at sold-out, floor division throughout.
func (q Quoter) multiplierBps(sold, maxSupply int64) int64 {
	if sold > maxSupply {
		sold = maxSupply
	}
	return registry.BpsDenominator + sold*(q.CapBps-registry.BpsDenominator)/maxSupply
}

// scaleTotal is floor(unit * quantity * multBps / 10_000) with a floor of
// one smallest unit. Free tiers stay free regardless of demand.
func scaleTotal(unit, quantity, multBps int64) (int64, error) {
	if unit == 0 {
		return 0, nil
	}
	gross, err := mulCheck(unit, quantity)
	if err != nil {
		return 0, err
	}
	scaled, err := mulCheck(gross, multBps)
	if err != nil {
		return 0, err
	}
	total := scaled / registry.BpsDenominator
	if total < 1 {
		total = 1
	}
	return total, nil
}

func mulCheck(a, b int64) (int64, error) {
	product := a * b
	if a != 0 && product/a != b {
		return 0, errors.New(errors.CodeValidation, "amount overflows settlement units")
	}
	return product, nil
}

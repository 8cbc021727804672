// Package treasury keeps the pull-payment books: per-currency pending
// balances, the currency allow-list, and the fee/split distribution that
// feeds them. Credits now, transfers later on the recipient's own call.
package treasury

import (
	"math"

	"github.com/google/uuid"
	"github.com/openvenue/settlement/internal/registry"
	"github.com/openvenue/settlement/pkg/enums"
	"github.com/openvenue/settlement/pkg/errors"
	"github.com/openvenue/settlement/pkg/money"
)

// NativeExponent is the fractional precision of the native settlement
// currency.
const NativeExponent = 9

// MaxGross bounds a single distributable payment so every bps product in
// Distribute stays within int64.
const MaxGross = math.MaxInt64 / registry.BpsDenominator

// Treasury is the pending-withdrawal ledger and fee configuration. Not safe
// for concurrent use on its own; the engine serializes access.
type Treasury struct {
	Pending        map[enums.Currency]map[uuid.UUID]int64 `json:"pending"`
	ReferralTotals map[enums.Currency]map[uuid.UUID]int64 `json:"referral_totals"`
	Allowed        map[enums.Currency]int32               `json:"allowed"`
	Received       map[enums.Currency]int64               `json:"received"`
	PaidOut        map[enums.Currency]int64               `json:"paid_out"`

	ProtocolFeeBps    int64     `json:"protocol_fee_bps"`
	MaxProtocolFeeBps int64     `json:"max_protocol_fee_bps"`
	MaxPlatformFeeBps int64     `json:"max_platform_fee_bps"`
	FeeCollector      uuid.UUID `json:"fee_collector"`
}

// New returns a treasury with only the native currency allow-listed.
func New(feeCollector uuid.UUID, feeBps, maxProtocolBps, maxPlatformBps int64) *Treasury {
	return &Treasury{
		Pending:           map[enums.Currency]map[uuid.UUID]int64{},
		ReferralTotals:    map[enums.Currency]map[uuid.UUID]int64{},
		Allowed:           map[enums.Currency]int32{enums.CurrencyNative: NativeExponent},
		Received:          map[enums.Currency]int64{},
		PaidOut:           map[enums.Currency]int64{},
		ProtocolFeeBps:    feeBps,
		MaxProtocolFeeBps: maxProtocolBps,
		MaxPlatformFeeBps: maxPlatformBps,
		FeeCollector:      feeCollector,
	}
}

// PlatformFee is the optional referral cut a selling platform attaches to a
// payment.
type PlatformFee struct {
	Referrer uuid.UUID
	FeeBps   int64
}

// Distribution reports where one gross payment went.
type Distribution struct {
	Currency    enums.Currency `json:"currency"`
	Gross       int64          `json:"gross"`
	PlatformFee int64          `json:"platform_fee"`
	ProtocolFee int64          `json:"protocol_fee"`
	SplitPaid   []int64        `json:"split_paid"`
	Dust        int64          `json:"dust"`
}

// Distribute allocates a gross payment already pulled into custody: platform
// fee first, protocol fee from the remainder, then the splits pro rata in
// their declared order. Per-recipient shares round down; the dust stays in
// custody rather than being distributed. Callers must have pulled the gross
// before calling, so every credit here is backed by held funds.
func (t *Treasury) Distribute(currency enums.Currency, gross int64, payer uuid.UUID, splits []registry.Split, platform *PlatformFee) (Distribution, error) {
	if err := t.ValidateDistribution(currency, gross, payer, platform); err != nil {
		return Distribution{}, err
	}

	dist := Distribution{Currency: currency, Gross: gross, SplitPaid: make([]int64, len(splits))}
	remainder := gross

	if platform != nil && platform.FeeBps != 0 {
		dist.PlatformFee = gross * platform.FeeBps / registry.BpsDenominator
		t.credit(currency, platform.Referrer, dist.PlatformFee)
		t.creditReferral(currency, platform.Referrer, dist.PlatformFee)
		remainder -= dist.PlatformFee
	}

	dist.ProtocolFee = remainder * t.ProtocolFeeBps / registry.BpsDenominator
	t.credit(currency, t.FeeCollector, dist.ProtocolFee)
	remainder -= dist.ProtocolFee

	distributed := int64(0)
	for i, split := range splits {
		paid := remainder * split.ShareBps / registry.BpsDenominator
		t.credit(currency, split.Recipient, paid)
		dist.SplitPaid[i] = paid
		distributed += paid
	}
	dist.Dust = remainder - distributed

	t.Received[currency] += gross
	return dist, nil
}

// ValidateDistribution checks every way Distribute can fail, so a caller
// can verify before pulling funds into custody.
func (t *Treasury) ValidateDistribution(currency enums.Currency, gross int64, payer uuid.UUID, platform *PlatformFee) error {
	if gross < 0 {
		return errors.New(errors.CodeValidation, "gross amount must not be negative")
	}
	if gross > MaxGross {
		return errors.New(errors.CodeValidation, "gross amount overflows settlement units")
	}
	if _, ok := t.Allowed[currency]; !ok {
		return errors.Newf(errors.CodeEconomic, "currency %s not allow-listed", currency)
	}
	if platform != nil && platform.FeeBps != 0 {
		if platform.FeeBps < 0 || platform.FeeBps > t.MaxPlatformFeeBps {
			return errors.Newf(errors.CodeEconomic, "platform fee exceeds %d bps", t.MaxPlatformFeeBps)
		}
		if platform.Referrer == uuid.Nil {
			return errors.New(errors.CodeEconomic, "platform fee requires a referrer")
		}
		if platform.Referrer == payer {
			return errors.New(errors.CodeEconomic, "self-referral rejected")
		}
	}
	return nil
}

// Receive records custody funds that bypass distribution, such as amounts
// held back for an excess-payment return.
func (t *Treasury) Receive(currency enums.Currency, amount int64) {
	t.Received[currency] += amount
}

// PendingOf returns the recipient's withdrawable balance.
func (t *Treasury) PendingOf(currency enums.Currency, recipient uuid.UUID) int64 {
	return t.Pending[currency][recipient]
}

// Debit zeroes the recipient's pending balance and returns what it held.
// The caller pays the amount out and either confirms with MarkPaidOut or
// undoes with Restore if the transfer failed.
func (t *Treasury) Debit(currency enums.Currency, recipient uuid.UUID) (int64, error) {
	amount := t.Pending[currency][recipient]
	if amount == 0 {
		return 0, errors.New(errors.CodeStateConflict, "nothing pending to withdraw")
	}
	delete(t.Pending[currency], recipient)
	return amount, nil
}

// Restore re-credits a debit whose payout failed.
func (t *Treasury) Restore(currency enums.Currency, recipient uuid.UUID, amount int64) {
	t.credit(currency, recipient, amount)
}

// MarkPaidOut records funds that left custody.
func (t *Treasury) MarkPaidOut(currency enums.Currency, amount int64) {
	t.PaidOut[currency] += amount
}

// AllowCurrency admits an external currency for payments. Re-allowing with
// a different exponent is rejected; amounts already booked under the old
// exponent would silently change meaning.
func (t *Treasury) AllowCurrency(currency enums.Currency, exponent int32) error {
	if !currency.IsValid() {
		return errors.New(errors.CodeValidation, "invalid currency code")
	}
	if exponent < 0 || exponent > money.MaxExponent {
		return errors.Newf(errors.CodeValidation, "exponent must be within [0, %d]", money.MaxExponent)
	}
	if existing, ok := t.Allowed[currency]; ok && existing != exponent {
		return errors.New(errors.CodeStateConflict, "currency already allow-listed with a different exponent")
	}
	t.Allowed[currency] = exponent
	return nil
}

// ExponentOf returns the display exponent of an allow-listed currency.
func (t *Treasury) ExponentOf(currency enums.Currency) (int32, error) {
	exponent, ok := t.Allowed[currency]
	if !ok {
		return 0, errors.Newf(errors.CodeEconomic, "currency %s not allow-listed", currency)
	}
	return exponent, nil
}

// SetProtocolFee reconfigures the global protocol fee.
func (t *Treasury) SetProtocolFee(bps int64) error {
	if bps < 0 || bps > t.MaxProtocolFeeBps {
		return errors.Newf(errors.CodeEconomic, "protocol fee must be within [0, %d] bps", t.MaxProtocolFeeBps)
	}
	t.ProtocolFeeBps = bps
	return nil
}

func (t *Treasury) credit(currency enums.Currency, recipient uuid.UUID, amount int64) {
	if amount == 0 {
		return
	}
	if t.Pending[currency] == nil {
		t.Pending[currency] = map[uuid.UUID]int64{}
	}
	t.Pending[currency][recipient] += amount
}

func (t *Treasury) creditReferral(currency enums.Currency, referrer uuid.UUID, amount int64) {
	if amount == 0 {
		return
	}
	if t.ReferralTotals[currency] == nil {
		t.ReferralTotals[currency] = map[uuid.UUID]int64{}
	}
	t.ReferralTotals[currency][referrer] += amount
}

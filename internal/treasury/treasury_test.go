package treasury

import (
	"testing"

	"github.com/google/uuid"
	"github.com/openvenue/settlement/internal/registry"
	"github.com/openvenue/settlement/pkg/enums"
	"github.com/openvenue/settlement/pkg/errors"
	"github.com/stretchr/testify/require"
)

func newTreasury(collector uuid.UUID) *Treasury {
	return New(collector, 50, 1_000, 500)
}

func TestDistributeSingleSplit(t *testing.T) {
	collector := uuid.New()
	organizer := uuid.New()
	payer := uuid.New()
	tr := newTreasury(collector)

	// 1003 units at a 50 bps protocol fee: fee floors to 5, organizer gets
	// 998, nothing lost.
	dist, err := tr.Distribute(enums.CurrencyNative, 1003, payer,
		[]registry.Split{{Recipient: organizer, ShareBps: 10_000}}, nil)
	require.NoError(t, err)
	require.Equal(t, int64(5), dist.ProtocolFee)
	require.Equal(t, int64(998), dist.SplitPaid[0])
	require.Equal(t, int64(0), dist.Dust)
	require.Equal(t, int64(5), tr.PendingOf(enums.CurrencyNative, collector))
	require.Equal(t, int64(998), tr.PendingOf(enums.CurrencyNative, organizer))
}

func TestDistributeWithPlatformFee(t *testing.T) {
	collector := uuid.New()
	organizer := uuid.New()
	referrer := uuid.New()
	payer := uuid.New()
	tr := newTreasury(collector)

	dist, err := tr.Distribute(enums.CurrencyNative, 10_000, payer,
		[]registry.Split{{Recipient: organizer, ShareBps: 10_000}},
		&PlatformFee{Referrer: referrer, FeeBps: 500})
	require.NoError(t, err)
	require.Equal(t, int64(500), dist.PlatformFee)
	// Protocol fee comes off the post-platform remainder.
	require.Equal(t, int64(47), dist.ProtocolFee)
	require.Equal(t, int64(9453), dist.SplitPaid[0])
	require.Equal(t, int64(500), tr.ReferralTotals[enums.CurrencyNative][referrer])
}

func TestDistributeRejectsBadReferral(t *testing.T) {
	tr := newTreasury(uuid.New())
	payer := uuid.New()
	splits := []registry.Split{{Recipient: uuid.New(), ShareBps: 10_000}}

	_, err := tr.Distribute(enums.CurrencyNative, 1000, payer, splits,
		&PlatformFee{Referrer: uuid.Nil, FeeBps: 100})
	require.True(t, errors.HasCode(err, errors.CodeEconomic))

	_, err = tr.Distribute(enums.CurrencyNative, 1000, payer, splits,
		&PlatformFee{Referrer: payer, FeeBps: 100})
	require.True(t, errors.HasCode(err, errors.CodeEconomic))

	_, err = tr.Distribute(enums.CurrencyNative, 1000, payer, splits,
		&PlatformFee{Referrer: uuid.New(), FeeBps: 501})
	require.True(t, errors.HasCode(err, errors.CodeEconomic))

	// Zero fee with no referrer is a plain payment.
	_, err = tr.Distribute(enums.CurrencyNative, 1000, payer, splits,
		&PlatformFee{FeeBps: 0})
	require.NoError(t, err)
}

func TestDistributeRejectsOversizedGross(t *testing.T) {
	collector := uuid.New()
	organizer := uuid.New()
	tr := newTreasury(collector)
	splits := []registry.Split{{Recipient: organizer, ShareBps: 10_000}}

	// A gross above MaxGross would wrap the bps products negative and
	// corrupt every pending balance downstream.
	_, err := tr.Distribute(enums.CurrencyNative, 2_000_000_000_000_000_000, uuid.New(), splits, nil)
	require.True(t, errors.HasCode(err, errors.CodeValidation))
	require.Equal(t, int64(0), tr.PendingOf(enums.CurrencyNative, organizer))
	require.Equal(t, int64(0), tr.PendingOf(enums.CurrencyNative, collector))
	require.Equal(t, int64(0), tr.Received[enums.CurrencyNative])

	_, err = tr.Distribute(enums.CurrencyNative, MaxGross+1, uuid.New(), splits, nil)
	require.True(t, errors.HasCode(err, errors.CodeValidation))

	// The bound itself still distributes cleanly.
	dist, err := tr.Distribute(enums.CurrencyNative, MaxGross, uuid.New(), splits, nil)
	require.NoError(t, err)
	require.GreaterOrEqual(t, dist.SplitPaid[0], int64(0))
	require.GreaterOrEqual(t, dist.Dust, int64(0))
}

func TestDistributeDustStaysInCustody(t *testing.T) {
	collector := uuid.New()
	tr := New(collector, 0, 1_000, 500)
	payer := uuid.New()
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	splits := []registry.Split{
		{Recipient: a, ShareBps: 3_333},
		{Recipient: b, ShareBps: 3_333},
		{Recipient: c, ShareBps: 3_334},
	}

	dist, err := tr.Distribute(enums.CurrencyNative, 100, payer, splits, nil)
	require.NoError(t, err)
	require.Equal(t, int64(33), dist.SplitPaid[0])
	require.Equal(t, int64(33), dist.SplitPaid[1])
	require.Equal(t, int64(33), dist.SplitPaid[2])
	require.Equal(t, int64(1), dist.Dust)

	pendingSum := dist.SplitPaid[0] + dist.SplitPaid[1] + dist.SplitPaid[2]
	require.LessOrEqual(t, pendingSum, tr.Received[enums.CurrencyNative])
}

func TestDistributeRejectsUnknownCurrency(t *testing.T) {
	tr := newTreasury(uuid.New())
	_, err := tr.Distribute(enums.Currency("EURC"), 100, uuid.New(),
		[]registry.Split{{Recipient: uuid.New(), ShareBps: 10_000}}, nil)
	require.True(t, errors.HasCode(err, errors.CodeEconomic))
}

func TestDebitRestoreMarkPaidOut(t *testing.T) {
	tr := newTreasury(uuid.New())
	recipient := uuid.New()
	tr.credit(enums.CurrencyNative, recipient, 750)

	amount, err := tr.Debit(enums.CurrencyNative, recipient)
	require.NoError(t, err)
	require.Equal(t, int64(750), amount)
	require.Equal(t, int64(0), tr.PendingOf(enums.CurrencyNative, recipient))

	_, err = tr.Debit(enums.CurrencyNative, recipient)
	require.True(t, errors.HasCode(err, errors.CodeStateConflict))

	tr.Restore(enums.CurrencyNative, recipient, amount)
	require.Equal(t, int64(750), tr.PendingOf(enums.CurrencyNative, recipient))

	amount, err = tr.Debit(enums.CurrencyNative, recipient)
	require.NoError(t, err)
	tr.MarkPaidOut(enums.CurrencyNative, amount)
	require.Equal(t, int64(750), tr.PaidOut[enums.CurrencyNative])
}

func TestAllowCurrency(t *testing.T) {
	tr := newTreasury(uuid.New())

	require.NoError(t, tr.AllowCurrency(enums.Currency("EURC"), 6))
	exp, err := tr.ExponentOf(enums.Currency("EURC"))
	require.NoError(t, err)
	require.Equal(t, int32(6), exp)

	// Same exponent is idempotent, a different one is not.
	require.NoError(t, tr.AllowCurrency(enums.Currency("EURC"), 6))
	err = tr.AllowCurrency(enums.Currency("EURC"), 2)
	require.True(t, errors.HasCode(err, errors.CodeStateConflict))

	err = tr.AllowCurrency(enums.Currency("bad code"), 2)
	require.True(t, errors.HasCode(err, errors.CodeValidation))

	err = tr.AllowCurrency(enums.Currency("TOOBIG"), 19)
	require.True(t, errors.HasCode(err, errors.CodeValidation))
}

func TestSetProtocolFee(t *testing.T) {
	tr := newTreasury(uuid.New())
	require.NoError(t, tr.SetProtocolFee(1_000))
	require.Equal(t, int64(1_000), tr.ProtocolFeeBps)

	err := tr.SetProtocolFee(1_001)
	require.True(t, errors.HasCode(err, errors.CodeEconomic))
	err = tr.SetProtocolFee(-1)
	require.True(t, errors.HasCode(err, errors.CodeEconomic))
}

package bank

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/openvenue/settlement/pkg/enums"
	"github.com/openvenue/settlement/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestMemoryGatewayPullPay(t *testing.T) {
	ctx := context.Background()
	g := NewMemoryGateway()
	payer, recipient := uuid.New(), uuid.New()
	g.Deposit(payer, enums.CurrencyNative, 1000)

	require.NoError(t, g.Pull(ctx, payer, enums.CurrencyNative, 400))
	require.Equal(t, int64(600), g.BalanceOf(payer, enums.CurrencyNative))
	require.Equal(t, int64(400), g.BalanceOf(CustodyID, enums.CurrencyNative))

	require.NoError(t, g.Pay(ctx, recipient, enums.CurrencyNative, 150))
	require.Equal(t, int64(250), g.BalanceOf(CustodyID, enums.CurrencyNative))
	require.Equal(t, int64(150), g.BalanceOf(recipient, enums.CurrencyNative))
}

func TestMemoryGatewayInsufficientFunds(t *testing.T) {
	ctx := context.Background()
	g := NewMemoryGateway()
	payer := uuid.New()
	g.Deposit(payer, enums.CurrencyNative, 100)

	err := g.Pull(ctx, payer, enums.CurrencyNative, 101)
	require.True(t, errors.HasCode(err, errors.CodeEconomic))
	// Failed transfers touch neither side.
	require.Equal(t, int64(100), g.BalanceOf(payer, enums.CurrencyNative))
	require.Equal(t, int64(0), g.BalanceOf(CustodyID, enums.CurrencyNative))
}

func TestMemoryGatewayCurrenciesIsolated(t *testing.T) {
	ctx := context.Background()
	g := NewMemoryGateway()
	payer := uuid.New()
	g.Deposit(payer, enums.Currency("EURC"), 500)

	err := g.Pull(ctx, payer, enums.CurrencyNative, 1)
	require.True(t, errors.HasCode(err, errors.CodeEconomic))
	require.NoError(t, g.Pull(ctx, payer, enums.Currency("EURC"), 500))
}

package token

import (
	"testing"

	"github.com/google/uuid"
	"github.com/openvenue/settlement/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestMintBurnSupply(t *testing.T) {
	l := NewLedger()
	alice := uuid.New()
	id := TicketID(1, 1, 0)

	require.NoError(t, l.Mint(alice, id, 3))
	require.Equal(t, int64(3), l.BalanceOf(alice, id))
	require.Equal(t, int64(3), l.TotalSupply[id])

	require.NoError(t, l.Burn(alice, id, 2))
	require.Equal(t, int64(1), l.BalanceOf(alice, id))
	require.Equal(t, int64(1), l.TotalSupply[id])

	err := l.Burn(alice, id, 2)
	require.True(t, errors.HasCode(err, errors.CodeEconomic))
}

func TestTransferByOwner(t *testing.T) {
	l := NewLedger()
	alice, bob := uuid.New(), uuid.New()
	id := TicketID(1, 1, 0)
	require.NoError(t, l.Mint(alice, id, 2))

	require.NoError(t, l.Transfer(alice, alice, bob, id, 1))
	require.Equal(t, int64(1), l.BalanceOf(alice, id))
	require.Equal(t, int64(1), l.BalanceOf(bob, id))

	err := l.Transfer(alice, alice, bob, id, 5)
	require.True(t, errors.HasCode(err, errors.CodeEconomic))
}

func TestTransferSoulboundRejectedBeforeAuthority(t *testing.T) {
	l := NewLedger()
	alice, bob, mallory := uuid.New(), uuid.New(), uuid.New()
	badge := BadgeID(7)
	require.NoError(t, l.Mint(alice, badge, 1))

	// The owner and a stranger fail identically.
	err := l.Transfer(alice, alice, bob, badge, 1)
	require.True(t, errors.HasCode(err, errors.CodeStateConflict))
	err = l.Transfer(mallory, alice, bob, badge, 1)
	require.True(t, errors.HasCode(err, errors.CodeStateConflict))
	require.Equal(t, int64(1), l.BalanceOf(alice, badge))
}

func TestTransferConsumesAllowance(t *testing.T) {
	l := NewLedger()
	alice, bob, carol := uuid.New(), uuid.New(), uuid.New()
	id := TicketID(3, 1, 0)
	require.NoError(t, l.Mint(alice, id, 5))
	require.NoError(t, l.Approve(alice, bob, id, 3))

	require.NoError(t, l.Transfer(bob, alice, carol, id, 2))
	require.Equal(t, int64(1), l.Allowance(alice, bob, id))

	err := l.Transfer(bob, alice, carol, id, 2)
	require.True(t, errors.HasCode(err, errors.CodeForbidden))

	require.NoError(t, l.Transfer(bob, alice, carol, id, 1))
	require.Equal(t, int64(0), l.Allowance(alice, bob, id))
}

func TestOperatorBypassesAllowance(t *testing.T) {
	l := NewLedger()
	alice, bob, carol := uuid.New(), uuid.New(), uuid.New()
	id := TicketID(3, 2, 0)
	require.NoError(t, l.Mint(alice, id, 4))
	require.NoError(t, l.SetOperator(alice, bob, true))

	require.NoError(t, l.Transfer(bob, alice, carol, id, 4))
	require.Equal(t, int64(4), l.BalanceOf(carol, id))

	require.NoError(t, l.SetOperator(alice, bob, false))
	require.False(t, l.IsOperator(alice, bob))
}

func TestApproveRules(t *testing.T) {
	l := NewLedger()
	alice, bob := uuid.New(), uuid.New()

	err := l.Approve(alice, bob, BadgeID(1), 1)
	require.True(t, errors.HasCode(err, errors.CodeStateConflict))

	err = l.Approve(alice, alice, TicketID(1, 1, 0), 1)
	require.True(t, errors.HasCode(err, errors.CodeValidation))

	id := TicketID(1, 1, 0)
	require.NoError(t, l.Approve(alice, bob, id, 2))
	require.NoError(t, l.Approve(alice, bob, id, 0))
	require.Equal(t, int64(0), l.Allowance(alice, bob, id))
}

func TestHolders(t *testing.T) {
	l := NewLedger()
	alice, bob := uuid.New(), uuid.New()
	id := TicketID(9, 1, 0)
	require.NoError(t, l.Mint(alice, id, 1))
	require.NoError(t, l.Mint(bob, id, 2))

	holders := l.Holders(id)
	require.Len(t, holders, 2)
	require.ElementsMatch(t, []uuid.UUID{alice, bob}, holders)
}

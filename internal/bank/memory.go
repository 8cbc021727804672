package bank

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/openvenue/settlement/pkg/enums"
	"github.com/openvenue/settlement/pkg/errors"
)

type accountKey struct {
	participant uuid.UUID
	currency    enums.Currency
}

// MemoryGateway keeps balances in process. Dev and test use only.
type MemoryGateway struct {
	mu       sync.Mutex
	balances map[accountKey]int64
}

// NewMemoryGateway returns an empty in-process gateway.
func NewMemoryGateway() *MemoryGateway {
	return &MemoryGateway{balances: map[accountKey]int64{}}
}

// Deposit seeds a participant balance.
func (g *MemoryGateway) Deposit(participant uuid.UUID, currency enums.Currency, amount int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.balances[accountKey{participant, currency}] += amount
}

// BalanceOf reads a participant balance.
func (g *MemoryGateway) BalanceOf(participant uuid.UUID, currency enums.Currency) int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.balances[accountKey{participant, currency}]
}

// Pull moves amount from the payer into custody.
func (g *MemoryGateway) Pull(_ context.Context, payer uuid.UUID, currency enums.Currency, amount int64) error {
	return g.move(payer, CustodyID, currency, amount)
}

// Pay moves amount from custody to the recipient.
func (g *MemoryGateway) Pay(_ context.Context, recipient uuid.UUID, currency enums.Currency, amount int64) error {
	return g.move(CustodyID, recipient, currency, amount)
}

func (g *MemoryGateway) move(from, to uuid.UUID, currency enums.Currency, amount int64) error {
	if amount < 0 {
		return errors.New(errors.CodeValidation, "transfer amount must not be negative")
	}
	if amount == 0 {
		return nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	fromKey := accountKey{from, currency}
	if g.balances[fromKey] < amount {
		return errors.New(errors.CodeEconomic, "insufficient funds")
	}
	g.balances[fromKey] -= amount
	g.balances[accountKey{to, currency}] += amount
	return nil
}

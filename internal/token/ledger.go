package token

import (
	"github.com/google/uuid"
	"github.com/openvenue/settlement/pkg/enums"
	"github.com/openvenue/settlement/pkg/errors"
)

// Ledger is the in-memory multi-asset balance book. It is not safe for
// concurrent use on its own; the engine serializes access.
//
// Maps are exported so snapshots can serialize the whole book without a
// parallel DTO layer.
type Ledger struct {
	Balances    map[ID]map[uuid.UUID]int64       `json:"balances"`
	Allowances  map[uuid.UUID]map[ID]allowedMap  `json:"allowances"`
	Operators   map[uuid.UUID]map[uuid.UUID]bool `json:"operators"`
	TotalSupply map[ID]int64                     `json:"total_supply"`
}

type allowedMap map[uuid.UUID]int64

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		Balances:    map[ID]map[uuid.UUID]int64{},
		Allowances:  map[uuid.UUID]map[ID]allowedMap{},
		Operators:   map[uuid.UUID]map[uuid.UUID]bool{},
		TotalSupply: map[ID]int64{},
	}
}

// BalanceOf returns the holder's balance for one token id.
func (l *Ledger) BalanceOf(holder uuid.UUID, id ID) int64 {
	return l.Balances[id][holder]
}

// HoldsAny reports whether the holder owns at least one unit of the id.
func (l *Ledger) HoldsAny(holder uuid.UUID, id ID) bool {
	return l.Balances[id][holder] > 0
}

// HoldsTicketFor reports whether the holder owns at least one ticket unit of
// the event, across all tiers and serials.
func (l *Ledger) HoldsTicketFor(holder uuid.UUID, event uint16) bool {
	for id, bucket := range l.Balances {
		fields := id.Decode()
		if fields.Class == enums.AssetClassEventTicket && fields.Event == event && bucket[holder] > 0 {
			return true
		}
	}
	return false
}

// Mint credits amount units of id to the holder and grows total supply.
func (l *Ledger) Mint(holder uuid.UUID, id ID, amount int64) error {
	if amount <= 0 {
		return errors.New(errors.CodeValidation, "mint amount must be positive")
	}
	bucket := l.Balances[id]
	if bucket == nil {
		bucket = map[uuid.UUID]int64{}
		l.Balances[id] = bucket
	}
	bucket[holder] += amount
	l.TotalSupply[id] += amount
	return nil
}

// Burn removes amount units of id from the holder and shrinks total supply.
func (l *Ledger) Burn(holder uuid.UUID, id ID, amount int64) error {
	if amount <= 0 {
		return errors.New(errors.CodeValidation, "burn amount must be positive")
	}
	if l.Balances[id][holder] < amount {
		return errors.New(errors.CodeEconomic, "burn exceeds balance")
	}
	l.Balances[id][holder] -= amount
	if l.Balances[id][holder] == 0 {
		delete(l.Balances[id], holder)
	}
	l.TotalSupply[id] -= amount
	return nil
}

// Approve lets spender move up to amount units of the owner's id balance.
// A zero amount clears the grant. Soulbound classes cannot be approved at
// all; the grant would be unusable and its existence misleading.
func (l *Ledger) Approve(owner, spender uuid.UUID, id ID, amount int64) error {
	if amount < 0 {
		return errors.New(errors.CodeValidation, "approval amount must not be negative")
	}
	if id.Class().Soulbound() {
		return errors.New(errors.CodeStateConflict, "token class is non-transferable")
	}
	if owner == spender {
		return errors.New(errors.CodeValidation, "cannot approve self")
	}
	byID := l.Allowances[owner]
	if amount == 0 {
		if byID != nil {
			delete(byID[id], spender)
		}
		return nil
	}
	if byID == nil {
		byID = map[ID]allowedMap{}
		l.Allowances[owner] = byID
	}
	if byID[id] == nil {
		byID[id] = allowedMap{}
	}
	byID[id][spender] = amount
	return nil
}

// Allowance returns the remaining grant from owner to spender for id.
func (l *Ledger) Allowance(owner, spender uuid.UUID, id ID) int64 {
	return l.Allowances[owner][id][spender]
}

// SetOperator grants or revokes blanket transfer rights over every
// transferable token the owner holds, now or later.
func (l *Ledger) SetOperator(owner, operator uuid.UUID, approved bool) error {
	if owner == operator {
		return errors.New(errors.CodeValidation, "cannot set self as operator")
	}
	if !approved {
		delete(l.Operators[owner], operator)
		return nil
	}
	if l.Operators[owner] == nil {
		l.Operators[owner] = map[uuid.UUID]bool{}
	}
	l.Operators[owner][operator] = true
	return nil
}

// IsOperator reports whether operator holds blanket rights over owner.
func (l *Ledger) IsOperator(owner, operator uuid.UUID) bool {
	return l.Operators[owner][operator]
}

// Transfer moves amount units of id from owner to recipient on behalf of
// caller. The soulbound check runs before any authority check so that a
// non-transferable class fails the same way for everyone, owner included.
// When the caller is neither the owner nor an operator, the move consumes
// allowance.
func (l *Ledger) Transfer(caller, owner, recipient uuid.UUID, id ID, amount int64) error {
	if amount <= 0 {
		return errors.New(errors.CodeValidation, "transfer amount must be positive")
	}
	if id.Class().Soulbound() {
		return errors.New(errors.CodeStateConflict, "token class is non-transferable")
	}
	if owner == recipient {
		return errors.New(errors.CodeValidation, "transfer to self")
	}
	if l.Balances[id][owner] < amount {
		return errors.New(errors.CodeEconomic, "transfer exceeds balance")
	}
	if caller != owner && !l.IsOperator(owner, caller) {
		granted := l.Allowance(owner, caller, id)
		if granted < amount {
			return errors.New(errors.CodeForbidden, "caller lacks transfer authority")
		}
		remaining := granted - amount
		if remaining == 0 {
			delete(l.Allowances[owner][id], caller)
		} else {
			l.Allowances[owner][id][caller] = remaining
		}
	}
	l.Balances[id][owner] -= amount
	if l.Balances[id][owner] == 0 {
		delete(l.Balances[id], owner)
	}
	l.Balances[id][recipient] += amount
	return nil
}

// Holders returns every holder of the id with a positive balance. Order is
// unspecified.
func (l *Ledger) Holders(id ID) []uuid.UUID {
	bucket := l.Balances[id]
	out := make([]uuid.UUID, 0, len(bucket))
	for holder, bal := range bucket {
		if bal > 0 {
			out = append(out, holder)
		}
	}
	return out
}

package bank

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/openvenue/settlement/pkg/db"
	"github.com/openvenue/settlement/pkg/db/models"
	"github.com/openvenue/settlement/pkg/enums"
	"github.com/openvenue/settlement/pkg/errors"
)

// AccountsGateway settles transfers against the accounts table. Debits are
// conditional updates so a concurrent spender cannot drive a balance
// negative.
type AccountsGateway struct {
	db *db.Client
}

// NewAccountsGateway returns a database-backed funds gateway.
func NewAccountsGateway(client *db.Client) (*AccountsGateway, error) {
	if client == nil {
		return nil, errors.New(errors.CodeInternal, "db client is required")
	}
	return &AccountsGateway{db: client}, nil
}

// Pull transfers amount from the payer into custody.
func (g *AccountsGateway) Pull(ctx context.Context, payer uuid.UUID, currency enums.Currency, amount int64) error {
	return g.transfer(ctx, payer, CustodyID, currency, amount)
}

// Pay transfers amount from custody to the recipient.
func (g *AccountsGateway) Pay(ctx context.Context, recipient uuid.UUID, currency enums.Currency, amount int64) error {
	return g.transfer(ctx, CustodyID, recipient, currency, amount)
}

func (g *AccountsGateway) transfer(ctx context.Context, from, to uuid.UUID, currency enums.Currency, amount int64) error {
	if amount < 0 {
		return errors.New(errors.CodeValidation, "transfer amount must not be negative")
	}
	if amount == 0 {
		return nil
	}
	return g.db.WithTx(ctx, func(tx *gorm.DB) error {
		res := tx.Model(&models.Account{}).
			Where("participant_id = ? AND currency = ? AND balance >= ?", from, string(currency), amount).
			Update("balance", gorm.Expr("balance - ?", amount))
		if res.Error != nil {
			return errors.Wrap(errors.CodeDependency, res.Error, "debiting account")
		}
		if res.RowsAffected == 0 {
			return errors.New(errors.CodeEconomic, "insufficient funds")
		}
		credit := models.Account{ParticipantID: to, Currency: string(currency), Balance: amount}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "participant_id"}, {Name: "currency"}},
			DoUpdates: clause.Assignments(map[string]any{"balance": gorm.Expr("accounts.balance + ?", amount)}),
		}).Create(&credit).Error
		if err != nil {
			return errors.Wrap(errors.CodeDependency, err, "crediting account")
		}
		return nil
	})
}

// Deposit seeds a participant balance outside settlement flows, used by dev
// tooling and tests.
func (g *AccountsGateway) Deposit(ctx context.Context, participant uuid.UUID, currency enums.Currency, amount int64) error {
	if amount <= 0 {
		return errors.New(errors.CodeValidation, "deposit amount must be positive")
	}
	account := models.Account{ParticipantID: participant, Currency: string(currency), Balance: amount}
	err := g.db.DB().WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "participant_id"}, {Name: "currency"}},
		DoUpdates: clause.Assignments(map[string]any{"balance": gorm.Expr("accounts.balance + ?", amount)}),
	}).Create(&account).Error
	if err != nil {
		return errors.Wrap(errors.CodeDependency, err, "crediting account")
	}
	return nil
}

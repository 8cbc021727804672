// Package bank is the funds gateway boundary: the engine pulls payments
// into custody and pays withdrawals and refunds out of it. Implementations
// move real balances; the engine only ever sees success or failure of a
// whole transfer.
package bank

import (
	"context"

	"github.com/google/uuid"
	"github.com/openvenue/settlement/pkg/enums"
)

// CustodyID is the reserved participant holding program custody funds in
// account-backed gateways.
var CustodyID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

// Gateway moves funds between participants and program custody. Both
// operations are atomic: a failure leaves both sides untouched.
type Gateway interface {
	// Pull transfers amount from the payer into custody.
	Pull(ctx context.Context, payer uuid.UUID, currency enums.Currency, amount int64) error
	// Pay transfers amount from custody to the recipient.
	Pay(ctx context.Context, recipient uuid.UUID, currency enums.Currency, amount int64) error
}

// Package guard blocks nested re-entry into value-moving operations. A
// funds gateway that calls back into the engine mid-operation would observe
// half-finished state; the guard fails that call before any lock is taken.
package guard

import (
	"context"

	"github.com/openvenue/settlement/pkg/errors"
)

type ctxKey struct{}

// Enter marks the context as inside a value-moving operation. A context
// already marked means a callee re-entered mid-call; that fails immediately.
// The mark lives exactly as long as the call's context, never persisted.
func Enter(ctx context.Context) (context.Context, error) {
	if Held(ctx) {
		return nil, errors.New(errors.CodeStateConflict, "reentrant call rejected")
	}
	return context.WithValue(ctx, ctxKey{}, struct{}{}), nil
}

// Held reports whether the context is inside a guarded operation.
func Held(ctx context.Context) bool {
	return ctx.Value(ctxKey{}) != nil
}

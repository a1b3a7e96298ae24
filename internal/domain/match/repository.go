package match

import "context"

// Reconciler persists a Record atomically: teams and players are created if
// absent, the game row is replaced, and the game's goal set is rewritten.
type Reconciler interface {
	Reconcile(ctx context.Context, record Record) error
}

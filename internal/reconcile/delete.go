package reconcile

import (
	"context"

	"fjacquet/purchase-ledger/internal/logging"
	"fjacquet/purchase-ledger/internal/models"
)

// DeleteProvider removes every purchase of provider together with their tag
// assignments and returns how many purchases were removed.
func (e *Engine) DeleteProvider(ctx context.Context, provider models.ProviderID) (int, error) {
	ids, err := e.store.DeletePurchasesByProvider(ctx, provider)
	if err != nil {
		return 0, err
	}
	if err := e.store.DeleteTagAssignments(ctx, ids...); err != nil {
		return len(ids), err
	}
	e.logger.Info("Deleted provider purchases",
		logging.F(logging.FieldProvider, string(provider)),
		logging.F(logging.FieldCount, len(ids)))
	return len(ids), nil
}

// DeleteAll wipes every purchase and every tag assignment.
func (e *Engine) DeleteAll(ctx context.Context) error {
	if err := e.store.ClearPurchases(ctx); err != nil {
		return err
	}
	if err := e.store.ClearTagAssignments(ctx); err != nil {
		return err
	}
	e.logger.Info("Deleted all purchases")
	return nil
}

// DeleteOne removes a single purchase and its tag assignments.
func (e *Engine) DeleteOne(ctx context.Context, id string) error {
	if err := e.store.DeletePurchase(ctx, id); err != nil {
		return err
	}
	if err := e.store.DeleteTagAssignments(ctx, id); err != nil {
		return err
	}
	e.logger.Debug("Deleted purchase", logging.F(logging.FieldPurchaseID, id))
	return nil
}

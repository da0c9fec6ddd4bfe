package cmd

import (
	"context"

	"statement-reconciliation-service/cmd/reconciler/config"
	"statement-reconciliation-service/internal/stores"
)

// openStores connects to PostgreSQL and returns the two stores plus a
// cleanup function.
func openStores(ctx context.Context, settings *config.Settings) (stores.TransactionStore, stores.LedgerStore, func(), error) {
	if err := settings.RequireDatabase(); err != nil {
		return nil, nil, nil, err
	}

	pool, err := stores.Connect(ctx, settings.DatabaseURL)
	if err != nil {
		return nil, nil, nil, err
	}

	return stores.NewPostgresTransactionStore(pool),
		stores.NewPostgresLedgerStore(pool),
		pool.Close,
		nil
}

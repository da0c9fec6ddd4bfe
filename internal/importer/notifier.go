package importer

import (
	"sync"

	"statement-reconciliation-service/internal/models"
	"statement-reconciliation-service/pkg/logger"
)

// Notifier fans out newly imported transactions to subscribers.
//
// Delivery is synchronous and in subscription order. Each subscriber runs
// under its own recover, so a panicking subscriber is logged and skipped
// without stopping delivery to the rest.
type Notifier struct {
	mu          sync.RWMutex
	subscribers []func(*models.BankTransaction)
	logger      logger.Logger
}

// NewNotifier creates a Notifier with no subscribers.
func NewNotifier() *Notifier {
	return &Notifier{
		logger: logger.GetGlobalLogger().WithComponent("notifier"),
	}
}

// Subscribe registers a callback invoked for every imported transaction.
func (n *Notifier) Subscribe(fn func(*models.BankTransaction)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.subscribers = append(n.subscribers, fn)
}

// Notify delivers a transaction to every subscriber.
func (n *Notifier) Notify(txn *models.BankTransaction) {
	n.mu.RLock()
	subscribers := make([]func(*models.BankTransaction), len(n.subscribers))
	copy(subscribers, n.subscribers)
	n.mu.RUnlock()

	for idx, fn := range subscribers {
		n.deliver(idx, fn, txn)
	}
}

func (n *Notifier) deliver(idx int, fn func(*models.BankTransaction), txn *models.BankTransaction) {
	defer func() {
		if r := recover(); r != nil {
			n.logger.WithFields(logger.Fields{
				"subscriber":     idx,
				"transaction_id": txn.ID,
				"panic":          r,
			}).Error("Subscriber panicked during delivery")
		}
	}()
	fn(txn)
}

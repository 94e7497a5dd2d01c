package processor

import (
	"context"
	"log"
	"time"

	"github.com/openbank/openbank/internal/cqrs"
	"github.com/openbank/openbank/internal/models"
)

// PendingLister exposes the stale-pending sweep query of the write store.
type PendingLister interface {
	ListPendingBefore(cutoff time.Time, limit int) ([]models.Transaction, error)
}

// Commander drives individual transactions through processing.
type Commander interface {
	ProcessTransaction(cqrs.ProcessTransactionCommand) (*models.Transaction, error)
}

// Processor periodically sweeps transactions that have been sitting in
// pending past the grace period and pushes them through processing. Manual
// processing stays available; the status guard in the write store makes a
// concurrent manual call and a sweep pick resolve to a single winner.
type Processor struct {
	store    PendingLister
	commands Commander
	interval time.Duration
	grace    time.Duration
	batch    int
}

type Config struct {
	Interval time.Duration
	Grace    time.Duration
	Batch    int
}

func NewProcessor(store PendingLister, commands Commander, config Config) *Processor {
	if config.Interval == 0 {
		config.Interval = 10 * time.Second
	}
	if config.Grace == 0 {
		config.Grace = 30 * time.Second
	}
	if config.Batch == 0 {
		config.Batch = 50
	}
	return &Processor{
		store:    store,
		commands: commands,
		interval: config.Interval,
		grace:    config.Grace,
		batch:    config.Batch,
	}
}

func (p *Processor) Start(ctx context.Context) error {
	log.Printf("Transaction processor started: interval=%s, grace=%s", p.interval, p.grace)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("Transaction processor stopping")
			return ctx.Err()
		case <-ticker.C:
			p.sweep()
		}
	}
}

// sweep runs one pass. Failures on individual transactions are logged and
// skipped; a failed transaction stays failed until someone retries it, and
// a transaction lost to a concurrent worker is simply no longer ours.
func (p *Processor) sweep() {
	cutoff := time.Now().Add(-p.grace)
	txns, err := p.store.ListPendingBefore(cutoff, p.batch)
	if err != nil {
		log.Printf("Failed to list pending transactions: %v", err)
		return
	}

	for _, txn := range txns {
		// Empty UserID marks the call as system-initiated, skipping the
		// ownership check.
		processed, err := p.commands.ProcessTransaction(cqrs.ProcessTransactionCommand{
			TransactionID: txn.ID,
		})
		if err != nil {
			log.Printf("Failed to process transaction %s: %v", txn.ID, err)
			continue
		}
		log.Printf("Processed transaction %s: status=%s", processed.ID, processed.Status)
	}
}

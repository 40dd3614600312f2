// Package docstore abstracts the durable document database the submission
// pipeline writes to. The only operation the core needs is an atomic
// multi-document batch: every write commits or none do.
package docstore

import "context"

// Write is one document in a batch. An empty ID asks the store to generate
// one; the assigned value is written back so later writes in the same batch
// can reference it.
type Write struct {
	Collection string
	ID         string
	Fields     map[string]any
}

// Store is the document database boundary.
type Store interface {
	// AtomicBatch applies all writes or none. No partial state is ever
	// observable, even on failure.
	AtomicBatch(ctx context.Context, writes []*Write) error
}

package sheets

import (
	"context"

	"tally/internal/core"
)

// TransactionWriter is the outbound port for the export pipeline. Append
// writes one transaction as a row and returns a reference to where it
// landed.
type TransactionWriter interface {
	Append(ctx context.Context, tx core.Transaction) (rowRef string, err error)
}

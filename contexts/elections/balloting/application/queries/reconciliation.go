package queries

import (
	"context"
	"strings"

	"agora/contexts/elections/balloting/domain/entities"
	domainerrors "agora/contexts/elections/balloting/domain/errors"
	"agora/contexts/elections/balloting/ports"
)

type ReconciliationQuery struct {
	Queue ports.ReconciliationQueue
}

// List returns queue items, optionally filtered by status. An empty status
// lists every item.
func (q ReconciliationQuery) List(ctx context.Context, rawStatus string) ([]entities.ReconciliationItem, error) {
	status := entities.ReconciliationStatus(strings.ToLower(strings.TrimSpace(rawStatus)))
	if status != "" && !status.Valid() {
		return nil, domainerrors.ErrInvalidInput
	}
	return q.Queue.ListReconciliation(ctx, status)
}

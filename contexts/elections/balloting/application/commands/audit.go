package commands

import (
	"context"
	"encoding/json"
	"time"

	"agora/contexts/elections/balloting/domain/entities"
	"agora/contexts/elections/balloting/ports"
)

func appendAudit(
	ctx context.Context,
	audit ports.AuditWriter,
	ids ports.IDGenerator,
	eventType string,
	actorID string,
	description string,
	metadata map[string]any,
	now time.Time,
) error {
	if audit == nil {
		return nil
	}
	eventID, err := ids.NewID(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		return err
	}
	event := entities.AuditEvent{
		EventID:     eventID,
		EventType:   eventType,
		Description: description,
		Metadata:    raw,
		CreatedAt:   now.UTC(),
	}
	if actorID != "" {
		actor := actorID
		event.ActorID = &actor
	}
	return audit.AppendAudit(ctx, event)
}

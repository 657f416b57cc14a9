package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/madr-project/apiserver/internal/mq"
)

// EventChannel is the broker channel carrying catalog change events.
const EventChannel = "catalog-events"

// CatalogEvent describes a mutation of a catalog record.
type CatalogEvent struct {
	Name       string    `json:"name"`
	Entity     string    `json:"entity"`
	EntityID   int       `json:"entity_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// publishEvent emits a catalog event best-effort. Event delivery never
// fails the mutation that triggered it.
func publishEvent(ctx context.Context, bus *mq.Bus, name, entity string, entityID int) {
	if bus == nil {
		return
	}

	event := CatalogEvent{
		Name:       name,
		Entity:     entity,
		EntityID:   entityID,
		OccurredAt: time.Now().UTC(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	if _, err := bus.Publish(ctx, EventChannel, data, map[string]string{"event": name}); err != nil {
		slog.Warn("failed to publish catalog event", "event", name, "error", err)
	}
}

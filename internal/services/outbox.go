package services

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"paygate/internal/store"
)

// recordDeliveries writes one pending outbox row per enabled endpoint inside
// the caller's transaction, so the obligation commits with the business event.
// The returned ids are enqueued for delivery only after commit.
func recordDeliveries(ctx context.Context, tx store.Tx, webhooks WebhookStore, merchantID, event string, payload map[string]string) ([]string, error) {
	hooks, err := webhooks.ListEnabled(ctx, tx, merchantID)
	if err != nil {
		return nil, err
	}
	if len(hooks) == 0 {
		return nil, nil
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(hooks))
	for _, hook := range hooks {
		id := uuid.NewString()
		if err := webhooks.CreateDelivery(ctx, tx, id, hook.ID, event, string(body)); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func mustJSON(value any) string {
	data, _ := json.Marshal(value)
	return string(data)
}

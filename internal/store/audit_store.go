package store

import "context"

type AuditStore struct {
	db DB
}

func NewAuditStore(db DB) *AuditStore {
	return &AuditStore{db: db}
}

func (s *AuditStore) Log(ctx context.Context, tx Execer, actorUserID, merchantID *string, action, resourceType, resourceID, data string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO audit_logs (id, actor_user_id, merchant_id, action, resource_type, resource_id, data)
		VALUES (gen_random_uuid()::text, $1, $2, $3, $4, $5, $6)
	`, actorUserID, merchantID, action, resourceType, resourceID, data)
	return err
}

type auditRow struct {
	ID           string  `db:"id"`
	ActorUserID  *string `db:"actor_user_id"`
	MerchantID   *string `db:"merchant_id"`
	Action       string  `db:"action"`
	ResourceType string  `db:"resource_type"`
	ResourceID   string  `db:"resource_id"`
	Data         string  `db:"data"`
	CreatedAt    any     `db:"created_at"`
}

func (s *AuditStore) ListByMerchant(ctx context.Context, merchantID string, limit, offset int) ([]map[string]any, error) {
	var rows []auditRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, actor_user_id, merchant_id, action, resource_type, resource_id, data, created_at
		FROM audit_logs
		WHERE merchant_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, merchantID, limit, offset)
	if err != nil {
		return nil, err
	}
	logs := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		logs = append(logs, map[string]any{
			"id":            row.ID,
			"actor_user_id": derefStringPtr(row.ActorUserID),
			"merchant_id":   derefStringPtr(row.MerchantID),
			"action":        row.Action,
			"resource_type": row.ResourceType,
			"resource_id":   row.ResourceID,
			"data":          row.Data,
			"created_at":    row.CreatedAt,
		})
	}
	return logs, nil
}

func derefStringPtr(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mmynk/bandpoints/internal/models"
)

func insertTransaction(ctx context.Context, tx *sqlx.Tx, txn *models.PointTransaction) error {
	// Generate ID if not set
	if txn.ID == "" {
		txn.ID = uuid.New().String()
	}
	if txn.CreatedAt == 0 {
		txn.CreatedAt = time.Now().Unix()
	}

	_, err := tx.ExecContext(ctx,
		`INSERT INTO point_transactions (id, user_id, admin_id, points, reason, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		txn.ID, txn.UserID, txn.AdminID, txn.Points, txn.Reason, txn.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert point transaction: %w", err)
	}
	return nil
}

// ListTransactionsByMember retrieves all point transactions for a member, newest first.
func (s *SQLiteStore) ListTransactionsByMember(ctx context.Context, memberID string) ([]models.PointTransaction, error) {
	var txns []models.PointTransaction
	err := s.db.SelectContext(ctx, &txns,
		`SELECT id, user_id, admin_id, points, reason, created_at
		 FROM point_transactions WHERE user_id = ? ORDER BY created_at DESC, rowid DESC`,
		memberID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list point transactions: %w", err)
	}
	return txns, nil
}

// ListAuditEvents retrieves audit events about a target, newest first.
func (s *SQLiteStore) ListAuditEvents(ctx context.Context, targetID string) ([]models.AuditEvent, error) {
	var events []models.AuditEvent
	err := s.db.SelectContext(ctx, &events,
		`SELECT id, actor_id, target_id, action, detail, created_at
		 FROM audit_events WHERE target_id = ? ORDER BY created_at DESC, rowid DESC`,
		targetID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit events: %w", err)
	}
	return events, nil
}

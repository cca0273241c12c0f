package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mmynk/bandpoints/internal/models"
	"github.com/mmynk/bandpoints/internal/storage"
)

const memberColumns = `id, email, name, avatar_url, section, role, points, created_at`

// EnsureMember inserts member if no record with its ID exists and returns the stored record.
func (s *SQLiteStore) EnsureMember(ctx context.Context, member *models.Member) (*models.Member, bool, error) {
	if member.CreatedAt == 0 {
		member.CreatedAt = time.Now().Unix()
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO members (`+memberColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO NOTHING`,
		member.ID, member.Email, member.Name, member.AvatarURL,
		member.Section, member.Role, member.Points, member.CreatedAt,
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to insert member: %w", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("failed to check member insert: %w", err)
	}

	stored, err := s.GetMember(ctx, member.ID)
	if err != nil {
		return nil, false, err
	}
	return stored, inserted == 1, nil
}

// GetMember retrieves a member by ID.
func (s *SQLiteStore) GetMember(ctx context.Context, id string) (*models.Member, error) {
	return getMember(ctx, s.db, id)
}

func getMember(ctx context.Context, q sqlx.QueryerContext, id string) (*models.Member, error) {
	member := &models.Member{}
	err := sqlx.GetContext(ctx, q, member, `SELECT `+memberColumns+` FROM members WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("member %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	return member, nil
}

// ListMembers retrieves all members ordered by name.
func (s *SQLiteStore) ListMembers(ctx context.Context) ([]models.Member, error) {
	var members []models.Member
	err := s.db.SelectContext(ctx, &members,
		`SELECT `+memberColumns+` FROM members ORDER BY name COLLATE NOCASE, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	return members, nil
}

// UpdateMemberSection overwrites a member's section and records event in the same transaction.
func (s *SQLiteStore) UpdateMemberSection(ctx context.Context, id, section string, event *models.AuditEvent) error {
	return s.updateWithAudit(ctx, `UPDATE members SET section = ? WHERE id = ?`, section, id, event)
}

// ClaimSection sets the section of a member who is still unassigned.
func (s *SQLiteStore) ClaimSection(ctx context.Context, id, section string, event *models.AuditEvent) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE members SET section = ? WHERE id = ? AND section = ?`, section, id, models.SectionUnassigned)
	if err != nil {
		return fmt.Errorf("failed to update member: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	} else if n == 0 {
		if _, err := getMember(ctx, tx, id); err != nil {
			return err
		}
		return fmt.Errorf("member %s: %w", id, storage.ErrSectionChosen)
	}

	if err := insertAuditEvent(ctx, tx, event); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// UpdateMemberRole overwrites a member's role and records event in the same transaction.
func (s *SQLiteStore) UpdateMemberRole(ctx context.Context, id string, role models.Role, event *models.AuditEvent) error {
	return s.updateWithAudit(ctx, `UPDATE members SET role = ? WHERE id = ?`, string(role), id, event)
}

func (s *SQLiteStore) updateWithAudit(ctx context.Context, query, value, id string, event *models.AuditEvent) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, query, value, id)
	if err != nil {
		return fmt.Errorf("failed to update member: %w", err)
	}
	if err := requireRow(res, id); err != nil {
		return err
	}

	if err := insertAuditEvent(ctx, tx, event); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DeleteMember removes a member record. Point transactions are left in place.
func (s *SQLiteStore) DeleteMember(ctx context.Context, id string, event *models.AuditEvent) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM members WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete member: %w", err)
	}
	if err := requireRow(res, id); err != nil {
		return err
	}

	if err := insertAuditEvent(ctx, tx, event); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// AdjustPoints applies txn.Points to the member and appends txn as one atomic batch.
func (s *SQLiteStore) AdjustPoints(ctx context.Context, txn *models.PointTransaction) (*models.Member, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	current, err := getMember(ctx, tx, txn.UserID)
	if err != nil {
		return nil, err
	}
	if addOverflows(current.Points, txn.Points) {
		return nil, fmt.Errorf("member %s: %w", txn.UserID, storage.ErrPointsOverflow)
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE members SET points = points + ? WHERE id = ?`, txn.Points, txn.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to update points: %w", err)
	}
	if err := requireRow(res, txn.UserID); err != nil {
		return nil, err
	}

	if err := insertTransaction(ctx, tx, txn); err != nil {
		return nil, err
	}

	member, err := getMember(ctx, tx, txn.UserID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return member, nil
}

// ResetAllPoints zeroes every member's points and appends txn as one atomic batch.
func (s *SQLiteStore) ResetAllPoints(ctx context.Context, txn *models.PointTransaction) ([]string, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var ids []string
	if err := tx.SelectContext(ctx, &ids, `SELECT id FROM members ORDER BY id`); err != nil {
		return nil, fmt.Errorf("failed to list members for reset: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE members SET points = 0`); err != nil {
		return nil, fmt.Errorf("failed to reset points: %w", err)
	}

	if err := insertTransaction(ctx, tx, txn); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return ids, nil
}

func addOverflows(a, b int64) bool {
	return (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b)
}

// requireRow turns a zero-row update into storage.ErrNotFound.
func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("member %s: %w", id, storage.ErrNotFound)
	}
	return nil
}

func insertAuditEvent(ctx context.Context, tx *sqlx.Tx, event *models.AuditEvent) error {
	if event == nil {
		return nil
	}
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.CreatedAt == 0 {
		event.CreatedAt = time.Now().Unix()
	}

	_, err := tx.ExecContext(ctx,
		`INSERT INTO audit_events (id, actor_id, target_id, action, detail, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		event.ID, event.ActorID, event.TargetID, string(event.Action), event.Detail, event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit event: %w", err)
	}
	return nil
}

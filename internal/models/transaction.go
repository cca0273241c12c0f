package models

// SystemTargetID is the target of audit records that affect every member at once.
const SystemTargetID = "system"

// DefaultReason is stored when a points adjustment is submitted without a reason.
const DefaultReason = "No reason provided"

// PointTransaction is an append-only record of a points change.
// It is never updated or deleted, even when the member it references is.
type PointTransaction struct {
	// ID is the unique identifier for the transaction (UUID format).
	ID string `db:"id"`

	// UserID is the affected member, or SystemTargetID for a bulk reset.
	UserID string `db:"user_id"`

	// AdminID is the member who made the change.
	AdminID string `db:"admin_id"`

	// Points is the signed delta. A bulk reset records 0.
	Points int64 `db:"points"`

	// Reason is free text supplied by the admin.
	Reason string `db:"reason"`

	// CreatedAt is the Unix timestamp assigned by the server.
	CreatedAt int64 `db:"created_at"`
}

// AuditAction names a non-points change recorded in the audit log.
type AuditAction string

const (
	AuditRoleChange    AuditAction = "role_change"
	AuditSectionChange AuditAction = "section_change"
	AuditMemberDelete  AuditAction = "member_delete"
)

// AuditEvent records a role change, section change or deletion.
type AuditEvent struct {
	ID        string      `db:"id"`
	ActorID   string      `db:"actor_id"`
	TargetID  string      `db:"target_id"`
	Action    AuditAction `db:"action"`
	Detail    string      `db:"detail"`
	CreatedAt int64       `db:"created_at"`
}

// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/bandpoints/internal/models"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrEmailExists is returned when an account with the same email is already registered.
	ErrEmailExists = errors.New("email already registered")
	// ErrPointsOverflow is returned when an adjustment would overflow a member's total.
	ErrPointsOverflow = errors.New("points total out of range")
	// ErrSectionChosen is returned when a member's section is no longer unassigned.
	ErrSectionChosen = errors.New("section already chosen")
)

// AccountStore persists sign-in identities.
type AccountStore interface {
	CreateAccount(ctx context.Context, account *models.Account) error
	GetAccountByEmail(ctx context.Context, email string) (*models.Account, error)
	GetAccountByID(ctx context.Context, id string) (*models.Account, error)
}

// Store defines the document-store operations the services rely on.
// This abstraction allows swapping storage backends without changing the service layer.
//
// Every method that must co-occur with an audit record performs both writes in
// a single atomic batch: either both land or neither does.
type Store interface {
	AccountStore

	// EnsureMember inserts member unless a record with the same ID exists,
	// then returns the stored record. created reports whether the insert happened.
	EnsureMember(ctx context.Context, member *models.Member) (stored *models.Member, created bool, err error)

	// GetMember retrieves a member by ID. Returns ErrNotFound if absent.
	GetMember(ctx context.Context, id string) (*models.Member, error)

	// ListMembers returns every member ordered by name.
	ListMembers(ctx context.Context) ([]models.Member, error)

	// UpdateMemberSection overwrites a member's section and appends event.
	UpdateMemberSection(ctx context.Context, id, section string, event *models.AuditEvent) error

	// ClaimSection sets section only while the member is still unassigned and
	// appends event. It returns ErrSectionChosen if a section is already set.
	ClaimSection(ctx context.Context, id, section string, event *models.AuditEvent) error

	// UpdateMemberRole overwrites a member's role and appends event.
	UpdateMemberRole(ctx context.Context, id string, role models.Role, event *models.AuditEvent) error

	// DeleteMember removes a member and appends event.
	// The member's point transactions are kept.
	DeleteMember(ctx context.Context, id string, event *models.AuditEvent) error

	// AdjustPoints adds txn.Points to txn.UserID's total and appends txn,
	// returning the updated member.
	AdjustPoints(ctx context.Context, txn *models.PointTransaction) (*models.Member, error)

	// ResetAllPoints sets every member's points to zero and appends txn.
	// It returns the IDs of the members that were reset.
	ResetAllPoints(ctx context.Context, txn *models.PointTransaction) ([]string, error)

	// ListTransactionsByMember returns a member's point transactions, newest first.
	// Transactions remain listable after the member is deleted.
	ListTransactionsByMember(ctx context.Context, memberID string) ([]models.PointTransaction, error)

	// ListAuditEvents returns audit events about targetID, newest first.
	ListAuditEvents(ctx context.Context, targetID string) ([]models.AuditEvent, error)

	// Close releases any resources held by the store.
	Close() error
}

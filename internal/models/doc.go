// Package models defines the core domain models for bandpoints.
//
// # Stored Models
//
//   - Account: a sign-in identity (email + password hash)
//   - Member: the leaderboard record for an identity, created lazily on first sign-in
//   - PointTransaction: append-only record of a points change
//   - AuditEvent: append-only record of role, section and deletion changes
//
// # Derived Models
//
//   - SectionStanding: per-section totals, recomputed from the member list on every read
//   - MemberStanding: a member's position within their own section
//
// Relationships use ID strings rather than pointers. A Member shares its ID with
// the Account it was created for; PointTransactions keep referencing a member ID
// after that member is deleted.
package models

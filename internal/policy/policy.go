// Package policy decides which member roles may perform which actions.
// It holds no state; callers pass in the actor's freshly read member record.
package policy

import (
	"errors"
	"fmt"

	"github.com/mmynk/bandpoints/internal/models"
)

var (
	ErrPermissionDenied = errors.New("permission denied")
	ErrSelfRoleChange   = errors.New("head admins cannot change their own role")
	ErrSectionLocked    = errors.New("section already chosen; ask an admin to change it")
)

// Action is something a member may try to do.
type Action string

const (
	ActionViewLeaderboard  Action = "view_leaderboard"
	ActionViewMembers      Action = "view_members"
	ActionAdjustPoints     Action = "adjust_points"
	ActionAssignSection    Action = "assign_section"
	ActionChangeRole       Action = "change_role"
	ActionDeleteMember     Action = "delete_member"
	ActionResetPoints      Action = "reset_points"
	ActionChooseOwnSection Action = "choose_own_section"
)

// Actions lists every action in a fixed order.
var Actions = []Action{
	ActionViewLeaderboard,
	ActionViewMembers,
	ActionAdjustPoints,
	ActionAssignSection,
	ActionChangeRole,
	ActionDeleteMember,
	ActionResetPoints,
	ActionChooseOwnSection,
}

// minimumRole maps each action to the least privileged role allowed to perform it.
var minimumRole = map[Action]models.Role{
	ActionViewLeaderboard:  models.RoleMember,
	ActionChooseOwnSection: models.RoleMember,
	ActionViewMembers:      models.RoleAdmin,
	ActionAdjustPoints:     models.RoleAdmin,
	ActionAssignSection:    models.RoleAdmin,
	ActionChangeRole:       models.RoleHeadAdmin,
	ActionDeleteMember:     models.RoleHeadAdmin,
	ActionResetPoints:      models.RoleHeadAdmin,
}

// Allowed reports whether role may perform action at all, ignoring who the target is.
func Allowed(role models.Role, action Action) bool {
	min, ok := minimumRole[action]
	if !ok {
		return false
	}
	return role.AtLeast(min)
}

// Authorize checks actor against action on the member identified by targetID.
// Target-dependent rules (no self role change, one-time section choice) are applied here.
func Authorize(actor *models.Member, targetID string, action Action) error {
	if actor == nil || !Allowed(actor.Role, action) {
		return fmt.Errorf("%w: %s", ErrPermissionDenied, action)
	}

	switch action {
	case ActionChangeRole:
		if actor.ID == targetID {
			return ErrSelfRoleChange
		}
	case ActionChooseOwnSection:
		if actor.ID != targetID {
			return fmt.Errorf("%w: %s", ErrPermissionDenied, action)
		}
		if actor.IsAssigned() {
			return ErrSectionLocked
		}
	}
	return nil
}

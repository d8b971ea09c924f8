/*
permissions.go - Manager/admin resolution

RULES:
  A user is a manager if they are a member of the HR group, OR a member of
  the manager group, OR appear as a managerId in managerAssignments. Their
  visible-employee set is the union of employeeIds across their
  assignments. HR-group members additionally see all entries.

FAIL-CLOSED:
  A failed group-membership lookup is treated as "not a member": logged,
  never propagated. Permissions degrade rather than error.
*/
package tracker

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/stundenwerk/timetrack-engine/engine"
)

// Permissions is the resolved permission set for one user.
type Permissions struct {
	IsManager          bool
	IsAdmin            bool // HR-group membership
	CanSeeAllEntries   bool
	ManagedEmployeeIDs []int
}

// ResolvePermissions derives a user's permission set from group membership
// and explicit manager assignments.
func (s *Service) ResolvePermissions(ctx context.Context, settings engine.Settings, userID int) Permissions {
	var p Permissions

	inHR := s.isGroupMember(ctx, settings.HRGroupID, userID)
	inManagerGroup := s.isGroupMember(ctx, settings.ManagerGroupID, userID)

	managed := make(map[int]bool)
	assigned := false
	for _, ma := range settings.ManagerAssignments {
		if ma.ManagerID != userID {
			continue
		}
		assigned = true
		for _, id := range ma.EmployeeIDs {
			managed[id] = true
		}
	}

	p.IsAdmin = inHR
	p.IsManager = inHR || inManagerGroup || assigned
	p.CanSeeAllEntries = inHR

	p.ManagedEmployeeIDs = make([]int, 0, len(managed))
	for id := range managed {
		p.ManagedEmployeeIDs = append(p.ManagedEmployeeIDs, id)
	}
	sort.Ints(p.ManagedEmployeeIDs)
	return p
}

// isGroupMember is one collaborator call per group, fail-closed.
func (s *Service) isGroupMember(ctx context.Context, groupID, userID int) bool {
	if groupID <= 0 || s.Groups == nil {
		return false
	}
	members, err := s.Groups.GroupMembers(ctx, groupID)
	if err != nil {
		s.Log.Warn("group membership check failed, treating as non-member",
			zap.Int("groupId", groupID), zap.Int("userId", userID), zap.Error(err))
		return false
	}
	for _, m := range members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

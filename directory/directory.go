/*
Package directory resolves group membership against the host platform.

PURPOSE:
  Permission resolution needs to know who is in the employee, HR, and
  manager groups. The host returns duck-typed member payloads: the user id
  may arrive as personId or id, and the display name may be nested under
  person.domainAttributes or sit flat under several localized field names.
  This package normalizes all of that at the adapter boundary into one
  canonical shape; the union never propagates deeper into the engine.

FAILURE SEMANTICS:
  Callers treat a failed lookup as "not a member" (fail-closed for
  permissions). The failure is logged at the call site, not propagated.

SEE ALSO:
  - tracker/permissions.go: Manager/admin resolution over this client
*/
package directory

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/stundenwerk/timetrack-engine/engine"
)

// Member is the canonical group-member shape.
type Member struct {
	UserID      int
	DisplayName string
}

// Roster converts members to the engine's roster shape.
func Roster(members []Member) []engine.RosterEntry {
	entries := make([]engine.RosterEntry, len(members))
	for i, m := range members {
		entries[i] = engine.RosterEntry{UserID: m.UserID, DisplayName: m.DisplayName}
	}
	return entries
}

// GroupClient looks up the members of a host-platform group.
type GroupClient interface {
	GroupMembers(ctx context.Context, groupID int) ([]Member, error)
}

// =============================================================================
// NORMALIZATION - Duck-typed payload to canonical Member
// =============================================================================

// rawMember mirrors every shape the host has been observed to return.
type rawMember struct {
	PersonID int `json:"personId"`
	ID       int `json:"id"`

	Person *struct {
		DomainAttributes struct {
			FirstName string `json:"firstName"`
			LastName  string `json:"lastName"`
		} `json:"domainAttributes"`
	} `json:"person"`

	FirstName string `json:"firstName"`
	Vorname   string `json:"vorname"`
	LastName  string `json:"lastName"`
	Nachname  string `json:"nachname"`
	Name      string `json:"name"`
}

// Normalize flattens one raw member payload. The second return is false when
// no usable user id is present.
func Normalize(raw json.RawMessage) (Member, bool) {
	var rm rawMember
	if err := json.Unmarshal(raw, &rm); err != nil {
		return Member{}, false
	}

	id := rm.PersonID
	if id == 0 {
		id = rm.ID
	}
	if id == 0 {
		return Member{}, false
	}

	return Member{UserID: id, DisplayName: displayName(rm)}, true
}

func displayName(rm rawMember) string {
	if rm.Person != nil {
		n := join(rm.Person.DomainAttributes.FirstName, rm.Person.DomainAttributes.LastName)
		if n != "" {
			return n
		}
	}

	first := rm.FirstName
	if first == "" {
		first = rm.Vorname
	}
	last := rm.LastName
	if last == "" {
		last = rm.Nachname
	}
	if n := join(first, last); n != "" {
		return n
	}
	return rm.Name
}

func join(first, last string) string {
	return strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
}

// NormalizeAll flattens a full member list, dropping unusable records.
func NormalizeAll(raws []json.RawMessage) []Member {
	members := make([]Member, 0, len(raws))
	for _, raw := range raws {
		if m, ok := Normalize(raw); ok {
			members = append(members, m)
		}
	}
	return members
}

// =============================================================================
// STATIC CLIENT - Fixed rosters for tests and dev
// =============================================================================

// Static serves fixed group rosters.
type Static struct {
	Groups map[int][]Member
}

var _ GroupClient = (*Static)(nil)

func (s *Static) GroupMembers(_ context.Context, groupID int) ([]Member, error) {
	return s.Groups[groupID], nil
}

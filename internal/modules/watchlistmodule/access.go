package watchlistmodule

import "github.com/watchdeck/watchdeck/internal/database"

// Capabilities is the set of actions an actor may perform on a watchlist.
type Capabilities struct {
	CanRead          bool `json:"can_read"`
	CanWrite         bool `json:"can_write"`
	CanManageMembers bool `json:"can_manage_members"`
}

// CapabilitiesFor decides what actorID may do with a watchlist. The decision
// is a pure function of its inputs; it performs no lookups.
//
// The owner holds every capability and never appears as a membership row.
// A membership grants read; the editor and admin roles add write. Membership
// management stays with the owner alone, whatever role a member holds.
// Public watchlists are readable by any actor, including an anonymous one.
func CapabilitiesFor(watchlist *database.Watchlist, membership *database.WatchlistMembership, actorID string) Capabilities {
	if actorID != "" && actorID == watchlist.OwnerID {
		return Capabilities{CanRead: true, CanWrite: true, CanManageMembers: true}
	}

	var caps Capabilities
	if watchlist.IsPublic {
		caps.CanRead = true
	}
	if membership != nil && actorID != "" && membership.UserID == actorID {
		caps.CanRead = true
		if membership.Role == database.RoleEditor || membership.Role == database.RoleAdmin {
			caps.CanWrite = true
		}
	}
	return caps
}

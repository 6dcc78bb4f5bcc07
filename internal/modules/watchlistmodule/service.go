package watchlistmodule

import (
	"context"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/watchdeck/watchdeck/internal/database"
	apperrors "github.com/watchdeck/watchdeck/internal/errors"
	"github.com/watchdeck/watchdeck/internal/events"
	"github.com/watchdeck/watchdeck/internal/logger"
	"github.com/watchdeck/watchdeck/internal/utils"
)

// DefaultWatchlistName is the name of the watchlist created for every user
// on first use.
const DefaultWatchlistName = "My Shows"

// ShowResolver resolves external catalog ids to canonical show records.
// Satisfied by the catalog sync service.
type ShowResolver interface {
	GetOrFetchShow(ctx context.Context, externalID string) (*database.Show, error)
}

// ShowReleaser drops a reference to a show and removes the row when it was
// the last one. Satisfied by the catalog lifecycle manager. The call must
// run inside the transaction that removed the reference.
type ShowReleaser interface {
	ReleaseShow(tx *gorm.DB, showID string) error
}

// Service implements watchlist operations gated by the capability model.
type Service struct {
	db       *gorm.DB
	store    *Store
	resolver ShowResolver
	releaser ShowReleaser
	bus      *events.EventBus
}

// NewService creates a watchlist service.
func NewService(db *gorm.DB, store *Store, resolver ShowResolver, releaser ShowReleaser, bus *events.EventBus) *Service {
	return &Service{
		db:       db,
		store:    store,
		resolver: resolver,
		releaser: releaser,
		bus:      bus,
	}
}

// CreateRequest carries the fields for a new watchlist.
type CreateRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	IsPublic    bool   `json:"is_public"`
}

// UpdateRequest carries a partial watchlist update. Nil fields are left
// unchanged.
type UpdateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	IsPublic    *bool   `json:"is_public"`
}

// Detail is a watchlist with its items, members, and the capabilities the
// requesting actor holds on it.
type Detail struct {
	database.Watchlist
	Items        []database.WatchlistItem       `json:"items"`
	Members      []database.WatchlistMembership `json:"members"`
	Capabilities Capabilities                   `json:"capabilities"`
}

// Summary is a watchlist as seen in an actor's listing.
type Summary struct {
	database.Watchlist
	Role        string `json:"role"`
	ItemCount   int64  `json:"item_count"`
	MemberCount int64  `json:"member_count"`
}

// Create makes a new watchlist owned by the actor.
func (s *Service) Create(ctx context.Context, actorID string, req CreateRequest) (*database.Watchlist, error) {
	if actorID == "" {
		return nil, apperrors.NotAuthenticated("watchlist.create")
	}
	if req.Name == "" {
		return nil, apperrors.Validation("watchlist.create", "name is required")
	}

	watchlist := &database.Watchlist{
		ID:          utils.GenerateUUID(),
		Name:        req.Name,
		Description: req.Description,
		OwnerID:     actorID,
		IsPublic:    req.IsPublic,
	}
	if err := s.store.Create(ctx, watchlist); err != nil {
		return nil, err
	}

	s.bus.Publish(events.NewWatchlistEvent(events.EventWatchlistCreated, watchlist.ID, actorID))
	return watchlist, nil
}

// CreateDefault returns the actor's default watchlist, creating it on first
// use. Repeated calls converge on the same list.
func (s *Service) CreateDefault(ctx context.Context, actorID string) (*database.Watchlist, error) {
	if actorID == "" {
		return nil, apperrors.NotAuthenticated("watchlist.create_default")
	}

	existing, err := s.store.FindByOwnerAndName(ctx, actorID, DefaultWatchlistName)
	if err == nil {
		return existing, nil
	}
	if !apperrors.IsKind(err, apperrors.KindNotFound) {
		return nil, err
	}

	return s.Create(ctx, actorID, CreateRequest{
		Name:        DefaultWatchlistName,
		Description: "Shows I'm tracking",
	})
}

// Get returns a watchlist with items and members. The actor must hold read
// capability on it.
func (s *Service) Get(ctx context.Context, actorID, watchlistID string) (*Detail, error) {
	watchlist, caps, err := s.authorize(ctx, actorID, watchlistID)
	if err != nil {
		return nil, err
	}
	if !caps.CanRead {
		if actorID == "" {
			return nil, apperrors.NotAuthenticated("watchlist.get")
		}
		return nil, apperrors.AccessDenied("watchlist.get", "no read access to this watchlist")
	}

	items, err := s.store.ListItems(ctx, watchlistID)
	if err != nil {
		return nil, err
	}
	members, err := s.store.ListMembers(ctx, watchlistID)
	if err != nil {
		return nil, err
	}

	return &Detail{
		Watchlist:    *watchlist,
		Items:        items,
		Members:      members,
		Capabilities: caps,
	}, nil
}

// Update changes a watchlist's name, description, or visibility. Owner only.
func (s *Service) Update(ctx context.Context, actorID, watchlistID string, req UpdateRequest) (*database.Watchlist, error) {
	if actorID == "" {
		return nil, apperrors.NotAuthenticated("watchlist.update")
	}
	watchlist, caps, err := s.authorize(ctx, actorID, watchlistID)
	if err != nil {
		return nil, err
	}
	if !caps.CanManageMembers {
		return nil, apperrors.AccessDenied("watchlist.update", "only the owner can update a watchlist")
	}

	if req.Name != nil {
		if *req.Name == "" {
			return nil, apperrors.Validation("watchlist.update", "name cannot be empty")
		}
		watchlist.Name = *req.Name
	}
	if req.Description != nil {
		watchlist.Description = *req.Description
	}
	if req.IsPublic != nil {
		watchlist.IsPublic = *req.IsPublic
	}

	if err := s.store.Save(ctx, watchlist); err != nil {
		return nil, err
	}
	return watchlist, nil
}

// Delete removes a watchlist with its items and memberships. Owner only.
// Each referenced show is released; shows this list held the last reference
// to disappear with it, the rest stay for their other referrers.
func (s *Service) Delete(ctx context.Context, actorID, watchlistID string) error {
	if actorID == "" {
		return apperrors.NotAuthenticated("watchlist.delete")
	}
	_, caps, err := s.authorize(ctx, actorID, watchlistID)
	if err != nil {
		return err
	}
	if !caps.CanManageMembers {
		return apperrors.AccessDenied("watchlist.delete", "only the owner can delete a watchlist")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var showIDs []string
		err := tx.Model(&database.WatchlistItem{}).
			Distinct("show_id").
			Where("watchlist_id = ?", watchlistID).
			Pluck("show_id", &showIDs).Error
		if err != nil {
			return apperrors.Persistence("watchlist.delete", err)
		}

		if err := tx.Where("watchlist_id = ?", watchlistID).Delete(&database.WatchlistItem{}).Error; err != nil {
			return apperrors.Persistence("watchlist.delete", err)
		}
		if err := tx.Where("watchlist_id = ?", watchlistID).Delete(&database.WatchlistMembership{}).Error; err != nil {
			return apperrors.Persistence("watchlist.delete", err)
		}
		if err := tx.Where("id = ?", watchlistID).Delete(&database.Watchlist{}).Error; err != nil {
			return apperrors.Persistence("watchlist.delete", err)
		}

		for _, showID := range showIDs {
			if err := s.releaser.ReleaseShow(tx, showID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info("watchlist deleted", []logger.Field{
		logger.String("watchlist_id", watchlistID),
		logger.String("actor_id", actorID),
	})
	s.bus.Publish(events.NewWatchlistEvent(events.EventWatchlistDeleted, watchlistID, actorID))
	return nil
}

// AddItem resolves an external show id and links it into the watchlist.
// Requires write capability. The same show may be added more than once;
// dedup is left to callers.
func (s *Service) AddItem(ctx context.Context, actorID, watchlistID, externalID string) (*database.WatchlistItem, error) {
	if actorID == "" {
		return nil, apperrors.NotAuthenticated("watchlist.add_item")
	}
	_, caps, err := s.authorize(ctx, actorID, watchlistID)
	if err != nil {
		return nil, err
	}
	if !caps.CanWrite {
		return nil, apperrors.AccessDenied("watchlist.add_item", "no write access to this watchlist")
	}
	if externalID == "" {
		return nil, apperrors.Validation("watchlist.add_item", "external show id is required")
	}

	show, err := s.resolver.GetOrFetchShow(ctx, externalID)
	if err != nil {
		return nil, err
	}

	item := &database.WatchlistItem{
		ID:          utils.GenerateUUID(),
		WatchlistID: watchlistID,
		ShowID:      show.ID,
		AddedBy:     actorID,
		AddedAt:     time.Now(),
	}
	if err := s.store.AddItem(ctx, item); err != nil {
		return nil, err
	}

	item.Show = show
	return item, nil
}

// RemoveItem deletes an item from the watchlist and releases its show
// reference in the same transaction. Requires write capability.
func (s *Service) RemoveItem(ctx context.Context, actorID, watchlistID, itemID string) error {
	if actorID == "" {
		return apperrors.NotAuthenticated("watchlist.remove_item")
	}
	_, caps, err := s.authorize(ctx, actorID, watchlistID)
	if err != nil {
		return err
	}
	if !caps.CanWrite {
		return apperrors.AccessDenied("watchlist.remove_item", "no write access to this watchlist")
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := s.store.GetItem(ctx, tx, watchlistID, itemID)
		if err != nil {
			return err
		}
		if err := tx.Where("id = ?", item.ID).Delete(&database.WatchlistItem{}).Error; err != nil {
			return apperrors.Persistence("watchlist.remove_item", err)
		}
		return s.releaser.ReleaseShow(tx, item.ShowID)
	})
}

// AddMember grants a user a role on the watchlist. Owner only; the owner
// cannot be added as a member of their own list.
func (s *Service) AddMember(ctx context.Context, actorID, watchlistID, userID string, role database.MembershipRole) (*database.WatchlistMembership, error) {
	if actorID == "" {
		return nil, apperrors.NotAuthenticated("watchlist.add_member")
	}
	watchlist, caps, err := s.authorize(ctx, actorID, watchlistID)
	if err != nil {
		return nil, err
	}
	if !caps.CanManageMembers {
		return nil, apperrors.AccessDenied("watchlist.add_member", "only the owner can manage members")
	}
	if userID == "" {
		return nil, apperrors.Validation("watchlist.add_member", "user id is required")
	}
	if userID == watchlist.OwnerID {
		return nil, apperrors.Validation("watchlist.add_member", "owner cannot be added as a member")
	}
	if !role.Valid() {
		return nil, apperrors.Validation("watchlist.add_member", "invalid role")
	}

	membership := &database.WatchlistMembership{
		ID:          utils.GenerateUUID(),
		WatchlistID: watchlistID,
		UserID:      userID,
		Role:        role,
		JoinedAt:    time.Now(),
	}
	if err := s.store.AddMembership(ctx, membership); err != nil {
		return nil, err
	}

	s.bus.Publish(events.NewWatchlistEvent(events.EventMemberAdded, watchlistID, userID))
	return membership, nil
}

// RemoveMember revokes a user's membership. Owner only.
func (s *Service) RemoveMember(ctx context.Context, actorID, watchlistID, userID string) error {
	if actorID == "" {
		return apperrors.NotAuthenticated("watchlist.remove_member")
	}
	_, caps, err := s.authorize(ctx, actorID, watchlistID)
	if err != nil {
		return err
	}
	if !caps.CanManageMembers {
		return apperrors.AccessDenied("watchlist.remove_member", "only the owner can manage members")
	}

	if err := s.store.DeleteMembership(ctx, watchlistID, userID); err != nil {
		return err
	}

	s.bus.Publish(events.NewWatchlistEvent(events.EventMemberRemoved, watchlistID, userID))
	return nil
}

// ListMine returns the watchlists the actor owns or belongs to, newest
// first, with item and member counts.
func (s *Service) ListMine(ctx context.Context, actorID string) ([]Summary, error) {
	if actorID == "" {
		return nil, apperrors.NotAuthenticated("watchlist.list_mine")
	}

	owned, err := s.store.ListOwnedBy(ctx, actorID)
	if err != nil {
		return nil, err
	}
	joined, membershipByList, err := s.store.ListMemberOf(ctx, actorID)
	if err != nil {
		return nil, err
	}

	summaries := make([]Summary, 0, len(owned)+len(joined))
	appendSummary := func(watchlist database.Watchlist, role string) error {
		itemCount, err := s.store.CountItems(ctx, watchlist.ID)
		if err != nil {
			return err
		}
		memberCount, err := s.store.CountMembers(ctx, watchlist.ID)
		if err != nil {
			return err
		}
		summaries = append(summaries, Summary{
			Watchlist:   watchlist,
			Role:        role,
			ItemCount:   itemCount,
			MemberCount: memberCount,
		})
		return nil
	}

	for _, watchlist := range owned {
		if err := appendSummary(watchlist, "owner"); err != nil {
			return nil, err
		}
	}
	for _, watchlist := range joined {
		role := string(membershipByList[watchlist.ID].Role)
		if err := appendSummary(watchlist, role); err != nil {
			return nil, err
		}
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})
	return summaries, nil
}

// authorize loads the watchlist and computes the actor's capabilities on it.
// An empty actor id is allowed; anonymous actors can still read public lists.
func (s *Service) authorize(ctx context.Context, actorID, watchlistID string) (*database.Watchlist, Capabilities, error) {
	watchlist, err := s.store.GetByID(ctx, watchlistID)
	if err != nil {
		return nil, Capabilities{}, err
	}

	var membership *database.WatchlistMembership
	if actorID != "" && actorID != watchlist.OwnerID {
		membership, err = s.store.GetMembership(ctx, watchlistID, actorID)
		if err != nil {
			return nil, Capabilities{}, err
		}
	}

	return watchlist, CapabilitiesFor(watchlist, membership, actorID), nil
}

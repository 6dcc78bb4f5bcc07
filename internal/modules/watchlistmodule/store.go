package watchlistmodule

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/watchdeck/watchdeck/internal/database"
	apperrors "github.com/watchdeck/watchdeck/internal/errors"
)

// Store handles watchlist persistence: lists, memberships, and items.
type Store struct {
	db *gorm.DB
}

// NewStore creates a watchlist store on the given handle.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// handle returns the transaction when one is supplied, else the store's db.
func (s *Store) handle(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return s.db
}

// Create inserts a watchlist row.
func (s *Store) Create(ctx context.Context, watchlist *database.Watchlist) error {
	if err := s.db.WithContext(ctx).Create(watchlist).Error; err != nil {
		return apperrors.Persistence("watchlist.create", err)
	}
	return nil
}

// GetByID retrieves a watchlist.
func (s *Store) GetByID(ctx context.Context, id string) (*database.Watchlist, error) {
	var watchlist database.Watchlist
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&watchlist).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("watchlist.get", "watchlist")
		}
		return nil, apperrors.Persistence("watchlist.get", err)
	}
	return &watchlist, nil
}

// FindByOwnerAndName returns the owner's watchlist with the given name, or
// a not-found error.
func (s *Store) FindByOwnerAndName(ctx context.Context, ownerID, name string) (*database.Watchlist, error) {
	var watchlist database.Watchlist
	err := s.db.WithContext(ctx).
		Where("owner_id = ? AND name = ?", ownerID, name).
		First(&watchlist).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("watchlist.find", "watchlist")
		}
		return nil, apperrors.Persistence("watchlist.find", err)
	}
	return &watchlist, nil
}

// Save persists changes to an existing watchlist row.
func (s *Store) Save(ctx context.Context, watchlist *database.Watchlist) error {
	if err := s.db.WithContext(ctx).Save(watchlist).Error; err != nil {
		return apperrors.Persistence("watchlist.save", err)
	}
	return nil
}

// ListOwnedBy returns all watchlists owned by a user, newest first.
func (s *Store) ListOwnedBy(ctx context.Context, ownerID string) ([]database.Watchlist, error) {
	var lists []database.Watchlist
	err := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&lists).Error
	if err != nil {
		return nil, apperrors.Persistence("watchlist.list_owned", err)
	}
	return lists, nil
}

// ListMemberOf returns all watchlists a user belongs to through a
// membership, newest first, along with the user's memberships keyed by
// watchlist id.
func (s *Store) ListMemberOf(ctx context.Context, userID string) ([]database.Watchlist, map[string]database.WatchlistMembership, error) {
	var memberships []database.WatchlistMembership
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&memberships).Error
	if err != nil {
		return nil, nil, apperrors.Persistence("watchlist.list_member_of", err)
	}
	if len(memberships) == 0 {
		return nil, map[string]database.WatchlistMembership{}, nil
	}

	byList := make(map[string]database.WatchlistMembership, len(memberships))
	ids := make([]string, 0, len(memberships))
	for _, m := range memberships {
		byList[m.WatchlistID] = m
		ids = append(ids, m.WatchlistID)
	}

	var lists []database.Watchlist
	err = s.db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("created_at DESC").
		Find(&lists).Error
	if err != nil {
		return nil, nil, apperrors.Persistence("watchlist.list_member_of", err)
	}
	return lists, byList, nil
}

// GetMembership returns the user's membership on a watchlist, or nil when
// none exists. Owners have no membership rows.
func (s *Store) GetMembership(ctx context.Context, watchlistID, userID string) (*database.WatchlistMembership, error) {
	var membership database.WatchlistMembership
	err := s.db.WithContext(ctx).
		Where("watchlist_id = ? AND user_id = ?", watchlistID, userID).
		First(&membership).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.Persistence("watchlist.get_membership", err)
	}
	return &membership, nil
}

// AddMembership inserts a membership row. A duplicate (watchlist, user)
// pair surfaces as a conflict.
func (s *Store) AddMembership(ctx context.Context, membership *database.WatchlistMembership) error {
	err := s.db.WithContext(ctx).Create(membership).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.Conflict("watchlist.add_member", "user is already a member")
		}
		return apperrors.Persistence("watchlist.add_member", err)
	}
	return nil
}

// DeleteMembership removes a membership row, reporting not-found when no
// such membership exists.
func (s *Store) DeleteMembership(ctx context.Context, watchlistID, userID string) error {
	result := s.db.WithContext(ctx).
		Where("watchlist_id = ? AND user_id = ?", watchlistID, userID).
		Delete(&database.WatchlistMembership{})
	if result.Error != nil {
		return apperrors.Persistence("watchlist.remove_member", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFound("watchlist.remove_member", "membership")
	}
	return nil
}

// ListMembers returns all memberships on a watchlist ordered by join time.
func (s *Store) ListMembers(ctx context.Context, watchlistID string) ([]database.WatchlistMembership, error) {
	var members []database.WatchlistMembership
	err := s.db.WithContext(ctx).
		Where("watchlist_id = ?", watchlistID).
		Order("joined_at ASC").
		Find(&members).Error
	if err != nil {
		return nil, apperrors.Persistence("watchlist.list_members", err)
	}
	return members, nil
}

// AddItem inserts a watchlist item.
func (s *Store) AddItem(ctx context.Context, item *database.WatchlistItem) error {
	if err := s.db.WithContext(ctx).Create(item).Error; err != nil {
		return apperrors.Persistence("watchlist.add_item", err)
	}
	return nil
}

// GetItem retrieves a single item on a watchlist. The item must belong to
// the given watchlist; an item id from another list reads as not found.
func (s *Store) GetItem(ctx context.Context, tx *gorm.DB, watchlistID, itemID string) (*database.WatchlistItem, error) {
	var item database.WatchlistItem
	err := s.handle(tx).WithContext(ctx).
		Where("id = ? AND watchlist_id = ?", itemID, watchlistID).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("watchlist.get_item", "watchlist item")
		}
		return nil, apperrors.Persistence("watchlist.get_item", err)
	}
	return &item, nil
}

// ListItems returns the items on a watchlist with shows preloaded, in the
// order they were added.
func (s *Store) ListItems(ctx context.Context, watchlistID string) ([]database.WatchlistItem, error) {
	var items []database.WatchlistItem
	err := s.db.WithContext(ctx).
		Preload("Show").
		Where("watchlist_id = ?", watchlistID).
		Order("added_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, apperrors.Persistence("watchlist.list_items", err)
	}
	return items, nil
}

// CountItems returns the number of items on a watchlist.
func (s *Store) CountItems(ctx context.Context, watchlistID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&database.WatchlistItem{}).
		Where("watchlist_id = ?", watchlistID).
		Count(&count).Error
	if err != nil {
		return 0, apperrors.Persistence("watchlist.count_items", err)
	}
	return count, nil
}

// CountMembers returns the number of memberships on a watchlist. The owner
// is not counted; ownership is not a membership.
func (s *Store) CountMembers(ctx context.Context, watchlistID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&database.WatchlistMembership{}).
		Where("watchlist_id = ?", watchlistID).
		Count(&count).Error
	if err != nil {
		return 0, apperrors.Persistence("watchlist.count_members", err)
	}
	return count, nil
}

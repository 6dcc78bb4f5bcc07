package database

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// StringList stores a list of strings as a JSON text column.
// Used for show genres so both SQLite and Postgres handle it identically.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	switch v := value.(type) {
	case string:
		return json.Unmarshal([]byte(v), l)
	case []byte:
		return json.Unmarshal(v, l)
	default:
		return fmt.Errorf("cannot scan %T into StringList", value)
	}
}

// SubscriptionStatus enum for user_show_subscriptions.status
type SubscriptionStatus string

const (
	StatusWatching    SubscriptionStatus = "watching"
	StatusPlanToWatch SubscriptionStatus = "plan_to_watch"
	StatusCompleted   SubscriptionStatus = "completed"
	StatusDropped     SubscriptionStatus = "dropped"
)

// Valid reports whether s is one of the known subscription states.
func (s SubscriptionStatus) Valid() bool {
	switch s {
	case StatusWatching, StatusPlanToWatch, StatusCompleted, StatusDropped:
		return true
	}
	return false
}

// MembershipRole enum for watchlist_memberships.role
type MembershipRole string

const (
	RoleViewer MembershipRole = "viewer"
	RoleEditor MembershipRole = "editor"
	RoleAdmin  MembershipRole = "admin"
)

// Valid reports whether r is one of the known membership roles.
func (r MembershipRole) Valid() bool {
	switch r {
	case RoleViewer, RoleEditor, RoleAdmin:
		return true
	}
	return false
}

// =============================================================================
// CANONICAL CATALOG TABLE
// =============================================================================

// Show is the canonical local record of an externally-sourced TV show.
// Exactly one row exists per external catalog id; rows are created by the
// catalog sync service on first reference and removed when the last
// watchlist item or subscription referencing them is deleted.
type Show struct {
	ID           string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	ExternalID   string     `gorm:"uniqueIndex;not null" json:"external_id"`
	Name         string     `gorm:"not null;index" json:"name"`
	Description  string     `gorm:"type:text" json:"description"`
	PosterURL    string     `json:"poster_url"`
	BackdropURL  string     `json:"backdrop_url"`
	FirstAirDate *time.Time `json:"first_air_date"`
	Rating       float64    `json:"rating"`
	TotalSeasons int        `json:"total_seasons"`
	Genres       StringList `gorm:"type:text" json:"genres"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (Show) TableName() string { return "shows" }

// =============================================================================
// WATCHLIST TABLES
// =============================================================================

// Watchlist is a named list of shows owned by a single user. The owner holds
// full control implicitly and never appears in the membership table.
type Watchlist struct {
	ID          string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name        string    `gorm:"not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	OwnerID     string    `gorm:"type:varchar(36);not null;index" json:"owner_id"`
	IsPublic    bool      `gorm:"default:false" json:"is_public"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Watchlist) TableName() string { return "watchlists" }

// WatchlistMembership grants a non-owner user a role on a watchlist.
// At most one row per (watchlist, user).
type WatchlistMembership struct {
	ID          string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	WatchlistID string         `gorm:"type:varchar(36);not null;uniqueIndex:idx_watchlist_user" json:"watchlist_id"`
	UserID      string         `gorm:"type:varchar(36);not null;uniqueIndex:idx_watchlist_user" json:"user_id"`
	Role        MembershipRole `gorm:"type:text;not null" json:"role"`
	JoinedAt    time.Time      `json:"joined_at"`
}

func (WatchlistMembership) TableName() string { return "watchlist_memberships" }

// WatchlistItem links a canonical show into a watchlist.
type WatchlistItem struct {
	ID          string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	WatchlistID string    `gorm:"type:varchar(36);not null;index" json:"watchlist_id"`
	ShowID      string    `gorm:"type:varchar(36);not null;index" json:"show_id"`
	AddedBy     string    `gorm:"type:varchar(36);not null" json:"added_by"`
	AddedAt     time.Time `json:"added_at"`

	Show *Show `gorm:"foreignKey:ShowID" json:"show,omitempty"`
}

func (WatchlistItem) TableName() string { return "watchlist_items" }

// =============================================================================
// TRACKING TABLES
// =============================================================================

// UserShowSubscription tracks a user's personal relationship to a show.
// At most one row per (user, show); writes are upserts.
type UserShowSubscription struct {
	UserID    string             `gorm:"type:varchar(36);not null;uniqueIndex:idx_user_show;primaryKey" json:"user_id"`
	ShowID    string             `gorm:"type:varchar(36);not null;uniqueIndex:idx_user_show;primaryKey;index" json:"show_id"`
	Status    SubscriptionStatus `gorm:"type:text;not null" json:"status"`
	UpdatedAt time.Time          `gorm:"index" json:"updated_at"`

	Show *Show `gorm:"foreignKey:ShowID" json:"show,omitempty"`
}

func (UserShowSubscription) TableName() string { return "user_show_subscriptions" }

// EpisodeProgress records per-episode watched state for a subscribed show.
// At most one row per (user, show, season, episode); requires an existing
// subscription for the pair, enforced by the service before write.
type EpisodeProgress struct {
	UserID        string     `gorm:"type:varchar(36);not null;uniqueIndex:idx_episode_key;primaryKey" json:"user_id"`
	ShowID        string     `gorm:"type:varchar(36);not null;uniqueIndex:idx_episode_key;primaryKey" json:"show_id"`
	SeasonNumber  int        `gorm:"not null;uniqueIndex:idx_episode_key;primaryKey" json:"season_number"`
	EpisodeNumber int        `gorm:"not null;uniqueIndex:idx_episode_key;primaryKey" json:"episode_number"`
	Watched       bool       `gorm:"not null;default:false" json:"watched"`
	WatchedAt     *time.Time `json:"watched_at"`
}

func (EpisodeProgress) TableName() string { return "episode_progress" }

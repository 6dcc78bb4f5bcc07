package catalogmodule

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/watchdeck/watchdeck/internal/database"
	apperrors "github.com/watchdeck/watchdeck/internal/errors"
)

// Store handles persistence of canonical show records, keyed by the
// external catalog identifier.
type Store struct {
	db *gorm.DB
}

// NewStore creates a catalog store on the given handle.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// GetByExternalID retrieves the canonical show for an external catalog id.
func (s *Store) GetByExternalID(ctx context.Context, externalID string) (*database.Show, error) {
	var show database.Show
	err := s.db.WithContext(ctx).Where("external_id = ?", externalID).First(&show).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("catalog.get_show", "show")
		}
		return nil, apperrors.Persistence("catalog.get_show", err)
	}
	return &show, nil
}

// GetByID retrieves the canonical show by its internal id.
func (s *Store) GetByID(ctx context.Context, id string) (*database.Show, error) {
	var show database.Show
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&show).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("catalog.get_show", "show")
		}
		return nil, apperrors.Persistence("catalog.get_show", err)
	}
	return &show, nil
}

// Insert writes a new show row. A uniqueness violation on external_id is
// reported as a conflict, distinguishable from other store failures.
func (s *Store) Insert(ctx context.Context, show *database.Show) error {
	err := s.db.WithContext(ctx).Create(show).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.Conflict("catalog.insert_show", "show already exists")
		}
		return apperrors.Persistence("catalog.insert_show", err)
	}
	return nil
}

// GetOrCreate is the optimistic upsert primitive for canonical shows: the
// insert is attempted without a prior existence check, and a uniqueness
// conflict is resolved by re-reading the row written by the winner. The
// returned bool reports whether this call created the row.
func (s *Store) GetOrCreate(ctx context.Context, show *database.Show) (*database.Show, bool, error) {
	err := s.Insert(ctx, show)
	if err == nil {
		return show, true, nil
	}
	if !apperrors.IsKind(err, apperrors.KindConflict) {
		return nil, false, err
	}

	// Lost the race; the winner's row is authoritative.
	existing, err := s.GetByExternalID(ctx, show.ExternalID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

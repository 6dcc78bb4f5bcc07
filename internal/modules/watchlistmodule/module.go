// Package watchlistmodule owns watchlists: their capability-gated access
// model, membership management, and the items linking canonical shows in.
package watchlistmodule

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/watchdeck/watchdeck/internal/database"
	"github.com/watchdeck/watchdeck/internal/events"
	"github.com/watchdeck/watchdeck/internal/modulemanager"
)

// Module is the watchlist feature module.
type Module struct {
	db       *gorm.DB
	bus      *events.EventBus
	resolver ShowResolver
	releaser ShowReleaser
	store    *Store
	service  *Service
	handlers *Handlers
}

// NewModule creates the watchlist module. The resolver and releaser come
// from the catalog module; registration order guarantees it initializes
// first.
func NewModule(bus *events.EventBus, resolver ShowResolver, releaser ShowReleaser) *Module {
	return &Module{bus: bus, resolver: resolver, releaser: releaser}
}

// Register creates the module and adds it to the global registry.
func Register(bus *events.EventBus, resolver ShowResolver, releaser ShowReleaser) *Module {
	m := NewModule(bus, resolver, releaser)
	modulemanager.Register(m)
	return m
}

func (m *Module) ID() string   { return "system.watchlist" }
func (m *Module) Name() string { return "Watchlist" }
func (m *Module) Core() bool   { return true }

// Migrate creates the watchlist tables.
func (m *Module) Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&database.Watchlist{},
		&database.WatchlistMembership{},
		&database.WatchlistItem{},
	)
}

// Init wires the store and service.
func (m *Module) Init(db *gorm.DB) error {
	m.db = db
	m.store = NewStore(db)
	m.service = NewService(db, m.store, m.resolver, m.releaser, m.bus)
	m.handlers = NewHandlers(m.service)
	return nil
}

// Service exposes the watchlist service, mainly for tests.
func (m *Module) Service() *Service { return m.service }

// RegisterRoutes registers the watchlist HTTP routes.
func (m *Module) RegisterRoutes(router *gin.Engine) {
	m.handlers.RegisterRoutes(router)
}

// Package catalogmodule owns the canonical show catalog: synchronization
// with the external provider, the deduplicated show store, and the
// reference-counted show lifecycle.
package catalogmodule

import (
	"context"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/watchdeck/watchdeck/internal/config"
	"github.com/watchdeck/watchdeck/internal/database"
	"github.com/watchdeck/watchdeck/internal/events"
	"github.com/watchdeck/watchdeck/internal/modulemanager"
	"github.com/watchdeck/watchdeck/internal/modules/catalogmodule/provider"
)

// Module is the catalog feature module.
type Module struct {
	db        *gorm.DB
	bus       *events.EventBus
	store     *Store
	sync      *SyncService
	lifecycle *LifecycleManager
	handlers  *Handlers
}

// NewModule creates the catalog module. Services are constructed on Init
// once the store handle is available.
func NewModule(bus *events.EventBus) *Module {
	return &Module{bus: bus}
}

// Register creates the module and adds it to the global registry.
func Register(bus *events.EventBus) *Module {
	m := NewModule(bus)
	modulemanager.Register(m)
	return m
}

func (m *Module) ID() string   { return "system.catalog" }
func (m *Module) Name() string { return "Catalog" }
func (m *Module) Core() bool   { return true }

// Migrate creates the canonical show table.
func (m *Module) Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&database.Show{})
}

// Init wires the store, provider client, and services.
func (m *Module) Init(db *gorm.DB) error {
	m.db = db
	m.store = NewStore(db)

	client := provider.NewClient(config.Get().Catalog)
	m.sync = NewSyncService(m.store, client, m.bus)
	m.lifecycle = NewLifecycleManager(m.bus)
	m.handlers = NewHandlers(m.sync)
	return nil
}

// Sync exposes the catalog sync service to other modules.
func (m *Module) Sync() *SyncService { return m.sync }

// Lifecycle exposes the show lifecycle manager to other modules.
func (m *Module) Lifecycle() *LifecycleManager { return m.lifecycle }

// GetOrFetchShow delegates to the sync service so the module value can be
// handed to dependents before Init runs.
func (m *Module) GetOrFetchShow(ctx context.Context, externalID string) (*database.Show, error) {
	return m.sync.GetOrFetchShow(ctx, externalID)
}

// ReleaseShow delegates to the lifecycle manager.
func (m *Module) ReleaseShow(tx *gorm.DB, showID string) error {
	return m.lifecycle.ReleaseShow(tx, showID)
}

// RegisterRoutes registers the catalog HTTP routes.
func (m *Module) RegisterRoutes(router *gin.Engine) {
	m.handlers.RegisterRoutes(router)
}

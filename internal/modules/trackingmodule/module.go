// Package trackingmodule owns personal show tracking: per-user show
// subscriptions and per-episode watch progress.
package trackingmodule

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/watchdeck/watchdeck/internal/database"
	"github.com/watchdeck/watchdeck/internal/modulemanager"
)

// Module is the tracking feature module.
type Module struct {
	db            *gorm.DB
	resolver      ShowResolver
	releaser      ShowReleaser
	subscriptions *SubscriptionService
	progress      *ProgressTracker
	handlers      *Handlers
}

// NewModule creates the tracking module. The resolver and releaser come
// from the catalog module.
func NewModule(resolver ShowResolver, releaser ShowReleaser) *Module {
	return &Module{resolver: resolver, releaser: releaser}
}

// Register creates the module and adds it to the global registry.
func Register(resolver ShowResolver, releaser ShowReleaser) *Module {
	m := NewModule(resolver, releaser)
	modulemanager.Register(m)
	return m
}

func (m *Module) ID() string   { return "system.tracking" }
func (m *Module) Name() string { return "Tracking" }
func (m *Module) Core() bool   { return true }

// Migrate creates the tracking tables.
func (m *Module) Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&database.UserShowSubscription{},
		&database.EpisodeProgress{},
	)
}

// Init wires the services.
func (m *Module) Init(db *gorm.DB) error {
	m.db = db
	m.subscriptions = NewSubscriptionService(db, m.resolver, m.releaser)
	m.progress = NewProgressTracker(db)
	m.handlers = NewHandlers(m.subscriptions, m.progress)
	return nil
}

// Subscriptions exposes the subscription service, mainly for tests.
func (m *Module) Subscriptions() *SubscriptionService { return m.subscriptions }

// Progress exposes the progress tracker, mainly for tests.
func (m *Module) Progress() *ProgressTracker { return m.progress }

// RegisterRoutes registers the tracking HTTP routes.
func (m *Module) RegisterRoutes(router *gin.Engine) {
	m.handlers.RegisterRoutes(router)
}

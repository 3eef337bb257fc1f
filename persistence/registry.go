package persistence

import (
	"fmt"
	"sync"

	"gorm.io/gorm"
	"gorm.io/plugin/opentelemetry/tracing"
)

// DialectorOpener returns a gorm.Dialector for a given DSN.
type DialectorOpener = func(string) gorm.Dialector

var (
	registryMu sync.RWMutex
	providers  = make(map[string]DialectorOpener)
)

// Register adds a database dialect under name.
func Register(name string, opener DialectorOpener) {
	registryMu.Lock()
	defer registryMu.Unlock()
	providers[name] = opener
}

// Options controls how NewStorage opens the database.
type Options struct {
	Gorm            *gorm.Config
	SkipAutoMigrate bool
	// Tracing installs the OpenTelemetry gorm plugin.
	Tracing bool
}

// NewStorage opens the database registered as name and returns a migrated
// Repository.
func NewStorage(name, dsn string, opts Options) (*Repository, error) {
	registryMu.RLock()
	opener, ok := providers[name]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("persistence: unknown storage provider %q", name)
	}

	gormConfig := opts.Gorm
	if gormConfig == nil {
		gormConfig = &gorm.Config{}
	}

	db, err := gorm.Open(opener(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("persistence: open %s: %w", name, err)
	}

	if opts.Tracing {
		if err := db.Use(tracing.NewPlugin(tracing.WithDBName(name))); err != nil {
			return nil, fmt.Errorf("persistence: tracing plugin: %w", err)
		}
	}

	repo := NewRepository(db)
	if !opts.SkipAutoMigrate {
		if err := repo.AutoMigrate(); err != nil {
			return nil, fmt.Errorf("persistence: migrate: %w", err)
		}
	}
	return repo, nil
}

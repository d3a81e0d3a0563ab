// Package tenancy binds logical data models to per-tenant postgres schemas.
//
// A Registry is created once at startup, every tenant-scoped model is
// registered under a logical name, and request code asks for a Handle by
// (logical name, schema). Handles are built lazily on first use and then
// reused; every query issued through a handle targets "schema"."logical".
package tenancy

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"gorm.io/gorm"
	gormschema "gorm.io/gorm/schema"
)

var (
	// ErrUnknownModel is returned when a logical name was never registered.
	ErrUnknownModel = errors.New("tenancy: unknown model")
	// ErrInvalidSchema is returned for schema names that are not valid tenant schemas.
	ErrInvalidSchema = errors.New("tenancy: invalid schema name")
	// ErrSchemaRequired is returned when no schema is present in the context.
	ErrSchemaRequired = errors.New("tenancy: schema required")
)

type handleKey struct {
	logical string
	schema  string
}

// Registry owns the registered tenant models and the cache of bound handles.
type Registry struct {
	db    *gorm.DB
	namer gormschema.Namer

	mu      sync.RWMutex
	models  map[string]interface{}
	order   []string
	handles map[handleKey]*Handle
	// parse caches are kept per schema so a model bound for one tenant is
	// never served from another tenant's cache entry
	caches map[string]*sync.Map
}

// NewRegistry creates a registry issuing queries through db
func NewRegistry(db *gorm.DB) *Registry {
	var namer gormschema.Namer = gormschema.NamingStrategy{}
	if db != nil && db.Config != nil && db.NamingStrategy != nil {
		namer = db.NamingStrategy
	}
	return &Registry{
		db:      db,
		namer:   namer,
		models:  make(map[string]interface{}),
		handles: make(map[handleKey]*Handle),
		caches:  make(map[string]*sync.Map),
	}
}

// Register adds a tenant-scoped model under a logical name, which is also the
// physical table name inside every tenant schema. Registering a name twice is
// a programming error and panics.
func (r *Registry) Register(logical string, model interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.models[logical]; exists {
		panic(fmt.Sprintf("tenancy: model %q registered twice", logical))
	}
	r.models[logical] = model
	r.order = append(r.order, logical)
}

// Model returns the handle for logical bound to schema, building it on first use.
func (r *Registry) Model(logical, schema string) (*Handle, error) {
	if !ValidSchemaName(schema) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSchema, schema)
	}
	key := handleKey{logical: logical, schema: schema}

	r.mu.RLock()
	h, ok := r.handles[key]
	r.mu.RUnlock()
	if ok {
		return h, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// another request may have bound it while we waited for the write lock
	if h, ok := r.handles[key]; ok {
		return h, nil
	}

	model, ok := r.models[logical]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, logical)
	}

	cache, ok := r.caches[schema]
	if !ok {
		cache = &sync.Map{}
		r.caches[schema] = cache
	}

	table := schema + "." + logical
	fields, err := gormschema.ParseWithSpecialTableName(model, cache, r.namer, table)
	if err != nil {
		return nil, fmt.Errorf("tenancy: bind %q to %q: %w", logical, schema, err)
	}

	h = &Handle{
		logical: logical,
		schema:  schema,
		table:   table,
		model:   model,
		fields:  fields,
		db:      r.db,
	}
	r.handles[key] = h
	return h, nil
}

// ModelFor returns the handle for logical bound to the schema carried by ctx.
func (r *Registry) ModelFor(ctx context.Context, logical string) (*Handle, error) {
	schema, ok := SchemaFrom(ctx)
	if !ok {
		return nil, ErrSchemaRequired
	}
	return r.Model(logical, schema)
}

// Transaction runs fn inside a database transaction. Handles join it through Handle.On.
func (r *Registry) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

// Migrate creates or updates every registered table inside schema.
func (r *Registry) Migrate(ctx context.Context, schema string) error {
	for _, logical := range r.Logical() {
		h, err := r.Model(logical, schema)
		if err != nil {
			return err
		}
		if err := h.AutoMigrate(ctx); err != nil {
			return fmt.Errorf("tenancy: migrate %s: %w", h.Table(), err)
		}
	}
	return nil
}

// Logical returns the registered logical names in registration order.
func (r *Registry) Logical() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Size returns the number of bound handles.
func (r *Registry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handles)
}

// Schemas returns the schemas that currently have at least one bound handle.
func (r *Registry) Schemas() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.caches))
	for schema := range r.caches {
		out = append(out, schema)
	}
	sort.Strings(out)
	return out
}

// Handle is a tenant-scoped data-access handle for one logical model.
type Handle struct {
	logical string
	schema  string
	table   string
	model   interface{}
	fields  *gormschema.Schema
	db      *gorm.DB
}

// DB returns a gorm session targeting the handle's table.
func (h *Handle) DB(ctx context.Context) *gorm.DB {
	return h.db.WithContext(ctx).Table(h.table)
}

// On targets the handle's table within an existing session or transaction.
func (h *Handle) On(tx *gorm.DB) *gorm.DB {
	return tx.Table(h.table)
}

// AutoMigrate creates or updates the handle's table.
func (h *Handle) AutoMigrate(ctx context.Context) error {
	return h.DB(ctx).AutoMigrate(h.model)
}

// HasColumn reports whether the bound model has a column named name.
func (h *Handle) HasColumn(name string) bool {
	_, ok := h.fields.FieldsByDBName[name]
	return ok
}

func (h *Handle) Logical() string { return h.logical }
func (h *Handle) Schema() string  { return h.schema }
func (h *Handle) Table() string   { return h.table }

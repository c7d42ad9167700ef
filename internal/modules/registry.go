// Package modules loads module view configurations and keeps them by entity
// type.
package modules

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"viewengine/internal/apperror"
	"viewengine/internal/domain"
)

//go:embed builtin/*.yaml
var builtinFS embed.FS

type Registry struct {
	mu      sync.RWMutex
	modules map[string]*domain.ModuleConfig
	limits  domain.Limits
	now     func() time.Time
}

func NewRegistry(limits domain.Limits) *Registry {
	return &Registry{
		modules: make(map[string]*domain.ModuleConfig),
		limits:  limits,
		now:     time.Now,
	}
}

// WithClock sets the time used to resolve relative dates in default views.
func (r *Registry) WithClock(now func() time.Time) *Registry {
	r.now = now
	return r
}

// Register adds or replaces a module after validating it.
func (r *Registry) Register(m *domain.ModuleConfig) error {
	if err := m.Validate(r.limits); err != nil {
		return err
	}
	r.mu.Lock()
	r.modules[m.EntityType] = m
	r.mu.Unlock()
	return nil
}

func (r *Registry) Get(entityType string) (*domain.ModuleConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.modules[entityType]
	if !ok {
		return nil, apperror.NewNotFound("module", entityType)
	}
	return m, nil
}

// EntityTypes returns the registered entity types, sorted.
func (r *Registry) EntityTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.modules))
	for k := range r.modules {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

func (r *Registry) List() []*domain.ModuleConfig {
	types := r.EntityTypes()
	out := make([]*domain.ModuleConfig, 0, len(types))
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range types {
		out = append(out, r.modules[t])
	}
	return out
}

// LoadBuiltin registers the module configurations shipped with the binary.
func (r *Registry) LoadBuiltin() error {
	return r.loadFS(builtinFS, "builtin")
}

// Load registers every *.yaml / *.yml file in dir. Files override built-in
// modules of the same entity type.
func (r *Registry) Load(dir string) error {
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("failed to read modules directory: %w", err)
	}
	return r.loadFS(os.DirFS(dir), ".")
}

func (r *Registry) loadFS(fsys fs.FS, root string) error {
	entries, err := fs.ReadDir(fsys, root)
	if err != nil {
		return fmt.Errorf("failed to list module configs: %w", err)
	}

	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		data, err := fs.ReadFile(fsys, path.Join(root, e.Name()))
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", e.Name(), err)
		}
		m, err := Parse(data, r.limits, r.now)
		if err != nil {
			return fmt.Errorf("%s: %w", e.Name(), err)
		}
		r.mu.Lock()
		r.modules[m.EntityType] = m
		r.mu.Unlock()
	}
	return nil
}

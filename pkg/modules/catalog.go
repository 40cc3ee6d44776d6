package modules

import (
	"fmt"
	"sort"
	"sync"
)

// Descriptor is a read-only catalog entry
type Descriptor struct {
	Group   string
	Name    string
	Factory Factory
}

// Catalog maps group labels to named module factories
type Catalog struct {
	mu      sync.RWMutex
	entries map[string]map[string]Descriptor
}

// NewCatalog creates an empty catalog
func NewCatalog() *Catalog {
	return &Catalog{
		entries: make(map[string]map[string]Descriptor),
	}
}

// Add publishes a descriptor. Names are unique within a group.
func (c *Catalog) Add(d Descriptor) error {
	if d.Group == "" {
		return fmt.Errorf("descriptor group is required")
	}
	if d.Name == "" {
		return fmt.Errorf("descriptor name is required")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	group, ok := c.entries[d.Group]
	if !ok {
		group = make(map[string]Descriptor)
		c.entries[d.Group] = group
	}
	if _, exists := group[d.Name]; exists {
		return fmt.Errorf("module already registered in %s: %s", d.Group, d.Name)
	}

	group[d.Name] = d
	return nil
}

// Entries returns the descriptors of a group sorted by name
func (c *Catalog) Entries(group string) []Descriptor {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]Descriptor, 0, len(c.entries[group]))
	for _, d := range c.entries[group] {
		result = append(result, d)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })

	return result
}

// Names returns the entry names of a group sorted lexically
func (c *Catalog) Names(group string) []string {
	entries := c.Entries(group)
	names := make([]string, len(entries))
	for i, d := range entries {
		names[i] = d.Name
	}
	return names
}

// Resolve returns the factory behind a named entry
func (c *Catalog) Resolve(group, name string) (Factory, error) {
	c.mu.RLock()
	d, ok := c.entries[group][name]
	c.mu.RUnlock()

	if !ok {
		return nil, &ResolutionError{Group: group, Name: name, Err: ErrNotFound}
	}
	if d.Factory == nil {
		return nil, &ResolutionError{Group: group, Name: name, Err: ErrNoFactory}
	}
	return d.Factory, nil
}

var defaultCatalog = NewCatalog()

// Default returns the process wide catalog populated by Register
func Default() *Catalog {
	return defaultCatalog
}

// Register publishes a module factory under Group in the default catalog.
// It is meant to be called from a module package's init function and
// panics on a nil factory or a duplicate name.
func Register(name string, factory Factory) {
	if factory == nil {
		panic("modules: Register factory is nil for " + name)
	}
	if err := defaultCatalog.Add(Descriptor{Group: Group, Name: name, Factory: factory}); err != nil {
		panic("modules: " + err.Error())
	}
}

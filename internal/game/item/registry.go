package item

import "fmt"

// Registry holds all loaded item definitions indexed by ID.
type Registry struct {
	items map[string]*Item
}

// NewRegistry returns an empty Registry.
//
// Postcondition: the internal map is initialised.
func NewRegistry() *Registry {
	return &Registry{items: make(map[string]*Item)}
}

// Register adds i to the registry.
//
// Precondition:  i must not be nil and must validate.
// Postcondition: Item(i.ID) returns (i, true); returns error if i.ID already registered.
func (r *Registry) Register(i *Item) error {
	if err := i.Validate(); err != nil {
		return fmt.Errorf("item: Registry.Register: %w", err)
	}
	if _, exists := r.items[i.ID]; exists {
		return fmt.Errorf("item: Registry.Register: item ID %q already registered", i.ID)
	}
	r.items[i.ID] = i
	return nil
}

// Item returns the Item for the given id, or (nil, false) if not found.
func (r *Registry) Item(id string) (*Item, bool) {
	i, ok := r.items[id]
	return i, ok
}

// Len returns the number of registered items.
func (r *Registry) Len() int { return len(r.items) }

// FindByName returns the first item whose name contains name
// case-insensitively, or (nil, false) if none matches.
func (r *Registry) FindByName(name string) (*Item, bool) {
	for _, i := range r.items {
		if i.MatchesKeyword(name) {
			return i, true
		}
	}
	return nil, false
}

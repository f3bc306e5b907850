// Package catalog is the ordered list of user recipes, newest first.
//
// A recipe's id is its current position in the list. Ids are only valid
// for the render that produced them: every Add or RemoveAt shifts the
// positions of the recipes after the change.
package catalog

import (
	"sync"

	"github.com/poku-e/whisk/internal/recipe"
)

// Persister is the slot the catalog reads and writes in full on every
// operation.
type Persister interface {
	Load() []recipe.Recipe
	Save([]recipe.Recipe) error
}

type Catalog struct {
	mu    sync.Mutex
	store Persister
}

func New(store Persister) *Catalog {
	return &Catalog{store: store}
}

// Add normalizes r, puts it at the front and persists the whole list.
func (c *Catalog) Add(r recipe.Recipe) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	list := c.store.Load()
	list = append([]recipe.Recipe{recipe.Normalize(r)}, list...)
	return c.store.Save(list)
}

// RemoveAt deletes the recipe at position id. It reports false, and changes
// nothing, when id is outside the current list.
func (c *Catalog) RemoveAt(id int) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	list := c.store.Load()
	if id < 0 || id >= len(list) {
		return false, nil
	}
	list = append(list[:id], list[id+1:]...)
	if err := c.store.Save(list); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Catalog) All() []recipe.Recipe {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Load()
}

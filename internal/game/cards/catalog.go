// Package cards holds the card catalog: immutable definitions and the
// independent instances handed out for decks and hands.
package cards

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownCard is returned when a name is not present in the catalog.
	ErrUnknownCard = errors.New("unknown card")
	// ErrDuplicateCard is returned when a name is defined twice.
	ErrDuplicateCard = errors.New("duplicate card definition")
	// ErrInvalidDefinition is returned for definitions that break catalog invariants.
	ErrInvalidDefinition = errors.New("invalid card definition")
)

// Catalog is a registry of card definitions keyed by name. It is built once
// at startup and only read afterwards; it is not safe for concurrent Define calls.
type Catalog struct {
	defs  map[string]Definition
	order []string
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		defs:  make(map[string]Definition),
		order: make([]string, 0, 32),
	}
}

// Define registers one definition.
func (c *Catalog) Define(def Definition) error {
	name := strings.TrimSpace(def.Name)
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidDefinition)
	}
	if def.Power < 0 {
		return fmt.Errorf("%w: %s has negative power %d", ErrInvalidDefinition, name, def.Power)
	}
	if len(def.AllowedLines) == 0 {
		return fmt.Errorf("%w: %s has no allowed lines", ErrInvalidDefinition, name)
	}
	if _, exists := c.defs[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateCard, name)
	}

	lines := make([]Line, len(def.AllowedLines))
	copy(lines, def.AllowedLines)
	def.Name = name
	def.AllowedLines = lines

	c.defs[name] = def
	c.order = append(c.order, name)
	return nil
}

// Lookup returns the definition registered under name.
func (c *Catalog) Lookup(name string) (Definition, bool) {
	def, ok := c.defs[name]
	return def, ok
}

// Instantiate returns a fresh instance of the named card. Instances never
// share state with the catalog or with each other.
func (c *Catalog) Instantiate(name string) (*Instance, error) {
	def, ok := c.defs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCard, name)
	}
	return newInstance(def), nil
}

// InstantiateAll resolves every name, failing on the first unknown one.
func (c *Catalog) InstantiateAll(names []string) ([]*Instance, error) {
	out := make([]*Instance, 0, len(names))
	for _, name := range names {
		inst, err := c.Instantiate(name)
		if err != nil {
			return nil, err
		}
		out = append(out, inst)
	}
	return out, nil
}

// Names returns card names in definition order.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Len returns the number of definitions.
func (c *Catalog) Len() int {
	return len(c.order)
}

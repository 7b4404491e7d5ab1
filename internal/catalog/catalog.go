// Package catalog holds the read-only services catalog and room-type list
// from which quotes are composed.
package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

var (
	ErrNotFound       = errors.New("catalog_entry_not_found")
	ErrInvalidCatalog = errors.New("invalid_catalog")
)

type Catalog struct {
	Rooms []string `yaml:"rooms" json:"rooms"`
	Lots  []Lot    `yaml:"lots" json:"lots"`
}

type Lot struct {
	Name          string        `yaml:"name" json:"name"`
	Subcategories []Subcategory `yaml:"subcategories" json:"subcategories"`
}

type Subcategory struct {
	Name  string `yaml:"name" json:"name"`
	Items []Item `yaml:"items" json:"items"`
}

type Item struct {
	Name    string   `yaml:"name" json:"name"`
	Options []Option `yaml:"options" json:"options"`
}

// Option is one priced choice of an item. TaxRatePercent is nil when the
// quote default applies.
type Option struct {
	Label            string   `yaml:"label" json:"label"`
	UnitPriceExclTax float64  `yaml:"unitPriceExclTax" json:"unitPriceExclTax"`
	Unit             string   `yaml:"unit" json:"unit"`
	TaxRatePercent   *float64 `yaml:"taxRatePercent,omitempty" json:"taxRatePercent,omitempty"`
	Description      string   `yaml:"description,omitempty" json:"description,omitempty"`
}

// Load reads the catalog at path, or the embedded catalog when path is empty.
func Load(path string) (*Catalog, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Parse(defaultCatalog)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog. Unknown keys are rejected.
func Parse(data []byte) (*Catalog, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var c Catalog
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) validate() error {
	if len(c.Rooms) == 0 {
		return fmt.Errorf("%w: no rooms", ErrInvalidCatalog)
	}
	seen := make(map[string]struct{}, len(c.Rooms))
	for i, name := range c.Rooms {
		name = strings.TrimSpace(name)
		if name == "" {
			return fmt.Errorf("%w: empty room name", ErrInvalidCatalog)
		}
		if _, ok := seen[name]; ok {
			return fmt.Errorf("%w: duplicate room %q", ErrInvalidCatalog, name)
		}
		seen[name] = struct{}{}
		c.Rooms[i] = name
	}

	for _, lot := range c.Lots {
		if strings.TrimSpace(lot.Name) == "" {
			return fmt.Errorf("%w: empty lot name", ErrInvalidCatalog)
		}
		for _, sub := range lot.Subcategories {
			for _, item := range sub.Items {
				for _, opt := range item.Options {
					if opt.UnitPriceExclTax < 0 {
						return fmt.Errorf("%w: negative price for %s / %s", ErrInvalidCatalog, item.Name, opt.Label)
					}
					if opt.TaxRatePercent != nil && *opt.TaxRatePercent < 0 {
						return fmt.Errorf("%w: negative tax rate for %s / %s", ErrInvalidCatalog, item.Name, opt.Label)
					}
				}
			}
		}
	}
	return nil
}

// RoomNames returns a copy of the room-type list.
func (c *Catalog) RoomNames() []string {
	return append([]string(nil), c.Rooms...)
}

// Lookup finds an option by its path. Names match case-insensitively after
// trimming.
func (c *Catalog) Lookup(lotName, subcategoryName, itemName, optionLabel string) (Option, error) {
	for _, lot := range c.Lots {
		if !sameName(lot.Name, lotName) {
			continue
		}
		for _, sub := range lot.Subcategories {
			if !sameName(sub.Name, subcategoryName) {
				continue
			}
			for _, item := range sub.Items {
				if !sameName(item.Name, itemName) {
					continue
				}
				for _, opt := range item.Options {
					if sameName(opt.Label, optionLabel) {
						return opt, nil
					}
				}
			}
		}
	}
	return Option{}, fmt.Errorf("%w: %s / %s / %s / %s", ErrNotFound, lotName, subcategoryName, itemName, optionLabel)
}

func sameName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

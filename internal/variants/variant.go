// Package variants models product variant axes and builds the sellable
// combination matrix the product forms render.
package variants

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidVariants = errors.New("invalid variants")

// Variant is one axis of differentiation, e.g. "Color".
type Variant struct {
	Name        string   `json:"name"`
	DisplayName string   `json:"display_name"`
	Options     []Option `json:"options"`
}

// Option is one concrete choice along a Variant. Price is in minor currency units.
type Option struct {
	Name        string         `json:"name"`
	DisplayName string         `json:"display_name"`
	Price       int64          `json:"price"`
	Stock       int            `json:"stock"`
	IsDefault   bool           `json:"is_default"`
	SKU         string         `json:"sku"`
	Images      []string       `json:"images"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

func (o Option) label() string {
	if o.DisplayName != "" {
		return o.DisplayName
	}
	return o.Name
}

// DefaultVariantName names the implicit axis of a product sold without variants.
const DefaultVariantName = "default"

// Standalone wraps the single option of a product without variants.
func Standalone(o Option) []Variant {
	if o.Name == "" {
		o.Name = DefaultVariantName
	}
	o.IsDefault = true
	return []Variant{{Name: DefaultVariantName, DisplayName: "Default", Options: []Option{o}}}
}

// Validate checks the form payload before a matrix is built from it.
func Validate(vs []Variant) error {
	if len(vs) == 0 {
		return fmt.Errorf("%w: at least one variant is required", ErrInvalidVariants)
	}
	seen := make(map[string]bool, len(vs))
	for i, v := range vs {
		name := strings.TrimSpace(v.Name)
		if name == "" {
			return fmt.Errorf("%w: variant %d has no name", ErrInvalidVariants, i+1)
		}
		key := strings.ToLower(name)
		if seen[key] {
			return fmt.Errorf("%w: duplicate variant %q", ErrInvalidVariants, name)
		}
		seen[key] = true

		if len(v.Options) == 0 {
			return fmt.Errorf("%w: variant %q has no options", ErrInvalidVariants, name)
		}
		if err := validateOptions(name, v.Options); err != nil {
			return err
		}
	}
	if n, ok := count(vs); !ok || n > MaxCombinations {
		return fmt.Errorf("%w: more than %d combinations", ErrInvalidVariants, MaxCombinations)
	}
	return nil
}

func validateOptions(variant string, opts []Option) error {
	seen := make(map[string]bool, len(opts))
	defaults := 0
	for i, o := range opts {
		name := strings.TrimSpace(o.Name)
		if name == "" {
			return fmt.Errorf("%w: option %d of %q has no name", ErrInvalidVariants, i+1, variant)
		}
		key := strings.ToLower(name)
		if seen[key] {
			return fmt.Errorf("%w: duplicate option %q in %q", ErrInvalidVariants, name, variant)
		}
		seen[key] = true
		if o.Price < 0 {
			return fmt.Errorf("%w: option %q has a negative price", ErrInvalidVariants, name)
		}
		if o.Stock < 0 {
			return fmt.Errorf("%w: option %q has negative stock", ErrInvalidVariants, name)
		}
		if o.IsDefault {
			defaults++
		}
	}
	if defaults > 1 {
		return fmt.Errorf("%w: variant %q has %d default options", ErrInvalidVariants, variant, defaults)
	}
	return nil
}

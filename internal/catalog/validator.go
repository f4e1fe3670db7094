package catalog

import (
	"fmt"
	"strings"
)

type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

// Validate checks the seed catalog for the mistakes that would otherwise
// surface as broken storefront listings.
func (v *Validator) Validate(catalog *Catalog) error {
	if catalog == nil {
		return fmt.Errorf("catalog is required")
	}
	if strings.TrimSpace(catalog.Store.Name) == "" {
		return fmt.Errorf("store name is required")
	}
	if len(catalog.Products) == 0 {
		return fmt.Errorf("catalog must define at least one product")
	}

	categories := make(map[string]struct{}, len(catalog.Categories))
	for _, category := range catalog.Categories {
		trimmed := strings.TrimSpace(category)
		if trimmed == "" {
			return fmt.Errorf("empty category name")
		}
		if _, exists := categories[trimmed]; exists {
			return fmt.Errorf("duplicate category: %s", trimmed)
		}
		categories[trimmed] = struct{}{}
	}

	names := make(map[string]struct{}, len(catalog.Products))
	for i, product := range catalog.Products {
		name := strings.TrimSpace(product.Name)
		if name == "" {
			return fmt.Errorf("product %d: name is required", i)
		}
		if _, exists := names[name]; exists {
			return fmt.Errorf("duplicate product name: %s", name)
		}
		names[name] = struct{}{}

		if product.PriceCents <= 0 {
			return fmt.Errorf("product %s: price must be positive", name)
		}
		if product.OriginalCents != 0 && product.OriginalCents < product.PriceCents {
			return fmt.Errorf("product %s: original price below sale price", name)
		}
		if product.Stock < 0 {
			return fmt.Errorf("product %s: stock must not be negative", name)
		}
		if product.Category != "" && len(categories) > 0 {
			if _, ok := categories[product.Category]; !ok {
				return fmt.Errorf("product %s: unknown category %s", name, product.Category)
			}
		}
	}

	return nil
}

package catalog

import (
	"strings"
	"testing"
)

func validCatalog() *Catalog {
	return &Catalog{
		Store:      StoreConfig{Name: "LUXE", Currency: "usd"},
		Categories: []string{"Accessories"},
		Products: []ProductConfig{
			{Name: "Leather Tote", PriceCents: 12900, Category: "Accessories", Stock: 3, Active: true},
		},
	}
}

func TestValidateCatalog(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(c *Catalog)
		wantErr string
	}{
		{
			name:   "valid catalog",
			mutate: func(c *Catalog) {},
		},
		{
			name:    "missing store name",
			mutate:  func(c *Catalog) { c.Store.Name = " " },
			wantErr: "store name",
		},
		{
			name:    "no products",
			mutate:  func(c *Catalog) { c.Products = nil },
			wantErr: "at least one product",
		},
		{
			name: "duplicate product name",
			mutate: func(c *Catalog) {
				c.Products = append(c.Products, c.Products[0])
			},
			wantErr: "duplicate product name",
		},
		{
			name:    "non-positive price",
			mutate:  func(c *Catalog) { c.Products[0].PriceCents = 0 },
			wantErr: "price must be positive",
		},
		{
			name: "original price below sale price",
			mutate: func(c *Catalog) {
				c.Products[0].OriginalCents = 100
			},
			wantErr: "original price",
		},
		{
			name:    "negative stock",
			mutate:  func(c *Catalog) { c.Products[0].Stock = -1 },
			wantErr: "stock",
		},
		{
			name:    "unknown category",
			mutate:  func(c *Catalog) { c.Products[0].Category = "Electronics" },
			wantErr: "unknown category",
		},
		{
			name: "duplicate category",
			mutate: func(c *Catalog) {
				c.Categories = append(c.Categories, "Accessories")
			},
			wantErr: "duplicate category",
		},
	}

	validator := NewValidator()
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			catalog := validCatalog()
			tc.mutate(catalog)

			err := validator.Validate(catalog)
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

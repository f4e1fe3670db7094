package catalog

import "testing"

const sampleCatalog = `
store:
  name: LUXE
  currency: usd
categories:
  - Women's Fashion
  - Accessories
products:
  - name: Premium Silk Blouse
    description: Lightweight silk blouse
    price_cents: 4999
    original_cents: 8999
    image: https://example.com/blouse.jpg
    category: Women's Fashion
    stock: 12
    active: true
  - name: Leather Tote
    price_cents: 12900
    category: Accessories
    stock: 3
    active: true
`

func TestParseCatalog(t *testing.T) {
	t.Parallel()

	parser := NewParser()
	catalog, err := parser.Parse([]byte(sampleCatalog))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if catalog.Store.Name != "LUXE" {
		t.Fatalf("store name = %q, want LUXE", catalog.Store.Name)
	}
	if len(catalog.Categories) != 2 {
		t.Fatalf("categories = %d, want 2", len(catalog.Categories))
	}
	if len(catalog.Products) != 2 {
		t.Fatalf("products = %d, want 2", len(catalog.Products))
	}

	blouse := catalog.Products[0]
	if blouse.PriceCents != 4999 || blouse.OriginalCents != 8999 {
		t.Fatalf("unexpected pricing: %+v", blouse)
	}
	if blouse.Category != "Women's Fashion" || !blouse.Active || blouse.Stock != 12 {
		t.Fatalf("unexpected product fields: %+v", blouse)
	}
}

func TestParseRejectsInvalidYAML(t *testing.T) {
	t.Parallel()

	parser := NewParser()
	if _, err := parser.Parse([]byte("products: [unclosed")); err == nil {
		t.Fatal("expected parse error, got nil")
	}
}

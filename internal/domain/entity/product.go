package entity

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/garyjia/luminate-erp/internal/apperrors"
)

// Product is a catalog record. Stock only changes when an invoice is finalized.
type Product struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	Stock        int             `json:"stock"`
	ReorderLevel int             `json:"reorder_level"`
	Category     string          `json:"category"`
}

// IsLowStock reports whether the product is at or below its reorder threshold
func (p Product) IsLowStock() bool {
	return p.Stock <= p.ReorderLevel
}

// Catalog owns the product records in insertion order
type Catalog struct {
	products []Product
	index    map[string]int
}

// NewCatalog builds a catalog from the given products
func NewCatalog(products []Product) *Catalog {
	c := &Catalog{
		products: make([]Product, 0, len(products)),
		index:    make(map[string]int, len(products)),
	}
	for _, p := range products {
		c.Add(p)
	}
	return c
}

// Add inserts a product, replacing any existing record with the same ID
func (c *Catalog) Add(p Product) {
	if i, ok := c.index[p.ID]; ok {
		c.products[i] = p
		return
	}
	c.index[p.ID] = len(c.products)
	c.products = append(c.products, p)
}

// List returns a copy of all products
func (c *Catalog) List() []Product {
	out := make([]Product, len(c.products))
	copy(out, c.products)
	return out
}

// Len returns the number of products
func (c *Catalog) Len() int {
	return len(c.products)
}

// Get returns a copy of the product with the given ID
func (c *Catalog) Get(id string) (Product, error) {
	i, ok := c.index[id]
	if !ok {
		return Product{}, apperrors.NotFound("product", id)
	}
	return c.products[i], nil
}

// CheckAvailability is true iff the product exists and has at least qty units
func (c *Catalog) CheckAvailability(id string, qty int) bool {
	i, ok := c.index[id]
	return ok && c.products[i].Stock >= qty
}

// Shortages returns every product that cannot cover the summed quantity of
// the given items. Lines for the same product are checked together. A sum
// that overflows, or a non-positive line, always counts as a shortage.
func (c *Catalog) Shortages(items []InvoiceItem) []apperrors.Shortage {
	order := make([]string, 0, len(items))
	totals := make(map[string]int, len(items))
	invalid := make(map[string]bool)
	for _, item := range items {
		if _, seen := totals[item.ProductID]; !seen {
			order = append(order, item.ProductID)
		}
		sum, ok := addQuantity(totals[item.ProductID], item.Quantity)
		if !ok {
			invalid[item.ProductID] = true
		}
		totals[item.ProductID] = sum
	}

	var shortages []apperrors.Shortage
	for _, id := range order {
		if !invalid[id] && c.CheckAvailability(id, totals[id]) {
			continue
		}
		available := 0
		if i, ok := c.index[id]; ok {
			available = c.products[i].Stock
		}
		shortages = append(shortages, apperrors.Shortage{
			ProductID: id,
			Requested: totals[id],
			Available: available,
		})
	}
	return shortages
}

// addQuantity sums two line quantities, saturating at math.MaxInt. It
// reports false when qty is not positive or the sum overflowed.
func addQuantity(total, qty int) (int, bool) {
	if qty <= 0 {
		return total, false
	}
	if total > math.MaxInt-qty {
		return math.MaxInt, false
	}
	return total + qty, true
}

// Deduct decrements stock without re-validating sufficiency. Callers must
// have checked availability inside the same finalization.
func (c *Catalog) Deduct(id string, qty int) error {
	i, ok := c.index[id]
	if !ok {
		return apperrors.NotFound("product", id)
	}
	c.products[i].Stock -= qty
	return nil
}

// Clone returns an independent copy
func (c *Catalog) Clone() *Catalog {
	return NewCatalog(c.products)
}

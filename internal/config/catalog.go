package config

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/garyjia/luminate-erp/internal/domain/entity"
	domainwf "github.com/garyjia/luminate-erp/internal/domain/workflow"
)

// SeedProducts converts the configured seed catalog into domain products,
// rejecting blank or duplicate ids, unparsable or negative prices and
// negative stock.
func (c CatalogConfig) SeedProducts() ([]entity.Product, error) {
	products := make([]entity.Product, 0, len(c.Products))
	seen := make(map[string]bool, len(c.Products))

	for i, p := range c.Products {
		if p.ID == "" {
			return nil, fmt.Errorf("catalog.products[%d].id is required", i)
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("catalog.products[%d]: duplicate id %s", i, p.ID)
		}
		seen[p.ID] = true

		price, err := decimal.NewFromString(p.Price)
		if err != nil {
			return nil, fmt.Errorf("catalog.products[%d].price %q: %w", i, p.Price, err)
		}
		if price.IsNegative() {
			return nil, fmt.Errorf("catalog.products[%d].price must not be negative", i)
		}
		if p.Stock < 0 || p.ReorderLevel < 0 {
			return nil, fmt.Errorf("catalog.products[%d]: stock and reorder_level must not be negative", i)
		}

		products = append(products, entity.Product{
			ID:           p.ID,
			Name:         p.Name,
			Price:        price,
			Stock:        p.Stock,
			ReorderLevel: p.ReorderLevel,
			Category:     p.Category,
		})
	}
	return products, nil
}

// SeedInvoices prices the configured seed invoices against products.
// Only PENDING_APPROVAL, FINALIZED and REJECTED may be seeded, and a
// FINALIZED invoice needs both approvers. Finalized seeds are marked synced.
func (c CatalogConfig) SeedInvoices(products []entity.Product) ([]*entity.Invoice, error) {
	catalog := entity.NewCatalog(products)
	invoices := make([]*entity.Invoice, 0, len(c.Invoices))
	seen := make(map[string]bool, len(c.Invoices))

	for i, sc := range c.Invoices {
		field := fmt.Sprintf("catalog.invoices[%d]", i)
		if sc.ID == "" || sc.SchoolName == "" {
			return nil, fmt.Errorf("%s: id and school_name are required", field)
		}
		if seen[sc.ID] {
			return nil, fmt.Errorf("%s: duplicate id %s", field, sc.ID)
		}
		seen[sc.ID] = true

		date, err := time.Parse("2006-01-02", sc.Date)
		if err != nil {
			return nil, fmt.Errorf("%s.date %q: %w", field, sc.Date, err)
		}

		status := domainwf.State(sc.Status)
		switch status {
		case domainwf.StatePendingApproval, domainwf.StateRejected:
		case domainwf.StateFinalized:
			if sc.AccountsBy == "" || sc.StockBy == "" {
				return nil, fmt.Errorf("%s: a FINALIZED invoice needs accounts_by and stock_by", field)
			}
		default:
			return nil, fmt.Errorf("%s.status %q cannot be seeded", field, sc.Status)
		}

		if len(sc.Items) == 0 {
			return nil, fmt.Errorf("%s: at least one item is required", field)
		}
		items := make([]entity.InvoiceItem, 0, len(sc.Items))
		for n, line := range sc.Items {
			if line.Quantity <= 0 || line.Quantity > entity.MaxLineQuantity {
				return nil, fmt.Errorf("%s.items[%d].quantity must be between 1 and %d", field, n, entity.MaxLineQuantity)
			}
			product, err := catalog.Get(line.ProductID)
			if err != nil {
				return nil, fmt.Errorf("%s.items[%d]: %w", field, n, err)
			}
			items = append(items, entity.NewInvoiceItem(product, line.Quantity))
		}

		inv := entity.NewInvoice(sc.ID, sc.SchoolName, date, items)
		inv.Status = status
		inv.CreatedBy = "seed"
		inv.UpdatedAt = date
		if sc.AccountsBy != "" {
			inv.Approvals.Set(entity.RoleAccounts, seedApproval(sc.AccountsBy, entity.RoleAccounts, sc.ID, date))
		}
		if sc.StockBy != "" {
			inv.Approvals.Set(entity.RoleStock, seedApproval(sc.StockBy, entity.RoleStock, sc.ID, date))
		}
		if status == domainwf.StateFinalized {
			synced := entity.SyncStatusSynced
			inv.SyncStatus = &synced
		}
		invoices = append(invoices, inv)
	}
	return invoices, nil
}

func seedApproval(by string, role entity.Role, invoiceID string, date time.Time) entity.Approval {
	return entity.Approval{
		Approved:  true,
		By:        by,
		Date:      date,
		Signature: fmt.Sprintf("seed_%s_%s", role, invoiceID),
	}
}

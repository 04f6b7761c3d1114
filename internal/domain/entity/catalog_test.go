package entity

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/luminate-erp/internal/apperrors"
)

func sampleCatalog() *Catalog {
	return NewCatalog([]Product{
		textbook(),
		{ID: "P002", Name: "Science Lab Kit", Price: decimal.RequireFromString("120"), Stock: 50, ReorderLevel: 20},
	})
}

func TestCatalog_CheckAvailability(t *testing.T) {
	c := sampleCatalog()

	assert.True(t, c.CheckAvailability("P002", 50))
	assert.False(t, c.CheckAvailability("P002", 51))
	assert.False(t, c.CheckAvailability("NOPE", 1))
}

func TestCatalog_Deduct(t *testing.T) {
	c := sampleCatalog()

	require.NoError(t, c.Deduct("P001", 100))
	p, err := c.Get("P001")
	require.NoError(t, err)
	assert.Equal(t, 400, p.Stock)

	err = c.Deduct("NOPE", 1)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCatalog_ShortagesAggregatesLines(t *testing.T) {
	c := sampleCatalog()
	p2, _ := c.Get("P002")

	items := []InvoiceItem{
		NewInvoiceItem(p2, 30),
		NewInvoiceItem(textbook(), 1),
		NewInvoiceItem(p2, 30),
		{ProductID: "GONE", Quantity: 1},
	}

	shortages := c.Shortages(items)
	require.Len(t, shortages, 2)
	assert.Equal(t, apperrors.Shortage{ProductID: "P002", Requested: 60, Available: 50}, shortages[0])
	assert.Equal(t, apperrors.Shortage{ProductID: "GONE", Requested: 1, Available: 0}, shortages[1])
}

func TestCatalog_CloneIsIndependent(t *testing.T) {
	c := sampleCatalog()
	cp := c.Clone()

	require.NoError(t, cp.Deduct("P001", 10))

	p, _ := c.Get("P001")
	assert.Equal(t, 500, p.Stock)
	assert.Equal(t, []string{"P001", "P002"}, []string{c.List()[0].ID, c.List()[1].ID})
}

func TestProduct_IsLowStock(t *testing.T) {
	assert.True(t, Product{Stock: 15, ReorderLevel: 25}.IsLowStock())
	assert.True(t, Product{Stock: 25, ReorderLevel: 25}.IsLowStock())
	assert.False(t, Product{Stock: 26, ReorderLevel: 25}.IsLowStock())
}

func TestCatalog_ShortagesOverflowCountsAsShortage(t *testing.T) {
	c := sampleCatalog()
	huge := math.MaxInt/2 + 1

	shortages := c.Shortages([]InvoiceItem{
		NewInvoiceItem(textbook(), huge),
		NewInvoiceItem(textbook(), huge),
	})
	require.Len(t, shortages, 1)
	assert.Equal(t, "P001", shortages[0].ProductID)
	assert.Equal(t, math.MaxInt, shortages[0].Requested)
	assert.Equal(t, 500, shortages[0].Available)
}

func TestCatalog_ShortagesRejectsNonPositiveLines(t *testing.T) {
	c := sampleCatalog()

	shortages := c.Shortages([]InvoiceItem{{ProductID: "P002", Quantity: -5}})
	require.Len(t, shortages, 1)
	assert.Equal(t, "P002", shortages[0].ProductID)
}

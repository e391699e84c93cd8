// Package pricing holds the storefront's money arithmetic. Amounts are
// float64 dollars rounded to cents at every public boundary.
package pricing

import (
	"math"
	"sort"

	"github.com/spec-kit/grocery-storefront/internal/domain"
)

// TaxRate is applied to the cart subtotal.
const TaxRate = 0.02

// Line is a priced cart entry.
type Line struct {
	Product  domain.Product
	Quantity int
}

// Total returns unit price times quantity.
func (l Line) Total() float64 {
	return Round(l.Product.Price * float64(l.Quantity))
}

// Quote summarizes a cart against the catalog.
type Quote struct {
	Lines    []Line
	Subtotal float64
	Tax      float64
	Total    float64
}

// Count sums line quantities.
func (q Quote) Count() int {
	n := 0
	for _, l := range q.Lines {
		n += l.Quantity
	}
	return n
}

// Items converts the quote into order lines carrying unit prices.
func (q Quote) Items() []domain.OrderItem {
	items := make([]domain.OrderItem, 0, len(q.Lines))
	for _, l := range q.Lines {
		items = append(items, domain.OrderItem{
			Name:     l.Product.Name,
			Quantity: l.Quantity,
			Price:    l.Product.Price,
			Size:     l.Product.Size,
		})
	}
	return items
}

// Build prices cart against products. Cart entries with no matching product
// are ignored; lines keep catalog order.
func Build(cart domain.CartSnapshot, products []domain.Product) Quote {
	var q Quote
	var subtotal float64
	for _, p := range products {
		qty := cart[p.CartKey()]
		if qty <= 0 {
			continue
		}
		q.Lines = append(q.Lines, Line{Product: p, Quantity: qty})
		subtotal += p.Price * float64(qty)
	}
	q.Subtotal = Round(subtotal)
	q.Tax = Tax(q.Subtotal)
	q.Total = Round(q.Subtotal + q.Tax)
	return q
}

// Tax returns TaxRate of subtotal.
func Tax(subtotal float64) float64 {
	return Round(subtotal * TaxRate)
}

// DiscountPercent returns the whole-number percentage saved going from
// oldPrice to price, or 0 when there is no saving.
func DiscountPercent(oldPrice, price float64) int {
	if oldPrice <= 0 || oldPrice <= price {
		return 0
	}
	return int(math.Round((oldPrice - price) / oldPrice * 100))
}

// Deals returns up to limit discounted products, largest absolute saving first.
// A limit <= 0 returns all of them.
func Deals(products []domain.Product, limit int) []domain.Product {
	deals := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if p.OldPrice > p.Price {
			deals = append(deals, p)
		}
	}
	sort.SliceStable(deals, func(i, j int) bool {
		return deals[i].OldPrice-deals[i].Price > deals[j].OldPrice-deals[j].Price
	})
	if limit > 0 && len(deals) > limit {
		deals = deals[:limit]
	}
	return deals
}

// Round rounds to cents.
func Round(v float64) float64 {
	return math.Round(v*100) / 100
}

/*
inventory.go - Product inventory derived from purchase and sale history

PURPOSE:
  Computes the Product view (stock, totals, prices) from the full history.
  The full recompute is the reference; ApplyPurchase and ApplySale are the
  incremental forms and must agree with it.

WEIGHTED AVERAGE:
  Each purchase folds into the running average:

    avg' = (avg × purchased + unitPrice × quantity) / (purchased + quantity)

  10 @ 5 then 10 @ 7 gives (50 + 70) / 20 = 6.

STOCK:
  currentStock = max(0, totalPurchased - totalSold). The clamp is a floor,
  not a proof: sale admission is what keeps sales within stock.

IDENTITY:
  A product is keyed by its name. Its id is derived from the name, so the
  same history always yields the same ids.

SEE ALSO:
  - ledger.go: Sale admission checks stock against this view
*/
package business

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bizmob/ledger/generic"
)

var productNamespace = uuid.MustParse("7f1c8f4e-2f0a-4b7e-9d43-4f2a1c6b8e01")

// DefaultMarkup is applied to the unit price when a new product's first
// purchase carries no initial sale price.
var DefaultMarkup = decimal.RequireFromString("1.2")

// ProductID returns the stable id for a product name.
func ProductID(name string) string {
	return uuid.NewSHA1(productNamespace, []byte(name)).String()
}

// =============================================================================
// FULL RECOMPUTE
// =============================================================================

// RecomputeProducts derives the product view from the full history.
// existing seeds ids and initial sale prices; its totals are discarded.
// Sale lines naming a product never purchased are ignored.
func RecomputeProducts(existing []Product, purchases []Purchase, sales []Sale) []Product {
	byName := make(map[string]*Product, len(existing))
	for _, p := range existing {
		seeded := p
		seeded.TotalPurchased = decimal.Zero
		seeded.CurrentStock = decimal.Zero
		seeded.AveragePurchasePrice = decimal.Zero
		byName[p.Name] = &seeded
	}

	for _, purchase := range purchases {
		foldPurchase(byName, purchase)
	}

	sold := make(map[string]decimal.Decimal)
	for _, sale := range sales {
		for _, item := range sale.Items {
			sold[item.ProductName] = sold[item.ProductName].Add(item.Quantity)
		}
	}

	out := make([]Product, 0, len(byName))
	for name, p := range byName {
		p.TotalSold = sold[name]
		p.CurrentStock = generic.ClampZero(p.TotalPurchased.Sub(p.TotalSold))
		out = append(out, *p)
	}
	sortProducts(out)
	return out
}

// foldPurchase adds one purchase to the running product totals.
func foldPurchase(byName map[string]*Product, purchase Purchase) {
	p, ok := byName[purchase.ProductName]
	if !ok {
		salePrice := purchase.InitialSalePrice
		if salePrice.IsZero() {
			salePrice = purchase.UnitPrice.Mul(DefaultMarkup)
		}
		byName[purchase.ProductName] = &Product{
			ID:                   ProductID(purchase.ProductName),
			Name:                 purchase.ProductName,
			TotalPurchased:       purchase.Quantity,
			LastPurchasePrice:    purchase.UnitPrice,
			AveragePurchasePrice: purchase.UnitPrice,
			InitialSalePrice:     salePrice,
		}
		return
	}

	oldTotal := p.TotalPurchased
	newTotal := oldTotal.Add(purchase.Quantity)
	p.LastPurchasePrice = purchase.UnitPrice
	if !purchase.InitialSalePrice.IsZero() {
		p.InitialSalePrice = purchase.InitialSalePrice
	}
	if newTotal.IsPositive() {
		p.AveragePurchasePrice = p.AveragePurchasePrice.Mul(oldTotal).
			Add(purchase.UnitPrice.Mul(purchase.Quantity)).
			Div(newTotal)
	}
	p.TotalPurchased = newTotal
}

// =============================================================================
// INCREMENTAL UPDATES
// =============================================================================

// ApplyPurchase folds one new purchase into the product view without
// rescanning history. The input slice is not modified.
func ApplyPurchase(products []Product, purchase Purchase) []Product {
	byName := indexProducts(products)
	foldPurchase(byName, purchase)

	p := byName[purchase.ProductName]
	p.CurrentStock = generic.ClampZero(p.TotalPurchased.Sub(p.TotalSold))
	return collectProducts(byName)
}

// ApplySale folds one new sale into the product view without rescanning
// history. Lines for unknown products are ignored.
func ApplySale(products []Product, sale Sale) []Product {
	byName := indexProducts(products)
	for _, item := range sale.Items {
		p, ok := byName[item.ProductName]
		if !ok {
			continue
		}
		p.TotalSold = p.TotalSold.Add(item.Quantity)
		p.CurrentStock = generic.ClampZero(p.TotalPurchased.Sub(p.TotalSold))
	}
	return collectProducts(byName)
}

// =============================================================================
// LOOKUPS
// =============================================================================

// FindProduct returns the product with the given name.
func FindProduct(products []Product, name string) (Product, bool) {
	for _, p := range products {
		if p.Name == name {
			return p, true
		}
	}
	return Product{}, false
}

// CheckStock verifies every line of sale against the product view. The
// first short line fails the whole sale. Quantities of repeated lines for
// the same product are summed.
func CheckStock(products []Product, sale Sale) error {
	required := make(map[string]decimal.Decimal)
	for _, item := range sale.Items {
		need := required[item.ProductName].Add(item.Quantity)
		required[item.ProductName] = need

		available := decimal.Zero
		if p, ok := FindProduct(products, item.ProductName); ok {
			available = p.CurrentStock
		}
		if available.LessThan(need) {
			return &generic.InsufficientStockError{
				ProductName: item.ProductName,
				Available:   available,
				Required:    need,
			}
		}
	}
	return nil
}

// LowStock returns products whose stock is at or below threshold, lowest
// first.
func LowStock(products []Product, threshold decimal.Decimal) []Product {
	var out []Product
	for _, p := range products {
		if p.CurrentStock.LessThanOrEqual(threshold) {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CurrentStock.LessThan(out[j].CurrentStock)
	})
	return out
}

func indexProducts(products []Product) map[string]*Product {
	byName := make(map[string]*Product, len(products))
	for _, p := range products {
		cp := p
		byName[p.Name] = &cp
	}
	return byName
}

func collectProducts(byName map[string]*Product) []Product {
	out := make([]Product, 0, len(byName))
	for _, p := range byName {
		out = append(out, *p)
	}
	sortProducts(out)
	return out
}

func sortProducts(products []Product) {
	sort.Slice(products, func(i, j int) bool {
		return products[i].Name < products[j].Name
	})
}

package business

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// CLIENT VIEW - Derived from sale history
// =============================================================================

var clientNamespace = uuid.MustParse("2b9d4c1a-6e53-4f0d-8a7c-3d5e9b1f4a27")

// ClientID returns the stable id for a client name.
func ClientID(name string) string {
	return uuid.NewSHA1(clientNamespace, []byte(name)).String()
}

// DebtSource selects which record is authoritative for Client.TotalDebt.
type DebtSource string

const (
	// DebtFromLedger projects client debt from the Debt rows, so payments
	// are reflected.
	DebtFromLedger DebtSource = "ledger"
	// DebtFromSales sums outstanding amounts of sales, ignoring payments.
	DebtFromSales DebtSource = "sales"
)

func (s DebtSource) Valid() bool {
	return s == DebtFromLedger || s == DebtFromSales
}

// RecomputeClients derives the client view from the full sale history.
// existing seeds ids and contact details; totals and the last transaction
// date are rebuilt. TotalDebt is the sum of outstanding amounts of sales
// that carry debt. Result is ordered by transaction count, most active
// first, then by name.
func RecomputeClients(existing []Client, sales []Sale) []Client {
	byName := make(map[string]*Client, len(existing))
	for _, c := range existing {
		seeded := c
		seeded.TotalPurchases = decimal.Zero
		seeded.TotalDebt = decimal.Zero
		seeded.TransactionCount = 0
		seeded.LastTransactionDate = time.Time{}
		byName[c.Name] = &seeded
	}

	for _, sale := range sales {
		c, ok := byName[sale.ClientName]
		if !ok {
			c = &Client{ID: ClientID(sale.ClientName), Name: sale.ClientName}
			byName[sale.ClientName] = c
		}
		c.TotalPurchases = c.TotalPurchases.Add(sale.TotalAmount)
		c.TransactionCount++
		if at := sale.EffectiveDate(); at.After(c.LastTransactionDate) {
			c.LastTransactionDate = at
		}
		if sale.CarriesDebt() {
			c.TotalDebt = c.TotalDebt.Add(sale.OutstandingAmount())
		}
	}

	out := make([]Client, 0, len(byName))
	for _, c := range byName {
		out = append(out, *c)
	}
	sortClients(out)
	return out
}

// ProjectClientDebt overwrites each client's TotalDebt with the balance of
// its Debt row. Clients without a row owe nothing.
func ProjectClientDebt(clients []Client, debts []Debt) []Client {
	owed := make(map[string]decimal.Decimal, len(debts))
	for _, d := range debts {
		owed[d.ClientName] = owed[d.ClientName].Add(d.TotalDebt)
	}
	out := make([]Client, len(clients))
	for i, c := range clients {
		c.TotalDebt = owed[c.Name]
		out[i] = c
	}
	return out
}

// FindClient returns the client with the given name.
func FindClient(clients []Client, name string) (Client, bool) {
	for _, c := range clients {
		if c.Name == name {
			return c, true
		}
	}
	return Client{}, false
}

// ClientsWithDebt counts clients that owe a positive amount.
func ClientsWithDebt(clients []Client) int {
	n := 0
	for _, c := range clients {
		if c.TotalDebt.IsPositive() {
			n++
		}
	}
	return n
}

func sortClients(clients []Client) {
	sort.Slice(clients, func(i, j int) bool {
		if clients[i].TransactionCount != clients[j].TransactionCount {
			return clients[i].TransactionCount > clients[j].TransactionCount
		}
		return clients[i].Name < clients[j].Name
	})
}

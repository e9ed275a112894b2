package business

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/bizmob/ledger/generic"
)

// AppVersion is stamped on every export document.
const AppVersion = "1.0.0"

// =============================================================================
// EXPORT DOCUMENT
// =============================================================================

// Document is the backup file: the whole ledger as one JSON object.
// DebtPayments is optional so files written by older versions still import.
type Document struct {
	BusinessData BusinessData  `json:"businessData"`
	Purchases    []Purchase    `json:"purchases"`
	Sales        []Sale        `json:"sales"`
	Debts        []Debt        `json:"debts"`
	Products     []Product     `json:"products"`
	Clients      []Client      `json:"clients"`
	DebtPayments []DebtPayment `json:"debtPayments,omitempty"`
	ExportDate   time.Time     `json:"exportDate"`
	AppVersion   string        `json:"appVersion"`
}

// rawDocument distinguishes a missing collection from an empty one.
type rawDocument struct {
	BusinessData *BusinessData  `json:"businessData"`
	Purchases    *[]Purchase    `json:"purchases"`
	Sales        *[]Sale        `json:"sales"`
	Debts        *[]Debt        `json:"debts"`
	Products     *[]Product     `json:"products"`
	Clients      *[]Client      `json:"clients"`
	DebtPayments *[]DebtPayment `json:"debtPayments"`
	ExportDate   time.Time      `json:"exportDate"`
	AppVersion   string         `json:"appVersion"`
}

// ParseDocument decodes an import file. All five collections (purchases,
// sales, debts, products, clients) must be present; null counts as missing.
// The second return reports whether the file carried debt payments.
func ParseDocument(data []byte) (Document, bool, error) {
	var raw rawDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		return Document{}, false, fmt.Errorf("%w: %v", generic.ErrInvalidImport, err)
	}

	missing := ""
	switch {
	case raw.Purchases == nil:
		missing = "purchases"
	case raw.Sales == nil:
		missing = "sales"
	case raw.Debts == nil:
		missing = "debts"
	case raw.Products == nil:
		missing = "products"
	case raw.Clients == nil:
		missing = "clients"
	}
	if missing != "" {
		return Document{}, false, fmt.Errorf("%w: missing %s", generic.ErrInvalidImport, missing)
	}

	doc := Document{
		BusinessData: DefaultBusinessData(),
		Purchases:    *raw.Purchases,
		Sales:        *raw.Sales,
		Debts:        *raw.Debts,
		Products:     *raw.Products,
		Clients:      *raw.Clients,
		ExportDate:   raw.ExportDate,
		AppVersion:   raw.AppVersion,
	}
	if raw.BusinessData != nil {
		doc.BusinessData = *raw.BusinessData
	}
	hasPayments := raw.DebtPayments != nil
	if hasPayments {
		doc.DebtPayments = *raw.DebtPayments
	}
	return doc, hasPayments, nil
}

// Encode renders the document as indented JSON.
func (d Document) Encode() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

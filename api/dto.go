/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication that are not the
  business records themselves. Purchases, sales, products, clients, debts
  and payments are returned as-is: their JSON shape is also the export
  file format, so the API and the backup file stay in step.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

TYPES:
  Settings:
    BusinessDTO, UpdateBusinessRequest, LoginRequest

  Payments:
    PaymentResponse

  Reports:
    PeriodsResponse, NotificationsResponse

  Scenarios:
    ScenarioDTO, LoadScenarioRequest

VALIDATION:
  Entry forms (purchase, sale, payment) are decoded by the factory package,
  which accepts numeric strings. Validation is done by business.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/forms.go: Entry form types
*/
package api

import (
	"github.com/bizmob/ledger/business"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// BusinessDTO is the shop settings without the password.
type BusinessDTO struct {
	BusinessName   string `json:"businessName"`
	UserName       string `json:"userName"`
	IsSetup        bool   `json:"isSetup"`
	Currency       string `json:"currency"`
	CurrencySymbol string `json:"currencySymbol"`
}

func toBusinessDTO(b business.BusinessData) BusinessDTO {
	return BusinessDTO{
		BusinessName:   b.BusinessName,
		UserName:       b.UserName,
		IsSetup:        b.IsSetup,
		Currency:       b.Currency,
		CurrencySymbol: b.CurrencySymbol,
	}
}

// UpdateBusinessRequest is the settings form. An empty password keeps the
// stored one.
type UpdateBusinessRequest struct {
	BusinessName   string `json:"businessName"`
	UserName       string `json:"userName"`
	Password       string `json:"password"`
	Currency       string `json:"currency"`
	CurrencySymbol string `json:"currencySymbol"`
}

// LoginRequest is the login form.
type LoginRequest struct {
	Password string `json:"password"`
}

// PaymentResponse returns the payment and the debt row after it.
type PaymentResponse struct {
	Payment business.DebtPayment `json:"payment"`
	Debt    business.Debt        `json:"debt"`
}

// PeriodsResponse wraps a period breakdown with its range.
type PeriodsResponse struct {
	From    string                   `json:"from"`
	To      string                   `json:"to"`
	Periods []business.PeriodFigures `json:"periods"`
}

// NotificationsResponse is the string projection of the alerts.
type NotificationsResponse struct {
	Notifications []string `json:"notifications"`
	Count         int      `json:"count"`
}

// ImportResponse reports the size of an imported ledger.
type ImportResponse struct {
	Purchases int `json:"purchases"`
	Sales     int `json:"sales"`
	Debts     int `json:"debts"`
	Products  int `json:"products"`
	Clients   int `json:"clients"`
}

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest is the request to load a scenario.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Field   string `json:"field,omitempty"`
}

package domain

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Price is a money amount as the platform sends it.
type Price struct {
	Amount    decimal.Decimal `json:"amount"`
	TaxType   string          `json:"taxType,omitempty"` // GROSS or NET
	Formatted string          `json:"formatted,omitempty"`
	Currency  string          `json:"currency,omitempty"`
}

// MarshalJSON writes the amount as a JSON number, which the platform expects.
func (p Price) MarshalJSON() ([]byte, error) {
	type wire struct {
		Amount    json.Number `json:"amount"`
		TaxType   string      `json:"taxType,omitempty"`
		Formatted string      `json:"formatted,omitempty"`
		Currency  string      `json:"currency,omitempty"`
	}
	return json.Marshal(wire{
		Amount:    json.Number(p.Amount.String()),
		TaxType:   p.TaxType,
		Formatted: p.Formatted,
		Currency:  p.Currency,
	})
}

// Quantity is the sales unit a price refers to.
type Quantity struct {
	Amount decimal.Decimal `json:"amount"`
	Unit   string          `json:"unit,omitempty"`
}

// MarshalJSON writes the amount as a JSON number.
func (q Quantity) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Amount json.Number `json:"amount"`
		Unit   string      `json:"unit,omitempty"`
	}{json.Number(q.Amount.String()), q.Unit})
}

// PriceInfo groups the prices attached to a product.
type PriceInfo struct {
	Price             Price     `json:"price"`
	DepositPrice      *Price    `json:"depositPrice,omitempty"`
	ManufacturerPrice *Price    `json:"manufacturerPrice,omitempty"`
	BasePrice         *Price    `json:"basePrice,omitempty"`
	Quantity          *Quantity `json:"quantity,omitempty"`
}

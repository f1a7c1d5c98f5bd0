package registry

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/poiesic/invoicit/core"
)

// Pack is a versioned knowledge pack as published in a registry: a named
// collection of invoices installable into the knowledge base.
type Pack struct {
	Name        string
	Version     string
	Description string
	Invoices    []*core.Invoice
}

// Wire forms. Dates travel as "2006-01-02" strings, matching the format
// invoices render into document text and metadata.
type packDocument struct {
	Name        string        `json:"name"`
	Version     string        `json:"version"`
	Description string        `json:"description,omitempty"`
	Invoices    []wireInvoice `json:"invoices"`
}

type wireInvoice struct {
	InvoiceID     string  `json:"invoice_id"`
	Date          string  `json:"date"`
	Customer      string  `json:"customer"`
	Address       string  `json:"address"`
	Product       string  `json:"product"`
	Quantity      int     `json:"quantity"`
	UnitPrice     float64 `json:"unit_price"`
	TotalAmount   float64 `json:"total_amount"`
	PaymentMethod string  `json:"payment_method"`
	Status        string  `json:"status"`
}

const packDateLayout = "2006-01-02"

// MarshalJSON renders the pack in its published wire form.
func (p *Pack) MarshalJSON() ([]byte, error) {
	doc := packDocument{
		Name:        p.Name,
		Version:     p.Version,
		Description: p.Description,
		Invoices:    make([]wireInvoice, len(p.Invoices)),
	}
	for i, inv := range p.Invoices {
		doc.Invoices[i] = wireInvoice{
			InvoiceID:     inv.InvoiceID,
			Date:          inv.Date.Format(packDateLayout),
			Customer:      inv.CustomerName,
			Address:       inv.Address,
			Product:       inv.Product,
			Quantity:      inv.Quantity,
			UnitPrice:     inv.UnitPrice,
			TotalAmount:   inv.TotalAmount,
			PaymentMethod: inv.PaymentMethod,
			Status:        inv.Status,
		}
	}
	return json.Marshal(doc)
}

// UnmarshalJSON parses a published pack document.
func (p *Pack) UnmarshalJSON(data []byte) error {
	var doc packDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}

	invoices := make([]*core.Invoice, len(doc.Invoices))
	for i, w := range doc.Invoices {
		date, err := time.Parse(packDateLayout, w.Date)
		if err != nil {
			return fmt.Errorf("invoice %d: invalid date %q: %w", i, w.Date, err)
		}
		invoices[i] = &core.Invoice{
			InvoiceID:     w.InvoiceID,
			Date:          date,
			CustomerName:  w.Customer,
			Address:       w.Address,
			Product:       w.Product,
			Quantity:      w.Quantity,
			UnitPrice:     w.UnitPrice,
			TotalAmount:   w.TotalAmount,
			PaymentMethod: w.PaymentMethod,
			Status:        w.Status,
		}
	}

	p.Name = doc.Name
	p.Version = doc.Version
	p.Description = doc.Description
	p.Invoices = invoices
	return nil
}

package core

import (
	"strconv"
	"strings"
	"time"
)

// Invoice is a raw invoice record as loaded from a knowledge pack or seed data.
type Invoice struct {
	InvoiceID     string
	Date          time.Time
	CustomerName  string
	Address       string
	Product       string
	Quantity      int
	UnitPrice     float64
	TotalAmount   float64
	PaymentMethod string
	Status        string
}

// invoiceDateLayout is the canonical date format used in rendered text and metadata.
const invoiceDateLayout = "2006-01-02"

// Text renders the invoice as a single searchable line: labeled fields
// joined by " | ". This is the canonical document content for retrieval.
func (inv *Invoice) Text() string {
	parts := []string{
		"Invoice ID: " + inv.InvoiceID,
		"Date: " + inv.Date.Format(invoiceDateLayout),
		"Customer: " + inv.CustomerName,
		"Address: " + inv.Address,
		"Product: " + inv.Product,
		"Quantity: " + strconv.Itoa(inv.Quantity),
		"Unit Price: " + strconv.FormatFloat(inv.UnitPrice, 'f', 2, 64),
		"Total Amount: " + strconv.FormatFloat(inv.TotalAmount, 'f', 2, 64),
		"Payment Method: " + inv.PaymentMethod,
		"Status: " + inv.Status,
	}
	return strings.Join(parts, " | ")
}

// Fields returns the invoice as document metadata.
func (inv *Invoice) Fields() map[string]string {
	return map[string]string{
		"invoice_id":     inv.InvoiceID,
		"date":           inv.Date.Format(invoiceDateLayout),
		"customer":       inv.CustomerName,
		"address":        inv.Address,
		"product":        inv.Product,
		"quantity":       strconv.Itoa(inv.Quantity),
		"unit_price":     strconv.FormatFloat(inv.UnitPrice, 'f', 2, 64),
		"total_amount":   strconv.FormatFloat(inv.TotalAmount, 'f', 2, 64),
		"payment_method": inv.PaymentMethod,
		"status":         inv.Status,
	}
}

// Document converts the invoice into a storable document. The ID is derived
// from the rendered text, so the same invoice always maps to the same
// document. Terms are tokenized from the text; the vector is left empty for
// the embedding processor.
func (inv *Invoice) Document() *Document {
	text := inv.Text()
	return &Document{
		Id:        IDFromContent(text),
		Contents:  text,
		Metadata:  inv.Fields(),
		Terms:     TermsFromText(text),
		Timestamp: inv.Date,
	}
}

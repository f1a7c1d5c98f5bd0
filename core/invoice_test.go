package core

import (
	"strings"
	"testing"
	"time"
)

func testInvoice() *Invoice {
	return &Invoice{
		InvoiceID:     "101",
		Date:          time.Date(2025, 5, 14, 0, 0, 0, 0, time.UTC),
		CustomerName:  "Alice Johnson",
		Address:       "12 Elm Street, Springfield",
		Product:       "Wireless Mouse",
		Quantity:      3,
		UnitPrice:     24.99,
		TotalAmount:   74.97,
		PaymentMethod: "Credit Card",
		Status:        "Paid",
	}
}

func TestInvoice_Text(t *testing.T) {
	got := testInvoice().Text()
	want := "Invoice ID: 101 | Date: 2025-05-14 | Customer: Alice Johnson | " +
		"Address: 12 Elm Street, Springfield | Product: Wireless Mouse | " +
		"Quantity: 3 | Unit Price: 24.99 | Total Amount: 74.97 | " +
		"Payment Method: Credit Card | Status: Paid"

	if got != want {
		t.Errorf("Invoice.Text() = %q, want %q", got, want)
	}
}

func TestInvoice_Text_FieldOrder(t *testing.T) {
	text := testInvoice().Text()
	labels := []string{
		"Invoice ID:", "Date:", "Customer:", "Address:", "Product:",
		"Quantity:", "Unit Price:", "Total Amount:", "Payment Method:", "Status:",
	}

	pos := -1
	for _, label := range labels {
		idx := strings.Index(text, label)
		if idx < 0 {
			t.Fatalf("Invoice.Text() missing label %q", label)
		}
		if idx <= pos {
			t.Errorf("Invoice.Text() label %q out of order", label)
		}
		pos = idx
	}
}

func TestInvoice_Fields(t *testing.T) {
	fields := testInvoice().Fields()

	want := map[string]string{
		"invoice_id":     "101",
		"date":           "2025-05-14",
		"customer":       "Alice Johnson",
		"quantity":       "3",
		"unit_price":     "24.99",
		"total_amount":   "74.97",
		"payment_method": "Credit Card",
		"status":         "Paid",
	}
	for key, val := range want {
		if fields[key] != val {
			t.Errorf("Fields()[%q] = %q, want %q", key, fields[key], val)
		}
	}
}

func TestInvoice_Document(t *testing.T) {
	inv := testInvoice()
	doc := inv.Document()

	if doc.Id != IDFromContent(inv.Text()) {
		t.Error("Document() ID is not derived from the rendered text")
	}
	if doc.Contents != inv.Text() {
		t.Error("Document() contents differ from rendered text")
	}
	if !doc.Timestamp.Equal(inv.Date) {
		t.Errorf("Document() timestamp = %v, want %v", doc.Timestamp, inv.Date)
	}
	if len(doc.Terms) == 0 {
		t.Error("Document() produced no terms")
	}
	if doc.Vector != nil {
		t.Error("Document() should leave the vector empty")
	}

	// Same invoice maps to the same document.
	again := inv.Document()
	if again.Id != doc.Id {
		t.Errorf("Document() unstable ID: %d vs %d", again.Id, doc.Id)
	}
}

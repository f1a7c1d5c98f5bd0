// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Seeder loads the bundled sample invoices straight into a database,
// bypassing the pack registry. Embeddings are generated asynchronously, so
// the embedding service should be reachable while it runs.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/poiesic/invoicit"
	"github.com/poiesic/invoicit/core"
)

func date(day int) time.Time {
	return time.Date(2025, 5, day, 0, 0, 0, 0, time.UTC)
}

var invoices = []*core.Invoice{
	{InvoiceID: "INV-101", Date: date(2), CustomerName: "Alice Johnson", Address: "12 Birchwood Lane, Portland, OR", Product: "Wireless Mouse", Quantity: 2, UnitPrice: 24.99, TotalAmount: 49.98, PaymentMethod: "Credit Card", Status: "Paid"},
	{InvoiceID: "INV-102", Date: date(3), CustomerName: "Maria Santos", Address: "88 Harbor View Road, San Diego, CA", Product: "Mechanical Keyboard", Quantity: 1, UnitPrice: 89.50, TotalAmount: 89.50, PaymentMethod: "PayPal", Status: "Paid"},
	{InvoiceID: "INV-103", Date: date(5), CustomerName: "James Wilson", Address: "401 Elm Street, Austin, TX", Product: "USB-C Cable", Quantity: 5, UnitPrice: 9.99, TotalAmount: 49.95, PaymentMethod: "Credit Card", Status: "Pending"},
	{InvoiceID: "INV-104", Date: date(6), CustomerName: "Wei Chen", Address: "7 Garden Terrace, Seattle, WA", Product: "Wireless Mouse", Quantity: 1, UnitPrice: 24.99, TotalAmount: 24.99, PaymentMethod: "Bank Transfer", Status: "Paid"},
	{InvoiceID: "INV-105", Date: date(8), CustomerName: "Fatima Al-Sayed", Address: "230 Canal Street, New York, NY", Product: "27-inch Monitor", Quantity: 2, UnitPrice: 219.00, TotalAmount: 438.00, PaymentMethod: "Credit Card", Status: "Paid"},
	{InvoiceID: "INV-106", Date: date(9), CustomerName: "Robert Taylor", Address: "55 Maple Avenue, Denver, CO", Product: "Laptop Stand", Quantity: 1, UnitPrice: 42.00, TotalAmount: 42.00, PaymentMethod: "Cash", Status: "Overdue"},
	{InvoiceID: "INV-107", Date: date(12), CustomerName: "Priya Sharma", Address: "19 Rosewood Close, Chicago, IL", Product: "Noise-Canceling Headphones", Quantity: 1, UnitPrice: 179.99, TotalAmount: 179.99, PaymentMethod: "PayPal", Status: "Paid"},
	{InvoiceID: "INV-108", Date: date(13), CustomerName: "Alice Johnson", Address: "12 Birchwood Lane, Portland, OR", Product: "Desk Lamp", Quantity: 1, UnitPrice: 34.50, TotalAmount: 34.50, PaymentMethod: "Credit Card", Status: "Pending"},
	{InvoiceID: "INV-109", Date: date(14), CustomerName: "Daniel O'Brien", Address: "3 Quayside Walk, Boston, MA", Product: "External SSD", Quantity: 2, UnitPrice: 109.00, TotalAmount: 218.00, PaymentMethod: "Bank Transfer", Status: "Paid"},
	{InvoiceID: "INV-110", Date: date(15), CustomerName: "Emma Lindqvist", Address: "670 Cedar Court, Minneapolis, MN", Product: "Webcam", Quantity: 1, UnitPrice: 59.99, TotalAmount: 59.99, PaymentMethod: "Credit Card", Status: "Paid"},
	{InvoiceID: "INV-111", Date: date(16), CustomerName: "Maria Santos", Address: "88 Harbor View Road, San Diego, CA", Product: "Wireless Mouse", Quantity: 3, UnitPrice: 24.99, TotalAmount: 74.97, PaymentMethod: "PayPal", Status: "Paid"},
	{InvoiceID: "INV-112", Date: date(19), CustomerName: "James Wilson", Address: "401 Elm Street, Austin, TX", Product: "Ergonomic Chair", Quantity: 1, UnitPrice: 349.00, TotalAmount: 349.00, PaymentMethod: "Bank Transfer", Status: "Overdue"},
	{InvoiceID: "INV-113", Date: date(20), CustomerName: "Wei Chen", Address: "7 Garden Terrace, Seattle, WA", Product: "HDMI Adapter", Quantity: 2, UnitPrice: 14.75, TotalAmount: 29.50, PaymentMethod: "Credit Card", Status: "Paid"},
	{InvoiceID: "INV-114", Date: date(21), CustomerName: "Sofia Rossi", Address: "102 Vine Hill Drive, Sacramento, CA", Product: "Standing Desk", Quantity: 1, UnitPrice: 489.00, TotalAmount: 489.00, PaymentMethod: "Bank Transfer", Status: "Pending"},
	{InvoiceID: "INV-115", Date: date(22), CustomerName: "Robert Taylor", Address: "55 Maple Avenue, Denver, CO", Product: "USB-C Cable", Quantity: 10, UnitPrice: 9.99, TotalAmount: 99.90, PaymentMethod: "Credit Card", Status: "Paid"},
	{InvoiceID: "INV-116", Date: date(23), CustomerName: "Priya Sharma", Address: "19 Rosewood Close, Chicago, IL", Product: "27-inch Monitor", Quantity: 1, UnitPrice: 219.00, TotalAmount: 219.00, PaymentMethod: "PayPal", Status: "Paid"},
	{InvoiceID: "INV-117", Date: date(26), CustomerName: "Alice Johnson", Address: "12 Birchwood Lane, Portland, OR", Product: "Mechanical Keyboard", Quantity: 1, UnitPrice: 89.50, TotalAmount: 89.50, PaymentMethod: "Credit Card", Status: "Paid"},
	{InvoiceID: "INV-118", Date: date(27), CustomerName: "Daniel O'Brien", Address: "3 Quayside Walk, Boston, MA", Product: "Desk Lamp", Quantity: 2, UnitPrice: 34.50, TotalAmount: 69.00, PaymentMethod: "Cash", Status: "Paid"},
	{InvoiceID: "INV-119", Date: date(28), CustomerName: "Emma Lindqvist", Address: "670 Cedar Court, Minneapolis, MN", Product: "Laptop Stand", Quantity: 1, UnitPrice: 42.00, TotalAmount: 42.00, PaymentMethod: "Credit Card", Status: "Pending"},
	{InvoiceID: "INV-120", Date: date(29), CustomerName: "Sofia Rossi", Address: "102 Vine Hill Drive, Sacramento, CA", Product: "Webcam", Quantity: 2, UnitPrice: 59.99, TotalAmount: 119.98, PaymentMethod: "PayPal", Status: "Paid"},
	{InvoiceID: "INV-121", Date: time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), CustomerName: "Fatima Al-Sayed", Address: "230 Canal Street, New York, NY", Product: "External SSD", Quantity: 1, UnitPrice: 109.00, TotalAmount: 109.00, PaymentMethod: "Credit Card", Status: "Pending"},
	{InvoiceID: "INV-122", Date: time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC), CustomerName: "Maria Santos", Address: "88 Harbor View Road, San Diego, CA", Product: "Noise-Canceling Headphones", Quantity: 1, UnitPrice: 179.99, TotalAmount: 179.99, PaymentMethod: "PayPal", Status: "Overdue"},
	{InvoiceID: "INV-123", Date: time.Date(2025, 4, 28, 0, 0, 0, 0, time.UTC), CustomerName: "James Wilson", Address: "401 Elm Street, Austin, TX", Product: "Wireless Mouse", Quantity: 1, UnitPrice: 24.99, TotalAmount: 24.99, PaymentMethod: "Cash", Status: "Paid"},
	{InvoiceID: "INV-124", Date: time.Date(2025, 4, 30, 0, 0, 0, 0, time.UTC), CustomerName: "Wei Chen", Address: "7 Garden Terrace, Seattle, WA", Product: "Ergonomic Chair", Quantity: 1, UnitPrice: 349.00, TotalAmount: 349.00, PaymentMethod: "Bank Transfer", Status: "Paid"},
}

var dbPath = flag.String("db", "./invoicit.db", "path to BadgerDB database directory")

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
	flag.Parse()
}

func main() {
	assistant, err := invoicit.NewAssistant(*dbPath)
	if err != nil {
		panic(err)
	}
	defer assistant.Close()

	pipeline, err := assistant.NewIngestionPipeline()
	if err != nil {
		panic(err)
	}
	defer pipeline.Release()

	ctx := context.Background()

	// Ingest in batches of 5
	const batchSize = 5
	for start := 0; start < len(invoices); start += batchSize {
		end := min(start+batchSize, len(invoices))
		if _, err := pipeline.IngestInvoices(ctx, invoices[start:end], nil); err != nil {
			panic(err)
		}
	}

	fmt.Printf("Seeded %d invoices into %s\n", len(invoices), *dbPath)
}

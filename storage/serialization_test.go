package storage

import (
	"testing"
	"time"

	"github.com/poiesic/invoicit/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalID(t *testing.T) {
	tests := []struct {
		name string
		id   core.ID
	}{
		{"zero ID", core.ID(0)},
		{"small ID", core.ID(42)},
		{"large ID", core.ID(18446744073709551615)}, // max uint64
		{"content-based ID", core.IDFromContent("Invoice ID: 101")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalID(tt.id)
			require.NotNil(t, data)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalID(data)
			require.NoError(t, err)
			assert.Equal(t, tt.id, decoded)
		})
	}
}

func TestUnmarshalID_Invalid(t *testing.T) {
	_, err := UnmarshalID([]byte{})
	assert.Error(t, err)
}

func TestMarshalUnmarshalDocument(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	tests := []struct {
		name string
		doc  *core.Document
	}{
		{
			name: "minimal document",
			doc: &core.Document{
				Id:         core.ID(1),
				Contents:   "Invoice ID: 101 | Status: Paid",
				Timestamp:  now,
				InsertedAt: now,
				UpdatedAt:  now,
			},
		},
		{
			name: "document with everything",
			doc: &core.Document{
				Id:       core.ID(2),
				Contents: "Invoice ID: 102 | Customer: Bob Smith | Product: USB Keyboard | Status: Pending",
				Metadata: map[string]string{
					"invoice_id": "102",
					"customer":   "Bob Smith",
					"status":     "Pending",
				},
				Terms:      []core.ID{core.ID(10), core.ID(20), core.ID(30)},
				Vector:     []float32{0.1, 0.2, 0.3, 0.4, 0.5},
				Timestamp:  now,
				InsertedAt: now,
				UpdatedAt:  now,
			},
		},
		{
			name: "unicode contents",
			doc: &core.Document{
				Id:         core.ID(3),
				Contents:   "Customer: Zoë Müller | Address: 12 Königstraße",
				Timestamp:  now,
				InsertedAt: now,
				UpdatedAt:  now,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalDocument(tt.doc)
			require.NotNil(t, data)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalDocument(data)
			require.NoError(t, err)
			require.NotNil(t, decoded)

			assert.Equal(t, tt.doc.Id, decoded.Id)
			assert.Equal(t, tt.doc.Contents, decoded.Contents)
			assert.True(t, tt.doc.Timestamp.Equal(decoded.Timestamp))
			assert.True(t, tt.doc.InsertedAt.Equal(decoded.InsertedAt))
			assert.True(t, tt.doc.UpdatedAt.Equal(decoded.UpdatedAt))
			// Handle nil vs empty for optional fields
			if len(tt.doc.Metadata) == 0 {
				assert.Empty(t, decoded.Metadata)
			} else {
				assert.Equal(t, tt.doc.Metadata, decoded.Metadata)
			}
			if len(tt.doc.Terms) == 0 {
				assert.Empty(t, decoded.Terms)
			} else {
				assert.Equal(t, tt.doc.Terms, decoded.Terms)
			}
			if len(tt.doc.Vector) == 0 {
				assert.Empty(t, decoded.Vector)
			} else {
				assert.Equal(t, tt.doc.Vector, decoded.Vector)
			}
		})
	}
}

func TestUnmarshalDocument_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty data", []byte{}},
		{"invalid data", []byte{0xFF, 0xFF, 0xFF}},
		{"partial data", []byte{1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalDocument(tt.data)
			assert.Error(t, err)
		})
	}
}

func TestMarshalUnmarshalTurn(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	turn := &core.Turn{
		Id:         core.ID(7),
		Speaker:    core.SpeakerTypeAssistant,
		Contents:   "Invoice 101 was paid by credit card.",
		Timestamp:  now,
		InsertedAt: now,
		UpdatedAt:  now,
		Metadata:   map[string]string{"mode": "agent"},
	}

	data := MarshalTurn(turn)
	require.NotEmpty(t, data)

	decoded, err := UnmarshalTurn(data)
	require.NoError(t, err)

	assert.Equal(t, turn.Id, decoded.Id)
	assert.Equal(t, turn.Speaker, decoded.Speaker)
	assert.Equal(t, turn.Contents, decoded.Contents)
	assert.True(t, turn.Timestamp.Equal(decoded.Timestamp))
	assert.Equal(t, turn.Metadata, decoded.Metadata)
}

func TestUnmarshalTurn_Invalid(t *testing.T) {
	_, err := UnmarshalTurn([]byte{0xFF, 0xFF, 0xFF})
	assert.Error(t, err)
}

func TestMarshalUnmarshalPackInstall(t *testing.T) {
	installed := time.Date(2025, 5, 14, 9, 0, 0, 0, time.UTC)

	install := &core.PackInstall{
		Name:        "invoices-2025",
		Version:     "1.2.0",
		Documents:   200,
		InstalledAt: installed,
	}

	data := MarshalPackInstall(install)
	require.NotEmpty(t, data)

	decoded, err := UnmarshalPackInstall(data)
	require.NoError(t, err)

	assert.Equal(t, install.Name, decoded.Name)
	assert.Equal(t, install.Version, decoded.Version)
	assert.Equal(t, install.Documents, decoded.Documents)
	assert.True(t, install.InstalledAt.Equal(decoded.InstalledAt))
}

func TestRoundTripConsistency(t *testing.T) {
	t.Run("multiple marshal-unmarshal cycles", func(t *testing.T) {
		now := time.Now().UTC().Truncate(time.Microsecond)
		original := &core.Document{
			Id:         core.ID(999),
			Contents:   "Invoice ID: 999 | Status: Paid",
			Metadata:   map[string]string{"invoice_id": "999"},
			Terms:      []core.ID{core.ID(1), core.ID(2)},
			Vector:     []float32{0.1, 0.2, 0.3},
			Timestamp:  now,
			InsertedAt: now,
			UpdatedAt:  now,
		}

		// Perform 3 marshal-unmarshal cycles
		current := original
		for i := 0; i < 3; i++ {
			data := MarshalDocument(current)
			decoded, err := UnmarshalDocument(data)
			require.NoError(t, err)
			current = decoded
		}

		assert.Equal(t, original.Id, current.Id)
		assert.Equal(t, original.Contents, current.Contents)
		assert.Equal(t, original.Metadata, current.Metadata)
		assert.Equal(t, original.Terms, current.Terms)
		assert.Equal(t, original.Vector, current.Vector)
	})
}

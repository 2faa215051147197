package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"registro/internal/ledger"
)

func sampleEvents() []ledger.Event {
	return []ledger.Event{
		{
			PersonType:  ledger.Student,
			Code:        "EST001",
			DisplayName: "María García López",
			NationalID:  "12345678",
			Email:       "maria@example.edu",
			Date:        "2026-03-10",
			Timestamp:   time.Date(2026, 3, 10, 8, 30, 15, 0, time.UTC),
		},
		{
			PersonType:  ledger.Visitor,
			Code:        "VIS-abc",
			DisplayName: "Luis Rojas",
			NationalID:  "11223344",
			Reason:      "reunión",
			Date:        "2026-03-10",
			Timestamp:   time.Date(2026, 3, 10, 9, 5, 0, 0, time.UTC),
		},
	}
}

func TestRows(t *testing.T) {
	rows := Rows(sampleEvents(), time.UTC)
	require.Len(t, rows, 2)

	assert.Equal(t, Row{
		Date:       "2026-03-10",
		Time:       "08:30:15",
		Type:       "Estudiante",
		Code:       "EST001",
		Name:       "María García López",
		NationalID: "12345678",
		Email:      "maria@example.edu",
	}, rows[0])

	// Absent optionals flatten to empty strings; reason carries through.
	assert.Equal(t, "", rows[1].Email)
	assert.Equal(t, "reunión", rows[1].Reason)
	assert.Equal(t, "Visitante", rows[1].Type)
}

func TestRows_PreservesInputOrder(t *testing.T) {
	events := sampleEvents()
	// Reverse: the adapter must not re-sort.
	events[0], events[1] = events[1], events[0]

	rows := Rows(events, time.UTC)
	require.Len(t, rows, 2)
	assert.Equal(t, "Luis Rojas", rows[0].Name)
	assert.Equal(t, "María García López", rows[1].Name)
}

func TestRows_Empty(t *testing.T) {
	assert.Empty(t, Rows(nil, time.UTC))
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, Rows(sampleEvents(), time.UTC)))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	got, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, Headers, got[0])
	assert.Equal(t, "EST001", got[1][3])
	assert.Equal(t, "Visitante", got[2][2])
}

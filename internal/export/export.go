// Package export flattens ledger events into the tabular form the register
// hands to its spreadsheet writer. Headers and type labels are Spanish,
// matching the sheets the office files.
package export

import (
	"time"

	"registro/internal/ledger"
)

// Row is one flat export record.
type Row struct {
	Date       string
	Time       string
	Type       string
	Code       string
	Name       string
	NationalID string
	Email      string
	Reason     string
}

// Headers are the sheet's column titles, in column order.
var Headers = []string{"Fecha", "Hora", "Tipo", "Código", "Nombre", "DNI", "Correo", "Motivo"}

func typeLabel(t ledger.PersonType) string {
	if t == ledger.Student {
		return "Estudiante"
	}
	return "Visitante"
}

// Rows flattens events in their given order. Absent optional fields become
// empty strings; clock times are rendered in loc.
func Rows(events []ledger.Event, loc *time.Location) []Row {
	if loc == nil {
		loc = time.Local
	}
	out := make([]Row, 0, len(events))
	for _, evt := range events {
		out = append(out, Row{
			Date:       evt.Date,
			Time:       evt.Timestamp.In(loc).Format("15:04:05"),
			Type:       typeLabel(evt.PersonType),
			Code:       evt.Code,
			Name:       evt.DisplayName,
			NationalID: evt.NationalID,
			Email:      evt.Email,
			Reason:     evt.Reason,
		})
	}
	return out
}

func (r Row) values() []string {
	return []string{r.Date, r.Time, r.Type, r.Code, r.Name, r.NationalID, r.Email, r.Reason}
}

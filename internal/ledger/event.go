package ledger

import "time"

// DateLayout is the civil-date form used throughout: YYYY-MM-DD.
const DateLayout = "2006-01-02"

// PersonType distinguishes enrolled students from walk-in visitors.
type PersonType string

const (
	Student PersonType = "student"
	Visitor PersonType = "visitor"
)

// Valid reports whether t is one of the known person types.
func (t PersonType) Valid() bool { return t == Student || t == Visitor }

// Event is one recorded attendance. Events are immutable once inserted;
// Timestamp is unique across the ledger and serves as the primary key.
type Event struct {
	PersonType  PersonType `json:"person_type"`
	Code        string     `json:"code"`
	DisplayName string     `json:"display_name"`
	NationalID  string     `json:"national_id"`
	Email       string     `json:"email,omitempty"`
	Reason      string     `json:"reason,omitempty"`
	Date        string     `json:"date"`
	Timestamp   time.Time  `json:"timestamp"`
}

// Candidate is the input to Insert: an event minus the fields the ledger
// stamps itself (Date, Timestamp).
type Candidate struct {
	PersonType  PersonType
	Code        string
	DisplayName string
	NationalID  string
	Email       string
	Reason      string
}

package roster

import "fmt"

// Person is one enrolled student from the reference set. The JSON tags
// match the estudiantes.json document the register is deployed with.
type Person struct {
	Code       string `json:"codigo"`
	GivenName  string `json:"nombre"`
	FamilyName string `json:"apellidos"`
	NationalID string `json:"dni"`
	Email      string `json:"correo"`
}

// DisplayName returns the full name as shown on the register.
func (p Person) DisplayName() string {
	return fmt.Sprintf("%s %s", p.GivenName, p.FamilyName)
}

// Roster resolves scanned or typed codes against the enrolled reference
// set. It is read-only after construction; an empty roster resolves every
// code to unknown.
type Roster struct {
	byCode map[string]Person
}

// New indexes people by code. Later entries win on duplicate codes.
func New(people []Person) *Roster {
	byCode := make(map[string]Person, len(people))
	for _, p := range people {
		byCode[p.Code] = p
	}
	return &Roster{byCode: byCode}
}

// Resolve looks code up with a case-sensitive exact match. ok is false for
// an unknown code; the caller then collects visitor details manually.
func (r *Roster) Resolve(code string) (Person, bool) {
	p, ok := r.byCode[code]
	return p, ok
}

// Len returns the number of enrolled people.
func (r *Roster) Len() int { return len(r.byCode) }

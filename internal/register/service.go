// Package register wires the scan gate, identity resolution, and the
// ledger into the register's entry paths.
package register

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"registro/internal/ledger"
	"registro/internal/queue"
	"registro/internal/roster"
	"registro/internal/scan"
)

// Outcome classifies what a scan produced.
type Outcome string

const (
	// Registered means an enrolled student's attendance was recorded.
	Registered Outcome = "registered"
	// NeedsVisitor means the code is not enrolled; visitor details are
	// required before an event can be recorded.
	NeedsVisitor Outcome = "needs_visitor"
	// Ignored means the decode arrived during the quiet period.
	Ignored Outcome = "ignored"
)

// ScanResult is the outcome of feeding one decoded code to the register.
type ScanResult struct {
	Outcome Outcome
	Event   ledger.Event // set when Outcome is Registered
	RawCode string       // set when Outcome is NeedsVisitor
}

// UnknownCodeError reports a manual student registration with a code that
// is not in the enrolled reference set.
type UnknownCodeError struct {
	Code string
}

func (e *UnknownCodeError) Error() string {
	return fmt.Sprintf("code %q is not enrolled", e.Code)
}

// VisitorInput is the manual-entry form for a walk-in visitor.
type VisitorInput struct {
	Code       string // scanned raw code, if any; generated when empty
	Name       string
	NationalID string
	Email      string
	Reason     string
}

// Service owns the register's entry paths. All methods are synchronous
// and run on the single session's thread of control.
type Service struct {
	roster *roster.Roster
	ledger *ledger.Ledger
	gate   *scan.Gate
	q      queue.Queue
}

// NewService creates a register service over its collaborators.
func NewService(r *roster.Roster, l *ledger.Ledger, g *scan.Gate, q queue.Queue) *Service {
	return &Service{roster: r, ledger: l, gate: g, q: q}
}

// Scan handles one decoded string from the capture device. Decodes inside
// the quiet period are dropped; otherwise the code is resolved and either
// recorded immediately (enrolled student) or bounced back for manual
// visitor entry. Every admitted decode trips the quiet period, matching
// the register's pause-after-read behavior.
func (s *Service) Scan(ctx context.Context, code string) (ScanResult, error) {
	if code == "" {
		return ScanResult{}, &ledger.ValidationError{Field: "code"}
	}
	if !s.gate.Admit() {
		return ScanResult{Outcome: Ignored}, nil
	}
	s.gate.Trip()

	person, ok := s.roster.Resolve(code)
	if !ok {
		return ScanResult{Outcome: NeedsVisitor, RawCode: code}, nil
	}

	evt, err := s.insertStudent(ctx, person)
	if err != nil && !isStorageOnly(err) {
		return ScanResult{}, err
	}
	// A storage-only failure still recorded the event in memory; hand it
	// back with the error so the caller can flag the missed flush.
	return ScanResult{Outcome: Registered, Event: evt}, err
}

// RegisterStudent records attendance for a manually typed student code.
func (s *Service) RegisterStudent(ctx context.Context, code string) (ledger.Event, error) {
	if code == "" {
		return ledger.Event{}, &ledger.ValidationError{Field: "code"}
	}
	person, ok := s.roster.Resolve(code)
	if !ok {
		return ledger.Event{}, &UnknownCodeError{Code: code}
	}
	return s.insertStudent(ctx, person)
}

// RegisterVisitor records attendance for a walk-in visitor. A visitor
// without a scanned code gets a generated unique token.
func (s *Service) RegisterVisitor(ctx context.Context, in VisitorInput) (ledger.Event, error) {
	code := in.Code
	if code == "" {
		code = "VIS-" + uuid.NewString()
	}
	evt, err := s.ledger.Insert(ctx, ledger.Candidate{
		PersonType:  ledger.Visitor,
		Code:        code,
		DisplayName: in.Name,
		NationalID:  in.NationalID,
		Email:       in.Email,
		Reason:      in.Reason,
	})
	if err == nil || isStorageOnly(err) {
		s.notify(ctx, evt)
	}
	return evt, err
}

func (s *Service) insertStudent(ctx context.Context, p roster.Person) (ledger.Event, error) {
	evt, err := s.ledger.Insert(ctx, ledger.Candidate{
		PersonType:  ledger.Student,
		Code:        p.Code,
		DisplayName: p.DisplayName(),
		NationalID:  p.NationalID,
		Email:       p.Email,
	})
	if err == nil || isStorageOnly(err) {
		s.notify(ctx, evt)
	}
	return evt, err
}

// isStorageOnly reports whether err is only a failed flush, i.e. the
// event itself was recorded in memory.
func isStorageOnly(err error) bool {
	var se *ledger.StorageError
	return errors.As(err, &se)
}

// notification is the JSON payload published per recorded event.
type notification struct {
	PersonType ledger.PersonType `json:"person_type"`
	Name       string            `json:"name"`
	Timestamp  time.Time         `json:"timestamp"`
}

func (s *Service) notify(ctx context.Context, evt ledger.Event) {
	if s.q == nil {
		return
	}
	body, _ := json.Marshal(notification{
		PersonType: evt.PersonType,
		Name:       evt.DisplayName,
		Timestamp:  evt.Timestamp,
	})
	if err := s.q.Publish(ctx, queue.Message{Type: "registered", Body: body}); err != nil {
		log.Printf("notification publish failed: %v", err)
	}
}

package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"registro/internal/slot"
)

// Ledger owns the canonical attendance event list. It enforces the
// one-event-per-person-per-day rule, stamps unique timestamps, and flushes
// the whole serialized list to its storage slot after every mutation.
//
// Duplicate identity is a deliberate policy: students collide on code,
// visitors collide on national ID alone (names are not compared), so two
// visitors sharing a mistyped ID on one day are rejected as one person.
//
// There is one kiosk session, but its requests arrive on concurrent HTTP
// handler goroutines; the mutex serializes them so the duplicate scan and
// the append stay atomic.
type Ledger struct {
	store slot.Slot
	loc   *time.Location
	now   func() time.Time

	mu     sync.Mutex
	events []Event
}

// New creates a ledger backed by store, computing civil dates in loc.
// The previously persisted snapshot is loaded; a missing or corrupt
// snapshot yields an empty ledger rather than an error, since losing a
// day's list is less harmful than refusing to start.
func New(ctx context.Context, store slot.Slot, loc *time.Location) *Ledger {
	if loc == nil {
		loc = time.Local
	}
	l := &Ledger{store: store, loc: loc, now: time.Now}
	l.load(ctx)
	return l
}

func (l *Ledger) load(ctx context.Context) {
	data, err := l.store.Read(ctx)
	if err != nil {
		if !errors.Is(err, slot.ErrEmpty) {
			log.Printf("ledger: snapshot read failed, starting empty: %v", err)
		}
		return
	}
	var events []Event
	if err := json.Unmarshal(data, &events); err != nil {
		log.Printf("ledger: snapshot corrupt, starting empty: %v", err)
		return
	}
	l.events = events
}

// Insert validates candidate, stamps date and a unique timestamp, appends
// the event, and flushes. On a duplicate or validation failure nothing is
// mutated. A flush failure returns the applied event together with a
// *StorageError so callers can surface the warning.
func (l *Ledger) Insert(ctx context.Context, c Candidate) (Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !c.PersonType.Valid() {
		return Event{}, &ValidationError{Field: "person type"}
	}
	if c.DisplayName == "" {
		return Event{}, &ValidationError{Field: "name"}
	}
	if c.NationalID == "" {
		return Event{}, &ValidationError{Field: "national id"}
	}
	if c.PersonType == Student && c.Code == "" {
		return Event{}, &ValidationError{Field: "code"}
	}

	now := l.now().In(l.loc)
	date := now.Format(DateLayout)

	for _, evt := range l.events {
		if evt.Date != date || evt.PersonType != c.PersonType {
			continue
		}
		if c.PersonType == Student && evt.Code == c.Code {
			duplicates.Inc()
			return Event{}, &DuplicateError{PersonType: Student, Key: c.Code, Date: date}
		}
		if c.PersonType == Visitor && evt.NationalID == c.NationalID {
			duplicates.Inc()
			return Event{}, &DuplicateError{PersonType: Visitor, Key: c.NationalID, Date: date}
		}
	}

	evt := Event{
		PersonType:  c.PersonType,
		Code:        c.Code,
		DisplayName: c.DisplayName,
		NationalID:  c.NationalID,
		Email:       c.Email,
		Reason:      c.Reason,
		Date:        date,
		Timestamp:   l.uniqueTimestamp(now),
	}
	l.events = append(l.events, evt)
	registrations.WithLabelValues(string(c.PersonType)).Inc()

	if err := l.flush(ctx); err != nil {
		return evt, &StorageError{Op: "insert", Err: err}
	}
	return evt, nil
}

// uniqueTimestamp returns now bumped past the last stored timestamp when
// two inserts land on the same instant, keeping timestamp order equal to
// insertion order and every timestamp distinct.
func (l *Ledger) uniqueTimestamp(now time.Time) time.Time {
	if n := len(l.events); n > 0 {
		if last := l.events[n-1].Timestamp; !now.After(last) {
			return last.Add(time.Nanosecond)
		}
	}
	return now
}

// Delete removes the event whose timestamp equals ts and flushes.
func (l *Ledger) Delete(ctx context.Context, ts time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, evt := range l.events {
		if evt.Timestamp.Equal(ts) {
			l.events = append(l.events[:i], l.events[i+1:]...)
			if err := l.flush(ctx); err != nil {
				return &StorageError{Op: "delete", Err: err}
			}
			return nil
		}
	}
	return &NotFoundError{Timestamp: ts.Format(time.RFC3339Nano)}
}

// Clear empties the ledger unconditionally and flushes.
func (l *Ledger) Clear(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.events = nil
	if err := l.flush(ctx); err != nil {
		return &StorageError{Op: "clear", Err: err}
	}
	return nil
}

// Snapshot returns a copy of the current events in insertion order.
func (l *Ledger) Snapshot() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}

// Len returns the number of stored events.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}

// Today returns the current civil date in the ledger's timezone.
func (l *Ledger) Today() string {
	return l.now().In(l.loc).Format(DateLayout)
}

func (l *Ledger) flush(ctx context.Context) error {
	data, err := json.Marshal(l.events)
	if err != nil {
		return err
	}
	if err := l.store.Write(ctx, data); err != nil {
		flushFailures.Inc()
		return err
	}
	return nil
}

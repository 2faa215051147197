package ledger

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"registro/internal/slot"
)

func fixedClock(start time.Time) func() time.Time {
	t := start
	return func() time.Time { return t }
}

func newTestLedger(t *testing.T, store slot.Slot) *Ledger {
	t.Helper()
	l := New(context.Background(), store, time.UTC)
	l.now = fixedClock(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	return l
}

func studentCandidate(code string) Candidate {
	return Candidate{
		PersonType:  Student,
		Code:        code,
		DisplayName: "Ana Torres",
		NationalID:  "44556677",
		Email:       "ana@example.edu",
	}
}

func visitorCandidate(nationalID string) Candidate {
	return Candidate{
		PersonType:  Visitor,
		Code:        "VIS-1",
		DisplayName: "Luis Rojas",
		NationalID:  nationalID,
		Reason:      "reunión",
	}
}

func TestInsert_StudentDuplicateSameDay(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, slot.NewMemory())

	_, err := l.Insert(ctx, studentCandidate("EST001"))
	require.NoError(t, err)

	_, err = l.Insert(ctx, studentCandidate("EST001"))
	var dup *DuplicateError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, Student, dup.PersonType)
	assert.Equal(t, "EST001", dup.Key)
	assert.Equal(t, 1, l.Len())
}

func TestInsert_VisitorDuplicateByNationalID(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, slot.NewMemory())

	_, err := l.Insert(ctx, visitorCandidate("11223344"))
	require.NoError(t, err)

	// Names are not compared: the same national ID collides even for a
	// different display name.
	other := visitorCandidate("11223344")
	other.DisplayName = "Otra Persona"
	other.Code = "VIS-2"
	_, err = l.Insert(ctx, other)
	var dup *DuplicateError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, Visitor, dup.PersonType)
	assert.Equal(t, "11223344", dup.Key)

	// A different civil date is a fresh slate.
	l.now = fixedClock(time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC))
	_, err = l.Insert(ctx, visitorCandidate("11223344"))
	require.NoError(t, err)
	assert.Equal(t, 2, l.Len())
}

func TestInsert_StudentAndVisitorDoNotCollide(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, slot.NewMemory())

	student := studentCandidate("EST001")
	visitor := visitorCandidate(student.NationalID)

	_, err := l.Insert(ctx, student)
	require.NoError(t, err)
	_, err = l.Insert(ctx, visitor)
	require.NoError(t, err)
}

func TestInsert_Validation(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, slot.NewMemory())

	cases := []struct {
		name      string
		candidate Candidate
	}{
		{"missing type", Candidate{DisplayName: "X", NationalID: "1"}},
		{"bad type", Candidate{PersonType: "teacher", DisplayName: "X", NationalID: "1"}},
		{"missing name", Candidate{PersonType: Visitor, NationalID: "1"}},
		{"missing national id", Candidate{PersonType: Visitor, DisplayName: "X"}},
		{"student missing code", Candidate{PersonType: Student, DisplayName: "X", NationalID: "1"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := l.Insert(ctx, tc.candidate)
			var invalid *ValidationError
			assert.ErrorAs(t, err, &invalid)
		})
	}
	assert.Equal(t, 0, l.Len())
}

func TestInsert_TimestampsUnique(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, slot.NewMemory())

	// The clock is frozen, so every insert lands on the same instant and
	// must be bumped apart.
	codes := []string{"EST001", "EST002", "EST003"}
	for _, code := range codes {
		c := studentCandidate(code)
		c.NationalID = code + "-id"
		_, err := l.Insert(ctx, c)
		require.NoError(t, err)
	}

	events := l.Snapshot()
	require.Len(t, events, 3)
	seen := make(map[int64]bool)
	for _, evt := range events {
		ns := evt.Timestamp.UnixNano()
		assert.False(t, seen[ns], "timestamp %v repeated", evt.Timestamp)
		seen[ns] = true
	}
	// Insertion order and timestamp order agree.
	for i := 1; i < len(events); i++ {
		assert.True(t, events[i].Timestamp.After(events[i-1].Timestamp))
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, slot.NewMemory())

	evt, err := l.Insert(ctx, studentCandidate("EST001"))
	require.NoError(t, err)

	require.NoError(t, l.Delete(ctx, evt.Timestamp))
	assert.Equal(t, 0, l.Len())
}

func TestDelete_NotFoundLeavesLedgerUnchanged(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, slot.NewMemory())

	_, err := l.Insert(ctx, studentCandidate("EST001"))
	require.NoError(t, err)
	before := l.Snapshot()

	err = l.Delete(ctx, time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC))
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, before, l.Snapshot())
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, slot.NewMemory())

	_, err := l.Insert(ctx, studentCandidate("EST001"))
	require.NoError(t, err)
	_, err = l.Insert(ctx, visitorCandidate("11223344"))
	require.NoError(t, err)

	require.NoError(t, l.Clear(ctx))
	assert.Empty(t, l.Snapshot())
}

func TestSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := slot.NewMemory()
	l := newTestLedger(t, store)

	_, err := l.Insert(ctx, studentCandidate("EST001"))
	require.NoError(t, err)
	_, err = l.Insert(ctx, visitorCandidate("11223344"))
	require.NoError(t, err)

	// A fresh ledger over the same slot sees the same events in the same
	// order.
	reloaded := New(ctx, store, time.UTC)
	assert.Equal(t, l.Snapshot(), reloaded.Snapshot())
}

func TestLoad_CorruptSnapshotStartsEmpty(t *testing.T) {
	ctx := context.Background()
	store := slot.NewMemory()
	require.NoError(t, store.Write(ctx, []byte("{not json")))

	l := New(ctx, store, time.UTC)
	assert.Equal(t, 0, l.Len())
}

func TestLoad_EmptySlotStartsEmpty(t *testing.T) {
	l := New(context.Background(), slot.NewMemory(), time.UTC)
	assert.Equal(t, 0, l.Len())
}

func TestInsert_ConcurrentDistinctPersons(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, slot.NewMemory())

	// Handler goroutines overlap; the frozen clock forces every insert
	// onto the same instant so uniqueness must come from the ledger.
	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c := studentCandidate(fmt.Sprintf("EST%03d", i))
			c.NationalID = fmt.Sprintf("id-%03d", i)
			_, err := l.Insert(ctx, c)
			assert.NoError(t, err)
			_ = l.Snapshot()
		}(i)
	}
	wg.Wait()

	events := l.Snapshot()
	require.Len(t, events, n)
	seen := make(map[int64]bool)
	for _, evt := range events {
		ns := evt.Timestamp.UnixNano()
		assert.False(t, seen[ns], "timestamp %v repeated", evt.Timestamp)
		seen[ns] = true
	}
}

func TestInsert_ConcurrentSamePersonAdmitsOne(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, slot.NewMemory())

	const n = 10
	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		inserted   int
		duplicates int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.Insert(ctx, studentCandidate("EST001"))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				inserted++
				return
			}
			var dup *DuplicateError
			if assert.ErrorAs(t, err, &dup) {
				duplicates++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, inserted)
	assert.Equal(t, n-1, duplicates)
	assert.Equal(t, 1, l.Len())
}

type failingSlot struct{}

func (failingSlot) Read(ctx context.Context) ([]byte, error) { return nil, slot.ErrEmpty }
func (failingSlot) Write(ctx context.Context, data []byte) error {
	return assert.AnError
}
func (failingSlot) Healthy(ctx context.Context) bool { return false }

func TestInsert_FlushFailureSurfacedButApplied(t *testing.T) {
	ctx := context.Background()
	l := New(ctx, failingSlot{}, time.UTC)
	l.now = fixedClock(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))

	evt, err := l.Insert(ctx, studentCandidate("EST001"))
	var storage *StorageError
	require.ErrorAs(t, err, &storage)
	assert.Equal(t, "EST001", evt.Code)
	assert.Equal(t, 1, l.Len())
}

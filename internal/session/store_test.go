package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/JonMunkholm/sheetimport/internal/core"
)

var march2024 = core.Period{Month: time.March, Year: 2024}

func sampleOutcomes() []core.SheetOutcome {
	headers := []string{"Name", "Date", "Amount"}
	mk := func(name, date string, amount float64) core.RawRow {
		return core.RawRow{
			"Name":   core.StringCell(name),
			"Date":   core.StringCell(date),
			"Amount": core.NumberCell(amount),
		}
	}
	return []core.SheetOutcome{
		core.ValidateSheet("March", headers, []core.RawRow{
			mk("Alice", "01-03-2024", 100),
			mk("", "01-03-2024", 50),
			mk("Bob", "40-13-2024", -5),
			mk("Carol", "15-03-2024", 20),
		}, march2024),
		core.ValidateSheet("Extra", headers, []core.RawRow{
			mk("Dan", "02-03-2024", 1),
		}, march2024),
	}
}

func rowNumbers(o core.SheetOutcome) map[int]bool {
	m := make(map[int]bool)
	for _, r := range o.ValidRows {
		m[r.RowNumber] = true
	}
	for _, r := range o.InvalidRows {
		m[r.RowNumber] = true
	}
	return m
}

// runStoreContract exercises the behaviour every SessionStore must have.
func runStoreContract(t *testing.T, newStore func(t *testing.T) core.SessionStore) {
	ctx := context.Background()

	t.Run("get missing session", func(t *testing.T) {
		s := newStore(t)
		if _, err := s.Get(ctx, "nope"); !errors.Is(err, core.ErrSessionNotFound) {
			t.Errorf("Get error = %v, want ErrSessionNotFound", err)
		}
	})

	t.Run("replace then get", func(t *testing.T) {
		s := newStore(t)
		sess, err := s.Replace(ctx, "s1", sampleOutcomes())
		if err != nil {
			t.Fatalf("Replace: %v", err)
		}
		if sess.Version == "" || sess.ID != "s1" {
			t.Errorf("Replace returned %+v", sess)
		}
		got, err := s.Get(ctx, "s1")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if len(got.Sheets) != 2 || got.Sheets[0].SheetName != "March" || got.Sheets[1].SheetName != "Extra" {
			t.Errorf("Sheets = %+v", got.Sheets)
		}
		if got.Version != sess.Version {
			t.Errorf("Version = %q, want %q", got.Version, sess.Version)
		}
	})

	t.Run("replace changes version", func(t *testing.T) {
		s := newStore(t)
		a, _ := s.Replace(ctx, "s1", sampleOutcomes())
		b, _ := s.Replace(ctx, "s1", sampleOutcomes()[:1])
		if a.Version == b.Version {
			t.Error("Version unchanged by Replace")
		}
		got, _ := s.Get(ctx, "s1")
		if len(got.Sheets) != 1 {
			t.Errorf("len(Sheets) = %d, want 1 after replace", len(got.Sheets))
		}
	})

	t.Run("remove row is visible to get", func(t *testing.T) {
		s := newStore(t)
		s.Replace(ctx, "s1", sampleOutcomes())

		for _, n := range []int{2, 4} { // one valid, one invalid
			updated, err := s.RemoveRow(ctx, "s1", "March", n)
			if err != nil {
				t.Fatalf("RemoveRow(%d): %v", n, err)
			}
			if rowNumbers(updated)[n] {
				t.Errorf("returned outcome still has row %d", n)
			}
		}

		got, _ := s.Get(ctx, "s1")
		rows := rowNumbers(got.Sheets[0])
		if rows[2] || rows[4] {
			t.Errorf("Get still returns removed rows: %v", rows)
		}
		if !rows[3] || !rows[5] {
			t.Errorf("Get lost untouched rows: %v", rows)
		}
	})

	t.Run("remove missing row leaves sheet unchanged", func(t *testing.T) {
		s := newStore(t)
		s.Replace(ctx, "s1", sampleOutcomes())
		before, _ := s.Get(ctx, "s1")

		_, err := s.RemoveRow(ctx, "s1", "March", 99)
		if !errors.Is(err, core.ErrRowNotFound) {
			t.Fatalf("RemoveRow error = %v, want ErrRowNotFound", err)
		}
		after, _ := s.Get(ctx, "s1")
		if len(after.Sheets[0].ValidRows) != len(before.Sheets[0].ValidRows) ||
			len(after.Sheets[0].InvalidRows) != len(before.Sheets[0].InvalidRows) {
			t.Error("sheet changed after failed RemoveRow")
		}
	})

	t.Run("remove row errors", func(t *testing.T) {
		s := newStore(t)
		if _, err := s.RemoveRow(ctx, "none", "March", 2); !errors.Is(err, core.ErrSessionNotFound) {
			t.Errorf("missing session: %v", err)
		}
		s.Replace(ctx, "s1", sampleOutcomes())
		if _, err := s.RemoveRow(ctx, "s1", "April", 2); !errors.Is(err, core.ErrSheetNotFound) {
			t.Errorf("missing sheet: %v", err)
		}
	})

	t.Run("consume exactly once", func(t *testing.T) {
		s := newStore(t)
		s.Replace(ctx, "s1", sampleOutcomes())

		c, err := s.ConsumeSheet(ctx, "s1", "March")
		if err != nil {
			t.Fatalf("ConsumeSheet: %v", err)
		}
		if c.Outcome.SheetName != "March" || len(c.Outcome.ValidRows) != 2 || c.Index != 0 {
			t.Errorf("consumed = %+v", c)
		}
		if _, err := s.ConsumeSheet(ctx, "s1", "March"); !errors.Is(err, core.ErrSheetNotFound) {
			t.Errorf("second ConsumeSheet error = %v, want ErrSheetNotFound", err)
		}
		got, _ := s.Get(ctx, "s1")
		if len(got.Sheets) != 1 || got.Sheets[0].SheetName != "Extra" {
			t.Errorf("remaining sheets = %+v", got.Sheets)
		}
	})

	t.Run("restore puts sheet back in place", func(t *testing.T) {
		s := newStore(t)
		s.Replace(ctx, "s1", sampleOutcomes())
		c, _ := s.ConsumeSheet(ctx, "s1", "March")

		ok, err := s.RestoreSheet(ctx, "s1", c)
		if err != nil || !ok {
			t.Fatalf("RestoreSheet = %v, %v; want true", ok, err)
		}
		got, _ := s.Get(ctx, "s1")
		if len(got.Sheets) != 2 || got.Sheets[0].SheetName != "March" {
			t.Errorf("Sheets after restore = %+v", got.Sheets)
		}
		if len(got.Sheets[0].ValidRows) != 2 || len(got.Sheets[0].InvalidRows) != 2 {
			t.Errorf("restored sheet rows changed: %+v", got.Sheets[0])
		}
	})

	t.Run("restore skipped after new preview", func(t *testing.T) {
		s := newStore(t)
		s.Replace(ctx, "s1", sampleOutcomes())
		c, _ := s.ConsumeSheet(ctx, "s1", "March")
		s.Replace(ctx, "s1", sampleOutcomes()[1:])

		ok, err := s.RestoreSheet(ctx, "s1", c)
		if err != nil || ok {
			t.Fatalf("RestoreSheet = %v, %v; want false", ok, err)
		}
		got, _ := s.Get(ctx, "s1")
		if len(got.Sheets) != 1 {
			t.Errorf("restore wrote into a newer session: %+v", got.Sheets)
		}
	})

	t.Run("restore on discarded session", func(t *testing.T) {
		s := newStore(t)
		s.Replace(ctx, "s1", sampleOutcomes())
		c, _ := s.ConsumeSheet(ctx, "s1", "March")
		if err := s.Discard(ctx, "s1"); err != nil {
			t.Fatalf("Discard: %v", err)
		}
		ok, err := s.RestoreSheet(ctx, "s1", c)
		if err != nil || ok {
			t.Errorf("RestoreSheet = %v, %v; want false, nil", ok, err)
		}
	})

	t.Run("returned values are copies", func(t *testing.T) {
		s := newStore(t)
		s.Replace(ctx, "s1", sampleOutcomes())
		got, _ := s.Get(ctx, "s1")
		got.Sheets[0].ValidRows[0].Name = "tampered"
		got.Sheets = nil

		again, _ := s.Get(ctx, "s1")
		if len(again.Sheets) != 2 || again.Sheets[0].ValidRows[0].Name != "Alice" {
			t.Error("mutation of a returned session leaked into the store")
		}
	})

	t.Run("sessions are independent", func(t *testing.T) {
		s := newStore(t)
		s.Replace(ctx, "a", sampleOutcomes())
		s.Replace(ctx, "b", sampleOutcomes())
		s.ConsumeSheet(ctx, "a", "March")

		got, _ := s.Get(ctx, "b")
		if len(got.Sheets) != 2 {
			t.Error("consuming in session a changed session b")
		}
	})

	t.Run("concurrent consume and remove do not interleave", func(t *testing.T) {
		s := newStore(t)
		for round := 0; round < 20; round++ {
			s.Replace(ctx, "s1", sampleOutcomes())

			var (
				wg       sync.WaitGroup
				consumes int
				mu       sync.Mutex
				consumed core.ConsumedSheet
				removed  bool
			)
			for i := 0; i < 4; i++ {
				wg.Add(2)
				go func() {
					defer wg.Done()
					if c, err := s.ConsumeSheet(ctx, "s1", "March"); err == nil {
						mu.Lock()
						consumes++
						consumed = c
						mu.Unlock()
					}
				}()
				go func() {
					defer wg.Done()
					if _, err := s.RemoveRow(ctx, "s1", "March", 2); err == nil {
						mu.Lock()
						removed = true
						mu.Unlock()
					}
				}()
			}
			wg.Wait()

			if consumes != 1 {
				t.Fatalf("round %d: %d successful consumes, want 1", round, consumes)
			}
			// Row 2 is either removed before the consume or shipped with it.
			has2 := rowNumbers(consumed.Outcome)[2]
			if has2 == removed {
				t.Fatalf("round %d: row 2 in consumed=%v, removed=%v", round, has2, removed)
			}
		}
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreContract(t, func(t *testing.T) core.SessionStore {
		return NewMemoryStore(time.Minute)
	})
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	s := NewMemoryStore(10*time.Minute, WithClock(clock))
	s.Replace(ctx, "s1", sampleOutcomes())

	now = now.Add(9 * time.Minute)
	if _, err := s.Get(ctx, "s1"); err != nil {
		t.Fatalf("Get before expiry: %v", err)
	}

	// Get slid the deadline forward.
	now = now.Add(9 * time.Minute)
	if _, err := s.Get(ctx, "s1"); err != nil {
		t.Fatalf("Get after slide: %v", err)
	}

	now = now.Add(11 * time.Minute)
	if _, err := s.Get(ctx, "s1"); !errors.Is(err, core.ErrSessionNotFound) {
		t.Errorf("Get after expiry error = %v, want ErrSessionNotFound", err)
	}
	if s.Len() != 0 {
		t.Errorf("Len = %d, want expired entry dropped", s.Len())
	}
}

func TestMemoryStore_Sweep(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStore(time.Minute, WithClock(func() time.Time { return now }))

	s.Replace(ctx, "old", sampleOutcomes())
	now = now.Add(30 * time.Second)
	s.Replace(ctx, "new", sampleOutcomes())

	now = now.Add(45 * time.Second)
	if n := s.Sweep(); n != 1 {
		t.Errorf("Sweep removed %d, want 1", n)
	}
	if _, err := s.Get(ctx, "new"); err != nil {
		t.Errorf("fresh session swept: %v", err)
	}
	if s.Len() != 1 {
		t.Errorf("Len = %d, want 1", s.Len())
	}
}

type countingSweeper struct {
	mu    sync.Mutex
	calls int
}

func (c *countingSweeper) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return 0
}

func TestRunJanitor(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	sw := &countingSweeper{}

	done := make(chan struct{})
	go func() {
		RunJanitor(ctx, sw, 5*time.Millisecond)
		close(done)
	}()

	time.Sleep(40 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop after cancel")
	}

	sw.mu.Lock()
	defer sw.mu.Unlock()
	if sw.calls == 0 {
		t.Error("janitor never swept")
	}
}

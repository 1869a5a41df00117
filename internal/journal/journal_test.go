package journal

import (
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestMigrationsIdempotent(t *testing.T) {
	dir := t.TempDir()

	s1, err := Open(dir)
	if err != nil {
		t.Fatalf("first Open failed: %v", err)
	}
	v1, err := s1.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}
	s1.Close()

	s2, err := Open(dir)
	if err != nil {
		t.Fatalf("second Open failed: %v", err)
	}
	defer s2.Close()

	v2, err := s2.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}
	if len(v1) != len(v2) {
		t.Errorf("migration count changed: %d -> %d", len(v1), len(v2))
	}
}

func TestSaveExchange_RoundTrip(t *testing.T) {
	s := openTestStore(t)

	e := Exchange{
		ID:          "ex-1",
		CreatedAt:   time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
		Language:    "korean",
		Message:     "안녕",
		Reply:       "안녕하세요!",
		ResponderMS: 2300,
	}
	if err := s.SaveExchange(e); err != nil {
		t.Fatalf("SaveExchange: %v", err)
	}

	got, err := s.RecentExchanges(10)
	if err != nil {
		t.Fatalf("RecentExchanges: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("exchanges = %d, want 1", len(got))
	}
	if got[0].Message != "안녕" || got[0].Reply != "안녕하세요!" {
		t.Errorf("round trip mismatch: %+v", got[0])
	}
	if got[0].TrackerOutcome != "pending" {
		t.Errorf("tracker outcome = %q, want pending before tracker finishes", got[0].TrackerOutcome)
	}
}

func TestSetTrackerOutcome_EitherOrder(t *testing.T) {
	s := openTestStore(t)
	now := time.Now().UTC()

	// Exchange saved first, outcome second.
	if err := s.SaveExchange(Exchange{ID: "a", CreatedAt: now, Language: "korean"}); err != nil {
		t.Fatalf("SaveExchange: %v", err)
	}
	if err := s.SetTrackerOutcome("a", "ok"); err != nil {
		t.Fatalf("SetTrackerOutcome: %v", err)
	}

	// Outcome lands first (fast tracker), exchange row second.
	if err := s.SetTrackerOutcome("b", "timeout"); err != nil {
		t.Fatalf("SetTrackerOutcome: %v", err)
	}
	if err := s.SaveExchange(Exchange{ID: "b", CreatedAt: now.Add(time.Second), Language: "korean"}); err != nil {
		t.Fatalf("SaveExchange: %v", err)
	}

	got, err := s.RecentExchanges(10)
	if err != nil {
		t.Fatalf("RecentExchanges: %v", err)
	}
	outcomes := map[string]string{}
	for _, e := range got {
		outcomes[e.ID] = e.TrackerOutcome
	}
	if outcomes["a"] != "ok" {
		t.Errorf("outcome[a] = %q, want ok", outcomes["a"])
	}
	if outcomes["b"] != "timeout" {
		t.Errorf("outcome[b] = %q, want timeout preserved across late save", outcomes["b"])
	}
}

func TestRecentExchanges_NewestFirst(t *testing.T) {
	s := openTestStore(t)
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	for i, id := range []string{"first", "second", "third"} {
		e := Exchange{ID: id, CreatedAt: base.Add(time.Duration(i) * time.Minute), Language: "spanish"}
		if err := s.SaveExchange(e); err != nil {
			t.Fatalf("SaveExchange(%s): %v", id, err)
		}
	}

	got, err := s.RecentExchanges(2)
	if err != nil {
		t.Fatalf("RecentExchanges: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("exchanges = %d, want limit applied", len(got))
	}
	if got[0].ID != "third" || got[1].ID != "second" {
		t.Errorf("order = [%s %s], want newest first", got[0].ID, got[1].ID)
	}
}

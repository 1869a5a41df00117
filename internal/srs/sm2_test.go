package srs

import (
	"testing"
	"time"
)

var today = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func TestNewWordRecord(t *testing.T) {
	rec := NewWordRecord("안녕", today)

	if rec.Ease != 2.5 {
		t.Errorf("ease = %v, want 2.5", rec.Ease)
	}
	if rec.Repetitions != 1 {
		t.Errorf("repetitions = %d, want 1", rec.Repetitions)
	}
	if rec.Interval != 1 {
		t.Errorf("interval = %d, want 1", rec.Interval)
	}
	if rec.NextReview != "2026-03-15" {
		t.Errorf("next_review = %q, want 2026-03-15", rec.NextReview)
	}
}

func TestApplyCorrectUse_IntervalProgression(t *testing.T) {
	cases := []struct {
		name         string
		in           WordRecord
		wantReps     int
		wantInterval int
	}{
		{
			name:         "zero to first",
			in:           WordRecord{Word: "w", Ease: 2.5, Repetitions: 0, Interval: 0},
			wantReps:     1,
			wantInterval: 1,
		},
		{
			name:         "first to second",
			in:           WordRecord{Word: "w", Ease: 2.5, Repetitions: 1, Interval: 1},
			wantReps:     2,
			wantInterval: 6,
		},
		{
			name:         "second to third uses ease",
			in:           WordRecord{Word: "w", Ease: 2.5, Repetitions: 2, Interval: 6},
			wantReps:     3,
			wantInterval: 15,
		},
		{
			name:         "rounding half up",
			in:           WordRecord{Word: "w", Ease: 2.5, Repetitions: 3, Interval: 15},
			wantReps:     4,
			wantInterval: 38, // round(15 * 2.5) = round(37.5)
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := ApplyCorrectUse(tc.in, today)
			if out.Repetitions != tc.wantReps {
				t.Errorf("repetitions = %d, want %d", out.Repetitions, tc.wantReps)
			}
			if out.Interval != tc.wantInterval {
				t.Errorf("interval = %d, want %d", out.Interval, tc.wantInterval)
			}
			if out.Ease != tc.in.Ease {
				t.Errorf("ease changed: %v -> %v", tc.in.Ease, out.Ease)
			}
			wantReview := today.AddDate(0, 0, tc.wantInterval).Format("2006-01-02")
			if out.NextReview != wantReview {
				t.Errorf("next_review = %q, want %q", out.NextReview, wantReview)
			}
		})
	}
}

func TestVocabularyStore_RecordCorrectUse_NoDuplicates(t *testing.T) {
	store := VocabularyStore{Language: "Korean"}

	store.RecordCorrectUse("안녕", today)
	store.RecordCorrectUse("안녕", today)
	store.RecordCorrectUse("감사합니다", today)

	if len(store.Words) != 2 {
		t.Fatalf("words = %d, want 2", len(store.Words))
	}
	if store.Words[0].Word != "안녕" || store.Words[0].Repetitions != 2 {
		t.Errorf("first word = %+v, want 안녕 with 2 repetitions", store.Words[0])
	}
	if store.Words[1].Repetitions != 1 {
		t.Errorf("new word repetitions = %d, want 1", store.Words[1].Repetitions)
	}
}

func TestApplyCorrectRuleUse_StarsMonotonic(t *testing.T) {
	rec := NewRuleRecord("은/는 topic particle")
	if rec.Stars != 1 || rec.CorrectStreak != 1 {
		t.Fatalf("new rule = %+v, want stars 1, streak 1", rec)
	}

	prev := rec.Stars
	for i := 0; i < 20; i++ {
		rec = ApplyCorrectRuleUse(rec)
		if rec.Stars < prev {
			t.Fatalf("stars decreased at streak %d: %d -> %d", rec.CorrectStreak, prev, rec.Stars)
		}
		prev = rec.Stars
	}

	if rec.CorrectStreak != 21 {
		t.Errorf("streak = %d, want 21", rec.CorrectStreak)
	}
	if rec.Stars != 5 {
		t.Errorf("stars = %d, want 5 after a long streak", rec.Stars)
	}
}

func TestGrammarStore_RecordCorrectUse(t *testing.T) {
	store := GrammarStore{Language: "Korean"}

	store.RecordCorrectUse("이/가 subject particle")
	store.RecordCorrectUse("이/가 subject particle")

	if len(store.Rules) != 1 {
		t.Fatalf("rules = %d, want 1", len(store.Rules))
	}
	if store.Rules[0].CorrectStreak != 2 {
		t.Errorf("streak = %d, want 2", store.Rules[0].CorrectStreak)
	}
}

func TestDueWords(t *testing.T) {
	today := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	store := VocabularyStore{
		Language: "Korean",
		Words: []WordRecord{
			{Word: "overdue", NextReview: "2026-03-10"},
			{Word: "due-today", NextReview: "2026-03-14"},
			{Word: "future", NextReview: "2026-03-20"},
			{Word: "garbled", NextReview: "soonish"},
		},
	}

	due := store.DueWords(today)
	if len(due) != 3 {
		t.Fatalf("got %d due words, want 3: %+v", len(due), due)
	}
	for i, want := range []string{"overdue", "due-today", "garbled"} {
		if due[i].Word != want {
			t.Errorf("due[%d] = %q, want %q", i, due[i].Word, want)
		}
	}
}

func TestDueWordsEmptyStore(t *testing.T) {
	store := VocabularyStore{Language: "Korean"}
	if due := store.DueWords(time.Now()); len(due) != 0 {
		t.Errorf("got %d due words from empty store", len(due))
	}
}

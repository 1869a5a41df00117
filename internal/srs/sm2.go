// Package srs defines the spaced-repetition records kept in each
// workspace's vocabulary and grammar stores and the state transition
// applied on every confirmed correct use.
//
// The transition itself is executed by the external tracker agent under
// instruction; this package is the contract of record. The prompt text in
// internal/agent must stay in agreement with ApplyCorrectUse.
package srs

import (
	"math"
	"time"
)

const dateLayout = "2006-01-02"

// DefaultEase is the ease factor assigned to a newly tracked word.
const DefaultEase = 2.5

// WordRecord is one tracked vocabulary item. Word is the identifying key
// and is unique within a store.
type WordRecord struct {
	Word        string  `json:"word"`
	Ease        float64 `json:"ease"`
	Interval    int     `json:"interval"`
	Repetitions int     `json:"repetitions"`
	NextReview  string  `json:"next_review"`
}

// RuleRecord is one tracked grammar construct. Rule is the identifying key.
type RuleRecord struct {
	Rule          string `json:"rule"`
	Stars         int    `json:"stars"`
	CorrectStreak int    `json:"correct_streak"`
}

// VocabularyStore is the on-disk shape of vocabulary.json.
type VocabularyStore struct {
	Language string       `json:"language"`
	Words    []WordRecord `json:"words"`
}

// GrammarStore is the on-disk shape of grammar.json.
type GrammarStore struct {
	Language string       `json:"language"`
	Rules    []RuleRecord `json:"rules"`
}

// NewWordRecord creates the record for a word's first observed use.
func NewWordRecord(word string, today time.Time) WordRecord {
	return WordRecord{
		Word:        word,
		Ease:        DefaultEase,
		Interval:    1,
		Repetitions: 1,
		NextReview:  today.AddDate(0, 0, 1).Format(dateLayout),
	}
}

// ApplyCorrectUse returns the updated record after one confirmed correct
// use of an already-tracked word (SM-2 correct-use path):
//
//	repetitions += 1
//	repetitions == 1 -> interval = 1
//	repetitions == 2 -> interval = 6
//	repetitions >= 3 -> interval = round(interval * ease)
//	next_review = today + interval days
//
// Ease is left unchanged: no incorrect-use feedback path is defined, so
// there is no rule that would adjust it.
func ApplyCorrectUse(rec WordRecord, today time.Time) WordRecord {
	rec.Repetitions++
	switch {
	case rec.Repetitions == 1:
		rec.Interval = 1
	case rec.Repetitions == 2:
		rec.Interval = 6
	default:
		rec.Interval = int(math.Round(float64(rec.Interval) * rec.Ease))
	}
	rec.NextReview = today.AddDate(0, 0, rec.Interval).Format(dateLayout)
	return rec
}

// RecordCorrectUse upserts a correct use of word into the store, keyed by
// the word text. An already-tracked word is updated in place; a new word
// is appended. Never creates duplicate records.
func (s *VocabularyStore) RecordCorrectUse(word string, today time.Time) {
	for i := range s.Words {
		if s.Words[i].Word == word {
			s.Words[i] = ApplyCorrectUse(s.Words[i], today)
			return
		}
	}
	s.Words = append(s.Words, NewWordRecord(word, today))
}

// DueWords returns the words whose next review date is on or before today,
// in store order. A record with an unparsable next_review counts as due, so
// a malformed date can never hide a word from review.
func (s *VocabularyStore) DueWords(today time.Time) []WordRecord {
	cutoff := today.Format(dateLayout)
	due := []WordRecord{}
	for _, w := range s.Words {
		if _, err := time.Parse(dateLayout, w.NextReview); err != nil {
			due = append(due, w)
			continue
		}
		if w.NextReview <= cutoff {
			due = append(due, w)
		}
	}
	return due
}

// NewRuleRecord creates the record for a rule's first observed correct use.
func NewRuleRecord(rule string) RuleRecord {
	return RuleRecord{Rule: rule, Stars: 1, CorrectStreak: 1}
}

// starThresholds maps correct-streak lengths to star upgrades. The exact
// thresholds are an implementation choice; the only requirement is that
// the rating is monotonic non-decreasing in streak length.
var starThresholds = []struct {
	streak int
	stars  int
}{
	{15, 5},
	{10, 4},
	{6, 3},
	{3, 2},
}

// ApplyCorrectRuleUse returns the updated record after one confirmed
// correct use of a grammar construct: the streak grows by one and the
// star rating upgrades when the streak crosses a threshold. Stars never
// decrease.
func ApplyCorrectRuleUse(rec RuleRecord) RuleRecord {
	rec.CorrectStreak++
	for _, t := range starThresholds {
		if rec.CorrectStreak >= t.streak {
			if t.stars > rec.Stars {
				rec.Stars = t.stars
			}
			break
		}
	}
	return rec
}

// RecordCorrectUse upserts a correct use of rule into the store, keyed by
// the rule text.
func (s *GrammarStore) RecordCorrectUse(rule string) {
	for i := range s.Rules {
		if s.Rules[i].Rule == rule {
			s.Rules[i] = ApplyCorrectRuleUse(s.Rules[i])
			return
		}
	}
	s.Rules = append(s.Rules, NewRuleRecord(rule))
}

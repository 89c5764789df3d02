package entities

import (
	"time"
)

// PricePoint is one sample of a meme stock's value
type PricePoint struct {
	At    time.Time `json:"t"`
	Value int64     `json:"v"`
}

// MemeStock is a synthetic instrument priced by the external market scan
type MemeStock struct {
	ID           int64        `db:"id" json:"id"`
	Symbol       string       `db:"symbol" json:"symbol"`
	Title        string       `db:"title" json:"title"`
	CurrentValue int64        `db:"current_value" json:"current_value"`
	History      []PricePoint `db:"history" json:"history"`
	IsActive     bool         `db:"is_active" json:"is_active"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at" json:"updated_at"`
}

// AppendPrice records a new sample and drops samples older than window
func (s *MemeStock) AppendPrice(value int64, at time.Time, window time.Duration) {
	s.CurrentValue = value
	s.History = append(s.History, PricePoint{At: at, Value: value})
	s.History = PruneHistory(s.History, at, window)
}

// PruneHistory keeps the samples taken within window before now, in order
func PruneHistory(history []PricePoint, now time.Time, window time.Duration) []PricePoint {
	cutoff := now.Add(-window)
	kept := make([]PricePoint, 0, len(history))
	for _, p := range history {
		if !p.At.Before(cutoff) {
			kept = append(kept, p)
		}
	}
	return kept
}

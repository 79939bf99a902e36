// Package reflection serves a daily recovery reading from a curated
// local collection. Entries are keyed by month-day; dates without an
// entry get a random one so the endpoint always has something to say.
package reflection

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"
)

//go:embed reflections.json
var reflectionsJSON []byte

type Reflection struct {
	Title   string `json:"title"`
	Date    string `json:"date"`
	Content string `json:"content"`
	Source  string `json:"source"`
}

type Service struct {
	entries []Reflection
	byDate  map[string]Reflection
}

func NewService() (*Service, error) {
	var entries []Reflection
	if err := json.Unmarshal(reflectionsJSON, &entries); err != nil {
		return nil, fmt.Errorf("parse embedded reflections: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("no reflections embedded")
	}

	byDate := make(map[string]Reflection, len(entries))
	for _, e := range entries {
		byDate[e.Date] = e
	}
	return &Service{entries: entries, byDate: byDate}, nil
}

// ForDate returns the reflection for the given day. When no entry
// matches the month-day key, a deterministic fallback is picked from the
// collection so the same day always yields the same reading.
func (s *Service) ForDate(t time.Time) Reflection {
	key := t.Format("01-02")
	if r, ok := s.byDate[key]; ok {
		r.Source = "local"
		return r
	}
	rng := rand.New(rand.NewSource(int64(t.YearDay())))
	r := s.entries[rng.Intn(len(s.entries))]
	r.Source = "local"
	return r
}

// Package session keeps the most recent ingested hospital prediction.
package session

import (
	"sync"
	"time"

	"github.com/jwalitptl/riskcast-api/internal/model"
)

const subscriberBuffer = 8

// Store is a single-slot, last-writer-wins record of the latest ingest.
type Store struct {
	mu     sync.RWMutex
	input  *model.PatientAdmission
	output *model.HospitalPrediction
	at     *time.Time

	subMu  sync.Mutex
	subs   map[int]chan model.LastPredictionRecord
	nextID int

	now func() time.Time
}

func NewStore() *Store {
	return NewStoreWithClock(time.Now)
}

func NewStoreWithClock(now func() time.Time) *Store {
	return &Store{
		subs: make(map[int]chan model.LastPredictionRecord),
		now:  now,
	}
}

// Record overwrites the slot and notifies subscribers. Subscribers see
// records in the same order as the slot is written.
func (s *Store) Record(input model.PatientAdmission, output model.HospitalPrediction) model.LastPredictionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	at := s.now()
	s.input = &input
	s.output = &output
	s.at = &at
	rec := s.snapshotLocked()

	// publish never blocks, so holding mu here only orders deliveries.
	s.publish(rec)
	return rec
}

// Snapshot returns a copy of the slot. Fields are nil before the first Record.
func (s *Store) Snapshot() model.LastPredictionRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() model.LastPredictionRecord {
	var rec model.LastPredictionRecord
	if s.input != nil {
		in := *s.input
		rec.LastInput = &in
	}
	if s.output != nil {
		out := *s.output
		rec.LastOutput = &out
	}
	if s.at != nil {
		at := *s.at
		rec.UpdatedAt = &at
	}
	return rec
}

// Subscribe returns a channel that receives every new record and a function
// that ends the subscription. Records are dropped for a subscriber whose
// buffer is full.
func (s *Store) Subscribe() (<-chan model.LastPredictionRecord, func()) {
	ch := make(chan model.LastPredictionRecord, subscriberBuffer)

	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
			close(ch)
		})
	}
}

func (s *Store) publish(rec model.LastPredictionRecord) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- rec:
		default:
		}
	}
}
